package duckdb

import (
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

// Params holds DuckDB-specific configuration.
// Parsed from adapter.Config.Params using mapstructure.
type Params struct {
	// Extensions to install and load (e.g., "httpfs", "json")
	Extensions []string `mapstructure:"extensions"`

	// Secrets for cloud storage authentication
	Secrets []SecretConfig `mapstructure:"secrets"`

	// Settings to apply at session level (e.g., memory_limit, threads)
	Settings map[string]string `mapstructure:"settings"`
}

// SecretConfig defines a DuckDB secret for cloud storage.
type SecretConfig struct {
	// Type: "s3", "gcs", "azure", "r2"
	Type string `mapstructure:"type"`

	// Provider: "config" for explicit keys, "credential_chain" for ambient
	Provider string `mapstructure:"provider"`

	// Region for S3 buckets
	Region string `mapstructure:"region,omitempty"`

	// Scope limits the secret to a path prefix
	Scope string `mapstructure:"scope,omitempty"`

	// KeyID for explicit credentials
	KeyID string `mapstructure:"key_id,omitempty"`

	// Secret for explicit credentials
	Secret string `mapstructure:"secret,omitempty"`

	// Endpoint for S3-compatible services (MinIO, etc.)
	Endpoint string `mapstructure:"endpoint,omitempty"`

	// URLStyle: "vhost" or "path" for S3
	URLStyle string `mapstructure:"url_style,omitempty"`
}

// ParseParams decodes the generic params map into DuckDB params.
// A nil map yields empty params.
func ParseParams(raw map[string]any) (*Params, error) {
	params := &Params{}
	if raw == nil {
		return params, nil
	}
	if err := mapstructure.Decode(raw, params); err != nil {
		return nil, fmt.Errorf("failed to decode duckdb params: %w", err)
	}
	return params, nil
}

// CreateSQL renders the CREATE SECRET statement for this secret.
// Empty fields are omitted so the engine applies its own defaults.
func (s SecretConfig) CreateSQL(name string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE OR REPLACE SECRET %s (\n", name)
	fmt.Fprintf(&b, "    TYPE %s", s.Type)
	if s.Provider != "" {
		fmt.Fprintf(&b, ",\n    PROVIDER %s", s.Provider)
	}
	if s.KeyID != "" {
		fmt.Fprintf(&b, ",\n    KEY_ID '%s'", escapeSingleQuotes(s.KeyID))
	}
	if s.Secret != "" {
		fmt.Fprintf(&b, ",\n    SECRET '%s'", escapeSingleQuotes(s.Secret))
	}
	if s.Region != "" {
		fmt.Fprintf(&b, ",\n    REGION '%s'", escapeSingleQuotes(s.Region))
	}
	if s.Endpoint != "" {
		fmt.Fprintf(&b, ",\n    ENDPOINT '%s'", escapeSingleQuotes(s.Endpoint))
	}
	if s.URLStyle != "" {
		fmt.Fprintf(&b, ",\n    URL_STYLE '%s'", escapeSingleQuotes(s.URLStyle))
	}
	if s.Scope != "" {
		fmt.Fprintf(&b, ",\n    SCOPE '%s'", escapeSingleQuotes(s.Scope))
	}
	b.WriteString("\n)")
	return b.String()
}
