package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/beatlake/beatlake/pkg/core"
)

// Package-level koanf instance and config file tracking
var (
	k              = koanf.New(".")
	configFileUsed string
)

// findConfigFile finds the config file to use.
// Priority: explicit path > beatlake.yaml > beatlake.yml
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if _, err := os.Stat("beatlake.yaml"); err == nil {
		return "beatlake.yaml"
	}
	if _, err := os.Stat("beatlake.yml"); err == nil {
		return "beatlake.yml"
	}
	return ""
}

// ResetConfig resets the koanf instance. Used for testing.
func ResetConfig() {
	k = koanf.New(".")
	configFileUsed = ""
}

// LoadConfig loads configuration from file, environment variables, and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	// Reset koanf for fresh load
	k = koanf.New(".")

	// 1. Load defaults
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"input_path":  DefaultInputDir,
		"output_path": DefaultOutputDir,
		"state_path":  DefaultStateFile,
		"environment": DefaultEnv,
		"verbose":     false,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Find and load config file
	configFileUsed = findConfigFile(cfgFile)
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
	}

	// 3. Load environment variables (BEATLAKE_ prefix)
	// Transform: BEATLAKE_INPUT_PATH -> input_path
	if err := k.Load(env.Provider("BEATLAKE_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "BEATLAKE_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Load flags (highest priority - overrides env vars and config file)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			// Only load flags that were explicitly set
			if !f.Changed {
				return "", nil
			}

			// Bridge the gap between short flag names and config keys
			switch f.Name {
			case "input":
				return "input_path", posflag.FlagVal(flags, f)
			case "output":
				return "output_path", posflag.FlagVal(flags, f)
			case "state":
				return "state_path", posflag.FlagVal(flags, f)
			case "env":
				return "environment", posflag.FlagVal(flags, f)
			case "credentials":
				return "credentials_file", posflag.FlagVal(flags, f)
			}

			key := strings.ReplaceAll(f.Name, "-", "_")
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Initialize default target if not specified
	if cfg.Target == nil {
		cfg.Target = &core.TargetConfig{Type: "duckdb"}
	}
	if cfg.Target.Type == "" {
		cfg.Target.Type = "duckdb"
	}

	// Expand environment variables in sensitive target fields
	expandTargetEnvVars(cfg.Target)

	// Inject object-store credentials into the target, if a file is given
	if cfg.CredentialsFile != "" {
		if err := ApplyCredentials(cfg.Target, cfg.CredentialsFile); err != nil {
			return nil, err
		}
	}

	return &cfg, nil
}

// GetConfigFileUsed returns the path to the config file being used, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match // Return original if not found
	})
}

// expandTargetEnvVars expands environment variables in sensitive target fields.
func expandTargetEnvVars(t *core.TargetConfig) {
	if t == nil {
		return
	}
	t.Password = expandEnvVars(t.Password)
	t.User = expandEnvVars(t.User)
	t.Host = expandEnvVars(t.Host)
	t.Database = expandEnvVars(t.Database)
}

// ApplyCredentials reads an object-store credentials file (KEY=VALUE lines)
// and injects the keys into the target's engine params as a storage secret.
// The credentials never touch the process environment; they travel inside
// the config to the engine's CREATE SECRET statement.
func ApplyCredentials(t *core.TargetConfig, path string) error {
	creds, err := godotenv.Read(path)
	if err != nil {
		return fmt.Errorf("failed to read credentials file %s: %w", path, err)
	}

	keyID := creds["AWS_ACCESS_KEY_ID"]
	secret := creds["AWS_SECRET_ACCESS_KEY"]
	if keyID == "" || secret == "" {
		return fmt.Errorf("credentials file %s must set AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY", path)
	}

	if t.Params == nil {
		t.Params = make(map[string]any)
	}

	secretCfg := map[string]any{
		"type":   "s3",
		"key_id": keyID,
		"secret": secret,
	}
	if region := creds["AWS_REGION"]; region != "" {
		secretCfg["region"] = region
	}
	if endpoint := creds["AWS_ENDPOINT_URL"]; endpoint != "" {
		secretCfg["endpoint"] = endpoint
	}

	secrets, _ := t.Params["secrets"].([]any)
	t.Params["secrets"] = append(secrets, secretCfg)

	// s3:// IO needs the httpfs extension loaded
	ensureExtension(t.Params, "httpfs")

	return nil
}

// ensureExtension adds an engine extension to params if not already listed.
func ensureExtension(params map[string]any, name string) {
	exts, _ := params["extensions"].([]any)
	for _, e := range exts {
		if s, ok := e.(string); ok && s == name {
			return
		}
	}
	params["extensions"] = append(exts, name)
}
