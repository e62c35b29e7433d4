package core

// TargetConfig holds query-engine target configuration.
type TargetConfig struct {
	Type string `koanf:"type"` // duckdb

	// File-based engines: database file path (empty for in-memory)
	Database string `koanf:"database"`

	// Network engines
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`

	// Common
	Schema string `koanf:"schema"`

	// Additional driver-specific options
	Options map[string]string `koanf:"options"`

	// Params holds adapter-specific configuration
	// (e.g., DuckDB extensions, secrets, settings)
	Params map[string]any `koanf:"params"`
}
