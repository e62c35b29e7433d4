// Package config provides configuration management for the beatlake CLI.
//
// Configuration is merged from four sources with ascending precedence:
// built-in defaults, a beatlake.yaml file, BEATLAKE_-prefixed environment
// variables, and command-line flags.
package config

import (
	"github.com/beatlake/beatlake/pkg/core"
)

// TargetConfig is an alias for the shared engine target configuration.
// This allows CLI code to use config.TargetConfig without importing pkg/core.
type TargetConfig = core.TargetConfig

// Config holds all CLI configuration options.
type Config struct {
	// InputPath is the lake root containing song_data/ and log_data/.
	InputPath string `koanf:"input_path"`
	// OutputPath is the lake root the output tables are written under.
	OutputPath string `koanf:"output_path"`
	// StatePath is the run-ledger database path.
	StatePath string `koanf:"state_path"`
	// Environment is the environment name recorded on runs.
	Environment string `koanf:"environment"`
	// CredentialsFile is an optional key-value file holding object-store
	// credentials (AWS_ACCESS_KEY_ID / AWS_SECRET_ACCESS_KEY).
	CredentialsFile string `koanf:"credentials_file"`
	// Verbose enables debug logging.
	Verbose bool `koanf:"verbose"`
	// Target configures the query engine.
	Target *TargetConfig `koanf:"target"`
}

// Default configuration values.
const (
	DefaultInputDir  = "data"
	DefaultOutputDir = "lake"
	DefaultStateFile = ".beatlake/state.db"
	DefaultEnv       = "dev"
)

// Default returns a Config populated with the built-in defaults.
func Default() *Config {
	return &Config{
		InputPath:   DefaultInputDir,
		OutputPath:  DefaultOutputDir,
		StatePath:   DefaultStateFile,
		Environment: DefaultEnv,
		Target:      &TargetConfig{Type: "duckdb"},
	}
}
