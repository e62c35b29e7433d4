// Package core defines the shared language of the beatlake system.
//
// This package contains:
//   - Domain entities (Run, StageRun)
//   - Service interfaces (Adapter, Store)
//   - Configuration types (TargetConfig, AdapterConfig)
//
// The Golden Rule: pkg/core imports ONLY the stdlib.
// All other packages depend on core, not the reverse.
package core
