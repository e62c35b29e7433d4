// Package adapter provides query-engine adapter interfaces and shared
// implementations for beatlake's transformation pipeline.
//
// This package contains the public contract that all engine adapters must
// implement. Concrete adapter implementations are in pkg/adapters/
// subdirectories.
package adapter

import "github.com/beatlake/beatlake/pkg/core"

// Type aliases so adapter implementations only need to import this package.
type (
	// Config is an alias for core.AdapterConfig.
	Config = core.AdapterConfig

	// Column is an alias for core.Column.
	Column = core.Column

	// Metadata is an alias for core.TableMetadata.
	Metadata = core.TableMetadata

	// Rows is an alias for core.Rows.
	Rows = core.Rows

	// WriteOptions is an alias for core.WriteOptions.
	WriteOptions = core.WriteOptions
)

// Adapter is the contract all engine adapters implement.
// See core.Adapter for method documentation.
type Adapter = core.Adapter
