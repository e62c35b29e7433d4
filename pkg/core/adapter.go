package core

import (
	"context"
	"database/sql"
)

// Adapter defines the interface that all query-engine adapters must implement.
type Adapter interface {
	// Connect establishes a connection to the engine.
	Connect(ctx context.Context, cfg AdapterConfig) error

	// Close closes the engine connection.
	Close() error

	// Exec executes a SQL statement that doesn't return rows.
	Exec(ctx context.Context, sql string) error

	// Query executes a SQL statement that returns rows.
	Query(ctx context.Context, sql string) (*Rows, error)

	// GetTableMetadata retrieves metadata for a table.
	GetTableMetadata(ctx context.Context, table string) (*TableMetadata, error)

	// LoadJSON loads all JSON files matching a glob pattern into a table.
	// Schema is inferred from the records; malformed fields become NULLs.
	LoadJSON(ctx context.Context, tableName, glob string) error

	// CreateTableAs materializes the result of a SELECT as a table,
	// replacing any previous table of the same name.
	CreateTableAs(ctx context.Context, tableName, selectSQL string) error

	// ReadParquet registers the parquet files matching a glob pattern as a
	// queryable relation. Hive-style partition directories contribute
	// partition columns.
	ReadParquet(ctx context.Context, tableName, glob string) error

	// WriteParquet writes the result of a SELECT to a parquet file set,
	// overwriting any previous output at the destination.
	WriteParquet(ctx context.Context, selectSQL, dest string, opts WriteOptions) error

	// DialectName returns the name of the engine's SQL dialect.
	DialectName() string
}

// WriteOptions controls the layout of a parquet write.
type WriteOptions struct {
	// PartitionBy lists the columns used for directory-per-value
	// partitioning. Empty means a flat (unpartitioned) file set.
	PartitionBy []string
}

// AdapterConfig holds configuration for connecting to an engine.
type AdapterConfig struct {
	Type     string
	Path     string
	Host     string
	Port     int
	Database string
	Username string
	Password string
	Schema   string
	Options  map[string]string
	Params   map[string]any
}

// Column represents a column in an engine table.
type Column struct {
	Name     string
	Type     string
	Nullable bool
	Position int
}

// TableMetadata holds metadata about an engine table.
type TableMetadata struct {
	Schema   string
	Name     string
	Columns  []Column
	RowCount int64
}

// Rows wraps sql.Rows to provide a consistent interface.
type Rows struct {
	*sql.Rows
}
