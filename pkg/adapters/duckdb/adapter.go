// Package duckdb provides a DuckDB query-engine adapter for beatlake.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/beatlake/beatlake/pkg/adapter"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver
)

// Adapter implements the adapter.Adapter interface for DuckDB.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new DuckDB adapter instance.
// A nil logger discards all log output.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	a := &Adapter{}
	a.Logger = logger
	return a
}

// DialectName returns the SQL dialect for this adapter.
func (a *Adapter) DialectName() string {
	return "duckdb"
}

// Connect establishes a connection to DuckDB and prepares the session:
// extensions are installed and loaded, storage secrets are created, and
// session settings are applied, all from the adapter config Params.
// Use ":memory:" (or an empty path) for an in-memory database.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return fmt.Errorf("failed to open duckdb connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping duckdb: %w", err)
	}

	a.DB = db
	a.Cfg = cfg

	params, err := ParseParams(cfg.Params)
	if err != nil {
		_ = db.Close()
		a.DB = nil
		return fmt.Errorf("invalid duckdb params: %w", err)
	}

	if err := a.setupSession(ctx, params); err != nil {
		_ = db.Close()
		a.DB = nil
		return err
	}

	return nil
}

// setupSession applies extensions, secrets, and settings to the session.
func (a *Adapter) setupSession(ctx context.Context, params *Params) error {
	for _, ext := range params.Extensions {
		a.Logger.Debug("loading duckdb extension", "extension", ext)
		if err := a.Exec(ctx, fmt.Sprintf("INSTALL %s", ext)); err != nil {
			return fmt.Errorf("failed to install extension %s: %w", ext, err)
		}
		if err := a.Exec(ctx, fmt.Sprintf("LOAD %s", ext)); err != nil {
			return fmt.Errorf("failed to load extension %s: %w", ext, err)
		}
	}

	for i, secret := range params.Secrets {
		a.Logger.Debug("creating storage secret", "type", secret.Type, "index", i)
		if err := a.Exec(ctx, secret.CreateSQL(fmt.Sprintf("beatlake_secret_%d", i))); err != nil {
			return fmt.Errorf("failed to create %s secret: %w", secret.Type, err)
		}
	}

	// Sorted for deterministic session setup
	keys := make([]string, 0, len(params.Settings))
	for k := range params.Settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := a.Exec(ctx, fmt.Sprintf("SET %s = '%s'", k, escapeSingleQuotes(params.Settings[k]))); err != nil {
			return fmt.Errorf("failed to apply setting %s: %w", k, err)
		}
	}

	return nil
}

// GetTableMetadata retrieves metadata for a specified table.
func (a *Adapter) GetTableMetadata(ctx context.Context, table string) (*adapter.Metadata, error) {
	if a.DB == nil {
		return nil, fmt.Errorf("engine connection not established")
	}

	// Parse schema.table if provided
	schema := "main"
	tableName := table
	if parts := strings.Split(table, "."); len(parts) == 2 {
		schema = parts[0]
		tableName = parts[1]
	}

	query := `
		SELECT
			column_name,
			data_type,
			is_nullable,
			ordinal_position
		FROM information_schema.columns
		WHERE table_schema = ? AND table_name = ?
		ORDER BY ordinal_position
	`

	rows, err := a.DB.QueryContext(ctx, query, schema, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to query column metadata: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var columns []adapter.Column
	for rows.Next() {
		var col adapter.Column
		var nullable string
		if err := rows.Scan(&col.Name, &col.Type, &nullable, &col.Position); err != nil {
			return nil, fmt.Errorf("failed to scan column metadata: %w", err)
		}
		col.Nullable = nullable == "YES"
		columns = append(columns, col)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating column metadata: %w", err)
	}

	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s not found", table)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s.%s", schema, tableName) //nolint:gosec // Table names are validated by caller
	var rowCount int64
	if err := a.DB.QueryRowContext(ctx, countQuery).Scan(&rowCount); err != nil {
		// Non-fatal error, just set to 0
		rowCount = 0
	}

	return &adapter.Metadata{
		Schema:   schema,
		Name:     tableName,
		Columns:  columns,
		RowCount: rowCount,
	}, nil
}

// LoadJSON loads all JSON files matching a glob pattern into a table.
// DuckDB infers the schema from the records; fields that fail to parse
// become NULLs rather than rejecting the row.
func (a *Adapter) LoadJSON(ctx context.Context, tableName, glob string) error {
	if a.DB == nil {
		return fmt.Errorf("engine connection not established")
	}

	a.Logger.Debug("loading json", "table", tableName, "glob", glob)

	query := fmt.Sprintf(
		"CREATE OR REPLACE TABLE %s AS SELECT * FROM read_json_auto('%s')",
		tableName,
		escapeSingleQuotes(glob),
	)

	if err := a.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to load JSON into %s: %w", tableName, err)
	}

	return nil
}

// ReadParquet registers the parquet files matching a glob pattern as a view.
// Hive-style partition directories (key=value) contribute partition columns.
func (a *Adapter) ReadParquet(ctx context.Context, tableName, glob string) error {
	if a.DB == nil {
		return fmt.Errorf("engine connection not established")
	}

	a.Logger.Debug("reading parquet", "table", tableName, "glob", glob)

	// Quoted so table names that collide with type keywords (time) parse.
	query := fmt.Sprintf(
		`CREATE OR REPLACE VIEW "%s" AS SELECT * FROM read_parquet('%s', hive_partitioning = true)`,
		tableName,
		escapeSingleQuotes(glob),
	)

	if err := a.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to read parquet into %s: %w", tableName, err)
	}

	return nil
}

// WriteParquet writes the result of a SELECT to a parquet file set at dest,
// overwriting previous output. Partitioned writes produce a key=value
// directory tree; unpartitioned writes produce a flat directory of files.
func (a *Adapter) WriteParquet(ctx context.Context, selectSQL, dest string, opts adapter.WriteOptions) error {
	if a.DB == nil {
		return fmt.Errorf("engine connection not established")
	}

	// Full-overwrite semantics: remove prior local output wholesale so
	// stale partitions don't survive. Remote destinations rely on the
	// engine-side OVERWRITE_OR_IGNORE flag instead.
	if !strings.Contains(dest, "://") {
		if err := os.RemoveAll(dest); err != nil {
			return fmt.Errorf("failed to clear destination %s: %w", dest, err)
		}
		// COPY ... TO does not create missing parent directories.
		if err := os.MkdirAll(dest, 0o750); err != nil {
			return fmt.Errorf("failed to create destination %s: %w", dest, err)
		}
	}

	layout := "PER_THREAD_OUTPUT TRUE"
	if len(opts.PartitionBy) > 0 {
		layout = fmt.Sprintf("PARTITION_BY (%s)", strings.Join(opts.PartitionBy, ", "))
	}

	a.Logger.Debug("writing parquet", "dest", dest, "layout", layout)

	query := fmt.Sprintf(
		"COPY (%s) TO '%s' (FORMAT PARQUET, %s, OVERWRITE_OR_IGNORE TRUE)",
		selectSQL,
		escapeSingleQuotes(dest),
		layout,
	)

	if err := a.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to write parquet to %s: %w", dest, err)
	}

	return nil
}

// escapeSingleQuotes doubles single quotes for embedding in SQL literals.
func escapeSingleQuotes(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
