package duckdb

import (
	"log/slog"

	"github.com/beatlake/beatlake/pkg/adapter"
)

// init registers the DuckDB adapter with the adapter registry. Import this
// package with a blank identifier to make the adapter available:
//
//	import _ "github.com/beatlake/beatlake/pkg/adapters/duckdb"
func init() {
	adapter.Register("duckdb", func(logger *slog.Logger) adapter.Adapter { return New(logger) })
}
