// Package schema defines the relational layout of the beatlake warehouse:
// the raw staging relations and the typed projections that derive the five
// output tables from them.
//
// Column mappings live here as Go data rather than embedded SQL text, so a
// renamed column is a compile-time edit in exactly one place. Projection
// rendering is the only spot that assembles SQL.
package schema

import (
	"fmt"
	"strings"
)

// Column maps an output column name to the expression that produces it.
// An empty Expr selects the source column of the same name.
type Column struct {
	Name string
	Expr string
}

// selectExpr renders the column for a SELECT list.
func (c Column) selectExpr() string {
	if c.Expr == "" {
		return c.Name
	}
	return fmt.Sprintf("%s AS %s", c.Expr, c.Name)
}

// Join describes an inner join against another relation.
type Join struct {
	Table string
	Alias string
	On    string
}

// Projection is a declarative SELECT over one relation, optionally joined
// against others. It also carries the partitioning layout used when the
// projection is persisted.
type Projection struct {
	// Name is the output table name (and destination subdirectory).
	Name string

	// From is the source relation; Alias qualifies it in join projections.
	From  string
	Alias string

	Columns  []Column
	Distinct bool
	Where    string
	Joins    []Join

	// PartitionBy lists output columns used for directory-per-value
	// partitioning of the persisted table. Empty means flat output.
	PartitionBy []string
}

// SelectSQL renders the projection as a SELECT statement.
func (p Projection) SelectSQL() string {
	var b strings.Builder

	b.WriteString("SELECT ")
	if p.Distinct {
		b.WriteString("DISTINCT ")
	}

	exprs := make([]string, len(p.Columns))
	for i, c := range p.Columns {
		exprs[i] = c.selectExpr()
	}
	b.WriteString(strings.Join(exprs, ", "))

	b.WriteString(" FROM ")
	b.WriteString(p.From)
	if p.Alias != "" {
		b.WriteString(" ")
		b.WriteString(p.Alias)
	}

	for _, j := range p.Joins {
		fmt.Fprintf(&b, " INNER JOIN %s %s ON %s", j.Table, j.Alias, j.On)
	}

	if p.Where != "" {
		b.WriteString(" WHERE ")
		b.WriteString(p.Where)
	}

	return b.String()
}

// ColumnNames returns the output column names in projection order.
func (p Projection) ColumnNames() []string {
	names := make([]string, len(p.Columns))
	for i, c := range p.Columns {
		names[i] = c.Name
	}
	return names
}
