package database

import (
	"fmt"
	"strings"
)

// Dialect controls which SQL placeholder and identifier-quoting style the
// query builder emits.
type Dialect int

const (
	// DialectPostgres uses $1, $2, … placeholders and "ident" quoting.
	DialectPostgres Dialect = iota

	// DialectMySQL uses ? placeholders and `ident` quoting.
	DialectMySQL

	// DialectSQLite uses ? placeholders and "ident" quoting.
	DialectSQLite
)

func (d Dialect) String() string {
	switch d {
	case DialectMySQL:
		return "mysql"
	case DialectSQLite:
		return "sqlite"
	default:
		return "postgres"
	}
}

// Placeholder returns the parameter placeholder for the 1-based position idx.
// Postgres: $1, $2, …   MySQL / SQLite: ? (index is ignored)
func (d Dialect) Placeholder(idx int) string {
	if d == DialectPostgres {
		return fmt.Sprintf("$%d", idx)
	}
	return "?"
}

// QuoteIdent wraps a SQL identifier in the dialect's quote character,
// doubling any embedded quote characters.
func (d Dialect) QuoteIdent(name string) string {
	if d == DialectMySQL {
		return "`" + strings.ReplaceAll(name, "`", "``") + "`"
	}
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// SelectBuilder constructs a SELECT over a single table. Identifiers are
// always quoted and the LIMIT value is always passed as an argument, never
// interpolated.
//
// Usage:
//
//	sql, args := Select("users", DialectMySQL).Limit(25).Build()
//	// SELECT * FROM `users` LIMIT ?   [25]
//
//	sql, _ = Select("users", DialectPostgres).In("public").Count().Build()
//	// SELECT COUNT(*) FROM "public"."users"
type SelectBuilder struct {
	table     string
	namespace string
	dialect   Dialect
	columns   []string
	count     bool
	limit     *int
}

// Select starts a new SelectBuilder for the given table and dialect.
func Select(table string, d Dialect) *SelectBuilder {
	return &SelectBuilder{table: table, dialect: d}
}

// In qualifies the table with a schema / database name.
func (b *SelectBuilder) In(namespace string) *SelectBuilder {
	b.namespace = namespace
	return b
}

// Columns restricts the SELECT to the specified columns.
// If not called, SELECT * is used.
func (b *SelectBuilder) Columns(cols ...string) *SelectBuilder {
	b.columns = cols
	return b
}

// Count turns the statement into SELECT COUNT(*).
func (b *SelectBuilder) Count() *SelectBuilder {
	b.count = true
	return b
}

// Limit sets the maximum number of rows to return.
func (b *SelectBuilder) Limit(n int) *SelectBuilder {
	b.limit = &n
	return b
}

// Build produces the final SQL string and argument slice.
func (b *SelectBuilder) Build() (string, []any) {
	cols := "*"
	switch {
	case b.count:
		cols = "COUNT(*)"
	case len(b.columns) > 0:
		quoted := make([]string, len(b.columns))
		for i, c := range b.columns {
			quoted[i] = b.dialect.QuoteIdent(c)
		}
		cols = strings.Join(quoted, ", ")
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(cols)
	sb.WriteString(" FROM ")
	if b.namespace != "" {
		sb.WriteString(b.dialect.QuoteIdent(b.namespace))
		sb.WriteString(".")
	}
	sb.WriteString(b.dialect.QuoteIdent(b.table))

	var args []any
	if b.limit != nil {
		sb.WriteString(" LIMIT ")
		sb.WriteString(b.dialect.Placeholder(1))
		args = append(args, *b.limit)
	}

	return sb.String(), args
}
