package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDialect_Placeholder(t *testing.T) {
	assert.Equal(t, "$1", DialectPostgres.Placeholder(1))
	assert.Equal(t, "$12", DialectPostgres.Placeholder(12))
	assert.Equal(t, "?", DialectMySQL.Placeholder(3))
	assert.Equal(t, "?", DialectSQLite.Placeholder(3))
}

func TestDialect_QuoteIdent(t *testing.T) {
	tests := []struct {
		dialect Dialect
		in      string
		want    string
	}{
		{DialectPostgres, "users", `"users"`},
		{DialectPostgres, `we"ird`, `"we""ird"`},
		{DialectSQLite, "order", `"order"`},
		{DialectMySQL, "users", "`users`"},
		{DialectMySQL, "we`ird", "`we``ird`"},
	}

	for _, tt := range tests {
		t.Run(tt.dialect.String()+"/"+tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.dialect.QuoteIdent(tt.in))
		})
	}
}

func TestSelectBuilder(t *testing.T) {
	tests := []struct {
		name     string
		build    func() (string, []any)
		wantSQL  string
		wantArgs []any
	}{
		{
			name:    "star",
			build:   Select("users", DialectSQLite).Build,
			wantSQL: `SELECT * FROM "users"`,
		},
		{
			name:     "limit postgres",
			build:    Select("users", DialectPostgres).In("public").Limit(25).Build,
			wantSQL:  `SELECT * FROM "public"."users" LIMIT $1`,
			wantArgs: []any{25},
		},
		{
			name:     "limit mysql",
			build:    Select("users", DialectMySQL).In("shop").Limit(25).Build,
			wantSQL:  "SELECT * FROM `shop`.`users` LIMIT ?",
			wantArgs: []any{25},
		},
		{
			name:    "count",
			build:   Select("orders", DialectPostgres).In("sales").Count().Build,
			wantSQL: `SELECT COUNT(*) FROM "sales"."orders"`,
		},
		{
			name:    "columns",
			build:   Select("users", DialectMySQL).Columns("id", "name").Build,
			wantSQL: "SELECT `id`, `name` FROM `users`",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args := tt.build()
			assert.Equal(t, tt.wantSQL, sql)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}
