package schema

import (
	"context"

	"github.com/koustreak/sqlgate/internal/database"
)

// sqliteReader reads sqlite_master and the table_info / foreign_key_list
// pragmas. SQLite has no table comments.
type sqliteReader struct {
	s database.Session
}

// Internal tables (sqlite_sequence, sqlite_stat1, …) are skipped.
const sqliteListTables = `
	SELECT name
	FROM sqlite_master
	WHERE type = 'table'
	  AND name NOT LIKE 'sqlite\_%' ESCAPE '\'`

const sqliteColumns = `
	SELECT name, type, "notnull", dflt_value, pk
	FROM pragma_table_info(?)
	ORDER BY cid`

const sqliteForeignKeys = `
	SELECT "from", "table", "to"
	FROM pragma_foreign_key_list(?)`

type sqliteFK struct {
	from   string
	table  string
	column *string // NULL when the reference targets the implicit primary key
}

func (l *sqliteReader) ListTables(ctx context.Context) ([]string, error) {
	rows, err := l.s.Query(ctx, sqliteListTables)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanName)
}

func (l *sqliteReader) Columns(ctx context.Context, table string) ([]Column, error) {
	rows, err := l.s.Query(ctx, sqliteForeignKeys, table)
	if err != nil {
		return nil, err
	}
	fks, err := collect(rows, func(r database.Rows) (sqliteFK, error) {
		var fk sqliteFK
		err := r.Scan(&fk.from, &fk.table, &fk.column)
		return fk, err
	})
	if err != nil {
		return nil, err
	}
	byColumn := make(map[string]sqliteFK, len(fks))
	for _, fk := range fks {
		if _, seen := byColumn[fk.from]; !seen {
			byColumn[fk.from] = fk
		}
	}

	rows, err = l.s.Query(ctx, sqliteColumns, table)
	if err != nil {
		return nil, err
	}
	return collect(rows, func(r database.Rows) (Column, error) {
		var (
			col     Column
			notNull int64
			pk      int64
		)
		if err := r.Scan(&col.Name, &col.Type, &notNull, &col.Default, &pk); err != nil {
			return Column{}, err
		}
		col.Nullable = notNull == 0
		// pk is the 1-based position within the primary key, 0 otherwise.
		col.IsPrimaryKey = pk > 0
		if fk, ok := byColumn[col.Name]; ok {
			col.IsForeignKey = true
			fkTable := fk.table
			col.ForeignKeyTable = &fkTable
			col.ForeignKeyColumn = fk.column
		}
		return col, nil
	})
}

func (l *sqliteReader) Description(_ context.Context, _ string) (*string, error) {
	return nil, nil
}
