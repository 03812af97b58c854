package schema

import (
	"context"

	"github.com/koustreak/sqlgate/internal/database"
	"github.com/koustreak/sqlgate/internal/errs"
)

// mysqlReader reads information_schema for one database
// (schema = database in MySQL).
type mysqlReader struct {
	s  database.Session
	db string
}

const mysqlListTables = `
	SELECT TABLE_NAME
	FROM information_schema.TABLES
	WHERE TABLE_SCHEMA = ?
	  AND TABLE_TYPE = 'BASE TABLE'`

const mysqlColumns = `
	SELECT
		c.COLUMN_NAME,
		c.DATA_TYPE,
		c.IS_NULLABLE = 'YES',
		c.COLUMN_DEFAULT,
		c.COLUMN_KEY = 'PRI',
		(SELECT k.REFERENCED_TABLE_NAME
		 FROM information_schema.KEY_COLUMN_USAGE k
		 WHERE k.TABLE_SCHEMA = c.TABLE_SCHEMA
		   AND k.TABLE_NAME = c.TABLE_NAME
		   AND k.COLUMN_NAME = c.COLUMN_NAME
		   AND k.REFERENCED_TABLE_NAME IS NOT NULL
		 LIMIT 1),
		(SELECT k.REFERENCED_COLUMN_NAME
		 FROM information_schema.KEY_COLUMN_USAGE k
		 WHERE k.TABLE_SCHEMA = c.TABLE_SCHEMA
		   AND k.TABLE_NAME = c.TABLE_NAME
		   AND k.COLUMN_NAME = c.COLUMN_NAME
		   AND k.REFERENCED_TABLE_NAME IS NOT NULL
		 LIMIT 1)
	FROM information_schema.COLUMNS c
	WHERE c.TABLE_SCHEMA = ? AND c.TABLE_NAME = ?
	ORDER BY c.ORDINAL_POSITION`

const mysqlDescription = `
	SELECT TABLE_COMMENT
	FROM information_schema.TABLES
	WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?`

func (m *mysqlReader) ListTables(ctx context.Context) ([]string, error) {
	rows, err := m.s.Query(ctx, mysqlListTables, m.db)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanName)
}

func (m *mysqlReader) Columns(ctx context.Context, table string) ([]Column, error) {
	rows, err := m.s.Query(ctx, mysqlColumns, m.db, table)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanKeyedColumn)
}

// Description returns nil for an empty TABLE_COMMENT.
func (m *mysqlReader) Description(ctx context.Context, table string) (*string, error) {
	var comment *string
	err := m.s.QueryRow(ctx, mysqlDescription, m.db, table).Scan(&comment)
	if errs.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if comment == nil || *comment == "" {
		return nil, nil
	}
	return comment, nil
}
