package schema

import (
	"context"

	"github.com/koustreak/sqlgate/internal/database"
	"github.com/koustreak/sqlgate/internal/errs"
)

// pgReader reads information_schema and pg_catalog for one schema.
type pgReader struct {
	s      database.Session
	schema string
}

const pgListTables = `
	SELECT table_name
	FROM information_schema.tables
	WHERE table_schema = $1
	  AND table_type = 'BASE TABLE'`

// pgColumns resolves key membership per column. The foreign key side is
// matched on the referencing column (key_column_usage); the target comes
// from constraint_column_usage.
const pgColumns = `
	SELECT
		c.column_name,
		c.data_type,
		c.is_nullable = 'YES' AS nullable,
		c.column_default,
		EXISTS (
			SELECT 1
			FROM information_schema.table_constraints tc
			JOIN information_schema.key_column_usage kcu
				ON tc.constraint_name = kcu.constraint_name
				AND tc.table_schema = kcu.table_schema
				AND tc.table_name = kcu.table_name
			WHERE tc.constraint_type = 'PRIMARY KEY'
			  AND tc.table_schema = c.table_schema
			  AND tc.table_name = c.table_name
			  AND kcu.column_name = c.column_name
		) AS is_primary_key,
		fk.table_name  AS fk_table,
		fk.column_name AS fk_column
	FROM information_schema.columns c
	LEFT JOIN LATERAL (
		SELECT ccu.table_name, ccu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
			AND tc.table_name = kcu.table_name
		JOIN information_schema.constraint_column_usage ccu
			ON ccu.constraint_name = tc.constraint_name
			AND ccu.constraint_schema = tc.constraint_schema
		WHERE tc.constraint_type = 'FOREIGN KEY'
		  AND tc.table_schema = c.table_schema
		  AND tc.table_name = c.table_name
		  AND kcu.column_name = c.column_name
		LIMIT 1
	) fk ON true
	WHERE c.table_schema = $1 AND c.table_name = $2
	ORDER BY c.ordinal_position`

const pgDescription = `
	SELECT obj_description(cl.oid, 'pg_class')
	FROM pg_class cl
	JOIN pg_namespace n ON n.oid = cl.relnamespace
	WHERE cl.relname = $1 AND n.nspname = $2`

func (p *pgReader) ListTables(ctx context.Context) ([]string, error) {
	rows, err := p.s.Query(ctx, pgListTables, p.schema)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanName)
}

func (p *pgReader) Columns(ctx context.Context, table string) ([]Column, error) {
	rows, err := p.s.Query(ctx, pgColumns, p.schema, table)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanKeyedColumn)
}

func (p *pgReader) Description(ctx context.Context, table string) (*string, error) {
	var desc *string
	err := p.s.QueryRow(ctx, pgDescription, table, p.schema).Scan(&desc)
	if errs.IsNotFound(err) {
		return nil, nil
	}
	return desc, err
}

// scanKeyedColumn scans the shared column shape of the information_schema
// readers: name, type, nullable, default, is_pk, fk_table, fk_column.
func scanKeyedColumn(rows database.Rows) (Column, error) {
	var col Column
	if err := rows.Scan(
		&col.Name,
		&col.Type,
		&col.Nullable,
		&col.Default,
		&col.IsPrimaryKey,
		&col.ForeignKeyTable,
		&col.ForeignKeyColumn,
	); err != nil {
		return Column{}, err
	}
	col.IsForeignKey = col.ForeignKeyTable != nil
	return col, nil
}
