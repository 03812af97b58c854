package schema

import (
	"context"

	"github.com/koustreak/sqlgate/internal/database"
)

// reader is the per-engine catalog access used by Introspect. Each
// implementation reads its engine's native metadata source over an open
// session and returns the normalized pieces.
type reader interface {
	// ListTables returns user table names in catalog order.
	ListTables(ctx context.Context) ([]string, error)

	// Columns returns the columns of table in declaration order, with key
	// membership already resolved.
	Columns(ctx context.Context, table string) ([]Column, error)

	// Description returns the table comment, or nil when there is none.
	Description(ctx context.Context, table string) (*string, error)
}

// readers maps an engine to the constructor of its catalog reader.
var readers = map[database.Engine]func(s database.Session, namespace string) reader{
	database.EnginePostgres: func(s database.Session, ns string) reader { return &pgReader{s: s, schema: ns} },
	database.EngineMySQL:    func(s database.Session, ns string) reader { return &mysqlReader{s: s, db: ns} },
	database.EngineSQLite:   func(s database.Session, _ string) reader { return &sqliteReader{s: s} },
}
