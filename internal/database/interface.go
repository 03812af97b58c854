package database

import "context"

// Adapter hides engine-specific session setup, query dispatch and
// placeholder syntax behind one capability set. Everything above this
// package talks only to Adapter and Session; adding an engine means adding
// one Adapter implementation and registering it.
type Adapter interface {
	// Engine reports which engine this adapter serves.
	Engine() Engine

	// Dialect reports the placeholder and identifier-quoting style.
	Dialect() Dialect

	// Namespace returns the catalog namespace to introspect for cfg: the
	// schema on Postgres, the database name on MySQL, the file on SQLite.
	Namespace(cfg *Config) string

	// Open establishes a fresh session. Failures are always
	// errs.ErrKindConnectionFailed. The caller must Close the session on
	// every exit path.
	Open(ctx context.Context, cfg *Config) (Session, error)
}

// Session is a single open connection to a database. Sessions are never
// shared across requests.
type Session interface {
	// Query executes a SQL statement that returns multiple rows.
	Query(ctx context.Context, sql string, args ...any) (Rows, error)

	// QueryRow executes a SQL statement that returns at most one row.
	QueryRow(ctx context.Context, sql string, args ...any) Row

	// Close releases the server-side session or file handle.
	Close(ctx context.Context) error
}

// Rows is an abstraction over a database result set.
// Callers must always call Close() when done, even on error.
type Rows interface {
	// Next advances to the next row.
	// Returns false when no more rows exist or on error.
	Next() bool

	// Scan copies the current row's columns into the provided destinations.
	Scan(dest ...any) error

	// Columns returns the column names of the result set.
	Columns() ([]string, error)

	// Close releases resources held by the result set.
	Close()

	// Err returns any error encountered during iteration.
	Err() error
}

// Row is an abstraction over a single database row.
type Row interface {
	Scan(dest ...any) error
}
