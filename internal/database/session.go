package database

import (
	"context"
	"database/sql"
	"errors"
)

// ErrorMapper translates a driver error into an *errs.Error. Each adapter
// package supplies its own.
type ErrorMapper func(err error, msg string) error

// Queryer is the subset of *sql.DB / *sql.Conn a SQLSession needs.
type Queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLSession is a Session over database/sql, shared by the adapters whose
// drivers plug into database/sql (MySQL, SQLite).
type SQLSession struct {
	q       Queryer
	closeFn func() error
	mapErr  ErrorMapper
}

// NewSQLSession wraps q. closeFn runs exactly once on Close; it may be nil.
func NewSQLSession(q Queryer, closeFn func() error, mapErr ErrorMapper) *SQLSession {
	if mapErr == nil {
		mapErr = func(err error, _ string) error { return err }
	}
	return &SQLSession{q: q, closeFn: closeFn, mapErr: mapErr}
}

// Query executes a SQL statement that returns multiple rows.
func (s *SQLSession) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, s.mapErr(err, "query failed")
	}
	return &sqlRows{rows: rows, mapErr: s.mapErr}, nil
}

// QueryRow executes a SQL statement expected to return at most one row.
func (s *SQLSession) QueryRow(ctx context.Context, query string, args ...any) Row {
	return &sqlRow{row: s.q.QueryRowContext(ctx, query, args...), mapErr: s.mapErr}
}

// Close runs the close function once. Later calls are no-ops.
func (s *SQLSession) Close(_ context.Context) error {
	if s.closeFn == nil {
		return nil
	}
	fn := s.closeFn
	s.closeFn = nil
	return fn()
}

// --- sql.Rows / sql.Row wrappers ---

type sqlRows struct {
	rows   *sql.Rows
	mapErr ErrorMapper
}

func (r *sqlRows) Next() bool                 { return r.rows.Next() }
func (r *sqlRows) Columns() ([]string, error) { return r.rows.Columns() }
func (r *sqlRows) Close()                     { _ = r.rows.Close() }

func (r *sqlRows) Scan(dest ...any) error {
	if err := r.rows.Scan(dest...); err != nil {
		return r.mapErr(err, "scan failed")
	}
	return nil
}

func (r *sqlRows) Err() error {
	if err := r.rows.Err(); err != nil {
		return r.mapErr(err, "row iteration failed")
	}
	return nil
}

type sqlRow struct {
	row    *sql.Row
	mapErr ErrorMapper
}

func (r *sqlRow) Scan(dest ...any) error {
	err := r.row.Scan(dest...)
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return r.mapErr(err, "no rows")
	}
	return r.mapErr(err, "query failed")
}
