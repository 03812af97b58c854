// Package postgres provides the Postgres-family implementation of
// database.Adapter, backed by a single pgx connection per session.
package postgres

import (
	"context"
	"net"
	"net/url"
	"strconv"

	"github.com/jackc/pgx/v5"

	"github.com/koustreak/sqlgate/internal/database"
	"github.com/koustreak/sqlgate/internal/errs"
)

const (
	defaultPort      = 5432
	defaultSSLMode   = "disable"
	defaultNamespace = "public"
)

// Adapter opens pgx sessions. It holds no state and is safe for concurrent use.
type Adapter struct{}

// New returns a Postgres adapter.
func New() *Adapter {
	return &Adapter{}
}

var _ database.Adapter = (*Adapter)(nil)

func (a *Adapter) Engine() database.Engine   { return database.EnginePostgres }
func (a *Adapter) Dialect() database.Dialect { return database.DialectPostgres }

// Namespace returns cfg.Schema, or "public" when unset.
func (a *Adapter) Namespace(cfg *database.Config) string {
	if cfg.Schema != "" {
		return cfg.Schema
	}
	return defaultNamespace
}

// Open connects a single, unpooled pgx connection.
func (a *Adapter) Open(ctx context.Context, cfg *database.Config) (database.Session, error) {
	connCfg, err := pgx.ParseConfig(buildDSN(cfg))
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "invalid postgres connection settings", err)
	}
	if cfg.ConnectTimeout > 0 {
		connCfg.ConnectTimeout = cfg.ConnectTimeout
	}

	conn, err := pgx.ConnectConfig(ctx, connCfg)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "could not connect to postgres at "+cfg.Target(), err)
	}
	return &session{conn: conn}, nil
}

// buildDSN renders cfg as a postgres:// URL so credentials with reserved
// characters survive intact.
func buildDSN(cfg *database.Config) string {
	port := cfg.Port
	if port == 0 {
		port = defaultPort
	}
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = defaultSSLMode
	}

	u := url.URL{
		Scheme:   "postgres",
		Host:     net.JoinHostPort(cfg.Host, strconv.Itoa(port)),
		Path:     "/" + cfg.Database,
		RawQuery: url.Values{"sslmode": {sslMode}}.Encode(),
	}
	if cfg.User != "" {
		u.User = url.UserPassword(cfg.User, cfg.Password)
	}
	return u.String()
}

// --- database.Session implementation ---

type session struct {
	conn *pgx.Conn
}

func (s *session) Query(ctx context.Context, sql string, args ...any) (database.Rows, error) {
	rows, err := s.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapError(err, "query failed")
	}
	return &pgxRows{rows: rows}, nil
}

func (s *session) QueryRow(ctx context.Context, sql string, args ...any) database.Row {
	return &pgxRow{row: s.conn.QueryRow(ctx, sql, args...)}
}

func (s *session) Close(ctx context.Context) error {
	return s.conn.Close(ctx)
}

// --- pgx type wrappers ---

// pgxRows wraps pgx.Rows to satisfy database.Rows.
type pgxRows struct {
	rows pgx.Rows
}

func (r *pgxRows) Next() bool { return r.rows.Next() }
func (r *pgxRows) Close()     { r.rows.Close() }

func (r *pgxRows) Scan(dest ...any) error {
	if err := r.rows.Scan(dest...); err != nil {
		return mapError(err, "scan failed")
	}
	return nil
}

func (r *pgxRows) Err() error {
	if err := r.rows.Err(); err != nil {
		return mapError(err, "query failed")
	}
	return nil
}

func (r *pgxRows) Columns() ([]string, error) {
	descs := r.rows.FieldDescriptions()
	cols := make([]string, len(descs))
	for i, d := range descs {
		cols[i] = d.Name
	}
	return cols, nil
}

// pgxRow wraps pgx.Row to satisfy database.Row.
type pgxRow struct {
	row pgx.Row
}

func (r *pgxRow) Scan(dest ...any) error {
	if err := r.row.Scan(dest...); err != nil {
		return mapError(err, "query failed")
	}
	return nil
}
