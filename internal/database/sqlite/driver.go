// Package sqlite provides the file-based implementation of database.Adapter
// on top of the pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"os"
	"strings"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/koustreak/sqlgate/internal/database"
	"github.com/koustreak/sqlgate/internal/errs"
)

// Resolver turns a non-local file identifier (for example an object-store
// URL) into a path on the local filesystem.
type Resolver interface {
	Resolve(ctx context.Context, ref string) (string, error)
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithResolver routes identifiers that carry a URL scheme ("s3://…")
// through r before opening them.
func WithResolver(r Resolver) Option {
	return func(a *Adapter) { a.resolver = r }
}

// Adapter opens a SQLite file per session. The file must already exist.
type Adapter struct {
	resolver Resolver
}

// New returns a SQLite adapter.
func New(opts ...Option) *Adapter {
	a := &Adapter{}
	for _, o := range opts {
		o(a)
	}
	return a
}

var _ database.Adapter = (*Adapter)(nil)

func (a *Adapter) Engine() database.Engine   { return database.EngineSQLite }
func (a *Adapter) Dialect() database.Dialect { return database.DialectSQLite }

// Namespace is empty: SQLite tables are addressed unqualified.
func (a *Adapter) Namespace(_ *database.Config) string {
	return ""
}

// Open resolves cfg.Database to a local file and opens it read-write.
// A missing file is a connection failure; SQLite would otherwise create an
// empty database in its place.
func (a *Adapter) Open(ctx context.Context, cfg *database.Config) (database.Session, error) {
	path, err := a.localPath(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "sqlite file not accessible: "+path, err)
	}
	if info.IsDir() {
		return nil, errs.New(errs.ErrKindConnectionFailed, "sqlite path is a directory: "+path)
	}

	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "could not open sqlite file "+path, err)
	}
	db.SetMaxOpenConns(1)

	conn, err := db.Conn(ctx)
	if err != nil {
		_ = db.Close()
		return nil, mapError(err, "could not open sqlite file "+path)
	}
	// The driver opens lazily; force a read so a corrupt file fails here.
	var n int
	if err := conn.QueryRowContext(ctx, "SELECT count(*) FROM sqlite_master").Scan(&n); err != nil {
		_ = conn.Close()
		_ = db.Close()
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "could not open sqlite file "+path, err)
	}

	closeFn := func() error {
		cerr := conn.Close()
		if err := db.Close(); err != nil && cerr == nil {
			cerr = err
		}
		return cerr
	}
	return database.NewSQLSession(conn, closeFn, mapError), nil
}

func (a *Adapter) localPath(ctx context.Context, ref string) (string, error) {
	if ref == "" {
		return "", errs.New(errs.ErrKindInvalidInput, "sqlite connection has no file path")
	}
	if !strings.Contains(ref, "://") {
		return ref, nil
	}
	if a.resolver == nil {
		return "", errs.New(errs.ErrKindConnectionFailed, "no resolver configured for "+ref)
	}
	path, err := a.resolver.Resolve(ctx, ref)
	if err != nil {
		return "", errs.Wrap(errs.ErrKindConnectionFailed, "could not fetch "+ref, err)
	}
	return path, nil
}

func dsn(path string) string {
	return "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}
