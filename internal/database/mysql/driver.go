// Package mysql provides the MySQL-family implementation of
// database.Adapter on top of go-sql-driver/mysql.
package mysql

import (
	"context"
	"database/sql"
	"net"
	"strconv"

	"github.com/go-sql-driver/mysql"

	"github.com/koustreak/sqlgate/internal/database"
	"github.com/koustreak/sqlgate/internal/errs"
)

const defaultPort = 3306

// Adapter opens one dedicated MySQL connection per session.
type Adapter struct{}

// New returns a MySQL adapter.
func New() *Adapter {
	return &Adapter{}
}

var _ database.Adapter = (*Adapter)(nil)

func (a *Adapter) Engine() database.Engine   { return database.EngineMySQL }
func (a *Adapter) Dialect() database.Dialect { return database.DialectMySQL }

// Namespace is the database name: MySQL has no schemas below it.
func (a *Adapter) Namespace(cfg *database.Config) string {
	return cfg.Database
}

// Open dials a single connection and pins it for the life of the session.
func (a *Adapter) Open(ctx context.Context, cfg *database.Config) (database.Session, error) {
	connector, err := mysql.NewConnector(driverConfig(cfg))
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "invalid mysql connection settings", err)
	}

	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(1)

	conn, err := db.Conn(ctx)
	if err != nil {
		_ = db.Close()
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "could not connect to mysql at "+cfg.Target(), err)
	}
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		_ = db.Close()
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "could not connect to mysql at "+cfg.Target(), err)
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

// driverConfig converts cfg into the driver's own config type; the driver
// takes care of DSN escaping.
func driverConfig(cfg *database.Config) *mysql.Config {
	port := cfg.Port
	if port == 0 {
		port = defaultPort
	}

	mc := mysql.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(port))
	mc.DBName = cfg.Database
	mc.ParseTime = true
	if cfg.ConnectTimeout > 0 {
		mc.Timeout = cfg.ConnectTimeout
	}
	return mc
}
