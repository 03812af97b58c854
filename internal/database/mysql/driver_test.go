package mysql

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"

	"github.com/koustreak/sqlgate/internal/database"
	"github.com/koustreak/sqlgate/internal/errs"
)

func TestDriverConfig(t *testing.T) {
	mc := driverConfig(&database.Config{
		Host:           "db.local",
		User:           "app",
		Password:       "p@ss:word",
		Database:       "shop",
		ConnectTimeout: 3 * time.Second,
	})

	assert.Equal(t, "db.local:3306", mc.Addr)
	assert.Equal(t, "tcp", mc.Net)
	assert.Equal(t, "shop", mc.DBName)
	assert.Equal(t, 3*time.Second, mc.Timeout)
	assert.True(t, mc.ParseTime)
	assert.Contains(t, mc.FormatDSN(), "app:p@ss:word@tcp(db.local:3306)/shop")
}

func TestAdapter_Namespace(t *testing.T) {
	a := New()
	assert.Equal(t, "shop", a.Namespace(&database.Config{Database: "shop"}))
	assert.Equal(t, database.EngineMySQL, a.Engine())
	assert.Equal(t, database.DialectMySQL, a.Dialect())
}

func TestAdapter_OpenUnreachable(t *testing.T) {
	cfg := &database.Config{
		Engine:         database.EngineMySQL,
		Host:           "127.0.0.1",
		Port:           1,
		User:           "nobody",
		Database:       "none",
		ConnectTimeout: 2 * time.Second,
	}

	_, err := New().Open(context.Background(), cfg)
	assert.True(t, errs.IsConnectionFailed(err))
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want errs.ErrKind
	}{
		{"deadline", context.DeadlineExceeded, errs.ErrKindTimeout},
		{"no rows", sql.ErrNoRows, errs.ErrKindNotFound},
		{"syntax", &mysql.MySQLError{Number: 1064, Message: "You have an error in your SQL syntax"}, errs.ErrKindQueryFailed},
		{"unknown table", &mysql.MySQLError{Number: 1146}, errs.ErrKindQueryFailed},
		{"access denied", &mysql.MySQLError{Number: 1045}, errs.ErrKindConnectionFailed},
		{"table access", &mysql.MySQLError{Number: 1142}, errs.ErrKindPermissionDenied},
		{"interrupted", &mysql.MySQLError{Number: 1317}, errs.ErrKindTimeout},
		{"bad conn", mysql.ErrInvalidConn, errs.ErrKindConnectionFailed},
		{"other", errors.New("boom"), errs.ErrKindQueryFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errs.KindOf(mapError(tt.err, "op")))
		})
	}
}
