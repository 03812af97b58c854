package query

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/sqlgate/internal/database"
	"github.com/koustreak/sqlgate/internal/database/sqlite"
	"github.com/koustreak/sqlgate/internal/errs"
	"github.com/koustreak/sqlgate/internal/logger"
)

func newUsersDB(t *testing.T, extra ...string) *database.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.db")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	stmts := append([]string{
		`CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT NOT NULL)`,
		`INSERT INTO users (id, name) VALUES (1, 'a'), (2, 'b')`,
	}, extra...)
	for _, s := range stmts {
		_, err := db.Exec(s)
		require.NoError(t, err)
	}
	return &database.Config{Engine: database.EngineSQLite, Database: path}
}

func TestExecutor_Run(t *testing.T) {
	ctx := context.Background()
	cfg := newUsersDB(t)
	e := NewExecutor(logger.Nop())

	res := e.Run(ctx, sqlite.New(), cfg, "SELECT id, name FROM users ORDER BY id")
	require.Nil(t, res.Error)
	assert.Equal(t, []string{"id", "name"}, res.Columns)
	assert.Equal(t, [][]any{{int64(1), "a"}, {int64(2), "b"}}, res.Rows)
	assert.Equal(t, 2, res.RowCount)
	assert.GreaterOrEqual(t, res.ExecutionTime, 0.0)
}

func TestExecutor_RunCapturesFailures(t *testing.T) {
	ctx := context.Background()
	e := NewExecutor(logger.Nop())

	tests := []struct {
		name string
		cfg  *database.Config
		sql  string
	}{
		{"syntax error", newUsersDB(t), "SELEC id FROM users"},
		{"unknown table", newUsersDB(t), "SELECT * FROM nope"},
		{"unreachable file", &database.Config{Database: filepath.Join(t.TempDir(), "gone.db")}, "SELECT 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := e.Run(ctx, sqlite.New(), tt.cfg, tt.sql)
			require.NotNil(t, res)
			require.NotNil(t, res.Error)
			assert.NotEmpty(t, *res.Error)
			assert.Empty(t, res.Columns)
			assert.NotNil(t, res.Columns)
			assert.Empty(t, res.Rows)
			assert.Equal(t, 0, res.RowCount)
		})
	}
}

func TestExecutor_RunNoRowsHasNoColumns(t *testing.T) {
	e := NewExecutor(logger.Nop())
	res := e.Run(context.Background(), sqlite.New(), newUsersDB(t), "SELECT id FROM users WHERE id > 100")

	require.Nil(t, res.Error)
	assert.Equal(t, []string{}, res.Columns)
	assert.Equal(t, 0, res.RowCount)
}

func TestExecutor_Execute(t *testing.T) {
	ctx := context.Background()
	cfg := newUsersDB(t)
	e := NewExecutor(logger.Nop())

	res, err := e.Execute(ctx, sqlite.New(), cfg, "SELECT name FROM users WHERE id = ?", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"name"}, res.Columns)
	assert.Equal(t, [][]any{{"b"}}, res.Rows)

	_, err = e.Execute(ctx, sqlite.New(), cfg, "SELEC broken")
	require.Error(t, err)
	assert.True(t, errs.IsQueryFailed(err))
	assert.True(t, strings.HasPrefix(errs.Detail(err), "Query execution failed: "))
	assert.NotContains(t, errs.Detail(err), "[query_failed]")

	_, err = e.Execute(ctx, sqlite.New(), &database.Config{Database: filepath.Join(t.TempDir(), "gone.db")}, "SELECT 1")
	assert.True(t, errs.IsConnectionFailed(err))
}

func TestExecutor_TableData(t *testing.T) {
	ctx := context.Background()
	e := NewExecutor(logger.Nop())

	records, err := e.TableData(ctx, sqlite.New(), newUsersDB(t), "users", 0)
	require.NoError(t, err)
	require.Len(t, records, 2)

	out, err := json.Marshal(records)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":1,"name":"a"},{"id":2,"name":"b"}]`, string(out))
	assert.True(t, strings.Index(string(out), `"id"`) < strings.Index(string(out), `"name"`))
}

func TestExecutor_TableDataLimit(t *testing.T) {
	var inserts []string
	for i := 3; i <= 40; i++ {
		inserts = append(inserts, fmt.Sprintf(`INSERT INTO users (id, name) VALUES (%d, 'u%d')`, i, i))
	}
	cfg := newUsersDB(t, inserts...)
	e := NewExecutor(logger.Nop())

	records, err := e.TableData(context.Background(), sqlite.New(), cfg, "users", 0)
	require.NoError(t, err)
	assert.Len(t, records, DefaultPreviewLimit)

	records, err = e.TableData(context.Background(), sqlite.New(), cfg, "users", 5)
	require.NoError(t, err)
	assert.Len(t, records, 5)
}

func TestExecutor_TableDataRejectsBadNames(t *testing.T) {
	e := NewExecutor(logger.Nop())
	cfg := newUsersDB(t)

	for _, name := range []string{"users;DROP TABLE users", "users--", "a b", "", `"users"`, "users.id"} {
		t.Run(name, func(t *testing.T) {
			_, err := e.TableData(context.Background(), sqlite.New(), cfg, name, 0)
			require.Error(t, err)
			assert.True(t, errs.IsInvalidInput(err))
		})
	}
}

func TestRecord_MarshalJSONKeepsColumnOrder(t *testing.T) {
	r := Record{Columns: []string{"zeta", "alpha", "mid"}, Values: []any{1, "x", nil}}
	out, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Equal(t, `{"zeta":1,"alpha":"x","mid":null}`, string(out))

	v, ok := r.Get("alpha")
	assert.True(t, ok)
	assert.Equal(t, "x", v)
	_, ok = r.Get("missing")
	assert.False(t, ok)
}
