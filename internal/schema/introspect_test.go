package schema

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/sqlgate/internal/database"
	"github.com/koustreak/sqlgate/internal/database/sqlite"
	"github.com/koustreak/sqlgate/internal/errs"
)

// mockAdapter hands out a database/sql session backed by go-sqlmock so the
// network-engine catalog queries can be exercised without a server.
type mockAdapter struct {
	engine  database.Engine
	dialect database.Dialect
	ns      string
	db      *sql.DB
	openErr error
	closed  bool
}

func (m *mockAdapter) Engine() database.Engine             { return m.engine }
func (m *mockAdapter) Dialect() database.Dialect           { return m.dialect }
func (m *mockAdapter) Namespace(_ *database.Config) string { return m.ns }

func (m *mockAdapter) Open(_ context.Context, _ *database.Config) (database.Session, error) {
	if m.openErr != nil {
		return nil, m.openErr
	}
	mapErr := func(err error, msg string) error {
		if errors.Is(err, sql.ErrNoRows) {
			return errs.Wrap(errs.ErrKindNotFound, msg, err)
		}
		return errs.Wrap(errs.ErrKindQueryFailed, msg, err)
	}
	return database.NewSQLSession(m.db, func() error { m.closed = true; return nil }, mapErr), nil
}

func newMock(t *testing.T, engine database.Engine, d database.Dialect, ns string) (*mockAdapter, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return &mockAdapter{engine: engine, dialect: d, ns: ns, db: db}, mock
}

var keyedColumns = []string{"column_name", "data_type", "nullable", "column_default", "is_primary_key", "fk_table", "fk_column"}

func TestIntrospect_Postgres(t *testing.T) {
	a, mock := newMock(t, database.EnginePostgres, database.DialectPostgres, "public")

	mock.ExpectQuery(`FROM information_schema.tables`).
		WithArgs("public").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).AddRow("users"))

	mock.ExpectQuery(`FROM information_schema.columns`).
		WithArgs("public", "users").
		WillReturnRows(sqlmock.NewRows(keyedColumns).
			AddRow("id", "integer", false, "nextval('users_id_seq'::regclass)", true, nil, nil).
			AddRow("email", "text", false, nil, false, nil, nil).
			AddRow("team_id", "integer", true, nil, false, "teams", "id"))

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM "public"."users"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(2)))

	mock.ExpectQuery(`obj_description`).
		WithArgs("users", "public").
		WillReturnRows(sqlmock.NewRows([]string{"obj_description"}).AddRow("Registered users"))

	s, err := Introspect(context.Background(), a, &database.Config{Database: "app"})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	assert.Equal(t, "public", s.Name)
	require.Len(t, s.Tables, 1)

	users := s.Tables[0]
	assert.Equal(t, "users", users.Name)
	assert.Equal(t, int64(2), users.RowCount)
	require.NotNil(t, users.Description)
	assert.Equal(t, "Registered users", *users.Description)

	require.Len(t, users.Columns, 3)
	assert.Equal(t, []string{"id", "email", "team_id"}, columnNames(users.Columns))

	id := users.Columns[0]
	assert.True(t, id.IsPrimaryKey)
	assert.False(t, id.Nullable)
	require.NotNil(t, id.Default)
	assert.Equal(t, "nextval('users_id_seq'::regclass)", *id.Default)

	assert.Nil(t, users.Columns[1].Default)
	assert.False(t, users.Columns[1].IsForeignKey)

	fk := users.Columns[2]
	assert.True(t, fk.IsForeignKey)
	assert.True(t, fk.Nullable)
	assert.Equal(t, "teams", *fk.ForeignKeyTable)
	assert.Equal(t, "id", *fk.ForeignKeyColumn)

	assert.True(t, a.closed)
}

func TestIntrospect_MySQL(t *testing.T) {
	a, mock := newMock(t, database.EngineMySQL, database.DialectMySQL, "shop")

	mock.ExpectQuery(`FROM information_schema.TABLES`).
		WithArgs("shop").
		WillReturnRows(sqlmock.NewRows([]string{"TABLE_NAME"}).AddRow("orders"))

	mock.ExpectQuery(`FROM information_schema.COLUMNS`).
		WithArgs("shop", "orders").
		WillReturnRows(sqlmock.NewRows(keyedColumns).
			AddRow("id", "int", false, nil, true, nil, nil).
			AddRow("customer_id", "int", false, nil, false, "customers", "id"))

	// The text protocol hands counts back as bytes.
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM `shop`.`orders`").
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow([]byte("3")))

	mock.ExpectQuery(`SELECT TABLE_COMMENT`).
		WithArgs("shop", "orders").
		WillReturnRows(sqlmock.NewRows([]string{"TABLE_COMMENT"}).AddRow(""))

	s, err := Introspect(context.Background(), a, &database.Config{Database: "shop"})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	assert.Equal(t, "shop", s.Name)
	require.Len(t, s.Tables, 1)
	assert.Equal(t, int64(3), s.Tables[0].RowCount)
	assert.Nil(t, s.Tables[0].Description, "empty TABLE_COMMENT means no description")
	assert.True(t, s.Tables[0].Columns[0].IsPrimaryKey)
	assert.True(t, s.Tables[0].Columns[1].IsForeignKey)
}

func TestIntrospect_FailureMidScanDiscardsPartialResult(t *testing.T) {
	a, mock := newMock(t, database.EnginePostgres, database.DialectPostgres, "public")

	mock.ExpectQuery(`FROM information_schema.tables`).
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).AddRow("users").AddRow("orders"))
	mock.ExpectQuery(`FROM information_schema.columns`).
		WithArgs("public", "users").
		WillReturnRows(sqlmock.NewRows(keyedColumns).AddRow("id", "integer", false, nil, true, nil, nil))
	mock.ExpectQuery(`SELECT COUNT`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(1)))
	mock.ExpectQuery(`obj_description`).
		WillReturnRows(sqlmock.NewRows([]string{"obj_description"}).AddRow(nil))
	mock.ExpectQuery(`FROM information_schema.columns`).
		WithArgs("public", "orders").
		WillReturnError(errors.New("permission denied for table orders"))

	s, err := Introspect(context.Background(), a, &database.Config{})
	require.Error(t, err)
	assert.Nil(t, s)
	assert.True(t, errs.IsIntrospectionFailed(err))
	assert.True(t, a.closed, "session must be closed on the failure path")
}

func TestIntrospect_OpenFailure(t *testing.T) {
	a := &mockAdapter{
		engine:  database.EnginePostgres,
		openErr: errors.New("dial tcp 10.0.0.1:5432: connect: connection refused"),
	}

	_, err := Introspect(context.Background(), a, &database.Config{Host: "10.0.0.1", Port: 5432})
	require.Error(t, err)
	assert.True(t, errs.IsConnectionFailed(err))
}

func TestIntrospect_SQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.db")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = db.Exec(`
		CREATE TABLE teams (
			id   INTEGER PRIMARY KEY,
			name TEXT NOT NULL
		);
		CREATE TABLE users (
			id      INTEGER PRIMARY KEY AUTOINCREMENT,
			name    TEXT NOT NULL DEFAULT 'anon',
			team_id INTEGER REFERENCES teams(id)
		);
		CREATE TABLE memberships (
			user_id INTEGER NOT NULL,
			team_id INTEGER NOT NULL,
			PRIMARY KEY (user_id, team_id)
		);
		INSERT INTO teams (id, name) VALUES (1, 'core'), (2, 'infra');
		INSERT INTO users (name, team_id) VALUES ('a', 1), ('b', 2), ('c', NULL);
	`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	s, err := Introspect(context.Background(), sqlite.New(), &database.Config{
		Engine:   database.EngineSQLite,
		Database: path,
	})
	require.NoError(t, err)

	assert.Equal(t, path, s.Name)
	names := make([]string, len(s.Tables))
	for i, tbl := range s.Tables {
		names[i] = tbl.Name
	}
	// sqlite_sequence (created by AUTOINCREMENT) is internal and skipped.
	assert.Equal(t, []string{"teams", "users", "memberships"}, names)

	teams, users, memberships := s.Tables[0], s.Tables[1], s.Tables[2]
	assert.Equal(t, int64(2), teams.RowCount)
	assert.Equal(t, int64(3), users.RowCount)
	assert.Equal(t, int64(0), memberships.RowCount)
	assert.Nil(t, users.Description)

	assert.Equal(t, []string{"id", "name", "team_id"}, columnNames(users.Columns))
	assert.True(t, users.Columns[0].IsPrimaryKey)
	assert.False(t, users.Columns[1].Nullable)
	require.NotNil(t, users.Columns[1].Default)
	assert.Equal(t, "'anon'", *users.Columns[1].Default)

	teamID := users.Columns[2]
	assert.True(t, teamID.Nullable)
	assert.True(t, teamID.IsForeignKey)
	assert.Equal(t, "teams", *teamID.ForeignKeyTable)
	assert.Equal(t, "id", *teamID.ForeignKeyColumn)

	// Both members of a composite key are flagged.
	assert.True(t, memberships.Columns[0].IsPrimaryKey)
	assert.True(t, memberships.Columns[1].IsPrimaryKey)

	tables, rows := s.Counts()
	assert.Equal(t, 3, tables)
	assert.Equal(t, int64(5), rows)
}

func TestIntrospect_SQLiteMissingFile(t *testing.T) {
	_, err := Introspect(context.Background(), sqlite.New(), &database.Config{
		Engine:   database.EngineSQLite,
		Database: filepath.Join(t.TempDir(), "missing.db"),
	})
	require.Error(t, err)
	assert.True(t, errs.IsConnectionFailed(err))
}

func TestToInt64(t *testing.T) {
	for _, v := range []any{int64(7), int32(7), 7, float64(7), "7"} {
		n, err := toInt64(v)
		require.NoError(t, err)
		assert.Equal(t, int64(7), n)
	}
	_, err := toInt64(true)
	assert.Error(t, err)
}

func columnNames(cols []Column) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Name
	}
	return out
}
