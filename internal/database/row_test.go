package database

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/sqlgate/internal/errs"
)

func newMockSession(t *testing.T) (*SQLSession, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	mapErr := func(err error, msg string) error {
		return errs.Wrap(errs.ErrKindQueryFailed, msg, err)
	}
	return NewSQLSession(db, db.Close, mapErr), mock
}

func TestScanRows(t *testing.T) {
	ctx := context.Background()
	sess, mock := newMockSession(t)

	mock.ExpectQuery("SELECT id, name, avatar FROM users").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "avatar"}).
			AddRow(int64(1), "a", []byte("png")).
			AddRow(int64(2), "b", nil))

	rows, err := sess.Query(ctx, "SELECT id, name, avatar FROM users")
	require.NoError(t, err)

	cols, data, err := ScanRows(rows)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name", "avatar"}, cols)
	assert.Equal(t, [][]any{{int64(1), "a", "png"}, {int64(2), "b", nil}}, data)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScanRows_Empty(t *testing.T) {
	ctx := context.Background()
	sess, mock := newMockSession(t)

	mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows([]string{"id"}))

	rows, err := sess.Query(ctx, "SELECT id FROM users WHERE 1=0")
	require.NoError(t, err)

	cols, data, err := ScanRows(rows)
	require.NoError(t, err)
	assert.Equal(t, []string{"id"}, cols)
	assert.NotNil(t, data)
	assert.Empty(t, data)
}

func TestScanRows_IterationError(t *testing.T) {
	ctx := context.Background()
	sess, mock := newMockSession(t)

	mock.ExpectQuery("SELECT").WillReturnRows(
		sqlmock.NewRows([]string{"id"}).AddRow(1).RowError(0, errors.New("connection reset")))

	rows, err := sess.Query(ctx, "SELECT id FROM users")
	require.NoError(t, err)

	_, _, err = ScanRows(rows)
	require.Error(t, err)
	assert.True(t, errs.IsQueryFailed(err))
}

func TestScalar(t *testing.T) {
	ctx := context.Background()
	sess, mock := newMockSession(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\)`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(42)))

	v, err := Scalar(ctx, sess, `SELECT COUNT(*) FROM "users"`)
	require.NoError(t, err)
	assert.Equal(t, int64(42), v)
}

func TestNormalize(t *testing.T) {
	id := [16]byte{0x55, 0x0e, 0x84, 0x00, 0xe2, 0x9b, 0x41, 0xd4, 0xa7, 0x16, 0x44, 0x66, 0x55, 0x44, 0x00, 0x00}
	assert.Equal(t, "550e8400-e29b-41d4-a716-446655440000", Normalize(id))
	assert.Equal(t, "x", Normalize([]byte("x")))
	assert.Equal(t, 3.5, Normalize(3.5))
	assert.Nil(t, Normalize(nil))
}

func TestSQLSession_CloseOnce(t *testing.T) {
	calls := 0
	s := NewSQLSession(nil, func() error { calls++; return nil }, nil)

	require.NoError(t, s.Close(context.Background()))
	require.NoError(t, s.Close(context.Background()))
	assert.Equal(t, 1, calls)
}
