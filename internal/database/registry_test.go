package database

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/sqlgate/internal/errs"
)

// fakeAdapter records how many sessions it opened and closed.
type fakeAdapter struct {
	engine  Engine
	openErr error
	opened  int
	closed  int
}

func (f *fakeAdapter) Engine() Engine             { return f.engine }
func (f *fakeAdapter) Dialect() Dialect           { return DialectSQLite }
func (f *fakeAdapter) Namespace(_ *Config) string { return "" }

func (f *fakeAdapter) Open(_ context.Context, _ *Config) (Session, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	f.opened++
	return NewSQLSession(nil, func() error { f.closed++; return nil }, nil), nil
}

func TestRegistry_Get(t *testing.T) {
	pg := &fakeAdapter{engine: EnginePostgres}
	lite := &fakeAdapter{engine: EngineSQLite}
	r := NewRegistry(pg, lite)

	got, err := r.Get(EnginePostgres)
	require.NoError(t, err)
	assert.Same(t, pg, got)

	_, err = r.Get(EngineMySQL)
	require.Error(t, err)
	assert.True(t, errs.IsInvalidInput(err))

	assert.Equal(t, []Engine{EnginePostgres, EngineSQLite}, r.Engines())
}

func TestWithSession_ClosesOnEveryPath(t *testing.T) {
	ctx := context.Background()
	a := &fakeAdapter{engine: EngineSQLite}

	require.NoError(t, WithSession(ctx, a, &Config{}, func(Session) error { return nil }))

	boom := errors.New("boom")
	err := WithSession(ctx, a, &Config{}, func(Session) error { return boom })
	assert.ErrorIs(t, err, boom)

	assert.Panics(t, func() {
		_ = WithSession(ctx, a, &Config{}, func(Session) error { panic("fn exploded") })
	})

	assert.Equal(t, 3, a.opened)
	assert.Equal(t, 3, a.closed)
}

func TestWithSession_OpenFailure(t *testing.T) {
	a := &fakeAdapter{engine: EngineSQLite, openErr: errs.New(errs.ErrKindConnectionFailed, "refused")}

	called := false
	err := WithSession(context.Background(), a, &Config{}, func(Session) error { called = true; return nil })
	assert.True(t, errs.IsConnectionFailed(err))
	assert.False(t, called)
}

func TestReachable(t *testing.T) {
	ctx := context.Background()

	ok, err := Reachable(ctx, &fakeAdapter{engine: EngineSQLite}, &Config{})
	assert.True(t, ok)
	assert.NoError(t, err)

	ok, err = Reachable(ctx, &fakeAdapter{engine: EngineSQLite, openErr: errors.New("no route")}, &Config{})
	assert.False(t, ok)
	assert.Error(t, err)
}

func TestParseEngine(t *testing.T) {
	tests := []struct {
		in      string
		want    Engine
		wantErr bool
	}{
		{"PostgreSQL", EnginePostgres, false},
		{"postgres", EnginePostgres, false},
		{"MySQL", EngineMySQL, false},
		{"SQLite", EngineSQLite, false},
		{" sqlite3 ", EngineSQLite, false},
		{"oracle", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseEngine(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
