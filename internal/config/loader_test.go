package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sqlgate.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func testFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("config", "", "")
	fs.String("addr", ":8000", "")
	fs.String("log-level", "info", "")
	fs.Duration("connect-timeout", 0, "")
	fs.Int("table-preview-limit", 0, "")
	fs.Bool("bound-parameters", false, "")
	return fs
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, ":8000", cfg.Server.Addr)
	assert.Equal(t, "http://localhost:8000", cfg.Server.BaseURL)
	assert.Equal(t, 60*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, "sqlgate.db", cfg.Store.Path)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 10*time.Second, cfg.Database.ConnectTimeout)
	assert.Equal(t, 25, cfg.Database.TablePreviewLimit)
	assert.False(t, cfg.Endpoints.BoundParameters)
	assert.Equal(t, "gemini", cfg.Generator.Provider)
	assert.Equal(t, 60*time.Second, cfg.Generator.Timeout)
	assert.False(t, cfg.FilestoreConfig().Enabled())
}

func TestLoad_FileEnvAndFlagPrecedence(t *testing.T) {
	t.Chdir(t.TempDir())
	path := writeConfig(t, `
server:
  addr: ":9000"
  base_url: "https://api.example.com"
log:
  level: debug
database:
  connect_timeout: 3s
  table_preview_limit: 50
filestore:
  endpoint: "localhost:9000"
  cache_dir: /tmp/sqlgate
`)

	t.Run("file overrides defaults", func(t *testing.T) {
		cfg, err := Load(path, nil)
		require.NoError(t, err)
		assert.Equal(t, ":9000", cfg.Server.Addr)
		assert.Equal(t, "https://api.example.com", cfg.Server.BaseURL)
		assert.Equal(t, "debug", cfg.Log.Level)
		assert.Equal(t, 3*time.Second, cfg.Database.ConnectTimeout)
		assert.Equal(t, 50, cfg.Database.TablePreviewLimit)
		assert.True(t, cfg.FilestoreConfig().Enabled())
	})

	t.Run("env overrides file", func(t *testing.T) {
		t.Setenv("SQLGATE_SERVER_BASE_URL", "https://env.example.com")
		t.Setenv("SQLGATE_ENDPOINTS_BOUND_PARAMETERS", "true")
		t.Setenv("SQLGATE_GENERATOR_API_KEY", "secret")

		cfg, err := Load(path, nil)
		require.NoError(t, err)
		assert.Equal(t, "https://env.example.com", cfg.Server.BaseURL)
		assert.True(t, cfg.Endpoints.BoundParameters)
		assert.Equal(t, "secret", cfg.GenerateConfig().APIKey)
		assert.Equal(t, ":9000", cfg.Server.Addr)
	})

	t.Run("set flags override env", func(t *testing.T) {
		t.Setenv("SQLGATE_LOG_LEVEL", "warn")

		fs := testFlags()
		require.NoError(t, fs.Parse([]string{"--log-level=error", "--table-preview-limit=5"}))

		cfg, err := Load(path, fs)
		require.NoError(t, err)
		assert.Equal(t, "error", cfg.Log.Level)
		assert.Equal(t, 5, cfg.Database.TablePreviewLimit)
		// --addr was not set, so the file value stands.
		assert.Equal(t, ":9000", cfg.Server.Addr)
	})
}

func TestLoad_Errors(t *testing.T) {
	t.Chdir(t.TempDir())

	tests := []struct {
		name string
		body string
	}{
		{name: "bad log format", body: "log:\n  format: xml\n"},
		{name: "zero preview limit", body: "database:\n  table_preview_limit: 0\n"},
		{name: "empty addr", body: "server:\n  addr: \"\"\n"},
		{name: "filestore without cache dir", body: "filestore:\n  endpoint: localhost:9000\n  cache_dir: \"\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body), nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid configuration")
		})
	}

	t.Run("missing explicit file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "error reading config file")
	})
}

func TestLoad_DefaultFileInWorkingDir(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultFile), []byte("store:\n  path: /var/lib/sqlgate.db\n"), 0o600))

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/sqlgate.db", cfg.Store.Path)
}

func TestEnvKey(t *testing.T) {
	tests := map[string]string{
		"SQLGATE_SERVER_ADDR":                  "server.addr",
		"SQLGATE_SERVER_BASE_URL":              "server.base_url",
		"SQLGATE_DATABASE_TABLE_PREVIEW_LIMIT": "database.table_preview_limit",
		"SQLGATE_FILESTORE_ACCESS_KEY":         "filestore.access_key",
	}
	for in, want := range tests {
		assert.Equal(t, want, envKey(in), in)
	}
}
