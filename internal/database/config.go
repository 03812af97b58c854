package database

import (
	"fmt"
	"strings"
	"time"
)

// Engine identifies the database engine behind a connection.
// The string values are the ones stored on connection records and accepted
// by the HTTP API.
type Engine string

const (
	EnginePostgres Engine = "PostgreSQL"
	EngineMySQL    Engine = "MySQL"
	EngineSQLite   Engine = "SQLite"
)

// ParseEngine accepts the canonical engine names plus the usual short
// spellings ("postgres", "pg", "mysql", "sqlite3", …), case-insensitively.
func ParseEngine(s string) (Engine, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "postgresql", "postgres", "pg":
		return EnginePostgres, nil
	case "mysql", "mariadb":
		return EngineMySQL, nil
	case "sqlite", "sqlite3":
		return EngineSQLite, nil
	default:
		return "", fmt.Errorf("unsupported database engine %q", s)
	}
}

// FileBased reports whether the engine addresses a local file instead of a
// host/port pair.
func (e Engine) FileBased() bool {
	return e == EngineSQLite
}

// Config holds everything an Adapter needs to open a session.
type Config struct {
	// Engine selects the adapter.
	Engine Engine

	// Network engines only.
	Host     string
	Port     int
	User     string
	Password string
	SSLMode  string

	// Database is the database name for network engines and the file
	// identifier (path, or s3://bucket/key) for file-based engines.
	Database string

	// Schema overrides the namespace introspected on engines that have one
	// (Postgres). Empty means the engine default.
	Schema string

	// ConnectTimeout bounds session establishment. Zero means the driver default.
	ConnectTimeout time.Duration
}

// DefaultConnectTimeout is used when a Config leaves ConnectTimeout unset.
const DefaultConnectTimeout = 10 * time.Second

// DefaultConfig returns a Config for engine with the engine's default port.
func DefaultConfig(engine Engine) *Config {
	cfg := &Config{
		Engine:         engine,
		ConnectTimeout: DefaultConnectTimeout,
	}
	switch engine {
	case EnginePostgres:
		cfg.Port = 5432
	case EngineMySQL:
		cfg.Port = 3306
	}
	return cfg
}

// Target is a short human-readable description of where cfg points,
// without credentials. Used in log lines and error messages.
func (c *Config) Target() string {
	if c.Engine.FileBased() {
		return c.Database
	}
	return fmt.Sprintf("%s:%d/%s", c.Host, c.Port, c.Database)
}
