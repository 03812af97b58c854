// Package config loads sqlgate's runtime configuration from defaults, an
// optional YAML file, SQLGATE_ environment variables and command-line flags.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/koustreak/sqlgate/internal/filestore"
	"github.com/koustreak/sqlgate/internal/generate"
	"github.com/koustreak/sqlgate/internal/logger"
	"github.com/koustreak/sqlgate/internal/query"
)

// Config is the full runtime configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Store     StoreConfig     `koanf:"store"`
	Log       LogConfig       `koanf:"log"`
	Database  DatabaseConfig  `koanf:"database"`
	Endpoints EndpointsConfig `koanf:"endpoints"`
	Generator GeneratorConfig `koanf:"generator"`
	Filestore FilestoreConfig `koanf:"filestore"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr string `koanf:"addr"`

	// BaseURL prefixes every published endpoint URL.
	BaseURL string `koanf:"base_url"`

	// RequestTimeout bounds each request, adapter I/O included.
	RequestTimeout time.Duration `koanf:"request_timeout"`
}

// StoreConfig points at the SQLite file holding connections and endpoints.
type StoreConfig struct {
	Path string `koanf:"path"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// DatabaseConfig applies to every session opened against a registered
// connection.
type DatabaseConfig struct {
	ConnectTimeout    time.Duration `koanf:"connect_timeout"`
	TablePreviewLimit int           `koanf:"table_preview_limit"`
}

type EndpointsConfig struct {
	// BoundParameters sends published-endpoint parameters as driver
	// arguments instead of substituting quote-doubled text.
	BoundParameters bool `koanf:"bound_parameters"`
}

type GeneratorConfig struct {
	Provider string        `koanf:"provider"`
	APIKey   string        `koanf:"api_key"`
	Model    string        `koanf:"model"`
	BaseURL  string        `koanf:"base_url"`
	Timeout  time.Duration `koanf:"timeout"`
}

type FilestoreConfig struct {
	Endpoint  string `koanf:"endpoint"`
	AccessKey string `koanf:"access_key"`
	SecretKey string `koanf:"secret_key"`
	UseSSL    bool   `koanf:"use_ssl"`
	Region    string `koanf:"region"`
	CacheDir  string `koanf:"cache_dir"`
}

// Validate checks the values the rest of the program relies on.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server.Addr) == "" {
		return fmt.Errorf("server.addr is required")
	}
	if strings.TrimSpace(c.Store.Path) == "" {
		return fmt.Errorf("store.path is required")
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("log.format must be json or console, got %q", c.Log.Format)
	}
	if c.Server.RequestTimeout < 0 {
		return fmt.Errorf("server.request_timeout must not be negative")
	}
	if c.Database.ConnectTimeout < 0 {
		return fmt.Errorf("database.connect_timeout must not be negative")
	}
	if c.Database.TablePreviewLimit <= 0 {
		return fmt.Errorf("database.table_preview_limit must be positive, got %d", c.Database.TablePreviewLimit)
	}
	if c.Filestore.Endpoint != "" && c.Filestore.CacheDir == "" {
		return fmt.Errorf("filestore.cache_dir is required when filestore.endpoint is set")
	}
	return nil
}

// LoggerConfig converts the log section for logger.New.
func (c *Config) LoggerConfig() *logger.Config {
	lc := logger.DefaultConfig()
	lc.Level = c.Log.Level
	lc.Format = c.Log.Format
	return lc
}

// GenerateConfig converts the generator section into the explicit value
// handed to the generation client.
func (c *Config) GenerateConfig() generate.Config {
	return generate.Config{
		Provider: c.Generator.Provider,
		APIKey:   c.Generator.APIKey,
		Model:    c.Generator.Model,
		BaseURL:  c.Generator.BaseURL,
		Timeout:  c.Generator.Timeout,
	}
}

func (c *Config) FilestoreConfig() *filestore.Config {
	return &filestore.Config{
		Endpoint:  c.Filestore.Endpoint,
		AccessKey: c.Filestore.AccessKey,
		SecretKey: c.Filestore.SecretKey,
		UseSSL:    c.Filestore.UseSSL,
		Region:    c.Filestore.Region,
		CacheDir:  c.Filestore.CacheDir,
	}
}

func defaults() map[string]any {
	gen := generate.DefaultConfig()
	return map[string]any{
		"server.addr":                  ":8000",
		"server.base_url":              "http://localhost:8000",
		"server.request_timeout":       "60s",
		"store.path":                   "sqlgate.db",
		"log.level":                    "info",
		"log.format":                   "json",
		"database.connect_timeout":     "10s",
		"database.table_preview_limit": query.DefaultPreviewLimit,
		"endpoints.bound_parameters":   false,
		"generator.provider":           gen.Provider,
		"generator.model":              gen.Model,
		"generator.base_url":           gen.BaseURL,
		"generator.timeout":            gen.Timeout.String(),
		"filestore.use_ssl":            false,
		"filestore.cache_dir":          ".sqlgate/cache",
	}
}
