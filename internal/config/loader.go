package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix is stripped from environment variables before mapping them to
// keys: SQLGATE_SERVER_BASE_URL -> server.base_url.
const EnvPrefix = "SQLGATE_"

// DefaultFile is read when no explicit config file is given and it exists
// in the working directory.
const DefaultFile = "sqlgate.yaml"

// flagKeys maps command-line flag names to config keys. Flags not listed
// here are not configuration (e.g. --config itself).
var flagKeys = map[string]string{
	"addr":                "server.addr",
	"base-url":            "server.base_url",
	"request-timeout":     "server.request_timeout",
	"store":               "store.path",
	"log-level":           "log.level",
	"log-format":          "log.format",
	"connect-timeout":     "database.connect_timeout",
	"table-preview-limit": "database.table_preview_limit",
	"bound-parameters":    "endpoints.bound_parameters",
}

// Load builds a Config. Precedence, highest first: flags that were
// explicitly set, SQLGATE_ environment variables, the config file,
// defaults. cfgFile may be empty; flags may be nil.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(cfgFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// envKey turns SQLGATE_SECTION_SOME_KEY into section.some_key. Every key is
// exactly one level deep, so only the first underscore separates.
func envKey(s string) string {
	return strings.Replace(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", ".", 1)
}

func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if _, err := os.Stat(DefaultFile); err == nil {
		return DefaultFile
	}
	return ""
}
