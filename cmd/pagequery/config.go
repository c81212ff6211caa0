package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix is the prefix for environment variable configuration.
//
// Variables map to keys by dropping the prefix, lower-casing, and replacing
// the first underscore with a dot: PAGEQUERY_PAGE_MAX_SIZE sets "page.max_size".
const envPrefix = `PAGEQUERY_`

// DefaultConfigFile is read if present and no file is named explicitly.
const defaultConfigFile = `pagequery.yaml`

// Config is the binary's configuration.
type Config struct {
	Log      LogConfig      `koanf:"log"`
	Database DatabaseConfig `koanf:"database"`
	HTTP     HTTPConfig     `koanf:"http"`
	Page     PageConfig     `koanf:"page"`
	Tracing  TracingConfig  `koanf:"tracing"`
}

// LogConfig configures the process-wide logger.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// DatabaseConfig selects the datastore.
type DatabaseConfig struct {
	// Driver is "postgres" or "sqlite".
	Driver string `koanf:"driver"`
	// DSN is a connection string for postgres or a file path for sqlite.
	DSN string `koanf:"dsn"`
}

// HTTPConfig configures the "serve" command.
type HTTPConfig struct {
	Addr            string        `koanf:"addr"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// PageConfig holds page size limits for requests that omit them.
type PageConfig struct {
	DefaultSize uint `koanf:"default_size"`
	MaxSize     uint `koanf:"max_size"`
}

// TracingConfig configures span export. Export is disabled if Endpoint is
// empty.
type TracingConfig struct {
	Endpoint string `koanf:"endpoint"`
}

var defaults = map[string]any{
	"log.level":             "info",
	"log.format":            "text",
	"database.driver":       "postgres",
	"database.dsn":          "host=localhost port=5432 dbname=pagequery sslmode=disable",
	"http.addr":             ":8080",
	"http.shutdown_timeout": 10 * time.Second,
	"page.default_size":     20,
	"page.max_size":         1000,
	"tracing.endpoint":      "",
}

// FlagKeys maps command-line flag names to configuration keys. Flags not
// listed here are not configuration.
var flagKeys = map[string]string{
	"log-level":     "log.level",
	"log-format":    "log.format",
	"driver":        "database.driver",
	"dsn":           "database.dsn",
	"addr":          "http.addr",
	"default-size":  "page.default_size",
	"max-size":      "page.max_size",
	"otlp-endpoint": "tracing.endpoint",
}

// LoadConfig loads configuration from defaults, a YAML file, the environment,
// and explicitly set flags, in increasing order of precedence.
//
// If path is empty, [defaultConfigFile] is used if it exists.
func loadConfig(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path == "" {
		if _, err := os.Stat(defaultConfigFile); err == nil {
			path = defaultConfigFile
		}
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
		return strings.Replace(s, "_", ".", 1)
	}), nil); err != nil {
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
		return nil, err
	}
	return &cfg, nil
}

// Validate reports problems with the configuration.
func (c *Config) Validate() error {
	var errs []error
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("unknown database driver %q", c.Database.Driver))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.Log.Format))
	}
	if c.Page.DefaultSize == 0 {
		errs = append(errs, errors.New("page default size must be positive"))
	}
	if c.Page.MaxSize != 0 && c.Page.DefaultSize > c.Page.MaxSize {
		errs = append(errs, fmt.Errorf("page default size %d exceeds max size %d", c.Page.DefaultSize, c.Page.MaxSize))
	}
	if c.HTTP.ShutdownTimeout < 0 {
		errs = append(errs, errors.New("negative shutdown timeout"))
	}
	return errors.Join(errs...)
}
