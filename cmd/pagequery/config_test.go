package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/pflag"
)

func defaultConfig() Config {
	return Config{
		Log:      LogConfig{Level: "info", Format: "text"},
		Database: DatabaseConfig{Driver: "postgres", DSN: "host=localhost port=5432 dbname=pagequery sslmode=disable"},
		HTTP:     HTTPConfig{Addr: ":8080", ShutdownTimeout: 10 * time.Second},
		Page:     PageConfig{DefaultSize: 20, MaxSize: 1000},
	}
}

func testFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet(t.Name(), pflag.ContinueOnError)
	fs.String("driver", "", "")
	fs.String("dsn", "", "")
	fs.String("log-level", "", "")
	fs.Uint("max-size", 0, "")
	fs.Uint("page", 0, "")
	if err := fs.Parse(args); err != nil {
		t.Fatal(err)
	}
	return fs
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "pagequery.yaml")
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoadConfig(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		got, err := loadConfig("", testFlags(t))
		if err != nil {
			t.Fatal(err)
		}
		if want := defaultConfig(); !cmp.Equal(*got, want) {
			t.Error(cmp.Diff(*got, want))
		}
	})

	t.Run("File", func(t *testing.T) {
		p := writeConfig(t, `
database:
  driver: sqlite
  dsn: /var/lib/pagequery/data.db
page:
  default_size: 5
http:
  shutdown_timeout: 30s
`)
		got, err := loadConfig(p, testFlags(t))
		if err != nil {
			t.Fatal(err)
		}
		want := defaultConfig()
		want.Database = DatabaseConfig{Driver: "sqlite", DSN: "/var/lib/pagequery/data.db"}
		want.Page.DefaultSize = 5
		want.HTTP.ShutdownTimeout = 30 * time.Second
		if !cmp.Equal(*got, want) {
			t.Error(cmp.Diff(*got, want))
		}
	})

	t.Run("Env", func(t *testing.T) {
		t.Setenv("PAGEQUERY_PAGE_MAX_SIZE", "50")
		t.Setenv("PAGEQUERY_LOG_LEVEL", "debug")
		t.Setenv("PAGEQUERY_HTTP_SHUTDOWN_TIMEOUT", "1s")
		got, err := loadConfig("", testFlags(t))
		if err != nil {
			t.Fatal(err)
		}
		want := defaultConfig()
		want.Page.MaxSize = 50
		want.Log.Level = "debug"
		want.HTTP.ShutdownTimeout = time.Second
		if !cmp.Equal(*got, want) {
			t.Error(cmp.Diff(*got, want))
		}
	})

	t.Run("Precedence", func(t *testing.T) {
		p := writeConfig(t, `
database:
  driver: sqlite
  dsn: from-file.db
page:
  max_size: 100
log:
  level: warn
`)
		t.Setenv("PAGEQUERY_PAGE_MAX_SIZE", "200")
		t.Setenv("PAGEQUERY_DATABASE_DSN", "from-env.db")
		got, err := loadConfig(p, testFlags(t, "--max-size", "300", "--page", "7"))
		if err != nil {
			t.Fatal(err)
		}
		want := defaultConfig()
		want.Database = DatabaseConfig{Driver: "sqlite", DSN: "from-env.db"}
		want.Page.MaxSize = 300
		want.Log.Level = "warn"
		if !cmp.Equal(*got, want) {
			t.Error(cmp.Diff(*got, want))
		}
	})

	t.Run("MissingFile", func(t *testing.T) {
		_, err := loadConfig(filepath.Join(t.TempDir(), "nope.yaml"), nil)
		if err == nil {
			t.Fatal("expected error")
		}
		t.Log(err)
	})
}

func TestValidate(t *testing.T) {
	tt := []struct {
		Name   string
		Modify func(*Config)
		Want   []string
	}{
		{
			Name:   "OK",
			Modify: func(*Config) {},
		},
		{
			Name:   "Driver",
			Modify: func(c *Config) { c.Database.Driver = "mysql" },
			Want:   []string{`unknown database driver "mysql"`},
		},
		{
			Name:   "Format",
			Modify: func(c *Config) { c.Log.Format = "xml" },
			Want:   []string{`unknown log format "xml"`},
		},
		{
			Name:   "ZeroDefault",
			Modify: func(c *Config) { c.Page.DefaultSize = 0 },
			Want:   []string{"page default size must be positive"},
		},
		{
			Name:   "DefaultOverMax",
			Modify: func(c *Config) { c.Page.DefaultSize, c.Page.MaxSize = 50, 10 },
			Want:   []string{"page default size 50 exceeds max size 10"},
		},
		{
			Name:   "NoMax",
			Modify: func(c *Config) { c.Page.DefaultSize, c.Page.MaxSize = 50, 0 },
		},
		{
			Name: "Several",
			Modify: func(c *Config) {
				c.Database.Driver = ""
				c.HTTP.ShutdownTimeout = -time.Second
			},
			Want: []string{`unknown database driver ""`, "negative shutdown timeout"},
		},
	}
	for _, tc := range tt {
		t.Run(tc.Name, func(t *testing.T) {
			c := defaultConfig()
			tc.Modify(&c)
			err := c.Validate()
			var got []string
			if err != nil {
				got = strings.Split(err.Error(), "\n")
			}
			if !cmp.Equal(got, tc.Want) {
				t.Error(cmp.Diff(got, tc.Want))
			}
		})
	}
}
