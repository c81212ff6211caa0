package integration

import (
	"context"
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	createDatabase  = `CREATE DATABASE %s ENCODING 'UTF8';`
	killConnections = `SELECT pg_terminate_backend(pid) FROM pg_stat_activity WHERE datname = $1`
	dropDatabase    = `DROP DATABASE %s;`
)

// DB is a handle to a throwaway database created by [NewDB].
type DB struct {
	dsn string
	cfg *pgxpool.Config
}

// NewDB creates a new database on the server at [DSN], runs the provided
// statements in it, and arranges for it to be dropped when the test ends.
func NewDB(ctx context.Context, t testing.TB, init ...string) *DB {
	t.Helper()
	Skip(t)
	dsn := DSN()
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		t.Fatal(err)
	}
	name := fmt.Sprintf("db%x", rand.Uint64())

	conn, err := pgx.ConnectConfig(ctx, cfg.ConnConfig)
	if err != nil {
		t.Skipf("unable to connect to %q: %v", dsn, err)
	}
	if _, err := conn.Exec(ctx, fmt.Sprintf(createDatabase, pgx.Identifier{name}.Sanitize())); err != nil {
		conn.Close(ctx)
		t.Fatal(err)
	}
	if err := conn.Close(ctx); err != nil {
		t.Fatal(err)
	}

	cfg.ConnConfig.Database = name
	db := &DB{dsn: dsn, cfg: cfg}
	t.Cleanup(func() { db.close(context.WithoutCancel(ctx), t) })

	conn, err = pgx.ConnectConfig(ctx, cfg.ConnConfig)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close(ctx)
	for _, stmt := range init {
		if _, err := conn.Exec(ctx, stmt); err != nil {
			t.Fatalf("init: %v", err)
		}
	}
	t.Logf("created database %q", name)
	return db
}

// Config returns a pgxpool.Config for the created database.
func (db *DB) Config() *pgxpool.Config {
	return db.cfg.Copy()
}

func (db *DB) close(ctx context.Context, t testing.TB) {
	cfg, err := pgx.ParseConfig(db.dsn)
	if err != nil {
		t.Error(err)
		return
	}
	conn, err := pgx.ConnectConfig(ctx, cfg)
	if err != nil {
		t.Error(err)
		return
	}
	defer conn.Close(ctx)

	name := db.cfg.ConnConfig.Database
	if _, err := conn.Exec(ctx, killConnections, name); err != nil {
		t.Error(err)
	}
	if _, err := conn.Exec(ctx, fmt.Sprintf(dropDatabase, pgx.Identifier{name}.Sanitize())); err != nil {
		t.Error(err)
	}
}
