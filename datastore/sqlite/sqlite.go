// Package sqlite implements [datastore.Pager] on SQLite databases.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed" // embed sql statements
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3" // register the dialect
	_ "modernc.org/sqlite"                              // register the sqlite driver

	"github.com/quay/pagequery"
	"github.com/quay/pagequery/datastore"
	"github.com/quay/pagequery/internal/log"
	"github.com/quay/pagequery/internal/telemetry"
)

// Store is a [datastore.Pager] backed by a SQLite database.
type Store struct {
	db *sql.DB
}

var _ datastore.Pager = (*Store)(nil)

// Open opens the named SQLite database file read-only.
//
// The returned Store must have its Close method called.
func Open(ctx context.Context, f string) (*Store, error) {
	const op = `datastore/sqlite/Open`
	u := url.URL{
		Scheme: `file`,
		Opaque: f,
		RawQuery: url.Values{
			"_pragma": {
				"busy_timeout(5000)",
				"query_only(1)",
			},
		}.Encode(),
	}
	db, err := sql.Open(`sqlite`, u.String())
	if err != nil {
		return nil, &pagequery.Error{
			Op:      op,
			Kind:    pagequery.ErrInvalid,
			Message: "failed to open database",
			Inner:   err,
		}
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, &pagequery.Error{
			Op:      op,
			Kind:    pagequery.ErrPrecondition,
			Message: fmt.Sprintf("unable to use database %q", f),
			Inner:   err,
		}
	}
	return New(db), nil
}

// New returns a Store using the provided handle. The handle must use a SQLite
// driver.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Close releases held resources.
func (s *Store) Close() error {
	return s.db.Close()
}

//go:embed sql/columns.sql
var columnsQuery string

// Queryer is the subset of [*sql.DB] and [*sql.Tx] used here.
type queryer interface {
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

// Schema implements [datastore.Pager].
func (s *Store) Schema(ctx context.Context, table string) (_ *pagequery.Table, err error) {
	ctx, done := telemetry.Method(ctx, "sqlite", "Schema", &err)
	defer done()
	return loadSchema(ctx, s.db, table)
}

// LoadSchema reads the column list of the named table. A name without a
// schema is looked up in "main".
func loadSchema(ctx context.Context, q queryer, table string) (*pagequery.Table, error) {
	const op = `datastore/sqlite/loadSchema`
	schema, name, ok := strings.Cut(table, ".")
	if !ok {
		schema, name = "main", table
	}
	rows, err := q.QueryContext(ctx, columnsQuery, name, schema)
	if err != nil {
		return nil, &pagequery.Error{
			Op:      op,
			Kind:    pagequery.ErrInternal,
			Message: fmt.Sprintf("unable to query columns of %q", table),
			Inner:   err,
		}
	}
	defer rows.Close()
	var cols []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, &pagequery.Error{
				Op:      op,
				Kind:    pagequery.ErrInternal,
				Message: "scan error",
				Inner:   err,
			}
		}
		cols = append(cols, c)
	}
	if err := rows.Err(); err != nil {
		return nil, &pagequery.Error{
			Op:      op,
			Kind:    pagequery.ErrInternal,
			Message: fmt.Sprintf("unable to read columns of %q", table),
			Inner:   err,
		}
	}
	if len(cols) == 0 {
		return nil, &pagequery.Error{
			Op:      op,
			Kind:    pagequery.ErrPrecondition,
			Message: fmt.Sprintf("no such table %q", table),
		}
	}
	if ok {
		return pagequery.NewTable(table, cols...)
	}
	return pagequery.NewTable(name, cols...)
}

// Page implements [datastore.Pager].
//
// The rows and the count are read in a single transaction.
func (s *Store) Page(ctx context.Context, table string, p pagequery.PageRequest) (_ *datastore.Page, err error) {
	ctx, done := telemetry.Method(ctx, "sqlite", "Page", &err)
	defer done()
	ctx = log.WithPage(log.With(ctx, "table", table), p)

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, &pagequery.Error{
			Op:      `datastore/sqlite/Store.Page`,
			Kind:    pagequery.ErrTransient,
			Message: "unable to begin transaction",
			Inner:   err,
		}
	}
	defer tx.Rollback()

	pg, err := page(ctx, tx, table, p)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return nil, err
	}
	return pg, nil
}

func page(ctx context.Context, q queryer, table string, p pagequery.PageRequest) (*datastore.Page, error) {
	const op = `datastore/sqlite/page`
	t, err := loadSchema(ctx, q, table)
	if err != nil {
		return nil, err
	}
	data, count, err := datastore.Statements(goqu.Dialect("sqlite3"), t, p)
	if err != nil {
		return nil, fmt.Errorf("sqlite: %w", err)
	}

	pg := datastore.Page{
		Request: p,
		Columns: t.Columns(),
	}
	rows, err := q.QueryContext(ctx, data.SQL, data.Args...)
	if err != nil {
		return nil, &pagequery.Error{
			Op:      op,
			Kind:    pagequery.ErrInternal,
			Message: "page query failed",
			Inner:   err,
		}
	}
	defer rows.Close()
	pg.Rows, err = collectMaps(rows, pg.Columns)
	if err != nil {
		return nil, &pagequery.Error{
			Op:      op,
			Kind:    pagequery.ErrInternal,
			Message: "unable to read page",
			Inner:   err,
		}
	}
	if err := q.QueryRowContext(ctx, count.SQL, count.Args...).Scan(&pg.Total); err != nil {
		return nil, &pagequery.Error{
			Op:      op,
			Kind:    pagequery.ErrInternal,
			Message: "count query failed",
			Inner:   err,
		}
	}
	return &pg, nil
}

// CollectMaps reads every row into a map keyed by the provided column names.
func collectMaps(rows *sql.Rows, cols []string) ([]map[string]any, error) {
	out := []map[string]any{}
	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		m := make(map[string]any, len(cols))
		for i, c := range cols {
			v := vals[i]
			if b, ok := v.([]byte); ok {
				v = append([]byte(nil), b...)
			}
			m[c] = v
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
