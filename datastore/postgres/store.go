package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // register the dialect
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quay/pagequery"
	"github.com/quay/pagequery/datastore"
	"github.com/quay/pagequery/internal/log"
	"github.com/quay/pagequery/internal/telemetry"
)

// Store is a [datastore.Pager] backed by a PostgreSQL connection pool.
type Store struct {
	pool *pgxpool.Pool
}

var _ datastore.Pager = (*Store)(nil)

// NewStore returns a Store using the provided pool. The caller retains
// ownership of the pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Queryer is the subset of [*pgxpool.Pool] and [pgx.Tx] used here.
type queryer interface {
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

// Schema implements [datastore.Pager].
func (s *Store) Schema(ctx context.Context, table string) (_ *pagequery.Table, err error) {
	ctx, done := telemetry.Method(ctx, "postgres", "Schema", &err)
	defer done()
	return loadSchema(ctx, s.pool, table)
}

// LoadSchema reads the column list of the named table out of the
// information_schema. A name without a schema is looked up in "public".
func loadSchema(ctx context.Context, q queryer, table string) (*pagequery.Table, error) {
	const (
		op          = `datastore/postgres/loadSchema`
		listColumns = `
SELECT
	column_name
FROM
	information_schema.columns
WHERE
	table_schema = $1 AND table_name = $2
ORDER BY
	ordinal_position;
`
	)
	schema, name, ok := strings.Cut(table, ".")
	if !ok {
		schema, name = "public", table
	}
	rows, err := q.Query(ctx, listColumns, schema, name)
	if err != nil {
		return nil, &pagequery.Error{
			Op:      op,
			Kind:    pagequery.ErrInternal,
			Message: fmt.Sprintf("unable to query columns of %q", table),
			Inner:   err,
		}
	}
	cols, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
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
// The schema lookup, rows, and count are read in a single read-only,
// repeatable-read transaction, so the total matches the rows returned.
func (s *Store) Page(ctx context.Context, table string, p pagequery.PageRequest) (_ *datastore.Page, err error) {
	ctx, done := telemetry.Method(ctx, "postgres", "Page", &err)
	defer done()
	ctx = log.WithPage(log.With(ctx, "table", table), p)

	var pg *datastore.Page
	opts := pgx.TxOptions{
		AccessMode: pgx.ReadOnly,
		IsoLevel:   pgx.RepeatableRead,
	}
	err = pgx.BeginTxFunc(ctx, s.pool, opts, func(tx pgx.Tx) error {
		var err error
		pg, err = page(ctx, tx, table, p)
		return err
	})
	if err != nil {
		return nil, err
	}
	return pg, nil
}

func page(ctx context.Context, q queryer, table string, p pagequery.PageRequest) (*datastore.Page, error) {
	const op = `datastore/postgres/page`
	t, err := loadSchema(ctx, q, table)
	if err != nil {
		return nil, err
	}
	data, count, err := datastore.Statements(goqu.Dialect("postgres"), t, p)
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}

	pg := datastore.Page{
		Request: p,
		Columns: t.Columns(),
	}
	rows, err := q.Query(ctx, data.SQL, data.Args...)
	if err != nil {
		return nil, &pagequery.Error{
			Op:      op,
			Kind:    pagequery.ErrInternal,
			Message: "page query failed",
			Inner:   err,
		}
	}
	pg.Rows, err = pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, &pagequery.Error{
			Op:      op,
			Kind:    pagequery.ErrInternal,
			Message: "unable to read page",
			Inner:   err,
		}
	}
	if err := q.QueryRow(ctx, count.SQL, count.Args...).Scan(&pg.Total); err != nil {
		return nil, &pagequery.Error{
			Op:      op,
			Kind:    pagequery.ErrInternal,
			Message: "count query failed",
			Inner:   err,
		}
	}
	return &pg, nil
}
