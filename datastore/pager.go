package datastore

import (
	"context"

	"github.com/quay/pagequery"
)

// Pager fetches pages of rows from named tables.
//
// Table names may be qualified as "schema.table". A table that does not exist
// is reported as an error of kind [pagequery.ErrPrecondition]. A sort field
// that is not a column of the table is reported as a
// [*pagequery.UnknownSortFieldError].
type Pager interface {
	// Schema reports the columns of the named table.
	Schema(ctx context.Context, table string) (*pagequery.Table, error)
	// Page returns the page of the named table described by the request.
	Page(ctx context.Context, table string, p pagequery.PageRequest) (*Page, error)
}
