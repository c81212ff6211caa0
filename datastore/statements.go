package datastore

import (
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"github.com/quay/pagequery"
)

// Statement is a rendered SQL statement and its arguments.
type Statement struct {
	SQL  string
	Args []any
}

// Statements renders the two statements needed to serve a page: the query for
// the page's rows, and a query counting every row in the table.
//
// Both are rendered with placeholders for the provided dialect.
func Statements(d goqu.DialectWrapper, t *pagequery.Table, p pagequery.PageRequest) (data, count Statement, err error) {
	q, err := pagequery.Augment(t, t.Select(d).Prepared(true), p)
	if err != nil {
		return data, count, err
	}
	data.SQL, data.Args, err = q.ToSQL()
	if err != nil {
		return data, count, &pagequery.Error{
			Op:      "datastore/Statements",
			Kind:    pagequery.ErrInternal,
			Message: fmt.Sprintf("unable to render page query for %q", t.Name()),
			Inner:   err,
		}
	}
	c := d.From(t.Identifier()).Select(goqu.COUNT(goqu.Star())).Prepared(true)
	count.SQL, count.Args, err = c.ToSQL()
	if err != nil {
		return data, count, &pagequery.Error{
			Op:      "datastore/Statements",
			Kind:    pagequery.ErrInternal,
			Message: fmt.Sprintf("unable to render count query for %q", t.Name()),
			Inner:   err,
		}
	}
	return data, count, nil
}
