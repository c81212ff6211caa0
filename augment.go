package pagequery

import (
	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
)

// NoRows is the predicate used to express a zero-row page.
//
// The query builder treats a zero LIMIT as "no limit", so a page of size 0 is
// instead expressed as an unsatisfiable WHERE term on the query wrapped as a
// subquery. Filtering the wrapped query keeps aggregates without a GROUP BY
// from producing their single row.
var noRows = goqu.L("1 = 0")

// PageAlias names the subquery of a zero-row page.
const pageAlias = `page`

// Augment returns a dataset derived from q with the ordering, offset, and limit
// described by p.
//
// Every field named in p.Sort is resolved through s before anything is
// applied. If any field does not resolve, Augment returns an
// [*UnknownSortFieldError] naming the first such field and a nil dataset.
//
// Clauses are applied in a fixed sequence: ordering, then offset, then limit.
// The ordering of the result is exactly p.Sort: any ordering already present
// on q is replaced, and an empty p.Sort yields no ORDER BY at all. Datasets
// are immutable, so q itself is never modified.
//
// A p.Size of 0 yields a query returning zero rows: q, ordered, is selected
// from as the subquery "page" with an always-false filter.
//
// Augment does no I/O and holds no state; it's safe to call concurrently.
func Augment(s Schema, q *goqu.SelectDataset, p PageRequest) (*goqu.SelectDataset, error) {
	order, err := resolve(s, p.Sort)
	if err != nil {
		return nil, err
	}

	if len(order) == 0 {
		q = q.ClearOrder()
	} else {
		q = q.Order(order...)
	}
	if p.Size == 0 {
		inner := q.ClearOffset().ClearLimit()
		return goqu.Dialect(q.Dialect().Dialect()).
			From(inner.As(pageAlias)).
			Where(noRows).
			Prepared(q.IsPrepared()), nil
	}
	return q.Offset(p.Offset()).Limit(p.Size), nil
}

// Resolve turns sort instructions into ordered expressions, preserving their
// order. It fails on the first field the Schema cannot resolve.
func resolve(s Schema, sort []SortInstruction) ([]exp.OrderedExpression, error) {
	if len(sort) == 0 {
		return nil, nil
	}
	out := make([]exp.OrderedExpression, len(sort))
	for i, si := range sort {
		h, ok := s.Lookup(si.Field)
		if !ok {
			return nil, &UnknownSortFieldError{Field: si.Field}
		}
		switch si.Direction {
		case Descending:
			out[i] = h.Desc()
		default:
			out[i] = h.Asc()
		}
	}
	return out, nil
}
