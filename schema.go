package pagequery

import (
	"fmt"
	"slices"
	"strings"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
)

// Schema resolves field names to field handles.
//
// A field handle is an identifier expression the query builder can use to
// reference a column. Lookups are exact, case-sensitive matches.
type Schema interface {
	Lookup(name string) (exp.IdentifierExpression, bool)
}

// SchemaFunc adapts a function to a [Schema].
type SchemaFunc func(name string) (exp.IdentifierExpression, bool)

// Lookup implements [Schema].
func (f SchemaFunc) Lookup(name string) (exp.IdentifierExpression, bool) {
	return f(name)
}

// Table is an immutable [Schema] describing a single table.
//
// Field handles are column identifiers qualified by the table (and schema, if
// one was provided), so they remain unambiguous when the query joins other
// tables.
type Table struct {
	schema  string
	name    string
	columns []string
	handles map[string]exp.IdentifierExpression
}

var _ Schema = (*Table)(nil)

// NewTable returns a Table with the named columns.
//
// The name may be qualified as "schema.table". Column names must be non-empty
// and unique; the order provided is the order reported by [Table.Columns].
func NewTable(name string, columns ...string) (*Table, error) {
	const op = `NewTable`
	t := Table{
		columns: slices.Clone(columns),
		handles: make(map[string]exp.IdentifierExpression, len(columns)),
	}
	if s, n, ok := strings.Cut(name, "."); ok {
		t.schema, t.name = s, n
	} else {
		t.name = name
	}
	if t.name == "" || (strings.Contains(name, ".") && t.schema == "") {
		return nil, &Error{
			Op:      op,
			Kind:    ErrInvalid,
			Message: fmt.Sprintf("bad table name %q", name),
		}
	}
	id := t.Identifier()
	for _, c := range t.columns {
		if c == "" {
			return nil, &Error{
				Op:      op,
				Kind:    ErrInvalid,
				Message: fmt.Sprintf("table %q: empty column name", name),
			}
		}
		if _, dup := t.handles[c]; dup {
			return nil, &Error{
				Op:      op,
				Kind:    ErrInvalid,
				Message: fmt.Sprintf("table %q: duplicate column %q", name, c),
			}
		}
		t.handles[c] = id.Col(c)
	}
	return &t, nil
}

// MustTable is like [NewTable], but panics on error.
func MustTable(name string, columns ...string) *Table {
	t, err := NewTable(name, columns...)
	if err != nil {
		panic(err)
	}
	return t
}

// Lookup implements [Schema].
func (t *Table) Lookup(name string) (exp.IdentifierExpression, bool) {
	h, ok := t.handles[name]
	return h, ok
}

// Name reports the table's name as passed to [NewTable].
func (t *Table) Name() string {
	if t.schema != "" {
		return t.schema + "." + t.name
	}
	return t.name
}

// Columns returns the table's columns in declaration order.
func (t *Table) Columns() []string {
	return slices.Clone(t.columns)
}

// Identifier returns the identifier expression naming the table.
func (t *Table) Identifier() exp.IdentifierExpression {
	if t.schema != "" {
		return goqu.S(t.schema).Table(t.name)
	}
	return goqu.T(t.name)
}

// Select returns a dataset selecting every column of the table, in
// declaration order, using the provided dialect.
func (t *Table) Select(d goqu.DialectWrapper) *goqu.SelectDataset {
	cols := make([]any, len(t.columns))
	for i, c := range t.columns {
		cols[i] = t.handles[c]
	}
	return d.From(t.Identifier()).Select(cols...)
}
