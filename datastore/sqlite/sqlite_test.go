package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/go-cmp/cmp"

	"github.com/quay/pagequery"
	"github.com/quay/pagequery/datastore"
	"github.com/quay/pagequery/test"
)

// Fixture is the events table used throughout these tests. Rows are inserted
// out of order so that any ordering in results comes from the query.
const fixture = `
CREATE TABLE events (
	id         INTEGER PRIMARY KEY,
	created_on TEXT NOT NULL,
	status     TEXT NOT NULL,
	name       TEXT NOT NULL
);
INSERT INTO events (id, created_on, status, name) VALUES
	(1, '2024-01-02', 'open',   'b'),
	(2, '2024-01-01', 'closed', 'a'),
	(3, '2024-01-02', 'open',   'c'),
	(4, '2024-01-03', 'open',   'a'),
	(5, '2024-01-01', 'open',   'z'),
	(6, '2024-01-02', 'closed', 'a'),
	(7, '2024-01-03', 'closed', 'q');
`

func newStore(t testing.TB) *Store {
	t.Helper()
	db, err := sql.Open(`sqlite`, ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	// Every connection to ":memory:" is a new database.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(fixture); err != nil {
		t.Fatal(err)
	}
	s := New(db)
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Error(err)
		}
	})
	return s
}

func TestSchema(t *testing.T) {
	ctx := test.Logging(t)
	s := newStore(t)

	t.Run("Events", func(t *testing.T) {
		tbl, err := s.Schema(ctx, "events")
		if err != nil {
			t.Fatal(err)
		}
		got, want := tbl.Columns(), []string{"id", "created_on", "status", "name"}
		if !cmp.Equal(got, want) {
			t.Error(cmp.Diff(got, want))
		}
		if got, want := tbl.Name(), "events"; got != want {
			t.Errorf("got: %q, want: %q", got, want)
		}
	})
	t.Run("Qualified", func(t *testing.T) {
		tbl, err := s.Schema(ctx, "main.events")
		if err != nil {
			t.Fatal(err)
		}
		if got, want := tbl.Name(), "main.events"; got != want {
			t.Errorf("got: %q, want: %q", got, want)
		}
	})
	t.Run("Missing", func(t *testing.T) {
		_, err := s.Schema(ctx, "nope")
		if !errors.Is(err, pagequery.ErrPrecondition) {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestPage(t *testing.T) {
	ctx := test.Logging(t)
	s := newStore(t)

	row := func(id int64, created, status, name string) map[string]any {
		return map[string]any{"id": id, "created_on": created, "status": status, "name": name}
	}
	tt := []struct {
		Name string
		Req  pagequery.PageRequest
		Want []map[string]any
	}{
		{
			Name: "Scenario",
			Req: pagequery.PageRequest{
				Index: 1,
				Size:  3,
				Sort: []pagequery.SortInstruction{
					pagequery.Asc("created_on"),
					pagequery.Asc("status"),
					pagequery.Desc("name"),
				},
			},
			// Full ordering: 2, 5, 6, 3, 1, 7, 4.
			Want: []map[string]any{
				row(3, "2024-01-02", "open", "c"),
				row(1, "2024-01-02", "open", "b"),
				row(7, "2024-01-03", "closed", "q"),
			},
		},
		{
			Name: "FirstPage",
			Req:  pagequery.PageRequest{Size: 2, Sort: []pagequery.SortInstruction{pagequery.Desc("id")}},
			Want: []map[string]any{
				row(7, "2024-01-03", "closed", "q"),
				row(6, "2024-01-02", "closed", "a"),
			},
		},
		{
			Name: "LastPartial",
			Req:  pagequery.PageRequest{Index: 2, Size: 3, Sort: []pagequery.SortInstruction{pagequery.Asc("id")}},
			Want: []map[string]any{
				row(7, "2024-01-03", "closed", "q"),
			},
		},
		{
			Name: "PastEnd",
			Req:  pagequery.PageRequest{Index: 10, Size: 3, Sort: []pagequery.SortInstruction{pagequery.Asc("id")}},
			Want: []map[string]any{},
		},
		{
			Name: "ZeroSize",
			Req:  pagequery.PageRequest{Index: 0, Size: 0, Sort: []pagequery.SortInstruction{pagequery.Asc("id")}},
			Want: []map[string]any{},
		},
	}
	for _, tc := range tt {
		t.Run(tc.Name, func(t *testing.T) {
			pg, err := s.Page(ctx, "events", tc.Req)
			if err != nil {
				t.Fatal(err)
			}
			if !cmp.Equal(pg.Rows, tc.Want, test.CmpRows) {
				t.Error(cmp.Diff(pg.Rows, tc.Want, test.CmpRows))
			}
			if got, want := pg.Total, int64(7); got != want {
				t.Errorf("total: got: %d, want: %d", got, want)
			}
			if got, want := pg.Columns, []string{"id", "created_on", "status", "name"}; !cmp.Equal(got, want) {
				t.Error(cmp.Diff(got, want))
			}
		})
	}
}

func TestPageErrors(t *testing.T) {
	ctx := test.Logging(t)
	s := newStore(t)

	t.Run("UnknownField", func(t *testing.T) {
		_, err := s.Page(ctx, "events", pagequery.PageRequest{
			Size: 1,
			Sort: []pagequery.SortInstruction{pagequery.Asc("unknown_field")},
		})
		var usf *pagequery.UnknownSortFieldError
		if !errors.As(err, &usf) {
			t.Fatalf("unexpected error: %v", err)
		}
		if got, want := usf.Field, "unknown_field"; got != want {
			t.Errorf("got: %q, want: %q", got, want)
		}
	})
	t.Run("MissingTable", func(t *testing.T) {
		_, err := s.Page(ctx, "nope", pagequery.PageRequest{Size: 1})
		if !errors.Is(err, pagequery.ErrPrecondition) {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

// TestPageWalk checks that following Next from the first page visits every
// row exactly once.
func TestPageWalk(t *testing.T) {
	ctx := test.Logging(t)
	s := newStore(t)

	req := pagequery.PageRequest{Size: 2, Sort: []pagequery.SortInstruction{pagequery.Asc("id")}}
	var ids []string
	for {
		pg, err := s.Page(ctx, "events", req)
		if err != nil {
			t.Fatal(err)
		}
		for _, r := range pg.Rows {
			ids = append(ids, fmt.Sprint(r["id"]))
		}
		if !pg.HasNext() {
			if got, want := pg.TotalPages(), uint64(4); got != want {
				t.Errorf("pages: got: %d, want: %d", got, want)
			}
			break
		}
		req = req.Next()
	}
	want := []string{"1", "2", "3", "4", "5", "6", "7"}
	if !cmp.Equal(ids, want) {
		t.Error(cmp.Diff(ids, want))
	}
}

var _ datastore.Pager = (*Store)(nil)

func TestAugmentAggregate(t *testing.T) {
	ctx := test.Logging(t)
	s := newStore(t)
	tbl, err := s.Schema(ctx, "events")
	if err != nil {
		t.Fatal(err)
	}
	base := goqu.Dialect("sqlite3").From(tbl.Identifier()).Select(goqu.COUNT(goqu.Star()))

	tt := []struct {
		Name string
		Size uint
		Want []int64
	}{
		{Name: "ZeroSize", Size: 0, Want: nil},
		{Name: "OneRow", Size: 1, Want: []int64{7}},
	}
	for _, tc := range tt {
		t.Run(tc.Name, func(t *testing.T) {
			q, err := pagequery.Augment(tbl, base, pagequery.PageRequest{Size: tc.Size})
			if err != nil {
				t.Fatal(err)
			}
			stmt, args, err := q.Prepared(true).ToSQL()
			if err != nil {
				t.Fatal(err)
			}
			t.Logf("sql: %s %v", stmt, args)
			rows, err := s.db.QueryContext(ctx, stmt, args...)
			if err != nil {
				t.Fatal(err)
			}
			defer rows.Close()
			var got []int64
			for rows.Next() {
				var n int64
				if err := rows.Scan(&n); err != nil {
					t.Fatal(err)
				}
				got = append(got, n)
			}
			if err := rows.Err(); err != nil {
				t.Fatal(err)
			}
			if !cmp.Equal(got, tc.Want) {
				t.Error(cmp.Diff(got, tc.Want))
			}
		})
	}
}
