package pagequery

import (
	"errors"
	"testing"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/go-cmp/cmp"
)

func TestNewTable(t *testing.T) {
	bad := []struct {
		Name    string
		Table   string
		Columns []string
	}{
		{"EmptyName", "", []string{"a"}},
		{"EmptySchema", ".t", []string{"a"}},
		{"EmptyTable", "s.", []string{"a"}},
		{"EmptyColumn", "t", []string{"a", ""}},
		{"Duplicate", "t", []string{"a", "b", "a"}},
	}
	for _, tc := range bad {
		t.Run(tc.Name, func(t *testing.T) {
			_, err := NewTable(tc.Table, tc.Columns...)
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}

	t.Run("Panic", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Error("expected panic")
			}
		}()
		MustTable("t", "a", "a")
	})
}

func TestTableLookup(t *testing.T) {
	cols := []string{"id", "Name", "name"}
	tbl := MustTable("public.users", cols...)
	cols[0] = "changed"

	if got, want := tbl.Name(), "public.users"; got != want {
		t.Errorf("got: %q, want: %q", got, want)
	}
	if got, want := tbl.Columns(), []string{"id", "Name", "name"}; !cmp.Equal(got, want) {
		t.Error(cmp.Diff(got, want))
	}
	tbl.Columns()[0] = "mutated"
	if got, want := tbl.Columns()[0], "id"; got != want {
		t.Errorf("descriptor mutated through Columns: got %q", got)
	}

	for _, name := range []string{"id", "Name", "name"} {
		if _, ok := tbl.Lookup(name); !ok {
			t.Errorf("%q: missing", name)
		}
	}
	for _, name := range []string{"ID", "NAME", "changed", ""} {
		if _, ok := tbl.Lookup(name); ok {
			t.Errorf("%q: unexpected handle", name)
		}
	}

	h, _ := tbl.Lookup("name")
	got, _, err := goqu.Dialect("postgres").From("x").Select(h).ToSQL()
	if err != nil {
		t.Fatal(err)
	}
	want := `SELECT "public"."users"."name" FROM "x"`
	if !cmp.Equal(got, want) {
		t.Error(cmp.Diff(got, want))
	}
}

func TestTableSelect(t *testing.T) {
	tt := []struct {
		Table *Table
		Want  string
	}{
		{MustTable("t", "a", "b"), `SELECT "t"."a", "t"."b" FROM "t"`},
		{MustTable("s.t", "a"), `SELECT "s"."t"."a" FROM "s"."t"`},
		{MustTable("t"), `SELECT * FROM "t"`},
	}
	for _, tc := range tt {
		got, _, err := tc.Table.Select(goqu.Dialect("postgres")).ToSQL()
		if err != nil {
			t.Fatal(err)
		}
		if !cmp.Equal(got, tc.Want) {
			t.Error(cmp.Diff(got, tc.Want))
		}
	}
}
