package main

import (
	"fmt"
	"io"
	"net/url"
	"strconv"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // register the dialect
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"  // register the dialect
	"github.com/spf13/cobra"

	"github.com/quay/pagequery"
	"github.com/quay/pagequery/datastore"
	"github.com/quay/pagequery/httpapi"
)

type sqlFlags struct {
	table    string
	columns  []string
	page     uint
	size     uint
	sort     []string
	dialect  string
	live     bool
	prepared bool
	count    bool
}

func newSQLCmd(a *app) *cobra.Command {
	var f sqlFlags
	cmd := &cobra.Command{
		Use:   "sql",
		Short: "Print the SQL for a page request",
		Long: `Print the SQL selecting one page of a table.

The table's columns come from --columns, or from the configured database
with --live. Sort values use the same syntax as the HTTP "sort" parameter:
"field[,field...][,asc|desc]" or "+field,-field".`,
		Example: `  pagequery sql --table events --columns created_on,status,name \
    --page 2 --size 10 --sort created_on,status,asc --sort name,desc`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSQL(cmd, a, &f)
		},
	}
	fs := cmd.Flags()
	fs.StringVar(&f.table, "table", "", "table name, optionally schema-qualified")
	fs.StringSliceVar(&f.columns, "columns", nil, "table columns, in order")
	fs.UintVar(&f.page, "page", 0, "zero-based page index")
	fs.UintVar(&f.size, "size", 0, "page size (default from configuration)")
	fs.StringArrayVar(&f.sort, "sort", nil, "sort instructions; may be repeated")
	fs.StringVar(&f.dialect, "dialect", "", "SQL dialect (postgres|sqlite3); defaults to the configured driver's")
	fs.BoolVar(&f.live, "live", false, "read the table's columns from the configured database")
	fs.BoolVar(&f.prepared, "prepared", false, "render placeholders and print arguments")
	fs.BoolVar(&f.count, "count", false, "also print the row count query")
	_ = cmd.MarkFlagRequired("table")
	return cmd
}

var driverDialect = map[string]string{
	"postgres": "postgres",
	"sqlite":   "sqlite3",
}

func runSQL(cmd *cobra.Command, a *app, f *sqlFlags) error {
	ctx := cmd.Context()
	dialect := f.dialect
	if dialect == "" {
		dialect = driverDialect[a.cfg.Database.Driver]
	}
	switch dialect {
	case "postgres", "sqlite3":
	default:
		return fmt.Errorf("unknown dialect %q", dialect)
	}

	v := url.Values{
		httpapi.ParamPage: {strconv.FormatUint(uint64(f.page), 10)},
		httpapi.ParamSort: f.sort,
	}
	if cmd.Flags().Changed("size") {
		v.Set(httpapi.ParamSize, strconv.FormatUint(uint64(f.size), 10))
	}
	req, err := httpapi.ParsePageRequest(v, httpapi.Defaults{Size: a.cfg.Page.DefaultSize})
	if err != nil {
		return err
	}

	var t *pagequery.Table
	switch {
	case f.live:
		p, done, err := openStore(ctx, &a.cfg.Database)
		if err != nil {
			return err
		}
		defer done()
		t, err = p.Schema(ctx, f.table)
		if err != nil {
			return err
		}
	case len(f.columns) == 0:
		return fmt.Errorf("one of --columns or --live is needed")
	default:
		t, err = pagequery.NewTable(f.table, f.columns...)
		if err != nil {
			return err
		}
	}

	d := goqu.Dialect(dialect)
	out := cmd.OutOrStdout()
	if f.prepared {
		data, count, err := datastore.Statements(d, t, req)
		if err != nil {
			return err
		}
		printStatement(out, data)
		if f.count {
			printStatement(out, count)
		}
		return nil
	}

	q, err := pagequery.Augment(t, t.Select(d), req)
	if err != nil {
		return err
	}
	s, _, err := q.ToSQL()
	if err != nil {
		return err
	}
	fmt.Fprintln(out, s+";")
	if f.count {
		s, _, err := d.From(t.Identifier()).Select(goqu.COUNT(goqu.Star())).ToSQL()
		if err != nil {
			return err
		}
		fmt.Fprintln(out, s+";")
	}
	return nil
}

func printStatement(w io.Writer, s datastore.Statement) {
	fmt.Fprintln(w, s.SQL+";")
	if len(s.Args) != 0 {
		fmt.Fprintf(w, "-- args: %v\n", s.Args)
	}
}
