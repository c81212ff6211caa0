package datastore

import (
	"github.com/quay/pagequery"
)

// Page is one page of rows, along with enough information to navigate to the
// others.
type Page struct {
	// Request is the request that produced this page.
	Request pagequery.PageRequest
	// Columns is the column names, in table order.
	Columns []string
	// Rows is the page contents, keyed by column name.
	Rows []map[string]any
	// Total is the number of rows in the table.
	Total int64
}

// HasNext reports whether there are rows after this page.
func (p *Page) HasNext() bool {
	if p.Request.Size == 0 || p.Total <= 0 {
		return false
	}
	total := uint64(p.Total)
	end := uint64(p.Request.Offset())
	if end >= total {
		return false
	}
	return total-end > uint64(p.Request.Size)
}

// TotalPages reports the number of pages of the requested size needed to hold
// every row. A page size of 0 always reports 0.
func (p *Page) TotalPages() uint64 {
	if p.Request.Size == 0 || p.Total <= 0 {
		return 0
	}
	sz := uint64(p.Request.Size)
	total := uint64(p.Total)
	return total/sz + min(total%sz, 1)
}
