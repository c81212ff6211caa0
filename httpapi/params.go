package httpapi

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/quay/pagequery"
)

// Query parameter names.
const (
	ParamPage = `page`
	ParamSize = `size`
	ParamSort = `sort`
)

// Defaults controls how missing or out-of-range page parameters are handled.
type Defaults struct {
	// Size is used when no size is provided.
	Size uint
	// MaxSize caps the requested size. Zero means no cap.
	MaxSize uint
}

// ParsePageRequest builds a PageRequest out of query parameters.
//
// A malformed parameter is reported as an error of kind [pagequery.ErrInvalid].
// Sort fields are not checked against any table here.
func ParsePageRequest(v url.Values, d Defaults) (pagequery.PageRequest, error) {
	const op = `httpapi/ParsePageRequest`
	p := pagequery.PageRequest{Size: d.Size}
	var err error
	if s := v.Get(ParamPage); s != "" {
		p.Index, err = parseUint(s)
		if err != nil {
			return p, &pagequery.Error{
				Op:      op,
				Kind:    pagequery.ErrInvalid,
				Message: fmt.Sprintf("bad %s parameter %q", ParamPage, s),
				Inner:   err,
			}
		}
	}
	if s := v.Get(ParamSize); s != "" {
		p.Size, err = parseUint(s)
		if err != nil {
			return p, &pagequery.Error{
				Op:      op,
				Kind:    pagequery.ErrInvalid,
				Message: fmt.Sprintf("bad %s parameter %q", ParamSize, s),
				Inner:   err,
			}
		}
	}
	if d.MaxSize != 0 && p.Size > d.MaxSize {
		p.Size = d.MaxSize
	}
	for _, s := range v[ParamSort] {
		sort, err := parseSort(s)
		if err != nil {
			return p, &pagequery.Error{
				Op:      op,
				Kind:    pagequery.ErrInvalid,
				Message: fmt.Sprintf("bad %s parameter %q", ParamSort, s),
				Inner:   err,
			}
		}
		p.Sort = append(p.Sort, sort...)
	}
	return p, nil
}

func parseUint(s string) (uint, error) {
	n, err := strconv.ParseUint(s, 10, strconv.IntSize)
	return uint(n), err
}

// ParseSort parses a single sort parameter value.
//
// A "+" in a query string decodes to a space, so a leading space is treated
// the same as a leading "+".
func parseSort(s string) ([]pagequery.SortInstruction, error) {
	parts := strings.Split(s, ",")
	if n := len(parts); n > 1 {
		var d pagequery.Direction
		if err := d.UnmarshalText([]byte(strings.TrimSpace(parts[n-1]))); err == nil {
			out := make([]pagequery.SortInstruction, n-1)
			for i, f := range parts[:n-1] {
				f = strings.TrimSpace(f)
				if f == "" {
					return nil, errEmptyField
				}
				out[i] = pagequery.SortInstruction{Field: f, Direction: d}
			}
			return out, nil
		}
	}
	out := make([]pagequery.SortInstruction, len(parts))
	for i, f := range parts {
		d := pagequery.Ascending
		switch {
		case strings.HasPrefix(f, "-"):
			d = pagequery.Descending
			f = f[1:]
		case strings.HasPrefix(f, "+"), strings.HasPrefix(f, " "):
			f = f[1:]
		}
		f = strings.TrimSpace(f)
		if f == "" {
			return nil, errEmptyField
		}
		out[i] = pagequery.SortInstruction{Field: f, Direction: d}
	}
	return out, nil
}

var errEmptyField = &pagequery.Error{
	Kind:    pagequery.ErrInvalid,
	Message: "empty sort field",
}
