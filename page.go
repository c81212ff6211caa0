package pagequery

import (
	"math"
	"math/bits"
	"slices"
	"strconv"
	"strings"
)

// SortInstruction is a single ORDER BY term, by field name.
type SortInstruction struct {
	Field     string    `json:"field"`
	Direction Direction `json:"direction"`
}

// Asc is a helper for an ascending SortInstruction.
func Asc(field string) SortInstruction {
	return SortInstruction{Field: field, Direction: Ascending}
}

// Desc is a helper for a descending SortInstruction.
func Desc(field string) SortInstruction {
	return SortInstruction{Field: field, Direction: Descending}
}

// String implements [fmt.Stringer].
func (s SortInstruction) String() string {
	return s.Field + " " + s.Direction.String()
}

// PageRequest is a request for one bounded slice of an ordered result set.
//
// The Sort member is significant in order: the first element is the primary
// sort key, the second the secondary, and so on.
//
// A Size of 0 requests zero rows, not an unlimited page.
type PageRequest struct {
	Index uint              `json:"page"`
	Size  uint              `json:"size"`
	Sort  []SortInstruction `json:"sort,omitempty"`
}

// MaxOffset is the largest offset [PageRequest.Offset] reports.
//
// SQL engines and the query builder take OFFSET as a signed value.
const MaxOffset = math.MaxInt

// Offset reports the number of rows before the requested page, Index × Size.
//
// The result saturates at [MaxOffset] instead of overflowing; an offset that
// large is past the end of any table, which is what was asked for.
func (p PageRequest) Offset() uint {
	hi, lo := bits.Mul(p.Index, p.Size)
	if hi != 0 || lo > MaxOffset {
		return MaxOffset
	}
	return lo
}

// Next returns the request for the following page.
func (p PageRequest) Next() PageRequest {
	n := p.clone()
	if n.Index != math.MaxUint {
		n.Index++
	}
	return n
}

// Previous returns the request for the preceding page, or the first page if p
// is already the first page.
func (p PageRequest) Previous() PageRequest {
	n := p.clone()
	if n.Index != 0 {
		n.Index--
	}
	return n
}

// First returns the request for the first page.
func (p PageRequest) First() PageRequest {
	n := p.clone()
	n.Index = 0
	return n
}

// String implements [fmt.Stringer].
func (p PageRequest) String() string {
	var b strings.Builder
	b.WriteString("page ")
	b.WriteString(strconv.FormatUint(uint64(p.Index), 10))
	b.WriteString(" size ")
	b.WriteString(strconv.FormatUint(uint64(p.Size), 10))
	if len(p.Sort) != 0 {
		b.WriteString(" sort ")
		for i, s := range p.Sort {
			if i != 0 {
				b.WriteString(", ")
			}
			b.WriteString(s.String())
		}
	}
	return b.String()
}

func (p PageRequest) clone() PageRequest {
	p.Sort = slices.Clone(p.Sort)
	return p
}
