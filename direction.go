package pagequery

import (
	"fmt"
	"strings"
)

// Direction is the ordering direction of a [SortInstruction].
//
// The zero value is Ascending.
type Direction uint8

//go:generate stringer -type=Direction -linecomment

const (
	Ascending  Direction = iota // ASC
	Descending                  // DESC
)

// MarshalText implements [encoding.TextMarshaler].
func (d Direction) MarshalText() ([]byte, error) {
	if d > Descending {
		return nil, &Error{
			Op:      "Direction.MarshalText",
			Kind:    ErrInvalid,
			Message: fmt.Sprintf("unknown direction %d", uint8(d)),
		}
	}
	return []byte(d.String()), nil
}

// UnmarshalText implements [encoding.TextUnmarshaler].
//
// The accepted spellings are "asc", "ascending", "desc", and "descending", in
// any case.
func (d *Direction) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "asc", "ascending":
		*d = Ascending
	case "desc", "descending":
		*d = Descending
	default:
		return &Error{
			Op:      "Direction.UnmarshalText",
			Kind:    ErrInvalid,
			Message: fmt.Sprintf("unknown direction %q", string(b)),
		}
	}
	return nil
}
