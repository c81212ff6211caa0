package pagequery

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"
)

func ExampleError() {
	fmt.Println(&Error{
		Inner:   nil,
		Kind:    ErrInternal,
		Message: "test",
		Op:      "ExampleError",
	})

	fmt.Println(&Error{
		Inner:   sql.ErrNoRows,
		Kind:    ErrPrecondition,
		Message: "table missing",
		Op:      "LoadSchema",
	})
	err := &Error{
		Inner: &Error{
			Inner:   sql.ErrNoRows,
			Kind:    ErrPrecondition,
			Message: "table missing",
			Op:      "LoadSchema",
		},
		Kind: ErrTransient,
	}
	fmt.Println(err)
	fmt.Println(fmt.Errorf("somepackage: oops: %w", &UnknownSortFieldError{Field: "nope"}))

	// Output:
	// ExampleError [internal]: test
	// LoadSchema [precondition]: table missing: sql: no rows in result set
	// LoadSchema [precondition]: table missing: sql: no rows in result set
	// somepackage: oops: unknown sort field "nope"
}

type kindTestcase struct {
	Name         string
	Err          error
	Invalid      bool
	Permanent    bool
	Transient    bool
	Precondition bool
}

func (tc kindTestcase) Run(t *testing.T) {
	t.Run(tc.Name, func(t *testing.T) {
		t.Log(tc.Err)
		for _, c := range []struct {
			Kind ErrorKind
			Want bool
		}{
			{ErrInvalid, tc.Invalid},
			{ErrPermanent, tc.Permanent},
			{ErrTransient, tc.Transient},
			{ErrPrecondition, tc.Precondition},
		} {
			if got, want := errors.Is(tc.Err, c.Kind), c.Want; got != want {
				t.Errorf("%v: got: %v, want: %v", c.Kind, got, want)
			}
		}
	})
}

func TestErrorKinds(t *testing.T) {
	tt := []kindTestcase{
		{
			Name: "Permanent",
			Err: &Error{
				Inner: errors.New("permanent"),
				Kind:  ErrPermanent,
			},
			Permanent: true,
		},
		{
			Name: "Transient",
			Err: &Error{
				Inner: errors.New("transient"),
				Kind:  ErrTransient,
			},
			Transient: true,
		},
		{
			Name: "Nested",
			Err: &Error{
				Kind: ErrPrecondition,
				Inner: &Error{
					Inner: errors.New("transient"),
					Kind:  ErrTransient,
				},
			},
			Transient:    true,
			Precondition: true,
		},
		{
			Name:      "UnknownSortField",
			Err:       &UnknownSortFieldError{Field: "x"},
			Invalid:   true,
			Permanent: true,
		},
		{
			Name:      "WrappedUnknownSortField",
			Err:       fmt.Errorf("wrapped: %w", &UnknownSortFieldError{Field: "x"}),
			Invalid:   true,
			Permanent: true,
		},
		{
			Name: "Plain",
			Err:  errors.New("plain"),
		},
	}
	for _, tc := range tt {
		tc.Run(t)
	}
}

func TestUnknownSortFieldAs(t *testing.T) {
	err := fmt.Errorf("outer: %w", &UnknownSortFieldError{Field: "unknown_field"})
	var usf *UnknownSortFieldError
	if !errors.As(err, &usf) {
		t.Fatalf("errors.As failed on %v", err)
	}
	if got, want := usf.Field, "unknown_field"; got != want {
		t.Errorf("got: %q, want: %q", got, want)
	}
	if !errors.Is(err, &UnknownSortFieldError{}) {
		t.Error("expected match against the zero UnknownSortFieldError")
	}
	if !errors.Is(err, &UnknownSortFieldError{Field: "unknown_field"}) {
		t.Error("expected match against the same field")
	}
	if errors.Is(err, &UnknownSortFieldError{Field: "other"}) {
		t.Error("unexpected match against a different field")
	}
}
