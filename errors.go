package pagequery

import (
	"errors"
	"strconv"
	"strings"
)

// Error is the pagequery error domain type.
//
// Errors coming from pagequery components should be able to be inspected as
// ([errors.As]) an *Error or an [*UnknownSortFieldError] at some point in the
// error chain.
//
// Storage implementations should create an Error at the system boundary (e.g.
// when using a database client) and intermediate layers should not wrap in
// another Error except to add additional [ErrorKind] information. That is to
// say, use [fmt.Errorf] with a "%w" verb in preference to creating a
// containing Error.
type Error struct {
	Inner   error
	Kind    ErrorKind
	Message string
	Op      string
}

var (
	_ error                       = (*Error)(nil)
	_ interface{ Is(error) bool } = (*Error)(nil)
	_ interface{ Unwrap() error } = (*Error)(nil)
)

// Error implements error.
func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(" ")
	}
	b.WriteString("[")
	switch e.Kind {
	case ErrInternal,
		ErrInvalid,
		ErrPrecondition,
		ErrTransient,
		ErrPermanent:
		b.WriteString(string(e.Kind))
	default:
		b.WriteString("???")
	}
	b.WriteString("]: ")
	if e.Message != "" {
		b.WriteString(e.Message)
	}
	if e.Message != "" && e.Inner != nil {
		b.WriteString(": ")
	}
	if e.Op == "" && e.Message == "" {
		b.Reset()
	}
	if e.Inner != nil {
		b.WriteString(e.Inner.Error())
	}
	return b.String()
}

// Is enables [errors.Is].
//
// It compares the error kind. Callers should compare against a declared
// [ErrorKind] over a specific error.
func (e *Error) Is(kind error) bool {
	return errors.Is(e.Kind, kind)
}

// Unwrap enables [errors.Unwrap].
func (e *Error) Unwrap() error {
	return e.Inner
}

// ErrorKind represents classes of errors to be checked against.
//
// If an error is unsure which kind to use, ErrInternal should be used.
type ErrorKind string

// Defined error kinds.
var (
	ErrInternal     = ErrorKind("internal")     // non-specific internal error
	ErrInvalid      = ErrorKind("invalid")      // invalid request
	ErrPrecondition = ErrorKind("precondition") // some precondition unfulfilled
	ErrTransient    = ErrorKind("transient")    // may succeed on retry
	ErrPermanent    = ErrorKind("permanent")    // will never succeed
)

// Error implements error.
func (e ErrorKind) Error() string {
	return string(e)
}

// UnknownSortFieldError is returned by [Augment] when a requested sort field
// does not resolve through the provided [Schema].
//
// It reports as both [ErrInvalid] and [ErrPermanent]: the same request will
// fail the same way every time.
type UnknownSortFieldError struct {
	Field string
}

var _ interface{ Is(error) bool } = (*UnknownSortFieldError)(nil)

// Error implements error.
func (e *UnknownSortFieldError) Error() string {
	return "unknown sort field " + strconv.Quote(e.Field)
}

// Is enables [errors.Is].
func (e *UnknownSortFieldError) Is(target error) bool {
	switch target {
	case ErrInvalid, ErrPermanent:
		return true
	}
	t, ok := target.(*UnknownSortFieldError)
	return ok && (t.Field == "" || t.Field == e.Field)
}
