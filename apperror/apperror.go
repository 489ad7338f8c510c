// Package apperror defines the closed set of failure kinds produced by the
// code generation pipeline and the account endpoints.
package apperror

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindUnknown Kind = iota
	Unauthenticated
	NoFileProvided
	UnsupportedOutputType
	InvalidUpload
	GenerationFailure
	PersistenceFailure
	NotFound
	Invalid
	Conflict
)

func (k Kind) String() string {
	switch k {
	case Unauthenticated:
		return "unauthenticated"
	case NoFileProvided:
		return "no_file_provided"
	case UnsupportedOutputType:
		return "unsupported_output_type"
	case InvalidUpload:
		return "invalid_upload"
	case GenerationFailure:
		return "generation_failure"
	case PersistenceFailure:
		return "persistence_failure"
	case NotFound:
		return "not_found"
	case Invalid:
		return "invalid"
	case Conflict:
		return "conflict"
	default:
		return "unknown"
	}
}

// Error carries a Kind, the operation that failed and the underlying cause.
// The cause is meant for logs only.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New wraps err with kind and op.
func New(kind Kind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Newf is New with a formatted cause.
func Newf(kind Kind, op, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the Kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUnknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
