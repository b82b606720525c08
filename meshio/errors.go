// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package meshio

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind discriminates the taxonomy of errors a loader can report.
type Kind int

// Error kinds.
const (
	// NotReady is returned when Load is called before a file was
	// attached to the loader.
	NotReady Kind = iota

	// Locked is returned when Load is called while a prior session
	// is still active.
	Locked

	// Io wraps an underlying read/seek failure.
	Io

	// CorruptData indicates the input violates the format's grammar:
	// an unknown data type, a list length outside [3, capacity], a
	// stream ending before the declared element count, a number-parse
	// failure in ASCII mode, a face index past the vertex count, or
	// an unrecognized token in STL ASCII.
	CorruptData

	// NotAvailable is returned when Next is called on a drained
	// iterator.
	NotAvailable
)

func (k Kind) String() string {
	switch k {
	case NotReady:
		return "not ready"
	case Locked:
		return "locked"
	case Io:
		return "io"
	case CorruptData:
		return "corrupt data"
	case NotAvailable:
		return "not available"
	default:
		return "unknown"
	}
}

// Error is the single error type every loader in this module returns.
// It carries a Kind discriminant and, where applicable, the underlying
// cause (wrapped with github.com/pkg/errors so callers can still reach
// the root cause through errors.Unwrap, errors.Is or errors.As).
type Error struct {
	Kind   Kind
	Reason string
	cause  error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("meshio: %s: %s: %v", e.Kind, e.Reason, e.cause)
	}
	return fmt.Sprintf("meshio: %s: %s", e.Kind, e.Reason)
}

// Unwrap allows errors.Is/errors.As to see through to the cause.
func (e *Error) Unwrap() error { return e.cause }

// NewError creates an Error with no underlying cause.
func NewError(kind Kind, reason string) *Error {
	return &Error{Kind: kind, Reason: reason}
}

// WrapError creates an Error that wraps cause, attaching a stack trace
// the way github.com/pkg/errors does, so a caller debugging a corrupt
// file sees where in the decode path the failure originated.
func WrapError(kind Kind, reason string, cause error) *Error {
	return &Error{Kind: kind, Reason: reason, cause: errors.Wrap(cause, reason)}
}

// IsKind reports whether err is a *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
