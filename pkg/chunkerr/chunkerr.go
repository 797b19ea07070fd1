// Package chunkerr defines the error-kind taxonomy the core reports
// across the DataChunk/Vector/Interchange public API. Internal
// contract breaches (InvariantViolation) keep the teacher's
// util.AssertFunc idiom, which panics in every build; the other four kinds are
// always returned as errors and never panic.
package chunkerr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	// InvariantViolation marks an internal contract broken (cache
	// count mismatch, invalid encoding state). Not expected to be
	// recovered by callers; most call sites raise this via
	// util.AssertFunc instead of constructing this Kind, but it is
	// still named here so errors.Is/As work uniformly if a caller
	// wraps a recovered panic.
	InvariantViolation Kind = iota
	// OutOfRange marks a caller-supplied mismatch: column counts,
	// invalid row ids, offsets past end.
	OutOfRange
	// UnsupportedType marks a logical type unsupported on the
	// current path (e.g. interchange export of an unsupported
	// nesting).
	UnsupportedType
	// NullConstraintViolation marks a null found where the ABI
	// forbids one (a null map key during interchange export).
	NullConstraintViolation
	// Allocation marks a memory allocation failure.
	Allocation
)

func (k Kind) String() string {
	switch k {
	case InvariantViolation:
		return "InvariantViolation"
	case OutOfRange:
		return "OutOfRange"
	case UnsupportedType:
		return "UnsupportedType"
	case NullConstraintViolation:
		return "NullConstraintViolation"
	case Allocation:
		return "Allocation"
	default:
		return "Unknown"
	}
}

type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s: %v", e.Kind, e.Op, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s", e.Kind, e.Op, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, op, msg string) error {
	return &Error{Kind: kind, Op: op, Msg: msg}
}

func Wrap(kind Kind, op, msg string, err error) error {
	return &Error{Kind: kind, Op: op, Msg: msg, Err: err}
}

// Is reports whether err (or one it wraps) carries the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

func OutOfRangef(op, format string, a ...any) error {
	return New(OutOfRange, op, fmt.Sprintf(format, a...))
}

func UnsupportedTypef(op, format string, a ...any) error {
	return New(UnsupportedType, op, fmt.Sprintf(format, a...))
}

func NullConstraintf(op, format string, a ...any) error {
	return New(NullConstraintViolation, op, fmt.Sprintf(format, a...))
}

func Allocationf(op string, err error) error {
	return Wrap(Allocation, op, "allocation failed", err)
}
