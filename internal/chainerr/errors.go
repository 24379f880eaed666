// Package chainerr defines the error kinds shared across the chain engine.
//
// The engine classifies failures by kind rather than by one sentinel per
// condition (there are many distinct invalid-argument conditions, for
// example, but callers only ever need to branch on the kind).
package chainerr

import "fmt"

// Kind classifies why an operation failed.
type Kind int

const (
	// InvalidArgument marks a constructor/API precondition violation.
	InvalidArgument Kind = iota
	// InvalidEncoding marks a short or malformed byte stream, or a
	// structural mismatch (merkle root, previous-block ID) found during decode.
	InvalidEncoding
	// InvalidChain marks a structurally valid chain that fails proof or
	// transaction validity on load.
	InvalidChain
	// InsufficientFunds marks a transfer that exceeds the sender's balance.
	InsufficientFunds
	// NotFound marks a referenced entity absent from its registry/store.
	NotFound
	// Conflict marks a save that would overwrite existing state.
	Conflict
)

func (k Kind) String() string {
	switch k {
	case InvalidArgument:
		return "InvalidArgument"
	case InvalidEncoding:
		return "InvalidEncoding"
	case InvalidChain:
		return "InvalidChain"
	case InsufficientFunds:
		return "InsufficientFunds"
	case NotFound:
		return "NotFound"
	case Conflict:
		return "Conflict"
	default:
		return "Unknown"
	}
}

// Error is the concrete error type returned by every package in this module.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a *Error with the same Kind, so callers can
// write errors.Is(err, chainerr.New(chainerr.NotFound, "")).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// New creates an *Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an *Error of the given kind that wraps cause.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Of reports whether the first *Error in err's unwrap chain (err itself or
// any error it wraps) has the given Kind. Errors wrapped inside that first
// *Error are not inspected.
func Of(err error, kind Kind) bool {
	var e *Error
	for err != nil {
		if ce, ok := err.(*Error); ok {
			e = ce
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return e != nil && e.Kind == kind
}
