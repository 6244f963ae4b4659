package shortener

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so the boundary can pick a response without
// inspecting error strings.
type Kind int

const (
	// KindUnknown is any failure that could not be classified.
	KindUnknown Kind = iota
	// KindValidation means the submitted input was rejected.
	KindValidation
	// KindNotFound means no mapping exists for the requested code.
	KindNotFound
	// KindTransient covers timeouts and temporarily unavailable stores.
	KindTransient
	// KindConnection means the store could not be reached after retrying,
	// or reported a fatal condition.
	KindConnection
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindTransient:
		return "transient"
	case KindConnection:
		return "connection"
	default:
		return "unknown"
	}
}

// Error is the typed failure returned by the service and the repository.
type Error struct {
	Kind    Kind
	Message string
	// Input echoes the value the caller submitted, when one is relevant.
	Input string
	Err   error
}

// NewError creates an Error of the given kind wrapping err.
func NewError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}

	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf reports the Kind of err. Errors that are not *Error are KindUnknown,
// except ErrNotFound and ErrInvalidURL which map to their natural kinds.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrInvalidURL):
		return KindValidation
	default:
		return KindUnknown
	}
}

// wrap keeps the kind of an existing *Error and adds the operation context.
func wrap(op string, err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return &Error{Kind: e.Kind, Message: op + ": " + e.Message, Input: e.Input, Err: e.Err}
	}

	return &Error{Kind: KindOf(err), Message: op, Err: err}
}
