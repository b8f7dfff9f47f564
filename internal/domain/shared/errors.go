package shared

import (
	"errors"
	"fmt"
)

// Kind classifies a failure into one of the outcomes a caller can act on.
type Kind string

const (
	KindNotFound          Kind = "NOT_FOUND"
	KindForbidden         Kind = "FORBIDDEN"
	KindInvalidState      Kind = "INVALID_STATE"
	KindInvalidInput      Kind = "INVALID_INPUT"
	KindCapacityExceeded  Kind = "CAPACITY_EXCEEDED"
	KindAlreadyPurchased  Kind = "ALREADY_PURCHASED"
	KindInsufficientFunds Kind = "INSUFFICIENT_FUNDS"
	KindConflict          Kind = "CONFLICT"
	KindRetryable         Kind = "RETRYABLE"
)

// Error is the domain error carried from repositories up to the HTTP layer.
// Two errors match under errors.Is when their kinds are equal.
type Error struct {
	Kind      Kind
	Message   string
	Retryable bool
	Err       error
}

// Error includes the cause when there is one.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel of e's kind, so errors.Is(err, ErrNotFound)
// works on any NotFound error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is checks. Their messages are never shown to callers.
var (
	ErrNotFound          = &Error{Kind: KindNotFound, Message: "not found"}
	ErrForbidden         = &Error{Kind: KindForbidden, Message: "forbidden"}
	ErrInvalidState      = &Error{Kind: KindInvalidState, Message: "invalid state"}
	ErrInvalidInput      = &Error{Kind: KindInvalidInput, Message: "invalid input"}
	ErrCapacityExceeded  = &Error{Kind: KindCapacityExceeded, Message: "capacity exceeded"}
	ErrAlreadyPurchased  = &Error{Kind: KindAlreadyPurchased, Message: "already purchased"}
	ErrInsufficientFunds = &Error{Kind: KindInsufficientFunds, Message: "insufficient funds"}
	ErrConflict          = &Error{Kind: KindConflict, Message: "conflict"}
	ErrRetryable         = &Error{Kind: KindRetryable, Message: "temporarily unavailable", Retryable: true}
)

// NotFound is a missing buyer, lead or record.
func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Forbidden is an action the caller may not take, such as an unapproved
// buyer purchasing.
func Forbidden(format string, args ...any) *Error {
	return &Error{Kind: KindForbidden, Message: fmt.Sprintf(format, args...)}
}

// InvalidState is an action the entity's current state does not allow.
func InvalidState(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidState, Message: fmt.Sprintf(format, args...)}
}

func InvalidInput(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidInput, Message: fmt.Sprintf(format, args...)}
}

// CapacityExceeded means the lead has no purchase slot left.
func CapacityExceeded(format string, args ...any) *Error {
	return &Error{Kind: KindCapacityExceeded, Message: fmt.Sprintf(format, args...)}
}

// AlreadyPurchased is a repeat purchase of the same lead by one buyer.
func AlreadyPurchased(format string, args ...any) *Error {
	return &Error{Kind: KindAlreadyPurchased, Message: fmt.Sprintf(format, args...)}
}

// InsufficientFunds is a wallet balance below the lead price.
func InsufficientFunds(format string, args ...any) *Error {
	return &Error{Kind: KindInsufficientFunds, Message: fmt.Sprintf(format, args...)}
}

// Conflict is a uniqueness clash retrying will not clear.
func Conflict(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// RetryableConflict is a uniqueness clash the caller can clear by sending
// the same request again, such as a generated transaction id collision.
func RetryableConflict(cause error, format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...), Retryable: true, Err: cause}
}

// Retryable wraps a transient store failure.
func Retryable(cause error, format string, args ...any) *Error {
	return &Error{Kind: KindRetryable, Message: fmt.Sprintf(format, args...), Retryable: true, Err: cause}
}

// KindOf returns the kind of the first domain error in err's chain, or ""
// for errors that carry no classification.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// IsRetryable reports whether re-issuing the identical request may succeed.
func IsRetryable(err error) bool {
	var de *Error
	return errors.As(err, &de) && de.Retryable
}
