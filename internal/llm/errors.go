package llm

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a backend failure.
type Kind string

const (
	KindRateLimited     Kind = "rate_limited"
	KindPaymentRequired Kind = "payment_required"
	KindGeneric         Kind = "generic"
)

var (
	ErrRateLimited     = errors.New("generation backend rate limited")
	ErrPaymentRequired = errors.New("generation backend payment required")
	ErrBackend         = errors.New("generation backend failure")
)

// Error is a classified backend failure. It unwraps to one of the sentinel
// errors above so callers can use errors.Is.
type Error struct {
	Kind       Kind
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s (status %d): %s", e.sentinel(), e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.sentinel(), e.Message)
}

// Unwrap returns the sentinel for the kind plus the underlying cause.
func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.sentinel(), e.Err}
	}
	return []error{e.sentinel()}
}

func (e *Error) sentinel() error {
	switch e.Kind {
	case KindRateLimited:
		return ErrRateLimited
	case KindPaymentRequired:
		return ErrPaymentRequired
	default:
		return ErrBackend
	}
}

// KindForStatus maps an HTTP status from the backend to a Kind.
func KindForStatus(status int) Kind {
	switch status {
	case http.StatusTooManyRequests:
		return KindRateLimited
	case http.StatusPaymentRequired:
		return KindPaymentRequired
	default:
		return KindGeneric
	}
}

// NewError classifies a failure by its HTTP status.
func NewError(status int, message string, cause error) *Error {
	return &Error{
		Kind:       KindForStatus(status),
		StatusCode: status,
		Message:    message,
		Err:        cause,
	}
}

// KindOf returns the classification of err. Unclassified errors are generic.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	switch {
	case errors.Is(err, ErrRateLimited):
		return KindRateLimited
	case errors.Is(err, ErrPaymentRequired):
		return KindPaymentRequired
	}
	return KindGeneric
}

// User-facing messages per failure kind.
const (
	MessageRateLimited     = "Rate limit exceeded. Please try again later."
	MessagePaymentRequired = "Payment required. Please add credits to your workspace."
	MessageGeneric         = "AI gateway error"
)

// UserMessage returns the text to show a user for a backend failure.
func UserMessage(err error) string {
	switch KindOf(err) {
	case KindRateLimited:
		return MessageRateLimited
	case KindPaymentRequired:
		return MessagePaymentRequired
	default:
		return MessageGeneric
	}
}
