package apperror

import (
	"fmt"
	"net/http"

	crerr "github.com/cockroachdb/errors"
)

// Kind classifies a failure surfaced by the backend or the transport.
type Kind string

const (
	KindNetwork    Kind = "network"
	KindAuth       Kind = "auth"
	KindForbidden  Kind = "forbidden"
	KindNotFound   Kind = "not_found"
	KindValidation Kind = "validation"
	KindRateLimit  Kind = "rate_limit"
	KindServer     Kind = "server"
	KindUnexpected Kind = "unexpected"
)

// Error is the normalized failure type handed to the orchestration
// layer. Details carries field-level messages for validation failures.
type Error struct {
	Kind       Kind
	Message    string
	StatusCode int
	Details    map[string][]string
	cause      error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Network reports that no usable response was received.
func Network(cause error) *Error {
	return &Error{
		Kind:    KindNetwork,
		Message: "could not reach the server",
		cause:   crerr.Wrap(cause, "network failure"),
	}
}

// FromStatus maps an HTTP response status plus the backend's error
// message into the taxonomy.
func FromStatus(statusCode int, message string, details map[string][]string) *Error {
	if message == "" {
		message = http.StatusText(statusCode)
	}

	e := &Error{
		Kind:       kindForStatus(statusCode),
		Message:    message,
		StatusCode: statusCode,
		cause:      crerr.Newf("backend status %d", statusCode),
	}
	if e.Kind == KindValidation {
		e.Details = details
	}
	return e
}

// Unexpected covers malformed envelopes and anything else the
// taxonomy has no better name for.
func Unexpected(cause error, message string) *Error {
	if message == "" {
		message = "something went wrong"
	}
	return &Error{
		Kind:    KindUnexpected,
		Message: message,
		cause:   cause,
	}
}

// Validation builds a client-side validation failure (input rejected
// before any network call).
func Validation(message string, details map[string][]string) *Error {
	return &Error{
		Kind:    KindValidation,
		Message: message,
		Details: details,
	}
}

func kindForStatus(statusCode int) Kind {
	switch {
	case statusCode == http.StatusUnauthorized:
		return KindAuth
	case statusCode == http.StatusForbidden:
		return KindForbidden
	case statusCode == http.StatusNotFound:
		return KindNotFound
	case statusCode == http.StatusUnprocessableEntity:
		return KindValidation
	case statusCode == http.StatusTooManyRequests:
		return KindRateLimit
	case statusCode >= 500:
		return KindServer
	default:
		return KindUnexpected
	}
}

// KindOf returns the classification of err, or KindUnexpected when err
// is not an apperror.
func KindOf(err error) Kind {
	var e *Error
	if crerr.As(err, &e) {
		return e.Kind
	}
	return KindUnexpected
}

func IsKind(err error, kind Kind) bool {
	var e *Error
	return crerr.As(err, &e) && e.Kind == kind
}

func IsAuth(err error) bool      { return IsKind(err, KindAuth) }
func IsNetwork(err error) bool   { return IsKind(err, KindNetwork) }
func IsNotFound(err error) bool  { return IsKind(err, KindNotFound) }
func IsRateLimit(err error) bool { return IsKind(err, KindRateLimit) }

// Retryable reports whether the failure is worth a transparent retry:
// transient transport faults, server errors, and throttling.
func Retryable(err error) bool {
	switch KindOf(err) {
	case KindNetwork, KindServer, KindRateLimit:
		return true
	default:
		return false
	}
}

// UserMessage extracts the human-readable message for slice error
// fields and notifications.
func UserMessage(err error) string {
	var e *Error
	if crerr.As(err, &e) {
		return e.Message
	}
	if err != nil {
		return fmt.Sprintf("unexpected error: %v", err)
	}
	return ""
}
