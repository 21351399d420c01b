package core

import (
	"errors"
	"fmt"
)

// Sentinel errors for failure classification. Every *Failure returned by the
// pipeline matches exactly one of them through errors.Is.
var (
	// ErrAuthExpired is returned when the envelope carries one of the
	// reserved authentication codes (401, 2001, 2002, 2003).
	ErrAuthExpired = errors.New("session expired")

	// ErrRequestFailed is returned for any other envelope with success=false.
	ErrRequestFailed = errors.New("request failed")

	// ErrUnauthorized is returned when the transport answers with HTTP 401.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden is returned when the transport answers with HTTP 403.
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound is returned when the transport answers with HTTP 404.
	ErrNotFound = errors.New("not found")

	// ErrServerError is returned when the transport answers with HTTP 500.
	ErrServerError = errors.New("server error")

	// ErrHTTPStatus is returned for every other non-2xx transport status.
	ErrHTTPStatus = errors.New("unexpected http status")

	// ErrTimeout is returned when no response arrived before the deadline.
	ErrTimeout = errors.New("request timed out")

	// ErrNetwork is returned when the connection failed or broke off.
	ErrNetwork = errors.New("network unreachable")

	// ErrUnknown is returned when no response arrived for any other reason.
	ErrUnknown = errors.New("request failed unexpectedly")

	// ErrCanceled is returned when the caller canceled the context.
	ErrCanceled = errors.New("request canceled")

	// ErrMalformed is returned when a 2xx body is not a valid envelope.
	ErrMalformed = errors.New("malformed response envelope")
)

// Kind is the machine-readable classification of a failed call.
type Kind string

// Failure kinds, one per sentinel error.
const (
	KindAuthExpired   Kind = "auth_expired"
	KindRequestFailed Kind = "request_failed"
	KindUnauthorized  Kind = "unauthorized"
	KindForbidden     Kind = "forbidden"
	KindNotFound      Kind = "not_found"
	KindServerError   Kind = "server_error"
	KindStatus        Kind = "http_status"
	KindTimeout       Kind = "timeout"
	KindNetwork       Kind = "network"
	KindUnknown       Kind = "unknown"
	KindCanceled      Kind = "canceled"
	KindMalformed     Kind = "malformed"
)

var kindSentinels = map[Kind]error{
	KindAuthExpired:   ErrAuthExpired,
	KindRequestFailed: ErrRequestFailed,
	KindUnauthorized:  ErrUnauthorized,
	KindForbidden:     ErrForbidden,
	KindNotFound:      ErrNotFound,
	KindServerError:   ErrServerError,
	KindStatus:        ErrHTTPStatus,
	KindTimeout:       ErrTimeout,
	KindNetwork:       ErrNetwork,
	KindUnknown:       ErrUnknown,
	KindCanceled:      ErrCanceled,
	KindMalformed:     ErrMalformed,
}

// Failure is the classified error returned by Pipeline.Execute.
// It carries enough context for callers to add their own handling
// (for example form-level validation messages) on top of the
// notification the pipeline already showed.
type Failure struct {
	// Kind classifies the failure.
	Kind Kind

	// Code is the envelope code. Zero for transport failures.
	Code int

	// Status is the HTTP status. Zero when no response was received.
	Status int

	// Message is the human-readable description shown to the user.
	Message string

	// Details contains the underlying transport or decoding error, if any.
	Details error
}

// Error implements the error interface.
func (f *Failure) Error() string {
	switch {
	case f.Details != nil:
		return fmt.Sprintf("%s: %s: %s", f.Kind, f.Message, f.Details)
	case f.Code != 0:
		return fmt.Sprintf("%s (code %d): %s", f.Kind, f.Code, f.Message)
	case f.Status != 0:
		return fmt.Sprintf("%s (status %d): %s", f.Kind, f.Status, f.Message)
	default:
		return fmt.Sprintf("%s: %s", f.Kind, f.Message)
	}
}

// Unwrap returns the underlying error for error unwrapping.
func (f *Failure) Unwrap() error {
	return f.Details
}

// Is allows the failure to be compared with the sentinel of its kind.
func (f *Failure) Is(target error) bool {
	sentinel, ok := kindSentinels[f.Kind]
	return ok && target == sentinel
}

// AsFailure extracts a *Failure from err.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// IsSessionFailure reports whether err means the credential is no longer
// accepted, either by the application layer or by the transport.
func IsSessionFailure(err error) bool {
	return errors.Is(err, ErrAuthExpired) || errors.Is(err, ErrUnauthorized)
}

func newFailure(kind Kind, message string, details error) *Failure {
	return &Failure{Kind: kind, Message: message, Details: details}
}
