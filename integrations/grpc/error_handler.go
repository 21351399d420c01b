package grpc

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrSessionRejected reports that the server refused the session token.
var ErrSessionRejected = errors.New("session rejected by server")

// ErrorHandler post-processes the error of every intercepted call.
type ErrorHandler func(error) error

// DefaultErrorHandler ties an Unauthenticated status to ErrSessionRejected.
// Other errors are returned as they are.
func DefaultErrorHandler(err error) error {
	if err == nil {
		return nil
	}
	if status.Code(err) == codes.Unauthenticated {
		return &rejectedError{details: err}
	}
	return err
}

// rejectedError keeps the status reachable for status.Code and
// status.FromError.
type rejectedError struct {
	details error
}

func (e *rejectedError) Is(target error) bool {
	return target == ErrSessionRejected
}

func (e *rejectedError) Error() string {
	return fmt.Sprintf("%s: %s", ErrSessionRejected, e.details)
}

func (e *rejectedError) Unwrap() error {
	return e.details
}

// GRPCStatus exposes the server's status.
func (e *rejectedError) GRPCStatus() *status.Status {
	s, _ := status.FromError(e.details)
	return s
}
