package grpc

import (
	"context"
	"errors"
)

// Option configures the Interceptor.
type Option func(*Interceptor) error

// Session is the view of the session store the interceptors need.
// *session.Store satisfies it.
type Session interface {
	Token() string
	Invalidate(ctx context.Context, token string, cause error) bool
}

// Logger defines an optional logging interface compatible with log/slog.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Sentinel errors for configuration validation.
var (
	ErrSessionNil      = errors.New("session cannot be nil (use WithSession)")
	ErrLoggerNil       = errors.New("logger cannot be nil")
	ErrErrorHandlerNil = errors.New("error handler cannot be nil")
)

// WithSession sets the session whose token is sent (REQUIRED).
func WithSession(s Session) Option {
	return func(i *Interceptor) error {
		if s == nil {
			return ErrSessionNil
		}
		i.session = s
		return nil
	}
}

// WithLogger sets an optional logger for the interceptor.
//
// Example:
//
//	interceptor, _ := grpc.New(
//	    grpc.WithSession(store),
//	    grpc.WithLogger(slog.Default()),
//	)
func WithLogger(logger Logger) Option {
	return func(i *Interceptor) error {
		if logger == nil {
			return ErrLoggerNil
		}
		i.logger = logger
		return nil
	}
}

// WithErrorHandler sets a function applied to every call error.
//
// Default: DefaultErrorHandler
func WithErrorHandler(handler ErrorHandler) Option {
	return func(i *Interceptor) error {
		if handler == nil {
			return ErrErrorHandlerNil
		}
		i.errorHandler = handler
		return nil
	}
}

// WithExcludedMethods sends calls to these methods without a token and
// never lets their errors touch the session.
// Methods should be provided in the format: "/package.Service/Method"
func WithExcludedMethods(methods ...string) Option {
	return func(i *Interceptor) error {
		for _, method := range methods {
			i.excludedMethods[method] = true
		}
		return nil
	}
}
