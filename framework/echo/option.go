package easynoteecho

import (
	"github.com/labstack/echo/v4"

	"github.com/easynote/easynote-go"
)

// Option is a function that configures the middleware
type Option func(*echoMiddlewareConfig)

// WithErrorHandler sets a custom error handler
func WithErrorHandler(handler func(echo.Context, error) error) Option {
	return func(config *echoMiddlewareConfig) {
		config.errorHandler = handler
	}
}

// WithContextKey sets a custom context key to store the matched target
func WithContextKey(key string) Option {
	return func(config *echoMiddlewareConfig) {
		config.contextKey = key
	}
}

// WithGuardOptions passes options through to the guard
func WithGuardOptions(opts ...easynote.GuardOption) Option {
	return func(config *echoMiddlewareConfig) {
		config.guardOpts = append(config.guardOpts, opts...)
	}
}
