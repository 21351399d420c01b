package easynotegin

import (
	"github.com/gin-gonic/gin"

	"github.com/easynote/easynote-go"
)

// Option defines a functional option for configuring the middleware
type Option func(*GinMiddlewareConfig)

// WithErrorHandler sets a custom error handler for the middleware
func WithErrorHandler(handler func(*gin.Context, error)) Option {
	return func(config *GinMiddlewareConfig) {
		config.errorHandler = handler
	}
}

// WithContextKey sets the key the matched target is stored under
func WithContextKey(key string) Option {
	return func(config *GinMiddlewareConfig) {
		config.contextKey = key
	}
}

// WithGuardOptions passes options such as easynote.WithExclusionURLs or
// easynote.WithTokenExtractor through to the guard
func WithGuardOptions(opts ...easynote.GuardOption) Option {
	return func(config *GinMiddlewareConfig) {
		config.guardOpts = append(config.guardOpts, opts...)
	}
}
