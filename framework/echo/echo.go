package easynoteecho

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/easynote/easynote-go"
	"github.com/easynote/easynote-go/router"
)

// DefaultTargetKey is the echo context key holding the matched router.Target.
var DefaultTargetKey = "easynote.target"

type echoContextKey struct{}

// echoMiddlewareConfig holds all configuration for the middleware
type echoMiddlewareConfig struct {
	errorHandler func(echo.Context, error) error
	contextKey   string
	guardOpts    []easynote.GuardOption
}

// NewEchoMiddleware applies the route guard to page loads served by echo.
func NewEchoMiddleware(resolver easynote.Resolver, opts ...Option) (echo.MiddlewareFunc, error) {
	config := &echoMiddlewareConfig{
		errorHandler: defaultEchoErrorHandler,
		contextKey:   DefaultTargetKey,
	}
	for _, opt := range opts {
		opt(config)
	}

	guardOpts := append([]easynote.GuardOption{
		easynote.WithResolver(resolver),
		easynote.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			c, ok := r.Context().Value(echoContextKey{}).(echo.Context)
			if !ok || c == nil {
				easynote.DefaultErrorHandler(w, r, err)
				return
			}
			_ = config.errorHandler(c, err)
		}),
	}, config.guardOpts...)

	guard, err := easynote.NewGuardMiddleware(guardOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create guard: %w", err)
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var nextErr error
			var handler http.HandlerFunc = func(_ http.ResponseWriter, r *http.Request) {
				c.SetRequest(r)
				if target, ok := easynote.TargetFromContext(r.Context()); ok {
					c.Set(config.contextKey, target)
				}
				nextErr = next(c)
			}

			req := c.Request().WithContext(context.WithValue(c.Request().Context(), echoContextKey{}, c))
			guard.CheckRoute(handler).ServeHTTP(c.Response(), req)
			return nextErr
		}
	}, nil
}

func defaultEchoErrorHandler(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, easynote.ErrTokenMalformed):
		status = http.StatusBadRequest
	case errors.Is(err, router.ErrNoRoute):
		status = http.StatusNotFound
	}
	return c.JSON(status, map[string]string{
		"message": err.Error(),
	})
}

// GetTarget extracts the matched route from the Echo context
func GetTarget(c echo.Context, contextKey string) (router.Target, bool) {
	if contextKey == "" {
		contextKey = DefaultTargetKey
	}
	target, ok := c.Get(contextKey).(router.Target)
	return target, ok
}
