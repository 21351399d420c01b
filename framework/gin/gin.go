package easynotegin

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/easynote/easynote-go"
	"github.com/easynote/easynote-go/router"
)

// DefaultTargetKey is the gin context key holding the matched router.Target.
const DefaultTargetKey = "easynote.target"

var (
	ErrMissingTarget = errors.New("no route target found in context")
	ErrInvalidTarget = errors.New("invalid route target type")
)

type ginContextKey struct{}

type GinMiddlewareConfig struct {
	errorHandler func(*gin.Context, error)
	contextKey   string
	guardOpts    []easynote.GuardOption
}

// NewGinMiddleware creates a Gin middleware applying the route guard to
// page loads. Requests the guard redirects are answered with a 302 and the
// chain is aborted; the others continue with the matched target stored
// under the context key.
func NewGinMiddleware(resolver easynote.Resolver, opts ...Option) (gin.HandlerFunc, error) {
	config := &GinMiddlewareConfig{
		errorHandler: defaultGinErrorHandler,
		contextKey:   DefaultTargetKey,
	}
	for _, opt := range opts {
		opt(config)
	}

	guardOpts := append([]easynote.GuardOption{
		easynote.WithResolver(resolver),
		easynote.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			c, ok := r.Context().Value(ginContextKey{}).(*gin.Context)
			if !ok || c == nil {
				easynote.DefaultErrorHandler(w, r, err)
				return
			}
			config.errorHandler(c, err)
		}),
	}, config.guardOpts...)

	guard, err := easynote.NewGuardMiddleware(guardOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create guard: %w", err)
	}

	return func(c *gin.Context) {
		passed := false
		var handler http.HandlerFunc = func(_ http.ResponseWriter, r *http.Request) {
			passed = true
			c.Request = r
			if target, ok := easynote.TargetFromContext(r.Context()); ok {
				c.Set(config.contextKey, target)
			}
			c.Next()
		}

		req := c.Request.WithContext(context.WithValue(c.Request.Context(), ginContextKey{}, c))
		guard.CheckRoute(handler).ServeHTTP(c.Writer, req)

		if !passed {
			c.Abort()
		}
	}, nil
}

func defaultGinErrorHandler(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, easynote.ErrTokenMalformed):
		status = http.StatusBadRequest
	case errors.Is(err, router.ErrNoRoute):
		status = http.StatusNotFound
	}
	c.AbortWithStatusJSON(status, gin.H{
		"error": err.Error(),
	})
}

// GetTarget returns the route the request was matched to.
func GetTarget(c *gin.Context, contextKey string) (router.Target, error) {
	if contextKey == "" {
		contextKey = DefaultTargetKey
	}
	value, exists := c.Get(contextKey)
	if !exists {
		return router.Target{}, ErrMissingTarget
	}
	target, ok := value.(router.Target)
	if !ok {
		return router.Target{}, ErrInvalidTarget
	}
	return target, nil
}
