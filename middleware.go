package easynote

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/easynote/easynote-go/router"
	"github.com/easynote/easynote-go/session"
)

// Resolver maps a requested location to where the guard lets it land.
// *router.Router satisfies it.
type Resolver interface {
	Resolve(path string, authenticated bool) (router.Target, error)
}

// ExclusionURLHandler reports whether a request bypasses the guard, for
// example static assets served next to the pages.
type ExclusionURLHandler func(r *http.Request) bool

// GuardMiddleware applies the route guard on the server that hosts the
// EasyNote front-end, so a deep link is redirected before any page loads.
// The token only decides whether the visitor counts as logged in; the API
// remains the judge of whether it is valid.
type GuardMiddleware struct {
	resolver            Resolver
	errorHandler        ErrorHandler
	tokenExtractor      TokenExtractor
	exclusionURLHandler ExclusionURLHandler
	checkExpiry         bool
	clock               func() time.Time
	logger              Logger
}

type targetKey struct{}

// NewGuardMiddleware constructs a GuardMiddleware. WithResolver is required.
//
// Example:
//
//	guard, err := easynote.NewGuardMiddleware(
//	    easynote.WithResolver(client.Router()),
//	    easynote.WithExpiryCheck(true),
//	)
//	if err != nil {
//	    log.Fatalf("failed to create guard: %v", err)
//	}
//	http.ListenAndServe(":8080", guard.CheckRoute(spa))
func NewGuardMiddleware(opts ...GuardOption) (*GuardMiddleware, error) {
	m := &GuardMiddleware{clock: time.Now}

	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	if m.resolver == nil {
		return nil, fmt.Errorf("invalid guard configuration: %w", ErrResolverNil)
	}

	if m.errorHandler == nil {
		m.errorHandler = DefaultErrorHandler
	}
	if m.tokenExtractor == nil {
		m.tokenExtractor = DefaultTokenExtractor()
	}
	return m, nil
}

// TargetFromContext returns the route a guarded request was matched to.
func TargetFromContext(ctx context.Context) (router.Target, bool) {
	t, ok := ctx.Value(targetKey{}).(router.Target)
	return t, ok
}

// CheckRoute guards page loads. GET and HEAD requests are resolved against
// the route table; a request that the guard sends elsewhere gets a 302 to
// the resolved location. Everything else is passed through untouched.
func (m *GuardMiddleware) CheckRoute(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			next.ServeHTTP(w, r)
			return
		}
		if m.exclusionURLHandler != nil && m.exclusionURLHandler(r) {
			if m.logger != nil {
				m.logger.Debug("skipping route guard for excluded URL", "path", r.URL.Path)
			}
			next.ServeHTTP(w, r)
			return
		}

		token, err := m.tokenExtractor(r)
		if err != nil {
			if m.logger != nil {
				m.logger.Warn("failed to extract token from request", "error", err, "path", r.URL.Path)
			}
			m.errorHandler(w, r, malformedError{details: err})
			return
		}

		requested := r.URL.RequestURI()
		target, err := m.resolver.Resolve(requested, m.authenticated(token))
		if err != nil {
			if m.logger != nil {
				m.logger.Error("could not resolve route", "error", err, "path", requested)
			}
			m.errorHandler(w, r, err)
			return
		}

		if target.FullPath != requested {
			if m.logger != nil {
				m.logger.Debug("redirecting", "from", requested, "to", target.FullPath)
			}
			http.Redirect(w, r, target.FullPath, http.StatusFound)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), targetKey{}, target)))
	})
}

func (m *GuardMiddleware) authenticated(token string) bool {
	if token == "" {
		return false
	}
	if !m.checkExpiry {
		return true
	}
	claims, err := session.Inspect(token)
	if err != nil {
		// Opaque tokens carry no expiry to check.
		return true
	}
	return !claims.Expired(m.clock())
}
