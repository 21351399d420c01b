package easynote

import (
	"errors"
	"net/http"
	"strings"
	"time"
)

// GuardOption configures the GuardMiddleware.
type GuardOption func(*GuardMiddleware) error

var (
	ErrResolverNil        = errors.New("resolver cannot be nil (use WithResolver)")
	ErrErrorHandlerNil    = errors.New("errorHandler cannot be nil")
	ErrTokenExtractorNil  = errors.New("tokenExtractor cannot be nil")
	ErrExclusionNil       = errors.New("exclusion handler cannot be nil")
	ErrExclusionURLsEmpty = errors.New("exclusion URLs list cannot be empty")
)

// WithResolver sets the route resolver (REQUIRED). Usually this is the
// Router of a Client.
func WithResolver(r Resolver) GuardOption {
	return func(m *GuardMiddleware) error {
		if r == nil {
			return ErrResolverNil
		}
		m.resolver = r
		return nil
	}
}

// WithErrorHandler sets the handler called when a request cannot be routed.
//
// Default: DefaultErrorHandler
func WithErrorHandler(h ErrorHandler) GuardOption {
	return func(m *GuardMiddleware) error {
		if h == nil {
			return ErrErrorHandlerNil
		}
		m.errorHandler = h
		return nil
	}
}

// WithTokenExtractor sets where the session token is read from.
//
// Default: DefaultTokenExtractor()
func WithTokenExtractor(e TokenExtractor) GuardOption {
	return func(m *GuardMiddleware) error {
		if e == nil {
			return ErrTokenExtractorNil
		}
		m.tokenExtractor = e
		return nil
	}
}

// WithExclusionURLs lets requests bypass the guard. An entry ending in "/"
// matches every path under it; other entries must equal the path or the
// full URL.
func WithExclusionURLs(exclusions []string) GuardOption {
	return func(m *GuardMiddleware) error {
		if len(exclusions) == 0 {
			return ErrExclusionURLsEmpty
		}
		m.exclusionURLHandler = func(r *http.Request) bool {
			for _, exclusion := range exclusions {
				if r.URL.Path == exclusion || r.URL.String() == exclusion {
					return true
				}
				if strings.HasSuffix(exclusion, "/") && strings.HasPrefix(r.URL.Path, exclusion) {
					return true
				}
			}
			return false
		}
		return nil
	}
}

// WithExclusionHandler lets requests matching fn bypass the guard.
func WithExclusionHandler(fn ExclusionURLHandler) GuardOption {
	return func(m *GuardMiddleware) error {
		if fn == nil {
			return ErrExclusionNil
		}
		m.exclusionURLHandler = fn
		return nil
	}
}

// WithExpiryCheck treats a JWT whose exp claim has passed as absent. The
// signature is never checked.
//
// Default: false
func WithExpiryCheck(check bool) GuardOption {
	return func(m *GuardMiddleware) error {
		m.checkExpiry = check
		return nil
	}
}

// WithGuardClock sets the time source used by WithExpiryCheck.
func WithGuardClock(now func() time.Time) GuardOption {
	return func(m *GuardMiddleware) error {
		if now == nil {
			return ErrClockNil
		}
		m.clock = now
		return nil
	}
}

// WithGuardLogger sets an optional logger for the guard.
func WithGuardLogger(logger Logger) GuardOption {
	return func(m *GuardMiddleware) error {
		if logger == nil {
			return ErrLoggerNil
		}
		m.logger = logger
		return nil
	}
}
