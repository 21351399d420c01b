package router

import "errors"

// DefaultMaxHops bounds how many redirects a single navigation may follow.
const DefaultMaxHops = 8

// Option configures a Router.
type Option func(*Router) error

// Sentinel errors for configuration validation.
var (
	ErrAuthStateNil = errors.New("auth state cannot be nil (use WithAuthState)")
	ErrTitleNil     = errors.New("title setter cannot be nil")
	ErrLoggerNil    = errors.New("logger cannot be nil")
	ErrHookNil      = errors.New("navigation hook cannot be nil")
	ErrMaxHopsBad   = errors.New("max hops must be positive")
)

// WithAuthState sets where the router reads the authentication state from
// on every navigation. This is required.
func WithAuthState(a AuthState) Option {
	return func(r *Router) error {
		if a == nil {
			return ErrAuthStateNil
		}
		r.auth = a
		return nil
	}
}

// WithRoutes replaces the route table.
//
// Default: DefaultRoutes()
func WithRoutes(routes []Route) Option {
	return func(r *Router) error {
		t, err := NewTable(routes)
		if err != nil {
			return err
		}
		r.table = t
		return nil
	}
}

// WithGuard replaces the guard.
func WithGuard(g Guard) Option {
	return func(r *Router) error {
		r.guard = g
		return nil
	}
}

// WithTitleSetter sets who receives the page title after each navigation.
func WithTitleSetter(t TitleSetter) Option {
	return func(r *Router) error {
		if t == nil {
			return ErrTitleNil
		}
		r.titles = t
		return nil
	}
}

// WithLogger sets an optional logger for the router.
func WithLogger(logger Logger) Option {
	return func(r *Router) error {
		if logger == nil {
			return ErrLoggerNil
		}
		r.logger = logger
		return nil
	}
}

// WithNavigationHook registers fn to be called after every navigation that
// changed the current location.
func WithNavigationHook(fn func(from, to Target)) Option {
	return func(r *Router) error {
		if fn == nil {
			return ErrHookNil
		}
		r.hooks = append(r.hooks, fn)
		return nil
	}
}

// WithMaxHops sets how many redirects one navigation may follow.
//
// Default: 8
func WithMaxHops(n int) Option {
	return func(r *Router) error {
		if n <= 0 {
			return ErrMaxHopsBad
		}
		r.maxHops = n
		return nil
	}
}
