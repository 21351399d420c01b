package router

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/easynote/easynote-go/session"
)

// AppName is appended to every page title.
const AppName = "EasyNote"

// DefaultTitle is used for routes without a title.
const DefaultTitle = "简记"

// ErrRedirectLoop is returned when a navigation keeps redirecting.
var ErrRedirectLoop = errors.New("too many redirects")

// AuthState is the view of the session the router needs.
type AuthState interface {
	IsAuthenticated() bool
}

// EventSource publishes session clear events.
type EventSource interface {
	Subscribe(fn func(session.Event)) (cancel func())
}

// TitleSetter receives the page title.
type TitleSetter interface {
	SetTitle(title string)
}

// TitleSetterFunc adapts a function to TitleSetter.
type TitleSetterFunc func(title string)

// SetTitle calls f(title).
func (f TitleSetterFunc) SetTitle(title string) { f(title) }

// Logger defines an optional logging interface compatible with log/slog.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Router tracks the current location and enforces the guard on every
// navigation.
type Router struct {
	table   *Table
	guard   Guard
	auth    AuthState
	titles  TitleSetter
	logger  Logger
	hooks   []func(from, to Target)
	maxHops int

	mu      sync.Mutex
	current Target
	title   string
}

// New creates a Router. WithAuthState is required.
func New(opts ...Option) (*Router, error) {
	r := &Router{
		guard:   DefaultGuard(),
		maxHops: DefaultMaxHops,
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	if r.auth == nil {
		return nil, fmt.Errorf("invalid router configuration: %w", ErrAuthStateNil)
	}
	if r.table == nil {
		t, err := NewTable(DefaultRoutes())
		if err != nil {
			return nil, err
		}
		r.table = t
	}
	return r, nil
}

// Table returns the route table.
func (r *Router) Table() *Table {
	return r.table
}

// Current returns the current location. Its FullPath is empty before the
// first navigation.
func (r *Router) Current() Target {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Title returns the title set by the last navigation.
func (r *Router) Title() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.title
}

// Resolve follows route and guard redirects for path without navigating.
func (r *Router) Resolve(path string, authenticated bool) (Target, error) {
	for hop := 0; hop <= r.maxHops; hop++ {
		target, ok := r.table.Match(path)
		if !ok {
			return Target{}, fmt.Errorf("%w: %q", ErrNoRoute, path)
		}
		if target.Route.Redirect != "" {
			path = target.Route.Redirect
			continue
		}
		d := r.guard.Decide(target, authenticated)
		if d.Proceed() {
			return target, nil
		}
		path = d.Redirect
	}
	return Target{}, fmt.Errorf("%w: %q", ErrRedirectLoop, path)
}

// Push navigates to path. The guard sees the authentication state at the
// moment of the call. Navigating to the current location does nothing.
func (r *Router) Push(ctx context.Context, path string) (Target, error) {
	if err := ctx.Err(); err != nil {
		return Target{}, err
	}

	target, err := r.Resolve(path, r.auth.IsAuthenticated())
	if err != nil {
		return Target{}, err
	}

	r.mu.Lock()
	from := r.current
	if from.FullPath == target.FullPath {
		r.mu.Unlock()
		return target, nil
	}
	r.current = target
	r.title = PageTitle(target.Route.Meta.Title)
	title := r.title
	r.mu.Unlock()

	if r.titles != nil {
		r.titles.SetTitle(title)
	}
	if r.logger != nil {
		r.logger.Debug("navigated", "from", from.FullPath, "to", target.FullPath, "requested", path)
	}
	for _, hook := range r.hooks {
		hook(from, target)
	}
	return target, nil
}

// Watch sends the router to the login page every time src reports that the
// session was cleared. The returned function stops watching.
func (r *Router) Watch(src EventSource) (cancel func()) {
	return src.Subscribe(func(e session.Event) {
		if r.logger != nil {
			r.logger.Info("session ended, returning to login", "reason", e.Reason)
		}
		if _, err := r.Push(context.Background(), r.guard.loginPath()); err != nil && r.logger != nil {
			r.logger.Error("could not navigate to login", "error", err)
		}
	})
}

// PageTitle formats a route title for display.
func PageTitle(title string) string {
	if title == "" {
		title = DefaultTitle
	}
	return title + " - " + AppName
}
