package router

import (
	"net/url"
	"strings"
)

// Default locations used by the guard.
const (
	DefaultLoginPath = "/login"
	DefaultHomePath  = "/home"
)

// RedirectParam is the query parameter carrying the originally requested
// location on a redirect to the login page.
const RedirectParam = "redirect"

// Decision is the outcome of a guard check. Redirect is empty when the
// navigation may proceed.
type Decision struct {
	Redirect string
}

// Proceed reports whether the navigation may go ahead.
func (d Decision) Proceed() bool {
	return d.Redirect == ""
}

// Guard decides whether a navigation may proceed based on the session's
// authentication state alone.
type Guard struct {
	LoginPath string
	HomePath  string
}

// DefaultGuard returns a Guard using "/login" and "/home".
func DefaultGuard() Guard {
	return Guard{LoginPath: DefaultLoginPath, HomePath: DefaultHomePath}
}

// Decide applies the access table:
//
//	requires auth, logged out  -> login page, carrying the target as ?redirect=
//	requires auth, logged in   -> proceed
//	guest only,    logged in   -> home page
//	public,        either      -> proceed
func (g Guard) Decide(target Target, authenticated bool) Decision {
	meta := target.Route.Meta
	switch {
	case !meta.Public && !meta.GuestOnly && !authenticated:
		return Decision{Redirect: g.loginPath() + "?" + RedirectParam + "=" + escapeRedirect(target.FullPath)}
	case meta.GuestOnly && authenticated:
		return Decision{Redirect: g.homePath()}
	default:
		return Decision{}
	}
}

func (g Guard) loginPath() string {
	if g.LoginPath == "" {
		return DefaultLoginPath
	}
	return g.LoginPath
}

func (g Guard) homePath() string {
	if g.HomePath == "" {
		return DefaultHomePath
	}
	return g.HomePath
}

// escapeRedirect query-escapes a location but keeps slashes readable, the
// way browsers show ?redirect=/ledger/3.
func escapeRedirect(location string) string {
	return strings.ReplaceAll(url.QueryEscape(location), "%2F", "/")
}
