package easynote

import (
	"errors"
	"net/http"
	"strings"

	"github.com/easynote/easynote-go/session"
)

// ErrBearerFormat is returned when an Authorization header is present but
// is not of the form "Bearer <token>".
var ErrBearerFormat = errors.New("authorization header format must be Bearer {token}")

// TokenExtractor pulls the session token out of a request to the host that
// serves the EasyNote front-end. A missing token is not an error: "" is
// returned. An error means a token was offered but is malformed.
type TokenExtractor func(r *http.Request) (string, error)

// AuthHeaderTokenExtractor reads the token from the Authorization header.
func AuthHeaderTokenExtractor(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", nil
	}

	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", ErrBearerFormat
	}
	return parts[1], nil
}

// CookieTokenExtractor reads the token from the named cookie.
func CookieTokenExtractor(cookieName string) TokenExtractor {
	return func(r *http.Request) (string, error) {
		cookie, err := r.Cookie(cookieName)
		if errors.Is(err, http.ErrNoCookie) {
			return "", nil
		}
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(cookie.Value), nil
	}
}

// ParameterTokenExtractor reads the token from a query string parameter.
func ParameterTokenExtractor(param string) TokenExtractor {
	return func(r *http.Request) (string, error) {
		return r.URL.Query().Get(param), nil
	}
}

// MultiTokenExtractor returns the first non-empty token found by
// extractors. The first error stops the search.
func MultiTokenExtractor(extractors ...TokenExtractor) TokenExtractor {
	return func(r *http.Request) (string, error) {
		for _, ex := range extractors {
			token, err := ex(r)
			if err != nil {
				return "", err
			}
			if token != "" {
				return token, nil
			}
		}
		return "", nil
	}
}

// DefaultTokenExtractor looks for the persisted session key as a cookie,
// then for a bearer header.
func DefaultTokenExtractor() TokenExtractor {
	return MultiTokenExtractor(CookieTokenExtractor(session.TokenKey), AuthHeaderTokenExtractor)
}
