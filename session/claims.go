package session

import (
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwt"
)

// Claims is the subset of a JWT payload worth showing in diagnostics.
type Claims struct {
	Subject  string
	Issuer   string
	IssuedAt time.Time
	Expiry   time.Time
}

// Expired reports whether the token carried an expiry before now.
func (c *Claims) Expired(now time.Time) bool {
	return !c.Expiry.IsZero() && now.After(c.Expiry)
}

// Inspect decodes token as a JWT without verifying its signature or
// validating its claims. The result is for logs and the CLI only; the
// server is the sole judge of whether a token is valid.
func Inspect(token string) (*Claims, error) {
	tok, err := jwt.ParseString(token, jwt.WithVerify(false), jwt.WithValidate(false))
	if err != nil {
		return nil, fmt.Errorf("token is not a JWT: %w", err)
	}
	return &Claims{
		Subject:  tok.Subject(),
		Issuer:   tok.Issuer(),
		IssuedAt: tok.IssuedAt(),
		Expiry:   tok.Expiration(),
	}, nil
}
