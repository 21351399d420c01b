package session

import (
	"context"
	"errors"
)

var (
	// ErrEmptyToken is returned when the server reports success but hands
	// out no token.
	ErrEmptyToken = errors.New("server returned an empty token")

	// ErrRejected is returned by AuthAPI implementations when the server
	// answers with a success envelope but a code other than 200.
	ErrRejected = errors.New("authentication rejected")
)

// AuthAPI is the part of the server API the session operations need.
// Implementations must go through the request pipeline, so failures have
// already been reported to the user when they are returned.
type AuthAPI interface {
	Login(ctx context.Context, c Credentials) (*LoginResult, error)
	Register(ctx context.Context, r Registration) (*LoginResult, error)
	Logout(ctx context.Context) error
	CurrentUser(ctx context.Context) (*Profile, error)
}

// Service implements the session lifecycle operations over a Store.
type Service struct {
	store *Store
	auth  AuthAPI
}

// NewService creates a Service. Logging goes to the store's logger.
func NewService(store *Store, auth AuthAPI) (*Service, error) {
	if store == nil {
		return nil, ErrStoreNil
	}
	if auth == nil {
		return nil, ErrAuthAPINil
	}
	return &Service{store: store, auth: auth}, nil
}

// Store returns the underlying store.
func (s *Service) Store() *Store {
	return s.store
}

// Login authenticates and establishes a session. A nil error means the
// token and profile are set and the token is persisted. On error nothing
// has changed.
func (s *Service) Login(ctx context.Context, c Credentials) error {
	res, err := s.auth.Login(ctx, c)
	if err != nil {
		return err
	}
	return s.establish(ctx, res, "login")
}

// Register creates an account. The server logs the new user in right away,
// so success establishes a session exactly like Login.
func (s *Service) Register(ctx context.Context, r Registration) error {
	res, err := s.auth.Register(ctx, r)
	if err != nil {
		return err
	}
	return s.establish(ctx, res, "register")
}

func (s *Service) establish(ctx context.Context, res *LoginResult, op string) error {
	if res == nil || res.Token == "" {
		return ErrEmptyToken
	}
	s.store.establish(ctx, res.Token, res.UserInfo)

	if logger := s.store.logger; logger != nil {
		args := []any{"op", op}
		if claims, err := Inspect(res.Token); err == nil {
			args = append(args, "subject", claims.Subject, "expires", claims.Expiry)
		}
		logger.Info("session established", args...)
	}
	return nil
}

// Logout ends the session. The server is told on a best-effort basis; the
// local session is cleared and an event published on every exit path, even
// when already logged out.
func (s *Service) Logout(ctx context.Context) {
	defer s.store.Clear(context.WithoutCancel(ctx), ReasonLogout)

	if !s.store.IsAuthenticated() {
		return
	}
	if err := s.auth.Logout(ctx); err != nil && s.store.logger != nil {
		s.store.logger.Debug("remote logout failed", "error", err)
	}
}

// FetchProfile loads the current user's profile. It is a no-op while
// logged out. A failure is returned and logged but never clears the
// session, and a result for a token that has since changed is dropped.
func (s *Service) FetchProfile(ctx context.Context) error {
	token := s.store.Token()
	if token == "" {
		return nil
	}

	profile, err := s.auth.CurrentUser(ctx)
	if err != nil {
		if s.store.logger != nil {
			s.store.logger.Warn("could not fetch user profile", "error", err)
		}
		return err
	}

	if !s.store.setProfile(token, profile) && s.store.logger != nil {
		s.store.logger.Debug("dropping profile for a session that has ended")
	}
	return nil
}
