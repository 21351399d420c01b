package api

import (
	"context"
	"fmt"

	"github.com/easynote/easynote-go/core"
	"github.com/easynote/easynote-go/session"
)

// UserUpdate holds the editable profile fields. Empty fields are left
// unchanged.
type UserUpdate struct {
	Nickname string `json:"nickname,omitempty"`
	Avatar   string `json:"avatar,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Email    string `json:"email,omitempty"`
}

// PasswordChange is the change-password form.
type PasswordChange struct {
	OldPassword     string `json:"oldPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

// Users binds the authentication and account endpoints.
type Users struct {
	e core.Executor
}

// Login exchanges credentials for a token. Prefer Client.Login, which
// also establishes the session.
func (u *Users) Login(ctx context.Context, c session.Credentials) (*core.Envelope[session.LoginResult], error) {
	return core.Post[session.LoginResult](ctx, u.e, "/auth/login", c)
}

// Register creates an account and returns its first token.
func (u *Users) Register(ctx context.Context, r session.Registration) (*core.Envelope[session.LoginResult], error) {
	return core.Post[session.LoginResult](ctx, u.e, "/auth/register", r)
}

// Logout ends the token on the server.
func (u *Users) Logout(ctx context.Context) (*core.Envelope[core.Empty], error) {
	return core.Post[core.Empty](ctx, u.e, "/auth/logout", nil)
}

// Current returns the profile of the logged-in user.
func (u *Users) Current(ctx context.Context) (*core.Envelope[session.Profile], error) {
	return core.Get[session.Profile](ctx, u.e, "/user/current", nil)
}

// Update edits the profile of the logged-in user.
func (u *Users) Update(ctx context.Context, p UserUpdate) (*core.Envelope[session.Profile], error) {
	return core.Put[session.Profile](ctx, u.e, "/user/current", p)
}

// ChangePassword replaces the password of the logged-in user.
func (u *Users) ChangePassword(ctx context.Context, p PasswordChange) (*core.Envelope[core.Empty], error) {
	return core.Put[core.Empty](ctx, u.e, "/user/password", p)
}

// Session adapts the bindings to session.AuthAPI.
func (u *Users) Session() session.AuthAPI {
	return authAPI{u: u}
}

// codeOK is the envelope code of an accepted login.
const codeOK = 200

type authAPI struct {
	u *Users
}

func (a authAPI) Login(ctx context.Context, c session.Credentials) (*session.LoginResult, error) {
	env, err := a.u.Login(ctx, c)
	return loginResult(env, err)
}

func (a authAPI) Register(ctx context.Context, r session.Registration) (*session.LoginResult, error) {
	env, err := a.u.Register(ctx, r)
	return loginResult(env, err)
}

func (a authAPI) Logout(ctx context.Context) error {
	_, err := a.u.Logout(ctx)
	return err
}

func (a authAPI) CurrentUser(ctx context.Context) (*session.Profile, error) {
	env, err := a.u.Current(ctx)
	if err != nil {
		return nil, err
	}
	if env.Code != codeOK {
		return nil, fmt.Errorf("%w: code %d", session.ErrRejected, env.Code)
	}
	return &env.Data, nil
}

func loginResult(env *core.Envelope[session.LoginResult], err error) (*session.LoginResult, error) {
	if err != nil {
		return nil, err
	}
	if env.Code != codeOK {
		return nil, fmt.Errorf("%w: code %d", session.ErrRejected, env.Code)
	}
	return &env.Data, nil
}
