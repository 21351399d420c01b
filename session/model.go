package session

import "time"

// Credentials are the login form fields.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Registration are the sign-up form fields.
type Registration struct {
	Username        string `json:"username"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	Phone           string `json:"phone,omitempty"`
	Nickname        string `json:"nickname,omitempty"`
}

// Profile is the current user as returned by the server.
type Profile struct {
	ID         int64  `json:"id"`
	Username   string `json:"username"`
	Phone      string `json:"phone,omitempty"`
	Avatar     string `json:"avatar,omitempty"`
	Nickname   string `json:"nickname"`
	Email      string `json:"email,omitempty"`
	Status     int    `json:"status"`
	FamilyID   *int64 `json:"familyId,omitempty"`
	FamilyName string `json:"familyName,omitempty"`
	CreateTime string `json:"createTime"`
}

// DisplayName is the nickname, or the username when none is set.
func (p *Profile) DisplayName() string {
	if p.Nickname != "" {
		return p.Nickname
	}
	return p.Username
}

func (p *Profile) clone() *Profile {
	if p == nil {
		return nil
	}
	c := *p
	if p.FamilyID != nil {
		id := *p.FamilyID
		c.FamilyID = &id
	}
	return &c
}

// LoginResult is the payload of the login and register endpoints.
type LoginResult struct {
	Token     string   `json:"token"`
	TokenType string   `json:"tokenType"`
	ExpiresIn int64    `json:"expiresIn"`
	UserInfo  *Profile `json:"userInfo"`
}

// Reason says why a session was cleared.
type Reason string

const (
	// ReasonLogout is an explicit logout by the user.
	ReasonLogout Reason = "logout"
	// ReasonInvalidated means the server no longer accepts the token.
	ReasonInvalidated Reason = "invalidated"
)

// Event is published every time the session is cleared.
type Event struct {
	Reason Reason
	// Cause is the failure that triggered an invalidation. Nil on logout.
	Cause error
	At    time.Time
}
