package api

import (
	"context"

	"github.com/easynote/easynote-go/core"
)

// FamilyMember is one member of a family with their share of the totals.
type FamilyMember struct {
	ID           int64    `json:"id"`
	UserID       int64    `json:"userId"`
	Username     string   `json:"username"`
	Nickname     string   `json:"nickname"`
	Avatar       string   `json:"avatar,omitempty"`
	Role         int      `json:"role"`
	RoleName     string   `json:"roleName"`
	JoinTime     string   `json:"joinTime"`
	TotalIncome  *float64 `json:"totalIncome,omitempty"`
	TotalExpense *float64 `json:"totalExpense,omitempty"`
	Balance      *float64 `json:"balance,omitempty"`
}

// Family is a group of users sharing ledgers.
type Family struct {
	ID            int64          `json:"id"`
	Name          string         `json:"name"`
	Description   string         `json:"description,omitempty"`
	OwnerID       int64          `json:"ownerId"`
	OwnerNickname string         `json:"ownerNickname"`
	InviteCode    string         `json:"inviteCode"`
	MemberCount   int            `json:"memberCount"`
	Members       []FamilyMember `json:"members"`
	CreateTime    string         `json:"createTime"`
}

// FamilyInput is the create and edit form of a family.
type FamilyInput struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
}

// Families binds /family.
type Families struct {
	e core.Executor
}

// Current returns the family of the current user. Data is nil when the
// user belongs to none.
func (f *Families) Current(ctx context.Context) (*core.Envelope[*Family], error) {
	return core.Get[*Family](ctx, f.e, "/family/current", nil)
}

// Create founds a family with the current user as owner.
func (f *Families) Create(ctx context.Context, p FamilyInput) (*core.Envelope[Family], error) {
	return core.Post[Family](ctx, f.e, "/family", p)
}

// Update edits the current family.
func (f *Families) Update(ctx context.Context, p FamilyInput) (*core.Envelope[Family], error) {
	return core.Put[Family](ctx, f.e, "/family", p)
}

// Join enters the family owning inviteCode.
func (f *Families) Join(ctx context.Context, inviteCode string) (*core.Envelope[Family], error) {
	return core.Post[Family](ctx, f.e, "/family/join", map[string]string{"inviteCode": inviteCode})
}

// Leave removes the current user from their family.
func (f *Families) Leave(ctx context.Context) (*core.Envelope[core.Empty], error) {
	return core.Post[core.Empty](ctx, f.e, "/family/leave", nil)
}

// RemoveMember expels the user with userID.
func (f *Families) RemoveMember(ctx context.Context, userID int64) (*core.Envelope[core.Empty], error) {
	return core.Delete[core.Empty](ctx, f.e, "/family/member/"+itoa(userID))
}

// Dissolve deletes the family. Only its owner may.
func (f *Families) Dissolve(ctx context.Context) (*core.Envelope[core.Empty], error) {
	return core.Delete[core.Empty](ctx, f.e, "/family")
}

// RefreshInviteCode issues a new invite code and returns it.
func (f *Families) RefreshInviteCode(ctx context.Context) (*core.Envelope[string], error) {
	return core.Post[string](ctx, f.e, "/family/refresh-invite-code", nil)
}

// Invite sends an invitation to the user found by keyword (username or
// phone).
func (f *Families) Invite(ctx context.Context, keyword string) (*core.Envelope[core.Empty], error) {
	return core.Post[core.Empty](ctx, f.e, "/family/invite", map[string]string{"keyword": keyword})
}

// Members lists the members of a family with their totals.
func (f *Families) Members(ctx context.Context, familyID int64) (*core.Envelope[[]FamilyMember], error) {
	return core.Get[[]FamilyMember](ctx, f.e, "/family/"+itoa(familyID)+"/members", nil)
}
