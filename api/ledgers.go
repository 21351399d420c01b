package api

import (
	"context"

	"github.com/easynote/easynote-go/core"
)

// Ledger is an account book, personal or shared with a family.
type Ledger struct {
	ID             int64   `json:"id"`
	UserID         int64   `json:"userId"`
	UserNickname   string  `json:"userNickname"`
	FamilyID       *int64  `json:"familyId,omitempty"`
	FamilyName     string  `json:"familyName,omitempty"`
	Name           string  `json:"name"`
	Icon           string  `json:"icon,omitempty"`
	Description    string  `json:"description,omitempty"`
	IsPublic       int     `json:"isPublic"`
	IsFamilyLedger bool    `json:"isFamilyLedger"`
	TotalIncome    float64 `json:"totalIncome"`
	TotalExpense   float64 `json:"totalExpense"`
	Balance        float64 `json:"balance"`
	Status         int     `json:"status"`
	CreateTime     string  `json:"createTime"`
}

// NewLedger is the create-ledger form.
type NewLedger struct {
	Name        string `json:"name"`
	Icon        string `json:"icon,omitempty"`
	Description string `json:"description,omitempty"`
	FamilyID    *int64 `json:"familyId,omitempty"`
	IsPublic    *int   `json:"isPublic,omitempty"`
}

// LedgerUpdate is the edit-ledger form. Set UnlinkFamily to detach the
// ledger from its family.
type LedgerUpdate struct {
	Name         string `json:"name,omitempty"`
	Icon         string `json:"icon,omitempty"`
	Description  string `json:"description,omitempty"`
	FamilyID     *int64 `json:"familyId,omitempty"`
	UnlinkFamily bool   `json:"unlinkFamily,omitempty"`
	IsPublic     *int   `json:"isPublic,omitempty"`
}

// Ledgers binds /ledger.
type Ledgers struct {
	e core.Executor
}

// Mine lists the ledgers visible to the current user.
func (l *Ledgers) Mine(ctx context.Context) (*core.Envelope[[]Ledger], error) {
	return core.Get[[]Ledger](ctx, l.e, "/ledger/my", nil)
}

// Get returns one ledger.
func (l *Ledgers) Get(ctx context.Context, id int64) (*core.Envelope[Ledger], error) {
	return core.Get[Ledger](ctx, l.e, "/ledger/"+itoa(id), nil)
}

// Create adds a ledger.
func (l *Ledgers) Create(ctx context.Context, p NewLedger) (*core.Envelope[Ledger], error) {
	return core.Post[Ledger](ctx, l.e, "/ledger", p)
}

// Update edits a ledger.
func (l *Ledgers) Update(ctx context.Context, id int64, p LedgerUpdate) (*core.Envelope[Ledger], error) {
	return core.Put[Ledger](ctx, l.e, "/ledger/"+itoa(id), p)
}

// Delete removes a ledger.
func (l *Ledgers) Delete(ctx context.Context, id int64) (*core.Envelope[core.Empty], error) {
	return core.Delete[core.Empty](ctx, l.e, "/ledger/"+itoa(id))
}
