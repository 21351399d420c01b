package api

import (
	"context"

	"github.com/easynote/easynote-go/core"
)

// CardType tells debit and credit cards apart.
type CardType int

const (
	CardDebit  CardType = 1
	CardCredit CardType = 2
)

// BankCard is a payment card entries can be booked against. Only the last
// digits of the number are stored.
type BankCard struct {
	ID           int64    `json:"id"`
	BankName     string   `json:"bankName"`
	CardType     CardType `json:"cardType"`
	CardTypeName string   `json:"cardTypeName"`
	CardNoSuffix string   `json:"cardNoSuffix"`
	CreditLimit  *float64 `json:"creditLimit,omitempty"`
	Remark       string   `json:"remark,omitempty"`
	Status       int      `json:"status"`
	CreateTime   string   `json:"createTime"`
}

// BankCardInput is the create and edit form of a card.
type BankCardInput struct {
	BankName     string   `json:"bankName"`
	CardType     CardType `json:"cardType"`
	CardNoSuffix string   `json:"cardNoSuffix"`
	CreditLimit  *float64 `json:"creditLimit,omitempty"`
	Remark       string   `json:"remark,omitempty"`
}

// BankCards binds /bank-card.
type BankCards struct {
	e core.Executor
}

// List returns the cards of the current user.
func (b *BankCards) List(ctx context.Context) (*core.Envelope[[]BankCard], error) {
	return core.Get[[]BankCard](ctx, b.e, "/bank-card", nil)
}

// Create adds a card.
func (b *BankCards) Create(ctx context.Context, p BankCardInput) (*core.Envelope[BankCard], error) {
	return core.Post[BankCard](ctx, b.e, "/bank-card", p)
}

// Update edits the card with the given id.
func (b *BankCards) Update(ctx context.Context, id int64, p BankCardInput) (*core.Envelope[BankCard], error) {
	return core.Put[BankCard](ctx, b.e, "/bank-card/"+itoa(id), p)
}

// Delete removes a card.
func (b *BankCards) Delete(ctx context.Context, id int64) (*core.Envelope[core.Empty], error) {
	return core.Delete[core.Empty](ctx, b.e, "/bank-card/"+itoa(id))
}
