package api

import (
	"context"

	"github.com/easynote/easynote-go/core"
)

// CategoryType tells income and expense categories apart.
type CategoryType int

const (
	CategoryIncome  CategoryType = 1
	CategoryExpense CategoryType = 2
)

// Category is an income or expense category. System categories cannot be
// changed.
type Category struct {
	ID       int64        `json:"id"`
	Name     string       `json:"name"`
	Type     CategoryType `json:"type"`
	Icon     string       `json:"icon,omitempty"`
	ParentID int64        `json:"parentId"`
	Sort     int          `json:"sort"`
	IsSystem bool         `json:"isSystem"`
	Children []Category   `json:"children,omitempty"`
}

// CategoryInput is the create and edit form of a category.
type CategoryInput struct {
	Name     string       `json:"name"`
	Type     CategoryType `json:"type"`
	Icon     string       `json:"icon,omitempty"`
	ParentID *int64       `json:"parentId,omitempty"`
	Sort     *int         `json:"sort,omitempty"`
}

// Categories binds /category.
type Categories struct {
	e core.Executor
}

// List returns the category tree, optionally of one type only. Zero means
// all types.
func (c *Categories) List(ctx context.Context, t CategoryType) (*core.Envelope[[]Category], error) {
	q := query{}
	if t != 0 {
		q.setInt("type", int64(t))
	}
	return core.Get[[]Category](ctx, c.e, "/category", q.values())
}

// Create adds a user-defined category.
func (c *Categories) Create(ctx context.Context, p CategoryInput) (*core.Envelope[Category], error) {
	return core.Post[Category](ctx, c.e, "/category", p)
}

// Update edits a category. The server takes a POST here, not a PUT.
func (c *Categories) Update(ctx context.Context, id int64, p CategoryInput) (*core.Envelope[Category], error) {
	return core.Post[Category](ctx, c.e, "/category/"+itoa(id), p)
}

// Delete removes a user-defined category.
func (c *Categories) Delete(ctx context.Context, id int64) (*core.Envelope[core.Empty], error) {
	return core.Delete[core.Empty](ctx, c.e, "/category/"+itoa(id))
}
