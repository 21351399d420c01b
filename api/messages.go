package api

import (
	"context"
	"encoding/json"

	"github.com/easynote/easynote-go/core"
)

// DefaultMessagePageSize is the page size of the message list.
const DefaultMessagePageSize = 10

// Message is an inbox notification, for example a family invitation.
type Message struct {
	ID         int64  `json:"id"`
	UserID     int64  `json:"userId"`
	Title      string `json:"title"`
	Content    string `json:"content,omitempty"`
	Type       int    `json:"type"`
	TypeName   string `json:"typeName"`
	Status     int    `json:"status"`
	StatusName string `json:"statusName"`
	// ExtraData is kept verbatim.
	ExtraData  map[string]json.RawMessage `json:"extraData,omitempty"`
	CreateTime string                     `json:"createTime"`
}

// Messages binds /message.
type Messages struct {
	e core.Executor
}

// List returns one page of the inbox, optionally filtered by status.
// Non-positive page values fall back to page 1 of DefaultMessagePageSize.
func (m *Messages) List(ctx context.Context, pageNum, pageSize int64, status *int64) (*core.Envelope[Page[Message]], error) {
	if pageNum <= 0 {
		pageNum = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultMessagePageSize
	}
	q := query{}.setInt("pageNum", pageNum).setInt("pageSize", pageSize).optInt("status", status)
	return core.Get[Page[Message]](ctx, m.e, "/message/list", q.values())
}

// UnreadCount returns the number of unread messages.
func (m *Messages) UnreadCount(ctx context.Context) (*core.Envelope[int64], error) {
	return core.Get[int64](ctx, m.e, "/message/unread-count", nil)
}

// MarkRead marks one message as read.
func (m *Messages) MarkRead(ctx context.Context, id int64) (*core.Envelope[core.Empty], error) {
	return core.Put[core.Empty](ctx, m.e, "/message/"+itoa(id)+"/read", nil)
}

// MarkAllRead marks the whole inbox as read.
func (m *Messages) MarkAllRead(ctx context.Context) (*core.Envelope[core.Empty], error) {
	return core.Put[core.Empty](ctx, m.e, "/message/read-all", nil)
}

// Delete removes a message.
func (m *Messages) Delete(ctx context.Context, id int64) (*core.Envelope[core.Empty], error) {
	return core.Delete[core.Empty](ctx, m.e, "/message/"+itoa(id))
}

// AcceptInvite accepts the family invitation carried by message id.
func (m *Messages) AcceptInvite(ctx context.Context, id int64) (*core.Envelope[core.Empty], error) {
	return core.Post[core.Empty](ctx, m.e, "/message/"+itoa(id)+"/accept", nil)
}

// RejectInvite declines the family invitation carried by message id.
func (m *Messages) RejectInvite(ctx context.Context, id int64) (*core.Envelope[core.Empty], error) {
	return core.Post[core.Empty](ctx, m.e, "/message/"+itoa(id)+"/reject", nil)
}
