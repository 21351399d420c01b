package api

import (
	"errors"
	"net/url"
	"strconv"

	"github.com/easynote/easynote-go/core"
)

// ErrExecutorNil is returned by New without an executor.
var ErrExecutorNil = errors.New("executor cannot be nil")

// Client groups the bindings of every EasyNote resource.
type Client struct {
	Users      *Users
	Ledgers    *Ledgers
	Expenses   *Expenses
	Incomes    *Incomes
	Categories *Categories
	Families   *Families
	BankCards  *BankCards
	Messages   *Messages
}

// New creates a Client over e, normally a *core.Pipeline.
func New(e core.Executor) (*Client, error) {
	if e == nil {
		return nil, ErrExecutorNil
	}
	return &Client{
		Users:      &Users{e: e},
		Ledgers:    &Ledgers{e: e},
		Expenses:   &Expenses{e: e},
		Incomes:    &Incomes{e: e},
		Categories: &Categories{e: e},
		Families:   &Families{e: e},
		BankCards:  &BankCards{e: e},
		Messages:   &Messages{e: e},
	}, nil
}

// Page is the server's pagination wrapper.
type Page[T any] struct {
	Current int64 `json:"current"`
	Size    int64 `json:"size"`
	Total   int64 `json:"total"`
	Pages   int64 `json:"pages"`
	Records []T   `json:"records"`
}

// query builds url.Values, skipping unset optional values.
type query url.Values

func (q query) setInt(key string, v int64) query {
	url.Values(q).Set(key, strconv.FormatInt(v, 10))
	return q
}

func (q query) optInt(key string, v *int64) query {
	if v != nil {
		q.setInt(key, *v)
	}
	return q
}

func (q query) optString(key, v string) query {
	if v != "" {
		url.Values(q).Set(key, v)
	}
	return q
}

func (q query) values() url.Values {
	if len(q) == 0 {
		return nil
	}
	return url.Values(q)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
