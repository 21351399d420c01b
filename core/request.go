package core

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
)

// Executor is the contract resource bindings depend on. *Pipeline
// implements it; bindings must never talk to the transport directly.
type Executor interface {
	Execute(ctx context.Context, method, path string, body any, query map[string][]string) (*Envelope[json.RawMessage], error)
}

// Get performs a GET and decodes data as T.
func Get[T any](ctx context.Context, e Executor, path string, query url.Values) (*Envelope[T], error) {
	return do[T](ctx, e, http.MethodGet, path, nil, query)
}

// Post performs a POST with a JSON body and decodes data as T.
func Post[T any](ctx context.Context, e Executor, path string, body any) (*Envelope[T], error) {
	return do[T](ctx, e, http.MethodPost, path, body, nil)
}

// Put performs a PUT with a JSON body and decodes data as T.
func Put[T any](ctx context.Context, e Executor, path string, body any) (*Envelope[T], error) {
	return do[T](ctx, e, http.MethodPut, path, body, nil)
}

// Delete performs a DELETE and decodes data as T.
func Delete[T any](ctx context.Context, e Executor, path string) (*Envelope[T], error) {
	return do[T](ctx, e, http.MethodDelete, path, nil, nil)
}

func do[T any](ctx context.Context, e Executor, method, path string, body any, query url.Values) (*Envelope[T], error) {
	raw, err := e.Execute(ctx, method, path, body, query)
	if err != nil {
		return nil, err
	}
	return Decode[T](raw)
}

// Empty is the data type of endpoints that return no payload.
type Empty = json.RawMessage
