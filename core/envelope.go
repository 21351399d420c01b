package core

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// authExpiredCodes are the application-layer codes meaning the credential
// is no longer accepted.
var authExpiredCodes = map[int]bool{
	401:  true,
	2001: true,
	2002: true,
	2003: true,
}

// IsAuthExpiredCode reports whether code is one of the reserved
// authentication codes.
func IsAuthExpiredCode(code int) bool {
	return authExpiredCodes[code]
}

// Envelope is the wrapper every server reply uses, success or failure.
// Success is authoritative and independent of the HTTP status. Only an
// explicit "success": false fails a call; a reply without the field is
// treated as successful.
type Envelope[T any] struct {
	Code      int    `json:"code"`
	Msg       string `json:"msg"`
	Message   string `json:"message,omitempty"`
	Data      T      `json:"data"`
	DataMap   Extras `json:"dataMap,omitempty"`
	Timestamp int64  `json:"timestamp,omitempty"`
	Success   bool   `json:"success"`

	// Raw holds the response body exactly as received.
	Raw json.RawMessage `json:"-"`
}

// FailureMessage returns the human-readable failure description,
// preferring message over the legacy msg field.
func (e *Envelope[T]) FailureMessage(fallback string) string {
	if e.Message != "" {
		return e.Message
	}
	if e.Msg != "" {
		return e.Msg
	}
	return fallback
}

// Extras is the free-form dataMap bag. Values are kept as raw JSON and
// never interpreted by the pipeline.
type Extras map[string]json.RawMessage

// Has reports whether key is present.
func (x Extras) Has(key string) bool {
	_, ok := x[key]
	return ok
}

// Get decodes the value stored under key into v.
func (x Extras) Get(key string, v any) error {
	raw, ok := x[key]
	if !ok {
		return fmt.Errorf("dataMap key %q not present", key)
	}
	return json.Unmarshal(raw, v)
}

// Decode converts a raw envelope into one whose data is decoded as T.
// A missing or null data field leaves Data at its zero value.
func Decode[T any](raw *Envelope[json.RawMessage]) (*Envelope[T], error) {
	out := &Envelope[T]{
		Code:      raw.Code,
		Msg:       raw.Msg,
		Message:   raw.Message,
		DataMap:   raw.DataMap,
		Timestamp: raw.Timestamp,
		Success:   raw.Success,
		Raw:       raw.Raw,
	}
	if len(raw.Data) == 0 || bytes.Equal(bytes.TrimSpace(raw.Data), []byte("null")) {
		return out, nil
	}
	if err := json.Unmarshal(raw.Data, &out.Data); err != nil {
		return nil, fmt.Errorf("could not decode envelope data: %w", err)
	}
	return out, nil
}

func parseEnvelope(body []byte) (*Envelope[json.RawMessage], error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("response body is not a JSON object")
	}

	var env Envelope[json.RawMessage]
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, err
	}
	if flag := gjson.GetBytes(trimmed, "success"); !flag.Exists() || flag.Type == gjson.Null {
		env.Success = true
	}
	env.Raw = append(json.RawMessage(nil), body...)
	return &env, nil
}
