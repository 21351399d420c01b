package core

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// maxBodyBytes bounds how much of a response body is read.
const maxBodyBytes = 10 << 20

// Session is the view of the session store the pipeline needs.
type Session interface {
	// Token returns the current credential, or "" when unauthenticated.
	Token() string

	// Invalidate clears the session if its token is still token, and
	// reports whether it did. cause is the failure that triggered it.
	Invalidate(ctx context.Context, token string, cause error) bool
}

// Logger defines an optional logging interface compatible with log/slog.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Observer is notified around every call. It is the hook used for
// metrics and tracing.
type Observer interface {
	RequestStarted(ctx context.Context, method, path string) context.Context
	RequestFinished(ctx context.Context, method, path string, elapsed time.Duration, err error)
}

// Pipeline executes requests against the EasyNote API.
type Pipeline struct {
	baseURL  string
	client   *http.Client
	session  Session
	notifier Notifier
	prompter Prompter
	logger   Logger
	observer Observer
	messages Messages

	requestStages  []Stage
	responseStages []Stage

	// prompting is set while a re-authentication prompt is open.
	prompting atomic.Bool

	// promptMu guards openPrompts and closed.
	promptMu    sync.Mutex
	promptsDone *sync.Cond
	openPrompts int
	closed      bool
}

var allowedMethods = map[string]bool{
	http.MethodGet:    true,
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodDelete: true,
}

// Execute sends one request and returns the envelope when success is true.
// Any other outcome is returned as a *Failure after it has been reported to
// the user. Execute never retries.
func (p *Pipeline) Execute(ctx context.Context, method, path string, body any, query map[string][]string) (*Envelope[json.RawMessage], error) {
	if !allowedMethods[method] {
		return nil, fmt.Errorf("unsupported method %q", method)
	}

	start := time.Now()
	if p.observer != nil {
		ctx = p.observer.RequestStarted(ctx, method, path)
	}

	env, err := p.execute(ctx, method, path, body, query)

	if p.observer != nil {
		p.observer.RequestFinished(ctx, method, path, time.Since(start), err)
	}
	return env, err
}

func (p *Pipeline) execute(ctx context.Context, method, path string, body any, query map[string][]string) (*Envelope[json.RawMessage], error) {
	call := &Call{
		Method: method,
		Path:   path,
		Query:  query,
		Body:   body,
		Token:  p.session.Token(),
	}

	req, err := p.newRequest(ctx, call)
	if err != nil {
		return nil, fmt.Errorf("could not build request: %w", err)
	}
	call.Request = req

	if err := p.run(ctx, call, p.requestStages); err != nil {
		return nil, p.fail(ctx, call, err)
	}

	if p.logger != nil {
		p.logger.Debug("sending request", "method", method, "path", path, "authenticated", call.Token != "")
	}

	resp, err := p.client.Do(call.Request)
	if err != nil {
		call.TransportErr = err
	} else {
		call.Response = resp
		call.ResponseBody, err = io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		_ = resp.Body.Close()
		if err != nil {
			call.TransportErr = err
		}
	}

	if err := p.run(ctx, call, p.responseStages); err != nil {
		return nil, p.fail(ctx, call, err)
	}

	if call.Envelope == nil {
		return nil, p.fail(ctx, call, newFailure(KindMalformed, p.messages.Malformed, nil))
	}
	return call.Envelope, nil
}

// run invokes stages in order and stops at the first error.
func (p *Pipeline) run(ctx context.Context, call *Call, stages []Stage) error {
	for _, stage := range stages {
		call.Trace = append(call.Trace, stage.Name)
		if err := stage.Fn(ctx, call); err != nil {
			return err
		}
	}
	return nil
}

// fail classifies err, performs the side effects for its kind and returns
// the failure to hand back to the caller.
func (p *Pipeline) fail(ctx context.Context, call *Call, err error) *Failure {
	f, ok := AsFailure(err)
	if !ok {
		f = p.classifyTransportError(err)
	}
	if f.Status == 0 && call.Response != nil {
		f.Status = call.Response.StatusCode
	}

	if p.logger != nil {
		p.logger.Warn("request failed",
			"method", call.Method,
			"path", call.Path,
			"kind", f.Kind,
			"code", f.Code,
			"status", f.Status,
			"error", f)
	}

	// Side effects must not be cut short by the caller's context.
	ctx = context.WithoutCancel(ctx)

	switch f.Kind {
	case KindAuthExpired:
		p.promptReauthentication(ctx, call.Token, f)
	case KindUnauthorized:
		if p.session.Invalidate(ctx, call.Token, f) && p.logger != nil {
			p.logger.Info("session cleared after unauthorized response", "path", call.Path)
		}
		p.notify(ctx, f)
	case KindCanceled:
	default:
		p.notify(ctx, f)
	}
	return f
}

func (p *Pipeline) notify(ctx context.Context, f *Failure) {
	p.notifier.Notify(ctx, Notification{Level: LevelError, Message: f.Message, Failure: f})
}

// promptReauthentication opens the session-expired prompt unless one is
// already open. The session is only cleared after explicit confirmation,
// and only if it still holds the token the failed call sent.
func (p *Pipeline) promptReauthentication(ctx context.Context, token string, cause *Failure) {
	if !p.prompting.CompareAndSwap(false, true) {
		if p.logger != nil {
			p.logger.Debug("re-authentication prompt already open")
		}
		return
	}

	if !p.beginPrompt() {
		p.prompting.Store(false)
		if p.logger != nil {
			p.logger.Debug("pipeline closed, re-authentication prompt skipped")
		}
		return
	}
	go func() {
		defer p.endPrompt()
		defer p.prompting.Store(false)

		confirmed, err := p.prompter.Confirm(ctx, p.messages.SessionExpired)
		if err != nil {
			if p.logger != nil {
				p.logger.Error("re-authentication prompt failed", "error", err)
			}
			return
		}
		if !confirmed {
			if p.logger != nil {
				p.logger.Debug("re-authentication declined")
			}
			return
		}
		p.session.Invalidate(ctx, token, cause)
	}()
}

func (p *Pipeline) beginPrompt() bool {
	p.promptMu.Lock()
	defer p.promptMu.Unlock()
	if p.closed {
		return false
	}
	p.openPrompts++
	return true
}

func (p *Pipeline) endPrompt() {
	p.promptMu.Lock()
	defer p.promptMu.Unlock()
	p.openPrompts--
	if p.openPrompts == 0 {
		p.promptsDone.Broadcast()
	}
}

// Wait blocks until any open re-authentication prompt has been answered
// and acted upon. It is safe to call while requests are in flight; a prompt
// opened after Wait returns is not waited for.
func (p *Pipeline) Wait() {
	p.promptMu.Lock()
	defer p.promptMu.Unlock()
	for p.openPrompts > 0 {
		p.promptsDone.Wait()
	}
}

// Close stops the pipeline from opening new re-authentication prompts and
// waits for the open ones. Requests still execute after Close; an expired
// session is then returned as a failure without a prompt. Close is idempotent.
func (p *Pipeline) Close() {
	p.promptMu.Lock()
	p.closed = true
	p.promptMu.Unlock()
	p.Wait()
}

// Prompting reports whether a re-authentication prompt is currently open.
func (p *Pipeline) Prompting() bool {
	return p.prompting.Load()
}

// BaseURL returns the configured API base URL.
func (p *Pipeline) BaseURL() string {
	return p.baseURL
}
