package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

// Stage names of the built-in stages, in the order they run.
const (
	StageRequestID = "request_id"
	StageBearer    = "bearer"
	StageRateLimit = "rate_limit"
	StageTransport = "transport"
	StageDecode    = "decode"
	StageEnvelope  = "envelope"
)

// RequestIDHeader carries a fresh identifier on every outgoing call.
const RequestIDHeader = "X-Request-Id"

// Call carries one invocation through the pipeline stages.
type Call struct {
	Method string
	Path   string
	Query  url.Values
	Body   any

	// Token is the session credential read when the call started.
	Token string

	Request *http.Request

	// Response and ResponseBody are set once the transport answered;
	// the body has already been drained and closed.
	Response     *http.Response
	ResponseBody []byte

	// TransportErr is set when no response could be read.
	TransportErr error

	// Envelope is set by the decode stage.
	Envelope *Envelope[json.RawMessage]

	// Trace lists the names of the stages run so far.
	Trace []string
}

// Stage is one step of the pipeline. A non-nil error stops the chain and
// becomes the call's failure; returning a *Failure controls its kind.
type Stage struct {
	Name string
	Fn   func(ctx context.Context, c *Call) error
}

func (p *Pipeline) newRequest(ctx context.Context, c *Call) (*http.Request, error) {
	target := p.baseURL + "/" + strings.TrimPrefix(c.Path, "/")
	if len(c.Query) > 0 {
		target += "?" + c.Query.Encode()
	}

	var body io.Reader
	if c.Body != nil {
		buf, err := json.Marshal(c.Body)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, c.Method, target, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// RequestIDStage tags the request with a random identifier.
func RequestIDStage() Stage {
	return Stage{Name: StageRequestID, Fn: func(_ context.Context, c *Call) error {
		c.Request.Header.Set(RequestIDHeader, uuid.NewString())
		return nil
	}}
}

// BearerStage attaches the call's token verbatim as a bearer credential.
// Without a token the request goes out unauthenticated.
func BearerStage() Stage {
	return Stage{Name: StageBearer, Fn: func(_ context.Context, c *Call) error {
		if c.Token == "" {
			c.Request.Header.Del("Authorization")
			return nil
		}
		c.Request.Header.Set("Authorization", "Bearer "+c.Token)
		return nil
	}}
}

// RateLimitStage delays the call until limiter admits it. A context that
// ends while waiting fails the call as a timeout or cancellation.
func RateLimitStage(limiter *rate.Limiter) Stage {
	return Stage{Name: StageRateLimit, Fn: func(ctx context.Context, _ *Call) error {
		if err := limiter.Wait(ctx); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			// The limiter refuses up front when the deadline cannot be met.
			return fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
		}
		return nil
	}}
}

// transportStage fails the call when no response arrived or its status is
// outside 2xx.
func (p *Pipeline) transportStage() Stage {
	return Stage{Name: StageTransport, Fn: func(_ context.Context, c *Call) error {
		if c.TransportErr != nil {
			return p.classifyTransportError(c.TransportErr)
		}

		status := c.Response.StatusCode
		if status >= 200 && status < 300 {
			return nil
		}

		f := &Failure{Status: status}
		switch status {
		case http.StatusUnauthorized:
			f.Kind, f.Message = KindUnauthorized, p.messages.Unauthorized
		case http.StatusForbidden:
			f.Kind, f.Message = KindForbidden, p.messages.Forbidden
		case http.StatusNotFound:
			f.Kind, f.Message = KindNotFound, p.messages.NotFound
		case http.StatusInternalServerError:
			f.Kind, f.Message = KindServerError, p.messages.ServerError
		default:
			f.Kind, f.Message = KindStatus, bodyMessage(c.ResponseBody, p.messages.status(status))
		}
		return f
	}}
}

// decodeStage parses the response body as an envelope.
func (p *Pipeline) decodeStage() Stage {
	return Stage{Name: StageDecode, Fn: func(_ context.Context, c *Call) error {
		env, err := parseEnvelope(c.ResponseBody)
		if err != nil {
			return newFailure(KindMalformed, p.messages.Malformed, err)
		}
		c.Envelope = env
		return nil
	}}
}

// envelopeStage branches on the envelope's success flag.
func (p *Pipeline) envelopeStage() Stage {
	return Stage{Name: StageEnvelope, Fn: func(_ context.Context, c *Call) error {
		env := c.Envelope
		if env.Success {
			return nil
		}

		if IsAuthExpiredCode(env.Code) {
			return &Failure{
				Kind:    KindAuthExpired,
				Code:    env.Code,
				Message: env.FailureMessage(p.messages.SessionExpired.Message),
			}
		}
		return &Failure{
			Kind:    KindRequestFailed,
			Code:    env.Code,
			Message: env.FailureMessage(p.messages.RequestFailed),
		}
	}}
}

// classifyTransportError maps an error raised before any response was
// read to its failure kind.
func (p *Pipeline) classifyTransportError(err error) *Failure {
	var netErr net.Error
	switch {
	case errors.Is(err, context.Canceled):
		return newFailure(KindCanceled, ErrCanceled.Error(), err)
	case errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &netErr) && netErr.Timeout(),
		strings.Contains(strings.ToLower(err.Error()), "timeout"):
		return newFailure(KindTimeout, p.messages.Timeout, err)
	case isConnectionError(err):
		return newFailure(KindNetwork, p.messages.Network, err)
	default:
		return newFailure(KindUnknown, p.messages.Unknown, err)
	}
}

// isConnectionError reports whether err comes from dialing, resolving or a
// connection that broke off mid-response.
func isConnectionError(err error) bool {
	var opErr *net.OpError
	var dnsErr *net.DNSError
	return errors.As(err, &opErr) ||
		errors.As(err, &dnsErr) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF)
}

// bodyMessage extracts the legacy msg (or message) field from an error body.
func bodyMessage(body []byte, fallback string) string {
	if !gjson.ValidBytes(body) {
		return fallback
	}
	for _, field := range []string{"msg", "message"} {
		if v := gjson.GetBytes(body, field); v.Type == gjson.String && v.String() != "" {
			return v.String()
		}
	}
	return fallback
}
