package easynote

import (
	"context"
	"time"

	"github.com/easynote/easynote-go/core"
)

// outcome labels for MetricRequests.
const (
	outcomeSuccess = "success"
	outcomeError   = "error"
)

type spanKey struct{}

// instrumentation is the core.Observer that feeds Metrics and Tracer.
type instrumentation struct {
	metrics Metrics
	tracer  Tracer
}

var _ core.Observer = (*instrumentation)(nil)

func (i *instrumentation) RequestStarted(ctx context.Context, method, path string) context.Context {
	ctx, span := i.tracer.StartSpan(ctx, method+" "+path)
	span.SetTag("http.method", method)
	span.SetTag("easynote.path", path)
	return context.WithValue(ctx, spanKey{}, span)
}

func (i *instrumentation) RequestFinished(ctx context.Context, method, path string, elapsed time.Duration, err error) {
	result := outcome(err)
	i.metrics.IncCounter(MetricRequests, map[string]string{"method": method, "outcome": result})
	i.metrics.ObserveHistogram(MetricRequestDuration, elapsed.Seconds(), map[string]string{"method": method})

	span, ok := ctx.Value(spanKey{}).(Span)
	if !ok {
		return
	}
	span.SetTag("easynote.outcome", result)
	if f, ok := core.AsFailure(err); ok {
		if f.Code != 0 {
			span.SetTag("easynote.code", f.Code)
		}
		if f.Status != 0 {
			span.SetTag("http.status_code", f.Status)
		}
	}
	span.RecordError(err)
	span.Finish()
}

// outcome is "success" or the failure kind.
func outcome(err error) string {
	if err == nil {
		return outcomeSuccess
	}
	if f, ok := core.AsFailure(err); ok {
		return string(f.Kind)
	}
	return outcomeError
}
