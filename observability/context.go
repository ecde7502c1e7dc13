package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OutcomeSuccess is the outcome recorded for calls that returned a value.
const OutcomeSuccess = "success"

// Call tracks one logical pipeline call: a span plus call metrics.
type Call struct {
	Mode      string
	Method    string
	Path      string
	StartTime time.Time

	span     trace.Span
	metrics  *Metrics
	attempts int
}

// StartCall opens the span "repository.<mode>" and records the call start.
// tracer and metrics may be nil.
func StartCall(ctx context.Context, tracer trace.Tracer, metrics *Metrics, mode, method, path string) (context.Context, *Call) {
	if tracer == nil {
		tracer = Tracer()
	}
	ctx, span := tracer.Start(ctx, "repository."+mode,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String(AttrMode, mode),
			attribute.String(AttrMethod, method),
			attribute.String(AttrPath, path),
		),
	)
	metrics.RecordRequestStart(ctx, mode)

	return ctx, &Call{
		Mode:      mode,
		Method:    method,
		Path:      path,
		StartTime: time.Now(),
		span:      span,
		metrics:   metrics,
	}
}

// Attempt records that attempt n is about to be sent.
func (c *Call) Attempt(n int) {
	c.attempts = n
	c.span.AddEvent("attempt", trace.WithAttributes(attribute.Int(AttrAttempts, n)))
}

// SetStatusCode records the status code of the last response.
func (c *Call) SetStatusCode(code int) {
	if code > 0 {
		c.span.SetAttributes(attribute.Int(AttrStatusCode, code))
	}
}

// End closes the span and records the call metrics.
func (c *Call) End(ctx context.Context, outcome string, err error) {
	duration := time.Since(c.StartTime)

	if err != nil {
		c.span.RecordError(err)
		c.span.SetStatus(codes.Error, outcome)
		c.span.SetAttributes(attribute.String(AttrErrorMessage, err.Error()))
	}
	c.span.SetAttributes(
		attribute.String(AttrOutcome, outcome),
		attribute.Int(AttrAttempts, c.attempts),
	)
	c.span.End()

	c.metrics.RecordRequest(ctx, c.Mode, outcome, duration)
}

// Attempts returns the number of attempts recorded so far.
func (c *Call) Attempts() int {
	return c.attempts
}

// Duration returns the elapsed time since the call started.
func (c *Call) Duration() time.Duration {
	return time.Since(c.StartTime)
}
