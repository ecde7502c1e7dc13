package repository

import (
	"context"
	"maps"
	"sync/atomic"

	"go.opentelemetry.io/otel/trace"

	"github.com/emmanuelhcpk/wolmo-networking/endpoint"
	"github.com/emmanuelhcpk/wolmo-networking/httpclient"
	"github.com/emmanuelhcpk/wolmo-networking/logger"
	"github.com/emmanuelhcpk/wolmo-networking/observability"
	"github.com/emmanuelhcpk/wolmo-networking/resilience"
	"github.com/emmanuelhcpk/wolmo-networking/session"
)

// Call modes, used as span names and metric attributes.
const (
	ModePerform           = "perform"
	ModeAuthentication    = "authentication"
	ModePolling           = "polling"
	ModeRaw               = "raw"
	ModeAuthenticationRaw = "authentication_raw"
)

// Repository executes requests against one endpoint.
type Repository struct {
	endpoint  endpoint.Config
	transport httpclient.Transport
	session   session.Manager

	log     *logger.Logger
	clock   resilience.Clock
	polling resilience.PollConfig
	tracer  trace.Tracer
	metrics *observability.Metrics
	headers map[string]string

	onDecodeError atomic.Pointer[DecodeErrorHandler]
}

// Option configures a Repository.
type Option func(*Repository)

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(r *Repository) {
		if l != nil {
			r.log = l.WithComponent("repository")
		}
	}
}

// WithDecodeErrorHandler sets the handler invoked on every decode failure.
func WithDecodeErrorHandler(h DecodeErrorHandler) Option {
	return func(r *Repository) {
		r.SetDecodeErrorHandler(h)
	}
}

// WithPolling sets the interval and attempt bound of polling calls.
func WithPolling(cfg resilience.PollConfig) Option {
	return func(r *Repository) {
		r.polling = cfg
	}
}

// WithClock sets the clock that drives poll delays.
func WithClock(c resilience.Clock) Option {
	return func(r *Repository) {
		if c != nil {
			r.clock = c
		}
	}
}

// WithTracer sets the tracer used for call spans. Defaults to the global provider.
func WithTracer(t trace.Tracer) Option {
	return func(r *Repository) {
		r.tracer = t
	}
}

// WithMetrics sets the metric instruments recorded per call.
func WithMetrics(m *observability.Metrics) Option {
	return func(r *Repository) {
		r.metrics = m
	}
}

// WithHeaders adds headers sent with every call.
func WithHeaders(headers map[string]string) Option {
	return func(r *Repository) {
		if r.headers == nil {
			r.headers = make(map[string]string, len(headers))
		}
		maps.Copy(r.headers, headers)
	}
}

// New creates a Repository for cfg. The endpoint is not validated here;
// a URL that cannot be assembled fails each call with an invalid URL error.
func New(cfg endpoint.Config, transport httpclient.Transport, sess session.Manager, opts ...Option) *Repository {
	cfg.ApplyDefaults()
	r := &Repository{
		endpoint:  cfg,
		transport: transport,
		session:   sess,
		log:       logger.Nop(),
		clock:     resilience.RealClock{},
		polling:   resilience.DefaultPollConfig(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.polling.Clock == nil {
		r.polling.Clock = r.clock
	}
	r.polling.ApplyDefaults()
	return r
}

// Endpoint returns the endpoint configuration.
func (r *Repository) Endpoint() endpoint.Config {
	return r.endpoint
}

// Session returns the session manager.
func (r *Repository) Session() session.Manager {
	return r.session
}

// SetDecodeErrorHandler replaces the decode-failure handler. A nil handler
// clears it. Safe to call while requests are in flight.
func (r *Repository) SetDecodeErrorHandler(h DecodeErrorHandler) {
	if h == nil {
		r.onDecodeError.Store(nil)
		return
	}
	r.onDecodeError.Store(&h)
}

// decodeErrorHandler returns the handler that records metrics and then calls
// the configured handler, if any.
func (r *Repository) decodeErrorHandler() DecodeErrorHandler {
	return func(ctx context.Context, err error) {
		r.metrics.RecordDecodeFailure(ctx)
		r.log.WithContext(ctx).Warn("response decode failed", logger.Fields(
			logger.FieldError, err.Error(),
		))
		if h := r.onDecodeError.Load(); h != nil {
			(*h)(ctx, err)
		}
	}
}
