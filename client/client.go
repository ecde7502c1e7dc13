package client

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/emmanuelhcpk/wolmo-networking/config"
	"github.com/emmanuelhcpk/wolmo-networking/httpclient"
	"github.com/emmanuelhcpk/wolmo-networking/logger"
	"github.com/emmanuelhcpk/wolmo-networking/observability"
	"github.com/emmanuelhcpk/wolmo-networking/repository"
	"github.com/emmanuelhcpk/wolmo-networking/resilience"
	"github.com/emmanuelhcpk/wolmo-networking/security"
	"github.com/emmanuelhcpk/wolmo-networking/session"
)

// ErrPinningWithHTTPClient is returned by New when WithHTTPClient is combined
// with endpoint pinning. The caller's client has its own TLS settings, so the
// pins would not be enforced.
var ErrPinningWithHTTPClient = stderrors.New("client: WithHTTPClient cannot be used with endpoint.use_pinning")

// Client holds the wired pipeline and the resources it owns.
type Client struct {
	Repository *repository.Repository
	Transport  *httpclient.Adapter
	Logger     *logger.Logger

	name    string
	closers []func(context.Context) error
}

// Option configures New.
type Option func(*options)

type options struct {
	logger     *logger.Logger
	httpClient *http.Client
	clock      resilience.Clock
	repoOpts   []repository.Option
}

// WithLogger replaces the logger built from cfg.Logging.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithHTTPClient makes the transport use c instead of building its own. It
// cannot be combined with endpoint pinning.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithClock sets the clock shared by transport backoff and poll delays.
func WithClock(c resilience.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithRepositoryOptions appends options passed to repository.New after the
// ones derived from the configuration.
func WithRepositoryOptions(opts ...repository.Option) Option {
	return func(o *options) { o.repoOpts = append(o.repoOpts, opts...) }
}

// New validates cfg and builds the pipeline for it. Providers created here are
// shut down by Close.
func New(ctx context.Context, cfg config.Config, sess session.Manager, opts ...Option) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if o.httpClient != nil && cfg.Endpoint.UsePinning {
		return nil, ErrPinningWithHTTPClient
	}

	c := &Client{Logger: o.logger, name: cfg.Name}
	if c.Logger == nil {
		c.Logger = logger.New(&cfg.Logging, cfg.Name)
	}

	httpCfg := cfg.HTTP
	httpCfg.TLS = pinnedTLS(cfg)
	transportOpts := []httpclient.Option{httpclient.WithLogger(c.Logger)}
	if o.httpClient != nil {
		transportOpts = append(transportOpts, httpclient.WithHTTPClient(o.httpClient))
	}
	if o.clock != nil {
		transportOpts = append(transportOpts, httpclient.WithClock(o.clock))
	}
	transport, err := httpclient.New(httpCfg, transportOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating transport: %w", err)
	}
	c.Transport = transport
	c.closers = append(c.closers, transport.Close)

	if cfg.Tracing.Enabled {
		if err := c.initTelemetry(ctx, cfg.Tracing); err != nil {
			_ = c.Close(ctx)
			return nil, err
		}
	}

	metrics, err := observability.NewMetrics(observability.Meter())
	if err != nil {
		_ = c.Close(ctx)
		return nil, fmt.Errorf("creating metrics: %w", err)
	}

	repoOpts := []repository.Option{
		repository.WithLogger(c.Logger),
		repository.WithPolling(cfg.Polling),
		repository.WithMetrics(metrics),
		repository.WithTracer(observability.Tracer()),
	}
	if o.clock != nil {
		repoOpts = append(repoOpts, repository.WithClock(o.clock))
	}
	repoOpts = append(repoOpts, o.repoOpts...)
	c.Repository = repository.New(cfg.Endpoint, transport, sess, repoOpts...)

	c.Logger.Info("client ready", logger.Fields(
		"base_url", cfg.Endpoint.String(),
		"pinning", cfg.Endpoint.UsePinning,
		"tracing", cfg.Tracing.Enabled,
	))
	return c, nil
}

// pinnedTLS merges the endpoint pins into the transport TLS settings.
func pinnedTLS(cfg config.Config) *security.TLSConfig {
	pins := cfg.Endpoint.TLS()
	if pins == nil {
		return cfg.HTTP.TLS
	}
	if cfg.HTTP.TLS == nil {
		return pins
	}
	merged := *cfg.HTTP.TLS
	merged.Pins = pins.Pins
	if merged.ServerName == "" {
		merged.ServerName = pins.ServerName
	}
	return &merged
}

func (c *Client) initTelemetry(ctx context.Context, tc observability.TracerConfig) error {
	tp, err := observability.InitTracer(ctx, tc, c.Logger)
	if err != nil {
		return fmt.Errorf("initializing tracer: %w", err)
	}
	c.closers = append(c.closers, tp.Shutdown)

	mp, err := observability.InitMeter(ctx, observability.MeterConfig{
		ServiceName:    tc.ServiceName,
		ServiceVersion: tc.ServiceVersion,
		Environment:    tc.Environment,
		Endpoint:       tc.Endpoint,
		Insecure:       tc.Insecure,
	}, c.Logger)
	if err != nil {
		return fmt.Errorf("initializing meter: %w", err)
	}
	c.closers = append(c.closers, mp.Shutdown)
	return nil
}

// Health reports the combined health of the client's parts.
func (c *Client) Health(ctx context.Context) *observability.ServiceHealth {
	return observability.CheckAll(ctx, c.name, c.Transport)
}

// Close releases everything New created, in reverse order.
func (c *Client) Close(ctx context.Context) error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return stderrors.Join(errs...)
}
