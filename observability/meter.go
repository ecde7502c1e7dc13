package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/emmanuelhcpk/wolmo-networking/logger"
	"github.com/emmanuelhcpk/wolmo-networking/version"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	// ServiceName is the name of the service.
	ServiceName string `yaml:"service_name" mapstructure:"service_name"`
	// ServiceVersion is the version of the service.
	ServiceVersion string `yaml:"service_version" mapstructure:"service_version"`
	// Environment is the deployment environment (dev, staging, prod).
	Environment string `yaml:"environment" mapstructure:"environment"`
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`
	// Insecure allows insecure connections (for development).
	Insecure bool `yaml:"insecure" mapstructure:"insecure"`
	// Interval is the metric export interval.
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`
}

// DefaultMeterConfig returns sensible defaults for development.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: version.Short(),
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter initializes the OpenTelemetry meter provider and installs it globally.
// Returns a MeterProvider that should be shut down on application exit.
func InitMeter(ctx context.Context, config MeterConfig, log *logger.Logger) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	if log != nil {
		log.Info("meter initialized", logger.Fields(
			logger.FieldService, config.ServiceName,
			"endpoint", config.Endpoint,
			"interval", config.Interval.String(),
		))
	}

	return mp, nil
}

// Meter returns the pipeline meter from the global provider.
func Meter() metric.Meter {
	return otel.Meter(InstrumentationName)
}

// Metrics holds the instruments recorded by the request pipeline.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	requestTotal    metric.Int64Counter
	requestDuration metric.Float64Histogram
	requestActive   metric.Int64UpDownCounter
	pollAttempts    metric.Int64Counter
	decodeFailures  metric.Int64Counter
	sessionExpired  metric.Int64Counter
}

// NewMetrics creates metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	requestTotal, err := meter.Int64Counter("repository.request.total",
		metric.WithDescription("Total number of pipeline calls by mode and outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating repository.request.total counter: %w", err)
	}

	requestDuration, err := meter.Float64Histogram("repository.request.duration",
		metric.WithDescription("Duration of pipeline calls in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating repository.request.duration histogram: %w", err)
	}

	requestActive, err := meter.Int64UpDownCounter("repository.request.active",
		metric.WithDescription("Number of pipeline calls in flight"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating repository.request.active gauge: %w", err)
	}

	pollAttempts, err := meter.Int64Counter("repository.poll.attempts",
		metric.WithDescription("Requests issued by polling calls"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating repository.poll.attempts counter: %w", err)
	}

	decodeFailures, err := meter.Int64Counter("repository.decode.failures",
		metric.WithDescription("Response bodies that did not match the expected shape"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating repository.decode.failures counter: %w", err)
	}

	sessionExpired, err := meter.Int64Counter("repository.session.expired",
		metric.WithDescription("Sessions expired after an unauthorized response"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating repository.session.expired counter: %w", err)
	}

	return &Metrics{
		requestTotal:    requestTotal,
		requestDuration: requestDuration,
		requestActive:   requestActive,
		pollAttempts:    pollAttempts,
		decodeFailures:  decodeFailures,
		sessionExpired:  sessionExpired,
	}, nil
}

// RecordRequestStart increments the in-flight call count.
func (m *Metrics) RecordRequestStart(ctx context.Context, mode string) {
	if m == nil {
		return
	}
	m.requestActive.Add(ctx, 1, metric.WithAttributes(attribute.String("mode", mode)))
}

// RecordRequest decrements the in-flight count and records a completed call.
func (m *Metrics) RecordRequest(ctx context.Context, mode, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestActive.Add(ctx, -1, metric.WithAttributes(attribute.String("mode", mode)))
	m.requestTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("mode", mode),
		attribute.String("outcome", outcome),
	))
	m.requestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("mode", mode),
	))
}

// RecordPollAttempt records one request issued by a polling call.
func (m *Metrics) RecordPollAttempt(ctx context.Context) {
	if m == nil {
		return
	}
	m.pollAttempts.Add(ctx, 1)
}

// RecordDecodeFailure records a decode failure.
func (m *Metrics) RecordDecodeFailure(ctx context.Context) {
	if m == nil {
		return
	}
	m.decodeFailures.Add(ctx, 1)
}

// RecordSessionExpired records a session expired by the pipeline.
func (m *Metrics) RecordSessionExpired(ctx context.Context) {
	if m == nil {
		return
	}
	m.sessionExpired.Add(ctx, 1)
}
