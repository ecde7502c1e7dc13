// Package observability provides OpenTelemetry tracing and metrics for the
// request pipeline.
//
// Tracing:
//
//	tp, err := observability.InitTracer(ctx, observability.DefaultTracerConfig("orders"), log)
//	defer tp.Shutdown(ctx)
//
// Metrics:
//
//	mp, err := observability.InitMeter(ctx, observability.DefaultMeterConfig("orders"), log)
//	defer mp.Shutdown(ctx)
//
//	metrics, err := observability.NewMetrics(observability.Meter())
//	repo := repository.New(cfg, transport, store, repository.WithMetrics(metrics))
//
// Every pipeline call opens one span named "repository.<mode>" through
// StartCall, carrying the method, path, outcome and attempt count.
//
// Health:
//
//	health := observability.NewServiceHealth("orders", version)
//	health.AddComponent(adapter.CheckHealth(ctx))
package observability
