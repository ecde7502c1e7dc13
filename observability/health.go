package observability

import (
	"context"

	"github.com/emmanuelhcpk/wolmo-networking/version"
)

// HealthStatus is the coarse state reported by a HealthChecker.
type HealthStatus string

const (
	HealthStatusUp       HealthStatus = "up"
	HealthStatusDown     HealthStatus = "down"
	HealthStatusDegraded HealthStatus = "degraded"
)

// rank orders statuses from best to worst.
func (s HealthStatus) rank() int {
	switch s {
	case HealthStatusDown:
		return 2
	case HealthStatusDegraded:
		return 1
	default:
		return 0
	}
}

// Health is the report of one pipeline part, e.g. the transport and its
// circuit breaker.
type Health struct {
	Name    string            `json:"name"`
	Status  HealthStatus      `json:"status"`
	Message string            `json:"message,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// HealthChecker is implemented by parts that can report their health.
type HealthChecker interface {
	CheckHealth(ctx context.Context) Health
}

// ServiceHealth is the combined report of a client. Its Status is the worst
// status among its components.
type ServiceHealth struct {
	Service    string       `json:"service"`
	Status     HealthStatus `json:"status"`
	Version    string       `json:"version,omitempty"`
	Components []Health     `json:"components,omitempty"`
}

// NewServiceHealth returns an empty report with status up.
func NewServiceHealth(service, version string) *ServiceHealth {
	return &ServiceHealth{Service: service, Status: HealthStatusUp, Version: version}
}

// AddComponent appends h and lowers the overall status when h is worse.
func (sh *ServiceHealth) AddComponent(h Health) {
	sh.Components = append(sh.Components, h)
	if h.Status.rank() > sh.Status.rank() {
		sh.Status = h.Status
	}
}

// CheckAll asks every checker for its health and combines the results.
func CheckAll(ctx context.Context, service string, checkers ...HealthChecker) *ServiceHealth {
	sh := NewServiceHealth(service, version.Short())
	for _, c := range checkers {
		if c == nil {
			continue
		}
		sh.AddComponent(c.CheckHealth(ctx))
	}
	return sh
}
