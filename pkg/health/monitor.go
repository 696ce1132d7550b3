package health

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/cuemby/lookout/pkg/log"
	"github.com/cuemby/lookout/pkg/metrics"
)

// Monitor runs a checker periodically and publishes the result to the
// readiness registry under a component name
type Monitor struct {
	component string
	checker   Checker
	config    Config
	gauge     prometheus.Gauge

	mu     sync.RWMutex
	status *Status
}

// NewMonitor creates a monitor for component. The component reports
// unhealthy until the first successful check.
func NewMonitor(component string, checker Checker, config Config) *Monitor {
	status := NewStatus()
	status.Healthy = false

	if config.Interval <= 0 {
		config.Interval = DefaultConfig().Interval
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultConfig().Timeout
	}
	if config.Retries <= 0 {
		config.Retries = 1
	}

	return &Monitor{
		component: component,
		checker:   checker,
		config:    config,
		status:    status,
	}
}

// WithGauge mirrors the health state to g as 1 or 0
func (m *Monitor) WithGauge(g prometheus.Gauge) *Monitor {
	m.gauge = g
	return m
}

// Run checks immediately and then every Interval until ctx is cancelled
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.config.Interval)
	defer ticker.Stop()

	m.CheckOnce(ctx)

	for {
		select {
		case <-ticker.C:
			m.CheckOnce(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// CheckOnce performs a single check, updates the status and reports it
func (m *Monitor) CheckOnce(ctx context.Context) Result {
	checkCtx, cancel := context.WithTimeout(ctx, m.config.Timeout)
	defer cancel()

	result := m.checker.Check(checkCtx)

	m.mu.Lock()
	wasHealthy := m.status.Healthy
	m.status.Update(result, m.config)
	healthy := m.status.Healthy
	m.mu.Unlock()

	metrics.UpdateComponent(m.component, healthy, result.Message)
	if m.gauge != nil {
		if healthy {
			m.gauge.Set(1)
		} else {
			m.gauge.Set(0)
		}
	}

	logger := log.WithComponent("health")
	switch {
	case healthy != wasHealthy:
		logger.Info().
			Str("target", m.component).
			Bool("healthy", healthy).
			Str("message", result.Message).
			Msg("Upstream health changed")
	case !result.Healthy:
		logger.Debug().
			Str("target", m.component).
			Str("message", result.Message).
			Msg("Upstream health check failed")
	}

	return result
}

// Status returns a copy of the current status
func (m *Monitor) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return *m.status
}
