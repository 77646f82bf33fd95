// metrics/metrics.go
package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the collectors exported on /metrics.
type Metrics struct {
	PhaseTransitions *prometheus.CounterVec
	BackendLatency   *prometheus.HistogramVec
	BackendErrors    *prometheus.CounterVec
	ActiveSessions   prometheus.Gauge
	HTTPLatency      *prometheus.HistogramVec
}

// New builds the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		PhaseTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tournament_join",
			Subsystem: "session",
			Name:      "phase_transitions_total",
			Help:      "Registration session phase transitions by target phase",
		}, []string{"phase"}),
		BackendLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tournament_join",
			Subsystem: "backend",
			Name:      "request_latency_seconds",
			Help:      "Latency of calls to the tournament API",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation", "code"}),
		BackendErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tournament_join",
			Subsystem: "backend",
			Name:      "errors_total",
			Help:      "Failed calls to the tournament API",
		}, []string{"operation"}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "tournament_join",
			Subsystem: "session",
			Name:      "active",
			Help:      "Registration sessions currently held in memory",
		}),
		HTTPLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tournament_join",
			Subsystem: "http",
			Name:      "request_latency_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method", "code"}),
	}
	if reg != nil {
		reg.MustRegister(m.PhaseTransitions, m.BackendLatency, m.BackendErrors, m.ActiveSessions, m.HTTPLatency)
	}
	return m
}

// ObservePhase is nil-safe so components can run without metrics in tests.
func (m *Metrics) ObservePhase(phase string) {
	if m == nil {
		return
	}
	m.PhaseTransitions.WithLabelValues(phase).Inc()
}

func (m *Metrics) ObserveBackend(operation string, code int, started time.Time, err error) {
	if m == nil {
		return
	}
	m.BackendLatency.WithLabelValues(operation, strconv.Itoa(code)).Observe(time.Since(started).Seconds())
	if err != nil {
		m.BackendErrors.WithLabelValues(operation).Inc()
	}
}

func (m *Metrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.ActiveSessions.Set(float64(n))
}

// Middleware records request latency by matched route.
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		route := c.Route().Path
		if route == "" {
			route = "unmatched"
		}
		m.HTTPLatency.WithLabelValues(route, c.Method(), strconv.Itoa(c.Response().StatusCode())).
			Observe(time.Since(start).Seconds())
		return err
	}
}
