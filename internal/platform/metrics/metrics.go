package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the platform-level Prometheus metrics.
type Metrics struct {
	RequestDuration *prometheus.HistogramVec
	SessionsActive  prometheus.Gauge
	LoginsTotal     *prometheus.CounterVec
}

// New creates and registers all platform metrics.
func New() *Metrics {
	return &Metrics{
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "campusvoice_request_duration_seconds",
			Help:    "HTTP request latency by route and status class",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
		SessionsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "campusvoice_sessions_active",
			Help: "Currently active sessions",
		}),
		LoginsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "campusvoice_logins_total",
			Help: "Logins by role and outcome",
		}, []string{"role", "outcome"}),
	}
}

// ObserveRequest records one request observation. Nil-safe so handlers can be
// constructed without metrics in tests.
func (m *Metrics) ObserveRequest(route, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(route, status).Observe(d.Seconds())
}

// IncrementLogin records a login attempt outcome.
func (m *Metrics) IncrementLogin(role, outcome string) {
	if m == nil {
		return
	}
	m.LoginsTotal.WithLabelValues(role, outcome).Inc()
}

// SessionOpened bumps the active session gauge.
func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.SessionsActive.Inc()
}

// SessionClosed drops the active session gauge.
func (m *Metrics) SessionClosed() {
	if m == nil {
		return
	}
	m.SessionsActive.Dec()
}
