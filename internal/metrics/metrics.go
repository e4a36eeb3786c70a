// Package metrics provides the Prometheus collectors for the auth service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Operation labels.
const (
	OpRegister    = "register"
	OpLogin       = "login"
	OpGoogleLogin = "google_login"
	OpHash        = "hash"
	OpVerify      = "verify"
)

// Outcome labels.
const (
	OutcomeSuccess            = "success"
	OutcomeDuplicate          = "duplicate"
	OutcomeInvalidCredentials = "invalid_credentials"
	OutcomeValidation         = "validation"
	OutcomeTimeout            = "timeout"
	OutcomeError              = "error"
)

// Metrics contains the custom collectors. A nil *Metrics records nothing.
type Metrics struct {
	AuthAttempts *prometheus.CounterVec
	HashDuration *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// New creates a registry with the Go and process collectors plus the
// service metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := NewMetrics(reg)
	m.gatherer = reg
	return m
}

// NewMetrics creates and registers the service metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		AuthAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "elderease_auth_attempts_total",
				Help: "Total number of authentication attempts by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		HashDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "elderease_password_hash_duration_seconds",
				Help:    "Time spent hashing or verifying passwords, including the wait for a slot",
				Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"operation"},
		),
	}

	reg.MustRegister(m.AuthAttempts)
	reg.MustRegister(m.HashDuration)

	return m
}

// RecordAttempt increments the attempt counter.
func (m *Metrics) RecordAttempt(operation, outcome string) {
	if m == nil {
		return
	}
	m.AuthAttempts.WithLabelValues(operation, outcome).Inc()
}

// ObserveHash records the duration of a hash or verify call.
func (m *Metrics) ObserveHash(operation string, d time.Duration) {
	if m == nil {
		return
	}
	m.HashDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
