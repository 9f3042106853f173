// Package metrics exposes Prometheus instruments for login attempts.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome label values.
const (
	OutcomeSuccess            = "success"
	OutcomeValidationFailed   = "validation_failed"
	OutcomeInvalidCredentials = "invalid_credentials"
	OutcomeServerError        = "server_error"
)

type Metrics struct {
	AttemptsTotal     *prometheus.CounterVec
	PasswordCheckTime prometheus.Histogram
	RateLimitedTotal  prometheus.Counter
	registry          *prometheus.Registry
}

// New creates the instruments on a fresh registry that also carries the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		AttemptsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_local_attempts_total",
				Help: "Total number of login attempts by outcome",
			},
			[]string{"outcome"},
		),
		PasswordCheckTime: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "auth_local_password_check_seconds",
				Help:    "Time spent verifying a password against its stored hash",
				Buckets: prometheus.ExponentialBuckets(0.005, 2, 10),
			},
		),
		RateLimitedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "auth_local_rate_limited_total",
				Help: "Total number of login requests rejected by the rate limiter",
			},
		),
		registry: reg,
	}

	reg.MustRegister(m.AttemptsTotal)
	reg.MustRegister(m.PasswordCheckTime)
	reg.MustRegister(m.RateLimitedTotal)

	return m
}

func (m *Metrics) RecordAttempt(outcome string) {
	m.AttemptsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObservePasswordCheck(d time.Duration) {
	m.PasswordCheckTime.Observe(d.Seconds())
}

func (m *Metrics) RecordRateLimited() {
	m.RateLimitedTotal.Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
