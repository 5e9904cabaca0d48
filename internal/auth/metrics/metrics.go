// Package metrics exposes the service's Prometheus collectors on a private
// registry.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Login outcomes.
const (
	OutcomeSuccess     = "success"
	OutcomeInvalid     = "invalid_credentials"
	OutcomeLocked      = "locked"
	OutcomeInactive    = "inactive"
	OutcomeUnavailable = "unavailable"
	OutcomeRejected    = "rejected"
)

type Metrics struct {
	registry *prometheus.Registry

	loginAttempts  *prometheus.CounterVec
	lockouts       prometheus.Counter
	rateLimited    *prometheus.CounterVec
	sessionsIssued *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		loginAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_login_attempts_total",
			Help: "Login attempts by authentication method and outcome.",
		}, []string{"method", "outcome"}),
		lockouts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "auth_account_lockouts_total",
			Help: "Accounts locked after repeated failed logins.",
		}),
		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_rate_limited_total",
			Help: "Requests rejected by the rate limiter.",
		}, []string{"action"}),
		sessionsIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_sessions_issued_total",
			Help: "Sessions issued by authentication method.",
		}, []string{"method"}),
	}

	m.registry.MustRegister(
		m.loginAttempts,
		m.lockouts,
		m.rateLimited,
		m.sessionsIssued,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) LoginAttempt(method, outcome string) {
	m.loginAttempts.WithLabelValues(method, outcome).Inc()
}

func (m *Metrics) Lockout() { m.lockouts.Inc() }

func (m *Metrics) RateLimited(action string) {
	m.rateLimited.WithLabelValues(action).Inc()
}

func (m *Metrics) SessionIssued(method string) {
	m.sessionsIssued.WithLabelValues(method).Inc()
}

// Registry is exposed for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
