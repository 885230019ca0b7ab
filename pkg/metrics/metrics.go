// Package metrics collects and exposes Prometheus metrics for the auth
// subsystem.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is the interface services use to record auth outcomes.
type Recorder interface {
	RecordLogin(method string, success bool)
	RecordRegistration(success bool)
	RecordOAuthFailure(stage string)
	RecordSessionIssued()
	RecordSessionRevoked()
	RecordGateRedirect(reason string)
}

// Collector implements Recorder on Prometheus counters.
type Collector struct {
	logins        *prometheus.CounterVec
	registrations *prometheus.CounterVec
	oauthFailures *prometheus.CounterVec
	sessionsIssue prometheus.Counter
	sessionsGone  prometheus.Counter
	gateRedirects *prometheus.CounterVec
}

// NewCollector registers the auth metrics on reg and returns the
// collector.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "finza_auth_logins_total",
			Help: "Login attempts by method and result",
		}, []string{"method", "result"}),
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "finza_auth_registrations_total",
			Help: "Registration attempts by result",
		}, []string{"result"}),
		oauthFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "finza_auth_oauth_failures_total",
			Help: "OAuth flow failures by stage",
		}, []string{"stage"}),
		sessionsIssue: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "finza_auth_sessions_issued_total",
			Help: "Server-side sessions created",
		}),
		sessionsGone: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "finza_auth_sessions_revoked_total",
			Help: "Server-side sessions deleted",
		}),
		gateRedirects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "finza_gate_redirects_total",
			Help: "Request gate redirects by reason",
		}, []string{"reason"}),
	}

	reg.MustRegister(
		c.logins,
		c.registrations,
		c.oauthFailures,
		c.sessionsIssue,
		c.sessionsGone,
		c.gateRedirects,
	)

	return c
}

func (c *Collector) RecordLogin(method string, success bool) {
	c.logins.WithLabelValues(method, result(success)).Inc()
}

func (c *Collector) RecordRegistration(success bool) {
	c.registrations.WithLabelValues(result(success)).Inc()
}

func (c *Collector) RecordOAuthFailure(stage string) {
	c.oauthFailures.WithLabelValues(stage).Inc()
}

func (c *Collector) RecordSessionIssued() { c.sessionsIssue.Inc() }

func (c *Collector) RecordSessionRevoked() { c.sessionsGone.Inc() }

func (c *Collector) RecordGateRedirect(reason string) {
	c.gateRedirects.WithLabelValues(reason).Inc()
}

func result(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}

// Handler returns the Prometheus scrape handler.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Noop discards all recordings. Used in tests.
type Noop struct{}

func (Noop) RecordLogin(string, bool)  {}
func (Noop) RecordRegistration(bool)   {}
func (Noop) RecordOAuthFailure(string) {}
func (Noop) RecordSessionIssued()      {}
func (Noop) RecordSessionRevoked()     {}
func (Noop) RecordGateRedirect(string) {}

var _ Recorder = (*Collector)(nil)
var _ Recorder = Noop{}
