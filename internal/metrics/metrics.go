package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "slidebox"

// Failure reasons recorded on LoginFailures.
const (
	ReasonProtocol     = "protocol"
	ReasonUnknownToken = "unknown_token"
	ReasonStore        = "store"
	ReasonBadRequest   = "bad_request"
)

// Metrics holds the application counters. A nil *Metrics is valid and
// records nothing, so components can be built without it in tests.
type Metrics struct {
	registry       *prometheus.Registry
	loginStarts    *prometheus.CounterVec
	loginSuccesses *prometheus.CounterVec
	loginFailures  *prometheus.CounterVec
	cookieRejects  *prometheus.CounterVec
	tokensPurged   prometheus.Counter
}

// New creates the counters on a private registry together with the Go and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		loginStarts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_started_total",
			Help:      "Authorization URLs issued.",
		}, []string{"provider"}),
		loginSuccesses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_completed_total",
			Help:      "Logins that reached the profile-fetched state.",
		}, []string{"provider"}),
		loginFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_failed_total",
			Help:      "Login attempts that fell back to unauthenticated.",
		}, []string{"provider", "reason"}),
		cookieRejects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_cookie_rejected_total",
			Help:      "Session cookies that failed verification.",
		}, []string{"reason"}),
		tokensPurged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pending_tokens_purged_total",
			Help:      "Expired pending request tokens removed by the purger.",
		}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.loginStarts,
		m.loginSuccesses,
		m.loginFailures,
		m.cookieRejects,
		m.tokensPurged,
	)
	return m
}

func (m *Metrics) LoginStarted(provider string) {
	if m == nil {
		return
	}
	m.loginStarts.WithLabelValues(provider).Inc()
}

func (m *Metrics) LoginCompleted(provider string) {
	if m == nil {
		return
	}
	m.loginSuccesses.WithLabelValues(provider).Inc()
}

func (m *Metrics) LoginFailed(provider, reason string) {
	if m == nil {
		return
	}
	m.loginFailures.WithLabelValues(provider, reason).Inc()
}

// CookieRejected counts a cookie that failed to decode; reason is
// "invalid_signature" or "malformed".
func (m *Metrics) CookieRejected(reason string) {
	if m == nil {
		return
	}
	m.cookieRejects.WithLabelValues(reason).Inc()
}

func (m *Metrics) TokensPurged(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.tokensPurged.Add(float64(n))
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
