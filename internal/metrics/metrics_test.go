package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()
	m.LoginStarted("dropbox")
	m.LoginStarted("dropbox")
	m.LoginCompleted("dropbox")
	m.LoginFailed("dropbox", ReasonUnknownToken)
	m.CookieRejected("malformed")
	m.TokensPurged(3)
	m.TokensPurged(0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.loginStarts.WithLabelValues("dropbox")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.loginSuccesses.WithLabelValues("dropbox")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.loginFailures.WithLabelValues("dropbox", ReasonUnknownToken)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cookieRejects.WithLabelValues("malformed")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.tokensPurged))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.LoginStarted("dropbox")
		m.LoginCompleted("dropbox")
		m.LoginFailed("dropbox", ReasonProtocol)
		m.CookieRejected("invalid_signature")
		m.TokensPurged(1)
	})
}

func TestHandler(t *testing.T) {
	m := New()
	m.LoginStarted("twitter")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `slidebox_login_started_total{provider="twitter"} 1`)
}
