package monitoring

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsIsolated(t *testing.T) {
	// Two collectors must not fight over a global registry.
	a := NewMetrics()
	b := NewMetrics()

	a.IncRetries()

	assert.Equal(t, 1.0, testutil.ToFloat64(a.Retries))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.Retries))
}

func TestSetSessionState(t *testing.T) {
	m := NewMetrics()
	states := []string{"DISCONNECTED", "CONNECTING", "CONNECTED", "ERROR"}

	m.SetSessionState("CONNECTING", states)
	m.SetSessionState("CONNECTED", states)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionState.WithLabelValues("CONNECTED")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.SessionState.WithLabelValues("CONNECTING")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.SessionState.WithLabelValues("ERROR")))
}

func TestSnapshot(t *testing.T) {
	m := NewMetrics()

	m.IncWSConnections()
	m.IncWSConnections()
	m.DecWSConnections()
	m.RecordWSMessage("in", "message")
	m.RecordWSMessage("out", "response")
	m.RecordWSMessage("out", "welcome")
	m.RecordConnect("success", 15*time.Millisecond)
	m.RecordSessionError("ConnectTimeout")

	snap := m.Snapshot()
	assert.Equal(t, int64(1), snap.ActiveConnections)
	assert.Equal(t, int64(1), snap.MessagesIn)
	assert.Equal(t, int64(2), snap.MessagesOut)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.WSConnections))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ConnectAttempts.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionErrors.WithLabelValues("ConnectTimeout")))
}

func TestMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetrics()

	router := gin.New()
	router.Use(Middleware(m))
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/metrics", GinHandler(m))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	require.Equal(t, http.StatusNotFound, w.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/health", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "unmatched", "404")))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "copilot_bridge_http_requests_total")
	assert.Contains(t, w.Body.String(), "copilot_uptime_seconds")
}
