package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ssfdre38/copilot-android-client-sub000/internal/infrastructure/monitoring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedCounter int64

func (f fixedCounter) Connections() int64 { return int64(f) }

func setupRouter(h *Handlers) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/", h.Root)
	router.GET("/health", h.Health)
	router.GET("/stats", h.Stats)
	return router
}

func TestHealth(t *testing.T) {
	h := NewHandlers("1.2.3", fixedCounter(2), nil, nil)
	h.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }

	w := httptest.NewRecorder()
	setupRouter(h).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var body HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, HealthResponse{
		Status:      "ok",
		Timestamp:   "2026-03-01T12:00:00Z",
		Connections: 2,
		Version:     "1.2.3",
	}, body)
}

func TestRoot(t *testing.T) {
	upgraded := false
	h := NewHandlers("1.2.3", fixedCounter(0), func(c *gin.Context) {
		upgraded = true
		c.Status(http.StatusSwitchingProtocols)
	}, nil)
	router := setupRouter(h)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"websocket":"/ws"`)
	assert.False(t, upgraded)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.True(t, upgraded)
}

func TestStats(t *testing.T) {
	metrics := monitoring.NewMetrics()
	metrics.RecordWSMessage("in", "message")
	metrics.RecordWSMessage("out", "response")
	metrics.RecordWSMessage("out", "response")

	h := NewHandlers("dev", fixedCounter(1), nil, metrics)
	w := httptest.NewRecorder()
	setupRouter(h).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stats", nil))

	var body map[string]int64
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, int64(1), body["connections"])
	assert.Equal(t, int64(1), body["messages_in"])
	assert.Equal(t, int64(2), body["messages_out"])
}
