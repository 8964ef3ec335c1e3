package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/ssfdre38/copilot-android-client-sub000/internal/infrastructure/monitoring"
)

// ConnectionCounter reports live WebSocket connections.
type ConnectionCounter interface {
	Connections() int64
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp"`
	Connections int64  `json:"connections"`
	Version     string `json:"version"`
}

// Handlers contains the bridge's HTTP handlers.
type Handlers struct {
	version   string
	counter   ConnectionCounter
	upgrade   gin.HandlerFunc
	metrics   *monitoring.Metrics
	startedAt time.Time
	now       func() time.Time
}

// NewHandlers creates the handler set. upgrade serves WebSocket requests that
// arrive on the root path.
func NewHandlers(version string, counter ConnectionCounter, upgrade gin.HandlerFunc, metrics *monitoring.Metrics) *Handlers {
	return &Handlers{
		version:   version,
		counter:   counter,
		upgrade:   upgrade,
		metrics:   metrics,
		startedAt: time.Now(),
		now:       time.Now,
	}
}

// Root upgrades WebSocket requests, so clients can use ws://host:port
// directly, and describes the service otherwise.
func (h *Handlers) Root(c *gin.Context) {
	if websocket.IsWebSocketUpgrade(c.Request) && h.upgrade != nil {
		h.upgrade(c)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "online",
		"service":   "Copilot CLI bridge",
		"version":   h.version,
		"websocket": "/ws",
		"health":    "/health",
	})
}

// Health handles the diagnostic health check.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:      "ok",
		Timestamp:   h.now().UTC().Format(time.RFC3339),
		Connections: h.counter.Connections(),
		Version:     h.version,
	})
}

// Stats returns counters tracked since startup.
func (h *Handlers) Stats(c *gin.Context) {
	body := gin.H{
		"uptime_seconds": int64(h.now().Sub(h.startedAt).Seconds()),
		"connections":    h.counter.Connections(),
	}
	if h.metrics != nil {
		h.metrics.UpdateUptime()
		snap := h.metrics.Snapshot()
		body["messages_in"] = snap.MessagesIn
		body["messages_out"] = snap.MessagesOut
	}
	c.JSON(http.StatusOK, body)
}
