package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the client session and the bridge.
type Metrics struct {
	// HTTP metrics (bridge)
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Session metrics (client)
	ConnectAttempts *prometheus.CounterVec
	ConnectDuration prometheus.Histogram
	Retries         prometheus.Counter
	SessionErrors   *prometheus.CounterVec
	SessionState    *prometheus.GaugeVec

	// WebSocket metrics (both sides)
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time

	registry *prometheus.Registry

	mu       sync.RWMutex
	snapshot Snapshot
}

// Snapshot holds current values for the JSON health surface.
type Snapshot struct {
	ActiveConnections int64
	MessagesIn        int64
	MessagesOut       int64
	Retries           int64
}

// NewMetrics creates a metrics collector on its own registry so several
// instances (tests, a client and a bridge in one process) never collide.
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.NewRegistry())
}

// NewMetricsWith creates a metrics collector registered on reg.
func NewMetricsWith(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)

	m := &Metrics{
		startTime: time.Now(),
		registry:  reg,

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "copilot_bridge_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "copilot_bridge_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),

		ConnectAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "copilot_session_connect_attempts_total",
				Help: "Connection attempts by result (success or error kind)",
			},
			[]string{"result"},
		),
		ConnectDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "copilot_session_connect_duration_seconds",
				Help:    "Time from dial to open or failure",
				Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
		),
		Retries: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "copilot_session_retries_total",
				Help: "Automatic reconnect attempts scheduled",
			},
		),
		SessionErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "copilot_session_errors_total",
				Help: "Errors reported to the observer by kind",
			},
			[]string{"kind"},
		),
		SessionState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "copilot_session_state",
				Help: "1 for the current connection state, 0 otherwise",
			},
			[]string{"state"},
		),

		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "copilot_ws_connections",
				Help: "Number of open WebSocket connections",
			},
		),
		WSMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "copilot_ws_messages_total",
				Help: "Total number of WebSocket envelopes",
			},
			[]string{"direction", "type"},
		),

		Uptime: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "copilot_uptime_seconds",
				Help: "Process uptime in seconds",
			},
		),
	}

	return m
}

// Registry exposes the underlying registry for promhttp.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordConnect records the outcome of one dial.
func (m *Metrics) RecordConnect(result string, duration time.Duration) {
	m.ConnectAttempts.WithLabelValues(result).Inc()
	m.ConnectDuration.Observe(duration.Seconds())
}

// IncRetries counts a scheduled automatic retry.
func (m *Metrics) IncRetries() {
	m.Retries.Inc()
	m.mu.Lock()
	m.snapshot.Retries++
	m.mu.Unlock()
}

// RecordSessionError counts an error handed to the observer.
func (m *Metrics) RecordSessionError(kind string) {
	m.SessionErrors.WithLabelValues(kind).Inc()
}

// SetSessionState flips the state gauge so exactly one state reads 1.
func (m *Metrics) SetSessionState(current string, all []string) {
	for _, s := range all {
		v := 0.0
		if s == current {
			v = 1
		}
		m.SessionState.WithLabelValues(s).Set(v)
	}
}

// RecordWSMessage records a WebSocket envelope. direction is "in" or "out".
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
	m.mu.Lock()
	if direction == "in" {
		m.snapshot.MessagesIn++
	} else {
		m.snapshot.MessagesOut++
	}
	m.mu.Unlock()
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	m.WSConnections.Inc()
	m.mu.Lock()
	m.snapshot.ActiveConnections++
	m.mu.Unlock()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	m.WSConnections.Dec()
	m.mu.Lock()
	m.snapshot.ActiveConnections--
	m.mu.Unlock()
}

// Snapshot returns a copy of the tracked values.
func (m *Metrics) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}

// UpdateUptime refreshes the uptime gauge.
func (m *Metrics) UpdateUptime() {
	m.Uptime.Set(time.Since(m.startTime).Seconds())
}
