package ws

import (
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/ssfdre38/copilot-android-client-sub000/internal/backend"
	"github.com/ssfdre38/copilot-android-client-sub000/internal/infrastructure/monitoring"
	"github.com/ssfdre38/copilot-android-client-sub000/internal/protocol"
	"github.com/ssfdre38/copilot-android-client-sub000/internal/shared/id"
	"go.uber.org/zap"
)

const (
	// Greeting is the message of the welcome envelope.
	Greeting = "Connected to Copilot CLI bridge"

	maxMessageSize     = 64 * 1024
	defaultAuthTimeout = 10 * time.Second
)

// Handler manages WebSocket connections from clients.
type Handler struct {
	backends    backend.Factory
	auth        *Authenticator
	logger      *zap.Logger
	metrics     *monitoring.Metrics
	upgrader    websocket.Upgrader
	authTimeout time.Duration

	connections atomic.Int64
	clients     sync.Map // map[string]*client
}

// NewHandler creates a handler. auth may be nil to accept every client.
func NewHandler(backends backend.Factory, auth *Authenticator, logger *zap.Logger, metrics *monitoring.Metrics) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		backends: backends,
		auth:     auth,
		logger:   logger.Named("ws"),
		metrics:  metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Native clients send no Origin; browsers are gated by CORS.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		authTimeout: defaultAuthTimeout,
	}
}

// WithAuthTimeout bounds how long a client may take to send its auth envelope.
func (h *Handler) WithAuthTimeout(d time.Duration) *Handler {
	if d > 0 {
		h.authTimeout = d
	}
	return h
}

// Connections returns the number of live connections.
func (h *Handler) Connections() int64 {
	return h.connections.Load()
}

// HandleConnection handles WebSocket upgrade and messages.
func (h *Handler) HandleConnection(c *gin.Context) {
	h.ServeHTTP(c.Writer, c.Request)
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	conn.SetReadLimit(maxMessageSize)

	cl := &client{
		id:        uuid.NewString(),
		conn:      conn,
		logger:    h.logger.With(zap.String("client", conn.RemoteAddr().String())),
		metrics:   h.metrics,
		sessionID: id.NewSessionID().String(),
	}
	cl.logger = cl.logger.With(zap.String("client_id", cl.id))

	h.clients.Store(cl.id, cl)
	h.connections.Add(1)
	if h.metrics != nil {
		h.metrics.IncWSConnections()
	}
	defer func() {
		h.clients.Delete(cl.id)
		h.connections.Add(-1)
		if h.metrics != nil {
			h.metrics.DecWSConnections()
		}
		_ = conn.Close()
		cl.logger.Info("Client disconnected")
	}()

	cl.logger.Info("Client connected")

	if h.auth.Required() && !h.authenticate(cl) {
		return
	}

	if err := cl.send(protocol.NewWelcome(Greeting, cl.id, cl.session())); err != nil {
		return
	}

	be, err := h.backends()
	if err == nil {
		err = be.Start(func(text string) {
			_ = cl.send(protocol.NewResponse(text, cl.session()))
		})
	}
	if err != nil {
		cl.logger.Error("Backend failed to start", zap.Error(err))
		cl.sendError("backend unavailable")
		cl.close(websocket.CloseInternalServerErr, "backend unavailable")
		return
	}
	defer be.Close()

	h.readLoop(cl, be)
}

// authenticate requires the first frame to be an auth envelope carrying a
// valid key. On failure the client gets an error envelope and close 1008.
func (h *Handler) authenticate(cl *client) bool {
	_ = cl.conn.SetReadDeadline(time.Now().Add(h.authTimeout))
	defer cl.conn.SetReadDeadline(time.Time{})

	_, data, err := cl.conn.ReadMessage()
	if err != nil {
		cl.logger.Debug("No auth envelope", zap.Error(err))
		cl.sendError("authentication required")
		cl.close(websocket.ClosePolicyViolation, "authentication required")
		return false
	}

	env, err := protocol.Decode(data)
	if err != nil || env.Type != protocol.TypeAuth || !h.auth.Verify(env.APIKey) {
		cl.logger.Warn("Authentication failed")
		cl.sendError("authentication failed")
		cl.close(websocket.ClosePolicyViolation, "authentication failed")
		return false
	}
	h.recordIn(protocol.TypeAuth)
	return true
}

func (h *Handler) readLoop(cl *client, be backend.Backend) {
	for {
		messageType, data, err := cl.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				cl.logger.Warn("WebSocket read error", zap.Error(err))
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		env, err := protocol.Decode(data)
		switch {
		case errors.Is(err, protocol.ErrNotJSON):
			h.recordIn("malformed")
			cl.sendError("invalid JSON")
			continue
		case err != nil:
			h.recordIn("unknown")
			cl.sendError("unknown message type")
			continue
		}
		h.recordIn(env.Type)
		cl.adopt(env.SessionID)

		switch env.Type {
		case protocol.TypeMessage:
			err = be.Message(env.Message)
		case protocol.TypeCommand:
			err = be.Command(env.Message)
		case protocol.TypeAuth:
			// Already authenticated, or auth is not required.
			continue
		default:
			cl.sendError("unknown message type")
			continue
		}
		if err != nil {
			cl.logger.Warn("Backend rejected input", zap.String("type", env.Type), zap.Error(err))
			cl.sendError(err.Error())
		}
	}
}

// Close disconnects every client with 1001 (going away).
func (h *Handler) Close() {
	h.clients.Range(func(_, v any) bool {
		v.(*client).close(websocket.CloseGoingAway, "server shutting down")
		return true
	})
}

func (h *Handler) recordIn(msgType string) {
	if h.metrics != nil {
		h.metrics.RecordWSMessage("in", msgType)
	}
}
