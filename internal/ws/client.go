package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/ssfdre38/copilot-android-client-sub000/internal/infrastructure/monitoring"
	"github.com/ssfdre38/copilot-android-client-sub000/internal/protocol"
	"go.uber.org/zap"
)

const writeWait = 10 * time.Second

// client is one accepted connection. Backend output and handler replies
// share the socket, so writes go through writeMu.
type client struct {
	id      string
	conn    *websocket.Conn
	logger  *zap.Logger
	metrics *monitoring.Metrics

	writeMu sync.Mutex

	mu        sync.Mutex
	sessionID string
}

func (c *client) session() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// adopt records the session id a client attached to its latest envelope.
func (c *client) adopt(sessionID string) {
	if sessionID == "" {
		return
	}
	c.mu.Lock()
	c.sessionID = sessionID
	c.mu.Unlock()
}

func (c *client) send(env protocol.Envelope) error {
	data, err := protocol.Encode(env)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		c.logger.Debug("Write failed", zap.String("type", env.Type), zap.Error(err))
		return err
	}
	if c.metrics != nil {
		c.metrics.RecordWSMessage("out", env.Type)
	}
	return nil
}

func (c *client) sendError(text string) {
	_ = c.send(protocol.NewError(text, c.session()))
}

// close sends a close frame with code and reason, then drops the socket.
func (c *client) close(code int, reason string) {
	c.writeMu.Lock()
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason), time.Now().Add(time.Second))
	c.writeMu.Unlock()
	_ = c.conn.Close()
}
