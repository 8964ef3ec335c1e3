package ws

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/ssfdre38/copilot-android-client-sub000/internal/backend"
	"github.com/ssfdre38/copilot-android-client-sub000/internal/infrastructure/monitoring"
	"github.com/ssfdre38/copilot-android-client-sub000/internal/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T, apiKey string, opts ...func(*Handler)) (*Handler, string) {
	t.Helper()
	factory, err := backend.NewFactory(backend.KindEcho, "")
	require.NoError(t, err)
	auth, err := NewAuthenticator(apiKey)
	require.NoError(t, err)

	h := NewHandler(factory, auth, nil, monitoring.NewMetrics())
	for _, opt := range opts {
		opt(h)
	}
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return h, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func write(t *testing.T, conn *websocket.Conn, env protocol.Envelope) {
	t.Helper()
	data, err := protocol.Encode(env)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))
}

func read(t *testing.T, conn *websocket.Conn) protocol.Envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	env, err := protocol.Decode(data)
	require.NoError(t, err)
	return env
}

func TestWelcome(t *testing.T) {
	_, url := newTestHandler(t, "")
	conn := dial(t, url)

	welcome := read(t, conn)
	assert.Equal(t, protocol.TypeWelcome, welcome.Type)
	assert.Equal(t, Greeting, welcome.Message)
	_, err := uuid.Parse(welcome.ClientID)
	assert.NoError(t, err)
	assert.True(t, strings.HasPrefix(welcome.SessionID, "sess_"), welcome.SessionID)
}

func TestEchoMessagesAndCommands(t *testing.T) {
	_, url := newTestHandler(t, "")
	conn := dial(t, url)
	read(t, conn)

	write(t, conn, protocol.NewMessage("hello", "s1"))
	assert.Equal(t, protocol.NewResponse("Echo: hello", "s1"), read(t, conn))

	write(t, conn, protocol.NewCommand(protocol.CommandInterrupt, ""))
	assert.Equal(t, protocol.NewResponse("Command received: ^C", "s1"), read(t, conn))
}

func TestProtocolErrors(t *testing.T) {
	_, url := newTestHandler(t, "")
	conn := dial(t, url)
	welcome := read(t, conn)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	assert.Equal(t, protocol.NewError("invalid JSON", welcome.SessionID), read(t, conn))

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"typing"}`)))
	assert.Equal(t, protocol.NewError("unknown message type", welcome.SessionID), read(t, conn))

	write(t, conn, protocol.NewResponse("clients do not send responses", ""))
	assert.Equal(t, "unknown message type", read(t, conn).Error)

	// The connection survives protocol errors.
	write(t, conn, protocol.NewMessage("still here", ""))
	assert.Equal(t, "Echo: still here", read(t, conn).Message)
}

func TestAuthentication(t *testing.T) {
	_, url := newTestHandler(t, "s3cret")

	t.Run("valid key", func(t *testing.T) {
		conn := dial(t, url)
		write(t, conn, protocol.NewAuth("s3cret"))
		assert.Equal(t, protocol.TypeWelcome, read(t, conn).Type)

		write(t, conn, protocol.NewMessage("hi", "s1"))
		assert.Equal(t, "Echo: hi", read(t, conn).Message)
	})

	t.Run("wrong key", func(t *testing.T) {
		conn := dial(t, url)
		write(t, conn, protocol.NewAuth("guess"))

		env := read(t, conn)
		assert.Equal(t, protocol.TypeError, env.Type)
		assert.Equal(t, "authentication failed", env.Error)

		_, _, err := conn.ReadMessage()
		assert.True(t, websocket.IsCloseError(err, websocket.ClosePolicyViolation), "got %v", err)
	})

	t.Run("message before auth", func(t *testing.T) {
		conn := dial(t, url)
		write(t, conn, protocol.NewMessage("hi", ""))

		assert.Equal(t, "authentication failed", read(t, conn).Error)
		_, _, err := conn.ReadMessage()
		assert.True(t, websocket.IsCloseError(err, websocket.ClosePolicyViolation), "got %v", err)
	})
}

func TestAuthTimeout(t *testing.T) {
	_, url := newTestHandler(t, "s3cret", func(h *Handler) { h.WithAuthTimeout(50 * time.Millisecond) })

	conn := dial(t, url)
	assert.Equal(t, "authentication required", read(t, conn).Error)
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.ClosePolicyViolation), "got %v", err)
}

func TestConnectionsAndClose(t *testing.T) {
	h, url := newTestHandler(t, "")

	a := dial(t, url)
	read(t, a)
	b := dial(t, url)
	read(t, b)
	assert.Eventually(t, func() bool { return h.Connections() == 2 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, a.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	assert.Eventually(t, func() bool { return h.Connections() == 1 }, 2*time.Second, 10*time.Millisecond)

	h.Close()
	_, _, err := b.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
	assert.Eventually(t, func() bool { return h.Connections() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestAuthenticator(t *testing.T) {
	none, err := NewAuthenticator("")
	require.NoError(t, err)
	assert.Nil(t, none)
	assert.False(t, none.Required())
	assert.True(t, none.Verify("anything"))

	auth, err := NewAuthenticator("key")
	require.NoError(t, err)
	assert.True(t, auth.Required())
	assert.True(t, auth.Verify("key"))
	assert.False(t, auth.Verify("Key"))
	assert.False(t, auth.Verify(""))
}
