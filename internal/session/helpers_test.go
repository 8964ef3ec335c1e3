package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/ssfdre38/copilot-android-client-sub000/internal/infrastructure/resilience"
	"github.com/ssfdre38/copilot-android-client-sub000/internal/protocol"
)

// recorder is an Observer that keeps everything it is told.
type recorder struct {
	mu       sync.Mutex
	states   []State
	messages []protocol.Envelope
	errs     []error
}

func (r *recorder) OnStateChanged(s State) {
	r.mu.Lock()
	r.states = append(r.states, s)
	r.mu.Unlock()
}

func (r *recorder) OnMessage(env protocol.Envelope) {
	r.mu.Lock()
	r.messages = append(r.messages, env)
	r.mu.Unlock()
}

func (r *recorder) OnError(err error) {
	r.mu.Lock()
	r.errs = append(r.errs, err)
	r.mu.Unlock()
}

func (r *recorder) States() []State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]State(nil), r.states...)
}

func (r *recorder) Messages() []protocol.Envelope {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]protocol.Envelope(nil), r.messages...)
}

func (r *recorder) Errors() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.errs...)
}

func (r *recorder) LastState() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.states) == 0 {
		return StateDisconnected
	}
	return r.states[len(r.states)-1]
}

// fakeDialer fails every dial with err, or blocks until ctx is done when
// block is set.
type fakeDialer struct {
	err   error
	block bool

	calls atomic.Int32
	mu    sync.Mutex
	times []time.Time
}

func (d *fakeDialer) Dial(ctx context.Context, url string, header http.Header) (Conn, error) {
	d.calls.Add(1)
	d.mu.Lock()
	d.times = append(d.times, time.Now())
	d.mu.Unlock()

	if d.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return nil, d.err
}

func (d *fakeDialer) Calls() int { return int(d.calls.Load()) }

func (d *fakeDialer) Times() []time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]time.Time(nil), d.times...)
}

func testConfig(retries int, delay time.Duration) Config {
	return Config{
		ConnectTimeout: 2 * time.Second,
		WriteTimeout:   time.Second,
		Retry:          resilience.Policy{MaxRetries: retries, Delay: delay},
	}
}

// wsServer is a scripted bridge. Each accepted connection is passed to
// handle on its own goroutine.
type wsServer struct {
	*httptest.Server
	frames chan []byte
}

func newWSServer(t *testing.T, handle func(conn *websocket.Conn, frames chan<- []byte)) *wsServer {
	t.Helper()
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	s := &wsServer{frames: make(chan []byte, 64)}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		handle(conn, s.frames)
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *wsServer) URL() string {
	return "ws" + strings.TrimPrefix(s.Server.URL, "http")
}

// collect forwards every text frame to frames until the socket closes.
func collect(conn *websocket.Conn, frames chan<- []byte) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		frames <- data
	}
}

func nextFrame(t *testing.T, frames <-chan []byte) []byte {
	t.Helper()
	select {
	case data := <-frames:
		return data
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for frame")
		return nil
	}
}
