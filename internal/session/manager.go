package session

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/ssfdre38/copilot-android-client-sub000/internal/infrastructure/monitoring"
	"github.com/ssfdre38/copilot-android-client-sub000/internal/infrastructure/resilience"
	"github.com/ssfdre38/copilot-android-client-sub000/internal/protocol"
	"github.com/ssfdre38/copilot-android-client-sub000/internal/shared/id"
	"go.uber.org/zap"
)

// Config tunes a Manager.
type Config struct {
	ConnectTimeout time.Duration
	WriteTimeout   time.Duration
	Retry          resilience.Policy
}

// DefaultConfig returns a 30s connect deadline and three retries 2s apart.
func DefaultConfig() Config {
	return Config{
		ConnectTimeout: 30 * time.Second,
		WriteTimeout:   10 * time.Second,
		Retry:          resilience.DefaultPolicy(),
	}
}

// Manager owns one connection to a bridge and reports its lifecycle to an
// Observer.
type Manager struct {
	cfg      Config
	observer Observer
	dialer   Dialer
	logger   *zap.Logger
	metrics  *monitoring.Metrics
	events   *dispatcher

	mu        sync.Mutex
	state     State
	gen       uint64
	current   *lineage
	sessionID string
	closed    bool
}

const (
	// sendQueueSize bounds the envelopes waiting for the writer. Send drops
	// when it is full.
	sendQueueSize = 64
	closeTimeout  = time.Second
)

// lineage is one user-initiated connect and the retries that follow it.
type lineage struct {
	gen    uint64
	target string
	token  string
	ctx    context.Context
	cancel context.CancelFunc
	budget *resilience.Budget
	// link is guarded by Manager.mu.
	link *link
	// wg tracks the attempt, retry, reader and writer goroutines.
	wg sync.WaitGroup
}

// link is one open socket. Only its writer goroutine writes data frames.
type link struct {
	conn Conn
	out  chan protocol.Envelope
	done chan struct{}
	once sync.Once
}

func newLink(conn Conn) *link {
	return &link{
		conn: conn,
		out:  make(chan protocol.Envelope, sendQueueSize),
		done: make(chan struct{}),
	}
}

// stop ends the writer. Queued envelopes are discarded.
func (k *link) stop() {
	k.once.Do(func() { close(k.done) })
}

// NewManager creates a disconnected Manager. A nil observer discards
// notifications.
func NewManager(observer Observer, cfg Config) *Manager {
	defaults := DefaultConfig()
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = defaults.ConnectTimeout
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaults.WriteTimeout
	}
	if observer == nil {
		observer = ObserverFuncs{}
	}
	return &Manager{
		cfg:      cfg,
		observer: observer,
		dialer:   NewWebSocketDialer(nil),
		logger:   zap.NewNop(),
		events:   newDispatcher(),
		state:    StateDisconnected,
	}
}

// WithDialer replaces the transport. Call before Connect.
func (m *Manager) WithDialer(d Dialer) *Manager {
	if d != nil {
		m.dialer = d
	}
	return m
}

// WithLogger sets the logger. Call before Connect.
func (m *Manager) WithLogger(l *zap.Logger) *Manager {
	if l != nil {
		m.logger = l.Named("session")
	}
	return m
}

// WithMetrics enables metrics collection. Call before Connect.
func (m *Manager) WithMetrics(metrics *monitoring.Metrics) *Manager {
	m.metrics = metrics
	if metrics != nil {
		metrics.SetSessionState(StateDisconnected.String(), stateLabels())
	}
	return m
}

// Connect opens a connection to rawURL. An invalid URL fails immediately with
// KindInvalidURL. Calling Connect while connecting or connected does nothing.
// The first attempt runs on the caller's goroutine and its result is returned;
// eligible failures are then retried in the background until the budget runs
// out or Disconnect is called.
func (m *Manager) Connect(ctx context.Context, rawURL, token string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	target, err := ParseURL(rawURL)
	if err != nil {
		m.logger.Warn("Rejected server URL", zap.Error(err))
		m.mu.Lock()
		m.postErrorLocked(err.(*Error))
		m.mu.Unlock()
		return err
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	if m.state == StateConnecting || m.state == StateConnected {
		state := m.state
		m.mu.Unlock()
		m.logger.Debug("Connect ignored", zap.Stringer("state", state))
		return nil
	}

	// A manual connect from ERROR supersedes any retry still pending.
	m.endLineageLocked()

	m.gen++
	lctx, cancel := context.WithCancel(context.Background())
	l := &lineage{
		gen:    m.gen,
		target: target.String(),
		token:  token,
		ctx:    lctx,
		cancel: cancel,
		budget: m.cfg.Retry.NewBudget(),
	}
	m.current = l
	l.wg.Add(1)
	m.setStateLocked(StateConnecting)
	m.mu.Unlock()

	defer l.wg.Done()
	return m.attempt(ctx, l)
}

// attempt dials once for l and moves the state machine to CONNECTED or ERROR.
func (m *Manager) attempt(ctx context.Context, l *lineage) error {
	dialCtx, cancelDial := context.WithTimeout(ctx, m.cfg.ConnectTimeout)
	defer cancelDial()
	stop := context.AfterFunc(l.ctx, cancelDial)
	defer stop()

	header := http.Header{}
	if l.token != "" {
		header.Set("Authorization", "Bearer "+l.token)
	}

	m.logger.Info("Connecting",
		zap.String("url", l.target),
		zap.Uint64("generation", l.gen),
		zap.Int("retry", l.budget.Attempts()))

	start := time.Now()
	conn, err := m.dialer.Dial(dialCtx, l.target, header)
	elapsed := time.Since(start)

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != l || l.ctx.Err() != nil {
		if conn != nil {
			_ = conn.Close()
		}
		m.logger.Debug("Connect abandoned", zap.Uint64("generation", l.gen))
		return ErrDisconnected
	}

	if err != nil {
		serr := classify(err)
		m.recordConnect(serr.Kind.String(), elapsed)
		m.logger.Warn("Connect failed",
			zap.String("url", l.target),
			zap.Stringer("kind", serr.Kind),
			zap.Duration("elapsed", elapsed),
			zap.Error(err))
		m.failLocked(l, serr)
		return serr
	}

	lk := newLink(conn)
	l.link = lk
	l.budget.Reset()
	m.recordConnect("success", elapsed)

	// The queue is empty, so auth is first on the wire.
	if l.token != "" {
		lk.out <- protocol.NewAuth(l.token)
	}

	m.setStateLocked(StateConnected)
	m.logger.Info("Connected", zap.String("url", l.target), zap.Duration("elapsed", elapsed))

	l.wg.Add(2)
	go m.writeLoop(l, lk)
	go m.readLoop(l, lk)
	return nil
}

// failLocked moves l to ERROR, schedules a retry when allowed and notifies
// the observer.
func (m *Manager) failLocked(l *lineage, serr *Error) {
	m.setStateLocked(StateError)

	notify := *serr
	notify.Retrying = false
	if serr.Retryable() {
		if delay, ok := l.budget.Next(); ok {
			notify.Retrying = true
			if m.metrics != nil {
				m.metrics.IncRetries()
			}
			m.logger.Info("Scheduling reconnect",
				zap.Duration("delay", delay),
				zap.Int("attempt", l.budget.Attempts()),
				zap.Int("max", m.cfg.Retry.MaxRetries))
			l.wg.Add(1)
			go m.retryAfter(l, delay)
		} else {
			m.logger.Warn("Reconnect budget exhausted", zap.Int("attempts", l.budget.Attempts()))
		}
	}
	m.postErrorLocked(&notify)
}

func (m *Manager) retryAfter(l *lineage, delay time.Duration) {
	defer l.wg.Done()

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-l.ctx.Done():
		return
	case <-timer.C:
	}

	m.mu.Lock()
	if m.current != l || m.state != StateError || l.ctx.Err() != nil {
		m.mu.Unlock()
		return
	}
	m.setStateLocked(StateConnecting)
	m.mu.Unlock()

	_ = m.attempt(l.ctx, l)
}

func (m *Manager) readLoop(l *lineage, lk *link) {
	defer l.wg.Done()

	for {
		messageType, data, err := lk.conn.ReadMessage()
		if err != nil {
			m.dropLink(l, lk, err)
			return
		}
		if messageType != websocket.TextMessage {
			m.logger.Debug("Ignoring non-text frame", zap.Int("type", messageType))
			continue
		}
		m.handleFrame(l, lk, data)
	}
}

// writeLoop drains the send queue onto the socket until the link stops.
func (m *Manager) writeLoop(l *lineage, lk *link) {
	defer l.wg.Done()

	for {
		select {
		case <-lk.done:
			return
		case env := <-lk.out:
			data, err := protocol.Encode(env)
			if err != nil {
				m.logger.Warn("Dropping unencodable envelope", zap.String("type", env.Type), zap.Error(err))
				continue
			}
			err = lk.conn.SetWriteDeadline(time.Now().Add(m.cfg.WriteTimeout))
			if err == nil {
				err = lk.conn.WriteMessage(websocket.TextMessage, data)
			}
			if err != nil {
				m.logger.Warn("Write failed", zap.String("type", env.Type), zap.Error(err))
				m.dropLink(l, lk, err)
				return
			}
			m.recordMessage("out", env.Type)
		}
	}
}

func (m *Manager) handleFrame(l *lineage, lk *link, data []byte) {
	env, err := protocol.Decode(data)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != l || l.link != lk {
		return
	}

	switch {
	case err == nil:
		if env.Type == protocol.TypeWelcome && env.SessionID != "" && m.sessionID == "" {
			m.sessionID = env.SessionID
		}
		m.recordMessage("in", env.Type)
		m.postMessageLocked(env)
	case errors.Is(err, protocol.ErrUnknownType):
		// JSON without a type we understand: surface the raw payload.
		m.recordMessage("in", "unknown")
		m.postMessageLocked(protocol.NewResponse(string(data), env.SessionID))
	default:
		m.logger.Warn("Malformed frame from server", zap.Int("bytes", len(data)))
		m.recordMessage("in", "malformed")
		m.postErrorLocked(&Error{Kind: KindMalformedMessage, Raw: string(data), Err: err})
		m.postMessageLocked(protocol.NewResponse(string(data), ""))
	}
}

// dropLink tears down lk after its reader or writer failed. The first failure
// decides the outcome; the other goroutine's error is ignored.
func (m *Manager) dropLink(l *lineage, lk *link, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	lk.stop()
	_ = lk.conn.Close()

	// Local disconnects, superseded lineages and already dropped links end quietly.
	if m.current != l || l.link != lk || l.ctx.Err() != nil {
		return
	}
	l.link = nil

	if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		m.logger.Info("Server closed the connection")
		m.current = nil
		l.cancel()
		m.setStateLocked(StateDisconnected)
		return
	}

	serr := classify(err)
	m.logger.Warn("Connection lost",
		zap.Stringer("kind", serr.Kind),
		zap.Int("code", serr.Code),
		zap.Error(err))
	m.failLocked(l, serr)
}

// Send queues a chat message for the socket writer and never blocks. It
// returns false, without notifying the observer, when the session is not
// connected or the send queue is full. An empty sessionID uses the Manager's
// session id.
func (m *Manager) Send(text, sessionID string) bool {
	return m.send(protocol.TypeMessage, text, sessionID)
}

// SendCommand writes a command token such as protocol.CommandInterrupt.
func (m *Manager) SendCommand(command, sessionID string) bool {
	return m.send(protocol.TypeCommand, command, sessionID)
}

func (m *Manager) send(kind, text, sessionID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateConnected || m.current == nil || m.current.link == nil {
		m.logger.Debug("Dropping outbound envelope", zap.String("type", kind), zap.Stringer("state", m.state))
		return false
	}
	if sessionID == "" {
		sessionID = m.sessionIDLocked()
	}

	env := protocol.Envelope{Type: kind, Message: text, SessionID: sessionID}
	select {
	case m.current.link.out <- env:
		return true
	default:
		m.logger.Warn("Send queue full, dropping envelope",
			zap.String("type", kind),
			zap.Int("queued", sendQueueSize))
		return false
	}
}

// Disconnect cancels any pending dial or retry, discards queued envelopes,
// closes the socket with code 1000 and waits for the session's goroutines to
// exit. A stalled write delays it by at most one second. It is idempotent.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	l := m.current
	m.current = nil
	var lk *link
	if l != nil {
		l.cancel()
		lk = l.link
		l.link = nil
		if lk != nil {
			lk.stop()
		}
	}
	m.setStateLocked(StateDisconnected)
	m.mu.Unlock()

	if l == nil {
		return
	}
	if lk != nil {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = lk.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeTimeout))
		_ = lk.conn.Close()
	}
	l.wg.Wait()
	m.logger.Info("Disconnected", zap.Uint64("generation", l.gen))
}

// Close disconnects and stops observer delivery. Connect fails afterwards.
func (m *Manager) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	m.Disconnect()
	m.events.stop()
	return nil
}

// IsConnected reports whether the state is CONNECTED.
func (m *Manager) IsConnected() bool {
	return m.State() == StateConnected
}

// State returns the current state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// SessionID returns the id attached to outbound envelopes, or "" before the
// first send or welcome.
func (m *Manager) SessionID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessionID
}

// SetSessionID overrides the id attached to outbound envelopes.
func (m *Manager) SetSessionID(sessionID string) {
	m.mu.Lock()
	m.sessionID = sessionID
	m.mu.Unlock()
}

func (m *Manager) sessionIDLocked() string {
	if m.sessionID == "" {
		m.sessionID = id.NewSessionID().String()
	}
	return m.sessionID
}

func (m *Manager) endLineageLocked() {
	if m.current == nil {
		return
	}
	m.current.cancel()
	if lk := m.current.link; lk != nil {
		lk.stop()
		_ = lk.conn.Close()
		m.current.link = nil
	}
	m.current = nil
}

func (m *Manager) setStateLocked(s State) {
	if m.state == s {
		return
	}
	prev := m.state
	m.state = s
	if m.metrics != nil {
		m.metrics.SetSessionState(s.String(), stateLabels())
	}
	m.logger.Debug("State changed", zap.Stringer("from", prev), zap.Stringer("to", s))
	observer := m.observer
	m.events.post(func() { observer.OnStateChanged(s) })
}

func (m *Manager) postMessageLocked(env protocol.Envelope) {
	observer := m.observer
	m.events.post(func() { observer.OnMessage(env) })
}

func (m *Manager) postErrorLocked(err *Error) {
	if m.metrics != nil {
		m.metrics.RecordSessionError(err.Kind.String())
	}
	observer := m.observer
	m.events.post(func() { observer.OnError(err) })
}

func (m *Manager) recordConnect(result string, elapsed time.Duration) {
	if m.metrics != nil {
		m.metrics.RecordConnect(result, elapsed)
	}
}

func (m *Manager) recordMessage(direction, msgType string) {
	if m.metrics != nil {
		m.metrics.RecordWSMessage(direction, msgType)
	}
}
