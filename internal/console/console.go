package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/ssfdre38/copilot-android-client-sub000/internal/health"
	"github.com/ssfdre38/copilot-android-client-sub000/internal/session"
	"go.uber.org/zap"
)

// Session is the part of session.Manager the console drives.
type Session interface {
	Connect(ctx context.Context, rawURL, token string) error
	Disconnect()
	Send(text, sessionID string) bool
	SendCommand(command, sessionID string) bool
	State() session.State
	SessionID() string
	SetSessionID(sessionID string)
}

// Prober checks the bridge's health endpoint.
type Prober interface {
	Check(ctx context.Context, serverURL string) (*health.Status, error)
}

// Console reads typed lines and turns them into session calls.
type Console struct {
	session  Session
	renderer *Renderer
	prober   Prober
	logger   *zap.Logger
	url      string
	token    string
}

// New creates a console for the bridge at url.
func New(s Session, r *Renderer, url, token string) *Console {
	return &Console{
		session:  s,
		renderer: r,
		url:      url,
		token:    token,
		logger:   zap.NewNop(),
	}
}

// WithProber enables /health.
func (c *Console) WithProber(p Prober) *Console {
	c.prober = p
	return c
}

// WithLogger sets the console's logger.
func (c *Console) WithLogger(l *zap.Logger) *Console {
	if l != nil {
		c.logger = l.Named("console")
	}
	return c
}

// Run processes lines from in until /quit, EOF or ctx is cancelled.
func (c *Console) Run(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	errc := make(chan error, 1)
	// A Scan blocked on in is not interrupted by ctx; the goroutine ends with
	// the next line or when in is closed.
	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		errc <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errc:
			return err
		case line := <-lines:
			if !c.Handle(ctx, line) {
				return nil
			}
		}
	}
}

// Handle executes one line. It returns false when the user asked to quit.
func (c *Console) Handle(ctx context.Context, line string) bool {
	in := ParseInput(line)
	switch in.Action {
	case ActionNone:
	case ActionQuit:
		return false
	case ActionChat:
		if !c.session.Send(in.Text, "") {
			c.renderer.Info("not connected, message dropped (state %s)", c.session.State())
		}
	case ActionCommand:
		if !c.session.SendCommand(in.Text, "") {
			c.renderer.Info("not connected, command dropped (state %s)", c.session.State())
		}
	case ActionStatus:
		c.renderer.Info("%s %s session=%s", c.session.State(), c.url, orNone(c.session.SessionID()))
	case ActionSession:
		if in.Text == "" {
			c.renderer.Info("session=%s", orNone(c.session.SessionID()))
			break
		}
		c.session.SetSessionID(in.Text)
		c.renderer.Info("session set to %s", in.Text)
	case ActionReconnect:
		c.session.Disconnect()
		if err := c.session.Connect(ctx, c.url, c.token); err != nil {
			c.logger.Debug("Reconnect failed", zap.Error(err))
		}
	case ActionHealth:
		c.probe(ctx)
	}
	return true
}

func (c *Console) probe(ctx context.Context) {
	if c.prober == nil {
		c.renderer.Info("health probe not configured")
		return
	}
	status, err := c.prober.Check(ctx, c.url)
	if err != nil {
		c.renderer.Info("health check failed: %v", err)
		return
	}
	line := fmt.Sprintf("health %s, %d connection(s), version %s", status.Status, status.Connections, orNone(status.Version))
	if ts, err := status.Time(); err == nil {
		line += ", server time " + ts.UTC().Format(time.RFC3339)
	}
	c.renderer.Info("%s", line)
}

func orNone(s string) string {
	if s == "" {
		return "<none>"
	}
	return s
}
