package backend

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"github.com/creack/pty"
	"github.com/ssfdre38/copilot-android-client-sub000/internal/protocol"
)

var ErrClosed = errors.New("backend closed")

// PTY runs a command in a pseudo-terminal. Messages are typed followed by a
// carriage return; command tokens are translated to control bytes.
type PTY struct {
	name string
	args []string
	Cols uint16
	Rows uint16

	mu     sync.Mutex
	cmd    *exec.Cmd
	ptmx   *os.File
	closed bool
	done   chan struct{}
}

func NewPTY(name string, args ...string) *PTY {
	return &PTY{name: name, args: args, Cols: 120, Rows: 40}
}

// Start launches the process and streams its output to emit until it exits.
func (p *PTY) Start(emit func(string)) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cmd != nil {
		return fmt.Errorf("pty backend already started")
	}

	cmd := exec.Command(p.name, p.args...)
	cmd.Env = append(os.Environ(), "TERM=xterm-256color")

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: p.Rows, Cols: p.Cols})
	if err != nil {
		return fmt.Errorf("failed to start PTY: %w", err)
	}

	p.cmd = cmd
	p.ptmx = ptmx
	p.done = make(chan struct{})

	go p.readOutput(ptmx, emit)
	return nil
}

func (p *PTY) readOutput(ptmx *os.File, emit func(string)) {
	defer close(p.done)
	buf := make([]byte, 4096)
	for {
		n, err := ptmx.Read(buf)
		if n > 0 {
			emit(string(buf[:n]))
		}
		if err != nil {
			// io.EOF or EIO once the child exits.
			return
		}
	}
}

func (p *PTY) Message(text string) error {
	return p.write(append([]byte(text), '\r'))
}

func (p *PTY) Command(token string) error {
	return p.write(protocol.ControlBytes(token))
}

func (p *PTY) write(data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	if p.ptmx == nil {
		return ErrNotStarted
	}
	_, err := p.ptmx.Write(data)
	return err
}

// Close kills the process and waits for the output reader to finish.
func (p *PTY) Close() error {
	p.mu.Lock()
	if p.closed || p.cmd == nil {
		p.closed = true
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	cmd, ptmx, done := p.cmd, p.ptmx, p.done
	p.mu.Unlock()

	if cmd.Process != nil {
		_ = cmd.Process.Kill()
	}
	err := ptmx.Close()
	<-done
	_ = cmd.Wait()
	if errors.Is(err, os.ErrClosed) || errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
