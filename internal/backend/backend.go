package backend

import (
	"fmt"
	"strings"
)

// Kinds accepted by New.
const (
	KindEcho = "echo"
	KindPTY  = "pty"
)

// Backend is the program behind one bridge connection. Output is delivered
// through the emit callback passed to Start, from any goroutine.
type Backend interface {
	Start(emit func(text string)) error
	Message(text string) error
	Command(token string) error
	Close() error
}

// Factory creates one Backend per accepted connection.
type Factory func() (Backend, error)

// NewFactory returns a factory for kind. command is the CLI started by pty
// backends and is ignored otherwise.
func NewFactory(kind, command string) (Factory, error) {
	switch kind {
	case "", KindEcho:
		return func() (Backend, error) { return NewEcho(), nil }, nil
	case KindPTY:
		argv := strings.Fields(command)
		if len(argv) == 0 {
			return nil, fmt.Errorf("pty backend requires a command")
		}
		return func() (Backend, error) { return NewPTY(argv[0], argv[1:]...), nil }, nil
	}
	return nil, fmt.Errorf("unknown backend %q", kind)
}
