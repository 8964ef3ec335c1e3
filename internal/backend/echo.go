package backend

import (
	"errors"
	"sync"
)

var ErrNotStarted = errors.New("backend not started")

// Echo answers every message and command with a fixed acknowledgement.
type Echo struct {
	mu   sync.Mutex
	emit func(string)
}

func NewEcho() *Echo {
	return &Echo{}
}

func (e *Echo) Start(emit func(string)) error {
	e.mu.Lock()
	e.emit = emit
	e.mu.Unlock()
	return nil
}

func (e *Echo) Message(text string) error {
	return e.send("Echo: " + text)
}

func (e *Echo) Command(token string) error {
	return e.send("Command received: " + token)
}

func (e *Echo) Close() error {
	e.mu.Lock()
	e.emit = nil
	e.mu.Unlock()
	return nil
}

func (e *Echo) send(text string) error {
	e.mu.Lock()
	emit := e.emit
	e.mu.Unlock()
	if emit == nil {
		return ErrNotStarted
	}
	emit(text)
	return nil
}
