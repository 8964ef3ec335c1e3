package session

import (
	"sync"

	"github.com/ssfdre38/copilot-android-client-sub000/internal/protocol"
)

// Observer receives session notifications. Calls are serialized.
type Observer interface {
	OnStateChanged(state State)
	OnMessage(env protocol.Envelope)
	OnError(err error)
}

// ObserverFuncs adapts plain functions to Observer. Nil fields are skipped.
type ObserverFuncs struct {
	StateChanged func(State)
	Message      func(protocol.Envelope)
	Error        func(error)
}

func (f ObserverFuncs) OnStateChanged(state State) {
	if f.StateChanged != nil {
		f.StateChanged(state)
	}
}

func (f ObserverFuncs) OnMessage(env protocol.Envelope) {
	if f.Message != nil {
		f.Message(env)
	}
}

func (f ObserverFuncs) OnError(err error) {
	if f.Error != nil {
		f.Error(err)
	}
}

// dispatcher runs notifications in order on a single goroutine. post never
// blocks, so it is safe to call with the Manager's lock held.
type dispatcher struct {
	mu      sync.Mutex
	queue   []func()
	wake    chan struct{}
	done    chan struct{}
	stopped bool
}

func newDispatcher() *dispatcher {
	d := &dispatcher{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go d.run()
	return d
}

func (d *dispatcher) post(fn func()) {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.queue = append(d.queue, fn)
	d.mu.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// stop drains what is already queued, then ends the goroutine. It does not
// wait, so it may be called from inside a callback.
func (d *dispatcher) stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	d.mu.Unlock()
	close(d.done)
}

func (d *dispatcher) run() {
	for {
		select {
		case <-d.wake:
			d.drain()
		case <-d.done:
			d.drain()
			return
		}
	}
}

func (d *dispatcher) drain() {
	for {
		d.mu.Lock()
		batch := d.queue
		d.queue = nil
		d.mu.Unlock()

		if len(batch) == 0 {
			return
		}
		for _, fn := range batch {
			fn()
		}
	}
}
