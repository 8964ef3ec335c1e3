package resilience

import (
	"sync"
	"time"

	"github.com/cenkalti/backoff"
)

const (
	DefaultMaxRetries = 3
	DefaultDelay      = 2 * time.Second
)

// Policy configures automatic retries: a fixed number of attempts separated
// by a flat delay.
type Policy struct {
	// MaxRetries is the number of retries after the initial attempt.
	MaxRetries int
	// Delay is the wait before every retry. It never grows.
	Delay time.Duration
}

// DefaultPolicy returns 3 retries, 2 seconds apart.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries: DefaultMaxRetries,
		Delay:      DefaultDelay,
	}
}

// NewBudget starts a fresh retry budget for one connect lineage.
func (p Policy) NewBudget() *Budget {
	// WithMaxRetries treats 0 as unlimited, so a disabled policy stops outright.
	if p.MaxRetries <= 0 {
		return &Budget{backoff: &backoff.StopBackOff{}}
	}
	return &Budget{
		backoff: backoff.WithMaxRetries(backoff.NewConstantBackOff(p.Delay), uint64(p.MaxRetries)),
	}
}

// Budget tracks retries spent within one lineage.
type Budget struct {
	mu       sync.Mutex
	backoff  backoff.BackOff
	attempts int
}

// Next consumes one retry. It returns the delay to wait before the retry, or
// false once the budget is exhausted.
func (b *Budget) Next() (time.Duration, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	d := b.backoff.NextBackOff()
	if d == backoff.Stop {
		return 0, false
	}
	b.attempts++
	return d, true
}

// Reset refills the budget after a successful attempt.
func (b *Budget) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.backoff.Reset()
	b.attempts = 0
}

// Attempts returns the retries consumed since the last reset.
func (b *Budget) Attempts() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.attempts
}
