// Package resilience guards the calls to the external capabilities
// (NLU, vehicle search, knowledge): retry with backoff for transient
// failures, one circuit breaker per capability, and a bulkhead so a
// slow capability cannot absorb every turn worker.
package resilience

import (
	"context"
	"math/rand"
	"time"

	"github.com/sony/gobreaker"
)

// Config carries the retry and bulkhead knobs, loaded from env.
type Config struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxConcurrency int
}

// RetryWithBackoff runs fn up to MaxRetries+1 times with exponential
// backoff plus jitter. A turn is interactive, so the caller keeps the
// retry budget small; cancellation cuts the wait short.
func RetryWithBackoff(ctx context.Context, cfg Config, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if attempt < cfg.MaxRetries {
			backoff := cfg.InitialBackoff << uint(attempt)
			wait := backoff + time.Duration(rand.Int63n(int64(backoff/2)))

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
	}
	return lastErr
}

// NewCircuitBreaker builds the breaker for one capability. Each
// capability gets its own: a search outage must not blind extraction
// or knowledge answers, which keep the degraded turn useful.
func NewCircuitBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,                // half-open probe budget
		Interval:    30 * time.Second, // closed-state counter window
		Timeout:     10 * time.Second, // open → half-open
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && ratio >= 0.6
		},
	})
}

// Bulkhead caps in-flight calls to a capability.
type Bulkhead struct {
	slots chan struct{}
}

// NewBulkhead builds a bulkhead allowing maxConcurrency in-flight calls.
func NewBulkhead(maxConcurrency int) *Bulkhead {
	return &Bulkhead{slots: make(chan struct{}, maxConcurrency)}
}

// Acquire blocks for a slot until the context is cancelled.
func (b *Bulkhead) Acquire(ctx context.Context) error {
	select {
	case b.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release returns a slot.
func (b *Bulkhead) Release() {
	<-b.slots
}
