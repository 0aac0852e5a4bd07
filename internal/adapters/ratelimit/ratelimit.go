// Package ratelimit provides process-wide token buckets, one per external
// capability.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/AVALorrie37/OpenRamp/internal/domain/model"
	"github.com/AVALorrie37/OpenRamp/pkg/metrics"
)

// Capability names a rate-limited external dependency.
type Capability string

const (
	CapabilitySearch  Capability = "search"
	CapabilityMetrics Capability = "metrics"
)

// defaultWait caps how long Acquire may block.
const defaultWait = 5 * time.Second

// Limiter is a token bucket with a bounded wait.
type Limiter struct {
	name   Capability
	bucket *rate.Limiter
	wait   time.Duration
}

// New builds a limiter allowing rps tokens per second with the given burst.
// A non-positive rps means unlimited.
func New(name Capability, rps float64, burst int, wait time.Duration) *Limiter {
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	if wait <= 0 {
		wait = defaultWait
	}
	return &Limiter{name: name, bucket: rate.NewLimiter(limit, burst), wait: wait}
}

// Acquire takes one token. It blocks while a token becomes available within
// the configured wait and fails with ErrRateLimitExceeded when the wait
// would be longer. Context cancellation returns the context error.
func (l *Limiter) Acquire(ctx context.Context) error {
	r := l.bucket.Reserve()
	if !r.OK() {
		metrics.RecordRateLimitRejection(string(l.name))
		return fmt.Errorf("%w: %s", model.ErrRateLimitExceeded, l.name)
	}
	delay := r.Delay()
	if delay == 0 {
		return nil
	}
	if dl, ok := ctx.Deadline(); ok && time.Until(dl) < delay {
		r.Cancel()
		metrics.RecordRateLimitRejection(string(l.name))
		return fmt.Errorf("%w: %s needs %s past deadline", model.ErrRateLimitExceeded, l.name, delay)
	}
	if delay > l.wait {
		r.Cancel()
		metrics.RecordRateLimitRejection(string(l.name))
		return fmt.Errorf("%w: %s needs %s", model.ErrRateLimitExceeded, l.name, delay)
	}
	t := time.NewTimer(delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		r.Cancel()
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Name returns the capability this limiter guards.
func (l *Limiter) Name() Capability { return l.name }

// Registry hands out the shared limiter for each capability.
type Registry struct {
	mu       sync.Mutex
	limiters map[Capability]*Limiter
	wait     time.Duration
}

// NewRegistry creates a registry whose limiters wait at most wait.
func NewRegistry(wait time.Duration) *Registry {
	return &Registry{limiters: make(map[Capability]*Limiter), wait: wait}
}

// Configure installs or replaces the limiter for name.
func (r *Registry) Configure(name Capability, rps float64, burst int) *Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()
	l := New(name, rps, burst, r.wait)
	r.limiters[name] = l
	return l
}

// Get returns the limiter for name, creating an unlimited one if none was
// configured.
func (r *Registry) Get(name Capability) *Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.limiters[name]
	if !ok {
		l = New(name, 0, 1, r.wait)
		r.limiters[name] = l
	}
	return l
}
