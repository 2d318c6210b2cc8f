package youtube

import (
	"context"
	"sync"
	"time"
)

// Defaults stay 10% under the documented 100 requests / 100 seconds so a
// clock skew or an off-by-one never trips the real limit.
const (
	DefaultMaxRequests   = 90
	DefaultWindowSeconds = 100
)

// RateLimiter enforces a sliding window of at most max dispatches per window
// for one credential. Waiters blocked in Acquire are released in arrival
// order, and a timestamp is only recorded when Acquire returns nil — a caller
// cancelled mid-wait leaves no trace in the window.
type RateLimiter struct {
	max    int
	window time.Duration
	margin time.Duration // extra wait past the window edge

	mu    sync.Mutex
	times []time.Time     // dispatch timestamps, oldest first
	queue []chan struct{} // FIFO tickets of blocked callers
}

// NewRateLimiter creates a limiter for max requests per window.
func NewRateLimiter(max int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		max:    max,
		window: window,
		margin: 500 * time.Millisecond,
	}
}

// Acquire blocks until a dispatch slot is free, then records the dispatch.
// The check and the record happen under one lock acquisition, so no burst of
// concurrent callers can ever exceed max slots inside a window.
func (rl *RateLimiter) Acquire(ctx context.Context) error {
	ticket := make(chan struct{})
	rl.mu.Lock()
	rl.queue = append(rl.queue, ticket)
	rl.mu.Unlock()
	defer rl.leave(ticket)

	for {
		rl.mu.Lock()
		now := time.Now()
		rl.dropExpired(now)
		if rl.queue[0] == ticket && len(rl.times) < rl.max {
			rl.times = append(rl.times, now)
			rl.mu.Unlock()
			return nil
		}
		wait := rl.waitFor(now)
		rl.mu.Unlock()

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// WaitIfNeeded blocks until a slot would be free without claiming it.
// Prefer Acquire; this exists for callers that dispatch elsewhere.
func (rl *RateLimiter) WaitIfNeeded(ctx context.Context) error {
	for {
		rl.mu.Lock()
		now := time.Now()
		rl.dropExpired(now)
		free := len(rl.times) < rl.max
		wait := rl.waitFor(now)
		rl.mu.Unlock()

		if free {
			return nil
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Record notes a dispatch that happened outside Acquire.
func (rl *RateLimiter) Record() {
	rl.mu.Lock()
	now := time.Now()
	rl.dropExpired(now)
	rl.times = append(rl.times, now)
	rl.mu.Unlock()
}

// InWindow returns the number of dispatches inside the current window.
func (rl *RateLimiter) InWindow() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.dropExpired(time.Now())
	return len(rl.times)
}

// Max returns the window capacity.
func (rl *RateLimiter) Max() int { return rl.max }

// waitFor computes how long to sleep before re-checking. Callers behind the
// queue front poll quickly; a full window waits for the oldest timestamp to
// age out plus the safety margin. Must be called with rl.mu held.
func (rl *RateLimiter) waitFor(now time.Time) time.Duration {
	if len(rl.times) < rl.max {
		return 5 * time.Millisecond
	}
	wait := rl.times[0].Add(rl.window).Sub(now)
	if wait < 0 {
		wait = 0
	}
	return wait + rl.margin
}

// dropExpired removes timestamps older than the window. Must be called with
// rl.mu held.
func (rl *RateLimiter) dropExpired(now time.Time) {
	cutoff := now.Add(-rl.window)
	i := 0
	for i < len(rl.times) && rl.times[i].Before(cutoff) {
		i++
	}
	if i > 0 {
		rl.times = rl.times[i:]
	}
}

// leave removes a ticket from the waiter queue.
func (rl *RateLimiter) leave(ticket chan struct{}) {
	rl.mu.Lock()
	for i, t := range rl.queue {
		if t == ticket {
			rl.queue = append(rl.queue[:i], rl.queue[i+1:]...)
			break
		}
	}
	rl.mu.Unlock()
}
