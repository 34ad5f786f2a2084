// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pool

import (
	"context"
	"sync"
	"time"
)

// Gate is the shared throttle enforcing the external call-rate ceiling.
// It admits at most maxRequests acquisitions per rolling window and
// additionally enforces a minimum spacing of window/maxRequests between
// consecutive dispatches, so a full window's quota is never released as
// one burst. The mutex is held only for the token decision, never across
// the external call.
type Gate struct {
	mu         sync.Mutex
	max        int
	window     time.Duration
	spacing    time.Duration
	dispatches []time.Time
	last       time.Time

	// now is the clock source; tests substitute it.
	now func() time.Time
}

// NewGate returns a gate admitting at most maxRequests per rolling window.
func NewGate(maxRequests int, window time.Duration) *Gate {
	if maxRequests <= 0 {
		maxRequests = 1
	}
	if window <= 0 {
		window = time.Second
	}
	return &Gate{
		max:     maxRequests,
		window:  window,
		spacing: window / time.Duration(maxRequests),
		now:     time.Now,
	}
}

// Acquire blocks the calling worker until a dispatch token is available
// or ctx is done. On success the dispatch is recorded against the rolling
// window and the spacing cursor.
func (g *Gate) Acquire(ctx context.Context) error {
	for {
		wait, ok := g.tryAcquire()
		if ok {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// tryAcquire makes one token decision under the lock. It returns (0, true)
// when the dispatch was admitted and recorded, or the duration to wait
// before the next attempt.
func (g *Gate) tryAcquire() (time.Duration, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()

	// Drop dispatches that have left the rolling window.
	cutoff := now.Add(-g.window)
	kept := g.dispatches[:0]
	for _, d := range g.dispatches {
		if d.After(cutoff) {
			kept = append(kept, d)
		}
	}
	g.dispatches = kept

	var wait time.Duration
	if len(g.dispatches) >= g.max {
		wait = g.dispatches[0].Sub(cutoff)
	}
	if !g.last.IsZero() {
		if gap := g.spacing - now.Sub(g.last); gap > wait {
			wait = gap
		}
	}
	if wait > 0 {
		return wait, false
	}

	g.dispatches = append(g.dispatches, now)
	g.last = now
	return 0, true
}
