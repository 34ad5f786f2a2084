// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wevbarker/DRADIS/pkg/types"
)

func makeDocs(n int) []types.Document {
	docs := make([]types.Document, n)
	for i := range docs {
		docs[i] = types.Document{ID: fmt.Sprintf("doc-%03d", i)}
	}
	return docs
}

// fastOpts permits effectively unthrottled dispatch so pool behavior can
// be tested independently of the gate.
func fastOpts(concurrency int) Options {
	return Options{
		Concurrency: concurrency,
		MaxRequests: 10000,
		Window:      time.Millisecond,
	}
}

func TestRunReportsEveryItemExactlyOnce(t *testing.T) {
	docs := makeDocs(20)
	p := New(fastOpts(4))

	results := p.Run(context.Background(), docs, func(_ context.Context, doc types.Document) (types.RelevanceOutcome, error) {
		return types.RelevanceOutcome{DocumentID: doc.ID}, nil
	})

	require.Len(t, results, len(docs))
	seen := map[string]bool{}
	for _, r := range results {
		assert.False(t, seen[r.Document.ID], "document %s reported twice", r.Document.ID)
		seen[r.Document.ID] = true
		assert.NoError(t, r.Err)
		assert.Equal(t, r.Document.ID, r.Outcome.DocumentID)
	}
}

func TestRunIsolatesPerItemFailures(t *testing.T) {
	docs := makeDocs(10)
	p := New(fastOpts(3))
	boom := errors.New("classifier exploded")

	results := p.Run(context.Background(), docs, func(_ context.Context, doc types.Document) (types.RelevanceOutcome, error) {
		switch doc.ID {
		case "doc-003":
			return types.RelevanceOutcome{}, boom
		case "doc-007":
			panic("worker panic")
		}
		return types.RelevanceOutcome{DocumentID: doc.ID}, nil
	})

	require.Len(t, results, len(docs))

	var failed, succeeded int
	for _, r := range results {
		if r.Err != nil {
			failed++
			continue
		}
		succeeded++
	}
	assert.Equal(t, 2, failed)
	assert.Equal(t, 8, succeeded)
}

func TestRunRespectsConcurrencyBound(t *testing.T) {
	docs := makeDocs(30)
	const bound = 4
	p := New(fastOpts(bound))

	var active, peak int64
	results := p.Run(context.Background(), docs, func(_ context.Context, doc types.Document) (types.RelevanceOutcome, error) {
		n := atomic.AddInt64(&active, 1)
		for {
			old := atomic.LoadInt64(&peak)
			if n <= old || atomic.CompareAndSwapInt64(&peak, old, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		atomic.AddInt64(&active, -1)
		return types.RelevanceOutcome{DocumentID: doc.ID}, nil
	})

	require.Len(t, results, len(docs))
	assert.LessOrEqual(t, atomic.LoadInt64(&peak), int64(bound))
}

func TestRunCancellationReturnsPartialResults(t *testing.T) {
	docs := makeDocs(50)
	p := New(fastOpts(2))

	ctx, cancel := context.WithCancel(context.Background())
	var processed int32
	results := make(chan []ItemResult, 1)

	go func() {
		results <- p.Run(ctx, docs, func(_ context.Context, doc types.Document) (types.RelevanceOutcome, error) {
			atomic.AddInt32(&processed, 1)
			time.Sleep(10 * time.Millisecond)
			return types.RelevanceOutcome{DocumentID: doc.ID}, nil
		})
	}()

	time.Sleep(35 * time.Millisecond)
	cancel()

	got := <-results
	require.NotEmpty(t, got)
	require.Less(t, len(got), len(docs), "cancellation should leave some documents untouched")

	// Every reported item is complete: an outcome, not a torn record.
	seen := map[string]bool{}
	for _, r := range got {
		require.NoError(t, r.Err)
		assert.Equal(t, r.Document.ID, r.Outcome.DocumentID)
		assert.False(t, seen[r.Document.ID])
		seen[r.Document.ID] = true
	}
}

func TestGateSlidingWindowCap(t *testing.T) {
	const (
		maxRequests = 3
		window      = 90 * time.Millisecond
	)
	g := NewGate(maxRequests, window)

	var stamps []time.Time
	for i := 0; i < 9; i++ {
		require.NoError(t, g.Acquire(context.Background()))
		stamps = append(stamps, time.Now())
	}

	// No more than maxRequests dispatches within any rolling window.
	for i := range stamps {
		inWindow := 0
		for j := i; j < len(stamps); j++ {
			if stamps[j].Sub(stamps[i]) < window {
				inWindow++
			}
		}
		assert.LessOrEqual(t, inWindow, maxRequests,
			"window starting at dispatch %d admitted %d", i, inWindow)
	}

	// Minimum spacing between consecutive dispatches.
	spacing := window / maxRequests
	for i := 1; i < len(stamps); i++ {
		gap := stamps[i].Sub(stamps[i-1])
		assert.GreaterOrEqual(t, gap, spacing-2*time.Millisecond,
			"dispatch %d followed after %v, want >= %v", i, gap, spacing)
	}
}

func TestGateConcurrentAcquirersNeverExceedCap(t *testing.T) {
	const (
		maxRequests = 5
		window      = 60 * time.Millisecond
	)
	g := NewGate(maxRequests, window)

	var mu sync.Mutex
	var stamps []time.Time

	var wg sync.WaitGroup
	for i := 0; i < 15; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := g.Acquire(context.Background()); err != nil {
				return
			}
			mu.Lock()
			stamps = append(stamps, time.Now())
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.Len(t, stamps, 15)
	for i := range stamps {
		inWindow := 0
		for _, s := range stamps {
			d := s.Sub(stamps[i])
			if d >= 0 && d < window {
				inWindow++
			}
		}
		assert.LessOrEqual(t, inWindow, maxRequests)
	}
}

func TestGateAcquireHonorsContext(t *testing.T) {
	g := NewGate(1, time.Hour)
	require.NoError(t, g.Acquire(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := g.Acquire(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
