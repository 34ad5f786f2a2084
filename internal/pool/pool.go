// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pool runs per-document analysis functions under bounded
// concurrency and a global request-rate ceiling. A fixed set of workers
// pulls documents from a shared queue; each worker acquires a token from
// the rate gate before invoking the analysis function, so the external
// classifier quota holds no matter how many workers run.
package pool

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wevbarker/DRADIS/pkg/types"
)

// AnalyzeFunc analyzes one document. It performs the externally
// rate-limited call; the pool acquires the rate token before invoking it.
type AnalyzeFunc func(ctx context.Context, doc types.Document) (types.RelevanceOutcome, error)

// ItemResult is the terminal record for one document: an outcome or an
// error, never both.
type ItemResult struct {
	Document types.Document
	Outcome  types.RelevanceOutcome
	Err      error
}

// Options configures a pool run.
type Options struct {
	// Concurrency is the number of workers.
	Concurrency int

	// MaxRequests caps dispatches within any rolling Window.
	MaxRequests int

	// Window is the rolling rate window.
	Window time.Duration
}

// Pool executes analysis functions over batches of documents. The gate
// is shared across all batches run through the same pool, so the rate
// ceiling holds across batch boundaries.
type Pool struct {
	opts Options
	gate *Gate
}

// New returns a pool with its own rate gate.
func New(opts Options) *Pool {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	return &Pool{
		opts: opts,
		gate: NewGate(opts.MaxRequests, opts.Window),
	}
}

// Run analyzes every document and reports each exactly once, in no
// particular order. Per-item failures (including panics in fn) become
// failure records and never abort sibling items. When ctx is cancelled,
// workers finish their in-flight item, stop pulling new ones, and Run
// returns results for completed items only.
func (p *Pool) Run(ctx context.Context, docs []types.Document, fn AnalyzeFunc) []ItemResult {
	queue := make(chan types.Document)

	var mu sync.Mutex
	results := make([]ItemResult, 0, len(docs))

	g, gctx := errgroup.WithContext(ctx)

	for i := 0; i < p.opts.Concurrency; i++ {
		g.Go(func() error {
			for doc := range queue {
				res := p.analyzeOne(gctx, doc, fn)
				if res == nil {
					// Cancelled before dispatch; the document is untouched.
					continue
				}
				mu.Lock()
				results = append(results, *res)
				mu.Unlock()
			}
			return nil
		})
	}

feed:
	for _, doc := range docs {
		select {
		case queue <- doc:
		case <-ctx.Done():
			break feed
		}
	}
	close(queue)

	g.Wait()
	return results
}

// analyzeOne claims the rate token and invokes fn for one document,
// converting errors and panics into a failure record. A nil return means
// the run was cancelled before this document was dispatched.
func (p *Pool) analyzeOne(ctx context.Context, doc types.Document, fn AnalyzeFunc) (res *ItemResult) {
	if err := p.gate.Acquire(ctx); err != nil {
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			res = &ItemResult{Document: doc, Err: fmt.Errorf("analysis panic: %v", r)}
		}
	}()

	outcome, err := fn(ctx, doc)
	if err != nil {
		return &ItemResult{Document: doc, Err: err}
	}
	return &ItemResult{Document: doc, Outcome: outcome}
}
