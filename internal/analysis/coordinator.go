// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package analysis drives batch relevance analysis: it loads the profile,
// roster, and pending documents, runs them through the rate-limited pool
// against the external classifier, folds classifier results into
// composite scores, and persists one terminal outcome per document.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wevbarker/DRADIS/internal/classifier"
	"github.com/wevbarker/DRADIS/internal/pool"
	"github.com/wevbarker/DRADIS/internal/relevance"
	"github.com/wevbarker/DRADIS/internal/roster"
	"github.com/wevbarker/DRADIS/pkg/types"
)

// ErrProfileMissing reports that no interest profile is stored. Analysis
// cannot proceed without one.
var ErrProfileMissing = errors.New("no interest profile configured")

// quickFilterVocabulary is the fixed physics vocabulary consulted by the
// pre-filter. A document matching neither this list nor the profile
// keywords skips the classifier and receives a zero-score outcome.
var quickFilterVocabulary = []string{
	"quantum", "relativity", "gravity", "gravit", "cosmolog", "black hole",
	"string", "field theory", "gauge", "symmetry", "supersymmet",
	"hologra", "inflation", "dark matter", "dark energy", "entropy",
	"boson", "fermion", "neutrino", "spacetime",
}

// Store is the persistence surface the coordinator needs.
type Store interface {
	Profile(ctx context.Context) (*types.InterestProfile, error)
	PendingDocuments(ctx context.Context) ([]types.Document, error)
	CompleteDocument(ctx context.Context, outcome types.RelevanceOutcome, degraded bool) error
}

// Coordinator orchestrates one analysis run end to end.
type Coordinator struct {
	store      Store
	backend    classifier.Backend
	cfg        types.PipelineConfig
	rosterPath string
	progress   io.Writer
}

// New returns a coordinator. progress receives operational output; pass
// nil to discard it.
func New(store Store, backend classifier.Backend, cfg types.PipelineConfig, rosterPath string, progress io.Writer) *Coordinator {
	if progress == nil {
		progress = io.Discard
	}
	return &Coordinator{
		store:      store,
		backend:    backend,
		cfg:        cfg,
		rosterPath: rosterPath,
		progress:   progress,
	}
}

// AnalyzePending analyzes every pending document in batches of batchSize
// (the configured batch size when batchSize <= 0) and returns the run
// summary. A missing profile or unreadable roster aborts the run; every
// other failure is absorbed as a per-item failure. Cancellation stops
// intake, persists completed items, and returns the partial summary with
// the context's error.
func (c *Coordinator) AnalyzePending(ctx context.Context, batchSize int) (types.RunSummary, error) {
	start := time.Now()
	summary := types.RunSummary{RunID: uuid.NewString()}

	profile, err := c.store.Profile(ctx)
	if err != nil {
		return summary, fmt.Errorf("loading profile: %w", err)
	}
	if profile == nil {
		return summary, ErrProfileMissing
	}

	ros, err := roster.Load(c.rosterPath)
	if err != nil {
		return summary, fmt.Errorf("loading roster: %w", err)
	}

	pending, err := c.store.PendingDocuments(ctx)
	if err != nil {
		return summary, fmt.Errorf("loading pending documents: %w", err)
	}
	summary.Requested = len(pending)
	if len(pending) == 0 {
		fmt.Fprintf(c.progress, "run %s: no pending documents\n", summary.RunID)
		summary.Duration = time.Since(start)
		return summary, nil
	}

	if batchSize <= 0 {
		batchSize = c.cfg.Analysis.BatchSize
	}
	scorer := relevance.New(c.cfg.Analysis)
	p := pool.New(pool.Options{
		Concurrency: c.cfg.Analysis.Concurrency,
		MaxRequests: c.cfg.Analysis.MaxRequestsPerWindow,
		Window:      c.cfg.Analysis.RateWindow,
	})

	batches := (len(pending) + batchSize - 1) / batchSize
	fmt.Fprintf(c.progress, "run %s: %d pending documents in %d batches\n",
		summary.RunID, len(pending), batches)

	for i := 0; i < len(pending); i += batchSize {
		if ctx.Err() != nil {
			break
		}
		end := min(i+batchSize, len(pending))
		batch := pending[i:end]
		fmt.Fprintf(c.progress, "batch %d/%d (%d documents)\n", i/batchSize+1, batches, len(batch))

		// The pre-filter keeps obviously off-topic documents away from
		// the classifier so they never consume rate budget.
		dispatch := batch[:0:0]
		for _, doc := range batch {
			if c.passesQuickFilter(doc, *profile) {
				dispatch = append(dispatch, doc)
				continue
			}
			c.persist(ctx, &summary, skippedOutcome(doc), false)
		}

		results := p.Run(ctx, dispatch, c.analyzeItem(scorer, *profile, ros.Collaborators))
		for _, res := range results {
			outcome, degraded := res.Outcome, false
			if res.Err != nil {
				// An item aborted by run cancellation is not a classifier
				// failure: leave it pending for the next run.
				if ctx.Err() != nil && errors.Is(res.Err, context.Canceled) {
					continue
				}
				// Classifier unavailable for this item: score without it
				// and record the degradation.
				outcome = scorer.Score(res.Document, *profile, ros.Collaborators, nil)
				outcome.Reasoning = fmt.Sprintf("classifier unavailable: %v", res.Err)
				degraded = true
			}
			c.persist(ctx, &summary, outcome, degraded)
		}
	}

	summary.Duration = time.Since(start)
	fmt.Fprintf(c.progress, "run %s: %d succeeded, %d failed, %d flagged in %s (%.1f docs/s)\n",
		summary.RunID, summary.Succeeded, summary.Failed, summary.Flagged,
		summary.Duration.Round(time.Millisecond), summary.Throughput())
	return summary, ctx.Err()
}

// analyzeItem returns the per-document analysis function handed to the
// pool: classify under the item timeout, then fold the result into the
// composite score.
func (c *Coordinator) analyzeItem(scorer *relevance.Scorer, profile types.InterestProfile, collaborators []types.Collaborator) pool.AnalyzeFunc {
	return func(ctx context.Context, doc types.Document) (types.RelevanceOutcome, error) {
		itemCtx, cancel := context.WithTimeout(ctx, c.cfg.Classifier.ItemTimeout)
		defer cancel()

		res, err := c.backend.Classify(itemCtx, classifier.NewRequest(doc, profile))
		if err != nil {
			return types.RelevanceOutcome{}, fmt.Errorf("classifying %s: %w", doc.ID, err)
		}
		return scorer.Score(doc, profile, collaborators, &res.Analysis), nil
	}
}

// persist writes one terminal outcome and updates the summary counters.
// A degraded item is marked processed but counts as failed; a failed
// write leaves the document pending for the next run. The write survives
// run cancellation so completed in-flight items are not lost.
func (c *Coordinator) persist(ctx context.Context, summary *types.RunSummary, outcome types.RelevanceOutcome, degraded bool) {
	if err := c.store.CompleteDocument(context.WithoutCancel(ctx), outcome, degraded); err != nil {
		fmt.Fprintf(c.progress, "  %s: persist failed, will retry next run: %v\n", outcome.DocumentID, err)
		summary.Failed++
		return
	}
	if degraded {
		summary.Failed++
	} else {
		summary.Succeeded++
	}
	if outcome.Flagged {
		summary.Flagged++
	}
}

// passesQuickFilter reports whether the document's text mentions any
// profile keyword or fixed vocabulary term.
func (c *Coordinator) passesQuickFilter(doc types.Document, profile types.InterestProfile) bool {
	text := strings.ToLower(doc.Title + " " + doc.Abstract)
	for _, kw := range profile.Keywords {
		if strings.Contains(text, strings.ToLower(kw)) {
			return true
		}
	}
	for _, term := range quickFilterVocabulary {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}

// skippedOutcome is the zero-score terminal record for a document the
// pre-filter kept away from the classifier.
func skippedOutcome(doc types.Document) types.RelevanceOutcome {
	return types.RelevanceOutcome{
		DocumentID: doc.ID,
		Reasoning:  "skipped by quick filter: no profile or physics vocabulary overlap",
	}
}
