// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analysis

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wevbarker/DRADIS/internal/classifier"
	"github.com/wevbarker/DRADIS/pkg/types"
)

type completedRecord struct {
	outcome  types.RelevanceOutcome
	degraded bool
}

// fakeStore implements Store in memory.
type fakeStore struct {
	mu        sync.Mutex
	profile   *types.InterestProfile
	pending   []types.Document
	completed map[string]completedRecord
	failSave  map[string]error
}

func newFakeStore(profile *types.InterestProfile, pending ...types.Document) *fakeStore {
	return &fakeStore{
		profile:   profile,
		pending:   pending,
		completed: map[string]completedRecord{},
		failSave:  map[string]error{},
	}
}

func (f *fakeStore) Profile(context.Context) (*types.InterestProfile, error) {
	return f.profile, nil
}

func (f *fakeStore) PendingDocuments(context.Context) ([]types.Document, error) {
	return f.pending, nil
}

func (f *fakeStore) CompleteDocument(_ context.Context, outcome types.RelevanceOutcome, degraded bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failSave[outcome.DocumentID]; err != nil {
		return err
	}
	f.completed[outcome.DocumentID] = completedRecord{outcome: outcome, degraded: degraded}
	return nil
}

func (f *fakeStore) record(t *testing.T, id string) completedRecord {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.completed[id]
	require.True(t, ok, "document %s has no recorded outcome", id)
	return rec
}

// fakeBackend implements classifier.Backend with a per-call function.
type fakeBackend struct {
	mu    sync.Mutex
	calls []classifier.Request
	fn    func(ctx context.Context, req classifier.Request) (classifier.Result, error)
}

func (f *fakeBackend) Classify(ctx context.Context, req classifier.Request) (classifier.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()
	if f.fn == nil {
		return classifier.Result{
			Analysis: types.ClassifierAnalysis{RelevanceScore: 0.5, Reasoning: "ok"},
			Source:   classifier.SourceParsed,
		}, nil
	}
	return f.fn(ctx, req)
}

func (f *fakeBackend) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func testConfig() types.PipelineConfig {
	cfg := types.PipelineConfig{}.WithDefaults()
	// Effectively unthrottled so tests are fast.
	cfg.Analysis.MaxRequestsPerWindow = 10000
	cfg.Analysis.RateWindow = time.Millisecond
	cfg.Analysis.Concurrency = 3
	return cfg
}

func testProfile() *types.InterestProfile {
	return &types.InterestProfile{Keywords: []string{"quantum gravity", "torsion"}}
}

func physicsDoc(id string) types.Document {
	return types.Document{
		ID:          id,
		Title:       "Quantum gravity with torsion " + id,
		Abstract:    "We study quantum gravity.",
		Authors:     []string{"W. Barker"},
		Categories:  []string{"gr-qc"},
		PublishedAt: time.Now().Add(-24 * time.Hour),
	}
}

func rosterPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "friends.yaml")
}

func TestAnalyzePendingMissingProfile(t *testing.T) {
	store := newFakeStore(nil, physicsDoc("a"))
	c := New(store, &fakeBackend{}, testConfig(), rosterPath(t), nil)

	_, err := c.AnalyzePending(context.Background(), 0)
	assert.ErrorIs(t, err, ErrProfileMissing)
	assert.Empty(t, store.completed)
}

func TestAnalyzePendingBrokenRosterAborts(t *testing.T) {
	path := rosterPath(t)
	require.NoError(t, os.WriteFile(path, []byte("collaborators: [unclosed"), 0o644))

	store := newFakeStore(testProfile(), physicsDoc("a"))
	c := New(store, &fakeBackend{}, testConfig(), path, nil)

	_, err := c.AnalyzePending(context.Background(), 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading roster")
	assert.Empty(t, store.completed)
}

func TestAnalyzePendingHappyPath(t *testing.T) {
	store := newFakeStore(testProfile(),
		physicsDoc("a"), physicsDoc("b"), physicsDoc("c"))
	backend := &fakeBackend{
		fn: func(_ context.Context, _ classifier.Request) (classifier.Result, error) {
			return classifier.Result{
				Analysis: types.ClassifierAnalysis{RelevanceScore: 0.9, Flagged: true, Reasoning: "on topic"},
				Source:   classifier.SourceParsed,
			}, nil
		},
	}

	var progress strings.Builder
	c := New(store, backend, testConfig(), rosterPath(t), &progress)

	summary, err := c.AnalyzePending(context.Background(), 2)
	require.NoError(t, err)

	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, 3, summary.Requested)
	assert.Equal(t, 3, summary.Succeeded)
	assert.Equal(t, 0, summary.Failed)
	assert.Equal(t, 3, summary.Flagged)
	assert.Equal(t, 3, backend.callCount())

	rec := store.record(t, "a")
	assert.False(t, rec.degraded)
	assert.Equal(t, 0.9, rec.outcome.ClassifierScore)
	assert.True(t, rec.outcome.Flagged)
	assert.Equal(t, "on topic", rec.outcome.Reasoning)

	assert.Contains(t, progress.String(), "2 batches")
	assert.Contains(t, progress.String(), "3 succeeded")
}

func TestAnalyzePendingDegradesOnClassifierError(t *testing.T) {
	store := newFakeStore(testProfile(), physicsDoc("ok"), physicsDoc("bad"))
	backend := &fakeBackend{
		fn: func(_ context.Context, req classifier.Request) (classifier.Result, error) {
			if strings.Contains(req.DocumentTitle, "bad") {
				return classifier.Result{}, errors.New("upstream down")
			}
			return classifier.Result{
				Analysis: types.ClassifierAnalysis{RelevanceScore: 0.5, Reasoning: "ok"},
				Source:   classifier.SourceParsed,
			}, nil
		},
	}

	c := New(store, backend, testConfig(), rosterPath(t), nil)
	summary, err := c.AnalyzePending(context.Background(), 0)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)

	rec := store.record(t, "bad")
	assert.True(t, rec.degraded, "classifier failure should record a degraded outcome")
	assert.Equal(t, 0.0, rec.outcome.ClassifierScore)
	assert.Contains(t, rec.outcome.Reasoning, "classifier unavailable")
	assert.Greater(t, rec.outcome.KeywordScore, 0.0,
		"degraded outcome still carries the lexical sub-scores")
}

func TestAnalyzePendingItemTimeoutDegrades(t *testing.T) {
	cfg := testConfig()
	cfg.Classifier.ItemTimeout = 20 * time.Millisecond

	store := newFakeStore(testProfile(), physicsDoc("slow"))
	backend := &fakeBackend{
		fn: func(ctx context.Context, _ classifier.Request) (classifier.Result, error) {
			<-ctx.Done()
			return classifier.Result{}, ctx.Err()
		},
	}

	c := New(store, backend, cfg, rosterPath(t), nil)
	summary, err := c.AnalyzePending(context.Background(), 0)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Failed)
	rec := store.record(t, "slow")
	assert.True(t, rec.degraded)
}

func TestAnalyzePendingQuickFilterSkipsClassifier(t *testing.T) {
	offTopic := types.Document{
		ID:       "cooking",
		Title:    "A survey of sourdough fermentation",
		Abstract: "Bread, yeast, and flavor development.",
		Authors:  []string{"J. Baker"},
	}
	store := newFakeStore(testProfile(), physicsDoc("a"), offTopic)
	backend := &fakeBackend{}

	c := New(store, backend, testConfig(), rosterPath(t), nil)
	summary, err := c.AnalyzePending(context.Background(), 0)
	require.NoError(t, err)

	assert.Equal(t, 1, backend.callCount(), "off-topic document must not reach the classifier")
	assert.Equal(t, 2, summary.Succeeded, "skipped items still complete")

	rec := store.record(t, "cooking")
	assert.False(t, rec.degraded)
	assert.Equal(t, 0.0, rec.outcome.CompositeScore)
	assert.False(t, rec.outcome.Flagged)
	assert.Contains(t, rec.outcome.Reasoning, "quick filter")
}

func TestAnalyzePendingPersistFailureLeavesItemPending(t *testing.T) {
	store := newFakeStore(testProfile(), physicsDoc("a"), physicsDoc("b"))
	store.failSave["b"] = errors.New("disk full")

	c := New(store, &fakeBackend{}, testConfig(), rosterPath(t), nil)
	summary, err := c.AnalyzePending(context.Background(), 0)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)
	_, saved := store.completed["b"]
	assert.False(t, saved, "failed save must leave no completion record")
}

func TestAnalyzePendingRosterBoost(t *testing.T) {
	path := rosterPath(t)
	rosterYAML := "collaborators:\n  - name: Anthony Lasenby\n    institution: Cambridge\n"
	require.NoError(t, os.WriteFile(path, []byte(rosterYAML), 0o644))

	doc := physicsDoc("collab")
	doc.Authors = []string{"A. Lasenby", "W. Barker"}
	store := newFakeStore(testProfile(), doc)

	c := New(store, &fakeBackend{}, testConfig(), path, nil)
	_, err := c.AnalyzePending(context.Background(), 0)
	require.NoError(t, err)

	rec := store.record(t, "collab")
	assert.Equal(t, 0.3, rec.outcome.IdentityBoost)
	require.Len(t, rec.outcome.MatchedCollaborators, 1)
	assert.Equal(t, "Anthony Lasenby", rec.outcome.MatchedCollaborators[0].Collaborator.Name)
	assert.Equal(t, "A. Lasenby", rec.outcome.MatchedCollaborators[0].AuthorName)
}

func TestAnalyzePendingCancellationLeavesInFlightPending(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	started := make(chan struct{})
	backend := &fakeBackend{
		fn: func(ctx context.Context, _ classifier.Request) (classifier.Result, error) {
			close(started)
			<-ctx.Done()
			return classifier.Result{}, ctx.Err()
		},
	}
	store := newFakeStore(testProfile(), physicsDoc("inflight"))
	c := New(store, backend, testConfig(), rosterPath(t), nil)

	done := make(chan types.RunSummary, 1)
	go func() {
		summary, err := c.AnalyzePending(ctx, 0)
		assert.ErrorIs(t, err, context.Canceled)
		done <- summary
	}()

	<-started
	cancel()
	summary := <-done

	// The aborted item must stay pending, not become a degraded outcome.
	assert.Empty(t, store.completed)
	assert.Equal(t, 0, summary.Failed)
	assert.Equal(t, 0, summary.Succeeded)
	assert.Equal(t, 1, summary.Requested)
}

func TestAnalyzePendingCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := newFakeStore(testProfile(), physicsDoc("a"))
	c := New(store, &fakeBackend{}, testConfig(), rosterPath(t), nil)

	summary, err := c.AnalyzePending(ctx, 0)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, summary.Requested)
	assert.Equal(t, 0, summary.Succeeded)
}

func TestAnalyzePendingNoPendingDocuments(t *testing.T) {
	store := newFakeStore(testProfile())
	var progress strings.Builder
	c := New(store, &fakeBackend{}, testConfig(), rosterPath(t), &progress)

	summary, err := c.AnalyzePending(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Requested)
	assert.Contains(t, progress.String(), "no pending documents")
}
