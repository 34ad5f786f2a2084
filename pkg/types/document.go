// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the DRADIS analysis
// pipeline: documents under evaluation, the user interest profile, the
// collaborator roster, per-document relevance outcomes, and run summaries.
package types

import "time"

// Document is one externally-sourced item being evaluated for relevance.
// Documents are created by the ingestion boundary and never mutated by
// the analysis pipeline.
type Document struct {
	// ID is the stable external identifier (e.g. "2301.07041").
	ID string `json:"id" yaml:"id"`

	// Title is the document title.
	Title string `json:"title" yaml:"title"`

	// Abstract is the document abstract or summary.
	Abstract string `json:"abstract" yaml:"abstract"`

	// Authors lists author display names in source order.
	Authors []string `json:"authors" yaml:"authors"`

	// Categories lists the source taxonomy labels (e.g. "hep-th", "gr-qc").
	Categories []string `json:"categories" yaml:"categories"`

	// PublishedAt is the publication date. A zero value means the source
	// date could not be parsed.
	PublishedAt time.Time `json:"published_at" yaml:"published_at"`
}

// WorkSample is a title+abstract pair from the user's prior work, used
// for citation-potential overlap scoring.
type WorkSample struct {
	Title    string `json:"title" yaml:"title"`
	Abstract string `json:"abstract" yaml:"abstract"`
}

// InterestProfile is the user's declared research interests. Loaded once
// per run and treated as immutable for the run's duration.
type InterestProfile struct {
	// Keywords are case-insensitive research keywords.
	Keywords []string `json:"keywords" yaml:"keywords"`

	// Topics are broader research topic labels.
	Topics []string `json:"topics" yaml:"topics"`

	// PriorWork holds samples of the user's previous papers.
	PriorWork []WorkSample `json:"prior_work" yaml:"prior_work"`
}

// Collaborator is one entry in the known-collaborator roster.
type Collaborator struct {
	// Name is the collaborator's display name.
	Name string `json:"name" yaml:"name"`

	// Institution is the collaborator's affiliation, if known.
	Institution string `json:"institution,omitempty" yaml:"institution,omitempty"`

	// Notes holds free-form context (e.g. shared papers).
	Notes string `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// CollaboratorMatch records that a document author matched a roster entry.
type CollaboratorMatch struct {
	// Collaborator is the roster entry that matched.
	Collaborator Collaborator `json:"collaborator" yaml:"collaborator"`

	// AuthorName is the document author string that matched.
	AuthorName string `json:"author_name" yaml:"author_name"`

	// Similarity is the name similarity in [0,1].
	Similarity float64 `json:"similarity" yaml:"similarity"`
}

// RelevanceOutcome is the persisted per-document result of one analysis
// attempt. Immutable once produced.
type RelevanceOutcome struct {
	// DocumentID identifies the scored document.
	DocumentID string `json:"document_id" yaml:"document_id"`

	// CompositeScore is the combined relevance value in [0,1].
	CompositeScore float64 `json:"composite_score" yaml:"composite_score"`

	// Component sub-scores, each in [0,1].
	KeywordScore      float64 `json:"keyword_score" yaml:"keyword_score"`
	CategoryScore     float64 `json:"category_score" yaml:"category_score"`
	CitationPotential float64 `json:"citation_potential" yaml:"citation_potential"`
	RecencyScore      float64 `json:"recency_score" yaml:"recency_score"`
	ClassifierScore   float64 `json:"classifier_score" yaml:"classifier_score"`
	IdentityBoost     float64 `json:"identity_boost" yaml:"identity_boost"`

	// Flagged reports whether the composite score met the flag threshold.
	Flagged bool `json:"flagged" yaml:"flagged"`

	// MatchedCollaborators lists roster matches among the document authors.
	MatchedCollaborators []CollaboratorMatch `json:"matched_collaborators,omitempty" yaml:"matched_collaborators,omitempty"`

	// KeyConcepts are concepts reported by the external classifier.
	KeyConcepts []string `json:"key_concepts,omitempty" yaml:"key_concepts,omitempty"`

	// Reasoning is the classifier's explanation, or a degradation note
	// when the classifier was unavailable for this document.
	Reasoning string `json:"reasoning,omitempty" yaml:"reasoning,omitempty"`
}

// RunSummary holds the aggregate accounting for one analysis run.
// Created at run end, never mutated afterward.
type RunSummary struct {
	// RunID uniquely identifies the run.
	RunID string `json:"run_id" yaml:"run_id"`

	// Requested is the number of pending documents submitted to the run.
	Requested int `json:"requested" yaml:"requested"`

	// Succeeded counts documents with a full (or fallback) outcome.
	Succeeded int `json:"succeeded" yaml:"succeeded"`

	// Failed counts documents with a recorded per-item failure.
	Failed int `json:"failed" yaml:"failed"`

	// Flagged counts outcomes that met the flag threshold.
	Flagged int `json:"flagged" yaml:"flagged"`

	// Duration is the wall-clock time for the run.
	Duration time.Duration `json:"duration" yaml:"duration"`
}

// Throughput returns documents per second over the run, or 0 for an
// instantaneous run.
func (s RunSummary) Throughput() float64 {
	if s.Duration <= 0 {
		return 0
	}
	return float64(s.Succeeded+s.Failed) / s.Duration.Seconds()
}

// SuccessRate returns the fraction of requested documents that succeeded.
func (s RunSummary) SuccessRate() float64 {
	if s.Requested == 0 {
		return 0
	}
	return float64(s.Succeeded) / float64(s.Requested)
}
