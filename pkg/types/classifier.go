// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// ClassifierAnalysis is the external classifier's relevance estimate for
// one document. A nil *ClassifierAnalysis means the classifier produced
// nothing usable for the document.
type ClassifierAnalysis struct {
	// RelevanceScore is the classifier's relevance estimate in [0,1].
	RelevanceScore float64 `json:"relevance_score" yaml:"relevance_score"`

	// KeyConcepts are the concepts the classifier identified.
	KeyConcepts []string `json:"key_concepts" yaml:"key_concepts"`

	// Flagged is the classifier's own flag decision.
	Flagged bool `json:"flagged" yaml:"flagged"`

	// Reasoning is the classifier's brief explanation.
	Reasoning string `json:"reasoning" yaml:"reasoning"`
}
