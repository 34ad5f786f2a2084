// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package relevance combines lexical, categorical, temporal, identity,
// and external-classifier signals into one relevance decision per
// document. Scoring is a pure function of its inputs: two calls with the
// same document, profile, roster, and classifier analysis produce
// identical outcomes.
package relevance

import (
	"math"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/wevbarker/DRADIS/internal/namematch"
	"github.com/wevbarker/DRADIS/pkg/types"
)

// topicWeights assigns per-keyword importance for theoretical physics.
// Keywords absent from the table carry defaultTopicWeight.
var topicWeights = map[string]float64{
	"string theory":          1.0,
	"quantum field theory":   1.0,
	"general relativity":     1.0,
	"cosmology":              1.0,
	"black holes":            0.9,
	"supersymmetry":          0.9,
	"extra dimensions":       0.8,
	"quantum gravity":        1.0,
	"holographic principle":  0.9,
	"conformal field theory": 0.9,
	"gauge theory":           0.8,
	"dark matter":            0.7,
	"dark energy":            0.7,
	"inflation":              0.8,
	"ads/cft":                0.9,
	"supergravity":           0.8,
	"m-theory":               0.9,
	"braneworld":             0.7,
}

const defaultTopicWeight = 0.5

// categoryClusters maps source taxonomy labels to topic clusters. A
// document category contributes 0.3 per cluster topic that overlaps a
// profile keyword.
var categoryClusters = map[string][]string{
	"hep-th":      {"string theory", "quantum field theory", "supersymmetry", "gauge theory"},
	"gr-qc":       {"general relativity", "quantum gravity", "black holes", "cosmology"},
	"astro-ph.CO": {"cosmology", "dark matter", "dark energy", "inflation"},
	"hep-ph":      {"particle physics", "phenomenology"},
	"cond-mat":    {"condensed matter", "statistical mechanics"},
	"math-ph":     {"mathematical physics"},
}

// Base blend weights. The identity signal is an additive boost, not a
// blend term.
const (
	weightKeyword    = 0.30
	weightCategory   = 0.20
	weightCitation   = 0.20
	weightRecency    = 0.10
	weightClassifier = 0.10

	// A confident classifier score (above confidentHigh or below
	// confidentLow) raises the classifier weight to confidentClassifierWeight
	// and scales every other weight by confidentRescale so the re-weighted
	// blend sums to 1.
	confidentHigh             = 0.8
	confidentLow              = 0.2
	confidentClassifierWeight = 0.30
	confidentRescale          = 0.875

	// recencyDecayDays controls the exponential decay of the recency
	// score; unparseable dates score a neutral 0.5.
	recencyDecayDays   = 30.0
	unknownDateRecency = 0.5
)

// Scorer computes composite relevance outcomes. Reference anchors the
// recency decay so every document in a run is scored against the same
// clock reading.
type Scorer struct {
	// FlagThreshold is the composite score at or above which a document
	// is flagged.
	FlagThreshold float64

	// MatchThreshold is the minimum author/roster name similarity
	// counted as an identity match.
	MatchThreshold float64

	// IdentityBoost is the additive bonus for a roster match.
	IdentityBoost float64

	// Reference is the clock reading recency decays from.
	Reference time.Time
}

// New returns a Scorer configured from cfg, anchored at the current time.
func New(cfg types.AnalysisConfig) *Scorer {
	return NewAt(cfg, time.Now())
}

// NewAt returns a Scorer configured from cfg, anchored at reference.
func NewAt(cfg types.AnalysisConfig, reference time.Time) *Scorer {
	return &Scorer{
		FlagThreshold:  cfg.FlagThreshold,
		MatchThreshold: cfg.NameMatchThreshold,
		IdentityBoost:  cfg.CollaboratorBoost,
		Reference:      reference,
	}
}

// Score combines all sub-scores for one document into a RelevanceOutcome.
// analysis may be nil when the classifier produced nothing usable; the
// classifier term then contributes 0.
func (s *Scorer) Score(doc types.Document, profile types.InterestProfile, roster []types.Collaborator, analysis *types.ClassifierAnalysis) types.RelevanceOutcome {
	outcome := types.RelevanceOutcome{
		DocumentID:        doc.ID,
		KeywordScore:      KeywordScore(doc, profile),
		CategoryScore:     CategoryScore(doc, profile),
		CitationPotential: CitationPotential(doc, profile),
		RecencyScore:      s.recencyScore(doc),
	}

	wKeyword, wCategory, wCitation, wRecency, wClassifier :=
		weightKeyword, weightCategory, weightCitation, weightRecency, weightClassifier

	if analysis != nil {
		outcome.ClassifierScore = analysis.RelevanceScore
		outcome.KeyConcepts = analysis.KeyConcepts
		outcome.Reasoning = analysis.Reasoning

		if analysis.RelevanceScore > confidentHigh || analysis.RelevanceScore < confidentLow {
			wClassifier = confidentClassifierWeight
			wKeyword *= confidentRescale
			wCategory *= confidentRescale
			wCitation *= confidentRescale
			wRecency *= confidentRescale
		}
	}

	matches := namematch.FindMatches(doc.Authors, roster, s.MatchThreshold)
	if len(matches) > 0 {
		outcome.IdentityBoost = s.IdentityBoost
		outcome.MatchedCollaborators = matches
	}

	composite := wKeyword*outcome.KeywordScore +
		wCategory*outcome.CategoryScore +
		wCitation*outcome.CitationPotential +
		wRecency*outcome.RecencyScore +
		wClassifier*outcome.ClassifierScore +
		outcome.IdentityBoost

	outcome.CompositeScore = clamp01(composite)
	outcome.Flagged = outcome.CompositeScore >= s.FlagThreshold
	return outcome
}

// KeywordScore is the weighted fraction of profile keywords found as
// substrings of the document's title and abstract, normalized by total
// keyword weight. An empty keyword set scores 0.
func KeywordScore(doc types.Document, profile types.InterestProfile) float64 {
	if len(profile.Keywords) == 0 {
		return 0.0
	}

	text := documentText(doc)

	matched, total := 0.0, 0.0
	for _, kw := range profile.Keywords {
		kw = strings.ToLower(kw)
		weight, ok := topicWeights[kw]
		if !ok {
			weight = defaultTopicWeight
		}
		total += weight
		if strings.Contains(text, kw) {
			matched += weight
		}
	}

	if total == 0 {
		return 0.0
	}
	return matched / total
}

// CategoryScore adds 0.3 for each cluster topic of each mapped document
// category that overlaps (substring either direction) a profile keyword,
// capped at 1.0. Categories absent from the cluster map contribute 0.
func CategoryScore(doc types.Document, profile types.InterestProfile) float64 {
	keywords := make([]string, 0, len(profile.Keywords))
	for _, kw := range profile.Keywords {
		keywords = append(keywords, strings.ToLower(kw))
	}

	score := 0.0
	for _, cat := range doc.Categories {
		for _, topic := range categoryClusters[cat] {
			for _, kw := range keywords {
				if strings.Contains(topic, kw) || strings.Contains(kw, topic) {
					score += 0.3
					break
				}
			}
		}
	}
	return math.Min(score, 1.0)
}

// CitationPotential is the maximum word-set overlap between the document
// text and any prior-work sample, measured as intersection size over the
// sample's word-set size. 0 when the profile has no prior work.
func CitationPotential(doc types.Document, profile types.InterestProfile) float64 {
	if len(profile.PriorWork) == 0 {
		return 0.0
	}

	docWords := wordSet(documentText(doc))

	best := 0.0
	for _, sample := range profile.PriorWork {
		sampleWords := wordSet(strings.ToLower(sample.Title + " " + sample.Abstract))
		if len(sampleWords) == 0 {
			continue
		}
		common := 0
		for w := range sampleWords {
			if docWords[w] {
				common++
			}
		}
		if overlap := float64(common) / float64(len(sampleWords)); overlap > best {
			best = overlap
		}
	}
	return math.Min(best, 1.0)
}

// recencyScore decays exponentially with document age. Documents without
// a parseable date score a neutral 0.5.
func (s *Scorer) recencyScore(doc types.Document) float64 {
	if doc.PublishedAt.IsZero() {
		return unknownDateRecency
	}
	days := s.Reference.Sub(doc.PublishedAt).Hours() / 24.0
	if days < 0 {
		days = 0
	}
	return math.Exp(-days / recencyDecayDays)
}

// Ranked pairs a document with its outcome for deterministic ordering.
type Ranked struct {
	Document types.Document
	Outcome  types.RelevanceOutcome
}

// Rank sorts by composite score descending; ties break by published date
// descending, then document ID ascending, so repeated runs over the same
// outcomes produce the same order.
func Rank(items []Ranked) {
	sort.Slice(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.Outcome.CompositeScore != b.Outcome.CompositeScore {
			return a.Outcome.CompositeScore > b.Outcome.CompositeScore
		}
		if !a.Document.PublishedAt.Equal(b.Document.PublishedAt) {
			return a.Document.PublishedAt.After(b.Document.PublishedAt)
		}
		return a.Document.ID < b.Document.ID
	})
}

func documentText(doc types.Document) string {
	return strings.ToLower(doc.Title + " " + doc.Abstract)
}

// wordSet splits text into lowercase word tokens (letters and digits).
func wordSet(text string) map[string]bool {
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
