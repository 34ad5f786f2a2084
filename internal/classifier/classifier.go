// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package classifier calls the external AI relevance classifier and
// parses its responses. Responses are tagged with the parse path taken:
// a well-formed JSON body yields SourceParsed, a malformed body that
// still contains an extractable score yields SourceFallback, and a body
// with no usable score is an error the caller absorbs as a per-item
// classifier failure.
package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/wevbarker/DRADIS/pkg/types"
)

// ErrNoScore reports a classifier response from which no relevance score
// could be extracted, even by fallback.
var ErrNoScore = errors.New("classifier response contains no relevance score")

// abstractExcerptLen bounds how much of the abstract is sent to the
// classifier.
const abstractExcerptLen = 300

// flagDefaultThreshold is the classifier-side flag cutoff applied when
// the response omits its own flag decision.
const flagDefaultThreshold = 0.7

// Request carries the per-document inputs for one classification call.
type Request struct {
	DocumentTitle   string
	AbstractExcerpt string
	ProfileKeywords []string
}

// NewRequest builds a Request from a document and profile, truncating
// the abstract to the excerpt length on a rune boundary.
func NewRequest(doc types.Document, profile types.InterestProfile) Request {
	excerpt := doc.Abstract
	if len(excerpt) > abstractExcerptLen {
		cut := abstractExcerptLen
		for cut > 0 && !utf8.RuneStart(excerpt[cut]) {
			cut--
		}
		excerpt = excerpt[:cut]
	}
	return Request{
		DocumentTitle:   doc.Title,
		AbstractExcerpt: excerpt,
		ProfileKeywords: profile.Keywords,
	}
}

// Source identifies which parse path produced a Result.
type Source string

const (
	// SourceParsed marks a strict-JSON parse of the response body.
	SourceParsed Source = "parsed"

	// SourceFallback marks a best-effort numeric extraction from a
	// malformed body.
	SourceFallback Source = "fallback"
)

// Result is a classification with the parse path that produced it.
type Result struct {
	Analysis types.ClassifierAnalysis
	Source   Source
}

// Backend performs a single classification call. The HTTP implementation
// lives in this package; tests supply mocks.
type Backend interface {
	Classify(ctx context.Context, req Request) (Result, error)
}

// payload mirrors the JSON shape the classifier is prompted to return.
// Flagged is a pointer so an omitted flag can be defaulted from the score.
type payload struct {
	RelevanceScore float64  `json:"relevance_score"`
	KeyConcepts    []string `json:"key_concepts"`
	Flagged        *bool    `json:"flagged"`
	Reasoning      string   `json:"reasoning"`
}

// scorePattern extracts a numeric relevance score from malformed bodies.
var scorePattern = regexp.MustCompile(`"relevance_score"[:\s]*([0-9.]+)`)

// Parse converts a raw classifier response body into a tagged Result.
// Strict JSON wins; otherwise the fallback extractor scans for a score.
func Parse(raw string) (Result, error) {
	var p payload
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &p); err == nil {
		analysis := types.ClassifierAnalysis{
			RelevanceScore: clampScore(p.RelevanceScore),
			KeyConcepts:    p.KeyConcepts,
			Reasoning:      p.Reasoning,
		}
		if analysis.Reasoning == "" {
			analysis.Reasoning = "analysis completed"
		}
		if p.Flagged != nil {
			analysis.Flagged = *p.Flagged
		} else {
			analysis.Flagged = analysis.RelevanceScore >= flagDefaultThreshold
		}
		return Result{Analysis: analysis, Source: SourceParsed}, nil
	}

	return parseFallback(raw)
}

// parseFallback operates only on malformed bodies: it extracts the first
// numeric relevance score it can find and synthesizes an analysis around it.
func parseFallback(raw string) (Result, error) {
	m := scorePattern.FindStringSubmatch(raw)
	if m == nil {
		return Result{}, ErrNoScore
	}
	score, err := strconv.ParseFloat(strings.TrimRight(m[1], "."), 64)
	if err != nil {
		return Result{}, ErrNoScore
	}
	score = clampScore(score)

	return Result{
		Analysis: types.ClassifierAnalysis{
			RelevanceScore: score,
			Flagged:        score >= flagDefaultThreshold,
			Reasoning:      "parsed from malformed response",
		},
		Source: SourceFallback,
	}, nil
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
