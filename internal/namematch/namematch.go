// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package namematch normalizes and fuzzily compares author identity
// strings against a roster of known collaborators. It tolerates the two
// bibliographic name shapes ("Surname, F.I." and "First Middle Surname")
// and gates every comparison on near-identical surnames.
package namematch

import (
	"strings"

	"github.com/wevbarker/DRADIS/pkg/types"
)

// honorifics are title tokens stripped before comparison. Compared
// against lowercased tokens with trailing periods removed.
var honorifics = map[string]bool{
	"dr":        true,
	"prof":      true,
	"professor": true,
	"phd":       true,
	"ph.d":      true,
}

// surnameGate is the minimum surname similarity below which two names
// are considered unrelated regardless of other evidence.
const surnameGate = 0.85

// components holds the parsed parts of a normalized name.
type components struct {
	surname  string
	initials map[rune]bool
	full     string
}

// Normalize strips honorific tokens, collapses whitespace, and lowercases.
func Normalize(name string) string {
	fields := strings.Fields(strings.ToLower(name))
	kept := fields[:0]
	for _, f := range fields {
		if honorifics[strings.TrimRight(f, ".")] {
			continue
		}
		kept = append(kept, f)
	}
	return strings.Join(kept, " ")
}

// parse extracts surname and initials from a name in either supported
// shape. "Surname, Given..." takes the text before the comma as surname
// and the first letter of each token after it as initials. "Given...
// Surname" takes the last token as surname and the first letter of each
// preceding token as initials. A single-token name has no initials.
func parse(name string) components {
	norm := Normalize(name)
	c := components{full: norm, initials: map[rune]bool{}}

	if surname, given, ok := strings.Cut(norm, ","); ok {
		c.surname = strings.TrimSpace(surname)
		for _, tok := range strings.Fields(strings.ReplaceAll(given, ".", " ")) {
			c.initials[firstRune(tok)] = true
		}
		return c
	}

	tokens := strings.Fields(norm)
	switch len(tokens) {
	case 0:
	case 1:
		c.surname = tokens[0]
	default:
		c.surname = tokens[len(tokens)-1]
		for _, tok := range tokens[:len(tokens)-1] {
			c.initials[firstRune(tok)] = true
		}
	}
	return c
}

func firstRune(s string) rune {
	for _, r := range s {
		return r
	}
	return 0
}

// Similarity returns a name similarity in [0,1]. Exact normalized match
// is 1.0. Surnames must clear the gate or the result is 0.0. With
// initials on both sides, an intersecting initial is a strong identity
// signal; disjoint initials mean a different person with the same
// surname. Without initials the whole-string ratio decides, raised for
// near-identical surnames.
func Similarity(a, b string) float64 {
	normA, normB := Normalize(a), Normalize(b)
	if normA == normB {
		return 1.0
	}

	compA, compB := parse(a), parse(b)

	surnameSim := sequenceRatio(compA.surname, compB.surname)
	if surnameSim < surnameGate {
		return 0.0
	}

	if len(compA.initials) > 0 && len(compB.initials) > 0 {
		if intersects(compA.initials, compB.initials) {
			if surnameSim > 0.95 {
				return 0.95
			}
			return 0.90
		}
		// Same surname, unrelated person.
		return 0.3
	}

	full := sequenceRatio(normA, normB)
	if surnameSim > 0.9 && full < 0.7 {
		return 0.7
	}
	return full
}

// FindMatches compares every document author against the roster and
// returns at most one match per collaborator: the first author whose
// similarity clears the threshold.
func FindMatches(authors []string, roster []types.Collaborator, threshold float64) []types.CollaboratorMatch {
	var matches []types.CollaboratorMatch
	for _, collab := range roster {
		if collab.Name == "" {
			continue
		}
		for _, author := range authors {
			sim := Similarity(collab.Name, author)
			if sim >= threshold {
				matches = append(matches, types.CollaboratorMatch{
					Collaborator: collab,
					AuthorName:   author,
					Similarity:   sim,
				})
				break
			}
		}
	}
	return matches
}

func intersects(a, b map[rune]bool) bool {
	for r := range a {
		if b[r] {
			return true
		}
	}
	return false
}

// sequenceRatio is a symmetric character-sequence similarity in [0,1]:
// twice the longest common subsequence length over the combined length.
func sequenceRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 && len(rb) == 0 {
		return 1.0
	}
	if len(ra) == 0 || len(rb) == 0 {
		return 0.0
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for i := 1; i <= len(ra); i++ {
		for j := 1; j <= len(rb); j++ {
			if ra[i-1] == rb[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	lcs := prev[len(rb)]
	return 2.0 * float64(lcs) / float64(len(ra)+len(rb))
}
