// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package namematch

import (
	"testing"

	"github.com/wevbarker/DRADIS/pkg/types"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercases", "Anthony Lasenby", "anthony lasenby"},
		{"strips doctor", "Dr. John Smith", "john smith"},
		{"strips professor", "Prof Jane Doe", "jane doe"},
		{"strips phd", "John Smith PhD", "john smith"},
		{"collapses whitespace", "  John   Smith ", "john smith"},
		{"keeps initials", "Smith, J.A.", "smith, j.a."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		surname  string
		initials string
	}{
		{"comma shape", "Lasenby, A.N.", "lasenby", "an"},
		{"comma with given names", "Zell, Sebastian", "zell", "s"},
		{"natural shape", "Anthony N. Lasenby", "lasenby", "an"},
		{"single token", "Lasenby", "lasenby", ""},
		{"honorific stripped", "Dr. Will Handley", "handley", "w"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := parse(tt.in)
			if c.surname != tt.surname {
				t.Errorf("surname = %q, want %q", c.surname, tt.surname)
			}
			for _, r := range tt.initials {
				if !c.initials[r] {
					t.Errorf("missing initial %q in %v", r, c.initials)
				}
			}
			if len(c.initials) != len(tt.initials) {
				t.Errorf("initials = %v, want %q", c.initials, tt.initials)
			}
		})
	}
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		min  float64
		max  float64
	}{
		{"identical", "Smith, J.", "Smith, J.", 1.0, 1.0},
		{"different surname", "Smith, J.", "Jones, J.", 0.0, 0.0},
		{"bibliographic vs natural", "Lasenby, A.N.", "Anthony N. Lasenby", 0.9, 1.0},
		{"abbreviated initials", "Hobson, M.P.", "Michael Hobson", 0.90, 0.95},
		{"honorific tolerated", "Dr. John Smith", "Smith, J.", 0.95, 0.95},
		{"same surname disjoint initials", "Smith, J.", "Adam Smith", 0.3, 0.3},
		{"no initials generous fallback", "Lasenby", "Lasenby, A.N.", 0.7, 1.0},
		{"unrelated", "Handley, W.J.", "Carlo Marzo", 0.0, 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Similarity(tt.a, tt.b)
			if got < tt.min || got > tt.max {
				t.Errorf("Similarity(%q, %q) = %f, want in [%f, %f]", tt.a, tt.b, got, tt.min, tt.max)
			}
			// Symmetric.
			if rev := Similarity(tt.b, tt.a); rev != got {
				t.Errorf("Similarity not symmetric: %f vs %f", got, rev)
			}
		})
	}
}

func TestFindMatchesOnePerCollaborator(t *testing.T) {
	roster := []types.Collaborator{
		{Name: "Anthony Lasenby", Institution: "Cambridge"},
	}
	authors := []string{"John Smith", "Anthony Lasenby", "Jane Doe"}

	matches := FindMatches(authors, roster, 0.85)
	if len(matches) != 1 {
		t.Fatalf("len(matches) = %d, want 1", len(matches))
	}
	if matches[0].Collaborator.Name != "Anthony Lasenby" {
		t.Errorf("matched %q, want Anthony Lasenby", matches[0].Collaborator.Name)
	}
	if matches[0].AuthorName != "Anthony Lasenby" {
		t.Errorf("author = %q, want Anthony Lasenby", matches[0].AuthorName)
	}
	if matches[0].Similarity < 0.85 {
		t.Errorf("similarity = %f, want >= 0.85", matches[0].Similarity)
	}
}

func TestFindMatchesFirstAuthorWins(t *testing.T) {
	roster := []types.Collaborator{{Name: "Smith, J."}}
	authors := []string{"John Smith", "James Smith"}

	matches := FindMatches(authors, roster, 0.85)
	if len(matches) != 1 {
		t.Fatalf("len(matches) = %d, want 1", len(matches))
	}
	if matches[0].AuthorName != "John Smith" {
		t.Errorf("author = %q, want first matching author", matches[0].AuthorName)
	}
}

func TestFindMatchesSkipsEmptyAndNonMatching(t *testing.T) {
	roster := []types.Collaborator{
		{Name: ""},
		{Name: "Will Handley"},
	}
	matches := FindMatches([]string{"Carlo Marzo"}, roster, 0.85)
	if len(matches) != 0 {
		t.Errorf("len(matches) = %d, want 0", len(matches))
	}
}

func TestSequenceRatio(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"", "", 1.0},
		{"abc", "", 0.0},
		{"abc", "abc", 1.0},
		{"smith", "jones", 0.2},
	}
	for _, tt := range tests {
		if got := sequenceRatio(tt.a, tt.b); got != tt.want {
			t.Errorf("sequenceRatio(%q, %q) = %f, want %f", tt.a, tt.b, got, tt.want)
		}
	}
}
