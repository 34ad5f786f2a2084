// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package roster manages the collaborator roster, a YAML file listing
// the people whose authorship boosts a document's relevance.
package roster

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	yaml "go.yaml.in/yaml/v3"

	"github.com/wevbarker/DRADIS/internal/namematch"
	"github.com/wevbarker/DRADIS/pkg/types"
)

// duplicateThreshold is the name similarity above which two roster
// entries are considered the same person.
const duplicateThreshold = 0.9

// Roster is the collaborator list bound to its file path.
type Roster struct {
	Path          string
	Collaborators []types.Collaborator
}

// rosterFile is the on-disk YAML shape.
type rosterFile struct {
	Collaborators []types.Collaborator `yaml:"collaborators"`
}

// Load reads the roster at path. A missing file yields an empty roster;
// a file that exists but does not parse is an error.
func Load(path string) (*Roster, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Roster{Path: path}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading roster %s: %w", path, err)
	}

	var file rosterFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing roster %s: %w", path, err)
	}
	return &Roster{Path: path, Collaborators: file.Collaborators}, nil
}

// Save writes the roster back to its path, sorted by name for stable
// diffs.
func (r *Roster) Save() error {
	sorted := make([]types.Collaborator, len(r.Collaborators))
	copy(sorted, r.Collaborators)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	data, err := yaml.Marshal(rosterFile{Collaborators: sorted})
	if err != nil {
		return fmt.Errorf("encoding roster: %w", err)
	}

	if dir := filepath.Dir(r.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating roster directory: %w", err)
		}
	}
	if err := os.WriteFile(r.Path, data, 0o644); err != nil {
		return fmt.Errorf("writing roster %s: %w", r.Path, err)
	}
	return nil
}

// Add appends a collaborator unless someone with a near-identical name
// is already listed, and reports whether the roster changed.
func (r *Roster) Add(c types.Collaborator) bool {
	for _, existing := range r.Collaborators {
		if namematch.Similarity(existing.Name, c.Name) > duplicateThreshold {
			return false
		}
	}
	r.Collaborators = append(r.Collaborators, c)
	return true
}

// Remove deletes the collaborator whose name best matches name above the
// duplicate threshold, returning the removed entry. Name variants match:
// removing "A. Lasenby" removes "Anthony Lasenby".
func (r *Roster) Remove(name string) (types.Collaborator, bool) {
	bestIdx := -1
	bestSim := duplicateThreshold
	for i, c := range r.Collaborators {
		if sim := namematch.Similarity(c.Name, name); sim > bestSim {
			bestSim = sim
			bestIdx = i
		}
	}
	if bestIdx < 0 {
		return types.Collaborator{}, false
	}

	removed := r.Collaborators[bestIdx]
	r.Collaborators = append(r.Collaborators[:bestIdx], r.Collaborators[bestIdx+1:]...)
	return removed, true
}
