// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package roster

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wevbarker/DRADIS/pkg/types"
)

func TestLoadMissingFileYieldsEmptyRoster(t *testing.T) {
	r, err := Load(filepath.Join(t.TempDir(), "friends.yaml"))
	require.NoError(t, err)
	assert.Empty(t, r.Collaborators)
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "friends.yaml")
	require.NoError(t, os.WriteFile(path, []byte("collaborators: [unclosed"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing roster")
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "friends.yaml")

	r := &Roster{Path: path}
	r.Add(types.Collaborator{Name: "Anthony Lasenby", Institution: "Cambridge"})
	r.Add(types.Collaborator{Name: "Joan Camps", Notes: "holography"})
	require.NoError(t, r.Save())

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Len(t, loaded.Collaborators, 2)

	// Save sorts by name.
	assert.Equal(t, "Anthony Lasenby", loaded.Collaborators[0].Name)
	assert.Equal(t, "Cambridge", loaded.Collaborators[0].Institution)
	assert.Equal(t, "Joan Camps", loaded.Collaborators[1].Name)
	assert.Equal(t, "holography", loaded.Collaborators[1].Notes)
}

func TestAddRejectsNameVariantDuplicates(t *testing.T) {
	r := &Roster{}
	require.True(t, r.Add(types.Collaborator{Name: "Anthony N. Lasenby"}))

	assert.False(t, r.Add(types.Collaborator{Name: "Lasenby, A.N."}),
		"a name variant of an existing entry should be rejected")
	assert.True(t, r.Add(types.Collaborator{Name: "Jane Lasenby"}),
		"a different person sharing the surname should be accepted")
	assert.Len(t, r.Collaborators, 2)
}

func TestRemoveMatchesNameVariants(t *testing.T) {
	r := &Roster{}
	r.Add(types.Collaborator{Name: "Anthony Lasenby", Institution: "Cambridge"})
	r.Add(types.Collaborator{Name: "Joan Camps"})

	removed, ok := r.Remove("Lasenby, A.")
	require.True(t, ok)
	assert.Equal(t, "Anthony Lasenby", removed.Name)
	require.Len(t, r.Collaborators, 1)
	assert.Equal(t, "Joan Camps", r.Collaborators[0].Name)
}

func TestRemoveUnknownNameIsNoOp(t *testing.T) {
	r := &Roster{}
	r.Add(types.Collaborator{Name: "Anthony Lasenby"})

	_, ok := r.Remove("Richard Feynman")
	assert.False(t, ok)
	assert.Len(t, r.Collaborators, 1)
}
