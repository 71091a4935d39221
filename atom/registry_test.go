package atom

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zettelforge/zettelforge/store"
	"github.com/zettelforge/zettelforge/vocabulary/knowledge"
)

func testAtom(id, title string, tags ...string) *Atom {
	now := time.Date(2025, 8, 30, 12, 0, 0, 0, time.UTC)
	return &Atom{
		ID:           id,
		Title:        title,
		Category:     knowledge.CategoryTechnique,
		Tags:         tags,
		Created:      now,
		Modified:     now,
		CoreIdea:     "Core idea for " + title,
		Context:      "Context.",
		Evidence:     "Evidence.",
		Implications: "Implications.",
	}
}

func TestRegistryRegister(t *testing.T) {
	r := NewRegistry()

	require.NoError(t, r.Register(testAtom("AKU-2025-001", "First", "go", "testing")))
	require.NoError(t, r.Register(testAtom("AKU-2025-001a", "Second", "go")))

	assert.True(t, r.Exists("AKU-2025-001"))
	assert.True(t, r.Exists("AKU-2025-001a"))
	assert.False(t, r.Exists("AKU-2025-002"))

	assert.Equal(t, []string{"AKU-2025-001", "AKU-2025-001a"}, r.Index.ByCategory["technique"])
	assert.Equal(t, []string{"AKU-2025-001", "AKU-2025-001a"}, r.Index.ByTag["go"])
	assert.Equal(t, []string{"AKU-2025-001"}, r.Index.ByTag["testing"])
	assert.Equal(t, []string{"AKU-2025-001", "AKU-2025-001a"}, r.Index.ByYear["2025"])
	assert.Equal(t, 2, r.Statistics.ByCategory["technique"])
}

func TestRegistryRegisterDuplicate(t *testing.T) {
	r := NewRegistry()

	require.NoError(t, r.Register(testAtom("AKU-2025-001", "First")))
	err := r.Register(testAtom("AKU-2025-001", "Impostor"))
	assert.ErrorIs(t, err, ErrDuplicateAtom)

	// The original entry survives.
	assert.Equal(t, "First", r.Atoms["AKU-2025-001"].Atom.Title)
}

func TestRegistrySaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()

	r := NewRegistry()
	require.NoError(t, r.Register(testAtom("AKU-2025-001", "First", "go")))
	r.Counter().Take(2025)
	require.NoError(t, r.Save(ctx, s, time.Now()))

	loaded, err := LoadRegistry(ctx, s)
	require.NoError(t, err)

	assert.Equal(t, 1, loaded.Meta.TotalAtoms)
	assert.True(t, loaded.Exists("AKU-2025-001"))
	assert.Equal(t, r.Index.ByTag["go"], loaded.Index.ByTag["go"])
	assert.Equal(t, r.Counter().Peek(2025), loaded.Counter().Peek(2025))
	assert.False(t, loaded.Meta.LastUpdated.IsZero())
}

func TestLoadRegistryEmpty(t *testing.T) {
	r, err := LoadRegistry(context.Background(), store.NewMemoryStore())
	require.NoError(t, err)

	assert.Empty(t, r.Atoms)
	assert.NotNil(t, r.Counter())
	assert.Equal(t, 1, r.Counter().Peek(2025))
}

func TestRegistryAllAtoms(t *testing.T) {
	r := NewRegistry()
	a := testAtom("AKU-2025-002", "B")
	a.Links = []Link{{Target: "AKU-2025-001", Kind: knowledge.RelationRelated}}
	require.NoError(t, r.Register(a))
	require.NoError(t, r.Register(testAtom("AKU-2025-001", "A")))

	atoms := r.AllAtoms()
	require.Len(t, atoms, 2)
	assert.Equal(t, "AKU-2025-001", atoms[0].ID)
	assert.Equal(t, "AKU-2025-002", atoms[1].ID)
	require.Len(t, atoms[1].Links, 1)
	assert.Equal(t, 1, r.Statistics.TotalLinks)

	// Returned atoms are copies; mutation does not leak back.
	atoms[0].Title = "mutated"
	assert.Equal(t, "A", r.Atoms["AKU-2025-001"].Atom.Title)
}

func TestRegistryIDsSorted(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(testAtom("AKU-2025-002", "B")))
	require.NoError(t, r.Register(testAtom("AKU-2025-001", "A")))
	require.NoError(t, r.Register(testAtom("AKU-2025-001a", "C")))

	assert.Equal(t, []string{"AKU-2025-001", "AKU-2025-001a", "AKU-2025-002"}, r.IDs())
}
