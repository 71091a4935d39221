package atom

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zettelforge/zettelforge/folgezettel"
	"github.com/zettelforge/zettelforge/source"
	"github.com/zettelforge/zettelforge/store"
	"github.com/zettelforge/zettelforge/vocabulary/knowledge"
)

func fixedClock() time.Time {
	return time.Date(2025, 8, 30, 12, 0, 0, 0, time.UTC)
}

func TestMaterialize(t *testing.T) {
	m := NewMaterializer(fixedClock)

	pattern := &source.Pattern{
		Name:     "error-wrapping",
		Category: knowledge.CategoryTechnique,
		Tags:     []string{"go", "errors"},
	}
	concepts := []source.Concept{
		{
			TempID:        "tmp-error-wrapping-001",
			Title:         "Wrap errors with context",
			CoreIdea:      "Wrap errors with context at each call site.",
			Context:       "Applies to library boundaries.",
			Evidence:      "Because call sites lose information otherwise.",
			Implications:  "This means stack traces become unnecessary.",
			SourcePattern: "error-wrapping",
		},
		{
			TempID:        "tmp-error-wrapping-002",
			Title:         "Sentinel errors for contracts",
			CoreIdea:      "Expose sentinel errors for contract conditions.",
			SourcePattern: "error-wrapping",
			Relationships: []source.ConceptRelationship{
				{Target: "tmp-error-wrapping-001", Kind: knowledge.RelationParent},
			},
		},
	}
	assigned := map[string]folgezettel.ID{
		"tmp-error-wrapping-001": folgezettel.MustParse("AKU-2025-001"),
		"tmp-error-wrapping-002": folgezettel.MustParse("AKU-2025-0011"),
	}

	atoms := m.Materialize(pattern, concepts, assigned)
	require.Len(t, atoms, 2)

	first := atoms[0]
	assert.Equal(t, "AKU-2025-001", first.ID)
	assert.Equal(t, "Wrap errors with context", first.Title)
	assert.Equal(t, knowledge.CategoryTechnique, first.Category)
	assert.Equal(t, []string{"go", "errors"}, first.Tags)
	assert.Equal(t, fixedClock(), first.Created)
	assert.Empty(t, first.Links)
	require.Len(t, first.References, 1)
	assert.Equal(t, knowledge.ReferencePattern, first.References[0].Type)
	assert.Equal(t, "error-wrapping", first.References[0].Target)

	second := atoms[1]
	require.Len(t, second.Links, 1)
	assert.Equal(t, "AKU-2025-001", second.Links[0].Target)
	assert.Equal(t, knowledge.RelationParent, second.Links[0].Kind)
}

func TestMaterializeSkipsUnassigned(t *testing.T) {
	m := NewMaterializer(fixedClock)

	pattern := &source.Pattern{Name: "p", Category: knowledge.CategoryConcept}
	concepts := []source.Concept{
		{TempID: "tmp-p-001", Title: "Allocated"},
		{TempID: "tmp-p-002", Title: "Skipped"},
	}
	assigned := map[string]folgezettel.ID{
		"tmp-p-001": folgezettel.MustParse("AKU-2025-001"),
	}

	atoms := m.Materialize(pattern, concepts, assigned)
	require.Len(t, atoms, 1)
	assert.Equal(t, "Allocated", atoms[0].Title)
}

func TestRenderSectionSequence(t *testing.T) {
	a := testAtom("AKU-2025-001", "Wrap errors with context", "go", "errors")
	a.Links = []Link{
		{Target: "AKU-2025-002", Kind: knowledge.RelationRelated, Description: "shared tags: go"},
	}
	a.References = []Reference{
		{Type: knowledge.ReferencePattern, Target: "error-wrapping"},
	}

	out := string(Render(a))

	assert.True(t, strings.HasPrefix(out, "# AKU-2025-001: Wrap errors with context\n"))
	assert.Contains(t, out, "- **Category**: technique\n")
	assert.Contains(t, out, "- **Tags**: errors, go\n")
	assert.Contains(t, out, "- [[AKU-2025-002]] (related) — shared tags: go\n")
	assert.Contains(t, out, "- pattern: error-wrapping\n")

	// Fixed section ordering.
	headings := []string{
		"## Metadata",
		"## Core Idea",
		"## Context",
		"## Evidence",
		"## Implications",
		"## Related Atoms",
		"## References",
		"## Revision History",
		"## Notes",
	}
	last := -1
	for _, h := range headings {
		idx := strings.Index(out, h)
		require.NotEqual(t, -1, idx, h)
		assert.Greater(t, idx, last, "%s out of order", h)
		last = idx
	}
}

func TestWriteNeverOverwrites(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	m := NewMaterializer(fixedClock)

	a := testAtom("AKU-2025-001", "First")
	require.NoError(t, m.Write(ctx, s, a))

	clone := testAtom("AKU-2025-001", "Impostor")
	err := m.Write(ctx, s, clone)
	assert.ErrorIs(t, err, ErrAtomExists)

	data, err := s.Get(ctx, "technique/AKU-2025-001.md")
	require.NoError(t, err)
	assert.Contains(t, string(data), "First")
	assert.NotContains(t, string(data), "Impostor")
}

func TestMaterializeWithoutRelationshipsHasNoLinks(t *testing.T) {
	m := NewMaterializer(fixedClock)

	pattern := &source.Pattern{
		Name:     "queues",
		Category: knowledge.CategoryTechnique,
		Tags:     []string{"queues", "scheduling"},
	}
	// Sections that were never split share no declared relationships;
	// links only appear later through auto-linking.
	concepts := []source.Concept{
		{TempID: "tmp-queues-001", Title: "Backpressure", CoreIdea: "Slow consumers signal producers.", SourcePattern: "queues"},
		{TempID: "tmp-queues-002", Title: "Fairness", CoreIdea: "Round robin between tenants.", SourcePattern: "queues"},
	}
	assigned := map[string]folgezettel.ID{
		"tmp-queues-001": folgezettel.MustParse("AKU-2025-001"),
		"tmp-queues-002": folgezettel.MustParse("AKU-2025-002"),
	}

	atoms := m.Materialize(pattern, concepts, assigned)
	require.Len(t, atoms, 2)
	for _, a := range atoms {
		assert.Empty(t, a.Links, a.ID)
		assert.Contains(t, string(Render(a)), "None yet.")
	}
}
