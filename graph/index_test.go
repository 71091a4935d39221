package graph

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zettelforge/zettelforge/atom"
	"github.com/zettelforge/zettelforge/vocabulary/knowledge"
)

func indexFixture() ([]Node, []*atom.Atom) {
	t0 := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	t1 := time.Date(2025, 8, 20, 0, 0, 0, 0, time.UTC)

	nodes := []Node{
		{
			ID: "AKU-2025-001", Type: knowledge.NodeAtom, Title: "Worker pool sizing",
			Category: knowledge.CategoryTechnique, Tags: []string{"go", "concurrency"},
			Created: t0, Modified: t1, Strength: 3,
			Excerpt: "Size worker pools from measured throughput.",
		},
		{
			ID: "AKU-2025-002", Type: knowledge.NodeAtom, Title: "Channel backpressure",
			Category: knowledge.CategoryConcept, Tags: []string{"go"},
			Created: t1, Modified: t1, Strength: 1,
		},
	}

	a := &atom.Atom{
		ID: "AKU-2025-001",
		References: []atom.Reference{
			{Type: knowledge.ReferencePattern, Target: "worker-pools"},
		},
	}
	return nodes, []*atom.Atom{a}
}

func TestBuildIndexMappings(t *testing.T) {
	nodes, atoms := indexFixture()
	idx := BuildIndex(nodes, atoms, time.Now())

	assert.Equal(t, []string{"AKU-2025-001", "AKU-2025-002"}, idx.ByType["atom"])
	assert.Equal(t, []string{"AKU-2025-001"}, idx.ByCategory["technique"])
	assert.Equal(t, []string{"AKU-2025-001", "AKU-2025-002"}, idx.ByTag["go"])
	assert.Equal(t, []string{"AKU-2025-001"}, idx.ByProject["worker-pools"])

	// Tokens come from title, excerpt and tags; short tokens are dropped.
	assert.Equal(t, []string{"AKU-2025-001"}, idx.ByToken["sizing"])
	assert.Equal(t, []string{"AKU-2025-001"}, idx.ByToken["throughput"])
	assert.Equal(t, []string{"AKU-2025-001"}, idx.ByToken["concurrency"])
	assert.NotContains(t, idx.ByToken, "go")
}

func TestBuildIndexRankings(t *testing.T) {
	nodes, atoms := indexFixture()
	idx := BuildIndex(nodes, atoms, time.Now())

	assert.Equal(t, []string{"AKU-2025-001", "AKU-2025-002"}, idx.MostConnected)
	assert.Equal(t, []string{"AKU-2025-002", "AKU-2025-001"}, idx.LeastConnected)
	assert.Equal(t, []string{"AKU-2025-002", "AKU-2025-001"}, idx.RecentlyCreated)
	// Equal modification times fall back to id order.
	assert.Equal(t, []string{"AKU-2025-001", "AKU-2025-002"}, idx.RecentlyModified)
}

func TestIndexStale(t *testing.T) {
	builtAt := time.Date(2025, 8, 30, 12, 0, 0, 0, time.UTC)
	idx := BuildIndex(nil, nil, builtAt)

	assert.False(t, idx.Stale(builtAt.Add(-time.Hour)))
	assert.False(t, idx.Stale(builtAt))
	assert.True(t, idx.Stale(builtAt.Add(time.Hour)))
}

func TestIndexSearch(t *testing.T) {
	nodes, atoms := indexFixture()
	idx := BuildIndex(nodes, atoms, time.Now())

	assert.Equal(t, []string{"AKU-2025-001"}, idx.Search("worker sizing"))
	assert.Empty(t, idx.Search("worker nonexistent"))
	assert.Empty(t, idx.Search(""))

	both := idx.Search("pool")
	require.Len(t, both, 1)
	assert.Equal(t, "AKU-2025-001", both[0])
}
