package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zettelforge/zettelforge/vocabulary/knowledge"
)

func clusterNodes() []Node {
	return []Node{
		{ID: "AKU-2025-001", Type: knowledge.NodeAtom, Tags: []string{"go", "testing"}},
		{ID: "AKU-2025-002", Type: knowledge.NodeAtom, Tags: []string{"go", "testing"}},
		{ID: "AKU-2025-003", Type: knowledge.NodeAtom, Tags: []string{"go"}},
		{ID: "AKU-2025-004", Type: knowledge.NodeAtom, Tags: []string{"testing"}},
	}
}

func TestDetectClustersMinSize(t *testing.T) {
	clusters := DetectClusters(clusterNodes(), nil)

	// "go" and "testing" both reach three members; no smaller groups.
	require.Len(t, clusters, 2)
	assert.Equal(t, "go", clusters[0].Name)
	assert.Equal(t, []string{"AKU-2025-001", "AKU-2025-002", "AKU-2025-003"}, clusters[0].Members)
	assert.Equal(t, "testing", clusters[1].Name)
	assert.Equal(t, []string{"AKU-2025-001", "AKU-2025-002", "AKU-2025-004"}, clusters[1].Members)
}

func TestDetectClustersOverlap(t *testing.T) {
	clusters := DetectClusters(clusterNodes(), nil)

	// A node may belong to one cluster per shared tag.
	require.Len(t, clusters, 2)
	assert.Contains(t, clusters[0].Members, "AKU-2025-001")
	assert.Contains(t, clusters[1].Members, "AKU-2025-001")
}

func TestDetectClustersBelowMinSize(t *testing.T) {
	nodes := []Node{
		{ID: "a", Tags: []string{"rare"}},
		{ID: "b", Tags: []string{"rare"}},
	}
	assert.Empty(t, DetectClusters(nodes, nil))
}

func TestClusterDensity(t *testing.T) {
	edges := []Edge{
		{From: "AKU-2025-001", To: "AKU-2025-002"},
		{From: "AKU-2025-002", To: "AKU-2025-001"},
		{From: "AKU-2025-001", To: "AKU-2025-004"},
	}
	clusters := DetectClusters(clusterNodes(), edges)
	require.Len(t, clusters, 2)

	// "go" cluster {001,002,003}: 2 internal edges of 6 possible.
	assert.InDelta(t, 2.0/6, clusters[0].Density, 1e-9)
	// "testing" cluster {001,002,004}: all 3 edges internal, 6 possible.
	assert.InDelta(t, 3.0/6, clusters[1].Density, 1e-9)
}

func TestClusterCentralNodes(t *testing.T) {
	edges := []Edge{
		{From: "AKU-2025-001", To: "AKU-2025-002"},
		{From: "AKU-2025-003", To: "AKU-2025-001"},
	}
	clusters := DetectClusters(clusterNodes(), edges)
	require.Len(t, clusters, 2)

	// In "go": 001 has degree 2, 002 and 003 one each.
	assert.Equal(t, "AKU-2025-001", clusters[0].CentralNodes[0])
	assert.Len(t, clusters[0].CentralNodes, 3)
}

func TestClusterDominantTags(t *testing.T) {
	clusters := DetectClusters(clusterNodes(), nil)
	require.Len(t, clusters, 2)

	assert.Equal(t, "go", clusters[0].DominantTags[0])
	assert.Contains(t, clusters[0].DominantTags, "testing")
}
