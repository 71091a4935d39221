package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zettelforge/zettelforge/vocabulary/knowledge"
)

func metricsGraph() ([]Node, []Edge) {
	nodes := []Node{
		{ID: "a", Strength: 2},
		{ID: "b", Strength: 2},
		{ID: "c", Strength: 0},
	}
	edges := []Edge{
		{From: "a", To: "b", Bidirectional: true},
		{From: "b", To: "a", Bidirectional: true},
	}
	return nodes, edges
}

func TestComputeMetricsBasics(t *testing.T) {
	nodes, edges := metricsGraph()
	m := ComputeMetrics(nodes, edges, nil)

	assert.Equal(t, 3, m.TotalNodes)
	assert.Equal(t, 2, m.TotalEdges)
	assert.InDelta(t, 4.0/3, m.AverageDegree, 1e-9)
	assert.InDelta(t, 2.0/6, m.Density, 1e-9)
	assert.Equal(t, 2, m.Components)
	assert.InDelta(t, 1.0, m.BidirectionalRatio, 1e-9)
}

func TestOrphanPercentage(t *testing.T) {
	nodes, edges := metricsGraph()
	m := ComputeMetrics(nodes, edges, nil)

	assert.Equal(t, []string{"c"}, m.OrphanedNodes)
	assert.InDelta(t, 100.0/3, m.OrphanPercent, 1e-9)
}

func TestHealthRollup(t *testing.T) {
	cases := []struct {
		name string
		m    Metrics
		want knowledge.HealthStatus
	}{
		{
			name: "all four pass",
			m:    Metrics{OrphanPercent: 5, AverageDegree: 6, BidirectionalRatio: 0.6, ClusterCoverage: 0.9},
			want: knowledge.HealthExcellent,
		},
		{
			name: "three pass",
			m:    Metrics{OrphanPercent: 5, AverageDegree: 6, BidirectionalRatio: 0.6, ClusterCoverage: 0.5},
			want: knowledge.HealthGood,
		},
		{
			name: "two pass",
			m:    Metrics{OrphanPercent: 5, AverageDegree: 6, BidirectionalRatio: 0.2, ClusterCoverage: 0.5},
			want: knowledge.HealthFair,
		},
		{
			name: "one pass",
			m:    Metrics{OrphanPercent: 5, AverageDegree: 1, BidirectionalRatio: 0.2, ClusterCoverage: 0.5},
			want: knowledge.HealthPoor,
		},
		{
			name: "none pass",
			m:    Metrics{OrphanPercent: 50, AverageDegree: 1, BidirectionalRatio: 0.2, ClusterCoverage: 0.5},
			want: knowledge.HealthPoor,
		},
		{
			name: "thresholds are strict",
			m:    Metrics{OrphanPercent: 10, AverageDegree: 5, BidirectionalRatio: 0.5, ClusterCoverage: 0.8},
			want: knowledge.HealthPoor,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, healthRollup(&tc.m))
		})
	}
}

func TestPageRankDeterministic(t *testing.T) {
	nodes, edges := metricsGraph()

	first := pageRank(nodes, edges)
	second := pageRank(nodes, edges)
	assert.Equal(t, first, second)

	// Rank mass sums to 1.
	sum := 0.0
	for _, r := range first {
		sum += r
	}
	assert.InDelta(t, 1.0, sum, 1e-6)

	// The mutually-linked pair outranks the orphan.
	assert.Greater(t, first["a"], first["c"])
}

func TestClusteringCoefficientTriangle(t *testing.T) {
	nodes := []Node{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	edges := []Edge{
		{From: "a", To: "b"},
		{From: "b", To: "c"},
		{From: "c", To: "a"},
	}

	// Every node closes the triangle.
	assert.InDelta(t, 1.0, clusteringCoefficient(nodes, edges), 1e-9)
}

func TestWeakComponents(t *testing.T) {
	nodes := []Node{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}}
	edges := []Edge{
		{From: "a", To: "b"},
		{From: "c", To: "d"},
	}
	assert.Equal(t, 2, weakComponents(nodes, edges))

	edges = append(edges, Edge{From: "b", To: "c"})
	assert.Equal(t, 1, weakComponents(nodes, edges))
}

func TestClusterCoverage(t *testing.T) {
	nodes := []Node{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}}
	clusters := []Cluster{{Members: []string{"a", "b", "c"}}}

	assert.InDelta(t, 0.75, clusterCoverage(nodes, clusters), 1e-9)
}

func TestComputeMetricsEmptyGraph(t *testing.T) {
	m := ComputeMetrics(nil, nil, nil)

	require.NotNil(t, m)
	assert.Zero(t, m.TotalNodes)
	assert.Equal(t, knowledge.HealthPoor, m.Health)
}
