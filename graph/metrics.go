package graph

import (
	"sort"

	"github.com/zettelforge/zettelforge/vocabulary/knowledge"
)

// PageRank parameters: standard damping, fixed iteration count for
// deterministic output.
const (
	pageRankDamping    = 0.85
	pageRankIterations = 20
)

// Health thresholds. Each passing check counts toward the rollup.
const (
	healthyOrphanPercent = 10.0
	healthyAvgLinks      = 5.0
	healthyBidiRatio     = 0.5
	healthyCoverage      = 0.8
)

// NodeMetrics is the per-node slice of the metrics snapshot.
type NodeMetrics struct {
	ID       string  `json:"id"`
	Degree   int     `json:"degree"`
	PageRank float64 `json:"pagerank"`
}

// Metrics is the graph-level metrics snapshot.
type Metrics struct {
	TotalNodes            int     `json:"total_nodes"`
	TotalEdges            int     `json:"total_edges"`
	AverageDegree         float64 `json:"average_degree"`
	Density               float64 `json:"density"`
	ClusteringCoefficient float64 `json:"clustering_coefficient"`
	Components            int     `json:"components"`

	OrphanedNodes      []string `json:"orphaned_nodes"`
	OrphanPercent      float64  `json:"orphan_percent"`
	BidirectionalRatio float64  `json:"bidirectional_ratio"`
	ClusterCoverage    float64  `json:"cluster_coverage"`

	Health knowledge.HealthStatus `json:"health"`

	Nodes []NodeMetrics `json:"nodes"`
}

// ComputeMetrics derives the full metrics snapshot from an assembled graph.
func ComputeMetrics(nodes []Node, edges []Edge, clusters []Cluster) *Metrics {
	m := &Metrics{
		TotalNodes:    len(nodes),
		TotalEdges:    len(edges),
		OrphanedNodes: []string{},
	}
	if len(nodes) == 0 {
		m.Health = healthRollup(m)
		return m
	}

	totalDegree := 0
	for _, n := range nodes {
		totalDegree += n.Strength
		if n.Strength == 0 {
			m.OrphanedNodes = append(m.OrphanedNodes, n.ID)
		}
	}
	sort.Strings(m.OrphanedNodes)

	m.AverageDegree = float64(totalDegree) / float64(len(nodes))
	m.OrphanPercent = 100 * float64(len(m.OrphanedNodes)) / float64(len(nodes))
	if len(nodes) > 1 {
		m.Density = float64(len(edges)) / float64(len(nodes)*(len(nodes)-1))
	}
	m.ClusteringCoefficient = clusteringCoefficient(nodes, edges)
	m.Components = weakComponents(nodes, edges)

	if len(edges) > 0 {
		bidi := 0
		for _, e := range edges {
			if e.Bidirectional {
				bidi++
			}
		}
		m.BidirectionalRatio = float64(bidi) / float64(len(edges))
	}

	m.ClusterCoverage = clusterCoverage(nodes, clusters)
	m.Nodes = nodeMetrics(nodes, edges)
	m.Health = healthRollup(m)
	return m
}

// healthRollup combines the four threshold checks: all four passing is
// excellent, three good, two fair, at most one poor.
func healthRollup(m *Metrics) knowledge.HealthStatus {
	passes := 0
	if m.OrphanPercent < healthyOrphanPercent {
		passes++
	}
	if m.AverageDegree > healthyAvgLinks {
		passes++
	}
	if m.BidirectionalRatio > healthyBidiRatio {
		passes++
	}
	if m.ClusterCoverage > healthyCoverage {
		passes++
	}

	switch passes {
	case 4:
		return knowledge.HealthExcellent
	case 3:
		return knowledge.HealthGood
	case 2:
		return knowledge.HealthFair
	default:
		return knowledge.HealthPoor
	}
}

// nodeMetrics computes degree and PageRank per node, id-sorted.
func nodeMetrics(nodes []Node, edges []Edge) []NodeMetrics {
	rank := pageRank(nodes, edges)

	out := make([]NodeMetrics, len(nodes))
	for i, n := range nodes {
		out[i] = NodeMetrics{ID: n.ID, Degree: n.Strength, PageRank: rank[n.ID]}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// pageRank runs a fixed-iteration power method with uniform dangling-mass
// redistribution. Deterministic for identical input.
func pageRank(nodes []Node, edges []Edge) map[string]float64 {
	n := len(nodes)
	if n == 0 {
		return map[string]float64{}
	}

	out := make(map[string][]string, n)
	for _, e := range edges {
		if e.From != e.To {
			out[e.From] = append(out[e.From], e.To)
		}
	}

	rank := make(map[string]float64, n)
	for _, node := range nodes {
		rank[node.ID] = 1.0 / float64(n)
	}

	base := (1 - pageRankDamping) / float64(n)
	for i := 0; i < pageRankIterations; i++ {
		next := make(map[string]float64, n)
		dangling := 0.0
		for _, node := range nodes {
			targets := out[node.ID]
			if len(targets) == 0 {
				dangling += rank[node.ID]
				continue
			}
			share := rank[node.ID] / float64(len(targets))
			for _, target := range targets {
				next[target] += share
			}
		}
		danglingShare := dangling / float64(n)
		for _, node := range nodes {
			rank[node.ID] = base + pageRankDamping*(next[node.ID]+danglingShare)
		}
	}
	return rank
}

// clusteringCoefficient averages each node's local coefficient over its
// undirected neighborhood.
func clusteringCoefficient(nodes []Node, edges []Edge) float64 {
	neighbors := make(map[string]map[string]bool, len(nodes))
	addNeighbor := func(a, b string) {
		if a == b {
			return
		}
		if neighbors[a] == nil {
			neighbors[a] = make(map[string]bool)
		}
		neighbors[a][b] = true
	}
	for _, e := range edges {
		addNeighbor(e.From, e.To)
		addNeighbor(e.To, e.From)
	}

	sum := 0.0
	for _, node := range nodes {
		ns := neighbors[node.ID]
		k := len(ns)
		if k < 2 {
			continue
		}
		links := 0
		for a := range ns {
			for b := range neighbors[a] {
				if a < b && ns[b] {
					links++
				}
			}
		}
		sum += 2 * float64(links) / float64(k*(k-1))
	}
	return sum / float64(len(nodes))
}

// weakComponents counts weakly-connected components via union-find.
func weakComponents(nodes []Node, edges []Edge) int {
	parent := make(map[string]string, len(nodes))
	for _, n := range nodes {
		parent[n.ID] = n.ID
	}

	var find func(string) string
	find = func(id string) string {
		if parent[id] != id {
			parent[id] = find(parent[id])
		}
		return parent[id]
	}

	for _, e := range edges {
		if _, ok := parent[e.From]; !ok {
			continue
		}
		if _, ok := parent[e.To]; !ok {
			continue
		}
		parent[find(e.From)] = find(e.To)
	}

	roots := make(map[string]bool)
	for _, n := range nodes {
		roots[find(n.ID)] = true
	}
	return len(roots)
}

// clusterCoverage is the share of nodes belonging to at least one cluster.
func clusterCoverage(nodes []Node, clusters []Cluster) float64 {
	if len(nodes) == 0 {
		return 0
	}
	covered := make(map[string]bool)
	for _, c := range clusters {
		for _, id := range c.Members {
			covered[id] = true
		}
	}
	count := 0
	for _, n := range nodes {
		if covered[n.ID] {
			count++
		}
	}
	return float64(count) / float64(len(nodes))
}
