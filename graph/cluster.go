package graph

import (
	"sort"
	"strings"
)

// minClusterSize is the smallest node set that forms a cluster.
const minClusterSize = 3

// dominantTagCount caps how many co-occurring tags a cluster reports.
const dominantTagCount = 3

// DetectClusters groups nodes by shared tag: any tag carried by at least
// three nodes becomes a cluster named after it. Clusters overlap, one per
// shared tag. Density is realized internal edges over N·(N−1); central
// nodes are the top three by intra-cluster degree.
func DetectClusters(nodes []Node, edges []Edge) []Cluster {
	byTag := make(map[string][]string)
	for _, n := range nodes {
		for _, tag := range n.Tags {
			t := strings.ToLower(strings.TrimSpace(tag))
			if t != "" {
				byTag[t] = append(byTag[t], n.ID)
			}
		}
	}

	tagsOf := make(map[string][]string, len(nodes))
	for _, n := range nodes {
		tagsOf[n.ID] = n.Tags
	}

	tags := make([]string, 0, len(byTag))
	for tag, members := range byTag {
		if len(members) >= minClusterSize {
			tags = append(tags, tag)
		}
	}
	sort.Strings(tags)

	clusters := make([]Cluster, 0, len(tags))
	for _, tag := range tags {
		members := append([]string(nil), byTag[tag]...)
		sort.Strings(members)

		clusters = append(clusters, Cluster{
			ID:           "cluster-" + tag,
			Name:         tag,
			Members:      members,
			Density:      clusterDensity(members, edges),
			CentralNodes: centralNodes(members, edges),
			DominantTags: dominantTags(tag, members, tagsOf),
		})
	}
	return clusters
}

// clusterDensity is the share of possible directed internal edges that
// actually exist.
func clusterDensity(members []string, edges []Edge) float64 {
	n := len(members)
	if n < 2 {
		return 0
	}

	inCluster := make(map[string]bool, n)
	for _, id := range members {
		inCluster[id] = true
	}

	internal := 0
	for _, e := range edges {
		if e.From != e.To && inCluster[e.From] && inCluster[e.To] {
			internal++
		}
	}
	return float64(internal) / float64(n*(n-1))
}

// centralNodes returns the top three members by intra-cluster degree,
// ties broken by id.
func centralNodes(members []string, edges []Edge) []string {
	inCluster := make(map[string]bool, len(members))
	for _, id := range members {
		inCluster[id] = true
	}

	degree := make(map[string]int, len(members))
	for _, e := range edges {
		if e.From == e.To || !inCluster[e.From] || !inCluster[e.To] {
			continue
		}
		degree[e.From]++
		degree[e.To]++
	}

	ranked := append([]string(nil), members...)
	sort.Slice(ranked, func(i, j int) bool {
		if degree[ranked[i]] != degree[ranked[j]] {
			return degree[ranked[i]] > degree[ranked[j]]
		}
		return ranked[i] < ranked[j]
	})

	if len(ranked) > 3 {
		ranked = ranked[:3]
	}
	return ranked
}

// dominantTags returns the cluster's tag plus the most frequent other tags
// among its members.
func dominantTags(primary string, members []string, tagsOf map[string][]string) []string {
	counts := make(map[string]int)
	for _, id := range members {
		for _, tag := range tagsOf[id] {
			t := strings.ToLower(strings.TrimSpace(tag))
			if t != "" && t != primary {
				counts[t]++
			}
		}
	}

	others := make([]string, 0, len(counts))
	for tag := range counts {
		others = append(others, tag)
	}
	sort.Slice(others, func(i, j int) bool {
		if counts[others[i]] != counts[others[j]] {
			return counts[others[i]] > counts[others[j]]
		}
		return others[i] < others[j]
	})

	tags := []string{primary}
	for _, tag := range others {
		if len(tags) == dominantTagCount {
			break
		}
		tags = append(tags, tag)
	}
	return tags
}
