package atom

import (
	"fmt"
	"sort"
	"strings"

	"github.com/zettelforge/zettelforge/vocabulary/knowledge"
)

// AutoLink adds "related" links between atoms whose tag sets overlap at or
// above the threshold (Jaccard: |intersection| / |union|). Links are added
// in both directions, skipping pairs already linked either way. Similarity
// is tag overlap only; there is no embedding model. Returns the number of
// links added.
func AutoLink(atoms []*Atom, threshold float64) int {
	added := 0
	for i := 0; i < len(atoms); i++ {
		for j := i + 1; j < len(atoms); j++ {
			a, b := atoms[i], atoms[j]

			shared := sharedTags(a.Tags, b.Tags)
			if tagSimilarity(a.Tags, b.Tags) < threshold || len(shared) == 0 {
				continue
			}

			desc := fmt.Sprintf("shared tags: %s", strings.Join(shared, ", "))
			if !a.HasLink(b.ID) {
				a.Links = append(a.Links, Link{Target: b.ID, Kind: knowledge.RelationRelated, Description: desc})
				added++
			}
			if !b.HasLink(a.ID) {
				b.Links = append(b.Links, Link{Target: a.ID, Kind: knowledge.RelationRelated, Description: desc})
				added++
			}
		}
	}
	return added
}

// tagSimilarity computes Jaccard similarity over normalized tags.
func tagSimilarity(a, b []string) float64 {
	setA := tagSet(a)
	setB := tagSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	intersection := 0
	for tag := range setA {
		if setB[tag] {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}

func sharedTags(a, b []string) []string {
	setB := tagSet(b)
	seen := make(map[string]bool)
	var shared []string
	for _, tag := range a {
		t := strings.ToLower(strings.TrimSpace(tag))
		if setB[t] && !seen[t] {
			shared = append(shared, t)
			seen[t] = true
		}
	}
	sort.Strings(shared)
	return shared
}

func tagSet(tags []string) map[string]bool {
	set := make(map[string]bool, len(tags))
	for _, tag := range tags {
		t := strings.ToLower(strings.TrimSpace(tag))
		if t != "" {
			set[t] = true
		}
	}
	return set
}
