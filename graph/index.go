package graph

import (
	"sort"
	"strings"
	"time"

	"github.com/zettelforge/zettelforge/atom"
	"github.com/zettelforge/zettelforge/vocabulary/knowledge"
)

// rankLimit caps the ranked lists in the index snapshot.
const rankLimit = 10

// minTokenLen filters full-text tokens; shorter tokens are noise.
const minTokenLen = 3

// Index is the query snapshot: five inverted mappings plus ranked lists.
// Rebuilt wholesale whenever the registry is newer than BuiltAt.
type Index struct {
	Meta Meta `json:"meta"`

	ByType     map[string][]string `json:"by_type"`
	ByCategory map[string][]string `json:"by_category"`
	ByTag      map[string][]string `json:"by_tag"`
	ByProject  map[string][]string `json:"by_project"`
	ByToken    map[string][]string `json:"by_token"`

	MostConnected    []string `json:"most_connected"`
	LeastConnected   []string `json:"least_connected"`
	RecentlyModified []string `json:"recently_modified"`
	RecentlyCreated  []string `json:"recently_created"`
}

// BuildIndex derives the index snapshot from the assembled node set. The
// project mapping comes from atom references of project or pattern type.
func BuildIndex(nodes []Node, atoms []*atom.Atom, builtAt time.Time) *Index {
	idx := &Index{
		Meta:       Meta{Version: snapshotVersion, BuiltAt: builtAt, Count: len(nodes)},
		ByType:     make(map[string][]string),
		ByCategory: make(map[string][]string),
		ByTag:      make(map[string][]string),
		ByProject:  make(map[string][]string),
		ByToken:    make(map[string][]string),
	}

	for _, n := range nodes {
		idx.ByType[string(n.Type)] = append(idx.ByType[string(n.Type)], n.ID)
		if n.Category != "" {
			idx.ByCategory[string(n.Category)] = append(idx.ByCategory[string(n.Category)], n.ID)
		}
		for _, tag := range n.Tags {
			t := strings.ToLower(strings.TrimSpace(tag))
			if t != "" {
				idx.ByTag[t] = append(idx.ByTag[t], n.ID)
			}
		}
		for tok := range indexTokens(n) {
			idx.ByToken[tok] = append(idx.ByToken[tok], n.ID)
		}
	}

	for _, a := range atoms {
		for _, ref := range a.References {
			if ref.Type == knowledge.ReferenceProject || ref.Type == knowledge.ReferencePattern {
				idx.ByProject[ref.Target] = append(idx.ByProject[ref.Target], a.ID)
			}
		}
	}

	for _, m := range []map[string][]string{idx.ByType, idx.ByCategory, idx.ByTag, idx.ByProject, idx.ByToken} {
		for k, ids := range m {
			m[k] = dedupeSorted(ids)
		}
	}

	idx.MostConnected = rankByStrength(nodes, true)
	idx.LeastConnected = rankByStrength(nodes, false)
	idx.RecentlyModified = rankByTime(nodes, func(n Node) time.Time { return n.Modified })
	idx.RecentlyCreated = rankByTime(nodes, func(n Node) time.Time { return n.Created })

	return idx
}

// Stale reports whether the registry has changed since this snapshot was
// built. A stale index must be rebuilt before answering a query.
func (idx *Index) Stale(registryUpdated time.Time) bool {
	return registryUpdated.After(idx.Meta.BuiltAt)
}

// Search returns the ids matching every token of the query text.
func (idx *Index) Search(query string) []string {
	tokens := splitTokens(query)
	if len(tokens) == 0 {
		return nil
	}

	var result []string
	for i, tok := range tokens {
		ids := idx.ByToken[tok]
		if len(ids) == 0 {
			return nil
		}
		if i == 0 {
			result = append([]string(nil), ids...)
			continue
		}
		result = intersectSorted(result, ids)
		if len(result) == 0 {
			return nil
		}
	}
	return result
}

// indexTokens collects the full-text tokens of a node: title, excerpt,
// and tags, lower-cased, length above two.
func indexTokens(n Node) map[string]bool {
	set := make(map[string]bool)
	for _, text := range []string{n.Title, n.Excerpt, strings.Join(n.Tags, " ")} {
		for _, tok := range splitTokens(text) {
			set[tok] = true
		}
	}
	return set
}

func splitTokens(text string) []string {
	parts := nonWord.Split(strings.ToLower(text), -1)
	var out []string
	for _, p := range parts {
		if len(p) >= minTokenLen {
			out = append(out, p)
		}
	}
	return out
}

func rankByStrength(nodes []Node, most bool) []string {
	ranked := append([]Node(nil), nodes...)
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Strength != ranked[j].Strength {
			if most {
				return ranked[i].Strength > ranked[j].Strength
			}
			return ranked[i].Strength < ranked[j].Strength
		}
		return ranked[i].ID < ranked[j].ID
	})
	return topIDs(ranked)
}

func rankByTime(nodes []Node, at func(Node) time.Time) []string {
	ranked := append([]Node(nil), nodes...)
	sort.Slice(ranked, func(i, j int) bool {
		ti, tj := at(ranked[i]), at(ranked[j])
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return ranked[i].ID < ranked[j].ID
	})
	return topIDs(ranked)
}

func topIDs(nodes []Node) []string {
	limit := rankLimit
	if len(nodes) < limit {
		limit = len(nodes)
	}
	ids := make([]string, limit)
	for i := 0; i < limit; i++ {
		ids[i] = nodes[i].ID
	}
	return ids
}

func dedupeSorted(ids []string) []string {
	sort.Strings(ids)
	out := ids[:0]
	for i, id := range ids {
		if i == 0 || id != ids[i-1] {
			out = append(out, id)
		}
	}
	return out
}

func intersectSorted(a, b []string) []string {
	set := make(map[string]bool, len(b))
	for _, id := range b {
		set[id] = true
	}
	var out []string
	for _, id := range a {
		if set[id] {
			out = append(out, id)
		}
	}
	return out
}
