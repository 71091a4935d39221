package graph

import (
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/zettelforge/zettelforge/vocabulary/knowledge"
)

// refPattern matches the recognized wiki-link forms: [[target]],
// [[target|display]], and an optional trailing (kind) qualifier.
var refPattern = regexp.MustCompile(`\[\[([^\]|]+)(?:\|([^\]]+))?\]\](?:\s*\(([a-z]+)\))?`)

// Ref is one wiki-link occurrence extracted from text.
type Ref struct {
	// Target is the link text before any |display part: an id or a title.
	Target string

	// Display is the optional display text.
	Display string

	// Kind is the declared relationship kind, RelationRelated when absent.
	Kind knowledge.RelationshipKind
}

// ResolvedLink is a reference that resolved to a known node.
type ResolvedLink struct {
	From string                     `json:"from"`
	To   string                     `json:"to"`
	Kind knowledge.RelationshipKind `json:"kind"`
}

// BrokenLink is a reference with no candidate target.
type BrokenLink struct {
	From string `json:"from"`
	Text string `json:"text"`
}

// AmbiguousLink is a reference with multiple equally-ranked candidates.
// The engine never guesses among truly tied candidates.
type AmbiguousLink struct {
	From       string   `json:"from"`
	Text       string   `json:"text"`
	Candidates []string `json:"candidates"`
}

// Resolution accumulates the outcome of resolving a batch of references.
type Resolution struct {
	Resolved  []ResolvedLink
	Broken    []BrokenLink
	Ambiguous []AmbiguousLink
}

// Resolver maps reference text to node ids. Resolution order: exact id,
// exact title, fuzzy token overlap at or above the threshold with type
// priority as tie-break. Broken and ambiguous references are recorded,
// never fatal.
type Resolver struct {
	byID      map[string]*Node
	byTitle   map[string][]*Node
	threshold float64
	logger    *slog.Logger
}

// NewResolver builds a resolver over the given node set.
func NewResolver(nodes []Node, threshold float64, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Resolver{
		byID:      make(map[string]*Node, len(nodes)),
		byTitle:   make(map[string][]*Node),
		threshold: threshold,
		logger:    logger,
	}
	for i := range nodes {
		n := &nodes[i]
		r.byID[n.ID] = n
		key := strings.ToLower(strings.TrimSpace(n.Title))
		r.byTitle[key] = append(r.byTitle[key], n)
	}
	return r
}

// ExtractRefs finds every wiki-link occurrence in text, in order.
func ExtractRefs(text string) []Ref {
	matches := refPattern.FindAllStringSubmatch(text, -1)
	refs := make([]Ref, 0, len(matches))
	for _, m := range matches {
		ref := Ref{
			Target:  strings.TrimSpace(m[1]),
			Display: strings.TrimSpace(m[2]),
			Kind:    knowledge.RelationRelated,
		}
		if m[3] != "" {
			ref.Kind = knowledge.RelationshipKind(m[3])
		}
		refs = append(refs, ref)
	}
	return refs
}

// ResolveText extracts and resolves every reference in text, recording the
// outcomes against the from node.
func (r *Resolver) ResolveText(res *Resolution, from, text string) {
	for _, ref := range ExtractRefs(text) {
		r.ResolveRef(res, from, ref)
	}
}

// ResolveRef resolves a single reference and records the outcome.
func (r *Resolver) ResolveRef(res *Resolution, from string, ref Ref) {
	// Exact id match.
	if _, ok := r.byID[ref.Target]; ok {
		res.Resolved = append(res.Resolved, ResolvedLink{From: from, To: ref.Target, Kind: ref.Kind})
		return
	}

	// Exact title match.
	if nodes, ok := r.byTitle[strings.ToLower(strings.TrimSpace(ref.Target))]; ok {
		if winner, tied := pickByPriority(nodes); !tied {
			res.Resolved = append(res.Resolved, ResolvedLink{From: from, To: winner.ID, Kind: ref.Kind})
			return
		}
		res.Ambiguous = append(res.Ambiguous, AmbiguousLink{From: from, Text: ref.Target, Candidates: nodeIDs(nodes)})
		return
	}

	// Fuzzy match on title tokens.
	candidates := r.fuzzyCandidates(ref.Target)
	switch {
	case len(candidates) == 0:
		r.logger.Debug("Broken link", "from", from, "text", ref.Target)
		res.Broken = append(res.Broken, BrokenLink{From: from, Text: ref.Target})
	case len(candidates) == 1:
		res.Resolved = append(res.Resolved, ResolvedLink{From: from, To: candidates[0].ID, Kind: ref.Kind})
	default:
		if winner, tied := pickByPriority(candidates); !tied {
			res.Resolved = append(res.Resolved, ResolvedLink{From: from, To: winner.ID, Kind: ref.Kind})
			return
		}
		r.logger.Debug("Ambiguous link", "from", from, "text", ref.Target, "candidates", len(candidates))
		res.Ambiguous = append(res.Ambiguous, AmbiguousLink{From: from, Text: ref.Target, Candidates: nodeIDs(candidates)})
	}
}

// fuzzyCandidates returns the best-scoring nodes at or above the threshold.
// Only top-score candidates survive; ties go to the priority tie-break.
func (r *Resolver) fuzzyCandidates(text string) []*Node {
	want := tokenize(text)
	if len(want) == 0 {
		return nil
	}

	var (
		best       float64
		candidates []*Node
	)
	for _, nodes := range r.byTitle {
		for _, n := range nodes {
			score := tokenOverlap(want, tokenize(n.Title))
			if score < r.threshold {
				continue
			}
			switch {
			case score > best:
				best = score
				candidates = candidates[:0]
				candidates = append(candidates, n)
			case score == best:
				candidates = append(candidates, n)
			}
		}
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].ID < candidates[j].ID })
	return candidates
}

// pickByPriority returns the single highest-priority node, or tied=true
// when more than one node shares the top priority.
func pickByPriority(nodes []*Node) (*Node, bool) {
	if len(nodes) == 1 {
		return nodes[0], false
	}
	best := nodes[0]
	tied := false
	for _, n := range nodes[1:] {
		switch {
		case knowledge.TypePriority(n.Type) < knowledge.TypePriority(best.Type):
			best = n
			tied = false
		case knowledge.TypePriority(n.Type) == knowledge.TypePriority(best.Type):
			tied = true
		}
	}
	return best, tied
}

var nonWord = regexp.MustCompile(`[^a-z0-9]+`)

// tokenize lower-cases, strips non-word characters, and returns the token
// set of the text.
func tokenize(text string) map[string]bool {
	parts := nonWord.Split(strings.ToLower(text), -1)
	set := make(map[string]bool, len(parts))
	for _, p := range parts {
		if p != "" {
			set[p] = true
		}
	}
	return set
}

// tokenOverlap scores two token sets by Jaccard overlap.
func tokenOverlap(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	intersection := 0
	for tok := range a {
		if b[tok] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}

func nodeIDs(nodes []*Node) []string {
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	sort.Strings(ids)
	return ids
}
