package graph

import (
	"fmt"
	"log/slog"
	"sort"
	"unicode/utf8"

	"github.com/zettelforge/zettelforge/atom"
	"github.com/zettelforge/zettelforge/vocabulary/knowledge"
)

// excerptLen caps the node excerpt taken from an atom's core idea.
const excerptLen = 200

// kindStrength maps relationship kinds to edge strength.
var kindStrength = map[knowledge.RelationshipKind]float64{
	knowledge.RelationParent:      0.9,
	knowledge.RelationElaborates:  0.9,
	knowledge.RelationAlternative: 0.8,
	knowledge.RelationContrasts:   0.7,
	knowledge.RelationRelated:     0.5,
}

// Result is the outcome of one assembly pass: the graph itself plus the
// structural and quality findings the validation report consumes.
type Result struct {
	Nodes []Node
	Edges []Edge

	Resolution Resolution

	// Duplicates are repeated from→to references. Structural: the graph
	// is marked invalid but the run completes.
	Duplicates []Edge

	// SelfLoops are nodes referencing themselves. Quality warning only.
	SelfLoops []string
}

// Assembler builds the node and edge sets from atoms. Assembly is
// idempotent and deterministic: unchanged atoms yield byte-identical
// id-sorted collections.
type Assembler struct {
	threshold float64
	logger    *slog.Logger
}

// NewAssembler creates an Assembler with the given fuzzy-match threshold.
func NewAssembler(threshold float64, logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{threshold: threshold, logger: logger}
}

// NodeFromAtom projects one atom onto its graph node.
func NodeFromAtom(a *atom.Atom) Node {
	excerpt := truncate(a.CoreIdea, excerptLen)
	return Node{
		ID:       a.ID,
		Type:     knowledge.NodeAtom,
		Title:    a.Title,
		Category: a.Category,
		Tags:     a.Tags,
		Created:  a.Created,
		Modified: a.Modified,
		Excerpt:  excerpt,
	}
}

// truncate cuts s to at most max bytes without splitting a rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// Assemble builds the graph. Nodes map 1:1 from atoms plus any extra
// pre-built nodes (scanned non-atom documents). Edges come only from
// resolved references: an atom's declared links plus wiki-links found in
// its text blocks. Unresolved and ambiguous references never create edges.
func (asm *Assembler) Assemble(atoms []*atom.Atom, extra []Node) *Result {
	nodes := make([]Node, 0, len(atoms)+len(extra))
	for _, a := range atoms {
		nodes = append(nodes, NodeFromAtom(a))
	}
	nodes = append(nodes, extra...)
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })

	resolver := NewResolver(nodes, asm.threshold, asm.logger)
	res := &Result{Nodes: nodes}

	for _, a := range atoms {
		for _, l := range a.Links {
			resolver.ResolveRef(&res.Resolution, a.ID, Ref{Target: l.Target, Kind: l.Kind})
		}
		for _, text := range []string{a.CoreIdea, a.Context, a.Evidence, a.Implications} {
			resolver.ResolveText(&res.Resolution, a.ID, text)
		}
	}

	asm.buildEdges(res)
	asm.wireNodes(res)
	return res
}

// buildEdges converts resolved links to edges, deduplicating repeated
// from→to pairs and flagging bidirectional pairs.
func (asm *Assembler) buildEdges(res *Result) {
	type pair struct{ from, to string }
	seen := make(map[pair]bool)

	for _, l := range res.Resolution.Resolved {
		p := pair{l.From, l.To}
		edge := Edge{From: l.From, To: l.To, Kind: l.Kind, Strength: strengthOf(l.Kind)}
		if seen[p] {
			res.Duplicates = append(res.Duplicates, edge)
			continue
		}
		seen[p] = true

		if l.From == l.To {
			asm.logger.Warn("Self-loop", "node", l.From)
			res.SelfLoops = append(res.SelfLoops, l.From)
		}
		res.Edges = append(res.Edges, edge)
	}

	for i := range res.Edges {
		e := &res.Edges[i]
		if e.From != e.To && seen[pair{e.To, e.From}] {
			e.Bidirectional = true
		}
	}

	sort.Slice(res.Edges, func(i, j int) bool {
		a, b := res.Edges[i], res.Edges[j]
		if a.From != b.From {
			return a.From < b.From
		}
		return a.To < b.To
	})
}

// wireNodes fills the derived outgoing/incoming lists and node strength.
// A self-loop counts once, on the outgoing side.
func (asm *Assembler) wireNodes(res *Result) {
	byID := make(map[string]*Node, len(res.Nodes))
	for i := range res.Nodes {
		byID[res.Nodes[i].ID] = &res.Nodes[i]
	}

	for _, e := range res.Edges {
		if from, ok := byID[e.From]; ok {
			from.Outgoing = append(from.Outgoing, e.To)
		}
		if e.From == e.To {
			continue
		}
		if to, ok := byID[e.To]; ok {
			to.Incoming = append(to.Incoming, e.From)
		}
	}

	for i := range res.Nodes {
		n := &res.Nodes[i]
		sort.Strings(n.Outgoing)
		sort.Strings(n.Incoming)
		n.Strength = len(n.Outgoing) + len(n.Incoming)
	}
}

func strengthOf(kind knowledge.RelationshipKind) float64 {
	if s, ok := kindStrength[kind]; ok {
		return s
	}
	return 0.5
}

// Orphans returns the ids of nodes with no edges in either direction.
func (res *Result) Orphans() []string {
	var orphans []string
	for _, n := range res.Nodes {
		if n.Strength == 0 {
			orphans = append(orphans, n.ID)
		}
	}
	return orphans
}

// Validate reports the structural findings as errors. Quality findings
// stay warnings.
func (res *Result) Validate() []error {
	var errs []error
	for _, b := range res.Resolution.Broken {
		errs = append(errs, fmt.Errorf("broken link from %s: %q", b.From, b.Text))
	}
	for _, d := range res.Duplicates {
		errs = append(errs, fmt.Errorf("duplicate edge %s -> %s", d.From, d.To))
	}
	return errs
}
