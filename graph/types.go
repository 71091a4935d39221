// Package graph projects atoms into a knowledge graph: link resolution,
// node/edge assembly, cluster detection, metrics, and the query index.
// Everything here is derived state, recomputed in full on every build.
package graph

import (
	"time"

	"github.com/zettelforge/zettelforge/vocabulary/knowledge"
)

// Node is the graph-level projection of an atom or other scanned document.
// Nodes share this base structure; type-specific fields stay optional
// rather than an open property bag.
type Node struct {
	ID       string                     `json:"id"`
	Type     knowledge.NodeType         `json:"type"`
	Title    string                     `json:"title"`
	Category knowledge.CategoryType     `json:"category,omitempty"`
	Tags     []string                   `json:"tags,omitempty"`
	Created  time.Time                  `json:"created,omitzero"`
	Modified time.Time                  `json:"modified,omitzero"`
	Excerpt  string                     `json:"excerpt,omitempty"`

	// Outgoing and Incoming are derived from the resolved edge set.
	Outgoing []string `json:"outgoing,omitempty"`
	Incoming []string `json:"incoming,omitempty"`

	// Strength is |outgoing| + |incoming|.
	Strength int `json:"strength"`
}

// Edge is one resolved directed link.
type Edge struct {
	From          string                     `json:"from"`
	To            string                     `json:"to"`
	Kind          knowledge.RelationshipKind `json:"kind"`
	Strength      float64                    `json:"strength"`
	Bidirectional bool                       `json:"bidirectional"`
}

// Cluster is a tag-co-occurrence grouping. Clusters overlap; they are not
// a partition of the node set.
type Cluster struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Members      []string `json:"members"`
	Density      float64  `json:"density"`
	CentralNodes []string `json:"central_nodes"`
	DominantTags []string `json:"dominant_tags"`
}

// Meta is the header block every persisted snapshot document carries.
type Meta struct {
	Version string    `json:"version"`
	BuiltAt time.Time `json:"built_at"`
	Count   int       `json:"count"`
}

// NodesDoc is the persisted node snapshot.
type NodesDoc struct {
	Meta  Meta   `json:"meta"`
	Nodes []Node `json:"nodes"`
}

// EdgesDoc is the persisted edge snapshot.
type EdgesDoc struct {
	Meta  Meta   `json:"meta"`
	Edges []Edge `json:"edges"`
}

// ClustersDoc is the persisted cluster snapshot.
type ClustersDoc struct {
	Meta     Meta      `json:"meta"`
	Clusters []Cluster `json:"clusters"`
}

// snapshotVersion is bumped when the persisted snapshot format changes.
const snapshotVersion = "1.0.0"
