package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/zettelforge/zettelforge/store"
)

// Store keys for the four graph snapshot documents.
const (
	NodesKey    = "graph/nodes.json"
	EdgesKey    = "graph/edges.json"
	ClustersKey = "graph/clusters.json"
	IndexKey    = "graph/index.json"
)

// IndexDoc is the combined index+metrics snapshot.
type IndexDoc struct {
	Meta    Meta     `json:"meta"`
	Index   *Index   `json:"index"`
	Metrics *Metrics `json:"metrics"`
}

// Snapshot bundles the four persisted graph documents.
type Snapshot struct {
	Nodes    NodesDoc
	Edges    EdgesDoc
	Clusters ClustersDoc
	Combined IndexDoc
}

// NewSnapshot assembles the snapshot documents from one build's outputs.
// Serialization order is fixed by the id-sorted inputs, so unchanged atoms
// produce byte-identical documents apart from the build timestamp.
func NewSnapshot(res *Result, clusters []Cluster, idx *Index, metrics *Metrics, builtAt time.Time) *Snapshot {
	return &Snapshot{
		Nodes: NodesDoc{
			Meta:  Meta{Version: snapshotVersion, BuiltAt: builtAt, Count: len(res.Nodes)},
			Nodes: res.Nodes,
		},
		Edges: EdgesDoc{
			Meta:  Meta{Version: snapshotVersion, BuiltAt: builtAt, Count: len(res.Edges)},
			Edges: res.Edges,
		},
		Clusters: ClustersDoc{
			Meta:     Meta{Version: snapshotVersion, BuiltAt: builtAt, Count: len(clusters)},
			Clusters: clusters,
		},
		Combined: IndexDoc{
			Meta:    Meta{Version: snapshotVersion, BuiltAt: builtAt, Count: len(res.Nodes)},
			Index:   idx,
			Metrics: metrics,
		},
	}
}

// Save persists all four snapshot documents.
func (s *Snapshot) Save(ctx context.Context, st store.Store) error {
	docs := []struct {
		key string
		doc any
	}{
		{NodesKey, &s.Nodes},
		{EdgesKey, &s.Edges},
		{ClustersKey, &s.Clusters},
		{IndexKey, &s.Combined},
	}
	for _, d := range docs {
		data, err := json.MarshalIndent(d.doc, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal %s: %w", d.key, err)
		}
		if err := st.Put(ctx, d.key, data); err != nil {
			return fmt.Errorf("save %s: %w", d.key, err)
		}
	}
	return nil
}

// LoadSnapshot reads all four snapshot documents back.
func LoadSnapshot(ctx context.Context, st store.Store) (*Snapshot, error) {
	var s Snapshot
	docs := []struct {
		key string
		doc any
	}{
		{NodesKey, &s.Nodes},
		{EdgesKey, &s.Edges},
		{ClustersKey, &s.Clusters},
		{IndexKey, &s.Combined},
	}
	for _, d := range docs {
		data, err := st.Get(ctx, d.key)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", d.key, err)
		}
		if err := json.Unmarshal(data, d.doc); err != nil {
			return nil, fmt.Errorf("parse %s: %w", d.key, err)
		}
	}
	return &s, nil
}

// LoadIndex reads just the combined index+metrics document.
func LoadIndex(ctx context.Context, st store.Store) (*IndexDoc, error) {
	data, err := st.Get(ctx, IndexKey)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", IndexKey, err)
	}
	var doc IndexDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", IndexKey, err)
	}
	return &doc, nil
}
