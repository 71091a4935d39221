package atom

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/zettelforge/zettelforge/folgezettel"
	"github.com/zettelforge/zettelforge/store"
)

// RegistryKey is the store key the registry persists under.
const RegistryKey = "registry.json"

// registryVersion is bumped when the persisted registry format changes.
const registryVersion = "1.0.0"

// ErrDuplicateAtom is returned when a register call would overwrite an
// existing atom id.
var ErrDuplicateAtom = errors.New("atom id already registered")

// Meta is the registry header block.
type Meta struct {
	Version     string               `json:"version"`
	LastUpdated time.Time            `json:"last_updated"`
	TotalAtoms  int                  `json:"total_atoms"`
	NextID      *folgezettel.Counter `json:"next_id"`
}

// Entry is the registry's per-atom record: the full atom plus its store
// path. Keeping the whole record here makes the registry the single source
// of truth for graph rebuilds across runs.
type Entry struct {
	Atom Atom   `json:"atom"`
	Path string `json:"path"`
}

// Index holds the registry's derived inverted maps. Rebuilt additively as
// atoms register.
type Index struct {
	ByCategory map[string][]string `json:"by_category"`
	ByTag      map[string][]string `json:"by_tag"`
	ByYear     map[string][]string `json:"by_year"`
}

// Statistics summarizes the registry contents.
type Statistics struct {
	ByCategory map[string]int `json:"by_category"`
	ByYear     map[string]int `json:"by_year"`
	TotalLinks int            `json:"total_links"`
}

// Registry is the process-wide persistent state: every known atom, the
// derived indices, and the per-year id counter. Loaded at run start,
// mutated additively, persisted at run end. Single writer; concurrent runs
// are prevented by the CLI's advisory lock, not here.
type Registry struct {
	Meta       Meta             `json:"meta"`
	Atoms      map[string]Entry `json:"atoms"`
	Index      Index            `json:"index"`
	Statistics Statistics       `json:"statistics"`
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		Meta: Meta{
			Version: registryVersion,
			NextID:  folgezettel.NewCounter(),
		},
		Atoms: make(map[string]Entry),
		Index: Index{
			ByCategory: make(map[string][]string),
			ByTag:      make(map[string][]string),
			ByYear:     make(map[string][]string),
		},
		Statistics: Statistics{
			ByCategory: make(map[string]int),
			ByYear:     make(map[string]int),
		},
	}
}

// LoadRegistry reads the registry from the store, or initializes an empty
// one when none has been persisted yet.
func LoadRegistry(ctx context.Context, s store.Store) (*Registry, error) {
	data, err := s.Get(ctx, RegistryKey)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return NewRegistry(), nil
		}
		return nil, fmt.Errorf("load registry: %w", err)
	}

	var r Registry
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse registry: %w", err)
	}
	r.normalize()
	return &r, nil
}

// Save persists the registry, refreshing the meta block. Callers pass the
// run timestamp so derived snapshots built at the same instant do not read
// as stale against the registry.
func (r *Registry) Save(ctx context.Context, s store.Store, at time.Time) error {
	r.Meta.LastUpdated = at.UTC()
	r.Meta.TotalAtoms = len(r.Atoms)

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal registry: %w", err)
	}
	if err := s.Put(ctx, RegistryKey, data); err != nil {
		return fmt.Errorf("save registry: %w", err)
	}
	return nil
}

// Register adds an atom. Registration is additive only: re-registering an
// existing id is ErrDuplicateAtom, never an overwrite.
func (r *Registry) Register(a *Atom) error {
	if _, ok := r.Atoms[a.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateAtom, a.ID)
	}

	r.Atoms[a.ID] = Entry{Atom: *a, Path: a.Key()}

	category := string(a.Category)
	r.Index.ByCategory[category] = insertSorted(r.Index.ByCategory[category], a.ID)
	for _, tag := range a.Tags {
		r.Index.ByTag[tag] = insertSorted(r.Index.ByTag[tag], a.ID)
	}
	year := yearOf(a.ID)
	r.Index.ByYear[year] = insertSorted(r.Index.ByYear[year], a.ID)

	r.Statistics.ByCategory[category]++
	r.Statistics.ByYear[year]++
	r.Statistics.TotalLinks += len(a.Links)
	return nil
}

// Exists reports whether an atom id is registered. Satisfies
// folgezettel.ExistsFunc.
func (r *Registry) Exists(id string) bool {
	_, ok := r.Atoms[id]
	return ok
}

// Counter returns the registry-owned id counter for the allocator.
func (r *Registry) Counter() *folgezettel.Counter {
	return r.Meta.NextID
}

// IDs returns all registered atom ids in sorted order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.Atoms))
	for id := range r.Atoms {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// AllAtoms returns every registered atom in id-sorted order. The slice
// holds copies; mutating them does not touch the registry.
func (r *Registry) AllAtoms() []*Atom {
	atoms := make([]*Atom, 0, len(r.Atoms))
	for _, id := range r.IDs() {
		entry := r.Atoms[id]
		a := entry.Atom
		atoms = append(atoms, &a)
	}
	return atoms
}

// normalize repairs nil maps after deserialization of older or partial
// registries.
func (r *Registry) normalize() {
	if r.Atoms == nil {
		r.Atoms = make(map[string]Entry)
	}
	if r.Meta.NextID == nil {
		r.Meta.NextID = folgezettel.NewCounter()
	}
	if r.Index.ByCategory == nil {
		r.Index.ByCategory = make(map[string][]string)
	}
	if r.Index.ByTag == nil {
		r.Index.ByTag = make(map[string][]string)
	}
	if r.Index.ByYear == nil {
		r.Index.ByYear = make(map[string][]string)
	}
	if r.Statistics.ByCategory == nil {
		r.Statistics.ByCategory = make(map[string]int)
	}
	if r.Statistics.ByYear == nil {
		r.Statistics.ByYear = make(map[string]int)
	}
}

func yearOf(id string) string {
	parsed, err := folgezettel.Parse(id)
	if err != nil {
		return "unknown"
	}
	return strconv.Itoa(parsed.Year)
}

func insertSorted(ids []string, id string) []string {
	i := sort.SearchStrings(ids, id)
	if i < len(ids) && ids[i] == id {
		return ids
	}
	ids = append(ids, "")
	copy(ids[i+1:], ids[i:])
	ids[i] = id
	return ids
}
