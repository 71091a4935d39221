// Package atom turns allocated concepts into persisted knowledge units:
// the atom records themselves, their markdown rendering, and the registry
// that tracks every id ever issued.
package atom

import (
	"time"

	"github.com/zettelforge/zettelforge/vocabulary/knowledge"
)

// Atom is one persisted, addressable unit of extracted knowledge.
// Mutation is additive: later runs may add atoms and links but never
// silently overwrite or delete existing ones.
type Atom struct {
	ID           string                 `json:"id"`
	Title        string                 `json:"title"`
	Category     knowledge.CategoryType `json:"category"`
	Tags         []string               `json:"tags,omitempty"`
	Created      time.Time              `json:"created"`
	Modified     time.Time              `json:"modified"`
	CoreIdea     string                 `json:"core_idea"`
	Context      string                 `json:"context"`
	Evidence     string                 `json:"evidence"`
	Implications string                 `json:"implications"`
	Links        []Link                 `json:"links,omitempty"`
	References   []Reference            `json:"references,omitempty"`
}

// Link is a directed relationship from this atom to another.
type Link struct {
	Target      string                     `json:"target"`
	Kind        knowledge.RelationshipKind `json:"kind"`
	Description string                     `json:"description,omitempty"`
}

// Reference is a typed pointer to something outside the atom set: a source
// pattern, a project, a layer, or an external source.
type Reference struct {
	Type        knowledge.ReferenceType `json:"type"`
	Target      string                  `json:"target"`
	Description string                  `json:"description,omitempty"`
}

// Key returns the store key for the atom's markdown file.
func (a *Atom) Key() string {
	return string(a.Category) + "/" + a.ID + ".md"
}

// HasLink reports whether the atom already links to target.
func (a *Atom) HasLink(target string) bool {
	for _, l := range a.Links {
		if l.Target == target {
			return true
		}
	}
	return false
}
