package atom

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/zettelforge/zettelforge/folgezettel"
	"github.com/zettelforge/zettelforge/source"
	"github.com/zettelforge/zettelforge/store"
	"github.com/zettelforge/zettelforge/vocabulary/knowledge"
)

// ErrAtomExists is returned when materialization would overwrite an atom
// file already in the store.
var ErrAtomExists = errors.New("atom file already exists")

// Materializer converts allocated concepts into atom records and writes
// their markdown rendering through the store.
type Materializer struct {
	now func() time.Time
}

// NewMaterializer creates a Materializer. A nil clock uses time.Now.
func NewMaterializer(clock func() time.Time) *Materializer {
	if clock == nil {
		clock = time.Now
	}
	return &Materializer{now: clock}
}

// Materialize builds one Atom per concept, in document order. Relationship
// targets are rewritten from temporary ids to allocated ids; relationships
// whose targets were not allocated in this batch are dropped.
func (m *Materializer) Materialize(p *source.Pattern, concepts []source.Concept, assigned map[string]folgezettel.ID) []*Atom {
	now := m.now().UTC()

	atoms := make([]*Atom, 0, len(concepts))
	for _, c := range concepts {
		id, ok := assigned[c.TempID]
		if !ok {
			continue
		}

		a := &Atom{
			ID:           id.String(),
			Title:        c.Title,
			Category:     p.Category,
			Tags:         append([]string(nil), p.Tags...),
			Created:      now,
			Modified:     now,
			CoreIdea:     c.CoreIdea,
			Context:      c.Context,
			Evidence:     c.Evidence,
			Implications: c.Implications,
		}

		for _, rel := range c.Relationships {
			target, ok := assigned[rel.Target]
			if !ok {
				continue
			}
			a.Links = append(a.Links, Link{
				Target:      target.String(),
				Kind:        rel.Kind,
				Description: rel.Context,
			})
		}

		if c.SourcePattern != "" {
			a.References = append(a.References, Reference{
				Type:   knowledge.ReferencePattern,
				Target: c.SourcePattern,
			})
		}

		atoms = append(atoms, a)
	}
	return atoms
}

// Write renders the atom to markdown and stores it at <category>/<id>.md.
// An existing file under the same key is never overwritten.
func (m *Materializer) Write(ctx context.Context, s store.Store, a *Atom) error {
	key := a.Key()
	if _, err := s.Stat(ctx, key); err == nil {
		return fmt.Errorf("%w: %s", ErrAtomExists, key)
	} else if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("check %s: %w", key, err)
	}
	if err := s.Put(ctx, key, Render(a)); err != nil {
		return fmt.Errorf("write atom %s: %w", a.ID, err)
	}
	return nil
}

// Render produces the atom's markdown document: a fixed section sequence of
// header, metadata, the four text blocks, related atoms, references,
// revision history, and notes.
func Render(a *Atom) []byte {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s: %s\n\n", a.ID, a.Title)

	b.WriteString("## Metadata\n\n")
	fmt.Fprintf(&b, "- **Category**: %s\n", a.Category)
	fmt.Fprintf(&b, "- **Tags**: %s\n", strings.Join(sortedTags(a.Tags), ", "))
	fmt.Fprintf(&b, "- **Created**: %s\n", a.Created.Format("2006-01-02"))
	fmt.Fprintf(&b, "- **Modified**: %s\n\n", a.Modified.Format("2006-01-02"))

	b.WriteString("## Core Idea\n\n")
	b.WriteString(a.CoreIdea + "\n\n")

	b.WriteString("## Context\n\n")
	b.WriteString(a.Context + "\n\n")

	b.WriteString("## Evidence\n\n")
	b.WriteString(a.Evidence + "\n\n")

	b.WriteString("## Implications\n\n")
	b.WriteString(a.Implications + "\n\n")

	b.WriteString("## Related Atoms\n\n")
	if len(a.Links) == 0 {
		b.WriteString("None yet.\n\n")
	} else {
		for _, l := range a.Links {
			fmt.Fprintf(&b, "- [[%s]] (%s)", l.Target, l.Kind)
			if l.Description != "" {
				fmt.Fprintf(&b, " — %s", l.Description)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("## References\n\n")
	if len(a.References) == 0 {
		b.WriteString("None.\n\n")
	} else {
		for _, r := range a.References {
			fmt.Fprintf(&b, "- %s: %s", r.Type, r.Target)
			if r.Description != "" {
				fmt.Fprintf(&b, " — %s", r.Description)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("## Revision History\n\n")
	fmt.Fprintf(&b, "- %s: created\n\n", a.Created.Format("2006-01-02"))

	b.WriteString("## Notes\n")

	return []byte(b.String())
}

func sortedTags(tags []string) []string {
	out := append([]string(nil), tags...)
	sort.Strings(out)
	return out
}
