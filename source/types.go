// Package source provides types and parsing for knowledge source documents.
package source

import (
	"time"

	vocab "github.com/zettelforge/zettelforge/vocabulary/knowledge"
)

// Section is one heading block of a pattern document.
type Section struct {
	// Title is the heading text without marker characters.
	Title string `json:"title"`

	// Level is the markdown heading level (1-6, 0 for preamble text).
	Level int `json:"level"`

	// Body is the text under the heading, headings excluded.
	Body string `json:"body"`
}

// Pattern is a parsed source document: a named, tagged unit of text with an
// ordered sequence of sections. Immutable once parsed; it lives only for the
// duration of one extraction pass.
type Pattern struct {
	// Name is the document title from the leading `# Title` line, or the
	// filename stem when no title line is present.
	Name string `json:"name"`

	// Category is the declared atom category for concepts extracted from
	// this pattern.
	Category vocab.CategoryType `json:"category"`

	// Tags are the declared document tags.
	Tags []string `json:"tags,omitempty"`

	// Sections are the heading blocks in document order.
	Sections []Section `json:"sections"`

	// SourcePath is the path the document was read from, relative to the
	// scan root.
	SourcePath string `json:"source_path"`

	// ModTime is the document's filesystem modification time.
	ModTime time.Time `json:"mod_time,omitzero"`
}

// Body returns the concatenated section bodies in document order.
func (p *Pattern) Body() string {
	var out string
	for i, s := range p.Sections {
		if i > 0 {
			out += "\n\n"
		}
		out += s.Body
	}
	return out
}

// ConceptRelationship declares a relationship between two in-run concepts,
// identified by their temporary IDs.
type ConceptRelationship struct {
	// Target is the temporary ID of the related concept.
	Target string `json:"target"`

	// Kind is the relationship kind.
	Kind vocab.RelationshipKind `json:"kind"`

	// Context optionally explains the relationship.
	Context string `json:"context,omitempty"`
}

// Concept is an extracted atomic idea. Concepts are ephemeral: they exist
// between extraction and materialization within one run and are never
// persisted directly.
type Concept struct {
	// TempID identifies the concept within the current run only.
	TempID string `json:"temp_id"`

	// Title is derived from the concept's first sentence.
	Title string `json:"title"`

	// CoreIdea is the concept's primary text.
	CoreIdea string `json:"core_idea"`

	// Context describes when the idea applies.
	Context string `json:"context"`

	// Evidence supports the idea.
	Evidence string `json:"evidence"`

	// Implications describe what follows from the idea.
	Implications string `json:"implications"`

	// SourcePattern names the pattern this concept came from.
	SourcePattern string `json:"source_pattern"`

	// Relationships are declared relations to other concepts in the batch,
	// in declaration order.
	Relationships []ConceptRelationship `json:"relationships,omitempty"`
}
