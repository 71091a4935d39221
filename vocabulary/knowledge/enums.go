package knowledge

// CategoryType classifies an atom. The set is closed; anything a document
// declares outside this set is normalized to CategoryConcept.
type CategoryType string

const (
	// CategoryConcept is a standalone idea or definition.
	CategoryConcept CategoryType = "concept"

	// CategoryTechnique is an applicable method or procedure.
	CategoryTechnique CategoryType = "technique"

	// CategoryPrinciple is a guiding rule or invariant.
	CategoryPrinciple CategoryType = "principle"

	// CategoryPattern is a recurring solution structure.
	CategoryPattern CategoryType = "pattern"

	// CategoryInsight is an observed, non-obvious conclusion.
	CategoryInsight CategoryType = "insight"

	// CategoryQuestion is an open question worth tracking.
	CategoryQuestion CategoryType = "question"
)

// Categories lists all valid atom categories in canonical order.
var Categories = []CategoryType{
	CategoryConcept,
	CategoryTechnique,
	CategoryPrinciple,
	CategoryPattern,
	CategoryInsight,
	CategoryQuestion,
}

// ParseCategory normalizes a raw category string. Unknown values map to
// CategoryConcept rather than failing; category is metadata, not identity.
func ParseCategory(s string) CategoryType {
	for _, c := range Categories {
		if string(c) == s {
			return c
		}
	}
	return CategoryConcept
}

// RelationshipKind describes how one atom relates to another.
type RelationshipKind string

const (
	// RelationRelated is a generic association.
	RelationRelated RelationshipKind = "related"

	// RelationElaborates marks a child that develops its parent's idea.
	RelationElaborates RelationshipKind = "elaborates"

	// RelationAlternative marks a competing approach to the same problem.
	RelationAlternative RelationshipKind = "alternative"

	// RelationParent points from a sub-concept to its section's primary concept.
	RelationParent RelationshipKind = "parent"

	// RelationContrasts marks an explicit opposition.
	RelationContrasts RelationshipKind = "contrasts"
)

// NodeType discriminates graph node variants. Nodes share a base structure;
// type-specific fields are optional.
type NodeType string

const (
	// NodeAtom mirrors one persisted atom.
	NodeAtom NodeType = "atom"

	// NodePattern is a source pattern document.
	NodePattern NodeType = "pattern"

	// NodeProject is a project-level grouping document.
	NodeProject NodeType = "project"

	// NodeDecision is a recorded decision document.
	NodeDecision NodeType = "decision"

	// NodeLayer is an architectural layer document.
	NodeLayer NodeType = "layer"

	// NodeTool is a tool description document.
	NodeTool NodeType = "tool"

	// NodeDoc is any other scanned document.
	NodeDoc NodeType = "doc"
)

// TypePriority returns the tie-break rank used by fuzzy link resolution.
// Lower is higher priority: layer > pattern > atom > tool > doc. Types
// outside the ordering rank below all listed ones.
func TypePriority(t NodeType) int {
	switch t {
	case NodeLayer:
		return 0
	case NodePattern:
		return 1
	case NodeAtom:
		return 2
	case NodeTool:
		return 3
	case NodeDoc:
		return 4
	default:
		return 5
	}
}

// ReferenceType classifies an atom's outbound reference.
type ReferenceType string

const (
	// ReferencePattern points to a source pattern.
	ReferencePattern ReferenceType = "pattern"

	// ReferenceProject points to a project.
	ReferenceProject ReferenceType = "project"

	// ReferenceLayer points to an architectural layer.
	ReferenceLayer ReferenceType = "layer"

	// ReferenceExternal points outside the knowledge base (URL, book, paper).
	ReferenceExternal ReferenceType = "external"
)

// HealthStatus is the qualitative rollup of graph health metrics.
type HealthStatus string

const (
	// HealthExcellent means all four health thresholds pass.
	HealthExcellent HealthStatus = "excellent"

	// HealthGood means three thresholds pass.
	HealthGood HealthStatus = "good"

	// HealthFair means two thresholds pass.
	HealthFair HealthStatus = "fair"

	// HealthPoor means at most one threshold passes.
	HealthPoor HealthStatus = "poor"
)
