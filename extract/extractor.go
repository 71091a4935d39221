// Package extract turns parsed patterns into atomic concepts.
package extract

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/zettelforge/zettelforge/source"
	vocab "github.com/zettelforge/zettelforge/vocabulary/knowledge"
)

// Granularity selects the concept splitting policy.
type Granularity string

const (
	// GranularityFine splits by paragraph.
	GranularityFine Granularity = "fine"

	// GranularityMedium produces one concept per heading section.
	GranularityMedium Granularity = "medium"

	// GranularityCoarse merges same-heading level-2 blocks into one concept.
	GranularityCoarse Granularity = "coarse"
)

// ParseGranularity validates a granularity flag value.
func ParseGranularity(s string) (Granularity, error) {
	switch Granularity(s) {
	case GranularityFine, GranularityMedium, GranularityCoarse:
		return Granularity(s), nil
	default:
		return "", fmt.Errorf("invalid granularity %q (want fine, medium, or coarse)", s)
	}
}

// Word thresholds for the splitting policies.
const (
	// minConceptWords is the floor below which a paragraph or section is
	// dropped. Concept loss under this floor is documented policy, not an
	// error.
	minConceptWords = 30

	// fineSplitWords is the paragraph size that triggers sentence-level
	// splitting under fine granularity.
	fineSplitWords = 300

	// fineGroupWords caps each sentence group produced by a fine split.
	fineGroupWords = 200

	// mediumSplitWords is the section size that triggers boundary-phrase
	// splitting under medium granularity.
	mediumSplitWords = 400
)

// boundaryPhrases are the fixed split points for oversized medium sections.
var boundaryPhrases = []string{
	"However,",
	"Additionally,",
	"For example,",
	"In contrast,",
	"Alternatively,",
	"Furthermore,",
}

// titleMaxLen caps derived concept titles.
const titleMaxLen = 80

// Placeholder text for concepts whose body carries no matching marker
// sentence. Absence of a marker is never an error.
const (
	PlaceholderContext      = "No explicit context identified"
	PlaceholderEvidence     = "No supporting evidence identified"
	PlaceholderImplications = "No explicit implications identified"
)

// Extractor splits patterns into concepts.
type Extractor struct {
	logger *slog.Logger
}

// New creates an Extractor. A nil logger falls back to slog.Default().
func New(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{logger: logger}
}

// Extract splits a pattern into concepts per the granularity policy.
// Output preserves source order, which downstream ID assignment depends on.
func (e *Extractor) Extract(p *source.Pattern, g Granularity) ([]source.Concept, error) {
	var concepts []source.Concept
	var err error

	switch g {
	case GranularityFine:
		concepts = e.extractFine(p)
	case GranularityMedium:
		concepts = e.extractMedium(p)
	case GranularityCoarse:
		concepts = e.extractCoarse(p)
	default:
		err = fmt.Errorf("unknown granularity %q", g)
	}
	if err != nil {
		return nil, err
	}

	e.logger.Debug("Extraction complete",
		"pattern", p.Name,
		"granularity", string(g),
		"concepts", len(concepts))
	return concepts, nil
}

// extractFine splits the pattern body by paragraph. Paragraphs under the
// minimum word count are dropped; oversized paragraphs are re-split at
// sentence boundaries into capped groups.
func (e *Extractor) extractFine(p *source.Pattern) []source.Concept {
	var concepts []source.Concept
	seq := 0

	for _, para := range splitParagraphs(p.Body()) {
		words := wordCount(para)
		if words < minConceptWords {
			continue
		}

		if words <= fineSplitWords {
			concepts = append(concepts, e.newConcept(p, &seq, para))
			continue
		}

		for _, group := range groupSentences(para, fineGroupWords) {
			concepts = append(concepts, e.newConcept(p, &seq, group))
		}
	}
	return concepts
}

// extractMedium produces one concept per heading section (level >= 2) with
// enough body text. Oversized sections are split at fixed boundary phrases;
// each sub-concept records a parent relationship to the section's primary
// concept.
func (e *Extractor) extractMedium(p *source.Pattern) []source.Concept {
	var concepts []source.Concept
	seq := 0

	for _, sec := range p.Sections {
		if sec.Level < 2 {
			continue
		}
		if wordCount(sec.Body) < minConceptWords {
			continue
		}

		if wordCount(sec.Body) <= mediumSplitWords {
			concepts = append(concepts, e.newConcept(p, &seq, sec.Body))
			continue
		}

		parts := splitAtBoundaries(sec.Body)
		primary := e.newConcept(p, &seq, parts[0])
		concepts = append(concepts, primary)

		for _, part := range parts[1:] {
			sub := e.newConcept(p, &seq, part)
			sub.Relationships = append(sub.Relationships, source.ConceptRelationship{
				Target:  primary.TempID,
				Kind:    vocab.RelationParent,
				Context: "split from section " + sec.Title,
			})
			concepts = append(concepts, sub)
		}
	}
	return concepts
}

// extractCoarse merges all level-2 blocks that share a heading into a single
// concept, keyed by heading text. Distinct headings stay in first-seen order.
func (e *Extractor) extractCoarse(p *source.Pattern) []source.Concept {
	type group struct {
		title string
		body  []string
	}

	var order []string
	groups := make(map[string]*group)

	for _, sec := range p.Sections {
		if sec.Level != 2 {
			continue
		}
		g, ok := groups[sec.Title]
		if !ok {
			g = &group{title: sec.Title}
			groups[sec.Title] = g
			order = append(order, sec.Title)
		}
		g.body = append(g.body, sec.Body)
	}

	var concepts []source.Concept
	seq := 0
	for _, title := range order {
		g := groups[title]
		body := strings.Join(g.body, "\n\n")
		if strings.TrimSpace(body) == "" {
			continue
		}
		concepts = append(concepts, e.newConcept(p, &seq, body))
	}
	return concepts
}

// newConcept assembles a concept from a block of text, deriving the title and
// scanning for context/evidence/implication markers.
func (e *Extractor) newConcept(p *source.Pattern, seq *int, text string) source.Concept {
	*seq++
	text = strings.TrimSpace(text)
	sentences := splitSentences(text)

	c := source.Concept{
		TempID:        fmt.Sprintf("tmp-%s-%03d", sanitizeTempID(p.Name), *seq),
		Title:         deriveTitle(sentences, text),
		CoreIdea:      text,
		Context:       firstMatching(sentences, contextMarkers, PlaceholderContext),
		Evidence:      firstMatching(sentences, evidenceMarkers, PlaceholderEvidence),
		Implications:  firstMatching(sentences, implicationMarkers, PlaceholderImplications),
		SourcePattern: p.Name,
	}
	return c
}

// Marker phrases for deriving the structured concept fields.
var (
	contextMarkers     = []string{"when", "applies to"}
	evidenceMarkers    = []string{"because", "evidence", "demonstrated"}
	implicationMarkers = []string{"this means", "therefore", "this enables"}
)

// firstMatching returns the first sentence containing any marker, or the
// placeholder when no sentence matches.
func firstMatching(sentences []string, markers []string, placeholder string) string {
	for _, s := range sentences {
		lower := strings.ToLower(s)
		for _, m := range markers {
			if strings.Contains(lower, m) {
				return strings.TrimSpace(s)
			}
		}
	}
	return placeholder
}

// deriveTitle builds the concept title from the first sentence, stripping
// markdown markers and truncating to the title cap.
func deriveTitle(sentences []string, fallback string) string {
	first := fallback
	if len(sentences) > 0 {
		first = sentences[0]
	}

	first = strings.NewReplacer("**", "", "*", "", "__", "", "_", "", "`", "").Replace(first)
	first = strings.TrimLeft(first, "# ")
	first = strings.TrimSpace(strings.TrimSuffix(first, "."))
	first = strings.Join(strings.Fields(first), " ")

	if len(first) > titleMaxLen {
		runes := []rune(first)
		if len(runes) > titleMaxLen-3 {
			first = strings.TrimSpace(string(runes[:titleMaxLen-3])) + "..."
		}
	}
	return first
}

// sanitizeTempID makes a pattern name safe for use inside a temp ID.
func sanitizeTempID(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			b.WriteRune('-')
		}
	}
	return b.String()
}

// splitParagraphs splits text on blank lines, preserving fenced code blocks.
func splitParagraphs(text string) []string {
	var paragraphs []string
	var current strings.Builder
	inFence := false

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			inFence = !inFence
		}

		if !inFence && trimmed == "" {
			if current.Len() > 0 {
				paragraphs = append(paragraphs, strings.TrimSpace(current.String()))
				current.Reset()
			}
			continue
		}
		if current.Len() > 0 {
			current.WriteString("\n")
		}
		current.WriteString(line)
	}
	if current.Len() > 0 {
		paragraphs = append(paragraphs, strings.TrimSpace(current.String()))
	}
	return paragraphs
}

// groupSentences accumulates sentences into groups capped near maxWords.
func groupSentences(text string, maxWords int) []string {
	sentences := splitSentences(text)
	if len(sentences) <= 1 {
		return []string{text}
	}

	var groups []string
	var current []string
	currentWords := 0

	for _, s := range sentences {
		w := wordCount(s)
		if currentWords > 0 && currentWords+w > maxWords {
			groups = append(groups, strings.Join(current, " "))
			current = nil
			currentWords = 0
		}
		current = append(current, s)
		currentWords += w
	}
	if len(current) > 0 {
		groups = append(groups, strings.Join(current, " "))
	}
	return groups
}

// splitAtBoundaries splits text at the fixed boundary phrases. The text
// before the first boundary is always the first part.
func splitAtBoundaries(text string) []string {
	parts := []string{text}

	for _, phrase := range boundaryPhrases {
		var next []string
		for _, part := range parts {
			segments := strings.Split(part, phrase)
			next = append(next, strings.TrimSpace(segments[0]))
			for _, seg := range segments[1:] {
				next = append(next, strings.TrimSpace(phrase+" "+strings.TrimSpace(seg)))
			}
		}
		parts = next
	}

	// Drop fragments too small to stand alone; merge them forward instead
	// of discarding text.
	var merged []string
	for _, part := range parts {
		if part == "" {
			continue
		}
		if len(merged) > 0 && wordCount(part) < minConceptWords {
			merged[len(merged)-1] += " " + part
			continue
		}
		merged = append(merged, part)
	}
	if len(merged) == 0 {
		return []string{text}
	}
	return merged
}

// splitSentences splits text on sentence-ending punctuation followed by a
// space or newline.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		current.WriteRune(runes[i])

		if runes[i] == '.' || runes[i] == '?' || runes[i] == '!' {
			if i == len(runes)-1 || runes[i+1] == ' ' || runes[i+1] == '\n' {
				s := strings.TrimSpace(current.String())
				if s != "" {
					sentences = append(sentences, s)
				}
				current.Reset()
				if i+1 < len(runes) && runes[i+1] == ' ' {
					i++
				}
			}
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// wordCount counts whitespace-separated words.
func wordCount(s string) int {
	return len(strings.Fields(s))
}
