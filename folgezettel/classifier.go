package folgezettel

import (
	"strings"
)

// BranchKind is the branch type assigned to a child concept.
type BranchKind string

const (
	// BranchRelated appends the next free lowercase letter.
	BranchRelated BranchKind = "related"

	// BranchElaboration appends the next free digit.
	BranchElaboration BranchKind = "elaboration"

	// BranchAlternative appends the next free letter+digit pair.
	BranchAlternative BranchKind = "alternative"
)

// Classifier decides how a child concept branches off its parent. The inputs
// are the parent's and child's text in "title\nbody" form. Implementations
// must be pure: identical input text yields identical output, with no
// randomness and no hidden state, so allocation is reproducible.
type Classifier func(parentText, childText string) BranchKind

// alternativeMarkers flag a child as a competing approach.
var alternativeMarkers = []string{
	"alternatively",
	"instead",
	"another approach",
	"different way",
	"contrast",
}

// minSharedStems is the title-stem overlap at which a child counts as an
// elaboration of its parent.
const minSharedStems = 2

// DefaultClassifier implements the stock branch heuristic:
//
//  1. child text containing any alternative marker → alternative
//  2. parent and child titles sharing at least two keyword stems → elaboration
//  3. otherwise → related
//
// Titles are the first line of each input.
func DefaultClassifier(parentText, childText string) BranchKind {
	lower := strings.ToLower(childText)
	for _, marker := range alternativeMarkers {
		if strings.Contains(lower, marker) {
			return BranchAlternative
		}
	}

	if sharedStemCount(firstLine(parentText), firstLine(childText)) >= minSharedStems {
		return BranchElaboration
	}
	return BranchRelated
}

// stopWords excludes common function words from stem comparison. Only words
// longer than four characters are considered, so short stop words never
// reach the set; this list covers the longer ones.
var stopWords = map[string]bool{
	"about": true, "above": true, "after": true, "again": true, "because": true,
	"before": true, "being": true, "below": true, "between": true, "could": true,
	"doing": true, "during": true, "every": true, "might": true, "other": true,
	"should": true, "their": true, "there": true, "these": true, "thing": true,
	"things": true, "those": true, "through": true, "under": true, "using": true,
	"where": true, "which": true, "while": true, "would": true,
}

// sharedStemCount counts keyword stems present in both titles.
func sharedStemCount(a, b string) int {
	stemsA := titleStems(a)
	if len(stemsA) == 0 {
		return 0
	}
	stemsB := titleStems(b)

	count := 0
	for s := range stemsB {
		if stemsA[s] {
			count++
		}
	}
	return count
}

// titleStems extracts the keyword stem set of a title: words longer than
// four characters, lower-cased, stop words removed, crude suffix stripping.
func titleStems(title string) map[string]bool {
	stems := make(map[string]bool)
	for _, word := range strings.FieldsFunc(strings.ToLower(title), func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9')
	}) {
		if len(word) <= 4 || stopWords[word] {
			continue
		}
		stems[stem(word)] = true
	}
	return stems
}

// stem strips common English suffixes. Deliberately crude: it only needs to
// make "caching"/"caches" and "index"/"indexes" agree, not be a stemmer.
func stem(word string) string {
	for _, suffix := range []string{"ing", "edly", "es", "ed", "s"} {
		if strings.HasSuffix(word, suffix) && len(word)-len(suffix) >= 4 {
			return word[:len(word)-len(suffix)]
		}
	}
	return word
}

// firstLine returns the text up to the first newline.
func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
