// Package folgezettel implements hierarchical atom addressing.
//
// An ID has the form {prefix}-{year}-{seq}{branches}: AKU-2025-001,
// AKU-2025-001a, AKU-2025-0012a1. The sequence is a zero-padded integer
// unique within its year. Branches encode position relative to a parent:
// lowercase letters are related siblings, digits are elaboration children,
// and a letter+digit pair appended together marks an alternative. Branch
// depth is unbounded, but the alphabet is not: there is no next letter after
// z and no next digit after 9, and running off either end is a fatal
// allocation error, never a silent wraparound.
package folgezettel

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// seqWidth is the zero-padding width of the per-year sequence.
const seqWidth = 3

// Allocation errors.
var (
	// ErrBranchOverflow is returned when a branch position past z or 9 is
	// requested.
	ErrBranchOverflow = errors.New("folgezettel: branch overflow")

	// ErrIDCollision is returned when a commit would reuse an existing id.
	ErrIDCollision = errors.New("folgezettel: id collision")
)

// idPattern matches the ID grammar. The sequence is exactly seqWidth digits;
// everything after it is the branch string.
var idPattern = regexp.MustCompile(`^([A-Z][A-Z0-9]*)-(\d{4})-(\d{3})([a-z0-9]*)$`)

// ID is a parsed Folgezettel identifier.
type ID struct {
	// Prefix is the knowledge-base prefix (e.g. "AKU").
	Prefix string `json:"prefix"`

	// Year is the allocation year.
	Year int `json:"year"`

	// Seq is the root sequence number within the year.
	Seq int `json:"seq"`

	// Branches is the branch suffix: letters, digits, or a mix.
	Branches string `json:"branches,omitempty"`
}

// Parse parses an ID string against the grammar.
func Parse(s string) (ID, error) {
	m := idPattern.FindStringSubmatch(s)
	if m == nil {
		return ID{}, fmt.Errorf("invalid folgezettel id %q", s)
	}

	year, err := strconv.Atoi(m[2])
	if err != nil {
		return ID{}, fmt.Errorf("invalid year in id %q: %w", s, err)
	}
	seq, err := strconv.Atoi(m[3])
	if err != nil {
		return ID{}, fmt.Errorf("invalid sequence in id %q: %w", s, err)
	}

	return ID{Prefix: m[1], Year: year, Seq: seq, Branches: m[4]}, nil
}

// MustParse parses an ID string, panicking on invalid input. Use for
// known-good literals in tests.
func MustParse(s string) ID {
	id, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return id
}

// Valid reports whether the string parses against the grammar.
func Valid(s string) bool {
	_, err := Parse(s)
	return err == nil
}

// String renders the canonical form.
func (id ID) String() string {
	return fmt.Sprintf("%s-%04d-%0*d%s", id.Prefix, id.Year, seqWidth, id.Seq, id.Branches)
}

// IsRoot reports whether the ID has no branch suffix.
func (id ID) IsRoot() bool {
	return id.Branches == ""
}

// Parent returns the ID one branch level up. Alternatives (letter+digit
// pairs) are removed as a unit. The second return is false for root IDs.
func (id ID) Parent() (ID, bool) {
	if id.Branches == "" {
		return ID{}, false
	}

	b := id.Branches
	last := b[len(b)-1]
	if isDigit(last) && len(b) >= 2 && isLetter(b[len(b)-2]) {
		// Letter+digit alternative pair strips together.
		b = b[:len(b)-2]
	} else {
		b = b[:len(b)-1]
	}

	parent := id
	parent.Branches = b
	return parent, true
}

// Related returns the n-th related sibling branch (1-based): a, b, ... z.
func (id ID) Related(n int) (ID, error) {
	if n < 1 || n > 26 {
		return ID{}, fmt.Errorf("%w: related position %d off %s", ErrBranchOverflow, n, id)
	}
	out := id
	out.Branches += string(rune('a' + n - 1))
	return out, nil
}

// Elaboration returns the n-th elaboration child branch (1-based): 1 ... 9.
func (id ID) Elaboration(n int) (ID, error) {
	if n < 1 || n > 9 {
		return ID{}, fmt.Errorf("%w: elaboration position %d off %s", ErrBranchOverflow, n, id)
	}
	out := id
	out.Branches += strconv.Itoa(n)
	return out, nil
}

// Alternative returns the n-th alternative branch (1-based): a1 ... a9,
// b1 ... b9, up to z9.
func (id ID) Alternative(n int) (ID, error) {
	if n < 1 || n > 26*9 {
		return ID{}, fmt.Errorf("%w: alternative position %d off %s", ErrBranchOverflow, n, id)
	}
	letter := rune('a' + (n-1)/9)
	digit := (n-1)%9 + 1
	out := id
	out.Branches += string(letter) + strconv.Itoa(digit)
	return out, nil
}

// Depth returns the number of branch characters. Roots have depth zero.
func (id ID) Depth() int {
	return len(id.Branches)
}

// Compare orders IDs by prefix, year, sequence, then branch string.
func Compare(a, b ID) int {
	if c := strings.Compare(a.Prefix, b.Prefix); c != 0 {
		return c
	}
	if a.Year != b.Year {
		if a.Year < b.Year {
			return -1
		}
		return 1
	}
	if a.Seq != b.Seq {
		if a.Seq < b.Seq {
			return -1
		}
		return 1
	}
	return strings.Compare(a.Branches, b.Branches)
}

func isDigit(c byte) bool  { return c >= '0' && c <= '9' }
func isLetter(c byte) bool { return c >= 'a' && c <= 'z' }
