package folgezettel

import (
	"fmt"
	"log/slog"

	"github.com/zettelforge/zettelforge/source"
	vocab "github.com/zettelforge/zettelforge/vocabulary/knowledge"
)

// Counter is the per-year sequence state. It is owned by the allocator at
// run time but persisted as part of the registry; it is never a package
// level singleton. Concurrent allocation must route through a single owner.
type Counter struct {
	// NextSeq maps year to the next unassigned root sequence (1-based).
	NextSeq map[int]int `json:"next_seq"`
}

// NewCounter returns an empty counter.
func NewCounter() *Counter {
	return &Counter{NextSeq: make(map[int]int)}
}

// Peek returns the sequence the next root allocation would receive.
func (c *Counter) Peek(year int) int {
	if c.NextSeq == nil {
		c.NextSeq = make(map[int]int)
	}
	if c.NextSeq[year] == 0 {
		c.NextSeq[year] = 1
	}
	return c.NextSeq[year]
}

// Take returns the next sequence for the year and advances the counter.
func (c *Counter) Take(year int) int {
	seq := c.Peek(year)
	c.NextSeq[year] = seq + 1
	return seq
}

// ExistsFunc reports whether an id is already committed to the registry.
type ExistsFunc func(id string) bool

// Allocator assigns Folgezettel IDs to a batch of concepts.
type Allocator struct {
	prefix   string
	year     int
	counter  *Counter
	exists   ExistsFunc
	classify Classifier
	logger   *slog.Logger

	// used tracks ids assigned during this run, so in-batch candidates
	// collide with each other as well as with the registry.
	used map[string]bool
}

// NewAllocator creates an Allocator. The counter is shared, mutable state:
// callers pass the registry-owned instance. A nil classifier uses
// DefaultClassifier; a nil exists function treats the registry as empty.
func NewAllocator(prefix string, year int, counter *Counter, exists ExistsFunc, classify Classifier, logger *slog.Logger) *Allocator {
	if classify == nil {
		classify = DefaultClassifier
	}
	if exists == nil {
		exists = func(string) bool { return false }
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Allocator{
		prefix:   prefix,
		year:     year,
		counter:  counter,
		exists:   exists,
		classify: classify,
		logger:   logger,
		used:     make(map[string]bool),
	}
}

// Check reports whether a candidate id is taken, either in the registry or
// earlier in this run. Commits always re-check, so a collision can never
// happen silently.
func (a *Allocator) Check(id ID) bool {
	s := id.String()
	return a.used[s] || a.exists(s)
}

// Allocate assigns an ID to every concept in the batch.
//
// The first concept with no resolvable parent in the batch receives a new
// root id from the year counter. Every other concept branches off its
// resolved parent; concepts without a declared parent branch off the batch
// root. Branch type comes from the classifier.
func (a *Allocator) Allocate(concepts []source.Concept) (map[string]ID, error) {
	if len(concepts) == 0 {
		return map[string]ID{}, nil
	}

	byTemp := make(map[string]source.Concept, len(concepts))
	for _, c := range concepts {
		byTemp[c.TempID] = c
	}

	assigned := make(map[string]ID, len(concepts))

	rootIdx := rootIndex(concepts, byTemp)
	root := concepts[rootIdx]
	rootID, err := a.allocateRoot()
	if err != nil {
		return nil, err
	}
	if err := a.commit(rootID); err != nil {
		return nil, err
	}
	assigned[root.TempID] = rootID
	a.logger.Debug("Allocated root", "id", rootID.String(), "concept", root.Title)

	for i, c := range concepts {
		if i == rootIdx {
			continue
		}

		parent := root
		parentID := rootID
		if target, ok := declaredParent(c); ok {
			if id, done := assigned[target]; done {
				parent = byTemp[target]
				parentID = id
			}
		}

		kind := a.classify(classifierText(parent), classifierText(c))
		id, err := a.nextBranch(parentID, kind)
		if err != nil {
			return nil, fmt.Errorf("allocate branch for %q: %w", c.Title, err)
		}
		if err := a.commit(id); err != nil {
			return nil, err
		}
		assigned[c.TempID] = id
	}

	return assigned, nil
}

// allocateRoot takes the next year sequence from the counter.
func (a *Allocator) allocateRoot() (ID, error) {
	seq := a.counter.Take(a.year)
	id := ID{Prefix: a.prefix, Year: a.year, Seq: seq}
	if a.Check(id) {
		return ID{}, fmt.Errorf("%w: root %s already exists (counter out of sync with registry)", ErrIDCollision, id)
	}
	return id, nil
}

// nextBranch finds the first free branch position of the given kind off the
// parent. Exhausting the alphabet surfaces ErrBranchOverflow.
func (a *Allocator) nextBranch(parent ID, kind BranchKind) (ID, error) {
	for n := 1; ; n++ {
		var (
			id  ID
			err error
		)
		switch kind {
		case BranchElaboration:
			id, err = parent.Elaboration(n)
		case BranchAlternative:
			id, err = parent.Alternative(n)
		default:
			id, err = parent.Related(n)
		}
		if err != nil {
			return ID{}, err
		}
		if !a.Check(id) {
			return id, nil
		}
	}
}

// commit marks an id as taken, re-checking for collisions.
func (a *Allocator) commit(id ID) error {
	s := id.String()
	if a.used[s] || a.exists(s) {
		return fmt.Errorf("%w: %s", ErrIDCollision, s)
	}
	a.used[s] = true
	return nil
}

// rootIndex finds the first concept whose declared parent is not resolvable
// within the batch.
func rootIndex(concepts []source.Concept, byTemp map[string]source.Concept) int {
	for i, c := range concepts {
		target, ok := declaredParent(c)
		if !ok {
			return i
		}
		if _, inBatch := byTemp[target]; !inBatch {
			return i
		}
	}
	return 0
}

// declaredParent returns the target of the concept's parent relationship.
func declaredParent(c source.Concept) (string, bool) {
	for _, r := range c.Relationships {
		if r.Kind == vocab.RelationParent {
			return r.Target, true
		}
	}
	return "", false
}

// classifierText renders a concept in the "title\nbody" form the Classifier
// contract expects.
func classifierText(c source.Concept) string {
	return c.Title + "\n" + c.CoreIdea
}
