package folgezettel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_RoundTrip(t *testing.T) {
	cases := []string{
		"AKU-2025-001",
		"AKU-2025-042a",
		"AKU-2025-0071",
		"AKU-2024-003a1",
		"AKU-2025-009ab12c",
		"KB2-2025-100z9",
	}
	for _, s := range cases {
		id, err := Parse(s)
		require.NoError(t, err, s)
		assert.Equal(t, s, id.String())
	}
}

func TestParse_Invalid(t *testing.T) {
	cases := []string{
		"",
		"aku-2025-001",    // lowercase prefix
		"AKU-25-001",      // short year
		"AKU-2025-1",      // unpadded sequence
		"AKU-2025-001A",   // uppercase branch
		"AKU-2025-001-a",  // separator in branches
		"AKU-2025-001a b", // whitespace
	}
	for _, s := range cases {
		assert.False(t, Valid(s), s)
	}
}

func TestID_BranchConstruction(t *testing.T) {
	root := MustParse("AKU-2025-001")

	rel, err := root.Related(1)
	require.NoError(t, err)
	assert.Equal(t, "AKU-2025-001a", rel.String())

	el, err := root.Elaboration(1)
	require.NoError(t, err)
	assert.Equal(t, "AKU-2025-0011", el.String())

	alt, err := rel.Alternative(1)
	require.NoError(t, err)
	assert.Equal(t, "AKU-2025-001aa1", alt.String())
}

func TestID_AlternativeProgression(t *testing.T) {
	root := MustParse("AKU-2025-001")

	ninth, err := root.Alternative(9)
	require.NoError(t, err)
	assert.Equal(t, "AKU-2025-001a9", ninth.String())

	tenth, err := root.Alternative(10)
	require.NoError(t, err)
	assert.Equal(t, "AKU-2025-001b1", tenth.String(), "a9 rolls over to b1")
}

func TestID_Overflow(t *testing.T) {
	root := MustParse("AKU-2025-001")

	_, err := root.Related(27)
	require.ErrorIs(t, err, ErrBranchOverflow)

	_, err = root.Elaboration(10)
	require.ErrorIs(t, err, ErrBranchOverflow)

	_, err = root.Alternative(26*9 + 1)
	require.ErrorIs(t, err, ErrBranchOverflow)
}

func TestID_Parent(t *testing.T) {
	id := MustParse("AKU-2025-001ab1")

	parent, ok := id.Parent()
	require.True(t, ok)
	assert.Equal(t, "AKU-2025-001a", parent.String(), "alternative pair strips together")

	parent, ok = parent.Parent()
	require.True(t, ok)
	assert.Equal(t, "AKU-2025-001", parent.String())

	_, ok = parent.Parent()
	assert.False(t, ok, "roots have no parent")
}

func TestID_ParentOfElaboration(t *testing.T) {
	id := MustParse("AKU-2025-00112")
	parent, ok := id.Parent()
	require.True(t, ok)
	assert.Equal(t, "AKU-2025-0011", parent.String(), "bare digits strip one at a time")
}

func TestCompare(t *testing.T) {
	ordered := []string{
		"AKU-2024-001",
		"AKU-2025-001",
		"AKU-2025-0011",
		"AKU-2025-001a",
		"AKU-2025-002",
	}
	for i := 0; i < len(ordered)-1; i++ {
		a := MustParse(ordered[i])
		b := MustParse(ordered[i+1])
		assert.Negative(t, Compare(a, b), "%s < %s", ordered[i], ordered[i+1])
		assert.Positive(t, Compare(b, a))
	}
	assert.Zero(t, Compare(MustParse("AKU-2025-001"), MustParse("AKU-2025-001")))
}
