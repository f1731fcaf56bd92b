package segtree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test symbols for the two-colour counting algebra.
const (
	black = 'B'
	white = 'W'
)

// Test constants.
const (
	testLen8   = 8
	testLen13  = 13
	testFrom1  = 1
	testFrom2  = 2
	testFrom3  = 3
	testTo5    = 5
	testTo6    = 6
	testTo7    = 7
	testSymbol = 42
)

func colours(s string) []rune {
	return []rune(s)
}

// TestNew_Len verifies that the tree reports the sequence length.
func TestNew_Len(t *testing.T) {
	t.Parallel()

	tree := New(colours("BBBWBWBB"), Count(white))
	assert.Equal(t, testLen8, tree.Len())
}

// TestNew_CopiesSequence verifies that later changes to the input are not observed.
func TestNew_CopiesSequence(t *testing.T) {
	t.Parallel()

	seq := colours("WWWW")
	tree := New(seq, Count(white))
	seq[0] = black

	got, err := tree.Query(0, len(seq))
	require.NoError(t, err)
	assert.Equal(t, 4, got)
}

// TestScenario_Counting covers the black/white counting walkthrough.
func TestScenario_Counting(t *testing.T) {
	t.Parallel()

	tree := New(colours("BBBWBWBB"), Count(white))

	got, err := tree.Query(0, testLen8)
	require.NoError(t, err)
	assert.Equal(t, 2, got)

	require.NoError(t, tree.Assign(testFrom2, testTo6, white))

	got, err = tree.Query(0, testLen8)
	require.NoError(t, err)
	assert.Equal(t, 4, got)
	assert.Equal(t, colours("BBWWWWBB"), tree.Symbols())
}

// TestScenario_SignPropagation verifies that a zeroed sub-range zeroes every
// enclosing product.
func TestScenario_SignPropagation(t *testing.T) {
	t.Parallel()

	seq := []int{3, -1, 4, -1, 5, -9, 2, 6, -5, 3, 5, 8, -9}
	tree := New(seq, SignProduct[int]())

	got, err := tree.Query(0, testLen13)
	require.NoError(t, err)
	assert.Equal(t, Negative, got)

	require.NoError(t, tree.Assign(4, testTo6, 0))

	for a := 0; a <= 4; a++ {
		for b := testTo6; b <= testLen13; b++ {
			got, err = tree.Query(a, b)
			require.NoError(t, err)
			assert.Equal(t, Zero, got, "range [%d, %d)", a, b)
		}
	}

	got, err = tree.Query(testTo6, testLen13)
	require.NoError(t, err)
	assert.Equal(t, Positive, got)
}

// TestScenario_PartialOverlap verifies that a write misaligned with node
// boundaries reaches interior leaves.
func TestScenario_PartialOverlap(t *testing.T) {
	t.Parallel()

	seq := []int{1, 2, 3, 4, 5, 6, 7, 8}
	ev := Sum[int]()
	tree := New(seq, ev)

	require.NoError(t, tree.Assign(testFrom1, testTo7, testSymbol))

	got, err := tree.Query(testFrom3, testTo5)
	require.NoError(t, err)
	assert.Equal(t, ev.Evaluate(testSymbol, 2), got)

	got, err = tree.Query(0, testLen8)
	require.NoError(t, err)
	assert.Equal(t, 1+6*testSymbol+8, got)
}

// TestAssign_FullRange verifies a whole-tree write followed by sub-range reads.
func TestAssign_FullRange(t *testing.T) {
	t.Parallel()

	tree := New(colours("BWBWBWBW"), Count(white))
	require.NoError(t, tree.Assign(0, testLen8, black))

	got, err := tree.Query(0, testLen8)
	require.NoError(t, err)
	assert.Equal(t, 0, got)

	require.NoError(t, tree.Assign(testFrom3, testTo5, white))

	got, err = tree.Query(testFrom2, testTo6)
	require.NoError(t, err)
	assert.Equal(t, 2, got)
	assert.Equal(t, colours("BBBWWBBB"), tree.Symbols())
}

// TestAssign_OverridesStaleNode verifies that a full-match write over a node
// with a stale evaluation installs the fresh evaluation directly.
func TestAssign_OverridesStaleNode(t *testing.T) {
	t.Parallel()

	tree := New(colours("BBBBBBBB"), Count(white))

	// Leaves the root stale.
	require.NoError(t, tree.Assign(testFrom1, testFrom2, white))
	require.NoError(t, tree.Assign(0, testLen8, white))

	got, err := tree.Query(0, testLen8)
	require.NoError(t, err)
	assert.Equal(t, testLen8, got)
}

// TestAssign_SingleElement verifies a tree of length one.
func TestAssign_SingleElement(t *testing.T) {
	t.Parallel()

	tree := New([]int{7}, Sum[int]())
	require.NoError(t, tree.Assign(0, 1, testSymbol))

	got, err := tree.Query(0, 1)
	require.NoError(t, err)
	assert.Equal(t, testSymbol, got)

	sym, err := tree.At(0)
	require.NoError(t, err)
	assert.Equal(t, testSymbol, sym)
}

// TestQuery_NonCommutative verifies that Combine receives operands in sequence order.
func TestQuery_NonCommutative(t *testing.T) {
	t.Parallel()

	concat := Funcs[rune, string]{
		EvaluateFunc: func(symbol rune, count int) string {
			out := make([]rune, count)
			for i := range out {
				out[i] = symbol
			}

			return string(out)
		},
		CombineFunc: func(left, right string) string {
			return left + right
		},
	}

	tree := New(colours("abcdefghijklm"), concat)

	got, err := tree.Query(testFrom2, 11)
	require.NoError(t, err)
	assert.Equal(t, "cdefghijk", got)

	require.NoError(t, tree.Assign(testFrom3, testTo7, 'z'))

	got, err = tree.Query(0, testLen13)
	require.NoError(t, err)
	assert.Equal(t, "abczzzzhijklm", got)

	got, err = tree.Query(testTo5, testLen8)
	require.NoError(t, err)
	assert.Equal(t, "zzh", got)
}

// TestAt verifies point reads across pending and pushed-down writes.
func TestAt(t *testing.T) {
	t.Parallel()

	tree := New(colours("BBBBBBBB"), Count(white))
	require.NoError(t, tree.Assign(0, testLen8/2, white))

	for i := range testLen8 {
		sym, err := tree.At(i)
		require.NoError(t, err)

		if i < testLen8/2 {
			assert.Equal(t, rune(white), sym, "position %d", i)
		} else {
			assert.Equal(t, rune(black), sym, "position %d", i)
		}
	}
}

// TestAt_InvalidPosition verifies point-read bounds checks.
func TestAt_InvalidPosition(t *testing.T) {
	t.Parallel()

	tree := New(colours("BW"), Count(white))

	_, err := tree.At(-1)
	require.ErrorIs(t, err, ErrInvalidRange)

	_, err = tree.At(2)
	require.ErrorIs(t, err, ErrInvalidRange)
}

// TestInvalidRange verifies that malformed ranges are rejected by both operations.
func TestInvalidRange(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		a, b int
	}{
		{name: "empty", a: testFrom3, b: testFrom3},
		{name: "reversed", a: testTo5, b: testFrom2},
		{name: "negative start", a: -1, b: testFrom2},
		{name: "end past length", a: 0, b: testLen8 + 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			tree := New(colours("BBBWBWBB"), Count(white))

			err := tree.Assign(tc.a, tc.b, white)
			require.ErrorIs(t, err, ErrInvalidRange)

			_, err = tree.Query(tc.a, tc.b)
			require.ErrorIs(t, err, ErrInvalidRange)

			// The failed write left the content untouched.
			assert.Equal(t, colours("BBBWBWBB"), tree.Symbols())
		})
	}
}

// TestEmptyTree verifies that range operations on an empty tree fail.
func TestEmptyTree(t *testing.T) {
	t.Parallel()

	tree := New[rune](nil, Count(white))
	assert.Equal(t, 0, tree.Len())
	assert.Empty(t, tree.Symbols())

	err := tree.Assign(0, 1, white)
	require.ErrorIs(t, err, ErrEmptyTree)

	_, err = tree.Query(0, 1)
	require.ErrorIs(t, err, ErrEmptyTree)

	_, err = tree.At(0)
	require.ErrorIs(t, err, ErrEmptyTree)
}

// TestFold_Empty verifies that the reference fold rejects empty input.
func TestFold_Empty(t *testing.T) {
	t.Parallel()

	_, err := Fold(nil, Sum[int]())
	require.ErrorIs(t, err, ErrEmptyTree)
}

// TestState_PushDownLeavesNodeClean verifies the node state machine around a
// partial query on a pending node.
func TestState_PushDownLeavesNodeClean(t *testing.T) {
	t.Parallel()

	tree := New([]int{1, 2, 3, 4}, Sum[int]())
	require.NoError(t, tree.Assign(0, 4, testSymbol))
	assert.Equal(t, pending, tree.root.state)

	_, err := tree.Query(2, 4)
	require.NoError(t, err)
	assert.Equal(t, clean, tree.root.state)
	assert.Equal(t, pending, tree.root.left.state)
	assert.Equal(t, pending, tree.root.right.state)

	require.NoError(t, tree.Assign(0, 1, 0))
	assert.Equal(t, stale, tree.root.state)
	assert.Equal(t, stale, tree.root.left.state)
	assert.Equal(t, pending, tree.root.right.state)

	got, err := tree.Query(0, 4)
	require.NoError(t, err)
	assert.Equal(t, 3*testSymbol, got)
	assert.Equal(t, clean, tree.root.state)
}
