// Package segtree provides a lazily-updated segment tree over a fixed-length
// sequence of symbols. It supports overwriting a contiguous range with a single
// symbol (Assign) and folding a caller-supplied Evaluator over any contiguous
// range (Query), both in O(log N) amortized time.
//
// Range writes are deferred: a write that covers a node's whole range is
// recorded on that node and only pushed into its children when a later
// operation needs to look inside them. Cached evaluations invalidated by a
// partial write are recombined from the children on the next read.
//
// A Tree is not safe for concurrent use. Callers that share a Tree between
// goroutines must serialize Assign and Query themselves.
package segtree

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by range operations.
var (
	// ErrInvalidRange is returned when a range is empty, reversed, or outside [0, Len()).
	ErrInvalidRange = errors.New("invalid range")
	// ErrEmptyTree is returned by any range operation on a tree built from an empty sequence.
	ErrEmptyTree = errors.New("empty tree")
)

// Tree is a segment tree over a fixed-length sequence of symbols of type S,
// evaluated into values of type E.
type Tree[S comparable, E any] struct {
	root      *node[S, E]
	evaluator Evaluator[S, E]
	size      int
}

// New builds a tree over seq in O(N). The sequence is copied into the leaves;
// later changes to seq are not observed. An empty seq yields an empty tree on
// which every range operation returns ErrEmptyTree.
func New[S comparable, E any](seq []S, ev Evaluator[S, E]) *Tree[S, E] {
	t := &Tree[S, E]{
		evaluator: ev,
		size:      len(seq),
	}

	if len(seq) > 0 {
		t.root = t.build(seq, 0, len(seq))
	}

	return t
}

// Len returns the length of the underlying sequence.
func (t *Tree[S, E]) Len() int {
	return t.size
}

// Assign overwrites every position in [a, b) with symbol.
// The range is validated before any node is touched.
func (t *Tree[S, E]) Assign(a, b int, symbol S) error {
	err := t.checkRange(a, b)
	if err != nil {
		return err
	}

	t.assign(t.root, a, b, symbol)

	return nil
}

// Query returns the evaluation of [a, b): Evaluate applied to every position
// and folded left to right with Combine.
func (t *Tree[S, E]) Query(a, b int) (E, error) {
	err := t.checkRange(a, b)
	if err != nil {
		var zero E

		return zero, err
	}

	return t.query(t.root, a, b), nil
}

// At returns the symbol currently at position i. It does not flush pending
// writes.
func (t *Tree[S, E]) At(i int) (S, error) {
	if t.root == nil {
		var zero S

		return zero, ErrEmptyTree
	}

	if i < 0 || i >= t.size {
		var zero S

		return zero, fmt.Errorf("%w: position %d with length %d", ErrInvalidRange, i, t.size)
	}

	n := t.root

	for !n.isLeaf() && n.state != pending {
		if i < n.middle {
			n = n.left
		} else {
			n = n.right
		}
	}

	return n.symbol, nil
}

// Symbols returns the current logical sequence. Pending writes are expanded
// into the result without being pushed into the tree.
func (t *Tree[S, E]) Symbols() []S {
	out := make([]S, 0, t.size)

	if t.root == nil {
		return out
	}

	return collectSymbols(t.root, out)
}

// checkRange validates [a, b) against the tree bounds.
func (t *Tree[S, E]) checkRange(a, b int) error {
	if t.root == nil {
		return ErrEmptyTree
	}

	if a < 0 || b > t.size || a >= b {
		return fmt.Errorf("%w: [%d, %d) with length %d", ErrInvalidRange, a, b, t.size)
	}

	return nil
}

// collectSymbols appends the logical symbols of n's range to out.
func collectSymbols[S comparable, E any](n *node[S, E], out []S) []S {
	if n.isLeaf() {
		return append(out, n.symbol)
	}

	if n.state == pending {
		for range n.end - n.start {
			out = append(out, n.symbol)
		}

		return out
	}

	out = collectSymbols(n.left, out)

	return collectSymbols(n.right, out)
}
