package segtree

// state tags what a node's cached fields mean. A node is in exactly one state,
// so a pending write and a stale evaluation can never coexist on one node.
type state uint8

const (
	// clean: eval is valid and the children (if any) are consistent.
	clean state = iota
	// pending: symbol covers the whole range and eval is valid, but the
	// children have not been written yet.
	pending
	// stale: eval must be recombined from the children, which are consistent.
	stale
)

// node covers the half-open range [start, end). Internal nodes own exactly two
// children split at middle; leaves own none.
type node[S comparable, E any] struct {
	left, right *node[S, E]
	symbol      S
	eval        E
	start       int
	end         int
	middle      int
	state       state
}

func (n *node[S, E]) isLeaf() bool {
	return n.left == nil
}

// build creates the subtree for [start, end) over seq.
func (t *Tree[S, E]) build(seq []S, start, end int) *node[S, E] {
	n := &node[S, E]{
		start:  start,
		end:    end,
		middle: start + (end-start)/2,
	}

	if end-start == 1 {
		n.symbol = seq[start]
		n.eval = t.evaluator.Evaluate(n.symbol, 1)

		return n
	}

	n.left = t.build(seq, start, n.middle)
	n.right = t.build(seq, n.middle, end)
	n.eval = t.evaluator.Combine(n.left.eval, n.right.eval)

	return n
}

// assign writes symbol over [a, b), which must lie within n's range.
func (t *Tree[S, E]) assign(n *node[S, E], a, b int, symbol S) {
	if n.start == a && n.end == b {
		// A full match always installs a fresh evaluation, whatever the
		// previous state was.
		n.symbol = symbol
		n.eval = t.evaluator.Evaluate(symbol, b-a)

		if n.isLeaf() {
			n.state = clean
		} else {
			n.state = pending
		}

		return
	}

	// The children are about to be overwritten piecewise, so an earlier
	// uniform write has to land in them first.
	t.pushDown(n)

	if a < n.middle {
		t.assign(n.left, a, min(b, n.middle), symbol)
	}

	if b > n.middle {
		t.assign(n.right, max(a, n.middle), b, symbol)
	}

	n.state = stale
}

// pushDown materializes a pending write of n into both children.
// It leaves n clean: its eval already reflects the pending symbol.
func (t *Tree[S, E]) pushDown(n *node[S, E]) {
	if n.state != pending {
		return
	}

	t.assign(n.left, n.left.start, n.left.end, n.symbol)
	t.assign(n.right, n.right.start, n.right.end, n.symbol)
	n.state = clean
}

// query evaluates [a, b), which must lie within n's range.
func (t *Tree[S, E]) query(n *node[S, E], a, b int) E {
	if n.start == a && n.end == b {
		if n.state == stale {
			// Only a partial assign marks a node stale, and it pushes down
			// first, so the children are safe to read here.
			n.eval = t.evaluator.Combine(
				t.query(n.left, n.left.start, n.left.end),
				t.query(n.right, n.right.start, n.right.end),
			)
			n.state = clean
		}

		return n.eval
	}

	t.pushDown(n)

	switch {
	case b <= n.middle:
		return t.query(n.left, a, b)
	case a >= n.middle:
		return t.query(n.right, a, b)
	}

	return t.evaluator.Combine(
		t.query(n.left, a, n.middle),
		t.query(n.right, n.middle, b),
	)
}
