package segtree

// Evaluator is the algebra a Tree folds over its ranges.
//
// Combine must be associative, and Evaluate must satisfy the compression law
//
//	Combine(Evaluate(s, n1), Evaluate(s, n2)) == Evaluate(s, n1+n2)
//
// for every symbol s and positive counts n1, n2. The tree relies on it to
// evaluate a uniformly assigned range from (symbol, length) alone. Combine
// need not be commutative; operands are always passed in sequence order.
type Evaluator[S comparable, E any] interface {
	// Evaluate returns the evaluation of count consecutive copies of symbol.
	// count is always at least 1.
	Evaluate(symbol S, count int) E
	// Combine folds the evaluation of a range with that of the range directly
	// to its right.
	Combine(left, right E) E
}

// Funcs adapts a pair of plain functions to the Evaluator interface.
type Funcs[S comparable, E any] struct {
	EvaluateFunc func(symbol S, count int) E
	CombineFunc  func(left, right E) E
}

// Evaluate calls EvaluateFunc.
func (f Funcs[S, E]) Evaluate(symbol S, count int) E {
	return f.EvaluateFunc(symbol, count)
}

// Combine calls CombineFunc.
func (f Funcs[S, E]) Combine(left, right E) E {
	return f.CombineFunc(left, right)
}

// Fold evaluates seq element by element, left to right, without building a
// tree. It is the O(N) reference a Tree's Query must agree with.
func Fold[S comparable, E any](seq []S, ev Evaluator[S, E]) (E, error) {
	var acc E

	if len(seq) == 0 {
		return acc, ErrEmptyTree
	}

	acc = ev.Evaluate(seq[0], 1)

	for _, symbol := range seq[1:] {
		acc = ev.Combine(acc, ev.Evaluate(symbol, 1))
	}

	return acc, nil
}
