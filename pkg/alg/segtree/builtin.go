package segtree

import (
	"cmp"

	"golang.org/x/exp/constraints"
)

// Number is any integer or floating-point type.
type Number interface {
	constraints.Integer | constraints.Float
}

// SignedNumber is any signed integer or floating-point type.
type SignedNumber interface {
	constraints.Signed | constraints.Float
}

// Count returns an Evaluator that counts the positions holding target.
func Count[S comparable](target S) Evaluator[S, int] {
	return counter[S]{target: target}
}

type counter[S comparable] struct {
	target S
}

func (c counter[S]) Evaluate(symbol S, count int) int {
	if symbol == c.target {
		return count
	}

	return 0
}

func (counter[S]) Combine(left, right int) int {
	return left + right
}

// Sum returns an Evaluator that adds up the symbols of a range.
// For floating-point symbols the result is subject to rounding, so it may
// differ from a linear Fold in the last bits.
func Sum[N Number]() Evaluator[N, N] {
	return summer[N]{}
}

type summer[N Number] struct{}

func (summer[N]) Evaluate(symbol N, count int) N {
	return symbol * N(count)
}

func (summer[N]) Combine(left, right N) N {
	return left + right
}

// Min returns an Evaluator yielding the smallest symbol of a range.
func Min[N cmp.Ordered]() Evaluator[N, N] {
	return extremum[N]{pick: func(x, y N) N { return min(x, y) }}
}

// Max returns an Evaluator yielding the largest symbol of a range.
func Max[N cmp.Ordered]() Evaluator[N, N] {
	return extremum[N]{pick: func(x, y N) N { return max(x, y) }}
}

type extremum[N cmp.Ordered] struct {
	pick func(x, y N) N
}

func (extremum[N]) Evaluate(symbol N, _ int) N {
	return symbol
}

func (e extremum[N]) Combine(left, right N) N {
	return e.pick(left, right)
}

// Sign is the sign of a product: Negative, Zero or Positive.
type Sign int8

// Sign values. Multiplying two Signs yields the sign of the product.
const (
	Negative Sign = -1
	Zero     Sign = 0
	Positive Sign = 1
)

// String renders the sign as "-", "0" or "+".
func (s Sign) String() string {
	switch {
	case s < 0:
		return "-"
	case s > 0:
		return "+"
	default:
		return "0"
	}
}

// MarshalText implements [encoding.TextMarshaler].
func (s Sign) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// SignProduct returns an Evaluator yielding the sign of the product of a
// range. A single zero anywhere in the range makes the whole product Zero.
func SignProduct[N SignedNumber]() Evaluator[N, Sign] {
	return signProduct[N]{}
}

type signProduct[N SignedNumber] struct{}

func (signProduct[N]) Evaluate(symbol N, count int) Sign {
	switch {
	case symbol == 0:
		return Zero
	case symbol > 0 || count%2 == 0:
		return Positive
	default:
		return Negative
	}
}

func (signProduct[N]) Combine(left, right Sign) Sign {
	return left * right
}
