// Package engine binds segment trees over int64 symbols to named algebras so
// that outer surfaces (scenario runner, HTTP server) can pick an algebra at
// runtime without knowing its evaluation type.
package engine

import (
	"errors"
	"fmt"
	"slices"

	"github.com/danihelis/algorithms/pkg/alg/segtree"
)

// Algebra names.
const (
	AlgebraCount = "count"
	AlgebraSum   = "sum"
	AlgebraMin   = "min"
	AlgebraMax   = "max"
	AlgebraSign  = "sign"
)

// ErrUnknownAlgebra is returned when an algebra name is not registered.
var ErrUnknownAlgebra = errors.New("unknown algebra")

// Engine is a segment tree over int64 symbols whose evaluations are returned
// as untyped values. Implementations are not safe for concurrent use.
type Engine interface {
	// Algebra returns the registered name of the engine's algebra.
	Algebra() string
	// Len returns the sequence length.
	Len() int
	// Assign overwrites [from, to) with symbol.
	Assign(from, to int, symbol int64) error
	// Query evaluates [from, to).
	Query(from, to int) (any, error)
	// Symbols returns the current sequence.
	Symbols() []int64
	// Fold evaluates seq linearly with the engine's algebra.
	Fold(seq []int64) (any, error)
}

// builder creates an engine for the given counting target and sequence.
type builder func(target int64, seq []int64) Engine

var registry = map[string]builder{
	AlgebraCount: func(target int64, seq []int64) Engine {
		return wrap(AlgebraCount, seq, segtree.Count(target))
	},
	AlgebraSum: func(_ int64, seq []int64) Engine {
		return wrap(AlgebraSum, seq, segtree.Sum[int64]())
	},
	AlgebraMin: func(_ int64, seq []int64) Engine {
		return wrap(AlgebraMin, seq, segtree.Min[int64]())
	},
	AlgebraMax: func(_ int64, seq []int64) Engine {
		return wrap(AlgebraMax, seq, segtree.Max[int64]())
	},
	AlgebraSign: func(_ int64, seq []int64) Engine {
		return wrap(AlgebraSign, seq, segtree.SignProduct[int64]())
	},
}

// New builds an engine over seq using the named algebra. target is only used
// by the count algebra, which counts positions equal to it.
func New(algebra string, target int64, seq []int64) (Engine, error) {
	build, ok := registry[algebra]
	if !ok {
		return nil, fmt.Errorf("%w: %q (known: %v)", ErrUnknownAlgebra, algebra, Names())
	}

	return build(target, seq), nil
}

// Names returns the registered algebra names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))

	for name := range registry {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

// typed adapts a segtree.Tree with a concrete evaluation type to Engine.
type typed[E any] struct {
	tree      *segtree.Tree[int64, E]
	evaluator segtree.Evaluator[int64, E]
	name      string
}

func wrap[E any](name string, seq []int64, ev segtree.Evaluator[int64, E]) *typed[E] {
	return &typed[E]{
		tree:      segtree.New(seq, ev),
		evaluator: ev,
		name:      name,
	}
}

func (e *typed[E]) Algebra() string { return e.name }

func (e *typed[E]) Len() int { return e.tree.Len() }

func (e *typed[E]) Assign(from, to int, symbol int64) error {
	err := e.tree.Assign(from, to, symbol)
	if err != nil {
		return fmt.Errorf("assign: %w", err)
	}

	return nil
}

func (e *typed[E]) Query(from, to int) (any, error) {
	value, err := e.tree.Query(from, to)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}

	return value, nil
}

func (e *typed[E]) Symbols() []int64 { return e.tree.Symbols() }

func (e *typed[E]) Fold(seq []int64) (any, error) {
	value, err := segtree.Fold(seq, e.evaluator)
	if err != nil {
		return nil, fmt.Errorf("fold: %w", err)
	}

	return value, nil
}
