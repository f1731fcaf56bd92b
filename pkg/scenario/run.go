package scenario

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/danihelis/algorithms/pkg/alg/segtree"
	"github.com/danihelis/algorithms/pkg/engine"
)

// Step outcome statuses.
const (
	// StatusOK marks a step that ran without an expectation.
	StatusOK = "ok"
	// StatusPass marks a step whose expectation held.
	StatusPass = "pass"
	// StatusFail marks a step that failed or whose expectation did not hold.
	StatusFail = "fail"
)

// Sentinel step failures.
var (
	ErrUnexpectedValue = errors.New("unexpected value")
	ErrMissingError    = errors.New("expected error did not occur")
	ErrFoldMismatch    = errors.New("tree disagrees with linear fold")
)

// Options tune a scenario run.
type Options struct {
	// Logger receives per-step debug records. Nil discards them.
	Logger *slog.Logger
	// Verify cross-checks every query against a linear fold of the current symbols.
	Verify bool
}

// Result is the outcome of one step.
type Result struct {
	Err      error
	Op       string
	Value    string
	Expected string
	Status   string
	Index    int
	From     int
	To       int
}

// Report is the outcome of a whole scenario.
type Report struct {
	Name    string
	Algebra string
	Symbols []int64
	Results []Result
	Elapsed time.Duration
	Length  int
}

// Failed returns the number of failed steps.
func (r *Report) Failed() int {
	failed := 0

	for _, res := range r.Results {
		if res.Status == StatusFail {
			failed++
		}
	}

	return failed
}

// Run executes every step of sc against a fresh engine. Step failures are
// recorded in the report; the returned error is reserved for setup failures
// and cancellation.
func Run(ctx context.Context, sc *Scenario, opts Options) (*Report, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	eng, err := engine.New(sc.Algebra, sc.Target, sc.Sequence)
	if err != nil {
		return nil, fmt.Errorf("build engine: %w", err)
	}

	report := &Report{
		Name:    sc.Name,
		Algebra: sc.Algebra,
		Length:  eng.Len(),
		Results: make([]Result, 0, len(sc.Steps)),
	}

	start := time.Now()

	for idx, step := range sc.Steps {
		err = ctx.Err()
		if err != nil {
			return nil, fmt.Errorf("scenario interrupted at step %d: %w", idx, err)
		}

		res := runStep(eng, step, opts.Verify)
		res.Index = idx

		logger.DebugContext(ctx, "step done",
			slog.Int("step", idx),
			slog.String("op", res.Op),
			slog.Int("from", res.From),
			slog.Int("to", res.To),
			slog.String("status", res.Status),
		)

		report.Results = append(report.Results, res)
	}

	report.Elapsed = time.Since(start)
	report.Symbols = eng.Symbols()

	return report, nil
}

func runStep(eng engine.Engine, step Step, verify bool) Result {
	res := Result{
		Op:       step.Op,
		From:     step.From,
		To:       step.To,
		Expected: step.ExpectError,
	}

	if step.Expect != nil {
		res.Expected = step.Expect.Text
	}

	var (
		value any
		err   error
	)

	switch step.Op {
	case OpAssign:
		symbol := int64(0)
		if step.Symbol != nil {
			symbol = *step.Symbol
		}

		err = eng.Assign(step.From, step.To, symbol)
		res.Value = fmt.Sprint(symbol)
	case OpQuery:
		value, err = eng.Query(step.From, step.To)
		if err == nil {
			res.Value = fmt.Sprint(value)
		}
	default:
		err = fmt.Errorf("%w: unknown op %q", ErrInvalidScenario, step.Op)
	}

	if step.ExpectError != "" {
		return checkExpectedError(res, step.ExpectError, err)
	}

	if err != nil {
		res.Err = err
		res.Status = StatusFail

		return res
	}

	if verify && step.Op == OpQuery {
		err = verifyQuery(eng, step, res.Value)
		if err != nil {
			res.Err = err
			res.Status = StatusFail

			return res
		}
	}

	switch {
	case step.Expect == nil:
		res.Status = StatusOK
	case step.Expect.Text == res.Value:
		res.Status = StatusPass
	default:
		res.Err = fmt.Errorf("%w: got %s, want %s", ErrUnexpectedValue, res.Value, step.Expect.Text)
		res.Status = StatusFail
	}

	return res
}

func checkExpectedError(res Result, name string, err error) Result {
	var want error

	switch name {
	case ExpectInvalidRange:
		want = segtree.ErrInvalidRange
	case ExpectEmptyTree:
		want = segtree.ErrEmptyTree
	}

	switch {
	case err == nil:
		res.Err = fmt.Errorf("%w: %s", ErrMissingError, name)
		res.Status = StatusFail
	case errors.Is(err, want):
		res.Value = name
		res.Status = StatusPass
	default:
		res.Err = fmt.Errorf("%w: got %w, want %s", ErrUnexpectedValue, err, name)
		res.Status = StatusFail
	}

	return res
}

// verifyQuery recomputes a query with a linear fold over the engine's
// current symbols.
func verifyQuery(eng engine.Engine, step Step, got string) error {
	symbols := eng.Symbols()

	want, err := eng.Fold(symbols[step.From:step.To])
	if err != nil {
		return fmt.Errorf("verify: %w", err)
	}

	if fmt.Sprint(want) != got {
		return fmt.Errorf("%w: [%d, %d) tree %s, fold %v", ErrFoldMismatch, step.From, step.To, got, want)
	}

	return nil
}
