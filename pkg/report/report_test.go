package report

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danihelis/algorithms/pkg/scenario"
)

var errBoom = errors.New("boom")

func sampleReport() *scenario.Report {
	return &scenario.Report{
		Name:    "counting",
		Algebra: "count",
		Length:  12345,
		Symbols: []int64{0, 1, 1, 0},
		Elapsed: 3 * time.Microsecond,
		Results: []scenario.Result{
			{Index: 0, Op: scenario.OpQuery, From: 0, To: 8, Value: "2", Expected: "2", Status: scenario.StatusPass},
			{Index: 1, Op: scenario.OpAssign, From: 2, To: 6, Value: "1", Status: scenario.StatusOK},
			{Index: 2, Op: scenario.OpQuery, From: 0, To: 8, Value: "3", Expected: "4", Status: scenario.StatusFail, Err: errBoom},
		},
	}
}

func TestRender_Plain(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, NewRenderer(true).Render(&buf, sampleReport()))

	out := buf.String()
	assert.Contains(t, out, "counting (count)")
	assert.Contains(t, out, "[2, 6)")
	assert.Contains(t, out, "boom")
	assert.Contains(t, out, "final: [0 1 1 0]")
	assert.Contains(t, out, "12,345 positions, 3 steps, 1 failed")
	assert.NotContains(t, out, "\x1b[")
}

func TestRender_Colored(t *testing.T) {
	t.Parallel()

	r := NewRenderer(false)
	r.pass.EnableColor()
	r.fail.EnableColor()

	assert.Contains(t, r.status(scenario.StatusFail), "\x1b[")
	assert.Equal(t, scenario.StatusOK, r.status(scenario.StatusOK))
}

func TestFormatSymbols_Truncates(t *testing.T) {
	t.Parallel()

	symbols := make([]int64, maxShownSymbols+1000)

	out := formatSymbols(symbols)
	assert.Contains(t, out, "(+1,000 more)")
	assert.Equal(t, "[]", formatSymbols(nil))
}
