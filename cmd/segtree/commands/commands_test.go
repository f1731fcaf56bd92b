package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/danihelis/algorithms/pkg/config"
	"github.com/danihelis/algorithms/pkg/scenario"
)

var examplesDir = filepath.Join("..", "..", "..", "examples")

func execute(t *testing.T, ctx context.Context, args ...string) (string, error) {
	t.Helper()

	var out, errOut bytes.Buffer

	root := NewRootCommand()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)

	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

// TestRun_ShippedScenario replays a bundled example with verification on.
func TestRun_ShippedScenario(t *testing.T) {
	t.Parallel()

	out, err := execute(t, context.Background(), "run", "--verify", "--no-color", filepath.Join(examplesDir, "counting.yaml"))
	require.NoError(t, err)

	assert.Contains(t, out, "(count)")
	assert.Contains(t, out, "0 failed")
	assert.NotContains(t, out, "\x1b[")
}

// TestRun_FailingScenario exits with an error when an expectation does not hold.
func TestRun_FailingScenario(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "failing.yaml", `
name: failing
algebra: sum
sequence: [1, 2, 3]
steps:
  - {op: query, from: 0, to: 3, expect: 7}
`)

	out, err := execute(t, context.Background(), "run", "--no-color", path)
	require.ErrorIs(t, err, ErrScenarioFailed)
	assert.Contains(t, out, "1 failed")
}

// TestRun_InvalidScenario reports schema violations.
func TestRun_InvalidScenario(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "invalid.yaml", "algebra: median\nsequence: []\nsteps: []\n")

	_, err := execute(t, context.Background(), "run", path)
	require.ErrorIs(t, err, scenario.ErrInvalidScenario)
}

// TestRun_RespectsMaxLength rejects scenarios longer than engine.max_length.
func TestRun_RespectsMaxLength(t *testing.T) {
	t.Parallel()

	cfgPath := writeFile(t, "segtree.yaml", "engine:\n  max_length: 2\n")
	path := writeFile(t, "long.yaml", "algebra: sum\nsequence: [1, 2, 3]\nsteps: []\n")

	_, err := execute(t, context.Background(), "--config", cfgPath, "run", path)
	require.ErrorIs(t, err, ErrSequenceTooLong)
}

// TestRun_SpanStatus checks that the run span is marked failed on every error
// path and left unset on success.
func TestRun_SpanStatus(t *testing.T) {
	t.Parallel()

	cfgPath := writeFile(t, "segtree.yaml", "engine:\n  max_length: 2\n")
	longPath := writeFile(t, "long.yaml", "algebra: sum\nsequence: [1, 2, 3]\nsteps: []\n")
	shortPath := writeFile(t, "short.yaml", "algebra: sum\nsequence: [1, 2]\nsteps:\n  - {op: query, from: 0, to: 2, expect: 3}\n")

	cases := []struct {
		name string
		path string
		want codes.Code
		err  error
	}{
		{name: "too long", path: longPath, want: codes.Error, err: ErrSequenceTooLong},
		{name: "missing file", path: filepath.Join(t.TempDir(), "absent.yaml"), want: codes.Error, err: os.ErrNotExist},
		{name: "passing", path: shortPath, want: codes.Unset},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			exporter := tracetest.NewInMemoryExporter()
			tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

			root := newRootCommand(newRunCommandWithTracer(tp.Tracer("test")))
			root.SetOut(&bytes.Buffer{})
			root.SetErr(&bytes.Buffer{})
			root.SetArgs([]string{"--config", cfgPath, "run", "--no-color", tc.path})

			err := root.ExecuteContext(context.Background())
			if tc.err != nil {
				require.ErrorIs(t, err, tc.err)
			} else {
				require.NoError(t, err)
			}

			spans := exporter.GetSpans()
			require.Len(t, spans, 1)
			assert.Equal(t, "segtree.run", spans[0].Name)
			assert.Equal(t, tc.want, spans[0].Status.Code)
		})
	}
}

// TestAlgebras_ListsEveryAlgebra prints one row per registered algebra.
func TestAlgebras_ListsEveryAlgebra(t *testing.T) {
	t.Parallel()

	out, err := execute(t, context.Background(), "algebras")
	require.NoError(t, err)

	for _, name := range []string{"count", "max", "min", "sign", "sum"} {
		assert.Contains(t, out, name)
	}
}

// TestVersion prints the build banner.
func TestVersion(t *testing.T) {
	t.Parallel()

	out, err := execute(t, context.Background(), "version")
	require.NoError(t, err)
	assert.Contains(t, out, "segtree dev")
}

// TestServe_RejectsInvalidFlags validates flag overrides like the config file.
func TestServe_RejectsInvalidFlags(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		args []string
		want error
	}{
		{name: "port zero", args: []string{"--addr", "127.0.0.1:0"}, want: config.ErrInvalidPort},
		{name: "port too large", args: []string{"--addr", ":99999"}, want: config.ErrInvalidPort},
		{name: "unknown algebra", args: []string{"--algebra", "median"}, want: config.ErrInvalidAlgebra},
		{name: "no port", args: []string{"--addr", "localhost"}, want: ErrInvalidAddr},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := execute(t, context.Background(), append([]string{"serve"}, tc.args...)...)
			require.ErrorIs(t, err, tc.want)
		})
	}
}

// TestServeApply_OverridesConfig overlays flags on the loaded configuration.
func TestServeApply_OverridesConfig(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadConfig("")
	require.NoError(t, err)

	cmd := NewServeCommand()
	require.NoError(t, cmd.ParseFlags([]string{"--addr", "0.0.0.0:9999", "--algebra", "count", "--target", "4"}))

	sc := &ServeCommand{addr: "0.0.0.0:9999", algebra: "count", target: 4}
	require.NoError(t, sc.apply(cmd, cfg))

	assert.Equal(t, "0.0.0.0:9999", cfg.Server.Addr())
	assert.Equal(t, "count", cfg.Engine.Algebra)
	assert.Equal(t, int64(4), cfg.Engine.Target)
}

// TestServeApply_RejectsBadAddr rejects addresses without a numeric port.
func TestServeApply_RejectsBadAddr(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadConfig("")
	require.NoError(t, err)

	for _, addr := range []string{"localhost", "localhost:http"} {
		sc := &ServeCommand{addr: addr}
		require.ErrorIs(t, sc.apply(NewServeCommand(), cfg), ErrInvalidAddr)
	}
}
