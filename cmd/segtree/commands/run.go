package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/danihelis/algorithms/internal/observability"
	"github.com/danihelis/algorithms/pkg/report"
	"github.com/danihelis/algorithms/pkg/scenario"
)

var (
	// ErrScenarioFailed is returned when at least one scenario step fails.
	ErrScenarioFailed = errors.New("scenario failed")
	// ErrSequenceTooLong is returned when a scenario exceeds engine.max_length.
	ErrSequenceTooLong = errors.New("scenario sequence too long")
)

// RunCommand holds the flags of the run command.
type RunCommand struct {
	// tracer overrides the tracer from observability.Init when set.
	tracer  trace.Tracer
	verify  bool
	noColor bool
}

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	return newRunCommandWithTracer(nil)
}

func newRunCommandWithTracer(tracer trace.Tracer) *cobra.Command {
	rc := &RunCommand{tracer: tracer}

	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Replay a scenario file",
		Long: `Load a scenario, replay its assign and query steps against a fresh tree
and print a table of outcomes. Exits non-zero when any step fails.`,
		Args: cobra.ExactArgs(1),
		RunE: rc.run,
	}

	cmd.Flags().BoolVar(&rc.verify, "verify", false, "Cross-check every query against a linear fold")
	cmd.Flags().BoolVar(&rc.noColor, "no-color", false, "Disable colored output")

	return cmd
}

func (rc *RunCommand) run(cmd *cobra.Command, args []string) (err error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	providers, err := initObservability(cmd, cfg, observability.ModeCLI)
	if err != nil {
		return err
	}

	defer func() {
		err = errors.Join(err, providers.Shutdown(context.WithoutCancel(cmd.Context())))
	}()

	tracer := providers.Tracer
	if rc.tracer != nil {
		tracer = rc.tracer
	}

	ctx, span := tracer.Start(cmd.Context(), "segtree.run",
		trace.WithAttributes(attribute.String("segtree.scenario", args[0])),
	)
	defer span.End()

	sc, err := scenario.LoadFile(args[0])
	if err != nil {
		return spanError(span, err)
	}

	if len(sc.Sequence) > cfg.Engine.MaxLength {
		return spanError(span, fmt.Errorf("%w: %d > %d", ErrSequenceTooLong, len(sc.Sequence), cfg.Engine.MaxLength))
	}

	providers.Logger.DebugContext(ctx, "scenario loaded",
		slog.String("algebra", sc.Algebra),
		slog.Int("length", len(sc.Sequence)),
		slog.Int("steps", len(sc.Steps)),
	)

	rep, err := scenario.Run(ctx, sc, scenario.Options{Logger: providers.Logger, Verify: rc.verify})
	if err != nil {
		return spanError(span, err)
	}

	span.SetAttributes(
		attribute.String("segtree.algebra", rep.Algebra),
		attribute.Int("segtree.steps", len(rep.Results)),
		attribute.Int("segtree.failed", rep.Failed()),
	)

	err = report.NewRenderer(rc.noColor).Render(cmd.OutOrStdout(), rep)
	if err != nil {
		return spanError(span, fmt.Errorf("render report: %w", err))
	}

	if failed := rep.Failed(); failed > 0 {
		return spanError(span, fmt.Errorf("%w: %d of %d steps", ErrScenarioFailed, failed, len(rep.Results)))
	}

	return nil
}

// spanError marks span as failed with err and returns err.
func spanError(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	return err
}
