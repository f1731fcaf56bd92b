package commands

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/danihelis/algorithms/internal/observability"
	"github.com/danihelis/algorithms/internal/server"
	"github.com/danihelis/algorithms/pkg/config"
	"github.com/danihelis/algorithms/pkg/engine"
)

// ErrInvalidAddr is returned when --addr is not a host:port pair.
var ErrInvalidAddr = errors.New("invalid listen address")

// ServeCommand holds the flags of the serve command.
type ServeCommand struct {
	addr     string
	algebra  string
	sequence []int64
	target   int64
}

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	sc := &ServeCommand{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve one tree over HTTP",
		Long: `Build a tree from --sequence and serve assign and query requests over HTTP
until SIGINT or SIGTERM. Flags override the configuration file.`,
		Args: cobra.NoArgs,
		RunE: sc.run,
	}

	cmd.Flags().StringVar(&sc.addr, "addr", "", "Listen address host:port (default from server.host and server.port)")
	cmd.Flags().StringVar(&sc.algebra, "algebra", "", "Algebra of the initial tree (default from engine.algebra)")
	cmd.Flags().Int64Var(&sc.target, "target", 0, "Symbol counted by the count algebra")
	cmd.Flags().Int64SliceVar(&sc.sequence, "sequence", nil, "Initial sequence, e.g. 0,0,1,0")

	return cmd
}

func (sc *ServeCommand) run(cmd *cobra.Command, _ []string) (err error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	err = sc.apply(cmd, cfg)
	if err != nil {
		return err
	}

	providers, err := initObservability(cmd, cfg, observability.ModeServe)
	if err != nil {
		return err
	}

	defer func() {
		err = errors.Join(err, providers.Shutdown(context.WithoutCancel(cmd.Context())))
	}()

	if len(sc.sequence) > cfg.Engine.MaxLength {
		return fmt.Errorf("%w: %d > %d", server.ErrTooLong, len(sc.sequence), cfg.Engine.MaxLength)
	}

	eng, err := engine.New(cfg.Engine.Algebra, cfg.Engine.Target, sc.sequence)
	if err != nil {
		return err
	}

	metrics, err := observability.NewOpMetrics(providers.Meter)
	if err != nil {
		return fmt.Errorf("create metrics: %w", err)
	}

	srv := server.New(eng, server.Options{
		Logger:         providers.Logger,
		Tracer:         providers.Tracer,
		Metrics:        metrics,
		MetricsHandler: providers.MetricsHandler,
		MaxBody:        cfg.Server.MaxBodyBytes,
		MaxLength:      cfg.Engine.MaxLength,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.ListenAndServe(ctx, cfg.Server)
}

// apply overlays the command flags on cfg and validates the result.
func (sc *ServeCommand) apply(cmd *cobra.Command, cfg *config.Config) error {
	if sc.addr != "" {
		host, rawPort, err := net.SplitHostPort(sc.addr)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidAddr, err)
		}

		port, err := strconv.Atoi(rawPort)
		if err != nil {
			return fmt.Errorf("%w: port %q", ErrInvalidAddr, rawPort)
		}

		cfg.Server.Host = host
		cfg.Server.Port = port
	}

	if sc.algebra != "" {
		cfg.Engine.Algebra = sc.algebra
	}

	if cmd.Flags().Changed("target") {
		cfg.Engine.Target = sc.target
	}

	err := config.Validate(cfg)
	if err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	return nil
}
