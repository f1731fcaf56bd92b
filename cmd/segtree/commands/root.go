// Package commands implements the segtree CLI commands.
package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/danihelis/algorithms/internal/observability"
	"github.com/danihelis/algorithms/pkg/config"
	"github.com/danihelis/algorithms/pkg/version"
)

const (
	flagConfig  = "config"
	flagVerbose = "verbose"
)

// NewRootCommand creates the segtree root command with every subcommand attached.
func NewRootCommand() *cobra.Command {
	return newRootCommand(NewRunCommand())
}

func newRootCommand(runCmd *cobra.Command) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "segtree",
		Short: "Lazy segment tree engine",
		Long: `segtree evaluates range queries over a sequence of symbols under
range assignment, using a lazily propagated segment tree.

Commands:
  run       Replay a scenario file
  serve     Serve one tree over HTTP
  algebras  List the available algebras`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String(flagConfig, "", "config file (default: segtree.yaml in ., ./config or /etc/segtree)")
	rootCmd.PersistentFlags().BoolP(flagVerbose, "v", false, "verbose output")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(NewServeCommand())
	rootCmd.AddCommand(NewAlgebrasCommand())
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}

// loadConfig reads the configuration named by the --config flag.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Flags().GetString(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("read --%s: %w", flagConfig, err)
	}

	return config.LoadConfig(path)
}

// initObservability starts telemetry for mode. Logs go to the command's
// error stream; --verbose lowers the level to debug.
func initObservability(cmd *cobra.Command, cfg *config.Config, mode observability.AppMode) (observability.Providers, error) {
	level, err := cfg.Logging.SlogLevel()
	if err != nil {
		return observability.Providers{}, err
	}

	verbose, _ := cmd.Flags().GetBool(flagVerbose)
	if verbose {
		level = slog.LevelDebug
	}

	obsCfg := observability.DefaultConfig()
	obsCfg.ServiceVersion = version.Version
	obsCfg.Environment = cfg.Observability.Environment
	obsCfg.Mode = mode
	obsCfg.OTLPEndpoint = cfg.Observability.OTLPEndpoint
	obsCfg.OTLPHeaders = observability.ParseOTLPHeaders(cfg.Observability.OTLPHeaders)
	obsCfg.OTLPInsecure = cfg.Observability.OTLPInsecure
	obsCfg.SampleRatio = cfg.Observability.SampleRatio
	obsCfg.LogLevel = level
	obsCfg.LogJSON = cfg.Logging.Format == config.LogFormatJSON

	providers, err := observability.Init(obsCfg)
	if err != nil {
		return observability.Providers{}, fmt.Errorf("init observability: %w", err)
	}

	providers.Logger = observability.NewLogger(obsCfg, cmd.ErrOrStderr())

	return providers, nil
}
