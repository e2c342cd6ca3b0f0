package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/openagents-control/oac/pkg/adapters"
	"github.com/openagents-control/oac/pkg/config"
	"github.com/openagents-control/oac/pkg/loader"
	"github.com/openagents-control/oac/pkg/logger"
	"github.com/openagents-control/oac/pkg/presenter"
	"github.com/openagents-control/oac/pkg/telemetry"
	"github.com/openagents-control/oac/pkg/version"
)

var (
	// v holds config.yaml, OAC_* variables and the flags bound to them
	v = config.New()
	// cfg is resolved in PersistentPreRunE, before any command runs
	cfg config.Config

	shutdownTracing telemetry.ShutdownFunc = func(context.Context) error { return nil }

	// exitCode is the process status; commands set it rather than exiting
	exitCode int
)

var rootCmd = &cobra.Command{
	Use:   "oac",
	Short: "Convert agent definitions between OpenAgents Control and other AI coding tools",
	Long: `oac validates agent definitions written in the OpenAgents Control format and
converts them to and from the agent and rule formats of other AI coding tools,
reporting everything a conversion could not carry over.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
		exitCode = 1
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Path to a config file (default ./.oac/config.yaml or $HOME/.oac/config.yaml)")
	flags.String("log-level", "warn", "Log level (trace, debug, info, warn, error)")
	flags.String("log-format", logger.FormatText, "Log format (text, json)")
	flags.BoolP("quiet", "q", false, "Only show errors")

	v.BindPFlag("log_level", flags.Lookup("log-level"))
	v.BindPFlag("log_format", flags.Lookup("log-format"))

	rootCmd.AddCommand(
		withTracing(validateCmd),
		withTracing(convertCmd),
		withTracing(syncCmd),
		withTracing(adaptersCmd),
		schemaCmd,
		versionCmd,
	)
}

func setup(cmd *cobra.Command, _ []string) error {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		v.SetConfigFile(path)
	}

	loaded, err := config.Load(v)
	if err != nil {
		return err
	}
	cfg = loaded

	if err := logger.Configure(cfg.LogLevel, cfg.LogFormat); err != nil {
		return err
	}
	if quiet, _ := cmd.Flags().GetBool("quiet"); quiet {
		presenter.SetQuiet(true)
	}

	shutdown, err := telemetry.InitTracer(cmd.Context(), cfg.TelemetryConfig(version.Get().Version))
	if err != nil {
		return errors.Wrap(err, "failed to initialize tracing")
	}
	shutdownTracing = shutdown
	return nil
}

// newLoader builds a loader from the resolved configuration
func newLoader() (*loader.Loader, error) {
	return loader.New(
		loader.WithExtensions(cfg.Extensions...),
		loader.WithConcurrency(cfg.Concurrency),
	)
}

func newRegistry() *adapters.Registry {
	return adapters.NewBuiltinRegistry()
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := rootCmd.ExecuteContext(ctx)
	cancel()
	if shutdownErr := shutdownTracing(context.Background()); shutdownErr != nil {
		logger.L.WithError(shutdownErr).Warn("failed to shut down tracing")
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		exitCode = 1
	}
	os.Exit(exitCode)
}
