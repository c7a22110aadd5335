package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/msaeedsaeedi/perfrun/internal/app"
	"github.com/msaeedsaeedi/perfrun/internal/config"
	"github.com/msaeedsaeedi/perfrun/internal/domain"
	"github.com/msaeedsaeedi/perfrun/internal/infra"
)

const version = "0.1.0"

type options struct {
	config               string
	format               string
	json                 bool
	raw                  bool
	tui                  bool
	verbosity            string
	policy               string
	performanceThreshold float64
	windowThreshold      float64
	windowPhases         []string
	metricsFile          string
	hookInterpreter      string
	dryRun               bool
}

// usageError marks errors that should be followed by the usage text.
type usageError struct{ err error }

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func resolveConfigPath(args []string, opts *options) string {
	switch {
	case len(args) > 0:
		return args[0]
	case opts.config != "":
		return opts.config
	default:
		return os.Getenv(config.EnvConfigPath)
	}
}

func resolveFormat(opts *options) domain.OutputFormat {
	switch {
	case opts.json:
		return domain.FormatJSON
	case opts.raw:
		return domain.FormatRaw
	case opts.tui:
		return domain.FormatTUI
	default:
		return domain.OutputFormat(opts.format)
	}
}

func buildRunOptions(cmd *cobra.Command, args []string, opts *options) *domain.RunOptions {
	ro := &domain.RunOptions{
		ConfigPath:  resolveConfigPath(args, opts),
		Verbosity:   domain.VerbosityLevel(opts.verbosity),
		Format:      resolveFormat(opts),
		MetricsFile: opts.metricsFile,
		DryRun:      opts.dryRun,
		Policy: domain.PolicySettings{
			Mode:         domain.PolicyMode(opts.policy),
			WindowPhases: opts.windowPhases,
		},
	}
	if cmd.Flags().Changed("performance-threshold") {
		v := opts.performanceThreshold
		ro.Policy.PerformanceThreshold = &v
	}
	if cmd.Flags().Changed("window-threshold") {
		v := opts.windowThreshold
		ro.Policy.WindowThreshold = &v
	}
	return ro
}

func newLogger(ro *domain.RunOptions) *slog.Logger {
	// The TUI owns the terminal.
	if ro.Format == domain.FormatTUI {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	level := slog.LevelInfo
	switch ro.Verbosity {
	case domain.VerbositySilent:
		level = slog.LevelError
	case domain.VerbosityVerbose:
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func run(cmd *cobra.Command, args []string, opts *options) error {
	ro := buildRunOptions(cmd, args, opts)
	log := newLogger(ro)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	orchestrator := app.NewOrchestrator(log,
		app.WithHookRunner(infra.NewInterpreterHookRunner(opts.hookInterpreter, log)),
	)
	if err := orchestrator.Execute(ctx, ro); err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "\n\nExecution cancelled")
		}
		return err
	}

	return nil
}

func newRootCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "perfrun [flags] [config]",
		Short: "Run a performance test and detect regressions",
		Long: "perfrun - run the phases of a performance test, record their durations\n" +
			"and fail when a phase got slower than the previous run allows.\n\n" +
			"The config path is taken from the argument, --config or the INPUT environment variable.",
		Args:          cobra.MaximumNArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args, opts)
		},
	}

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err: err}
	})

	flags := cmd.Flags()
	flags.StringVarP(&opts.config, "config", "c", "", "Path to the test config (default $INPUT)")
	flags.StringVar(&opts.format, "format", string(domain.FormatRaw), "Output format (raw|json|tui)")
	flags.BoolVar(&opts.json, "json", false, "Output in JSON format")
	flags.BoolVar(&opts.raw, "raw", false, "Output in raw format (default)")
	flags.BoolVar(&opts.tui, "tui", false, "Output in TUI format")
	flags.StringVarP(&opts.verbosity, "verbosity", "v", string(domain.VerbosityNormal), "Verbosity level (silent|normal|verbose)")
	flags.StringVar(&opts.policy, "policy", "", "Degradation policy (mixed|uniform)")
	flags.Float64Var(&opts.performanceThreshold, "performance-threshold", 0, "Percentage policy factor, e.g. 1.2")
	flags.Float64Var(&opts.windowThreshold, "window-threshold", 0, "Window policy allowance in minutes")
	flags.StringArrayVar(&opts.windowPhases, "window-phase", nil, "Phase judged by the window policy (repeatable)")
	flags.StringVar(&opts.metricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile")
	flags.StringVar(&opts.hookInterpreter, "hook-interpreter", infra.DefaultHookInterpreter, "Interpreter for setup and teardown scripts")
	flags.BoolVar(&opts.dryRun, "dry-run", false, "Validate the config and print the phase plan without running it")
	cmd.MarkFlagsMutuallyExclusive("json", "raw", "tui")
	cmd.Version = version

	return cmd
}

func main() {
	opts := &options{}
	rootCmd := newRootCmd(opts)
	if err := rootCmd.Execute(); err != nil {
		var uerr *usageError
		switch {
		case errors.As(err, &uerr):
			fmt.Fprintln(os.Stderr, "Error:", err)
			fmt.Fprintln(os.Stderr)
			rootCmd.Usage()
		case errors.Is(err, domain.ErrDegradation), errors.Is(err, context.Canceled):
		default:
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
