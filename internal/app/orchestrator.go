package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/msaeedsaeedi/perfrun/internal/config"
	"github.com/msaeedsaeedi/perfrun/internal/domain"
	"github.com/msaeedsaeedi/perfrun/internal/infra"
	"github.com/msaeedsaeedi/perfrun/internal/metrics"
	"github.com/msaeedsaeedi/perfrun/internal/storage"
	"github.com/msaeedsaeedi/perfrun/internal/ui"
)

type Orchestrator struct {
	validator *domain.ConfigValidator
	runner    PhaseRunner
	hooks     HookRunner
	store     storage.Storage
	handler   ResultHandler
	out       io.Writer
	log       *slog.Logger

	now      func() time.Time
	environ  func() []string
	newRunID func() string
}

type Option func(*Orchestrator)

func WithPhaseRunner(r PhaseRunner) Option {
	return func(o *Orchestrator) {
		o.runner = r
	}
}

func WithHookRunner(h HookRunner) Option {
	return func(o *Orchestrator) {
		o.hooks = h
	}
}

func WithStorage(s storage.Storage) Option {
	return func(o *Orchestrator) {
		o.store = s
	}
}

// WithResultHandler replaces the formatter chosen from the output format.
func WithResultHandler(h ResultHandler) Option {
	return func(o *Orchestrator) {
		o.handler = h
	}
}

func WithOutput(w io.Writer) Option {
	return func(o *Orchestrator) {
		o.out = w
	}
}

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

func WithEnviron(environ func() []string) Option {
	return func(o *Orchestrator) {
		o.environ = environ
	}
}

func NewOrchestrator(log *slog.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		validator: domain.NewConfigValidator(),
		runner:    infra.NewCommandRunner(log),
		hooks:     infra.NewInterpreterHookRunner(infra.DefaultHookInterpreter, log),
		store:     storage.NewJSONStorage(log),
		out:       os.Stdout,
		log:       log,
		now:       time.Now,
		environ:   os.Environ,
		newRunID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Orchestrator) Execute(ctx context.Context, opts *domain.RunOptions) error {
	if err := o.validator.ValidateOptions(opts); err != nil {
		return err
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}
	cfg.Policy = cfg.Policy.Merge(opts.Policy)

	if err := o.validator.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config %s: %w", opts.ConfigPath, err)
	}

	selector, err := domain.NewSelector(cfg.Policy)
	if err != nil {
		return err
	}

	if opts.DryRun {
		_, err := fmt.Fprint(o.out, ui.RenderPlan(cfg, selector))
		return err
	}

	handler := o.getFormatter(opts, cfg)

	if tuiHandler, ok := handler.(*ui.TUIFormatter); ok {
		return o.executeTUI(ctx, cfg, selector, opts, tuiHandler)
	}

	summary := o.run(ctx, cfg, selector, opts, handler)
	handler.OnFinish(summary)
	return summary.Result()
}

func (o *Orchestrator) executeTUI(ctx context.Context, cfg *domain.TestConfig, selector *domain.Selector, opts *domain.RunOptions, tui *ui.TUIFormatter) error {
	ctxRun, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctxRun)

	// Start TUI; when it exits (quit or finish), cancel to stop the run
	g.Go(func() error {
		defer cancel()
		return tui.Run(gctx)
	})

	if err := tui.WaitReady(gctx); err != nil {
		return err
	}

	var summary domain.RunSummary
	g.Go(func() error {
		summary = o.run(gctx, cfg, selector, opts, tui)
		tui.OnFinish(summary)
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	return summary.Result()
}

// run is the load→setup→phases→compare→persist→teardown pipeline. Fatal
// errors end up in the summary's Err.
func (o *Orchestrator) run(ctx context.Context, cfg *domain.TestConfig, selector *domain.Selector, opts *domain.RunOptions, handler ResultHandler) domain.RunSummary {
	startedAt := o.now()
	ec := domain.NewExecContext(cfg.Directory, startedAt, o.newRunID(), o.environ())
	for k, v := range cfg.Env {
		ec.Setenv(k, v)
	}

	log := o.log.With("test", cfg.TestName, "run_id", ec.RunID)
	log.Info("starting run", "timestamp", ec.Timestamp, "directory", ec.Dir, "phases", len(cfg.Phases), "policy", selector.Mode())

	summary := domain.RunSummary{
		TestName:   cfg.TestName,
		RunID:      ec.RunID,
		StartedAt:  startedAt,
		ReportFile: ec.Resolve(cfg.ReportFile),
	}
	stdout, stderr := handler.GetOutputWriters()

	if cfg.Setup != "" {
		if err := o.hooks.RunHook(ctx, ec, infra.HookSetup, cfg.Setup, stdout, stderr); err != nil {
			summary.Err = err
			return summary
		}
	}

	previous, err := o.store.Load(summary.ReportFile)
	if err != nil {
		summary.Err = err
		return summary
	}

	executor := NewSequentialExecutor(o.runner, log)
	outcomes, err := executor.Execute(ctx, cfg, ec, handler)
	summary.Outcomes = outcomes
	if err != nil {
		log.Warn("run interrupted, report left untouched", "error", err)
		summary.Err = err
		return summary
	}

	summary.Comparison = domain.Compare(previous.Results, outcomes, selector)
	for _, v := range summary.Comparison.Degraded() {
		log.Warn("performance degradation detected",
			"phase", v.Phase,
			"policy", v.Policy,
			"previous_min", v.Previous.Minutes,
			"new_min", v.Current.Minutes,
			"limit_min", v.Limit,
		)
	}

	report := domain.NewReport(cfg.TestName, startedAt)
	for _, outcome := range outcomes {
		report.Results.Set(outcome.Name, domain.ResultFor(outcome))
	}
	if err := o.store.Save(summary.ReportFile, report); err != nil {
		summary.Err = err
		return summary
	}

	if opts.MetricsFile != "" {
		recorder := metrics.NewRecorder()
		recorder.Observe(summary)
		if err := recorder.WriteTextfile(opts.MetricsFile); err != nil {
			log.Error("failed to write metrics", "path", opts.MetricsFile, "error", err)
		}
	}

	if cfg.Teardown != "" {
		if err := o.hooks.RunHook(ctx, ec, infra.HookTeardown, cfg.Teardown, stdout, stderr); err != nil {
			summary.Err = err
		}
	}

	return summary
}

func (o *Orchestrator) getFormatter(opts *domain.RunOptions, cfg *domain.TestConfig) ResultHandler {
	if o.handler != nil {
		return o.handler
	}
	switch opts.Format {
	case domain.FormatRaw:
		return ui.NewRawFormatter(opts.Verbosity)
	case domain.FormatJSON:
		return ui.NewJSONFormatter(cfg)
	case domain.FormatTUI:
		return ui.NewTUIFormatter(cfg)
	default:
		return ui.NewRawFormatter(opts.Verbosity)
	}
}
