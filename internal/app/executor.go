package app

import (
	"context"
	"io"
	"log/slog"

	"github.com/msaeedsaeedi/perfrun/internal/domain"
	"github.com/msaeedsaeedi/perfrun/internal/infra"
)

type ResultHandler interface {
	OnStart(phase domain.Phase)
	OnComplete(outcome domain.PhaseOutcome)
	OnFinish(summary domain.RunSummary)
	GetOutputWriters() (stdout, stderr io.Writer)
}

type PhaseRunner interface {
	Run(ctx context.Context, ec *domain.ExecContext, phase domain.Phase, stdout, stderr io.Writer) domain.PhaseOutcome
}

type HookRunner interface {
	RunHook(ctx context.Context, ec *domain.ExecContext, stage infra.HookStage, path string, stdout, stderr io.Writer) error
}

type Executor interface {
	Execute(ctx context.Context, cfg *domain.TestConfig, ec *domain.ExecContext, handler ResultHandler) ([]domain.PhaseOutcome, error)
}

// SequentialExecutor runs phases one at a time in configuration order. A
// failing phase does not stop the loop; only cancellation does.
type SequentialExecutor struct {
	runner PhaseRunner
	log    *slog.Logger
}

func NewSequentialExecutor(runner PhaseRunner, log *slog.Logger) *SequentialExecutor {
	return &SequentialExecutor{
		runner: runner,
		log:    log,
	}
}

func (e *SequentialExecutor) Execute(ctx context.Context, cfg *domain.TestConfig, ec *domain.ExecContext, handler ResultHandler) ([]domain.PhaseOutcome, error) {
	outcomes := make([]domain.PhaseOutcome, 0, len(cfg.Phases))

	for _, phase := range cfg.Phases {
		select {
		case <-ctx.Done():
			return outcomes, ctx.Err()
		default:
		}

		e.log.Info("running phase", "phase", phase.Name)
		e.log.Debug("phase command", "phase", phase.Name, "command", phase.Command)
		handler.OnStart(phase)

		stdoutWriter, stderrWriter := handler.GetOutputWriters()
		outcome := e.runner.Run(ctx, ec, phase, stdoutWriter, stderrWriter)
		outcomes = append(outcomes, outcome)

		handler.OnComplete(outcome)
		e.log.Info("phase finished",
			"phase", phase.Name,
			"status", outcome.Status,
			"exit_code", outcome.ExitCode,
			"minutes", outcome.Minutes(),
		)

		if ctx.Err() != nil {
			return outcomes, ctx.Err()
		}
	}

	return outcomes, nil
}
