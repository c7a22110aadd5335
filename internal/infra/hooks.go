package infra

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/msaeedsaeedi/perfrun/internal/domain"
)

const DefaultHookInterpreter = "python3"

type HookStage string

const (
	HookSetup    HookStage = "setup"
	HookTeardown HookStage = "teardown"
)

// HookError is a failed setup or teardown hook. It is fatal for the run.
type HookError struct {
	Stage HookStage
	Path  string
	Err   error
}

func (e *HookError) Error() string {
	return fmt.Sprintf("%s hook %s failed: %v", e.Stage, e.Path, e.Err)
}

func (e *HookError) Unwrap() error {
	return e.Err
}

// InterpreterHookRunner runs hook scripts as "<interpreter> <path> [args...]"
// in the run directory with the run environment. The hook string is split on
// whitespace; quoting is not interpreted.
type InterpreterHookRunner struct {
	interpreter string
	log         *slog.Logger
}

func NewInterpreterHookRunner(interpreter string, log *slog.Logger) *InterpreterHookRunner {
	if interpreter == "" {
		interpreter = DefaultHookInterpreter
	}
	return &InterpreterHookRunner{interpreter: interpreter, log: log}
}

func (r *InterpreterHookRunner) RunHook(ctx context.Context, ec *domain.ExecContext, stage HookStage, path string, stdoutWriter, stderrWriter io.Writer) error {
	r.log.Info("running hook", "stage", stage, "path", path, "interpreter", r.interpreter)

	args := strings.Fields(path)
	if len(args) == 0 {
		return &HookError{Stage: stage, Path: path, Err: errors.New("empty hook")}
	}

	cmd := exec.CommandContext(ctx, r.interpreter, args...)
	cmd.Dir = ec.Dir
	cmd.Env = ec.Environ()
	attachOutput(cmd, stdoutWriter, stderrWriter)
	setupProcessGroup(cmd)

	if err := waitIgnoringDrain(cmd.Run()); err != nil {
		return &HookError{Stage: stage, Path: path, Err: err}
	}
	return nil
}
