package infra

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"github.com/msaeedsaeedi/perfrun/internal/domain"
)

const defaultShell = "sh"

// outputDrainDelay bounds how long Wait keeps reading a pipe after the shell
// exited. Background children that inherited the pipe would otherwise hold
// the phase open for their whole lifetime.
const outputDrainDelay = 500 * time.Millisecond

type CommandRunner struct {
	shell string
	log   *slog.Logger
}

func NewCommandRunner(log *slog.Logger) *CommandRunner {
	return &CommandRunner{
		shell: defaultShell,
		log:   log,
	}
}

// Run executes phase.Command through the shell and blocks until it exits.
func (r *CommandRunner) Run(ctx context.Context, ec *domain.ExecContext, phase domain.Phase, stdoutWriter, stderrWriter io.Writer) domain.PhaseOutcome {
	outcome := domain.PhaseOutcome{
		Name:      phase.Name,
		StartedAt: time.Now(),
	}

	cmd := exec.CommandContext(ctx, r.shell, "-c", phase.Command)
	cmd.Dir = ec.Dir
	cmd.Env = ec.Environ()
	attachOutput(cmd, stdoutWriter, stderrWriter)
	setupProcessGroup(cmd)

	err := waitIgnoringDrain(cmd.Run())
	outcome.FinishedAt = time.Now()
	outcome.Duration = outcome.FinishedAt.Sub(outcome.StartedAt)

	if err == nil {
		outcome.Status = domain.StatusCompleted
		return outcome
	}

	if ctx.Err() != nil {
		outcome.Status = domain.StatusErrored
		outcome.ExitCode = -1
		outcome.Err = ctx.Err()
		return outcome
	}

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		r.log.Error("phase failed to launch", "phase", phase.Name, "error", err)
		outcome.Status = domain.StatusLaunchFailed
		outcome.ExitCode = -1
		outcome.Err = err
		return outcome
	}

	outcome.ExitCode = exitErr.ExitCode()
	outcome.Err = err
	if outcome.ExitCode == domain.ErroredExitCode {
		outcome.Status = domain.StatusErrored
		return outcome
	}

	// Anything but 1 still counts as a timing sample.
	r.log.Warn("phase exited non-zero, keeping its duration", "phase", phase.Name, "exit_code", outcome.ExitCode)
	outcome.Status = domain.StatusCompleted
	return outcome
}

// attachOutput wires the writers to cmd. A nil writer stays nil so the child
// gets /dev/null instead of a pipe. Writers that are not files get a pipe, and
// WaitDelay keeps a lingering grandchild from stretching the measurement.
func attachOutput(cmd *exec.Cmd, stdout, stderr io.Writer) {
	if stdout != nil {
		cmd.Stdout = stdout
	}
	if stderr != nil {
		cmd.Stderr = stderr
	}
	if needsPipe(stdout) || needsPipe(stderr) {
		cmd.WaitDelay = outputDrainDelay
	}
}

func needsPipe(w io.Writer) bool {
	if w == nil {
		return false
	}
	_, isFile := w.(*os.File)
	return !isFile
}

// waitIgnoringDrain treats a process that exited cleanly but left its output
// pipes open as a success.
func waitIgnoringDrain(err error) error {
	if errors.Is(err, exec.ErrWaitDelay) {
		return nil
	}
	return err
}
