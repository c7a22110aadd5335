package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"github.com/msaeedsaeedi/perfrun/internal/domain"
)

type RawFormatter struct {
	verbosity domain.VerbosityLevel
	out       io.Writer
	stdout    io.Writer
	stderr    io.Writer
}

func NewRawFormatter(verbosity domain.VerbosityLevel) *RawFormatter {
	return newRawFormatter(verbosity, os.Stderr, os.Stdout, os.Stderr)
}

func newRawFormatter(verbosity domain.VerbosityLevel, out, stdout, stderr io.Writer) *RawFormatter {
	return &RawFormatter{
		verbosity: verbosity,
		out:       out,
		stdout:    stdout,
		stderr:    stderr,
	}
}

func (f *RawFormatter) GetOutputWriters() (stdout, stderr io.Writer) {
	if f.verbosity == domain.VerbositySilent {
		return nil, nil
	}
	return f.stdout, f.stderr
}

func (f *RawFormatter) OnStart(phase domain.Phase) {
	fmt.Fprintf(f.out, "[ Phase %s ]\n", phase.Name)
}

func (f *RawFormatter) OnComplete(outcome domain.PhaseOutcome) {
	fmt.Fprintf(f.out, "[ Phase %s completed in %s", outcome.Name, formatDuration(outcome.Duration))

	switch outcome.Status {
	case domain.StatusErrored:
		color.New(color.FgRed).Fprintf(f.out, " - ERRORED OUT: exit code %d", outcome.ExitCode)
	case domain.StatusLaunchFailed:
		color.New(color.FgRed).Fprintf(f.out, " - FAILED TO LAUNCH: %v", outcome.Err)
	default:
		if outcome.ExitCode != 0 {
			color.New(color.FgYellow).Fprintf(f.out, " - EXIT CODE %d", outcome.ExitCode)
		} else {
			color.New(color.FgGreen).Fprint(f.out, " - SUCCESS")
		}
	}
	fmt.Fprintln(f.out, " ]")
}

func (f *RawFormatter) OnFinish(summary domain.RunSummary) {
	for _, v := range summary.Comparison.Degraded() {
		color.New(color.FgRed, color.Bold).Fprintf(f.out, "Performance degradation detected in phase %s!\n", v.Phase)
		fmt.Fprintf(f.out, "Previous time: %.2f min, New time: %.2f min, Limit: %.2f min (%s)\n",
			v.Previous.Minutes, v.Current.Minutes, v.Limit, v.Policy)
	}

	if f.verbosity != domain.VerbositySilent && len(summary.Outcomes) > 0 {
		fmt.Fprint(f.out, RenderSummary(summary))
	}

	switch {
	case summary.Err != nil:
		color.New(color.FgRed, color.Bold).Fprintf(f.out, "RUN FAILED: %v\n", summary.Err)
	case summary.Comparison.Failed:
		color.New(color.FgRed, color.Bold).Fprintf(f.out, "FAIL: %d phase(s) degraded, report written to %s\n",
			len(summary.Comparison.Degraded()), summary.ReportFile)
	default:
		color.New(color.FgGreen, color.Bold).Fprintf(f.out, "PASS: report written to %s\n", summary.ReportFile)
	}
}
