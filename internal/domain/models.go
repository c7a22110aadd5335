package domain

import (
	"errors"
	"math"
	"time"
)

type VerbosityLevel string
type OutputFormat string

const (
	VerbositySilent  VerbosityLevel = "silent"
	VerbosityNormal  VerbosityLevel = "normal"
	VerbosityVerbose VerbosityLevel = "verbose"
)

const (
	FormatTUI  OutputFormat = "tui"
	FormatJSON OutputFormat = "json"
	FormatRaw  OutputFormat = "raw"
)

// ErrDegradation is returned by a run whose comparison found at least one
// degraded phase. Results are already persisted when it is returned.
var ErrDegradation = errors.New("performance degradation detected")

// RunOptions is everything the command line contributes to a run.
type RunOptions struct {
	ConfigPath  string
	Verbosity   VerbosityLevel
	Format      OutputFormat
	MetricsFile string
	DryRun      bool
	Policy      PolicySettings
}

// Phase is one named shell command whose duration is measured.
type Phase struct {
	Name    string
	Command string
}

// TestConfig is the loaded test description. Commands in Phases are already
// substituted and Directory is absolute.
type TestConfig struct {
	TestName     string
	Script       string
	PropertyFile string
	ReportFile   string
	Directory    string
	Setup        string
	Teardown     string
	Phases       []Phase
	Policy       PolicySettings
	Env          map[string]string
}

type PhaseStatus string

const (
	StatusCompleted    PhaseStatus = "completed"
	StatusErrored      PhaseStatus = "errored"
	StatusLaunchFailed PhaseStatus = "launch_failed"
)

// ErroredExitCode marks a phase as errored out instead of a timing sample.
const ErroredExitCode = 1

type PhaseOutcome struct {
	Name       string
	Status     PhaseStatus
	ExitCode   int
	Duration   time.Duration
	StartedAt  time.Time
	FinishedAt time.Time
	Err        error
}

// Minutes is the outcome duration in minutes rounded to two decimals.
func (o PhaseOutcome) Minutes() float64 {
	return ToMinutes(o.Duration)
}

// ToMinutes converts d to minutes rounded to two decimal places.
func ToMinutes(d time.Duration) float64 {
	return math.Round(d.Seconds()/60*100) / 100
}

// RunSummary is handed to result handlers once a run is over.
type RunSummary struct {
	TestName   string
	RunID      string
	StartedAt  time.Time
	ReportFile string
	Outcomes   []PhaseOutcome
	Comparison Comparison
	Err        error
}

// Passed reports whether the run finished without degradation or error.
func (s RunSummary) Passed() bool {
	return s.Err == nil && !s.Comparison.Failed
}

// Result is the error the run exits with.
func (s RunSummary) Result() error {
	switch {
	case s.Comparison.Failed && s.Err != nil:
		return errors.Join(ErrDegradation, s.Err)
	case s.Comparison.Failed:
		return ErrDegradation
	default:
		return s.Err
	}
}
