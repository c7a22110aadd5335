package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/msaeedsaeedi/perfrun/internal/domain"
)

type PhaseJSON struct {
	Name       string             `json:"name"`
	Status     domain.PhaseStatus `json:"status"`
	ExitCode   int                `json:"exit_code"`
	DurationMs float64            `json:"duration_ms"`
	Result     domain.ResultValue `json:"result"`
	Verdict    domain.VerdictKind `json:"verdict,omitempty"`
	Policy     string             `json:"policy,omitempty"`
	Previous   *float64           `json:"previous_minutes,omitempty"`
	Limit      *float64           `json:"limit_minutes,omitempty"`
	Error      string             `json:"error,omitempty"`
}

type RunJSON struct {
	Test       string      `json:"test"`
	RunID      string      `json:"run_id"`
	StartedAt  string      `json:"started_at"`
	ReportFile string      `json:"report_file"`
	Passed     bool        `json:"passed"`
	Degraded   []string    `json:"degraded"`
	Phases     []PhaseJSON `json:"phases"`
	Error      string      `json:"error,omitempty"`
}

// JSONFormatter prints a single document when the run is over. Phase output
// goes to stderr so stdout stays machine readable.
type JSONFormatter struct {
	config *domain.TestConfig
	out    io.Writer
	logs   io.Writer
	mu     sync.Mutex
}

func NewJSONFormatter(cfg *domain.TestConfig) *JSONFormatter {
	return &JSONFormatter{
		config: cfg,
		out:    os.Stdout,
		logs:   os.Stderr,
	}
}

func (f *JSONFormatter) GetOutputWriters() (stdout, stderr io.Writer) {
	return f.logs, f.logs
}

func (f *JSONFormatter) OnStart(phase domain.Phase) {
	// JSON formatter doesn't output progress
}

func (f *JSONFormatter) OnComplete(outcome domain.PhaseOutcome) {}

func (f *JSONFormatter) OnFinish(summary domain.RunSummary) {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc := BuildRunJSON(summary)

	encoder := json.NewEncoder(f.out)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(doc); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON output: %v\n", err)
	}
}

func BuildRunJSON(summary domain.RunSummary) RunJSON {
	doc := RunJSON{
		Test:       summary.TestName,
		RunID:      summary.RunID,
		StartedAt:  summary.StartedAt.Format("2006-01-02T15:04:05Z07:00"),
		ReportFile: summary.ReportFile,
		Passed:     summary.Passed(),
		Degraded:   make([]string, 0),
		Phases:     make([]PhaseJSON, 0, len(summary.Outcomes)),
	}
	if summary.Err != nil {
		doc.Error = summary.Err.Error()
	}

	for _, o := range summary.Outcomes {
		p := PhaseJSON{
			Name:       o.Name,
			Status:     o.Status,
			ExitCode:   o.ExitCode,
			DurationMs: float64(o.Duration.Milliseconds()),
			Result:     domain.ResultFor(o),
		}
		if o.Err != nil {
			p.Error = o.Err.Error()
		}
		if v, ok := summary.Comparison.Verdict(o.Name); ok {
			p.Verdict = v.Kind
			p.Policy = v.Policy
			if v.Policy != "" {
				prev, limit := v.Previous.Minutes, v.Limit
				p.Previous = &prev
				p.Limit = &limit
			}
			if v.Kind == domain.VerdictDegraded {
				doc.Degraded = append(doc.Degraded, o.Name)
			}
		}
		doc.Phases = append(doc.Phases, p)
	}
	return doc
}
