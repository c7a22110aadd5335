package ui

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/msaeedsaeedi/perfrun/internal/domain"
)

// formatDuration formats a duration for display
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.Truncate(time.Second).String()
}

func statusText(o domain.PhaseOutcome) string {
	switch o.Status {
	case domain.StatusCompleted:
		if o.ExitCode != 0 {
			return fmt.Sprintf("exit %d", o.ExitCode)
		}
		return "ok"
	case domain.StatusErrored:
		return "errored"
	case domain.StatusLaunchFailed:
		return "launch failed"
	default:
		return string(o.Status)
	}
}

func verdictText(kind domain.VerdictKind) string {
	switch kind {
	case domain.VerdictPass:
		return "PASS"
	case domain.VerdictDegraded:
		return "DEGRADED"
	case domain.VerdictNew:
		return "NEW"
	case domain.VerdictNoBaseline:
		return "NO BASELINE"
	case domain.VerdictSkipped:
		return "SKIPPED"
	default:
		return "-"
	}
}

func valueText(v domain.ResultValue, present bool) string {
	if !present {
		return "-"
	}
	if v.IsNumber() {
		return fmt.Sprintf("%.2f", v.Minutes)
	}
	return v.Sentinel
}

// RenderSummary renders one row per phase with its baseline, new time and
// verdict.
func RenderSummary(summary domain.RunSummary) string {
	var buf bytes.Buffer

	t := table.NewWriter()
	t.SetOutputMirror(&buf)
	t.SetTitle(fmt.Sprintf("%s (%s)", summary.TestName, summary.StartedAt.Format("2006-01-02 15:04:05")))
	t.AppendHeader(table.Row{"Phase", "Status", "Duration", "Previous (min)", "Current (min)", "Limit (min)", "Policy", "Verdict"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Duration", Align: text.AlignRight},
		{Name: "Previous (min)", Align: text.AlignRight},
		{Name: "Current (min)", Align: text.AlignRight},
		{Name: "Limit (min)", Align: text.AlignRight},
	})

	for _, o := range summary.Outcomes {
		v, _ := summary.Comparison.Verdict(o.Name)

		limit := "-"
		if v.Policy != "" {
			limit = fmt.Sprintf("%.2f", v.Limit)
		}
		policy := v.Policy
		if policy == "" {
			policy = "-"
		}

		t.AppendRow(table.Row{
			o.Name,
			statusText(o),
			formatDuration(o.Duration),
			valueText(v.Previous, v.HasPrevious),
			domain.ResultFor(o).String(),
			limit,
			policy,
			verdictText(v.Kind),
		})
	}

	overall := "PASS"
	switch {
	case summary.Err != nil:
		overall = "ERROR"
	case summary.Comparison.Failed:
		overall = "FAIL"
	}
	t.AppendFooter(table.Row{"TOTAL", "", "", "", "", "", "", overall})

	t.SetStyle(table.StyleLight)
	t.Render()
	return buf.String()
}

// RenderPlan renders what a run would execute without running it.
func RenderPlan(cfg *domain.TestConfig, selector *domain.Selector) string {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Test:      %s\n", cfg.TestName)
	fmt.Fprintf(&buf, "Directory: %s\n", cfg.Directory)
	fmt.Fprintf(&buf, "Report:    %s\n", cfg.ReportFile)
	fmt.Fprintf(&buf, "Policy:    %s\n", selector.Mode())
	if cfg.Setup != "" {
		fmt.Fprintf(&buf, "Setup:     %s\n", cfg.Setup)
	}
	if cfg.Teardown != "" {
		fmt.Fprintf(&buf, "Teardown:  %s\n", cfg.Teardown)
	}

	t := table.NewWriter()
	t.SetOutputMirror(&buf)
	t.AppendHeader(table.Row{"#", "Phase", "Policy", "Command"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Command", WidthMax: 120, WidthMaxEnforcer: text.WrapSoft},
	})
	for i, p := range cfg.Phases {
		t.AppendRow(table.Row{i + 1, p.Name, selector.Describe(p.Name), p.Command})
	}
	t.SetStyle(table.StyleLight)
	t.Render()
	return buf.String()
}
