package ui

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msaeedsaeedi/perfrun/internal/domain"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

func testConfig() *domain.TestConfig {
	return &domain.TestConfig{
		TestName:   "nightly",
		ReportFile: "report.json",
		Directory:  "/work",
		Phases: []domain.Phase{
			{Name: "train", Command: "./zingg.sh --phase train --properties-file conf.json"},
			{Name: "match", Command: "./zingg.sh --phase match --properties-file conf.json"},
		},
	}
}

func degradedSummary() domain.RunSummary {
	var prev domain.Results
	prev.Set("train", domain.MinutesValue(20))
	prev.Set("match", domain.MinutesValue(4))

	outcomes := []domain.PhaseOutcome{
		{Name: "train", Status: domain.StatusCompleted, Duration: 25 * time.Minute},
		{Name: "match", Status: domain.StatusCompleted, Duration: 6 * time.Minute},
	}
	sel, _ := domain.NewSelector(domain.PolicySettings{})

	return domain.RunSummary{
		TestName:   "nightly",
		RunID:      "run-1",
		StartedAt:  time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC),
		ReportFile: "/work/report.json",
		Outcomes:   outcomes,
		Comparison: domain.Compare(prev, outcomes, sel),
	}
}

func TestRawFormatter_PhaseLines(t *testing.T) {
	var out bytes.Buffer
	f := newRawFormatter(domain.VerbosityNormal, &out, &bytes.Buffer{}, &bytes.Buffer{})

	f.OnStart(domain.Phase{Name: "train"})
	f.OnComplete(domain.PhaseOutcome{Name: "train", Status: domain.StatusCompleted, Duration: 90 * time.Second})
	f.OnComplete(domain.PhaseOutcome{Name: "match", Status: domain.StatusErrored, ExitCode: 1})
	f.OnComplete(domain.PhaseOutcome{Name: "link", Status: domain.StatusLaunchFailed, ExitCode: -1, Err: errors.New("no such dir")})
	f.OnComplete(domain.PhaseOutcome{Name: "dedupe", Status: domain.StatusCompleted, ExitCode: 2})

	got := out.String()
	assert.Contains(t, got, "[ Phase train ]")
	assert.Contains(t, got, "[ Phase train completed in 1m30s - SUCCESS ]")
	assert.Contains(t, got, "ERRORED OUT: exit code 1")
	assert.Contains(t, got, "FAILED TO LAUNCH: no such dir")
	assert.Contains(t, got, "EXIT CODE 2")
}

func TestRawFormatter_SilentHasNoWriters(t *testing.T) {
	f := newRawFormatter(domain.VerbositySilent, &bytes.Buffer{}, &bytes.Buffer{}, &bytes.Buffer{})
	stdout, stderr := f.GetOutputWriters()
	assert.Nil(t, stdout)
	assert.Nil(t, stderr)

	f = newRawFormatter(domain.VerbosityNormal, &bytes.Buffer{}, &bytes.Buffer{}, &bytes.Buffer{})
	stdout, stderr = f.GetOutputWriters()
	assert.NotNil(t, stdout)
	assert.NotNil(t, stderr)
}

func TestRawFormatter_OnFinishReportsDegradation(t *testing.T) {
	var out bytes.Buffer
	f := newRawFormatter(domain.VerbosityNormal, &out, &bytes.Buffer{}, &bytes.Buffer{})

	f.OnFinish(degradedSummary())

	got := out.String()
	assert.Contains(t, got, "Performance degradation detected in phase match!")
	assert.Contains(t, got, "Previous time: 4.00 min, New time: 6.00 min")
	assert.NotContains(t, got, "degradation detected in phase train")
	assert.Contains(t, got, "FAIL: 1 phase(s) degraded")
}

func TestRawFormatter_OnFinishPass(t *testing.T) {
	var out bytes.Buffer
	f := newRawFormatter(domain.VerbositySilent, &out, nil, nil)

	f.OnFinish(domain.RunSummary{TestName: "nightly", ReportFile: "/work/report.json"})

	assert.Equal(t, "PASS: report written to /work/report.json\n", out.String())
}

func TestRenderSummary(t *testing.T) {
	got := RenderSummary(degradedSummary())

	assert.Contains(t, got, "nightly (2024-05-01 10:30:00)")
	assert.Contains(t, got, "DEGRADED")
	assert.Contains(t, got, "window")
	assert.Contains(t, got, "percentage")
	assert.Contains(t, got, "30.00") // train window limit
	assert.Contains(t, got, "4.80")  // match percentage limit
	assert.Contains(t, got, "FAIL")
}

func TestRenderSummary_SkippedPhaseWithoutBaseline(t *testing.T) {
	outcomes := []domain.PhaseOutcome{{Name: "train", Status: domain.StatusErrored, ExitCode: 1}}
	sel, _ := domain.NewSelector(domain.PolicySettings{})
	got := RenderSummary(domain.RunSummary{
		TestName:   "nightly",
		Outcomes:   outcomes,
		Comparison: domain.Compare(domain.Results{}, outcomes, sel),
	})

	assert.Contains(t, got, domain.SentinelErrored)
	assert.Contains(t, got, "SKIPPED")
	assert.NotContains(t, got, "0.00")
}

func TestRenderPlan(t *testing.T) {
	cfg := testConfig()
	cfg.Setup = "setup.py"
	sel, err := domain.NewSelector(domain.PolicySettings{})
	require.NoError(t, err)

	got := RenderPlan(cfg, sel)

	assert.Contains(t, got, "Test:      nightly")
	assert.Contains(t, got, "Setup:     setup.py")
	assert.NotContains(t, got, "Teardown:")
	assert.Contains(t, got, "window +10.00 min")
	assert.Contains(t, got, "percentage x1.20")
	assert.Contains(t, got, "--phase match")
}

func TestJSONFormatter_OnFinish(t *testing.T) {
	var out bytes.Buffer
	f := NewJSONFormatter(testConfig())
	f.out = &out

	f.OnFinish(degradedSummary())

	var doc map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &doc))
	assert.Equal(t, "nightly", doc["test"])
	assert.Equal(t, false, doc["passed"])
	assert.Equal(t, []any{"match"}, doc["degraded"])

	phases := doc["phases"].([]any)
	require.Len(t, phases, 2)
	train := phases[0].(map[string]any)
	assert.Equal(t, "train", train["name"])
	assert.Equal(t, 25.0, train["result"])
	assert.Equal(t, "pass", train["verdict"])
	assert.Equal(t, "window", train["policy"])
	assert.Equal(t, 30.0, train["limit_minutes"])
}

func TestBuildRunJSON_SentinelAndError(t *testing.T) {
	doc := BuildRunJSON(domain.RunSummary{
		TestName: "nightly",
		Outcomes: []domain.PhaseOutcome{
			{Name: "train", Status: domain.StatusLaunchFailed, ExitCode: -1, Err: errors.New("boom")},
		},
		Err: errors.New("teardown failed"),
	})

	require.Len(t, doc.Phases, 1)
	assert.Equal(t, domain.SentinelValue(domain.SentinelLaunchFailed), doc.Phases[0].Result)
	assert.Equal(t, "boom", doc.Phases[0].Error)
	assert.Nil(t, doc.Phases[0].Limit)
	assert.False(t, doc.Passed)
	assert.Equal(t, "teardown failed", doc.Error)
	assert.Empty(t, doc.Degraded)
}
