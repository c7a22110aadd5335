package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msaeedsaeedi/perfrun/internal/domain"
)

func sampleSummary() domain.RunSummary {
	var prev domain.Results
	prev.Set("train", domain.MinutesValue(50))
	prev.Set("match", domain.MinutesValue(2))

	outcomes := []domain.PhaseOutcome{
		{Name: "train", Status: domain.StatusCompleted, Duration: 65 * time.Minute},
		{Name: "match", Status: domain.StatusErrored, ExitCode: 1},
		{Name: "link", Status: domain.StatusCompleted, Duration: 90 * time.Second},
	}
	sel, _ := domain.NewSelector(domain.PolicySettings{})

	return domain.RunSummary{
		TestName:   "febrl",
		StartedAt:  time.Unix(1700000000, 0),
		Outcomes:   outcomes,
		Comparison: domain.Compare(prev, outcomes, sel),
	}
}

func TestRecorder_Observe(t *testing.T) {
	r := NewRecorder()
	r.Observe(sampleSummary())

	assert.Equal(t, 65.0, testutil.ToFloat64(r.phaseDuration.WithLabelValues("febrl", "train")))
	assert.Equal(t, 1.5, testutil.ToFloat64(r.phaseDuration.WithLabelValues("febrl", "link")))
	assert.Equal(t, 50.0, testutil.ToFloat64(r.phaseBaseline.WithLabelValues("febrl", "train")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.phaseDegraded.WithLabelValues("febrl", "train", "window")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.phaseStatus.WithLabelValues("febrl", "match", "errored")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.runFailed.WithLabelValues("febrl")))
	assert.Equal(t, 1700000000.0, testutil.ToFloat64(r.runTimestamp.WithLabelValues("febrl")))

	// errored and new phases carry no degradation sample
	assert.Equal(t, 1, testutil.CollectAndCount(r.phaseDegraded))

	count, err := testutil.GatherAndCount(r.Registry(), "perfrun_phase_status")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestRecorder_WriteTextfile(t *testing.T) {
	r := NewRecorder()
	r.Observe(sampleSummary())

	path := filepath.Join(t.TempDir(), "perfrun.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `perfrun_phase_duration_minutes{phase="train",test="febrl"} 65`)
	assert.Contains(t, string(data), `perfrun_run_failed{test="febrl"} 1`)
}
