package app

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msaeedsaeedi/perfrun/internal/domain"
)

type cancellingRunner struct {
	cancel context.CancelFunc
	after  string
	calls  []string
}

func (r *cancellingRunner) Run(ctx context.Context, ec *domain.ExecContext, phase domain.Phase, stdout, stderr io.Writer) domain.PhaseOutcome {
	r.calls = append(r.calls, phase.Name)
	if phase.Name == r.after {
		r.cancel()
		return domain.PhaseOutcome{Name: phase.Name, Status: domain.StatusErrored, ExitCode: -1, Err: ctx.Err()}
	}
	return domain.PhaseOutcome{Name: phase.Name, Status: domain.StatusCompleted, Duration: time.Second}
}

func executorConfig() *domain.TestConfig {
	return &domain.TestConfig{
		TestName: "nightly",
		Phases: []domain.Phase{
			{Name: "findTrainingData", Command: "a"},
			{Name: "train", Command: "b"},
			{Name: "match", Command: "c"},
		},
	}
}

func TestSequentialExecutor_ContinuesAfterFailedPhase(t *testing.T) {
	runner := &fakeRunner{outcomes: map[string]domain.PhaseOutcome{
		"findTrainingData": {Status: domain.StatusLaunchFailed, ExitCode: -1},
		"train":            {Status: domain.StatusErrored, ExitCode: 1},
	}}
	handler := &recordingHandler{}
	ec := domain.NewExecContext(t.TempDir(), testClock, "", nil)

	outcomes, err := NewSequentialExecutor(runner, discardLogger()).Execute(context.Background(), executorConfig(), ec, handler)
	require.NoError(t, err)

	require.Len(t, outcomes, 3)
	assert.Equal(t, domain.StatusLaunchFailed, outcomes[0].Status)
	assert.Equal(t, domain.StatusErrored, outcomes[1].Status)
	assert.Equal(t, domain.StatusCompleted, outcomes[2].Status)
	assert.Equal(t, []string{"findTrainingData", "train", "match"}, handler.started)
	assert.Len(t, handler.completed, 3)
}

func TestSequentialExecutor_StopsOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	runner := &cancellingRunner{cancel: cancel, after: "train"}
	ec := domain.NewExecContext(t.TempDir(), testClock, "", nil)

	outcomes, err := NewSequentialExecutor(runner, discardLogger()).Execute(ctx, executorConfig(), ec, &recordingHandler{})
	require.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, []string{"findTrainingData", "train"}, runner.calls)
	assert.Len(t, outcomes, 2)
}
