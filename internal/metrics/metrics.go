package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/msaeedsaeedi/perfrun/internal/domain"
)

const Namespace = "perfrun"

// Recorder collects one run's results in its own registry so they can be
// written as a node_exporter textfile.
type Recorder struct {
	registry *prometheus.Registry

	phaseDuration *prometheus.GaugeVec
	phaseBaseline *prometheus.GaugeVec
	phaseDegraded *prometheus.GaugeVec
	phaseStatus   *prometheus.GaugeVec
	runFailed     *prometheus.GaugeVec
	runTimestamp  *prometheus.GaugeVec
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		phaseDuration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "phase_duration_minutes",
			Help:      "Wall clock duration of a completed phase in minutes",
		}, []string{"test", "phase"}),
		phaseBaseline: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "phase_baseline_minutes",
			Help:      "Duration of the phase in the previous run in minutes",
		}, []string{"test", "phase"}),
		phaseDegraded: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "phase_degraded",
			Help:      "1 if the phase exceeded its policy threshold",
		}, []string{"test", "phase", "policy"}),
		phaseStatus: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "phase_status",
			Help:      "Outcome of the phase, 1 for the observed status",
		}, []string{"test", "phase", "status"}),
		runFailed: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "run_failed",
			Help:      "1 if any phase degraded",
		}, []string{"test"}),
		runTimestamp: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "run_timestamp_seconds",
			Help:      "Unix time the run started",
		}, []string{"test"}),
	}

	r.registry.MustRegister(
		r.phaseDuration,
		r.phaseBaseline,
		r.phaseDegraded,
		r.phaseStatus,
		r.runFailed,
		r.runTimestamp,
	)
	return r
}

func (r *Recorder) Observe(summary domain.RunSummary) {
	test := summary.TestName

	for _, o := range summary.Outcomes {
		r.phaseStatus.WithLabelValues(test, o.Name, string(o.Status)).Set(1)
		if o.Status == domain.StatusCompleted {
			r.phaseDuration.WithLabelValues(test, o.Name).Set(o.Minutes())
		}
	}

	for _, v := range summary.Comparison.Verdicts {
		if v.HasPrevious && v.Previous.IsNumber() {
			r.phaseBaseline.WithLabelValues(test, v.Phase).Set(v.Previous.Minutes)
		}
		if v.Policy == "" {
			continue
		}
		degraded := 0.0
		if v.Kind == domain.VerdictDegraded {
			degraded = 1
		}
		r.phaseDegraded.WithLabelValues(test, v.Phase, v.Policy).Set(degraded)
	}

	failed := 0.0
	if summary.Comparison.Failed {
		failed = 1
	}
	r.runFailed.WithLabelValues(test).Set(failed)
	r.runTimestamp.WithLabelValues(test).Set(float64(summary.StartedAt.UnixNano()) / float64(time.Second))
}

func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// WriteTextfile writes the collected metrics atomically to path.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
