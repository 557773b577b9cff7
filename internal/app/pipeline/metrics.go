package pipeline

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes run counters to Prometheus. A nil *Metrics records nothing.
type Metrics struct {
	runs          *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	inFlight      prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg when it is non-nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "uploadai",
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Finished pipeline runs by source kind and outcome.",
		}, []string{"source", "outcome"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "uploadai",
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Time spent in each pipeline stage.",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"stage"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "uploadai",
			Subsystem: "pipeline",
			Name:      "runs_in_flight",
			Help:      "Runs that have not reached a terminal stage.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.runs, m.stageDuration, m.inFlight)
	}
	return m
}

func (m *Metrics) runStarted() {
	if m == nil {
		return
	}
	m.inFlight.Inc()
}

func (m *Metrics) observe(t transition) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(string(t.From.Phase)).Observe(t.Elapsed.Seconds())
	if !t.To.IsTerminal() {
		return
	}
	m.inFlight.Dec()
	m.runs.WithLabelValues(sourceLabel(t.SourceKind), outcomeLabel(t)).Inc()
}

func outcomeLabel(t transition) string {
	if t.To.Phase == PhaseSuccess {
		return "success"
	}
	if t.Error != nil && errors.Is(t.Error.Err, ErrCancelled) {
		return "cancelled"
	}
	return "failed_" + string(t.To.FailedAt)
}
