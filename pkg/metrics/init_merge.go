package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initMergeMetrics() {
	r.StepsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "mergeviz_steps_total",
			Help: "Total number of step calls by result (progress or noop)",
		},
		[]string{"result"},
	)

	r.ComparisonsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "mergeviz_comparisons_total",
			Help: "Total number of pairwise comparisons performed by the linear head scan",
		},
	)

	r.OutputLength = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "mergeviz_output_length",
			Help: "Number of elements in the merged output of the current session",
		},
	)

	r.ElementsRemaining = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "mergeviz_elements_remaining",
			Help: "Number of unconsumed elements across all streams",
		},
	)

	r.EngineState = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "mergeviz_engine_state",
			Help: "Current engine state (1 = active)",
		},
		[]string{"state"},
	)

	r.ResetsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "mergeviz_resets_total",
			Help: "Total number of engine resets",
		},
	)

	r.InitFailuresTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "mergeviz_init_failures_total",
			Help: "Total number of rejected engine configurations",
		},
	)

	r.StepDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mergeviz_step_duration_seconds",
			Help:    "Duration of progressing step calls in seconds",
			Buckets: []float64{0.000001, 0.00001, 0.0001, 0.001, 0.01},
		},
	)
}
