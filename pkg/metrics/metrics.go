package metrics

import (
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultRegistry returns the global metrics registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
	}

	r.initMergeMetrics()
	r.initPlaybackMetrics()
	r.initJournalMetrics()
	r.initSystemMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}

// Handler exposes the registry in the Prometheus text format
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// RecordStep records one call to the engine's step operation
func (r *Registry) RecordStep(progressed bool, comparisons, outputLen, remaining int, duration time.Duration) {
	if !progressed {
		r.StepsTotal.WithLabelValues("noop").Inc()
		return
	}
	r.StepsTotal.WithLabelValues("progress").Inc()
	r.ComparisonsTotal.Add(float64(comparisons))
	r.OutputLength.Set(float64(outputLen))
	r.ElementsRemaining.Set(float64(remaining))
	r.StepDuration.Observe(duration.Seconds())
}

// RecordInit records a successful init or reset of the engine
func (r *Registry) RecordInit(reset bool, remaining int) {
	if reset {
		r.ResetsTotal.Inc()
	}
	r.OutputLength.Set(0)
	r.ElementsRemaining.Set(float64(remaining))
}

// RecordInitFailure records a rejected configuration
func (r *Registry) RecordInitFailure() {
	r.InitFailuresTotal.Inc()
}

// SetEngineState sets the current engine state
func (r *Registry) SetEngineState(state string) {
	for _, s := range engineStates {
		r.EngineState.WithLabelValues(s).Set(0)
	}
	r.EngineState.WithLabelValues(state).Set(1)
}

// RecordPlaybackTransition records a switch into the given playback mode
func (r *Registry) RecordPlaybackTransition(mode string) {
	r.PlaybackTransitionsTotal.WithLabelValues(mode).Inc()
}

// RecordPlaybackRejected records a user action refused by the controller
func (r *Registry) RecordPlaybackRejected(action string) {
	r.PlaybackRejectedTotal.WithLabelValues(action).Inc()
}

// SetPlaybackSpeed records the delay between automatic steps
func (r *Registry) SetPlaybackSpeed(speed time.Duration) {
	r.PlaybackSpeedSeconds.Set(speed.Seconds())
}

// RecordJournalWrite records one appended journal record
func (r *Registry) RecordJournalWrite(uncompressed, compressed int) {
	r.JournalRecordsTotal.Inc()
	r.JournalBytesTotal.WithLabelValues("uncompressed").Add(float64(uncompressed))
	r.JournalBytesTotal.WithLabelValues("compressed").Add(float64(compressed))
}

// UpdateSystemMetrics refreshes process gauges
func (r *Registry) UpdateSystemMetrics(start time.Time) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	r.UptimeSeconds.Set(time.Since(start).Seconds())
	r.GoRoutines.Set(float64(runtime.NumGoroutine()))
	r.MemoryAllocBytes.Set(float64(m.Alloc))
}
