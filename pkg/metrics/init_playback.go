package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initPlaybackMetrics() {
	r.PlaybackTransitionsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "mergeviz_playback_transitions_total",
			Help: "Total number of switches into a playback mode",
		},
		[]string{"mode"},
	)
	for _, mode := range playbackModes {
		r.PlaybackTransitionsTotal.WithLabelValues(mode)
	}

	r.PlaybackRejectedTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "mergeviz_playback_rejected_total",
			Help: "Total number of user actions rejected by the playback controller",
		},
		[]string{"action"},
	)

	r.PlaybackSpeedSeconds = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "mergeviz_playback_speed_seconds",
			Help: "Delay between automatic steps in seconds",
		},
	)
}

func (r *Registry) initJournalMetrics() {
	r.JournalRecordsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "mergeviz_journal_records_total",
			Help: "Total number of records appended to step journals",
		},
	)

	r.JournalBytesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "mergeviz_journal_bytes_total",
			Help: "Journal payload bytes before and after compression",
		},
		[]string{"kind"},
	)
}
