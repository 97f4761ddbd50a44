package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metrics for the application
type Registry struct {
	// Merge engine metrics
	StepsTotal        *prometheus.CounterVec
	ComparisonsTotal  prometheus.Counter
	OutputLength      prometheus.Gauge
	ElementsRemaining prometheus.Gauge
	EngineState       *prometheus.GaugeVec
	ResetsTotal       prometheus.Counter
	InitFailuresTotal prometheus.Counter
	StepDuration      prometheus.Histogram

	// Playback metrics
	PlaybackTransitionsTotal *prometheus.CounterVec
	PlaybackRejectedTotal    *prometheus.CounterVec
	PlaybackSpeedSeconds     prometheus.Gauge

	// Journal metrics
	JournalRecordsTotal prometheus.Counter
	JournalBytesTotal   *prometheus.CounterVec

	// System metrics
	UptimeSeconds    prometheus.Gauge
	GoRoutines       prometheus.Gauge
	MemoryAllocBytes prometheus.Gauge

	registry *prometheus.Registry
}

var (
	// Global registry instance
	defaultRegistry *Registry
	once            sync.Once
)

// Engine states as exported in the state label
var engineStates = []string{"READY", "RUNNING", "EXHAUSTED"}

// Playback modes as exported in the mode label
var playbackModes = []string{"auto", "manual"}
