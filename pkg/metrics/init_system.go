package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initSystemMetrics() {
	r.UptimeSeconds = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "mergeviz_uptime_seconds",
			Help: "Time since the process started in seconds",
		},
	)

	r.GoRoutines = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "mergeviz_goroutines",
			Help: "Number of goroutines",
		},
	)

	r.MemoryAllocBytes = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "mergeviz_memory_alloc_bytes",
			Help: "Bytes of allocated heap objects",
		},
	)
}
