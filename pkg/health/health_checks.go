package health

import (
	"runtime"

	"github.com/dd0wney/kway-mergeviz/pkg/playback"
)

// PlaybackCheck reports the current merge session. It is always healthy; the
// details show where the merge is.
func PlaybackCheck(snapshot func() playback.Snapshot) CheckFunc {
	return func() Check {
		snap := snapshot()
		return Check{
			Name:    "playback",
			Status:  StatusHealthy,
			Message: snap.Engine.State.String(),
			Details: map[string]any{
				"session":     snap.Engine.Session,
				"mode":        snap.Mode.String(),
				"speed":       snap.Speed.String(),
				"seed":        snap.Engine.Config.Seed,
				"output_len":  len(snap.Engine.Output),
				"comparisons": snap.Engine.Comparisons,
			},
		}
	}
}

// EventBusCheck is degraded once the bus has dropped events for a slow
// subscriber.
func EventBusCheck(dropped func() uint64) CheckFunc {
	return func() Check {
		n := dropped()
		check := Check{
			Name:    "event_bus",
			Status:  StatusHealthy,
			Details: map[string]any{"dropped": n},
		}
		if n > 0 {
			check.Status = StatusDegraded
			check.Message = "Subscribers are missing events"
		}
		return check
	}
}

// JournalCheck is unhealthy once the journal has failed a write; no further
// steps are recorded after that.
func JournalCheck(writeErr func() error) CheckFunc {
	return func() Check {
		check := Check{
			Name:    "journal",
			Status:  StatusHealthy,
			Message: "Recording",
		}
		if err := writeErr(); err != nil {
			check.Status = StatusUnhealthy
			check.Message = err.Error()
		}
		return check
	}
}

// RuntimeCheck reports goroutine and heap figures.
func RuntimeCheck() CheckFunc {
	return func() Check {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)
		return Check{
			Name:   "runtime",
			Status: StatusHealthy,
			Details: map[string]any{
				"goroutines":  runtime.NumGoroutine(),
				"alloc_bytes": m.Alloc,
				"sys_bytes":   m.Sys,
			},
		}
	}
}
