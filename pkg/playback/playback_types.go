package playback

import (
	"errors"
	"time"

	"github.com/dd0wney/kway-mergeviz/pkg/merge"
	"github.com/dd0wney/kway-mergeviz/pkg/validation"
)

const (
	// DefaultSpeed is the delay between automatic steps.
	DefaultSpeed = time.Second
	// MinSpeed and MaxSpeed bound the delay between automatic steps.
	MinSpeed = 10 * time.Millisecond
	MaxSpeed = 10 * time.Second
	// SpeedStep is the increment used by Faster and Slower.
	SpeedStep = 100 * time.Millisecond

	// Topic is the event bus topic carrying controller events.
	Topic = "playback"
)

var (
	// ErrAutoMode is returned by a manual step while automatic playback owns
	// stepping.
	ErrAutoMode = errors.New("manual step is disabled during automatic playback")
	// ErrAlreadyPlaying is returned by Play while playing.
	ErrAlreadyPlaying = errors.New("playback already running")
	// ErrFinished is returned by Play when every stream is exhausted.
	ErrFinished = errors.New("merge is complete; reset to play again")
)

// Engine is the part of merge.Engine the controller drives.
type Engine interface {
	Step() bool
	Done() bool
	Reset()
	ResetWithSeed(seed int64)
	Snapshot() merge.Snapshot
}

// Mode is the playback mode.
type Mode int

const (
	// Manual means paused: the user steps by hand.
	Manual Mode = iota
	// Auto means a timer owns stepping.
	Auto
)

// String returns the mode name used in logs and metrics.
func (m Mode) String() string {
	if m == Auto {
		return "auto"
	}
	return "manual"
}

// EventKind identifies what changed.
type EventKind int

const (
	Stepped EventKind = iota
	Played
	Paused
	Finished
	ResetDone
	SpeedChanged
)

var eventNames = map[EventKind]string{
	Stepped:      "stepped",
	Played:       "played",
	Paused:       "paused",
	Finished:     "finished",
	ResetDone:    "reset",
	SpeedChanged: "speed",
}

// String returns the event name.
func (k EventKind) String() string {
	if name, ok := eventNames[k]; ok {
		return name
	}
	return "unknown"
}

// Event is published on every controller state change.
type Event struct {
	Kind     EventKind
	Mode     Mode
	Speed    time.Duration
	Snapshot merge.Snapshot
}

// Timer is a pending deferred call.
type Timer interface {
	// Stop prevents the call from running if it has not started.
	Stop() bool
}

// Scheduler runs f once after d.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// RealScheduler schedules with time.AfterFunc.
type RealScheduler struct{}

// AfterFunc implements Scheduler.
func (RealScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// ClampSpeed limits d to [MinSpeed, MaxSpeed].
func ClampSpeed(d time.Duration) time.Duration {
	return validation.ClampDuration(d, MinSpeed, MaxSpeed)
}

// Snapshot is the controller's state together with the engine's.
type Snapshot struct {
	Mode   Mode
	Speed  time.Duration
	Engine merge.Snapshot
}
