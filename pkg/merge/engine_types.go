package merge

import (
	"errors"

	"github.com/dd0wney/kway-mergeviz/pkg/logging"
	"github.com/dd0wney/kway-mergeviz/pkg/metrics"
	"github.com/dd0wney/kway-mergeviz/pkg/streams"
)

// ErrInvalidStream is returned when caller-supplied stream data is not
// strictly increasing.
var ErrInvalidStream = errors.New("stream is not strictly increasing")

// State is the lifecycle state of an Engine.
type State int

const (
	// Ready is the state after init or reset, before any step.
	Ready State = iota
	// Running means at least one step has made progress.
	Running
	// Exhausted is terminal: a step found no live head. Only a reset leaves it.
	Exhausted
)

// String returns the state name used in logs, metrics and snapshots.
func (s State) String() string {
	switch s {
	case Ready:
		return "READY"
	case Running:
		return "RUNNING"
	case Exhausted:
		return "EXHAUSTED"
	default:
		return "UNKNOWN"
	}
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Config selects the generated input of a merge session.
type Config struct {
	Seed         int64 `json:"seed" yaml:"seed"`
	Streams      int   `json:"streams" yaml:"streams"`
	StreamLength int   `json:"stream_length" yaml:"stream_length"`
}

// StepRecord describes one progressing step.
type StepRecord struct {
	Seq         int `json:"seq" yaml:"seq"`                 // 1-based index of the step since reset
	StreamID    int `json:"stream" yaml:"stream"`           // stream the value was taken from
	Value       int `json:"value" yaml:"value"`             // value appended to the output
	Live        int `json:"live" yaml:"live"`               // live streams scanned by the step
	Delta       int `json:"delta" yaml:"delta"`             // comparisons added by the step
	Comparisons int `json:"comparisons" yaml:"comparisons"` // running comparison count after the step
}

// Snapshot is an immutable copy of the engine's observable state.
type Snapshot struct {
	Session     string           `json:"session" yaml:"session"`
	Config      Config           `json:"config" yaml:"config"`
	Generated   bool             `json:"generated" yaml:"generated"`
	Streams     []streams.Stream `json:"streams" yaml:"streams"`
	Output      []int            `json:"output" yaml:"output"`
	Comparisons int              `json:"comparisons" yaml:"comparisons"`
	State       State            `json:"state" yaml:"state"`
	Last        *StepRecord      `json:"last,omitempty" yaml:"last,omitempty"`
}

// Done reports whether every stream in the snapshot is exhausted.
func (s Snapshot) Done() bool {
	for i := range s.Streams {
		if !s.Streams[i].Exhausted() {
			return false
		}
	}
	return true
}

// Observer is notified of engine lifecycle events. Observers run
// synchronously inside Init, Reset and Step and must not call back into the
// engine.
type Observer interface {
	OnInit(snap Snapshot)
	OnStep(rec StepRecord)
}

// Engine performs a k-way merge one element at a time.
//
// An Engine is not safe for concurrent use; callers that drive it from
// several goroutines (timers, UI) must serialise access.
type Engine struct {
	cfg       Config
	generated bool
	source    [][]int // caller-supplied data, kept for Reset

	session     string
	streams     []streams.Stream
	output      []int
	comparisons int
	state       State
	trace       []StepRecord

	logger    logging.Logger
	metrics   *metrics.Registry
	observers []Observer
	newID     func() string
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine's logger.
func WithLogger(logger logging.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithMetrics records engine activity in the given registry.
func WithMetrics(r *metrics.Registry) Option {
	return func(e *Engine) {
		e.metrics = r
	}
}

// WithObserver registers an observer for init and step events.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		e.observers = append(e.observers, o)
	}
}

// WithSessionIDs overrides session id generation (used by tests and replay).
func WithSessionIDs(fn func() string) Option {
	return func(e *Engine) {
		e.newID = fn
	}
}
