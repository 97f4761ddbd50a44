// Package merge implements the stepping engine of the k-way merge
// visualizer.
//
// Each Step selects the smallest live head across all streams with a single
// linear scan, appends it to the output and advances that stream. The scan
// is charged live-1 comparisons, the cost of finding a minimum among live
// candidates one by one; ties go to the stream with the lowest id.
//
// Engines are single-actor objects. State is replaced wholesale on Init and
// Reset, and readers get deep copies through Snapshot and Trace.
package merge

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dd0wney/kway-mergeviz/pkg/logging"
	"github.com/dd0wney/kway-mergeviz/pkg/streams"
)

// New creates an engine and initialises it from cfg.
func New(cfg Config, opts ...Option) (*Engine, error) {
	e := newEngine(opts)
	if err := e.Init(cfg); err != nil {
		return nil, err
	}
	return e, nil
}

// NewFromStreams creates an engine over caller-supplied data. Each sequence
// must be strictly increasing; empty sequences start exhausted. With no
// sequences at all the engine is exhausted from the start.
func NewFromStreams(data [][]int, opts ...Option) (*Engine, error) {
	for i, d := range data {
		if !streams.StrictlyIncreasing(d) {
			return nil, fmt.Errorf("stream %d: %w", i, ErrInvalidStream)
		}
	}

	e := newEngine(opts)
	e.source = make([][]int, len(data))
	for i, d := range data {
		e.source[i] = append([]int(nil), d...)
	}
	e.load(e.sourceStreams(), false)
	return e, nil
}

func newEngine(opts []Option) *Engine {
	e := &Engine{
		logger: logging.NewNopLogger(),
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With(logging.Component("engine"))
	return e
}

// Init generates a new session from cfg. On error the previous session, if
// any, is left untouched.
func (e *Engine) Init(cfg Config) error {
	generated, err := streams.Generate(cfg.Seed, cfg.Streams, cfg.StreamLength)
	if err != nil {
		if e.metrics != nil {
			e.metrics.RecordInitFailure()
		}
		e.logger.Warn("rejected engine configuration",
			logging.Seed(cfg.Seed),
			logging.Int("streams", cfg.Streams),
			logging.Int("stream_length", cfg.StreamLength),
			logging.Error(err),
		)
		return fmt.Errorf("init: %w", err)
	}

	e.cfg = cfg
	e.generated = true
	e.source = nil
	e.load(generated, false)
	return nil
}

// Reset discards all state and replays the last configuration.
func (e *Engine) Reset() {
	if !e.generated {
		e.load(e.sourceStreams(), true)
		return
	}
	// The configuration already passed validation, so generation cannot fail.
	generated, _ := streams.Generate(e.cfg.Seed, e.cfg.Streams, e.cfg.StreamLength)
	e.load(generated, true)
}

// ResetWithSeed replays the last configuration with a different seed, as
// when the user edits the seed between runs. Engines built from explicit
// streams ignore the seed.
func (e *Engine) ResetWithSeed(seed int64) {
	if e.generated {
		e.cfg.Seed = seed
	}
	e.Reset()
}

func (e *Engine) sourceStreams() []streams.Stream {
	out := make([]streams.Stream, len(e.source))
	for i, d := range e.source {
		out[i] = streams.Stream{ID: i, Data: append([]int(nil), d...)}
	}
	return out
}

func (e *Engine) load(s []streams.Stream, reset bool) {
	e.session = e.newID()
	e.streams = s
	e.output = make([]int, 0, e.total())
	e.comparisons = 0
	e.trace = nil
	e.state = Ready
	if len(s) == 0 {
		e.state = Exhausted
	}

	msg := "engine initialized"
	if reset {
		msg = "engine reset"
	}
	e.logger.Info(msg,
		logging.Session(e.session),
		logging.Seed(e.cfg.Seed),
		logging.Int("streams", len(s)),
		logging.Int("elements", e.total()),
		logging.Bool("generated", e.generated),
		logging.State(e.state.String()),
	)
	if e.metrics != nil {
		e.metrics.RecordInit(reset, e.remaining())
		e.metrics.SetEngineState(e.state.String())
	}

	snap := e.Snapshot()
	for _, o := range e.observers {
		o.OnInit(snap)
	}
}

// Step performs one unit of merge work and reports whether it made
// progress. Once no live head remains the engine is Exhausted and every
// further call returns false without side effects.
func (e *Engine) Step() bool {
	if e.state == Exhausted {
		return false
	}
	start := time.Now()

	best := -1
	var bestHead streams.Head
	live := 0
	for i := range e.streams {
		h := e.streams[i].Head()
		if !h.Live {
			continue
		}
		live++
		// Strict comparison keeps the lowest id on ties.
		if best < 0 || h.Less(bestHead) {
			best, bestHead = i, h
		}
	}

	if best < 0 {
		e.state = Exhausted
		e.logger.Info("merge complete",
			logging.Session(e.session),
			logging.State(e.state.String()),
			logging.Int("output", len(e.output)),
			logging.Comparisons(e.comparisons),
		)
		if e.metrics != nil {
			e.metrics.RecordStep(false, 0, len(e.output), 0, 0)
			e.metrics.SetEngineState(e.state.String())
		}
		return false
	}

	delta := live - 1
	e.comparisons += delta
	e.output = append(e.output, bestHead.Value)
	e.streams[best].HeadIndex++
	if e.state == Ready && e.metrics != nil {
		e.metrics.SetEngineState(Running.String())
	}
	e.state = Running

	rec := StepRecord{
		Seq:         len(e.output),
		StreamID:    e.streams[best].ID,
		Value:       bestHead.Value,
		Live:        live,
		Delta:       delta,
		Comparisons: e.comparisons,
	}
	e.trace = append(e.trace, rec)

	e.logger.Debug("step",
		logging.Int("seq", rec.Seq),
		logging.StreamID(rec.StreamID),
		logging.Value(rec.Value),
		logging.Comparisons(rec.Comparisons),
	)
	if e.metrics != nil {
		e.metrics.RecordStep(true, delta, len(e.output), e.remaining(), time.Since(start))
	}
	for _, o := range e.observers {
		o.OnStep(rec)
	}
	return true
}

// Run steps until the engine is exhausted and returns the number of
// progressing steps.
func (e *Engine) Run() int {
	n := 0
	for e.Step() {
		n++
	}
	return n
}

// Done reports whether every stream is exhausted. It can be true while the
// state is still Running: Exhausted is entered by the first step that finds
// nothing to do.
func (e *Engine) Done() bool {
	return e.remaining() == 0
}

// State returns the lifecycle state.
func (e *Engine) State() State {
	return e.state
}

// Comparisons returns the running comparison count.
func (e *Engine) Comparisons() int {
	return e.comparisons
}

// Session returns the id of the current session.
func (e *Engine) Session() string {
	return e.session
}

// Config returns the configuration of the current session. It is the zero
// value for engines built from explicit streams.
func (e *Engine) Config() Config {
	return e.cfg
}

// Heads returns the current head of every stream, indexed by stream id.
func (e *Engine) Heads() []streams.Head {
	heads := make([]streams.Head, len(e.streams))
	for i := range e.streams {
		heads[i] = e.streams[i].Head()
	}
	return heads
}

// Snapshot returns a deep copy of the observable state.
func (e *Engine) Snapshot() Snapshot {
	snap := Snapshot{
		Session:     e.session,
		Config:      e.cfg,
		Generated:   e.generated,
		Streams:     make([]streams.Stream, len(e.streams)),
		Output:      make([]int, len(e.output)),
		Comparisons: e.comparisons,
		State:       e.state,
	}
	copy(snap.Output, e.output)
	for i := range e.streams {
		snap.Streams[i] = e.streams[i].Clone()
	}
	if n := len(e.trace); n > 0 {
		last := e.trace[n-1]
		snap.Last = &last
	}
	return snap
}

// Trace returns a copy of every step record since the last reset.
func (e *Engine) Trace() []StepRecord {
	out := make([]StepRecord, len(e.trace))
	copy(out, e.trace)
	return out
}

func (e *Engine) total() int {
	n := 0
	for i := range e.streams {
		n += len(e.streams[i].Data)
	}
	return n
}

func (e *Engine) remaining() int {
	n := 0
	for i := range e.streams {
		n += e.streams[i].Remaining()
	}
	return n
}
