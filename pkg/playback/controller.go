// Package playback drives a merge engine either by hand or from a timer.
//
// The controller keeps at most one deferred step pending. Pause and Reset
// cancel it synchronously: once they return, no step scheduled before them
// will run. Automatic playback stops itself as soon as a step reports no
// progress, without scheduling another delay.
package playback

import (
	"sync"
	"time"

	"github.com/dd0wney/kway-mergeviz/pkg/logging"
	"github.com/dd0wney/kway-mergeviz/pkg/metrics"
	"github.com/dd0wney/kway-mergeviz/pkg/pubsub"
)

// Controller owns all access to its engine.
type Controller struct {
	mu      sync.Mutex
	engine  Engine
	sched   Scheduler
	mode    Mode
	speed   time.Duration
	pending Timer
	gen     uint64 // bumped on every schedule and cancel; stale callbacks compare unequal

	bus     *pubsub.PubSub[Event]
	logger  logging.Logger
	metrics *metrics.Registry
}

// Option configures a Controller.
type Option func(*Controller)

// WithScheduler replaces the timer implementation.
func WithScheduler(s Scheduler) Option {
	return func(c *Controller) {
		c.sched = s
	}
}

// WithSpeed sets the initial delay between automatic steps.
func WithSpeed(d time.Duration) Option {
	return func(c *Controller) {
		c.speed = ClampSpeed(d)
	}
}

// WithEventBus publishes controller events on bus under Topic.
func WithEventBus(bus *pubsub.PubSub[Event]) Option {
	return func(c *Controller) {
		c.bus = bus
	}
}

// WithLogger sets the controller's logger.
func WithLogger(logger logging.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithMetrics records playback activity in the given registry.
func WithMetrics(r *metrics.Registry) Option {
	return func(c *Controller) {
		c.metrics = r
	}
}

// New creates a paused controller for engine.
func New(engine Engine, opts ...Option) *Controller {
	c := &Controller{
		engine: engine,
		sched:  RealScheduler{},
		speed:  DefaultSpeed,
		logger: logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(logging.Component("playback"))
	if c.metrics != nil {
		c.metrics.SetPlaybackSpeed(c.speed)
	}
	return c
}

// Play starts automatic playback. The first step runs immediately.
func (c *Controller) Play() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mode == Auto {
		c.reject("play", ErrAlreadyPlaying)
		return ErrAlreadyPlaying
	}
	if c.engine.Done() {
		c.reject("play", ErrFinished)
		return ErrFinished
	}

	c.setMode(Auto)
	c.publish(Played)
	c.runLocked()
	return nil
}

// Pause stops automatic playback and cancels the pending step. Pausing a
// paused controller does nothing.
func (c *Controller) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mode != Auto {
		return
	}
	c.cancelLocked()
	c.setMode(Manual)
	c.publish(Paused)
}

// Toggle switches between Play and Pause.
func (c *Controller) Toggle() error {
	c.mu.Lock()
	playing := c.mode == Auto
	c.mu.Unlock()

	if playing {
		c.Pause()
		return nil
	}
	return c.Play()
}

// Step performs one manual step. It is rejected during automatic playback.
func (c *Controller) Step() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mode == Auto {
		c.reject("step", ErrAutoMode)
		return false, ErrAutoMode
	}
	progressed := c.engine.Step()
	if progressed {
		c.publish(Stepped)
	} else {
		c.publish(Finished)
	}
	return progressed, nil
}

// Reset cancels playback and restarts the engine from its configuration.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked(func() { c.engine.Reset() })
}

// ResetWithSeed cancels playback and restarts the engine with seed.
func (c *Controller) ResetWithSeed(seed int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked(func() { c.engine.ResetWithSeed(seed) })
}

func (c *Controller) resetLocked(reset func()) {
	c.cancelLocked()
	if c.mode != Manual {
		c.setMode(Manual)
	}
	reset()
	c.publish(ResetDone)
}

// SetSpeed changes the delay between automatic steps. The new value applies
// from the next scheduled step.
func (c *Controller) SetSpeed(d time.Duration) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.speed = ClampSpeed(d)
	c.logger.Debug("speed changed", logging.Duration("speed", c.speed))
	if c.metrics != nil {
		c.metrics.SetPlaybackSpeed(c.speed)
	}
	c.publish(SpeedChanged)
	return c.speed
}

// Faster shortens the delay by SpeedStep.
func (c *Controller) Faster() time.Duration {
	return c.SetSpeed(c.Speed() - SpeedStep)
}

// Slower lengthens the delay by SpeedStep.
func (c *Controller) Slower() time.Duration {
	return c.SetSpeed(c.Speed() + SpeedStep)
}

// Speed returns the delay between automatic steps.
func (c *Controller) Speed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.speed
}

// Mode returns the current playback mode.
func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// Snapshot returns the engine's state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		Mode:   c.mode,
		Speed:  c.speed,
		Engine: c.engine.Snapshot(),
	}
}

// Close cancels any pending step.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelLocked()
	c.mode = Manual
}

// runLocked performs one automatic step and schedules the next one while
// the engine keeps making progress.
func (c *Controller) runLocked() {
	if c.mode != Auto {
		return
	}
	if !c.engine.Step() {
		c.setMode(Manual)
		c.logger.Info("playback finished")
		c.publish(Finished)
		return
	}
	c.publish(Stepped)
	c.scheduleLocked()
}

func (c *Controller) scheduleLocked() {
	c.gen++
	gen := c.gen
	c.pending = c.sched.AfterFunc(c.speed, func() {
		c.tick(gen)
	})
}

func (c *Controller) tick(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// A Pause or Reset since scheduling bumped gen; this callback is stale.
	if gen != c.gen {
		return
	}
	c.pending = nil
	c.runLocked()
}

func (c *Controller) cancelLocked() {
	c.gen++
	if c.pending != nil {
		c.pending.Stop()
		c.pending = nil
	}
}

func (c *Controller) setMode(m Mode) {
	c.mode = m
	c.logger.Info("playback mode changed", logging.String("mode", m.String()))
	if c.metrics != nil {
		c.metrics.RecordPlaybackTransition(m.String())
	}
}

func (c *Controller) reject(action string, err error) {
	c.logger.Warn("action rejected", logging.String("action", action), logging.Error(err))
	if c.metrics != nil {
		c.metrics.RecordPlaybackRejected(action)
	}
}

func (c *Controller) publish(kind EventKind) {
	if c.bus == nil {
		return
	}
	c.bus.Publish(Topic, Event{
		Kind:     kind,
		Mode:     c.mode,
		Speed:    c.speed,
		Snapshot: c.engine.Snapshot(),
	})
}
