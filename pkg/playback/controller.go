package playback

import (
	"fmt"
	"sync"
	"time"

	"github.com/matzehuels/pathstep/pkg/observability"
	"github.com/matzehuels/pathstep/pkg/trace"
)

// Delay bounds in milliseconds.
const (
	MinDelay     = 100
	MaxDelay     = 2000
	DefaultDelay = 500
)

// ClampDelay limits ms to [MinDelay, MaxDelay].
func ClampDelay(ms int) int {
	return min(max(ms, MinDelay), MaxDelay)
}

// State is a copy of the controller's observable state.
type State struct {
	Index       int         `json:"index"`
	Len         int         `json:"len"`
	AutoPlaying bool        `json:"auto_playing"`
	DelayMs     int         `json:"delay_ms"`
	Step        *trace.Step `json:"step,omitempty"` // nil when Index is -1
}

// Progress returns a "Step i of n" label with a 1-based index.
func (s State) Progress() string {
	return fmt.Sprintf("Step %d of %d", s.Index+1, s.Len)
}

// AtEnd reports whether the last step is displayed.
func (s State) AtEnd() bool { return s.Len > 0 && s.Index == s.Len-1 }

// Option configures a Controller.
type Option func(*Controller)

// WithScheduler replaces the real-time scheduler.
func WithScheduler(s Scheduler) Option {
	return func(c *Controller) {
		if s != nil {
			c.sched = s
		}
	}
}

// WithDelay sets the initial auto-play delay in milliseconds, clamped.
func WithDelay(ms int) Option {
	return func(c *Controller) { c.delay = ClampDelay(ms) }
}

// WithOnAdvance registers a callback invoked after every timer-driven
// advance with the new state.
func WithOnAdvance(fn func(State)) Option {
	return func(c *Controller) { c.onAdvance = fn }
}

// WithHooks replaces the globally registered playback hooks.
func WithHooks(h observability.PlaybackHooks) Option {
	return func(c *Controller) {
		if h != nil {
			c.hooks = h
		}
	}
}

// Controller steps through a trace by hand or on a timer.
type Controller struct {
	mu        sync.Mutex
	sched     Scheduler
	hooks     observability.PlaybackHooks
	onAdvance func(State)

	tr          *trace.Trace
	index       int
	autoPlaying bool
	delay       int

	cancel func() bool
	gen    uint64
}

// NewController returns an empty controller. Call Load before navigating.
func NewController(opts ...Option) *Controller {
	c := &Controller{
		sched: RealTime,
		hooks: observability.Playback(),
		index: -1,
		delay: DefaultDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load installs t, stops auto-play and moves to index -1.
func (c *Controller) Load(t *trace.Trace) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tr = t
	c.rewind()
}

// Reset is Load with the current trace.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rewind()
}

func (c *Controller) rewind() {
	c.stopTimer()
	c.autoPlaying = false
	c.index = -1
	c.hooks.OnReset(c.length())
}

// StepForward advances one step and returns it. At the last index it does
// nothing, stops auto-play and returns the current step with false.
func (c *Controller) StepForward() (trace.Step, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopTimer()
	if c.index >= c.length()-1 {
		c.setAutoPlay(false)
		return c.current(), false
	}
	c.index++
	c.hooks.OnAdvance(c.index, c.length(), false)
	c.rearm()
	return c.current(), true
}

// StepBackward moves back one step and returns it. At index 0 or -1 it does
// nothing and returns the current step with false.
func (c *Controller) StepBackward() (trace.Step, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopTimer()
	if c.index <= 0 {
		c.rearm()
		return c.current(), false
	}
	c.index--
	c.hooks.OnAdvance(c.index, c.length(), false)
	c.rearm()
	return c.current(), true
}

// StartAutoPlay begins advancing one step per delay. At the last index it
// first rewinds to -1 so the trace replays. It does nothing without a trace
// or when auto-play is already on.
func (c *Controller) StartAutoPlay() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.length() == 0 || c.autoPlaying {
		return
	}
	if c.index == c.length()-1 {
		c.index = -1
	}
	c.setAutoPlay(true)
	c.schedule()
}

// StopAutoPlay stops auto-play and cancels the pending advance. It is
// idempotent.
func (c *Controller) StopAutoPlay() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopTimer()
	c.setAutoPlay(false)
}

// ToggleAutoPlay starts auto-play if it is off and stops it otherwise.
func (c *Controller) ToggleAutoPlay() bool {
	c.mu.Lock()
	playing := c.autoPlaying
	c.mu.Unlock()
	if playing {
		c.StopAutoPlay()
	} else {
		c.StartAutoPlay()
	}
	return !playing
}

// SetDelay clamps ms to [MinDelay, MaxDelay] and returns the stored value.
// An advance that is already pending keeps its original delay.
func (c *Controller) SetDelay(ms int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.delay = ClampDelay(ms)
	return c.delay
}

// Seek jumps to index i without changing auto-play. It reports false when i
// is outside [-1, len-1].
func (c *Controller) Seek(i int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i < -1 || i >= c.length() {
		return false
	}
	c.stopTimer()
	c.index = i
	c.hooks.OnAdvance(c.index, c.length(), false)
	c.rearm()
	return true
}

// Current returns the displayed step, or false at index -1.
func (c *Controller) Current() (trace.Step, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.index < 0 {
		return trace.Step{}, false
	}
	return c.current(), true
}

// Trace returns the loaded trace.
func (c *Controller) Trace() *trace.Trace {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tr
}

// State returns a snapshot of the controller state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state()
}

// Close stops auto-play. The controller stays usable.
func (c *Controller) Close() {
	c.StopAutoPlay()
}

func (c *Controller) state() State {
	s := State{
		Index:       c.index,
		Len:         c.length(),
		AutoPlaying: c.autoPlaying,
		DelayMs:     c.delay,
	}
	if c.index >= 0 {
		step := c.tr.Steps[c.index].Clone()
		s.Step = &step
	}
	return s
}

func (c *Controller) length() int {
	if c.tr == nil {
		return 0
	}
	return c.tr.Len()
}

func (c *Controller) current() trace.Step {
	if c.index < 0 {
		return trace.Step{}
	}
	return c.tr.Steps[c.index].Clone()
}

func (c *Controller) setAutoPlay(on bool) {
	if c.autoPlaying == on {
		return
	}
	c.autoPlaying = on
	c.hooks.OnAutoPlay(on, c.delay)
}

// rearm restarts the timer after a manual step during auto-play, or stops
// auto-play once the last step is shown.
func (c *Controller) rearm() {
	if !c.autoPlaying {
		return
	}
	if c.index >= c.length()-1 {
		c.setAutoPlay(false)
		return
	}
	c.schedule()
}

func (c *Controller) schedule() {
	c.stopTimer()
	gen := c.gen
	c.cancel = c.sched.AfterFunc(time.Duration(c.delay)*time.Millisecond, func() {
		c.tick(gen)
	})
}

// stopTimer cancels the pending advance and invalidates any callback that
// is already running.
func (c *Controller) stopTimer() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.gen++
}

func (c *Controller) tick(gen uint64) {
	c.mu.Lock()
	if gen != c.gen || !c.autoPlaying {
		c.mu.Unlock()
		return
	}
	c.cancel = nil
	if c.index < c.length()-1 {
		c.index++
		c.hooks.OnAdvance(c.index, c.length(), true)
	}
	if c.index >= c.length()-1 {
		c.setAutoPlay(false)
	} else {
		c.schedule()
	}
	st := c.state()
	fn := c.onAdvance
	c.mu.Unlock()

	if fn != nil {
		fn(st)
	}
}
