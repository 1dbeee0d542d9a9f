// Package search debounces raw search input into committed search terms.
package search

import (
	"sync"
	"time"
)

// DefaultQuiet is how long input must be stable before it is committed.
const DefaultQuiet = 300 * time.Millisecond

// State is the debounce state.
type State int

const (
	StateIdle State = iota
	StatePending
	StateCommitted
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateCommitted:
		return "committed"
	default:
		return "idle"
	}
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock replaces the wall clock.
func WithClock(clock Clock) Option {
	return func(c *Controller) {
		c.clock = clock
	}
}

// Controller is a trailing-edge debouncer: Idle -> Pending(deadline) ->
// Committed. Every input restarts the quiet window; clearing the input
// commits "" immediately.
type Controller struct {
	clock  Clock
	quiet  time.Duration
	commit func(string)

	mu        sync.Mutex
	emitMu    sync.Mutex
	raw       string
	committed string
	state     State
	deadline  time.Time
	gen       uint64
	timer     Timer
}

// New creates a controller that calls commit with each committed term.
// A non-positive quiet uses DefaultQuiet.
func New(quiet time.Duration, commit func(string), opts ...Option) *Controller {
	if quiet <= 0 {
		quiet = DefaultQuiet
	}
	c := &Controller{
		clock:  RealClock{},
		quiet:  quiet,
		commit: commit,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Input records a keystroke's resulting text.
func (c *Controller) Input(raw string) {
	c.mu.Lock()
	c.raw = raw
	c.gen++
	c.stopLocked()

	if raw == "" {
		c.commitLocked()
		return
	}

	gen := c.gen
	c.state = StatePending
	c.deadline = c.clock.Now().Add(c.quiet)
	c.timer = c.clock.AfterFunc(c.quiet, func() { c.fire(gen) })
	c.mu.Unlock()
}

// Flush commits pending input now. It reports whether anything was pending.
func (c *Controller) Flush() bool {
	c.mu.Lock()
	if c.state != StatePending {
		c.mu.Unlock()
		return false
	}
	c.gen++
	c.stopLocked()
	c.commitLocked()
	return true
}

// Stop cancels a pending commit.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.stopLocked()
	if c.state == StatePending {
		c.state = StateIdle
	}
}

// Raw returns the latest input.
func (c *Controller) Raw() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.raw
}

// Committed returns the last committed term.
func (c *Controller) Committed() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.committed
}

// State returns the debounce state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Deadline returns when pending input will be committed, or the zero time.
func (c *Controller) Deadline() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StatePending {
		return time.Time{}
	}
	return c.deadline
}

func (c *Controller) fire(gen uint64) {
	c.mu.Lock()
	if gen != c.gen || c.state != StatePending {
		c.mu.Unlock()
		return
	}
	c.timer = nil
	c.commitLocked()
}

func (c *Controller) stopLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// commitLocked commits raw and releases c.mu. Emission is serialised so
// callbacks observe commits in order.
func (c *Controller) commitLocked() {
	c.state = StateCommitted
	c.committed = c.raw
	c.deadline = time.Time{}
	term := c.raw

	c.emitMu.Lock()
	c.mu.Unlock()
	defer c.emitMu.Unlock()
	if c.commit != nil {
		c.commit(term)
	}
}
