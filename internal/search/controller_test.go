package search

import (
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

// virtualClock fires AfterFunc callbacks only when Advance moves past their
// deadline.
type virtualClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*virtualTimer
}

type virtualTimer struct {
	clock   *virtualClock
	at      time.Time
	f       func()
	stopped bool
}

func (t *virtualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	was := !t.stopped
	t.stopped = true
	return was
}

func newVirtualClock() *virtualClock {
	return &virtualClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *virtualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *virtualClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &virtualTimer{clock: c, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *virtualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*virtualTimer
	var rest []*virtualTimer
	for _, t := range c.timers {
		switch {
		case t.stopped:
		case !t.at.After(c.now):
			t.stopped = true
			due = append(due, t)
		default:
			rest = append(rest, t)
		}
	}
	c.timers = rest
	c.mu.Unlock()

	sort.Slice(due, func(i, j int) bool { return due[i].at.Before(due[j].at) })
	for _, t := range due {
		t.f()
	}
}

type recorder struct {
	mu  sync.Mutex
	got []string
}

func (r *recorder) commit(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, s)
}

func (r *recorder) commits() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.got...)
}

func newTestController() (*Controller, *virtualClock, *recorder) {
	clock := newVirtualClock()
	rec := &recorder{}
	return New(300*time.Millisecond, rec.commit, WithClock(clock)), clock, rec
}

func TestTypingWithinWindowCommitsOnce(t *testing.T) {
	c, clock, rec := newTestController()

	c.Input("a")
	clock.Advance(100 * time.Millisecond)
	c.Input("ab")
	clock.Advance(100 * time.Millisecond)
	c.Input("abc")
	if c.State() != StatePending {
		t.Errorf("state = %v, want pending", c.State())
	}
	if c.Raw() != "abc" {
		t.Errorf("raw = %q", c.Raw())
	}
	clock.Advance(299 * time.Millisecond)
	if len(rec.commits()) != 0 {
		t.Fatalf("committed early: %v", rec.commits())
	}
	clock.Advance(time.Millisecond)

	if diff := cmp.Diff([]string{"abc"}, rec.commits()); diff != "" {
		t.Errorf("commits mismatch (-want +got):\n%s", diff)
	}
	if c.Committed() != "abc" || c.State() != StateCommitted {
		t.Errorf("committed = %q, state = %v", c.Committed(), c.State())
	}
}

func TestDeadlineRestartsOnInput(t *testing.T) {
	c, clock, _ := newTestController()
	start := clock.Now()

	c.Input("a")
	if got := c.Deadline(); !got.Equal(start.Add(300 * time.Millisecond)) {
		t.Errorf("deadline = %v", got)
	}
	clock.Advance(200 * time.Millisecond)
	c.Input("ab")
	if got := c.Deadline(); !got.Equal(start.Add(500 * time.Millisecond)) {
		t.Errorf("restarted deadline = %v", got)
	}
}

func TestClearCommitsImmediately(t *testing.T) {
	c, clock, rec := newTestController()

	c.Input("milk")
	clock.Advance(300 * time.Millisecond)
	c.Input("mil")
	c.Input("")

	if diff := cmp.Diff([]string{"milk", ""}, rec.commits()); diff != "" {
		t.Errorf("commits mismatch (-want +got):\n%s", diff)
	}
	// The cancelled "mil" timer must never fire.
	clock.Advance(time.Second)
	if diff := cmp.Diff([]string{"milk", ""}, rec.commits()); diff != "" {
		t.Errorf("commits after window (-want +got):\n%s", diff)
	}
	if !c.Deadline().IsZero() {
		t.Errorf("deadline should be zero after commit")
	}
}

func TestClearWithoutPriorCommit(t *testing.T) {
	c, _, rec := newTestController()
	c.Input("a")
	c.Input("")
	if diff := cmp.Diff([]string{""}, rec.commits()); diff != "" {
		t.Errorf("commits mismatch (-want +got):\n%s", diff)
	}
}

func TestFlushAndStop(t *testing.T) {
	c, clock, rec := newTestController()

	c.Input("work")
	if !c.Flush() {
		t.Fatal("Flush should report pending input")
	}
	if c.Flush() {
		t.Error("second Flush should be a no-op")
	}

	c.Input("workshop")
	c.Stop()
	clock.Advance(time.Second)
	if c.State() != StateIdle {
		t.Errorf("state = %v, want idle", c.State())
	}
	if diff := cmp.Diff([]string{"work"}, rec.commits()); diff != "" {
		t.Errorf("commits mismatch (-want +got):\n%s", diff)
	}
}

func TestRealClock(t *testing.T) {
	done := make(chan string, 1)
	c := New(10*time.Millisecond, func(s string) { done <- s })
	c.Input("x")
	select {
	case got := <-done:
		if got != "x" {
			t.Errorf("commit = %q", got)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for commit")
	}
}
