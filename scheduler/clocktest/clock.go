// Package clocktest provides a manually advanced scheduler.Clock for tests.
package clocktest

import (
	"sync"
	"time"

	"github.com/pajama10000/expiringmap/scheduler"
)

// Clock is a fake clock. Time only moves when Advance is called, and timers
// fire on the goroutine calling Advance.
type Clock struct {
	mu     sync.Mutex
	now    time.Time
	seq    uint64
	timers []*timer
}

var _ scheduler.Clock = (*Clock)(nil)

// New creates a clock reading start.
func New(start time.Time) *Clock {
	return &Clock{now: start}
}

// Now returns the current fake time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// AfterFunc arms f to run once the clock reaches now+d. A timer that is
// already due runs immediately on the calling goroutine.
func (c *Clock) AfterFunc(d time.Duration, f func()) scheduler.Timer {
	c.mu.Lock()
	c.seq++
	t := &timer{clock: c, when: c.now.Add(d), seq: c.seq, f: f}
	if d <= 0 {
		c.mu.Unlock()
		f()
		return t
	}
	c.timers = append(c.timers, t)
	c.mu.Unlock()
	return t
}

// Advance moves the clock forward by d, firing due timers in deadline order.
// While a timer runs, Now reports its deadline.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for c.Step(target) {
	}
}

// Step fires the earliest timer due at or before target, moving the clock to
// its deadline, and reports true. With no such timer it moves the clock to
// target and reports false.
//
// Callers whose timers hand work to other goroutines can wait for that work
// between steps, so timers armed by it are fired at the right instant.
func (c *Clock) Step(target time.Time) bool {
	c.mu.Lock()
	next := c.popDueLocked(target)
	if next == nil {
		if target.After(c.now) {
			c.now = target
		}
		c.mu.Unlock()
		return false
	}
	if next.when.After(c.now) {
		c.now = next.when
	}
	c.mu.Unlock()

	next.f()
	return true
}

// Pending returns the number of armed timers.
func (c *Clock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}

func (c *Clock) popDueLocked(target time.Time) *timer {
	idx := -1
	for i, t := range c.timers {
		if t.when.After(target) {
			continue
		}
		if idx == -1 || t.before(c.timers[idx]) {
			idx = i
		}
	}
	if idx == -1 {
		return nil
	}
	t := c.timers[idx]
	c.removeLocked(idx)
	return t
}

func (c *Clock) removeLocked(idx int) {
	last := len(c.timers) - 1
	c.timers[idx] = c.timers[last]
	c.timers[last] = nil
	c.timers = c.timers[:last]
}

type timer struct {
	clock *Clock
	when  time.Time
	seq   uint64
	f     func()
}

func (t *timer) before(other *timer) bool {
	if t.when.Equal(other.when) {
		return t.seq < other.seq
	}
	return t.when.Before(other.when)
}

func (t *timer) Stop() bool {
	c := t.clock
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, armed := range c.timers {
		if armed == t {
			c.removeLocked(i)
			return true
		}
	}
	return false
}
