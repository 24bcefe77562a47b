// Package cooldown rate limits repeated actions per caller, such as a player
// running the same command.
//
// A Tracker remembers when each caller last acted. The timestamps live in an
// expiring map whose expiration is the cooldown window, so callers that stay
// idle for longer than the window cost nothing.
package cooldown

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	expiringmap "github.com/pajama10000/expiringmap"
	"github.com/pajama10000/expiringmap/scheduler"
)

// DefaultWindow is the window of trackers built with a zero window.
const DefaultWindow = 30 * time.Second

// Tracker enforces a minimum delay between two accepted actions of the same caller.
type Tracker[ID comparable] struct {
	stamps *expiringmap.Map[ID, time.Time]
	clock  scheduler.Clock

	mu     sync.RWMutex
	window time.Duration
}

// Option is an option for NewTracker.
type Option interface {
	apply(*options)
}

type optionFunc func(*options)

func (f optionFunc) apply(o *options) {
	f(o)
}

type options struct {
	services *expiringmap.Services
	logger   *zap.Logger
}

// WithServices sets the services of the underlying map.
func WithServices(s *expiringmap.Services) Option {
	return optionFunc(func(o *options) {
		o.services = s
	})
}

// WithLogger sets the logger of the underlying map.
func WithLogger(logger *zap.Logger) Option {
	return optionFunc(func(o *options) {
		o.logger = logger
	})
}

// NewTracker creates a tracker with the given window. A zero window selects
// DefaultWindow; use SetWindow(0) to disable cooldowns.
func NewTracker[ID comparable](window time.Duration, opts ...Option) (*Tracker[ID], error) {
	if window < 0 {
		return nil, fmt.Errorf("%w: negative cooldown window %v", expiringmap.ErrInvalidArgument, window)
	}
	if window == 0 {
		window = DefaultWindow
	}

	var o options
	for _, opt := range opts {
		opt.apply(&o)
	}

	mapOpts := []expiringmap.Option[ID, time.Time]{
		expiringmap.WithExpiration[ID, time.Time](window),
		expiringmap.WithVariableExpiration[ID, time.Time](),
	}
	if o.services != nil {
		mapOpts = append(mapOpts, expiringmap.WithServices[ID, time.Time](o.services))
	}
	if o.logger != nil {
		mapOpts = append(mapOpts, expiringmap.WithLogger[ID, time.Time](o.logger))
	}
	stamps, err := expiringmap.New(mapOpts...)
	if err != nil {
		return nil, err
	}

	return &Tracker[ID]{
		stamps: stamps,
		clock:  stamps.Services().Clock(),
		window: window,
	}, nil
}

// Try records an action by id. If id acted less than a window ago the action
// is rejected and the time left until it is accepted again is returned.
func (t *Tracker[ID]) Try(id ID) (remaining time.Duration, ok bool) {
	window := t.Window()
	if window <= 0 {
		return 0, true
	}

	for {
		now := t.clock.Now()
		last, loaded := t.stamps.PutIfAbsent(id, now)
		if !loaded {
			return 0, true
		}
		if remaining := last.Add(window).Sub(now); remaining > 0 {
			return remaining, false
		}
		// the stamp outlived a window that has since been shortened
		t.stamps.CompareAndRemove(id, last)
	}
}

// Remaining returns the time left before id may act again.
func (t *Tracker[ID]) Remaining(id ID) time.Duration {
	window := t.Window()
	if window <= 0 {
		return 0
	}
	// the map has no loader, so Get cannot fail
	last, ok, _ := t.stamps.Get(id)
	if !ok {
		return 0
	}
	return max(0, last.Add(window).Sub(t.clock.Now()))
}

// Reset forgets the last action of id.
func (t *Tracker[ID]) Reset(id ID) {
	t.stamps.Remove(id)
}

// Active returns the number of callers currently remembered.
func (t *Tracker[ID]) Active() int {
	return t.stamps.Len()
}

// Window returns the cooldown window.
func (t *Tracker[ID]) Window() time.Duration {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.window
}

// SetWindow changes the cooldown window. Zero disables cooldowns.
// Callers already remembered are judged against the new window.
func (t *Tracker[ID]) SetWindow(d time.Duration) error {
	if d < 0 {
		return fmt.Errorf("%w: negative cooldown window %v", expiringmap.ErrInvalidArgument, d)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if d > 0 {
		if err := t.stamps.SetExpiration(d); err != nil {
			return err
		}
	}
	if d > t.window {
		// stamps written under the shorter window must last d from when they were taken
		now := t.clock.Now()
		for id, last := range t.stamps.All() {
			remaining := last.Add(d).Sub(now)
			if remaining <= 0 {
				continue
			}
			if _, err := t.stamps.SetEntryExpiration(id, remaining); err != nil {
				return err
			}
		}
	}
	t.window = d
	return nil
}
