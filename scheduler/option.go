package scheduler

import (
	"go.uber.org/zap"

	"github.com/pajama10000/expiringmap/internal/workqueue"
)

// Option is an option for New.
type Option interface {
	apply(*Scheduler)
}

type optionFunc func(*Scheduler)

func (f optionFunc) apply(s *Scheduler) {
	f(s)
}

// WithClock sets the clock used to arm timers. Default is SystemClock.
func WithClock(clock Clock) Option {
	return optionFunc(func(s *Scheduler) {
		if clock != nil {
			s.clock = clock
		}
	})
}

// WithLogger sets the logger for the dispatcher.
func WithLogger(logger *zap.Logger) Option {
	return optionFunc(func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	})
}

// WithGoroutineFactory sets the function used to start the dispatcher goroutine.
func WithGoroutineFactory(f func(fn func())) Option {
	return optionFunc(func(s *Scheduler) {
		if f != nil {
			s.spawn = workqueue.GoroutineFactory(f)
		}
	})
}
