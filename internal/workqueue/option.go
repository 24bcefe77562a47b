package workqueue

import "go.uber.org/zap"

// Option configures a Queue.
type Option interface {
	apply(*Queue)
}

type optionFunc func(*Queue)

func (f optionFunc) apply(q *Queue) {
	f(q)
}

// WithGoroutineFactory sets the function used to launch worker goroutines.
func WithGoroutineFactory(f GoroutineFactory) Option {
	return optionFunc(func(q *Queue) {
		if f != nil {
			q.spawn = f
		}
	})
}

// WithLogger sets the logger for recovered task failures.
func WithLogger(logger *zap.Logger) Option {
	return optionFunc(func(q *Queue) {
		if logger != nil {
			q.logger = logger
		}
	})
}
