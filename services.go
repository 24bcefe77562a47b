package expiringmap

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"go.uber.org/zap"

	"github.com/pajama10000/expiringmap/internal/workqueue"
	"github.com/pajama10000/expiringmap/scheduler"
)

// Services is the background machinery shared by maps: the clock, the
// expiration scheduler and the worker pool for asynchronous listeners.
//
// Maps built without WithServices share DefaultServices. Tests and embedders
// that need isolation or an explicit teardown build their own with NewServices.
type Services struct {
	clock     scheduler.Clock
	scheduler *scheduler.Scheduler
	listeners *workqueue.Queue
	logger    *zap.Logger
}

// ServicesOption is the interface for the options of NewServices.
type ServicesOption interface {
	apply(*servicesConfig)
}

type servicesOptionFunc func(*servicesConfig)

func (f servicesOptionFunc) apply(c *servicesConfig) {
	f(c)
}

type servicesConfig struct {
	clock   scheduler.Clock
	logger  *zap.Logger
	workers int
	spawn   func(fn func())
}

// WithClock sets the clock deadlines are computed and timers armed on.
// The default is scheduler.SystemClock.
func WithClock(clock scheduler.Clock) ServicesOption {
	return servicesOptionFunc(func(c *servicesConfig) {
		if clock != nil {
			c.clock = clock
		}
	})
}

// WithServicesLogger sets the logger for recovered failures on the background goroutines.
func WithServicesLogger(logger *zap.Logger) ServicesOption {
	return servicesOptionFunc(func(c *servicesConfig) {
		if logger != nil {
			c.logger = logger
		}
	})
}

// WithListenerWorkers sets the number of goroutines serving asynchronous
// listeners. The default is runtime.GOMAXPROCS(0).
func WithListenerWorkers(n int) ServicesOption {
	return servicesOptionFunc(func(c *servicesConfig) {
		if n > 0 {
			c.workers = n
		}
	})
}

// WithGoroutineFactory sets the function used to start background goroutines.
func WithGoroutineFactory(f func(fn func())) ServicesOption {
	return servicesOptionFunc(func(c *servicesConfig) {
		if f != nil {
			c.spawn = f
		}
	})
}

// NewServices creates an independent set of services. Goroutines are started
// lazily, on the first expiration or asynchronous notification.
func NewServices(opts ...ServicesOption) *Services {
	c := servicesConfig{
		clock:   scheduler.SystemClock,
		logger:  zap.NewNop(),
		workers: runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt.apply(&c)
	}

	schedulerOpts := []scheduler.Option{
		scheduler.WithClock(c.clock),
		scheduler.WithLogger(c.logger),
	}
	queueOpts := []workqueue.Option{workqueue.WithLogger(c.logger)}
	if c.spawn != nil {
		schedulerOpts = append(schedulerOpts, scheduler.WithGoroutineFactory(c.spawn))
		queueOpts = append(queueOpts, workqueue.WithGoroutineFactory(c.spawn))
	}

	return &Services{
		clock:     c.clock,
		scheduler: scheduler.New(schedulerOpts...),
		listeners: workqueue.New("async-listeners", c.workers, queueOpts...),
		logger:    c.logger,
	}
}

// Clock returns the clock of the services.
func (s *Services) Clock() scheduler.Clock {
	return s.clock
}

// Flush blocks until every expiration that has already fired has been applied
// and every asynchronous notification queued so far has been delivered.
// It must not be called from a listener.
func (s *Services) Flush() {
	s.scheduler.Flush()
	s.listeners.Flush()
}

// Shutdown stops the background goroutines after their backlog has run.
// Maps using these services stop expiring entries by time.
func (s *Services) Shutdown(ctx context.Context) error {
	return errors.Join(
		s.scheduler.Shutdown(ctx),
		s.listeners.Close(ctx),
	)
}

var (
	defaultServicesMu sync.Mutex
	defaultServices   *Services
	goroutineFactory  func(fn func())
)

// DefaultServices returns the process-wide services, creating them on first use.
func DefaultServices() *Services {
	defaultServicesMu.Lock()
	defer defaultServicesMu.Unlock()

	if defaultServices == nil {
		defaultServices = NewServices(WithGoroutineFactory(goroutineFactory))
	}
	return defaultServices
}

// SetGoroutineFactory sets the function DefaultServices uses to start
// background goroutines. It can be set once; later calls report false.
//
// Maps already built keep their services. Maps built afterwards without
// WithServices use fresh default services that start goroutines through f.
func SetGoroutineFactory(f func(fn func())) bool {
	if f == nil {
		return false
	}

	defaultServicesMu.Lock()
	defer defaultServicesMu.Unlock()

	if goroutineFactory != nil {
		return false
	}
	goroutineFactory = f
	defaultServices = nil
	return true
}
