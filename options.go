package expiringmap

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/pajama10000/expiringmap/expiration"
)

const (
	// DefaultExpiration is the expiration duration of maps built without WithExpiration.
	DefaultExpiration = 60 * time.Second

	// DefaultExpirationPolicy is the policy of maps built without WithExpirationPolicy.
	DefaultExpirationPolicy = expiration.Created
)

// Option is the interface for the options of New.
type Option[K KeyConstraint, V ValueConstraint] interface {
	apply(*config[K, V])
}

type optionFunc[K KeyConstraint, V ValueConstraint] func(*config[K, V])

func (f optionFunc[K, V]) apply(c *config[K, V]) {
	f(c)
}

type config[K KeyConstraint, V ValueConstraint] struct {
	duration       time.Duration
	policy         expiration.Policy
	maxSize        int
	variable       bool
	loader         EntryLoader[K, V]
	expiringLoader ExpiringEntryLoader[K, V]
	listeners      []ExpirationListener[K, V]
	asyncListeners []ExpirationListener[K, V]
	services       *Services
	logger         *zap.Logger
	equal          func(a, b V) bool
	context        func() context.Context
	errs           []error
}

func defaultConfig[K KeyConstraint, V ValueConstraint]() config[K, V] {
	return config[K, V]{
		duration: DefaultExpiration,
		policy:   DefaultExpirationPolicy,
		maxSize:  math.MaxInt,
		context:  context.Background,
	}
}

func (c *config[K, V]) invalid(format string, args ...any) {
	c.errs = append(c.errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidArgument}, args...)...))
}

func (c *config[K, V]) validate() error {
	if c.duration <= 0 {
		c.invalid("expiration must be positive, got %v", c.duration)
	}
	if !c.policy.Valid() {
		c.invalid("unknown expiration policy %v", c.policy)
	}
	if c.maxSize <= 0 {
		c.invalid("max size must be positive, got %d", c.maxSize)
	}
	if c.loader != nil && c.expiringLoader != nil {
		c.invalid("EntryLoader and ExpiringEntryLoader are mutually exclusive")
	}
	return errors.Join(c.errs...)
}

// WithExpiration sets the default expiration duration. The default is 60 seconds.
func WithExpiration[K KeyConstraint, V ValueConstraint](d time.Duration) Option[K, V] {
	return optionFunc[K, V](func(c *config[K, V]) {
		c.duration = d
	})
}

// WithExpirationPolicy sets the default expiration policy. The default is expiration.Created.
func WithExpirationPolicy[K KeyConstraint, V ValueConstraint](p expiration.Policy) Option[K, V] {
	return optionFunc[K, V](func(c *config[K, V]) {
		c.policy = p
	})
}

// WithMaxSize bounds the number of entries. When an insert would exceed the
// bound, the entry next in line for expiration is evicted first.
// The default is unbounded.
func WithMaxSize[K KeyConstraint, V ValueConstraint](n int) Option[K, V] {
	return optionFunc[K, V](func(c *config[K, V]) {
		c.maxSize = n
	})
}

// WithVariableExpiration lets entries carry their own policy and duration.
// Without it every per-entry operation fails with ErrUnsupportedOperation.
func WithVariableExpiration[K KeyConstraint, V ValueConstraint]() Option[K, V] {
	return optionFunc[K, V](func(c *config[K, V]) {
		c.variable = true
	})
}

// WithEntryLoader sets the loader called on a miss.
func WithEntryLoader[K KeyConstraint, V ValueConstraint](l EntryLoader[K, V]) Option[K, V] {
	return optionFunc[K, V](func(c *config[K, V]) {
		if l == nil {
			c.invalid("nil EntryLoader")
			return
		}
		c.loader = l
	})
}

// WithExpiringEntryLoader sets the loader called on a miss. The loaded entry
// takes the policy and duration the loader returns, which implies
// WithVariableExpiration.
func WithExpiringEntryLoader[K KeyConstraint, V ValueConstraint](l ExpiringEntryLoader[K, V]) Option[K, V] {
	return optionFunc[K, V](func(c *config[K, V]) {
		if l == nil {
			c.invalid("nil ExpiringEntryLoader")
			return
		}
		c.expiringLoader = l
		c.variable = true
	})
}

// WithExpirationListener registers listeners invoked synchronously, in
// registration order, while the map's write lock is held.
// A panicking listener propagates to the caller of the write that expired the
// entry. Listeners must not call back into the same map.
func WithExpirationListener[K KeyConstraint, V ValueConstraint](listeners ...ExpirationListener[K, V]) Option[K, V] {
	return optionFunc[K, V](func(c *config[K, V]) {
		for _, l := range listeners {
			if l == nil {
				c.invalid("nil ExpirationListener")
				continue
			}
			c.listeners = append(c.listeners, l)
		}
	})
}

// WithAsyncExpirationListener registers listeners invoked on the worker pool of
// the map's Services. Each notification is an independent task, so ordering
// between them is not guaranteed and a failing listener affects nothing else.
func WithAsyncExpirationListener[K KeyConstraint, V ValueConstraint](listeners ...ExpirationListener[K, V]) Option[K, V] {
	return optionFunc[K, V](func(c *config[K, V]) {
		for _, l := range listeners {
			if l == nil {
				c.invalid("nil ExpirationListener")
				continue
			}
			c.asyncListeners = append(c.asyncListeners, l)
		}
	})
}

// WithServices sets the scheduler and listener pool shared with other maps.
// The default is DefaultServices().
func WithServices[K KeyConstraint, V ValueConstraint](s *Services) Option[K, V] {
	return optionFunc[K, V](func(c *config[K, V]) {
		c.services = s
	})
}

// WithLogger sets the logger. The default discards everything.
func WithLogger[K KeyConstraint, V ValueConstraint](logger *zap.Logger) Option[K, V] {
	return optionFunc[K, V](func(c *config[K, V]) {
		c.logger = logger
	})
}

// WithValueEqual sets the equality deciding whether a write replaces a value
// with an equal one, which keeps the entry's countdown running.
// The default is DefaultValueEqual.
func WithValueEqual[K KeyConstraint, V ValueConstraint](equal func(a, b V) bool) Option[K, V] {
	return optionFunc[K, V](func(c *config[K, V]) {
		c.equal = equal
	})
}

// WithBackgroundContextProvider sets the context provider used when Get calls a loader.
// The provider must return a new context for each call.
// The default context provider is context.Background.
func WithBackgroundContextProvider[K KeyConstraint, V ValueConstraint](provider func() context.Context) Option[K, V] {
	return optionFunc[K, V](func(c *config[K, V]) {
		if provider != nil {
			c.context = provider
		}
	})
}
