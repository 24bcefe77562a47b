package expiringmap

import (
	"context"
	"time"

	"github.com/pajama10000/expiringmap/expiration"
)

// KeyConstraint is an interface for key constraints.
type KeyConstraint interface {
	comparable
}

// ValueConstraint is an interface for value constraints.
type ValueConstraint interface {
	any
}

// ExpirationListener is notified when an entry leaves the map because its
// deadline passed or because it was evicted to respect the maximum size.
// Explicit removals, replacements and Clear do not notify.
type ExpirationListener[K KeyConstraint, V ValueConstraint] interface {
	Expired(key K, value V)
}

// ExpirationListenerFunc is a function type that implements the ExpirationListener interface.
type ExpirationListenerFunc[K KeyConstraint, V ValueConstraint] func(key K, value V)

// Expired calls the function.
func (f ExpirationListenerFunc[K, V]) Expired(key K, value V) {
	f(key, value)
}

// EntryLoader materializes the value for a missing key.
// It returns an error wrapping ErrNotFound if the key has no value.
type EntryLoader[K KeyConstraint, V ValueConstraint] interface {
	Load(ctx context.Context, key K) (V, error)
}

// EntryLoaderFunc is a function type that implements the EntryLoader interface.
type EntryLoaderFunc[K KeyConstraint, V ValueConstraint] func(ctx context.Context, key K) (V, error)

// Load calls the function.
func (f EntryLoaderFunc[K, V]) Load(ctx context.Context, key K) (V, error) {
	return f(ctx, key)
}

// ExpiringValue is a value paired with optional expiration settings that
// override the map defaults for a single write.
type ExpiringValue[V ValueConstraint] struct {
	// Value is the value to store.
	Value V

	// Policy overrides the default expiration policy when it is not
	// expiration.Unspecified.
	Policy expiration.Policy

	// Duration overrides the default expiration duration when it is positive.
	Duration time.Duration
}

// ExpiringEntryLoader materializes the value for a missing key together with
// its own expiration settings. Maps configured with one use variable
// expiration.
// It returns an error wrapping ErrNotFound if the key has no value.
type ExpiringEntryLoader[K KeyConstraint, V ValueConstraint] interface {
	Load(ctx context.Context, key K) (ExpiringValue[V], error)
}

// ExpiringEntryLoaderFunc is a function type that implements the ExpiringEntryLoader interface.
type ExpiringEntryLoaderFunc[K KeyConstraint, V ValueConstraint] func(ctx context.Context, key K) (ExpiringValue[V], error)

// Load calls the function.
func (f ExpiringEntryLoaderFunc[K, V]) Load(ctx context.Context, key K) (ExpiringValue[V], error) {
	return f(ctx, key)
}
