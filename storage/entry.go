package storage

import (
	"time"

	"github.com/pajama10000/expiringmap/expiration"
)

// Entry is a single association plus its expiration bookkeeping.
type Entry[K comparable, V any] struct {
	Key       K
	Value     V
	Policy    expiration.Policy
	Duration  time.Duration
	ExpiresAt time.Time

	// seq orders entries sharing a deadline; assigned by the variable store.
	seq uint64
}

// Expires reports whether the entry is subject to time based expiration.
func (e *Entry[K, V]) Expires() bool {
	return e.Policy.Expires()
}

// IsExpired reports whether the entry is due at now.
func (e *Entry[K, V]) IsExpired(now time.Time) bool {
	return e.Policy.IsExpired(now, e.ExpiresAt)
}

// Reset restarts the countdown from now.
func (e *Entry[K, V]) Reset(now time.Time) {
	e.ExpiresAt = e.Policy.Deadline(now, e.Duration)
}
