package storage

import "iter"

// Store holds the entries of one map.
type Store[K comparable, V any] interface {
	// Get returns the entry for key, or nil.
	Get(key K) *Entry[K, V]

	// Put inserts e, replacing and returning any entry with the same key.
	Put(e *Entry[K, V]) (prev *Entry[K, V], replaced bool)

	// Remove deletes and returns the entry for key, or nil.
	Remove(key K) *Entry[K, V]

	// Contains reports whether key is stored.
	Contains(key K) bool

	// Len returns the number of entries.
	Len() int

	// First returns the entry next in line for expiration, or nil if the store
	// is empty. Entries that never expire sort after all others.
	First() *Entry[K, V]

	// Update applies fn to e, a stored entry, and repositions it. fn may change
	// Value, Policy, Duration and ExpiresAt but not Key.
	Update(e *Entry[K, V], fn func(*Entry[K, V]))

	// All iterates entries in store order.
	All() iter.Seq[*Entry[K, V]]

	// Clear removes every entry.
	Clear()
}
