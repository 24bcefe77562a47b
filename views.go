package expiringmap

import (
	"iter"

	"github.com/pajama10000/expiringmap/internal/iterutil"
)

// KeyView is a view of the keys of a Map.
type KeyView[K KeyConstraint, V ValueConstraint] struct {
	m *Map[K, V]
}

// Keys returns a view of the keys of the map.
func (m *Map[K, V]) Keys() *KeyView[K, V] {
	return &KeyView[K, V]{m: m}
}

// All returns an iterator over a snapshot of the keys, in expiration order.
func (v *KeyView[K, V]) All() iter.Seq[K] {
	return iterutil.Keys(v.m.All())
}

// Len returns the number of live keys.
func (v *KeyView[K, V]) Len() int {
	return v.m.Len()
}

// Contains reports whether key is present.
func (v *KeyView[K, V]) Contains(key K) bool {
	return v.m.ContainsKey(key)
}

// Remove deletes key from the map. It reports whether key was present.
func (v *KeyView[K, V]) Remove(key K) bool {
	_, ok := v.m.Remove(key)
	return ok
}

// ValueView is a view of the values of a Map.
type ValueView[K KeyConstraint, V ValueConstraint] struct {
	m *Map[K, V]
}

// Values returns a view of the values of the map.
func (m *Map[K, V]) Values() *ValueView[K, V] {
	return &ValueView[K, V]{m: m}
}

// All returns an iterator over a snapshot of the values, in expiration order.
func (v *ValueView[K, V]) All() iter.Seq[V] {
	return iterutil.Values(v.m.All())
}

// Len returns the number of live values.
func (v *ValueView[K, V]) Len() int {
	return v.m.Len()
}

// Contains reports whether any entry holds a value equal to value.
func (v *ValueView[K, V]) Contains(value V) bool {
	return v.m.ContainsValue(value)
}

// Remove deletes the first entry, in expiration order, holding a value equal
// to value. It reports whether an entry was deleted.
func (v *ValueView[K, V]) Remove(value V) bool {
	m := v.m
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	var key K
	found := false
	for e := range m.store.All() {
		if !e.IsExpired(now) && m.equal(e.Value, value) {
			key, found = e.Key, true
			break
		}
	}
	if found {
		m.store.Remove(key)
	}
	m.settleLocked(now)
	return found
}
