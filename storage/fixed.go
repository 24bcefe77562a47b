package storage

import (
	"iter"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

type fixedStore[K comparable, V any] struct {
	entries *orderedmap.OrderedMap[K, *Entry[K, V]]
}

// NewFixed creates an insertion-ordered store. A replaced or updated entry
// moves to the back, so First is the least recently written entry.
func NewFixed[K comparable, V any]() Store[K, V] {
	return &fixedStore[K, V]{entries: orderedmap.New[K, *Entry[K, V]]()}
}

var _ Store[uint8, struct{}] = (*fixedStore[uint8, struct{}])(nil)

func (s *fixedStore[K, V]) Get(key K) *Entry[K, V] {
	e, _ := s.entries.Get(key)
	return e
}

func (s *fixedStore[K, V]) Put(e *Entry[K, V]) (*Entry[K, V], bool) {
	prev, replaced := s.entries.Delete(e.Key)
	s.entries.Set(e.Key, e)
	return prev, replaced
}

func (s *fixedStore[K, V]) Remove(key K) *Entry[K, V] {
	e, _ := s.entries.Delete(key)
	return e
}

func (s *fixedStore[K, V]) Contains(key K) bool {
	_, ok := s.entries.Get(key)
	return ok
}

func (s *fixedStore[K, V]) Len() int {
	return s.entries.Len()
}

func (s *fixedStore[K, V]) First() *Entry[K, V] {
	pair := s.entries.Oldest()
	if pair == nil {
		return nil
	}
	return pair.Value
}

func (s *fixedStore[K, V]) Update(e *Entry[K, V], fn func(*Entry[K, V])) {
	fn(e)
	_ = s.entries.MoveToBack(e.Key)
}

func (s *fixedStore[K, V]) All() iter.Seq[*Entry[K, V]] {
	return func(yield func(*Entry[K, V]) bool) {
		for pair := s.entries.Oldest(); pair != nil; pair = pair.Next() {
			if !yield(pair.Value) {
				return
			}
		}
	}
}

func (s *fixedStore[K, V]) Clear() {
	s.entries = orderedmap.New[K, *Entry[K, V]]()
}
