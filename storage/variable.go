package storage

import (
	"iter"

	"github.com/google/btree"
)

const btreeDegree = 32

type variableStore[K comparable, V any] struct {
	index map[K]*Entry[K, V]
	order *btree.BTreeG[*Entry[K, V]]
	seq   uint64
}

// NewVariable creates a store ordered by deadline. Entries sharing a deadline
// keep write order, and entries that never expire sort last.
func NewVariable[K comparable, V any]() Store[K, V] {
	return &variableStore[K, V]{
		index: make(map[K]*Entry[K, V]),
		order: btree.NewG(btreeDegree, lessEntry[K, V]),
	}
}

var _ Store[uint8, struct{}] = (*variableStore[uint8, struct{}])(nil)

func lessEntry[K comparable, V any](a, b *Entry[K, V]) bool {
	if ae, be := a.Expires(), b.Expires(); ae != be {
		return ae
	} else if ae && !a.ExpiresAt.Equal(b.ExpiresAt) {
		return a.ExpiresAt.Before(b.ExpiresAt)
	}
	return a.seq < b.seq
}

func (s *variableStore[K, V]) nextSeq() uint64 {
	s.seq++
	return s.seq
}

func (s *variableStore[K, V]) Get(key K) *Entry[K, V] {
	return s.index[key]
}

func (s *variableStore[K, V]) Put(e *Entry[K, V]) (*Entry[K, V], bool) {
	prev, replaced := s.index[e.Key]
	if replaced {
		s.order.Delete(prev)
	}
	e.seq = s.nextSeq()
	s.index[e.Key] = e
	s.order.ReplaceOrInsert(e)
	return prev, replaced
}

func (s *variableStore[K, V]) Remove(key K) *Entry[K, V] {
	e, ok := s.index[key]
	if !ok {
		return nil
	}
	delete(s.index, key)
	s.order.Delete(e)
	return e
}

func (s *variableStore[K, V]) Contains(key K) bool {
	_, ok := s.index[key]
	return ok
}

func (s *variableStore[K, V]) Len() int {
	return len(s.index)
}

func (s *variableStore[K, V]) First() *Entry[K, V] {
	e, _ := s.order.Min()
	return e
}

func (s *variableStore[K, V]) Update(e *Entry[K, V], fn func(*Entry[K, V])) {
	// the tree locates e by its current ordering fields
	s.order.Delete(e)
	fn(e)
	e.seq = s.nextSeq()
	s.order.ReplaceOrInsert(e)
}

func (s *variableStore[K, V]) All() iter.Seq[*Entry[K, V]] {
	return func(yield func(*Entry[K, V]) bool) {
		s.order.Ascend(func(e *Entry[K, V]) bool {
			return yield(e)
		})
	}
}

func (s *variableStore[K, V]) Clear() {
	clear(s.index)
	s.order.Clear(false)
}
