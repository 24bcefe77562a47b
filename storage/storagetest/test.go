// storagetest package provides generic test cases for entry store implementations.
package storagetest

import (
	"fmt"
	"slices"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/sync/errgroup"

	"github.com/pajama10000/expiringmap/expiration"
	"github.com/pajama10000/expiringmap/storage"
)

var base = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// NewEntry builds a Created entry with a one minute duration written at
// base+offset.
func NewEntry(key string, value int, offset time.Duration) *storage.Entry[string, int] {
	e := &storage.Entry[string, int]{
		Key:      key,
		Value:    value,
		Policy:   expiration.Created,
		Duration: time.Minute,
	}
	e.Reset(base.Add(offset))
	return e
}

// Keys collects the keys of s in store order.
func Keys(s storage.Store[string, int]) []string {
	var keys []string
	for e := range s.All() {
		keys = append(keys, e.Key)
	}
	return keys
}

// BenchmarkPut benchmarks the Put method of the store.
func BenchmarkPut(b *testing.B, s storage.Store[string, int], keys []string) {
	entries := make([]*storage.Entry[string, int], len(keys))
	for i, key := range keys {
		entries[i] = NewEntry(key, i, time.Duration(i)*time.Millisecond)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Put(entries[i%len(entries)])
	}
}

// TestStore runs the behavior every store must share. Entries are written with
// one common duration, so deadlines follow write order.
func TestStore(t *testing.T, provider func() storage.Store[string, int]) {
	t.Run("Store", func(t *testing.T) {
		t.Parallel()

		t.Run("PutGetRemove", func(t *testing.T) {
			t.Parallel()

			s := provider()
			if e := s.Get("a"); e != nil {
				t.Errorf("Get on empty store = %+v", e)
			}
			if s.First() != nil {
				t.Error("First on empty store should be nil")
			}

			a := NewEntry("a", 1, 0)
			if prev, replaced := s.Put(a); replaced || prev != nil {
				t.Errorf("Put(new) = (%v, %v), want (nil, false)", prev, replaced)
			}
			if got := s.Get("a"); got != a {
				t.Errorf("Get(a) = %+v, want %+v", got, a)
			}
			if !s.Contains("a") || s.Contains("b") {
				t.Error("Contains mismatch")
			}
			if got := s.Len(); got != 1 {
				t.Errorf("Len() = %d, want 1", got)
			}

			if got := s.Remove("a"); got != a {
				t.Errorf("Remove(a) = %+v, want %+v", got, a)
			}
			if got := s.Remove("a"); got != nil {
				t.Errorf("second Remove(a) = %+v, want nil", got)
			}
			if got := s.Len(); got != 0 {
				t.Errorf("Len() after Remove = %d, want 0", got)
			}
		})

		t.Run("Replace", func(t *testing.T) {
			t.Parallel()

			s := provider()
			a1 := NewEntry("a", 1, 0)
			b := NewEntry("b", 2, time.Second)
			a2 := NewEntry("a", 3, 2*time.Second)
			s.Put(a1)
			s.Put(b)

			prev, replaced := s.Put(a2)
			if !replaced || prev != a1 {
				t.Errorf("Put(replace) = (%+v, %v), want (%+v, true)", prev, replaced, a1)
			}
			if got := s.Len(); got != 2 {
				t.Errorf("Len() = %d, want 2", got)
			}
			if got := s.First(); got != b {
				t.Errorf("First() = %+v, want %+v", got, b)
			}
			if diff := cmp.Diff([]string{"b", "a"}, Keys(s)); diff != "" {
				t.Errorf("order mismatch (-want +got):\n%s", diff)
			}
		})

		t.Run("First", func(t *testing.T) {
			t.Parallel()

			s := provider()
			for i, key := range []string{"a", "b", "c", "d"} {
				s.Put(NewEntry(key, i, time.Duration(i)*time.Second))
			}
			if diff := cmp.Diff([]string{"a", "b", "c", "d"}, Keys(s)); diff != "" {
				t.Errorf("order mismatch (-want +got):\n%s", diff)
			}

			for _, want := range []string{"a", "b", "c", "d"} {
				first := s.First()
				if first == nil || first.Key != want {
					t.Fatalf("First() = %+v, want key %q", first, want)
				}
				s.Remove(first.Key)
			}
			if s.First() != nil {
				t.Error("First on drained store should be nil")
			}
		})

		t.Run("Update", func(t *testing.T) {
			t.Parallel()

			s := provider()
			a := NewEntry("a", 1, 0)
			s.Put(a)
			s.Put(NewEntry("b", 2, time.Second))
			s.Put(NewEntry("c", 3, 2*time.Second))

			s.Update(a, func(e *storage.Entry[string, int]) {
				e.Value = 10
				e.Reset(base.Add(3 * time.Second))
			})

			if got := s.Get("a"); got != a || got.Value != 10 {
				t.Errorf("Get(a) after Update = %+v", got)
			}
			if got := s.First(); got == nil || got.Key != "b" {
				t.Errorf("First() after Update = %+v, want key b", got)
			}
			if diff := cmp.Diff([]string{"b", "c", "a"}, Keys(s)); diff != "" {
				t.Errorf("order mismatch (-want +got):\n%s", diff)
			}
		})

		t.Run("AllBreak", func(t *testing.T) {
			t.Parallel()

			s := provider()
			for i, key := range []string{"a", "b", "c"} {
				s.Put(NewEntry(key, i, time.Duration(i)*time.Second))
			}
			var seen []string
			for e := range s.All() {
				seen = append(seen, e.Key)
				if len(seen) == 2 {
					break
				}
			}
			if diff := cmp.Diff([]string{"a", "b"}, seen); diff != "" {
				t.Errorf("seen mismatch (-want +got):\n%s", diff)
			}
		})

		t.Run("Clear", func(t *testing.T) {
			t.Parallel()

			s := provider()
			for i, key := range []string{"a", "b", "c"} {
				s.Put(NewEntry(key, i, time.Duration(i)*time.Second))
			}
			s.Clear()
			if got := s.Len(); got != 0 {
				t.Errorf("Len() after Clear = %d, want 0", got)
			}
			if s.First() != nil || s.Contains("a") {
				t.Error("Clear left entries behind")
			}

			s.Put(NewEntry("d", 4, 0))
			if diff := cmp.Diff([]string{"d"}, Keys(s)); diff != "" {
				t.Errorf("order after Clear mismatch (-want +got):\n%s", diff)
			}
		})

		t.Run("ConcurrentReads", func(t *testing.T) {
			t.Parallel()

			s := provider()
			keys := make([]string, 64)
			for i := range keys {
				keys[i] = fmt.Sprintf("key-%02d", i)
				s.Put(NewEntry(keys[i], i, time.Duration(i)*time.Millisecond))
			}

			var eg errgroup.Group
			for i, key := range keys {
				eg.Go(func() error {
					e := s.Get(key)
					if e == nil || e.Value != i {
						return fmt.Errorf("Get(%s) = %+v, want value %d", key, e, i)
					}
					if !s.Contains(key) {
						return fmt.Errorf("Contains(%s) = false", key)
					}
					if got := Keys(s); !slices.Equal(got, keys) {
						return fmt.Errorf("All() order = %v", got)
					}
					return nil
				})
			}
			if err := eg.Wait(); err != nil {
				t.Fatal(err)
			}
		})
	})
}
