package storage_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/pajama10000/expiringmap/expiration"
	"github.com/pajama10000/expiringmap/storage"
	"github.com/pajama10000/expiringmap/storage/storagetest"
)

func benchmarkKeys() []string {
	keys := make([]string, 1024)
	for i := range keys {
		keys[i] = fmt.Sprintf("key-%d", i%256)
	}
	return keys
}

func BenchmarkPut(b *testing.B) {
	b.Run("Fixed", func(b *testing.B) {
		storagetest.BenchmarkPut(b, storage.NewFixed[string, int](), benchmarkKeys())
	})
	b.Run("Variable", func(b *testing.B) {
		storagetest.BenchmarkPut(b, storage.NewVariable[string, int](), benchmarkKeys())
	})
}

func TestFixed(t *testing.T) {
	t.Parallel()
	storagetest.TestStore(t, storage.NewFixed[string, int])
}

func TestVariable(t *testing.T) {
	t.Parallel()
	storagetest.TestStore(t, storage.NewVariable[string, int])
}

func TestVariable_Ordering(t *testing.T) {
	t.Parallel()

	at := func(key string, value int, policy expiration.Policy, d time.Duration) *storage.Entry[string, int] {
		e := &storage.Entry[string, int]{Key: key, Value: value, Policy: policy, Duration: d}
		e.Reset(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
		return e
	}

	for _, tt := range []struct {
		name    string
		entries []*storage.Entry[string, int]
		want    []string
	}{
		{
			name: "ByDeadline",
			entries: []*storage.Entry[string, int]{
				at("slow", 1, expiration.Created, 100*time.Second),
				at("fast", 2, expiration.Created, time.Second),
				at("mid", 3, expiration.Accessed, 10*time.Second),
			},
			want: []string{"fast", "mid", "slow"},
		},
		{
			name: "TiesKeepWriteOrder",
			entries: []*storage.Entry[string, int]{
				at("b", 1, expiration.Created, time.Second),
				at("a", 2, expiration.Created, time.Second),
				at("c", 3, expiration.Created, time.Second),
			},
			want: []string{"b", "a", "c"},
		},
		{
			name: "NeverExpiringLast",
			entries: []*storage.Entry[string, int]{
				at("forever1", 1, expiration.None, 0),
				at("late", 2, expiration.Created, time.Hour),
				at("forever2", 3, expiration.None, 0),
				at("soon", 4, expiration.Created, time.Second),
			},
			want: []string{"soon", "late", "forever1", "forever2"},
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := storage.NewVariable[string, int]()
			for _, e := range tt.entries {
				s.Put(e)
			}
			if diff := cmp.Diff(tt.want, storagetest.Keys(s)); diff != "" {
				t.Errorf("order mismatch (-want +got):\n%s", diff)
			}
			if got := s.First(); got == nil || got.Key != tt.want[0] {
				t.Errorf("First() = %+v, want key %q", got, tt.want[0])
			}
		})
	}
}

func TestVariable_UpdatePolicy(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := storage.NewVariable[string, int]()
	x := &storage.Entry[string, int]{Key: "x", Value: 1, Policy: expiration.Created, Duration: time.Second}
	x.Reset(now)
	y := &storage.Entry[string, int]{Key: "y", Value: 2, Policy: expiration.Created, Duration: 100 * time.Second}
	y.Reset(now)
	s.Put(x)
	s.Put(y)

	s.Update(x, func(e *storage.Entry[string, int]) {
		e.Policy = expiration.None
		e.Reset(now)
	})
	if got := s.First(); got != y {
		t.Errorf("First() = %+v, want y", got)
	}

	s.Update(x, func(e *storage.Entry[string, int]) {
		e.Policy = expiration.Created
		e.Duration = 10 * time.Second
		e.Reset(now)
	})
	if diff := cmp.Diff([]string{"x", "y"}, storagetest.Keys(s)); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestFixed_FirstIgnoresDuration(t *testing.T) {
	t.Parallel()

	// the fixed store trusts write order and never looks at deadlines
	s := storage.NewFixed[string, int]()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	long := &storage.Entry[string, int]{Key: "long", Value: 1, Policy: expiration.Created, Duration: time.Hour}
	long.Reset(now)
	short := &storage.Entry[string, int]{Key: "short", Value: 2, Policy: expiration.Created, Duration: time.Second}
	short.Reset(now)
	s.Put(long)
	s.Put(short)

	if got := s.First(); got != long {
		t.Errorf("First() = %+v, want the oldest entry", got)
	}
}

func TestEntry(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, tt := range []struct {
		policy     expiration.Policy
		expires    bool
		expiredAt0 bool
		expiredAtD bool
	}{
		{expiration.Created, true, false, true},
		{expiration.Accessed, true, false, true},
		{expiration.None, false, false, false},
	} {
		t.Run(tt.policy.String(), func(t *testing.T) {
			t.Parallel()

			e := &storage.Entry[string, int]{Key: "k", Policy: tt.policy, Duration: time.Second}
			e.Reset(now)
			if got := e.Expires(); got != tt.expires {
				t.Errorf("Expires() = %v, want %v", got, tt.expires)
			}
			if got := e.IsExpired(now); got != tt.expiredAt0 {
				t.Errorf("IsExpired(now) = %v, want %v", got, tt.expiredAt0)
			}
			if got := e.IsExpired(now.Add(time.Second)); got != tt.expiredAtD {
				t.Errorf("IsExpired(now+d) = %v, want %v", got, tt.expiredAtD)
			}
		})
	}
}
