package workqueue_test

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/sync/errgroup"

	"github.com/pajama10000/expiringmap/internal/workqueue"
)

func TestQueue_SubmitRunsInOrder(t *testing.T) {
	t.Parallel()

	q := workqueue.New("test", 1)
	t.Cleanup(func() { _ = q.Close(context.Background()) })

	var mu sync.Mutex
	var got []int
	for i := 0; i < 100; i++ {
		if !q.Submit(func() {
			mu.Lock()
			defer mu.Unlock()
			got = append(got, i)
		}) {
			t.Fatal("Submit returned false on an open queue")
		}
	}
	q.Flush()

	want := make([]int, 100)
	for i := range want {
		want[i] = i
	}
	mu.Lock()
	defer mu.Unlock()
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("execution order mismatch (-want +got):\n%s", diff)
	}
}

func TestQueue_ConcurrentSubmit(t *testing.T) {
	t.Parallel()

	q := workqueue.New("test", 4)
	t.Cleanup(func() { _ = q.Close(context.Background()) })

	var count atomic.Int64
	var eg errgroup.Group
	for i := 0; i < 8; i++ {
		eg.Go(func() error {
			for j := 0; j < 250; j++ {
				q.Submit(func() { count.Add(1) })
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		t.Fatal(err)
	}
	q.Flush()

	if got := count.Load(); got != 2000 {
		t.Errorf("executed %d tasks, want 2000", got)
	}
}

func TestQueue_PanicIsolation(t *testing.T) {
	t.Parallel()

	q := workqueue.New("test", 1)
	t.Cleanup(func() { _ = q.Close(context.Background()) })

	ran := false
	q.Submit(func() { panic("boom") })
	q.Submit(func() { ran = true })
	q.Flush()

	if !ran {
		t.Error("task after a panicking task did not run")
	}
}

func TestQueue_GoexitReplacesWorker(t *testing.T) {
	t.Parallel()

	var spawned atomic.Int64
	q := workqueue.New("test", 1, workqueue.WithGoroutineFactory(func(fn func()) {
		spawned.Add(1)
		go fn()
	}))
	t.Cleanup(func() { _ = q.Close(context.Background()) })

	ran := false
	q.Submit(func() { runtime.Goexit() })
	q.Submit(func() { ran = true })
	q.Flush()

	if !ran {
		t.Error("task after runtime.Goexit did not run")
	}
	if got := spawned.Load(); got != 2 {
		t.Errorf("spawned %d workers, want 2", got)
	}
}

func TestQueue_Close(t *testing.T) {
	t.Parallel()

	q := workqueue.New("test", 2)

	var count atomic.Int64
	for i := 0; i < 10; i++ {
		q.Submit(func() { count.Add(1) })
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := q.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if got := count.Load(); got != 10 {
		t.Errorf("Close did not drain the backlog: executed %d tasks, want 10", got)
	}
	if q.Submit(func() {}) {
		t.Error("Submit must report false after Close")
	}
	q.Flush()
}

func TestQueue_CloseTimeout(t *testing.T) {
	t.Parallel()

	q := workqueue.New("test", 1)
	release := make(chan struct{})
	q.Submit(func() { <-release })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := q.Close(ctx); err != context.Canceled {
		t.Errorf("Close() = %v, want %v", err, context.Canceled)
	}
	close(release)
	if err := q.Close(context.Background()); err != nil {
		t.Errorf("second Close() = %v", err)
	}
}

func TestQueue_CloseUnstarted(t *testing.T) {
	t.Parallel()

	q := workqueue.New("test", 3)
	if err := q.Close(context.Background()); err != nil {
		t.Errorf("Close() = %v", err)
	}
	if got := q.Len(); got != 0 {
		t.Errorf("Len() = %d", got)
	}
}
