// Package workqueue runs submitted functions on a fixed set of lazily started
// worker goroutines, in submission order per worker.
//
// Submission never blocks: the backlog is an unbounded FIFO. A panicking task
// is recovered and logged, and a task calling runtime.Goexit is replaced by a
// fresh worker, so one misbehaving callback cannot take the queue down.
package workqueue

import (
	"context"
	"sync"

	"github.com/gammazero/deque"
	"go.uber.org/zap"

	"github.com/pajama10000/expiringmap/internal/panicutil"
)

// GoroutineFactory launches fn on a new goroutine.
type GoroutineFactory func(fn func())

func spawn(fn func()) {
	go fn()
}

// Queue is an unbounded work queue served by a fixed number of workers.
type Queue struct {
	name    string
	workers int
	spawn   GoroutineFactory
	logger  *zap.Logger

	mu      sync.Mutex
	ready   *sync.Cond // signalled when a task is queued or the queue is closed
	idle    *sync.Cond // broadcast when a worker goes idle or exits
	tasks   *deque.Deque[func()]
	started bool
	running int
	busy    int
	closed  bool
}

// New creates a queue served by workers goroutines. Workers are started on the
// first Submit.
func New(name string, workers int, opts ...Option) *Queue {
	if workers <= 0 {
		workers = 1
	}
	q := &Queue{
		name:    name,
		workers: workers,
		spawn:   spawn,
		logger:  zap.NewNop(),
		tasks:   deque.New[func()](),
	}
	for _, opt := range opts {
		opt.apply(q)
	}
	q.ready = sync.NewCond(&q.mu)
	q.idle = sync.NewCond(&q.mu)
	return q
}

// Submit queues task for execution. It reports false if the queue is closed.
func (q *Queue) Submit(task func()) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	if !q.started {
		q.started = true
		for i := 0; i < q.workers; i++ {
			q.startWorkerLocked()
		}
	}
	q.tasks.PushBack(task)
	q.ready.Signal()
	return true
}

// Len returns the number of queued tasks that have not started yet.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.tasks.Len()
}

// Flush blocks until every queued task has finished.
// It must not be called from a task running on the same queue.
func (q *Queue) Flush() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.tasks.Len() > 0 || q.busy > 0 {
		if q.running == 0 {
			// closed with nobody left to drain the backlog
			return
		}
		q.idle.Wait()
	}
}

// Close stops accepting tasks, lets the workers drain the backlog and waits for
// them to exit or for ctx to be done.
func (q *Queue) Close(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		q.ready.Broadcast()
	}
	q.mu.Unlock()

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		q.mu.Lock()
		defer q.mu.Unlock()
		for q.running > 0 {
			q.idle.Wait()
		}
	}()

	select {
	case <-stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *Queue) startWorkerLocked() {
	q.running++
	q.spawn(q.work)
}

func (q *Queue) work() {
	q.mu.Lock()
	for {
		for q.tasks.Len() == 0 && !q.closed {
			q.ready.Wait()
		}
		if q.tasks.Len() == 0 {
			q.running--
			q.idle.Broadcast()
			q.mu.Unlock()
			return
		}

		task := q.tasks.PopFront()
		q.busy++
		q.mu.Unlock()

		if err := panicutil.Guard(task, q.replaceWorker); err != nil {
			q.logger.Error("recovered panic in queued task", zap.String("queue", q.name), zap.Error(err))
		}

		q.mu.Lock()
		q.busy--
		q.idle.Broadcast()
	}
}

// replaceWorker runs on a worker goroutine that is unwinding through
// runtime.Goexit.
func (q *Queue) replaceWorker() {
	q.logger.Warn("queued task called runtime.Goexit", zap.String("queue", q.name))

	q.mu.Lock()
	defer q.mu.Unlock()
	q.busy--
	q.running--
	if !q.closed || q.tasks.Len() > 0 {
		q.startWorkerLocked()
	}
	q.idle.Broadcast()
}
