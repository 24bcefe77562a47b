// Package scheduler provides a shared one-shot timer facility.
//
// Timers are armed on a Clock and, once due, handed to a single dispatcher
// goroutine, so that every task scheduled on one Scheduler runs serially in
// firing order.
package scheduler

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/pajama10000/expiringmap/internal/workqueue"
)

const (
	taskPending int32 = iota
	taskQueued
	taskRunning
	taskDone
	taskCancelled
)

// Scheduler runs tasks after a delay on a single dispatcher goroutine.
type Scheduler struct {
	clock  Clock
	logger *zap.Logger
	spawn  workqueue.GoroutineFactory
	queue  *workqueue.Queue
}

// New creates a scheduler. The dispatcher goroutine is started when the first
// task fires.
func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		clock:  SystemClock,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt.apply(s)
	}

	queueOpts := []workqueue.Option{workqueue.WithLogger(s.logger)}
	if s.spawn != nil {
		queueOpts = append(queueOpts, workqueue.WithGoroutineFactory(s.spawn))
	}
	s.queue = workqueue.New("scheduler", 1, queueOpts...)
	return s
}

// Clock returns the clock the scheduler arms its timers on.
func (s *Scheduler) Clock() Clock {
	return s.clock
}

// Schedule arms a task that calls fn after delay. A negative delay is treated
// as zero. fn receives the task it belongs to.
func (s *Scheduler) Schedule(delay time.Duration, fn func(*Task)) *Task {
	if delay < 0 {
		delay = 0
	}
	t := &Task{
		scheduler: s,
		fn:        fn,
		deadline:  s.clock.Now().Add(delay),
	}
	t.timer = s.clock.AfterFunc(delay, t.fire)
	return t
}

// Flush blocks until every task that has already fired has finished running.
// It must not be called from a scheduled task.
func (s *Scheduler) Flush() {
	s.queue.Flush()
}

// Shutdown stops the dispatcher after the fired backlog has run. Tasks firing
// afterwards are dropped.
func (s *Scheduler) Shutdown(ctx context.Context) error {
	return s.queue.Close(ctx)
}

// Task is a scheduled one-shot callback.
type Task struct {
	scheduler *Scheduler
	fn        func(*Task)
	deadline  time.Time
	timer     Timer
	state     atomic.Int32
}

// Deadline returns the instant the task was scheduled for.
func (t *Task) Deadline() time.Time {
	return t.deadline
}

// Cancel prevents the task from running. It is best effort: it returns false
// if the callback has already started or the task was cancelled before.
func (t *Task) Cancel() bool {
	if t.state.CompareAndSwap(taskPending, taskCancelled) {
		t.timer.Stop()
		return true
	}
	return t.state.CompareAndSwap(taskQueued, taskCancelled)
}

// Cancelled reports whether Cancel succeeded.
func (t *Task) Cancelled() bool {
	return t.state.Load() == taskCancelled
}

func (t *Task) fire() {
	if !t.state.CompareAndSwap(taskPending, taskQueued) {
		return
	}
	if !t.scheduler.queue.Submit(t.run) {
		t.scheduler.logger.Debug("scheduler is shut down, dropping task", zap.Time("deadline", t.deadline))
	}
}

func (t *Task) run() {
	if !t.state.CompareAndSwap(taskQueued, taskRunning) {
		return
	}
	defer t.state.Store(taskDone)
	t.fn(t)
}
