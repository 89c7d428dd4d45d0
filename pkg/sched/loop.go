package sched

import (
	"container/heap"
	"context"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultQueueSize is the dispatch queue capacity used when none is given.
const DefaultQueueSize = 256

// Loop is a wall-clock Scheduler backed by a single goroutine.
//
// Dispatched callbacks go through a bounded queue and are dropped when it is
// full. Timers are kept in a heap owned by the loop and are never dropped;
// under load they only run late.
type Loop struct {
	queue  chan func()
	wake   chan struct{}
	done   chan struct{}
	closed atomic.Bool
	once   sync.Once
	logger *slog.Logger

	mu     sync.Mutex
	seq    uint64
	timers taskHeap
}

// NewLoop creates a loop. Call Run to start processing.
func NewLoop(queueSize int, logger *slog.Logger) *Loop {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		queue:  make(chan func(), queueSize),
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
		logger: logger,
	}
}

// Run processes timers and queued callbacks until ctx is cancelled or Close
// is called. Due timers run before the next queued callback.
func (l *Loop) Run(ctx context.Context) error {
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		l.runDue()

		var fire <-chan time.Time
		if wait, ok := l.nextDue(); ok {
			timer.Reset(wait)
			fire = timer.C
		} else {
			timer.Stop()
		}

		select {
		case <-ctx.Done():
			l.Close()
			return ctx.Err()
		case <-l.done:
			return nil
		case fn := <-l.queue:
			l.invoke(fn)
		case <-l.wake:
		case <-fire:
		}
	}
}

// runDue runs every timer whose due time has passed.
func (l *Loop) runDue() {
	for {
		l.mu.Lock()
		if l.timers.Len() == 0 || l.timers[0].due.After(time.Now()) {
			l.mu.Unlock()
			return
		}
		t := heap.Pop(&l.timers).(*timedTask)
		if t.done {
			l.mu.Unlock()
			continue
		}
		t.done = true
		l.mu.Unlock()

		l.invoke(t.fn)
		if l.closed.Load() {
			return
		}
	}
}

// nextDue returns how long until the earliest pending timer.
func (l *Loop) nextDue() (time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for l.timers.Len() > 0 && l.timers[0].done {
		heap.Pop(&l.timers)
	}
	if l.timers.Len() == 0 {
		return 0, false
	}
	return max(time.Until(l.timers[0].due), 0), true
}

// invoke runs fn, containing panics so one bad handler does not kill the page.
func (l *Loop) invoke(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("loop callback panicked",
				"panic", r,
				"stack", string(debug.Stack()),
			)
		}
	}()
	fn()
}

// Close stops the loop. Pending callbacks and timers are discarded.
func (l *Loop) Close() {
	l.once.Do(func() {
		l.closed.Store(true)
		close(l.done)
	})
}

// Now returns the wall-clock time.
func (l *Loop) Now() time.Time {
	return time.Now()
}

// Dispatch queues fn onto the loop. Calls after Close are discarded, and so
// are calls made while the queue is full.
func (l *Loop) Dispatch(fn func()) {
	if l.closed.Load() {
		return
	}
	select {
	case l.queue <- fn:
	case <-l.done:
	default:
		l.logger.Warn("dispatch queue full, discarding callback")
	}
}

// After schedules fn on the loop after d.
func (l *Loop) After(d time.Duration, fn func()) Task {
	if l.closed.Load() {
		return nopTask{}
	}
	l.mu.Lock()
	l.seq++
	t := &timedTask{due: time.Now().Add(max(d, 0)), seq: l.seq, fn: fn, mu: &l.mu}
	heap.Push(&l.timers, t)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return t
}

// Pending returns the number of timers that have not run or been cancelled.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, t := range l.timers {
		if !t.done {
			n++
		}
	}
	return n
}
