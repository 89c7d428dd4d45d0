package sched

import (
	"container/heap"
	"sync"
	"time"
)

// Virtual is a deterministic Scheduler for tests.
//
// Nothing runs until the test calls Advance or Flush. Tasks run in due-time
// order; tasks with the same due time run in scheduling order.
type Virtual struct {
	mu    sync.Mutex
	now   time.Time
	seq   uint64
	tasks taskHeap
}

// NewVirtual creates a virtual clock starting at start.
func NewVirtual(start time.Time) *Virtual {
	return &Virtual{now: start}
}

// Now returns the virtual time.
func (v *Virtual) Now() time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.now
}

// After schedules fn at now+d.
func (v *Virtual) After(d time.Duration, fn func()) Task {
	if d < 0 {
		d = 0
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.seq++
	t := &timedTask{due: v.now.Add(d), seq: v.seq, fn: fn, mu: &v.mu}
	heap.Push(&v.tasks, t)
	return t
}

// Dispatch schedules fn at the current virtual time.
func (v *Virtual) Dispatch(fn func()) {
	v.After(0, fn)
}

// Advance moves the clock forward by d, running every task that becomes due.
// Tasks scheduled by running tasks also run if they fall inside the window.
// Returns the number of callbacks run.
func (v *Virtual) Advance(d time.Duration) int {
	v.mu.Lock()
	target := v.now.Add(d)
	v.mu.Unlock()

	ran := 0
	for {
		v.mu.Lock()
		if v.tasks.Len() == 0 || v.tasks[0].due.After(target) {
			v.now = target
			v.mu.Unlock()
			return ran
		}
		t := heap.Pop(&v.tasks).(*timedTask)
		if t.due.After(v.now) {
			v.now = t.due
		}
		if t.done {
			v.mu.Unlock()
			continue
		}
		t.done = true
		v.mu.Unlock()

		t.fn()
		ran++
	}
}

// Flush runs every task due at the current time without moving the clock.
func (v *Virtual) Flush() int {
	return v.Advance(0)
}

// Pending returns the number of scheduled tasks that have not run or been
// cancelled.
func (v *Virtual) Pending() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	n := 0
	for _, t := range v.tasks {
		if !t.done {
			n++
		}
	}
	return n
}
