package sched

import (
	"sync"
	"time"
)

// timedTask is a callback waiting in a taskHeap. mu is the owning
// scheduler's lock; done is guarded by it.
type timedTask struct {
	due  time.Time
	seq  uint64
	fn   func()
	done bool
	mu   *sync.Mutex
}

func (t *timedTask) Cancel() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return false
	}
	t.done = true
	return true
}

// taskHeap orders tasks by due time, then by scheduling order.
type taskHeap []*timedTask

func (h taskHeap) Len() int { return len(h) }

func (h taskHeap) Less(i, j int) bool {
	if h[i].due.Equal(h[j].due) {
		return h[i].seq < h[j].seq
	}
	return h[i].due.Before(h[j].due)
}

func (h taskHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *taskHeap) Push(x any) { *h = append(*h, x.(*timedTask)) }

func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return t
}
