package sched

import "time"

// Task is a handle to a scheduled callback.
type Task interface {
	// Cancel prevents the callback from running.
	// Returns true if the call stopped the callback, false if it already
	// ran or was cancelled before.
	Cancel() bool
}

// Scheduler schedules work onto a page's event loop.
//
// Callbacks passed to After and Dispatch always run on the loop goroutine,
// never concurrently with each other.
type Scheduler interface {
	// Now returns the scheduler's notion of the current time.
	Now() time.Time

	// After runs fn on the loop no earlier than d from now.
	After(d time.Duration, fn func()) Task

	// Dispatch queues fn to run on the loop as soon as possible.
	// Safe to call from any goroutine.
	Dispatch(fn func())
}

// nopTask is returned when a callback could not be scheduled.
type nopTask struct{}

func (nopTask) Cancel() bool { return false }
