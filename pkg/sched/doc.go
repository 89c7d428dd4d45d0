// Package sched provides the single-threaded scheduling model every page
// controller runs on.
//
// A page session owns exactly one event loop. User events, timer callbacks
// and network completions are all funneled through it, so controller state
// is only ever touched from one goroutine and needs no locking.
//
// Two implementations exist:
//
//   - Loop runs callbacks on a dedicated goroutine using wall-clock timers.
//   - Virtual runs callbacks synchronously when the test advances its clock.
//
// Example:
//
//	clock := sched.NewVirtual(time.Unix(0, 0))
//	task := clock.After(5*time.Second, func() { fmt.Println("fired") })
//	clock.Advance(4 * time.Second) // nothing
//	clock.Advance(time.Second)     // prints "fired"
//	task.Cancel()                  // false: already ran
package sched
