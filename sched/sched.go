// Copyright © 2026 The gravcore Authors.
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package sched defines the task-scheduler abstraction used by the k-d
// tree build and the Barnes-Hut tree walk to bound the amount of
// goroutine fan-out near the root of a recursive, depth-limited parallel
// algorithm: submit a closure, get back a handle to wait on, or run a
// batch of independent iterations in parallel.
package sched

// Task is a handle to work submitted to a Scheduler.
type Task interface {
	// Wait blocks until the submitted closure has finished running.
	Wait()
}

// Scheduler runs closures, either one at a time via Submit or in a batch
// via ParallelFor. Implementations decide how much real concurrency to
// allow; callers only rely on Submit/Wait ordering and ParallelFor being a
// barrier.
type Scheduler interface {
	// Submit starts fn, possibly asynchronously, and returns a Task that
	// can be waited on for completion.
	Submit(fn func()) Task

	// ParallelFor calls body(i) for every i in [0,n), and returns once
	// all calls have completed.
	ParallelFor(n int, body func(i int))
}
