// Copyright © 2026 The gravcore Authors.
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package sched

// Sequential is a Scheduler that runs every closure inline, on the
// caller's goroutine. Useful for tests and for small problems where the
// overhead of goroutine fan-out outweighs the benefit.
type Sequential struct{}

type doneTask struct{}

func (doneTask) Wait() {}

// Submit runs fn immediately and returns an already-complete Task.
func (Sequential) Submit(fn func()) Task {
	fn()
	return doneTask{}
}

// ParallelFor runs body(i) for every i in [0,n) in order.
func (Sequential) ParallelFor(n int, body func(i int)) {
	for i := 0; i < n; i++ {
		body(i)
	}
}
