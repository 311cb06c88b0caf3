// Copyright © 2026 The gravcore Authors.
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package sched_test

import (
	"sync/atomic"
	"testing"

	"github.com/js-arias/gravcore/sched"
)

func TestSequentialParallelFor(t *testing.T) {
	var sum int64
	sched.Sequential{}.ParallelFor(100, func(i int) {
		atomic.AddInt64(&sum, int64(i))
	})
	if sum != 4950 {
		t.Fatalf("got %d, want 4950", sum)
	}
}

func TestSequentialSubmitRunsBeforeReturn(t *testing.T) {
	ran := false
	task := sched.Sequential{}.Submit(func() { ran = true })
	task.Wait()
	if !ran {
		t.Fatalf("sequential submit should run inline")
	}
}

func TestPoolParallelFor(t *testing.T) {
	p := sched.NewPool(4)
	var sum int64
	p.ParallelFor(200, func(i int) {
		atomic.AddInt64(&sum, int64(i))
	})
	if sum != 19900 {
		t.Fatalf("got %d, want 19900", sum)
	}
}

func TestPoolSubmitWait(t *testing.T) {
	p := sched.NewPool(2)
	var n int64
	tasks := make([]sched.Task, 0, 10)
	for i := 0; i < 10; i++ {
		tasks = append(tasks, p.Submit(func() {
			atomic.AddInt64(&n, 1)
		}))
	}
	for _, task := range tasks {
		task.Wait()
	}
	if n != 10 {
		t.Fatalf("got %d, want 10", n)
	}
}
