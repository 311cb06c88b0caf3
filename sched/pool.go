// Copyright © 2026 The gravcore Authors.
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package sched

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Pool is a Scheduler backed by a bounded pool of goroutines. It caps the
// number of in-flight closures at its configured worker count, whether
// they arrive through Submit or ParallelFor.
type Pool struct {
	ctx context.Context
	sem *semaphore.Weighted
}

// NewPool returns a Pool bounded to workers concurrent closures. A
// non-positive value defaults to runtime.NumCPU().
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Pool{
		ctx: context.Background(),
		sem: semaphore.NewWeighted(int64(workers)),
	}
}

type poolTask struct {
	done chan struct{}
}

func (t *poolTask) Wait() {
	<-t.done
}

// Submit enqueues fn to run once a slot is free and returns immediately: it
// never blocks the calling goroutine on the semaphore itself. This matters
// for recursive task graphs such as the k-d tree build and the Barnes-Hut
// walk, where the closure that calls Submit may itself be running on a pool
// goroutine that already holds a slot; acquiring the semaphore on the
// caller's own goroutine before spawning would self-deadlock a
// single-worker pool the instant a held slot tried to acquire a second one.
// Acquiring inside the freshly spawned goroutine keeps every blocked
// Acquire off of a goroutine that is itself holding a slot.
func (p *Pool) Submit(fn func()) Task {
	t := &poolTask{done: make(chan struct{})}
	go func() {
		defer close(t.done)
		if err := p.sem.Acquire(p.ctx, 1); err != nil {
			fn()
			return
		}
		defer p.sem.Release(1)
		fn()
	}()
	return t
}

// ParallelFor runs body(i) for every i in [0,n) across the pool, bounded
// to the same worker count as Submit, and waits for all of them.
func (p *Pool) ParallelFor(n int, body func(i int)) {
	g, _ := errgroup.WithContext(p.ctx)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			if err := p.sem.Acquire(p.ctx, 1); err != nil {
				return err
			}
			defer p.sem.Release(1)
			body(i)
			return nil
		})
	}
	// errgroup's Go only returns an error from context cancellation,
	// which this pool never triggers.
	_ = g.Wait()
}
