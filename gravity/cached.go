// Copyright © 2026 The gravcore Authors.
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package gravity

import (
	"math"

	"github.com/js-arias/gravcore/kdtree"
	"github.com/js-arias/gravcore/particles"
	"github.com/js-arias/gravcore/sched"
	"github.com/js-arias/gravcore/vec3"
)

// Cached wraps another evaluator, reusing accelerations computed at a
// previous simulation time as long as the recomputation period has not
// elapsed and the particle count has not changed. Building is forwarded
// unconditionally, since it is assumed cheap relative to evaluation.
//
// Unlike the other variants, Cached.EvalSelfGravity takes the current
// simulation time and particle count explicitly, since neither travels
// through the shared particles.Sink/Stats collaborator interfaces; for
// that reason Cached does not implement the Gravity interface itself, only
// wraps one.
type Cached struct {
	gravity Gravity
	period  float64

	cached []vec3.Vector
	tLast  float64
}

// NewCached wraps gravity, recomputing accelerations at most once every
// period units of simulation time.
func NewCached(period float64, gravity Gravity) *Cached {
	if period <= 0 {
		panic("gravity: cached recomputation period must be positive")
	}
	if gravity == nil {
		panic("gravity: cached wrapper requires a non-nil evaluator")
	}
	return &Cached{gravity: gravity, period: period, tLast: math.Inf(-1)}
}

// Build forwards to the wrapped evaluator unconditionally.
func (c *Cached) Build(s sched.Scheduler, src particles.Source) {
	c.gravity.Build(s, src)
}

// EvalSelfGravity adds to sink the acceleration on each of n particles at
// simulation time t. If t-tLast is within the recomputation period and n
// matches the particle count of the last recomputation, the cached
// accelerations are reused; otherwise the wrapped evaluator recomputes
// them and the cache is refreshed.
func (c *Cached) EvalSelfGravity(s sched.Scheduler, t float64, n int, sink particles.Sink, stats particles.Stats) {
	if len(c.cached) != n || t-c.tLast >= c.period {
		buf := make([]vec3.Vector, n)
		c.gravity.EvalSelfGravity(s, &particles.SliceSink{DV: buf}, stats)
		c.cached = buf
		c.tLast = t
	}
	for i, a := range c.cached {
		sink.AddAcceleration(i, a)
	}
}

// EvalAttractors forwards to the wrapped evaluator; the attractor pass is
// not cached.
func (c *Cached) EvalAttractors(s sched.Scheduler, sink particles.Sink, attractorSink AttractorSink, attractors []particles.Attractor) {
	c.gravity.EvalAttractors(s, sink, attractorSink, attractors)
}

// EvalAt forwards to the wrapped evaluator, uncached: it is mainly used
// for testing and diagnostics, where the cost does not matter.
func (c *Cached) EvalAt(r0 vec3.Vector) vec3.Vector {
	return c.gravity.EvalAt(r0)
}

// EvalEnergy forwards to the wrapped evaluator, uncached.
func (c *Cached) EvalEnergy(s sched.Scheduler) float64 {
	return c.gravity.EvalEnergy(s)
}

// Finder forwards to the wrapped evaluator.
func (c *Cached) Finder() *kdtree.Tree[NodeData] {
	return c.gravity.Finder()
}
