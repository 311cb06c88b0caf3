// Copyright © 2026 The gravcore Authors.
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package gravity

import (
	"github.com/js-arias/gravcore/kdtree"
	"github.com/js-arias/gravcore/kernel"
	"github.com/js-arias/gravcore/particles"
	"github.com/js-arias/gravcore/sched"
	"github.com/js-arias/gravcore/vec3"
)

// BruteForce evaluates gravity by direct O(N²) pairwise summation. It is
// the reference implementation every other variant is checked against: no
// spatial index, no approximation.
type BruteForce struct {
	kernel kernel.Kernel
	g      float64

	r []vec3.Vector
	m []float64 // G-scaled
}

// NewBruteForce returns a brute-force evaluator with gravitational
// constant g and softening kernel k.
func NewBruteForce(g float64, k kernel.Kernel) *BruteForce {
	return &BruteForce{kernel: k, g: g}
}

// Build captures the particle snapshot.
func (b *BruteForce) Build(s sched.Scheduler, src particles.Source) {
	n := src.Len()
	b.r = make([]vec3.Vector, n)
	b.m = make([]float64, n)
	for i := 0; i < n; i++ {
		b.r[i] = src.Position(i)
		b.m[i] = src.Mass(i) * b.g
	}
}

// Finder always returns nil: brute force has no spatial index.
func (b *BruteForce) Finder() *kdtree.Tree[NodeData] { return nil }

// EvalSelfGravity adds to sink the exact acceleration on every particle
// from every other particle, one goroutine per particle. Pairwise terms
// use the symmetrized smoothing length (kernel.Kernel.Grad), unlike
// EvalAt, since both sides of a particle-particle interaction carry a
// smoothing length and conserving momentum requires them to agree on
// which one to use.
func (b *BruteForce) EvalSelfGravity(s sched.Scheduler, sink particles.Sink, stats particles.Stats) {
	n := len(b.r)
	s.ParallelFor(n, func(i int) {
		var a vec3.Vector
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			a = a.Sub(b.kernel.Grad(b.r[i], b.r[j]).Scale(b.m[j]))
		}
		sink.AddAcceleration(i, a)
	})
	if stats != nil {
		stats.SetNodeCount(0)
		stats.SetApproximatedNodes(0)
		stats.SetExactNodes(int64(n) * int64(n-1) / 2)
	}
}

func (b *BruteForce) evalAt(r0 vec3.Vector, selfIdx int) vec3.Vector {
	var a vec3.Vector
	for j, rj := range b.r {
		if j == selfIdx {
			continue
		}
		a = a.Sub(b.kernel.GradAsym(r0, rj).Scale(b.m[j]))
	}
	return a
}

// EvalAt returns the exact acceleration at an arbitrary field point,
// summing over every stored particle (selfIdx=-1 never matches, so no
// particle is excluded).
func (b *BruteForce) EvalAt(r0 vec3.Vector) vec3.Vector {
	return b.evalAt(r0, -1)
}

// EvalAttractors adds the acceleration from attractors to sink, and
// optionally the reaction onto the attractors themselves.
func (b *BruteForce) EvalAttractors(s sched.Scheduler, sink particles.Sink, attractorSink AttractorSink, attractors []particles.Attractor) {
	evalAttractors(s, b.g, b.kernel, b.r, b.m, sink, attractorSink, attractors)
}

// EvalEnergy returns the total self-potential energy of the particle set.
func (b *BruteForce) EvalEnergy(s sched.Scheduler) float64 {
	return evalEnergyDirect(s, b.g, b.kernel, b.r, b.m)
}
