// Copyright © 2026 The gravcore Authors.
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package gravity

import (
	"github.com/js-arias/gravcore/kdtree"
	"github.com/js-arias/gravcore/particles"
	"github.com/js-arias/gravcore/sched"
	"github.com/js-arias/gravcore/vec3"
)

// Symmetric wraps another evaluator for simulations with a z=0 symmetry
// plane, where only particles with z>0 are real. Build duplicates every
// real particle into a mirror image across z=0 with the same mass, and
// runs the wrapped evaluator over the doubled set; EvalSelfGravity and
// EvalAttractors fold the doubled accelerations back onto the real
// particle indices. The wrapped evaluator's finder indexes the doubled
// ghost set, so it is not exposed.
type Symmetric struct {
	gravity Gravity
	real    []int // real[k]: original particle index of doubled slot 2k
}

// NewSymmetric wraps gravity with the z=0 mirror boundary.
func NewSymmetric(gravity Gravity) *Symmetric {
	if gravity == nil {
		panic("gravity: symmetric wrapper requires a non-nil evaluator")
	}
	return &Symmetric{gravity: gravity}
}

type mirrorSource struct {
	r []vec3.Vector
	m []float64
}

func (s *mirrorSource) Len() int                   { return len(s.r) }
func (s *mirrorSource) Position(i int) vec3.Vector { return s.r[i] }
func (s *mirrorSource) Mass(i int) float64         { return s.m[i] }

// Build doubles every real (z>0) particle of src into itself plus its
// mirror image across z=0, then builds the wrapped evaluator over the
// doubled set.
func (w *Symmetric) Build(s sched.Scheduler, src particles.Source) {
	n := src.Len()
	r := make([]vec3.Vector, 0, 2*n)
	m := make([]float64, 0, 2*n)
	real := make([]int, 0, n)
	for i := 0; i < n; i++ {
		p := src.Position(i)
		if p.Z <= 0 {
			continue
		}
		mass := src.Mass(i)
		r = append(r, p, vec3.Vector{X: p.X, Y: p.Y, Z: -p.Z, H: p.H})
		m = append(m, mass, mass)
		real = append(real, i)
	}
	w.real = real
	w.gravity.Build(s, &mirrorSource{r: r, m: m})
}

// foldingSink receives accelerations indexed into the doubled ghost set
// and adds only the real-particle halves (even slots) into an underlying
// sink, translated back to original particle indices.
type foldingSink struct {
	sink particles.Sink
	real []int
}

func (f *foldingSink) AddAcceleration(i int, a vec3.Vector) {
	if i%2 != 0 {
		// ghost particle: its effect on real particles is already
		// folded into their accelerations by the wrapped evaluator.
		return
	}
	f.sink.AddAcceleration(f.real[i/2], a)
}

// EvalSelfGravity runs the wrapped evaluator over the doubled set and adds
// only the real particles' accelerations to sink.
func (w *Symmetric) EvalSelfGravity(s sched.Scheduler, sink particles.Sink, stats particles.Stats) {
	w.gravity.EvalSelfGravity(s, &foldingSink{sink: sink, real: w.real}, stats)
}

// EvalAttractors runs the wrapped evaluator's attractor pass over the
// doubled set, folding particle accelerations back to real indices. The
// attractor reaction itself is unaffected by folding and passed through.
func (w *Symmetric) EvalAttractors(s sched.Scheduler, sink particles.Sink, attractorSink AttractorSink, attractors []particles.Attractor) {
	w.gravity.EvalAttractors(s, &foldingSink{sink: sink, real: w.real}, attractorSink, attractors)
}

// EvalAt forwards to the wrapped evaluator over the doubled set.
func (w *Symmetric) EvalAt(r0 vec3.Vector) vec3.Vector {
	return w.gravity.EvalAt(r0)
}

// EvalEnergy forwards to the wrapped evaluator.
func (w *Symmetric) EvalEnergy(s sched.Scheduler) float64 {
	return w.gravity.EvalEnergy(s)
}

// Finder always returns nil: the wrapped tree indexes the doubled ghost
// set, not the caller's particle indices.
func (w *Symmetric) Finder() *kdtree.Tree[NodeData] {
	return nil
}
