// Copyright © 2026 The gravcore Authors.
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package gravity implements the gravitational force evaluators built atop
// the kdtree and multipole packages: a brute-force O(N²) evaluator, a
// Barnes-Hut evaluator driven by a dual-recursion tree walk, a
// time-windowed caching wrapper, and a symmetric-boundary wrapper that
// mirrors particles across the z=0 plane to approximate a reflective
// boundary.
package gravity

import (
	"github.com/js-arias/gravcore/kdtree"
	"github.com/js-arias/gravcore/multipole"
	"github.com/js-arias/gravcore/particles"
	"github.com/js-arias/gravcore/sched"
	"github.com/js-arias/gravcore/vec3"
)

// Gravity is the shared contract of every evaluator variant: build a
// snapshot, evaluate self-gravity into a sink, evaluate interactions with
// a set of attractors, evaluate the field at an arbitrary point, and
// report the total self-potential energy.
type Gravity interface {
	// Build captures a snapshot of src. Masses are scaled internally by
	// the evaluator's gravitational constant.
	Build(s sched.Scheduler, src particles.Source)

	// EvalSelfGravity adds the acceleration on every particle from every
	// other particle to sink.
	EvalSelfGravity(s sched.Scheduler, sink particles.Sink, stats particles.Stats)

	// EvalAttractors adds the acceleration on every particle (and, if
	// attractorSink is non-nil, on every attractor) from the given
	// attractors.
	EvalAttractors(s sched.Scheduler, sink particles.Sink, attractorSink AttractorSink, attractors []particles.Attractor)

	// EvalAt returns the acceleration at an arbitrary field point r0, not
	// excluding any particle. Used mainly for testing and diagnostics; it
	// is not accelerated by a cache.
	EvalAt(r0 vec3.Vector) vec3.Vector

	// EvalEnergy returns the total self-potential energy of the particle
	// set, E = ½G Σ_i Σ_{j≠i} m_i m_j Φ(r_i,r_j).
	EvalEnergy(s sched.Scheduler) float64

	// Finder returns the evaluator's spatial index, or nil if it has
	// none (brute-force and symmetric evaluators have no tree whose
	// indices correspond to the caller's particle indices).
	Finder() *kdtree.Tree[NodeData]
}

// AttractorSink receives the reaction acceleration an attractor
// experiences from the particle set and from other attractors.
type AttractorSink interface {
	AddAttractorAcceleration(i int, a vec3.Vector)
}

// NodeData augments every k-d tree node built by BarnesHut with its
// gravity moments.
type NodeData struct {
	COM     vec3.Vector
	Moments multipole.Expansion
	ROpen   float64
}
