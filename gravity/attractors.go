// Copyright © 2026 The gravcore Authors.
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package gravity

import (
	"github.com/js-arias/gravcore/kernel"
	"github.com/js-arias/gravcore/particles"
	"github.com/js-arias/gravcore/sched"
	"github.com/js-arias/gravcore/vec3"
)

// evalAttractors is the attractor pass shared by every evaluator variant
// that holds its own (position, scaled mass, kernel) triple directly:
// particle-attractor interactions run in parallel over particles (each
// writes only its own sink slot, so no synchronization is needed across
// goroutines), and the reaction onto the attractors themselves, plus
// attractor-attractor interactions, run serially afterward.
func evalAttractors(s sched.Scheduler, g float64, k kernel.Kernel, r []vec3.Vector, scaledM []float64, sink particles.Sink, attractorSink AttractorSink, attractors []particles.Attractor) {
	n := len(r)
	s.ParallelFor(n, func(i int) {
		var a vec3.Vector
		for _, at := range attractors {
			apos := at.Position.WithH(at.Radius)
			a = a.Sub(k.Grad(r[i], apos).Scale(g * at.Mass))
		}
		sink.AddAcceleration(i, a)
	})

	if attractorSink == nil {
		return
	}

	for ai, at := range attractors {
		apos := at.Position.WithH(at.Radius)
		var a vec3.Vector
		for i := 0; i < n; i++ {
			a = a.Sub(k.Grad(apos, r[i]).Scale(scaledM[i]))
		}
		for aj, other := range attractors {
			if aj == ai {
				continue
			}
			opos := other.Position.WithH(other.Radius)
			a = a.Sub(k.Grad(apos, opos).Scale(g * other.Mass))
		}
		attractorSink.AddAttractorAcceleration(ai, a)
	}
}
