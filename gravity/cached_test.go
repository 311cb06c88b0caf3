// Copyright © 2026 The gravcore Authors.
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package gravity_test

import (
	"testing"

	"github.com/js-arias/gravcore/gravity"
	"github.com/js-arias/gravcore/kdtree"
	"github.com/js-arias/gravcore/particles"
	"github.com/js-arias/gravcore/sched"
	"github.com/js-arias/gravcore/vec3"
)

// switchingGravity is a test double that adds (1,0,0) to particle 0 before
// t=5 and (0,0,1) from t=5 onward, regardless of how many times it is
// invoked; it lets the cached wrapper's time-windowed recomputation be
// tested without a real evaluator.
type switchingGravity struct {
	t      float64
	calls  int
	builds int
}

func (g *switchingGravity) Build(sched.Scheduler, particles.Source) { g.builds++ }

func (g *switchingGravity) EvalSelfGravity(s sched.Scheduler, sink particles.Sink, stats particles.Stats) {
	g.calls++
	a := vec3.New(1, 0, 0)
	if g.t >= 5 {
		a = vec3.New(0, 0, 1)
	}
	sink.AddAcceleration(0, a)
}

func (g *switchingGravity) EvalAttractors(sched.Scheduler, particles.Sink, gravity.AttractorSink, []particles.Attractor) {
}
func (g *switchingGravity) EvalAt(vec3.Vector) vec3.Vector        { return vec3.Vector{} }
func (g *switchingGravity) EvalEnergy(sched.Scheduler) float64    { return 0 }
func (g *switchingGravity) Finder() *kdtree.Tree[gravity.NodeData] { return nil }

func TestCachedReusesWithinWindow(t *testing.T) {
	inner := &switchingGravity{}
	c := gravity.NewCached(2, inner)

	eval := func(simTime float64) vec3.Vector {
		inner.t = simTime
		dv := make([]vec3.Vector, 1)
		c.EvalSelfGravity(sched.Sequential{}, simTime, 1, &particles.SliceSink{DV: dv}, particles.NopStats{})
		return dv[0]
	}

	if got := eval(1); got != vec3.New(1, 0, 0) {
		t.Fatalf("t=1: got %v want (1,0,0)", got)
	}
	if inner.calls != 1 {
		t.Fatalf("expected one recomputation by t=1, got %d", inner.calls)
	}

	if got := eval(2); got != vec3.New(1, 0, 0) {
		t.Fatalf("t=2: expected cached (1,0,0), got %v", got)
	}
	if inner.calls != 1 {
		t.Fatalf("t=2 should reuse the cache, got %d recomputations", inner.calls)
	}

	if got := eval(6); got != vec3.New(0, 0, 1) {
		t.Fatalf("t=6: expected recomputed (0,0,1), got %v", got)
	}
	if inner.calls != 2 {
		t.Fatalf("t=6 should trigger a recomputation, got %d total", inner.calls)
	}
}

func TestCachedRecomputesWhenParticleCountChanges(t *testing.T) {
	inner := &switchingGravity{}
	c := gravity.NewCached(100, inner)

	dv1 := make([]vec3.Vector, 1)
	c.EvalSelfGravity(sched.Sequential{}, 0, 1, &particles.SliceSink{DV: dv1}, particles.NopStats{})

	dv2 := make([]vec3.Vector, 2)
	c.EvalSelfGravity(sched.Sequential{}, 0.01, 2, &particles.SliceSink{DV: dv2}, particles.NopStats{})

	if inner.calls != 2 {
		t.Fatalf("particle count change should force recomputation even within the period, got %d calls", inner.calls)
	}
}

func TestCachedForwardsBuildUnconditionally(t *testing.T) {
	inner := &switchingGravity{}
	c := gravity.NewCached(1, inner)
	c.Build(sched.Sequential{}, &particles.SliceSource{})
	c.Build(sched.Sequential{}, &particles.SliceSource{})
	if inner.builds != 2 {
		t.Fatalf("every Build should be forwarded, got %d forwarded builds", inner.builds)
	}
}
