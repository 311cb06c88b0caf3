// Copyright © 2026 The gravcore Authors.
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package gravity_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/js-arias/gravcore/gravity"
	"github.com/js-arias/gravcore/kernel"
	"github.com/js-arias/gravcore/multipole"
	"github.com/js-arias/gravcore/particles"
	"github.com/js-arias/gravcore/sched"
	"github.com/js-arias/gravcore/vec3"
)

func randomParticles(n int, seed int64) *particles.SliceSource {
	r := rand.New(rand.NewSource(seed))
	src := &particles.SliceSource{R: make([]vec3.Vector, n), M: make([]float64, n)}
	for i := 0; i < n; i++ {
		src.R[i] = vec3.New(r.Float64()*10-5, r.Float64()*10-5, r.Float64()*10-5).WithH(0.1)
		src.M[i] = 1 + r.Float64()
	}
	return src
}

func evalInto(t *testing.T, g gravity.Gravity, src particles.Source) []vec3.Vector {
	t.Helper()
	n := src.Len()
	dv := make([]vec3.Vector, n)
	sink := &particles.SliceSink{DV: dv}
	g.Build(sched.Sequential{}, src)
	g.EvalSelfGravity(sched.Sequential{}, sink, particles.NopStats{})
	return dv
}

// TestBarnesHutMatchesBruteForceForTinyTheta checks the central testable
// property of the tree walk: as theta -> 0 every node's opening radius
// grows without bound, so the dual-recursion walk never approximates and
// must agree with direct summation to floating-point round-off.
func TestBarnesHutMatchesBruteForceForTinyTheta(t *testing.T) {
	src := randomParticles(40, 1)

	bf := gravity.NewBruteForce(1, kernel.Zero())
	bh := gravity.NewBarnesHut(1e-6, multipole.Octupole, 1, 8, 1, kernel.Zero())

	dvBF := evalInto(t, bf, src)
	dvBH := evalInto(t, bh, src)

	for i := range dvBF {
		diff := dvBF[i].Sub(dvBH[i]).Length()
		scale := math.Max(dvBF[i].Length(), 1e-12)
		if diff/scale > 1e-6 {
			t.Fatalf("particle %d: brute force %v, barnes-hut %v, relative error %v", i, dvBF[i], dvBH[i], diff/scale)
		}
	}
}

// TestBarnesHutOpeningAngleMonotonicity checks that tightening theta never
// increases the L2 error against brute force, summed over all particles.
func TestBarnesHutOpeningAngleMonotonicity(t *testing.T) {
	src := randomParticles(200, 2)
	bf := gravity.NewBruteForce(1, kernel.Zero())
	dvBF := evalInto(t, bf, src)

	errAt := func(theta float64) float64 {
		bh := gravity.NewBarnesHut(theta, multipole.Quadrupole, 8, 6, 1, kernel.Zero())
		dvBH := evalInto(t, bh, src)
		var sumSq float64
		for i := range dvBF {
			d := dvBF[i].Sub(dvBH[i])
			sumSq += d.SqrLength()
		}
		return math.Sqrt(sumSq)
	}

	e1 := errAt(0.8)
	e2 := errAt(0.4)
	e3 := errAt(0.2)
	if e2 > e1+1e-9 || e3 > e2+1e-9 {
		t.Fatalf("L2 error should be non-increasing as theta shrinks: theta=0.8 -> %v, 0.4 -> %v, 0.2 -> %v", e1, e2, e3)
	}
}

// TestBarnesHutMomentumConservation checks that two isolated particles
// always produce a zero net momentum reaction, the way gravity must.
func TestBarnesHutMomentumConservation(t *testing.T) {
	src := &particles.SliceSource{
		R: []vec3.Vector{vec3.New(0, 0, 0).WithH(0.1), vec3.New(3, 4, 0).WithH(0.1)},
		M: []float64{2, 5},
	}
	bh := gravity.NewBarnesHut(0.5, multipole.Octupole, 1, 4, 1, kernel.Zero())
	dv := evalInto(t, bh, src)

	p := dv[0].Scale(src.M[0]).Add(dv[1].Scale(src.M[1]))
	if p.Length() > 1e-9 {
		t.Fatalf("momentum should be conserved, got residual %v", p)
	}
}

// TestBarnesHutRootMomentsMatchDirectComputation checks that Moments()
// recovers the moments of the full particle set about its own center of
// mass, computed directly.
func TestBarnesHutRootMomentsMatchDirectComputation(t *testing.T) {
	src := randomParticles(60, 3)
	bh := gravity.NewBarnesHut(0.5, multipole.Octupole, 4, 6, 1, kernel.Zero())
	bh.Build(sched.Sequential{}, src)

	var mTotal float64
	var com vec3.Vector
	for i := range src.R {
		mTotal += src.M[i]
		com = com.Add(src.R[i].Scale(src.M[i]))
	}
	com = com.Scale(1 / mTotal)

	m2 := multipole.ComputeRank2(src.R, src.M, com)
	m3 := multipole.ComputeRank3(src.R, src.M, com)
	wantQ2 := multipole.ReduceRank2(m2)
	wantQ3 := multipole.ReduceRank3(m3)

	got := bh.Moments()
	if math.Abs(got.M0-mTotal) > 1e-9*mTotal {
		t.Fatalf("root monopole mismatch: got %v want %v", got.M0, mTotal)
	}
	if math.Abs(got.Q2.XX-wantQ2.XX) > 1e-6 || math.Abs(got.Q2.YY-wantQ2.YY) > 1e-6 {
		t.Fatalf("root quadrupole mismatch: got %+v want %+v", got.Q2, wantQ2)
	}
	if math.Abs(got.Q3.XXX-wantQ3.XXX) > 1e-6 {
		t.Fatalf("root octupole mismatch: got %+v want %+v", got.Q3, wantQ3)
	}
}

// TestBarnesHutSelfExclusionAtPointQuery checks that querying EvalAt at a
// particle's exact position returns the contribution of every other
// particle and nothing from itself (the kernel returns zero at zero
// separation).
func TestBarnesHutSelfExclusionAtPointQuery(t *testing.T) {
	src := randomParticles(20, 4)
	bh := gravity.NewBarnesHut(1e-6, multipole.Octupole, 1, 8, 1, kernel.Zero())
	bh.Build(sched.Sequential{}, src)

	bf := gravity.NewBruteForce(1, kernel.Zero())
	dv := evalInto(t, bf, src)

	for i, r := range src.R {
		a := bh.EvalAt(r)
		diff := a.Sub(dv[i]).Length()
		scale := math.Max(dv[i].Length(), 1e-12)
		if diff/scale > 1e-6 {
			t.Fatalf("particle %d: EvalAt %v, want %v (self-exclusion mismatch)", i, a, dv[i])
		}
	}
}

// TestBarnesHutEmptyParticleSet checks that build/eval on zero particles
// is a safe no-op.
func TestBarnesHutEmptyParticleSet(t *testing.T) {
	src := &particles.SliceSource{}
	bh := gravity.NewBarnesHut(0.5, multipole.Octupole, 8, 4, 1, kernel.Zero())
	bh.Build(sched.Sequential{}, src)
	stats := &particles.CounterStats{}
	bh.EvalSelfGravity(sched.Sequential{}, &particles.SliceSink{}, stats)
	if stats.Exact != 0 || stats.Approximated != 0 {
		t.Fatalf("empty particle set should report zero interactions, got %+v", stats)
	}
}

// TestBarnesHutSingleParticle checks that a single particle feels no
// self-gravity.
func TestBarnesHutSingleParticle(t *testing.T) {
	src := &particles.SliceSource{R: []vec3.Vector{vec3.New(1, 2, 3).WithH(0.1)}, M: []float64{5}}
	bh := gravity.NewBarnesHut(0.5, multipole.Octupole, 8, 4, 1, kernel.Zero())
	dv := evalInto(t, bh, src)
	if dv[0].Length() != 0 {
		t.Fatalf("single particle should have zero acceleration, got %v", dv[0])
	}
}

// TestBarnesHutLeafSizeCoversAllParticles checks that leafSize >= N
// reduces the walk to a single leaf and matches brute force exactly
// (up to round-off), since every interaction is then exact.
func TestBarnesHutLeafSizeCoversAllParticles(t *testing.T) {
	src := randomParticles(12, 5)
	bf := gravity.NewBruteForce(1, kernel.Zero())
	bh := gravity.NewBarnesHut(0.5, multipole.Octupole, 100, 4, 1, kernel.Zero())

	dvBF := evalInto(t, bf, src)
	dvBH := evalInto(t, bh, src)
	for i := range dvBF {
		if dvBF[i].Sub(dvBH[i]).Length() > 1e-9 {
			t.Fatalf("single-leaf tree should match brute force exactly: particle %d got %v want %v", i, dvBH[i], dvBF[i])
		}
	}
}

// TestBarnesHutFinderSanity checks that the tree backing a built
// BarnesHut evaluator passes its own structural sanity check.
func TestBarnesHutFinderSanity(t *testing.T) {
	src := randomParticles(300, 6)
	bh := gravity.NewBarnesHut(0.5, multipole.Octupole, 8, 6, 1, kernel.Zero())
	bh.Build(sched.NewPool(4), src)
	if err := bh.Finder().SanityCheck(); err != nil {
		t.Fatalf("sanity check failed: %v", err)
	}
}
