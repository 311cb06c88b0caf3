// Copyright © 2026 The gravcore Authors.
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Gravbench builds a random particle cloud, evaluates its self-gravity
// with both brute-force summation and the Barnes-Hut tree walk, and
// reports the relative error of the approximation together with the
// tree's node statistics. It is the Go analogue of OpenSPH's
// core/gravity/benchmark/Gravity.cpp.
package main

import (
	"fmt"
	"math"
	"math/rand"
	"os"
	"time"

	"github.com/js-arias/command"
	"github.com/js-arias/gravcore/gravity"
	"github.com/js-arias/gravcore/kernel"
	"github.com/js-arias/gravcore/multipole"
	"github.com/js-arias/gravcore/particles"
	"github.com/js-arias/gravcore/sched"
	"github.com/js-arias/gravcore/vec3"
)

var app = &command.Command{
	Usage: `gravbench [-n|--particles <number>] [--theta <value>]
	[--leaf <size>] [--order <monopole|quadrupole|octupole>]
	[--workers <number>] [--seed <number>]`,
	Short:    "benchmark the Barnes-Hut tree walk against brute force",
	Long:     longHelp,
	SetFlags: setFlags,
	Run:      run,
}

const longHelp = `
Command gravbench builds a random cloud of particles inside the cube [-1,1]³,
evaluates the self-gravity of the cloud with direct O(N^2) summation, then
with the Barnes-Hut dual-recursion tree walk, and reports how closely the
approximation tracks the exact answer.

By default 2000 particles are simulated. Use the flag --particles, or -n, to
change the number of particles.

The flag --theta sets the opening angle used to decide when a node of the
tree can be approximated by its multipole moments instead of being opened;
smaller values are more accurate and slower. It defaults to 0.5.

The flag --leaf sets the maximum number of particles held in a tree leaf
before it is split, and defaults to 16. The flag --order sets the multipole
order used during the walk, one of "monopole", "quadrupole" (the default), or
"octupole". The flag --workers sets the number of goroutines used to build
the tree and walk it concurrently; if zero (the default) the work is done
sequentially.

The flag --seed sets the seed of the random number generator used to place
the particles; it defaults to the current time.
`

var (
	numParticles int
	theta        float64
	leafSize     int
	orderFlag    string
	workers      int
	seed         int64
)

func setFlags(c *command.Command) {
	c.Flags().IntVar(&numParticles, "particles", 2000, "")
	c.Flags().IntVar(&numParticles, "n", 2000, "")
	c.Flags().Float64Var(&theta, "theta", 0.5, "")
	c.Flags().IntVar(&leafSize, "leaf", 16, "")
	c.Flags().StringVar(&orderFlag, "order", "quadrupole", "")
	c.Flags().IntVar(&workers, "workers", 0, "")
	c.Flags().Int64Var(&seed, "seed", 0, "")
}

func order(name string) (multipole.Order, error) {
	switch name {
	case "monopole":
		return multipole.Monopole, nil
	case "quadrupole":
		return multipole.Quadrupole, nil
	case "octupole":
		return multipole.Octupole, nil
	default:
		return 0, fmt.Errorf("unknown multipole order %q", name)
	}
}

func run(c *command.Command, args []string) error {
	ord, err := order(orderFlag)
	if err != nil {
		return c.UsageError(err.Error())
	}
	if numParticles <= 0 {
		return c.UsageError("flag --particles must be positive")
	}

	s := seed
	if s == 0 {
		s = time.Now().UnixNano()
	}
	src := randomCloud(numParticles, s)

	var scheduler sched.Scheduler = sched.Sequential{}
	if workers > 0 {
		scheduler = sched.NewPool(workers)
	}

	k := kernel.Zero()
	bf := gravity.NewBruteForce(1, k)
	bh := gravity.NewBarnesHut(theta, ord, leafSize, 64, 1, k)

	t0 := time.Now()
	bf.Build(scheduler, src)
	dvExact := make([]vec3.Vector, numParticles)
	bf.EvalSelfGravity(scheduler, &particles.SliceSink{DV: dvExact}, particles.NopStats{})
	exactElapsed := time.Since(t0)

	t1 := time.Now()
	bh.Build(scheduler, src)
	dvApprox := make([]vec3.Vector, numParticles)
	stats := &particles.CounterStats{}
	bh.EvalSelfGravity(scheduler, &particles.SliceSink{DV: dvApprox}, stats)
	approxElapsed := time.Since(t1)

	relErr := relativeError(dvExact, dvApprox)

	fmt.Fprintf(os.Stdout, "particles:       %d\n", numParticles)
	fmt.Fprintf(os.Stdout, "theta:           %.3f\n", theta)
	fmt.Fprintf(os.Stdout, "leaf size:       %d\n", leafSize)
	fmt.Fprintf(os.Stdout, "order:           %s\n", orderFlag)
	fmt.Fprintf(os.Stdout, "brute force:     %v\n", exactElapsed)
	fmt.Fprintf(os.Stdout, "barnes-hut:      %v\n", approxElapsed)
	fmt.Fprintf(os.Stdout, "speedup:         %.2fx\n", exactElapsed.Seconds()/math.Max(approxElapsed.Seconds(), 1e-12))
	fmt.Fprintf(os.Stdout, "relative error:  %.6e (L2)\n", relErr)
	fmt.Fprintf(os.Stdout, "tree nodes:      %d\n", stats.Nodes)
	fmt.Fprintf(os.Stdout, "exact nodes:     %d\n", stats.Exact)
	fmt.Fprintf(os.Stdout, "approx nodes:    %d\n", stats.Approximated)

	return nil
}

func randomCloud(n int, seed int64) *particles.SliceSource {
	r := rand.New(rand.NewSource(seed))
	src := &particles.SliceSource{R: make([]vec3.Vector, n), M: make([]float64, n)}
	for i := 0; i < n; i++ {
		src.R[i] = vec3.New(r.Float64()*2-1, r.Float64()*2-1, r.Float64()*2-1).WithH(0.01)
		src.M[i] = r.Float64() + 0.1
	}
	return src
}

func relativeError(exact, approx []vec3.Vector) float64 {
	var num, den float64
	for i := range exact {
		d := exact[i].Sub(approx[i])
		num += d.SqrLength()
		den += exact[i].SqrLength()
	}
	if den == 0 {
		return 0
	}
	return math.Sqrt(num / den)
}

func main() {
	app.Main()
}
