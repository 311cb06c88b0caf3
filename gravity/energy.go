// Copyright © 2026 The gravcore Authors.
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package gravity

import (
	"gonum.org/v1/gonum/floats"

	"github.com/js-arias/gravcore/kernel"
	"github.com/js-arias/gravcore/sched"
	"github.com/js-arias/gravcore/vec3"
)

// evalEnergyDirect computes the total self-potential energy of a particle
// set by brute-force pairwise summation, shared by the evaluators that
// hold (position, G-scaled mass, kernel) directly. scaledM carries G
// already, so the division by g undoes the extra factor that squaring it
// introduces.
func evalEnergyDirect(s sched.Scheduler, g float64, k kernel.Kernel, r []vec3.Vector, scaledM []float64) float64 {
	n := len(r)
	if n == 0 || g == 0 {
		return 0
	}
	partial := make([]float64, n)
	s.ParallelFor(n, func(i int) {
		var e float64
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			e += scaledM[j] * k.Value(r[i], r[j])
		}
		partial[i] = e * scaledM[i]
	})
	return floats.Sum(partial) / (2 * g)
}
