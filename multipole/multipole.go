// Copyright © 2026 The gravcore Authors.
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package multipole implements the symmetric-tensor algebra used to
// approximate the gravitational field of a group of particles: rank 2 and
// rank 3 multipole moments, their traceless (Stadel) reduction, the
// parallel-axis theorem used to shift moments between reference points, and
// the evaluation of the resulting field at an arbitrary point.
//
// Monopole (rank 0) is a plain float64. The dipole (rank 1) is always zero
// when a moment is taken about its own center of mass, so it is never
// stored; ParallelAxisRank2/ParallelAxisRank3 still account for the dipole a child's moments
// acquire once transferred to a parent's center of mass.
package multipole

import (
	"math"

	"gonum.org/v1/gonum/stat/combin"

	"github.com/js-arias/gravcore/vec3"
)

// Order selects how many ranks of the multipole expansion are used when
// evaluating the field of a distant node.
type Order int

const (
	Monopole Order = iota
	Quadrupole
	Octupole
)

// Rank2 is a traceless symmetric rank-2 tensor, stored as its 6 distinct
// components.
type Rank2 struct {
	XX, XY, XZ, YY, YZ, ZZ float64
}

// Rank3 is a traceless symmetric rank-3 tensor, stored as its 10 distinct
// components.
type Rank3 struct {
	XXX, XXY, XXZ, XYY, XYZ, XZZ, YYY, YYZ, YZZ, ZZZ float64
}

// Expansion is the multipole expansion of a group of particles about their
// center of mass, to octupole order.
type Expansion struct {
	M0 float64 // monopole: total (G-scaled) mass
	Q2 Rank2   // traceless quadrupole
	Q3 Rank3   // traceless octupole
}

func idx2(i, j int) (a, b int) {
	if i > j {
		return j, i
	}
	return i, j
}

// Value returns the (i,j) component of q.
func (q Rank2) Value(i, j int) float64 {
	a, b := idx2(i, j)
	switch {
	case a == 0 && b == 0:
		return q.XX
	case a == 0 && b == 1:
		return q.XY
	case a == 0 && b == 2:
		return q.XZ
	case a == 1 && b == 1:
		return q.YY
	case a == 1 && b == 2:
		return q.YZ
	case a == 2 && b == 2:
		return q.ZZ
	}
	panic("multipole: index out of range")
}

func (q *Rank2) add(i, j int, v float64) {
	a, b := idx2(i, j)
	switch {
	case a == 0 && b == 0:
		q.XX += v
	case a == 0 && b == 1:
		q.XY += v
	case a == 0 && b == 2:
		q.XZ += v
	case a == 1 && b == 1:
		q.YY += v
	case a == 1 && b == 2:
		q.YZ += v
	case a == 2 && b == 2:
		q.ZZ += v
	default:
		panic("multipole: index out of range")
	}
}

// Add returns q+p.
func (q Rank2) Add(p Rank2) Rank2 {
	return Rank2{q.XX + p.XX, q.XY + p.XY, q.XZ + p.XZ, q.YY + p.YY, q.YZ + p.YZ, q.ZZ + p.ZZ}
}

// Scale returns q scaled by f.
func (q Rank2) Scale(f float64) Rank2 {
	return Rank2{q.XX * f, q.XY * f, q.XZ * f, q.YY * f, q.YZ * f, q.ZZ * f}
}

// Trace returns the contraction of q over both indices.
func (q Rank2) Trace() float64 {
	return q.XX + q.YY + q.ZZ
}

// MatVec returns the vector q·v (v_i = Σ_j q(i,j) v_j).
func (q Rank2) MatVec(v vec3.Vector) vec3.Vector {
	return vec3.New(
		q.Value(0, 0)*v.X+q.Value(0, 1)*v.Y+q.Value(0, 2)*v.Z,
		q.Value(1, 0)*v.X+q.Value(1, 1)*v.Y+q.Value(1, 2)*v.Z,
		q.Value(2, 0)*v.X+q.Value(2, 1)*v.Y+q.Value(2, 2)*v.Z,
	)
}

// OuterSquare returns the (non-traceless) rank-2 outer product v⊗v.
func OuterSquare(v vec3.Vector) Rank2 {
	var q Rank2
	q.add(0, 0, v.X*v.X)
	q.add(0, 1, v.X*v.Y)
	q.add(0, 2, v.X*v.Z)
	q.add(1, 1, v.Y*v.Y)
	q.add(1, 2, v.Y*v.Z)
	q.add(2, 2, v.Z*v.Z)
	return q
}

func idx3(i, j, k int) (int, int, int) {
	a, b, c := i, j, k
	if a > b {
		a, b = b, a
	}
	if b > c {
		b, c = c, b
	}
	if a > b {
		a, b = b, a
	}
	return a, b, c
}

// Value returns the (i,j,k) component of q.
func (q Rank3) Value(i, j, k int) float64 {
	a, b, c := idx3(i, j, k)
	switch {
	case a == 0 && b == 0 && c == 0:
		return q.XXX
	case a == 0 && b == 0 && c == 1:
		return q.XXY
	case a == 0 && b == 0 && c == 2:
		return q.XXZ
	case a == 0 && b == 1 && c == 1:
		return q.XYY
	case a == 0 && b == 1 && c == 2:
		return q.XYZ
	case a == 0 && b == 2 && c == 2:
		return q.XZZ
	case a == 1 && b == 1 && c == 1:
		return q.YYY
	case a == 1 && b == 1 && c == 2:
		return q.YYZ
	case a == 1 && b == 2 && c == 2:
		return q.YZZ
	case a == 2 && b == 2 && c == 2:
		return q.ZZZ
	}
	panic("multipole: index out of range")
}

func (q *Rank3) add(i, j, k int, v float64) {
	a, b, c := idx3(i, j, k)
	switch {
	case a == 0 && b == 0 && c == 0:
		q.XXX += v
	case a == 0 && b == 0 && c == 1:
		q.XXY += v
	case a == 0 && b == 0 && c == 2:
		q.XXZ += v
	case a == 0 && b == 1 && c == 1:
		q.XYY += v
	case a == 0 && b == 1 && c == 2:
		q.XYZ += v
	case a == 0 && b == 2 && c == 2:
		q.XZZ += v
	case a == 1 && b == 1 && c == 1:
		q.YYY += v
	case a == 1 && b == 1 && c == 2:
		q.YYZ += v
	case a == 1 && b == 2 && c == 2:
		q.YZZ += v
	case a == 2 && b == 2 && c == 2:
		q.ZZZ += v
	default:
		panic("multipole: index out of range")
	}
}

// Add returns q+p.
func (q Rank3) Add(p Rank3) Rank3 {
	return Rank3{
		q.XXX + p.XXX, q.XXY + p.XXY, q.XXZ + p.XXZ, q.XYY + p.XYY, q.XYZ + p.XYZ,
		q.XZZ + p.XZZ, q.YYY + p.YYY, q.YYZ + p.YYZ, q.YZZ + p.YZZ, q.ZZZ + p.ZZZ,
	}
}

// Scale returns q scaled by f.
func (q Rank3) Scale(f float64) Rank3 {
	return Rank3{
		q.XXX * f, q.XXY * f, q.XXZ * f, q.XYY * f, q.XYZ * f,
		q.XZZ * f, q.YYY * f, q.YYZ * f, q.YZZ * f, q.ZZZ * f,
	}
}

// trace1 returns the rank-1 single contraction of q (T(i) = Σ_j q(i,j,j)).
func (q Rank3) trace1() vec3.Vector {
	return vec3.New(
		q.Value(0, 0, 0)+q.Value(0, 1, 1)+q.Value(0, 2, 2),
		q.Value(1, 0, 0)+q.Value(1, 1, 1)+q.Value(1, 2, 2),
		q.Value(2, 0, 0)+q.Value(2, 1, 1)+q.Value(2, 2, 2),
	)
}

// OuterCube returns the (non-traceless) rank-3 outer product v⊗v⊗v.
func OuterCube(v vec3.Vector) Rank3 {
	var q Rank3
	c := [3]float64{v.X, v.Y, v.Z}
	for i := 0; i < 3; i++ {
		for j := i; j < 3; j++ {
			for k := j; k < 3; k++ {
				q.add(i, j, k, c[i]*c[j]*c[k])
			}
		}
	}
	return q
}

func doubleFactorial(n int) float64 {
	if n <= 0 {
		return 1
	}
	f := 1.0
	for v := n; v > 0; v -= 2 {
		f *= float64(v)
	}
	return f
}

// reducedFactor implements the f(n,k) coefficient of Stadel's traceless
// reduction, f(n,k) = (-1)^k · (2n-2k-1)!! / (k! · (2n-1)!!).
func reducedFactor(n, k int) float64 {
	sign := 1.0
	if k%2 != 0 {
		sign = -1
	}
	num := doubleFactorial(2*n - 2*k - 1)
	denom := combin.Factorial(k) * doubleFactorial(2*n-1)
	return sign * num / denom
}

// ReduceRank2 computes the traceless reduction of the ordinary rank-2
// tensor m.
func ReduceRank2(m Rank2) Rank2 {
	f0 := reducedFactor(2, 0)
	f1 := reducedFactor(2, 1)
	t := m.Trace()
	return Rank2{
		XX: f0*m.XX + f1*t,
		YY: f0*m.YY + f1*t,
		ZZ: f0*m.ZZ + f1*t,
		XY: f0 * m.XY,
		XZ: f0 * m.XZ,
		YZ: f0 * m.YZ,
	}
}

// ReduceRank3 computes the traceless reduction of the ordinary rank-3
// tensor m.
func ReduceRank3(m Rank3) Rank3 {
	f0 := reducedFactor(3, 0)
	f1 := reducedFactor(3, 1)
	t1 := m.trace1()
	delta := func(i, j int) float64 {
		if i == j {
			return 1
		}
		return 0
	}
	t1c := [3]float64{t1.X, t1.Y, t1.Z}
	var q Rank3
	for i := 0; i < 3; i++ {
		for j := i; j < 3; j++ {
			for k := j; k < 3; k++ {
				p := delta(i, j)*t1c[k] + delta(i, k)*t1c[j] + delta(j, k)*t1c[i]
				q.add(i, j, k, f0*m.Value(i, j, k)+f1*p)
			}
		}
	}
	return q
}

// ComputeRank2 computes the ordinary (non-traceless) quadrupole moment of
// the points in r (weighted by mass m) about the reference point r0.
func ComputeRank2(r []vec3.Vector, m []float64, r0 vec3.Vector) Rank2 {
	var out Rank2
	for i, p := range r {
		d := p.Sub(r0)
		out = out.Add(OuterSquare(d).Scale(m[i]))
	}
	return out
}

// ComputeRank3 computes the ordinary (non-traceless) octupole moment of the
// points in r (weighted by mass m) about the reference point r0.
func ComputeRank3(r []vec3.Vector, m []float64, r0 vec3.Vector) Rank3 {
	var out Rank3
	for i, p := range r {
		d := p.Sub(r0)
		out = out.Add(OuterCube(d).Scale(m[i]))
	}
	return out
}

// ParallelAxisRank2 shifts a child's traceless quadrupole Qij (of mass m)
// to a parent's center of mass, d = child.com - parent.com.
func ParallelAxisRank2(qij Rank2, m float64, d vec3.Vector) Rank2 {
	return qij.Add(ReduceRank2(OuterSquare(d)).Scale(m))
}

// ParallelAxisRank3 shifts a child's traceless octupole Qijk (whose own
// quadrupole is qij and mass is m) to a parent's center of mass,
// d = child.com - parent.com.
func ParallelAxisRank3(qijk Rank3, qij Rank2, m float64, d vec3.Vector) Rank3 {
	f3 := ReduceRank3(OuterCube(d))
	dc := [3]float64{d.X, d.Y, d.Z}
	delta := func(i, j int) float64 {
		if i == j {
			return 1
		}
		return 0
	}
	v := qij.MatVec(d)
	vc := [3]float64{v.X, v.Y, v.Z}

	var out Rank3
	for i := 0; i < 3; i++ {
		for j := i; j < 3; j++ {
			for k := j; k < 3; k++ {
				perm := qij.Value(i, j)*dc[k] + qij.Value(i, k)*dc[j] + qij.Value(j, k)*dc[i]
				term2 := -2.0 / 5.0 * (delta(i, j)*vc[k] + delta(i, k)*vc[j] + delta(j, k)*vc[i])
				out.add(i, j, k, qijk.Value(i, j, k)+f3.Value(i, j, k)*m+perm+term2)
			}
		}
	}
	return out
}

// greenGamma computes the M-th coefficient of the multipole derivative
// recursion: γ_0 = -1/|dr|, γ_m = -(2m-1)·invDistSqr·γ_{m-1}.
func greenGamma(m int, invDistSqr float64) []float64 {
	g := make([]float64, m+1)
	g[0] = -math.Sqrt(invDistSqr)
	for i := 1; i <= m; i++ {
		g[i] = -(2*float64(i) - 1) * invDistSqr * g[i-1]
	}
	return g
}

// Evaluate returns the gravitational acceleration contribution of a node
// with the given multipole expansion on a point displaced by dr from the
// node's center of mass (dr = r_field - r_com), truncated at order.
func Evaluate(dr vec3.Vector, ms Expansion, order Order) vec3.Vector {
	invDistSqr := 1.0 / dr.SqrLength()
	gamma := greenGamma(4, invDistSqr)

	// monopole
	a := dr.Scale(-gamma[1] * ms.M0)

	if order == Monopole {
		return a
	}

	// quadrupole: Q0 = (1/2) dr_i dr_j Q2(i,j); Q1_i = Σ_j dr_j Q2(i,j)
	q20 := 0.5 * quadForm(ms.Q2, dr)
	q21 := ms.Q2.MatVec(dr)
	a = a.Add(dr.Scale(-gamma[3] * q20)).Add(q21.Scale(-gamma[2]))

	if order == Quadrupole {
		return a
	}

	// octupole: Q0 = (1/6) dr_i dr_j dr_k Q3(i,j,k); Q1_i = (1/2) Σ_jk dr_j dr_k Q3(i,j,k)
	q30 := cubicForm(ms.Q3, dr) / 6
	q31 := octupoleGrad(ms.Q3, dr).Scale(0.5)
	a = a.Add(dr.Scale(-gamma[4] * q30)).Add(q31.Scale(-gamma[3]))
	return a
}

func quadForm(q Rank2, d vec3.Vector) float64 {
	return d.Dot(q.MatVec(d))
}

func cubicForm(q Rank3, d vec3.Vector) float64 {
	c := [3]float64{d.X, d.Y, d.Z}
	var s float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			for k := 0; k < 3; k++ {
				s += c[i] * c[j] * c[k] * q.Value(i, j, k)
			}
		}
	}
	return s
}

// octupoleGrad returns the rank-1 contraction Σ_jk d_j d_k Q3(i,j,k).
func octupoleGrad(q Rank3, d vec3.Vector) vec3.Vector {
	c := [3]float64{d.X, d.Y, d.Z}
	var out [3]float64
	for i := 0; i < 3; i++ {
		var s float64
		for j := 0; j < 3; j++ {
			for k := 0; k < 3; k++ {
				s += c[j] * c[k] * q.Value(i, j, k)
			}
		}
		out[i] = s
	}
	return vec3.New(out[0], out[1], out[2])
}
