// Copyright © 2026 The gravcore Authors.
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package kernel implements the gravity softening kernel: the gradient of a
// softened 1/r potential, evaluated from a precomputed lookup table inside
// the softening radius and falling back to the exact Newtonian 1/r² force
// outside it.
package kernel

import (
	"math"

	"github.com/js-arias/gravcore/vec3"
)

// defaultResolution is the number of samples in the lookup table between
// q=0 and q=radius.
const defaultResolution = 40000

// Kernel is a lookup-table softening kernel for the gravitational force.
// The zero value is NOT usable; construct with New or Zero.
type Kernel struct {
	radius float64   // q = |r|/h beyond which the kernel is pure Newtonian
	table  []float64 // g(q) samples over [0, radius], g such that ∇φ = r·g(q,h)/h³
	step   float64
}

// Profile computes the dimensionless softened force profile w(q) for
// q = |r|/h, 0 ≤ q < radius. It must vanish smoothly to the Newtonian value
// w(radius) = 1/radius² at the boundary. CubicSpline implements the default,
// cubic-spline-compatible profile used when no other is supplied.
type Profile func(q float64) float64

// CubicSpline is the default kernel profile, built from the standard M4
// cubic-spline SPH kernel's gravitational softening term. It is normalised
// so that Profile(radius) == 1/radius².
func CubicSpline(radius float64) Profile {
	return func(q float64) float64 {
		if q <= 0 {
			return 0
		}
		switch {
		case q < 0.5*radius:
			u := q / radius
			return (32.0/3*u - 192.0/5*u*u*u + 32*u*u*u*u) / (radius * radius)
		case q < radius:
			u := q / radius
			return (64.0/3*u - 48*u*u + 192.0/5*u*u*u - 32.0/3*u*u*u*u - 1.0/(15*u*u)) / (radius * radius)
		default:
			return 1 / (q * q)
		}
	}
}

// New builds a lookup-table kernel with the given softening radius
// (expressed in units of q = |r|/h) and profile. A radius of 0 produces the
// zero-radius default kernel: pure Newtonian 1/r² force at every
// separation.
func New(radius float64, profile Profile) Kernel {
	if radius <= 0 {
		return Zero()
	}
	table := make([]float64, defaultResolution+1)
	step := radius / float64(defaultResolution)
	// the table stores g(q) = w(q)/q; at q=0 the first step stands in for
	// the limit.
	for i := range table {
		q := float64(i) * step
		if i == 0 {
			q = step
		}
		table[i] = profile(q) / q
	}
	return Kernel{radius: radius, table: table, step: step}
}

// Zero returns the default zero-radius kernel: pure Newtonian 1/r² force,
// no softening.
func Zero() Kernel {
	return Kernel{}
}

// Radius returns the kernel's softening radius (in units of q = |r|/h). A
// zero-radius kernel returns 0.
func (k Kernel) Radius() float64 {
	return k.radius
}

// grad returns the scalar g such that ∇φ = dr·g for the unsymmetrized
// smoothing length h.
func (k Kernel) grad(dr vec3.Vector, h float64) float64 {
	distSqr := dr.SqrLength()
	if distSqr == 0 {
		return 0
	}
	if k.radius <= 0 || h <= 0 {
		return 1 / (distSqr * math.Sqrt(distSqr))
	}
	dist := math.Sqrt(distSqr)
	q := dist / h
	if q >= k.radius {
		return 1 / (distSqr * dist)
	}
	idx := q / k.step
	i0 := int(idx)
	if i0 >= len(k.table)-1 {
		return k.table[len(k.table)-1] / (h * h * h)
	}
	frac := idx - float64(i0)
	v := k.table[i0]*(1-frac) + k.table[i0+1]*frac
	return v / (h * h * h)
}

// Grad returns the softened gravitational acceleration gradient term for a
// pair of particles at positions r1, r2 (dr = r1-r2), using the
// symmetrized smoothing length h̄ = ½(h1+h2). The result is the vector
// ∇φ = dr·g itself.
func (k Kernel) Grad(r1, r2 vec3.Vector) vec3.Vector {
	dr := r1.Sub(r2)
	h := 0.5 * (r1.H + r2.H)
	return dr.Scale(k.grad(dr, h))
}

// GradAsym returns the unsymmetrized softened gradient term for a query
// point r0 (carrying its own smoothing length in H) acting on a source at
// rj, using r0's smoothing length directly. The result is the vector
// ∇φ = dr·g itself.
func (k Kernel) GradAsym(r0, rj vec3.Vector) vec3.Vector {
	dr := r0.Sub(rj)
	return dr.Scale(k.grad(dr, r0.H))
}

// Value returns the softened potential Φ(r1, r2), using the symmetrized
// smoothing length, for use by energy diagnostics.
func (k Kernel) Value(r1, r2 vec3.Vector) float64 {
	dr := r1.Sub(r2)
	dist := dr.Length()
	if dist == 0 {
		return 0
	}
	h := 0.5 * (r1.H + r2.H)
	if k.radius <= 0 || h <= 0 {
		return -1 / dist
	}
	q := dist / h
	if q >= k.radius {
		return -1 / dist
	}
	// potential obtained by integrating -g(q)*q from q to radius, approximated
	// by trapezoid over the stored table tail for consistency with grad().
	idx := q / k.step
	i0 := int(idx)
	if i0 >= len(k.table)-1 {
		i0 = len(k.table) - 2
	}
	sum := 0.0
	for i := i0; i < len(k.table)-1; i++ {
		qi := float64(i) * k.step
		qi1 := float64(i+1) * k.step
		sum += 0.5 * (k.table[i]*qi + k.table[i+1]*qi1) * k.step
	}
	return -sum/h - 1/(h*k.radius)
}
