// Copyright © 2026 The gravcore Authors.
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package vec3 implements the 3-D vector and axis-aligned box primitives
// used throughout gravcore: particle positions packed with a smoothing
// length, bounding boxes, and the sphere-box intersection test used by the
// Barnes-Hut tree walk.
package vec3

import "math"

// Vector is a point or displacement in 3-D space. H carries a smoothing
// length (or, for attractors, a softening radius) alongside the position; it
// is ignored by pure vector arithmetic and only consulted by the gravity
// and kernel packages.
type Vector struct {
	X, Y, Z float64
	H       float64
}

// New returns a Vector with the given coordinates and a zero smoothing
// length.
func New(x, y, z float64) Vector {
	return Vector{X: x, Y: y, Z: z}
}

// WithH returns v with its smoothing length set to h.
func (v Vector) WithH(h float64) Vector {
	v.H = h
	return v
}

// Add returns v+w (smoothing lengths are not combined; the result keeps v's).
func (v Vector) Add(w Vector) Vector {
	return Vector{X: v.X + w.X, Y: v.Y + w.Y, Z: v.Z + w.Z, H: v.H}
}

// Sub returns v-w.
func (v Vector) Sub(w Vector) Vector {
	return Vector{X: v.X - w.X, Y: v.Y - w.Y, Z: v.Z - w.Z, H: v.H}
}

// Scale returns v scaled componentwise by f.
func (v Vector) Scale(f float64) Vector {
	return Vector{X: v.X * f, Y: v.Y * f, Z: v.Z * f, H: v.H}
}

// Dot returns the Euclidean inner product of v and w.
func (v Vector) Dot(w Vector) float64 {
	return v.X*w.X + v.Y*w.Y + v.Z*w.Z
}

// SqrLength returns |v|².
func (v Vector) SqrLength() float64 {
	return v.Dot(v)
}

// Length returns |v|.
func (v Vector) Length() float64 {
	return math.Sqrt(v.SqrLength())
}

// At returns the component at index i (0=X, 1=Y, 2=Z).
func (v Vector) At(i int) float64 {
	switch i {
	case 0:
		return v.X
	case 1:
		return v.Y
	case 2:
		return v.Z
	default:
		panic("vec3: index out of range")
	}
}

// SetAt returns v with component i replaced by x.
func (v Vector) SetAt(i int, x float64) Vector {
	switch i {
	case 0:
		v.X = x
	case 1:
		v.Y = x
	case 2:
		v.Z = x
	default:
		panic("vec3: index out of range")
	}
	return v
}

// MaxElem returns the componentwise maximum of v and w.
func MaxElem(v, w Vector) Vector {
	return Vector{X: math.Max(v.X, w.X), Y: math.Max(v.Y, w.Y), Z: math.Max(v.Z, w.Z)}
}

// MinElem returns the componentwise minimum of v and w.
func MinElem(v, w Vector) Vector {
	return Vector{X: math.Min(v.X, w.X), Y: math.Min(v.Y, w.Y), Z: math.Min(v.Z, w.Z)}
}

// MaxElement returns the largest of the three components of v.
func MaxElement(v Vector) float64 {
	return math.Max(v.X, math.Max(v.Y, v.Z))
}

// MinElement returns the smallest of the three components of v.
func MinElement(v Vector) float64 {
	return math.Min(v.X, math.Min(v.Y, v.Z))
}

// Box is an axis-aligned bounding box. An empty box is the distinguished
// state Lower > Upper componentwise; Extend replaces it on first use.
type Box struct {
	Lower, Upper Vector
}

// EmptyBox returns the distinguished empty box.
func EmptyBox() Box {
	const inf = math.MaxFloat64
	return Box{Lower: New(inf, inf, inf), Upper: New(-inf, -inf, -inf)}
}

// IsEmpty reports whether b is the distinguished empty box.
func (b Box) IsEmpty() bool {
	return b.Lower.X > b.Upper.X || b.Lower.Y > b.Upper.Y || b.Lower.Z > b.Upper.Z
}

// Center returns the midpoint of the box.
func (b Box) Center() Vector {
	return b.Lower.Add(b.Upper).Scale(0.5)
}

// Size returns Upper-Lower.
func (b Box) Size() Vector {
	return b.Upper.Sub(b.Lower)
}

// Extend grows b so that it also contains p, replacing b if it was empty.
func (b Box) Extend(p Vector) Box {
	if b.IsEmpty() {
		return Box{Lower: New(p.X, p.Y, p.Z), Upper: New(p.X, p.Y, p.Z)}
	}
	return Box{Lower: MinElem(b.Lower, p), Upper: MaxElem(b.Upper, p)}
}

// ExtendBox grows b so that it also contains o.
func (b Box) ExtendBox(o Box) Box {
	if o.IsEmpty() {
		return b
	}
	if b.IsEmpty() {
		return o
	}
	return Box{Lower: MinElem(b.Lower, o.Lower), Upper: MaxElem(b.Upper, o.Upper)}
}

// Contains reports whether p lies within b (inclusive of the boundary).
func (b Box) Contains(p Vector) bool {
	return p.X >= b.Lower.X && p.X <= b.Upper.X &&
		p.Y >= b.Lower.Y && p.Y <= b.Upper.Y &&
		p.Z >= b.Lower.Z && p.Z <= b.Upper.Z
}

// Split divides b at position along dimension d into a low and a high half.
func (b Box) Split(d int, position float64) (lo, hi Box) {
	lo, hi = b, b
	lo.Upper = lo.Upper.SetAt(d, position)
	hi.Lower = hi.Lower.SetAt(d, position)
	return lo, hi
}

// IntersectResult classifies the relation between an open sphere and a box.
type IntersectResult int

const (
	// BoxOutsideSphere means the box and the sphere share no point.
	BoxOutsideSphere IntersectResult = iota
	// BoxInsideSphere means the box is entirely contained in the sphere.
	BoxInsideSphere
	// Overlap means the sphere and box partially intersect.
	Overlap
)

// IntersectBox classifies box b against the open sphere of the given
// center and radius.
func IntersectBox(center Vector, radius float64, b Box) IntersectResult {
	if radius <= 0 {
		return BoxOutsideSphere
	}
	// distance from center to nearest point of the box (0 if inside)
	nearestSqr := 0.0
	// distance from center to farthest point of the box
	farthestSqr := 0.0
	for i := 0; i < 3; i++ {
		c := center.At(i)
		lo, hi := b.Lower.At(i), b.Upper.At(i)
		var dNear float64
		if c < lo {
			dNear = lo - c
		} else if c > hi {
			dNear = c - hi
		}
		nearestSqr += dNear * dNear

		dFar := math.Max(hi-c, c-lo)
		farthestSqr += dFar * dFar
	}
	r2 := radius * radius
	if farthestSqr < r2 {
		return BoxInsideSphere
	}
	if nearestSqr < r2 {
		return Overlap
	}
	return BoxOutsideSphere
}
