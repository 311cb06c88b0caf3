// Copyright © 2026 The gravcore Authors.
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package particles defines the thin collaborator interfaces the gravity
// core uses to read a particle snapshot and to write back the
// accelerations it computes, plus slice-backed implementations of each for
// callers (and tests) that have nothing fancier to offer. Particle storage
// itself, material models, and time integration are explicitly out of
// scope; this package only describes the boundary.
package particles

import "github.com/js-arias/gravcore/vec3"

// Source is a read-only view over a snapshot of particles, borrowed for
// the duration of a single build/eval cycle. Position's smoothing length
// travels in its H field.
type Source interface {
	Len() int
	Position(i int) vec3.Vector
	Mass(i int) float64
}

// Sink receives the accelerations a gravity evaluator computes. Gravity
// evaluators always add to whatever is already in the sink rather than
// overwrite it, so a caller can accumulate contributions from multiple
// sources (e.g. self-gravity plus an attractor pass) into the same buffer.
type Sink interface {
	AddAcceleration(i int, a vec3.Vector)
}

// Stats is an optional diagnostic sink a gravity evaluator reports tree
// statistics to after a self-gravity pass.
type Stats interface {
	SetApproximatedNodes(n int64)
	SetExactNodes(n int64)
	SetNodeCount(n int)
}

// Attractor is a heavy point mass treated separately from the particle
// set, such as a central body. Radius defines its softening scale, the
// attractor analogue of a particle's smoothing length.
type Attractor struct {
	Position vec3.Vector
	Mass     float64
	Radius   float64
}

// SliceSource is a Source backed by plain parallel slices.
type SliceSource struct {
	R []vec3.Vector
	M []float64
}

func (s *SliceSource) Len() int                   { return len(s.R) }
func (s *SliceSource) Position(i int) vec3.Vector { return s.R[i] }
func (s *SliceSource) Mass(i int) float64         { return s.M[i] }

// SliceSink accumulates accelerations into a plain slice, which must
// already be sized to the particle count.
type SliceSink struct {
	DV []vec3.Vector
}

func (s *SliceSink) AddAcceleration(i int, a vec3.Vector) {
	s.DV[i] = s.DV[i].Add(a)
}

// NopStats discards every statistic.
type NopStats struct{}

func (NopStats) SetApproximatedNodes(int64) {}
func (NopStats) SetExactNodes(int64)        {}
func (NopStats) SetNodeCount(int)           {}

// CounterStats records the most recent statistics reported to it.
type CounterStats struct {
	Approximated, Exact int64
	Nodes               int
}

func (c *CounterStats) SetApproximatedNodes(n int64) { c.Approximated = n }
func (c *CounterStats) SetExactNodes(n int64)        { c.Exact = n }
func (c *CounterStats) SetNodeCount(n int)           { c.Nodes = n }
