// Copyright © 2026 The gravcore Authors.
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package gravity

import (
	"math"

	"github.com/js-arias/gravcore/kdtree"
	"github.com/js-arias/gravcore/multipole"
	"github.com/js-arias/gravcore/vec3"
)

// aggregateMoments runs the bottom-up moment pass over tree: mass, center
// of mass, traceless quadrupole and octupole per node, and the opening
// radius derived from them. It runs strictly serially, children before
// parent, since an inner node's moments depend on both of its children's
// results already being known.
func aggregateMoments(tree *kdtree.Tree[NodeData], thetaInv float64, r []vec3.Vector, scaledM []float64) {
	if tree.NodeCount() == 0 {
		return
	}
	aggregateNode(tree, tree.Root(), thetaInv, r, scaledM)
}

func aggregateNode(tree *kdtree.Tree[NodeData], idx int, thetaInv float64, r []vec3.Vector, scaledM []float64) {
	n := tree.Node(idx)
	if n.IsLeaf() {
		aggregateLeaf(tree, n, thetaInv, r, scaledM)
		return
	}
	aggregateNode(tree, n.Left, thetaInv, r, scaledM)
	aggregateNode(tree, n.Right, thetaInv, r, scaledM)
	aggregateInner(tree, n, thetaInv)
}

// openingRadius computes r_open = (2/√3)·θ⁻¹·|r_max| per Stadel's thesis
// eq. 2.36, where r_max is the componentwise max of com-lower and
// upper-com.
func openingRadius(com vec3.Vector, box vec3.Box, thetaInv float64) float64 {
	rMax := vec3.MaxElem(com.Sub(box.Lower), box.Upper.Sub(com))
	return 2.0 / math.Sqrt(3) * thetaInv * rMax.Length()
}

func aggregateLeaf(tree *kdtree.Tree[NodeData], n *kdtree.Node[NodeData], thetaInv float64, r []vec3.Vector, scaledM []float64) {
	switch n.Size() {
	case 0:
		// empty leaf: zero moments so a parent summing it contributes
		// nothing.
		n.Payload = NodeData{}
		return
	case 1:
		i := tree.Index(n.From)
		n.Payload = NodeData{
			COM:     r[i],
			Moments: multipole.Expansion{M0: scaledM[i]},
		}
		return
	}

	var mLeaf float64
	var com vec3.Vector
	for k := n.From; k < n.To; k++ {
		i := tree.Index(k)
		com = com.Add(r[i].Scale(scaledM[i]))
		mLeaf += scaledM[i]
	}
	com = com.Scale(1 / mLeaf)

	count := n.To - n.From
	pts := make([]vec3.Vector, count)
	ms := make([]float64, count)
	for k := n.From; k < n.To; k++ {
		i := tree.Index(k)
		pts[k-n.From] = r[i]
		ms[k-n.From] = scaledM[i]
	}

	m2 := multipole.ComputeRank2(pts, ms, com)
	m3 := multipole.ComputeRank3(pts, ms, com)

	n.Payload = NodeData{
		COM: com,
		Moments: multipole.Expansion{
			M0: mLeaf,
			Q2: multipole.ReduceRank2(m2),
			Q3: multipole.ReduceRank3(m3),
		},
		ROpen: openingRadius(com, n.Box, thetaInv),
	}
}

func aggregateInner(tree *kdtree.Tree[NodeData], n *kdtree.Node[NodeData], thetaInv float64) {
	left := tree.Node(n.Left)
	right := tree.Node(n.Right)

	// recompute a tight box from the children, rather than trusting the
	// split-derived box the k-d tree build assigned: the opening radius
	// needs the true extent of the contained points.
	n.Box = left.Box.ExtendBox(right.Box)

	ml := left.Payload.Moments.M0
	mr := right.Payload.Moments.M0
	if ml+mr == 0 {
		n.Payload = NodeData{}
		return
	}

	com := left.Payload.COM.Scale(ml).Add(right.Payload.COM.Scale(mr)).Scale(1 / (ml + mr))

	dl := left.Payload.COM.Sub(com)
	dr := right.Payload.COM.Sub(com)

	q2 := multipole.ParallelAxisRank2(left.Payload.Moments.Q2, ml, dl).
		Add(multipole.ParallelAxisRank2(right.Payload.Moments.Q2, mr, dr))
	q3 := multipole.ParallelAxisRank3(left.Payload.Moments.Q3, left.Payload.Moments.Q2, ml, dl).
		Add(multipole.ParallelAxisRank3(right.Payload.Moments.Q3, right.Payload.Moments.Q2, mr, dr))

	n.Payload = NodeData{
		COM: com,
		Moments: multipole.Expansion{
			M0: ml + mr,
			Q2: q2,
			Q3: q3,
		},
		ROpen: openingRadius(com, n.Box, thetaInv),
	}
}
