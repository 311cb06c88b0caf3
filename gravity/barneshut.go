// Copyright © 2026 The gravcore Authors.
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package gravity

import (
	"sync"
	"sync/atomic"

	"github.com/js-arias/gravcore/kdtree"
	"github.com/js-arias/gravcore/kernel"
	"github.com/js-arias/gravcore/multipole"
	"github.com/js-arias/gravcore/particles"
	"github.com/js-arias/gravcore/sched"
	"github.com/js-arias/gravcore/vec3"
)

// distEps guards the per-point opening test's division against a query
// point sitting exactly on a node's box center.
const distEps = 1e-300

// BarnesHut evaluates gravity with a k-d tree and the Stadel dual-recursion
// tree walk: distant groups of particles are approximated by a single
// multipole evaluation, near groups are summed pairwise.
type BarnesHut struct {
	theta    float64
	thetaInv float64
	order    multipole.Order
	maxDepth int
	g        float64
	kernel   kernel.Kernel

	tree *kdtree.Tree[NodeData]
	r    []vec3.Vector
	m    []float64 // G-scaled
}

// NewBarnesHut returns a Barnes-Hut evaluator. theta is the opening angle
// (must be positive); order selects how many multipole ranks are used when
// approximating a distant node; leafSize bounds the k-d tree's leaf
// buckets; maxDepth caps both the tree build's parallel fan-out depth and
// the self-gravity walk's task-spawning depth; g is the gravitational
// constant; k is the softening kernel (kernel.Zero() for none).
func NewBarnesHut(theta float64, order multipole.Order, leafSize, maxDepth int, g float64, k kernel.Kernel) *BarnesHut {
	if theta <= 0 {
		panic("gravity: theta must be positive")
	}
	return &BarnesHut{
		theta:    theta,
		thetaInv: 1 / theta,
		order:    order,
		maxDepth: maxDepth,
		g:        g,
		kernel:   k,
		tree:     kdtree.New[NodeData](leafSize, maxDepth),
	}
}

// Build captures the particle snapshot, builds the k-d tree over it, and
// aggregates multipole moments bottom-up.
func (b *BarnesHut) Build(s sched.Scheduler, src particles.Source) {
	n := src.Len()
	b.r = make([]vec3.Vector, n)
	b.m = make([]float64, n)
	for i := 0; i < n; i++ {
		b.r[i] = src.Position(i)
		b.m[i] = src.Mass(i) * b.g
	}
	b.tree.Build(s, b.r)
	aggregateMoments(b.tree, b.thetaInv, b.r, b.m)
}

// Finder returns the underlying k-d tree, whose leaf particle indices are
// the caller's original particle indices.
func (b *BarnesHut) Finder() *kdtree.Tree[NodeData] {
	return b.tree
}

// Moments returns the root node's multipole expansion about the overall
// center of mass, with the internal G scaling divided back out.
func (b *BarnesHut) Moments() multipole.Expansion {
	if b.tree.NodeCount() == 0 || b.g == 0 {
		return multipole.Expansion{}
	}
	root := b.tree.Node(b.tree.Root())
	invG := 1 / b.g
	return multipole.Expansion{
		M0: root.Payload.Moments.M0 * invG,
		Q2: root.Payload.Moments.Q2.Scale(invG),
		Q3: root.Payload.Moments.Q3.Scale(invG),
	}
}

// walkState is the per-subtree state of the dual-recursion tree walk:
// candidate nodes not yet classified, leaves accepted for exact pairwise
// evaluation, nodes accepted for multipole approximation, and the current
// recursion depth.
type walkState struct {
	checkList    []int
	particleList []int
	nodeList     []int
	depth        int
}

func (w walkState) clone() walkState {
	return walkState{
		checkList:    append([]int(nil), w.checkList...),
		particleList: append([]int(nil), w.particleList...),
		nodeList:     append([]int(nil), w.nodeList...),
		depth:        w.depth,
	}
}

// walkResult accumulates the statistics the walk reports back to the
// caller.
type walkResult struct {
	approximated int64
	exact        int64
}

// EvalSelfGravity runs the dual-recursion tree walk, adding to sink the
// acceleration on every particle from every other particle. A single
// WaitGroup joins the whole walk; evalNode fires subtrees off to the
// scheduler without waiting on them locally, so eval returns only once
// every transitively submitted task has completed (see evalNode).
func (b *BarnesHut) EvalSelfGravity(s sched.Scheduler, sink particles.Sink, stats particles.Stats) {
	if len(b.r) == 0 {
		return
	}
	result := &walkResult{}
	var wg sync.WaitGroup
	wg.Add(1)
	b.evalNode(s, &wg, sink, b.tree.Root(), walkState{}, result)
	wg.Wait()
	if stats != nil {
		stats.SetApproximatedNodes(atomic.LoadInt64(&result.approximated))
		stats.SetExactNodes(atomic.LoadInt64(&result.exact))
		stats.SetNodeCount(b.tree.NodeCount())
	}
}

// evalNode classifies data's checkList against the evaluated node en,
// descending to resolve lists at leaves and recursing into both children of
// an inner node. Every call consumes one wg.Add(1) performed by its caller;
// a submitted child is fired and forgotten here, not waited on at this
// recursion level. A chain of per-level Submit-then-Wait calls would leave
// each level's goroutine blocked while still holding its scheduler slot,
// which deadlocks a bounded pool once the walk is deeper than the worker
// count — only EvalSelfGravity's single top-level wg.Wait() blocks on the
// whole walk.
func (b *BarnesHut) evalNode(s sched.Scheduler, wg *sync.WaitGroup, dv particles.Sink, nodeIdx int, data walkState, result *walkResult) {
	defer wg.Done()
	en := b.tree.Node(nodeIdx)
	if en.Box.IsEmpty() {
		return
	}

	// the children of an opened candidate join the worklist and are
	// classified against en in this same pass.
	pending := append([]int(nil), data.checkList...)
	var newCheck []int
	for k := 0; k < len(pending); k++ {
		idx := pending[k]
		cand := b.tree.Node(idx)
		if cand.Payload.ROpen == 0 {
			// empty node or a single-particle leaf: treat exactly.
			data.particleList = append(data.particleList, idx)
			continue
		}
		res := vec3.IntersectBox(cand.Payload.COM, cand.Payload.ROpen, en.Box)
		switch {
		case res == vec3.BoxInsideSphere || (en.IsLeaf() && res != vec3.BoxOutsideSphere):
			if cand.IsLeaf() {
				data.particleList = append(data.particleList, idx)
			} else {
				pending = append(pending, cand.Left, cand.Right)
			}
		case res == vec3.BoxOutsideSphere:
			data.nodeList = append(data.nodeList, idx)
		default:
			// partial overlap against an inner en: refine at the children.
			newCheck = append(newCheck, idx)
		}
	}
	data.checkList = newCheck

	if en.IsLeaf() {
		b.evalParticleList(en, data.particleList, dv)
		atomic.AddInt64(&result.exact, int64(len(data.particleList)))
		b.evalNodeList(en, data.nodeList, dv)
		atomic.AddInt64(&result.approximated, int64(len(data.nodeList)))
		return
	}

	data.depth++
	child := data.clone()
	child.checkList = append(child.checkList, en.Right)

	if child.depth < b.maxDepth {
		wg.Add(1)
		s.Submit(func() {
			b.evalNode(s, wg, dv, en.Left, child, result)
		})
		data.checkList = append(data.checkList, en.Left)
		wg.Add(1)
		b.evalNode(s, wg, dv, en.Right, data, result)
		return
	}

	// below the fan-out depth: run both children inline to bound
	// scheduler overhead.
	wg.Add(1)
	b.evalNode(s, wg, dv, en.Left, child, result)
	data.checkList = append(data.checkList, en.Left)
	wg.Add(1)
	b.evalNode(s, wg, dv, en.Right, data, result)
}

// evalParticleList sums exact pairwise interactions between every particle
// in leaf en and every leaf referenced by particleList, plus en's own
// intra-leaf interactions (symmetrized: each pair visited once, updating
// both particles).
func (b *BarnesHut) evalParticleList(en *kdtree.Node[NodeData], particleList []int, dv particles.Sink) {
	for _, idx := range particleList {
		other := b.tree.Node(idx)
		for i := en.From; i < en.To; i++ {
			pi := b.tree.Index(i)
			var a vec3.Vector
			for j := other.From; j < other.To; j++ {
				pj := b.tree.Index(j)
				a = a.Sub(b.kernel.Grad(b.r[pi], b.r[pj]).Scale(b.m[pj]))
			}
			dv.AddAcceleration(pi, a)
		}
	}

	for i := en.From; i < en.To; i++ {
		pi := b.tree.Index(i)
		for j := i + 1; j < en.To; j++ {
			pj := b.tree.Index(j)
			g := b.kernel.Grad(b.r[pi], b.r[pj])
			dv.AddAcceleration(pi, g.Scale(-b.m[pj]))
			dv.AddAcceleration(pj, g.Scale(b.m[pi]))
		}
	}
}

// evalNodeList adds the multipole contribution of every node in nodeList
// to every particle in leaf en.
func (b *BarnesHut) evalNodeList(en *kdtree.Node[NodeData], nodeList []int, dv particles.Sink) {
	for _, idx := range nodeList {
		node := b.tree.Node(idx)
		for i := en.From; i < en.To; i++ {
			pi := b.tree.Index(i)
			dr := b.r[pi].Sub(node.Payload.COM)
			dv.AddAcceleration(pi, multipole.Evaluate(dr, node.Payload.Moments, b.order))
		}
	}
}

// EvalAt returns the acceleration at an arbitrary field point, not
// excluding any particle by index. A query issued at a particle's own
// position naturally omits that particle's contribution: the softening
// kernel evaluates to zero at exactly zero separation (see kernel.Kernel),
// which is the only case a valid particle set can produce a zero
// separation for. Uses the per-point top-down walk and the geometric
// opening criterion boxSize²/boxDist² < θ².
func (b *BarnesHut) EvalAt(r0 vec3.Vector) vec3.Vector {
	if b.tree.NodeCount() == 0 {
		return vec3.Vector{}
	}
	var a vec3.Vector
	b.evalPoint(b.tree.Root(), r0, &a)
	return a
}

func (b *BarnesHut) evalPoint(idx int, r0 vec3.Vector, a *vec3.Vector) {
	node := b.tree.Node(idx)
	if node.Box.IsEmpty() {
		return
	}
	boxSizeSqr := node.Box.Size().SqrLength()
	boxDistSqr := node.Box.Center().Sub(r0).SqrLength()

	if !node.Box.Contains(r0) && boxSizeSqr > 0 && boxSizeSqr/(boxDistSqr+distEps) < b.theta*b.theta {
		dr := r0.Sub(node.Payload.COM)
		*a = (*a).Add(multipole.Evaluate(dr, node.Payload.Moments, b.order))
		return
	}

	if node.IsLeaf() {
		*a = (*a).Add(b.evalExact(node, r0))
		return
	}
	b.evalPoint(node.Left, r0, a)
	b.evalPoint(node.Right, r0, a)
}

func (b *BarnesHut) evalExact(leaf *kdtree.Node[NodeData], r0 vec3.Vector) vec3.Vector {
	var a vec3.Vector
	for i := leaf.From; i < leaf.To; i++ {
		pi := b.tree.Index(i)
		a = a.Sub(b.kernel.GradAsym(r0, b.r[pi]).Scale(b.m[pi]))
	}
	return a
}

// EvalAttractors adds the acceleration from attractors to sink, and
// optionally the reaction onto the attractors themselves.
func (b *BarnesHut) EvalAttractors(s sched.Scheduler, sink particles.Sink, attractorSink AttractorSink, attractors []particles.Attractor) {
	evalAttractors(s, b.g, b.kernel, b.r, b.m, sink, attractorSink, attractors)
}

// EvalEnergy returns the total self-potential energy of the particle set,
// by direct pairwise summation (a diagnostic, not accelerated by the
// tree).
func (b *BarnesHut) EvalEnergy(s sched.Scheduler) float64 {
	return evalEnergyDirect(s, b.g, b.kernel, b.r, b.m)
}
