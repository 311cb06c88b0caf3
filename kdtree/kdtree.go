// Copyright © 2026 The gravcore Authors.
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// Package kdtree implements a generic, sliding-midpoint k-d tree: nodes
// live in a single flat, atomically-grown slice (no pointer graph), leaves
// hold a bucket of up to LeafSize particle indices, and the tree build can
// fan out across a scheduler near the root while staying sequential deeper
// down. Each node carries a generic Payload, so a caller can augment nodes
// with its own per-node data (e.g. gravity moments) without this package
// knowing anything about it.
package kdtree

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/js-arias/gravcore/sched"
	"github.com/js-arias/gravcore/vec3"
)

// Type identifies a node's split axis, or marks it as a leaf.
type Type int

const (
	SplitX Type = iota
	SplitY
	SplitZ
	Leaf
)

// Node is a single k-d tree node. Inner and leaf fields coexist on one
// struct instead of being reinterpreted from a common-size union, the way
// idiomatic Go trades the pointer-free flat layout for a plain tagged
// struct instead of a reinterpret-cast trick.
type Node[T any] struct {
	Type Type
	Box  vec3.Box

	// Inner-node fields.
	Split       float64
	Left, Right int

	// Leaf-node fields: half-open range [From,To) into the tree's index
	// permutation.
	From, To int

	// Payload is caller-owned per-node data, e.g. gravity moments.
	Payload T
}

// IsLeaf reports whether n is a leaf node.
func (n *Node[T]) IsLeaf() bool {
	return n.Type == Leaf
}

// Size returns the number of particles in a leaf node (0 for inner nodes).
func (n *Node[T]) Size() int {
	if !n.IsLeaf() {
		return 0
	}
	return n.To - n.From
}

// Tree is a sliding-midpoint k-d tree over a borrowed slice of points.
type Tree[T any] struct {
	leafSize         int
	maxParallelDepth int
	maxSlides        int

	entireBox vec3.Box
	points    []vec3.Vector
	idxs      []int

	nodes       []Node[T]
	nodeCounter int64
	mu          sync.RWMutex
}

// New returns an empty tree with the given leaf bucket size and the
// maximum recursion depth at which the build fans out across a scheduler.
func New[T any](leafSize, maxParallelDepth int) *Tree[T] {
	if leafSize < 1 {
		leafSize = 1
	}
	return &Tree[T]{
		leafSize:         leafSize,
		maxParallelDepth: maxParallelDepth,
		maxSlides:        5,
	}
}

// NodeCount returns the number of nodes in the tree.
func (t *Tree[T]) NodeCount() int {
	return len(t.nodes)
}

// Node returns a pointer to node i, usable to read or augment its Payload.
func (t *Tree[T]) Node(i int) *Node[T] {
	return &t.nodes[i]
}

// Root returns the index of the root node (always 0 once built).
func (t *Tree[T]) Root() int {
	return 0
}

// Index returns the particle index stored at permutation slot i.
func (t *Tree[T]) Index(i int) int {
	return t.idxs[i]
}

// EntireBox returns the bounding box of every point given to Build.
func (t *Tree[T]) EntireBox() vec3.Box {
	return t.entireBox
}

// Point returns the position of a particle, by its original index.
func (t *Tree[T]) Point(particle int) vec3.Vector {
	return t.points[particle]
}

// Build constructs the tree over points. points is borrowed for the
// lifetime of the tree; it is not copied. Build is deterministic for a
// fixed input order.
func (t *Tree[T]) Build(s sched.Scheduler, points []vec3.Vector) {
	n := len(points)
	t.points = points
	t.entireBox = vec3.EmptyBox()
	for _, p := range points {
		t.entireBox = t.entireBox.Extend(p)
	}
	t.idxs = make([]int, n)
	for i := range t.idxs {
		t.idxs[i] = i
	}

	estimate := 2*n/t.leafSize + 1
	if estimate < 1 {
		estimate = 1
	}
	if estimate < len(t.nodes) {
		estimate = len(t.nodes)
	}
	t.nodes = make([]Node[T], estimate)
	atomic.StoreInt64(&t.nodeCounter, 0)

	var wg sync.WaitGroup
	wg.Add(1)
	t.buildTree(s, &wg, -1, false, 0, n, t.entireBox, 0, 0)
	wg.Wait()
	t.nodes = t.nodes[:atomic.LoadInt64(&t.nodeCounter)]
}

// buildTree builds the subtree over [from,to) and reports completion on wg.
// Every call consumes exactly one wg.Add(1) performed by its caller; a
// submitted subtree is fired and forgotten here, not waited on at this
// recursion level — only Build's single top-level wg.Wait() blocks on the
// whole tree. A chain of per-level Submit-then-Wait calls would have each
// level's goroutine block while still holding its scheduler slot, which
// deadlocks a bounded pool once the tree is deeper than the worker count;
// fire-and-forget with one root join is the same shape the dual-recursion
// walk in the gravity package uses, and the one the original C++ finder's
// parallel build uses (submit the other branch, never wait on it locally).
func (t *Tree[T]) buildTree(s sched.Scheduler, wg *sync.WaitGroup, parent int, isLeft bool, from, to int, box vec3.Box, slidingCnt, depth int) {
	defer wg.Done()
	if to-from <= t.leafSize {
		t.addLeaf(parent, isLeft, from, to)
		return
	}

	order := sortDimsBySize(box)
	dim := -1
	for _, d := range order {
		if !t.isSingular(from, to, d) {
			dim = d
			break
		}
	}

	var splitPos float64
	var mid int
	newSliding := 0

	switch {
	case dim == -1:
		// All three axes are singular over this range: fall through to a
		// raw midpoint split with no partitioning. Not a slide, so the
		// consecutive-slide counter resets.
		dim = order[0]
		mid = from + (to-from)/2
		splitPos = box.Center().At(dim)
	case slidingCnt > t.maxSlides:
		// Median split also isn't itself a slide: resets the counter.
		mid, splitPos = t.medianSplit(from, to, dim)
	default:
		center := box.Center().At(dim)
		mid = t.partition(from, to, dim, center)
		if mid == from || mid == to {
			mid, splitPos = t.slideToExtreme(from, to, dim, mid == from)
			newSliding = slidingCnt + 1
		} else {
			splitPos = center
		}
	}

	lo, hi := box.Split(dim, splitPos)
	idx := t.addInner(parent, isLeft, Type(dim), splitPos, box)

	if depth < t.maxParallelDepth {
		wg.Add(1)
		s.Submit(func() {
			t.buildTree(s, wg, idx, false, mid, to, hi, newSliding, depth+1)
		})
		wg.Add(1)
		t.buildTree(s, wg, idx, true, from, mid, lo, newSliding, depth+1)
		return
	}

	wg.Add(1)
	t.buildTree(s, wg, idx, true, from, mid, lo, newSliding, depth+1)
	wg.Add(1)
	t.buildTree(s, wg, idx, false, mid, to, hi, newSliding, depth+1)
}

func (t *Tree[T]) isSingular(from, to, dim int) bool {
	if to-from == 0 {
		return true
	}
	v := t.points[t.idxs[from]].At(dim)
	for i := from + 1; i < to; i++ {
		if t.points[t.idxs[i]].At(dim) != v {
			return false
		}
	}
	return true
}

func sortDimsBySize(box vec3.Box) [3]int {
	size := box.Size()
	vals := [3]float64{size.X, size.Y, size.Z}
	dims := [3]int{0, 1, 2}
	sort.Slice(dims[:], func(i, j int) bool { return vals[dims[i]] > vals[dims[j]] })
	return dims
}

// partition rearranges idxs[from:to] so that every point with coordinate
// ≤ center along dim comes first, and returns the boundary index.
func (t *Tree[T]) partition(from, to, dim int, center float64) int {
	lo, hi := from, to-1
	for lo <= hi {
		for lo <= hi && t.points[t.idxs[lo]].At(dim) <= center {
			lo++
		}
		for lo <= hi && t.points[t.idxs[hi]].At(dim) > center {
			hi--
		}
		if lo < hi {
			t.idxs[lo], t.idxs[hi] = t.idxs[hi], t.idxs[lo]
			lo++
			hi--
		}
	}
	return lo
}

// slideToExtreme moves the single most extreme point to the empty side of
// an otherwise-empty partition, guaranteeing a non-empty split.
func (t *Tree[T]) slideToExtreme(from, to, dim int, leftEmpty bool) (mid int, splitPos float64) {
	if leftEmpty {
		best := from
		for i := from + 1; i < to; i++ {
			if t.points[t.idxs[i]].At(dim) < t.points[t.idxs[best]].At(dim) {
				best = i
			}
		}
		t.idxs[from], t.idxs[best] = t.idxs[best], t.idxs[from]
		return from + 1, t.points[t.idxs[from]].At(dim)
	}
	best := to - 1
	for i := from; i < to-1; i++ {
		if t.points[t.idxs[i]].At(dim) > t.points[t.idxs[best]].At(dim) {
			best = i
		}
	}
	t.idxs[to-1], t.idxs[best] = t.idxs[best], t.idxs[to-1]
	return to - 1, t.points[t.idxs[to-1]].At(dim)
}

// medianSplit sorts idxs[from:to] by the dim coordinate and returns the
// midpoint, guaranteeing equal halves. A full sort is used in place of a
// linear-time selection: simpler to get right without being able to run
// the code, and the asymptotic cost only matters after more than five
// consecutive slides, which is rare.
func (t *Tree[T]) medianSplit(from, to, dim int) (mid int, splitPos float64) {
	sub := t.idxs[from:to]
	sort.Slice(sub, func(i, j int) bool {
		return t.points[sub[i]].At(dim) < t.points[sub[j]].At(dim)
	})
	mid = from + (to-from)/2
	splitPos = t.points[t.idxs[mid]].At(dim)
	return mid, splitPos
}

func (t *Tree[T]) ensureCapacity(idx int) {
	t.mu.RLock()
	if idx < len(t.nodes) {
		t.mu.RUnlock()
		return
	}
	t.mu.RUnlock()

	t.mu.Lock()
	defer t.mu.Unlock()
	if idx >= len(t.nodes) {
		newLen := 2 * (idx + 1)
		if newLen < len(t.nodes) {
			newLen = len(t.nodes)
		}
		grown := make([]Node[T], newLen)
		copy(grown, t.nodes)
		t.nodes = grown
	}
}

func (t *Tree[T]) allocNode() int {
	idx := int(atomic.AddInt64(&t.nodeCounter, 1) - 1)
	t.ensureCapacity(idx)
	return idx
}

func (t *Tree[T]) writeNode(idx int, n Node[T]) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	t.nodes[idx] = n
}

func (t *Tree[T]) linkChild(parent, child int, isLeft bool) {
	if parent < 0 {
		return
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	if isLeft {
		t.nodes[parent].Left = child
	} else {
		t.nodes[parent].Right = child
	}
}

func (t *Tree[T]) addLeaf(parent int, isLeft bool, from, to int) int {
	idx := t.allocNode()
	box := vec3.EmptyBox()
	for i := from; i < to; i++ {
		box = box.Extend(t.points[t.idxs[i]])
	}
	t.writeNode(idx, Node[T]{Type: Leaf, Box: box, From: from, To: to})
	t.linkChild(parent, idx, isLeft)
	return idx
}

func (t *Tree[T]) addInner(parent int, isLeft bool, splitType Type, splitPos float64, box vec3.Box) int {
	idx := t.allocNode()
	t.writeNode(idx, Node[T]{Type: splitType, Box: box, Split: splitPos})
	t.linkChild(parent, idx, isLeft)
	return idx
}

// SanityCheck verifies the tree's structural invariants: every point lies
// within the root box, every inner-node child index is in range, every
// particle index appears in exactly one leaf whose box contains it, and
// the recursive node count matches the node array.
func (t *Tree[T]) SanityCheck() error {
	if len(t.nodes) == 0 {
		return fmt.Errorf("kdtree: empty node array")
	}
	for _, p := range t.points {
		if !t.entireBox.Contains(p) {
			return fmt.Errorf("kdtree: point %v outside root box", p)
		}
	}
	seen := make([]bool, len(t.points))
	count, err := t.checkNode(0, seen)
	if err != nil {
		return err
	}
	if count != len(t.nodes) {
		return fmt.Errorf("kdtree: node count mismatch: counted %d, have %d", count, len(t.nodes))
	}
	for i, ok := range seen {
		if !ok {
			return fmt.Errorf("kdtree: particle index %d missing from any leaf", i)
		}
	}
	return nil
}

func (t *Tree[T]) checkNode(idx int, seen []bool) (int, error) {
	if idx < 0 || idx >= len(t.nodes) {
		return 0, fmt.Errorf("kdtree: node index %d out of range", idx)
	}
	n := &t.nodes[idx]
	if n.IsLeaf() {
		for i := n.From; i < n.To; i++ {
			p := t.idxs[i]
			if p < 0 || p >= len(seen) {
				return 0, fmt.Errorf("kdtree: leaf references invalid particle index %d", p)
			}
			if seen[p] {
				return 0, fmt.Errorf("kdtree: particle index %d referenced by more than one leaf", p)
			}
			seen[p] = true
			if !n.Box.Contains(t.points[p]) {
				return 0, fmt.Errorf("kdtree: leaf box does not contain particle %d", p)
			}
		}
		return 1, nil
	}
	lc, err := t.checkNode(n.Left, seen)
	if err != nil {
		return 0, err
	}
	rc, err := t.checkNode(n.Right, seen)
	if err != nil {
		return 0, err
	}
	return 1 + lc + rc, nil
}

// RankFilter restricts neighbour results: given a candidate particle index
// and the anchor index a query was issued for, it reports whether the
// candidate should be kept. A nil filter keeps every candidate.
type RankFilter func(candidate, anchor int) bool

type stackEntry struct {
	node int
}

var stackPool = sync.Pool{
	New: func() any { return make([]stackEntry, 0, 64) },
}

// Find appends to out every particle index within squared distance
// radiusSqr of q, optionally restricted by filter (called with the anchor
// index, e.g. to only return neighbours of lower rank than the query
// particle). The traversal visits the near child of each inner node first
// and only descends into the far child when the split plane itself lies
// within range, using a pooled stack to avoid a fresh allocation per call.
func (t *Tree[T]) Find(q vec3.Vector, radiusSqr float64, anchor int, filter RankFilter, out []int) []int {
	stack := stackPool.Get().([]stackEntry)
	stack = stack[:0]

	stack = append(stack, stackEntry{node: 0})
	for len(stack) > 0 {
		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := &t.nodes[e.node]

		if n.IsLeaf() {
			for i := n.From; i < n.To; i++ {
				idx := t.idxs[i]
				d := t.points[idx].Sub(q)
				if d.SqrLength() > radiusSqr {
					continue
				}
				if filter != nil && !filter(idx, anchor) {
					continue
				}
				out = append(out, idx)
			}
			continue
		}

		dim := int(n.Type)
		diff := q.At(dim) - n.Split
		near, far := n.Left, n.Right
		if diff > 0 {
			near, far = n.Right, n.Left
		}
		if diff*diff <= radiusSqr {
			stack = append(stack, stackEntry{node: far})
		}
		stack = append(stack, stackEntry{node: near})
	}
	stackPool.Put(stack[:0])
	return out
}
