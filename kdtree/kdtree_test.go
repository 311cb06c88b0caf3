// Copyright © 2026 The gravcore Authors.
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package kdtree_test

import (
	"math/rand"
	"testing"

	"github.com/js-arias/gravcore/kdtree"
	"github.com/js-arias/gravcore/sched"
	"github.com/js-arias/gravcore/vec3"
)

func randomPoints(n int, seed int64) []vec3.Vector {
	r := rand.New(rand.NewSource(seed))
	pts := make([]vec3.Vector, n)
	for i := range pts {
		pts[i] = vec3.New(r.Float64()*10-5, r.Float64()*10-5, r.Float64()*10-5)
	}
	return pts
}

func TestBuildSanityCheck(t *testing.T) {
	pts := randomPoints(500, 1)
	tree := kdtree.New[struct{}](8, 3)
	tree.Build(sched.Sequential{}, pts)
	if err := tree.SanityCheck(); err != nil {
		t.Fatalf("sanity check failed: %v", err)
	}
}

func TestBuildSanityCheckParallelPool(t *testing.T) {
	pts := randomPoints(2000, 2)
	tree := kdtree.New[struct{}](16, 4)
	tree.Build(sched.NewPool(4), pts)
	if err := tree.SanityCheck(); err != nil {
		t.Fatalf("sanity check failed: %v", err)
	}
}

func TestBuildEmpty(t *testing.T) {
	tree := kdtree.New[struct{}](8, 3)
	tree.Build(sched.Sequential{}, nil)
	if err := tree.SanityCheck(); err != nil {
		t.Fatalf("sanity check failed on empty tree: %v", err)
	}
	if tree.NodeCount() != 1 {
		t.Fatalf("expected a single leaf node, got %d", tree.NodeCount())
	}
}

func TestBuildSingleParticle(t *testing.T) {
	tree := kdtree.New[struct{}](8, 3)
	tree.Build(sched.Sequential{}, []vec3.Vector{vec3.New(1, 2, 3)})
	if err := tree.SanityCheck(); err != nil {
		t.Fatalf("sanity check failed: %v", err)
	}
	root := tree.Node(tree.Root())
	if !root.IsLeaf() || root.Size() != 1 {
		t.Fatalf("expected single-particle leaf root, got %+v", root)
	}
}

func TestBuildCoincidentParticles(t *testing.T) {
	pts := make([]vec3.Vector, 20)
	for i := range pts {
		pts[i] = vec3.New(1, 1, 1)
	}
	tree := kdtree.New[struct{}](4, 3)
	tree.Build(sched.Sequential{}, pts)
	if err := tree.SanityCheck(); err != nil {
		t.Fatalf("sanity check failed on coincident particles: %v", err)
	}
}

func TestBuildLeafSizeGreaterThanN(t *testing.T) {
	pts := randomPoints(10, 3)
	tree := kdtree.New[struct{}](100, 3)
	tree.Build(sched.Sequential{}, pts)
	if tree.NodeCount() != 1 {
		t.Fatalf("expected a single root leaf, got %d nodes", tree.NodeCount())
	}
	if err := tree.SanityCheck(); err != nil {
		t.Fatalf("sanity check failed: %v", err)
	}
}

func TestBuildLeafSizeOne(t *testing.T) {
	pts := randomPoints(64, 4)
	tree := kdtree.New[struct{}](1, 3)
	tree.Build(sched.Sequential{}, pts)
	if err := tree.SanityCheck(); err != nil {
		t.Fatalf("sanity check failed: %v", err)
	}
}

func TestFindMatchesBruteForce(t *testing.T) {
	pts := randomPoints(300, 5)
	tree := kdtree.New[struct{}](8, 3)
	tree.Build(sched.Sequential{}, pts)

	q := vec3.New(0, 0, 0)
	const r2 = 4.0

	got := tree.Find(q, r2, -1, nil, nil)
	gotSet := make(map[int]bool, len(got))
	for _, idx := range got {
		gotSet[idx] = true
	}

	for i, p := range pts {
		want := p.Sub(q).SqrLength() <= r2
		if want != gotSet[i] {
			t.Fatalf("particle %d: brute force says in-range=%v, tree says %v", i, want, gotSet[i])
		}
	}
}

func TestFindRankFilter(t *testing.T) {
	pts := randomPoints(200, 6)
	tree := kdtree.New[struct{}](8, 3)
	tree.Build(sched.Sequential{}, pts)

	rank := make([]int, len(pts))
	for i := range rank {
		rank[i] = i
	}
	anchor := 100
	filter := func(candidate, anchor int) bool { return rank[candidate] < rank[anchor] }

	got := tree.Find(pts[anchor], 100, anchor, filter, nil)
	for _, idx := range got {
		if rank[idx] >= rank[anchor] {
			t.Fatalf("rank filter let through candidate %d with rank %d >= anchor rank %d", idx, rank[idx], rank[anchor])
		}
	}
}
