// Copyright © 2026 The gravcore Authors.
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

package vec3_test

import (
	"math"
	"testing"

	"github.com/js-arias/gravcore/vec3"
)

func TestBoxExtend(t *testing.T) {
	b := vec3.EmptyBox()
	if !b.IsEmpty() {
		t.Fatalf("expected empty box")
	}
	b = b.Extend(vec3.New(1, 2, 3))
	if b.IsEmpty() {
		t.Fatalf("box should not be empty after extend")
	}
	if b.Lower != vec3.New(1, 2, 3) || b.Upper != vec3.New(1, 2, 3) {
		t.Fatalf("unexpected box after first extend: %+v", b)
	}
	b = b.Extend(vec3.New(-1, 5, 0))
	want := vec3.Box{Lower: vec3.New(-1, 2, 0), Upper: vec3.New(1, 5, 3)}
	if b != want {
		t.Fatalf("got %+v, want %+v", b, want)
	}
}

func TestBoxSplit(t *testing.T) {
	b := vec3.Box{Lower: vec3.New(0, 0, 0), Upper: vec3.New(10, 10, 10)}
	lo, hi := b.Split(0, 4)
	if lo.Upper.X != 4 || hi.Lower.X != 4 {
		t.Fatalf("split did not set boundary: lo=%+v hi=%+v", lo, hi)
	}
	if lo.Lower.X != 0 || hi.Upper.X != 10 {
		t.Fatalf("split mutated unrelated bounds: lo=%+v hi=%+v", lo, hi)
	}
}

func TestIntersectBox(t *testing.T) {
	b := vec3.Box{Lower: vec3.New(-1, -1, -1), Upper: vec3.New(1, 1, 1)}

	if got := vec3.IntersectBox(vec3.New(0, 0, 0), 10, b); got != vec3.BoxInsideSphere {
		t.Fatalf("large sphere should contain box, got %v", got)
	}
	if got := vec3.IntersectBox(vec3.New(100, 100, 100), 1, b); got != vec3.BoxOutsideSphere {
		t.Fatalf("far sphere should be outside box, got %v", got)
	}
	if got := vec3.IntersectBox(vec3.New(0, 0, 0), math.Sqrt(2), b); got != vec3.Overlap {
		t.Fatalf("sphere reaching the edges but not the corners should overlap, got %v", got)
	}
	if got := vec3.IntersectBox(vec3.New(0, 0, 0), 0, b); got != vec3.BoxOutsideSphere {
		t.Fatalf("zero-radius sphere should not open, got %v", got)
	}
}
