package geom

import (
	"math"
	"testing"
)

func TestLerpAngleShortWay(t *testing.T) {
	// Crossing the ±π seam must rotate through π, not back through 0.
	a := math.Pi - 0.1
	b := -math.Pi + 0.1
	got := LerpAngle(a, b, 0.5)
	want := math.Pi
	if d := math.Abs(math.Mod(got-want, 2*math.Pi)); d > 1e-9 && math.Abs(d-2*math.Pi) > 1e-9 {
		t.Fatalf("LerpAngle seam: got %v want %v", got, want)
	}

	if got := LerpAngle(0, math.Pi/2, 0.5); math.Abs(got-math.Pi/4) > 1e-9 {
		t.Fatalf("LerpAngle plain: got %v want %v", got, math.Pi/4)
	}
}

func TestRound2(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{10.505, 10.51},
		{10.504, 10.5},
		{-3.335, -3.34},
		{0, 0},
	}
	for _, tc := range cases {
		if got := Round2(tc.in); math.Abs(got-tc.want) > 1e-9 {
			t.Fatalf("Round2(%v): got %v want %v", tc.in, got, tc.want)
		}
	}
}

func TestAABBContainsAndIntersects(t *testing.T) {
	outer := AABB{Min: V3(-10, 0, -10), Max: V3(10, 10, 10)}
	inner := AABB{Min: V3(-1, 1, -1), Max: V3(1, 2, 1)}
	if !outer.Contains(inner) {
		t.Fatalf("outer should contain inner")
	}
	if inner.Contains(outer) {
		t.Fatalf("inner must not contain outer")
	}
	straddle := AABB{Min: V3(9, 0, 9), Max: V3(12, 1, 12)}
	if !outer.Intersects(straddle) {
		t.Fatalf("straddling boxes should intersect")
	}
	if outer.Contains(straddle) {
		t.Fatalf("straddling box is not contained")
	}
}

func TestRayIntersectAABB(t *testing.T) {
	box := AABB{Min: V3(4, -1, -1), Max: V3(6, 1, 1)}

	r := Ray{Origin: V3(0, 0, 0), Dir: V3(1, 0, 0)}
	d, hit := r.IntersectAABB(box)
	if !hit || math.Abs(d-4) > 1e-9 {
		t.Fatalf("axis ray: got (%v,%v) want (4,true)", d, hit)
	}

	miss := Ray{Origin: V3(0, 5, 0), Dir: V3(1, 0, 0)}
	if _, hit := miss.IntersectAABB(box); hit {
		t.Fatalf("parallel offset ray must miss")
	}

	behind := Ray{Origin: V3(10, 0, 0), Dir: V3(1, 0, 0)}
	if _, hit := behind.IntersectAABB(box); hit {
		t.Fatalf("box behind origin must miss")
	}

	inside := Ray{Origin: V3(5, 0, 0), Dir: V3(0, 1, 0)}
	d, hit = inside.IntersectAABB(box)
	if !hit || d != 0 {
		t.Fatalf("origin inside: got (%v,%v) want (0,true)", d, hit)
	}
}
