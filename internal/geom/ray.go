package geom

import "math"

// Ray is an origin plus a direction. Direction need not be normalized;
// IntersectAABB reports distances in units of the direction's length.
type Ray struct {
	Origin Vec3
	Dir    Vec3
}

// IntersectAABB is the slab test. It returns the entry distance along the
// ray and whether the box is hit at t >= 0.
func (r Ray) IntersectAABB(b AABB) (float64, bool) {
	tmin := math.Inf(-1)
	tmax := math.Inf(1)

	for _, axis := range [3][3]float64{
		{r.Origin.X, r.Dir.X, 0},
		{r.Origin.Y, r.Dir.Y, 1},
		{r.Origin.Z, r.Dir.Z, 2},
	} {
		o, d := axis[0], axis[1]
		var lo, hi float64
		switch axis[2] {
		case 0:
			lo, hi = b.Min.X, b.Max.X
		case 1:
			lo, hi = b.Min.Y, b.Max.Y
		default:
			lo, hi = b.Min.Z, b.Max.Z
		}
		if d == 0 {
			if o < lo || o > hi {
				return 0, false
			}
			continue
		}
		t1 := (lo - o) / d
		t2 := (hi - o) / d
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tmin {
			tmin = t1
		}
		if t2 < tmax {
			tmax = t2
		}
		if tmin > tmax {
			return 0, false
		}
	}
	if tmax < 0 {
		return 0, false
	}
	if tmin < 0 {
		return 0, true // origin inside the box
	}
	return tmin, true
}
