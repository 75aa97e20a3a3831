package geom

// AABB is an axis-aligned box described by its two extreme corners.
type AABB struct {
	Min Vec3
	Max Vec3
}

// AABBAround builds the box of half-extent r centered on c. With r covering
// a query sphere this is the sphere's bounding cube.
func AABBAround(c Vec3, r float64) AABB {
	return AABB{
		Min: Vec3{c.X - r, c.Y - r, c.Z - r},
		Max: Vec3{c.X + r, c.Y + r, c.Z + r},
	}
}

func (b AABB) Center() Vec3 {
	return Vec3{(b.Min.X + b.Max.X) / 2, (b.Min.Y + b.Max.Y) / 2, (b.Min.Z + b.Max.Z) / 2}
}

func (b AABB) Intersects(o AABB) bool {
	return b.Min.X <= o.Max.X && b.Max.X >= o.Min.X &&
		b.Min.Y <= o.Max.Y && b.Max.Y >= o.Min.Y &&
		b.Min.Z <= o.Max.Z && b.Max.Z >= o.Min.Z
}

// Contains reports whether o fits entirely inside b.
func (b AABB) Contains(o AABB) bool {
	return b.Min.X <= o.Min.X && b.Max.X >= o.Max.X &&
		b.Min.Y <= o.Min.Y && b.Max.Y >= o.Max.Y &&
		b.Min.Z <= o.Min.Z && b.Max.Z >= o.Max.Z
}

func (b AABB) ContainsPoint(p Vec3) bool {
	return b.Min.X <= p.X && p.X <= b.Max.X &&
		b.Min.Y <= p.Y && p.Y <= b.Max.Y &&
		b.Min.Z <= p.Z && p.Z <= b.Max.Z
}
