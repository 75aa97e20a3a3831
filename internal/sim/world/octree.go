package world

import (
	"wearcraft.dev/internal/geom"
)

// SpatialIndex is a loose octree over entity bounds. Entities whose AABB
// straddles a split plane stay at the parent node, so every entity lives at
// exactly one node along its containment path.
type SpatialIndex struct {
	root     *octNode
	capacity int
	maxDepth int
	minNode  float64

	ents   map[string]*Entity
	bounds map[string]geom.AABB
}

type octEntry struct {
	e   *Entity
	box geom.AABB
}

type octNode struct {
	bounds   geom.AABB
	depth    int
	entries  []octEntry
	children *[8]*octNode
}

// NewSpatialIndex covers [-size/2, size/2] in X/Z and [0, size/2] in Y.
func NewSpatialIndex(worldSize float64, capacity, maxDepth int, minNode float64) *SpatialIndex {
	half := worldSize / 2
	return &SpatialIndex{
		root: &octNode{bounds: geom.AABB{
			Min: geom.V3(-half, 0, -half),
			Max: geom.V3(half, half, half),
		}},
		capacity: capacity,
		maxDepth: maxDepth,
		minNode:  minNode,
		ents:     map[string]*Entity{},
		bounds:   map[string]geom.AABB{},
	}
}

func (s *SpatialIndex) Len() int { return len(s.ents) }

// Insert places the entity at the deepest node fully containing its AABB.
// Boxes that straddle or exceed the world boundary stay at the root, the
// same way split-plane straddlers stay at a parent; ground-resting entities
// always dip below y=0 and rely on this. Only a box fully outside the world
// volume is rejected.
func (s *SpatialIndex) Insert(e *Entity) bool {
	if e == nil || e.ID == "" {
		return false
	}
	if _, dup := s.ents[e.ID]; dup {
		s.Remove(e.ID)
	}
	box := e.Bounds()
	if !s.root.bounds.Intersects(box) {
		return false
	}
	s.insertAt(s.root, octEntry{e: e, box: box})
	s.ents[e.ID] = e
	s.bounds[e.ID] = box
	return true
}

func (s *SpatialIndex) insertAt(n *octNode, entry octEntry) {
	for {
		if n.children != nil {
			if c := childContaining(n, entry.box); c != nil {
				n = c
				continue
			}
			n.entries = append(n.entries, entry)
			return
		}
		n.entries = append(n.entries, entry)
		if len(n.entries) > s.capacity && s.canSplit(n) {
			s.split(n)
		}
		return
	}
}

func (s *SpatialIndex) canSplit(n *octNode) bool {
	if n.depth >= s.maxDepth {
		return false
	}
	return (n.bounds.Max.X-n.bounds.Min.X)/2 >= s.minNode
}

func (s *SpatialIndex) split(n *octNode) {
	mid := n.bounds.Center()
	var children [8]*octNode
	for i := 0; i < 8; i++ {
		min := n.bounds.Min
		max := mid
		if i&1 != 0 {
			min.X, max.X = mid.X, n.bounds.Max.X
		}
		if i&2 != 0 {
			min.Y, max.Y = mid.Y, n.bounds.Max.Y
		}
		if i&4 != 0 {
			min.Z, max.Z = mid.Z, n.bounds.Max.Z
		}
		children[i] = &octNode{
			bounds: geom.AABB{Min: min, Max: max},
			depth:  n.depth + 1,
		}
	}
	n.children = &children

	kept := n.entries[:0]
	for _, entry := range n.entries {
		if c := childContaining(n, entry.box); c != nil {
			s.insertAt(c, entry)
		} else {
			kept = append(kept, entry)
		}
	}
	n.entries = kept
}

func childContaining(n *octNode, box geom.AABB) *octNode {
	if n.children == nil {
		return nil
	}
	for _, c := range n.children {
		if c.bounds.Contains(box) {
			return c
		}
	}
	return nil
}

// Remove drops the entity. The containment path of the recorded bounds is
// the only place it can live.
func (s *SpatialIndex) Remove(id string) bool {
	box, ok := s.bounds[id]
	if !ok {
		return false
	}
	delete(s.ents, id)
	delete(s.bounds, id)

	n := s.root
	for n != nil {
		for i, entry := range n.entries {
			if entry.e.ID == id {
				n.entries = append(n.entries[:i], n.entries[i+1:]...)
				return true
			}
		}
		n = childContaining(n, box)
	}
	return false
}

// QueryRegion returns entities whose AABB intersects the bounding cube of
// the query sphere. Callers refine by distance when they need the sphere.
func (s *SpatialIndex) QueryRegion(center geom.Vec3, radius float64) []*Entity {
	return s.QueryBox(geom.AABBAround(center, radius))
}

func (s *SpatialIndex) QueryBox(box geom.AABB) []*Entity {
	var out []*Entity
	seen := map[string]bool{}
	s.walkBox(s.root, box, func(e *Entity) {
		if !seen[e.ID] {
			seen[e.ID] = true
			out = append(out, e)
		}
	})
	return out
}

// walkBox prunes by child bounds, not by the current node's: root entries
// may exceed the root volume and must still be scanned.
func (s *SpatialIndex) walkBox(n *octNode, box geom.AABB, emit func(*Entity)) {
	if n == nil {
		return
	}
	for _, entry := range n.entries {
		if entry.e.Enabled && entry.box.Intersects(box) {
			emit(entry.e)
		}
	}
	if n.children != nil {
		for _, c := range n.children {
			if c.bounds.Intersects(box) {
				s.walkBox(c, box, emit)
			}
		}
	}
}

// Ray returns entities the ray hits within maxDistance. Nodes the ray
// misses are pruned.
func (s *SpatialIndex) Ray(origin, dir geom.Vec3, maxDistance float64) []*Entity {
	r := geom.Ray{Origin: origin, Dir: dir.Normalized()}
	var out []*Entity
	seen := map[string]bool{}
	s.walkRay(s.root, r, maxDistance, func(e *Entity) {
		if !seen[e.ID] {
			seen[e.ID] = true
			out = append(out, e)
		}
	})
	return out
}

func (s *SpatialIndex) walkRay(n *octNode, r geom.Ray, maxDist float64, emit func(*Entity)) {
	if n == nil {
		return
	}
	for _, entry := range n.entries {
		if !entry.e.Enabled {
			continue
		}
		if d, hit := r.IntersectAABB(entry.box); hit && d <= maxDist {
			emit(entry.e)
		}
	}
	if n.children != nil {
		for _, c := range n.children {
			if d, hit := r.IntersectAABB(c.bounds); hit && d <= maxDist {
				s.walkRay(c, r, maxDist, emit)
			}
		}
	}
}

// Rebuild reinserts every tracked entity from its current bounds.
func (s *SpatialIndex) Rebuild() {
	ents := make([]*Entity, 0, len(s.ents))
	for _, e := range s.ents {
		ents = append(ents, e)
	}
	rootBounds := s.root.bounds
	s.root = &octNode{bounds: rootBounds}
	s.ents = map[string]*Entity{}
	s.bounds = map[string]geom.AABB{}
	for _, e := range ents {
		s.Insert(e)
	}
}
