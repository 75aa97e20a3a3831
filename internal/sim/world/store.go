package world

import (
	"wearcraft.dev/internal/geom"
)

// EntityStore owns every placed entity. Iteration order is insertion order,
// which keeps exports and digests deterministic.
type EntityStore struct {
	byID  map[string]*Entity
	order []string
}

func NewEntityStore() *EntityStore {
	return &EntityStore{byID: map[string]*Entity{}}
}

func (s *EntityStore) Add(e *Entity) bool {
	if e == nil || e.ID == "" {
		return false
	}
	if _, dup := s.byID[e.ID]; dup {
		return false
	}
	s.byID[e.ID] = e
	s.order = append(s.order, e.ID)
	return true
}

func (s *EntityStore) Remove(id string) *Entity {
	e, ok := s.byID[id]
	if !ok {
		return nil
	}
	delete(s.byID, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return e
}

func (s *EntityStore) Get(id string) *Entity {
	return s.byID[id]
}

func (s *EntityStore) Len() int { return len(s.order) }

func (s *EntityStore) All() []*Entity {
	out := make([]*Entity, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}

func (s *EntityStore) AllByKind(kind Kind) []*Entity {
	var out []*Entity
	for _, id := range s.order {
		if e := s.byID[id]; e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// FindByPrefabNear returns the most recently added entity of the given prefab
// within maxDist of pos. Undo of a spawn locates its target this way.
func (s *EntityStore) FindByPrefabNear(prefab string, pos geom.Vec3, maxDist float64) *Entity {
	for i := len(s.order) - 1; i >= 0; i-- {
		e := s.byID[s.order[i]]
		if e.Prefab != prefab {
			continue
		}
		if e.Position.DistanceTo(pos) <= maxDist {
			return e
		}
	}
	return nil
}
