package world

import (
	"fmt"
	"io"

	"github.com/google/uuid"

	"wearcraft.dev/internal/geom"
)

type Kind string

const (
	KindTree      Kind = "tree"
	KindStructure Kind = "structure"
	KindEnemy     Kind = "enemy"
	KindWaypoint  Kind = "waypoint"
)

func ValidKind(k Kind) bool {
	switch k {
	case KindTree, KindStructure, KindEnemy, KindWaypoint:
		return true
	}
	return false
}

type PatrolType string

const (
	PatrolRandom   PatrolType = "random"
	PatrolWaypoint PatrolType = "waypoint"
)

// AIConfig parameterizes an enemy. normalize enforces the invariants, so a
// config taken from a map file is always safe to run.
type AIConfig struct {
	MoveSpeed      float64
	ChaseSpeed     float64
	PatrolRadius   float64
	AggroRadius    float64
	AttackRange    float64
	LeashRadius    float64
	IdleTime       float64
	PatrolType     PatrolType
	NextWaypointID string
}

func defaultAIConfig() AIConfig {
	return AIConfig{
		MoveSpeed:    2,
		ChaseSpeed:   4,
		PatrolRadius: 5,
		AggroRadius:  8,
		AttackRange:  1.5,
		LeashRadius:  15,
		IdleTime:     2,
		PatrolType:   PatrolRandom,
	}
}

func (c *AIConfig) normalize() {
	d := defaultAIConfig()
	if c.MoveSpeed <= 0 {
		c.MoveSpeed = d.MoveSpeed
	}
	if c.ChaseSpeed <= 0 {
		c.ChaseSpeed = d.ChaseSpeed
	}
	if c.ChaseSpeed < c.MoveSpeed {
		c.ChaseSpeed = c.MoveSpeed
	}
	if c.PatrolRadius < 0 {
		c.PatrolRadius = 0
	}
	if c.PatrolRadius == 0 {
		c.PatrolRadius = d.PatrolRadius
	}
	if c.AggroRadius <= 0 {
		c.AggroRadius = d.AggroRadius
	}
	if c.AttackRange <= 0 {
		c.AttackRange = d.AttackRange
	}
	if c.LeashRadius <= 0 {
		c.LeashRadius = d.LeashRadius
	}
	if c.LeashRadius < c.AggroRadius {
		c.LeashRadius = c.AggroRadius
	}
	if c.IdleTime < 0 {
		c.IdleTime = 0
	}
	if c.IdleTime == 0 {
		c.IdleTime = d.IdleTime
	}
	if c.PatrolType != PatrolWaypoint {
		c.PatrolType = PatrolRandom
	}
}

// WaypointMeta is the kind-specific data of a waypoint entity. The live graph
// is kept in WaypointGraph; this copy survives save/load.
type WaypointMeta struct {
	NextWaypointID string
	WaitTime       float64
}

// Entity is one authored object. Kind-specific metadata lives in the tagged
// optional fields; exactly one of AI/Waypoint is set for enemy/waypoint kinds
// and both are nil for props.
type Entity struct {
	ID     string
	Kind   Kind
	Prefab string

	Position geom.Vec3
	Rotation geom.Vec3
	Scale    geom.Vec3

	Enabled bool

	// ParentID marks sub-parts of composite enemies/structures; sub-parts are
	// skipped on export.
	ParentID string

	AI       *AIConfig
	Waypoint *WaypointMeta
}

// Clone deep-copies the entity. Undo snapshots rely on this never aliasing
// the live value.
func (e *Entity) Clone() *Entity {
	c := *e
	if e.AI != nil {
		ai := *e.AI
		c.AI = &ai
	}
	if e.Waypoint != nil {
		wp := *e.Waypoint
		c.Waypoint = &wp
	}
	return &c
}

// Bounds is the entity's AABB, centered on position, sized by scale.
func (e *Entity) Bounds() geom.AABB {
	s := e.Scale
	if s.X <= 0 {
		s.X = 1
	}
	if s.Y <= 0 {
		s.Y = 1
	}
	if s.Z <= 0 {
		s.Z = 1
	}
	half := geom.V3(s.X/2, s.Y/2, s.Z/2)
	return geom.AABB{
		Min: e.Position.Sub(half),
		Max: e.Position.Add(half),
	}
}

// newEntityID builds a kind-prefixed id. ids draws the UUID bytes; a seeded
// source keeps spawn ids reproducible across replays of the same run.
func newEntityID(kind Kind, ids io.Reader) string {
	if ids != nil {
		if u, err := uuid.NewRandomFromReader(ids); err == nil {
			return fmt.Sprintf("%s_%s", kind, u.String()[:8])
		}
	}
	return fmt.Sprintf("%s_%s", kind, uuid.NewString()[:8])
}
