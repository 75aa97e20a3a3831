package world

import (
	"math/rand"

	"wearcraft.dev/internal/geom"
)

// RespawnEntry holds a defeated enemy's snapshot until its due tick.
type RespawnEntry struct {
	Snapshot *Entity
	Origin   geom.Vec3
	DueTick  uint64
}

// RespawnQueue re-instantiates defeated enemies after a delay, at a
// perturbed position near where they originally stood.
type RespawnQueue struct {
	entries []RespawnEntry
	rng     *rand.Rand

	// Respawn range: full width of the square around the origin, so offsets
	// stay within +-spread/2 per axis.
	spread float64
}

func NewRespawnQueue(spread float64, rng *rand.Rand) *RespawnQueue {
	if spread <= 0 {
		spread = 20
	}
	return &RespawnQueue{spread: spread, rng: rng}
}

func (q *RespawnQueue) Len() int { return len(q.entries) }

func (q *RespawnQueue) Enqueue(snapshot *Entity, dueTick uint64) {
	q.entries = append(q.entries, RespawnEntry{
		Snapshot: snapshot.Clone(),
		Origin:   snapshot.Position,
		DueTick:  dueTick,
	})
}

// Drain pops every entry due at or before tick and returns the snapshots
// with perturbed positions applied. Heights are the caller's problem; the
// loader snaps to terrain on respawn since y is forced to ground level.
func (q *RespawnQueue) Drain(tick uint64) []*Entity {
	var out []*Entity
	kept := q.entries[:0]
	for _, entry := range q.entries {
		if entry.DueTick > tick {
			kept = append(kept, entry)
			continue
		}
		e := entry.Snapshot
		// Uniform in a spread-sized square centered on the origin.
		e.Position.X = entry.Origin.X + (q.rng.Float64()-0.5)*q.spread
		e.Position.Z = entry.Origin.Z + (q.rng.Float64()-0.5)*q.spread
		e.Position.Y = 0
		out = append(out, e)
	}
	q.entries = kept
	return out
}

func (q *RespawnQueue) Clear() { q.entries = q.entries[:0] }
