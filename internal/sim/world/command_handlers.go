package world

import (
	"fmt"
	"math"

	"wearcraft.dev/internal/geom"
	"wearcraft.dev/internal/protocol"
)

// Wire positions are ground points: x maps to world X, y to world Z, and
// the height comes from terrain snapping (spawn y starts at 0, so the
// y <= 0 rule always fires for remote spawns).
func groundVec(p protocol.GroundPoint) geom.Vec3 {
	return geom.V3(p.X, 0, p.Y)
}

// inBounds checks a ground point against the world's square footprint.
// Schemas cannot enforce this; the size comes from the runtime config.
func (w *World) inBounds(p geom.Vec3) bool {
	half := w.cfg.WorldSize / 2
	return p.X >= -half && p.X <= half && p.Z >= -half && p.Z <= half
}

func (w *World) cmdSpawnEntity(c *protocol.SpawnEntityCmd) cmdResult {
	kind := Kind(c.EntityType)
	if !w.inBounds(groundVec(c.Position)) {
		return cmdFail(protocol.ErrBadRequest, "position outside world bounds")
	}
	scale := c.Scale
	if scale <= 0 {
		scale = 1
	}
	e, err := w.loader.SpawnEntity(
		kind, c.PrefabID,
		groundVec(c.Position),
		geom.V3(0, c.Rotation, 0),
		geom.V3(scale, scale, scale),
	)
	if err != nil {
		return cmdFail(protocol.ErrUnknownPrefab, err.Error())
	}
	w.history.Push(HistoryAction{
		Kind:     HistSpawn,
		EntityID: e.ID,
		Prefab:   e.Prefab,
		Position: e.Position,
		Spawned:  e.Clone(),
	})
	return cmdOK(e.ID, "")
}

func (w *World) cmdDeleteEntity(c *protocol.DeleteEntityCmd) cmdResult {
	e := w.store.Get(c.EntityID)
	if e == nil {
		return cmdFail(protocol.ErrInvalidTarget, "no entity "+c.EntityID)
	}
	snapshot := e.Clone()
	w.loader.RemoveEntity(e.ID)
	w.history.Push(HistoryAction{Kind: HistDelete, Deleted: []*Entity{snapshot}})
	return cmdOK(snapshot.ID, "")
}

func (w *World) cmdMoveEntity(c *protocol.MoveEntityCmd) cmdResult {
	e := w.store.Get(c.EntityID)
	if e == nil {
		return cmdFail(protocol.ErrInvalidTarget, "no entity "+c.EntityID)
	}
	if !w.inBounds(groundVec(c.Position)) {
		return cmdFail(protocol.ErrBadRequest, "position outside world bounds")
	}
	old := e.Position
	// Only X/Z travel over the wire; the entity keeps its height.
	e.Position.X = c.Position.X
	e.Position.Z = c.Position.Y
	w.index.Insert(e)
	w.history.Push(HistoryAction{
		Kind:        HistMove,
		EntityID:    e.ID,
		OldPosition: old,
		NewPosition: e.Position,
	})
	return cmdOK(e.ID, "")
}

func (w *World) cmdClearArea(c *protocol.ClearAreaCmd) cmdResult {
	center := groundVec(c.Center)
	// The area test compares the squared planar distance against the radius
	// value, so the cleared disc is sqrt(radius) wide. Editor clients send
	// radii pre-squared to compensate.
	limit := math.Max(c.Radius, math.Sqrt(c.Radius))
	candidates := w.index.QueryRegion(center, limit)
	var snapshots []*Entity
	for _, e := range candidates {
		d := geom.DistXZ(e.Position, center)
		if d*d <= c.Radius {
			snapshots = append(snapshots, e.Clone())
		}
	}
	for _, snap := range snapshots {
		w.loader.RemoveEntity(snap.ID)
	}
	if len(snapshots) == 0 {
		return cmdOK("", "no entities in area")
	}
	w.history.Push(HistoryAction{Kind: HistClearArea, Deleted: snapshots})
	return cmdOK("", fmt.Sprintf("removed %d entities", len(snapshots)))
}

func (w *World) cmdSpawnBatch(c *protocol.SpawnBatchCmd) cmdResult {
	kind := Kind(c.EntityType)
	center := groundVec(c.Center)
	var ids []string
	for i := 0; i < c.Count; i++ {
		prefab := c.PrefabIDs[w.rng.Intn(len(c.PrefabIDs))]
		ang := w.rng.Float64() * 2 * math.Pi
		r := c.Radius * math.Sqrt(w.rng.Float64())
		pos := geom.V3(center.X+r*math.Cos(ang), 0, center.Z+r*math.Sin(ang))
		rot := geom.V3(0, w.rng.Float64()*2*math.Pi, 0)
		s := 0.8 + w.rng.Float64()*0.4
		e, err := w.loader.SpawnEntity(kind, prefab, pos, rot, geom.V3(s, s, s))
		if err != nil {
			// Best effort: one bad prefab does not abort the batch.
			if w.logger != nil {
				w.logger.Printf("spawn batch: %v", err)
			}
			continue
		}
		ids = append(ids, e.ID)
	}
	if len(ids) == 0 {
		return cmdFail(protocol.ErrUnknownPrefab, "no entities spawned")
	}
	w.history.Push(HistoryAction{Kind: HistSpawnBatch, BatchIDs: ids})
	return cmdOK("", fmt.Sprintf("spawned %d entities", len(ids)))
}
