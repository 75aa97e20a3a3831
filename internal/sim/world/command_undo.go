package world

import (
	"wearcraft.dev/internal/protocol"
)

// undoLocateRadius bounds the search for the entity a spawn action created.
// The id alone is not enough: the entity may have been moved a little or the
// action replayed, so the locate is prefab-near-position.
const undoLocateRadius = 2.0

func (w *World) cmdUndo() cmdResult {
	a, popped := w.history.PopUndo()
	if !popped {
		return cmdFail(protocol.ErrNothingToUndo, "history empty")
	}
	return w.applyInverse(a)
}

func (w *World) cmdRedo() cmdResult {
	a, popped := w.history.PopRedo()
	if !popped {
		return cmdFail(protocol.ErrNothingToRedo, "redo stack empty")
	}
	return w.applyForward(a)
}

func (w *World) applyInverse(a HistoryAction) cmdResult {
	switch a.Kind {
	case HistSpawn:
		e := w.store.FindByPrefabNear(a.Prefab, a.Position, undoLocateRadius)
		if e == nil {
			// Already deleted by other means. Logged no-op; the entry stays
			// on the redo stack.
			if w.logger != nil {
				w.logger.Printf("undo spawn: no %s near recorded position", a.Prefab)
			}
			return cmdOK("", "spawned entity already gone")
		}
		w.loader.RemoveEntity(e.ID)
		return cmdOK(e.ID, "spawn undone")

	case HistDelete, HistClearArea:
		for _, snap := range a.Deleted {
			if _, err := w.loader.Respawn(snap); err != nil && w.logger != nil {
				w.logger.Printf("undo %s: %v", a.Kind, err)
			}
		}
		return cmdOK("", "restored deleted entities")

	case HistMove:
		e := w.store.Get(a.EntityID)
		if e == nil {
			return cmdOK("", "moved entity already gone")
		}
		e.Position = a.OldPosition
		w.index.Insert(e)
		return cmdOK(e.ID, "move undone")

	case HistSpawnBatch:
		if w.logger != nil {
			w.logger.Printf("undo spawn_batch: not invertible, use ClearArea to remove the batch")
		}
		return cmdFail(protocol.ErrNotInvertible, "spawn_batch cannot be undone, use ClearArea")
	}
	return cmdFail(protocol.ErrInternal, "unknown history action")
}

// applyForward replays an action popped from the redo stack.
func (w *World) applyForward(a HistoryAction) cmdResult {
	switch a.Kind {
	case HistSpawn:
		if a.Spawned == nil {
			return cmdFail(protocol.ErrInternal, "spawn record has no snapshot")
		}
		e, err := w.loader.Respawn(a.Spawned)
		if err != nil {
			return cmdFail(protocol.ErrInternal, err.Error())
		}
		return cmdOK(e.ID, "spawn redone")

	case HistDelete, HistClearArea:
		for _, snap := range a.Deleted {
			if w.store.Get(snap.ID) != nil {
				w.loader.RemoveEntity(snap.ID)
				continue
			}
			if e := w.store.FindByPrefabNear(snap.Prefab, snap.Position, undoLocateRadius); e != nil {
				w.loader.RemoveEntity(e.ID)
			}
		}
		return cmdOK("", "delete redone")

	case HistMove:
		e := w.store.Get(a.EntityID)
		if e == nil {
			return cmdOK("", "moved entity already gone")
		}
		e.Position = a.NewPosition
		w.index.Insert(e)
		return cmdOK(e.ID, "move redone")

	case HistSpawnBatch:
		// The matching undo was a no-op, so replaying would double-spawn.
		if w.logger != nil {
			w.logger.Printf("redo spawn_batch: no-op, the batch was never removed")
		}
		return cmdOK("", "spawn_batch redo is a no-op")
	}
	return cmdFail(protocol.ErrInternal, "unknown history action")
}
