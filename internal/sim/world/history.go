package world

import "wearcraft.dev/internal/geom"

type HistoryKind string

const (
	HistSpawn      HistoryKind = "spawn"
	HistDelete     HistoryKind = "delete"
	HistMove       HistoryKind = "move"
	HistClearArea  HistoryKind = "clear_area"
	HistSpawnBatch HistoryKind = "spawn_batch"
)

// HistoryAction is a value snapshot of one reversible edit. Entity snapshots
// are deep copies; they never alias live store entries.
type HistoryAction struct {
	Kind HistoryKind

	// spawn. EntityID/Prefab/Position locate the target for undo; Spawned
	// carries the full snapshot so redo can replay the exact entity.
	EntityID string
	Prefab   string
	Position geom.Vec3
	Spawned  *Entity

	// delete / clear_area
	Deleted []*Entity

	// move
	OldPosition geom.Vec3
	NewPosition geom.Vec3

	// spawn_batch
	BatchIDs []string
}

// CommandHistory is the bounded undo/redo pair of stacks. Any new push
// clears the redo stack; non-linear histories are not represented.
type CommandHistory struct {
	undo []HistoryAction
	redo []HistoryAction
	cap  int
}

func NewCommandHistory(capacity int) *CommandHistory {
	if capacity <= 0 {
		capacity = 100
	}
	return &CommandHistory{cap: capacity}
}

func (h *CommandHistory) Push(a HistoryAction) {
	h.redo = h.redo[:0]
	h.undo = append(h.undo, a)
	if len(h.undo) > h.cap {
		// Drop oldest. Overflow is not an error.
		h.undo = append(h.undo[:0], h.undo[len(h.undo)-h.cap:]...)
	}
}

func (h *CommandHistory) PopUndo() (HistoryAction, bool) {
	if len(h.undo) == 0 {
		return HistoryAction{}, false
	}
	a := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append(h.redo, a)
	return a, true
}

func (h *CommandHistory) PopRedo() (HistoryAction, bool) {
	if len(h.redo) == 0 {
		return HistoryAction{}, false
	}
	a := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = append(h.undo, a)
	return a, true
}

func (h *CommandHistory) CanUndo() bool { return len(h.undo) > 0 }
func (h *CommandHistory) CanRedo() bool { return len(h.redo) > 0 }

func (h *CommandHistory) UndoLen() int { return len(h.undo) }
func (h *CommandHistory) RedoLen() int { return len(h.redo) }
func (h *CommandHistory) Cap() int     { return h.cap }

func (h *CommandHistory) Clear() {
	h.undo = h.undo[:0]
	h.redo = h.redo[:0]
}
