package world

import (
	"fmt"
	"testing"

	"wearcraft.dev/internal/geom"
	"wearcraft.dev/internal/persistence/mapfile"
	"wearcraft.dev/internal/protocol"
)

func TestCommand_SpawnThenUndo(t *testing.T) {
	w := newTestWorld(t)

	ev := runCommand(t, w, protocol.CmdSpawnEntity,
		`{"entity_type":"tree","prefab_id":"tree_pine","position":{"x":3,"y":4},"rotation":0,"scale":1}`)
	if !resultOK(ev) {
		t.Fatalf("spawn failed: %v", ev)
	}
	if w.Store().Len() != 1 {
		t.Fatalf("want 1 entity, got %d", w.Store().Len())
	}
	tree := w.Store().All()[0]
	if tree.Kind != KindTree || tree.Prefab != "tree_pine" {
		t.Fatalf("wrong entity spawned: %+v", tree)
	}
	if tree.Position.X != 3 || tree.Position.Z != 4 {
		t.Fatalf("wire y must map to world z: %v", tree.Position)
	}

	ev = runCommand(t, w, protocol.CmdUndo, "")
	if !resultOK(ev) {
		t.Fatalf("undo failed: %v", ev)
	}
	if w.Store().Len() != 0 {
		t.Fatalf("undo must remove the spawn, got %d entities", w.Store().Len())
	}
	if w.History().RedoLen() != 1 {
		t.Fatalf("redo stack must hold the undone spawn, got %d", w.History().RedoLen())
	}
}

func TestCommand_RedoReplaysSpawn(t *testing.T) {
	w := newTestWorld(t)
	runCommand(t, w, protocol.CmdSpawnEntity,
		`{"entity_type":"tree","prefab_id":"tree_pine","position":{"x":3,"y":4}}`)
	id := w.Store().All()[0].ID

	runCommand(t, w, protocol.CmdUndo, "")
	ev := runCommand(t, w, protocol.CmdRedo, "")
	if !resultOK(ev) {
		t.Fatalf("redo failed: %v", ev)
	}
	if got := w.Store().Get(id); got == nil {
		t.Fatalf("redo must reinstate the entity under its original id")
	}
	if w.History().UndoLen() != 1 || w.History().RedoLen() != 0 {
		t.Fatalf("stacks after redo: undo %d redo %d", w.History().UndoLen(), w.History().RedoLen())
	}
}

func TestCommand_ClearAreaUndoReinstates(t *testing.T) {
	w := newTestWorld(t)
	ids := make([]string, 5)
	for i := 0; i < 5; i++ {
		e, err := w.Loader().SpawnEntity(KindTree, "tree_pine",
			geom.V3(float64(i), 0, 0), geom.Vec3{}, geom.Vec3{})
		if err != nil {
			t.Fatalf("seed tree %d: %v", i, err)
		}
		ids[i] = e.ID
	}

	ev := runCommand(t, w, protocol.CmdClearArea, `{"center":{"x":2,"y":0},"radius":2.1}`)
	if !resultOK(ev) {
		t.Fatalf("clear failed: %v", ev)
	}
	if w.Store().Len() != 2 {
		t.Fatalf("want 2 survivors, got %d", w.Store().Len())
	}
	for _, i := range []int{0, 4} {
		if w.Store().Get(ids[i]) == nil {
			t.Fatalf("tree %d at distance 2 must survive", i)
		}
	}
	for _, i := range []int{1, 2, 3} {
		if w.Store().Get(ids[i]) != nil {
			t.Fatalf("tree %d must be cleared", i)
		}
	}

	ev = runCommand(t, w, protocol.CmdUndo, "")
	if !resultOK(ev) {
		t.Fatalf("undo failed: %v", ev)
	}
	if w.Store().Len() != 5 {
		t.Fatalf("undo must reinstate all trees, got %d", w.Store().Len())
	}
	for i, id := range ids {
		e := w.Store().Get(id)
		if e == nil {
			t.Fatalf("tree %d lost its id across undo", i)
		}
		if e.Position.X != float64(i) || e.Kind != KindTree || e.Prefab != "tree_pine" {
			t.Fatalf("tree %d transform drifted: %+v", i, e)
		}
	}
}

// Chase AI moves entities outside of editor commands; the spatial index has
// to follow or area commands act on stale positions.
func TestCommand_ClearAreaHitsChasingEnemy(t *testing.T) {
	w := newTestWorld(t)
	doc := emptyDoc("map_chase")
	doc.Entities = []mapfile.EntityRecord{
		{Type: "enemy", ID: "enemy_1", Prefab: "enemy_normal_goblin",
			Position: [3]float64{0, 0, 0},
			Props: &mapfile.Properties{
				MoveSpeed: 2, ChaseSpeed: 4, PatrolRadius: 5, AggroRadius: 50,
				AttackRange: 0.4, LeashRadius: 100, IdleTime: 1000,
				PatrolType: "random",
			}},
	}
	if err := w.LoadMap(doc); err != nil {
		t.Fatalf("load: %v", err)
	}

	w.SetPlayerPosition(geom.V3(30, 0, 0))
	for i := 0; i < 40; i++ {
		w.StepOnce()
	}
	e := w.Store().Get("enemy_1")
	if e == nil {
		t.Fatalf("enemy disappeared while chasing")
	}
	if e.Position.X < 2 {
		t.Fatalf("enemy did not chase: %v", e.Position)
	}

	// The abandoned spawn point is empty now.
	ev := runCommand(t, w, protocol.CmdClearArea, `{"center":{"x":0,"y":0},"radius":1}`)
	if !resultOK(ev) {
		t.Fatalf("clear at origin: %v", ev)
	}
	if w.Store().Get("enemy_1") == nil {
		t.Fatalf("clear at the spawn point must not hit the moved enemy")
	}

	// Clearing where the enemy actually stands removes it.
	data := fmt.Sprintf(`{"center":{"x":%.3f,"y":%.3f},"radius":1}`, e.Position.X, e.Position.Z)
	ev = runCommand(t, w, protocol.CmdClearArea, data)
	if !resultOK(ev) {
		t.Fatalf("clear at enemy: %v", ev)
	}
	if w.Store().Get("enemy_1") != nil {
		t.Fatalf("spatial index out of step with AI motion, enemy not cleared")
	}
}

func TestCommand_ClearAreaEmptyPushesNothing(t *testing.T) {
	w := newTestWorld(t)
	ev := runCommand(t, w, protocol.CmdClearArea, `{"center":{"x":0,"y":0},"radius":5}`)
	if !resultOK(ev) {
		t.Fatalf("clear on empty map must succeed: %v", ev)
	}
	if w.History().UndoLen() != 0 {
		t.Fatalf("no-op clear must not enter history")
	}
}

func TestCommand_MoveEntityKeepsHeight(t *testing.T) {
	w := newTestWorld(t)
	e, _ := w.Loader().SpawnEntity(KindTree, "tree_pine", geom.V3(0, 0, 0), geom.Vec3{}, geom.Vec3{})
	e.Position.Y = 3.5

	ev := runCommand(t, w, protocol.CmdMoveEntity,
		fmt.Sprintf(`{"entity_id":"%s","position":{"x":8,"y":-2}}`, e.ID))
	if !resultOK(ev) {
		t.Fatalf("move failed: %v", ev)
	}
	if e.Position != geom.V3(8, 3.5, -2) {
		t.Fatalf("move must set x/z and keep height: %v", e.Position)
	}

	runCommand(t, w, protocol.CmdUndo, "")
	if e.Position.X != 0 || e.Position.Z != 0 {
		t.Fatalf("undo must restore the old position: %v", e.Position)
	}
}

func TestCommand_DeleteUnknownTarget(t *testing.T) {
	w := newTestWorld(t)
	ev := runCommand(t, w, protocol.CmdDeleteEntity, `{"entity_id":"ghost"}`)
	if resultOK(ev) || resultCode(ev) != protocol.ErrInvalidTarget {
		t.Fatalf("want %s, got %v", protocol.ErrInvalidTarget, ev)
	}
	if w.History().UndoLen() != 0 {
		t.Fatalf("failed command must not enter history")
	}
}

func TestCommand_DeleteThenUndoRestoresEnemyConfig(t *testing.T) {
	w := newTestWorld(t)
	e, _ := w.Loader().SpawnEntity(KindEnemy, "enemy_normal_goblin", geom.V3(5, 0, 5), geom.Vec3{}, geom.Vec3{})
	e.AI.MoveSpeed = 3.25

	runCommand(t, w, protocol.CmdDeleteEntity, fmt.Sprintf(`{"entity_id":"%s"}`, e.ID))
	if w.Controller(e.ID) != nil {
		t.Fatalf("delete must drop the AI controller")
	}

	runCommand(t, w, protocol.CmdUndo, "")
	got := w.Store().Get(e.ID)
	if got == nil {
		t.Fatalf("undo must reinstate the enemy")
	}
	if got.AI == nil || got.AI.MoveSpeed != 3.25 {
		t.Fatalf("ai config must survive delete/undo: %+v", got.AI)
	}
	if w.Controller(e.ID) == nil {
		t.Fatalf("reinstated enemy must get a controller")
	}
}

func TestCommand_UndoEmptyHistory(t *testing.T) {
	w := newTestWorld(t)
	ev := runCommand(t, w, protocol.CmdUndo, "")
	if resultOK(ev) || resultCode(ev) != protocol.ErrNothingToUndo {
		t.Fatalf("want %s, got %v", protocol.ErrNothingToUndo, ev)
	}
	ev = runCommand(t, w, protocol.CmdRedo, "")
	if resultOK(ev) || resultCode(ev) != protocol.ErrNothingToRedo {
		t.Fatalf("want %s, got %v", protocol.ErrNothingToRedo, ev)
	}
}

func TestCommand_SpawnBatchNotInvertible(t *testing.T) {
	w := newTestWorld(t)
	ev := runCommand(t, w, protocol.CmdSpawnBatch,
		`{"center":{"x":0,"y":0},"radius":10,"count":20,"prefab_ids":["tree_pine","tree_oak"],"entity_type":"tree"}`)
	if !resultOK(ev) {
		t.Fatalf("batch failed: %v", ev)
	}
	if w.Store().Len() != 20 {
		t.Fatalf("want 20 entities, got %d", w.Store().Len())
	}
	for _, e := range w.Store().All() {
		if geom.DistXZ(e.Position, geom.V3(0, 0, 0)) > 10 {
			t.Fatalf("batch entity outside radius: %v", e.Position)
		}
	}

	ev = runCommand(t, w, protocol.CmdUndo, "")
	if resultOK(ev) || resultCode(ev) != protocol.ErrNotInvertible {
		t.Fatalf("batch undo must report %s, got %v", protocol.ErrNotInvertible, ev)
	}
	if w.Store().Len() != 20 {
		t.Fatalf("failed undo must not remove entities")
	}
}

func TestCommand_PositionOutsideWorldBounds(t *testing.T) {
	w := newTestWorld(t)

	// World size 500 means a +-250 footprint per axis.
	ev := runCommand(t, w, protocol.CmdSpawnEntity,
		`{"entity_type":"tree","prefab_id":"tree_pine","position":{"x":251,"y":0}}`)
	if resultOK(ev) || resultCode(ev) != protocol.ErrBadRequest {
		t.Fatalf("out-of-bounds spawn: want %s, got %v", protocol.ErrBadRequest, ev)
	}
	if w.Store().Len() != 0 {
		t.Fatalf("rejected spawn must not create an entity")
	}

	e, _ := w.Loader().SpawnEntity(KindTree, "tree_pine", geom.V3(0, 0, 0), geom.Vec3{}, geom.Vec3{})
	ev = runCommand(t, w, protocol.CmdMoveEntity,
		fmt.Sprintf(`{"entity_id":"%s","position":{"x":0,"y":-260}}`, e.ID))
	if resultOK(ev) || resultCode(ev) != protocol.ErrBadRequest {
		t.Fatalf("out-of-bounds move: want %s, got %v", protocol.ErrBadRequest, ev)
	}
	if e.Position.Z != 0 {
		t.Fatalf("rejected move must not touch the entity: %v", e.Position)
	}
}

func TestCommand_BadEnvelope(t *testing.T) {
	w := newTestWorld(t)

	ev := runCommand(t, w, "Teleport", `{}`)
	if resultOK(ev) || resultCode(ev) != protocol.ErrProtoBadRequest {
		t.Fatalf("unknown type: want %s, got %v", protocol.ErrProtoBadRequest, ev)
	}

	ev = runCommand(t, w, protocol.CmdSpawnEntity, `{"entity_type":"tree"}`)
	if resultOK(ev) || resultCode(ev) != protocol.ErrProtoBadRequest {
		t.Fatalf("schema violation: want %s, got %v", protocol.ErrProtoBadRequest, ev)
	}
}

func TestCommand_HistoryCapDropsOldest(t *testing.T) {
	w := newTestWorld(t)
	if w.History().Cap() != 100 {
		t.Fatalf("default history cap: %d", w.History().Cap())
	}
	for i := 0; i < 105; i++ {
		ev := runCommand(t, w, protocol.CmdSpawnEntity,
			fmt.Sprintf(`{"entity_type":"tree","prefab_id":"tree_pine","position":{"x":%d,"y":0}}`, i))
		if !resultOK(ev) {
			t.Fatalf("spawn %d: %v", i, ev)
		}
	}
	if w.History().UndoLen() != 100 {
		t.Fatalf("history must cap at 100, got %d", w.History().UndoLen())
	}
}
