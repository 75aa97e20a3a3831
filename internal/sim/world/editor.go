package world

import (
	"log"
	"math"

	"wearcraft.dev/internal/geom"
)

type GizmoKind string

const (
	GizmoNone     GizmoKind = "none"
	GizmoPosition GizmoKind = "position"
	GizmoRotation GizmoKind = "rotation"
	GizmoScale    GizmoKind = "scale"
)

// duplicateOffset is the fixed +X/+Z nudge applied to clones so they do not
// land inside the original.
var duplicateOffset = geom.V3(2, 0, 2)

// EditorController implements the manual editing surface: gizmo discipline,
// snap, delete, duplicate, keyboard shortcuts and the brush. All operations
// act on the SelectionModel's current entity.
type EditorController struct {
	loader    *LevelLoader
	store     *EntityStore
	index     *SpatialIndex
	selection *SelectionModel
	history   *CommandHistory
	terrain   TerrainHeightFunc
	logger    *log.Logger

	gizmo        GizmoKind
	positionSnap float64 // meters, 0 disables
	rotationSnap float64 // degrees, 0 disables
	scaleSnap    float64 // factor, 0 disables

	brush brushState

	keyboardEnabled bool
}

func NewEditorController(loader *LevelLoader, store *EntityStore, index *SpatialIndex, selection *SelectionModel, history *CommandHistory, terrain TerrainHeightFunc) *EditorController {
	if terrain == nil {
		terrain = flatTerrain
	}
	ec := &EditorController{
		loader:          loader,
		store:           store,
		index:           index,
		selection:       selection,
		history:         history,
		terrain:         terrain,
		gizmo:           GizmoPosition,
		keyboardEnabled: true,
	}
	ec.brush.density = 0.5
	ec.brush.radius = 3
	return ec
}

func (ec *EditorController) SetLogger(lg *log.Logger) { ec.logger = lg }

func (ec *EditorController) Gizmo() GizmoKind { return ec.gizmo }

// SetGizmoType switches the active gizmo. Snap settings are per-axis state
// on the controller and survive the switch. Brush mode keeps the gizmo
// detached.
func (ec *EditorController) SetGizmoType(kind GizmoKind) {
	switch kind {
	case GizmoNone, GizmoPosition, GizmoRotation, GizmoScale:
	default:
		return
	}
	ec.gizmo = kind
}

func (ec *EditorController) SetPositionSnap(meters float64)  { ec.positionSnap = math.Max(0, meters) }
func (ec *EditorController) SetRotationSnap(degrees float64) { ec.rotationSnap = math.Max(0, degrees) }
func (ec *EditorController) SetScaleSnap(factor float64)     { ec.scaleSnap = math.Max(0, factor) }

func (ec *EditorController) PositionSnap() float64 { return ec.positionSnap }
func (ec *EditorController) RotationSnap() float64 { return ec.rotationSnap }
func (ec *EditorController) ScaleSnap() float64    { return ec.scaleSnap }

func snapValue(v, step float64) float64 {
	if step <= 0 {
		return v
	}
	return math.Round(v/step) * step
}

func snapVec(v geom.Vec3, step float64) geom.Vec3 {
	return geom.V3(snapValue(v.X, step), snapValue(v.Y, step), snapValue(v.Z, step))
}

// ApplyGizmoTranslate moves the selected entity by delta, snapped to the
// position grid, and reindexes it.
func (ec *EditorController) ApplyGizmoTranslate(delta geom.Vec3) {
	e := ec.selection.Selected()
	if e == nil || ec.gizmo != GizmoPosition || ec.brush.active {
		return
	}
	e.Position = snapVec(e.Position.Add(delta), ec.positionSnap)
	ec.index.Insert(e)
}

// ApplyGizmoRotate applies a yaw delta in radians; snap is configured in
// degrees.
func (ec *EditorController) ApplyGizmoRotate(deltaYaw float64) {
	e := ec.selection.Selected()
	if e == nil || ec.gizmo != GizmoRotation || ec.brush.active {
		return
	}
	snapRad := ec.rotationSnap * math.Pi / 180
	e.Rotation.Y = snapValue(e.Rotation.Y+deltaYaw, snapRad)
}

func (ec *EditorController) ApplyGizmoScale(delta geom.Vec3) {
	e := ec.selection.Selected()
	if e == nil || ec.gizmo != GizmoScale || ec.brush.active {
		return
	}
	s := snapVec(e.Scale.Add(delta), ec.scaleSnap)
	if s.X <= 0 || s.Y <= 0 || s.Z <= 0 {
		return
	}
	e.Scale = s
	ec.index.Insert(e)
}

// Delete removes the current selection and records the edit.
func (ec *EditorController) Delete() {
	e := ec.selection.Selected()
	if e == nil {
		return
	}
	snapshot := e.Clone()
	ec.loader.RemoveEntity(e.ID)
	ec.selection.Deselect()
	ec.history.Push(HistoryAction{Kind: HistDelete, Deleted: []*Entity{snapshot}})
}

// Duplicate deep-copies the selection, nudges it +X/+Z, snaps it to terrain
// and selects the clone.
func (ec *EditorController) Duplicate() *Entity {
	e := ec.selection.Selected()
	if e == nil {
		return nil
	}
	clone := e.Clone()
	clone.ID = newEntityID(clone.Kind, ec.loader.ids)
	clone.Position = clone.Position.Add(duplicateOffset)
	clone.Position.Y = ec.terrain(clone.Position.X, clone.Position.Z)

	created, err := ec.loader.Respawn(clone)
	if err != nil {
		if ec.logger != nil {
			ec.logger.Printf("duplicate: %v", err)
		}
		return nil
	}
	ec.history.Push(HistoryAction{
		Kind:     HistSpawn,
		EntityID: created.ID,
		Prefab:   created.Prefab,
		Position: created.Position,
		Spawned:  created.Clone(),
	})
	ec.selection.Select(created)
	return created
}

func (ec *EditorController) SetKeyboardEnabled(on bool) { ec.keyboardEnabled = on }

// HandleKey dispatches editor shortcuts. Key names follow DOM conventions
// ("Delete", "Backspace", "Escape", single letters lowercase).
func (ec *EditorController) HandleKey(key string) {
	if !ec.keyboardEnabled {
		return
	}
	switch key {
	case "Delete", "Backspace":
		ec.Delete()
	case "d":
		ec.Duplicate()
	case "w":
		ec.SetGizmoType(GizmoPosition)
	case "r":
		ec.SetGizmoType(GizmoRotation)
	case "s":
		ec.SetGizmoType(GizmoScale)
	case "Escape":
		ec.selection.Deselect()
	}
}

// PickSelect resolves a picked entity id to a selection. Background picks
// (empty id) clear the selection. The render adapter supplies the reverse
// index from render node to entity id; gizmo meshes never reach here.
func (ec *EditorController) PickSelect(entityID string) {
	if entityID == "" {
		ec.selection.Deselect()
		return
	}
	e := ec.store.Get(entityID)
	if e == nil {
		return
	}
	// Sub-parts select their owning composite.
	for e.ParentID != "" {
		p := ec.store.Get(e.ParentID)
		if p == nil {
			break
		}
		e = p
	}
	ec.selection.Select(e)
}
