package world

import (
	"math"
	"math/rand"

	"wearcraft.dev/internal/geom"
)

// brushStrokeRate scales density into a per-sample spawn probability. Fixed
// design constant of the brush, not a tunable.
const brushStrokeRate = 0.2

type brushState struct {
	active  bool
	radius  float64
	density float64
	prefab  string

	painting bool
	onStroke func(point geom.Vec3, prefab string)
}

// SetBrushMode toggles brush painting. Entering brush mode detaches the
// gizmo; leaving it cancels any in-flight stroke.
func (ec *EditorController) SetBrushMode(on bool) {
	ec.brush.active = on
	ec.brush.painting = false
	if on {
		ec.SetGizmoType(GizmoNone)
	} else {
		ec.SetGizmoType(GizmoPosition)
	}
}

func (ec *EditorController) BrushMode() bool { return ec.brush.active }

func (ec *EditorController) SetBrushSettings(radius, density float64, prefab string) {
	if radius < 0 {
		radius = 0
	}
	ec.brush.radius = radius
	ec.brush.density = math.Max(0, math.Min(1, density))
	ec.brush.prefab = prefab
}

// SetBrushStroke overrides the stroke sink. The default sink spawns a tree
// via the loader.
func (ec *EditorController) SetBrushStroke(f func(point geom.Vec3, prefab string)) {
	ec.brush.onStroke = f
}

func (ec *EditorController) BrushPointerDown() {
	if ec.brush.active {
		ec.brush.painting = true
	}
}

func (ec *EditorController) BrushPointerUp() {
	ec.brush.painting = false
}

// BrushSample processes one pointer sample while painting. hit must be a
// terrain pick; samples on entities are ignored. With probability
// density x rate, a candidate point at uniform polar offset within the brush
// radius is snapped to terrain and emitted as a stroke.
func (ec *EditorController) BrushSample(hit geom.Vec3, onTerrain bool, rng *rand.Rand) bool {
	if !ec.brush.active || !ec.brush.painting || !onTerrain {
		return false
	}
	if rng.Float64() >= ec.brush.density*brushStrokeRate {
		return false
	}
	ang := rng.Float64() * 2 * math.Pi
	r := ec.brush.radius * math.Sqrt(rng.Float64())
	point := geom.V3(hit.X+r*math.Cos(ang), 0, hit.Z+r*math.Sin(ang))
	point.Y = ec.terrain(point.X, point.Z)

	if ec.brush.onStroke != nil {
		ec.brush.onStroke(point, ec.brush.prefab)
		return true
	}
	if _, err := ec.loader.SpawnEntity(KindTree, ec.brush.prefab, point, geom.Vec3{}, geom.Vec3{}); err != nil {
		if ec.logger != nil {
			ec.logger.Printf("brush: %v", err)
		}
		return false
	}
	return true
}
