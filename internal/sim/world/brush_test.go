package world

import (
	"math/rand"
	"testing"

	"wearcraft.dev/internal/geom"
)

func TestBrush_PaintsOnlyWhileStroking(t *testing.T) {
	w := newTestWorld(t)
	ed := w.Editor()
	rng := rand.New(rand.NewSource(5))

	ed.SetBrushSettings(3, 1, "tree_pine")

	// Not in brush mode.
	if ed.BrushSample(geom.V3(0, 0, 0), true, rng) {
		t.Fatalf("sample must be inert outside brush mode")
	}

	ed.SetBrushMode(true)
	if ed.Gizmo() != GizmoNone {
		t.Fatalf("brush mode must detach the gizmo")
	}

	// Pointer up.
	if ed.BrushSample(geom.V3(0, 0, 0), true, rng) {
		t.Fatalf("sample must be inert before pointer down")
	}

	ed.BrushPointerDown()
	// Entity hit instead of terrain.
	if ed.BrushSample(geom.V3(0, 0, 0), false, rng) {
		t.Fatalf("samples on entities must be ignored")
	}

	placed := 0
	for i := 0; i < 500; i++ {
		if ed.BrushSample(geom.V3(0, 0, 0), true, rng) {
			placed++
		}
	}
	if placed == 0 {
		t.Fatalf("density 1 over 500 samples placed nothing")
	}
	if w.Store().Len() != placed {
		t.Fatalf("default sink must spawn trees: %d placed, %d stored", placed, w.Store().Len())
	}

	ed.BrushPointerUp()
	if ed.BrushSample(geom.V3(0, 0, 0), true, rng) {
		t.Fatalf("sample must be inert after pointer up")
	}

	ed.SetBrushMode(false)
	if ed.Gizmo() != GizmoPosition {
		t.Fatalf("leaving brush mode must restore the position gizmo")
	}
}

func TestBrush_DensityScalesRate(t *testing.T) {
	w := newTestWorld(t)
	ed := w.Editor()
	ed.SetBrushMode(true)
	ed.BrushPointerDown()

	// Density 0 never places.
	ed.SetBrushSettings(3, 0, "tree_pine")
	rng := rand.New(rand.NewSource(11))
	for i := 0; i < 300; i++ {
		if ed.BrushSample(geom.V3(0, 0, 0), true, rng) {
			t.Fatalf("density 0 placed an entity at sample %d", i)
		}
	}

	// Full density places at the fixed stroke rate, about 1 in 5.
	ed.SetBrushSettings(3, 1, "tree_pine")
	placed := 0
	for i := 0; i < 2000; i++ {
		if ed.BrushSample(geom.V3(0, 0, 0), true, rng) {
			placed++
		}
	}
	if placed < 300 || placed > 500 {
		t.Fatalf("density 1 should place near 400 of 2000 samples, got %d", placed)
	}
	if w.Store().Len() != placed {
		t.Fatalf("store drifted from placements")
	}
}

func TestBrush_PlacementsStayInRadius(t *testing.T) {
	w := newTestWorld(t)
	w.SetTerrain(func(x, z float64) float64 { return 2 })
	ed := w.Editor()
	ed.SetBrushMode(true)
	ed.SetBrushSettings(4, 1, "tree_oak")
	ed.BrushPointerDown()

	center := geom.V3(30, 0, -12)
	var points []geom.Vec3
	ed.SetBrushStroke(func(p geom.Vec3, prefab string) {
		if prefab != "tree_oak" {
			t.Fatalf("stroke prefab: %s", prefab)
		}
		points = append(points, p)
	})

	rng := rand.New(rand.NewSource(2))
	for i := 0; i < 2000; i++ {
		ed.BrushSample(center, true, rng)
	}
	if len(points) == 0 {
		t.Fatalf("no strokes emitted")
	}
	for _, p := range points {
		if d := geom.DistXZ(p, center); d > 4 {
			t.Fatalf("stroke %v is %v m from center, radius is 4", p, d)
		}
		if p.Y != 2 {
			t.Fatalf("stroke must snap to terrain: %v", p.Y)
		}
	}
	// Custom sink bypasses the loader.
	if w.Store().Len() != 0 {
		t.Fatalf("stroke sink must replace the default spawn")
	}
}

func TestBrush_SettingsClamped(t *testing.T) {
	w := newTestWorld(t)
	ed := w.Editor()
	ed.SetBrushMode(true)
	ed.BrushPointerDown()
	ed.SetBrushSettings(3, 7, "tree_pine")

	// Density clamps to 1: the hit rate stays at the fixed stroke cap.
	rng := rand.New(rand.NewSource(3))
	placed := 0
	for i := 0; i < 2000; i++ {
		if ed.BrushSample(geom.V3(0, 0, 0), true, rng) {
			placed++
		}
	}
	if placed > 500 {
		t.Fatalf("clamped density must cap at the stroke rate, placed %d", placed)
	}
}
