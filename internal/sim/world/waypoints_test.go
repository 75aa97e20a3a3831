package world

import (
	"testing"

	"wearcraft.dev/internal/geom"
)

func TestWaypointGraph_UpsertAndLookup(t *testing.T) {
	g := NewWaypointGraph()
	g.Create("wp_a", geom.V3(0, 0, 0), "wp_b", 1.5)
	g.Create("wp_b", geom.V3(10, 0, 0), "wp_a", 2)

	pos, ok := g.PositionOf("wp_a")
	if !ok || pos != geom.V3(0, 0, 0) {
		t.Fatalf("wp_a position: %v %v", pos, ok)
	}
	next, wait, ok := g.ConfigOf("wp_b")
	if !ok || next != "wp_a" || wait != 2 {
		t.Fatalf("wp_b config: %q %v %v", next, wait, ok)
	}

	// Upsert overwrites.
	g.Create("wp_a", geom.V3(5, 0, 5), "", 0)
	pos, _ = g.PositionOf("wp_a")
	if pos != geom.V3(5, 0, 5) {
		t.Fatalf("upsert did not overwrite: %v", pos)
	}
	if next, _ := g.NextOf("wp_a"); next != "" {
		t.Fatalf("upsert must clear the edge, got %q", next)
	}
}

func TestWaypointGraph_DanglingNextTolerated(t *testing.T) {
	g := NewWaypointGraph()
	g.Create("wp_a", geom.V3(0, 0, 0), "wp_b", 1)
	g.Remove("wp_b")

	next, ok := g.NextOf("wp_a")
	if !ok || next != "wp_b" {
		t.Fatalf("dangling edge must be preserved: %q %v", next, ok)
	}
	if _, ok := g.PositionOf("wp_b"); ok {
		t.Fatalf("removed node must not resolve")
	}
}

func TestWaypointGraph_MissingNodeLookups(t *testing.T) {
	g := NewWaypointGraph()
	if _, ok := g.PositionOf("nope"); ok {
		t.Fatalf("missing position must report false")
	}
	if _, ok := g.NextOf("nope"); ok {
		t.Fatalf("missing next must report false")
	}
	if _, _, ok := g.ConfigOf("nope"); ok {
		t.Fatalf("missing config must report false")
	}
}
