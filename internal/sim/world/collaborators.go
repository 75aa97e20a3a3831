package world

import "wearcraft.dev/internal/geom"

// TerrainHeightFunc reports the ground height at an XZ coordinate. It must
// be total; a nil func means flat ground at y=0.
type TerrainHeightFunc func(x, z float64) float64

func flatTerrain(x, z float64) float64 { return 0 }

// Spawner instantiates the visual representation of an entity. The headless
// server uses NopSpawner; a render client supplies its own.
type Spawner interface {
	SpawnVisual(e *Entity)
	RemoveVisual(id string)
}

type NopSpawner struct{}

func (NopSpawner) SpawnVisual(e *Entity)  {}
func (NopSpawner) RemoveVisual(id string) {}

// PlayerController exposes the player pawn to the simulation. The live
// server backs it with ingested PLAYER_STATE messages; tests use a fake.
type PlayerController interface {
	Position() (geom.Vec3, bool)
	SetEnabled(bool)
}

// BattleSession is the external combat collaborator. The world hands it the
// triggering enemy and stops simulating until End is reported back.
type BattleSession interface {
	Start(enemy *Entity, player geom.Vec3)
}
