package world

import (
	"log"

	"wearcraft.dev/internal/geom"
)

// EncounterArbiter promotes player/enemy proximity into at most one active
// battle handoff. While a battle is active the simulation tick is skipped
// entirely; the battle collaborator is the sole writer until it reports
// back through ResetBattleState.
type EncounterArbiter struct {
	radius  float64
	active  bool
	current *Entity

	playerInput interface{ SetEnabled(bool) }
	battle      BattleSession
	onEncounter func(*Entity)
	logger      *log.Logger
}

func NewEncounterArbiter(radius float64) *EncounterArbiter {
	if radius <= 0 {
		radius = 2.5
	}
	return &EncounterArbiter{radius: radius}
}

func (ar *EncounterArbiter) SetLogger(lg *log.Logger)         { ar.logger = lg }
func (ar *EncounterArbiter) SetBattleSession(b BattleSession) { ar.battle = b }
func (ar *EncounterArbiter) SetOnEncounter(f func(*Entity))   { ar.onEncounter = f }

func (ar *EncounterArbiter) SetPlayerInput(p interface{ SetEnabled(bool) }) {
	ar.playerInput = p
}

func (ar *EncounterArbiter) BattleActive() bool { return ar.active }

// Current is the enemy that triggered the active encounter, nil otherwise.
func (ar *EncounterArbiter) Current() *Entity { return ar.current }

// Check scans enemies for one within encounter range of the player and
// starts the handoff for the first match. No-op while a battle is active.
// Returns the triggering enemy, if any.
func (ar *EncounterArbiter) Check(player geom.Vec3, enemies []*AIController) *Entity {
	if ar.active {
		return nil
	}
	for _, ctrl := range enemies {
		e := ctrl.Entity()
		if !e.Enabled {
			continue
		}
		if geom.DistXZ(e.Position, player) > ar.radius {
			continue
		}
		ar.active = true
		ar.current = e
		if ar.playerInput != nil {
			ar.playerInput.SetEnabled(false)
		}
		if ar.onEncounter != nil {
			ar.onEncounter(e)
		}
		if ar.battle != nil {
			ar.battle.Start(e, player)
		}
		if ar.logger != nil {
			ar.logger.Printf("encounter started with %s (%s)", e.ID, e.Prefab)
		}
		return e
	}
	return nil
}

// reset clears the flag and re-enables player input. Outcome handling
// (respawn enqueue or aggro clear) is the world's job; the arbiter only
// owns the flag.
func (ar *EncounterArbiter) reset() {
	if !ar.active {
		return
	}
	ar.active = false
	ar.current = nil
	if ar.playerInput != nil {
		ar.playerInput.SetEnabled(true)
	}
}
