package world

import (
	"log"
	"math"
	"math/rand"

	"wearcraft.dev/internal/geom"
)

type AIState string

const (
	StateIdle   AIState = "Idle"
	StatePatrol AIState = "Patrol"
	StateChase  AIState = "Chase"
	StateAttack AIState = "Attack"
	StateReturn AIState = "Return"
)

// attackBreakFactor widens the attack range on exit so an enemy straddling
// the boundary does not flap between Attack and Chase every tick.
const attackBreakFactor = 1.2

const arriveEpsilon = 0.1

const (
	yawLerpFactor     = 0.1
	terrainLerpFactor = 0.3
)

// AIController runs one enemy's state machine. All transitions are driven
// by accumulated distance or stateTimer, never frame counts, so behavior is
// deterministic for a given dt stream, player trajectory and seeded rng.
type AIController struct {
	e         *Entity
	cfg       AIConfig
	spawn     geom.Vec3
	waypoints *WaypointGraph
	terrain   TerrainHeightFunc
	rng       *rand.Rand
	logger    *log.Logger

	state      AIState
	stateTimer float64

	target         geom.Vec3
	targetWaypoint string
	nextWaypointID string

	isAggro        bool
	warnedDangling bool
}

func NewAIController(e *Entity, waypoints *WaypointGraph, terrain TerrainHeightFunc, rng *rand.Rand, logger *log.Logger) *AIController {
	cfg := defaultAIConfig()
	if e.AI != nil {
		cfg = *e.AI
		cfg.normalize()
	}
	if terrain == nil {
		terrain = flatTerrain
	}
	return &AIController{
		e:              e,
		cfg:            cfg,
		spawn:          e.Position,
		waypoints:      waypoints,
		terrain:        terrain,
		rng:            rng,
		logger:         logger,
		state:          StateIdle,
		stateTimer:     cfg.IdleTime,
		nextWaypointID: cfg.NextWaypointID,
	}
}

func (a *AIController) State() AIState        { return a.state }
func (a *AIController) Aggro() bool           { return a.isAggro }
func (a *AIController) ClearAggro()           { a.isAggro = false }
func (a *AIController) SpawnPoint() geom.Vec3 { return a.spawn }
func (a *AIController) Entity() *Entity       { return a.e }

// Update advances the state machine by dt seconds. player is nil when no
// player pawn exists.
func (a *AIController) Update(dt float64, player *geom.Vec3) {
	switch a.state {
	case StateIdle:
		if a.playerInAggro(player) {
			a.enterChase()
			return
		}
		a.stateTimer -= dt
		if a.stateTimer <= 0 {
			a.pickPatrolTarget()
			a.state = StatePatrol
		}

	case StatePatrol:
		if a.playerInAggro(player) {
			a.enterChase()
			return
		}
		if a.moveTo(a.target, a.cfg.MoveSpeed, dt) {
			a.arriveAtPatrolTarget()
		}

	case StateChase:
		if geom.DistXZ(a.e.Position, a.spawn) > a.cfg.LeashRadius {
			a.state = StateReturn
			return
		}
		if player == nil {
			a.state = StateReturn
			return
		}
		if geom.DistXZ(a.e.Position, *player) <= a.cfg.AttackRange {
			a.state = StateAttack
			return
		}
		a.moveTo(*player, a.cfg.ChaseSpeed, dt)

	case StateAttack:
		if player == nil || geom.DistXZ(a.e.Position, *player) > a.cfg.AttackRange*attackBreakFactor {
			a.state = StateChase
			return
		}
		a.facePlayer(*player)

	case StateReturn:
		if a.moveTo(a.spawn, a.cfg.ChaseSpeed, dt) {
			a.isAggro = false
			a.stateTimer = a.cfg.IdleTime
			a.state = StateIdle
		}
	}
}

func (a *AIController) playerInAggro(player *geom.Vec3) bool {
	return player != nil && geom.DistXZ(a.e.Position, *player) <= a.cfg.AggroRadius
}

func (a *AIController) enterChase() {
	a.isAggro = true
	a.state = StateChase
}

func (a *AIController) pickPatrolTarget() {
	if a.cfg.PatrolType == PatrolWaypoint && a.nextWaypointID != "" {
		if pos, ok := a.waypoints.PositionOf(a.nextWaypointID); ok {
			a.target = pos
			a.targetWaypoint = a.nextWaypointID
			return
		}
		if !a.warnedDangling {
			a.warnedDangling = true
			if a.logger != nil {
				a.logger.Printf("ai %s: waypoint %q not found, falling back to random patrol", a.e.ID, a.nextWaypointID)
			}
		}
	}
	ang := a.rng.Float64() * 2 * math.Pi
	r := a.cfg.PatrolRadius * math.Sqrt(a.rng.Float64())
	a.target = geom.V3(a.spawn.X+r*math.Cos(ang), a.spawn.Y, a.spawn.Z+r*math.Sin(ang))
	a.targetWaypoint = ""
}

func (a *AIController) arriveAtPatrolTarget() {
	if a.targetWaypoint != "" {
		_, wait, ok := a.waypoints.ConfigOf(a.targetWaypoint)
		if ok {
			a.stateTimer = wait
			if next, _ := a.waypoints.NextOf(a.targetWaypoint); next != "" {
				a.nextWaypointID = next
			} else {
				// Terminal node: the route ends here, continue on random.
				a.nextWaypointID = ""
			}
		} else {
			a.stateTimer = a.cfg.IdleTime
		}
	} else {
		a.stateTimer = a.cfg.IdleTime
	}
	a.state = StateIdle
}

// moveTo advances toward target in the XZ plane, easing yaw toward the
// travel direction and height toward the terrain. Returns true on arrival.
func (a *AIController) moveTo(target geom.Vec3, speed, dt float64) bool {
	dx := target.X - a.e.Position.X
	dz := target.Z - a.e.Position.Z
	dist := math.Hypot(dx, dz)
	if dist < arriveEpsilon {
		return true
	}
	step := speed * dt
	if step >= dist {
		a.e.Position.X = target.X
		a.e.Position.Z = target.Z
	} else {
		a.e.Position.X += dx / dist * step
		a.e.Position.Z += dz / dist * step
	}

	desiredYaw := math.Atan2(dx, dz)
	a.e.Rotation.Y = geom.LerpAngle(a.e.Rotation.Y, desiredYaw, yawLerpFactor)

	ground := a.terrain(a.e.Position.X, a.e.Position.Z)
	a.e.Position.Y = geom.Lerp(a.e.Position.Y, ground, terrainLerpFactor)

	return math.Hypot(target.X-a.e.Position.X, target.Z-a.e.Position.Z) < arriveEpsilon
}

func (a *AIController) facePlayer(player geom.Vec3) {
	dx := player.X - a.e.Position.X
	dz := player.Z - a.e.Position.Z
	if dx == 0 && dz == 0 {
		return
	}
	a.e.Rotation.Y = geom.LerpAngle(a.e.Rotation.Y, math.Atan2(dx, dz), yawLerpFactor)
}
