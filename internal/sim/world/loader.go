package world

import (
	"fmt"
	"io"
	"log"
	"strings"

	"wearcraft.dev/internal/geom"
	"wearcraft.dev/internal/persistence/mapfile"
)

// LevelLoader projects map documents into live entities and back. Loads are
// atomic: a document that fails to decode never touches the world.
type LevelLoader struct {
	store     *EntityStore
	index     *SpatialIndex
	waypoints *WaypointGraph
	terrain   TerrainHeightFunc
	spawner   Spawner
	logger    *log.Logger
	onError   func(category, message string)

	// Entropy for generated entity ids. nil falls back to crypto randomness;
	// the world runtime injects its seeded rng so replays reproduce ids.
	ids io.Reader

	// Known prefab catalog. nil accepts any prefab (procedural fallback
	// geometry is the spawner's problem).
	prefabs map[string]bool

	mapID      string
	mapName    string
	mapVersion string
	settings   mapfile.Settings

	// Lifecycle hooks, fired after an entity is registered / before it is
	// dropped. The world runtime uses them to manage AI controllers.
	onSpawn  func(*Entity)
	onRemove func(*Entity)
}

func NewLevelLoader(store *EntityStore, index *SpatialIndex, waypoints *WaypointGraph, terrain TerrainHeightFunc, spawner Spawner) *LevelLoader {
	if terrain == nil {
		terrain = flatTerrain
	}
	if spawner == nil {
		spawner = NopSpawner{}
	}
	return &LevelLoader{
		store:     store,
		index:     index,
		waypoints: waypoints,
		terrain:   terrain,
		spawner:   spawner,
	}
}

func (l *LevelLoader) SetLogger(lg *log.Logger)                { l.logger = lg }
func (l *LevelLoader) SetIDSource(r io.Reader)                 { l.ids = r }
func (l *LevelLoader) SetOnError(f func(category, msg string)) { l.onError = f }
func (l *LevelLoader) SetKnownPrefabs(prefabs map[string]bool) { l.prefabs = prefabs }
func (l *LevelLoader) SetHooks(onSpawn, onRemove func(*Entity)) {
	l.onSpawn = onSpawn
	l.onRemove = onRemove
}

func (l *LevelLoader) SetTerrain(t TerrainHeightFunc) {
	if t != nil {
		l.terrain = t
	}
}

func (l *LevelLoader) Settings() mapfile.Settings { return l.settings }
func (l *LevelLoader) MapID() string              { return l.mapID }

func (l *LevelLoader) warnf(category, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if l.logger != nil {
		l.logger.Printf("%s: %s", category, msg)
	}
	if l.onError != nil {
		l.onError(category, msg)
	}
}

func (l *LevelLoader) knownPrefab(prefab string) bool {
	if l.prefabs == nil {
		return true
	}
	return l.prefabs[prefab]
}

// Load replaces the authored entity population with the document's.
// Insertion order is preserved so waypoint references resolve greedily;
// dangling references stay dangling and degrade at runtime.
func (l *LevelLoader) Load(doc mapfile.Document) error {
	l.Clear()
	l.mapID = doc.ID
	l.mapName = doc.Name
	l.mapVersion = doc.Version
	l.settings = doc.Settings

	for i, rec := range doc.Entities {
		kind := Kind(rec.Type)
		if !ValidKind(kind) {
			l.warnf("load", "entity %d: unknown type %q, skipped", i, rec.Type)
			continue
		}
		if !l.knownPrefab(rec.Prefab) {
			l.warnf("load", "entity %d: unknown prefab %q, skipped", i, rec.Prefab)
			continue
		}
		pos := geom.V3(rec.Position[0], rec.Position[1], rec.Position[2])
		if pos.Y <= 0 {
			pos.Y = l.terrain(pos.X, pos.Z)
		}
		rot := geom.Vec3{}
		if rec.Rotation != nil {
			rot = geom.V3(rec.Rotation[0], rec.Rotation[1], rec.Rotation[2])
		}
		scale := geom.V3(1, 1, 1)
		if rec.Scale != nil {
			scale = geom.V3(rec.Scale[0], rec.Scale[1], rec.Scale[2])
		}

		e := &Entity{
			ID:       rec.ID,
			Kind:     kind,
			Prefab:   rec.Prefab,
			Position: pos,
			Rotation: rot,
			Scale:    scale,
			Enabled:  true,
		}
		if e.ID == "" {
			e.ID = newEntityID(kind, l.ids)
		}
		props := rec.Props
		if props == nil {
			props = &mapfile.Properties{}
		}
		switch kind {
		case KindEnemy:
			ai := aiConfigFromProps(props)
			e.AI = &ai
		case KindWaypoint:
			e.Waypoint = &WaypointMeta{
				NextWaypointID: props.NextWaypointID,
				WaitTime:       props.WaitTime,
			}
		}
		l.register(e)
	}
	l.waypoints.DebugRefresh()
	return nil
}

func aiConfigFromProps(p *mapfile.Properties) AIConfig {
	cfg := AIConfig{
		MoveSpeed:      p.MoveSpeed,
		ChaseSpeed:     p.ChaseSpeed,
		PatrolRadius:   p.PatrolRadius,
		AggroRadius:    p.AggroRadius,
		AttackRange:    p.AttackRange,
		LeashRadius:    p.LeashRadius,
		IdleTime:       p.IdleTime,
		PatrolType:     PatrolType(p.PatrolType),
		NextWaypointID: p.NextWaypointID,
	}
	cfg.normalize()
	return cfg
}

// register wires an entity into store, index, graph and visuals.
func (l *LevelLoader) register(e *Entity) bool {
	if !l.store.Add(e) {
		l.warnf("load", "duplicate entity id %q, skipped", e.ID)
		return false
	}
	l.index.Insert(e)
	if e.Kind == KindWaypoint {
		next, wait := "", 0.0
		if e.Waypoint != nil {
			next, wait = e.Waypoint.NextWaypointID, e.Waypoint.WaitTime
		}
		l.waypoints.Create(waypointNodeID(e.ID), e.Position, next, wait)
	}
	l.spawner.SpawnVisual(e)
	if l.onSpawn != nil {
		l.onSpawn(e)
	}
	return true
}

// waypointNodeID maps a waypoint entity id to its graph node name. Map files
// prefix waypoint entity ids with "waypoint_"; other entities reference the
// bare node name.
func waypointNodeID(entityID string) string {
	return strings.TrimPrefix(entityID, "waypoint_")
}

// SpawnEntity creates one entity with kind defaults. Ground placement: y at
// or below zero snaps to terrain.
func (l *LevelLoader) SpawnEntity(kind Kind, prefab string, pos geom.Vec3, rot geom.Vec3, scale geom.Vec3) (*Entity, error) {
	if !ValidKind(kind) {
		return nil, fmt.Errorf("unknown entity kind %q", kind)
	}
	if !l.knownPrefab(prefab) {
		return nil, fmt.Errorf("unknown prefab %q", prefab)
	}
	if pos.Y <= 0 {
		pos.Y = l.terrain(pos.X, pos.Z)
	}
	if scale == (geom.Vec3{}) {
		scale = geom.V3(1, 1, 1)
	}
	e := &Entity{
		ID:       newEntityID(kind, l.ids),
		Kind:     kind,
		Prefab:   prefab,
		Position: pos,
		Rotation: rot,
		Scale:    scale,
		Enabled:  true,
	}
	switch kind {
	case KindEnemy:
		ai := defaultAIConfig()
		e.AI = &ai
	case KindWaypoint:
		e.Waypoint = &WaypointMeta{}
	}
	if !l.register(e) {
		return nil, fmt.Errorf("entity id collision for %q", e.ID)
	}
	return e, nil
}

// Respawn reinstates a snapshot entity, keeping its recorded id when it is
// still free. Used by undo and by the respawn queue.
func (l *LevelLoader) Respawn(snapshot *Entity) (*Entity, error) {
	e := snapshot.Clone()
	if e.ID == "" || l.store.Get(e.ID) != nil {
		e.ID = newEntityID(e.Kind, l.ids)
	}
	e.Enabled = true
	if e.Position.Y <= 0 {
		e.Position.Y = l.terrain(e.Position.X, e.Position.Z)
	}
	if !l.register(e) {
		return nil, fmt.Errorf("entity id collision for %q", e.ID)
	}
	return e, nil
}

// RemoveEntity drops one entity from store, index, graph and visuals.
func (l *LevelLoader) RemoveEntity(id string) *Entity {
	e := l.store.Remove(id)
	if e == nil {
		return nil
	}
	if l.onRemove != nil {
		l.onRemove(e)
	}
	l.index.Remove(id)
	if e.Kind == KindWaypoint {
		l.waypoints.Remove(waypointNodeID(id))
	}
	l.spawner.RemoveVisual(id)
	return e
}

// Clear drops all four authored kinds. Terrain and lighting are collaborator
// state and survive.
func (l *LevelLoader) Clear() {
	for _, e := range l.store.All() {
		l.RemoveEntity(e.ID)
	}
	l.waypoints.Clear()
}

// Export snapshots the world as a map document. Sub-parts of composite
// enemies/structures are omitted; numeric fields round to two decimals.
func (l *LevelLoader) Export() mapfile.Document {
	doc := mapfile.Document{
		ID:       l.mapID,
		Name:     l.mapName,
		Version:  l.mapVersion,
		Settings: l.settings,
		Entities: []mapfile.EntityRecord{},
	}
	for _, e := range l.store.All() {
		kind := e.Kind
		if kind == "" {
			legacy, ok := legacyKind(e.ID)
			if !ok {
				continue
			}
			kind = legacy
		}
		if l.isSubPart(e) {
			continue
		}
		rec := mapfile.EntityRecord{
			Type:     string(kind),
			ID:       e.ID,
			Prefab:   e.Prefab,
			Position: [3]float64{e.Position.X, e.Position.Y, e.Position.Z},
		}
		if e.Rotation != (geom.Vec3{}) {
			rec.Rotation = &[3]float64{e.Rotation.X, e.Rotation.Y, e.Rotation.Z}
		}
		if e.Scale != geom.V3(1, 1, 1) {
			rec.Scale = &[3]float64{e.Scale.X, e.Scale.Y, e.Scale.Z}
		}
		switch kind {
		case KindEnemy:
			if e.AI != nil {
				rec.Props = &mapfile.Properties{
					MoveSpeed:      e.AI.MoveSpeed,
					ChaseSpeed:     e.AI.ChaseSpeed,
					PatrolRadius:   e.AI.PatrolRadius,
					AggroRadius:    e.AI.AggroRadius,
					AttackRange:    e.AI.AttackRange,
					LeashRadius:    e.AI.LeashRadius,
					IdleTime:       e.AI.IdleTime,
					PatrolType:     string(e.AI.PatrolType),
					NextWaypointID: e.AI.NextWaypointID,
				}
			}
		case KindWaypoint:
			if e.Waypoint != nil {
				rec.Props = &mapfile.Properties{
					NextWaypointID: e.Waypoint.NextWaypointID,
					WaitTime:       e.Waypoint.WaitTime,
				}
			}
		}
		doc.Entities = append(doc.Entities, rec)
	}
	doc.RoundNumbers()
	return doc
}

func (l *LevelLoader) isSubPart(e *Entity) bool {
	if e.ParentID == "" {
		return false
	}
	p := l.store.Get(e.ParentID)
	return p != nil && (p.Kind == KindEnemy || p.Kind == KindStructure)
}

// legacyKind recovers the kind from pre-metadata entity names of the form
// kind_prefab_*. Only trees and structures ever used that convention.
func legacyKind(id string) (Kind, bool) {
	switch {
	case strings.HasPrefix(id, "tree_"):
		return KindTree, true
	case strings.HasPrefix(id, "structure_"):
		return KindStructure, true
	}
	return "", false
}
