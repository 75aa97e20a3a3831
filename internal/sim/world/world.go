package world

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sync/atomic"

	"wearcraft.dev/internal/geom"
	"wearcraft.dev/internal/persistence/mapfile"
	"wearcraft.dev/internal/protocol"
)

// CommandRequest is one raw command envelope from a session, drained at the
// tick boundary.
type CommandRequest struct {
	AgentID string
	Env     protocol.CommandEnvelope
}

type JoinRequest struct {
	AgentName string
	Role      string
	Out       chan []byte
	Resp      chan JoinResponse
}

type JoinResponse struct {
	SessionID string
	Welcome   protocol.WelcomeMsg
}

type clientState struct {
	Out  chan []byte
	Role string
}

// AuditEntry records one executed command. Empty Code means success.
type AuditEntry struct {
	Tick     uint64 `json:"tick"`
	Agent    string `json:"agent"`
	Command  string `json:"command"`
	Code     string `json:"code,omitempty"`
	EntityID string `json:"entity_id,omitempty"`
	Detail   string `json:"detail,omitempty"`
}

type AuditLogger interface {
	WriteAudit(entry AuditEntry) error
}

// SavePoint is one autosaved world export. Writing it to disk happens
// off-thread in the snapshot sink.
type SavePoint struct {
	Doc    mapfile.Document
	Tick   uint64
	Digest string
}

// World is the single-threaded authoritative runtime. All state is owned by
// the loop goroutine; transports talk to it through the channels only.
type World struct {
	cfg    WorldConfig
	logger *log.Logger

	tick atomic.Uint64
	rng  *rand.Rand

	store     *EntityStore
	index     *SpatialIndex
	waypoints *WaypointGraph
	selection *SelectionModel
	history   *CommandHistory
	loader    *LevelLoader
	editor    *EditorController
	arbiter   *EncounterArbiter
	respawnQ  *RespawnQueue

	controllers map[string]*AIController
	ctrlOrder   []string

	terrain TerrainHeightFunc
	spawner Spawner

	playerPos          geom.Vec3
	playerPresent      bool
	playerInputEnabled bool
	playerCtrl         PlayerController

	inbox       chan CommandRequest
	join        chan JoinRequest
	leave       chan string
	playerState chan protocol.PlayerStateMsg
	exportReq   chan chan mapfile.Document
	stop        chan struct{}

	clients        map[string]*clientState
	nextSessionNum atomic.Uint64

	auditLogger  AuditLogger
	snapshotSink chan<- SavePoint
}

func New(cfg WorldConfig) *World {
	cfg.applyDefaults()
	w := &World{
		cfg:                cfg,
		rng:                rand.New(rand.NewSource(cfg.Seed)),
		store:              NewEntityStore(),
		waypoints:          NewWaypointGraph(),
		selection:          NewSelectionModel(),
		history:            NewCommandHistory(cfg.HistoryCapacity),
		controllers:        map[string]*AIController{},
		terrain:            flatTerrain,
		spawner:            NopSpawner{},
		playerInputEnabled: true,
		inbox:              make(chan CommandRequest, 1024),
		join:               make(chan JoinRequest, 64),
		leave:              make(chan string, 64),
		playerState:        make(chan protocol.PlayerStateMsg, 256),
		exportReq:          make(chan chan mapfile.Document, 4),
		stop:               make(chan struct{}),
		clients:            map[string]*clientState{},
	}
	w.index = NewSpatialIndex(cfg.WorldSize, cfg.OctreeCapacity, cfg.OctreeMaxDepth, cfg.OctreeMinNode)
	w.loader = NewLevelLoader(w.store, w.index, w.waypoints, w.terrain, w.spawner)
	w.loader.SetIDSource(w.rng)
	w.loader.SetHooks(w.onEntitySpawned, w.onEntityRemoved)
	w.editor = NewEditorController(w.loader, w.store, w.index, w.selection, w.history, w.terrain)
	w.arbiter = NewEncounterArbiter(cfg.EncounterRadius)
	w.arbiter.SetPlayerInput(worldPlayerInput{w})
	w.respawnQ = NewRespawnQueue(cfg.RespawnRange, w.rng)
	return w
}

func (w *World) SetLogger(lg *log.Logger) {
	w.logger = lg
	w.loader.SetLogger(lg)
	w.editor.SetLogger(lg)
	w.arbiter.SetLogger(lg)
}

func (w *World) SetTerrain(t TerrainHeightFunc) {
	if t == nil {
		return
	}
	w.terrain = t
	w.loader.SetTerrain(t)
	w.editor.terrain = t
}

func (w *World) SetSpawner(s Spawner) {
	if s == nil {
		return
	}
	w.spawner = s
	w.loader.spawner = s
}

func (w *World) SetPlayerController(p PlayerController)  { w.playerCtrl = p }
func (w *World) SetAuditLogger(l AuditLogger)             { w.auditLogger = l }
func (w *World) SetSnapshotSink(ch chan<- SavePoint)      { w.snapshotSink = ch }
func (w *World) SetBattleSession(b BattleSession)         { w.arbiter.SetBattleSession(b) }
func (w *World) SetOnEncounter(f func(*Entity))           { w.arbiter.SetOnEncounter(f) }
func (w *World) SetKnownPrefabs(prefabs map[string]bool)  { w.loader.SetKnownPrefabs(prefabs) }

func (w *World) Inbox() chan<- CommandRequest                { return w.inbox }
func (w *World) Join() chan<- JoinRequest                    { return w.join }
func (w *World) Leave() chan<- string                        { return w.leave }
func (w *World) PlayerState() chan<- protocol.PlayerStateMsg { return w.playerState }

func (w *World) CurrentTick() uint64 { return w.tick.Load() }

// Accessors for loop-thread callers (tests, debug API). Not safe to call
// concurrently with Run.
func (w *World) Store() *EntityStore          { return w.store }
func (w *World) Index() *SpatialIndex         { return w.index }
func (w *World) Waypoints() *WaypointGraph    { return w.waypoints }
func (w *World) Loader() *LevelLoader         { return w.loader }
func (w *World) Editor() *EditorController    { return w.editor }
func (w *World) Selection() *SelectionModel   { return w.selection }
func (w *World) History() *CommandHistory     { return w.history }
func (w *World) Arbiter() *EncounterArbiter   { return w.arbiter }
func (w *World) RespawnQueue() *RespawnQueue  { return w.respawnQ }
func (w *World) BattleActive() bool           { return w.arbiter.BattleActive() }
func (w *World) PlayerInputEnabled() bool     { return w.playerInputEnabled }

// Controller returns the AI controller for an enemy entity id.
func (w *World) Controller(id string) *AIController { return w.controllers[id] }

// LoadMap replaces the world population from a document.
func (w *World) LoadMap(doc mapfile.Document) error {
	if err := w.loader.Load(doc); err != nil {
		return err
	}
	w.history.Clear()
	w.selection.Deselect()
	if w.logger != nil {
		w.logger.Printf("map %s loaded: %d entities", doc.ID, w.store.Len())
	}
	return nil
}

// ExportMap snapshots the current world as a document. Loop-thread only;
// off-thread callers go through RequestExport.
func (w *World) ExportMap() mapfile.Document { return w.loader.Export() }

// RequestExport asks the running loop for a map snapshot. Safe to call from
// any goroutine while Run is active.
func (w *World) RequestExport(ctx context.Context) (mapfile.Document, error) {
	respCh := make(chan mapfile.Document, 1)
	select {
	case w.exportReq <- respCh:
	case <-ctx.Done():
		return mapfile.Document{}, ctx.Err()
	}
	select {
	case doc := <-respCh:
		return doc, nil
	case <-ctx.Done():
		return mapfile.Document{}, ctx.Err()
	}
}

// SetPlayerPosition places the player pawn for headless runs and tests.
func (w *World) SetPlayerPosition(pos geom.Vec3) {
	w.playerPos = pos
	w.playerPresent = true
}

func (w *World) onEntitySpawned(e *Entity) {
	if e.Kind != KindEnemy {
		return
	}
	ctrl := NewAIController(e, w.waypoints, w.terrain, w.rng, w.logger)
	w.controllers[e.ID] = ctrl
	w.ctrlOrder = append(w.ctrlOrder, e.ID)
}

func (w *World) onEntityRemoved(e *Entity) {
	if sel := w.selection.Selected(); sel != nil && sel.ID == e.ID {
		w.selection.Deselect()
	}
	if _, ok := w.controllers[e.ID]; !ok {
		return
	}
	delete(w.controllers, e.ID)
	for i, id := range w.ctrlOrder {
		if id == e.ID {
			w.ctrlOrder = append(w.ctrlOrder[:i], w.ctrlOrder[i+1:]...)
			break
		}
	}
}

func (w *World) orderedControllers() []*AIController {
	out := make([]*AIController, 0, len(w.ctrlOrder))
	for _, id := range w.ctrlOrder {
		out = append(out, w.controllers[id])
	}
	return out
}

// ResetBattleState ends the active encounter. On victory the enemy is
// removed and queued for respawn; on defeat it stays in the world with its
// aggro cleared.
func (w *World) ResetBattleState(victory bool) {
	if !w.arbiter.BattleActive() {
		return
	}
	enemy := w.arbiter.Current()
	w.arbiter.reset()
	if enemy == nil {
		return
	}
	w.broadcastEvent(protocol.Event{
		"type":             protocol.TypeEvent,
		"protocol_version": protocol.Version,
		"event":            "ENCOUNTER_END",
		"tick":             w.tick.Load(),
		"entity_id":        enemy.ID,
		"victory":          victory,
	})
	if victory {
		// Live entity may already be gone; the snapshot is what respawns.
		snapshot := enemy.Clone()
		due := w.tick.Load() + uint64(w.cfg.RespawnDelaySeconds*float64(w.cfg.TickRateHz))
		w.respawnQ.Enqueue(snapshot, due)
		w.loader.RemoveEntity(enemy.ID)
		if w.logger != nil {
			w.logger.Printf("battle won: %s queued for respawn at tick %d", enemy.ID, due)
		}
		return
	}
	if ctrl := w.controllers[enemy.ID]; ctrl != nil {
		ctrl.ClearAggro()
	}
}

type worldPlayerInput struct{ w *World }

func (p worldPlayerInput) SetEnabled(on bool) {
	p.w.playerInputEnabled = on
	if p.w.playerCtrl != nil {
		p.w.playerCtrl.SetEnabled(on)
	}
}

func (w *World) joinSession(req JoinRequest) JoinResponse {
	num := w.nextSessionNum.Add(1)
	sessionID := fmt.Sprintf("S%d", num)
	if req.Out != nil {
		w.clients[sessionID] = &clientState{Out: req.Out, Role: req.Role}
	}
	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       sessionID,
		WorldParams: protocol.WorldParams{
			MapID:           w.loader.MapID(),
			TickRateHz:      w.cfg.TickRateHz,
			WorldSize:       w.cfg.WorldSize,
			EncounterRadius: w.cfg.EncounterRadius,
			Seed:            w.cfg.Seed,
		},
	}
	if w.logger != nil {
		w.logger.Printf("session %s joined (%s, role=%s)", sessionID, req.AgentName, req.Role)
	}
	return JoinResponse{SessionID: sessionID, Welcome: welcome}
}

func (w *World) leaveSession(id string) {
	delete(w.clients, id)
}
