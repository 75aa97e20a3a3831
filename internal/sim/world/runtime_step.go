package world

import (
	"encoding/json"

	"wearcraft.dev/internal/geom"
	"wearcraft.dev/internal/protocol"
)

// step advances one tick. Order within a tick: sessions join/leave, player
// state, commands, then the simulation (AI, encounter check, respawns) and
// finally the autosave. The simulation block is skipped entirely while a
// battle is active.
func (w *World) step(joins []JoinRequest, leaves []string, states []protocol.PlayerStateMsg, commands []CommandRequest) {
	for _, req := range joins {
		resp := w.joinSession(req)
		if req.Resp != nil {
			req.Resp <- resp
		}
	}
	for _, id := range leaves {
		w.leaveSession(id)
	}

	if len(states) > 0 {
		// Only the latest report matters.
		s := states[len(states)-1]
		w.playerPos = geom.V3(s.X, s.Y, s.Z)
		w.playerPresent = true
	}
	if w.playerCtrl != nil {
		if pos, present := w.playerCtrl.Position(); present {
			w.playerPos = pos
			w.playerPresent = true
		}
	}

	for _, req := range commands {
		result := w.handleCommand(req)
		w.sendToSession(req.AgentID, result)
	}

	if !w.arbiter.BattleActive() {
		w.simulate()
	}

	nowTick := w.tick.Add(1)

	if w.snapshotSink != nil && nowTick%uint64(w.cfg.AutosaveEveryTicks) == 0 {
		sp := SavePoint{Doc: w.loader.Export(), Tick: nowTick, Digest: w.stateDigest(nowTick)}
		select {
		case w.snapshotSink <- sp:
		default:
			if w.logger != nil {
				w.logger.Printf("autosave sink full, skipping tick %d", nowTick)
			}
		}
	}
}

// simulate runs the per-tick world update: every enemy controller, then the
// encounter check, then due respawns.
func (w *World) simulate() {
	dt := 1.0 / float64(w.cfg.TickRateHz)

	var player *geom.Vec3
	if w.playerPresent {
		p := w.playerPos
		player = &p
	}

	for _, ctrl := range w.orderedControllers() {
		e := ctrl.Entity()
		before := e.Position
		ctrl.Update(dt, player)
		if e.Position != before {
			// Keep the spatial index in step with AI motion, the same way
			// editor moves reindex.
			w.index.Insert(e)
		}
	}

	if player != nil {
		if e := w.arbiter.Check(*player, w.orderedControllers()); e != nil {
			w.broadcastEvent(protocol.Event{
				"type":             protocol.TypeEvent,
				"protocol_version": protocol.Version,
				"event":            "ENCOUNTER_START",
				"tick":             w.tick.Load(),
				"entity_id":        e.ID,
				"prefab":           e.Prefab,
			})
		}
	}

	for _, snap := range w.respawnQ.Drain(w.tick.Load()) {
		e, err := w.loader.Respawn(snap)
		if err != nil {
			if w.logger != nil {
				w.logger.Printf("respawn: %v", err)
			}
			continue
		}
		if w.logger != nil {
			w.logger.Printf("respawned %s (%s) at (%.1f, %.1f)", e.ID, e.Prefab, e.Position.X, e.Position.Z)
		}
	}
}

// sendToSession delivers an event to one session without ever blocking the
// loop: when the outbound buffer is full the oldest event is dropped.
func (w *World) sendToSession(sessionID string, payload []byte) {
	c, found := w.clients[sessionID]
	if !found || c.Out == nil {
		return
	}
	select {
	case c.Out <- payload:
	default:
		select {
		case <-c.Out:
		default:
		}
		select {
		case c.Out <- payload:
		default:
		}
	}
}

// broadcastEvent sends an event to every connected session.
func (w *World) broadcastEvent(ev protocol.Event) {
	b, err := json.Marshal(ev)
	if err != nil {
		return
	}
	for id := range w.clients {
		w.sendToSession(id, b)
	}
}
