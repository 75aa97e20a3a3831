package world

import (
	"encoding/json"

	"wearcraft.dev/internal/protocol"
)

// cmdResult is what a handler reports back: an empty code means success.
type cmdResult struct {
	Code     string
	EntityID string
	Detail   string
}

func cmdOK(entityID, detail string) cmdResult {
	return cmdResult{EntityID: entityID, Detail: detail}
}

func cmdFail(code, detail string) cmdResult {
	return cmdResult{Code: code, Detail: detail}
}

// handleCommand validates, executes and audits one command, then builds the
// ACTION_RESULT event for the issuing session. Failures never propagate as
// errors past this point; they become result codes.
func (w *World) handleCommand(req CommandRequest) []byte {
	var res cmdResult
	cmd, err := protocol.ParseCommand(req.Env)
	if err != nil {
		res = cmdFail(protocol.ErrProtoBadRequest, err.Error())
	} else {
		res = w.applyCommand(cmd)
	}

	tick := w.tick.Load()
	if w.auditLogger != nil {
		_ = w.auditLogger.WriteAudit(AuditEntry{
			Tick:     tick,
			Agent:    req.AgentID,
			Command:  req.Env.Type,
			Code:     res.Code,
			EntityID: res.EntityID,
			Detail:   res.Detail,
		})
	}
	if res.Code != "" && w.logger != nil {
		w.logger.Printf("command %s from %s failed: %s %s", req.Env.Type, req.AgentID, res.Code, res.Detail)
	}

	ev := protocol.Event{
		"type":             protocol.TypeEvent,
		"protocol_version": protocol.Version,
		"event":            "ACTION_RESULT",
		"tick":             tick,
		"command":          req.Env.Type,
		"ok":               res.Code == "",
	}
	if res.Code != "" {
		ev["code"] = res.Code
	}
	if res.EntityID != "" {
		ev["entity_id"] = res.EntityID
	}
	if res.Detail != "" {
		ev["detail"] = res.Detail
	}
	b, _ := json.Marshal(ev)
	return b
}

func (w *World) applyCommand(cmd protocol.Command) cmdResult {
	switch cmd.Type {
	case protocol.CmdSpawnEntity:
		return w.cmdSpawnEntity(cmd.Spawn)
	case protocol.CmdDeleteEntity:
		return w.cmdDeleteEntity(cmd.Delete)
	case protocol.CmdMoveEntity:
		return w.cmdMoveEntity(cmd.Move)
	case protocol.CmdClearArea:
		return w.cmdClearArea(cmd.ClearArea)
	case protocol.CmdSpawnBatch:
		return w.cmdSpawnBatch(cmd.SpawnBatch)
	case protocol.CmdUndo:
		return w.cmdUndo()
	case protocol.CmdRedo:
		return w.cmdRedo()
	}
	return cmdFail(protocol.ErrProtoBadRequest, "unhandled command type "+cmd.Type)
}
