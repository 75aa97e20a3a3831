package protocol

import "encoding/json"

const Version = "1.0"

// Session message types. Command envelopes carry their command name in the
// same "type" slot, so one DecodeBase routes everything.
const (
	TypeHello       = "HELLO"
	TypeWelcome     = "WELCOME"
	TypeEvent       = "EVENT"
	TypePlayerState = "PLAYER_STATE"
)

// Editing command types (the remote command envelope of the editor agent).
const (
	CmdSpawnEntity  = "SpawnEntity"
	CmdDeleteEntity = "DeleteEntity"
	CmdMoveEntity   = "MoveEntity"
	CmdClearArea    = "ClearArea"
	CmdSpawnBatch   = "SpawnBatch"
	CmdUndo         = "Undo"
	CmdRedo         = "Redo"
)

// BaseMessage lets us route unknown JSON messages by type.
type BaseMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}

// IsCommand reports whether a message type is an editing command.
func IsCommand(typ string) bool {
	switch typ {
	case CmdSpawnEntity, CmdDeleteEntity, CmdMoveEntity, CmdClearArea, CmdSpawnBatch, CmdUndo, CmdRedo:
		return true
	}
	return false
}

// CommandEnvelope is the wire form of one editing command: {type, data}.
type CommandEnvelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

func DecodeCommand(b []byte) (CommandEnvelope, error) {
	var env CommandEnvelope
	err := json.Unmarshal(b, &env)
	return env, err
}

// Event is a loosely-typed server-to-client notification. Keys "type",
// "event" and "tick" are always present.
type Event map[string]interface{}
