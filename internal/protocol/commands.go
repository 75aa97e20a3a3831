package protocol

import (
	"encoding/json"
	"fmt"
)

// GroundPoint is a point in the XZ ground plane. The wire format calls the
// second axis "y" for historical reasons; it maps to world Z.
type GroundPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type SpawnEntityCmd struct {
	EntityType string      `json:"entity_type"`
	PrefabID   string      `json:"prefab_id"`
	Position   GroundPoint `json:"position"`
	Rotation   float64     `json:"rotation"`
	Scale      float64     `json:"scale"`
}

type DeleteEntityCmd struct {
	EntityID string `json:"entity_id"`
}

type MoveEntityCmd struct {
	EntityID string      `json:"entity_id"`
	Position GroundPoint `json:"position"`
}

type ClearAreaCmd struct {
	Center GroundPoint `json:"center"`
	Radius float64     `json:"radius"`
}

type SpawnBatchCmd struct {
	Center     GroundPoint `json:"center"`
	Radius     float64     `json:"radius"`
	Count      int         `json:"count"`
	PrefabIDs  []string    `json:"prefab_ids"`
	EntityType string      `json:"entity_type"`
}

// Command is the decoded tagged union. Exactly one payload pointer is
// non-nil, matching Type; Undo and Redo carry no payload.
type Command struct {
	Type string

	Spawn      *SpawnEntityCmd
	Delete     *DeleteEntityCmd
	Move       *MoveEntityCmd
	ClearArea  *ClearAreaCmd
	SpawnBatch *SpawnBatchCmd
}

// ParseCommand validates an envelope against its schema and decodes the
// payload. Unknown command types and unknown payload fields are rejected.
func ParseCommand(env CommandEnvelope) (Command, error) {
	if !IsCommand(env.Type) {
		return Command{}, fmt.Errorf("%s: unknown command type %q", ErrProtoBadRequest, env.Type)
	}
	if err := ValidateCommandData(env.Type, env.Data); err != nil {
		return Command{}, fmt.Errorf("%s: %w", ErrProtoBadRequest, err)
	}

	cmd := Command{Type: env.Type}
	decode := func(dst interface{}) error {
		if len(env.Data) == 0 {
			return fmt.Errorf("missing data")
		}
		return json.Unmarshal(env.Data, dst)
	}

	var err error
	switch env.Type {
	case CmdSpawnEntity:
		cmd.Spawn = &SpawnEntityCmd{}
		err = decode(cmd.Spawn)
	case CmdDeleteEntity:
		cmd.Delete = &DeleteEntityCmd{}
		err = decode(cmd.Delete)
	case CmdMoveEntity:
		cmd.Move = &MoveEntityCmd{}
		err = decode(cmd.Move)
	case CmdClearArea:
		cmd.ClearArea = &ClearAreaCmd{}
		err = decode(cmd.ClearArea)
	case CmdSpawnBatch:
		cmd.SpawnBatch = &SpawnBatchCmd{}
		err = decode(cmd.SpawnBatch)
	case CmdUndo, CmdRedo:
		// No payload.
	}
	if err != nil {
		return Command{}, fmt.Errorf("%s: decode %s: %w", ErrProtoBadRequest, env.Type, err)
	}
	return cmd, nil
}
