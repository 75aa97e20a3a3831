package protocol

import (
	"embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.schema.json
var schemaFS embed.FS

// One schema per command payload. Undo and Redo carry no data and have none.
var schemaFiles = map[string]string{
	CmdSpawnEntity:  "schemas/spawn_entity.schema.json",
	CmdDeleteEntity: "schemas/delete_entity.schema.json",
	CmdMoveEntity:   "schemas/move_entity.schema.json",
	CmdClearArea:    "schemas/clear_area.schema.json",
	CmdSpawnBatch:   "schemas/spawn_batch.schema.json",
}

var commandSchemas = func() map[string]*jsonschema.Schema {
	out := make(map[string]*jsonschema.Schema, len(schemaFiles))
	for typ, path := range schemaFiles {
		raw, err := schemaFS.ReadFile(path)
		if err != nil {
			panic(fmt.Sprintf("protocol: missing embedded schema %s: %v", path, err))
		}
		s, err := jsonschema.CompileString(path, string(raw))
		if err != nil {
			panic(fmt.Sprintf("protocol: compile schema %s: %v", path, err))
		}
		out[typ] = s
	}
	return out
}()

// ValidateCommandData checks a command payload against its schema. Schemas
// set additionalProperties:false so unknown fields fail fast instead of
// silently drifting between client and server versions.
func ValidateCommandData(typ string, data json.RawMessage) error {
	s, ok := commandSchemas[typ]
	if !ok {
		// Undo/Redo: tolerate absent or empty-object data only.
		if len(data) == 0 {
			return nil
		}
		var v interface{}
		if err := json.Unmarshal(data, &v); err != nil {
			return fmt.Errorf("payload not JSON: %w", err)
		}
		if m, isObj := v.(map[string]interface{}); v == nil || (isObj && len(m) == 0) {
			return nil
		}
		return fmt.Errorf("%s takes no payload", typ)
	}
	if len(data) == 0 {
		return fmt.Errorf("%s requires a payload", typ)
	}
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("payload not JSON: %w", err)
	}
	if err := s.Validate(v); err != nil {
		return fmt.Errorf("schema: %w", err)
	}
	return nil
}
