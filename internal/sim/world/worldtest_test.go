package world

import (
	"encoding/json"
	"testing"

	"wearcraft.dev/internal/persistence/mapfile"
	"wearcraft.dev/internal/protocol"
)

func newTestWorld(t *testing.T) *World {
	t.Helper()
	w := New(WorldConfig{
		ID:         "test",
		TickRateHz: 20,
		WorldSize:  500,
		Seed:       42,
	})
	if err := w.LoadMap(emptyDoc("map_test")); err != nil {
		t.Fatalf("load empty map: %v", err)
	}
	return w
}

func emptyDoc(id string) mapfile.Document {
	return mapfile.Document{
		ID:       id,
		Name:     id,
		Version:  "1.0",
		Settings: mapfile.Settings{Size: 500, Skybox: "sky_day"},
		Entities: []mapfile.EntityRecord{},
	}
}

// runCommand executes one command synchronously and decodes its
// ACTION_RESULT. The world tick does not advance.
func runCommand(t *testing.T, w *World, typ, data string) protocol.Event {
	t.Helper()
	env := protocol.CommandEnvelope{Type: typ}
	if data != "" {
		env.Data = json.RawMessage(data)
	}
	payload := w.handleCommand(CommandRequest{AgentID: "test-agent", Env: env})
	var ev protocol.Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	return ev
}

func resultOK(ev protocol.Event) bool {
	b, _ := ev["ok"].(bool)
	return b
}

func resultCode(ev protocol.Event) string {
	s, _ := ev["code"].(string)
	return s
}
