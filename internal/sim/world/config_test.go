package world

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfig_Defaults(t *testing.T) {
	var cfg WorldConfig
	cfg.applyDefaults()

	if cfg.ID != "world" || cfg.TickRateHz != 20 || cfg.WorldSize != 500 {
		t.Fatalf("core defaults: %+v", cfg)
	}
	if cfg.HistoryCapacity != 100 {
		t.Fatalf("history capacity default: %d", cfg.HistoryCapacity)
	}
	if cfg.EncounterRadius != 2.5 || cfg.RespawnDelaySeconds != 10 || cfg.RespawnRange != 20 {
		t.Fatalf("battle defaults: %+v", cfg)
	}
	if cfg.OctreeCapacity != 8 || cfg.OctreeMaxDepth != 5 || cfg.OctreeMinNode != 5 {
		t.Fatalf("octree defaults: %+v", cfg)
	}
	if cfg.AutosaveEveryTicks != 1200 {
		t.Fatalf("autosave default: %d", cfg.AutosaveEveryTicks)
	}
}

func TestConfig_LoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "world.yaml")
	body := `
id: forest-main
map_path: maps/map_forest.json
tick_rate_hz: 30
world_size: 800
seed: 1234
history_capacity: 50
encounter_radius: 3.5
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ID != "forest-main" || cfg.MapPath != "maps/map_forest.json" {
		t.Fatalf("identity fields: %+v", cfg)
	}
	if cfg.TickRateHz != 30 || cfg.WorldSize != 800 || cfg.Seed != 1234 {
		t.Fatalf("tuning fields: %+v", cfg)
	}
	if cfg.HistoryCapacity != 50 || cfg.EncounterRadius != 3.5 {
		t.Fatalf("override fields: %+v", cfg)
	}
	// Unset keys fall back to defaults.
	if cfg.RespawnDelaySeconds != 10 || cfg.OctreeCapacity != 8 || cfg.AutosaveEveryTicks != 1200 {
		t.Fatalf("default fill: %+v", cfg)
	}
}

func TestConfig_LoadErrors(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("missing file must error")
	}

	path := filepath.Join(t.TempDir(), "world.yaml")
	if err := os.WriteFile(path, []byte("tick_rate_hz: [nope"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("malformed yaml must error")
	}
}
