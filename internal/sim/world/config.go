package world

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type WorldConfig struct {
	ID         string
	MapPath    string
	TickRateHz int
	WorldSize  float64
	Seed       int64

	HistoryCapacity int

	EncounterRadius     float64
	RespawnDelaySeconds float64
	RespawnRange        float64

	// Octree shape. Changing these invalidates nothing on disk; the index is
	// rebuilt on every load.
	OctreeCapacity int
	OctreeMaxDepth int
	OctreeMinNode  float64

	AutosaveEveryTicks int
}

func (c *WorldConfig) applyDefaults() {
	if c.ID == "" {
		c.ID = "world"
	}
	if c.TickRateHz <= 0 {
		c.TickRateHz = 20
	}
	if c.WorldSize <= 0 {
		c.WorldSize = 500
	}
	if c.HistoryCapacity <= 0 {
		c.HistoryCapacity = 100
	}
	if c.EncounterRadius <= 0 {
		c.EncounterRadius = 2.5
	}
	if c.RespawnDelaySeconds <= 0 {
		c.RespawnDelaySeconds = 10
	}
	if c.RespawnRange <= 0 {
		c.RespawnRange = 20
	}
	if c.OctreeCapacity <= 0 {
		c.OctreeCapacity = 8
	}
	if c.OctreeMaxDepth <= 0 {
		c.OctreeMaxDepth = 5
	}
	if c.OctreeMinNode <= 0 {
		c.OctreeMinNode = 5
	}
	if c.AutosaveEveryTicks <= 0 {
		c.AutosaveEveryTicks = 1200
	}
}

type tuningFile struct {
	ID         string  `yaml:"id"`
	MapPath    string  `yaml:"map_path"`
	TickRateHz int     `yaml:"tick_rate_hz"`
	WorldSize  float64 `yaml:"world_size"`
	Seed       int64   `yaml:"seed"`

	HistoryCapacity int `yaml:"history_capacity"`

	EncounterRadius     float64 `yaml:"encounter_radius"`
	RespawnDelaySeconds float64 `yaml:"respawn_delay_seconds"`
	RespawnRange        float64 `yaml:"respawn_range"`

	OctreeCapacity int     `yaml:"octree_capacity"`
	OctreeMaxDepth int     `yaml:"octree_max_depth"`
	OctreeMinNode  float64 `yaml:"octree_min_node"`

	AutosaveEveryTicks int `yaml:"autosave_every_ticks"`
}

// LoadConfig reads tuning from YAML and fills unset values with defaults.
func LoadConfig(path string) (WorldConfig, error) {
	var cfg WorldConfig
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	var t tuningFile
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return cfg, fmt.Errorf("world.yaml: %w", err)
	}
	cfg = WorldConfig{
		ID:                  t.ID,
		MapPath:             t.MapPath,
		TickRateHz:          t.TickRateHz,
		WorldSize:           t.WorldSize,
		Seed:                t.Seed,
		HistoryCapacity:     t.HistoryCapacity,
		EncounterRadius:     t.EncounterRadius,
		RespawnDelaySeconds: t.RespawnDelaySeconds,
		RespawnRange:        t.RespawnRange,
		OctreeCapacity:      t.OctreeCapacity,
		OctreeMaxDepth:      t.OctreeMaxDepth,
		OctreeMinNode:       t.OctreeMinNode,
		AutosaveEveryTicks:  t.AutosaveEveryTicks,
	}
	cfg.applyDefaults()
	return cfg, nil
}
