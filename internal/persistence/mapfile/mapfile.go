// Package mapfile defines the serialized map document: the value snapshot of
// an authored world. Documents are plain JSON (see maps/ for samples) with
// numeric fields written at two-decimal precision.
package mapfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"wearcraft.dev/internal/geom"
)

// Entity kinds a document may carry. Anything else is rejected on load.
const (
	KindTree      = "tree"
	KindStructure = "structure"
	KindEnemy     = "enemy"
	KindWaypoint  = "waypoint"
)

func IsKind(s string) bool {
	switch s {
	case KindTree, KindStructure, KindEnemy, KindWaypoint:
		return true
	}
	return false
}

type Document struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Version  string         `json:"version"`
	Settings Settings       `json:"settings"`
	Entities []EntityRecord `json:"entities"`
}

type Settings struct {
	Size         float64    `json:"size"`
	Skybox       string     `json:"skybox"`
	AmbientColor [3]float64 `json:"ambientColor"`
	FogDensity   float64    `json:"fogDensity"`

	FogColor     *[3]float64 `json:"fogColor,omitempty"`
	SunIntensity *float64    `json:"sunIntensity,omitempty"`
	SunDirection *[3]float64 `json:"sunDirection,omitempty"`
}

type EntityRecord struct {
	Type     string      `json:"type"`
	ID       string      `json:"id,omitempty"`
	Prefab   string      `json:"prefab"`
	Position [3]float64  `json:"position"`
	Rotation *[3]float64 `json:"rotation,omitempty"`
	Scale    *[3]float64 `json:"scale,omitempty"`
	Props    *Properties `json:"properties,omitempty"`
}

// Properties carries kind-specific metadata. Zero values are omitted so a
// tree record stays a three-liner.
type Properties struct {
	// enemy
	MoveSpeed    float64 `json:"moveSpeed,omitempty"`
	ChaseSpeed   float64 `json:"chaseSpeed,omitempty"`
	PatrolRadius float64 `json:"patrolRadius,omitempty"`
	AggroRadius  float64 `json:"aggroRadius,omitempty"`
	AttackRange  float64 `json:"attackRange,omitempty"`
	LeashRadius  float64 `json:"leashRadius,omitempty"`
	IdleTime     float64 `json:"idleTime,omitempty"`
	PatrolType   string  `json:"patrolType,omitempty"`

	// enemy (waypoint patrol) and waypoint
	NextWaypointID string  `json:"nextWaypointId,omitempty"`
	WaitTime       float64 `json:"waitTime,omitempty"`
}

// Decode parses and structurally validates a document. A malformed root or
// a missing settings/entities section rejects the whole document; the world
// stays untouched (no partial loads).
func Decode(b []byte) (Document, error) {
	var probe struct {
		ID       string          `json:"id"`
		Name     string          `json:"name"`
		Version  string          `json:"version"`
		Settings *Settings       `json:"settings"`
		Entities *[]EntityRecord `json:"entities"`
	}
	if err := json.Unmarshal(b, &probe); err != nil {
		return Document{}, fmt.Errorf("parse map document: %w", err)
	}
	if probe.Settings == nil {
		return Document{}, fmt.Errorf("map document missing settings")
	}
	if probe.Entities == nil {
		return Document{}, fmt.Errorf("map document missing entities")
	}
	doc := Document{
		ID:       probe.ID,
		Name:     probe.Name,
		Version:  probe.Version,
		Settings: *probe.Settings,
		Entities: *probe.Entities,
	}
	for i := range doc.Entities {
		if !IsKind(doc.Entities[i].Type) {
			return Document{}, fmt.Errorf("entity %d: unknown type %q", i, doc.Entities[i].Type)
		}
	}
	return doc, nil
}

func Read(path string) (Document, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("read %s: %w", path, err)
	}
	doc, err := Decode(b)
	if err != nil {
		return Document{}, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

func Write(path string, doc Document) error {
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode map document: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	return os.Rename(tmp, path)
}

// RoundNumbers clamps every serialized numeric field to two decimals, in
// place. Export paths call this before writing.
func (d *Document) RoundNumbers() {
	d.Settings.Size = geom.Round2(d.Settings.Size)
	d.Settings.FogDensity = roundFog(d.Settings.FogDensity)
	for i := range d.Settings.AmbientColor {
		d.Settings.AmbientColor[i] = geom.Round2(d.Settings.AmbientColor[i])
	}
	if d.Settings.FogColor != nil {
		for i := range d.Settings.FogColor {
			d.Settings.FogColor[i] = geom.Round2(d.Settings.FogColor[i])
		}
	}
	if d.Settings.SunIntensity != nil {
		*d.Settings.SunIntensity = geom.Round2(*d.Settings.SunIntensity)
	}
	if d.Settings.SunDirection != nil {
		for i := range d.Settings.SunDirection {
			d.Settings.SunDirection[i] = geom.Round2(d.Settings.SunDirection[i])
		}
	}
	for i := range d.Entities {
		e := &d.Entities[i]
		for j := range e.Position {
			e.Position[j] = geom.Round2(e.Position[j])
		}
		if e.Rotation != nil {
			for j := range e.Rotation {
				e.Rotation[j] = geom.Round2(e.Rotation[j])
			}
		}
		if e.Scale != nil {
			for j := range e.Scale {
				e.Scale[j] = geom.Round2(e.Scale[j])
			}
		}
		if e.Props != nil {
			e.Props.MoveSpeed = geom.Round2(e.Props.MoveSpeed)
			e.Props.ChaseSpeed = geom.Round2(e.Props.ChaseSpeed)
			e.Props.PatrolRadius = geom.Round2(e.Props.PatrolRadius)
			e.Props.AggroRadius = geom.Round2(e.Props.AggroRadius)
			e.Props.AttackRange = geom.Round2(e.Props.AttackRange)
			e.Props.LeashRadius = geom.Round2(e.Props.LeashRadius)
			e.Props.IdleTime = geom.Round2(e.Props.IdleTime)
			e.Props.WaitTime = geom.Round2(e.Props.WaitTime)
		}
	}
}

// Fog density is legitimately sub-0.01 (e.g. 0.002); keep four decimals
// there instead of flattening it to zero.
func roundFog(v float64) float64 {
	return float64(int64(v*10000+0.5)) / 10000
}
