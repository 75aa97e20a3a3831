package mapfile

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleDoc = `{
  "id": "map_test",
  "name": "Test Map",
  "version": "1.0",
  "settings": {
    "size": 100,
    "skybox": "day",
    "ambientColor": [0.6, 0.7, 0.8],
    "fogDensity": 0.002
  },
  "entities": [
    {"type": "tree", "prefab": "tree_pine", "position": [10, 0, -4.5]},
    {"type": "waypoint", "id": "wp_1", "prefab": "waypoint",
     "position": [0, 0, 0], "properties": {"nextWaypointId": "wp_2", "waitTime": 1.5}},
    {"type": "enemy", "prefab": "slime_green", "position": [5, 0, 5],
     "properties": {"moveSpeed": 2, "aggroRadius": 8, "patrolType": "waypoint", "nextWaypointId": "wp_1"}}
  ]
}`

func TestDecode(t *testing.T) {
	doc, err := Decode([]byte(sampleDoc))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc.Settings.Size != 100 || doc.Settings.Skybox != "day" {
		t.Fatalf("settings mismatch: %+v", doc.Settings)
	}
	if len(doc.Entities) != 3 {
		t.Fatalf("want 3 entities, got %d", len(doc.Entities))
	}
	if doc.Entities[1].Props.NextWaypointID != "wp_2" {
		t.Fatalf("waypoint chain lost: %+v", doc.Entities[1].Props)
	}
	if doc.Entities[2].Props.PatrolType != "waypoint" {
		t.Fatalf("enemy props lost: %+v", doc.Entities[2].Props)
	}
}

func TestDecode_RejectsMissingSections(t *testing.T) {
	if _, err := Decode([]byte(`{"id":"m","entities":[]}`)); err == nil {
		t.Fatalf("missing settings must fail")
	}
	if _, err := Decode([]byte(`{"id":"m","settings":{"size":10}}`)); err == nil {
		t.Fatalf("missing entities must fail")
	}
	if _, err := Decode([]byte(`{"settings":{},"entities":[{"type":"dragon","prefab":"p","position":[0,0,0]}]}`)); err == nil {
		t.Fatalf("unknown entity type must fail")
	}
	if _, err := Decode([]byte(`not json`)); err == nil {
		t.Fatalf("malformed JSON must fail")
	}
}

func TestReadWriteRoundTrip(t *testing.T) {
	doc, err := Decode([]byte(sampleDoc))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	path := filepath.Join(t.TempDir(), "maps", "out.json")
	if err := Write(path, doc); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := Read(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(got.Entities) != len(doc.Entities) {
		t.Fatalf("entity count changed: %d != %d", len(got.Entities), len(doc.Entities))
	}
	if got.Entities[0].Position != doc.Entities[0].Position {
		t.Fatalf("position changed: %v != %v", got.Entities[0].Position, doc.Entities[0].Position)
	}
}

func TestRoundNumbers(t *testing.T) {
	doc := Document{
		Settings: Settings{Size: 100.009, FogDensity: 0.00249, AmbientColor: [3]float64{0.333333, 0.5, 0.5}},
		Entities: []EntityRecord{
			{Type: KindTree, Prefab: "tree_pine", Position: [3]float64{1.23456, 0, -7.891}},
		},
	}
	doc.RoundNumbers()
	if doc.Settings.Size != 100.01 {
		t.Fatalf("size: got %v", doc.Settings.Size)
	}
	if doc.Settings.FogDensity != 0.0025 {
		t.Fatalf("fogDensity keeps four decimals: got %v", doc.Settings.FogDensity)
	}
	if doc.Settings.AmbientColor[0] != 0.33 {
		t.Fatalf("ambientColor: got %v", doc.Settings.AmbientColor[0])
	}
	if p := doc.Entities[0].Position; p[0] != 1.23 || p[2] != -7.89 {
		t.Fatalf("position: got %v", p)
	}
}

func TestWriteArchive_SurfacesWriteErrors(t *testing.T) {
	// /dev/full accepts the open and fails the write with ENOSPC, which only
	// shows up when the compressed stream is flushed.
	if _, err := os.Stat("/dev/full"); err != nil {
		t.Skip("no /dev/full on this platform")
	}
	doc, err := Decode([]byte(sampleDoc))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if err := WriteArchive("/dev/full", doc); err == nil {
		t.Fatalf("write to a full device must report an error")
	}
}

func TestArchiveRoundTrip(t *testing.T) {
	doc, err := Decode([]byte(sampleDoc))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	path := filepath.Join(t.TempDir(), "autosave", "map_test.json.zst")
	if err := WriteArchive(path, doc); err != nil {
		t.Fatalf("write archive: %v", err)
	}
	got, err := ReadArchive(path)
	if err != nil {
		t.Fatalf("read archive: %v", err)
	}
	if got.ID != doc.ID || len(got.Entities) != len(doc.Entities) {
		t.Fatalf("archive round trip mismatch: %+v", got)
	}
}
