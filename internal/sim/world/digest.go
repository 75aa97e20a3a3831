package world

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// stateDigest is a deterministic fingerprint of the authored world: every
// entity's identity, transform (two-decimal, matching the map format) and
// AI state, sorted by id. Equal digests across two runs with the same seed
// and input stream mean the runs did not diverge.
func (w *World) stateDigest(nowTick uint64) string {
	ents := w.store.All()
	lines := make([]string, 0, len(ents)+1)
	lines = append(lines, fmt.Sprintf("tick=%d battle=%t", nowTick, w.arbiter.BattleActive()))
	for _, e := range ents {
		state := ""
		if ctrl := w.controllers[e.ID]; ctrl != nil {
			state = string(ctrl.State())
		}
		lines = append(lines, fmt.Sprintf(
			"%s|%s|%s|%.2f,%.2f,%.2f|%.2f,%.2f,%.2f|%.2f,%.2f,%.2f|%s",
			e.ID, e.Kind, e.Prefab,
			e.Position.X, e.Position.Y, e.Position.Z,
			e.Rotation.X, e.Rotation.Y, e.Rotation.Z,
			e.Scale.X, e.Scale.Y, e.Scale.Z,
			state,
		))
	}
	sort.Strings(lines[1:])
	sum := sha256.Sum256([]byte(strings.Join(lines, "\n")))
	return hex.EncodeToString(sum[:])
}
