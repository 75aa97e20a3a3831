package world

import "wearcraft.dev/internal/geom"

type waypointNode struct {
	pos      geom.Vec3
	nextID   string
	waitTime float64
}

// WaypointGraph is a functional graph of patrol nodes: each node carries at
// most one outgoing edge. Cycles are the normal shape of a closed route and
// dangling next references are tolerated.
type WaypointGraph struct {
	nodes map[string]waypointNode

	debugGeneration int
}

func NewWaypointGraph() *WaypointGraph {
	return &WaypointGraph{nodes: map[string]waypointNode{}}
}

// Create upserts a node. A second create with the same id overwrites.
func (g *WaypointGraph) Create(id string, pos geom.Vec3, nextID string, waitTime float64) {
	if id == "" {
		return
	}
	if waitTime < 0 {
		waitTime = 0
	}
	g.nodes[id] = waypointNode{pos: pos, nextID: nextID, waitTime: waitTime}
}

func (g *WaypointGraph) Remove(id string) {
	delete(g.nodes, id)
}

func (g *WaypointGraph) Len() int { return len(g.nodes) }

func (g *WaypointGraph) PositionOf(id string) (geom.Vec3, bool) {
	n, ok := g.nodes[id]
	return n.pos, ok
}

func (g *WaypointGraph) NextOf(id string) (string, bool) {
	n, ok := g.nodes[id]
	if !ok {
		return "", false
	}
	return n.nextID, true
}

func (g *WaypointGraph) ConfigOf(id string) (nextID string, waitTime float64, ok bool) {
	n, ok := g.nodes[id]
	if !ok {
		return "", 0, false
	}
	return n.nextID, n.waitTime, true
}

// DebugRefresh marks the visualization stale. Rendering is external; the
// graph only versions itself so a viewer knows when to rebuild. Idempotent
// in effect: repeated calls without edits draw the same picture.
func (g *WaypointGraph) DebugRefresh() {
	g.debugGeneration++
}

func (g *WaypointGraph) Clear() {
	g.nodes = map[string]waypointNode{}
}
