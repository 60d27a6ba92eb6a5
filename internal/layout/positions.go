// Package layout keeps node positions stable across graph re-derivations.
// The force simulation itself runs in the rendering frontend; this package
// owns carry-over, seeding of new nodes, persistence, and the named tuning
// profiles the frontend applies after a data swap.
package layout

import (
	"math/rand"

	"github.com/vaultgraph/vaultgraph/internal/graph"
)

// Position is one node's spatial coordinate as last reported by the physics
// simulation (or seeded by CarryOver).
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// PositionMap maps node ids to positions. Absence of an id means the physics
// simulation places the node itself.
type PositionMap map[string]Position

// seedJitter bounds the random offset applied when seeding a new node next
// to a positioned neighbor, so coincident spawns do not stack exactly.
const seedJitter = 1.5

// CarryOver assigns positions to a freshly derived graph:
//
//   - a node present in prev keeps its exact prior position;
//   - a genuinely new node is seeded near its first neighbor (in edge order)
//     that carried a position, plus bounded jitter;
//   - a new node with no carried neighbor gets no entry.
//
// Seeding only ever reads carried positions, so two adjacent new nodes never
// place each other; they fall through to the simulation's default placement.
// The previous map is not modified. jitter may be nil for no jitter.
func CarryOver(prev PositionMap, g *graph.Graph, jitter *rand.Rand) PositionMap {
	out := make(PositionMap, len(g.Nodes))

	carried := make(map[string]bool, len(prev))
	for _, n := range g.Nodes {
		if pos, ok := prev[n.ID]; ok {
			out[n.ID] = pos
			carried[n.ID] = true
		}
	}

	// Adjacency over the new edge set, in edge order, so the "first
	// positioned neighbor" choice is deterministic for a given graph.
	neighbors := make(map[string][]string, len(g.Nodes))
	for _, e := range g.Edges {
		neighbors[e.Source] = append(neighbors[e.Source], e.Target)
		neighbors[e.Target] = append(neighbors[e.Target], e.Source)
	}

	for _, n := range g.Nodes {
		if carried[n.ID] {
			continue
		}
		for _, other := range neighbors[n.ID] {
			if !carried[other] {
				continue
			}
			pos := out[other]
			if jitter != nil {
				pos.X += (jitter.Float64()*2 - 1) * seedJitter
				pos.Y += (jitter.Float64()*2 - 1) * seedJitter
				pos.Z += (jitter.Float64()*2 - 1) * seedJitter
			}
			out[n.ID] = pos
			break
		}
	}

	return out
}
