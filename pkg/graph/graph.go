package graph

import (
	"github.com/paulmach/orb"
)

// Graph is a directed road multigraph in CSR (Compressed Sparse Row) format.
// Parallel edges between the same node pair are allowed.
type Graph struct {
	NumNodes uint32
	NumEdges uint32
	FirstOut []uint32  // len: NumNodes + 1; FirstOut[i]..FirstOut[i+1] are edges from node i
	Head     []uint32  // len: NumEdges; target node for each edge
	NodeID   []int64   // len: NumNodes; OSM node id
	NodeLat  []float64 // len: NumNodes
	NodeLon  []float64 // len: NumNodes

	// Edge attributes, all len NumEdges.
	Length     []float64 // meters
	MaxSpeed   []float64 // km/h parsed from tags, NaN when unknown
	HighwayIdx []uint16  // index into Highways

	// Highway class names referenced by HighwayIdx.
	Highways []string

	// Filled by AddEdgeSpeeds and AddEdgeTravelTimes; nil until then.
	Speed      []float64 // km/h
	TravelTime []float64 // seconds
}

// EdgesFrom returns the range of edge indices for edges originating from node u.
func (g *Graph) EdgesFrom(u uint32) (start, end uint32) {
	return g.FirstOut[u], g.FirstOut[u+1]
}

// Highway returns the highway class of edge e.
func (g *Graph) Highway(e uint32) string {
	return g.Highways[g.HighwayIdx[e]]
}

// Annotated reports whether speeds and travel times have been filled in.
func (g *Graph) Annotated() bool {
	return len(g.TravelTime) == int(g.NumEdges) && len(g.Speed) == int(g.NumEdges)
}

// Point returns node u as an orb point (lon, lat).
func (g *Graph) Point(u uint32) orb.Point {
	return orb.Point{g.NodeLon[u], g.NodeLat[u]}
}

// Bound returns the bounding box of all nodes.
func (g *Graph) Bound() orb.Bound {
	if g.NumNodes == 0 {
		return orb.Bound{}
	}
	b := g.Point(0).Bound()
	for u := uint32(1); u < g.NumNodes; u++ {
		b = b.Extend(g.Point(u))
	}
	return b
}
