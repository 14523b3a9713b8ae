// Package graphtest provides a small annotated road network for tests.
package graphtest

import (
	"math"
	"testing"

	"github.com/paulmach/osm"

	"drive_router/pkg/geo"
	"drive_router/pkg/graph"
	osmparser "drive_router/pkg/osm"
)

// OSM node ids of the fixture network.
//
//	1 --res 30-- 2 ==res 30 / tertiary 50== 3 --tertiary 50 (oneway)--> 6
//	|                                       |
//	primary 100                        primary 100
//	|                                       |
//	4 ------------- trunk 100 ------------- 5
//
// The fastest 1 -> 3 route goes around the bottom; the shortest goes along
// the top. Node 6 can be reached but nothing can be reached from it.
const (
	NW   osm.NodeID = 1
	N    osm.NodeID = 2
	NE   osm.NodeID = 3
	SW   osm.NodeID = 4
	SE   osm.NodeID = 5
	Sink osm.NodeID = 6
)

// Coords of the fixture nodes as (lat, lon).
var Coords = map[osm.NodeID][2]float64{
	NW:   {51.190, 6.440},
	N:    {51.190, 6.450},
	NE:   {51.190, 6.460},
	SW:   {51.185, 6.440},
	SE:   {51.185, 6.460},
	Sink: {51.200, 6.470},
}

type way struct {
	id       osm.WayID
	nodes    []osm.NodeID
	highway  string
	maxSpeed float64
	oneway   bool
}

var ways = []way{
	{id: 10, nodes: []osm.NodeID{NW, N, NE}, highway: "residential", maxSpeed: 30},
	{id: 11, nodes: []osm.NodeID{N, NE}, highway: "tertiary", maxSpeed: 50},
	{id: 12, nodes: []osm.NodeID{NW, SW}, highway: "primary", maxSpeed: 100},
	{id: 13, nodes: []osm.NodeID{SW, SE}, highway: "trunk", maxSpeed: 100},
	{id: 14, nodes: []osm.NodeID{SE, NE}, highway: "primary", maxSpeed: 100},
	{id: 15, nodes: []osm.NodeID{NE, Sink}, highway: "tertiary", maxSpeed: math.NaN(), oneway: true},
}

// ParseResult returns the fixture as parser output.
func ParseResult() *osmparser.ParseResult {
	res := &osmparser.ParseResult{
		NodeLat: make(map[osm.NodeID]float64),
		NodeLon: make(map[osm.NodeID]float64),
	}
	for id, c := range Coords {
		res.NodeLat[id] = c[0]
		res.NodeLon[id] = c[1]
	}
	for _, w := range ways {
		for i := 0; i+1 < len(w.nodes); i++ {
			a, b := w.nodes[i], w.nodes[i+1]
			length := geo.Haversine(Coords[a][0], Coords[a][1], Coords[b][0], Coords[b][1])
			e := osmparser.RawEdge{WayID: w.id, FromNodeID: a, ToNodeID: b, Length: length, Highway: w.highway, MaxSpeed: w.maxSpeed}
			res.Edges = append(res.Edges, e)
			if !w.oneway {
				e.FromNodeID, e.ToNodeID = b, a
				res.Edges = append(res.Edges, e)
			}
		}
	}
	return res
}

// Network returns the fixture built and annotated with speeds and travel times.
func Network(t testing.TB) *graph.Graph {
	t.Helper()
	g := graph.Build(ParseResult())
	if err := graph.Annotate(g, nil, graph.DefaultFallbackSpeed); err != nil {
		t.Fatalf("annotate fixture: %v", err)
	}
	return g
}

// Node returns the graph index of an OSM node id in g.
func Node(t testing.TB, g *graph.Graph, id osm.NodeID) uint32 {
	t.Helper()
	for u, nid := range g.NodeID {
		if nid == int64(id) {
			return uint32(u)
		}
	}
	t.Fatalf("node %d not in graph", id)
	return 0
}
