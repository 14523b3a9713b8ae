package graph

import (
	"sort"

	"github.com/paulmach/osm"

	osmparser "drive_router/pkg/osm"
)

// Build creates a CSR Graph from parsed OSM edges.
func Build(result *osmparser.ParseResult) *Graph {
	edges := result.Edges
	if len(edges) == 0 {
		return &Graph{FirstOut: []uint32{0}}
	}

	// Step 1: Compact node indices in order of first appearance.
	nodeSet := make(map[osm.NodeID]uint32)
	var nodeIDs []osm.NodeID

	addNode := func(id osm.NodeID) uint32 {
		if idx, ok := nodeSet[id]; ok {
			return idx
		}
		idx := uint32(len(nodeIDs))
		nodeSet[id] = idx
		nodeIDs = append(nodeIDs, id)
		return idx
	}

	// Highway classes get a small string table.
	highwayIdx := make(map[string]uint16)
	var highways []string
	addHighway := func(hw string) uint16 {
		if idx, ok := highwayIdx[hw]; ok {
			return idx
		}
		idx := uint16(len(highways))
		highwayIdx[hw] = idx
		highways = append(highways, hw)
		return idx
	}

	type compactEdge struct {
		from, to uint32
		length   float64
		maxSpeed float64
		highway  uint16
	}

	compact := make([]compactEdge, len(edges))
	for i, e := range edges {
		compact[i] = compactEdge{
			from:     addNode(e.FromNodeID),
			to:       addNode(e.ToNodeID),
			length:   e.Length,
			maxSpeed: e.MaxSpeed,
			highway:  addHighway(e.Highway),
		}
	}

	// Step 2: Sort by source then target. Stable so parallel edges keep input order.
	sort.SliceStable(compact, func(i, j int) bool {
		if compact[i].from != compact[j].from {
			return compact[i].from < compact[j].from
		}
		return compact[i].to < compact[j].to
	})

	numNodes := uint32(len(nodeIDs))
	numEdges := uint32(len(compact))

	g := &Graph{
		NumNodes:   numNodes,
		NumEdges:   numEdges,
		FirstOut:   make([]uint32, numNodes+1),
		Head:       make([]uint32, numEdges),
		NodeID:     make([]int64, numNodes),
		NodeLat:    make([]float64, numNodes),
		NodeLon:    make([]float64, numNodes),
		Length:     make([]float64, numEdges),
		MaxSpeed:   make([]float64, numEdges),
		HighwayIdx: make([]uint16, numEdges),
		Highways:   highways,
	}

	// Step 3: CSR arrays.
	for i, e := range compact {
		g.Head[i] = e.to
		g.Length[i] = e.length
		g.MaxSpeed[i] = e.maxSpeed
		g.HighwayIdx[i] = e.highway
		g.FirstOut[e.from+1]++
	}
	for i := uint32(1); i <= numNodes; i++ {
		g.FirstOut[i] += g.FirstOut[i-1]
	}

	// Step 4: Node coordinates.
	for idx, id := range nodeIDs {
		g.NodeID[idx] = int64(id)
		g.NodeLat[idx] = result.NodeLat[id]
		g.NodeLon[idx] = result.NodeLon[id]
	}

	return g
}
