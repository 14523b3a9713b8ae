package routing

import (
	"errors"

	"github.com/tidwall/rtree"

	"drive_router/pkg/geo"
	"drive_router/pkg/graph"
)

// ErrEmptyGraph is returned when a lookup runs against a graph without nodes.
var ErrEmptyGraph = errors.New("graph has no nodes")

// NodeIndex answers nearest-node queries with an R-tree over node positions.
type NodeIndex struct {
	tree rtree.RTreeG[uint32]
	g    *graph.Graph
}

// NewNodeIndex indexes every node of g. Points are stored as [lon, lat].
func NewNodeIndex(g *graph.Graph) *NodeIndex {
	idx := &NodeIndex{g: g}
	for u := uint32(0); u < g.NumNodes; u++ {
		p := [2]float64{g.NodeLon[u], g.NodeLat[u]}
		idx.tree.Insert(p, p, u)
	}
	return idx
}

// Len returns the number of indexed nodes.
func (idx *NodeIndex) Len() int {
	return idx.tree.Len()
}

// Nearest returns the node closest to c and its distance in meters. There is
// no bounds check: a coordinate far outside the network still resolves to
// whichever node is closest.
func (idx *NodeIndex) Nearest(c geo.Coordinate) (uint32, float64, error) {
	if idx.tree.Len() == 0 {
		return 0, 0, ErrEmptyGraph
	}

	m := geo.NewLocalMetric(c.Lat)
	best := noNode
	idx.tree.Nearby(
		func(min, max [2]float64, _ uint32, _ bool) float64 {
			return m.BoxDist(c.Lat, c.Lon, min[1], min[0], max[1], max[0])
		},
		func(_, _ [2]float64, node uint32, _ float64) bool {
			best = node
			return false // first item is the nearest
		},
	)

	dist := geo.Haversine(c.Lat, c.Lon, idx.g.NodeLat[best], idx.g.NodeLon[best])
	return best, dist, nil
}
