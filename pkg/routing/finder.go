package routing

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"drive_router/pkg/geo"
	"drive_router/pkg/graph"
)

// ErrDegenerateRoute is returned when the path search yields fewer than two
// nodes, e.g. when start and destination snap to the same node.
var ErrDegenerateRoute = errors.New("no valid route: fewer than two nodes")

// Route is a fastest path through the road network.
type Route struct {
	Origin      uint32   // node nearest to the start coordinate
	Destination uint32   // node nearest to the destination coordinate
	Nodes       []uint32 // Nodes[0] == Origin, Nodes[len-1] == Destination
}

// Finder resolves coordinates to nodes and searches the fastest path.
type Finder struct {
	log *zap.Logger
}

// NewFinder creates a Finder. A nil logger disables logging.
func NewFinder(log *zap.Logger) *Finder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Finder{log: log}
}

// Find returns the fastest route between src and dst on g.
func (f *Finder) Find(ctx context.Context, g *graph.Graph, idx *NodeIndex, src, dst geo.Coordinate) (*Route, error) {
	orig, origDist, err := idx.Nearest(src)
	if err != nil {
		return nil, fmt.Errorf("nearest node to source: %w", err)
	}
	dest, destDist, err := idx.Nearest(dst)
	if err != nil {
		return nil, fmt.Errorf("nearest node to destination: %w", err)
	}

	f.log.Debug("resolved nearest nodes",
		zap.Int64("origin_osm_id", g.NodeID[orig]),
		zap.Float64("origin_snap_m", origDist),
		zap.Int64("destination_osm_id", g.NodeID[dest]),
		zap.Float64("destination_snap_m", destDist),
	)

	nodes, err := ShortestPath(ctx, g, orig, dest)
	if err != nil {
		return nil, err
	}
	if len(nodes) < 2 {
		return nil, ErrDegenerateRoute
	}

	return &Route{Origin: orig, Destination: dest, Nodes: nodes}, nil
}
