package routing

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/paulmach/osm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drive_router/pkg/geo"
	"drive_router/pkg/graph"
	"drive_router/pkg/graph/graphtest"
)

func coordOf(id osm.NodeID) geo.Coordinate {
	c := graphtest.Coords[id]
	return geo.Coordinate{Lon: c[1], Lat: c[0]}
}

func TestNearestMatchesBruteForce(t *testing.T) {
	g := graphtest.Network(t)
	idx := NewNodeIndex(g)
	require.Equal(t, int(g.NumNodes), idx.Len())

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		c := geo.Coordinate{
			Lon: 6.42 + rng.Float64()*0.07,
			Lat: 51.17 + rng.Float64()*0.04,
		}

		bestDist := -1.0
		for u := uint32(0); u < g.NumNodes; u++ {
			d := geo.Haversine(c.Lat, c.Lon, g.NodeLat[u], g.NodeLon[u])
			if bestDist < 0 || d < bestDist {
				bestDist = d
			}
		}

		_, dist, err := idx.Nearest(c)
		require.NoError(t, err)
		assert.InDelta(t, bestDist, dist, 0.5+bestDist*0.002, "query %v", c)
	}
}

func TestNearestFarOutside(t *testing.T) {
	g := graphtest.Network(t)
	idx := NewNodeIndex(g)

	// Far east of the network, so the easternmost node wins.
	node, dist, err := idx.Nearest(geo.Coordinate{Lon: 13.4, Lat: 51.2})
	require.NoError(t, err)
	assert.Equal(t, graphtest.Node(t, g, graphtest.Sink), node)
	assert.Greater(t, dist, 400_000.0)
}

func TestNearestEmptyGraph(t *testing.T) {
	idx := NewNodeIndex(&graph.Graph{FirstOut: []uint32{0}})
	_, _, err := idx.Nearest(geo.Coordinate{Lon: 6.44, Lat: 51.19})
	assert.ErrorIs(t, err, ErrEmptyGraph)
}

func TestShortestPathPrefersFasterRoute(t *testing.T) {
	g := graphtest.Network(t)
	nw := graphtest.Node(t, g, graphtest.NW)
	ne := graphtest.Node(t, g, graphtest.NE)

	path, err := ShortestPath(context.Background(), g, nw, ne)
	require.NoError(t, err)

	want := []uint32{
		nw,
		graphtest.Node(t, g, graphtest.SW),
		graphtest.Node(t, g, graphtest.SE),
		ne,
	}
	assert.Equal(t, want, path)
}

func TestShortestPathUnreachable(t *testing.T) {
	g := graphtest.Network(t)
	sink := graphtest.Node(t, g, graphtest.Sink)
	nw := graphtest.Node(t, g, graphtest.NW)

	_, err := ShortestPath(context.Background(), g, sink, nw)
	assert.ErrorIs(t, err, ErrNoRoute)

	// The opposite direction uses the oneway edge.
	path, err := ShortestPath(context.Background(), g, nw, sink)
	require.NoError(t, err)
	assert.Equal(t, sink, path[len(path)-1])
}

func TestShortestPathSameNode(t *testing.T) {
	g := graphtest.Network(t)
	n := graphtest.Node(t, g, graphtest.N)

	path, err := ShortestPath(context.Background(), g, n, n)
	require.NoError(t, err)
	assert.Equal(t, []uint32{n}, path)
}

func TestShortestPathErrors(t *testing.T) {
	g := graphtest.Network(t)

	_, err := ShortestPath(context.Background(), g, 0, g.NumNodes)
	assert.ErrorIs(t, err, ErrInvalidNode)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = ShortestPath(ctx, g, 0, 1)
	assert.ErrorIs(t, err, context.Canceled)

	bare := graph.Build(graphtest.ParseResult())
	_, err = ShortestPath(context.Background(), bare, 0, 1)
	assert.Error(t, err)
}

func TestFinderFind(t *testing.T) {
	g := graphtest.Network(t)
	idx := NewNodeIndex(g)
	f := NewFinder(nil)

	// Slightly off the exact node positions.
	src := geo.Coordinate{Lon: 6.4401, Lat: 51.1901}
	dst := geo.Coordinate{Lon: 6.4598, Lat: 51.1899}

	route, err := f.Find(context.Background(), g, idx, src, dst)
	require.NoError(t, err)
	assert.Equal(t, graphtest.Node(t, g, graphtest.NW), route.Origin)
	assert.Equal(t, graphtest.Node(t, g, graphtest.NE), route.Destination)
	assert.Len(t, route.Nodes, 4)
	assert.Equal(t, route.Origin, route.Nodes[0])
	assert.Equal(t, route.Destination, route.Nodes[len(route.Nodes)-1])
}

func TestFinderDegenerateRoute(t *testing.T) {
	g := graphtest.Network(t)
	idx := NewNodeIndex(g)
	f := NewFinder(nil)

	c := coordOf(graphtest.N)
	_, err := f.Find(context.Background(), g, idx, c, c)
	assert.ErrorIs(t, err, ErrDegenerateRoute)
}

func TestFinderNoRoute(t *testing.T) {
	g := graphtest.Network(t)
	idx := NewNodeIndex(g)
	f := NewFinder(nil)

	_, err := f.Find(context.Background(), g, idx, coordOf(graphtest.Sink), coordOf(graphtest.SW))
	assert.True(t, errors.Is(err, ErrNoRoute))
}
