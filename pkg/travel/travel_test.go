package travel

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drive_router/pkg/graph/graphtest"
)

func TestNewSummary(t *testing.T) {
	tests := []struct {
		name       string
		tt, length float64
		wantTime   string
		wantDist   string
	}{
		{"ten minutes raw", 600, 5000, "13.00", "5.00"},
		{"zero", 0, 0, "0.00", "0.00"},
		{"fractional", 90.2, 2504.7, "1.95", "2.50"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSummary(tt.tt, tt.length)
			assert.Equal(t, tt.wantTime, fmt.Sprintf("%.2f", s.TimeMinutes))
			assert.Equal(t, tt.wantDist, fmt.Sprintf("%.2f", s.DistanceKm))
			assert.Equal(t, tt.tt, s.RawTravelTimeSec)
			assert.Equal(t, tt.length, s.LengthMeters)
		})
	}
}

func TestRouteEdgesPicksFastestParallelEdge(t *testing.T) {
	g := graphtest.Network(t)
	n := graphtest.Node(t, g, graphtest.N)
	ne := graphtest.Node(t, g, graphtest.NE)

	edges, err := RouteEdges(g, []uint32{n, ne})
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, "tertiary", g.Highway(edges[0]))

	start, end := g.EdgesFrom(n)
	for e := start; e < end; e++ {
		if g.Head[e] == ne {
			assert.LessOrEqual(t, g.TravelTime[edges[0]], g.TravelTime[e])
		}
	}
}

func TestEstimateSumsEdges(t *testing.T) {
	g := graphtest.Network(t)
	path := []uint32{
		graphtest.Node(t, g, graphtest.NW),
		graphtest.Node(t, g, graphtest.SW),
		graphtest.Node(t, g, graphtest.SE),
		graphtest.Node(t, g, graphtest.NE),
	}
	edges, err := RouteEdges(g, path)
	require.NoError(t, err)

	var wantTT, wantLen float64
	for _, e := range edges {
		wantTT += g.TravelTime[e]
		wantLen += g.Length[e]
	}

	tt, length, err := Estimate(g, path)
	require.NoError(t, err)
	assert.InDelta(t, wantTT, tt, 1e-9)
	assert.InDelta(t, wantLen, length, 1e-9)
	assert.InDelta(t, 90, tt, 1)
	assert.InDelta(t, 2500, length, 20)

	s, err := Summarize(g, path)
	require.NoError(t, err)
	assert.InDelta(t, tt*1.3/60, s.TimeMinutes, 1e-12)
	assert.InDelta(t, length/1000, s.DistanceKm, 1e-12)
}

func TestEstimateEmptyRoute(t *testing.T) {
	g := graphtest.Network(t)
	for _, path := range [][]uint32{nil, {0}} {
		_, _, err := Estimate(g, path)
		assert.ErrorIs(t, err, ErrEmptyRoute)
	}
	_, err := Summarize(g, nil)
	assert.ErrorIs(t, err, ErrEmptyRoute)
}

func TestRouteEdgesMissingEdge(t *testing.T) {
	g := graphtest.Network(t)
	sink := graphtest.Node(t, g, graphtest.Sink)
	ne := graphtest.Node(t, g, graphtest.NE)

	_, err := RouteEdges(g, []uint32{sink, ne})
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrEmptyRoute)
}

func TestCorrectionFactor(t *testing.T) {
	assert.Equal(t, 1.3, CorrectionFactor)
}
