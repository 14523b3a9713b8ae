// Package travel turns a node path into travel time and distance figures.
package travel

import (
	"errors"
	"math"

	"drive_router/pkg/graph"
)

// CorrectionFactor scales the raw edge travel time to account for
// intersections, traffic and acceleration that edge speeds ignore.
const CorrectionFactor = 1.3

// ErrEmptyRoute is returned when a path has no edges to sum over.
var ErrEmptyRoute = errors.New("route has no edges")

// Summary holds the figures reported for a route.
type Summary struct {
	RawTravelTimeSec float64 // sum of edge travel times, uncorrected
	LengthMeters     float64
	TimeMinutes      float64 // RawTravelTimeSec * CorrectionFactor / 60
	DistanceKm       float64 // LengthMeters / 1000
}

// RouteEdges returns the edge used for each consecutive node pair of path.
// Where parallel edges connect a pair, the one with the lowest travel time
// is used. g must be annotated.
func RouteEdges(g *graph.Graph, path []uint32) ([]uint32, error) {
	if len(path) < 2 {
		return nil, ErrEmptyRoute
	}
	edges := make([]uint32, 0, len(path)-1)
	for i := 0; i+1 < len(path); i++ {
		u, v := path[i], path[i+1]
		best, bestTT := uint32(0), math.Inf(1)
		start, end := g.EdgesFrom(u)
		for e := start; e < end; e++ {
			if g.Head[e] == v && g.TravelTime[e] < bestTT {
				best, bestTT = e, g.TravelTime[e]
			}
		}
		if math.IsInf(bestTT, 1) {
			return nil, errors.New("path uses a node pair with no edge")
		}
		edges = append(edges, best)
	}
	return edges, nil
}

// Estimate sums travel time (seconds) and length (meters) along path.
func Estimate(g *graph.Graph, path []uint32) (travelTimeSec, lengthMeters float64, err error) {
	edges, err := RouteEdges(g, path)
	if err != nil {
		return 0, 0, err
	}
	for _, e := range edges {
		travelTimeSec += g.TravelTime[e]
		lengthMeters += g.Length[e]
	}
	return travelTimeSec, lengthMeters, nil
}

// Summarize computes the corrected travel time in minutes and the distance in
// km for path.
func Summarize(g *graph.Graph, path []uint32) (Summary, error) {
	tt, length, err := Estimate(g, path)
	if err != nil {
		return Summary{}, err
	}
	return NewSummary(tt, length), nil
}

// NewSummary derives the reported figures from raw sums.
func NewSummary(travelTimeSec, lengthMeters float64) Summary {
	return Summary{
		RawTravelTimeSec: travelTimeSec,
		LengthMeters:     lengthMeters,
		TimeMinutes:      travelTimeSec * CorrectionFactor / 60,
		DistanceKm:       lengthMeters / 1000,
	}
}
