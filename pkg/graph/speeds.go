package graph

import (
	"errors"
	"math"
)

// DefaultFallbackSpeed is used when no edge in the graph carries a maxspeed
// and no override covers an edge's highway class.
const DefaultFallbackSpeed = 50.0

// ErrNoSpeedData is returned when an edge speed cannot be imputed.
var ErrNoSpeedData = errors.New("no speed data to impute edge speeds from")

// AddEdgeSpeeds fills g.Speed (km/h). An edge keeps its own maxspeed when it
// has one. Otherwise, in order: the override for its highway class, the mean
// known maxspeed of its highway class, the mean known maxspeed of the whole
// graph, and finally fallback. Imputed values are rounded to 0.1 km/h.
func AddEdgeSpeeds(g *Graph, overrides map[string]float64, fallback float64) error {
	nh := len(g.Highways)
	sum := make([]float64, nh)
	cnt := make([]int, nh)
	var allSum float64
	var allCnt int

	for e := uint32(0); e < g.NumEdges; e++ {
		s := g.MaxSpeed[e]
		if math.IsNaN(s) {
			continue
		}
		h := g.HighwayIdx[e]
		sum[h] += s
		cnt[h]++
		allSum += s
		allCnt++
	}

	imputed := make([]float64, nh)
	for h, name := range g.Highways {
		switch {
		case overrides[name] > 0:
			imputed[h] = overrides[name]
		case cnt[h] > 0:
			imputed[h] = sum[h] / float64(cnt[h])
		case allCnt > 0:
			imputed[h] = allSum / float64(allCnt)
		case fallback > 0:
			imputed[h] = fallback
		default:
			imputed[h] = math.NaN()
		}
		imputed[h] = round1(imputed[h])
	}

	speed := make([]float64, g.NumEdges)
	for e := uint32(0); e < g.NumEdges; e++ {
		if s := g.MaxSpeed[e]; !math.IsNaN(s) {
			speed[e] = s
			continue
		}
		s := imputed[g.HighwayIdx[e]]
		if math.IsNaN(s) {
			return ErrNoSpeedData
		}
		speed[e] = s
	}

	g.Speed = speed
	return nil
}

// AddEdgeTravelTimes fills g.TravelTime (seconds) from Length and Speed,
// rounded to 0.1 s. AddEdgeSpeeds must run first.
func AddEdgeTravelTimes(g *Graph) error {
	if len(g.Speed) != int(g.NumEdges) {
		return errors.New("edge speeds missing")
	}
	tt := make([]float64, g.NumEdges)
	for e := uint32(0); e < g.NumEdges; e++ {
		mps := g.Speed[e] * 1000 / 3600
		tt[e] = round1(g.Length[e] / mps)
	}
	g.TravelTime = tt
	return nil
}

// Annotate runs AddEdgeSpeeds followed by AddEdgeTravelTimes.
func Annotate(g *Graph, overrides map[string]float64, fallback float64) error {
	if err := AddEdgeSpeeds(g, overrides, fallback); err != nil {
		return err
	}
	return AddEdgeTravelTimes(g)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
