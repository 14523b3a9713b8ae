package geo

import (
	"math"

	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"
)

// earthRadiusMeters matches the radius orb/geo uses for its haversine.
const earthRadiusMeters = orb.EarthRadius

// degToMeters converts degree-scaled planar distances to meters.
const degToMeters = math.Pi / 180 * earthRadiusMeters

// Haversine returns the great-circle distance in meters between two points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	return orbgeo.DistanceHaversine(orb.Point{lon1, lat1}, orb.Point{lon2, lat2})
}

// LocalMetric is an equirectangular approximation centred on one latitude.
// Distances it returns are comparable with each other, which is all a
// nearest-neighbour search needs; they are not exact beyond a few km.
type LocalMetric struct {
	cosLat float64
}

// NewLocalMetric returns a metric for queries around lat.
func NewLocalMetric(lat float64) LocalMetric {
	return LocalMetric{cosLat: math.Cos(lat * math.Pi / 180)}
}

// Dist returns the approximate distance in meters between two points.
func (m LocalMetric) Dist(lat1, lon1, lat2, lon2 float64) float64 {
	x := (lon2 - lon1) * m.cosLat
	y := lat2 - lat1
	return math.Sqrt(x*x+y*y) * degToMeters
}

// BoxDist returns the distance from (lat, lon) to the closest point of the
// box [minLat,maxLat]x[minLon,maxLon]. It never exceeds Dist to any point
// inside the box, so it can drive a best-first tree search.
func (m LocalMetric) BoxDist(lat, lon, minLat, minLon, maxLat, maxLon float64) float64 {
	cLat := clamp(lat, minLat, maxLat)
	cLon := clamp(lon, minLon, maxLon)
	return m.Dist(lat, lon, cLat, cLon)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Coordinate is a point given as longitude then latitude, the order form
// input uses.
type Coordinate struct {
	Lon float64
	Lat float64
}
