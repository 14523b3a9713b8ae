package osm

import (
	"math"
	"strconv"
	"strings"
)

const (
	kphPerMph  = 1.609344
	kphPerKnot = 1.852
)

// speedUnits maps accepted unit suffixes to their km/h conversion factor.
// Longer suffixes come first so "km/h" is not mistaken for "h".
var speedUnits = []struct {
	suffix string
	factor float64
}{
	{"knots", kphPerKnot},
	{"km/h", 1},
	{"kmh", 1},
	{"kph", 1},
	{"mph", kphPerMph},
}

// ParseMaxSpeed converts an OSM maxspeed tag value to km/h.
// Multiple values ("50;70", "30|50") are averaged. Values without a numeric
// part, such as "DE:urban", "none" or "signals", are ignored. NaN is returned
// when nothing usable remains.
func ParseMaxSpeed(raw string) float64 {
	var sum float64
	var n int
	for _, part := range strings.FieldsFunc(raw, func(r rune) bool { return r == ';' || r == '|' }) {
		if v, ok := parseSpeedValue(part); ok {
			sum += v
			n++
		}
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}

func parseSpeedValue(s string) (float64, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	factor := 1.0
	for _, u := range speedUnits {
		if strings.HasSuffix(s, u.suffix) {
			s = strings.TrimSpace(strings.TrimSuffix(s, u.suffix))
			factor = u.factor
			break
		}
	}
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil || v <= 0 || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false
	}
	return v * factor, true
}
