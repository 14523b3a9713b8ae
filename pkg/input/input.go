// Package input validates the coordinate pairs submitted with a route request.
package input

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"drive_router/pkg/geo"
)

// ErrInvalidInput is wrapped by every validation failure.
var ErrInvalidInput = errors.New("invalid input")

// ParsePair parses a [lon, lat] pair of decimal strings. Surrounding
// whitespace is ignored. Values outside the WGS84 range are rejected;
// anything inside it is accepted even when far from the road network.
func ParsePair(values []string) (geo.Coordinate, error) {
	if len(values) != 2 {
		return geo.Coordinate{}, fmt.Errorf("%w: expected 2 values, got %d", ErrInvalidInput, len(values))
	}
	lon, err := parseFloat(values[0])
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("%w: longitude: %v", ErrInvalidInput, err)
	}
	lat, err := parseFloat(values[1])
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("%w: latitude: %v", ErrInvalidInput, err)
	}
	return checkRange(geo.Coordinate{Lon: lon, Lat: lat})
}

// ValidPair reports whether values form a parseable [lon, lat] pair.
func ValidPair(values []string) bool {
	_, err := ParsePair(values)
	return err == nil
}

// Validate checks a source and destination pair together.
func Validate(source, destination []string) (src, dst geo.Coordinate, err error) {
	if src, err = ParsePair(source); err != nil {
		return src, dst, fmt.Errorf("source: %w", err)
	}
	if dst, err = ParsePair(destination); err != nil {
		return src, dst, fmt.Errorf("destination: %w", err)
	}
	return src, dst, nil
}

// FromFloats checks an already-decoded pair, as sent in JSON bodies.
func FromFloats(values []float64) (geo.Coordinate, error) {
	if len(values) != 2 {
		return geo.Coordinate{}, fmt.Errorf("%w: expected 2 values, got %d", ErrInvalidInput, len(values))
	}
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return geo.Coordinate{}, fmt.Errorf("%w: non-finite value", ErrInvalidInput)
		}
	}
	return checkRange(geo.Coordinate{Lon: values[0], Lat: values[1]})
}

func checkRange(c geo.Coordinate) (geo.Coordinate, error) {
	if c.Lon < -180 || c.Lon > 180 {
		return geo.Coordinate{}, fmt.Errorf("%w: longitude %g out of range", ErrInvalidInput, c.Lon)
	}
	if c.Lat < -90 || c.Lat > 90 {
		return geo.Coordinate{}, fmt.Errorf("%w: latitude %g out of range", ErrInvalidInput, c.Lat)
	}
	return c, nil
}

func parseFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("empty value")
	}
	// Go float syntax also admits hex mantissas; plain decimals only.
	if digits := strings.TrimLeft(s, "+-"); len(digits) > 1 && digits[0] == '0' && (digits[1] == 'x' || digits[1] == 'X') {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%q is not finite", s)
	}
	return v, nil
}
