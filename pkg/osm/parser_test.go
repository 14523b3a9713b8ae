package osm

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/paulmach/osm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsDrivable(t *testing.T) {
	tests := []struct {
		name string
		tags osm.Tags
		want bool
	}{
		{
			name: "residential road",
			tags: osm.Tags{{Key: "highway", Value: "residential"}},
			want: true,
		},
		{
			name: "motorway",
			tags: osm.Tags{{Key: "highway", Value: "motorway"}},
			want: true,
		},
		{
			name: "unknown road class",
			tags: osm.Tags{{Key: "highway", Value: "road"}},
			want: true,
		},
		{
			name: "footway",
			tags: osm.Tags{{Key: "highway", Value: "footway"}},
			want: false,
		},
		{
			name: "plain service road",
			tags: osm.Tags{{Key: "highway", Value: "service"}},
			want: true,
		},
		{
			name: "driveway",
			tags: osm.Tags{
				{Key: "highway", Value: "service"},
				{Key: "service", Value: "driveway"},
			},
			want: false,
		},
		{
			name: "private access",
			tags: osm.Tags{
				{Key: "highway", Value: "residential"},
				{Key: "access", Value: "private"},
			},
			want: false,
		},
		{
			name: "motorcar=no",
			tags: osm.Tags{
				{Key: "highway", Value: "residential"},
				{Key: "motorcar", Value: "no"},
			},
			want: false,
		},
		{
			name: "motor_vehicle=no",
			tags: osm.Tags{
				{Key: "highway", Value: "tertiary"},
				{Key: "motor_vehicle", Value: "no"},
			},
			want: false,
		},
		{
			name: "parking aisle",
			tags: osm.Tags{
				{Key: "highway", Value: "unclassified"},
				{Key: "service", Value: "parking_aisle"},
			},
			want: false,
		},
		{
			name: "area=yes",
			tags: osm.Tags{
				{Key: "highway", Value: "living_street"},
				{Key: "area", Value: "yes"},
			},
			want: false,
		},
		{
			name: "no highway tag",
			tags: osm.Tags{{Key: "name", Value: "Bismarckstraße"}},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isDrivable(tt.tags))
		})
	}
}

func TestDirectionFlags(t *testing.T) {
	tests := []struct {
		name         string
		tags         osm.Tags
		wantForward  bool
		wantBackward bool
	}{
		{"default bidirectional", osm.Tags{{Key: "highway", Value: "residential"}}, true, true},
		{"motorway implied oneway", osm.Tags{{Key: "highway", Value: "motorway"}}, true, false},
		{"roundabout implied oneway", osm.Tags{
			{Key: "highway", Value: "residential"},
			{Key: "junction", Value: "roundabout"},
		}, true, false},
		{"oneway=yes", osm.Tags{{Key: "highway", Value: "primary"}, {Key: "oneway", Value: "yes"}}, true, false},
		{"oneway=-1", osm.Tags{{Key: "highway", Value: "primary"}, {Key: "oneway", Value: "-1"}}, false, true},
		{"oneway=no overrides implied", osm.Tags{{Key: "highway", Value: "motorway"}, {Key: "oneway", Value: "no"}}, true, true},
		{"oneway=reversible", osm.Tags{{Key: "highway", Value: "primary"}, {Key: "oneway", Value: "reversible"}}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fwd, bwd := directionFlags(tt.tags)
			assert.Equal(t, tt.wantForward, fwd, "forward")
			assert.Equal(t, tt.wantBackward, bwd, "backward")
		})
	}
}

func TestParseMaxSpeed(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
	}{
		{"50", 50},
		{"50 km/h", 50},
		{"70kmh", 70},
		{"30 mph", 30 * kphPerMph},
		{"10 knots", 10 * kphPerKnot},
		{"50;70", 60},
		{"30|50", 40},
		{"7,5", 7.5},
		{"DE:urban;50", 50},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.InDelta(t, tt.want, ParseMaxSpeed(tt.raw), 1e-9)
		})
	}

	for _, raw := range []string{"", "DE:urban", "none", "signals", "walk", "-10", "0"} {
		t.Run("unusable "+raw, func(t *testing.T) {
			assert.True(t, math.IsNaN(ParseMaxSpeed(raw)))
		})
	}
}

const overpassSample = `<?xml version="1.0" encoding="UTF-8"?>
<osm version="0.6" generator="Overpass API">
  <node id="1" lat="51.1900" lon="6.4400"/>
  <node id="2" lat="51.1910" lon="6.4400"/>
  <node id="3" lat="51.1920" lon="6.4400"/>
  <node id="4" lat="51.1920" lon="6.4410"/>
  <way id="100">
    <nd ref="1"/>
    <nd ref="2"/>
    <nd ref="3"/>
    <tag k="highway" v="residential"/>
    <tag k="maxspeed" v="30"/>
  </way>
  <way id="200">
    <nd ref="3"/>
    <nd ref="4"/>
    <tag k="highway" v="primary"/>
    <tag k="oneway" v="yes"/>
  </way>
  <way id="300">
    <nd ref="2"/>
    <nd ref="4"/>
    <tag k="highway" v="footway"/>
  </way>
</osm>`

func TestParseXML(t *testing.T) {
	result, err := ParseXML(context.Background(), strings.NewReader(overpassSample), ParseOptions{})
	require.NoError(t, err)

	// Way 100 is two-way over two segments, way 200 is oneway, the footway is dropped.
	require.Len(t, result.Edges, 5)
	assert.Len(t, result.NodeLat, 4)

	var oneway []RawEdge
	for _, e := range result.Edges {
		if e.WayID == 200 {
			oneway = append(oneway, e)
		}
		require.NotEqual(t, osm.WayID(300), e.WayID, "footway edge kept")
	}
	require.Len(t, oneway, 1)
	assert.Equal(t, osm.NodeID(3), oneway[0].FromNodeID)
	assert.Equal(t, osm.NodeID(4), oneway[0].ToNodeID)
	assert.Equal(t, "primary", oneway[0].Highway)
	assert.True(t, math.IsNaN(oneway[0].MaxSpeed))

	first := result.Edges[0]
	assert.Equal(t, osm.WayID(100), first.WayID)
	assert.InDelta(t, 30, first.MaxSpeed, 1e-9)
	// 0.001 degrees of latitude is roughly 111 m.
	assert.InDelta(t, 111.3, first.Length, 1.0)
}

func TestParseXMLBBox(t *testing.T) {
	opts := ParseOptions{BBox: BBox{MinLat: 51.18, MaxLat: 51.1915, MinLng: 6.43, MaxLng: 6.45}}
	result, err := ParseXML(context.Background(), strings.NewReader(overpassSample), opts)
	require.NoError(t, err)

	// Only 1<->2 lies entirely inside the box.
	assert.Len(t, result.Edges, 2)
	assert.Len(t, result.NodeLat, 2)
}
