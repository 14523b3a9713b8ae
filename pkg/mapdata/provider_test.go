package mapdata

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drive_router/pkg/graph"
)

// overpassXML has a connected drivable part (nodes 1-4) and a separate
// two-node road (nodes 5-6) that the largest-component filter drops.
const overpassXML = `<?xml version="1.0" encoding="UTF-8"?>
<osm version="0.6" generator="Overpass API">
  <node id="1" lat="51.1900" lon="6.4400"/>
  <node id="2" lat="51.1910" lon="6.4400"/>
  <node id="3" lat="51.1920" lon="6.4400"/>
  <node id="4" lat="51.1920" lon="6.4410"/>
  <node id="5" lat="51.2000" lon="6.5000"/>
  <node id="6" lat="51.2010" lon="6.5000"/>
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
    <nd ref="5"/>
    <nd ref="6"/>
    <tag k="highway" v="service"/>
  </way>
</osm>`

type fakeFetcher struct {
	body  string
	err   error
	calls int
}

func (f *fakeFetcher) Fetch(ctx context.Context, place string) (io.ReadCloser, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return io.NopCloser(strings.NewReader(f.body)), nil
}

func TestProviderFetchesOnMissAndReusesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "region.graph")
	fetcher := &fakeFetcher{body: overpassXML}
	p := &Provider{Place: "Testville", GraphPath: path, Fetcher: fetcher, FallbackSpeed: graph.DefaultFallbackSpeed}

	g, err := p.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, fetcher.calls)
	assert.Equal(t, uint32(4), g.NumNodes)
	assert.Equal(t, uint32(5), g.NumEdges)
	assert.True(t, g.Annotated())
	assert.True(t, Exists(path))

	g2, err := p.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, fetcher.calls, "cache file should be reused")
	assert.Equal(t, g.NodeID, g2.NodeID)
	assert.Equal(t, g.TravelTime, g2.TravelTime)
}

func TestProviderSpeedImputation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "region.graph")
	p := &Provider{
		Place:          "Testville",
		GraphPath:      path,
		Fetcher:        &fakeFetcher{body: overpassXML},
		SpeedOverrides: map[string]float64{"primary": 80},
		FallbackSpeed:  graph.DefaultFallbackSpeed,
	}
	g, err := p.Load(context.Background())
	require.NoError(t, err)

	for e := uint32(0); e < g.NumEdges; e++ {
		switch g.Highway(e) {
		case "residential":
			assert.Equal(t, 30.0, g.Speed[e])
		case "primary":
			assert.Equal(t, 80.0, g.Speed[e])
		}
	}
}

func TestProviderFetchError(t *testing.T) {
	fetchErr := errors.New("connection refused")
	p := &Provider{
		Place:     "Testville",
		GraphPath: filepath.Join(t.TempDir(), "region.graph"),
		Fetcher:   &fakeFetcher{err: errors.Join(ErrFetch, fetchErr)},
	}
	_, err := p.Load(context.Background())
	assert.ErrorIs(t, err, ErrFetch)
	assert.False(t, Exists(p.GraphPath))
}

func TestProviderNoRoads(t *testing.T) {
	p := &Provider{
		Place:     "Nowhere",
		GraphPath: filepath.Join(t.TempDir(), "region.graph"),
		Fetcher:   &fakeFetcher{body: `<osm version="0.6"></osm>`},
	}
	_, err := p.Load(context.Background())
	assert.ErrorIs(t, err, ErrFetch)
}

func TestProviderCorruptCacheFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "region.graph")
	require.NoError(t, os.WriteFile(path, []byte("not a graph"), 0o644))

	fetcher := &fakeFetcher{body: overpassXML}
	p := &Provider{Place: "Testville", GraphPath: path, Fetcher: fetcher}
	_, err := p.Load(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 0, fetcher.calls)
}
