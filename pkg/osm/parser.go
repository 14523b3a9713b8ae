package osm

import (
	"context"
	"fmt"
	"io"
	"math"

	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"github.com/paulmach/osm/osmxml"
	"go.uber.org/zap"

	"drive_router/pkg/geo"
)

// RawEdge represents a directed road segment between two consecutive way nodes.
type RawEdge struct {
	WayID      osm.WayID
	FromNodeID osm.NodeID
	ToNodeID   osm.NodeID
	Length     float64 // meters
	Highway    string
	MaxSpeed   float64 // km/h, NaN when the way has no usable maxspeed tag
}

// ParseResult holds the drivable edges and the coordinates of their endpoints.
type ParseResult struct {
	Edges   []RawEdge
	NodeLat map[osm.NodeID]float64
	NodeLon map[osm.NodeID]float64
}

// driveHighways lists highway tag values that make up the drive network.
var driveHighways = map[string]bool{
	"motorway":       true,
	"motorway_link":  true,
	"trunk":          true,
	"trunk_link":     true,
	"primary":        true,
	"primary_link":   true,
	"secondary":      true,
	"secondary_link": true,
	"tertiary":       true,
	"tertiary_link":  true,
	"unclassified":   true,
	"residential":    true,
	"living_street":  true,
	"road":           true,
	"service":        true,
}

// excludedService lists service=* values that are never routed through.
var excludedService = map[string]bool{
	"alley":            true,
	"driveway":         true,
	"emergency_access": true,
	"parking":          true,
	"parking_aisle":    true,
	"private":          true,
}

// isDrivable returns true if the way belongs to the drive network.
func isDrivable(tags osm.Tags) bool {
	if !driveHighways[tags.Find("highway")] {
		return false
	}
	if tags.Find("area") == "yes" {
		return false
	}
	access := tags.Find("access")
	if access == "no" || access == "private" {
		return false
	}
	if tags.Find("motor_vehicle") == "no" || tags.Find("motorcar") == "no" {
		return false
	}
	if excludedService[tags.Find("service")] {
		return false
	}
	return true
}

// directionFlags returns (forward, backward) based on highway type and oneway tags.
func directionFlags(tags osm.Tags) (forward, backward bool) {
	forward = true
	backward = true

	hw := tags.Find("highway")

	// Implied oneway for motorways and roundabouts.
	if hw == "motorway" || hw == "motorway_link" || tags.Find("junction") == "roundabout" {
		backward = false
	}

	switch tags.Find("oneway") {
	case "yes", "true", "1":
		forward = true
		backward = false
	case "-1", "reverse":
		forward = false
		backward = true
	case "no":
		forward = true
		backward = true
	case "reversible":
		// Time-dependent, skip entirely.
		forward = false
		backward = false
	}

	return forward, backward
}

// wayInfo holds the parts of a drivable way needed to emit edges.
type wayInfo struct {
	ID       osm.WayID
	NodeIDs  []osm.NodeID
	Highway  string
	MaxSpeed float64
	Forward  bool
	Backward bool
}

// newWayInfo returns the way's routing data, or false if it is not routable.
func newWayInfo(w *osm.Way) (wayInfo, bool) {
	if len(w.Nodes) < 2 || !isDrivable(w.Tags) {
		return wayInfo{}, false
	}
	fwd, bwd := directionFlags(w.Tags)
	if !fwd && !bwd {
		return wayInfo{}, false
	}
	return wayInfo{
		ID:       w.ID,
		NodeIDs:  w.Nodes.NodeIDs(),
		Highway:  w.Tags.Find("highway"),
		MaxSpeed: ParseMaxSpeed(w.Tags.Find("maxspeed")),
		Forward:  fwd,
		Backward: bwd,
	}, true
}

// BBox defines a geographic bounding box for filtering.
// If non-zero, only edges with both endpoints inside the box are kept.
type BBox struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
}

// IsZero returns true if the bbox is unset.
func (b BBox) IsZero() bool {
	return b.MinLat == 0 && b.MaxLat == 0 && b.MinLng == 0 && b.MaxLng == 0
}

// Contains returns true if the point is inside the bounding box.
func (b BBox) Contains(lat, lng float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lng >= b.MinLng && lng <= b.MaxLng
}

// ParseOptions configures the OSM parser.
type ParseOptions struct {
	BBox   BBox        // if non-zero, filter edges to this bounding box
	Logger *zap.Logger // nil means no progress logging
}

func (o ParseOptions) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// Parse reads an OSM PBF extract and returns directed edges of the drive network.
// The reader is consumed twice (seeks back to start for the second pass),
// so it must implement io.ReadSeeker.
func Parse(ctx context.Context, rs io.ReadSeeker, opt ParseOptions) (*ParseResult, error) {
	log := opt.logger()

	// Pass 1: ways, and the set of node IDs they reference.
	referenced := make(map[osm.NodeID]struct{})
	var ways []wayInfo

	scanner := osmpbf.New(ctx, rs, 1)
	scanner.SkipNodes = true
	scanner.SkipRelations = true

	for scanner.Scan() {
		w, ok := scanner.Object().(*osm.Way)
		if !ok {
			continue
		}
		info, ok := newWayInfo(w)
		if !ok {
			continue
		}
		for _, id := range info.NodeIDs {
			referenced[id] = struct{}{}
		}
		ways = append(ways, info)
	}
	if err := scanner.Err(); err != nil {
		scanner.Close()
		return nil, fmt.Errorf("pass 1 (ways): %w", err)
	}
	scanner.Close()

	log.Info("pbf pass 1 complete", zap.Int("ways", len(ways)), zap.Int("referenced_nodes", len(referenced)))

	// Pass 2: coordinates for referenced nodes only.
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek for pass 2: %w", err)
	}

	nodeLat := make(map[osm.NodeID]float64, len(referenced))
	nodeLon := make(map[osm.NodeID]float64, len(referenced))

	scanner = osmpbf.New(ctx, rs, 1)
	scanner.SkipWays = true
	scanner.SkipRelations = true

	for scanner.Scan() {
		n, ok := scanner.Object().(*osm.Node)
		if !ok {
			continue
		}
		if _, needed := referenced[n.ID]; !needed {
			continue
		}
		nodeLat[n.ID] = n.Lat
		nodeLon[n.ID] = n.Lon
	}
	if err := scanner.Err(); err != nil {
		scanner.Close()
		return nil, fmt.Errorf("pass 2 (nodes): %w", err)
	}
	scanner.Close()

	log.Info("pbf pass 2 complete", zap.Int("node_coordinates", len(nodeLat)))

	return buildEdges(ways, nodeLat, nodeLon, opt), nil
}

// ParseXML reads OSM XML, as returned by the Overpass API, in a single pass.
// Node coordinates are kept for every node in the document since Overpass
// emits nodes before the ways that reference them.
func ParseXML(ctx context.Context, r io.Reader, opt ParseOptions) (*ParseResult, error) {
	log := opt.logger()

	nodeLat := make(map[osm.NodeID]float64)
	nodeLon := make(map[osm.NodeID]float64)
	var ways []wayInfo

	scanner := osmxml.New(ctx, r)
	defer scanner.Close()

	for scanner.Scan() {
		switch o := scanner.Object().(type) {
		case *osm.Node:
			nodeLat[o.ID] = o.Lat
			nodeLon[o.ID] = o.Lon
		case *osm.Way:
			if info, ok := newWayInfo(o); ok {
				ways = append(ways, info)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan xml: %w", err)
	}

	log.Info("xml scan complete", zap.Int("ways", len(ways)), zap.Int("nodes", len(nodeLat)))

	return buildEdges(ways, nodeLat, nodeLon, opt), nil
}

// buildEdges expands ways into directed edges and keeps only the coordinates
// the edges reference.
func buildEdges(ways []wayInfo, nodeLat, nodeLon map[osm.NodeID]float64, opt ParseOptions) *ParseResult {
	log := opt.logger()
	useBBox := !opt.BBox.IsZero()

	var edges []RawEdge
	var skippedEdges, bboxFiltered int
	usedLat := make(map[osm.NodeID]float64)
	usedLon := make(map[osm.NodeID]float64)

	for _, w := range ways {
		for i := 0; i < len(w.NodeIDs)-1; i++ {
			fromID := w.NodeIDs[i]
			toID := w.NodeIDs[i+1]
			if fromID == toID {
				continue
			}

			fromLat, fromOk := nodeLat[fromID]
			fromLon := nodeLon[fromID]
			toLat, toOk := nodeLat[toID]
			toLon := nodeLon[toID]

			if !fromOk || !toOk {
				skippedEdges++
				continue
			}

			if useBBox && (!opt.BBox.Contains(fromLat, fromLon) || !opt.BBox.Contains(toLat, toLon)) {
				bboxFiltered++
				continue
			}

			length := geo.Haversine(fromLat, fromLon, toLat, toLon)
			// Keep three decimals (millimeters) so cached and fresh graphs agree.
			length = math.Round(length*1000) / 1000

			usedLat[fromID], usedLon[fromID] = fromLat, fromLon
			usedLat[toID], usedLon[toID] = toLat, toLon

			if w.Forward {
				edges = append(edges, RawEdge{
					WayID:      w.ID,
					FromNodeID: fromID,
					ToNodeID:   toID,
					Length:     length,
					Highway:    w.Highway,
					MaxSpeed:   w.MaxSpeed,
				})
			}
			if w.Backward {
				edges = append(edges, RawEdge{
					WayID:      w.ID,
					FromNodeID: toID,
					ToNodeID:   fromID,
					Length:     length,
					Highway:    w.Highway,
					MaxSpeed:   w.MaxSpeed,
				})
			}
		}
	}

	if skippedEdges > 0 {
		log.Warn("skipped edges with missing node coordinates", zap.Int("count", skippedEdges))
	}
	if bboxFiltered > 0 {
		log.Info("filtered edges outside bounding box", zap.Int("count", bboxFiltered))
	}
	log.Info("built directed edges", zap.Int("edges", len(edges)))

	return &ParseResult{
		Edges:   edges,
		NodeLat: usedLat,
		NodeLon: usedLon,
	}
}
