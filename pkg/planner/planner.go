// Package planner runs the full route pipeline for one request: shared map
// snapshot, fastest path, travel figures and the rendered map image.
package planner

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"drive_router/pkg/artifact"
	"drive_router/pkg/geo"
	"drive_router/pkg/graph"
	"drive_router/pkg/mapdata"
	"drive_router/pkg/render"
	"drive_router/pkg/routing"
	"drive_router/pkg/travel"
)

// Result is a computed route with its figures and image.
type Result struct {
	Source      geo.Coordinate
	Destination geo.Coordinate
	Route       *routing.Route
	Summary     travel.Summary
	Image       artifact.Artifact
}

// Stats describes the loaded network.
type Stats struct {
	NumNodes uint32
	NumEdges uint32
	LoadedAt time.Time
}

// SnapshotSource hands out the shared network. *mapdata.Cache implements it.
type SnapshotSource interface {
	Get(ctx context.Context) (*mapdata.Snapshot, error)
}

// ImageStore persists rendered images. *artifact.Store implements it.
type ImageStore interface {
	Save(write func(io.Writer) error) (artifact.Artifact, error)
	Prune() (int, error)
}

// Planner computes routes against the shared network.
type Planner struct {
	maps   SnapshotSource
	finder *routing.Finder
	images ImageStore
	style  render.Style
	log    *zap.Logger
}

// New creates a Planner.
func New(maps SnapshotSource, images ImageStore, style render.Style, log *zap.Logger) *Planner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Planner{
		maps:   maps,
		finder: routing.NewFinder(log),
		images: images,
		style:  style,
		log:    log,
	}
}

// Plan computes the fastest route from src to dst, its travel time and
// distance, and renders it to a new image.
func (p *Planner) Plan(ctx context.Context, src, dst geo.Coordinate) (*Result, error) {
	snap, err := p.maps.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load road network: %w", err)
	}
	g := snap.Graph

	route, err := p.finder.Find(ctx, g, snap.Index, src, dst)
	if err != nil {
		return nil, err
	}

	summary, err := travel.Summarize(g, route.Nodes)
	if err != nil {
		return nil, err
	}

	image, err := p.images.Save(func(w io.Writer) error {
		return render.Route(w, g, route.Nodes, route.Origin, route.Destination, p.style)
	})
	if err != nil {
		return nil, fmt.Errorf("render route: %w", err)
	}
	if _, err := p.images.Prune(); err != nil {
		p.log.Warn("pruning old route images failed", zap.Error(err))
	}

	p.log.Info("route planned",
		zap.Int("nodes", len(route.Nodes)),
		zap.Float64("travel_time_min", summary.TimeMinutes),
		zap.Float64("distance_km", summary.DistanceKm),
		zap.String("image", image.Name),
	)

	return &Result{
		Source:      src,
		Destination: dst,
		Route:       route,
		Summary:     summary,
		Image:       image,
	}, nil
}

// Stats loads the network if needed and reports its size.
func (p *Planner) Stats(ctx context.Context) (Stats, error) {
	snap, err := p.maps.Get(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("load road network: %w", err)
	}
	return statsOf(snap.Graph, snap.LoadedAt), nil
}

func statsOf(g *graph.Graph, loadedAt time.Time) Stats {
	return Stats{NumNodes: g.NumNodes, NumEdges: g.NumEdges, LoadedAt: loadedAt}
}
