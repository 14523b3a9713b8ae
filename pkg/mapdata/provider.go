package mapdata

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"go.uber.org/zap"

	"drive_router/pkg/graph"
	osmparser "drive_router/pkg/osm"
)

// Provider loads the annotated road network of one place. The network is
// fetched and written to GraphPath on the first call; afterwards the file is
// reused as is.
type Provider struct {
	Place          string
	GraphPath      string
	Fetcher        Fetcher
	SpeedOverrides map[string]float64 // km/h per highway class
	FallbackSpeed  float64            // km/h when nothing else is known
	Log            *zap.Logger
}

func (p *Provider) log() *zap.Logger {
	if p.Log == nil {
		return zap.NewNop()
	}
	return p.Log
}

// Load returns the road network annotated with speeds and travel times.
func (p *Provider) Load(ctx context.Context) (*graph.Graph, error) {
	g, err := graph.ReadBinary(p.GraphPath)
	switch {
	case err == nil:
		p.log().Info("loaded graph from cache file",
			zap.String("path", p.GraphPath),
			zap.Uint32("nodes", g.NumNodes),
			zap.Uint32("edges", g.NumEdges),
		)
	case errors.Is(err, fs.ErrNotExist):
		p.log().Info("graph cache file missing, fetching", zap.String("place", p.Place))
		if g, err = p.Refresh(ctx); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("read graph cache %s: %w", p.GraphPath, err)
	}

	if err := graph.Annotate(g, p.SpeedOverrides, p.FallbackSpeed); err != nil {
		return nil, fmt.Errorf("annotate graph: %w", err)
	}
	return g, nil
}

// Refresh fetches the place from the network, keeps its largest component and
// overwrites the cache file. The returned graph is not annotated.
func (p *Provider) Refresh(ctx context.Context) (*graph.Graph, error) {
	if p.Fetcher == nil {
		return nil, fmt.Errorf("%w: no fetcher configured", ErrFetch)
	}
	body, err := p.Fetcher.Fetch(ctx, p.Place)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	res, err := osmparser.ParseXML(ctx, body, osmparser.ParseOptions{Logger: p.log()})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: parse response: %v", ErrFetch, err)
	}

	g := Compact(res, p.log())
	if g.NumNodes == 0 {
		return nil, fmt.Errorf("%w: no drivable roads found for %q", ErrFetch, p.Place)
	}
	if err := Save(p.GraphPath, g); err != nil {
		return nil, err
	}
	p.log().Info("graph cache written", zap.String("path", p.GraphPath))
	return g, nil
}

// Compact builds the graph from parser output and keeps its largest weakly
// connected component.
func Compact(res *osmparser.ParseResult, log *zap.Logger) *graph.Graph {
	full := graph.Build(res)
	nodes := graph.LargestComponent(full)
	g := graph.FilterToComponent(full, nodes)
	log.Info("graph built",
		zap.Uint32("nodes", full.NumNodes),
		zap.Uint32("edges", full.NumEdges),
		zap.Uint32("kept_nodes", g.NumNodes),
		zap.Uint32("kept_edges", g.NumEdges),
	)
	return g
}

// Save writes g to path, creating missing directories.
func Save(path string, g *graph.Graph) error {
	if err := graph.WriteBinary(path, g); err != nil {
		return fmt.Errorf("write graph cache %s: %w", path, err)
	}
	return nil
}

// Exists reports whether a cache file is present at path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
