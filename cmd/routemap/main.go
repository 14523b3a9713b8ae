// Command routemap computes one route offline from the graph cache file and
// writes its map as SVG.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"drive_router/pkg/graph"
	"drive_router/pkg/input"
	"drive_router/pkg/logging"
	"drive_router/pkg/mapdata"
	"drive_router/pkg/render"
	"drive_router/pkg/routing"
	"drive_router/pkg/travel"
)

func main() {
	graphPath := pflag.String("graph", "graph/region.graph", "road network cache file (see fetchgraph)")
	from := pflag.String("from", "", "start as lon,lat")
	to := pflag.String("to", "", "destination as lon,lat")
	out := pflag.String("out", "route.svg", "SVG output path")
	width := pflag.Int("width", render.DefaultStyle().Width, "image width in px")
	pflag.Parse()

	log, err := logging.NewNamed("development", "routemap")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	src, dst, err := input.Validate(strings.Split(*from, ","), strings.Split(*to, ","))
	if err != nil {
		fmt.Fprintln(os.Stderr, "Usage: routemap --graph region.graph --from lon,lat --to lon,lat [--out route.svg]")
		log.Fatal("invalid coordinates", zap.Error(err))
	}

	// No fetcher: this tool only reads an existing cache file.
	provider := &mapdata.Provider{GraphPath: *graphPath, FallbackSpeed: graph.DefaultFallbackSpeed, Log: log}
	g, err := provider.Load(context.Background())
	if err != nil {
		log.Fatal("failed to load graph", zap.Error(err))
	}

	route, err := routing.NewFinder(log).Find(context.Background(), g, routing.NewNodeIndex(g), src, dst)
	if err != nil {
		log.Fatal("route calculation failed", zap.Error(err))
	}
	summary, err := travel.Summarize(g, route.Nodes)
	if err != nil {
		log.Fatal("route calculation failed", zap.Error(err))
	}

	style := render.DefaultStyle()
	style.Width = *width
	if err := writeFile(*out, func(w io.Writer) error {
		return render.Route(w, g, route.Nodes, route.Origin, route.Destination, style)
	}); err != nil {
		log.Fatal("failed to write map", zap.Error(err))
	}

	fmt.Printf("travel time: %.2f min\ndistance:    %.2f km\nmap:         %s\n",
		summary.TimeMinutes, summary.DistanceKm, *out)
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
