// Command fetchgraph builds the road network cache file ahead of time, either
// from a local .osm.pbf/.osm extract or from the Overpass API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"drive_router/pkg/logging"
	"drive_router/pkg/mapdata"
	osmparser "drive_router/pkg/osm"
)

func main() {
	input := pflag.String("input", "", "path to an .osm.pbf or .osm (XML) extract; empty fetches --place from Overpass")
	place := pflag.String("place", "Mönchengladbach, Germany", "place to fetch when no --input is given")
	output := pflag.String("output", "graph/region.graph", "output cache file")
	bbox := pflag.String("bbox", "", "bounding box filter for --input: minLat,minLng,maxLat,maxLng")
	overpassURL := pflag.String("overpass-url", mapdata.DefaultOverpassURL, "Overpass API endpoint")
	timeout := pflag.Duration("timeout", 3*time.Minute, "fetch timeout")
	env := pflag.String("app-env", "development", "environment (development enables console logging)")
	pflag.Parse()

	log, err := logging.NewNamed(*env, "fetchgraph")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	if *input == "" {
		err = fromOverpass(ctx, log, *place, *output, *overpassURL, *timeout)
	} else {
		err = fromFile(ctx, log, *input, *output, *bbox)
	}
	if err != nil {
		log.Fatal("building graph cache failed", zap.Error(err))
	}
	log.Info("done", zap.String("output", *output), zap.Duration("took", time.Since(start).Round(time.Millisecond)))
}

func fromOverpass(ctx context.Context, log *zap.Logger, place, output, endpoint string, timeout time.Duration) error {
	p := &mapdata.Provider{
		Place:     place,
		GraphPath: output,
		Fetcher:   mapdata.NewOverpassFetcher(endpoint, timeout),
		Log:       log,
	}
	_, err := p.Refresh(ctx)
	return err
}

func fromFile(ctx context.Context, log *zap.Logger, input, output, bbox string) error {
	opts := osmparser.ParseOptions{Logger: log}
	if bbox != "" {
		var minLat, minLng, maxLat, maxLng float64
		if _, err := fmt.Sscanf(bbox, "%f,%f,%f,%f", &minLat, &minLng, &maxLat, &maxLng); err != nil {
			return fmt.Errorf("invalid bbox %q (expected minLat,minLng,maxLat,maxLng): %w", bbox, err)
		}
		opts.BBox = osmparser.BBox{MinLat: minLat, MaxLat: maxLat, MinLng: minLng, MaxLng: maxLng}
		log.Info("using bounding box filter",
			zap.Float64("min_lat", minLat), zap.Float64("max_lat", maxLat),
			zap.Float64("min_lng", minLng), zap.Float64("max_lng", maxLng),
		)
	}

	f, err := os.Open(input)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	var res *osmparser.ParseResult
	if strings.HasSuffix(input, ".pbf") {
		res, err = osmparser.Parse(ctx, f, opts)
	} else {
		res, err = osmparser.ParseXML(ctx, f, opts)
	}
	if err != nil {
		return fmt.Errorf("parse %s: %w", input, err)
	}

	g := mapdata.Compact(res, log)
	if g.NumNodes == 0 {
		return fmt.Errorf("no drivable roads in %s", input)
	}
	return mapdata.Save(output, g)
}
