package main

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"drive_router/pkg/api"
	"drive_router/pkg/artifact"
	"drive_router/pkg/config"
	"drive_router/pkg/logging"
	"drive_router/pkg/mapdata"
	"drive_router/pkg/planner"
	"drive_router/pkg/render"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(2)
	}

	log, err := logging.NewNamed(cfg.AppEnv, "drive-router")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting drive-router",
		zap.Int("port", cfg.Port),
		zap.String("place", cfg.Place),
		zap.String("graph_path", cfg.GraphPath),
		zap.Bool("graph_cached", mapdata.Exists(cfg.GraphPath)),
	)

	provider := &mapdata.Provider{
		Place:          cfg.Place,
		GraphPath:      cfg.GraphPath,
		Fetcher:        mapdata.NewOverpassFetcher(cfg.OverpassURL, cfg.FetchTimeout),
		SpeedOverrides: cfg.SpeedOverrides,
		FallbackSpeed:  cfg.FallbackSpeed,
		Log:            log.Named("mapdata"),
	}
	cache := mapdata.NewCache(provider, cfg.GraphTTL, log.Named("cache"))

	// Warm the cache in the background so the first request does not pay
	// for the load. Requests arriving earlier join the same load.
	go func() {
		if _, err := cache.Get(context.Background()); err != nil {
			log.Warn("initial graph load failed; will retry on first request", zap.Error(err))
		}
	}()

	srvCfg := api.DefaultConfig(cfg.Addr())
	srvCfg.CORSOrigin = cfg.CORSOrigin
	srvCfg.ArtifactDir = cfg.ArtifactDir
	srvCfg.RequestTimeout = cfg.RequestTimeout
	srvCfg.WriteTimeout = cfg.RequestTimeout + 5*time.Second
	srvCfg.MaxConcurrent = cfg.MaxConcurrent
	if srvCfg.MaxConcurrent == 0 {
		srvCfg.MaxConcurrent = runtime.NumCPU() * 2
	}

	store, err := artifact.NewStore(srvCfg.ArtifactDir, srvCfg.ArtifactURL, cfg.ArtifactMaxAge, log.Named("artifact"))
	if err != nil {
		log.Fatal("failed to prepare artifact dir", zap.Error(err))
	}
	p := planner.New(cache, store, render.DefaultStyle(), log.Named("planner"))

	if cfg.AppEnv != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := api.NewEngine(srvCfg, api.NewHandlers(p, log.Named("api")), log.Named("http"))
	srv := api.NewServer(srvCfg, engine)

	if err := api.ListenAndServe(srv, log); err != nil {
		log.Error("server stopped", zap.Error(err))
		os.Exit(1)
	}
	log.Info("drive-router stopped")
}
