package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/mohammed-shakir/geohash-grid/internal/cache"
	"github.com/mohammed-shakir/geohash-grid/internal/cache/redisstore"
	"github.com/mohammed-shakir/geohash-grid/internal/cache/tilecache"
	"github.com/mohammed-shakir/geohash-grid/internal/core/config"
	"github.com/mohammed-shakir/geohash-grid/internal/core/health"
	"github.com/mohammed-shakir/geohash-grid/internal/core/observability"
	"github.com/mohammed-shakir/geohash-grid/internal/core/router"
	"github.com/mohammed-shakir/geohash-grid/internal/core/server"
	"github.com/mohammed-shakir/geohash-grid/internal/heat"
	"github.com/mohammed-shakir/geohash-grid/internal/heat/expdecay"
	"github.com/mohammed-shakir/geohash-grid/internal/heat/ingest"
	"github.com/mohammed-shakir/geohash-grid/internal/logger"
	ghmapper "github.com/mohammed-shakir/geohash-grid/internal/mapper/geohash"
	"github.com/mohammed-shakir/geohash-grid/internal/metrics"
)

var Version = "dev"

const (
	pruneEvery    = time.Minute
	pruneMinScore = 0.01
)

func main() {
	os.Exit(run())
}

func run() int {
	envErr := godotenv.Load()
	cfg := config.FromEnv()

	zl := logger.Build(logger.Config{
		Level:     cfg.LogLevel,
		Console:   cfg.LogConsole,
		SampleN:   cfg.LogSampleN,
		Component: "gridserver",
	}, os.Stdout)
	appLog := logger.NewSlog(&zl)
	if envErr != nil && !errors.Is(envErr, fs.ErrNotExist) {
		appLog.Warn("could not load .env", "err", envErr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.MetricsEnabled {
		p := metrics.Init(metrics.Config{
			Enabled: true,
			Addr:    cfg.MetricsAddr,
			Path:    cfg.MetricsPath,
			Build: metrics.BuildInfo{
				Version:   Version,
				Revision:  os.Getenv("BUILD_REVISION"),
				Branch:    os.Getenv("BUILD_BRANCH"),
				BuildDate: os.Getenv("BUILD_DATE"),
			},
		})
		go func() {
			if err := p.Serve(ctx, appLog); err != nil {
				appLog.Error("metrics server exited", "err", err)
			}
		}()
	} else {
		observability.Init(nil, false)
		observability.ExposeBuildInfo(Version, os.Getenv("BUILD_REVISION"), os.Getenv("BUILD_BRANCH"), os.Getenv("BUILD_DATE"))
	}

	appLog.Info("starting gridserver",
		"addr", cfg.Addr,
		"version", Version,
		"grid_precision", cfg.GridPrecision,
		"heat_precision", cfg.HeatPrecision,
		"cache", cfg.CacheEnabled,
		"kafka", cfg.HeatKafka.Enabled)

	var (
		remote cache.Interface
		checks []health.Check
	)
	if cfg.CacheEnabled {
		rc, err := redisstore.New(ctx, cfg.RedisAddr, redisstore.WithOpTimeout(cfg.CacheOpTimeout))
		if err != nil {
			appLog.Warn("redis unavailable, using in-process cache only", "addr", cfg.RedisAddr, "err", err)
		} else {
			defer func() { _ = rc.Close() }()
			remote = rc
			checks = append(checks, health.Check{Name: "redis", Probe: rc.Ping})
		}
	}

	m := ghmapper.New(cfg.GridMaxCells)
	tiles := tilecache.New(cfg.CacheLRUSize, remote, cfg.CacheTTLDefault, appLog)

	layer := heat.NewLayer(expdecay.New(cfg.HeatHalfLife), m, cfg.HeatPrecision, appLog)
	go layer.Run(ctx, pruneEvery, pruneMinScore)

	if cfg.HeatKafka.Enabled {
		c := ingest.New(ingest.FromKafka(cfg.HeatKafka), appLog, layer)
		go func() {
			if err := c.Start(ctx); err != nil {
				appLog.Error("heat consumer stopped", "err", err)
			}
		}()
	}

	api := router.New(appLog, cfg, m, tiles, layer)
	if err := server.Run(ctx, cfg, appLog, api, checks...); err != nil {
		appLog.Error("server exited with error", "err", err)
		return 1
	}
	appLog.Info("server stopped")
	return 0
}
