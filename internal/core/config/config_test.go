package config

import (
	"testing"
	"time"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, k := range []string{"ADDR", "GRID_PRECISION_DEFAULT", "GRID_PRECISION_MAX", "GRID_MAX_CELLS", "HEAT_PRECISION", "CACHE_TTL_DEFAULT"} {
		t.Setenv(k, "")
	}
	cfg := FromEnv()
	if cfg.Addr != ":8090" {
		t.Fatalf("Addr=%q want :8090", cfg.Addr)
	}
	if cfg.GridPrecision != 1 || cfg.GridMaxPrec != 12 || cfg.GridMaxCells != 20000 {
		t.Fatalf("unexpected grid defaults: %+v", cfg)
	}
	if cfg.HeatPrecision != 7 || cfg.CacheTTLDefault != 10*time.Minute {
		t.Fatalf("unexpected heat/cache defaults: %+v", cfg)
	}
}

func TestFromEnv_ClampsPrecision(t *testing.T) {
	t.Setenv("GRID_PRECISION_MAX", "40")
	t.Setenv("GRID_PRECISION_DEFAULT", "-2")
	t.Setenv("HEAT_PRECISION", "0")
	cfg := FromEnv()
	if cfg.GridMaxPrec != 12 {
		t.Fatalf("GridMaxPrec=%d want 12", cfg.GridMaxPrec)
	}
	if cfg.GridPrecision != 1 {
		t.Fatalf("GridPrecision=%d want 1", cfg.GridPrecision)
	}
	if cfg.HeatPrecision != 1 {
		t.Fatalf("HeatPrecision=%d want 1", cfg.HeatPrecision)
	}

	t.Setenv("GRID_PRECISION_MAX", "5")
	t.Setenv("GRID_PRECISION_DEFAULT", "9")
	cfg = FromEnv()
	if cfg.GridPrecision != 5 {
		t.Fatalf("default above max must be capped, got %d", cfg.GridPrecision)
	}
}

func TestFromEnv_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("GRID_MAX_CELLS", "lots")
	t.Setenv("HEAT_HALF_LIFE", "-5s")
	t.Setenv("CACHE_ENABLED", "maybe")
	t.Setenv("HEAT_KAFKA_ENABLED", "yes")
	cfg := FromEnv()
	if cfg.GridMaxCells != 20000 {
		t.Fatalf("GridMaxCells=%d want 20000", cfg.GridMaxCells)
	}
	if cfg.HeatHalfLife != 10*time.Minute {
		t.Fatalf("HeatHalfLife=%v want 10m", cfg.HeatHalfLife)
	}
	if cfg.CacheEnabled {
		t.Fatalf("CacheEnabled must fall back to false")
	}
	if !cfg.HeatKafka.Enabled {
		t.Fatalf("HeatKafka.Enabled must be true for yes")
	}
}
