// Package tilecache memoises viewport tilings: an in-process LRU in front
// of an optional remote store.
package tilecache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/mohammed-shakir/geohash-grid/internal/cache"
	"github.com/mohammed-shakir/geohash-grid/internal/cache/keys"
	"github.com/mohammed-shakir/geohash-grid/internal/core/model"
	"github.com/mohammed-shakir/geohash-grid/internal/core/observability"
	"github.com/mohammed-shakir/geohash-grid/internal/logger"
)

const namespace = "grid"

type Source string

const (
	SourceLRU      Source = "lru"
	SourceRemote   Source = "redis"
	SourceComputed Source = "computed"
)

type ComputeFunc func() (model.Cells, error)

type Cache struct {
	front  *lru.Cache[string, model.Cells]
	remote cache.Interface
	ttl    time.Duration
	log    *slog.Logger
}

// New builds a cache with size LRU entries. remote may be nil.
func New(size int, remote cache.Interface, ttl time.Duration, log *slog.Logger) *Cache {
	if size <= 0 {
		size = 1024
	}
	if log == nil {
		log = slog.Default()
	}
	front, _ := lru.New[string, model.Cells](size)
	return &Cache{front: front, remote: remote, ttl: ttl, log: log}
}

// Cells returns the tiling of bb at precision, computing and storing it on
// a miss. Remote failures are logged and the tiling is recomputed.
// Callers must not modify the returned slice.
func (c *Cache) Cells(ctx context.Context, bb model.BBox, precision int, compute ComputeFunc) (model.Cells, Source, error) {
	key := keys.GridKey(namespace, precision, bb)
	ctx = logger.WithComponent(ctx, "tilecache")

	if cells, ok := c.front.Get(key); ok {
		observability.IncCacheHit(string(SourceLRU))
		return cells, SourceLRU, nil
	}
	observability.IncCacheMiss(string(SourceLRU))

	if c.remote != nil {
		raw, ok, err := c.remote.Get(ctx, key)
		switch {
		case err != nil:
			c.log.WarnContext(ctx, "tile cache read failed", "key", key, "err", err)
		case ok:
			var cells model.Cells
			if err := json.Unmarshal(raw, &cells); err != nil {
				c.log.WarnContext(ctx, "tile cache entry undecodable", "key", key, "err", err)
				break
			}
			c.front.Add(key, cells)
			return cells, SourceRemote, nil
		}
	}

	cells, err := compute()
	if err != nil {
		return nil, SourceComputed, err
	}
	cells = slices.Clip(cells)
	c.front.Add(key, cells)

	if c.remote != nil {
		if err := c.store(ctx, key, cells); err != nil {
			c.log.WarnContext(ctx, "tile cache write failed", "key", key, "err", err)
		}
	}
	return cells, SourceComputed, nil
}

func (c *Cache) store(ctx context.Context, key string, cells model.Cells) error {
	payload, err := json.Marshal(cells)
	if err != nil {
		return fmt.Errorf("encode cells: %w", err)
	}
	if err := c.remote.Set(ctx, key, payload, c.ttl); err != nil {
		return fmt.Errorf("store %q: %w", key, err)
	}
	return nil
}

// Invalidate drops the entry for bb at precision from both tiers.
func (c *Cache) Invalidate(ctx context.Context, bb model.BBox, precision int) error {
	key := keys.GridKey(namespace, precision, bb)
	c.front.Remove(key)
	if c.remote == nil {
		return nil
	}
	if err := c.remote.Del(ctx, key); err != nil {
		return fmt.Errorf("invalidate %q: %w", key, err)
	}
	return nil
}

func (c *Cache) Len() int { return c.front.Len() }
