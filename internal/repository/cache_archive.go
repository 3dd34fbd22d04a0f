package repository

import (
	"context"
	"errors"
	"time"

	"NatalChart/internal/domain/models"
	domrepo "NatalChart/internal/domain/repository"
	"NatalChart/pkg/cache"
)

// CacheChartArchive keeps charts in a cache.Service for a bounded time.
// It serves GET /api/chart/:id when ClickHouse is disabled.
type CacheChartArchive struct {
	c   cache.Service
	ttl time.Duration
}

func NewCacheChartArchive(c cache.Service, ttl time.Duration) *CacheChartArchive {
	return &CacheChartArchive{c: c, ttl: ttl}
}

func (a *CacheChartArchive) Store(ctx context.Context, c *models.Chart) error {
	return a.c.Set(ctx, cache.GenerateKey("chart", c.ID), c, a.ttl)
}

func (a *CacheChartArchive) Get(ctx context.Context, id string) (*models.Chart, error) {
	c, err := cache.GetTyped[models.Chart](ctx, a.c, cache.GenerateKey("chart", id))
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil, domrepo.ErrChartNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (a *CacheChartArchive) Health(context.Context) error { return nil }

// Close leaves the shared cache open.
func (a *CacheChartArchive) Close() error { return nil }

// ChartCache memoizes charts by request key.
type ChartCache struct {
	c   cache.Service
	ttl time.Duration
}

func NewChartCache(c cache.Service, ttl time.Duration) *ChartCache {
	return &ChartCache{c: c, ttl: ttl}
}

func (cc *ChartCache) Get(ctx context.Context, key string) (*models.Chart, bool, error) {
	c, err := cache.GetTyped[models.Chart](ctx, cc.c, cache.GenerateKey("req", key))
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &c, true, nil
}

func (cc *ChartCache) Set(ctx context.Context, key string, c *models.Chart) error {
	return cc.c.Set(ctx, cache.GenerateKey("req", key), c, cc.ttl)
}

var (
	_ domrepo.ChartArchive = (*CacheChartArchive)(nil)
	_ domrepo.ChartCache   = (*ChartCache)(nil)
)
