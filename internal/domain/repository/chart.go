package repository

import (
	"context"
	"errors"

	"NatalChart/internal/domain/models"
)

var ErrChartNotFound = errors.New("chart not found")

// ChartArchive persists computed charts.
type ChartArchive interface {
	Store(ctx context.Context, c *models.Chart) error
	Get(ctx context.Context, id string) (*models.Chart, error)
	Health(ctx context.Context) error
	Close() error
}

// ChartPublisher emits chart lifecycle events.
type ChartPublisher interface {
	PublishComputed(ctx context.Context, evt models.ChartComputed) error
	Close() error
}

// ChartCache stores computed charts by deterministic request key.
type ChartCache interface {
	Get(ctx context.Context, key string) (*models.Chart, bool, error)
	Set(ctx context.Context, key string, c *models.Chart) error
}

type Metrics interface {
	RecordChart(houseSystem string)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
	RecordCache(hit bool)
	RecordMessageSent(backend string)
}
