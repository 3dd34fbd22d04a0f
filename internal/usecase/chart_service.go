package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"NatalChart/internal/domain/models"
	domrepo "NatalChart/internal/domain/repository"
	"NatalChart/pkg/cache"
	applogger "NatalChart/pkg/logger"
)

// ChartService runs the calculator and handles the side effects around a
// computed chart: caching, archiving and event publishing.
type ChartService struct {
	calc      *ChartCalculator
	archive   domrepo.ChartArchive
	publisher domrepo.ChartPublisher
	cache     domrepo.ChartCache
	metrics   domrepo.Metrics
	log       *applogger.Logger
	defaults  models.ChartOptions
	timeout   time.Duration

	now   func() time.Time
	newID func() string
}

// ChartServiceConfig carries the service-level settings.
type ChartServiceConfig struct {
	Defaults models.ChartOptions
	Timeout  time.Duration
}

// NewChartService wires the service. cache may be nil.
func NewChartService(
	calc *ChartCalculator,
	archive domrepo.ChartArchive,
	publisher domrepo.ChartPublisher,
	chartCache domrepo.ChartCache,
	metrics domrepo.Metrics,
	l *applogger.Logger,
	cfg ChartServiceConfig,
) *ChartService {
	if l == nil {
		l = applogger.NewNop()
	}
	return &ChartService{
		calc:      calc,
		archive:   archive,
		publisher: publisher,
		cache:     chartCache,
		metrics:   metrics,
		log:       l,
		defaults:  withDefaults(cfg.Defaults),
		timeout:   cfg.Timeout,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
	}
}

// Defaults returns the options applied when a request leaves them unset.
func (s *ChartService) Defaults() models.ChartOptions {
	return s.defaults
}

// Compute returns the chart for in. Identical requests are served from the
// cache and share the chart id; every call, hit or miss, publishes a
// ChartComputed event under the caller's trace id. Archive and publish
// failures are logged and counted but never fail the request.
func (s *ChartService) Compute(ctx context.Context, in models.ChartInput, opts models.ChartOptions) (*models.Chart, error) {
	start := time.Now()
	opts = s.merge(opts)
	key := cacheKey(in, opts)

	if c, ok := s.lookup(ctx, key); ok {
		s.publish(ctx, c)
		return c, nil
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	chart, err := s.calc.Compute(ctx, in, opts)
	s.metrics.RecordLatency("compute", time.Since(start).Seconds())
	if err != nil {
		s.metrics.RecordError(models.ErrorKind(err))
		s.log.Warn("chart computation failed",
			applogger.String("instant", in.Instant.Format(time.RFC3339)),
			applogger.Float64("latitude", in.Latitude),
			applogger.Float64("longitude", in.Longitude),
			applogger.String("house_system", string(opts.HouseSystem)),
			applogger.Error(err),
		)
		return nil, err
	}
	chart.ID = s.newID()
	chart.ComputedAt = s.now()
	s.metrics.RecordChart(string(chart.HouseSystem))
	if chart.HouseSystem != opts.HouseSystem {
		s.log.Info("house system fell back",
			applogger.String("chart_id", chart.ID),
			applogger.String("requested", string(opts.HouseSystem)),
			applogger.String("used", string(chart.HouseSystem)),
		)
	}

	s.archiveChart(ctx, chart)
	s.publish(ctx, chart)
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, chart); err != nil {
			s.log.Warn("chart cache set failed", applogger.String("chart_id", chart.ID), applogger.Error(err))
		}
	}
	s.metrics.RecordLatency("total", time.Since(start).Seconds())
	return chart, nil
}

// Get returns an archived chart.
func (s *ChartService) Get(ctx context.Context, id string) (*models.Chart, error) {
	c, err := s.archive.Get(ctx, id)
	if err != nil && !errors.Is(err, domrepo.ErrChartNotFound) {
		s.metrics.RecordError("archive_get")
	}
	return c, err
}

// Health reports whether the archive is reachable.
func (s *ChartService) Health(ctx context.Context) error {
	return s.archive.Health(ctx)
}

func (s *ChartService) merge(opts models.ChartOptions) models.ChartOptions {
	if opts.HouseSystem == "" {
		opts.HouseSystem = s.defaults.HouseSystem
	}
	if opts.FallbackHouseSystem == "" {
		opts.FallbackHouseSystem = s.defaults.FallbackHouseSystem
	}
	if opts.Orbs == nil {
		opts.Orbs = s.defaults.Orbs
	}
	return opts
}

func (s *ChartService) lookup(ctx context.Context, key string) (*models.Chart, bool) {
	if s.cache == nil {
		return nil, false
	}
	c, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.log.Warn("chart cache get failed", applogger.Error(err))
		return nil, false
	}
	s.metrics.RecordCache(ok)
	return c, ok
}

func (s *ChartService) archiveChart(ctx context.Context, c *models.Chart) {
	start := time.Now()
	if err := s.archive.Store(ctx, c); err != nil {
		s.metrics.RecordError("archive_store")
		s.log.Error("chart archive failed", applogger.String("chart_id", c.ID), applogger.Error(err))
		return
	}
	s.metrics.RecordLatency("archive", time.Since(start).Seconds())
}

func (s *ChartService) publish(ctx context.Context, c *models.Chart) {
	evt := models.ChartComputed{
		ChartID:     c.ID,
		Instant:     c.Input.Instant.UTC(),
		Latitude:    c.Input.Latitude,
		Longitude:   c.Input.Longitude,
		HouseSystem: string(c.HouseSystem),
		BodyCount:   len(c.Positions),
		AspectCount: len(c.Aspects),
		ComputedAt:  c.ComputedAt,
	}
	if err := s.publisher.PublishComputed(ctx, evt); err != nil {
		s.metrics.RecordError("publish")
		s.log.Error("chart event publish failed", applogger.String("chart_id", c.ID), applogger.Error(err))
		return
	}
	s.metrics.RecordMessageSent("kafka")
}

// cacheKey hashes the canonical form of a request. Options must already be merged.
func cacheKey(in models.ChartInput, opts models.ChartOptions) string {
	types := make([]string, 0, len(opts.Orbs))
	for t := range opts.Orbs {
		types = append(types, string(t))
	}
	sort.Strings(types)

	var b strings.Builder
	fmt.Fprintf(&b, "%d|%x|%x|%s|%s|%t",
		in.Instant.UTC().UnixNano(), math.Float64bits(in.Latitude), math.Float64bits(in.Longitude),
		opts.HouseSystem, opts.FallbackHouseSystem, opts.IncludeNodes)
	for _, t := range types {
		fmt.Fprintf(&b, "|%s=%g", t, opts.Orbs[models.AspectType(t)])
	}
	return cache.HashKey(b.String())
}
