package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NatalChart/internal/domain/models"
	domrepo "NatalChart/internal/domain/repository"
	pkgkafka "NatalChart/pkg/kafka"
	applogger "NatalChart/pkg/logger"
)

type memArchive struct {
	mu     sync.Mutex
	charts map[string]*models.Chart
	err    error
}

func (a *memArchive) Store(_ context.Context, c *models.Chart) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	if a.charts == nil {
		a.charts = map[string]*models.Chart{}
	}
	a.charts[c.ID] = c
	return nil
}

func (a *memArchive) Get(_ context.Context, id string) (*models.Chart, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	c, ok := a.charts[id]
	if !ok {
		return nil, domrepo.ErrChartNotFound
	}
	return c, nil
}

func (a *memArchive) Health(context.Context) error { return nil }
func (a *memArchive) Close() error                 { return nil }

type recPublisher struct {
	events []models.ChartComputed
	traces []string
	err    error
}

func (p *recPublisher) PublishComputed(ctx context.Context, evt models.ChartComputed) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, evt)
	p.traces = append(p.traces, pkgkafka.TraceIDFrom(ctx))
	return nil
}

func (p *recPublisher) Close() error { return nil }

type mapCache struct{ m map[string]*models.Chart }

func (c *mapCache) Get(_ context.Context, key string) (*models.Chart, bool, error) {
	v, ok := c.m[key]
	return v, ok, nil
}

func (c *mapCache) Set(_ context.Context, key string, v *models.Chart) error {
	c.m[key] = v
	return nil
}

type countingMetrics struct {
	mu     sync.Mutex
	charts map[string]int
	errs   map[string]int
	hits   int
	misses int
	sent   int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{charts: map[string]int{}, errs: map[string]int{}}
}

func (m *countingMetrics) RecordChart(hs string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.charts[hs]++
}

func (m *countingMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[kind]++
}

func (m *countingMetrics) RecordLatency(string, float64) {}

func (m *countingMetrics) RecordCache(hit bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if hit {
		m.hits++
	} else {
		m.misses++
	}
}

func (m *countingMetrics) RecordMessageSent(string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent++
}

type serviceFixture struct {
	svc     *ChartService
	archive *memArchive
	pub     *recPublisher
	cache   *mapCache
	metrics *countingMetrics
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	f := &serviceFixture{
		archive: &memArchive{},
		pub:     &recPublisher{},
		cache:   &mapCache{m: map[string]*models.Chart{}},
		metrics: newCountingMetrics(),
	}
	f.svc = NewChartService(newCalculator(), f.archive, f.pub, f.cache, f.metrics, applogger.NewNop(), ChartServiceConfig{
		Defaults: models.ChartOptions{HouseSystem: models.Placidus, FallbackHouseSystem: models.Porphyry},
		Timeout:  5 * time.Second,
	})
	ids := 0
	f.svc.newID = func() string {
		ids++
		return []string{"chart-1", "chart-2", "chart-3"}[ids-1]
	}
	f.svc.now = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }
	return f
}

func TestServiceComputeArchivesPublishesAndCaches(t *testing.T) {
	f := newServiceFixture(t)
	ctx := pkgkafka.WithTraceID(context.Background(), "trace-7")

	c, err := f.svc.Compute(ctx, zaragoza, models.ChartOptions{})
	require.NoError(t, err)
	assert.Equal(t, "chart-1", c.ID)
	assert.Equal(t, models.Placidus, c.HouseSystem)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), c.ComputedAt)

	stored, err := f.svc.Get(ctx, "chart-1")
	require.NoError(t, err)
	assert.Same(t, c, stored)

	require.Len(t, f.pub.events, 1)
	evt := f.pub.events[0]
	assert.Equal(t, "chart-1", evt.ChartID)
	assert.Equal(t, 10, evt.BodyCount)
	assert.Equal(t, len(c.Aspects), evt.AspectCount)
	assert.Equal(t, "placidus", evt.HouseSystem)
	assert.Equal(t, "trace-7", f.pub.traces[0])

	assert.Equal(t, 1, f.metrics.charts["placidus"])
	assert.Equal(t, 1, f.metrics.misses)
	assert.Equal(t, 1, f.metrics.sent)
	assert.Len(t, f.cache.m, 1)
}

func TestServiceComputeServesRepeatsFromCache(t *testing.T) {
	f := newServiceFixture(t)

	a, err := f.svc.Compute(context.Background(), zaragoza, models.ChartOptions{})
	require.NoError(t, err)
	b, err := f.svc.Compute(context.Background(), zaragoza, models.ChartOptions{HouseSystem: models.Placidus})
	require.NoError(t, err)

	assert.Same(t, a, b, "explicit default and omitted option share a key")
	assert.Equal(t, 1, f.metrics.hits)
	require.Len(t, f.pub.events, 2, "cache hits still announce the chart")
	assert.Equal(t, a.ID, f.pub.events[1].ChartID)
	assert.Len(t, f.archive.charts, 1)

	c, err := f.svc.Compute(context.Background(), zaragoza, models.ChartOptions{HouseSystem: models.Equal})
	require.NoError(t, err)
	assert.Equal(t, "chart-2", c.ID)
}

func TestServiceSideEffectFailuresDoNotFailCompute(t *testing.T) {
	f := newServiceFixture(t)
	f.archive.err = errors.New("clickhouse down")
	f.pub.err = errors.New("kafka down")

	c, err := f.svc.Compute(context.Background(), zaragoza, models.ChartOptions{})
	require.NoError(t, err)
	assert.NotNil(t, c)
	assert.Equal(t, 1, f.metrics.errs["archive_store"])
	assert.Equal(t, 1, f.metrics.errs["publish"])
	assert.Equal(t, 0, f.metrics.sent)
}

func TestServiceComputeErrorIsCounted(t *testing.T) {
	f := newServiceFixture(t)
	in := zaragoza
	in.Instant = time.Date(2150, 1, 1, 0, 0, 0, 0, time.UTC)

	c, err := f.svc.Compute(context.Background(), in, models.ChartOptions{})
	assert.Nil(t, c)
	assert.ErrorIs(t, err, models.ErrOutOfRangeEpoch)
	assert.Equal(t, 1, f.metrics.errs["out_of_range_epoch"])
	assert.Empty(t, f.pub.events)
	assert.Empty(t, f.cache.m)
}

func TestServiceGetMissing(t *testing.T) {
	f := newServiceFixture(t)
	_, err := f.svc.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, domrepo.ErrChartNotFound)
	assert.Empty(t, f.metrics.errs)
}

func TestCacheKeyIsCanonical(t *testing.T) {
	opts := models.ChartOptions{HouseSystem: models.Placidus, Orbs: models.OrbTable{models.Trine: 8, models.Square: 8}}
	same := models.ChartOptions{HouseSystem: models.Placidus, Orbs: models.OrbTable{models.Square: 8, models.Trine: 8}}
	assert.Equal(t, cacheKey(zaragoza, opts), cacheKey(zaragoza, same))

	shifted := zaragoza
	shifted.Instant = zaragoza.Instant.In(time.FixedZone("CET", 3600))
	assert.Equal(t, cacheKey(zaragoza, opts), cacheKey(shifted, opts))

	opts.IncludeNodes = true
	assert.NotEqual(t, cacheKey(zaragoza, same), cacheKey(zaragoza, opts))
}

func TestCacheKeyIsExactOnCoordinates(t *testing.T) {
	opts := models.ChartOptions{HouseSystem: models.Placidus}
	near := zaragoza
	near.Latitude += 4e-7
	assert.NotEqual(t, cacheKey(zaragoza, opts), cacheKey(near, opts))

	f := newServiceFixture(t)
	a, err := f.svc.Compute(context.Background(), zaragoza, models.ChartOptions{})
	require.NoError(t, err)
	b, err := f.svc.Compute(context.Background(), near, models.ChartOptions{})
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, near.Latitude, b.Input.Latitude)
}

func TestResolveRequest(t *testing.T) {
	lat, lon := 41.6561, -0.8773
	nodes := true

	in, opts, err := ResolveRequest(&models.ChartRequest{
		Date: "05/02/1993", Time: "15:30", Timezone: "Europe/Madrid",
		Latitude: &lat, Longitude: &lon, HouseSystem: "Equal",
	}, models.ChartOptions{IncludeNodes: true})
	require.NoError(t, err)
	assert.Equal(t, zaragoza.Instant, in.Instant)
	assert.Equal(t, models.Equal, opts.HouseSystem)
	assert.True(t, opts.IncludeNodes)

	in, opts, err = ResolveRequest(&models.ChartRequest{
		Instant: "1993-02-05T14:30:00Z", Latitude: &lat, Longitude: &lon, IncludeNodes: &[]bool{false}[0],
	}, models.ChartOptions{IncludeNodes: nodes})
	require.NoError(t, err)
	assert.Equal(t, zaragoza.Instant, in.Instant)
	assert.False(t, opts.IncludeNodes)

	_, _, err = ResolveRequest(&models.ChartRequest{Latitude: &lat, Longitude: &lon}, models.ChartOptions{})
	assert.ErrorIs(t, err, models.ErrInvalidInputRange)

	_, _, err = ResolveRequest(&models.ChartRequest{Date: "31/02/1993", Time: "10:00", Latitude: &lat, Longitude: &lon}, models.ChartOptions{})
	assert.ErrorIs(t, err, models.ErrInvalidInputRange)
}

type stubComputer struct {
	err   error
	calls int
	trace string
}

func (s *stubComputer) Compute(ctx context.Context, in models.ChartInput, opts models.ChartOptions) (*models.Chart, error) {
	s.calls++
	s.trace = pkgkafka.TraceIDFrom(ctx)
	if s.err != nil {
		return nil, s.err
	}
	return &models.Chart{ID: "c-1", Input: in, HouseSystem: opts.HouseSystem}, nil
}

func TestKafkaChartRequestsHandler(t *testing.T) {
	stub := &stubComputer{}
	h := &KafkaChartRequestsHandler{topic: "natal.chart.requests", svc: stub, metrics: newCountingMetrics(), log: applogger.NewNop()}
	assert.Equal(t, "natal.chart.requests", h.Topic())

	msg, err := json.Marshal(models.ChartRequestMessage{
		RequestID: "r-1", Instant: zaragoza.Instant, Latitude: 41.6561, Longitude: -0.8773, HouseSystem: "porphyry",
	})
	require.NoError(t, err)
	require.NoError(t, h.Handle(context.Background(), msg))
	assert.Equal(t, "r-1", stub.trace)

	err = h.Handle(context.Background(), []byte("{not json"))
	assert.ErrorIs(t, err, pkgkafka.ErrPermanent)

	err = h.Handle(context.Background(), []byte(`{"request_id":"r-2","latitude":1}`))
	assert.ErrorIs(t, err, pkgkafka.ErrPermanent)
	assert.ErrorIs(t, err, models.ErrInvalidInputRange)

	stub.err = models.NewChartError(models.ErrOutOfRangeEpoch, models.StageEphemeris, models.Sun, "x")
	err = h.Handle(context.Background(), msg)
	assert.ErrorIs(t, err, pkgkafka.ErrPermanent)
	assert.ErrorIs(t, err, models.ErrOutOfRangeEpoch)

	stub.err = errors.New("deadline")
	err = h.Handle(context.Background(), msg)
	require.Error(t, err)
	assert.NotErrorIs(t, err, pkgkafka.ErrPermanent)
}

func TestKafkaRepeatedRequestsEachPublish(t *testing.T) {
	f := newServiceFixture(t)
	h := NewKafkaChartRequestsHandler("natal.chart.requests", f.svc, f.metrics, applogger.NewNop())

	for _, id := range []string{"r-1", "r-2"} {
		msg, err := json.Marshal(models.ChartRequestMessage{
			RequestID: id, Instant: zaragoza.Instant, Latitude: zaragoza.Latitude, Longitude: zaragoza.Longitude,
		})
		require.NoError(t, err)
		require.NoError(t, h.Handle(context.Background(), msg))
	}

	require.Len(t, f.pub.events, 2)
	assert.Equal(t, []string{"r-1", "r-2"}, f.pub.traces)
	assert.Equal(t, f.pub.events[0].ChartID, f.pub.events[1].ChartID)
	assert.Equal(t, 1, f.metrics.hits)
}
