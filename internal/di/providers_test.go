package di

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NatalChart/internal/domain/models"
	"NatalChart/internal/repository"
	"NatalChart/pkg/config"
	applogger "NatalChart/pkg/logger"
)

func TestChartOptions(t *testing.T) {
	cfg := config.Default()
	opts, err := ChartOptions(cfg)
	require.NoError(t, err)
	assert.Equal(t, models.Placidus, opts.HouseSystem)
	assert.Equal(t, models.Porphyry, opts.FallbackHouseSystem)
	assert.Equal(t, models.DefaultOrbTable(), opts.Orbs)

	cfg.Chart.Orbs = map[string]float64{"trine": 5, "quincunx": 2}
	opts, err = ChartOptions(cfg)
	require.NoError(t, err)
	assert.Equal(t, models.OrbTable{models.Trine: 5, models.Quincunx: 2}, opts.Orbs)

	cfg.Chart.Orbs = map[string]float64{"biquintile": 1}
	_, err = ChartOptions(cfg)
	require.Error(t, err)
}

func TestDisabledBackendsFallBack(t *testing.T) {
	cfg := config.Default()

	ch, err := ProvideClickHouseClient(cfg)
	require.NoError(t, err)
	assert.Nil(t, ch)

	p, err := ProvideKafkaProducer(cfg, nil)
	require.NoError(t, err)
	assert.Nil(t, p)
	assert.IsType(t, repository.NoopChartPublisher{}, ProvideChartPublisher(cfg, p))

	c, err := ProvideCache(cfg, applogger.NewNop())
	require.NoError(t, err)
	defer c.Close()

	archive, err := ProvideChartArchive(cfg, ch, c, applogger.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &repository.CacheChartArchive{}, archive)

	cfg.Cache.Enabled = false
	assert.Nil(t, ProvideChartCache(cfg, c))
	assert.Nil(t, ProvideRateLimiter(cfg))

	consumer, err := ProvideKafkaConsumer(cfg, applogger.NewNop(), nil)
	require.NoError(t, err)
	assert.Nil(t, consumer)
}

func TestInitializeChartService(t *testing.T) {
	cfg := config.Default()
	cfg.Log.Output = "stderr"

	svc, err := InitializeChartService(cfg)
	require.NoError(t, err)

	chart, err := svc.Compute(context.Background(), models.ChartInput{
		Instant:   time.Date(1993, 2, 5, 14, 30, 0, 0, time.UTC),
		Latitude:  41.6561,
		Longitude: -0.8773,
	}, models.ChartOptions{HouseSystem: models.Equal})
	require.NoError(t, err)
	assert.Equal(t, models.Equal, chart.HouseSystem)
	assert.Equal(t, 8, chart.HouseOf(models.Sun))

	got, err := svc.Get(context.Background(), chart.ID)
	require.NoError(t, err)
	assert.Equal(t, chart.ID, got.ID)
}
