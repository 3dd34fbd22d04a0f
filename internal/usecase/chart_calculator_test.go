package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NatalChart/internal/domain/models"
	"NatalChart/internal/services/aspects"
	"NatalChart/internal/services/ephemeris"
	"NatalChart/internal/services/houses"
	"NatalChart/pkg/util"
)

var zaragoza = models.ChartInput{
	Instant:   time.Date(1993, 2, 5, 14, 30, 0, 0, time.UTC),
	Latitude:  41.6561,
	Longitude: -0.8773,
}

func newCalculator() *ChartCalculator {
	return NewChartCalculator(ephemeris.NewEvaluator(), houses.NewCalculator(), aspects.NewDetector(), 4)
}

func TestComputeZaragozaEqualHouses(t *testing.T) {
	c, err := newCalculator().Compute(context.Background(), zaragoza, models.ChartOptions{HouseSystem: models.Equal})
	require.NoError(t, err)

	assert.Equal(t, models.Equal, c.HouseSystem)
	require.Len(t, c.Positions, 10)
	assert.Len(t, c.Signs, 10)
	assert.Len(t, c.Houses, 10)
	assert.InDelta(t, 103.176, c.Ascendant, 0.05)
	assert.InDelta(t, 351.692, c.Midheaven, 0.05)

	for i, cusp := range c.Cusps {
		assert.Equal(t, i+1, cusp.House)
		assert.InDelta(t, 0, util.Separation(cusp.Longitude, util.Normalize360(c.Ascendant+30*float64(i))), 1e-9)
	}

	for i, p := range c.Positions {
		assert.Equal(t, models.Planets[i], p.Body, "positions keep canonical order")
		sp := c.Signs[p.Body]
		assert.Equal(t, int(p.Longitude/30), sp.Sign.Index())
		assert.InDelta(t, p.Longitude-30*float64(sp.Sign.Index()), sp.Degree, 1e-9)
		h := c.HouseOf(p.Body)
		assert.GreaterOrEqual(t, h, 1)
		assert.LessOrEqual(t, h, 12)
	}

	sun, ok := c.Position(models.Sun)
	require.True(t, ok)
	assert.Equal(t, models.Aquarius, c.Signs[models.Sun].Sign)
	assert.InDelta(t, 316.81, sun.Longitude, 0.05)
	assert.Equal(t, 8, c.HouseOf(models.Sun))
	assert.Equal(t, models.Cancer, c.Signs[models.Moon].Sign)
	assert.Equal(t, 1, c.HouseOf(models.Moon))
	assert.Equal(t, 12, c.HouseOf(models.Mars))

	var sunMoon, sunSaturn, uranusNeptune bool
	for _, a := range c.Aspects {
		assert.NotEqual(t, a.First, a.Second)
		assert.LessOrEqual(t, a.Orb, 8.0)
		switch {
		case a.First == models.Sun && a.Second == models.Moon:
			sunMoon = true
		case a.First == models.Sun && a.Second == models.Saturn:
			sunSaturn = true
			assert.Equal(t, models.Conjunction, a.Type)
		case a.First == models.Uranus && a.Second == models.Neptune:
			uranusNeptune = true
			assert.Equal(t, models.Conjunction, a.Type)
			assert.Less(t, a.Orb, 0.5)
		}
	}
	assert.False(t, sunMoon, "Sun and Moon are about 160 degrees apart")
	assert.True(t, sunSaturn)
	assert.True(t, uranusNeptune)
}

func TestComputeIncludesNodes(t *testing.T) {
	c, err := newCalculator().Compute(context.Background(), zaragoza, models.ChartOptions{HouseSystem: models.WholeSign, IncludeNodes: true})
	require.NoError(t, err)
	require.Len(t, c.Positions, 12)

	north, _ := c.Position(models.NorthNode)
	south, _ := c.Position(models.SouthNode)
	assert.InDelta(t, 180, util.ForwardArc(north.Longitude, south.Longitude), 1e-9)
	assert.Equal(t, models.Retrograde, north.Motion())
}

func TestComputeDefaultsToPlacidus(t *testing.T) {
	c, err := newCalculator().Compute(context.Background(), zaragoza, models.ChartOptions{})
	require.NoError(t, err)
	assert.Equal(t, models.Placidus, c.HouseSystem)
	assert.InDelta(t, 27.535, c.Cusps[10].Longitude, 0.05)
}

func TestComputePolarFallback(t *testing.T) {
	polar := zaragoza
	polar.Latitude = 70

	c, err := newCalculator().Compute(context.Background(), polar, models.ChartOptions{
		HouseSystem:         models.Placidus,
		FallbackHouseSystem: models.Porphyry,
	})
	require.NoError(t, err)
	assert.Equal(t, models.Porphyry, c.HouseSystem)

	c, err = newCalculator().Compute(context.Background(), polar, models.ChartOptions{HouseSystem: models.Placidus})
	assert.Nil(t, c)
	assert.ErrorIs(t, err, models.ErrHouseSystemUndefined)
}

func TestComputeOutOfRangeEpoch(t *testing.T) {
	in := zaragoza
	in.Instant = time.Date(1850, 6, 1, 0, 0, 0, 0, time.UTC)

	c, err := newCalculator().Compute(context.Background(), in, models.ChartOptions{HouseSystem: models.Equal})
	assert.Nil(t, c, "no partial chart")
	assert.ErrorIs(t, err, models.ErrOutOfRangeEpoch)

	var ce *models.ChartError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, models.StageEphemeris, ce.Stage)
}

func TestComputeRejectsBadInput(t *testing.T) {
	cases := map[string]models.ChartInput{
		"zero instant": {Latitude: 1, Longitude: 1},
		"latitude":     {Instant: zaragoza.Instant, Latitude: 90.5},
		"longitude":    {Instant: zaragoza.Instant, Longitude: -181},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := newCalculator().Compute(context.Background(), in, models.ChartOptions{})
			assert.ErrorIs(t, err, models.ErrInvalidInputRange)
		})
	}
}

func TestComputeUnknownHouseSystem(t *testing.T) {
	_, err := newCalculator().Compute(context.Background(), zaragoza, models.ChartOptions{HouseSystem: "koch"})
	assert.ErrorIs(t, err, models.ErrInvalidInputRange)
}

func TestComputeIsDeterministic(t *testing.T) {
	calc := newCalculator()
	opts := models.ChartOptions{HouseSystem: models.Placidus, IncludeNodes: true}
	a, err := calc.Compute(context.Background(), zaragoza, opts)
	require.NoError(t, err)
	b, err := calc.Compute(context.Background(), zaragoza, opts)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestComputeCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newCalculator().Compute(ctx, zaragoza, models.ChartOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}

type failingEphemeris struct{ body models.Body }

func (f failingEphemeris) Evaluate(body models.Body, instant time.Time) (models.BodyPosition, error) {
	if body == f.body {
		return models.BodyPosition{}, errors.New("table corrupt")
	}
	return ephemeris.NewEvaluator().Evaluate(body, instant)
}

func TestComputeAbortsOnBodyFailure(t *testing.T) {
	calc := NewChartCalculator(failingEphemeris{body: models.Neptune}, houses.NewCalculator(), aspects.NewDetector(), 0)
	c, err := calc.Compute(context.Background(), zaragoza, models.ChartOptions{HouseSystem: models.Equal})
	assert.Nil(t, c)
	assert.EqualError(t, err, "table corrupt")
}

func TestWithBodyAnnotatesChartErrors(t *testing.T) {
	err := withBody(models.NewChartError(models.ErrInvalidHouseGeometry, models.StageAssign, "", "bad"), models.Moon)
	var ce *models.ChartError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, models.Moon, ce.Body)

	plain := errors.New("x")
	assert.Equal(t, plain, withBody(plain, models.Moon))
}
