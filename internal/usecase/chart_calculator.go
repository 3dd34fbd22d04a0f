package usecase

import (
	"context"
	"errors"
	"runtime"

	"golang.org/x/sync/errgroup"

	"NatalChart/internal/domain/models"
	domsvc "NatalChart/internal/domain/service"
	"NatalChart/internal/services/houses"
	"NatalChart/internal/services/zodiac"
	"NatalChart/pkg/util"
)

// ChartCalculator composes the engine stages into a complete chart.
// It holds no per-request state and is safe for concurrent use.
type ChartCalculator struct {
	ephemeris domsvc.Ephemeris
	houses    domsvc.HouseCalculator
	aspects   domsvc.AspectDetector
	workers   int
}

func NewChartCalculator(eph domsvc.Ephemeris, hc domsvc.HouseCalculator, ad domsvc.AspectDetector, workers int) *ChartCalculator {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &ChartCalculator{ephemeris: eph, houses: hc, aspects: ad, workers: workers}
}

// Compute evaluates every body concurrently alongside the houses, then maps
// signs, assigns houses and detects aspects. Any failure aborts the chart.
func (c *ChartCalculator) Compute(ctx context.Context, in models.ChartInput, opts models.ChartOptions) (*models.Chart, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	opts = withDefaults(opts)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bodies := models.BodySet(opts.IncludeNodes)
	positions := make([]models.BodyPosition, len(bodies))
	var hs models.Houses

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	g.Go(func() error {
		var err error
		hs, err = c.computeHouses(gctx, in, opts)
		return err
	})
	for i, body := range bodies {
		i, body := i, body
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			p, err := c.ephemeris.Evaluate(body, in.Instant)
			if err != nil {
				return err
			}
			positions[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	cusps := hs.Longitudes()
	chart := &models.Chart{
		Input:       in,
		HouseSystem: hs.System,
		Ascendant:   hs.Ascendant,
		Midheaven:   hs.Midheaven,
		Cusps:       hs.Cusps,
		Positions:   positions,
		Signs:       make(map[models.Body]models.SignPlacement, len(positions)),
		Houses:      make([]models.HousePlacement, 0, len(positions)),
	}
	for _, p := range positions {
		sp, err := zodiac.ToSignDegree(p.Longitude)
		if err != nil {
			return nil, withBody(err, p.Body)
		}
		chart.Signs[p.Body] = sp

		house, err := houses.AssignHouse(p.Longitude, cusps)
		if err != nil {
			return nil, withBody(err, p.Body)
		}
		chart.Houses = append(chart.Houses, models.HousePlacement{Body: p.Body, House: house})
	}

	aspects, err := c.aspects.Detect(positions, opts.Orbs)
	if err != nil {
		return nil, err
	}
	chart.Aspects = aspects
	return chart, nil
}

// computeHouses falls back to opts.FallbackHouseSystem when the requested
// system has no solution at this location.
func (c *ChartCalculator) computeHouses(ctx context.Context, in models.ChartInput, opts models.ChartOptions) (models.Houses, error) {
	hs, err := c.houses.Compute(ctx, in.Instant, in.Latitude, in.Longitude, opts.HouseSystem)
	if err == nil {
		return hs, nil
	}
	if !errors.Is(err, models.ErrHouseSystemUndefined) || opts.FallbackHouseSystem == "" || opts.FallbackHouseSystem == opts.HouseSystem {
		return models.Houses{}, err
	}
	return c.houses.Compute(ctx, in.Instant, in.Latitude, in.Longitude, opts.FallbackHouseSystem)
}

func validateInput(in models.ChartInput) error {
	if in.Instant.IsZero() {
		return models.NewChartError(models.ErrInvalidInputRange, models.StageInput, "", "instant is required")
	}
	if !util.IsFinite(in.Latitude) || in.Latitude < -90 || in.Latitude > 90 {
		return models.NewChartError(models.ErrInvalidInputRange, models.StageInput, "", "latitude %v not in [-90, 90]", in.Latitude)
	}
	if !util.IsFinite(in.Longitude) || in.Longitude < -180 || in.Longitude > 180 {
		return models.NewChartError(models.ErrInvalidInputRange, models.StageInput, "", "longitude %v not in [-180, 180]", in.Longitude)
	}
	return nil
}

func withDefaults(opts models.ChartOptions) models.ChartOptions {
	if opts.HouseSystem == "" {
		opts.HouseSystem = models.Placidus
	}
	if opts.Orbs == nil {
		opts.Orbs = models.DefaultOrbTable()
	}
	return opts
}

func withBody(err error, body models.Body) error {
	var ce *models.ChartError
	if errors.As(err, &ce) && ce.Body == "" {
		return &models.ChartError{Kind: ce.Kind, Stage: ce.Stage, Body: body, Msg: ce.Msg}
	}
	return err
}
