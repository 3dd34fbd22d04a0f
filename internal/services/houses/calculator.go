package houses

import (
	"context"
	"time"

	"NatalChart/internal/domain/models"
)

// Calculator computes the angles and cusps for any registered house system.
type Calculator struct{}

func NewCalculator() *Calculator { return &Calculator{} }

// Compute returns the houses of system at instant and location. The cusp
// ordering is verified before returning.
func (c *Calculator) Compute(ctx context.Context, instant time.Time, lat, lon float64, system models.HouseSystemName) (models.Houses, error) {
	sys, ok := Lookup(system)
	if !ok {
		return models.Houses{}, models.NewChartError(models.ErrInvalidInputRange, models.StageHouses, "",
			"unknown house system %q", system)
	}
	f, err := NewFrame(instant, lat, lon)
	if err != nil {
		return models.Houses{}, err
	}
	cusps, err := sys.Cusps(ctx, f)
	if err != nil {
		return models.Houses{}, err
	}
	if err := ValidateCusps(cusps); err != nil {
		return models.Houses{}, err
	}

	out := models.Houses{
		System:    sys.Name(),
		Ascendant: f.Ascendant,
		Midheaven: f.Midheaven,
	}
	for i, lon := range cusps {
		out.Cusps[i] = models.HouseCusp{House: i + 1, Longitude: lon}
	}
	return out, nil
}
