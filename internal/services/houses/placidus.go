package houses

import (
	"context"
	"math"

	"NatalChart/internal/domain/models"
	"NatalChart/pkg/util"
)

const (
	placidusMaxIter   = 100
	placidusTolerance = 1e-9
)

// placidus divides the diurnal and nocturnal semi-arcs of each cusp's
// own declination in thirds.
type placidus struct{}

func (placidus) Name() models.HouseSystemName { return models.Placidus }

func (p placidus) Cusps(ctx context.Context, f Frame) ([12]float64, error) {
	if math.Abs(f.Latitude) >= 90-f.Obliquity {
		return [12]float64{}, models.NewChartError(models.ErrHouseSystemUndefined, models.StageHouses, "",
			"placidus: latitude %.4f beyond polar limit %.4f", f.Latitude, 90-f.Obliquity)
	}

	var out [4]float64
	specs := []struct {
		house    int
		fraction float64
		night    bool
	}{
		{11, 1.0 / 3, false},
		{12, 2.0 / 3, false},
		{2, 2.0 / 3, true},
		{3, 1.0 / 3, true},
	}
	for i, s := range specs {
		lon, err := p.cusp(ctx, f, s.fraction, s.night)
		if err != nil {
			return [12]float64{}, err
		}
		if !util.IsFinite(lon) {
			return [12]float64{}, models.NewChartError(models.ErrHouseSystemUndefined, models.StageHouses, "",
				"placidus: cusp %d not finite", s.house)
		}
		out[i] = lon
	}
	return withOpposites(f.Ascendant, out[2], out[3], f.Midheaven, out[0], out[1]), nil
}

// cusp iterates on the right ascension whose semi-arc fraction lands on itself.
// Day cusps: RA = RAMC + F·SDA. Night cusps: RA = RAMC + 180 − F·SNA.
func (placidus) cusp(ctx context.Context, f Frame, fraction float64, night bool) (float64, error) {
	var ra float64
	if night {
		ra = util.Normalize360(f.RAMC + 180 - fraction*90)
	} else {
		ra = util.Normalize360(f.RAMC + fraction*90)
	}
	for i := 0; i < placidusMaxIter; i++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		_, dec := eclipticOfRA(ra, f.Obliquity)
		ad, ok := ascensionalDifference(f.Latitude, dec)
		if !ok {
			return 0, models.NewChartError(models.ErrHouseSystemUndefined, models.StageHouses, "",
				"placidus: no ascensional difference at declination %.4f", dec)
		}
		var next float64
		if night {
			next = util.Normalize360(f.RAMC + 180 - fraction*(90-ad))
		} else {
			next = util.Normalize360(f.RAMC + fraction*(90+ad))
		}
		delta := math.Abs(util.Normalize180(next - ra))
		ra = next
		if delta < placidusTolerance {
			lon, _ := eclipticOfRA(ra, f.Obliquity)
			return lon, nil
		}
	}
	return 0, models.NewChartError(models.ErrHouseSystemUndefined, models.StageHouses, "",
		"placidus: no convergence after %d iterations", placidusMaxIter)
}
