package houses

import (
	"context"

	"NatalChart/internal/domain/models"
	"NatalChart/pkg/util"
)

// equal: thirty-degree houses from the Ascendant.
type equal struct{}

func (equal) Name() models.HouseSystemName { return models.Equal }

func (equal) Cusps(_ context.Context, f Frame) ([12]float64, error) {
	return stepFrom(f.Ascendant), nil
}

// wholeSign: each house is a whole sign, the first being the rising sign.
type wholeSign struct{}

func (wholeSign) Name() models.HouseSystemName { return models.WholeSign }

func (wholeSign) Cusps(_ context.Context, f Frame) ([12]float64, error) {
	start := float64(int(f.Ascendant/30)) * 30
	return stepFrom(start), nil
}

// porphyry trisects each quadrant between the angles.
type porphyry struct{}

func (porphyry) Name() models.HouseSystemName { return models.Porphyry }

func (porphyry) Cusps(_ context.Context, f Frame) ([12]float64, error) {
	upper := util.ForwardArc(f.Midheaven, f.Ascendant)
	lower := 180 - upper
	return withOpposites(
		f.Ascendant,
		util.Normalize360(f.Ascendant+lower/3),
		util.Normalize360(f.Ascendant+2*lower/3),
		f.Midheaven,
		util.Normalize360(f.Midheaven+upper/3),
		util.Normalize360(f.Midheaven+2*upper/3),
	), nil
}

func stepFrom(start float64) [12]float64 {
	var c [12]float64
	for i := range c {
		c[i] = util.Normalize360(start + 30*float64(i))
	}
	return c
}

func opposite(lon float64) float64 { return util.Normalize360(lon + 180) }
