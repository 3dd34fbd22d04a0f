package houses

import (
	"math"

	"NatalChart/internal/domain/models"
	"NatalChart/pkg/util"
)

// minCuspArc is the smallest forward arc accepted between consecutive cusps.
const minCuspArc = 1e-9

// ValidateCusps checks that the cusps advance strictly around the circle
// and close after house 12.
func ValidateCusps(cusps [12]float64) error {
	return validateCusps(cusps, models.StageHouses)
}

func validateCusps(cusps [12]float64, stage models.Stage) error {
	total := 0.0
	for i := range cusps {
		if !util.IsFinite(cusps[i]) || cusps[i] < 0 || cusps[i] >= 360 {
			return models.NewChartError(models.ErrInvalidHouseGeometry, stage, "",
				"cusp %d longitude %v", i+1, cusps[i])
		}
		arc := util.ForwardArc(cusps[i], cusps[(i+1)%12])
		if arc <= minCuspArc {
			return models.NewChartError(models.ErrInvalidHouseGeometry, stage, "",
				"house %d has zero width", i+1)
		}
		total += arc
	}
	if math.Abs(total-360) > 1e-6 {
		return models.NewChartError(models.ErrInvalidHouseGeometry, stage, "",
			"house widths sum to %.6f", total)
	}
	return nil
}

// AssignHouse returns the house (1..12) whose forward arc [cusp(n), cusp(n+1))
// contains lon. A longitude on a cusp belongs to the house that cusp opens.
func AssignHouse(lon float64, cusps [12]float64) (int, error) {
	if !util.IsFinite(lon) {
		return 0, models.NewChartError(models.ErrInvalidInputRange, models.StageAssign, "", "longitude %v", lon)
	}
	if err := validateCusps(cusps, models.StageAssign); err != nil {
		return 0, err
	}
	lon = util.Normalize360(lon)

	house, best := 0, math.Inf(1)
	for i, c := range cusps {
		if arc := util.ForwardArc(c, lon); arc < best {
			house, best = i+1, arc
		}
	}
	return house, nil
}
