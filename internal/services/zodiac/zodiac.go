// Package zodiac maps ecliptic longitudes onto the twelve tropical signs.
package zodiac

import (
	"math"

	"NatalChart/internal/domain/models"
	"NatalChart/pkg/util"
)

const signWidth = 30.0

// ToSignDegree returns the sign containing lon and the degree within it.
func ToSignDegree(lon float64) (models.SignPlacement, error) {
	if !util.IsFinite(lon) {
		return models.SignPlacement{}, models.NewChartError(models.ErrInvalidInputRange, models.StageSigns, "", "longitude %v", lon)
	}
	lon = util.Normalize360(lon)
	idx := int(math.Floor(lon/signWidth)) % 12
	deg := lon - float64(idx)*signWidth
	if deg < 0 {
		deg = 0
	}
	if deg >= signWidth {
		deg = math.Nextafter(signWidth, 0)
	}
	return models.SignPlacement{Sign: models.Signs[idx], Degree: deg}, nil
}

// Longitude is the inverse of ToSignDegree.
func Longitude(p models.SignPlacement) float64 {
	idx := p.Sign.Index()
	if idx < 0 {
		return math.NaN()
	}
	return float64(idx)*signWidth + p.Degree
}

// SignOf returns the sign containing lon, or "" when lon is not finite.
func SignOf(lon float64) models.Sign {
	p, err := ToSignDegree(lon)
	if err != nil {
		return ""
	}
	return p.Sign
}
