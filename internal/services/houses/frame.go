// Package houses derives sidereal time, the chart angles and the twelve house
// cusps, and assigns ecliptic longitudes to houses.
package houses

import (
	"math"
	"time"

	"NatalChart/internal/domain/models"
	"NatalChart/pkg/util"
)

const (
	j2000JD       = 2451545.0
	elementsEpoch = 2451543.5
)

// Frame is the local sky at an instant: everything a house system needs.
type Frame struct {
	Instant   time.Time
	Latitude  float64
	Longitude float64
	RAMC      float64 // local sidereal time as an angle, degrees
	Obliquity float64
	Midheaven float64
	Ascendant float64
}

// NewFrame computes sidereal time, obliquity and the chart angles.
func NewFrame(instant time.Time, lat, lon float64) (Frame, error) {
	if !util.IsFinite(lat) || lat < -90 || lat > 90 {
		return Frame{}, models.NewChartError(models.ErrInvalidInputRange, models.StageHouses, "", "latitude %v", lat)
	}
	if !util.IsFinite(lon) || lon < -180 || lon > 180 {
		return Frame{}, models.NewChartError(models.ErrInvalidInputRange, models.StageHouses, "", "longitude %v", lon)
	}

	jd := util.JulianDay(instant)
	ramc := util.Normalize360(GreenwichSidereal(jd) + lon)
	eps := Obliquity(jd)

	f := Frame{
		Instant:   instant.UTC(),
		Latitude:  lat,
		Longitude: lon,
		RAMC:      ramc,
		Obliquity: eps,
		Midheaven: midheaven(ramc, eps),
	}
	f.Ascendant = ascendant(ramc, eps, lat, f.Midheaven)
	return f, nil
}

// GreenwichSidereal returns Greenwich mean sidereal time in degrees (IAU 1982).
func GreenwichSidereal(jd float64) float64 {
	t := (jd - j2000JD) / 36525
	gmst := 280.46061837 + 360.98564736629*(jd-j2000JD) + 0.000387933*t*t - t*t*t/38710000
	return util.Normalize360(gmst)
}

// Obliquity returns the mean obliquity of the ecliptic of date in degrees.
func Obliquity(jd float64) float64 {
	return 23.4393 - 3.563e-7*(jd-elementsEpoch)
}

func midheaven(ramc, eps float64) float64 {
	return util.Normalize360(util.Atan2D(util.SinD(ramc), util.CosD(ramc)*util.CosD(eps)))
}

// ascendant is kept on the eastern side: within the forward half circle from the MC.
func ascendant(ramc, eps, lat, mc float64) float64 {
	asc := util.Normalize360(util.Atan2D(
		util.CosD(ramc),
		-(util.SinD(ramc)*util.CosD(eps) + util.TanD(lat)*util.SinD(eps)),
	))
	if arc := util.ForwardArc(mc, asc); arc <= 0 || arc >= 180 {
		asc = util.Normalize360(asc + 180)
	}
	return asc
}

// eclipticOfRA projects a right ascension on the ecliptic and returns
// the ecliptic longitude and its declination.
func eclipticOfRA(ra, eps float64) (lon, dec float64) {
	lon = util.Normalize360(util.Atan2D(util.SinD(ra), util.CosD(ra)*util.CosD(eps)))
	dec = util.AsinD(util.SinD(eps) * util.SinD(lon))
	return lon, dec
}

// ascensionalDifference returns asin(tan φ · tan δ) and false when it has no solution.
func ascensionalDifference(lat, dec float64) (float64, bool) {
	x := util.TanD(lat) * util.TanD(dec)
	if math.Abs(x) > 1 || !util.IsFinite(x) {
		return 0, false
	}
	return util.AsinD(x), true
}
