// Package ephemeris computes geocentric ecliptic positions of the Sun, Moon,
// planets and mean lunar nodes from mean orbital elements with the principal
// periodic perturbations applied.
package ephemeris

import (
	"fmt"
	"time"

	"NatalChart/internal/domain/models"
	"NatalChart/pkg/util"
)

const (
	// epochJD is 2000 Jan 0.0 UT, the origin of the element day count.
	epochJD = 2451543.5

	// velocityHalfStep is the half-width (days) of the central difference used for velocity.
	velocityHalfStep = 0.5
)

var (
	// DefaultMinInstant and DefaultMaxInstant bound the interval where the
	// Pluto series and secular element rates stay within a fraction of a degree.
	DefaultMinInstant = time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)
	DefaultMaxInstant = time.Date(2100, time.January, 1, 0, 0, 0, 0, time.UTC)
)

// Evaluator implements service.Ephemeris. It is stateless apart from its
// configured range and safe for concurrent use.
type Evaluator struct {
	min time.Time
	max time.Time
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithRange narrows the supported interval [min, max). Bounds outside the
// default range are clamped to it.
func WithRange(min, max time.Time) Option {
	return func(e *Evaluator) {
		if min.After(DefaultMinInstant) {
			e.min = min.UTC()
		}
		if max.Before(DefaultMaxInstant) {
			e.max = max.UTC()
		}
	}
}

func NewEvaluator(opts ...Option) *Evaluator {
	e := &Evaluator{min: DefaultMinInstant, max: DefaultMaxInstant}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Range returns the supported interval [min, max).
func (e *Evaluator) Range() (time.Time, time.Time) { return e.min, e.max }

// Evaluate returns the position of body at instant.
func (e *Evaluator) Evaluate(body models.Body, instant time.Time) (models.BodyPosition, error) {
	if !body.IsValid() {
		return models.BodyPosition{}, models.NewChartError(models.ErrInvalidInputRange, models.StageEphemeris, body, "unknown body")
	}
	if instant.Before(e.min) || !instant.Before(e.max) {
		return models.BodyPosition{}, models.NewChartError(models.ErrOutOfRangeEpoch, models.StageEphemeris, body,
			"%s not in [%s, %s)", instant.UTC().Format(time.RFC3339), e.min.Format(time.RFC3339), e.max.Format(time.RFC3339))
	}

	d := util.JulianDay(instant) - epochJD
	pos := geocentric(body, d)
	ahead := geocentric(body, d+velocityHalfStep)
	behind := geocentric(body, d-velocityHalfStep)
	velocity := util.Normalize180(ahead.lon-behind.lon) / (2 * velocityHalfStep)

	out := models.BodyPosition{
		Body:      body,
		Longitude: util.Normalize360(pos.lon),
		Latitude:  pos.lat,
		Distance:  pos.r,
		Velocity:  velocity,
	}
	if !util.IsFinite(out.Longitude) || !util.IsFinite(out.Latitude) || !util.IsFinite(out.Distance) || !util.IsFinite(out.Velocity) {
		return models.BodyPosition{}, fmt.Errorf("evaluate %s: non-finite position", body)
	}
	return out, nil
}

// geocentric returns the apparent geocentric ecliptic position of body at day d.
func geocentric(body models.Body, d float64) spherical {
	t := elements()

	switch body {
	case models.Sun:
		s := t.sun.at(d).position()
		return spherical{lon: s.lon, lat: 0, r: s.r}
	case models.Moon:
		return t.moon(d)
	case models.NorthNode:
		return spherical{lon: t.meanNode(d)}
	case models.SouthNode:
		return spherical{lon: t.meanNode(d) + 180}
	}

	var helio spherical
	if body == models.Pluto {
		helio = pluto(d)
	} else {
		helio = t.orbits[body].at(d).position()
		a := t.outer(d)
		switch body {
		case models.Jupiter:
			helio.lon += jupiterLon(a)
		case models.Saturn:
			helio.lon += saturnLon(a)
			helio.lat += saturnLat(a)
		case models.Uranus:
			helio.lon += uranusLon(a)
		}
	}

	sun := t.sun.at(d).position()
	p := helio.rect()
	s := sun.rect()
	return rect{x: p.x + s.x, y: p.y + s.y, z: p.z}.spherical()
}
