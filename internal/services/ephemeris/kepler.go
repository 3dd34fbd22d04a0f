package ephemeris

import (
	"math"

	"NatalChart/pkg/util"
)

const (
	keplerTolerance = 1e-12
	keplerMaxIter   = 50
)

// eccentricAnomaly solves Kepler's equation M = E - e·sin E by Newton iteration.
// M and the result are in radians.
func eccentricAnomaly(m, e float64) float64 {
	E := m + e*math.Sin(m)*(1+e*math.Cos(m))
	for i := 0; i < keplerMaxIter; i++ {
		dE := (E - e*math.Sin(E) - m) / (1 - e*math.Cos(E))
		E -= dE
		if math.Abs(dE) < keplerTolerance {
			break
		}
	}
	return E
}

// spherical is an ecliptic position: longitude/latitude in degrees, radius in the orbit's unit.
type spherical struct {
	lon, lat, r float64
}

type rect struct {
	x, y, z float64
}

func (s spherical) rect() rect {
	cl := util.CosD(s.lat)
	return rect{
		x: s.r * util.CosD(s.lon) * cl,
		y: s.r * util.SinD(s.lon) * cl,
		z: s.r * util.SinD(s.lat),
	}
}

func (p rect) spherical() spherical {
	return spherical{
		lon: util.Atan2D(p.y, p.x),
		lat: util.Atan2D(p.z, math.Hypot(p.x, p.y)),
		r:   math.Sqrt(p.x*p.x + p.y*p.y + p.z*p.z),
	}
}

// position projects an orbit onto the ecliptic around its central body.
func (el elementSet) position() spherical {
	E := eccentricAnomaly(util.Rad(util.Normalize360(el.M)), el.E)
	xv := el.A * (math.Cos(E) - el.E)
	yv := el.A * math.Sqrt(1-el.E*el.E) * math.Sin(E)
	v := util.Deg(math.Atan2(yv, xv))
	r := math.Hypot(xv, yv)

	vw := v + el.W
	sN, cN := util.SinD(el.N), util.CosD(el.N)
	sVW, cVW := util.SinD(vw), util.CosD(vw)
	cI := util.CosD(el.I)
	p := rect{
		x: r * (cN*cVW - sN*sVW*cI),
		y: r * (sN*cVW + cN*sVW*cI),
		z: r * (sVW * util.SinD(el.I)),
	}
	return p.spherical()
}
