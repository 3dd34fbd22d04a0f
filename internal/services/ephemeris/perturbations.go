package ephemeris

import (
	"NatalChart/internal/domain/models"
	"NatalChart/pkg/util"
)

const (
	earthRadiusKm = 6378.14
	auKm          = 149597870.7
)

// anomalies of the three outer planets that drive the mutual perturbations.
type outerAnomalies struct {
	jupiter, saturn, uranus float64
}

func (t *elementTable) outer(d float64) outerAnomalies {
	return outerAnomalies{
		jupiter: t.orbits[models.Jupiter].M.at(d),
		saturn:  t.orbits[models.Saturn].M.at(d),
		uranus:  t.orbits[models.Uranus].M.at(d),
	}
}

func jupiterLon(a outerAnomalies) float64 {
	mj, ms := a.jupiter, a.saturn
	return -0.332*util.SinD(2*mj-5*ms-67.6) -
		0.056*util.SinD(2*mj-2*ms+21) +
		0.042*util.SinD(3*mj-5*ms+21) -
		0.036*util.SinD(mj-2*ms) +
		0.022*util.CosD(mj-ms) +
		0.023*util.SinD(2*mj-3*ms+52) -
		0.016*util.SinD(mj-5*ms-69)
}

func saturnLon(a outerAnomalies) float64 {
	mj, ms := a.jupiter, a.saturn
	return 0.812*util.SinD(2*mj-5*ms-67.6) -
		0.229*util.CosD(2*mj-4*ms-2) +
		0.119*util.SinD(mj-2*ms-3) +
		0.046*util.SinD(2*mj-6*ms-69) +
		0.014*util.SinD(mj-3*ms+32)
}

func saturnLat(a outerAnomalies) float64 {
	mj, ms := a.jupiter, a.saturn
	return -0.020*util.CosD(2*mj-4*ms-2) +
		0.018*util.SinD(2*mj-6*ms-49)
}

func uranusLon(a outerAnomalies) float64 {
	mj, ms, mu := a.jupiter, a.saturn, a.uranus
	return 0.040*util.SinD(ms-2*mu+6) +
		0.035*util.SinD(ms-3*mu+33) -
		0.015*util.SinD(mj-mu+20)
}

// moon returns the geocentric ecliptic position of the Moon with the
// principal periodic terms applied. Distance is in AU.
func (t *elementTable) moon(d float64) spherical {
	m := t.orbits[models.Moon].at(d)
	s := t.sun.at(d)
	pos := m.position()

	ms, mm := s.M, m.M
	ls := ms + s.W
	lm := mm + m.W + m.N
	D := lm - ls
	F := lm - m.N

	pos.lon += -1.274*util.SinD(mm-2*D) +
		0.658*util.SinD(2*D) -
		0.186*util.SinD(ms) -
		0.059*util.SinD(2*mm-2*D) -
		0.057*util.SinD(mm-2*D+ms) +
		0.053*util.SinD(mm+2*D) +
		0.046*util.SinD(2*D-ms) +
		0.041*util.SinD(mm-ms) -
		0.035*util.SinD(D) -
		0.031*util.SinD(mm+ms) -
		0.015*util.SinD(2*F-2*D) +
		0.011*util.SinD(mm-4*D)

	pos.lat += -0.173*util.SinD(F-2*D) -
		0.055*util.SinD(mm-F-2*D) -
		0.046*util.SinD(mm+F-2*D) +
		0.033*util.SinD(F+2*D) +
		0.017*util.SinD(2*mm+F)

	pos.r += -0.58*util.CosD(mm-2*D) - 0.46*util.CosD(2*D)
	pos.r *= earthRadiusKm / auKm
	return pos
}

// meanNode is the longitude of the Moon's mean ascending node.
func (t *elementTable) meanNode(d float64) float64 {
	return t.orbits[models.Moon].N.at(d)
}
