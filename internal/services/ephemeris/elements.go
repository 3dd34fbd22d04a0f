package ephemeris

import (
	"sync"

	"NatalChart/internal/domain/models"
)

// element is a linear function of the day number d (days since 2000 Jan 0.0 UT).
type element struct {
	base float64
	rate float64
}

func (e element) at(d float64) float64 { return e.base + e.rate*d }

// orbit holds mean orbital elements referred to the ecliptic and equinox of date.
//
//	N: longitude of the ascending node (deg)
//	I: inclination (deg)
//	W: argument of perihelion (deg)
//	A: semi-major axis (AU, Earth radii for the Moon)
//	E: eccentricity
//	M: mean anomaly (deg)
type orbit struct {
	N, I, W, A, E, M element
}

type elementSet struct {
	N, I, W, A, E, M float64
}

func (o orbit) at(d float64) elementSet {
	return elementSet{
		N: o.N.at(d),
		I: o.I.at(d),
		W: o.W.at(d),
		A: o.A.at(d),
		E: o.E.at(d),
		M: o.M.at(d),
	}
}

type elementTable struct {
	sun    orbit
	orbits map[models.Body]orbit
}

var (
	tableOnce sync.Once
	table     *elementTable
)

// elements returns the process-wide element table, built on first use.
func elements() *elementTable {
	tableOnce.Do(func() {
		table = &elementTable{
			sun: orbit{
				W: element{282.9404, 4.70935e-5},
				A: element{1.0, 0},
				E: element{0.016709, -1.151e-9},
				M: element{356.0470, 0.9856002585},
			},
			orbits: map[models.Body]orbit{
				models.Moon: {
					N: element{125.1228, -0.0529538083},
					I: element{5.1454, 0},
					W: element{318.0634, 0.1643573223},
					A: element{60.2666, 0},
					E: element{0.054900, 0},
					M: element{115.3654, 13.0649929509},
				},
				models.Mercury: {
					N: element{48.3313, 3.24587e-5},
					I: element{7.0047, 5.00e-8},
					W: element{29.1241, 1.01444e-5},
					A: element{0.387098, 0},
					E: element{0.205635, 5.59e-10},
					M: element{168.6562, 4.0923344368},
				},
				models.Venus: {
					N: element{76.6799, 2.46590e-5},
					I: element{3.3946, 2.75e-8},
					W: element{54.8910, 1.38374e-5},
					A: element{0.723330, 0},
					E: element{0.006773, -1.302e-9},
					M: element{48.0052, 1.6021302244},
				},
				models.Mars: {
					N: element{49.5574, 2.11081e-5},
					I: element{1.8497, -1.78e-8},
					W: element{286.5016, 2.92961e-5},
					A: element{1.523688, 0},
					E: element{0.093405, 2.516e-9},
					M: element{18.6021, 0.5240207766},
				},
				models.Jupiter: {
					N: element{100.4542, 2.76854e-5},
					I: element{1.3030, -1.557e-7},
					W: element{273.8777, 1.64505e-5},
					A: element{5.20256, 0},
					E: element{0.048498, 4.469e-9},
					M: element{19.8950, 0.0830853001},
				},
				models.Saturn: {
					N: element{113.6634, 2.38980e-5},
					I: element{2.4886, -1.081e-7},
					W: element{339.3939, 2.97661e-5},
					A: element{9.55475, 0},
					E: element{0.055546, -9.499e-9},
					M: element{316.9670, 0.0334442282},
				},
				models.Uranus: {
					N: element{74.0005, 1.3978e-5},
					I: element{0.7733, 1.9e-8},
					W: element{96.6612, 3.0565e-5},
					A: element{19.18171, -1.55e-8},
					E: element{0.047318, 7.45e-9},
					M: element{142.5905, 0.011725806},
				},
				models.Neptune: {
					N: element{131.7806, 3.0173e-5},
					I: element{1.7700, -2.55e-7},
					W: element{272.8461, -6.027e-6},
					A: element{30.05826, 3.313e-8},
					E: element{0.008606, 2.15e-9},
					M: element{260.2471, 0.005995147},
				},
			},
		}
	})
	return table
}
