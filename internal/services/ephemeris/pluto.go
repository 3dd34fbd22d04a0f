package ephemeris

import "NatalChart/pkg/util"

// precessionPerDay converts J2000 ecliptic longitudes to the equinox of date.
const precessionPerDay = 3.82394e-5

// pluto evaluates a periodic fit of Pluto's heliocentric orbit (AU),
// valid roughly 1885–2099, and precesses it to the equinox of date.
func pluto(d float64) spherical {
	S := 50.03 + 0.033459652*d
	P := 238.95 + 0.003968789*d

	lon := 238.9508 + 0.00400703*d -
		19.799*util.SinD(P) + 19.848*util.CosD(P) +
		0.897*util.SinD(2*P) - 4.956*util.CosD(2*P) +
		0.610*util.SinD(3*P) + 1.211*util.CosD(3*P) -
		0.341*util.SinD(4*P) - 0.190*util.CosD(4*P) +
		0.128*util.SinD(5*P) - 0.034*util.CosD(5*P) -
		0.038*util.SinD(6*P) + 0.031*util.CosD(6*P) +
		0.020*util.SinD(S-P) - 0.010*util.CosD(S-P)

	lat := -3.9082 -
		5.453*util.SinD(P) - 14.975*util.CosD(P) +
		3.527*util.SinD(2*P) + 1.673*util.CosD(2*P) -
		1.051*util.SinD(3*P) + 0.328*util.CosD(3*P) +
		0.179*util.SinD(4*P) - 0.292*util.CosD(4*P) +
		0.019*util.SinD(5*P) + 0.100*util.CosD(5*P) -
		0.031*util.SinD(6*P) - 0.026*util.CosD(6*P) +
		0.011*util.CosD(S-P)

	r := 40.72 +
		6.68*util.SinD(P) + 6.90*util.CosD(P) -
		1.18*util.SinD(2*P) - 0.03*util.CosD(2*P) +
		0.15*util.SinD(3*P) - 0.14*util.CosD(3*P)

	return spherical{lon: lon + precessionPerDay*d, lat: lat, r: r}
}
