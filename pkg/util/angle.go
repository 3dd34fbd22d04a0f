package util

import "math"

const (
	deg2rad = math.Pi / 180
	rad2deg = 180 / math.Pi
)

// Normalize360 maps any finite angle into [0,360).
func Normalize360(deg float64) float64 {
	x := math.Mod(deg, 360)
	if x < 0 {
		x += 360
	}
	// -tiny + 360 rounds to 360 in float64
	if x >= 360 {
		x = 0
	}
	return x
}

// Normalize180 maps any finite angle into (-180,180].
func Normalize180(deg float64) float64 {
	x := Normalize360(deg)
	if x > 180 {
		x -= 360
	}
	return x
}

// ForwardArc returns the forward circular distance from a to b in [0,360).
func ForwardArc(a, b float64) float64 {
	return Normalize360(b - a)
}

// Separation returns the shortest circular distance between a and b in [0,180].
func Separation(a, b float64) float64 {
	d := math.Abs(Normalize360(a) - Normalize360(b))
	if d > 180 {
		d = 360 - d
	}
	return d
}

// IsFinite reports whether x is neither NaN nor infinite.
func IsFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

func Rad(deg float64) float64 { return deg * deg2rad }
func Deg(rad float64) float64 { return rad * rad2deg }

func SinD(deg float64) float64 { return math.Sin(deg * deg2rad) }
func CosD(deg float64) float64 { return math.Cos(deg * deg2rad) }
func TanD(deg float64) float64 { return math.Tan(deg * deg2rad) }

// Atan2D returns atan2(y, x) in degrees.
func Atan2D(y, x float64) float64 { return math.Atan2(y, x) * rad2deg }

// AsinD returns asin(x) in degrees.
func AsinD(x float64) float64 { return math.Asin(x) * rad2deg }
