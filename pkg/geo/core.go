// pkg/geo/core.go
package geo

import gomath "math"

const (
	Pi       = gomath.Pi
	PiOver2  = Pi / 2
	PiOver4  = Pi / 4
	Sqrt2    = 1.41421356237309504880168872420969807856967187537694807317667974
)

// Number is the constraint used by the small numeric helpers below; it
// covers every type NM/heading/altitude arithmetic in this package is
// done in, without pulling in golang.org/x/exp/constraints.
type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 | ~float32 | ~float64
}

func Sqrt(f float32) float32 { return float32(gomath.Sqrt(float64(f))) }
func Sin(f float32) float32  { return float32(gomath.Sin(float64(f))) }
func Cos(f float32) float32  { return float32(gomath.Cos(float64(f))) }
func Atan2(y, x float32) float32 {
	return float32(gomath.Atan2(float64(y), float64(x)))
}

func Mod(a, b float32) float32 { return float32(gomath.Mod(float64(a), float64(b))) }

func Sign[V Number](v V) V {
	if v > 0 {
		return 1
	} else if v < 0 {
		return -1
	}
	return 0
}

func Floor(f float32) float32 { return float32(gomath.Floor(float64(f))) }
func Ceil(f float32) float32  { return float32(gomath.Ceil(float64(f))) }

func Abs[V Number](v V) V {
	if v < 0 {
		return -v
	}
	return v
}

func Sqr[V Number](v V) V { return v * v }

func Pow(base, exp float32) float32 { return float32(gomath.Pow(float64(base), float64(exp))) }

// Clamp constrains v to the range [low, high].
func Clamp[T cmpOrdered](v, low, high T) T {
	if v < low {
		return low
	} else if v > high {
		return high
	}
	return v
}

// cmpOrdered mirrors cmp.Ordered but is restated locally so this file
// doesn't need to import "cmp" just for this one constraint.
type cmpOrdered interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64 | ~string
}

// Lerp linearly interpolates between a (t=0) and b (t=1).
func Lerp(t, a, b float32) float32 {
	return (1-t)*a + t*b
}

func Degrees(r float32) float32 { return r * 180 / Pi }
func Radians(d float32) float32 { return d / 180 * Pi }

///////////////////////////////////////////////////////////////////////////
// small 2-vector helpers used throughout the package

func Add2f(a, b [2]float32) [2]float32   { return [2]float32{a[0] + b[0], a[1] + b[1]} }
func Sub2f(a, b [2]float32) [2]float32   { return [2]float32{a[0] - b[0], a[1] - b[1]} }
func Mid2f(a, b [2]float32) [2]float32   { return Scale2f(Add2f(a, b), 0.5) }
func Scale2f(a [2]float32, s float32) [2]float32 {
	return [2]float32{a[0] * s, a[1] * s}
}
func Dot(a, b [2]float32) float32 { return a[0]*b[0] + a[1]*b[1] }
func Length2f(a [2]float32) float32 { return Sqrt(Dot(a, a)) }
func Distance2f(a, b [2]float32) float32 { return Length2f(Sub2f(a, b)) }
