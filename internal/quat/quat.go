// Package quat implements the quaternion operations the mixer needs:
// Hamilton product, inverse, normalization, and hemisphere-corrected
// linear interpolation in the [x, y, z, w] convention.
package quat

import "math"

// Quat is a unit quaternion stored as [x, y, z, w].
type Quat struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	W float64 `json:"w"`
}

// Identity is the zero-rotation quaternion.
var Identity = Quat{0, 0, 0, 1}

// New builds a Quat from four components.
func New(x, y, z, w float64) Quat {
	return Quat{X: x, Y: y, Z: z, W: w}
}

// Array returns the [x, y, z, w] wire representation.
func (q Quat) Array() [4]float64 {
	return [4]float64{q.X, q.Y, q.Z, q.W}
}

// Mul returns the Hamilton product a*b.
func (a Quat) Mul(b Quat) Quat {
	return Quat{
		X: a.W*b.X + a.X*b.W + a.Y*b.Z - a.Z*b.Y,
		Y: a.W*b.Y - a.X*b.Z + a.Y*b.W + a.Z*b.X,
		Z: a.W*b.Z + a.X*b.Y - a.Y*b.X + a.Z*b.W,
		W: a.W*b.W - a.X*b.X - a.Y*b.Y - a.Z*b.Z,
	}
}

// Inverse returns the conjugate, valid for unit quaternions.
func (q Quat) Inverse() Quat {
	return Quat{X: -q.X, Y: -q.Y, Z: -q.Z, W: q.W}
}

// Dot returns the componentwise dot product.
func (a Quat) Dot(b Quat) float64 {
	return a.X*b.X + a.Y*b.Y + a.Z*b.Z + a.W*b.W
}

func (q Quat) magnitude() float64 {
	return math.Sqrt(q.Dot(q))
}

// degenerateEpsilon is the magnitude below which a quaternion is treated
// as degenerate and replaced with Identity.
const degenerateEpsilon = 1e-10

// Normalize divides by magnitude, falling back to Identity when the
// magnitude is too small to divide safely.
func (q Quat) Normalize() Quat {
	m := q.magnitude()
	if m < degenerateEpsilon {
		return Identity
	}
	return Quat{X: q.X / m, Y: q.Y / m, Z: q.Z / m, W: q.W / m}
}

// Nlerp interpolates from a to b at parameter t in [0,1], taking the
// hemisphere-corrected shortest path and normalizing the result.
func Nlerp(a, b Quat, t float64) Quat {
	if a.Dot(b) < 0 {
		b = Quat{X: -b.X, Y: -b.Y, Z: -b.Z, W: -b.W}
	}
	return Quat{
		X: a.X + (b.X-a.X)*t,
		Y: a.Y + (b.Y-a.Y)*t,
		Z: a.Z + (b.Z-a.Z)*t,
		W: a.W + (b.W-a.W)*t,
	}.Normalize()
}

// FromEulerDeg builds a quaternion from intrinsic X-Y-Z Euler angles in
// degrees, the convention used by the synthetic preset generator.
func FromEulerDeg(xDeg, yDeg, zDeg float64) Quat {
	hx := xDeg * math.Pi / 180 / 2
	hy := yDeg * math.Pi / 180 / 2
	hz := zDeg * math.Pi / 180 / 2

	cx, sx := math.Cos(hx), math.Sin(hx)
	cy, sy := math.Cos(hy), math.Sin(hy)
	cz, sz := math.Cos(hz), math.Sin(hz)

	return Quat{
		X: sx*cy*cz - cx*sy*sz,
		Y: cx*sy*cz + sx*cy*sz,
		Z: cx*cy*sz - sx*sy*cz,
		W: cx*cy*cz + sx*sy*sz,
	}
}
