package geom

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Quat is a rotation quaternion. Real is w; Imag, Jmag, Kmag are x, y, z.
// The zero value is not a rotation; use Identity.
type Quat = quat.Number

// Identity returns the rotation that leaves every vector unchanged.
func Identity() Quat {
	return Quat{Real: 1}
}

// Rotate applies q to v.
func Rotate(q Quat, v Vec3) Vec3 {
	return r3.Rotation(q).Rotate(v)
}

// Mul composes rotations: the result applies b first, then a.
func Mul(a, b Quat) Quat {
	return quat.Mul(a, b)
}

// AngleAxis returns a rotation of deg degrees around axis.
// A zero axis yields the identity.
func AngleAxis(deg float64, axis Vec3) Quat {
	axis = Normalize(axis)
	if IsZero(axis) {
		return Identity()
	}
	sin, cos := math.Sincos(0.5 * deg * deg2Rad)
	return Quat{Real: cos, Imag: axis.X * sin, Jmag: axis.Y * sin, Kmag: axis.Z * sin}
}

// NormalizeQuat returns q scaled to unit length, or the identity for a zero quaternion.
func NormalizeQuat(q Quat) Quat {
	n := quat.Abs(q)
	if n < 1e-12 {
		return Identity()
	}
	return quat.Scale(1/n, q)
}

func quatDot(a, b Quat) float64 {
	return a.Real*b.Real + a.Imag*b.Imag + a.Jmag*b.Jmag + a.Kmag*b.Kmag
}

// QuatAngle returns the angle in degrees between two rotations. Rotations closer
// than float noise report 0; a zero quaternion reports 180 against any rotation.
func QuatAngle(a, b Quat) float64 {
	dot := math.Min(math.Abs(quatDot(a, b)), 1)
	if dot > 1-1e-6 {
		return 0
	}
	return math.Acos(dot) * 2 * rad2Deg
}

// QuatSlerp interpolates along the shortest arc from a to b with t clamped to [0, 1].
func QuatSlerp(a, b Quat, t float64) Quat {
	t = Clamp01(t)
	dot := quatDot(a, b)
	if dot < 0 {
		b = quat.Scale(-1, b)
		dot = -dot
	}
	if dot > 0.9995 {
		return NormalizeQuat(quat.Add(a, quat.Scale(t, quat.Sub(b, a))))
	}
	theta := math.Acos(dot)
	sin := math.Sin(theta)
	wa := math.Sin((1-t)*theta) / sin
	wb := math.Sin(t*theta) / sin
	return NormalizeQuat(quat.Add(quat.Scale(wa, a), quat.Scale(wb, b)))
}

// LookRotation returns the rotation whose forward axis points along forward and
// whose up axis is as close to up as possible. It reports false when forward is
// too short to define a direction. When forward is parallel to up an alternate
// up axis is used so the result stays defined.
func LookRotation(forward, up Vec3) (Quat, bool) {
	z := Normalize(forward)
	if IsZero(z) {
		return Identity(), false
	}
	x := Normalize(r3.Cross(up, z))
	if IsZero(x) {
		alt := Vec3{Z: -1}
		if z.Y < 0 {
			alt = Vec3{Z: 1}
		}
		x = Normalize(r3.Cross(alt, z))
	}
	y := r3.Cross(z, x)
	return fromBasis(x, y, z), true
}

// fromBasis converts an orthonormal basis (the columns of a rotation matrix) to a quaternion.
func fromBasis(x, y, z Vec3) Quat {
	m00, m01, m02 := x.X, y.X, z.X
	m10, m11, m12 := x.Y, y.Y, z.Y
	m20, m21, m22 := x.Z, y.Z, z.Z

	var q Quat
	switch trace := m00 + m11 + m22; {
	case trace > 0:
		s := 0.5 / math.Sqrt(trace+1)
		q = Quat{Real: 0.25 / s, Imag: (m21 - m12) * s, Jmag: (m02 - m20) * s, Kmag: (m10 - m01) * s}
	case m00 > m11 && m00 > m22:
		s := 2 * math.Sqrt(1+m00-m11-m22)
		q = Quat{Real: (m21 - m12) / s, Imag: 0.25 * s, Jmag: (m01 + m10) / s, Kmag: (m02 + m20) / s}
	case m11 > m22:
		s := 2 * math.Sqrt(1+m11-m00-m22)
		q = Quat{Real: (m02 - m20) / s, Imag: (m01 + m10) / s, Jmag: 0.25 * s, Kmag: (m12 + m21) / s}
	default:
		s := 2 * math.Sqrt(1+m22-m00-m11)
		q = Quat{Real: (m10 - m01) / s, Imag: (m02 + m20) / s, Jmag: (m12 + m21) / s, Kmag: 0.25 * s}
	}
	return NormalizeQuat(q)
}

// Yaw returns the heading part of q as a rotation about the world up axis.
// When q looks straight up or down the heading is read from its up axis instead.
func Yaw(q Quat) Quat {
	f := Rotate(q, Forward)
	flat := Vec3{X: f.X, Z: f.Z}
	if IsZero(flat) {
		u := Rotate(q, Up)
		flat = Vec3{X: u.X, Z: u.Z}
		if f.Y > 0 {
			flat = r3.Scale(-1, flat)
		}
	}
	if IsZero(flat) {
		return Identity()
	}
	return AngleAxis(math.Atan2(flat.X, flat.Z)*rad2Deg, Up)
}
