// Package geom provides the vector, rotation and pose math used by the pointer pipeline.
//
// Vectors are gonum r3 vectors and rotations are gonum quaternions. The frame is
// Y-up with +Z forward and +X right; a rotation's forward vector is q*(0,0,1).
package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Vec3 is a point or direction in world space.
type Vec3 = r3.Vec

// Unit axes.
var (
	Zero    = Vec3{}
	Up      = Vec3{Y: 1}
	Right   = Vec3{X: 1}
	Forward = Vec3{Z: 1}
)

// normalizeEpsilon matches the length below which a direction is treated as zero.
const normalizeEpsilon = 1e-5

// Normalize returns v scaled to unit length, or the zero vector when v is too short
// to carry a direction.
func Normalize(v Vec3) Vec3 {
	n := r3.Norm(v)
	if n <= normalizeEpsilon {
		return Zero
	}
	return r3.Scale(1/n, v)
}

// IsZero reports whether v is too short to carry a direction.
func IsZero(v Vec3) bool {
	return r3.Norm(v) <= normalizeEpsilon
}

// Clamp01 restricts t to [0, 1].
func Clamp01(t float64) float64 {
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}

// LerpFloat interpolates between a and b with t clamped to [0, 1]. The
// result stays within [a, b] and is exactly b at t = 1.
func LerpFloat(a, b, t float64) float64 {
	t = Clamp01(t)
	if t == 1 {
		return b
	}
	return clamp(a+(b-a)*t, min(a, b), max(a, b))
}

// Lerp interpolates between a and b with t clamped to [0, 1].
func Lerp(a, b Vec3, t float64) Vec3 {
	return lerpUnclamped(a, b, Clamp01(t))
}

func lerpUnclamped(a, b Vec3, t float64) Vec3 {
	return r3.Add(a, r3.Scale(t, r3.Sub(b, a)))
}

// Angle returns the unsigned angle in degrees between a and b.
// Degenerate input yields 0.
func Angle(a, b Vec3) float64 {
	denom := math.Sqrt(r3.Norm2(a) * r3.Norm2(b))
	if denom < 1e-15 {
		return 0
	}
	cos := clamp(r3.Dot(a, b)/denom, -1, 1)
	return math.Acos(cos) * rad2Deg
}

// Slerp spherically interpolates the direction of a toward b and linearly
// interpolates the magnitude. t is clamped to [0, 1].
func Slerp(a, b Vec3, t float64) Vec3 {
	t = Clamp01(t)
	la, lb := r3.Norm(a), r3.Norm(b)
	if la <= normalizeEpsilon || lb <= normalizeEpsilon {
		return lerpUnclamped(a, b, t)
	}
	ua, ub := r3.Scale(1/la, a), r3.Scale(1/lb, b)
	mag := la + (lb-la)*t

	cos := clamp(r3.Dot(ua, ub), -1, 1)
	if cos > 1-1e-6 {
		return r3.Scale(mag, Normalize(lerpUnclamped(ua, ub, t)))
	}

	// Component of b orthogonal to a; for opposite vectors any perpendicular works.
	ortho := Normalize(r3.Sub(ub, r3.Scale(cos, ua)))
	if IsZero(ortho) {
		ortho = perpendicular(ua)
	}
	theta := math.Acos(cos) * t
	dir := r3.Add(r3.Scale(math.Cos(theta), ua), r3.Scale(math.Sin(theta), ortho))
	return r3.Scale(mag, dir)
}

// perpendicular returns a unit vector orthogonal to the unit vector v.
func perpendicular(v Vec3) Vec3 {
	axis := Right
	if math.Abs(v.X) > 0.9 {
		axis = Up
	}
	return Normalize(r3.Cross(v, axis))
}

// Plane is an infinite plane through Point with unit Normal.
type Plane struct {
	Normal Vec3
	Point  Vec3
}

// NewPlane builds a plane from a normal (normalized here) and a point on it.
func NewPlane(normal, point Vec3) Plane {
	return Plane{Normal: Normalize(normal), Point: point}
}

// SignedDistance returns the distance from the plane to p, positive on the
// side the normal points to.
func (pl Plane) SignedDistance(p Vec3) float64 {
	return r3.Dot(pl.Normal, r3.Sub(p, pl.Point))
}

// ClosestPoint projects p onto the plane.
func (pl Plane) ClosestPoint(p Vec3) Vec3 {
	return r3.Sub(p, r3.Scale(pl.SignedDistance(p), pl.Normal))
}

const (
	rad2Deg = 180 / math.Pi
	deg2Rad = math.Pi / 180
)

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
