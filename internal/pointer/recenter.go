// Package pointer computes the recenter correction applied to a hand ray.
package pointer

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ayusman/handray/internal/geom"
)

// reach is how far along the ray the recenter target is taken, in meters.
const reach = 3.5

// Offset is a yaw and pitch correction, in degrees, applied in the ray's own frame.
type Offset struct {
	Horizontal float64 `json:"horizontal"`
	Vertical   float64 `json:"vertical"`
}

// ComputeRecenter returns the correction that turns ray so it points into the
// head's vertical and horizontal planes, as if the user had aimed straight ahead.
func ComputeRecenter(head, ray geom.Pose) Offset {
	forward := ray.Forward()
	target := r3.Add(ray.Position, r3.Scale(reach, forward))

	vertical := geom.NewPlane(head.Right(), head.Position)
	horizontal := geom.NewPlane(head.Up(), head.Position)

	return Offset{
		Horizontal: signedAngle(forward, r3.Sub(vertical.ClosestPoint(target), ray.Position), head.Up()),
		Vertical:   signedAngle(forward, r3.Sub(horizontal.ClosestPoint(target), ray.Position), head.Right()),
	}
}

// signedAngle is the angle from a to b, negative when their cross product
// points away from axis.
func signedAngle(a, b, axis geom.Vec3) float64 {
	angle := geom.Angle(a, b)
	if r3.Dot(r3.Cross(a, b), axis) < 0 {
		return -angle
	}
	return angle
}

// Apply rotates rot by the offset: pitch about its right axis, then yaw about its up axis.
func (o Offset) Apply(rot geom.Quat) geom.Quat {
	pitch := geom.AngleAxis(o.Vertical, geom.Rotate(rot, geom.Right))
	yaw := geom.AngleAxis(o.Horizontal, geom.Rotate(rot, geom.Up))
	return geom.Mul(yaw, geom.Mul(pitch, rot))
}

// IsZero reports whether the offset leaves rotations unchanged.
func (o Offset) IsZero() bool {
	return o.Horizontal == 0 && o.Vertical == 0
}
