package stabilizer

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ayusman/handray/internal/geom"
	"github.com/ayusman/handray/internal/hand"
)

// PointerPoints returns the point the ray is drawn from and the hand center used
// for the hand's own pointing direction. Both sit just in front of the middle
// finger root, pushed off the palm along its normal.
func PointerPoints(s *hand.State, t Tuning) (pointer, center geom.Vec3) {
	wrist := s.Joints.Position(hand.Wrist)
	middle := s.Joints.Position(hand.MiddleProximal)
	ring := s.Joints.Position(hand.RingProximal)

	alongFinger := geom.Normalize(r3.Sub(middle, wrist))
	fromRing := geom.Normalize(r3.Sub(middle, ring))
	palmNormal := geom.Normalize(r3.Cross(alongFinger, fromRing))

	center = r3.Add(middle, r3.Scale(t.FingerOffset, alongFinger))
	center = r3.Add(center, r3.Scale(s.Hand.Sign()*t.PalmOffset, palmNormal))
	pointer = r3.Add(center, r3.Scale(t.RingOffset, fromRing))
	return pointer, center
}

// RayDirection blends the shoulder-to-index ray with the hand's own direction.
// The ray origin is the pointer reflected across the shoulder's horizontal plane,
// then pulled toward the shoulder, so raising or lowering the hand sweeps the ray
// faster than the arm moves. It reports false when the blend is degenerate.
func RayDirection(s *hand.State, shoulder, pointer, center geom.Vec3, t Tuning) (geom.Vec3, bool) {
	d := geom.NewPlane(geom.Up, shoulder).SignedDistance(pointer)

	limit := t.DownRange
	if d > 0 {
		limit = t.UpRange
	}
	ratio := 1.0
	if math.Abs(d) < limit {
		ratio = math.Abs(d) / limit
	}
	reflected := r3.Sub(pointer, r3.Scale(t.ReflectionScale*ratio*d, geom.Up))
	origin := geom.Lerp(reflected, shoulder, t.OriginBlend)

	root := geom.Normalize(r3.Sub(s.Joints.Position(hand.IndexProximal), origin))
	own := geom.Normalize(r3.Sub(center, s.Joints.Position(hand.Wrist)))

	dir := geom.Normalize(geom.Slerp(root, own, t.DirectionBlend))
	if geom.IsZero(dir) {
		return geom.Vec3{}, false
	}
	return dir, true
}
