package detector

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ayusman/handray/internal/geom"
	"github.com/ayusman/handray/internal/hand"
)

// Projection places image-normalized landmarks in the world of a viewer
// standing at the origin and looking along +Z.
type Projection struct {
	// Center is where the middle of the image lands, in meters.
	Center geom.Vec3

	// Width is how many meters the full image width spans at the hand.
	Width float64

	// Aspect is the image width over its height.
	Aspect float64

	// FacingUser is set for a webcam looking back at the user. The image is
	// mirrored, depth is inverted and the handedness label is swapped, since
	// MediaPipe labels hands as if the frame were a mirrored selfie.
	FacingUser bool
}

// DefaultProjection suits a 4:3 laptop webcam with the hand about an arm's
// length from the screen.
func DefaultProjection() Projection {
	return Projection{
		Center:     geom.Vec3{X: 0, Y: -0.25, Z: 0.35},
		Width:      0.6,
		Aspect:     4.0 / 3.0,
		FacingUser: true,
	}
}

var jointLandmarks = [hand.NumJoints]int{
	hand.Wrist:           Wrist,
	hand.Palm:            -1,
	hand.ThumbMetacarpal: ThumbCMC,
	hand.ThumbProximal:   ThumbMCP,
	hand.ThumbDistal:     ThumbIP,
	hand.ThumbTip:        ThumbTip,
	hand.IndexProximal:   IndexMCP,
	hand.IndexMiddle:     IndexPIP,
	hand.IndexDistal:     IndexDIP,
	hand.IndexTip:        IndexTip,
	hand.MiddleProximal:  MiddleMCP,
	hand.MiddleMiddle:    MiddlePIP,
	hand.MiddleDistal:    MiddleDIP,
	hand.MiddleTip:       MiddleTip,
	hand.RingProximal:    RingMCP,
	hand.RingMiddle:      RingPIP,
	hand.RingDistal:      RingDIP,
	hand.RingTip:         RingTip,
	hand.PinkyProximal:   PinkyMCP,
	hand.PinkyMiddle:     PinkyPIP,
	hand.PinkyDistal:     PinkyDIP,
	hand.PinkyTip:        PinkyTip,
}

// World maps one landmark to a world position.
func (p Projection) World(pt Point3D) geom.Vec3 {
	x := pt.X - 0.5
	z := pt.Z
	if p.FacingUser {
		x, z = -x, -z
	}
	return geom.Vec3{
		X: p.Center.X + x*p.Width,
		Y: p.Center.Y + (0.5-pt.Y)*p.Width/p.Aspect,
		Z: p.Center.Z + z*p.Width,
	}
}

// ToJoints converts detected landmarks into world-space joints and the hand
// they belong to. The palm joint sits halfway between the wrist and the middle
// MCP. Every joint shares the wrist rotation, which looks from the wrist toward
// the middle MCP with the back of the hand as up.
func ToJoints(lm *HandLandmarks, p Projection) (hand.Handedness, hand.Joints, error) {
	var j hand.Joints

	h, err := lm.Hand()
	if err != nil {
		return 0, j, err
	}
	if p.FacingUser {
		h = h.Opposite()
	}

	for id, idx := range jointLandmarks {
		if idx >= 0 {
			j[id].Position = p.World(lm.Points[idx])
		}
	}
	wrist := j[hand.Wrist].Position
	middle := j[hand.MiddleProximal].Position
	j[hand.Palm].Position = geom.Lerp(wrist, middle, 0.5)

	along := r3.Sub(middle, wrist)
	fromRing := r3.Sub(middle, j[hand.RingProximal].Position)
	back := r3.Scale(h.Sign(), r3.Cross(fromRing, along))

	rot, ok := geom.LookRotation(along, back)
	if !ok {
		rot = geom.Identity()
	}
	for id := range j {
		j[id].Rotation = rot
	}
	return h, j, nil
}
