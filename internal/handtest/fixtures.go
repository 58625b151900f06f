// Package handtest holds synthetic hand poses shared by package tests.
package handtest

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ayusman/handray/internal/geom"
	"github.com/ayusman/handray/internal/hand"
)

// WristPosition is where PointingHand places the wrist of the right hand, in
// front of and below a viewer standing at the origin. The left hand mirrors X.
var WristPosition = geom.Vec3{X: 0.15, Y: -0.25, Z: 0.3}

// rightHand is a relaxed right hand, palm down, fingers along +Z, relative to the wrist.
var rightHand = [hand.NumJoints]geom.Vec3{
	hand.Wrist:           {},
	hand.Palm:            {Z: 0.045},
	hand.ThumbMetacarpal: {X: -0.025, Z: 0.02},
	hand.ThumbProximal:   {X: -0.045, Z: 0.04},
	hand.ThumbDistal:     {X: -0.055, Z: 0.065},
	hand.ThumbTip:        {X: -0.06, Z: 0.085},
	hand.IndexProximal:   {X: -0.022, Z: 0.09},
	hand.IndexMiddle:     {X: -0.022, Z: 0.125},
	hand.IndexDistal:     {X: -0.022, Z: 0.15},
	hand.IndexTip:        {X: -0.022, Z: 0.17},
	hand.MiddleProximal:  {Z: 0.095},
	hand.MiddleMiddle:    {Z: 0.135},
	hand.MiddleDistal:    {Z: 0.162},
	hand.MiddleTip:       {Z: 0.185},
	hand.RingProximal:    {X: 0.02, Z: 0.088},
	hand.RingMiddle:      {X: 0.02, Z: 0.122},
	hand.RingDistal:      {X: 0.02, Z: 0.148},
	hand.RingTip:         {X: 0.02, Z: 0.168},
	hand.PinkyProximal:   {X: 0.038, Z: 0.078},
	hand.PinkyMiddle:     {X: 0.038, Z: 0.105},
	hand.PinkyDistal:     {X: 0.038, Z: 0.125},
	hand.PinkyTip:        {X: 0.038, Z: 0.142},
}

// PointingHand returns the joints of hand h pointing forward, turned yaw
// degrees about the wrist (positive turns toward +X).
func PointingHand(h hand.Handedness, yaw float64) hand.Joints {
	rot := geom.AngleAxis(yaw, geom.Up)
	wrist := WristPosition
	wrist.X *= h.Sign()

	var j hand.Joints
	for id, offset := range rightHand {
		offset.X *= h.Sign()
		j[id] = geom.Pose{
			Position: r3.Add(wrist, geom.Rotate(rot, offset)),
			Rotation: rot,
		}
	}
	return j
}

// TurnWrist replaces the wrist rotation of j without moving any joint, which
// changes only the front-facing check.
func TurnWrist(j hand.Joints, yaw float64) hand.Joints {
	j[hand.Wrist].Rotation = geom.AngleAxis(yaw, geom.Up)
	return j
}

// CollapsedHand returns joints that all sit at p. With the shoulder also at p
// the hand has no pointing direction.
func CollapsedHand(p geom.Vec3) hand.Joints {
	var j hand.Joints
	for id := range j {
		j[id] = geom.Pose{Position: p, Rotation: geom.Identity()}
	}
	return j
}

// PinchingHand returns PointingHand with the thumb tip touching the index tip.
func PinchingHand(h hand.Handedness, yaw float64) hand.Joints {
	j := PointingHand(h, yaw)
	j[hand.ThumbTip].Position = j[hand.IndexTip].Position
	return j
}
