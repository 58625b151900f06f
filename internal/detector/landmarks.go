// Package detector finds hand landmarks in camera frames and turns them into
// world-space joints.
package detector

import (
	"math"

	"github.com/ayusman/handray/internal/hand"
)

// Landmark indices following the MediaPipe hand model.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// Point3D is one landmark. X and Y are normalized to the image width and
// height with Y growing downward; Z is depth relative to the wrist on roughly
// the same scale as X, smaller values being closer to the camera.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// HandLandmarks is one detected hand.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness"` // "Left" or "Right", as MediaPipe labels it
	Score      float64               `json:"score"`
}

// Hand parses the MediaPipe handedness label.
func (h *HandLandmarks) Hand() (hand.Handedness, error) {
	return hand.ParseHandedness(h.Handedness)
}

func distance3D(a, b Point3D) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	dz := a.Z - b.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Scale is the wrist to middle MCP distance, the size every landmark
// measurement is relative to.
func (h *HandLandmarks) Scale() float64 {
	return distance3D(h.Points[Wrist], h.Points[MiddleMCP])
}

// Normalize returns a copy with the wrist at the origin and the wrist to
// middle MCP distance scaled to 1. A hand with no size is only translated.
func (h *HandLandmarks) Normalize() *HandLandmarks {
	if h == nil {
		return nil
	}

	out := &HandLandmarks{
		Handedness: h.Handedness,
		Score:      h.Score,
	}

	wrist := h.Points[Wrist]
	for i, p := range h.Points {
		out.Points[i] = Point3D{X: p.X - wrist.X, Y: p.Y - wrist.Y, Z: p.Z - wrist.Z}
	}

	scale := h.Scale()
	if scale < 1e-10 {
		return out
	}
	for i := range out.Points {
		out.Points[i].X /= scale
		out.Points[i].Y /= scale
		out.Points[i].Z /= scale
	}
	return out
}
