package tracking

import (
	"github.com/ayusman/handray/internal/geom"
	"github.com/ayusman/handray/internal/hand"
)

// HandInput is what a tracking source reports for one hand in one frame.
type HandInput struct {
	Tracked bool         `json:"tracked"`
	Gesture hand.Gesture `json:"gesture"`
	Joints  hand.Joints  `json:"joints"`
}

// Frame is one tracking update for both hands. Hands is indexed by
// hand.Handedness (right first).
type Frame struct {
	// Time is the capture time in seconds on a monotonic clock.
	Time float64 `json:"time"`
	// DeltaTime is the time since the previous frame. Zero lets the session
	// derive it from Time.
	DeltaTime float64      `json:"dt,omitempty"`
	Viewer    geom.Pose    `json:"viewer"`
	Hands     [2]HandInput `json:"hands"`
}

// Hand returns the input for hand h.
func (f *Frame) Hand(h hand.Handedness) *HandInput {
	return &f.Hands[h]
}
