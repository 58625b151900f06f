package tracking

import (
	"github.com/ayusman/handray/internal/geom"
	"github.com/ayusman/handray/internal/hand"
	"github.com/ayusman/handray/internal/pointer"
)

// ControllerState is the per-hand view handed to pointer consumers: the
// stabilized ray with any recenter correction applied.
type ControllerState struct {
	Hand    hand.Handedness `json:"hand"`
	Pose    geom.Pose       `json:"pose"`
	Valid   bool            `json:"valid"`
	Gesture hand.Gesture    `json:"gesture"`
	Phase   hand.Phase      `json:"phase"`
	// Touching is true while the hand pinches with a valid ray.
	Touching bool `json:"touching"`
	// Recentered is true for exactly one update after Recenter.
	Recentered bool           `json:"recentered"`
	Offset     pointer.Offset `json:"offset"`
}

func newControllerState(st *hand.State, offset pointer.Offset, recentered bool) ControllerState {
	pose := st.PointerPose
	if !offset.IsZero() {
		pose.Rotation = offset.Apply(pose.Rotation)
	}
	return ControllerState{
		Hand:       st.Hand,
		Pose:       pose,
		Valid:      st.PointerPoseValid,
		Gesture:    st.CurrentGesture,
		Phase:      st.Phase,
		Touching:   st.PointerPoseValid && st.IsPinching(),
		Recentered: recentered,
		Offset:     offset,
	}
}
