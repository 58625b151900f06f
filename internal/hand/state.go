package hand

import (
	"fmt"

	"github.com/ayusman/handray/internal/geom"
)

// Phase is the stabilizer state of one hand, consolidated from the gesture pair
// and the lock flags.
type Phase int

const (
	// PhaseIdle: not tracked, or the hand is outside the valid pointing cone.
	PhaseIdle Phase = iota
	// PhaseSteady: no pinch, pointer follows the hand.
	PhaseSteady
	// PhaseSteadyLocked: no pinch, hand held still long enough to suppress jitter.
	PhaseSteadyLocked
	// PhasePinchFrozen: pinching with the rotation frozen.
	PhasePinchFrozen
	// PhasePinchLocked: pinching, lock held but slow drift is let through.
	PhasePinchLocked
	// PhasePinchUnlocked: pinch-drag, rotation follows the hand.
	PhasePinchUnlocked
	// PhasePinchExitDecay: the tick a pinch was released.
	PhasePinchExitDecay
)

var phaseNames = [...]string{
	PhaseIdle:           "idle",
	PhaseSteady:         "steady",
	PhaseSteadyLocked:   "steady_locked",
	PhasePinchFrozen:    "pinch_frozen",
	PhasePinchLocked:    "pinch_locked",
	PhasePinchUnlocked:  "pinch_unlocked",
	PhasePinchExitDecay: "pinch_exit_decay",
}

func (p Phase) String() string {
	if p >= 0 && int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// MarshalText implements encoding.TextMarshaler.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Phase) UnmarshalText(b []byte) error {
	for i, name := range phaseNames {
		if name == string(b) {
			*p = Phase(i)
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", string(b))
}

// State is everything known about one hand between ticks. PointerPose is written
// only by the stabilizer.
type State struct {
	Hand      Handedness
	IsTracked bool
	Joints    Joints

	CurrentGesture  Gesture
	PreviousGesture Gesture

	PointerPose      geom.Pose
	PointerPoseValid bool

	LockRotation    bool
	PinchNonMovable bool
	NonMovablePose  geom.Pose
	NonMovableTimer float64
	PinchingTimer   float64

	Phase Phase
}

// NewState returns a reset state for hand h.
func NewState(h Handedness) *State {
	s := &State{Hand: h}
	s.Reset()
	return s
}

// SetGesture records this tick's gesture, shifting the current one to previous.
// Call it exactly once per tick, before stabilization.
func (s *State) SetGesture(g Gesture) {
	s.PreviousGesture = s.CurrentGesture
	s.CurrentGesture = g
}

// IsPinching reports whether the current gesture is a pinch.
func (s *State) IsPinching() bool {
	return s.CurrentGesture == GesturePinch
}

// Reset zeroes every transient field and invalidates the pointer. Joints and
// poses go back to their zero values, which the stabilizer treats as "no
// previous rotation".
func (s *State) Reset() {
	h := s.Hand
	*s = State{Hand: h}
}
