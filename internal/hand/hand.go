// Package hand defines hand identities, joints, gestures and the per-hand tracking state.
package hand

import (
	"fmt"
	"strings"

	"github.com/ayusman/handray/internal/geom"
)

// Handedness identifies a hand. Right is index 0, Left is index 1.
type Handedness int

const (
	Right Handedness = iota
	Left
)

// Both lists the hands in index order.
var Both = [2]Handedness{Right, Left}

func (h Handedness) String() string {
	switch h {
	case Right:
		return "right"
	case Left:
		return "left"
	default:
		return fmt.Sprintf("hand(%d)", int(h))
	}
}

// Sign is +1 for the right hand and -1 for the left; lateral offsets are mirrored with it.
func (h Handedness) Sign() float64 {
	if h == Left {
		return -1
	}
	return 1
}

// Opposite returns the other hand.
func (h Handedness) Opposite() Handedness {
	if h == Left {
		return Right
	}
	return Left
}

// MarshalText implements encoding.TextMarshaler.
func (h Handedness) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *Handedness) UnmarshalText(b []byte) error {
	v, err := ParseHandedness(string(b))
	if err != nil {
		return err
	}
	*h = v
	return nil
}

// ParseHandedness accepts "right"/"left" in any case, as MediaPipe and the API spell them.
func ParseHandedness(s string) (Handedness, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "right", "r":
		return Right, nil
	case "left", "l":
		return Left, nil
	default:
		return 0, fmt.Errorf("unknown hand %q", s)
	}
}

// Gesture is the classification a tracking source reports for a hand each tick.
type Gesture int

const (
	GestureNone Gesture = iota
	GesturePinch
	GestureSystem
)

func (g Gesture) String() string {
	switch g {
	case GestureNone:
		return "none"
	case GesturePinch:
		return "pinch"
	case GestureSystem:
		return "system"
	default:
		return fmt.Sprintf("gesture(%d)", int(g))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (g Gesture) MarshalText() ([]byte, error) {
	return []byte(g.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. An empty value is GestureNone.
func (g *Gesture) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "", "none":
		*g = GestureNone
	case "pinch":
		*g = GesturePinch
	case "system":
		*g = GestureSystem
	default:
		return fmt.Errorf("unknown gesture %q", string(b))
	}
	return nil
}

// JointID indexes a tracked hand joint.
type JointID int

const (
	Wrist JointID = iota
	Palm
	ThumbMetacarpal
	ThumbProximal
	ThumbDistal
	ThumbTip
	IndexProximal
	IndexMiddle
	IndexDistal
	IndexTip
	MiddleProximal
	MiddleMiddle
	MiddleDistal
	MiddleTip
	RingProximal
	RingMiddle
	RingDistal
	RingTip
	PinkyProximal
	PinkyMiddle
	PinkyDistal
	PinkyTip
	NumJoints
)

// Joints holds one world-space pose per JointID.
type Joints [NumJoints]geom.Pose

// Position returns the position of joint id.
func (j *Joints) Position(id JointID) geom.Vec3 {
	return j[id].Position
}
