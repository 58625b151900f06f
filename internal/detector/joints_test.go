package detector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/handray/internal/geom"
	"github.com/ayusman/handray/internal/hand"
	"github.com/ayusman/handray/internal/handtest"
)

// wristProjection centers the image on the fixture wrist so a projection
// round trip reproduces world positions exactly.
func wristProjection(h hand.Handedness) Projection {
	p := DefaultProjection()
	p.Center = handtest.WristPosition
	p.Center.X *= h.Sign()
	return p
}

func TestToJoints_RoundTrip(t *testing.T) {
	for _, h := range hand.Both {
		t.Run(h.String(), func(t *testing.T) {
			p := wristProjection(h)
			want := handtest.PointingHand(h, 20)

			lm := LandmarksFromJoints(h, want, p)
			got, joints, err := ToJoints(&lm, p)
			require.NoError(t, err)
			assert.Equal(t, h, got)

			for id := range joints {
				if hand.JointID(id) == hand.Palm {
					continue
				}
				w, g := want[id].Position, joints[id].Position
				assert.InDelta(t, w.X, g.X, 1e-9, "joint %d X", id)
				assert.InDelta(t, w.Y, g.Y, 1e-9, "joint %d Y", id)
				assert.InDelta(t, w.Z, g.Z, 1e-9, "joint %d Z", id)
			}

			fwd := joints[hand.Wrist].Forward()
			assert.InDelta(t, 20, geom.Angle(geom.Forward, fwd), 1e-6)
			assert.Greater(t, joints[hand.Wrist].Up().Y, 0.99, "back of the hand is up")
			assert.Equal(t, joints[hand.Wrist].Rotation, joints[hand.IndexTip].Rotation)
		})
	}
}

func TestToJoints_PalmBetweenWristAndMiddle(t *testing.T) {
	p := wristProjection(hand.Right)
	lm := LandmarksFromJoints(hand.Right, handtest.PointingHand(hand.Right, 0), p)
	_, j, err := ToJoints(&lm, p)
	require.NoError(t, err)

	want := geom.Lerp(j.Position(hand.Wrist), j.Position(hand.MiddleProximal), 0.5)
	got := j.Position(hand.Palm)
	assert.InDelta(t, want.X, got.X, 1e-12)
	assert.InDelta(t, want.Y, got.Y, 1e-12)
	assert.InDelta(t, want.Z, got.Z, 1e-12)
}

func TestToJoints_FacingUser(t *testing.T) {
	lm := OpenPalmLandmarks()

	t.Run("mirrored", func(t *testing.T) {
		h, j, err := ToJoints(&lm, DefaultProjection())
		require.NoError(t, err)

		assert.Equal(t, hand.Left, h, "label is swapped")
		assert.Less(t, j.Position(hand.ThumbTip).X, j.Position(hand.PinkyTip).X)
		assert.Greater(t, j.Position(hand.MiddleTip).Y, j.Position(hand.Wrist).Y)
		assert.Less(t, geom.Angle(geom.Up, j[hand.Wrist].Forward()), 1.0, "fingers point up")
	})

	t.Run("head mounted", func(t *testing.T) {
		p := DefaultProjection()
		p.FacingUser = false
		h, j, err := ToJoints(&lm, p)
		require.NoError(t, err)

		assert.Equal(t, hand.Right, h)
		assert.Greater(t, j.Position(hand.ThumbTip).X, j.Position(hand.PinkyTip).X)
	})

	t.Run("bad label", func(t *testing.T) {
		bad := lm
		bad.Handedness = ""
		_, _, err := ToJoints(&bad, DefaultProjection())
		assert.Error(t, err)
	})
}

func TestProjection_World(t *testing.T) {
	p := DefaultProjection()

	center := p.World(Point3D{X: 0.5, Y: 0.5})
	assert.Equal(t, p.Center, center)

	// Image left is the user's right when the camera faces them.
	left := p.World(Point3D{X: 0.25, Y: 0.5})
	assert.InDelta(t, 0.15, left.X, 1e-12)

	// Closer to the camera is farther from the user.
	near := p.World(Point3D{X: 0.5, Y: 0.5, Z: -0.1})
	assert.Greater(t, near.Z, p.Center.Z)

	top := p.World(Point3D{X: 0.5, Y: 0})
	assert.InDelta(t, p.Center.Y+0.5*p.Width/p.Aspect, top.Y, 1e-12)
}
