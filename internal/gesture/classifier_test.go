package gesture

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ayusman/handray/internal/detector"
	"github.com/ayusman/handray/internal/geom"
	"github.com/ayusman/handray/internal/hand"
	"github.com/ayusman/handray/internal/handtest"
)

// withPinchRatio moves the thumb tip so PinchRatio reports ratio exactly.
func withPinchRatio(ratio float64) hand.Joints {
	j := handtest.PointingHand(hand.Right, 0)
	scale := r3.Norm(r3.Sub(j.Position(hand.MiddleProximal), j.Position(hand.Wrist)))
	j[hand.ThumbTip].Position = r3.Add(j.Position(hand.IndexTip), geom.Vec3{X: -ratio * scale})
	return j
}

func TestPinchRatio(t *testing.T) {
	j := withPinchRatio(0.3)
	ratio, ok := PinchRatio(&j)
	require.True(t, ok)
	assert.InDelta(t, 0.3, ratio, 1e-9)

	pinch := handtest.PinchingHand(hand.Right, 0)
	ratio, ok = PinchRatio(&pinch)
	require.True(t, ok)
	assert.Zero(t, ratio)

	collapsed := handtest.CollapsedHand(geom.Vec3{})
	_, ok = PinchRatio(&collapsed)
	assert.False(t, ok)
}

func TestClassifier_PinchHysteresis(t *testing.T) {
	c := NewClassifier(DefaultClassifierConfig(), nil)
	lm := pointingLandmarks()

	steps := []struct {
		ratio float64
		want  hand.Gesture
	}{
		{0.30, hand.GestureNone},
		{0.20, hand.GesturePinch},
		{0.30, hand.GesturePinch},
		{0.34, hand.GesturePinch},
		{0.40, hand.GestureNone},
		{0.30, hand.GestureNone},
		{0.10, hand.GesturePinch},
	}
	for i, s := range steps {
		j := withPinchRatio(s.ratio)
		assert.Equal(t, s.want, c.Classify(hand.Right, &lm, &j), "step %d ratio %.2f", i, s.ratio)
	}
}

func TestClassifier_HandsAreIndependent(t *testing.T) {
	c := NewClassifier(DefaultClassifierConfig(), nil)
	lm := pointingLandmarks()

	pinch := withPinchRatio(0.1)
	open := withPinchRatio(0.3)
	require.Equal(t, hand.GesturePinch, c.Classify(hand.Right, &lm, &pinch))

	assert.Equal(t, hand.GestureNone, c.Classify(hand.Left, &lm, &open))
	assert.Equal(t, hand.GesturePinch, c.Classify(hand.Right, &lm, &open))
}

func TestClassifier_Reset(t *testing.T) {
	c := NewClassifier(DefaultClassifierConfig(), nil)
	lm := pointingLandmarks()

	pinch := withPinchRatio(0.1)
	held := withPinchRatio(0.3)
	require.Equal(t, hand.GesturePinch, c.Classify(hand.Right, &lm, &pinch))

	c.Reset(hand.Right)
	assert.Equal(t, hand.GestureNone, c.Classify(hand.Right, &lm, &held))

	require.Equal(t, hand.GesturePinch, c.Classify(hand.Right, &lm, &pinch))
	collapsed := handtest.CollapsedHand(geom.Vec3{})
	assert.Equal(t, hand.GestureNone, c.Classify(hand.Right, &lm, &collapsed), "a hand with no size drops the pinch")
	assert.Equal(t, hand.GestureNone, c.Classify(hand.Right, &lm, &held))
}

func TestClassifier_SystemGesture(t *testing.T) {
	lm := detector.OpenPalmLandmarks()
	h, j, err := detector.ToJoints(&lm, detector.DefaultProjection())
	require.NoError(t, err)

	t.Run("open palm facing the viewer", func(t *testing.T) {
		c := NewClassifier(DefaultClassifierConfig(), nil)
		assert.Less(t, PalmFacingAngle(h, &j, geom.Vec3{}), 60.0)
		assert.Equal(t, hand.GestureSystem, c.Classify(h, &lm, &j))
	})

	t.Run("back of the hand toward the viewer", func(t *testing.T) {
		c := NewClassifier(DefaultClassifierConfig(), nil)
		assert.Greater(t, PalmFacingAngle(h.Opposite(), &j, geom.Vec3{}), 90.0)
		assert.Equal(t, hand.GestureNone, c.Classify(h.Opposite(), &lm, &j))
	})

	t.Run("no templates", func(t *testing.T) {
		c := NewClassifier(DefaultClassifierConfig(), NewStaticMatcher())
		assert.Equal(t, hand.GestureNone, c.Classify(h, &lm, &j))
	})

	t.Run("pointing hand", func(t *testing.T) {
		c := NewClassifier(DefaultClassifierConfig(), nil)
		pl := pointingLandmarks()
		pj := handtest.PointingHand(hand.Right, 0)
		assert.Equal(t, hand.GestureNone, c.Classify(hand.Right, &pl, &pj))
	})
}

func TestClassifierConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ClassifierConfig)
		wantErr bool
	}{
		{"default", func(*ClassifierConfig) {}, false},
		{"release below enter", func(c *ClassifierConfig) { c.PinchRelease = 0.1 }, true},
		{"zero enter", func(c *ClassifierConfig) { c.PinchEnter = 0 }, true},
		{"no hysteresis", func(c *ClassifierConfig) { c.PinchRelease = c.PinchEnter }, false},
		{"palm angle too wide", func(c *ClassifierConfig) { c.PalmFacing = 200 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultClassifierConfig()
			tt.mutate(&cfg)
			if tt.wantErr {
				assert.Error(t, cfg.Validate())
			} else {
				assert.NoError(t, cfg.Validate())
			}
		})
	}
}
