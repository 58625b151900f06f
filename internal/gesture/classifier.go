// Package gesture classifies detected hands into the gestures the stabilizer
// reacts to.
package gesture

import (
	"errors"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ayusman/handray/internal/detector"
	"github.com/ayusman/handray/internal/geom"
	"github.com/ayusman/handray/internal/hand"
)

// ClassifierConfig sets the classifier thresholds.
type ClassifierConfig struct {
	// PinchEnter and PinchRelease bound the thumb tip to index tip distance,
	// relative to the wrist to middle knuckle length. A pinch starts below
	// PinchEnter and ends above PinchRelease.
	PinchEnter   float64
	PinchRelease float64

	// PalmFacing is the largest angle, in degrees, between the palm normal and
	// the direction to the viewer for the system gesture to count.
	PalmFacing float64
}

// DefaultClassifierConfig returns the thresholds used by the webcam source.
func DefaultClassifierConfig() ClassifierConfig {
	return ClassifierConfig{
		PinchEnter:   0.25,
		PinchRelease: 0.35,
		PalmFacing:   60,
	}
}

// Validate checks the thresholds.
func (c ClassifierConfig) Validate() error {
	if c.PinchEnter <= 0 || c.PinchRelease < c.PinchEnter {
		return errors.New("pinch thresholds must satisfy 0 < enter <= release")
	}
	if c.PalmFacing <= 0 || c.PalmFacing > 180 {
		return errors.New("palm facing angle must be in (0, 180]")
	}
	return nil
}

// Classifier turns one hand's landmarks and joints into a hand.Gesture. It
// keeps pinch hysteresis per hand, so one Classifier serves one tracking
// source. It is not safe for concurrent use.
type Classifier struct {
	config   ClassifierConfig
	matcher  *StaticMatcher
	pinching [2]bool
}

// NewClassifier returns a classifier that reports the system gesture for the
// matcher's templates. A nil matcher uses OpenPalmTemplate.
func NewClassifier(config ClassifierConfig, matcher *StaticMatcher) *Classifier {
	if matcher == nil {
		matcher = NewStaticMatcher(OpenPalmTemplate())
	}
	return &Classifier{config: config, matcher: matcher}
}

// Classify returns the gesture of hand h. The viewer is at the origin, as
// detector.ToJoints places it. A pinch wins over the system gesture.
func (c *Classifier) Classify(h hand.Handedness, lm *detector.HandLandmarks, j *hand.Joints) hand.Gesture {
	ratio, ok := PinchRatio(j)
	switch {
	case !ok:
		c.pinching[h] = false
	case c.pinching[h]:
		c.pinching[h] = ratio <= c.config.PinchRelease
	default:
		c.pinching[h] = ratio < c.config.PinchEnter
	}
	if c.pinching[h] {
		return hand.GesturePinch
	}

	if PalmFacingAngle(h, j, geom.Vec3{}) <= c.config.PalmFacing && len(c.matcher.Match(lm)) > 0 {
		return hand.GestureSystem
	}
	return hand.GestureNone
}

// Reset forgets the pinch state of hand h, for when it is lost.
func (c *Classifier) Reset(h hand.Handedness) {
	c.pinching[h] = false
}

// PinchRatio is the thumb tip to index tip distance over the wrist to middle
// knuckle length. It reports false for a hand with no size.
func PinchRatio(j *hand.Joints) (float64, bool) {
	scale := r3.Norm(r3.Sub(j.Position(hand.MiddleProximal), j.Position(hand.Wrist)))
	if scale < 1e-9 {
		return 0, false
	}
	return r3.Norm(r3.Sub(j.Position(hand.IndexTip), j.Position(hand.ThumbTip))) / scale, true
}

// PalmFacingAngle returns the angle in degrees between the normal out of the
// palm of hand h and the direction from the palm to viewer. A flat or
// collapsed hand faces nowhere and yields 180.
func PalmFacingAngle(h hand.Handedness, j *hand.Joints, viewer geom.Vec3) float64 {
	wrist := j.Position(hand.Wrist)
	middle := j.Position(hand.MiddleProximal)
	along := r3.Sub(middle, wrist)
	fromRing := r3.Sub(middle, j.Position(hand.RingProximal))
	out := r3.Scale(h.Sign(), r3.Cross(along, fromRing))
	if geom.IsZero(out) {
		return 180
	}

	center := geom.Lerp(wrist, middle, 0.5)
	return geom.Angle(out, r3.Sub(viewer, center))
}
