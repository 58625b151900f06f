package stabilizer

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ayusman/handray/internal/geom"
	"github.com/ayusman/handray/internal/hand"
)

// Anchor trails the viewer pose with exponential smoothing and derives an
// approximate neck and shoulder positions from it.
type Anchor struct {
	tuning Tuning

	position    geom.Vec3
	rotation    geom.Quat
	initialized bool
}

// NewAnchor returns an anchor that snaps to the first viewer pose it sees.
func NewAnchor(t Tuning) *Anchor {
	return &Anchor{tuning: t, rotation: geom.Identity()}
}

// SetTuning swaps the anchor constants without dropping the smoothed pose.
func (a *Anchor) SetTuning(t Tuning) {
	a.tuning = t
}

// Update advances the smoothed pose toward viewer. Call it once per tick.
func (a *Anchor) Update(viewer geom.Pose) {
	if !a.initialized {
		a.position = viewer.Position
		a.rotation = geom.NormalizeQuat(viewer.Rotation)
		a.initialized = true
		return
	}
	w := a.tuning.AnchorWeight
	a.rotation = geom.QuatSlerp(a.rotation, viewer.Rotation, w)
	a.position = geom.Lerp(a.position, viewer.Position, w)
}

// Pose returns the smoothed viewer pose.
func (a *Anchor) Pose() geom.Pose {
	return geom.Pose{Position: a.position, Rotation: a.rotation}
}

// Neck sits below the smoothed head, halfway between straight down in head
// space and straight down in world space.
func (a *Anchor) Neck() geom.Vec3 {
	down := geom.Vec3{Y: -a.tuning.NeckDrop}
	return r3.Add(a.position, geom.Lerp(geom.Rotate(a.rotation, down), down, 0.5))
}

// Shoulder returns the shoulder of hand h, offset sideways from the neck along
// the heading of the smoothed head.
func (a *Anchor) Shoulder(h hand.Handedness) geom.Vec3 {
	side := geom.Vec3{X: h.Sign() * a.tuning.ShoulderOffset}
	return r3.Add(a.Neck(), geom.Rotate(geom.Yaw(a.rotation), side))
}

// Reset forgets the smoothed pose; the next Update snaps again.
func (a *Anchor) Reset() {
	a.position = geom.Vec3{}
	a.rotation = geom.Identity()
	a.initialized = false
}
