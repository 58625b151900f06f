// Package stabilizer turns tracked hand joints into a stable pointing ray.
//
// Each hand owns a One-Euro filter on its raw ray direction. A small state
// machine driven by the pinch gesture and by how far the ray moved since the
// last tick retunes that filter, so the pointer freezes while the user pinches
// or holds still and follows freely while the hand sweeps.
package stabilizer

import (
	"log/slog"

	"github.com/ayusman/handray/internal/filter"
	"github.com/ayusman/handray/internal/geom"
	"github.com/ayusman/handray/internal/hand"
)

// coneEpsilon absorbs acos rounding so a wrist exactly on the cone edge is outside it.
const coneEpsilon = 1e-9

// Input is the per-tick context shared by both hands.
type Input struct {
	// Time is the monotonic tick time in seconds.
	Time float64
	// DeltaTime is the time since the previous tick. Negative values are treated as 0.
	DeltaTime float64
	Viewer    geom.Pose
	// Shoulder is this hand's shoulder position, from Anchor.Shoulder.
	Shoulder geom.Vec3
}

// Stabilizer owns the filter of one hand.
type Stabilizer struct {
	hand   hand.Handedness
	tuning Tuning
	filter *filter.OneEuro
	logger *slog.Logger

	lastDir geom.Vec3
	hasDir  bool
}

// New creates a stabilizer for hand h.
func New(h hand.Handedness, t Tuning, logger *slog.Logger) *Stabilizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Stabilizer{
		hand:   h,
		tuning: t,
		filter: filter.NewOneEuro(filter.DefaultParams()),
		logger: logger.With("hand", h.String()),
	}
}

// SetTuning replaces the constants. Filter history and coefficients are kept;
// the next transition picks up the new presets.
func (s *Stabilizer) SetTuning(t Tuning) {
	s.tuning = t
}

// Tuning returns the constants in use.
func (s *Stabilizer) Tuning() Tuning {
	return s.tuning
}

// FilterParams returns the filter's active and target coefficients.
func (s *Stabilizer) FilterParams() (active, target filter.Params) {
	return s.filter.Params(), s.filter.Target()
}

// Reset drops the filter history and the remembered direction.
func (s *Stabilizer) Reset() {
	s.filter = filter.NewOneEuro(filter.DefaultParams())
	s.lastDir = geom.Vec3{}
	s.hasDir = false
}

// Step advances st by one tick. The gesture pair and joints of st must already
// hold this tick's tracking data; while untracked, Joints keeps the last known
// pose. Step never fails: degenerate geometry leaves the previous pointer pose
// in place.
func (s *Stabilizer) Step(st *hand.State, in Input) {
	prev := st.Phase
	defer func() {
		st.Phase = phaseOf(st)
		if st.Phase != prev {
			s.logger.Debug("phase changed", "from", prev.String(), "to", st.Phase.String())
		}
	}()

	dt := max(in.DeltaTime, 0)

	if !st.IsTracked {
		// One decay sample from the last known joints so a pinch-drag that
		// loses tracking does not freeze mid-motion.
		if st.PointerPoseValid && st.PreviousGesture == hand.GesturePinch {
			if pointer, dir, ok := s.aim(st, in.Shoulder); ok {
				out := s.filter.Step(in.Time, dir)
				s.filter.SetParams(s.tuning.Presets.Responsive, true)
				s.writePose(st, pointer, out)
			}
		}
		st.PointerPoseValid = false
		return
	}

	wristForward := st.Joints[hand.Wrist].Forward()
	st.PointerPoseValid = geom.Angle(in.Viewer.Forward(), wristForward) < s.tuning.ValidCone-coneEpsilon

	if !st.PointerPoseValid {
		if st.PreviousGesture != hand.GesturePinch {
			return
		}
		pointer, dir, ok := s.aim(st, in.Shoulder)
		if !ok {
			return
		}
		s.filter.SetParams(s.tuning.Presets.Responsive, false)
		s.writePose(st, pointer, s.filter.Step(in.Time, dir))
		return
	}

	pointer, dir, ok := s.aim(st, in.Shoulder)
	if !ok {
		return
	}
	rot, _ := geom.LookRotation(dir, geom.Up)
	angle := geom.QuatAngle(rot, st.PointerPose.Rotation)

	syncDt := dt
	if angle > 0 {
		syncDt = dt * angle * angle
	}

	switch {
	case st.CurrentGesture == hand.GesturePinch && st.PreviousGesture != hand.GesturePinch:
		s.pinchEnter(st)
	case st.CurrentGesture == hand.GesturePinch:
		s.pinchHold(st, angle, dt)
	case st.PreviousGesture == hand.GesturePinch:
		s.pinchExit(st, angle)
	default:
		s.steady(st, pointer, rot, angle, dt)
	}

	s.filter.SyncParams(syncDt)
	s.writePose(st, pointer, s.filter.Step(in.Time, dir))
}

// aim computes this tick's pointer and raw direction. A degenerate direction
// falls back to the last good one; ok is false when there has never been one.
func (s *Stabilizer) aim(st *hand.State, shoulder geom.Vec3) (pointer, dir geom.Vec3, ok bool) {
	pointer, center := PointerPoints(st, s.tuning)
	dir, ok = RayDirection(st, shoulder, pointer, center, s.tuning)
	if ok {
		s.lastDir = dir
		s.hasDir = true
		return pointer, dir, true
	}
	if s.hasDir {
		return pointer, s.lastDir, true
	}
	return pointer, geom.Vec3{}, false
}

func (s *Stabilizer) writePose(st *hand.State, pointer, dir geom.Vec3) {
	rot, ok := geom.LookRotation(dir, geom.Up)
	if !ok {
		rot = st.PointerPose.Rotation
	}
	st.PointerPose = geom.Pose{Position: pointer, Rotation: rot}
}

func (s *Stabilizer) pinchEnter(st *hand.State) {
	st.PinchingTimer = 0
	st.LockRotation = true
	st.PinchNonMovable = true
	s.filter.SetParams(s.tuning.Presets.Frozen, false)
}

func (s *Stabilizer) pinchHold(st *hand.State, angle, dt float64) {
	th, p := s.tuning.Thresholds, s.tuning.Presets
	if st.LockRotation {
		switch {
		case angle > th.PinchUnlock:
			st.LockRotation = false
			st.PinchNonMovable = false
			s.filter.SetParams(p.Responsive, false)
		case st.PinchNonMovable && angle > th.PinchRelease:
			st.PinchNonMovable = false
			s.filter.SetParams(p.PinchSlow, false)
		case !st.PinchNonMovable && angle < th.PinchRefreeze:
			st.PinchNonMovable = true
			s.filter.SetParams(p.Frozen, false)
		}
	}
	st.PinchingTimer += dt
}

func (s *Stabilizer) pinchExit(st *hand.State, angle float64) {
	if angle > s.tuning.Thresholds.ExitResponsive {
		s.filter.SetParams(s.tuning.Presets.Responsive, true)
	} else {
		s.filter.SetParams(s.tuning.Presets.Frozen, true)
	}
	st.LockRotation = false
	st.NonMovableTimer = 0
}

func (s *Stabilizer) steady(st *hand.State, pointer geom.Vec3, rot geom.Quat, angle, dt float64) {
	th, p := s.tuning.Thresholds, s.tuning.Presets
	if st.LockRotation {
		switch {
		case angle > th.SteadyUnlock:
			st.LockRotation = false
			st.NonMovableTimer = 0
		case angle > th.SteadyMoving:
			s.filter.SetParams(p.LockedMoving, true)
		default:
			s.filter.SetParams(p.LockedStill, false)
		}
		return
	}

	if geom.QuatAngle(st.NonMovablePose.Rotation, rot) < th.SteadyStill {
		st.NonMovableTimer += dt
		if st.NonMovableTimer >= th.SettleTime {
			s.filter.SetParams(p.Settling, true)
			st.LockRotation = true
		}
		return
	}
	st.NonMovablePose = geom.Pose{Position: pointer, Rotation: st.PointerPose.Rotation}
	st.NonMovableTimer = 0
	s.filter.SetParams(p.Free, true)
}

// phaseOf consolidates the gesture pair and lock flags into a single phase.
func phaseOf(st *hand.State) hand.Phase {
	switch {
	case !st.IsTracked || !st.PointerPoseValid:
		return hand.PhaseIdle
	case st.CurrentGesture == hand.GesturePinch && !st.LockRotation:
		return hand.PhasePinchUnlocked
	case st.CurrentGesture == hand.GesturePinch && st.PinchNonMovable:
		return hand.PhasePinchFrozen
	case st.CurrentGesture == hand.GesturePinch:
		return hand.PhasePinchLocked
	case st.PreviousGesture == hand.GesturePinch:
		return hand.PhasePinchExitDecay
	case st.LockRotation:
		return hand.PhaseSteadyLocked
	default:
		return hand.PhaseSteady
	}
}
