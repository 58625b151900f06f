// Package tracking runs hand-pointer stabilization for both hands as one session.
package tracking

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/ayusman/handray/internal/geom"
	"github.com/ayusman/handray/internal/hand"
	"github.com/ayusman/handray/internal/pointer"
	"github.com/ayusman/handray/internal/stabilizer"
)

// ErrPointerInvalid is returned by Recenter when the hand has no valid ray.
var ErrPointerInvalid = errors.New("pointer not valid")

// Session owns the state, filters and body anchor of both hands. Frames are
// applied only while the session is running. All methods are safe for
// concurrent use; callbacks run on the caller's goroutine without the lock held.
type Session struct {
	mu     sync.RWMutex
	logger *slog.Logger
	tuning stabilizer.Tuning

	anchor *stabilizer.Anchor
	hands  [2]*hand.State
	stabs  [2]*stabilizer.Stabilizer

	viewer       geom.Pose
	offsets      [2]pointer.Offset
	needRecenter [2]bool
	states       [2]ControllerState

	lastTime float64
	hasTime  bool
	frames   uint64
	running  bool

	onStarted []func()
	onStopped []func()
	onUpdated []func([2]ControllerState)
}

// NewSession creates a stopped session. A nil logger uses slog.Default().
func NewSession(tuning stabilizer.Tuning, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Session{
		logger: logger,
		tuning: tuning,
		anchor: stabilizer.NewAnchor(tuning),
		viewer: geom.IdentityPose(),
	}
	for _, h := range hand.Both {
		s.hands[h] = hand.NewState(h)
		s.stabs[h] = stabilizer.New(h, tuning, logger)
		s.states[h] = newControllerState(s.hands[h], pointer.Offset{}, false)
	}
	return s
}

// OnStarted registers fn to run after Start.
func (s *Session) OnStarted(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onStarted = append(s.onStarted, fn)
}

// OnStopped registers fn to run after Stop.
func (s *Session) OnStopped(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onStopped = append(s.onStopped, fn)
}

// OnUpdated registers fn to run after every applied frame with the new
// controller states.
func (s *Session) OnUpdated(fn func([2]ControllerState)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onUpdated = append(s.onUpdated, fn)
}

// Start begins accepting frames. Starting a running session is a no-op.
func (s *Session) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.logger.Info("hand tracking already running")
		return
	}
	s.running = true
	fns := slices.Clone(s.onStarted)
	s.mu.Unlock()

	s.logger.Info("hand tracking started")
	for _, fn := range fns {
		fn()
	}
}

// Stop stops accepting frames and resets both hands, their filters and the
// body anchor. Stopping a stopped session is a no-op.
func (s *Session) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.resetLocked()
	fns := slices.Clone(s.onStopped)
	s.mu.Unlock()

	s.logger.Info("hand tracking stopped")
	for _, fn := range fns {
		fn()
	}
}

func (s *Session) resetLocked() {
	for _, h := range hand.Both {
		s.hands[h].Reset()
		s.stabs[h].Reset()
		s.offsets[h] = pointer.Offset{}
		s.needRecenter[h] = false
		s.states[h] = newControllerState(s.hands[h], pointer.Offset{}, false)
	}
	s.anchor.Reset()
	s.viewer = geom.IdentityPose()
	s.hasTime = false
}

// Running reports whether frames are being applied.
func (s *Session) Running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Update applies one tracking frame: the body anchor advances once, then
// each hand records its gesture and is stabilized.
func (s *Session) Update(f Frame) {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}

	dt := f.DeltaTime
	if dt <= 0 && s.hasTime {
		dt = f.Time - s.lastTime
	}
	s.lastTime, s.hasTime = f.Time, true

	s.viewer = f.Viewer
	s.anchor.Update(f.Viewer)

	for _, h := range hand.Both {
		st, in := s.hands[h], f.Hands[h]

		st.IsTracked = in.Tracked
		gesture := hand.GestureNone
		if in.Tracked {
			st.Joints = in.Joints
			gesture = in.Gesture
		}
		st.SetGesture(gesture)

		s.stabs[h].Step(st, stabilizer.Input{
			Time:      f.Time,
			DeltaTime: dt,
			Viewer:    f.Viewer,
			Shoulder:  s.anchor.Shoulder(h),
		})

		s.states[h] = newControllerState(st, s.offsets[h], s.needRecenter[h])
		s.needRecenter[h] = false
	}
	s.frames++

	states := s.states
	fns := slices.Clone(s.onUpdated)
	s.mu.Unlock()

	for _, fn := range fns {
		fn(states)
	}
}

// HandState returns a copy of the state of hand h.
func (s *Session) HandState(h hand.Handedness) hand.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return *s.hands[h]
}

// ControllerStates returns the controller view of both hands as of the last frame.
func (s *Session) ControllerStates() [2]ControllerState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.states
}

// IsPerformingSystemGesture reports whether either hand shows the system gesture.
func (s *Session) IsPerformingSystemGesture() bool {
	return s.IsHandPerformingSystemGesture(hand.Right) || s.IsHandPerformingSystemGesture(hand.Left)
}

// IsHandPerformingSystemGesture reports whether hand h shows the system gesture.
// A stopped session reports false.
func (s *Session) IsHandPerformingSystemGesture(h hand.Handedness) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running && s.hands[h].CurrentGesture == hand.GestureSystem
}

// Recenter corrects hand h so its ray points straight ahead of the viewer from
// now on. The next frame reports Recentered for that hand.
func (s *Session) Recenter(h hand.Handedness) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.hands[h]
	if !s.running || !st.PointerPoseValid {
		return fmt.Errorf("recenter %s hand: %w", h, ErrPointerInvalid)
	}
	s.offsets[h] = pointer.ComputeRecenter(s.viewer, st.PointerPose)
	s.needRecenter[h] = true
	s.logger.Info("pointer recentered", "hand", h.String(),
		"horizontal", s.offsets[h].Horizontal, "vertical", s.offsets[h].Vertical)
	return nil
}

// SetTuning validates t and applies it to the anchor and both hands. Filter
// history survives, so a live retune does not jump the pointer.
func (s *Session) SetTuning(t stabilizer.Tuning) error {
	if err := t.Validate(); err != nil {
		return fmt.Errorf("invalid tuning: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tuning = t
	s.anchor.SetTuning(t)
	for _, st := range s.stabs {
		st.SetTuning(t)
	}
	return nil
}

// Tuning returns the tuning in use.
func (s *Session) Tuning() stabilizer.Tuning {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tuning
}

// Frames returns the number of frames applied since the session was created.
func (s *Session) Frames() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frames
}
