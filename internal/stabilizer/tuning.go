package stabilizer

import (
	"errors"
	"fmt"

	"github.com/ayusman/handray/internal/filter"
)

// Tuning holds every constant of the ray geometry and the gesture state machine.
// Distances are in meters, angles in degrees, durations in seconds.
type Tuning struct {
	// Body anchor.
	AnchorWeight   float64 `yaml:"anchor_weight" json:"anchor_weight"`
	NeckDrop       float64 `yaml:"neck_drop" json:"neck_drop"`
	ShoulderOffset float64 `yaml:"shoulder_offset" json:"shoulder_offset"`

	// Pointer and hand-center offsets from the middle finger root.
	FingerOffset float64 `yaml:"finger_offset" json:"finger_offset"`
	RingOffset   float64 `yaml:"ring_offset" json:"ring_offset"`
	PalmOffset   float64 `yaml:"palm_offset" json:"palm_offset"`

	// Ray origin.
	ReflectionScale float64 `yaml:"reflection_scale" json:"reflection_scale"`
	UpRange         float64 `yaml:"up_range" json:"up_range"`
	DownRange       float64 `yaml:"down_range" json:"down_range"`
	OriginBlend     float64 `yaml:"origin_blend" json:"origin_blend"`
	DirectionBlend  float64 `yaml:"direction_blend" json:"direction_blend"`

	// ValidCone is the widest angle between viewer forward and wrist forward
	// (exclusive) at which the hand still points.
	ValidCone float64 `yaml:"valid_cone" json:"valid_cone"`

	Thresholds Thresholds `yaml:"thresholds" json:"thresholds"`
	Presets    Presets    `yaml:"presets" json:"presets"`
}

// Thresholds are the angle and timer limits of the state machine.
type Thresholds struct {
	PinchUnlock    float64 `yaml:"pinch_unlock" json:"pinch_unlock"`
	PinchRelease   float64 `yaml:"pinch_release" json:"pinch_release"`
	PinchRefreeze  float64 `yaml:"pinch_refreeze" json:"pinch_refreeze"`
	ExitResponsive float64 `yaml:"exit_responsive" json:"exit_responsive"`
	SteadyUnlock   float64 `yaml:"steady_unlock" json:"steady_unlock"`
	SteadyMoving   float64 `yaml:"steady_moving" json:"steady_moving"`
	SteadyStill    float64 `yaml:"steady_still" json:"steady_still"`
	SettleTime     float64 `yaml:"settle_time" json:"settle_time"`
}

// Presets are the filter coefficients the state machine switches between.
type Presets struct {
	Frozen       filter.Params `yaml:"frozen" json:"frozen"`
	Responsive   filter.Params `yaml:"responsive" json:"responsive"`
	PinchSlow    filter.Params `yaml:"pinch_slow" json:"pinch_slow"`
	LockedMoving filter.Params `yaml:"locked_moving" json:"locked_moving"`
	LockedStill  filter.Params `yaml:"locked_still" json:"locked_still"`
	Settling     filter.Params `yaml:"settling" json:"settling"`
	Free         filter.Params `yaml:"free" json:"free"`
}

// DefaultTuning returns the tuning of the reference rig.
func DefaultTuning() Tuning {
	return Tuning{
		AnchorWeight:    0.1,
		NeckDrop:        0.18,
		ShoulderOffset:  0.1,
		FingerOffset:    0.02,
		RingOffset:      0.01,
		PalmOffset:      0.06,
		ReflectionScale: 1.35,
		UpRange:         0.55,
		DownRange:       0.25,
		OriginBlend:     0.6,
		DirectionBlend:  0.35,
		ValidCone:       110,
		Thresholds: Thresholds{
			PinchUnlock:    6.5,
			PinchRelease:   3,
			PinchRefreeze:  0.5,
			ExitResponsive: 5,
			SteadyUnlock:   4,
			SteadyMoving:   1.5,
			SteadyStill:    2,
			SettleTime:     0.25,
		},
		Presets: Presets{
			Frozen:       filter.Params{},
			Responsive:   filter.Params{MinCutoff: 1, DerivativeCutoff: 1, Beta: 5},
			PinchSlow:    filter.Params{MinCutoff: 0.1, DerivativeCutoff: 0.4, Beta: 2},
			LockedMoving: filter.Params{MinCutoff: 0.2, DerivativeCutoff: 0.5, Beta: 2},
			LockedStill:  filter.Params{MinCutoff: 0.1, DerivativeCutoff: 0.2, Beta: 1},
			Settling:     filter.Params{MinCutoff: 0.15, DerivativeCutoff: 0.5, Beta: 1},
			Free:         filter.Params{MinCutoff: 0.2, DerivativeCutoff: 1, Beta: 5},
		},
	}
}

// Validate reports the first out-of-range value.
func (t Tuning) Validate() error {
	if t.AnchorWeight <= 0 || t.AnchorWeight > 1 {
		return fmt.Errorf("anchor_weight must be in (0, 1], got %v", t.AnchorWeight)
	}
	if t.UpRange <= 0 || t.DownRange <= 0 {
		return errors.New("up_range and down_range must be positive")
	}
	if t.OriginBlend < 0 || t.OriginBlend > 1 {
		return fmt.Errorf("origin_blend must be in [0, 1], got %v", t.OriginBlend)
	}
	if t.DirectionBlend < 0 || t.DirectionBlend > 1 {
		return fmt.Errorf("direction_blend must be in [0, 1], got %v", t.DirectionBlend)
	}
	if t.ValidCone <= 0 || t.ValidCone > 180 {
		return fmt.Errorf("valid_cone must be in (0, 180], got %v", t.ValidCone)
	}
	if t.Thresholds.SettleTime <= 0 {
		return fmt.Errorf("settle_time must be positive, got %v", t.Thresholds.SettleTime)
	}
	presets := map[string]filter.Params{
		"frozen":        t.Presets.Frozen,
		"responsive":    t.Presets.Responsive,
		"pinch_slow":    t.Presets.PinchSlow,
		"locked_moving": t.Presets.LockedMoving,
		"locked_still":  t.Presets.LockedStill,
		"settling":      t.Presets.Settling,
		"free":          t.Presets.Free,
	}
	for name, p := range presets {
		if p.MinCutoff < 0 || p.DerivativeCutoff < 0 || p.Beta < 0 {
			return fmt.Errorf("preset %s has a negative coefficient", name)
		}
	}
	return nil
}
