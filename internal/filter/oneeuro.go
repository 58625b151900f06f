// Package filter implements the One-Euro low-pass filter used to smooth pointer directions.
package filter

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ayusman/handray/internal/geom"
)

// MinInterval is the smallest timestamp advance that produces a new sample.
// Anything shorter returns the previous output unchanged.
const MinInterval = 1e-5

// Params are the three One-Euro coefficients.
type Params struct {
	MinCutoff        float64 `yaml:"min_cutoff" json:"min_cutoff"`
	DerivativeCutoff float64 `yaml:"derivative_cutoff" json:"derivative_cutoff"`
	Beta             float64 `yaml:"beta" json:"beta"`
}

// DefaultParams returns the coefficients a fresh filter starts with.
func DefaultParams() Params {
	return Params{MinCutoff: 1, DerivativeCutoff: 1, Beta: 10}
}

type sample struct {
	t  float64
	x  geom.Vec3
	dx geom.Vec3
}

// OneEuro is a per-axis low-pass filter whose cutoff rises with signal speed.
// Coefficients can be retuned instantly or faded in through SyncParams.
type OneEuro struct {
	active   Params
	target   Params
	previous *sample
}

// NewOneEuro creates a filter with no history.
func NewOneEuro(p Params) *OneEuro {
	return &OneEuro{active: p, target: p}
}

// Step feeds the sample x taken at time t and returns the filtered value.
func (f *OneEuro) Step(t float64, x geom.Vec3) geom.Vec3 {
	if f.previous == nil {
		f.previous = &sample{t: t, x: x}
		return x
	}

	prev := f.previous
	dt := t - prev.t
	if dt < MinInterval {
		return prev.x
	}

	rawDx := r3.Scale(1/dt, r3.Sub(x, prev.x))
	dx := geom.Lerp(prev.dx, rawDx, alpha(dt, f.active.DerivativeCutoff))

	cutoff := f.active.MinCutoff + f.active.Beta*r3.Norm(dx)
	out := geom.Lerp(prev.x, x, alpha(dt, cutoff))

	f.previous = &sample{t: t, x: out, dx: dx}
	return out
}

// alpha is the smoothing factor for a first-order low-pass with the given cutoff
// frequency over dt seconds.
func alpha(dt, cutoff float64) float64 {
	r := 2 * math.Pi * cutoff * dt
	return r / (r + 1)
}

// SetParams retunes the filter. With smooth set only the target moves and
// SyncParams fades the active coefficients toward it.
func (f *OneEuro) SetParams(p Params, smooth bool) {
	f.target = p
	if !smooth {
		f.active = p
	}
}

// SyncParams moves each active coefficient toward its target by the fraction dt,
// clamped to [0, 1].
func (f *OneEuro) SyncParams(dt float64) {
	f.active.MinCutoff = geom.LerpFloat(f.active.MinCutoff, f.target.MinCutoff, dt)
	f.active.DerivativeCutoff = geom.LerpFloat(f.active.DerivativeCutoff, f.target.DerivativeCutoff, dt)
	f.active.Beta = geom.LerpFloat(f.active.Beta, f.target.Beta, dt)
}

// Params returns the active coefficients.
func (f *OneEuro) Params() Params { return f.active }

// Target returns the coefficients SyncParams is approaching.
func (f *OneEuro) Target() Params { return f.target }

// Last returns the most recent filtered value.
func (f *OneEuro) Last() (geom.Vec3, bool) {
	if f.previous == nil {
		return geom.Vec3{}, false
	}
	return f.previous.x, true
}

// Reset drops the sample history. Coefficients are kept.
func (f *OneEuro) Reset() {
	f.previous = nil
}
