package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ayusman/handray/internal/geom"
)

func TestOneEuro_FirstSamplePassthrough(t *testing.T) {
	f := NewOneEuro(DefaultParams())
	x := geom.Vec3{X: 0.3, Y: -1, Z: 2}

	assert.Equal(t, x, f.Step(12.5, x))

	last, ok := f.Last()
	require.True(t, ok)
	assert.Equal(t, x, last)
}

func TestOneEuro_SameTimestampIsNoop(t *testing.T) {
	f := NewOneEuro(DefaultParams())
	f.Step(1.0, geom.Vec3{X: 1})
	first := f.Step(1.1, geom.Vec3{X: 2})

	second := f.Step(1.1, geom.Vec3{X: 50})
	third := f.Step(1.1+MinInterval/2, geom.Vec3{X: -50})

	assert.Equal(t, first, second)
	assert.Equal(t, first, third)
}

func TestOneEuro_StepInputConvergesWithoutOvershoot(t *testing.T) {
	f := NewOneEuro(Params{MinCutoff: 1, DerivativeCutoff: 1, Beta: 0.5})
	f.Step(0, geom.Vec3{})

	target := geom.Vec3{X: 1, Y: 2, Z: -1}
	prevDist := distance(geom.Vec3{}, target)
	var out geom.Vec3
	for i := 1; i <= 400; i++ {
		out = f.Step(float64(i)/60, target)

		dist := distance(out, target)
		assert.LessOrEqual(t, dist, prevDist, "tick %d moved away from the target", i)
		prevDist = dist

		assert.LessOrEqual(t, out.X, target.X+1e-12)
		assert.LessOrEqual(t, out.Y, target.Y+1e-12)
		assert.GreaterOrEqual(t, out.Z, target.Z-1e-12)
	}
	assert.Less(t, distance(out, target), 1e-3)
}

func TestOneEuro_ZeroParamsFreezeOutput(t *testing.T) {
	f := NewOneEuro(DefaultParams())
	start := geom.Vec3{Z: 1}
	f.Step(0, start)
	f.SetParams(Params{}, false)

	for i := 1; i < 10; i++ {
		assert.Equal(t, start, f.Step(float64(i)*0.1, geom.Vec3{X: float64(i)}))
	}
}

func TestOneEuro_SetParams(t *testing.T) {
	t.Run("instant", func(t *testing.T) {
		f := NewOneEuro(DefaultParams())
		p := Params{MinCutoff: 0.1, DerivativeCutoff: 0.4, Beta: 2}
		f.SetParams(p, false)
		assert.Equal(t, p, f.Params())
		assert.Equal(t, p, f.Target())
	})

	t.Run("smooth only moves target", func(t *testing.T) {
		f := NewOneEuro(DefaultParams())
		p := Params{MinCutoff: 0.1, DerivativeCutoff: 0.4, Beta: 2}
		f.SetParams(p, true)
		assert.Equal(t, DefaultParams(), f.Params())
		assert.Equal(t, p, f.Target())
	})
}

func TestOneEuro_SyncParamsNeverOvershoots(t *testing.T) {
	steps := []float64{0, 0.05, 0.3, 0.9, 1}
	for _, dt := range steps {
		f := NewOneEuro(Params{MinCutoff: 1, DerivativeCutoff: 1, Beta: 5})
		target := Params{MinCutoff: 0.2, DerivativeCutoff: 0.5, Beta: 2}
		f.SetParams(target, true)

		prev := f.Params()
		for i := 0; i < 200; i++ {
			f.SyncParams(dt)
			p := f.Params()
			assert.GreaterOrEqual(t, p.MinCutoff, target.MinCutoff)
			assert.GreaterOrEqual(t, p.DerivativeCutoff, target.DerivativeCutoff)
			assert.GreaterOrEqual(t, p.Beta, target.Beta)
			assert.LessOrEqual(t, p.Beta, prev.Beta)
			prev = p
		}
		if dt > 0 {
			assert.InDelta(t, target.Beta, f.Params().Beta, 1e-3, "dt=%v", dt)
		}
	}
}

func TestOneEuro_SyncParamsClampsLargeAndNegativeDt(t *testing.T) {
	f := NewOneEuro(DefaultParams())
	target := Params{MinCutoff: 0.15, DerivativeCutoff: 0.5, Beta: 1}
	f.SetParams(target, true)

	f.SyncParams(-3)
	assert.Equal(t, DefaultParams(), f.Params())

	f.SyncParams(32400)
	assert.Equal(t, target, f.Params())
}

func TestOneEuro_Reset(t *testing.T) {
	f := NewOneEuro(DefaultParams())
	f.Step(0, geom.Vec3{X: 1})
	f.Reset()

	_, ok := f.Last()
	assert.False(t, ok)

	x := geom.Vec3{Y: 4}
	assert.Equal(t, x, f.Step(0.5, x))
}

func distance(a, b geom.Vec3) float64 {
	return r3.Norm(r3.Sub(a, b))
}
