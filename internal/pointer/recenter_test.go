package pointer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ayusman/handray/internal/geom"
)

func TestComputeRecenter(t *testing.T) {
	head := geom.IdentityPose()

	tests := []struct {
		name  string
		ray   geom.Quat
		wantH float64
		wantV float64
	}{
		{"already centered", geom.Identity(), 0, 0},
		{"aimed left", geom.AngleAxis(-20, geom.Up), 20, 0},
		{"aimed right", geom.AngleAxis(25, geom.Up), -25, 0},
		{"aimed down", geom.AngleAxis(15, geom.Right), 0, -15},
		{"aimed up", geom.AngleAxis(-10, geom.Right), 0, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ray := geom.Pose{Rotation: tt.ray}
			got := ComputeRecenter(head, ray)
			assert.InDelta(t, tt.wantH, got.Horizontal, 1e-6)
			assert.InDelta(t, tt.wantV, got.Vertical, 1e-6)

			corrected := geom.Pose{Rotation: got.Apply(tt.ray)}
			assert.Less(t, geom.Angle(geom.Forward, corrected.Forward()), 1e-4)
		})
	}
}

func TestOffset_ApplyZeroIsIdentity(t *testing.T) {
	rot := geom.AngleAxis(33, geom.Vec3{X: 1, Y: 2, Z: 0.5})
	got := Offset{}.Apply(rot)
	assert.InDelta(t, 0, geom.QuatAngle(rot, got), 1e-9)
	assert.True(t, Offset{}.IsZero())
	assert.False(t, Offset{Vertical: 1}.IsZero())
}
