package geom

import "encoding/json"

// Pose is a world-space position and rotation.
type Pose struct {
	Position Vec3
	Rotation Quat
}

// IdentityPose is a pose at the origin facing +Z.
func IdentityPose() Pose {
	return Pose{Rotation: Identity()}
}

// Forward returns the pose's forward axis.
func (p Pose) Forward() Vec3 { return Rotate(p.Rotation, Forward) }

// Up returns the pose's up axis.
func (p Pose) Up() Vec3 { return Rotate(p.Rotation, Up) }

// Right returns the pose's right axis.
func (p Pose) Right() Vec3 { return Rotate(p.Rotation, Right) }

type wireVec struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type wireQuat struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	W float64 `json:"w"`
}

type wirePose struct {
	Position wireVec  `json:"position"`
	Rotation wireQuat `json:"rotation"`
}

// MarshalJSON encodes the pose as {"position":{x,y,z},"rotation":{x,y,z,w}}.
func (p Pose) MarshalJSON() ([]byte, error) {
	return json.Marshal(wirePose{
		Position: wireVec{X: p.Position.X, Y: p.Position.Y, Z: p.Position.Z},
		Rotation: wireQuat{X: p.Rotation.Imag, Y: p.Rotation.Jmag, Z: p.Rotation.Kmag, W: p.Rotation.Real},
	})
}

// UnmarshalJSON decodes the format written by MarshalJSON. A missing rotation
// decodes as the identity.
func (p *Pose) UnmarshalJSON(data []byte) error {
	w := wirePose{Rotation: wireQuat{W: 1}}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	p.Position = Vec3{X: w.Position.X, Y: w.Position.Y, Z: w.Position.Z}
	p.Rotation = Quat{Real: w.Rotation.W, Imag: w.Rotation.X, Jmag: w.Rotation.Y, Kmag: w.Rotation.Z}
	return nil
}
