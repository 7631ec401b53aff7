package scene

import "github.com/go-gl/mathgl/mgl32"

// Transform places an entity in the world. Rotation is pitch, yaw, roll.
type Transform struct {
	Position mgl32.Vec3
	Rotation mgl32.Vec3
	Scale    mgl32.Vec3
}

func NewTransform() Transform {
	return Transform{Scale: mgl32.Vec3{1, 1, 1}}
}

func (t *Transform) MoveAbsolute(delta mgl32.Vec3) {
	t.Position = t.Position.Add(delta)
}

func (t *Transform) Rotate(delta mgl32.Vec3) {
	t.Rotation = t.Rotation.Add(delta)
}

func (t *Transform) SetScale(scale mgl32.Vec3) {
	t.Scale = scale
}

// World returns translation * rotation * scale.
func (t Transform) World() mgl32.Mat4 {
	translation := mgl32.Translate3D(t.Position.X(), t.Position.Y(), t.Position.Z())
	rotation := mgl32.AnglesToQuat(t.Rotation.X(), t.Rotation.Y(), t.Rotation.Z(), mgl32.XYZ).Mat4()
	scale := mgl32.Scale3D(t.Scale.X(), t.Scale.Y(), t.Scale.Z())
	return translation.Mul4(rotation).Mul4(scale)
}

// WorldInverseTranspose is used to transform normals.
func (t Transform) WorldInverseTranspose() mgl32.Mat4 {
	return t.World().Inv().Transpose()
}
