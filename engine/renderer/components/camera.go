package components

import (
	"github.com/go-gl/mathgl/mgl32"
)

// pitchLimit is 89 degrees, keeping the camera away from gimbal lock.
const pitchLimit = float32(1.55334306)

/**
 * @brief A perspective camera. Position and rotation setters mark the view
 * matrix dirty; GetView rebuilds it lazily.
 */
type Camera struct {
	// Position of the camera. Use SetPosition so the view gets rebuilt.
	Position mgl32.Vec3
	// EulerRotation holds pitch, yaw and roll in radians.
	EulerRotation mgl32.Vec3
	IsDirty       bool
	ViewMatrix    mgl32.Mat4

	FOV      float32
	NearClip float32
	FarClip  float32
	// ProjectionMatrix follows the aspect ratio given to UpdateProjection.
	ProjectionMatrix mgl32.Mat4
}

// NewCamera creates a camera with a 45 degree field of view.
func NewCamera(aspect float32) *Camera {
	camera := &Camera{
		FOV:      mgl32.DegToRad(45.0),
		NearClip: 0.1,
		FarClip:  1000.0,
	}
	camera.Reset()
	camera.UpdateProjection(aspect)
	return camera
}

func (c *Camera) Reset() {
	c.EulerRotation = mgl32.Vec3{}
	c.Position = mgl32.Vec3{}
	c.IsDirty = false
	c.ViewMatrix = mgl32.Ident4()
}

func (c *Camera) UpdateProjection(aspect float32) {
	if aspect <= 0 {
		aspect = 1
	}
	c.ProjectionMatrix = mgl32.Perspective(c.FOV, aspect, c.NearClip, c.FarClip)
}

func (c *Camera) GetPosition() mgl32.Vec3 {
	return c.Position
}

func (c *Camera) SetPosition(position mgl32.Vec3) {
	c.Position = position
	c.IsDirty = true
}

func (c *Camera) GetEulerRotation() mgl32.Vec3 {
	return c.EulerRotation
}

func (c *Camera) SetEulerRotation(rotation mgl32.Vec3) {
	c.EulerRotation = rotation
	c.IsDirty = true
}

func (c *Camera) orientation() mgl32.Quat {
	return mgl32.AnglesToQuat(c.EulerRotation.X(), c.EulerRotation.Y(), c.EulerRotation.Z(), mgl32.XYZ)
}

func (c *Camera) GetView() mgl32.Mat4 {
	if c.IsDirty {
		world := mgl32.Translate3D(c.Position.X(), c.Position.Y(), c.Position.Z()).Mul4(c.orientation().Mat4())
		c.ViewMatrix = world.Inv()
		c.IsDirty = false
	}
	return c.ViewMatrix
}

func (c *Camera) GetProjection() mgl32.Mat4 {
	return c.ProjectionMatrix
}

func (c *Camera) Forward() mgl32.Vec3 {
	return c.orientation().Rotate(mgl32.Vec3{0, 0, -1})
}

func (c *Camera) Backward() mgl32.Vec3 {
	return c.Forward().Mul(-1)
}

func (c *Camera) Right() mgl32.Vec3 {
	return c.orientation().Rotate(mgl32.Vec3{1, 0, 0})
}

func (c *Camera) Left() mgl32.Vec3 {
	return c.Right().Mul(-1)
}

func (c *Camera) move(direction mgl32.Vec3, amount float32) {
	c.Position = c.Position.Add(direction.Mul(amount))
	c.IsDirty = true
}

func (c *Camera) MoveForward(amount float32) {
	c.move(c.Forward(), amount)
}

func (c *Camera) MoveBackward(amount float32) {
	c.move(c.Backward(), amount)
}

func (c *Camera) MoveLeft(amount float32) {
	c.move(c.Left(), amount)
}

func (c *Camera) MoveRight(amount float32) {
	c.move(c.Right(), amount)
}

func (c *Camera) MoveUp(amount float32) {
	c.move(mgl32.Vec3{0, 1, 0}, amount)
}

func (c *Camera) MoveDown(amount float32) {
	c.move(mgl32.Vec3{0, -1, 0}, amount)
}

func (c *Camera) Yaw(amount float32) {
	c.EulerRotation[1] += amount
	c.IsDirty = true
}

func (c *Camera) Pitch(amount float32) {
	c.EulerRotation[0] = mgl32.Clamp(c.EulerRotation[0]+amount, -pitchLimit, pitchLimit)
	c.IsDirty = true
}
