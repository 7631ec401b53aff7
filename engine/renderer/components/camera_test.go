package components

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestCameraViewInvertsPosition(t *testing.T) {
	c := NewCamera(16.0 / 9.0)
	c.SetPosition(mgl32.Vec3{0, 2, 5})

	origin := c.GetView().Mul4x1(mgl32.Vec4{0, 2, 5, 1})
	assert.InDelta(t, 0, origin.X(), 1e-5)
	assert.InDelta(t, 0, origin.Y(), 1e-5)
	assert.InDelta(t, 0, origin.Z(), 1e-5)
	assert.False(t, c.IsDirty)
}

func TestCameraPitchIsClamped(t *testing.T) {
	c := NewCamera(1)
	c.Pitch(10)
	assert.InDelta(t, pitchLimit, c.GetEulerRotation().X(), 1e-6)
	c.Pitch(-20)
	assert.InDelta(t, -pitchLimit, c.GetEulerRotation().X(), 1e-6)
}

func TestCameraMovesAlongForward(t *testing.T) {
	c := NewCamera(1)
	c.MoveForward(3)
	assert.InDelta(t, -3, c.GetPosition().Z(), 1e-5)

	c.Yaw(mgl32.DegToRad(90))
	c.MoveForward(2)
	assert.InDelta(t, -2, c.GetPosition().X(), 1e-4)
	assert.True(t, c.IsDirty)
}
