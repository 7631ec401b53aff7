package metadata

import "github.com/go-gl/mathgl/mgl32"

// MaxLights is the size of the light array in every lighting constant buffer.
const MaxLights = 32

type LightType int32

const (
	LightTypeDirectional LightType = iota
	LightTypePoint
	LightTypeSpot
)

/** @brief Fixed layout light record, 64 bytes. */
type Light struct {
	Type        LightType
	Direction   mgl32.Vec3
	Range       float32
	Position    mgl32.Vec3
	Intensity   float32
	Color       mgl32.Vec3
	SpotFalloff float32
	_           [3]float32
}
