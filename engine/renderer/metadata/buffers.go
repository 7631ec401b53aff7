package metadata

import (
	"bytes"
	"encoding/binary"

	"github.com/go-gl/mathgl/mgl32"
)

// Constant buffer layouts. Field order and padding follow HLSL packing rules.

type VertexShaderExternalData struct {
	World             mgl32.Mat4
	WorldInvTranspose mgl32.Mat4
	View              mgl32.Mat4
	Projection        mgl32.Mat4
}

type PixelShaderExternalData struct {
	UVScale        mgl32.Vec2
	UVOffset       mgl32.Vec2
	CameraPosition mgl32.Vec3
	LightCount     int32
	Lights         [MaxLights]Light
}

type PbrPsPerMaterial struct {
	ColorTint mgl32.Vec3
	_         float32
	UVScale   mgl32.Vec2
	UVOffset  mgl32.Vec2
}

type PbrPsPerFrame struct {
	Lights         [MaxLights]Light
	LightCount     int32
	CameraPosition mgl32.Vec3
}

type SkyVSData struct {
	View       mgl32.Mat4
	Projection mgl32.Mat4
}

type IBLIrradianceMapData struct {
	FaceIndex int32
	_         [3]float32
}

type IBLSpecularConvolutionData struct {
	Roughness float32
	FaceIndex int32
	MipLevel  int32
	_         float32
}

// EncodeConstants lays out a fixed-size constant buffer struct in little endian.
func EncodeConstants(v any) []byte {
	var buf bytes.Buffer
	buf.Grow(binary.Size(v))
	// writes into a bytes.Buffer only fail for variable-size types
	if err := binary.Write(&buf, binary.LittleEndian, v); err != nil {
		panic(err)
	}
	return buf.Bytes()
}
