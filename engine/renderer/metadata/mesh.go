package metadata

import "github.com/go-gl/mathgl/mgl32"

/** @brief Interleaved vertex layout shared by every mesh. */
type Vertex struct {
	Position mgl32.Vec3
	UV       mgl32.Vec2
	Normal   mgl32.Vec3
	Tangent  mgl32.Vec3
}

// VertexStride is the size of one Vertex in bytes.
const VertexStride = (3 + 2 + 3 + 3) * 4

/** @brief Immutable GPU geometry. */
type Mesh struct {
	Name         string
	VertexBuffer VertexBufferView
	IndexBuffer  IndexBufferView
	IndexCount   uint32
	VertexCount  uint32
}
