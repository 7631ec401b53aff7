package testbed

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
)

// sphere builds a UV sphere of the given radius.
func sphere(radius float32, slices, stacks int) ([]metadata.Vertex, []uint32) {
	var vertices []metadata.Vertex
	for stack := 0; stack <= stacks; stack++ {
		v := float32(stack) / float32(stacks)
		phi := float64(v) * math.Pi
		for slice := 0; slice <= slices; slice++ {
			u := float32(slice) / float32(slices)
			theta := float64(u) * 2 * math.Pi
			normal := mgl32.Vec3{
				float32(math.Sin(phi) * math.Cos(theta)),
				float32(math.Cos(phi)),
				float32(math.Sin(phi) * math.Sin(theta)),
			}
			vertices = append(vertices, metadata.Vertex{
				Position: normal.Mul(radius),
				UV:       mgl32.Vec2{u, v},
				Normal:   normal,
				Tangent:  mgl32.Vec3{float32(-math.Sin(theta)), 0, float32(math.Cos(theta))},
			})
		}
	}
	return vertices, gridIndices(slices, stacks)
}

// helix sweeps a ring of the given thickness along a helix.
func helix(radius, thickness, height float32, turns, segments, sides int) ([]metadata.Vertex, []uint32) {
	var vertices []metadata.Vertex
	steps := turns * segments
	for step := 0; step <= steps; step++ {
		t := float64(step) / float64(segments) * 2 * math.Pi
		center := mgl32.Vec3{
			radius * float32(math.Cos(t)),
			height * float32(step) / float32(steps),
			radius * float32(math.Sin(t)),
		}
		tangent := mgl32.Vec3{float32(-math.Sin(t)), 0, float32(math.Cos(t))}
		outward := mgl32.Vec3{float32(math.Cos(t)), 0, float32(math.Sin(t))}
		up := mgl32.Vec3{0, 1, 0}
		for side := 0; side <= sides; side++ {
			a := float64(side) / float64(sides) * 2 * math.Pi
			normal := outward.Mul(float32(math.Cos(a))).Add(up.Mul(float32(math.Sin(a))))
			vertices = append(vertices, metadata.Vertex{
				Position: center.Add(normal.Mul(thickness)),
				UV:       mgl32.Vec2{float32(side) / float32(sides), float32(step) / float32(steps)},
				Normal:   normal,
				Tangent:  tangent,
			})
		}
	}
	return vertices, gridIndices(sides, steps)
}

// gridIndices triangulates a (columns+1) x (rows+1) vertex grid.
func gridIndices(columns, rows int) []uint32 {
	indices := make([]uint32, 0, columns*rows*6)
	stride := uint32(columns + 1)
	for row := 0; row < rows; row++ {
		for col := 0; col < columns; col++ {
			i := uint32(row)*stride + uint32(col)
			indices = append(indices, i, i+stride, i+1, i+1, i+stride, i+stride+1)
		}
	}
	return indices
}
