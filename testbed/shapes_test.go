package testbed

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSphereGeometry(t *testing.T) {
	vertices, indices := sphere(2, 8, 4)
	assert.Len(t, vertices, 9*5)
	assert.Len(t, indices, 8*4*6)
	for _, v := range vertices {
		assert.InDelta(t, 2, v.Position.Len(), 1e-4)
		assert.InDelta(t, 1, v.Normal.Len(), 1e-4)
	}
}

func TestHelixIndicesStayInRange(t *testing.T) {
	vertices, indices := helix(1, 0.2, 3, 2, 16, 6)
	assert.Len(t, vertices, (2*16+1)*7)
	for _, i := range indices {
		assert.Less(t, int(i), len(vertices))
	}
	assert.InDelta(t, 3, vertices[len(vertices)-1].Position.Y(), 0.21)
}
