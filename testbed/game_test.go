package testbed

import (
	"testing"

	"github.com/spaghettifunk/prism/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
	"golang.org/x/exp/rand"
)

func TestSceneLightsAreSeeded(t *testing.T) {
	a := sceneLights(rand.New(rand.NewSource(lightSeed)))
	b := sceneLights(rand.New(rand.NewSource(lightSeed)))
	assert.Equal(t, a, b)
	assert.Len(t, a, 3+pointLights)
	assert.LessOrEqual(t, len(a), metadata.MaxLights)

	for _, l := range a[3:] {
		assert.Equal(t, metadata.LightTypePoint, l.Type)
		assert.GreaterOrEqual(t, l.Range, float32(5))
	}
}
