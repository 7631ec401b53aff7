package loaders

import (
	"github.com/go-gl/mathgl/mgl32"
)

type MaterialTexture struct {
	Name string
	Slot int
}

// MaterialConfig is a parsed material descriptor. Names are resolved by the store.
type MaterialConfig struct {
	RootSignatureName string
	PipelineStateName string
	ColorTint         mgl32.Vec3
	UVScale           mgl32.Vec2
	UVOffset          mgl32.Vec2
	Textures          []MaterialTexture
}

type MaterialLoader struct{}

func (MaterialLoader) Load(path string) (*MaterialConfig, error) {
	doc, err := readDescriptor(path)
	if err != nil {
		return nil, err
	}
	color := doc.Floats("color", 3)
	scale := doc.Floats("scale", 2)
	offset := doc.Floats("offset", 2)
	cfg := &MaterialConfig{
		RootSignatureName: doc.String("rsName"),
		PipelineStateName: doc.String("psoName"),
		ColorTint:         mgl32.Vec3{color[0], color[1], color[2]},
		UVScale:           mgl32.Vec2{scale[0], scale[1]},
		UVOffset:          mgl32.Vec2{offset[0], offset[1]},
	}

	count := doc.Int("textureCount")
	var textures []*node
	if count > 0 {
		textures = doc.Objects("textures")
	}
	if doc.Err() == nil && (count < 0 || count > len(textures)) {
		doc.fail("textureCount", "declares %d textures, %d listed", count, len(textures))
	}
	for i := 0; i < count && i < len(textures); i++ {
		cfg.Textures = append(cfg.Textures, MaterialTexture{
			Name: textures[i].String("name"),
			Slot: textures[i].Int("slot"),
		})
	}
	if err := doc.Err(); err != nil {
		return nil, err
	}
	return cfg, nil
}
