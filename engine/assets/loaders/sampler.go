package loaders

import (
	"math"

	"github.com/spaghettifunk/prism/engine/renderer/metadata"
)

type SamplerLoader struct{}

// Load reads a static sampler. The shader register is assigned by the
// root signature that references it.
func (SamplerLoader) Load(path string) (metadata.StaticSamplerDesc, error) {
	doc, err := readDescriptor(path)
	if err != nil {
		return metadata.StaticSamplerDesc{}, err
	}
	desc := metadata.StaticSamplerDesc{
		AddressU:         metadata.TextureAddressMode(doc.Uint("addressU")),
		AddressV:         metadata.TextureAddressMode(doc.Uint("addressV")),
		AddressW:         metadata.TextureAddressMode(doc.Uint("addressW")),
		Filter:           metadata.Filter(doc.Uint("filter")),
		MaxAnisotropy:    doc.Uint("anisotropy"),
		ShaderVisibility: metadata.ShaderVisibility(doc.Uint("shaderVisibility")),
		MaxLOD:           math.MaxFloat32,
	}
	if err := doc.Err(); err != nil {
		return metadata.StaticSamplerDesc{}, err
	}
	return desc, nil
}
