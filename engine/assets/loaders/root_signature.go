package loaders

import (
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
)

// RootSignatureConfig is a parsed root signature descriptor. Static
// samplers are referenced by name and resolved by the store.
type RootSignatureConfig struct {
	Parameters   []metadata.RootParameter
	SamplerNames []string
}

type RootSignatureLoader struct{}

// Load reads descriptorRanges, rootParams and samplerNames. Descriptor
// table parameters take numDescriptors ranges each, in declaration order.
func (RootSignatureLoader) Load(path string) (*RootSignatureConfig, error) {
	doc, err := readDescriptor(path)
	if err != nil {
		return nil, err
	}

	var ranges []metadata.DescriptorRange
	for _, r := range doc.Objects("descriptorRanges") {
		ranges = append(ranges, metadata.DescriptorRange{
			Type:                              metadata.DescriptorRangeType(r.Uint("type")),
			NumDescriptors:                    r.Uint("descriptorNum"),
			BaseShaderRegister:                r.Uint("baseRegister"),
			RegisterSpace:                     r.Uint("registerSpace"),
			OffsetInDescriptorsFromTableStart: metadata.DescriptorRangeOffsetAppend,
		})
	}

	cfg := &RootSignatureConfig{}
	next := 0
	for _, p := range doc.Objects("rootParams") {
		param := metadata.RootParameter{
			ParameterType:    metadata.RootParameterType(p.Uint("paramType")),
			ShaderVisibility: metadata.ShaderVisibility(p.Uint("shaderVisibility")),
		}
		count := int(p.Uint("numDescriptors"))
		if param.ParameterType == metadata.RootParameterTypeDescriptorTable && doc.Err() == nil {
			if next+count > len(ranges) {
				p.fail("numDescriptors", "needs %d ranges but only %d of %d remain", count, len(ranges)-next, len(ranges))
				break
			}
			param.Ranges = ranges[next : next+count]
			next += count
		}
		cfg.Parameters = append(cfg.Parameters, param)
	}

	if doc.Has("samplerNames") {
		cfg.SamplerNames = doc.Strings("samplerNames")
	}
	if err := doc.Err(); err != nil {
		return nil, err
	}
	return cfg, nil
}
