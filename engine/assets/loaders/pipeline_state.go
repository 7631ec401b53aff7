package loaders

import (
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
)

// PipelineStateConfig is a parsed pipeline descriptor. Desc has no root
// signature or shaders yet; the store resolves them by name.
type PipelineStateConfig struct {
	RootSignatureName string
	VertexShaderName  string
	PixelShaderName   string
	Category          metadata.PipelineCategory
	// HasCategory is false when the descriptor relies on the name fallback.
	HasCategory bool
	Desc        metadata.PipelineStateDesc
}

type PipelineStateLoader struct{}

func (PipelineStateLoader) Load(path string) (*PipelineStateConfig, error) {
	doc, err := readDescriptor(path)
	if err != nil {
		return nil, err
	}
	cfg := &PipelineStateConfig{
		RootSignatureName: doc.String("rootSigName"),
		VertexShaderName:  doc.String("vsName"),
		PixelShaderName:   doc.String("psName"),
	}

	if doc.Has("category") {
		name := doc.String("category")
		if c, ok := metadata.ParsePipelineCategory(name); ok {
			cfg.Category = c
			cfg.HasCategory = true
		} else if doc.Err() == nil {
			doc.fail("category", "unknown category %q", name)
		}
	}

	desc := &cfg.Desc
	for _, e := range doc.Objects("inputElements") {
		desc.InputLayout = append(desc.InputLayout, metadata.InputElementDesc{
			Format:            metadata.Format(e.Uint("format")),
			SemanticName:      e.String("semanticName"),
			SemanticIndex:     e.Uint("index"),
			AlignedByteOffset: metadata.DescriptorRangeOffsetAppend,
		})
	}

	formats := doc.Uints("renderTargetFormats")
	desc.NumRenderTargets = uint32(len(formats))
	for i, f := range formats {
		if i < metadata.MaxRenderTargets {
			desc.RTVFormats[i] = metadata.Format(f)
		}
	}
	if desc.NumRenderTargets > metadata.MaxRenderTargets {
		doc.fail("renderTargetFormats", "at most %d render targets, got %d", metadata.MaxRenderTargets, desc.NumRenderTargets)
	}

	blends := doc.Objects("blendStates")
	if doc.Err() == nil && len(blends) < int(desc.NumRenderTargets) {
		doc.fail("blendStates", "expected %d entries, one per render target, got %d", desc.NumRenderTargets, len(blends))
	}
	for i, b := range blends {
		if i >= metadata.MaxRenderTargets {
			break
		}
		desc.BlendState.RenderTargets[i] = metadata.RenderTargetBlendDesc{
			SrcBlend:              metadata.Blend(b.Uint("srcBlend")),
			DestBlend:             metadata.Blend(b.Uint("destBlend")),
			BlendOp:               metadata.BlendOp(b.Uint("blendOp")),
			SrcBlendAlpha:         metadata.BlendOne,
			DestBlendAlpha:        metadata.BlendZero,
			BlendOpAlpha:          metadata.BlendOpAdd,
			RenderTargetWriteMask: b.Uint8("writeMask"),
		}
	}
	desc.BlendState.IndependentBlendEnable = desc.NumRenderTargets > 1

	desc.DSVFormat = metadata.Format(doc.Uint("dsvFormat"))
	desc.SampleDesc = metadata.SampleDesc{
		Count:   doc.Uint("samplerCount"),
		Quality: doc.Uint("samplerQuality"),
	}

	rs := doc.Object("rasterizerState")
	desc.RasterizerState = metadata.RasterizerDesc{
		FillMode:        metadata.FillMode(rs.Uint("fill")),
		CullMode:        metadata.CullMode(rs.Uint("cull")),
		DepthClipEnable: rs.Bool("depthClip"),
	}

	ds := doc.Object("depthStencil")
	desc.DepthStencilState = metadata.DepthStencilDesc{
		DepthEnable:    ds.Bool("depthEnable"),
		DepthFunc:      metadata.ComparisonFunc(ds.Uint("depthFunc")),
		DepthWriteMask: ds.Uint("writeMask"),
	}

	desc.SampleMask = metadata.DefaultSampleMask
	desc.PrimitiveTopologyType = metadata.PrimitiveTopologyTypeTriangle

	if err := doc.Err(); err != nil {
		return nil, err
	}
	return cfg, nil
}
