package metadata

import "strings"

// MaxRenderTargets is the number of simultaneous render targets a pipeline can write.
const MaxRenderTargets = 8

// DefaultSampleMask enables every sample.
const DefaultSampleMask uint32 = 0xffffffff

// PipelineCategory decides which render pass draws entities using a pipeline.
type PipelineCategory uint8

const (
	// PipelineCategoryNone pipelines are not drawn by any entity pass.
	PipelineCategoryNone PipelineCategory = iota
	PipelineCategoryStandard
	PipelineCategoryPBR
	PipelineCategoryTransparent
	PipelineCategoryRefractive
)

func (c PipelineCategory) String() string {
	switch c {
	case PipelineCategoryStandard:
		return "standard"
	case PipelineCategoryPBR:
		return "pbr"
	case PipelineCategoryTransparent:
		return "transparent"
	case PipelineCategoryRefractive:
		return "refractive"
	default:
		return "none"
	}
}

// ParsePipelineCategory accepts the names produced by String.
func ParsePipelineCategory(name string) (PipelineCategory, bool) {
	switch strings.ToLower(name) {
	case "standard":
		return PipelineCategoryStandard, true
	case "pbr":
		return PipelineCategoryPBR, true
	case "transparent":
		return PipelineCategoryTransparent, true
	case "refractive":
		return PipelineCategoryRefractive, true
	case "none":
		return PipelineCategoryNone, true
	default:
		return PipelineCategoryNone, false
	}
}

// wellKnownPipelines maps the stock pipeline names to their pass when a
// descriptor carries no explicit category.
var wellKnownPipelines = map[string]PipelineCategory{
	"basicPSO":       PipelineCategoryStandard,
	"pbrPSO":         PipelineCategoryPBR,
	"transparentPSO": PipelineCategoryTransparent,
	"refractivePSO":  PipelineCategoryRefractive,
}

// CategoryForPipelineName returns the category of a well-known pipeline name.
func CategoryForPipelineName(name string) PipelineCategory {
	return wellKnownPipelines[name]
}

type InputElementDesc struct {
	SemanticName  string
	SemanticIndex uint32
	Format        Format
	InputSlot     uint32
	// AlignedByteOffset is always "append" for descriptor-defined layouts.
	AlignedByteOffset uint32
}

type RenderTargetBlendDesc struct {
	BlendEnable           bool
	SrcBlend              Blend
	DestBlend             Blend
	BlendOp               BlendOp
	SrcBlendAlpha         Blend
	DestBlendAlpha        Blend
	BlendOpAlpha          BlendOp
	RenderTargetWriteMask uint8
}

type BlendDesc struct {
	AlphaToCoverageEnable  bool
	IndependentBlendEnable bool
	RenderTargets          [MaxRenderTargets]RenderTargetBlendDesc
}

type RasterizerDesc struct {
	FillMode        FillMode
	CullMode        CullMode
	DepthClipEnable bool
}

type DepthStencilDesc struct {
	DepthEnable    bool
	DepthWriteMask uint32
	DepthFunc      ComparisonFunc
}

type SampleDesc struct {
	Count   uint32
	Quality uint32
}

type PipelineStateDesc struct {
	RootSignature         *RootSignature
	VS                    *ShaderBlob
	PS                    *ShaderBlob
	InputLayout           []InputElementDesc
	BlendState            BlendDesc
	SampleMask            uint32
	RasterizerState       RasterizerDesc
	DepthStencilState     DepthStencilDesc
	PrimitiveTopologyType PrimitiveTopologyType
	NumRenderTargets      uint32
	RTVFormats            [MaxRenderTargets]Format
	DSVFormat             Format
	SampleDesc            SampleDesc
}

/** @brief A created graphics pipeline. Identity is the pointer. */
type PipelineState struct {
	Name     string
	Desc     PipelineStateDesc
	Category PipelineCategory
}
