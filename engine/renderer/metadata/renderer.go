package metadata

// Format mirrors the DXGI format enumeration; descriptors carry the numeric value.
type Format uint32

const (
	FormatUnknown           Format = 0
	FormatR32G32B32A32Float Format = 2
	FormatR32G32B32Float    Format = 6
	FormatR16G16B16A16Float Format = 10
	FormatR32G32Float       Format = 16
	FormatR8G8B8A8Unorm     Format = 28
	FormatR8G8B8A8UnormSRGB Format = 29
	FormatR16G16Float       Format = 34
	FormatD32Float          Format = 40
	FormatR32Float          Format = 41
	FormatR32Uint           Format = 42
	FormatD24UnormS8Uint    Format = 45
	FormatBC1Unorm          Format = 71
	FormatBC2Unorm          Format = 74
	FormatBC3Unorm          Format = 77
	FormatB8G8R8A8Unorm     Format = 87
	FormatBC7Unorm          Format = 98
)

// BytesPerPixel returns the texel size of uncompressed formats, zero otherwise.
func (f Format) BytesPerPixel() uint32 {
	switch f {
	case FormatR32G32B32A32Float:
		return 16
	case FormatR32G32B32Float:
		return 12
	case FormatR16G16B16A16Float, FormatR32G32Float:
		return 8
	case FormatR8G8B8A8Unorm, FormatR8G8B8A8UnormSRGB, FormatR16G16Float,
		FormatD32Float, FormatR32Float, FormatR32Uint, FormatD24UnormS8Uint, FormatB8G8R8A8Unorm:
		return 4
	default:
		return 0
	}
}

type ResourceState uint32

const (
	ResourceStateCommon ResourceState = iota
	ResourceStatePresent
	ResourceStateRenderTarget
	ResourceStatePixelShaderResource
	ResourceStateDepthWrite
	ResourceStateCopyDest
	ResourceStateGenericRead
)

func (s ResourceState) String() string {
	switch s {
	case ResourceStatePresent:
		return "PRESENT"
	case ResourceStateRenderTarget:
		return "RENDER_TARGET"
	case ResourceStatePixelShaderResource:
		return "PIXEL_SHADER_RESOURCE"
	case ResourceStateDepthWrite:
		return "DEPTH_WRITE"
	case ResourceStateCopyDest:
		return "COPY_DEST"
	case ResourceStateGenericRead:
		return "GENERIC_READ"
	default:
		return "COMMON"
	}
}

type ResourceDimension uint32

const (
	ResourceDimensionUnknown ResourceDimension = iota
	ResourceDimensionBuffer
	ResourceDimensionTexture1D
	ResourceDimensionTexture2D
	ResourceDimensionTexture3D
)

type RTVDimension uint32

const (
	RTVDimensionUnknown RTVDimension = iota
	RTVDimensionBuffer
	RTVDimensionTexture1D
	RTVDimensionTexture1DArray
	RTVDimensionTexture2D
	RTVDimensionTexture2DArray
	RTVDimensionTexture2DMS
	RTVDimensionTexture2DMSArray
	RTVDimensionTexture3D
)

type DescriptorRangeType uint32

const (
	DescriptorRangeTypeSRV DescriptorRangeType = iota
	DescriptorRangeTypeUAV
	DescriptorRangeTypeCBV
	DescriptorRangeTypeSampler
)

type RootParameterType uint32

const (
	RootParameterTypeDescriptorTable RootParameterType = iota
	RootParameterType32BitConstants
	RootParameterTypeCBV
	RootParameterTypeSRV
	RootParameterTypeUAV
)

type ShaderVisibility uint32

const (
	ShaderVisibilityAll ShaderVisibility = iota
	ShaderVisibilityVertex
	ShaderVisibilityHull
	ShaderVisibilityDomain
	ShaderVisibilityGeometry
	ShaderVisibilityPixel
)

type Filter uint32

const (
	FilterMinMagMipPoint  Filter = 0
	FilterMinMagMipLinear Filter = 0x15
	FilterAnisotropic     Filter = 0x55
)

type TextureAddressMode uint32

const (
	TextureAddressModeWrap TextureAddressMode = iota + 1
	TextureAddressModeMirror
	TextureAddressModeClamp
	TextureAddressModeBorder
	TextureAddressModeMirrorOnce
)

type Blend uint32

const (
	BlendZero Blend = iota + 1
	BlendOne
	BlendSrcColor
	BlendInvSrcColor
	BlendSrcAlpha
	BlendInvSrcAlpha
)

type BlendOp uint32

const (
	BlendOpAdd BlendOp = iota + 1
	BlendOpSubtract
	BlendOpRevSubtract
	BlendOpMin
	BlendOpMax
)

type FillMode uint32

const (
	FillModeWireframe FillMode = 2
	FillModeSolid     FillMode = 3
)

type CullMode uint32

const (
	CullModeNone CullMode = iota + 1
	CullModeFront
	CullModeBack
)

type ComparisonFunc uint32

const (
	ComparisonFuncNever ComparisonFunc = iota + 1
	ComparisonFuncLess
	ComparisonFuncEqual
	ComparisonFuncLessEqual
	ComparisonFuncGreater
	ComparisonFuncNotEqual
	ComparisonFuncGreaterEqual
	ComparisonFuncAlways
)

type PrimitiveTopologyType uint32

const (
	PrimitiveTopologyTypeUndefined PrimitiveTopologyType = iota
	PrimitiveTopologyTypePoint
	PrimitiveTopologyTypeLine
	PrimitiveTopologyTypeTriangle
	PrimitiveTopologyTypePatch
)

type PrimitiveTopology uint32

const (
	PrimitiveTopologyUndefined     PrimitiveTopology = 0
	PrimitiveTopologyTriangleList  PrimitiveTopology = 4
	PrimitiveTopologyTriangleStrip PrimitiveTopology = 5
)

type Viewport struct {
	TopLeftX float32
	TopLeftY float32
	Width    float32
	Height   float32
	MinDepth float32
	MaxDepth float32
}

type Rect struct {
	Left   int32
	Top    int32
	Right  int32
	Bottom int32
}

// FullViewport covers a width x height target with the default depth range.
func FullViewport(width, height uint32) (Viewport, Rect) {
	return Viewport{Width: float32(width), Height: float32(height), MaxDepth: 1},
		Rect{Right: int32(width), Bottom: int32(height)}
}
