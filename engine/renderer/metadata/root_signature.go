package metadata

import "math"

// DescriptorRangeOffsetAppend places a range directly after the previous one in its table.
const DescriptorRangeOffsetAppend uint32 = math.MaxUint32

type DescriptorRange struct {
	Type                              DescriptorRangeType
	NumDescriptors                    uint32
	BaseShaderRegister                uint32
	RegisterSpace                     uint32
	OffsetInDescriptorsFromTableStart uint32
}

// RootParameter is a descriptor table entry of a root signature. Ranges is
// empty for parameters that are not tables.
type RootParameter struct {
	ParameterType    RootParameterType
	ShaderVisibility ShaderVisibility
	Ranges           []DescriptorRange
}

/** @brief A sampler baked into a root signature. */
type StaticSamplerDesc struct {
	Filter           Filter
	AddressU         TextureAddressMode
	AddressV         TextureAddressMode
	AddressW         TextureAddressMode
	MipLODBias       float32
	MaxAnisotropy    uint32
	ComparisonFunc   ComparisonFunc
	MinLOD           float32
	MaxLOD           float32
	ShaderRegister   uint32
	RegisterSpace    uint32
	ShaderVisibility ShaderVisibility
}

type RootSignatureFlags uint32

const (
	RootSignatureFlagNone                           RootSignatureFlags = 0
	RootSignatureFlagAllowInputAssemblerInputLayout RootSignatureFlags = 0x1
)

type RootSignatureDesc struct {
	Parameters     []RootParameter
	StaticSamplers []StaticSamplerDesc
	Flags          RootSignatureFlags
}

/** @brief A created root signature. Identity is the pointer. */
type RootSignature struct {
	Name string
	Desc RootSignatureDesc
	// Blob is the serialized form handed to the device.
	Blob []byte
}
