package metadata

type ResourceFlags uint32

const (
	ResourceFlagNone               ResourceFlags = 0
	ResourceFlagAllowRenderTarget  ResourceFlags = 0x1
	ResourceFlagAllowDepthStencil  ResourceFlags = 0x2
	ResourceFlagDenyShaderResource ResourceFlags = 0x8
)

/** @brief Describes a GPU resource to create. */
type ResourceDesc struct {
	Dimension        ResourceDimension
	Width            uint64
	Height           uint32
	DepthOrArraySize uint16
	MipLevels        uint16
	Format           Format
	SampleDesc       SampleDesc
	Flags            ResourceFlags
}

/** @brief Describes the render target view over a resource. */
type RenderTargetViewDesc struct {
	Format        Format
	ViewDimension RTVDimension
	// MipSlice selects the mip level rendered to.
	MipSlice uint32
	// FirstArraySlice and ArraySize select the slices of an array texture.
	FirstArraySlice uint32
	ArraySize       uint32
	// NumElements is the element count of buffer views.
	NumElements uint32
}

/**
 * @brief A GPU resource owned by the allocator. Identity is the pointer;
 * Released flips once the allocator retires it.
 */
type Resource struct {
	ID       uint64
	Name     string
	Desc     ResourceDesc
	State    ResourceState
	Released bool
	// Data holds the bytes uploaded into static buffers and textures.
	Data []byte
}

/**
 * @brief A render target with its view handles: one RTV, one SRV in the
 * CPU heap and the SRV's shader-visible copy.
 */
type RtvSrvBundle struct {
	Name     string
	RTV      CPUDescriptorHandle
	SRVCPU   CPUDescriptorHandle
	SRVGPU   GPUDescriptorHandle
	Texture  *Resource
	TexDesc  ResourceDesc
	ViewDesc RenderTargetViewDesc
	// ScreenSized bundles follow the window size and are rebuilt on resize.
	ScreenSized bool
	// Persistent bundles hold precomputed data and are not cleared per frame.
	Persistent bool
}

// RTVHandle tolerates absent bundles by returning the null descriptor.
func (b *RtvSrvBundle) RTVHandle() CPUDescriptorHandle {
	if b == nil {
		return CPUDescriptorHandle{}
	}
	return b.RTV
}

func (b *RtvSrvBundle) SRVHandle() GPUDescriptorHandle {
	if b == nil {
		return GPUDescriptorHandle{}
	}
	return b.SRVGPU
}

func (b *RtvSrvBundle) Resource() *Resource {
	if b == nil {
		return nil
	}
	return b.Texture
}

type VertexBufferView struct {
	Buffer        *Resource
	SizeInBytes   uint32
	StrideInBytes uint32
}

type IndexBufferView struct {
	Buffer      *Resource
	SizeInBytes uint32
	Format      Format
}

/** @brief The swap chain targets the frame renderer draws into. */
type FrameTargets struct {
	BackBuffers []*Resource
	RTVs        []CPUDescriptorHandle
	DepthBuffer *Resource
	DSV         CPUDescriptorHandle
	Width       uint32
	Height      uint32
}
