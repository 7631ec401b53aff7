package renderer

import "github.com/spaghettifunk/prism/engine/renderer/metadata"

// Device creates pipeline objects from their descriptions.
type Device interface {
	CreateRootSignature(name string, desc *metadata.RootSignatureDesc) (*metadata.RootSignature, error)
	CreateGraphicsPipelineState(name string, desc *metadata.PipelineStateDesc) (*metadata.PipelineState, error)
}

// Allocator owns GPU memory, descriptor heaps, the command list and the
// queue. It is used from the render goroutine only.
type Allocator interface {
	Device() Device
	CommandList() CommandList

	// Width and Height are the current window size; screen-sized render
	// targets are created with it.
	Width() uint32
	Height() uint32
	SetSize(width, height uint32)

	CreateStaticBuffer(name string, stride, count uint32, data []byte) (*metadata.Resource, error)
	CreateTexture(name string, desc metadata.ResourceDesc) (*metadata.Resource, error)
	CreateDepthBuffer(name string, width, height uint32, format metadata.Format) (*metadata.Resource, metadata.CPUDescriptorHandle, error)
	// LoadTexture uploads decoded texels and returns the SRV of the new texture.
	LoadTexture(data *metadata.TextureData) (metadata.CPUDescriptorHandle, error)
	CreateRtvSrvBundle(name string, texDesc metadata.ResourceDesc, rtvDesc metadata.RenderTargetViewDesc, screenSized bool) (*metadata.RtvSrvBundle, error)
	CreateRtvSrvBundleFromResource(name string, texture *metadata.Resource, rtvDesc metadata.RenderTargetViewDesc, screenSized bool) (*metadata.RtvSrvBundle, error)
	ReleaseResource(res *metadata.Resource)

	// FillNextConstantBuffer writes data into the constant buffer ring and
	// returns the shader-visible view of it.
	FillNextConstantBuffer(data []byte) (metadata.GPUDescriptorHandle, error)
	CopyToDescriptorHeap(first metadata.CPUDescriptorHandle, count uint32) (metadata.GPUDescriptorHandle, error)

	CloseExecuteAndResetCommandList() error
	WaitForGPU() error
}

// CommandList records GPU work for the current frame.
type CommandList interface {
	ResourceBarrier(res *metadata.Resource, before, after metadata.ResourceState)
	ClearRenderTargetView(rtv metadata.CPUDescriptorHandle, color [4]float32)
	ClearDepthStencilView(dsv metadata.CPUDescriptorHandle, depth float32, stencil uint8)
	OMSetRenderTargets(rtvs []metadata.CPUDescriptorHandle, dsv *metadata.CPUDescriptorHandle)
	RSSetViewports(vp metadata.Viewport)
	RSSetScissorRects(rect metadata.Rect)
	IASetPrimitiveTopology(topology metadata.PrimitiveTopology)
	IASetVertexBuffers(view metadata.VertexBufferView)
	IASetIndexBuffer(view metadata.IndexBufferView)
	SetDescriptorHeaps()
	SetGraphicsRootSignature(rs *metadata.RootSignature)
	SetPipelineState(pso *metadata.PipelineState)
	SetGraphicsRootDescriptorTable(index uint32, table metadata.GPUDescriptorHandle)
	DrawInstanced(vertexCount, instanceCount, startVertex, startInstance uint32)
	DrawIndexedInstanced(indexCount, instanceCount, startIndex uint32, baseVertex int32, startInstance uint32)
	BeginEvent(name string)
	EndEvent()
}

// SwapChain presents back buffers. Resize invalidates the previous targets.
type SwapChain interface {
	BufferCount() int
	Targets() *metadata.FrameTargets
	Present(vsync bool) error
	Resize(width, height uint32) (*metadata.FrameTargets, error)
}
