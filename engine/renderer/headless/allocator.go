package headless

import (
	"fmt"

	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/renderer"
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
)

// historyLimit bounds how many executed command lists are kept for inspection.
const historyLimit = 256

type AllocatorConfig struct {
	Width              uint32
	Height             uint32
	MaxConstantBuffers uint32
	MaxDescriptors     uint32
	MaxRTVs            uint32
	// MaxSubmissionsInFlight bounds the fence markers tracked by the constant buffer ring.
	MaxSubmissionsInFlight int
	RingPolicy             RingPolicy
	GPULatency             uint32
}

// Allocator is an in-process renderer.Allocator. Every resource lives in
// host memory and every command list is recorded, which makes frames
// observable in tests and lets the engine run without a GPU.
type Allocator struct {
	config *AllocatorConfig
	width  uint32
	height uint32

	device      *Device
	commandList *CommandList
	queue       *queue
	ring        *constantBufferRing

	srvHeap    *descriptorHeap
	rtvHeap    *descriptorHeap
	dsvHeap    *descriptorHeap
	shaderHeap *descriptorHeap

	nextResourceID uint64
	live           map[uint64]*metadata.Resource
	history        [][]Command
	submissions    int
}

var _ renderer.Allocator = (*Allocator)(nil)

func New(config *AllocatorConfig) (*Allocator, error) {
	if config.Width == 0 || config.Height == 0 {
		return nil, fmt.Errorf("invalid allocator size %dx%d", config.Width, config.Height)
	}
	if config.MaxConstantBuffers == 0 || config.MaxDescriptors == 0 || config.MaxRTVs == 0 {
		return nil, fmt.Errorf("allocator heaps must hold at least one descriptor")
	}
	if config.MaxSubmissionsInFlight <= 0 {
		config.MaxSubmissionsInFlight = 16
	}

	q := newQueue(config.GPULatency)
	a := &Allocator{
		config:      config,
		width:       config.Width,
		height:      config.Height,
		device:      &Device{},
		commandList: &CommandList{},
		queue:       q,
		ring:        newConstantBufferRing(config.MaxConstantBuffers, config.MaxSubmissionsInFlight, config.RingPolicy, q),
		srvHeap:     newDescriptorHeap("srv", 1, config.MaxDescriptors+config.MaxRTVs, false),
		rtvHeap:     newDescriptorHeap("rtv", 2, config.MaxRTVs, false),
		dsvHeap:     newDescriptorHeap("dsv", 3, 16, false),
		shaderHeap:  newDescriptorHeap("cbv_srv", 4, config.MaxConstantBuffers+config.MaxDescriptors+config.MaxRTVs, true),
		live:        make(map[uint64]*metadata.Resource),
	}
	// the first MaxConstantBuffers slots mirror the ring, copies go after them
	a.shaderHeap.next = config.MaxConstantBuffers

	core.LogDebug("headless allocator ready (%dx%d, %d constant buffers, %d descriptors)",
		config.Width, config.Height, config.MaxConstantBuffers, config.MaxDescriptors)
	return a, nil
}

func (a *Allocator) Device() renderer.Device {
	return a.device
}

func (a *Allocator) CommandList() renderer.CommandList {
	return a.commandList
}

func (a *Allocator) Width() uint32 {
	return a.width
}

func (a *Allocator) Height() uint32 {
	return a.height
}

func (a *Allocator) SetSize(width, height uint32) {
	a.width = width
	a.height = height
}

func (a *Allocator) newResource(name string, desc metadata.ResourceDesc, state metadata.ResourceState) *metadata.Resource {
	a.nextResourceID++
	res := &metadata.Resource{
		ID:    a.nextResourceID,
		Name:  name,
		Desc:  desc,
		State: state,
	}
	a.live[res.ID] = res
	return res
}

func (a *Allocator) CreateStaticBuffer(name string, stride, count uint32, data []byte) (*metadata.Resource, error) {
	size := uint64(stride) * uint64(count)
	if size == 0 {
		return nil, fmt.Errorf("static buffer %s is empty", name)
	}
	if uint64(len(data)) < size {
		return nil, fmt.Errorf("static buffer %s: %d bytes provided, %d expected", name, len(data), size)
	}
	res := a.newResource(name, metadata.ResourceDesc{
		Dimension: metadata.ResourceDimensionBuffer,
		Width:     size,
		Height:    1,
		MipLevels: 1,
	}, metadata.ResourceStateGenericRead)
	res.Data = append([]byte(nil), data[:size]...)
	return res, nil
}

func (a *Allocator) CreateTexture(name string, desc metadata.ResourceDesc) (*metadata.Resource, error) {
	if desc.Width == 0 || desc.Height == 0 {
		return nil, fmt.Errorf("texture %s has no size", name)
	}
	if desc.DepthOrArraySize == 0 {
		desc.DepthOrArraySize = 1
	}
	if desc.MipLevels == 0 {
		desc.MipLevels = 1
	}
	if desc.SampleDesc.Count == 0 {
		desc.SampleDesc.Count = 1
	}
	if desc.Dimension == metadata.ResourceDimensionUnknown {
		desc.Dimension = metadata.ResourceDimensionTexture2D
	}
	return a.newResource(name, desc, metadata.ResourceStateCommon), nil
}

func (a *Allocator) CreateDepthBuffer(name string, width, height uint32, format metadata.Format) (*metadata.Resource, metadata.CPUDescriptorHandle, error) {
	res, err := a.CreateTexture(name, metadata.ResourceDesc{
		Dimension: metadata.ResourceDimensionTexture2D,
		Width:     uint64(width),
		Height:    height,
		Format:    format,
		Flags:     metadata.ResourceFlagAllowDepthStencil,
	})
	if err != nil {
		return nil, metadata.CPUDescriptorHandle{}, err
	}
	res.State = metadata.ResourceStateDepthWrite
	dsv, err := a.dsvHeap.allocate(descriptor{kind: descriptorDSV, resource: res})
	if err != nil {
		return nil, metadata.CPUDescriptorHandle{}, err
	}
	return res, dsv, nil
}

func (a *Allocator) LoadTexture(data *metadata.TextureData) (metadata.CPUDescriptorHandle, error) {
	if data == nil || data.Width == 0 || data.Height == 0 {
		return metadata.CPUDescriptorHandle{}, fmt.Errorf("texture data is empty")
	}
	arraySize := data.ArraySize
	if arraySize == 0 {
		arraySize = 1
	}
	res, err := a.CreateTexture(data.Name, metadata.ResourceDesc{
		Dimension:        metadata.ResourceDimensionTexture2D,
		Width:            uint64(data.Width),
		Height:           data.Height,
		DepthOrArraySize: arraySize,
		MipLevels:        data.MipLevels,
		Format:           data.Format,
	})
	if err != nil {
		return metadata.CPUDescriptorHandle{}, err
	}
	for _, sub := range data.Subresources {
		res.Data = append(res.Data, sub...)
	}
	res.State = metadata.ResourceStatePixelShaderResource
	return a.srvHeap.allocate(descriptor{kind: descriptorSRV, resource: res})
}

func (a *Allocator) CreateRtvSrvBundle(name string, texDesc metadata.ResourceDesc, rtvDesc metadata.RenderTargetViewDesc, screenSized bool) (*metadata.RtvSrvBundle, error) {
	if screenSized {
		texDesc.Width = uint64(a.width)
		texDesc.Height = a.height
	}
	texDesc.Flags |= metadata.ResourceFlagAllowRenderTarget
	if texDesc.Format.BytesPerPixel() == 0 {
		return nil, fmt.Errorf("render target %s uses unsupported format %d", name, texDesc.Format)
	}
	tex, err := a.CreateTexture(name, texDesc)
	if err != nil {
		return nil, err
	}
	tex.State = metadata.ResourceStateRenderTarget
	bundle, err := a.CreateRtvSrvBundleFromResource(name, tex, rtvDesc, screenSized)
	if err != nil {
		a.ReleaseResource(tex)
		return nil, err
	}
	return bundle, nil
}

func (a *Allocator) CreateRtvSrvBundleFromResource(name string, texture *metadata.Resource, rtvDesc metadata.RenderTargetViewDesc, screenSized bool) (*metadata.RtvSrvBundle, error) {
	if texture == nil || texture.Released {
		return nil, fmt.Errorf("render target %s has no live texture", name)
	}
	if rtvDesc.Format == metadata.FormatUnknown {
		rtvDesc.Format = texture.Desc.Format
	}
	rtv, err := a.rtvHeap.allocate(descriptor{kind: descriptorRTV, resource: texture})
	if err != nil {
		return nil, err
	}
	srv, err := a.srvHeap.allocate(descriptor{kind: descriptorSRV, resource: texture})
	if err != nil {
		return nil, err
	}
	cpu, err := a.shaderHeap.allocate(descriptor{kind: descriptorSRV, resource: texture, recyclable: true})
	if err != nil {
		return nil, err
	}
	idx, _ := a.shaderHeap.index(cpu)
	gpu := a.shaderHeap.gpuHandle(idx)
	return &metadata.RtvSrvBundle{
		Name:        name,
		RTV:         rtv,
		SRVCPU:      srv,
		SRVGPU:      gpu,
		Texture:     texture,
		TexDesc:     texture.Desc,
		ViewDesc:    rtvDesc,
		ScreenSized: screenSized,
	}, nil
}

func (a *Allocator) ReleaseResource(res *metadata.Resource) {
	if res == nil || res.Released {
		return
	}
	res.Released = true
	res.Data = nil
	a.srvHeap.releaseResource(res)
	a.rtvHeap.releaseResource(res)
	a.dsvHeap.releaseResource(res)
	delete(a.live, res.ID)
}

func (a *Allocator) FillNextConstantBuffer(data []byte) (metadata.GPUDescriptorHandle, error) {
	offset, err := a.ring.allocate(uint64(len(data)))
	if err != nil {
		return metadata.GPUDescriptorHandle{}, err
	}
	copy(a.ring.data[offset:], data)
	slot := uint32(offset / metadata.ConstantBufferAlignment)
	size := metadata.GetAligned(uint64(len(data)), metadata.ConstantBufferAlignment)
	a.shaderHeap.contents[slot] = descriptor{kind: descriptorCBV, offset: offset, size: size}
	return a.shaderHeap.gpuHandle(slot), nil
}

func (a *Allocator) CopyToDescriptorHeap(first metadata.CPUDescriptorHandle, count uint32) (metadata.GPUDescriptorHandle, error) {
	if count == 0 {
		return metadata.GPUDescriptorHandle{}, fmt.Errorf("descriptor copy of zero descriptors")
	}
	var start metadata.GPUDescriptorHandle
	for i := uint32(0); i < count; i++ {
		src := descriptor{kind: descriptorNull}
		if !first.IsNull() {
			d, ok := a.srvHeap.lookup(first.Offset(int(i), descriptorIncrement))
			if !ok {
				return metadata.GPUDescriptorHandle{}, fmt.Errorf("descriptor %#x is not a shader resource view", first.Ptr)
			}
			src = d
		}
		cpu, err := a.shaderHeap.allocate(src)
		if err != nil {
			return metadata.GPUDescriptorHandle{}, err
		}
		if i == 0 {
			idx, _ := a.shaderHeap.index(cpu)
			start = a.shaderHeap.gpuHandle(idx)
		}
	}
	return start, nil
}

func (a *Allocator) CloseExecuteAndResetCommandList() error {
	recorded := a.commandList.reset()
	a.history = append(a.history, recorded)
	if len(a.history) > historyLimit {
		a.history = a.history[len(a.history)-historyLimit:]
	}
	a.submissions++
	fence := a.queue.signal()
	return a.ring.submitted(fence)
}

func (a *Allocator) WaitForGPU() error {
	a.queue.waitIdle()
	a.ring.drained()
	return nil
}

// History returns the command lists executed so far, oldest first.
func (a *Allocator) History() [][]Command {
	return a.history
}

func (a *Allocator) ClearHistory() {
	a.history = nil
}

// Recorded returns the commands recorded since the last submission.
func (a *Allocator) Recorded() []Command {
	return a.commandList.Commands()
}

func (a *Allocator) Submissions() int {
	return a.submissions
}

// GPUWaits counts fence waits, explicit or forced by the constant buffer ring.
func (a *Allocator) GPUWaits() int {
	return a.queue.waits
}

func (a *Allocator) LiveResources() int {
	return len(a.live)
}

// ConstantBufferBytesInUse is the ring space held by pending and in-flight work.
func (a *Allocator) ConstantBufferBytesInUse() uint64 {
	return a.ring.inUse()
}

// ShaderVisibleResource returns the resource viewed by the descriptor offset
// slots past table. ok is false outside the heap; null descriptors give nil.
func (a *Allocator) ShaderVisibleResource(table metadata.GPUDescriptorHandle, offset int) (*metadata.Resource, bool) {
	h := a.shaderHeap
	if table.Ptr < h.gpuBase {
		return nil, false
	}
	i := (table.Ptr-h.gpuBase)/uint64(descriptorIncrement) + uint64(offset)
	if i >= uint64(h.capacity) {
		return nil, false
	}
	return h.contents[i].resource, true
}

// ViewedResource returns the resource behind a CPU shader resource view.
func (a *Allocator) ViewedResource(srv metadata.CPUDescriptorHandle) (*metadata.Resource, bool) {
	d, ok := a.srvHeap.lookup(srv)
	if !ok || d.resource == nil {
		return nil, false
	}
	return d.resource, true
}

// Shutdown drains the queue and drops every live resource.
func (a *Allocator) Shutdown() error {
	if err := a.WaitForGPU(); err != nil {
		return err
	}
	for _, res := range a.live {
		res.Released = true
	}
	a.live = map[uint64]*metadata.Resource{}
	return nil
}
