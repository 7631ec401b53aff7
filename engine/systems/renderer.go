package systems

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spaghettifunk/prism/engine/assets"
	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/renderer"
	"github.com/spaghettifunk/prism/engine/renderer/components"
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
	"github.com/spaghettifunk/prism/engine/renderer/views"
	"github.com/spaghettifunk/prism/engine/scene"
)

const (
	firstCompositeTarget = "firstComposite"
	fullscreenRS         = "fullscreenRS"
	fullscreenPSO        = "fullscreenPSO"
	// iblRootParameter is the root slot PBR root signatures use for the sky's
	// IBL table, when they declare it.
	iblRootParameter = 4
)

// pbrTargets are written by the PBR pass, in render target slot order.
var pbrTargets = []string{"colorNoAmbient", "ambientColor", "normals", "depths"}

var (
	backBufferClearColor = [4]float32{0.4, 0.6, 0.75, 1.0}
	bundleClearColor     = [4]float32{0, 0, 0, 0}
)

type RendererConfig struct {
	VSync bool
	// CompositeSource names the bundle copied onto the back buffer.
	CompositeSource string
}

/**
 * @brief Records and submits one frame: clears, sky IBL precomputation,
 * the standard and PBR entity passes, the sky, the full-screen composite
 * and the debug overlay.
 */
type RendererSystem struct {
	config    RendererConfig
	allocator renderer.Allocator
	swapChain renderer.SwapChain
	store     *assets.Store
	binder    *renderer.BindState
	overlay   *views.DebugOverlay

	// Back buffers of the swap chain, nil between PreResize and PostResize.
	targets *metadata.FrameTargets
	// The back buffer recorded into this frame.
	swapIndex int

	entities []*scene.Entity
	sky      *views.Sky
	lights   []metadata.Light
	buckets  passBuckets
	// Entities already reported as belonging to no pass.
	unmatched map[uuid.UUID]struct{}

	FrameNumber uint64
}

func NewRendererSystem(config RendererConfig, store *assets.Store, swapChain renderer.SwapChain, overlay *views.DebugOverlay) (*RendererSystem, error) {
	if store == nil || swapChain == nil {
		return nil, fmt.Errorf("renderer needs an asset store and a swap chain")
	}
	if config.CompositeSource == "" {
		config.CompositeSource = pbrTargets[0]
	}
	allocator := store.Allocator()
	return &RendererSystem{
		config:    config,
		allocator: allocator,
		swapChain: swapChain,
		store:     store,
		binder:    renderer.NewBindState(allocator.CommandList()),
		overlay:   overlay,
		targets:   swapChain.Targets(),
		unmatched: make(map[uuid.UUID]struct{}),
	}, nil
}

// SwapIndex is the back buffer the next frame renders into.
func (r *RendererSystem) SwapIndex() int {
	return r.swapIndex
}

// Binder exposes the bind filter, mostly for inspection.
func (r *RendererSystem) Binder() *renderer.BindState {
	return r.binder
}

// Update stores what the next frames draw. Lights beyond MaxLights are dropped.
func (r *RendererSystem) Update(entities []*scene.Entity, sky *views.Sky, lights []metadata.Light) {
	if len(lights) > metadata.MaxLights {
		core.LogWarn("%d lights in the scene, only the first %d are used", len(lights), metadata.MaxLights)
		lights = lights[:metadata.MaxLights]
	}
	r.entities = entities
	r.sky = sky
	r.lights = lights
	r.buckets = r.classify(entities)
}

// Render records the frame, submits it and presents.
func (r *RendererSystem) Render(camera *components.Camera, deltaTime, totalTime float64) error {
	if r.targets == nil {
		return core.ErrSwapchainBooting
	}
	if err := r.beginFrame(); err != nil {
		return err
	}
	if r.sky != nil && r.sky.NeedsIBL() {
		if err := r.sky.CreateIBLResources(r.binder); err != nil {
			return err
		}
		// the precomputation submitted the list, restore frame state
		r.restoreFrameState()
	}
	if err := r.renderStandard(camera); err != nil {
		return err
	}
	if err := r.renderPBR(camera); err != nil {
		return err
	}
	if r.sky != nil {
		if err := r.sky.Draw(r.binder, camera); err != nil {
			return err
		}
	}
	r.renderTransparent()
	r.renderRefractive()
	r.renderEmitters()
	r.renderDepthOfField()
	if err := r.composite(); err != nil {
		return err
	}
	if r.overlay != nil {
		r.overlay.Render(r.allocator.CommandList())
	}
	return r.endFrame()
}

func (r *RendererSystem) beginFrame() error {
	r.binder.Invalidate()
	cl := r.allocator.CommandList()
	cl.SetDescriptorHeaps()
	cl.ResourceBarrier(r.targets.BackBuffers[r.swapIndex], metadata.ResourceStatePresent, metadata.ResourceStateRenderTarget)

	cl.ClearRenderTargetView(r.targets.RTVs[r.swapIndex], backBufferClearColor)
	cl.ClearDepthStencilView(r.targets.DSV, 1.0, 0)
	for _, bundle := range r.store.RenderTargetBundles() {
		if bundle.Persistent {
			continue
		}
		cl.ClearRenderTargetView(bundle.RTVHandle(), bundleClearColor)
	}
	r.setFullViewport(cl)
	return nil
}

func (r *RendererSystem) restoreFrameState() {
	cl := r.allocator.CommandList()
	cl.SetDescriptorHeaps()
	r.setFullViewport(cl)
}

func (r *RendererSystem) setFullViewport(cl renderer.CommandList) {
	vp, rect := metadata.FullViewport(r.targets.Width, r.targets.Height)
	cl.RSSetViewports(vp)
	cl.RSSetScissorRects(rect)
}

func (r *RendererSystem) cameraConstants(e *scene.Entity, camera *components.Camera) (metadata.GPUDescriptorHandle, error) {
	return r.allocator.FillNextConstantBuffer(metadata.EncodeConstants(metadata.VertexShaderExternalData{
		World:             e.Transform.World(),
		WorldInvTranspose: e.Transform.WorldInverseTranspose(),
		View:              camera.GetView(),
		Projection:        camera.GetProjection(),
	}))
}

func (r *RendererSystem) lightArray() ([metadata.MaxLights]metadata.Light, int32) {
	var lights [metadata.MaxLights]metadata.Light
	n := copy(lights[:], r.lights)
	return lights, int32(n)
}

func (r *RendererSystem) bindMaterial(m *metadata.Material) {
	r.binder.BindRootSignature(m.RootSignature)
	r.binder.BindPipelineState(m.PipelineState)
}

func drawMesh(cl renderer.CommandList, mesh *metadata.Mesh) {
	cl.IASetPrimitiveTopology(metadata.PrimitiveTopologyTriangleList)
	cl.IASetVertexBuffers(mesh.VertexBuffer)
	cl.IASetIndexBuffer(mesh.IndexBuffer)
	cl.DrawIndexedInstanced(mesh.IndexCount, 1, 0, 0, 0)
}

func (r *RendererSystem) renderStandard(camera *components.Camera) error {
	if len(r.buckets.standard) == 0 {
		return nil
	}
	target, err := r.store.GetRenderTarget(firstCompositeTarget)
	if err != nil {
		return err
	}
	cl := r.allocator.CommandList()
	cl.BeginEvent("Standard")
	defer cl.EndEvent()
	cl.OMSetRenderTargets([]metadata.CPUDescriptorHandle{target.RTVHandle()}, &r.targets.DSV)

	lights, lightCount := r.lightArray()
	for _, e := range r.buckets.standard {
		r.bindMaterial(e.Material)
		vs, err := r.cameraConstants(e, camera)
		if err != nil {
			return err
		}
		ps, err := r.allocator.FillNextConstantBuffer(metadata.EncodeConstants(metadata.PixelShaderExternalData{
			UVScale:        e.Material.UVScale,
			UVOffset:       e.Material.UVOffset,
			CameraPosition: camera.GetPosition(),
			LightCount:     lightCount,
			Lights:         lights,
		}))
		if err != nil {
			return err
		}
		cl.SetGraphicsRootDescriptorTable(0, vs)
		cl.SetGraphicsRootDescriptorTable(1, ps)
		cl.SetGraphicsRootDescriptorTable(2, e.Material.FinalGPUHandle())
		drawMesh(cl, e.Mesh)
	}
	return nil
}

// renderPBR always binds the PBR targets; the sky draws into them next.
func (r *RendererSystem) renderPBR(camera *components.Camera) error {
	rtvs := make([]metadata.CPUDescriptorHandle, len(pbrTargets))
	for i, name := range pbrTargets {
		bundle, err := r.store.GetRenderTarget(name)
		if err != nil {
			return err
		}
		rtvs[i] = bundle.RTVHandle()
	}
	cl := r.allocator.CommandList()
	cl.OMSetRenderTargets(rtvs, &r.targets.DSV)
	if len(r.buckets.pbr) == 0 {
		return nil
	}

	cl.BeginEvent("PBR")
	defer cl.EndEvent()
	lights, lightCount := r.lightArray()
	perFrame, err := r.allocator.FillNextConstantBuffer(metadata.EncodeConstants(metadata.PbrPsPerFrame{
		Lights:         lights,
		LightCount:     lightCount,
		CameraPosition: camera.GetPosition(),
	}))
	if err != nil {
		return err
	}

	for _, e := range r.buckets.pbr {
		m := e.Material
		r.bindMaterial(m)
		vs, err := r.cameraConstants(e, camera)
		if err != nil {
			return err
		}
		perMaterial, err := r.allocator.FillNextConstantBuffer(metadata.EncodeConstants(metadata.PbrPsPerMaterial{
			ColorTint: m.ColorTint,
			UVScale:   m.UVScale,
			UVOffset:  m.UVOffset,
		}))
		if err != nil {
			return err
		}
		cl.SetGraphicsRootDescriptorTable(0, vs)
		cl.SetGraphicsRootDescriptorTable(1, perFrame)
		cl.SetGraphicsRootDescriptorTable(2, perMaterial)
		cl.SetGraphicsRootDescriptorTable(3, m.FinalGPUHandle())
		if r.sky != nil && !r.sky.IBLTable().IsNull() && len(m.RootSignature.Desc.Parameters) > iblRootParameter {
			cl.SetGraphicsRootDescriptorTable(iblRootParameter, r.sky.IBLTable())
		}
		drawMesh(cl, e.Mesh)
	}
	return nil
}

// Transparent and refractive entities are classified but not drawn yet.
func (r *RendererSystem) renderTransparent() {}

func (r *RendererSystem) renderRefractive() {}

func (r *RendererSystem) renderEmitters() {}

func (r *RendererSystem) renderDepthOfField() {}

// composite copies the configured source bundle onto the back buffer with a
// full-screen triangle.
func (r *RendererSystem) composite() error {
	source, err := r.store.GetRenderTarget(r.config.CompositeSource)
	if err != nil {
		return err
	}
	rs, err := r.store.GetRootSignature(fullscreenRS)
	if err != nil {
		return err
	}
	pso, err := r.store.GetPipelineState(fullscreenPSO)
	if err != nil {
		return err
	}

	cl := r.allocator.CommandList()
	cl.BeginEvent("Composite")
	defer cl.EndEvent()
	cl.OMSetRenderTargets([]metadata.CPUDescriptorHandle{r.targets.RTVs[r.swapIndex]}, nil)
	if source == nil || rs == nil || pso == nil {
		return nil
	}

	cl.ResourceBarrier(source.Resource(), metadata.ResourceStateRenderTarget, metadata.ResourceStatePixelShaderResource)
	r.binder.BindRootSignature(rs)
	r.binder.BindPipelineState(pso)
	cl.IASetPrimitiveTopology(metadata.PrimitiveTopologyTriangleList)
	cl.SetGraphicsRootDescriptorTable(0, source.SRVHandle())
	cl.DrawInstanced(3, 1, 0, 0)
	cl.ResourceBarrier(source.Resource(), metadata.ResourceStatePixelShaderResource, metadata.ResourceStateRenderTarget)
	return nil
}

func (r *RendererSystem) endFrame() error {
	cl := r.allocator.CommandList()
	cl.ResourceBarrier(r.targets.BackBuffers[r.swapIndex], metadata.ResourceStateRenderTarget, metadata.ResourceStatePresent)
	if err := r.allocator.CloseExecuteAndResetCommandList(); err != nil {
		return err
	}
	r.binder.Invalidate()
	if err := r.swapChain.Present(r.config.VSync); err != nil {
		return err
	}
	r.swapIndex = (r.swapIndex + 1) % r.swapChain.BufferCount()
	r.FrameNumber++
	return nil
}

// PreResize waits for the GPU, forgets the back buffers and releases every
// screen-sized render target.
func (r *RendererSystem) PreResize() error {
	if err := r.allocator.WaitForGPU(); err != nil {
		return err
	}
	r.targets = nil
	return r.store.ReleaseScreenSized()
}

// PostResize installs the new back buffers and recreates the screen-sized
// render targets at the new size.
func (r *RendererSystem) PostResize(width, height uint32, targets *metadata.FrameTargets) error {
	if targets == nil {
		return fmt.Errorf("no frame targets after resize to %dx%d", width, height)
	}
	r.swapIndex = 0
	r.targets = targets
	r.allocator.SetSize(width, height)
	return r.store.ReloadAll()
}

func (r *RendererSystem) Shutdown() error {
	r.entities = nil
	r.sky = nil
	r.buckets = passBuckets{}
	return r.allocator.WaitForGPU()
}
