package systems

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/prism/engine/assets"
	"github.com/spaghettifunk/prism/engine/renderer/components"
	"github.com/spaghettifunk/prism/engine/renderer/headless"
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
	"github.com/spaghettifunk/prism/engine/renderer/views"
	"github.com/spaghettifunk/prism/engine/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type frameFixture struct {
	allocator *headless.Allocator
	swapChain *headless.SwapChain
	store     *assets.Store
	renderer  *RendererSystem
	camera    *components.Camera
	cube      *metadata.Mesh
}

func newFrameFixture(t *testing.T) *frameFixture {
	t.Helper()
	a, err := headless.New(&headless.AllocatorConfig{
		Width:              1280,
		Height:             720,
		MaxConstantBuffers: 512,
		MaxDescriptors:     512,
		MaxRTVs:            256,
	})
	require.NoError(t, err)
	sc, err := headless.NewSwapChain(a, 2)
	require.NoError(t, err)
	store, err := assets.NewStore(assets.StoreConfig{
		RootPath:             t.TempDir(),
		ShaderPath:           t.TempDir(),
		AllowOnDemandLoading: true,
	}, a)
	require.NoError(t, err)

	for _, name := range append([]string{firstCompositeTarget}, pbrTargets...) {
		bundle, err := a.CreateRtvSrvBundle(name, metadata.ResourceDesc{
			Dimension:        metadata.ResourceDimensionTexture2D,
			DepthOrArraySize: 1,
			MipLevels:        1,
			Format:           metadata.FormatR16G16B16A16Float,
			SampleDesc:       metadata.SampleDesc{Count: 1},
		}, metadata.RenderTargetViewDesc{
			Format:        metadata.FormatR16G16B16A16Float,
			ViewDimension: metadata.RTVDimensionTexture2D,
		}, true)
		require.NoError(t, err)
		require.True(t, store.AddRenderTarget(name, bundle))
	}
	store.AddRootSignature(fullscreenRS, &metadata.RootSignature{Name: fullscreenRS})
	store.AddPipelineState(fullscreenPSO, &metadata.PipelineState{Name: fullscreenPSO})

	cube, err := store.CreateMesh("cube", make([]metadata.Vertex, 8), make([]uint32, 36))
	require.NoError(t, err)
	store.AddMesh("cube", cube)

	r, err := NewRendererSystem(RendererConfig{}, store, sc, views.NewDebugOverlay(store, true))
	require.NoError(t, err)
	return &frameFixture{
		allocator: a,
		swapChain: sc,
		store:     store,
		renderer:  r,
		camera:    components.NewCamera(16.0 / 9.0),
		cube:      cube,
	}
}

func (f *frameFixture) material(t *testing.T, name string, category metadata.PipelineCategory, rootParams int) *metadata.Material {
	t.Helper()
	rs := &metadata.RootSignature{Name: name + "RS", Desc: metadata.RootSignatureDesc{
		Parameters: make([]metadata.RootParameter, rootParams),
	}}
	pso := &metadata.PipelineState{Name: name + "PSO", Category: category}
	m := metadata.NewMaterial(name, rs, pso, mgl32.Vec3{1, 1, 1}, mgl32.Vec2{1, 1}, mgl32.Vec2{})
	require.NoError(t, m.Finalize(f.allocator))
	return m
}

func (f *frameFixture) lastFrame(t *testing.T) []headless.Command {
	t.Helper()
	history := f.allocator.History()
	require.NotEmpty(t, history)
	return history[len(history)-1]
}

func count(commands []headless.Command, op string) int {
	n := 0
	for _, c := range commands {
		if c.Op == op {
			n++
		}
	}
	return n
}

func eventIndex(commands []headless.Command, name string) int {
	for i, c := range commands {
		if c.Op == "BeginEvent" && c.Args[0] == name {
			return i
		}
	}
	return -1
}

func TestFrameCommandOrder(t *testing.T) {
	f := newFrameFixture(t)
	standard := f.material(t, "basic", metadata.PipelineCategoryStandard, 3)
	pbr := f.material(t, "pbr", metadata.PipelineCategoryPBR, 4)
	f.renderer.Update([]*scene.Entity{
		scene.NewEntity("a", f.cube, standard),
		scene.NewEntity("b", f.cube, pbr),
	}, nil, []metadata.Light{{Type: metadata.LightTypeDirectional, Intensity: 1}})

	require.NoError(t, f.renderer.Render(f.camera, 0.016, 0.016))
	frame := f.lastFrame(t)
	targets := f.swapChain.Targets()

	assert.Equal(t, "SetDescriptorHeaps", frame[0].Op)
	assert.Equal(t, headless.Command{Op: "ResourceBarrier", Args: []any{
		targets.BackBuffers[0], metadata.ResourceStatePresent, metadata.ResourceStateRenderTarget,
	}}, frame[1])
	assert.Equal(t, []any{targets.RTVs[0], backBufferClearColor}, frame[2].Args)
	assert.Equal(t, "ClearDepthStencilView", frame[3].Op)
	// one clear per registered bundle plus the back buffer
	assert.Equal(t, 1+len(pbrTargets)+1, count(frame, "ClearRenderTargetView"))

	standardAt := eventIndex(frame, "Standard")
	pbrAt := eventIndex(frame, "PBR")
	compositeAt := eventIndex(frame, "Composite")
	overlayAt := eventIndex(frame, "Debug overlay")
	require.NotEqual(t, -1, standardAt)
	assert.Less(t, standardAt, pbrAt)
	assert.Less(t, pbrAt, compositeAt)
	assert.Less(t, compositeAt, overlayAt)

	last := frame[len(frame)-1]
	assert.Equal(t, "ResourceBarrier", last.Op)
	assert.Equal(t, metadata.ResourceStatePresent, last.Args[2])
	assert.Equal(t, 2, count(frame, "DrawIndexedInstanced"))
	assert.Equal(t, 1, count(frame, "DrawInstanced"))
	assert.Equal(t, 1, f.swapChain.Presents())
}

func TestPBRPassBindsTargetsAndConstants(t *testing.T) {
	f := newFrameFixture(t)
	pbr := f.material(t, "pbr", metadata.PipelineCategoryPBR, 4)
	f.renderer.Update([]*scene.Entity{
		scene.NewEntity("a", f.cube, pbr),
		scene.NewEntity("b", f.cube, pbr),
	}, nil, nil)

	require.NoError(t, f.renderer.Render(f.camera, 0, 0))
	frame := f.lastFrame(t)

	var targets []metadata.CPUDescriptorHandle
	for _, c := range frame {
		if c.Op == "OMSetRenderTargets" {
			targets = c.Args[0].([]metadata.CPUDescriptorHandle)
			break
		}
	}
	require.Len(t, targets, len(pbrTargets))
	for i, name := range pbrTargets {
		bundle, err := f.store.GetRenderTarget(name)
		require.NoError(t, err)
		assert.Equal(t, bundle.RTV, targets[i])
	}

	perFrame := map[metadata.GPUDescriptorHandle]int{}
	perMaterial := map[metadata.GPUDescriptorHandle]int{}
	for _, c := range frame {
		if c.Op != "SetGraphicsRootDescriptorTable" {
			continue
		}
		switch c.Args[0] {
		case uint32(1):
			perFrame[c.Args[1].(metadata.GPUDescriptorHandle)]++
		case uint32(2):
			perMaterial[c.Args[1].(metadata.GPUDescriptorHandle)]++
		}
	}
	// the fullscreen composite only uses root parameter 0
	assert.Len(t, perFrame, 1)
	assert.Len(t, perMaterial, 2)
}

func TestRedundantBindsAreFiltered(t *testing.T) {
	f := newFrameFixture(t)
	m := f.material(t, "basic", metadata.PipelineCategoryStandard, 3)
	entities := make([]*scene.Entity, 3)
	for i := range entities {
		entities[i] = scene.NewEntity("e", f.cube, m)
	}
	f.renderer.Update(entities, nil, nil)

	require.NoError(t, f.renderer.Render(f.camera, 0, 0))
	frame := f.lastFrame(t)
	// basic pipeline once, fullscreen pipeline once
	assert.Equal(t, 2, count(frame, "SetGraphicsRootSignature"))
	assert.Equal(t, 2, count(frame, "SetPipelineState"))
	assert.Equal(t, 3, count(frame, "DrawIndexedInstanced"))
	assert.Equal(t, 4, f.renderer.Binder().Skipped)
}

func TestUnmatchedEntitiesAreDropped(t *testing.T) {
	f := newFrameFixture(t)
	none := f.material(t, "none", metadata.PipelineCategoryNone, 3)
	basic := f.material(t, "basic", metadata.PipelineCategoryStandard, 3)
	orphan := scene.NewEntity("orphan", f.cube, nil)
	nameless := scene.NewEntity("nameless", f.cube, none)
	meshless := scene.NewEntity("meshless", nil, basic)
	drawn := scene.NewEntity("drawn", f.cube, basic)

	entities := []*scene.Entity{orphan, nameless, meshless, drawn}
	f.renderer.Update(entities, nil, nil)
	f.renderer.Update(entities, nil, nil)

	assert.Equal(t, 1, f.renderer.buckets.len())
	assert.Len(t, f.renderer.unmatched, 3)

	require.NoError(t, f.renderer.Render(f.camera, 0, 0))
	assert.Equal(t, 1, count(f.lastFrame(t), "DrawIndexedInstanced"))
}

func TestTransparentEntitiesAreClassifiedNotDrawn(t *testing.T) {
	f := newFrameFixture(t)
	glass := f.material(t, "glass", metadata.PipelineCategoryTransparent, 3)
	water := f.material(t, "water", metadata.PipelineCategoryRefractive, 3)
	f.renderer.Update([]*scene.Entity{
		scene.NewEntity("glass", f.cube, glass),
		scene.NewEntity("water", f.cube, water),
	}, nil, nil)

	assert.Len(t, f.renderer.buckets.transparent, 1)
	assert.Len(t, f.renderer.buckets.refractive, 1)
	assert.Empty(t, f.renderer.unmatched)

	require.NoError(t, f.renderer.Render(f.camera, 0, 0))
	assert.Zero(t, count(f.lastFrame(t), "DrawIndexedInstanced"))
}

func TestLightsAreClamped(t *testing.T) {
	f := newFrameFixture(t)
	f.renderer.Update(nil, nil, make([]metadata.Light, metadata.MaxLights+8))
	assert.Len(t, f.renderer.lights, metadata.MaxLights)

	lights, n := f.renderer.lightArray()
	assert.Equal(t, int32(metadata.MaxLights), n)
	assert.Len(t, lights, metadata.MaxLights)
}

func TestSwapIndexAlternates(t *testing.T) {
	f := newFrameFixture(t)
	targets := f.swapChain.Targets()
	for frame := 0; frame < 4; frame++ {
		assert.Equal(t, frame%2, f.renderer.SwapIndex())
		require.NoError(t, f.renderer.Render(f.camera, 0, 0))
		assert.Same(t, targets.BackBuffers[frame%2], f.lastFrame(t)[1].Args[0])
	}
	assert.Equal(t, uint64(4), f.renderer.FrameNumber)
	assert.Equal(t, 4, f.swapChain.Presents())
}

func TestPersistentBundlesAreNotCleared(t *testing.T) {
	f := newFrameFixture(t)
	lut, err := f.allocator.CreateRtvSrvBundle("lut", metadata.ResourceDesc{
		Dimension:        metadata.ResourceDimensionTexture2D,
		Width:            64,
		Height:           64,
		DepthOrArraySize: 1,
		MipLevels:        1,
		Format:           metadata.FormatR16G16Float,
		SampleDesc:       metadata.SampleDesc{Count: 1},
	}, metadata.RenderTargetViewDesc{
		Format:        metadata.FormatR16G16Float,
		ViewDimension: metadata.RTVDimensionTexture2D,
	}, false)
	require.NoError(t, err)
	lut.Persistent = true
	require.True(t, f.store.AddRenderTarget("lut", lut))

	require.NoError(t, f.renderer.Render(f.camera, 0, 0))
	for _, c := range f.lastFrame(t) {
		if c.Op == "ClearRenderTargetView" {
			assert.NotEqual(t, lut.RTV, c.Args[0])
		}
	}
}

func TestSkyIBLRunsOnce(t *testing.T) {
	f := newFrameFixture(t)
	for _, prefix := range []string{"sky", "iblIrradianceMap", "iblSpecularConvolution", "iblBrdf"} {
		f.store.AddRootSignature(prefix+"RS", &metadata.RootSignature{Name: prefix + "RS"})
		f.store.AddPipelineState(prefix+"PSO", &metadata.PipelineState{Name: prefix + "PSO"})
	}
	cubeMap, err := f.allocator.LoadTexture(&metadata.TextureData{
		Width:        4,
		Height:       4,
		ArraySize:    6,
		MipLevels:    1,
		Format:       metadata.FormatR8G8B8A8Unorm,
		IsCube:       true,
		Subresources: [][]byte{make([]byte, 4*4*4*6)},
	})
	require.NoError(t, err)
	f.store.AddTexture("SkyBoxes/SunnyCubeMap", cubeMap)
	sky, err := views.NewSky(f.store, "cube", "SkyBoxes/SunnyCubeMap")
	require.NoError(t, err)

	pbr := f.material(t, "pbr", metadata.PipelineCategoryPBR, 5)
	f.renderer.Update([]*scene.Entity{scene.NewEntity("a", f.cube, pbr)}, sky, nil)

	require.NoError(t, f.renderer.Render(f.camera, 0, 0))
	// three precomputation stages, then the frame itself
	assert.Equal(t, 4, f.allocator.Submissions())
	frame := f.lastFrame(t)
	assert.Equal(t, "SetDescriptorHeaps", frame[0].Op)
	assert.NotEqual(t, -1, eventIndex(frame, "Sky"))
	assert.Less(t, eventIndex(frame, "PBR"), eventIndex(frame, "Sky"))

	var ibl []any
	for _, c := range frame {
		if c.Op == "SetGraphicsRootDescriptorTable" && c.Args[0] == uint32(iblRootParameter) {
			ibl = append(ibl, c.Args[1])
		}
	}
	assert.Equal(t, []any{sky.IBLTable()}, ibl)

	require.NoError(t, f.renderer.Render(f.camera, 0, 0))
	assert.Equal(t, 5, f.allocator.Submissions())
	assert.False(t, sky.NeedsIBL())
}

func TestResizeRecreatesScreenSizedTargets(t *testing.T) {
	f := newFrameFixture(t)
	require.NoError(t, f.renderer.Render(f.camera, 0, 0))
	require.Equal(t, 1, f.renderer.SwapIndex())

	require.NoError(t, f.renderer.PreResize())
	assert.ErrorContains(t, f.renderer.Render(f.camera, 0, 0), "swapchain")
	missing, err := f.store.GetRenderTarget("normals")
	require.NoError(t, err)
	assert.Nil(t, missing)

	targets, err := f.swapChain.Resize(1920, 1080)
	require.NoError(t, err)
	require.NoError(t, f.renderer.PostResize(1920, 1080, targets))
	assert.Zero(t, f.renderer.SwapIndex())

	for _, name := range append([]string{firstCompositeTarget}, pbrTargets...) {
		bundle, err := f.store.GetRenderTarget(name)
		require.NoError(t, err)
		require.NotNil(t, bundle, name)
		assert.Equal(t, uint64(1920), bundle.Texture.Desc.Width)
		assert.Equal(t, uint32(1080), bundle.Texture.Desc.Height)
	}
	require.NoError(t, f.renderer.Render(f.camera, 0, 0))
}
