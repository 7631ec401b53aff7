package views

import (
	"fmt"
	"testing"

	"github.com/spaghettifunk/prism/engine/assets"
	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/renderer"
	"github.com/spaghettifunk/prism/engine/renderer/components"
	"github.com/spaghettifunk/prism/engine/renderer/headless"
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type skyFixture struct {
	allocator *headless.Allocator
	store     *assets.Store
	binder    *renderer.BindState
}

func addPipeline(s *assets.Store, prefix string) {
	s.AddRootSignature(prefix+"RS", &metadata.RootSignature{Name: prefix + "RS"})
	s.AddPipelineState(prefix+"PSO", &metadata.PipelineState{Name: prefix + "PSO"})
}

func newSkyFixture(t *testing.T, pipelines ...string) *skyFixture {
	t.Helper()
	return newSkyFixtureWithRing(t, 128, pipelines...)
}

func newSkyFixtureWithRing(t *testing.T, constantBuffers uint32, pipelines ...string) *skyFixture {
	t.Helper()
	a, err := headless.New(&headless.AllocatorConfig{
		Width:              1280,
		Height:             720,
		MaxConstantBuffers: constantBuffers,
		MaxDescriptors:     256,
		MaxRTVs:            128,
	})
	require.NoError(t, err)
	store, err := assets.NewStore(assets.StoreConfig{
		RootPath:             t.TempDir(),
		ShaderPath:           t.TempDir(),
		AllowOnDemandLoading: true,
	}, a)
	require.NoError(t, err)

	for _, p := range pipelines {
		addPipeline(store, p)
	}

	cube, err := store.CreateMesh("cube", make([]metadata.Vertex, 8), make([]uint32, 36))
	require.NoError(t, err)
	store.AddMesh("cube", cube)

	cubeMap, err := a.LoadTexture(&metadata.TextureData{
		Width:        4,
		Height:       4,
		ArraySize:    6,
		MipLevels:    1,
		Format:       metadata.FormatR8G8B8A8Unorm,
		IsCube:       true,
		Subresources: [][]byte{make([]byte, 4*4*4*6)},
	})
	require.NoError(t, err)
	store.AddTexture("SkyBoxes/SunnyCubeMap", cubeMap)

	return &skyFixture{allocator: a, store: store, binder: renderer.NewBindState(a.CommandList())}
}

func countOps(commands []headless.Command, op string) int {
	n := 0
	for _, c := range commands {
		if c.Op == op {
			n++
		}
	}
	return n
}

func TestSpecularMipLevels(t *testing.T) {
	assert.Equal(t, 7, SpecularMipLevels)
}

func TestIBLStagesRunOnceInOrder(t *testing.T) {
	f := newSkyFixture(t, "sky", "iblIrradianceMap", "iblSpecularConvolution", "iblBrdf")
	sky, err := NewSky(f.store, "cube", "SkyBoxes/SunnyCubeMap")
	require.NoError(t, err)
	require.True(t, sky.NeedsIBL())

	require.NoError(t, sky.CreateIBLResources(f.binder))
	assert.False(t, sky.NeedsIBL())
	assert.False(t, sky.IBLTable().IsNull())

	history := f.allocator.History()
	require.Len(t, history, 3)
	assert.Equal(t, cubeFaces, countOps(history[0], "DrawInstanced"))
	assert.Equal(t, cubeFaces*SpecularMipLevels, countOps(history[1], "DrawInstanced"))
	assert.Equal(t, 1, countOps(history[2], "DrawInstanced"))
	assert.Equal(t, []any{uint32(3), uint32(1), uint32(0), uint32(0)}, history[2][len(history[2])-3].Args)
	assert.GreaterOrEqual(t, f.allocator.GPUWaits(), 3)

	for face := 0; face < cubeFaces; face++ {
		b, err := f.store.GetRenderTarget(fmt.Sprintf("irradianceMap%d", face))
		require.NoError(t, err)
		require.NotNil(t, b)
		assert.True(t, b.Persistent)
		assert.Same(t, sky.Irradiance, b.Texture)
		assert.Equal(t, uint32(face), b.ViewDesc.FirstArraySlice)
	}
	last, err := f.store.GetRenderTarget(fmt.Sprintf("specularConvolution_m%d_f5", SpecularMipLevels-1))
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, uint32(SpecularMipLevels-1), last.ViewDesc.MipSlice)

	brdf, err := f.store.GetRenderTarget("iblBrdf")
	require.NoError(t, err)
	require.NotNil(t, brdf)
	assert.Equal(t, metadata.FormatR16G16Float, brdf.TexDesc.Format)
	assert.Equal(t, uint64(IBLMapSize), brdf.TexDesc.Width)
	assert.False(t, brdf.ScreenSized)

	// a second call is a no-op
	require.NoError(t, sky.CreateIBLResources(f.binder))
	assert.Len(t, f.allocator.History(), 3)
}

func TestIBLSkipsMissingStages(t *testing.T) {
	f := newSkyFixture(t, "sky", "iblIrradianceMap", "iblBrdf")
	sky, err := NewSky(f.store, "cube", "SkyBoxes/SunnyCubeMap")
	require.NoError(t, err)

	require.NoError(t, sky.CreateIBLResources(f.binder))
	assert.Len(t, f.allocator.History(), 2)
	assert.Nil(t, sky.Specular)

	missing, err := f.store.GetRenderTarget("specularConvolution_m0_f0")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func balancedEvents(t *testing.T, commands []headless.Command) {
	t.Helper()
	assert.Equal(t, countOps(commands, "BeginEvent"), countOps(commands, "EndEvent"))
}

func TestFailedIBLStageReleasesItsTextures(t *testing.T) {
	// the specular stage needs one constant buffer per mip and face
	f := newSkyFixtureWithRing(t, 16, "sky", "iblIrradianceMap", "iblSpecularConvolution", "iblBrdf")
	sky, err := NewSky(f.store, "cube", "SkyBoxes/SunnyCubeMap")
	require.NoError(t, err)
	live := f.allocator.LiveResources()

	for attempt := 0; attempt < 3; attempt++ {
		err = sky.CreateIBLResources(f.binder)
		assert.ErrorIs(t, err, core.ErrConstantBufferRingFull)
		assert.True(t, sky.NeedsIBL())
		assert.Nil(t, sky.Irradiance)
		assert.Nil(t, sky.Specular)
		assert.Nil(t, sky.BRDF)
		assert.Equal(t, live, f.allocator.LiveResources(), "attempt %d", attempt)
		balancedEvents(t, f.allocator.Recorded())
	}
}

func TestSkyDrawBindsSkyPipeline(t *testing.T) {
	f := newSkyFixture(t, "sky")
	sky, err := NewSky(f.store, "cube", "SkyBoxes/SunnyCubeMap")
	require.NoError(t, err)

	camera := components.NewCamera(16.0 / 9.0)
	require.NoError(t, sky.Draw(f.binder, camera))
	require.NoError(t, sky.Draw(f.binder, camera))

	recorded := f.allocator.Recorded()
	assert.Equal(t, 1, countOps(recorded, "SetGraphicsRootSignature"))
	assert.Equal(t, 1, countOps(recorded, "SetPipelineState"))
	assert.Equal(t, 2, countOps(recorded, "DrawIndexedInstanced"))
	assert.Equal(t, 2, f.binder.Skipped)
}

func TestFailedSkyDrawClosesItsEvent(t *testing.T) {
	f := newSkyFixtureWithRing(t, 1, "sky")
	sky, err := NewSky(f.store, "cube", "SkyBoxes/SunnyCubeMap")
	require.NoError(t, err)

	camera := components.NewCamera(1)
	require.NoError(t, sky.Draw(f.binder, camera))
	// the ring holds one buffer per submission
	assert.ErrorIs(t, sky.Draw(f.binder, camera), core.ErrConstantBufferRingFull)
	balancedEvents(t, f.allocator.Recorded())
	assert.Equal(t, 1, countOps(f.allocator.Recorded(), "DrawIndexedInstanced"))
}

func TestIncompleteSkyDrawsNothing(t *testing.T) {
	f := newSkyFixture(t)
	sky, err := NewSky(f.store, "cube", "SkyBoxes/SunnyCubeMap")
	require.NoError(t, err)

	require.NoError(t, sky.Draw(f.binder, components.NewCamera(1)))
	assert.Empty(t, f.allocator.Recorded())
}

func TestDebugOverlayListsTargets(t *testing.T) {
	f := newSkyFixture(t, "sky", "iblBrdf")
	sky, err := NewSky(f.store, "cube", "SkyBoxes/SunnyCubeMap")
	require.NoError(t, err)
	require.NoError(t, sky.CreateIBLResources(f.binder))

	overlay := NewDebugOverlay(f.store, true)
	overlay.Render(f.allocator.CommandList())
	require.Len(t, overlay.Lines(), 1)
	assert.Contains(t, overlay.Lines()[0], "iblBrdf 512x512")
	assert.Contains(t, overlay.Lines()[0], "persistent")

	var events []any
	for _, c := range f.allocator.Recorded() {
		if c.Op == "BeginEvent" {
			events = append(events, c.Args[0])
		}
	}
	require.GreaterOrEqual(t, len(events), 2)
	assert.Equal(t, []any{"Debug overlay", overlay.Lines()[0]}, events[len(events)-2:])
	balancedEvents(t, f.allocator.Recorded())

	overlay.Enabled = false
	before := len(f.allocator.Recorded())
	overlay.Render(f.allocator.CommandList())
	assert.Len(t, f.allocator.Recorded(), before)
}
