package assets

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/renderer/headless"
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	basicSamplerJSON = `{"addressU": 1, "addressV": 1, "addressW": 1, "filter": 21, "anisotropy": 1, "shaderVisibility": 0}`

	basicRSJSON = `{
	"descriptorRanges": [
		{"type": 2, "descriptorNum": 1, "baseRegister": 0, "registerSpace": 0},
		{"type": 2, "descriptorNum": 1, "baseRegister": 1, "registerSpace": 0},
		{"type": 0, "descriptorNum": 4, "baseRegister": 0, "registerSpace": 0}
	],
	"rootParams": [
		{"paramType": 0, "shaderVisibility": 1, "numDescriptors": 1},
		{"paramType": 0, "shaderVisibility": 5, "numDescriptors": 1},
		{"paramType": 0, "shaderVisibility": 5, "numDescriptors": 1}
	],
	"samplerNames": ["basicSampler", "missingSampler"]
}`

	basicPSOJSON = `{
	"rootSigName": "basicRS",
	"vsName": "VertexShader",
	"psName": "PixelShader",
	"inputElements": [
		{"format": 6, "semanticName": "POSITION", "index": 0},
		{"format": 16, "semanticName": "TEXCOORD", "index": 0}
	],
	"renderTargetFormats": [10],
	"blendStates": [{"srcBlend": 2, "destBlend": 1, "blendOp": 1, "writeMask": 15}],
	"dsvFormat": 45,
	"samplerCount": 1,
	"samplerQuality": 0,
	"rasterizerState": {"fill": 3, "cull": 3, "depthClip": true},
	"depthStencil": {"depthEnable": true, "depthFunc": 2, "writeMask": 1}
}`

	woodMatJSON = `{
	"rsName": "basicRS", "psoName": "basicPSO",
	"color": [1, 1, 1], "scale": [1, 1], "offset": [0, 0],
	"textureCount": 2,
	"textures": [{"name": "wood_albedo", "slot": 0}, {"name": "wood_normals", "slot": 1}]
}`

	screenBundleJSON = `{
	"texDesc": {"dimension": 3, "depth": 1, "format": 10, "mipLevels": 1, "samplerCount": 1},
	"rtvDesc": {"viewDimension": 4, "numElements": 1},
	"isScreenSize": true
}`

	fixedBundleJSON = `{
	"texDesc": {"dimension": 3, "depth": 1, "format": 34, "mipLevels": 1, "samplerCount": 1},
	"rtvDesc": {"viewDimension": 4, "numElements": 1},
	"isScreenSize": false,
	"width": 512, "height": 512
}`
)

type fixture struct {
	root      string
	shaders   string
	allocator *headless.Allocator
	store     *Store
}

func newFixture(t *testing.T, onDemand bool) *fixture {
	t.Helper()
	dir := t.TempDir()
	f := &fixture{
		root:    filepath.Join(dir, "assets"),
		shaders: filepath.Join(dir, "shaders"),
	}
	require.NoError(t, os.MkdirAll(f.root, 0o755))
	require.NoError(t, os.MkdirAll(f.shaders, 0o755))

	a, err := headless.New(&headless.AllocatorConfig{
		Width:              1280,
		Height:             720,
		MaxConstantBuffers: 64,
		MaxDescriptors:     128,
		MaxRTVs:            64,
	})
	require.NoError(t, err)
	f.allocator = a

	f.store, err = NewStore(StoreConfig{
		RootPath:             f.root,
		ShaderPath:           f.shaders,
		AllowOnDemandLoading: onDemand,
	}, a)
	require.NoError(t, err)
	return f
}

func (f *fixture) write(t *testing.T, rel string, content []byte) string {
	t.Helper()
	path := filepath.Join(f.root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path
}

func (f *fixture) writeMaterialTree(t *testing.T) {
	t.Helper()
	f.write(t, "Jsons/Samplers/basicSampler.json", []byte(basicSamplerJSON))
	f.write(t, "Jsons/RootSigs/basicRS.json", []byte(basicRSJSON))
	f.write(t, "Jsons/PipelineStates/basicPSO.json", []byte(basicPSOJSON))
	f.write(t, "Jsons/Materials/woodMat.json", []byte(woodMatJSON))
	f.write(t, "Textures/wood_albedo.png", solidPNG(t, color.RGBA{R: 160, G: 110, B: 60, A: 255}))
	f.write(t, "Textures/wood_normals.png", solidPNG(t, color.RGBA{R: 128, G: 128, B: 255, A: 255}))
	require.NoError(t, os.WriteFile(filepath.Join(f.shaders, "VertexShader.cso"), []byte{0x44, 0x58, 0x42, 0x43}, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(f.shaders, "PixelShader.cso"), []byte{0x44, 0x58, 0x42, 0x43, 0x01}, 0o644))
}

func solidPNG(t *testing.T, c color.RGBA) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestMaterialLoadsEndToEnd(t *testing.T) {
	f := newFixture(t, true)
	f.writeMaterialTree(t)

	mat, err := f.store.GetMaterial("woodMat")
	require.NoError(t, err)
	require.NotNil(t, mat)

	assert.True(t, mat.IsFinalized())
	assert.Equal(t, metadata.PipelineCategoryStandard, mat.Category())
	require.NotNil(t, mat.RootSignature)
	require.NotNil(t, mat.PipelineState)
	assert.Same(t, mat.RootSignature, mat.PipelineState.Desc.RootSignature)

	albedo, ok := f.allocator.ShaderVisibleResource(mat.FinalGPUHandle(), 0)
	require.True(t, ok)
	require.NotNil(t, albedo)
	assert.Equal(t, "wood_albedo", albedo.Name)
	normals, ok := f.allocator.ShaderVisibleResource(mat.FinalGPUHandle(), 1)
	require.True(t, ok)
	require.NotNil(t, normals)
	assert.Equal(t, "wood_normals", normals.Name)
	for slot := 2; slot < metadata.MaterialTextureSlots; slot++ {
		res, ok := f.allocator.ShaderVisibleResource(mat.FinalGPUHandle(), slot)
		assert.True(t, ok)
		assert.Nil(t, res, "slot %d", slot)
	}

	// the vertex shader is resolved from its own namespace
	vs, err := f.store.GetVertexShader("VertexShader")
	require.NoError(t, err)
	assert.Same(t, vs, mat.PipelineState.Desc.VS)
	assert.Len(t, mat.PipelineState.Desc.PS.Bytecode, 5)
}

func TestRootSignatureSamplers(t *testing.T) {
	f := newFixture(t, true)
	f.writeMaterialTree(t)

	rs, err := f.store.GetRootSignature("basicRS")
	require.NoError(t, err)
	require.NotNil(t, rs)
	assert.Equal(t, metadata.RootSignatureFlagAllowInputAssemblerInputLayout, rs.Desc.Flags)
	require.Len(t, rs.Desc.StaticSamplers, 2)
	assert.Equal(t, uint32(0), rs.Desc.StaticSamplers[0].ShaderRegister)
	assert.Equal(t, uint32(1), rs.Desc.StaticSamplers[1].ShaderRegister)
	// the missing sampler degrades to the default one
	assert.Equal(t, DefaultSampler().Filter, rs.Desc.StaticSamplers[1].Filter)

	_, ok, err := f.store.GetSampler("missingSampler")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetIsReferentiallyStable(t *testing.T) {
	f := newFixture(t, true)
	f.writeMaterialTree(t)

	first, err := f.store.GetMaterial("woodMat")
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		again, err := f.store.GetMaterial("woodMat")
		require.NoError(t, err)
		assert.Same(t, first, again)
	}

	pso, err := f.store.GetPipelineState("basicPSO")
	require.NoError(t, err)
	assert.Same(t, first.PipelineState, pso)
}

func TestAddKeepsFirstEntry(t *testing.T) {
	f := newFixture(t, false)

	first := &metadata.Mesh{Name: "cube"}
	second := &metadata.Mesh{Name: "cube"}
	assert.True(t, f.store.AddMesh("cube", first))
	assert.False(t, f.store.AddMesh("cube", second))

	got, err := f.store.GetMesh("cube")
	require.NoError(t, err)
	assert.Same(t, first, got)

	f.store.ReplaceMesh("cube", second)
	got, err = f.store.GetMesh("cube")
	require.NoError(t, err)
	assert.Same(t, second, got)
}

func TestAbsentAssetsAreNil(t *testing.T) {
	f := newFixture(t, true)

	mesh, err := f.store.GetMesh("nothing")
	require.NoError(t, err)
	assert.Nil(t, mesh)

	tex, err := f.store.GetTexture("nothing")
	require.NoError(t, err)
	assert.True(t, tex.IsNull())

	bundle, err := f.store.GetRenderTarget("nothing")
	require.NoError(t, err)
	assert.Nil(t, bundle)
	assert.True(t, bundle.RTVHandle().IsNull())
	assert.True(t, bundle.SRVHandle().IsNull())

	for ns, n := range f.store.Counts() {
		assert.Zero(t, n, "%s", ns)
	}
}

func TestOnDemandDisabledNeverTouchesDisk(t *testing.T) {
	f := newFixture(t, false)
	f.writeMaterialTree(t)

	mat, err := f.store.GetMaterial("woodMat")
	require.NoError(t, err)
	assert.Nil(t, mat)
	assert.Zero(t, f.allocator.LiveResources())
}

func TestTextureExtensionPriority(t *testing.T) {
	f := newFixture(t, true)
	f.write(t, "Textures/brick.png", solidPNG(t, color.RGBA{R: 255, A: 255}))
	// an invalid DDS must never be opened while a PNG exists
	f.write(t, "Textures/brick.dds", []byte("not a dds"))

	h, err := f.store.GetTexture("brick")
	require.NoError(t, err)
	require.False(t, h.IsNull())
	res, ok := f.allocator.ViewedResource(h)
	require.True(t, ok)
	assert.Equal(t, metadata.FormatR8G8B8A8Unorm, res.Desc.Format)
}

func TestTextureNamesKeepDirectories(t *testing.T) {
	f := newFixture(t, true)
	f.write(t, "Textures/SkyBoxes/grass.png", solidPNG(t, color.RGBA{G: 255, A: 255}))

	h, err := f.store.GetTexture(`SkyBoxes\grass`)
	require.NoError(t, err)
	require.False(t, h.IsNull())
	assert.True(t, f.store.HasTexture("SkyBoxes/grass"))
	assert.False(t, f.store.HasTexture("grass"))
}

func TestMalformedDescriptorIsFatal(t *testing.T) {
	f := newFixture(t, true)
	f.write(t, "Jsons/Materials/broken.json", []byte(`{"rsName": "basicRS", "psoName": "basicPSO"}`))

	mat, err := f.store.GetMaterial("broken")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrMalformedDescriptor)
	assert.Nil(t, mat)
	assert.Zero(t, f.store.Counts()[NamespaceMaterial])
}

func TestMissingReferencesDegrade(t *testing.T) {
	f := newFixture(t, true)
	f.write(t, "Jsons/Materials/lonely.json", []byte(`{
		"rsName": "noRS", "psoName": "noPSO",
		"color": [1, 1, 1], "scale": [1, 1], "offset": [0, 0],
		"textureCount": 1, "textures": [{"name": "noTexture", "slot": 0}]
	}`))

	mat, err := f.store.GetMaterial("lonely")
	require.NoError(t, err)
	require.NotNil(t, mat)
	assert.Nil(t, mat.RootSignature)
	assert.Nil(t, mat.PipelineState)
	assert.True(t, mat.Texture(0).IsNull())
	assert.True(t, mat.IsFinalized())
	assert.Equal(t, metadata.PipelineCategoryNone, mat.Category())
}

func TestResolveRejectsReentry(t *testing.T) {
	f := newFixture(t, true)
	c := newCache[*metadata.Mesh]()

	var load func(string) (*metadata.Mesh, bool, error)
	load = func(name string) (*metadata.Mesh, bool, error) {
		m, _, err := resolve(f.store, NamespaceMesh, c, name, load)
		return m, err == nil, err
	}
	_, _, err := resolve(f.store, NamespaceMesh, c, "ouroboros", load)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrCyclicReference)
	assert.Empty(t, f.store.resolving)
	assert.Zero(t, c.len())
}

func TestResolveRejectsUndeclaredEdges(t *testing.T) {
	f := newFixture(t, true)

	load := func(name string) (*metadata.Mesh, bool, error) {
		_, err := f.store.GetMaterial("anything")
		return nil, false, err
	}
	_, _, err := resolve(f.store, NamespaceMesh, newCache[*metadata.Mesh](), "cube", load)
	assert.ErrorIs(t, err, core.ErrCyclicReference)
}

func TestDependencyGraphIsAcyclic(t *testing.T) {
	state := map[Namespace]int{}
	var visit func(ns Namespace)
	visit = func(ns Namespace) {
		require.NotEqual(t, 1, state[ns], "cycle through %s", ns)
		if state[ns] == 2 {
			return
		}
		state[ns] = 1
		for _, dep := range dependencies[ns] {
			visit(dep)
		}
		state[ns] = 2
	}
	for ns := range dependencies {
		visit(ns)
	}
}

func TestMeshLoadsFromOBJ(t *testing.T) {
	f := newFixture(t, true)
	f.write(t, "Models/tri.obj", []byte("v 0 0 0\nv 1 0 0\nv 0 1 0\nvt 0 0\nvt 1 0\nvt 0 1\nvn 0 0 1\nf 1/1/1 2/2/1 3/3/1\n"))

	mesh, err := f.store.GetMesh("tri")
	require.NoError(t, err)
	require.NotNil(t, mesh)
	assert.Equal(t, uint32(3), mesh.IndexCount)
	assert.Equal(t, uint32(3*metadata.VertexStride), mesh.VertexBuffer.SizeInBytes)
	assert.Equal(t, metadata.FormatR32Uint, mesh.IndexBuffer.Format)
	assert.Len(t, mesh.IndexBuffer.Buffer.Data, 12)
}

func TestShutdownReleasesOwnedResources(t *testing.T) {
	f := newFixture(t, true)
	f.write(t, "Jsons/RtvSrvBundles/iblBrdf.json", []byte(fixedBundleJSON))

	b, err := f.store.GetRenderTarget("iblBrdf")
	require.NoError(t, err)
	require.NotNil(t, b)

	require.NoError(t, f.store.Shutdown())
	assert.True(t, b.Texture.Released)
	assert.Empty(t, f.store.RenderTargets())
}
