package assets

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/renderer"
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
)

type StoreConfig struct {
	// RootPath holds Models/, Textures/ and Jsons/.
	RootPath string
	// ShaderPath holds compiled shaders; empty means the executable's directory.
	ShaderPath string
	// AllowOnDemandLoading lets Get* read missing assets from disk.
	AllowOnDemandLoading bool
	// PrintLoadingProgress logs every loaded asset at info level.
	PrintLoadingProgress bool
}

type assetKey struct {
	ns   Namespace
	name string
}

/**
 * @brief Store is the single registry of every loaded asset, keyed by
 * namespace and name. Entries never move once inserted, so pointers handed
 * out by Get* stay valid until the entry is explicitly replaced. The store
 * is not safe for concurrent use; it belongs to the render goroutine.
 */
type Store struct {
	config    StoreConfig
	allocator renderer.Allocator
	loaders   Loaders
	shaderDir string

	meshes         *cache[*metadata.Mesh]
	textures       *cache[metadata.CPUDescriptorHandle]
	materials      *cache[*metadata.Material]
	rootSignatures *cache[*metadata.RootSignature]
	samplers       *cache[metadata.StaticSamplerDesc]
	pipelineStates *cache[*metadata.PipelineState]
	vertexShaders  *cache[*metadata.ShaderBlob]
	pixelShaders   *cache[*metadata.ShaderBlob]
	renderTargets  *cache[*metadata.RtvSrvBundle]

	// resolving is the chain of assets currently being loaded.
	resolving []assetKey
	// released remembers screen-sized bundles dropped before a resize.
	released []releasedBundle
}

func NewStore(config StoreConfig, allocator renderer.Allocator) (*Store, error) {
	return NewStoreWithLoaders(config, allocator, DefaultLoaders())
}

func NewStoreWithLoaders(config StoreConfig, allocator renderer.Allocator, l Loaders) (*Store, error) {
	if allocator == nil {
		return nil, errors.New("asset store needs an allocator")
	}
	shaderDir := config.ShaderPath
	if shaderDir == "" {
		exe, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("failed to locate the executable for shader lookup: %w", err)
		}
		shaderDir = filepath.Dir(exe)
	}
	return &Store{
		config:         config,
		allocator:      allocator,
		loaders:        l,
		shaderDir:      shaderDir,
		meshes:         newCache[*metadata.Mesh](),
		textures:       newCache[metadata.CPUDescriptorHandle](),
		materials:      newCache[*metadata.Material](),
		rootSignatures: newCache[*metadata.RootSignature](),
		samplers:       newCache[metadata.StaticSamplerDesc](),
		pipelineStates: newCache[*metadata.PipelineState](),
		vertexShaders:  newCache[*metadata.ShaderBlob](),
		pixelShaders:   newCache[*metadata.ShaderBlob](),
		renderTargets:  newCache[*metadata.RtvSrvBundle](),
	}, nil
}

func (s *Store) Config() StoreConfig {
	return s.config
}

func (s *Store) Allocator() renderer.Allocator {
	return s.allocator
}

// resolve returns the cached entry for name or loads it on demand. A load
// that reports found == false leaves the namespace untouched.
func resolve[T any](s *Store, ns Namespace, c *cache[T], name string, load func(name string) (T, bool, error)) (T, bool, error) {
	var zero T
	name = normalizeName(name)
	if v, ok := c.get(name); ok {
		return v, true, nil
	}
	if !s.config.AllowOnDemandLoading || name == "" {
		return zero, false, nil
	}

	key := assetKey{ns: ns, name: name}
	for _, k := range s.resolving {
		if k == key {
			return zero, false, fmt.Errorf("%w: %s %q", core.ErrCyclicReference, ns, name)
		}
	}
	if n := len(s.resolving); n > 0 {
		if parent := s.resolving[n-1]; !mayDependOn(parent.ns, ns) {
			return zero, false, fmt.Errorf("%w: %s %q cannot depend on %s %q", core.ErrCyclicReference, parent.ns, parent.name, ns, name)
		}
	}
	s.resolving = append(s.resolving, key)
	defer func() { s.resolving = s.resolving[:len(s.resolving)-1] }()

	v, found, err := load(name)
	if err != nil {
		return zero, false, fmt.Errorf("failed to load %s %q: %w", ns, name, err)
	}
	if !found {
		core.LogDebug("no %s named %q", ns, name)
		return zero, false, nil
	}
	c.add(name, v)
	return v, true, nil
}

func (s *Store) progress(ns Namespace, name, path string) {
	if s.config.PrintLoadingProgress {
		core.LogInfo("loaded %s %q from %s", ns, name, path)
		return
	}
	core.LogDebug("loaded %s %q from %s", ns, name, path)
}

// findFile returns the first existing dir/name+ext under the asset root.
func (s *Store) findFile(dir, name string, exts ...string) (string, bool) {
	for _, ext := range exts {
		p := filepath.Join(s.config.RootPath, dir, filepath.FromSlash(name)+ext)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, true
		}
	}
	return "", false
}

// Meshes

func (s *Store) GetMesh(name string) (*metadata.Mesh, error) {
	m, _, err := resolve(s, NamespaceMesh, s.meshes, name, s.loadMesh)
	return m, err
}

// AddMesh inserts mesh unless the name is taken; the first insert wins.
func (s *Store) AddMesh(name string, mesh *metadata.Mesh) bool {
	return s.meshes.add(normalizeName(name), mesh)
}

func (s *Store) ReplaceMesh(name string, mesh *metadata.Mesh) {
	s.meshes.replace(normalizeName(name), mesh)
}

func (s *Store) loadMesh(name string) (*metadata.Mesh, bool, error) {
	path, ok := s.findFile(modelsDir, name, ".obj")
	if !ok {
		return nil, false, nil
	}
	data, err := s.loaders.Mesh.Load(path)
	if err != nil {
		return nil, false, err
	}
	mesh, err := s.CreateMesh(name, data.Vertices, data.Indices)
	if err != nil {
		return nil, false, err
	}
	s.progress(NamespaceMesh, name, path)
	return mesh, true, nil
}

// CreateMesh uploads geometry into static buffers without registering it.
func (s *Store) CreateMesh(name string, vertices []metadata.Vertex, indices []uint32) (*metadata.Mesh, error) {
	if len(vertices) == 0 || len(indices) == 0 {
		return nil, fmt.Errorf("mesh %q has no geometry", name)
	}
	vb, err := s.allocator.CreateStaticBuffer(name+" vertices", metadata.VertexStride, uint32(len(vertices)), metadata.EncodeConstants(vertices))
	if err != nil {
		return nil, err
	}
	ib, err := s.allocator.CreateStaticBuffer(name+" indices", 4, uint32(len(indices)), metadata.EncodeConstants(indices))
	if err != nil {
		s.allocator.ReleaseResource(vb)
		return nil, err
	}
	return &metadata.Mesh{
		Name: name,
		VertexBuffer: metadata.VertexBufferView{
			Buffer:        vb,
			SizeInBytes:   uint32(len(vertices)) * metadata.VertexStride,
			StrideInBytes: metadata.VertexStride,
		},
		IndexBuffer: metadata.IndexBufferView{
			Buffer:      ib,
			SizeInBytes: uint32(len(indices)) * 4,
			Format:      metadata.FormatR32Uint,
		},
		IndexCount:  uint32(len(indices)),
		VertexCount: uint32(len(vertices)),
	}, nil
}

// Textures

// GetTexture returns the SRV of the named texture, or the null handle.
func (s *Store) GetTexture(name string) (metadata.CPUDescriptorHandle, error) {
	h, _, err := resolve(s, NamespaceTexture, s.textures, name, s.loadTexture)
	return h, err
}

func (s *Store) AddTexture(name string, srv metadata.CPUDescriptorHandle) bool {
	return s.textures.add(normalizeName(name), srv)
}

func (s *Store) ReplaceTexture(name string, srv metadata.CPUDescriptorHandle) {
	s.textures.replace(normalizeName(name), srv)
}

// TexturePath reports the file a texture would be loaded from.
func (s *Store) TexturePath(name string) (string, bool) {
	return s.findFile(texturesDir, normalizeName(name), textureExtensions...)
}

// HasTexture reports whether name is already registered.
func (s *Store) HasTexture(name string) bool {
	_, ok := s.textures.get(normalizeName(name))
	return ok
}

// UploadTexture sends decoded texels to the GPU and registers the result
// under name. Decoding may happen elsewhere; uploading must not.
func (s *Store) UploadTexture(name string, data *metadata.TextureData) (metadata.CPUDescriptorHandle, error) {
	name = normalizeName(name)
	if h, ok := s.textures.get(name); ok {
		return h, nil
	}
	data.Name = name
	h, err := s.allocator.LoadTexture(data)
	if err != nil {
		return metadata.CPUDescriptorHandle{}, fmt.Errorf("failed to upload texture %q: %w", name, err)
	}
	s.textures.add(name, h)
	return h, nil
}

func (s *Store) loadTexture(name string) (metadata.CPUDescriptorHandle, bool, error) {
	path, ok := s.findFile(texturesDir, name, textureExtensions...)
	if !ok {
		return metadata.CPUDescriptorHandle{}, false, nil
	}
	data, err := s.loaders.Texture.Load(path)
	if err != nil {
		return metadata.CPUDescriptorHandle{}, false, err
	}
	data.Name = name
	h, err := s.allocator.LoadTexture(data)
	if err != nil {
		return metadata.CPUDescriptorHandle{}, false, err
	}
	s.progress(NamespaceTexture, name, path)
	return h, true, nil
}

// Materials

func (s *Store) GetMaterial(name string) (*metadata.Material, error) {
	m, _, err := resolve(s, NamespaceMaterial, s.materials, name, s.loadMaterial)
	return m, err
}

func (s *Store) AddMaterial(name string, material *metadata.Material) bool {
	return s.materials.add(normalizeName(name), material)
}

func (s *Store) ReplaceMaterial(name string, material *metadata.Material) {
	s.materials.replace(normalizeName(name), material)
}

func (s *Store) loadMaterial(name string) (*metadata.Material, bool, error) {
	path, ok := s.findFile(materialsDir, name, ".json")
	if !ok {
		return nil, false, nil
	}
	cfg, err := s.loaders.Material.Load(path)
	if err != nil {
		return nil, false, err
	}

	rs, err := s.GetRootSignature(cfg.RootSignatureName)
	if err != nil {
		return nil, false, err
	}
	if rs == nil {
		core.LogWarn("material %q references missing root signature %q", name, cfg.RootSignatureName)
	}
	pso, err := s.GetPipelineState(cfg.PipelineStateName)
	if err != nil {
		return nil, false, err
	}
	if pso == nil {
		core.LogWarn("material %q references missing pipeline state %q", name, cfg.PipelineStateName)
	}

	material := metadata.NewMaterial(name, rs, pso, cfg.ColorTint, cfg.UVScale, cfg.UVOffset)
	for _, tex := range cfg.Textures {
		srv, err := s.GetTexture(tex.Name)
		if err != nil {
			return nil, false, err
		}
		if srv.IsNull() {
			core.LogWarn("material %q references missing texture %q", name, tex.Name)
			continue
		}
		if !material.AddTexture(srv, tex.Slot) {
			core.LogWarn("material %q: texture %q does not fit slot %d", name, tex.Name, tex.Slot)
		}
	}
	if err := material.Finalize(s.allocator); err != nil {
		return nil, false, err
	}
	s.progress(NamespaceMaterial, name, path)
	return material, true, nil
}

// Root signatures

func (s *Store) GetRootSignature(name string) (*metadata.RootSignature, error) {
	rs, _, err := resolve(s, NamespaceRootSignature, s.rootSignatures, name, s.loadRootSignature)
	return rs, err
}

func (s *Store) AddRootSignature(name string, rs *metadata.RootSignature) bool {
	return s.rootSignatures.add(normalizeName(name), rs)
}

func (s *Store) ReplaceRootSignature(name string, rs *metadata.RootSignature) {
	s.rootSignatures.replace(normalizeName(name), rs)
}

func (s *Store) loadRootSignature(name string) (*metadata.RootSignature, bool, error) {
	path, ok := s.findFile(rootSignaturesDir, name, ".json")
	if !ok {
		return nil, false, nil
	}
	cfg, err := s.loaders.RootSignature.Load(path)
	if err != nil {
		return nil, false, err
	}

	desc := &metadata.RootSignatureDesc{
		Parameters: cfg.Parameters,
		Flags:      metadata.RootSignatureFlagAllowInputAssemblerInputLayout,
	}
	for i, samplerName := range cfg.SamplerNames {
		sampler, found, err := resolve(s, NamespaceSampler, s.samplers, samplerName, s.loadSampler)
		if err != nil {
			return nil, false, err
		}
		if !found {
			core.LogWarn("root signature %q references missing sampler %q, using defaults", name, samplerName)
			sampler = DefaultSampler()
		}
		sampler.ShaderRegister = uint32(i)
		desc.StaticSamplers = append(desc.StaticSamplers, sampler)
	}

	rs, err := s.allocator.Device().CreateRootSignature(name, desc)
	if err != nil {
		return nil, false, err
	}
	s.progress(NamespaceRootSignature, name, path)
	return rs, true, nil
}

// Samplers

// GetSampler returns the named static sampler; ok is false when absent.
func (s *Store) GetSampler(name string) (desc metadata.StaticSamplerDesc, ok bool, err error) {
	return resolve(s, NamespaceSampler, s.samplers, name, s.loadSampler)
}

func (s *Store) AddSampler(name string, desc metadata.StaticSamplerDesc) bool {
	return s.samplers.add(normalizeName(name), desc)
}

func (s *Store) ReplaceSampler(name string, desc metadata.StaticSamplerDesc) {
	s.samplers.replace(normalizeName(name), desc)
}

func (s *Store) loadSampler(name string) (metadata.StaticSamplerDesc, bool, error) {
	path, ok := s.findFile(samplersDir, name, ".json")
	if !ok {
		return metadata.StaticSamplerDesc{}, false, nil
	}
	desc, err := s.loaders.Sampler.Load(path)
	if err != nil {
		return metadata.StaticSamplerDesc{}, false, err
	}
	s.progress(NamespaceSampler, name, path)
	return desc, true, nil
}

// DefaultSampler is a trilinear wrapping sampler visible to every stage.
func DefaultSampler() metadata.StaticSamplerDesc {
	return metadata.StaticSamplerDesc{
		Filter:           metadata.FilterMinMagMipLinear,
		AddressU:         metadata.TextureAddressModeWrap,
		AddressV:         metadata.TextureAddressModeWrap,
		AddressW:         metadata.TextureAddressModeWrap,
		MaxAnisotropy:    1,
		ComparisonFunc:   metadata.ComparisonFuncNever,
		MaxLOD:           math.MaxFloat32,
		ShaderVisibility: metadata.ShaderVisibilityAll,
	}
}

// Pipeline states

func (s *Store) GetPipelineState(name string) (*metadata.PipelineState, error) {
	pso, _, err := resolve(s, NamespacePipelineState, s.pipelineStates, name, s.loadPipelineState)
	return pso, err
}

func (s *Store) AddPipelineState(name string, pso *metadata.PipelineState) bool {
	return s.pipelineStates.add(normalizeName(name), pso)
}

func (s *Store) ReplacePipelineState(name string, pso *metadata.PipelineState) {
	s.pipelineStates.replace(normalizeName(name), pso)
}

func (s *Store) loadPipelineState(name string) (*metadata.PipelineState, bool, error) {
	path, ok := s.findFile(pipelineStatesDir, name, ".json")
	if !ok {
		return nil, false, nil
	}
	cfg, err := s.loaders.PipelineState.Load(path)
	if err != nil {
		return nil, false, err
	}

	desc := cfg.Desc
	if desc.RootSignature, err = s.GetRootSignature(cfg.RootSignatureName); err != nil {
		return nil, false, err
	}
	if desc.RootSignature == nil {
		core.LogWarn("pipeline state %q references missing root signature %q", name, cfg.RootSignatureName)
	}
	if desc.VS, err = s.GetVertexShader(cfg.VertexShaderName); err != nil {
		return nil, false, err
	}
	if desc.VS == nil {
		core.LogWarn("pipeline state %q references missing vertex shader %q", name, cfg.VertexShaderName)
	}
	if desc.PS, err = s.GetPixelShader(cfg.PixelShaderName); err != nil {
		return nil, false, err
	}
	if desc.PS == nil {
		core.LogWarn("pipeline state %q references missing pixel shader %q", name, cfg.PixelShaderName)
	}

	pso, err := s.allocator.Device().CreateGraphicsPipelineState(name, &desc)
	if err != nil {
		return nil, false, err
	}
	if cfg.HasCategory {
		pso.Category = cfg.Category
	} else {
		pso.Category = metadata.CategoryForPipelineName(name)
	}
	s.progress(NamespacePipelineState, name, path)
	return pso, true, nil
}

// Shaders

func (s *Store) GetVertexShader(name string) (*metadata.ShaderBlob, error) {
	blob, _, err := resolve(s, NamespaceVertexShader, s.vertexShaders, name, s.shaderLoader(NamespaceVertexShader))
	return blob, err
}

func (s *Store) AddVertexShader(name string, blob *metadata.ShaderBlob) bool {
	return s.vertexShaders.add(normalizeName(name), blob)
}

func (s *Store) ReplaceVertexShader(name string, blob *metadata.ShaderBlob) {
	s.vertexShaders.replace(normalizeName(name), blob)
}

func (s *Store) GetPixelShader(name string) (*metadata.ShaderBlob, error) {
	blob, _, err := resolve(s, NamespacePixelShader, s.pixelShaders, name, s.shaderLoader(NamespacePixelShader))
	return blob, err
}

func (s *Store) AddPixelShader(name string, blob *metadata.ShaderBlob) bool {
	return s.pixelShaders.add(normalizeName(name), blob)
}

func (s *Store) ReplacePixelShader(name string, blob *metadata.ShaderBlob) {
	s.pixelShaders.replace(normalizeName(name), blob)
}

func (s *Store) shaderLoader(ns Namespace) func(string) (*metadata.ShaderBlob, bool, error) {
	return func(name string) (*metadata.ShaderBlob, bool, error) {
		path := filepath.Join(s.shaderDir, filepath.FromSlash(name)+".cso")
		if _, err := os.Stat(path); err != nil {
			return nil, false, nil
		}
		blob, err := s.loaders.Shader.Load(path)
		if err != nil {
			return nil, false, err
		}
		blob.Name = name
		s.progress(ns, name, path)
		return blob, true, nil
	}
}

// Render targets

// GetRenderTarget returns the named bundle; absent bundles are nil and the
// nil bundle yields null handles.
func (s *Store) GetRenderTarget(name string) (*metadata.RtvSrvBundle, error) {
	b, _, err := resolve(s, NamespaceRenderTarget, s.renderTargets, name, s.loadRenderTarget)
	return b, err
}

func (s *Store) AddRenderTarget(name string, bundle *metadata.RtvSrvBundle) bool {
	return s.renderTargets.add(normalizeName(name), bundle)
}

// ReplaceRenderTarget swaps the bundle under name. The previous texture is
// released once the GPU is idle, unless the new bundle shares it.
func (s *Store) ReplaceRenderTarget(name string, bundle *metadata.RtvSrvBundle) error {
	old, ok := s.renderTargets.replace(normalizeName(name), bundle)
	if !ok || old == nil || old.Texture == nil || old.Texture == bundle.Resource() {
		return nil
	}
	if err := s.allocator.WaitForGPU(); err != nil {
		return err
	}
	s.allocator.ReleaseResource(old.Texture)
	return nil
}

func (s *Store) loadRenderTarget(name string) (*metadata.RtvSrvBundle, bool, error) {
	path, ok := s.findFile(renderTargetsDir, name, ".json")
	if !ok {
		return nil, false, nil
	}
	cfg, err := s.loaders.RtvSrvBundle.Load(path)
	if err != nil {
		return nil, false, err
	}
	bundle, err := s.allocator.CreateRtvSrvBundle(name, cfg.TexDesc, cfg.RTVDesc, cfg.ScreenSized)
	if err != nil {
		return nil, false, err
	}
	s.progress(NamespaceRenderTarget, name, path)
	return bundle, true, nil
}

// Counts reports the number of entries per namespace.
func (s *Store) Counts() map[Namespace]int {
	return map[Namespace]int{
		NamespaceMesh:          s.meshes.len(),
		NamespaceTexture:       s.textures.len(),
		NamespaceMaterial:      s.materials.len(),
		NamespaceRootSignature: s.rootSignatures.len(),
		NamespaceSampler:       s.samplers.len(),
		NamespacePipelineState: s.pipelineStates.len(),
		NamespaceVertexShader:  s.vertexShaders.len(),
		NamespacePixelShader:   s.pixelShaders.len(),
		NamespaceRenderTarget:  s.renderTargets.len(),
	}
}

// Shutdown waits for the GPU, releases the resources the store owns and
// empties every namespace.
func (s *Store) Shutdown() error {
	if err := s.allocator.WaitForGPU(); err != nil {
		return err
	}
	for _, name := range s.renderTargets.names() {
		b, _ := s.renderTargets.get(name)
		if b != nil && b.Texture != nil && !b.Texture.Released {
			s.allocator.ReleaseResource(b.Texture)
		}
	}
	for _, name := range s.meshes.names() {
		m, _ := s.meshes.get(name)
		if m == nil {
			continue
		}
		s.allocator.ReleaseResource(m.VertexBuffer.Buffer)
		s.allocator.ReleaseResource(m.IndexBuffer.Buffer)
	}
	s.meshes.clear()
	s.textures.clear()
	s.materials.clear()
	s.rootSignatures.clear()
	s.samplers.clear()
	s.pipelineStates.clear()
	s.vertexShaders.clear()
	s.pixelShaders.clear()
	s.renderTargets.clear()
	s.released = nil
	return nil
}
