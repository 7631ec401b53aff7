package assets

import (
	"path/filepath"
	"sort"
	"strings"
)

// Namespace separates asset names: the same name may exist in several.
type Namespace uint8

const (
	NamespaceMesh Namespace = iota
	NamespaceTexture
	NamespaceMaterial
	NamespaceRootSignature
	NamespaceSampler
	NamespacePipelineState
	NamespaceVertexShader
	NamespacePixelShader
	NamespaceRenderTarget
)

func (ns Namespace) String() string {
	switch ns {
	case NamespaceMesh:
		return "mesh"
	case NamespaceTexture:
		return "texture"
	case NamespaceMaterial:
		return "material"
	case NamespaceRootSignature:
		return "root signature"
	case NamespaceSampler:
		return "sampler"
	case NamespacePipelineState:
		return "pipeline state"
	case NamespaceVertexShader:
		return "vertex shader"
	case NamespacePixelShader:
		return "pixel shader"
	case NamespaceRenderTarget:
		return "render target"
	default:
		return "unknown"
	}
}

// dependencies lists the namespaces an asset may resolve while it loads.
// The graph is acyclic; the store refuses any other edge.
var dependencies = map[Namespace][]Namespace{
	NamespaceMaterial:      {NamespaceRootSignature, NamespacePipelineState, NamespaceTexture},
	NamespacePipelineState: {NamespaceRootSignature, NamespaceVertexShader, NamespacePixelShader},
	NamespaceRootSignature: {NamespaceSampler},
}

func mayDependOn(from, to Namespace) bool {
	for _, ns := range dependencies[from] {
		if ns == to {
			return true
		}
	}
	return false
}

// Search locations, relative to the asset root.
const (
	modelsDir         = "Models"
	texturesDir       = "Textures"
	materialsDir      = "Jsons/Materials"
	rootSignaturesDir = "Jsons/RootSigs"
	samplersDir       = "Jsons/Samplers"
	pipelineStatesDir = "Jsons/PipelineStates"
	renderTargetsDir  = "Jsons/RtvSrvBundles"
)

// textureExtensions are probed in order; the first existing file wins.
var textureExtensions = []string{".png", ".jpg", ".dds"}

// namespaceForPath maps a file below root back to the asset it describes.
func namespaceForPath(root, path string) (Namespace, string, bool) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return 0, "", false
	}
	rel = filepath.ToSlash(rel)
	ext := filepath.Ext(rel)
	stem := strings.TrimSuffix(rel, ext)

	descriptorDirs := map[string]Namespace{
		materialsDir:      NamespaceMaterial,
		rootSignaturesDir: NamespaceRootSignature,
		samplersDir:       NamespaceSampler,
		pipelineStatesDir: NamespacePipelineState,
		renderTargetsDir:  NamespaceRenderTarget,
	}
	for dir, ns := range descriptorDirs {
		if strings.HasPrefix(stem, dir+"/") && ext == ".json" {
			return ns, strings.TrimPrefix(stem, dir+"/"), true
		}
	}
	if strings.HasPrefix(stem, modelsDir+"/") && ext == ".obj" {
		return NamespaceMesh, strings.TrimPrefix(stem, modelsDir+"/"), true
	}
	if strings.HasPrefix(stem, texturesDir+"/") {
		for _, e := range textureExtensions {
			if strings.EqualFold(ext, e) {
				return NamespaceTexture, strings.TrimPrefix(stem, texturesDir+"/"), true
			}
		}
	}
	return 0, "", false
}

// normalizeName accepts either path separator in asset names.
func normalizeName(name string) string {
	return strings.ReplaceAll(name, "\\", "/")
}

// cache is one namespace of the store. Entries are immutable once added.
type cache[T any] struct {
	entries map[string]T
}

func newCache[T any]() *cache[T] {
	return &cache[T]{entries: make(map[string]T)}
}

func (c *cache[T]) get(name string) (T, bool) {
	v, ok := c.entries[name]
	return v, ok
}

// add inserts v unless name is taken and reports whether it did.
func (c *cache[T]) add(name string, v T) bool {
	if _, ok := c.entries[name]; ok {
		return false
	}
	c.entries[name] = v
	return true
}

func (c *cache[T]) replace(name string, v T) (T, bool) {
	old, ok := c.entries[name]
	c.entries[name] = v
	return old, ok
}

func (c *cache[T]) remove(name string) (T, bool) {
	v, ok := c.entries[name]
	delete(c.entries, name)
	return v, ok
}

func (c *cache[T]) names() []string {
	names := make([]string, 0, len(c.entries))
	for n := range c.entries {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (c *cache[T]) len() int {
	return len(c.entries)
}

func (c *cache[T]) clear() {
	c.entries = make(map[string]T)
}
