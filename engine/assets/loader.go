package assets

import (
	"github.com/spaghettifunk/prism/engine/assets/loaders"
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
)

// Loader turns the file at path into T. Loaders never touch the GPU.
type Loader[T any] interface {
	Load(path string) (T, error)
}

// Loaders groups the parsers used by a Store, one per file kind.
type Loaders struct {
	Mesh          Loader[*loaders.MeshData]
	Texture       Loader[*metadata.TextureData]
	Material      Loader[*loaders.MaterialConfig]
	RootSignature Loader[*loaders.RootSignatureConfig]
	Sampler       Loader[metadata.StaticSamplerDesc]
	PipelineState Loader[*loaders.PipelineStateConfig]
	Shader        Loader[*metadata.ShaderBlob]
	RtvSrvBundle  Loader[*loaders.RtvSrvBundleConfig]
}

func DefaultLoaders() Loaders {
	return Loaders{
		Mesh:          loaders.ModelLoader{},
		Texture:       loaders.TextureLoader{},
		Material:      loaders.MaterialLoader{},
		RootSignature: loaders.RootSignatureLoader{},
		Sampler:       loaders.SamplerLoader{},
		PipelineState: loaders.PipelineStateLoader{},
		Shader:        loaders.ShaderLoader{},
		RtvSrvBundle:  loaders.RtvSrvBundleLoader{},
	}
}
