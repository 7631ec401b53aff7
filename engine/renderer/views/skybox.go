package views

import (
	"fmt"
	"math/bits"

	"github.com/spaghettifunk/prism/engine/assets"
	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/renderer"
	"github.com/spaghettifunk/prism/engine/renderer/components"
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
)

const (
	// IBLMapSize is the edge of every precomputed environment texture.
	IBLMapSize = 512
	// specularMipsSkipped drops the smallest mips of the specular chain.
	specularMipsSkipped = 3
	cubeFaces           = 6
)

// SpecularMipLevels is the mip count of the specular convolution cube.
var SpecularMipLevels = bits.Len(IBLMapSize) - specularMipsSkipped

/**
 * @brief The sky: a cube-mapped mesh drawn behind the scene plus the
 * image-based lighting inputs derived from its cube map. The IBL textures
 * are built once, the first frame the sky is rendered.
 */
type Sky struct {
	Name string

	store     *assets.Store
	allocator renderer.Allocator

	mesh          *metadata.Mesh
	cubeMap       metadata.CPUDescriptorHandle
	cubeMapTable  metadata.GPUDescriptorHandle
	rootSignature *metadata.RootSignature
	pipelineState *metadata.PipelineState

	iblCreated bool
	iblTable   metadata.GPUDescriptorHandle
	depth      *metadata.Resource
	dsv        metadata.CPUDescriptorHandle

	Irradiance *metadata.Resource
	Specular   *metadata.Resource
	BRDF       *metadata.RtvSrvBundle

	warnedMissing bool
}

// NewSky resolves the sky mesh, its cube map and skyRS/skyPSO. Missing
// pieces are tolerated; the sky then draws nothing.
func NewSky(store *assets.Store, meshName, cubeMapName string) (*Sky, error) {
	s := &Sky{
		Name:      cubeMapName,
		store:     store,
		allocator: store.Allocator(),
	}
	var err error
	if s.mesh, err = store.GetMesh(meshName); err != nil {
		return nil, err
	}
	if s.cubeMap, err = store.GetTexture(cubeMapName); err != nil {
		return nil, err
	}
	if s.rootSignature, err = store.GetRootSignature("skyRS"); err != nil {
		return nil, err
	}
	if s.pipelineState, err = store.GetPipelineState("skyPSO"); err != nil {
		return nil, err
	}
	if !s.cubeMap.IsNull() {
		if s.cubeMapTable, err = s.allocator.CopyToDescriptorHeap(s.cubeMap, 1); err != nil {
			return nil, err
		}
	} else {
		core.LogWarn("sky %q has no cube map", cubeMapName)
	}
	return s, nil
}

// NeedsIBL reports whether CreateIBLResources still has to run.
func (s *Sky) NeedsIBL() bool {
	return !s.iblCreated
}

// IBLTable is the first of three consecutive shader-visible descriptors:
// irradiance, specular convolution and BRDF lookup. Null until built.
func (s *Sky) IBLTable() metadata.GPUDescriptorHandle {
	return s.iblTable
}

// CreateIBLResources renders the irradiance map, the specular convolution
// chain and the BRDF lookup table. Every stage is submitted and waited on
// before the next starts. Outputs are registered as persistent bundles.
func (s *Sky) CreateIBLResources(binder *renderer.BindState) error {
	if s.iblCreated {
		return nil
	}
	var err error
	s.depth, s.dsv, err = s.allocator.CreateDepthBuffer("skyIBLDepth", IBLMapSize, IBLMapSize, metadata.FormatD24UnormS8Uint)
	if err != nil {
		return err
	}

	if err := s.createIrradianceMap(binder); err != nil {
		return s.abandonIBL(err)
	}
	if err := s.createSpecularConvolution(binder); err != nil {
		return s.abandonIBL(err)
	}
	if err := s.createBRDFLookUpTexture(binder); err != nil {
		return s.abandonIBL(err)
	}
	if err := s.buildIBLTable(); err != nil {
		return s.abandonIBL(err)
	}

	// the depth target is only needed while precomputing
	s.allocator.ReleaseResource(s.depth)
	s.depth = nil
	s.iblCreated = true
	core.LogInfo("image based lighting ready for sky %q", s.Name)
	return nil
}

// abandonIBL releases everything a failed CreateIBLResources built, so the
// next attempt starts from scratch. Bundles already registered are replaced
// by that attempt.
func (s *Sky) abandonIBL(err error) error {
	s.allocator.ReleaseResource(s.depth)
	s.allocator.ReleaseResource(s.Irradiance)
	s.allocator.ReleaseResource(s.Specular)
	if s.BRDF != nil {
		s.allocator.ReleaseResource(s.BRDF.Texture)
	}
	s.depth, s.Irradiance, s.Specular, s.BRDF = nil, nil, nil, nil
	return err
}

func (s *Sky) pipeline(rsName, psoName string) (*metadata.RootSignature, *metadata.PipelineState, error) {
	rs, err := s.store.GetRootSignature(rsName)
	if err != nil {
		return nil, nil, err
	}
	pso, err := s.store.GetPipelineState(psoName)
	if err != nil {
		return nil, nil, err
	}
	return rs, pso, nil
}

func (s *Sky) registerPersistent(bundle *metadata.RtvSrvBundle) {
	bundle.Persistent = true
	if !s.store.AddRenderTarget(bundle.Name, bundle) {
		if err := s.store.ReplaceRenderTarget(bundle.Name, bundle); err != nil {
			core.LogWarn("failed to replace render target %q: %s", bundle.Name, err)
		}
	}
}

func (s *Sky) beginStage(binder *renderer.BindState, rs *metadata.RootSignature, pso *metadata.PipelineState, size uint32) renderer.CommandList {
	cl := s.allocator.CommandList()
	cl.SetDescriptorHeaps()
	setViewport(cl, size)
	cl.IASetPrimitiveTopology(metadata.PrimitiveTopologyTriangleList)
	binder.BindRootSignature(rs)
	binder.BindPipelineState(pso)
	return cl
}

func setViewport(cl renderer.CommandList, size uint32) {
	vp, rect := metadata.FullViewport(size, size)
	cl.RSSetViewports(vp)
	cl.RSSetScissorRects(rect)
}

// runStage records one precomputation stage inside a debug event, then
// submits it.
func (s *Sky) runStage(binder *renderer.BindState, rs *metadata.RootSignature, pso *metadata.PipelineState, event string, record func(cl renderer.CommandList) error) error {
	cl := s.beginStage(binder, rs, pso, IBLMapSize)
	cl.BeginEvent(event)
	err := record(cl)
	cl.EndEvent()
	if err != nil {
		return err
	}
	return s.endStage(binder)
}

// endStage submits the stage and waits for it, so the next one reads
// finished data. Bindings do not survive the submission.
func (s *Sky) endStage(binder *renderer.BindState) error {
	if err := s.allocator.CloseExecuteAndResetCommandList(); err != nil {
		return err
	}
	binder.Invalidate()
	return s.allocator.WaitForGPU()
}

func (s *Sky) createIrradianceMap(binder *renderer.BindState) error {
	rs, pso, err := s.pipeline("iblIrradianceMapRS", "iblIrradianceMapPSO")
	if err != nil {
		return err
	}
	if rs == nil || pso == nil {
		core.LogWarn("skipping irradiance map: iblIrradianceMapRS/PSO not found")
		return nil
	}

	tex, err := s.allocator.CreateTexture("irradianceMap", metadata.ResourceDesc{
		Dimension:        metadata.ResourceDimensionTexture2D,
		Width:            IBLMapSize,
		Height:           IBLMapSize,
		DepthOrArraySize: cubeFaces,
		MipLevels:        1,
		Format:           metadata.FormatR8G8B8A8Unorm,
		SampleDesc:       metadata.SampleDesc{Count: 1},
		Flags:            metadata.ResourceFlagAllowRenderTarget,
	})
	if err != nil {
		return err
	}
	s.Irradiance = tex

	faces := make([]*metadata.RtvSrvBundle, cubeFaces)
	for face := range faces {
		faces[face], err = s.allocator.CreateRtvSrvBundleFromResource(fmt.Sprintf("irradianceMap%d", face), tex, metadata.RenderTargetViewDesc{
			Format:          metadata.FormatR8G8B8A8Unorm,
			ViewDimension:   metadata.RTVDimensionTexture2DArray,
			FirstArraySlice: uint32(face),
			ArraySize:       1,
		}, false)
		if err != nil {
			return err
		}
		s.registerPersistent(faces[face])
	}

	return s.runStage(binder, rs, pso, "IBL irradiance map", func(cl renderer.CommandList) error {
		cl.ResourceBarrier(tex, tex.State, metadata.ResourceStateRenderTarget)
		for face, bundle := range faces {
			cl.OMSetRenderTargets([]metadata.CPUDescriptorHandle{bundle.RTV}, &s.dsv)
			cb, err := s.allocator.FillNextConstantBuffer(metadata.EncodeConstants(metadata.IBLIrradianceMapData{FaceIndex: int32(face)}))
			if err != nil {
				return err
			}
			cl.SetGraphicsRootDescriptorTable(0, cb)
			cl.SetGraphicsRootDescriptorTable(1, s.cubeMapTable)
			cl.DrawInstanced(3, 1, 0, 0)
		}
		cl.ResourceBarrier(tex, metadata.ResourceStateRenderTarget, metadata.ResourceStatePixelShaderResource)
		return nil
	})
}

func (s *Sky) createSpecularConvolution(binder *renderer.BindState) error {
	rs, pso, err := s.pipeline("iblSpecularConvolutionRS", "iblSpecularConvolutionPSO")
	if err != nil {
		return err
	}
	if rs == nil || pso == nil {
		core.LogWarn("skipping specular convolution: iblSpecularConvolutionRS/PSO not found")
		return nil
	}

	mips := SpecularMipLevels
	tex, err := s.allocator.CreateTexture("specularConvolution", metadata.ResourceDesc{
		Dimension:        metadata.ResourceDimensionTexture2D,
		Width:            IBLMapSize,
		Height:           IBLMapSize,
		DepthOrArraySize: cubeFaces,
		MipLevels:        uint16(mips),
		Format:           metadata.FormatR8G8B8A8Unorm,
		SampleDesc:       metadata.SampleDesc{Count: 1},
		Flags:            metadata.ResourceFlagAllowRenderTarget,
	})
	if err != nil {
		return err
	}
	s.Specular = tex

	return s.runStage(binder, rs, pso, "IBL specular convolution", func(cl renderer.CommandList) error {
		cl.ResourceBarrier(tex, tex.State, metadata.ResourceStateRenderTarget)
		for mip := 0; mip < mips; mip++ {
			size := uint32(IBLMapSize >> mip)
			setViewport(cl, size)
			roughness := float32(0)
			if mips > 1 {
				roughness = float32(mip) / float32(mips-1)
			}
			for face := 0; face < cubeFaces; face++ {
				bundle, err := s.allocator.CreateRtvSrvBundleFromResource(fmt.Sprintf("specularConvolution_m%d_f%d", mip, face), tex, metadata.RenderTargetViewDesc{
					Format:          metadata.FormatR8G8B8A8Unorm,
					ViewDimension:   metadata.RTVDimensionTexture2DArray,
					MipSlice:        uint32(mip),
					FirstArraySlice: uint32(face),
					ArraySize:       1,
				}, false)
				if err != nil {
					return err
				}
				s.registerPersistent(bundle)

				cl.OMSetRenderTargets([]metadata.CPUDescriptorHandle{bundle.RTV}, nil)
				cb, err := s.allocator.FillNextConstantBuffer(metadata.EncodeConstants(metadata.IBLSpecularConvolutionData{
					Roughness: roughness,
					FaceIndex: int32(face),
					MipLevel:  int32(mip),
				}))
				if err != nil {
					return err
				}
				cl.SetGraphicsRootDescriptorTable(0, cb)
				cl.SetGraphicsRootDescriptorTable(1, s.cubeMapTable)
				cl.DrawInstanced(3, 1, 0, 0)
			}
		}
		cl.ResourceBarrier(tex, metadata.ResourceStateRenderTarget, metadata.ResourceStatePixelShaderResource)
		return nil
	})
}

func (s *Sky) createBRDFLookUpTexture(binder *renderer.BindState) error {
	rs, pso, err := s.pipeline("iblBrdfRS", "iblBrdfPSO")
	if err != nil {
		return err
	}
	if rs == nil || pso == nil {
		core.LogWarn("skipping BRDF lookup table: iblBrdfRS/PSO not found")
		return nil
	}

	bundle, err := s.allocator.CreateRtvSrvBundle("iblBrdf", metadata.ResourceDesc{
		Dimension:        metadata.ResourceDimensionTexture2D,
		Width:            IBLMapSize,
		Height:           IBLMapSize,
		DepthOrArraySize: 1,
		MipLevels:        1,
		Format:           metadata.FormatR16G16Float,
		SampleDesc:       metadata.SampleDesc{Count: 1},
	}, metadata.RenderTargetViewDesc{
		Format:        metadata.FormatR16G16Float,
		ViewDimension: metadata.RTVDimensionTexture2D,
	}, false)
	if err != nil {
		return err
	}
	s.registerPersistent(bundle)
	s.BRDF = bundle

	return s.runStage(binder, rs, pso, "IBL BRDF lookup", func(cl renderer.CommandList) error {
		cl.OMSetRenderTargets([]metadata.CPUDescriptorHandle{bundle.RTV}, &s.dsv)
		cl.DrawInstanced(3, 1, 0, 0)
		cl.ResourceBarrier(bundle.Texture, metadata.ResourceStateRenderTarget, metadata.ResourceStatePixelShaderResource)
		return nil
	})
}

// buildIBLTable copies the three IBL views next to each other in the
// shader-visible heap.
func (s *Sky) buildIBLTable() error {
	var views []metadata.CPUDescriptorHandle
	irradiance, err := s.store.GetRenderTarget("irradianceMap0")
	if err != nil {
		return err
	}
	specular, err := s.store.GetRenderTarget("specularConvolution_m0_f0")
	if err != nil {
		return err
	}
	for _, b := range []*metadata.RtvSrvBundle{irradiance, specular, s.BRDF} {
		if b == nil {
			views = append(views, metadata.CPUDescriptorHandle{})
			continue
		}
		views = append(views, b.SRVCPU)
	}
	for i, v := range views {
		h, err := s.allocator.CopyToDescriptorHeap(v, 1)
		if err != nil {
			return err
		}
		if i == 0 {
			s.iblTable = h
		}
	}
	return nil
}

// Draw renders the sky mesh into the currently bound targets.
func (s *Sky) Draw(binder *renderer.BindState, camera *components.Camera) error {
	if s.mesh == nil || s.rootSignature == nil || s.pipelineState == nil {
		if !s.warnedMissing {
			core.LogWarn("sky %q is incomplete and will not be drawn", s.Name)
			s.warnedMissing = true
		}
		return nil
	}
	cl := s.allocator.CommandList()
	cl.BeginEvent("Sky")
	defer cl.EndEvent()
	binder.BindRootSignature(s.rootSignature)
	binder.BindPipelineState(s.pipelineState)

	cb, err := s.allocator.FillNextConstantBuffer(metadata.EncodeConstants(metadata.SkyVSData{
		View:       camera.GetView(),
		Projection: camera.GetProjection(),
	}))
	if err != nil {
		return err
	}
	cl.SetGraphicsRootDescriptorTable(0, cb)
	cl.SetGraphicsRootDescriptorTable(1, s.cubeMapTable)
	cl.IASetPrimitiveTopology(metadata.PrimitiveTopologyTriangleList)
	cl.IASetVertexBuffers(s.mesh.VertexBuffer)
	cl.IASetIndexBuffer(s.mesh.IndexBuffer)
	cl.DrawIndexedInstanced(s.mesh.IndexCount, 1, 0, 0, 0)
	return nil
}
