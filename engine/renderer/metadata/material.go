package metadata

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// MaterialTextureSlots is the number of texture slots of a material.
const MaterialTextureSlots = 4

// DescriptorCopier copies CPU descriptors into the shader-visible heap.
type DescriptorCopier interface {
	CopyToDescriptorHeap(first CPUDescriptorHandle, count uint32) (GPUDescriptorHandle, error)
}

/**
 * @brief A surface description: pipeline, root signature, four texture
 * slots and the per-material constants. Texture slots are frozen once
 * Finalize has published them to the GPU heap.
 */
type Material struct {
	Name          string
	RootSignature *RootSignature
	PipelineState *PipelineState
	ColorTint     mgl32.Vec3
	UVScale       mgl32.Vec2
	UVOffset      mgl32.Vec2

	textures  [MaterialTextureSlots]CPUDescriptorHandle
	finalized bool
	gpuHandle GPUDescriptorHandle
}

func NewMaterial(name string, rs *RootSignature, pso *PipelineState, tint mgl32.Vec3, uvScale, uvOffset mgl32.Vec2) *Material {
	return &Material{
		Name:          name,
		RootSignature: rs,
		PipelineState: pso,
		ColorTint:     tint,
		UVScale:       uvScale,
		UVOffset:      uvOffset,
	}
}

// AddTexture stores srv in slot. It reports false, leaving the material
// untouched, when the slot is out of range or the material is finalized.
func (m *Material) AddTexture(srv CPUDescriptorHandle, slot int) bool {
	if m.finalized || slot < 0 || slot >= MaterialTextureSlots {
		return false
	}
	m.textures[slot] = srv
	return true
}

// Texture returns the descriptor in slot, null for empty or invalid slots.
func (m *Material) Texture(slot int) CPUDescriptorHandle {
	if slot < 0 || slot >= MaterialTextureSlots {
		return CPUDescriptorHandle{}
	}
	return m.textures[slot]
}

// Finalize copies the four slots into consecutive shader-visible descriptors
// and keeps the handle of the first one. Later calls do nothing.
func (m *Material) Finalize(heap DescriptorCopier) error {
	if m.finalized {
		return nil
	}
	var first GPUDescriptorHandle
	for i := 0; i < MaterialTextureSlots; i++ {
		h, err := heap.CopyToDescriptorHeap(m.textures[i], 1)
		if err != nil {
			return fmt.Errorf("failed to finalize material %s: %w", m.Name, err)
		}
		if i == 0 {
			first = h
		}
	}
	m.gpuHandle = first
	m.finalized = true
	return nil
}

func (m *Material) IsFinalized() bool {
	return m.finalized
}

// FinalGPUHandle is the descriptor table of the four slots, null before Finalize.
func (m *Material) FinalGPUHandle() GPUDescriptorHandle {
	return m.gpuHandle
}

// Category is the pass the material's pipeline belongs to.
func (m *Material) Category() PipelineCategory {
	if m == nil || m.PipelineState == nil {
		return PipelineCategoryNone
	}
	return m.PipelineState.Category
}
