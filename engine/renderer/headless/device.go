package headless

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
)

// Device validates and "compiles" pipeline objects the way a driver would
// reject them, without creating anything on a GPU.
type Device struct {
	rootSignatures int
	pipelines      int
}

func (d *Device) CreateRootSignature(name string, desc *metadata.RootSignatureDesc) (*metadata.RootSignature, error) {
	blob, err := serializeRootSignature(desc)
	if err != nil {
		err = fmt.Errorf("failed to serialize root signature %s: %w", name, err)
		core.LogError(err.Error())
		return nil, err
	}
	d.rootSignatures++
	return &metadata.RootSignature{
		Name: name,
		Desc: *desc,
		Blob: blob,
	}, nil
}

func serializeRootSignature(desc *metadata.RootSignatureDesc) ([]byte, error) {
	var buf bytes.Buffer
	w := func(v any) { _ = binary.Write(&buf, binary.LittleEndian, v) }

	w(uint32(len(desc.Parameters)))
	w(uint32(len(desc.StaticSamplers)))
	w(uint32(desc.Flags))

	for i, p := range desc.Parameters {
		if p.ParameterType > metadata.RootParameterTypeUAV {
			return nil, fmt.Errorf("%w: parameter %d has type %d", core.ErrInvalidRootSignature, i, p.ParameterType)
		}
		if p.ShaderVisibility > metadata.ShaderVisibilityPixel {
			return nil, fmt.Errorf("%w: parameter %d has visibility %d", core.ErrInvalidRootSignature, i, p.ShaderVisibility)
		}
		if p.ParameterType == metadata.RootParameterTypeDescriptorTable && len(p.Ranges) == 0 {
			return nil, fmt.Errorf("%w: descriptor table %d has no ranges", core.ErrInvalidRootSignature, i)
		}
		samplers := 0
		for j, r := range p.Ranges {
			if r.Type > metadata.DescriptorRangeTypeSampler {
				return nil, fmt.Errorf("%w: parameter %d range %d has type %d", core.ErrInvalidRootSignature, i, j, r.Type)
			}
			if r.NumDescriptors == 0 {
				return nil, fmt.Errorf("%w: parameter %d range %d is empty", core.ErrInvalidRootSignature, i, j)
			}
			if r.Type == metadata.DescriptorRangeTypeSampler {
				samplers++
			}
		}
		if samplers != 0 && samplers != len(p.Ranges) {
			return nil, fmt.Errorf("%w: parameter %d mixes sampler and view ranges", core.ErrInvalidRootSignature, i)
		}
		w(uint32(p.ParameterType))
		w(uint32(p.ShaderVisibility))
		w(uint32(len(p.Ranges)))
		for _, r := range p.Ranges {
			w(r)
		}
	}

	registers := map[[2]uint32]bool{}
	for i, s := range desc.StaticSamplers {
		key := [2]uint32{s.ShaderRegister, s.RegisterSpace}
		if registers[key] {
			return nil, fmt.Errorf("%w: static sampler %d reuses register s%d", core.ErrInvalidRootSignature, i, s.ShaderRegister)
		}
		registers[key] = true
		w(s)
	}
	return buf.Bytes(), nil
}

func (d *Device) CreateGraphicsPipelineState(name string, desc *metadata.PipelineStateDesc) (*metadata.PipelineState, error) {
	if desc.NumRenderTargets > metadata.MaxRenderTargets {
		err := fmt.Errorf("pipeline %s writes %d render targets, at most %d supported", name, desc.NumRenderTargets, metadata.MaxRenderTargets)
		core.LogError(err.Error())
		return nil, err
	}
	if desc.PrimitiveTopologyType == metadata.PrimitiveTopologyTypeUndefined {
		err := fmt.Errorf("pipeline %s has no primitive topology", name)
		core.LogError(err.Error())
		return nil, err
	}
	d.pipelines++
	return &metadata.PipelineState{
		Name: name,
		Desc: *desc,
	}, nil
}
