package renderer

import "github.com/spaghettifunk/prism/engine/renderer/metadata"

// BindState forwards root signature and pipeline state binds to a command
// list, dropping binds of the object that is already bound.
type BindState struct {
	commandList   CommandList
	rootSignature *metadata.RootSignature
	pipelineState *metadata.PipelineState

	Skipped int
}

func NewBindState(cl CommandList) *BindState {
	return &BindState{commandList: cl}
}

func (b *BindState) BindRootSignature(rs *metadata.RootSignature) {
	if rs == nil {
		return
	}
	if rs == b.rootSignature {
		b.Skipped++
		return
	}
	b.commandList.SetGraphicsRootSignature(rs)
	b.rootSignature = rs
}

func (b *BindState) BindPipelineState(pso *metadata.PipelineState) {
	if pso == nil {
		return
	}
	if pso == b.pipelineState {
		b.Skipped++
		return
	}
	b.commandList.SetPipelineState(pso)
	b.pipelineState = pso
}

// Invalidate forgets the bound objects. Call it whenever the command list
// was submitted or reset, since the bindings do not survive that.
func (b *BindState) Invalidate() {
	b.rootSignature = nil
	b.pipelineState = nil
}
