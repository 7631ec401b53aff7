package headless

import (
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
)

// Command is one recorded call. Args keep the values the call was made with.
type Command struct {
	Op   string
	Args []any
}

// CommandList records every call instead of sending it to a device.
type CommandList struct {
	commands []Command
}

func (cl *CommandList) record(op string, args ...any) {
	cl.commands = append(cl.commands, Command{Op: op, Args: args})
}

// Commands returns the calls recorded since the last reset.
func (cl *CommandList) Commands() []Command {
	return cl.commands
}

func (cl *CommandList) reset() []Command {
	recorded := cl.commands
	cl.commands = nil
	return recorded
}

func (cl *CommandList) ResourceBarrier(res *metadata.Resource, before, after metadata.ResourceState) {
	if res != nil {
		res.State = after
	}
	cl.record("ResourceBarrier", res, before, after)
}

func (cl *CommandList) ClearRenderTargetView(rtv metadata.CPUDescriptorHandle, color [4]float32) {
	cl.record("ClearRenderTargetView", rtv, color)
}

func (cl *CommandList) ClearDepthStencilView(dsv metadata.CPUDescriptorHandle, depth float32, stencil uint8) {
	cl.record("ClearDepthStencilView", dsv, depth, stencil)
}

func (cl *CommandList) OMSetRenderTargets(rtvs []metadata.CPUDescriptorHandle, dsv *metadata.CPUDescriptorHandle) {
	targets := append([]metadata.CPUDescriptorHandle(nil), rtvs...)
	var depth metadata.CPUDescriptorHandle
	if dsv != nil {
		depth = *dsv
	}
	cl.record("OMSetRenderTargets", targets, depth)
}

func (cl *CommandList) RSSetViewports(vp metadata.Viewport) {
	cl.record("RSSetViewports", vp)
}

func (cl *CommandList) RSSetScissorRects(rect metadata.Rect) {
	cl.record("RSSetScissorRects", rect)
}

func (cl *CommandList) IASetPrimitiveTopology(topology metadata.PrimitiveTopology) {
	cl.record("IASetPrimitiveTopology", topology)
}

func (cl *CommandList) IASetVertexBuffers(view metadata.VertexBufferView) {
	cl.record("IASetVertexBuffers", view)
}

func (cl *CommandList) IASetIndexBuffer(view metadata.IndexBufferView) {
	cl.record("IASetIndexBuffer", view)
}

func (cl *CommandList) SetDescriptorHeaps() {
	cl.record("SetDescriptorHeaps")
}

func (cl *CommandList) SetGraphicsRootSignature(rs *metadata.RootSignature) {
	cl.record("SetGraphicsRootSignature", rs)
}

func (cl *CommandList) SetPipelineState(pso *metadata.PipelineState) {
	cl.record("SetPipelineState", pso)
}

func (cl *CommandList) SetGraphicsRootDescriptorTable(index uint32, table metadata.GPUDescriptorHandle) {
	cl.record("SetGraphicsRootDescriptorTable", index, table)
}

func (cl *CommandList) DrawInstanced(vertexCount, instanceCount, startVertex, startInstance uint32) {
	cl.record("DrawInstanced", vertexCount, instanceCount, startVertex, startInstance)
}

func (cl *CommandList) DrawIndexedInstanced(indexCount, instanceCount, startIndex uint32, baseVertex int32, startInstance uint32) {
	cl.record("DrawIndexedInstanced", indexCount, instanceCount, startIndex, baseVertex, startInstance)
}

func (cl *CommandList) BeginEvent(name string) {
	cl.record("BeginEvent", name)
}

func (cl *CommandList) EndEvent() {
	cl.record("EndEvent")
}

// Ops lists the operation names of commands, in order.
func Ops(commands []Command) []string {
	ops := make([]string, len(commands))
	for i, c := range commands {
		ops[i] = c.Op
	}
	return ops
}
