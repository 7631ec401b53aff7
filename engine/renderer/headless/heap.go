package headless

import (
	"fmt"

	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
)

const descriptorIncrement uint32 = 32

type descriptorKind uint8

const (
	descriptorNull descriptorKind = iota
	descriptorSRV
	descriptorRTV
	descriptorDSV
	descriptorCBV
)

type descriptor struct {
	kind     descriptorKind
	resource *metadata.Resource
	offset   uint64
	size     uint64
	// recyclable shader-visible slots are owned by one bundle view and
	// return to the free list when its texture is released.
	recyclable bool
}

// descriptorHeap hands out descriptors linearly. Shader-visible heaps also
// expose GPU handles for every slot; there only recyclable descriptors reuse
// freed slots, so table copies stay contiguous.
type descriptorHeap struct {
	name      string
	cpuBase   uint64
	gpuBase   uint64
	capacity  uint32
	next      uint32
	contents  []descriptor
	free      []uint32
	shaderVis bool
}

func newDescriptorHeap(name string, index uint64, capacity uint32, shaderVisible bool) *descriptorHeap {
	h := &descriptorHeap{
		name:      name,
		cpuBase:   index << 32,
		capacity:  capacity,
		contents:  make([]descriptor, capacity),
		shaderVis: shaderVisible,
	}
	if shaderVisible {
		h.gpuBase = (index | 0x100) << 32
	}
	return h
}

func (h *descriptorHeap) allocate(d descriptor) (metadata.CPUDescriptorHandle, error) {
	if n := len(h.free); n > 0 && (!h.shaderVis || d.recyclable) {
		i := h.free[n-1]
		h.free = h.free[:n-1]
		h.contents[i] = d
		return h.cpuHandle(i), nil
	}
	if h.next >= h.capacity {
		return metadata.CPUDescriptorHandle{}, fmt.Errorf("%w: %s holds %d descriptors", core.ErrDescriptorHeapFull, h.name, h.capacity)
	}
	i := h.next
	h.next++
	h.contents[i] = d
	return h.cpuHandle(i), nil
}

func (h *descriptorHeap) cpuHandle(i uint32) metadata.CPUDescriptorHandle {
	return metadata.CPUDescriptorHandle{Ptr: h.cpuBase + uint64(i)*uint64(descriptorIncrement)}
}

func (h *descriptorHeap) gpuHandle(i uint32) metadata.GPUDescriptorHandle {
	return metadata.GPUDescriptorHandle{Ptr: h.gpuBase + uint64(i)*uint64(descriptorIncrement)}
}

// index resolves a CPU handle of this heap to its slot.
func (h *descriptorHeap) index(handle metadata.CPUDescriptorHandle) (uint32, bool) {
	if handle.Ptr < h.cpuBase {
		return 0, false
	}
	off := handle.Ptr - h.cpuBase
	if off%uint64(descriptorIncrement) != 0 {
		return 0, false
	}
	i := off / uint64(descriptorIncrement)
	if i >= uint64(h.next) {
		return 0, false
	}
	return uint32(i), true
}

func (h *descriptorHeap) lookup(handle metadata.CPUDescriptorHandle) (descriptor, bool) {
	i, ok := h.index(handle)
	if !ok {
		return descriptor{}, false
	}
	return h.contents[i], true
}

// releaseResource frees every descriptor viewing res. In shader-visible
// heaps table copies are left in place.
func (h *descriptorHeap) releaseResource(res *metadata.Resource) {
	for i := uint32(0); i < h.next; i++ {
		d := h.contents[i]
		if d.resource == res && (!h.shaderVis || d.recyclable) {
			h.contents[i] = descriptor{}
			h.free = append(h.free, i)
		}
	}
}
