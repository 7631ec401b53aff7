package metadata

// CPUDescriptorHandle addresses a descriptor in a CPU-visible heap. The zero
// value is the null descriptor.
type CPUDescriptorHandle struct {
	Ptr uint64
}

func (h CPUDescriptorHandle) IsNull() bool {
	return h.Ptr == 0
}

// Offset moves the handle by n descriptors of the given increment size.
func (h CPUDescriptorHandle) Offset(n int, increment uint32) CPUDescriptorHandle {
	return CPUDescriptorHandle{Ptr: uint64(int64(h.Ptr) + int64(n)*int64(increment))}
}

// GPUDescriptorHandle addresses a descriptor in a shader-visible heap.
type GPUDescriptorHandle struct {
	Ptr uint64
}

func (h GPUDescriptorHandle) IsNull() bool {
	return h.Ptr == 0
}

func (h GPUDescriptorHandle) Offset(n int, increment uint32) GPUDescriptorHandle {
	return GPUDescriptorHandle{Ptr: uint64(int64(h.Ptr) + int64(n)*int64(increment))}
}
