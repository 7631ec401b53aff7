package core

import (
	"errors"
)

var (
	ErrSwapchainBooting       = errors.New("swapchain resized or recreated, booting")
	ErrMalformedDescriptor    = errors.New("malformed asset descriptor")
	ErrCyclicReference        = errors.New("cyclic asset reference")
	ErrConstantBufferRingFull = errors.New("constant buffer ring exhausted")
	ErrDescriptorHeapFull     = errors.New("descriptor heap exhausted")
	ErrInvalidRootSignature   = errors.New("invalid root signature")
	ErrUnknown                = errors.New("unknown")
)
