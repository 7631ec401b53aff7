package headless

import (
	"fmt"

	"github.com/spaghettifunk/prism/engine/renderer"
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
)

// SwapChain owns the back buffers and the main depth buffer.
type SwapChain struct {
	allocator   *Allocator
	bufferCount int
	targets     *metadata.FrameTargets
	presents    int
	lastVSync   bool
}

var _ renderer.SwapChain = (*SwapChain)(nil)

func NewSwapChain(allocator *Allocator, bufferCount int) (*SwapChain, error) {
	if bufferCount < 2 {
		return nil, fmt.Errorf("swap chain needs at least 2 buffers, got %d", bufferCount)
	}
	sc := &SwapChain{
		allocator:   allocator,
		bufferCount: bufferCount,
	}
	targets, err := sc.createTargets(allocator.Width(), allocator.Height())
	if err != nil {
		return nil, err
	}
	sc.targets = targets
	return sc, nil
}

func (sc *SwapChain) createTargets(width, height uint32) (*metadata.FrameTargets, error) {
	targets := &metadata.FrameTargets{
		Width:  width,
		Height: height,
	}
	for i := 0; i < sc.bufferCount; i++ {
		res, err := sc.allocator.CreateTexture(fmt.Sprintf("backBuffer%d", i), metadata.ResourceDesc{
			Dimension: metadata.ResourceDimensionTexture2D,
			Width:     uint64(width),
			Height:    height,
			Format:    metadata.FormatR8G8B8A8Unorm,
			Flags:     metadata.ResourceFlagAllowRenderTarget,
		})
		if err != nil {
			return nil, err
		}
		res.State = metadata.ResourceStatePresent
		rtv, err := sc.allocator.rtvHeap.allocate(descriptor{kind: descriptorRTV, resource: res})
		if err != nil {
			return nil, err
		}
		targets.BackBuffers = append(targets.BackBuffers, res)
		targets.RTVs = append(targets.RTVs, rtv)
	}
	depth, dsv, err := sc.allocator.CreateDepthBuffer("depthBuffer", width, height, metadata.FormatD24UnormS8Uint)
	if err != nil {
		return nil, err
	}
	targets.DepthBuffer = depth
	targets.DSV = dsv
	return targets, nil
}

func (sc *SwapChain) BufferCount() int {
	return sc.bufferCount
}

func (sc *SwapChain) Targets() *metadata.FrameTargets {
	return sc.targets
}

func (sc *SwapChain) Present(vsync bool) error {
	sc.presents++
	sc.lastVSync = vsync
	return nil
}

// Presents counts Present calls.
func (sc *SwapChain) Presents() int {
	return sc.presents
}

// Resize releases the current targets and creates new ones. Callers must
// have dropped every reference to the old back buffers.
func (sc *SwapChain) Resize(width, height uint32) (*metadata.FrameTargets, error) {
	if err := sc.allocator.WaitForGPU(); err != nil {
		return nil, err
	}
	if sc.targets != nil {
		for _, bb := range sc.targets.BackBuffers {
			sc.allocator.ReleaseResource(bb)
		}
		sc.allocator.ReleaseResource(sc.targets.DepthBuffer)
	}
	targets, err := sc.createTargets(width, height)
	if err != nil {
		return nil, err
	}
	sc.targets = targets
	return targets, nil
}
