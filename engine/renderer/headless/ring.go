package headless

import (
	"fmt"
	"strings"

	"github.com/spaghettifunk/prism/engine/containers"
	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/renderer/metadata"
)

// RingPolicy decides what an allocation does when the ring space it needs
// still belongs to a submission the GPU has not finished.
type RingPolicy uint8

const (
	// RingPolicyBlock waits on the fence of the oldest submission.
	RingPolicyBlock RingPolicy = iota
	// RingPolicyReject fails with core.ErrConstantBufferRingFull.
	RingPolicyReject
)

func ParseRingPolicy(name string) (RingPolicy, error) {
	switch strings.ToLower(name) {
	case "block", "":
		return RingPolicyBlock, nil
	case "reject":
		return RingPolicyReject, nil
	default:
		return RingPolicyBlock, fmt.Errorf("unknown ring policy %q", name)
	}
}

type ringMarker struct {
	fence uint64
	end   uint64
}

// constantBufferRing is an upload buffer written front to back. Offsets
// are virtual and grow forever; the physical offset is offset % capacity.
// Everything before tail is free, everything between tail and head is in
// use by submitted or pending work.
type constantBufferRing struct {
	capacity uint64
	data     []byte
	head     uint64
	tail     uint64
	markers  *containers.RingQueue[ringMarker]
	policy   RingPolicy
	queue    *queue
}

func newConstantBufferRing(slots uint32, maxSubmissions int, policy RingPolicy, q *queue) *constantBufferRing {
	capacity := uint64(slots) * metadata.ConstantBufferAlignment
	return &constantBufferRing{
		capacity: capacity,
		data:     make([]byte, capacity),
		markers:  containers.NewRingQueue[ringMarker](maxSubmissions),
		policy:   policy,
		queue:    q,
	}
}

// allocate reserves an aligned region for size bytes and returns its physical offset.
func (r *constantBufferRing) allocate(size uint64) (uint64, error) {
	size = metadata.GetAligned(size, metadata.ConstantBufferAlignment)
	if size == 0 {
		size = metadata.ConstantBufferAlignment
	}
	if size > r.capacity {
		return 0, fmt.Errorf("%w: %d bytes requested, ring holds %d", core.ErrConstantBufferRingFull, size, r.capacity)
	}

	start := r.head
	if pos := start % r.capacity; pos+size > r.capacity {
		// never split a buffer across the end of the ring
		start += r.capacity - pos
	}
	end := start + size

	r.reclaim()
	for end-r.tail > r.capacity {
		m, err := r.markers.Peek()
		if err != nil {
			return 0, fmt.Errorf("%w: pending frame needs more than %d bytes", core.ErrConstantBufferRingFull, r.capacity)
		}
		if !r.queue.isComplete(m.fence) {
			if r.policy == RingPolicyReject {
				return 0, fmt.Errorf("%w: submission %d still in flight", core.ErrConstantBufferRingFull, m.fence)
			}
			if err := r.queue.wait(m.fence); err != nil {
				return 0, err
			}
		}
		_, _ = r.markers.Dequeue()
		r.tail = m.end
	}

	r.head = end
	return start % r.capacity, nil
}

// reclaim frees the space of every finished submission.
func (r *constantBufferRing) reclaim() {
	for {
		m, err := r.markers.Peek()
		if err != nil || !r.queue.isComplete(m.fence) {
			return
		}
		_, _ = r.markers.Dequeue()
		r.tail = m.end
	}
}

// submitted ties everything written so far to fence.
func (r *constantBufferRing) submitted(fence uint64) error {
	if r.markers.IsFull() {
		oldest, _ := r.markers.Dequeue()
		if err := r.queue.wait(oldest.fence); err != nil {
			return err
		}
		r.tail = oldest.end
	}
	return r.markers.Enqueue(ringMarker{fence: fence, end: r.head})
}

// drained is called once the queue is idle.
func (r *constantBufferRing) drained() {
	r.reclaim()
}

func (r *constantBufferRing) inUse() uint64 {
	return r.head - r.tail
}
