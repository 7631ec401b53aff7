package headless

import (
	"fmt"
)

// queue stands in for the GPU command queue. A submission completes once
// latency further submissions have been made, or when it is waited on.
type queue struct {
	latency   uint64
	submitted uint64
	completed uint64
	waits     int
}

func newQueue(latency uint32) *queue {
	return &queue{latency: uint64(latency)}
}

// signal submits work and returns the fence value marking its completion.
func (q *queue) signal() uint64 {
	q.submitted++
	if q.submitted > q.latency {
		q.retire(q.submitted - q.latency)
	}
	return q.submitted
}

func (q *queue) retire(value uint64) {
	if value > q.completed {
		q.completed = value
	}
}

func (q *queue) isComplete(value uint64) bool {
	return value <= q.completed
}

// wait blocks until value has completed.
func (q *queue) wait(value uint64) error {
	if value > q.submitted {
		return fmt.Errorf("fence value %d was never signaled (last %d)", value, q.submitted)
	}
	q.waits++
	q.retire(value)
	return nil
}

func (q *queue) waitIdle() {
	q.waits++
	q.retire(q.submitted)
}
