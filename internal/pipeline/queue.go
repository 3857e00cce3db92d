package pipeline

import (
	"context"
	"errors"
	"time"
)

var errQueueFull = errors.New("chunk queue full")

// chunkQueue is the bounded hand-off between the generator and the frame
// assembler: blocking put with a timeout, non-blocking get.
type chunkQueue struct {
	ch chan []int16
}

func newChunkQueue(capacity int) *chunkQueue {
	return &chunkQueue{ch: make(chan []int16, capacity)}
}

// put enqueues a chunk, waiting up to timeout for space.
func (q *chunkQueue) put(ctx context.Context, chunk []int16, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case q.ch <- chunk:
		return nil
	case <-timer.C:
		return errQueueFull
	case <-ctx.Done():
		return ctx.Err()
	}
}

// tryGet dequeues a chunk without blocking.
func (q *chunkQueue) tryGet() ([]int16, bool) {
	select {
	case chunk := <-q.ch:
		return chunk, true
	default:
		return nil, false
	}
}

func (q *chunkQueue) depth() int {
	return len(q.ch)
}
