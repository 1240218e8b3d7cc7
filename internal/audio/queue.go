// SPDX-License-Identifier: MIT
package audio

import (
	"sync"
	"sync/atomic"
)

// ChunkQueue is the single-producer/single-consumer conduit between the
// PortAudio callback and the processing loop. The producer side never blocks:
// when the queue is full the oldest queued chunk is discarded and counted.
// Chunks are observed by the consumer in exactly the order they were pushed.
type ChunkQueue struct {
	ch      chan []float32
	pool    sync.Pool
	dropped atomic.Uint64
}

// NewChunkQueue creates a queue holding at most capacity chunks. chunkHint
// sizes the pooled buffers to the expected hardware callback length so the
// push path stops growing buffers once it reaches steady state.
func NewChunkQueue(capacity, chunkHint int) *ChunkQueue {
	if capacity < 1 {
		capacity = 1
	}
	if chunkHint < 1 {
		chunkHint = 512
	}
	q := &ChunkQueue{
		ch: make(chan []float32, capacity),
	}
	q.pool.New = func() any {
		return make([]float32, 0, chunkHint)
	}
	return q
}

// Push copies the chunk into a pooled buffer and enqueues it.
// Called from the audio callback: it must complete quickly and never block.
// On overflow the oldest chunk is dropped first; if the queue is still full
// (consumer raced a slot back in), the new chunk is dropped instead.
func (q *ChunkQueue) Push(in []float32) {
	buf := q.pool.Get().([]float32)[:0]
	buf = append(buf, in...)

	select {
	case q.ch <- buf:
		return
	default:
	}

	select {
	case old := <-q.ch:
		q.dropped.Add(1)
		q.pool.Put(old) //nolint:staticcheck // slice pooling is intentional here
	default:
	}

	select {
	case q.ch <- buf:
	default:
		q.dropped.Add(1)
		q.pool.Put(buf) //nolint:staticcheck
	}
}

// Drain delivers every currently queued chunk to fn in arrival order and
// returns the number delivered. It never blocks: if the queue is empty it
// returns immediately. The chunk slice is only valid for the duration of the
// callback; its backing buffer is recycled afterwards.
func (q *ChunkQueue) Drain(fn func(chunk []float32)) int {
	n := 0
	for {
		select {
		case buf := <-q.ch:
			fn(buf)
			q.pool.Put(buf) //nolint:staticcheck
			n++
		default:
			return n
		}
	}
}

// Len returns the number of chunks currently queued.
func (q *ChunkQueue) Len() int {
	return len(q.ch)
}

// Dropped returns the total number of chunks discarded due to overflow.
func (q *ChunkQueue) Dropped() uint64 {
	return q.dropped.Load()
}
