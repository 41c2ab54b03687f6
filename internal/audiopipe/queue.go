// Package audiopipe bridges the continuously-producing audio capture context
// to the engine's consumer loop. It is the single cross-goroutine boundary of
// the voice pipeline: the capture goroutine pushes fixed-format chunks in,
// the engine loop drains them on its own schedule.
package audiopipe

import (
	"sync"
)

// Chunk is one fixed-format audio buffer: 16 kHz, mono, signed 16-bit
// little-endian samples. Ownership transfers to the queue on Push; a chunk is
// never mutated after handoff.
type Chunk []byte

// Queue is a bounded single-producer/single-consumer chunk queue. When the
// producer outruns the consumer the oldest chunks are discarded and counted —
// audio capture must never stall waiting on the network side.
//
// Push and the consumer-side methods may run on different goroutines; there
// is at most one of each.
type Queue struct {
	mu      sync.Mutex
	chunks  []Chunk // ring buffer
	head    int     // index of oldest chunk
	n       int     // number of buffered chunks
	dropped uint64

	ready  chan struct{} // capacity-1 wakeup for the consumer
	closed bool
}

// DefaultCapacity buffers ~2s of audio at 1024-sample chunks, enough to ride
// out a slow network flush without unbounded growth.
const DefaultCapacity = 32

// NewQueue creates a queue holding at most capacity chunks. A non-positive
// capacity falls back to [DefaultCapacity].
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Queue{
		chunks: make([]Chunk, capacity),
		ready:  make(chan struct{}, 1),
	}
}

// Push enqueues chunk, evicting the oldest buffered chunk if the queue is
// full. It never blocks. Pushes after Close are dropped silently.
func (q *Queue) Push(chunk Chunk) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	if q.n == len(q.chunks) {
		// Full: evict the oldest so capture keeps flowing.
		q.head = (q.head + 1) % len(q.chunks)
		q.n--
		q.dropped++
	}
	q.chunks[(q.head+q.n)%len(q.chunks)] = chunk
	q.n++
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// Pop removes and returns the oldest buffered chunk. ok is false when the
// queue is empty.
func (q *Queue) Pop() (chunk Chunk, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.n == 0 {
		return nil, false
	}
	chunk = q.chunks[q.head]
	q.chunks[q.head] = nil
	q.head = (q.head + 1) % len(q.chunks)
	q.n--
	return chunk, true
}

// Ready returns a channel that receives a token whenever new chunks may be
// available. The consumer selects on it alongside its other event sources and
// then drains with [Queue.Pop] until empty.
func (q *Queue) Ready() <-chan struct{} { return q.ready }

// Len returns the number of buffered chunks.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.n
}

// Dropped returns the total number of chunks evicted under backpressure.
func (q *Queue) Dropped() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}

// Close marks the queue closed; subsequent Pushes are dropped. Buffered
// chunks remain poppable so the consumer can drain cleanly.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	// Wake the consumer so it notices shutdown promptly.
	select {
	case q.ready <- struct{}{}:
	default:
	}
}
