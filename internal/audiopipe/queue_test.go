package audiopipe_test

import (
	"bytes"
	"sync"
	"testing"

	"github.com/MrWong99/voxsat/internal/audiopipe"
)

func chunkOf(b byte) audiopipe.Chunk {
	return audiopipe.Chunk{b, b}
}

func TestPushPopOrder(t *testing.T) {
	t.Parallel()

	q := audiopipe.NewQueue(8)
	for i := byte(0); i < 5; i++ {
		q.Push(chunkOf(i))
	}

	for i := byte(0); i < 5; i++ {
		got, ok := q.Pop()
		if !ok {
			t.Fatalf("Pop %d: queue unexpectedly empty", i)
		}
		if !bytes.Equal(got, chunkOf(i)) {
			t.Fatalf("Pop %d: got %v, want %v", i, got, chunkOf(i))
		}
	}
	if _, ok := q.Pop(); ok {
		t.Fatal("Pop: expected empty queue")
	}
	if q.Dropped() != 0 {
		t.Fatalf("Dropped: got %d, want 0", q.Dropped())
	}
}

func TestDropOldestUnderBackpressure(t *testing.T) {
	t.Parallel()

	const capacity = 4
	const produced = 11

	q := audiopipe.NewQueue(capacity)
	for i := byte(0); i < produced; i++ {
		q.Push(chunkOf(i))
	}

	if got, want := q.Dropped(), uint64(produced-capacity); got != want {
		t.Fatalf("Dropped: got %d, want %d", got, want)
	}
	if got := q.Len(); got != capacity {
		t.Fatalf("Len: got %d, want %d", got, capacity)
	}

	// The newest `capacity` chunks must survive, in order.
	for i := byte(produced - capacity); i < produced; i++ {
		got, ok := q.Pop()
		if !ok {
			t.Fatalf("Pop: queue empty before chunk %d", i)
		}
		if !bytes.Equal(got, chunkOf(i)) {
			t.Fatalf("Pop: got %v, want %v", got, chunkOf(i))
		}
	}
}

func TestReadySignal(t *testing.T) {
	t.Parallel()

	q := audiopipe.NewQueue(4)

	select {
	case <-q.Ready():
		t.Fatal("Ready: signalled before any Push")
	default:
	}

	q.Push(chunkOf(1))
	select {
	case <-q.Ready():
	default:
		t.Fatal("Ready: no signal after Push")
	}
}

func TestPushAfterCloseDropped(t *testing.T) {
	t.Parallel()

	q := audiopipe.NewQueue(4)
	q.Push(chunkOf(1))
	q.Close()
	q.Push(chunkOf(2))

	got, ok := q.Pop()
	if !ok || !bytes.Equal(got, chunkOf(1)) {
		t.Fatalf("Pop: got (%v, %v), want buffered pre-close chunk", got, ok)
	}
	if _, ok := q.Pop(); ok {
		t.Fatal("Pop: post-close Push should have been dropped")
	}
}

func TestConcurrentProducerConsumer(t *testing.T) {
	t.Parallel()

	const total = 1000
	q := audiopipe.NewQueue(64)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < total; i++ {
			q.Push(audiopipe.Chunk{byte(i), byte(i >> 8)})
		}
		q.Close()
	}()

	var consumed uint64
	for range q.Ready() {
		for {
			if _, ok := q.Pop(); !ok {
				break
			}
			consumed++
		}
		if consumed+q.Dropped() >= total {
			break
		}
	}
	wg.Wait()

	// Drain anything pushed between the last Pop and Close.
	for {
		if _, ok := q.Pop(); !ok {
			break
		}
		consumed++
	}

	if consumed+q.Dropped() != total {
		t.Fatalf("consumed %d + dropped %d != produced %d", consumed, q.Dropped(), total)
	}
}
