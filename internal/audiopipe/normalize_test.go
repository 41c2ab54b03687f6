package audiopipe_test

import (
	"testing"

	"github.com/MrWong99/voxsat/internal/audiopipe"
)

// pipelineChunkBytes mirrors the fixed chunk size: 1024 s16le mono samples.
const pipelineChunkBytes = 2048

// monoPCM builds s16le mono PCM with every sample set to value.
func monoPCM(samples int, value int16) []byte {
	out := make([]byte, samples*2)
	for i := 0; i < samples; i++ {
		out[i*2] = byte(value)
		out[i*2+1] = byte(value >> 8)
	}
	return out
}

// stereoPCM builds s16le stereo PCM with fixed left/right sample values.
func stereoPCM(frames int, left, right int16) []byte {
	out := make([]byte, frames*4)
	for i := 0; i < frames; i++ {
		out[i*4] = byte(left)
		out[i*4+1] = byte(left >> 8)
		out[i*4+2] = byte(right)
		out[i*4+3] = byte(right >> 8)
	}
	return out
}

func drainChunks(q *audiopipe.Queue) []audiopipe.Chunk {
	var chunks []audiopipe.Chunk
	for {
		c, ok := q.Pop()
		if !ok {
			return chunks
		}
		chunks = append(chunks, c)
	}
}

func sampleAt(chunk audiopipe.Chunk, i int) int16 {
	return int16(chunk[i*2]) | int16(chunk[i*2+1])<<8
}

func TestNormalizer_PassthroughChunking(t *testing.T) {
	t.Parallel()
	q := audiopipe.NewQueue(8)
	n := audiopipe.NewNormalizer(q, 16000, 1)

	if _, err := n.Write(monoPCM(2048, 1234)); err != nil {
		t.Fatalf("Write: %v", err)
	}

	chunks := drainChunks(q)
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}
	for _, c := range chunks {
		if len(c) != pipelineChunkBytes {
			t.Fatalf("chunk size = %d, want %d", len(c), pipelineChunkBytes)
		}
		if sampleAt(c, 0) != 1234 || sampleAt(c, 1023) != 1234 {
			t.Fatal("sample values not preserved")
		}
	}
}

func TestNormalizer_PartialWritesCarryOver(t *testing.T) {
	t.Parallel()
	q := audiopipe.NewQueue(8)
	n := audiopipe.NewNormalizer(q, 16000, 1)

	pcm := monoPCM(1024, 7)
	// Split across odd boundaries so sample frames straddle writes.
	for _, cut := range []int{1, 500, 1001} {
		if _, err := n.Write(pcm[:cut]); err != nil {
			t.Fatalf("Write: %v", err)
		}
		pcm = pcm[cut:]
	}
	if len(drainChunks(q)) != 0 {
		t.Fatal("no chunk expected before a full chunk accumulates")
	}

	if _, err := n.Write(pcm); err != nil {
		t.Fatalf("Write: %v", err)
	}
	chunks := drainChunks(q)
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	if sampleAt(chunks[0], 512) != 7 {
		t.Fatal("sample values not preserved across split writes")
	}
}

func TestNormalizer_StereoDownmix(t *testing.T) {
	t.Parallel()
	q := audiopipe.NewQueue(8)
	n := audiopipe.NewNormalizer(q, 16000, 2)

	if _, err := n.Write(stereoPCM(1024, 100, 200)); err != nil {
		t.Fatalf("Write: %v", err)
	}

	chunks := drainChunks(q)
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	if got := sampleAt(chunks[0], 0); got != 150 {
		t.Fatalf("downmixed sample = %d, want 150", got)
	}
}

func TestNormalizer_Resamples48kTo16k(t *testing.T) {
	t.Parallel()
	q := audiopipe.NewQueue(8)
	n := audiopipe.NewNormalizer(q, 48000, 1)

	// 3072 source samples at 48 kHz shrink to 1024 at 16 kHz: one chunk.
	if _, err := n.Write(monoPCM(3072, 1000)); err != nil {
		t.Fatalf("Write: %v", err)
	}

	chunks := drainChunks(q)
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	// Interpolating between equal samples keeps the value.
	if got := sampleAt(chunks[0], 100); got != 1000 {
		t.Fatalf("resampled sample = %d, want 1000", got)
	}
}
