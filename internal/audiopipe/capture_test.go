package audiopipe_test

import (
	"context"
	"testing"
	"time"

	"github.com/MrWong99/voxsat/internal/audiopipe"
)

func TestNewCapture_Validation(t *testing.T) {
	t.Parallel()
	q := audiopipe.NewQueue(4)

	if _, err := audiopipe.NewCapture(audiopipe.CaptureConfig{Queue: q}); err == nil {
		t.Error("expected error for missing command")
	}
	if _, err := audiopipe.NewCapture(audiopipe.CaptureConfig{Command: []string{"arecord"}}); err == nil {
		t.Error("expected error for missing queue")
	}
}

func TestCapture_StreamsChunksFromProcess(t *testing.T) {
	t.Parallel()
	q := audiopipe.NewQueue(8)

	// Emit two chunks worth of silence, then linger so the process does not
	// restart during the test.
	capt, err := audiopipe.NewCapture(audiopipe.CaptureConfig{
		Command:    []string{"sh", "-c", "dd if=/dev/zero bs=2048 count=2 2>/dev/null; sleep 10"},
		SampleRate: 16000,
		Channels:   1,
		Queue:      q,
	})
	if err != nil {
		t.Fatalf("NewCapture: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- capt.Run(ctx) }()

	deadline := time.Now().Add(5 * time.Second)
	for q.Len() < 2 {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for captured chunks")
		}
		time.Sleep(10 * time.Millisecond)
	}

	chunk, ok := q.Pop()
	if !ok || len(chunk) != 2048 {
		t.Fatalf("chunk = %d bytes, want 2048", len(chunk))
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v after cancel, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestCapture_MissingBinaryFails(t *testing.T) {
	t.Parallel()
	q := audiopipe.NewQueue(4)

	capt, err := audiopipe.NewCapture(audiopipe.CaptureConfig{
		Command: []string{"voxsat-no-such-capture-binary"},
		Queue:   q,
	})
	if err != nil {
		t.Fatalf("NewCapture: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := capt.Run(ctx); err == nil {
		t.Fatal("expected error for missing capture binary, got nil")
	}
}
