package wakeword

import (
	"encoding/binary"
	"io"
	"testing"
)

// fakeHelper answers the length-prefixed chunk protocol with scripted
// verdicts.
func fakeHelper(t *testing.T, verdicts ...string) *ExternalModel {
	t.Helper()
	inR, inW := io.Pipe()
	outR, outW := io.Pipe()
	t.Cleanup(func() {
		inW.Close()
		outW.Close()
	})

	go func() {
		defer outW.Close()
		defer inR.Close()
		hdr := make([]byte, 4)
		for _, v := range verdicts {
			if _, err := io.ReadFull(inR, hdr); err != nil {
				return
			}
			body := make([]byte, binary.BigEndian.Uint32(hdr))
			if _, err := io.ReadFull(inR, body); err != nil {
				return
			}
			if _, err := io.WriteString(outW, v+"\n"); err != nil {
				return
			}
		}
	}()

	return newExternalModel("test", inW, outR)
}

func TestExternalModel_Score(t *testing.T) {
	t.Parallel()
	m := fakeHelper(t, "0", "1", "0")

	chunk := make([]byte, 2048)
	want := []bool{false, true, false}
	for i, w := range want {
		if got := m.Score(chunk); got != w {
			t.Errorf("Score #%d = %v, want %v", i, got, w)
		}
	}
}

func TestExternalModel_DeadHelperScoresFalse(t *testing.T) {
	t.Parallel()
	m := fakeHelper(t) // helper exits immediately

	chunk := make([]byte, 2048)
	if m.Score(chunk) {
		t.Error("Score = true against a dead helper")
	}
	// Once broken, it stays broken without touching the pipes again.
	if m.Score(chunk) {
		t.Error("Score = true on a broken model")
	}
}

func TestNewExternalModel_Validation(t *testing.T) {
	t.Parallel()
	if _, err := NewExternalModel("x", nil); err == nil {
		t.Error("expected error for empty command")
	}
	if _, err := NewExternalModel("x", []string{"voxsat-no-such-helper"}); err == nil {
		t.Error("expected error for missing helper binary")
	}
}
