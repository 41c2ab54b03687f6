package wakeword

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
)

// Compile-time interface assertion.
var _ Model = (*ExternalModel)(nil)

// ExternalModel runs wake word inference in a helper process. The model math
// itself stays out of this process: chunks go to the helper's stdin as
// length-prefixed frames (4-byte big-endian length + PCM payload), and the
// helper answers one verdict line per chunk on stdout, "1" for a completed
// match and "0" otherwise.
//
// A dead or misbehaving helper degrades to never-matching; the satellite
// keeps running and logs the failure once.
type ExternalModel struct {
	name string
	cmd  *exec.Cmd

	mu     sync.Mutex
	stdin  io.Writer
	out    *bufio.Reader
	broken bool
}

// NewExternalModel launches the helper command and returns the model once
// the process is started.
func NewExternalModel(name string, command []string) (*ExternalModel, error) {
	if len(command) == 0 {
		return nil, fmt.Errorf("wakeword: external model %q: command must be set", name)
	}
	cmd := exec.Command(command[0], command[1:]...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("wakeword: external model %q: stdin pipe: %w", name, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("wakeword: external model %q: stdout pipe: %w", name, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("wakeword: external model %q: start %q: %w", name, command[0], err)
	}
	slog.Info("wake word helper started", "model", name, "command", command[0], "pid", cmd.Process.Pid)

	m := newExternalModel(name, stdin, stdout)
	m.cmd = cmd
	return m, nil
}

// newExternalModel wires the protocol over arbitrary pipes.
func newExternalModel(name string, stdin io.Writer, stdout io.Reader) *ExternalModel {
	return &ExternalModel{
		name:  name,
		stdin: stdin,
		out:   bufio.NewReader(stdout),
	}
}

// Score sends one chunk to the helper and reads its verdict. A broken helper
// always scores false.
func (m *ExternalModel) Score(chunk []byte) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.broken {
		return false
	}

	var hdr [4]byte
	binary.BigEndian.PutUint32(hdr[:], uint32(len(chunk)))
	if _, err := m.stdin.Write(hdr[:]); err != nil {
		m.fail(err)
		return false
	}
	if _, err := m.stdin.Write(chunk); err != nil {
		m.fail(err)
		return false
	}

	line, err := m.out.ReadString('\n')
	if err != nil {
		m.fail(err)
		return false
	}
	return strings.TrimSpace(line) == "1"
}

// fail marks the helper unusable. Called with the lock held.
func (m *ExternalModel) fail(err error) {
	m.broken = true
	slog.Error("wake word helper failed, model disabled", "model", m.name, "error", err)
}

// Close terminates the helper process.
func (m *ExternalModel) Close() error {
	m.mu.Lock()
	m.broken = true
	m.mu.Unlock()

	if m.cmd == nil || m.cmd.Process == nil {
		return nil
	}
	if c, ok := m.stdin.(io.Closer); ok {
		_ = c.Close()
	}
	_ = m.cmd.Process.Kill()
	return m.cmd.Wait()
}
