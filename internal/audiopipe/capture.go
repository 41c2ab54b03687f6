package audiopipe

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"time"
)

// Default capture restart parameters.
const (
	captureBackoff    = 1 * time.Second
	captureMaxBackoff = 30 * time.Second
)

// CaptureConfig configures a [Capture].
type CaptureConfig struct {
	// Command is the capture process and its arguments. The process must
	// write raw PCM in the configured format to stdout.
	Command []string

	// SampleRate and Channels describe the PCM the command produces.
	SampleRate int
	Channels   int

	// Queue receives the normalized pipeline chunks.
	Queue *Queue

	// Backoff is the initial restart delay after the process exits. Doubles
	// per consecutive failure up to MaxBackoff. Defaults to 1s if zero.
	Backoff time.Duration

	// MaxBackoff is the upper limit on the restart delay. Defaults to 30s
	// if zero.
	MaxBackoff time.Duration
}

// Capture owns the microphone capture process: it launches the configured
// command, streams its stdout through a [Normalizer] into the queue, and
// relaunches with exponential backoff when the process dies.
type Capture struct {
	cfg CaptureConfig
}

// NewCapture creates a Capture. Call [Capture.Run] to start recording.
func NewCapture(cfg CaptureConfig) (*Capture, error) {
	if len(cfg.Command) == 0 {
		return nil, fmt.Errorf("audiopipe: capture command must be set")
	}
	if cfg.Queue == nil {
		return nil, fmt.Errorf("audiopipe: capture needs a queue")
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = SampleRate
	}
	if cfg.Channels <= 0 {
		cfg.Channels = Channels
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = captureBackoff
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = captureMaxBackoff
	}
	return &Capture{cfg: cfg}, nil
}

// Run keeps the capture process alive until ctx is cancelled. It returns nil
// on cancellation and an error only when the command cannot be started at
// all (binary missing).
func (c *Capture) Run(ctx context.Context) error {
	backoff := c.cfg.Backoff

	for {
		started := time.Now()
		err := c.runOnce(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if _, missing := err.(*exec.Error); missing {
			return fmt.Errorf("audiopipe: start capture %q: %w", c.cfg.Command[0], err)
		}

		// A process that survived a while earns a fresh backoff.
		if time.Since(started) > c.cfg.MaxBackoff {
			backoff = c.cfg.Backoff
		}
		slog.Warn("capture process exited, restarting",
			"command", c.cfg.Command[0],
			"error", err,
			"backoff", backoff,
		)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > c.cfg.MaxBackoff {
			backoff = c.cfg.MaxBackoff
		}
	}
}

// runOnce starts one capture process and pumps its stdout into the queue
// until it exits or ctx is cancelled.
func (c *Capture) runOnce(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, c.cfg.Command[0], c.cfg.Command[1:]...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return err
	}
	slog.Info("capture process started",
		"command", c.cfg.Command[0],
		"pid", cmd.Process.Pid,
		"sample_rate", c.cfg.SampleRate,
		"channels", c.cfg.Channels,
	)

	norm := NewNormalizer(c.cfg.Queue, c.cfg.SampleRate, c.cfg.Channels)
	_, copyErr := io.Copy(norm, stdout)
	waitErr := cmd.Wait()
	if waitErr != nil {
		return waitErr
	}
	if copyErr != nil {
		return fmt.Errorf("read capture stream: %w", copyErr)
	}
	return fmt.Errorf("capture stream ended")
}
