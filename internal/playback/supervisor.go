package playback

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// Default supervision parameters.
const (
	defaultBackoff    = 1 * time.Second
	defaultMaxBackoff = 30 * time.Second
	dialRetryInterval = 100 * time.Millisecond
	dialTimeout       = 5 * time.Second
)

// SupervisorConfig configures a [Supervisor].
type SupervisorConfig struct {
	// Player is attached to each freshly started process and detached when
	// it exits.
	Player *MpvPlayer

	// Name distinguishes the instance in logs and socket paths.
	Name string

	// Binary is the mpv executable. Defaults to "mpv".
	Binary string

	// AudioDevice selects the output device, passed through to mpv. Empty
	// uses the system default.
	AudioDevice string

	// Backoff is the initial delay before a restart. Doubles per consecutive
	// failure up to MaxBackoff. Defaults to 1s if zero.
	Backoff time.Duration

	// MaxBackoff is the upper limit on the restart delay. Defaults to 30s
	// if zero.
	MaxBackoff time.Duration
}

// Supervisor owns one mpv process: it launches it with an IPC socket,
// attaches the player, and relaunches with exponential backoff whenever the
// process dies. A process that stays up long enough resets the backoff.
type Supervisor struct {
	cfg SupervisorConfig
}

// NewSupervisor creates a Supervisor. Call [Supervisor.Run] to start the
// process.
func NewSupervisor(cfg SupervisorConfig) (*Supervisor, error) {
	if cfg.Player == nil {
		return nil, fmt.Errorf("playback: supervisor needs a player")
	}
	if cfg.Name == "" {
		return nil, fmt.Errorf("playback: supervisor needs a name")
	}
	if cfg.Binary == "" {
		cfg.Binary = "mpv"
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = defaultBackoff
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = defaultMaxBackoff
	}
	return &Supervisor{cfg: cfg}, nil
}

// Run keeps the mpv process alive until ctx is cancelled. It returns nil on
// cancellation and an error only when the process cannot be started at all
// (binary missing).
func (s *Supervisor) Run(ctx context.Context) error {
	backoff := s.cfg.Backoff

	for {
		started := time.Now()
		err := s.runOnce(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if _, missing := err.(*exec.Error); missing {
			return fmt.Errorf("playback: start %s: %w", s.cfg.Binary, err)
		}

		// A process that survived a while earns a fresh backoff.
		if time.Since(started) > s.cfg.MaxBackoff {
			backoff = s.cfg.Backoff
		}
		slog.Warn("player process exited, restarting",
			"player", s.cfg.Name,
			"error", err,
			"backoff", backoff,
		)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > s.cfg.MaxBackoff {
			backoff = s.cfg.MaxBackoff
		}
	}
}

// runOnce starts one process, attaches the player, and blocks until the
// process exits or ctx is cancelled.
func (s *Supervisor) runOnce(ctx context.Context) error {
	socket := filepath.Join(os.TempDir(), fmt.Sprintf("voxsat-%s-%d.sock", s.cfg.Name, os.Getpid()))
	_ = os.Remove(socket)

	args := []string{
		"--idle=yes",
		"--no-video",
		"--no-terminal",
		"--input-ipc-server=" + socket,
	}
	if s.cfg.AudioDevice != "" {
		args = append(args, "--audio-device="+s.cfg.AudioDevice)
	}

	cmd := exec.CommandContext(ctx, s.cfg.Binary, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	defer func() {
		s.cfg.Player.Detach()
		_ = os.Remove(socket)
	}()

	conn, err := dialWithRetry(ctx, socket)
	if err != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return fmt.Errorf("dial ipc socket: %w", err)
	}
	s.cfg.Player.Attach(conn)
	slog.Info("player process started", "player", s.cfg.Name, "pid", cmd.Process.Pid)

	return cmd.Wait()
}

// dialWithRetry polls the IPC socket until mpv has created it.
func dialWithRetry(ctx context.Context, socket string) (net.Conn, error) {
	deadline := time.Now().Add(dialTimeout)
	for {
		conn, err := net.Dial("unix", socket)
		if err == nil {
			return conn, nil
		}
		if time.Now().After(deadline) {
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(dialRetryInterval):
		}
	}
}
