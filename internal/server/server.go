package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/MrWong99/voxsat/internal/observe"
)

// Config configures a [Server].
type Config struct {
	// Addr is the TCP listen address, e.g. ":6053".
	Addr string

	// Session is the per-connection configuration handed to every accepted
	// session.
	Session SessionConfig
}

// Server accepts hub connections and runs at most one live session. A hub
// that reconnects while its previous connection lingers must not be locked
// out, so a newly accepted connection always replaces the current one.
type Server struct {
	cfg     Config
	metrics *observe.Metrics

	mu      sync.Mutex
	ln      net.Listener
	current *Session
}

// New creates a Server. Call [Server.Run] to start accepting.
func New(cfg Config) *Server {
	m := cfg.Session.Metrics
	if m == nil {
		m = observe.DefaultMetrics()
		cfg.Session.Metrics = m
	}
	return &Server{cfg: cfg, metrics: m}
}

// Addr returns the bound listen address, or nil before [Server.Run].
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Run listens on the configured address and serves connections until ctx is
// cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections from ln until ctx is cancelled. Each accepted
// connection becomes the live session; the previous one, if any, is closed
// first.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()

	stop := context.AfterFunc(ctx, func() {
		_ = ln.Close()
		s.mu.Lock()
		cur := s.current
		s.mu.Unlock()
		if cur != nil {
			_ = cur.Close()
		}
	})
	defer stop()

	slog.Info("listening for hub connections", "addr", ln.Addr())

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("server: accept: %w", err)
		}

		sess := NewSession(conn, s.cfg.Session)

		s.mu.Lock()
		prev := s.current
		s.current = sess
		s.mu.Unlock()

		if prev != nil {
			slog.Info("replacing live session", "old", prev.RemoteAddr(), "new", conn.RemoteAddr())
			_ = prev.Close()
		}

		s.metrics.ActiveSessions.Add(ctx, 1)
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer s.metrics.ActiveSessions.Add(context.Background(), -1)
			if err := sess.Run(ctx); err != nil {
				slog.Warn("session ended with error", "remote", conn.RemoteAddr(), "error", err)
			}
			s.mu.Lock()
			if s.current == sess {
				s.current = nil
			}
			s.mu.Unlock()
		}()
	}
}

// Current returns the live session, or nil when no hub is connected.
func (s *Server) Current() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}
