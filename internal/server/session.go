// Package server implements the TCP transport: a listener that accepts hub
// connections and the per-connection session with its handshake state
// machine.
//
// A session moves through four states: awaiting hello, awaiting auth (only
// when a password is configured), ready, and closed. Keepalive pings and
// disconnect requests are answered by the session itself in any pre-closed
// state; every other message before ready is a protocol violation and closes
// the connection. Once ready, decoded messages are delivered to the
// configured [Handler] on the session's read goroutine.
package server

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/MrWong99/voxsat/internal/observe"
	"github.com/MrWong99/voxsat/internal/protocol"
	"github.com/MrWong99/voxsat/internal/protocol/frame"
)

// Protocol version advertised in the hello exchange.
const (
	apiVersionMajor = 1
	apiVersionMinor = 10
)

// Sentinel errors for session termination causes.
var (
	// ErrSessionClosed reports a send on a session that has already closed.
	ErrSessionClosed = errors.New("server: session closed")

	// ErrProtocolViolation reports a message that is not acceptable in the
	// session's current state.
	ErrProtocolViolation = errors.New("server: protocol violation")

	// ErrAuthentication reports a failed password check.
	ErrAuthentication = errors.New("server: authentication failed")
)

// State is the handshake progress of a session.
type State int

const (
	StateAwaitingHello State = iota
	StateAwaitingAuth
	StateReady
	StateClosed
)

// String returns the state name for logging.
func (s State) String() string {
	switch s {
	case StateAwaitingHello:
		return "awaiting_hello"
	case StateAwaitingAuth:
		return "awaiting_auth"
	case StateReady:
		return "ready"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Handler receives session lifecycle events and post-handshake messages.
// All callbacks run on the session's read goroutine; a slow handler stalls
// the connection's inbound processing.
type Handler interface {
	// OnReady fires once when the handshake completes.
	OnReady(s *Session)

	// OnMessage delivers a decoded post-handshake message.
	OnMessage(s *Session, msg protocol.Message)

	// OnClosed fires exactly once when the session ends. err is nil for a
	// clean disconnect, otherwise the cause.
	OnClosed(s *Session, err error)
}

// SessionConfig configures a [Session].
type SessionConfig struct {
	// Name is the device node name sent in the hello response.
	Name string

	// ServerInfo identifies the server implementation in the hello response.
	ServerInfo string

	// Password gates the connection when non-empty. The comparison is
	// constant-time.
	Password string

	// Handler receives lifecycle events and ready-state messages.
	Handler Handler

	// Metrics records frame and protocol-error counters. Defaults to
	// [observe.DefaultMetrics] when nil.
	Metrics *observe.Metrics
}

// Session is one hub connection. Send is safe for concurrent use; everything
// else belongs to the read goroutine started by [Session.Run].
type Session struct {
	cfg     SessionConfig
	conn    net.Conn
	metrics *observe.Metrics

	writeMu sync.Mutex

	mu           sync.Mutex
	state        State
	lastActivity time.Time

	closeOnce sync.Once
	closeErr  error
}

// NewSession wraps conn in a session. The connection is not read until
// [Session.Run] is called.
func NewSession(conn net.Conn, cfg SessionConfig) *Session {
	m := cfg.Metrics
	if m == nil {
		m = observe.DefaultMetrics()
	}
	return &Session{
		cfg:          cfg,
		conn:         conn,
		metrics:      m,
		state:        StateAwaitingHello,
		lastActivity: time.Now(),
	}
}

// RemoteAddr returns the peer address.
func (s *Session) RemoteAddr() net.Addr { return s.conn.RemoteAddr() }

// State returns the current handshake state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LastActivity returns the time the last inbound frame arrived.
func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

// Run reads and dispatches frames until the connection ends or ctx is
// cancelled. It always returns the session's close cause (nil for a clean
// disconnect) and guarantees the handler's OnClosed fired before returning.
func (s *Session) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		s.close(ctx.Err())
	})
	defer stop()

	var dec frame.Decoder
	buf := make([]byte, 4096)
	for {
		n, err := s.conn.Read(buf)
		if n > 0 {
			if err := s.drain(&dec, buf[:n]); err != nil {
				s.close(err)
				break
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = fmt.Errorf("%w: peer hung up", ErrSessionClosed)
			}
			s.close(err)
			break
		}
	}

	err := s.closeCause()
	if errors.Is(err, ErrSessionClosed) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// drain feeds p into the frame decoder and handles every complete frame.
func (s *Session) drain(dec *frame.Decoder, p []byte) error {
	dec.Write(p)
	for {
		tag, body, ok, err := dec.Next()
		if err != nil {
			s.metrics.RecordProtocolError(context.Background(), "framing")
			return fmt.Errorf("%w: %v", ErrProtocolViolation, err)
		}
		if !ok {
			return nil
		}

		s.mu.Lock()
		s.lastActivity = time.Now()
		s.mu.Unlock()

		msg, err := protocol.Decode(protocol.Tag(tag), body)
		if err != nil {
			s.metrics.RecordProtocolError(context.Background(), "decode")
			return fmt.Errorf("%w: decode tag %d: %v", ErrProtocolViolation, tag, err)
		}
		s.metrics.RecordFrameDecoded(context.Background(), msg.Tag().String())

		if err := s.handle(msg); err != nil {
			return err
		}
	}
}

// errClean is an internal marker for an orderly disconnect.
var errClean = errors.New("server: clean disconnect")

// handle processes one decoded message according to the session state.
func (s *Session) handle(msg protocol.Message) error {
	// Keepalive and disconnect work in every pre-closed state.
	switch msg.(type) {
	case *protocol.PingRequest:
		return s.Send(&protocol.PingResponse{})
	case *protocol.PingResponse:
		return nil
	case *protocol.DisconnectRequest:
		_ = s.Send(&protocol.DisconnectResponse{})
		s.close(errClean)
		return errClean
	case *protocol.DisconnectResponse:
		s.close(errClean)
		return errClean
	}

	switch s.State() {
	case StateAwaitingHello:
		req, ok := msg.(*protocol.HelloRequest)
		if !ok {
			s.metrics.RecordProtocolError(context.Background(), "handshake")
			return fmt.Errorf("%w: %s before hello", ErrProtocolViolation, msg.Tag())
		}
		return s.handleHello(req)

	case StateAwaitingAuth:
		req, ok := msg.(*protocol.ConnectRequest)
		if !ok {
			s.metrics.RecordProtocolError(context.Background(), "handshake")
			return fmt.Errorf("%w: %s before auth", ErrProtocolViolation, msg.Tag())
		}
		return s.handleConnect(req)

	case StateReady:
		// Hubs send a connect request even when no password is set; answer
		// it instead of treating it as stray traffic.
		if _, ok := msg.(*protocol.ConnectRequest); ok {
			return s.Send(&protocol.ConnectResponse{})
		}
		if raw, ok := msg.(*protocol.Raw); ok {
			slog.Debug("ignoring unknown message type", "tag", raw.TypeTag)
			return nil
		}
		if s.cfg.Handler != nil {
			s.cfg.Handler.OnMessage(s, msg)
		}
		return nil
	}
	return ErrSessionClosed
}

func (s *Session) handleHello(req *protocol.HelloRequest) error {
	slog.Info("hub connected",
		"client_info", req.ClientInfo,
		"client_api", fmt.Sprintf("%d.%d", req.APIVersionMajor, req.APIVersionMinor),
		"remote", s.conn.RemoteAddr(),
	)
	if err := s.Send(&protocol.HelloResponse{
		APIVersionMajor: apiVersionMajor,
		APIVersionMinor: apiVersionMinor,
		ServerInfo:      s.cfg.ServerInfo,
		Name:            s.cfg.Name,
	}); err != nil {
		return err
	}

	if s.cfg.Password == "" {
		s.setReady()
	} else {
		s.setState(StateAwaitingAuth)
	}
	return nil
}

func (s *Session) handleConnect(req *protocol.ConnectRequest) error {
	if subtle.ConstantTimeCompare([]byte(req.Password), []byte(s.cfg.Password)) != 1 {
		s.metrics.RecordProtocolError(context.Background(), "auth")
		_ = s.Send(&protocol.ConnectResponse{InvalidPassword: true})
		return fmt.Errorf("%w: invalid password from %s", ErrAuthentication, s.conn.RemoteAddr())
	}
	if err := s.Send(&protocol.ConnectResponse{}); err != nil {
		return err
	}
	s.setReady()
	return nil
}

func (s *Session) setReady() {
	s.setState(StateReady)
	if s.cfg.Handler != nil {
		s.cfg.Handler.OnReady(s)
	}
}

func (s *Session) setState(next State) {
	s.mu.Lock()
	s.state = next
	s.mu.Unlock()
}

// Send encodes and writes msgs as consecutive frames. Returns
// [ErrSessionClosed] once the session has ended.
func (s *Session) Send(msgs ...protocol.Message) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.State() == StateClosed {
		return ErrSessionClosed
	}

	var buf []byte
	for _, m := range msgs {
		buf = frame.Encode(buf, uint64(m.Tag()), m.MarshalBody())
		s.metrics.RecordFrameEncoded(context.Background(), m.Tag().String())
	}
	if _, err := s.conn.Write(buf); err != nil {
		return fmt.Errorf("%w: write: %v", ErrSessionClosed, err)
	}
	return nil
}

// Disconnect starts an orderly shutdown: it sends a disconnect request and
// lets the peer's response (or a read error) finish the close.
func (s *Session) Disconnect() error {
	return s.Send(&protocol.DisconnectRequest{})
}

// Close tears the session down immediately without the disconnect exchange.
func (s *Session) Close() error {
	s.close(ErrSessionClosed)
	return nil
}

// close ends the session exactly once and fires OnClosed.
func (s *Session) close(cause error) {
	s.closeOnce.Do(func() {
		if cause == errClean {
			cause = nil
		}
		s.closeErr = cause
		s.setState(StateClosed)
		_ = s.conn.Close()

		if cause != nil && !errors.Is(cause, ErrSessionClosed) && !errors.Is(cause, context.Canceled) {
			slog.Warn("session closed", "remote", s.conn.RemoteAddr(), "error", cause)
		} else {
			slog.Info("session closed", "remote", s.conn.RemoteAddr())
		}
		if s.cfg.Handler != nil {
			s.cfg.Handler.OnClosed(s, cause)
		}
	})
}

func (s *Session) closeCause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeErr
}
