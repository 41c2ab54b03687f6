package satellite

import (
	"github.com/MrWong99/voxsat/internal/protocol"
	"github.com/MrWong99/voxsat/internal/server"
)

// Compile-time interface assertion.
var _ server.Handler = sessionHandler{}

// sessionHandler adapts transport callbacks onto the engine loop.
type sessionHandler struct {
	e *Engine
}

// Handler returns the transport-facing adapter for this engine.
func (e *Engine) Handler() server.Handler {
	return sessionHandler{e: e}
}

func (h sessionHandler) OnReady(s *server.Session) {
	h.e.SessionReady(s)
}

func (h sessionHandler) OnMessage(s *server.Session, msg protocol.Message) {
	h.e.HandleMessage(msg)
}

func (h sessionHandler) OnClosed(s *server.Session, err error) {
	h.e.SessionLost(s)
}
