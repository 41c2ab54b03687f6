package playback

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"sync"
)

// Compile-time interface assertion.
var _ Player = (*MpvPlayer)(nil)

// MpvPlayer drives one mpv instance over its line-delimited JSON IPC socket.
// The process itself is owned by a [Supervisor]; the player only speaks the
// protocol and survives detach/re-attach cycles when the process is
// restarted.
//
// While no socket is attached, commands are dropped with a warning — the
// satellite must keep running through a player crash, it just stays silent.
type MpvPlayer struct {
	name string

	mu     sync.Mutex
	conn   net.Conn
	nextID int64
	sent   map[int64]string // request id → command, for error logs
	onDone func()
	active bool
}

// mpvRequest is one IPC command envelope.
type mpvRequest struct {
	Command   []any `json:"command"`
	RequestID int64 `json:"request_id"`
}

// mpvReply is a command acknowledgement or an asynchronous event.
type mpvReply struct {
	RequestID int64  `json:"request_id"`
	Error     string `json:"error"`
	Event     string `json:"event"`
	Reason    string `json:"reason"`
}

// NewMpvPlayer creates a player named for logging (e.g. "music",
// "announce"). It is inert until [MpvPlayer.Attach] hands it a live IPC
// connection.
func NewMpvPlayer(name string) *MpvPlayer {
	return &MpvPlayer{name: name, sent: make(map[int64]string)}
}

// Attach installs conn as the IPC transport and starts the reply reader. A
// previously attached connection is closed first.
func (p *MpvPlayer) Attach(conn net.Conn) {
	p.mu.Lock()
	old := p.conn
	p.conn = conn
	p.active = false
	p.onDone = nil
	clear(p.sent)
	p.mu.Unlock()

	if old != nil {
		_ = old.Close()
	}
	go p.readLoop(conn)
}

// Detach drops the current IPC connection, e.g. after the process died. A
// pending done callback is discarded; playback state did not survive anyway.
func (p *MpvPlayer) Detach() {
	p.mu.Lock()
	conn := p.conn
	p.conn = nil
	p.active = false
	p.onDone = nil
	p.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
}

// Play starts rendering url, replacing whatever is currently playing. onDone
// fires once when the track finishes on its own; it is dropped when playback
// is stopped or superseded. onDone may be nil.
func (p *MpvPlayer) Play(url string, onDone func()) {
	p.mu.Lock()
	p.onDone = onDone
	p.active = true
	p.mu.Unlock()

	p.command("set_property", "pause", false)
	p.command("loadfile", url, "replace")
}

// Stop aborts playback without firing the done callback.
func (p *MpvPlayer) Stop() {
	p.mu.Lock()
	p.onDone = nil
	p.active = false
	p.mu.Unlock()

	p.command("stop")
}

// Pause suspends playback in place.
func (p *MpvPlayer) Pause() {
	p.command("set_property", "pause", true)
}

// Resume continues paused playback.
func (p *MpvPlayer) Resume() {
	p.command("set_property", "pause", false)
}

// SetVolume sets the output volume; volume is 0.0–1.0.
func (p *MpvPlayer) SetVolume(volume float32) {
	p.command("set_property", "volume", float64(volume)*100)
}

// IsActive reports whether a track is currently loaded and playing.
func (p *MpvPlayer) IsActive() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

// command marshals and writes one IPC request. Safe from any goroutine.
func (p *MpvPlayer) command(args ...any) {
	p.mu.Lock()
	conn := p.conn
	if conn == nil {
		p.mu.Unlock()
		slog.Warn("player command dropped: no mpv attached", "player", p.name, "command", args[0])
		return
	}
	p.nextID++
	id := p.nextID
	p.sent[id] = fmt.Sprint(args[0])
	p.mu.Unlock()

	buf, err := json.Marshal(mpvRequest{Command: args, RequestID: id})
	if err != nil {
		slog.Warn("player command marshal failed", "player", p.name, "error", err)
		return
	}
	buf = append(buf, '\n')
	if _, err := conn.Write(buf); err != nil {
		slog.Warn("player command write failed", "player", p.name, "error", err)
	}
}

// readLoop consumes replies and events until conn fails. Runs per attach.
func (p *MpvPlayer) readLoop(conn net.Conn) {
	sc := bufio.NewScanner(conn)
	for sc.Scan() {
		var reply mpvReply
		if err := json.Unmarshal(sc.Bytes(), &reply); err != nil {
			slog.Debug("unparseable mpv message", "player", p.name, "error", err)
			continue
		}
		switch {
		case reply.Event == "end-file":
			p.handleEndFile(reply.Reason)
		case reply.Event != "":
			// Property and lifecycle events we did not subscribe to.
		case reply.RequestID != 0:
			p.handleAck(reply)
		}
	}
	slog.Debug("mpv reply stream closed", "player", p.name, "error", sc.Err())
}

// handleEndFile fires the done callback when a track finished on its own.
// Stops and replacements also raise end-file but with a different reason.
func (p *MpvPlayer) handleEndFile(reason string) {
	p.mu.Lock()
	done := p.onDone
	fireDone := reason == "eof" && done != nil
	if reason == "eof" || reason == "error" {
		p.onDone = nil
		p.active = false
	}
	p.mu.Unlock()

	if reason == "error" {
		slog.Warn("mpv playback failed", "player", p.name)
	}
	if fireDone {
		done()
	}
}

func (p *MpvPlayer) handleAck(reply mpvReply) {
	p.mu.Lock()
	cmd := p.sent[reply.RequestID]
	delete(p.sent, reply.RequestID)
	p.mu.Unlock()

	if reply.Error != "" && reply.Error != "success" {
		slog.Warn("mpv rejected command", "player", p.name, "command", cmd, "error", reply.Error)
	}
}
