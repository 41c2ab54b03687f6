package entity

import (
	"log/slog"

	"github.com/MrWong99/voxsat/internal/playback"
	"github.com/MrWong99/voxsat/internal/protocol"
)

// Compile-time interface assertion.
var _ Entity = (*MediaPlayer)(nil)

// MediaPlayer exposes the device's audio output to the hub. Playback itself
// is the coordinator's job; this entity translates hub commands into
// coordinator calls and reflects the coordinator's truth back as state.
type MediaPlayer struct {
	key      uint32
	name     string
	objectID string
	emit     Emitter
	coord    *playback.Coordinator

	state  protocol.MediaPlayerState
	volume float32
	muted  bool
}

// NewMediaPlayer creates the media player entity over the playback
// coordinator.
func NewMediaPlayer(key uint32, name, objectID string, coord *playback.Coordinator, emit Emitter) *MediaPlayer {
	return &MediaPlayer{
		key: key, name: name, objectID: objectID,
		coord: coord, emit: emit,
		state:  protocol.MediaPlayerStateIdle,
		volume: 1.0,
	}
}

func (p *MediaPlayer) Key() uint32      { return p.key }
func (p *MediaPlayer) ObjectID() string { return p.objectID }

func (p *MediaPlayer) Describe() protocol.Message {
	return &protocol.ListEntitiesMediaPlayerResponse{
		ObjectID:      p.objectID,
		Key:           p.key,
		Name:          p.name,
		SupportsPause: true,
	}
}

func (p *MediaPlayer) State() protocol.Message {
	return &protocol.MediaPlayerStateResponse{
		Key:    p.key,
		State:  p.state,
		Volume: p.volume,
		Muted:  p.muted,
	}
}

func (p *MediaPlayer) HandleCommand(msg protocol.Message) {
	cmd, ok := msg.(*protocol.MediaPlayerCommandRequest)
	if !ok {
		return
	}

	switch {
	case cmd.HasMediaURL:
		announcement := cmd.HasAnnouncement && cmd.Announcement
		slog.Info("media player play", "url", cmd.MediaURL, "announcement", announcement)
		p.Play(cmd.MediaURL, announcement, nil)

	case cmd.HasCommand:
		switch cmd.Command {
		case protocol.MediaPlayerCommandPause:
			p.coord.PauseMusic()
			p.setState(protocol.MediaPlayerStatePaused)
		case protocol.MediaPlayerCommandPlay:
			p.coord.ResumeMusic()
			p.setState(protocol.MediaPlayerStatePlaying)
		case protocol.MediaPlayerCommandStop:
			p.coord.PauseMusic()
			p.setState(protocol.MediaPlayerStateIdle)
		case protocol.MediaPlayerCommandMute:
			p.muted = true
			p.coord.SetVolume(0)
			p.emit(p.State())
		case protocol.MediaPlayerCommandUnmute:
			p.muted = false
			p.coord.SetVolume(p.volume)
			p.emit(p.State())
		}

	case cmd.HasVolume:
		p.volume = cmd.Volume
		p.coord.SetVolume(cmd.Volume)
		p.emit(p.State())
	}
}

// Play renders url, either as ducked announcement audio or as background
// music. onDone may be nil; it runs after playback completes and the state
// has returned to idle.
func (p *MediaPlayer) Play(url string, announcement bool, onDone func()) {
	finish := func() {
		p.setState(protocol.MediaPlayerStateIdle)
		if onDone != nil {
			onDone()
		}
	}
	if announcement {
		p.coord.PlayAnnouncement([]string{url}, finish)
	} else {
		p.coord.PlayMusic(url, finish)
	}
	p.setState(protocol.MediaPlayerStatePlaying)
}

func (p *MediaPlayer) setState(s protocol.MediaPlayerState) {
	p.state = s
	p.emit(p.State())
}
