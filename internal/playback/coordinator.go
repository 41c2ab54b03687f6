// Package playback arbitrates between long-running background audio (music)
// and short foreground audio (announcements, TTS responses, chimes). At most
// one of the two is audible at full volume at a time.
package playback

import (
	"log/slog"
	"sync"
)

// Player is the narrow interface onto one logical media player. Done
// callbacks fire from the player's own context; the coordinator tolerates
// that and never calls back into a Player while holding its lock.
//
// Play replaces whatever the player is currently rendering.
type Player interface {
	Play(url string, onDone func())
	Stop()
	Pause()
	Resume()
	SetVolume(volume float32)
	IsActive() bool
}

// Coordinator owns the music and announcement players and enforces the
// ducking contract: an announcement pauses audible music first and resumes it
// after completion iff the coordinator was the one that paused it. A new
// announcement supersedes an in-flight one rather than queueing behind it.
//
// All methods are safe for concurrent use.
type Coordinator struct {
	music    Player
	announce Player

	mu          sync.Mutex
	pausedMusic bool   // we paused the music player and owe it a resume
	gen         uint64 // announcement generation; stale completions are discarded
}

// New creates a Coordinator over the two players.
func New(music, announce Player) *Coordinator {
	return &Coordinator{music: music, announce: announce}
}

// PlayAnnouncement renders the given sources in order through the
// announcement player, ducking music first. onDone runs after the last
// source finishes (or the announcement is stopped) and after music has been
// resumed; it is discarded if a newer announcement superseded this one.
// onDone may be nil.
func (c *Coordinator) PlayAnnouncement(urls []string, onDone func()) {
	if len(urls) == 0 {
		if onDone != nil {
			onDone()
		}
		return
	}

	c.mu.Lock()
	c.gen++
	myGen := c.gen
	supersede := c.announce.IsActive()
	c.mu.Unlock()

	if supersede {
		slog.Debug("superseding in-flight announcement")
		c.announce.Stop()
	}

	c.Duck()
	c.playSequence(myGen, urls, onDone)
}

// playSequence plays urls head-first, chaining through done callbacks. Each
// step re-checks the generation so a superseded announcement stops advancing.
func (c *Coordinator) playSequence(gen uint64, urls []string, onDone func()) {
	c.mu.Lock()
	stale := gen != c.gen
	c.mu.Unlock()
	if stale {
		return
	}

	if len(urls) == 0 {
		c.finishAnnouncement(gen, onDone)
		return
	}

	head, rest := urls[0], urls[1:]
	c.announce.Play(head, func() {
		c.playSequence(gen, rest, onDone)
	})
}

// finishAnnouncement resumes ducked music and invokes onDone, unless a newer
// announcement took over in the meantime.
func (c *Coordinator) finishAnnouncement(gen uint64, onDone func()) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	c.Unduck()
	if onDone != nil {
		onDone()
	}
}

// PlayCue renders a short sound effect through the announcement player
// without touching music ducking; the caller owns the duck window. A cue
// supersedes an in-flight announcement the same way a new announcement does.
// onDone may be nil and is discarded when superseded.
func (c *Coordinator) PlayCue(url string, onDone func()) {
	c.mu.Lock()
	c.gen++
	myGen := c.gen
	supersede := c.announce.IsActive()
	c.mu.Unlock()

	if supersede {
		c.announce.Stop()
	}
	c.announce.Play(url, func() {
		c.mu.Lock()
		stale := myGen != c.gen
		c.mu.Unlock()
		if stale || onDone == nil {
			return
		}
		onDone()
	})
}

// StopAnnouncement stops the in-flight announcement (if any) and invalidates
// its pending completions. Music is resumed if the coordinator paused it.
func (c *Coordinator) StopAnnouncement() {
	c.mu.Lock()
	c.gen++
	active := c.announce.IsActive()
	c.mu.Unlock()

	if active {
		c.announce.Stop()
	}
	c.Unduck()
}

// Duck pauses audible music. Idempotent: only the first Duck since the last
// Unduck pauses, so pause/resume always pair exactly once.
func (c *Coordinator) Duck() {
	c.mu.Lock()
	shouldPause := !c.pausedMusic && c.music.IsActive()
	if shouldPause {
		c.pausedMusic = true
	}
	c.mu.Unlock()

	if shouldPause {
		slog.Debug("ducking music")
		c.music.Pause()
	}
}

// Unduck resumes music iff the coordinator paused it. Idempotent.
func (c *Coordinator) Unduck() {
	c.mu.Lock()
	shouldResume := c.pausedMusic
	c.pausedMusic = false
	c.mu.Unlock()

	if shouldResume {
		slog.Debug("unducking music")
		c.music.Resume()
	}
}

// PlayMusic starts background playback of url. onDone may be nil.
func (c *Coordinator) PlayMusic(url string, onDone func()) {
	c.music.Play(url, func() {
		if onDone != nil {
			onDone()
		}
	})
}

// PauseMusic pauses background playback on hub command. A hub-initiated
// pause clears any pending coordinator resume — the user asked for silence.
func (c *Coordinator) PauseMusic() {
	c.mu.Lock()
	c.pausedMusic = false
	c.mu.Unlock()
	c.music.Pause()
}

// ResumeMusic resumes background playback on hub command.
func (c *Coordinator) ResumeMusic() {
	c.mu.Lock()
	c.pausedMusic = false
	c.mu.Unlock()
	c.music.Resume()
}

// SetVolume applies volume (0..1) to both players.
func (c *Coordinator) SetVolume(volume float32) {
	c.music.SetVolume(volume)
	c.announce.SetVolume(volume)
}

// MusicActive reports whether the music player is currently rendering.
func (c *Coordinator) MusicActive() bool { return c.music.IsActive() }

// AnnouncementActive reports whether an announcement is currently rendering.
func (c *Coordinator) AnnouncementActive() bool { return c.announce.IsActive() }
