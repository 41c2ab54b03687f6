package playback_test

import (
	"sync"
	"testing"

	"github.com/MrWong99/voxsat/internal/playback"
)

// fakePlayer is a scriptable Player that records calls and lets tests fire
// completion callbacks by hand.
type fakePlayer struct {
	mu      sync.Mutex
	active  bool
	played  []string
	pauses  int
	resumes int
	stops   int
	volume  float32
	onDone  func()
}

func (p *fakePlayer) Play(url string, onDone func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.active = true
	p.played = append(p.played, url)
	p.onDone = onDone
}

func (p *fakePlayer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.active = false
	p.stops++
	p.onDone = nil
}

func (p *fakePlayer) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pauses++
	p.active = false
}

func (p *fakePlayer) Resume() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resumes++
	p.active = true
}

func (p *fakePlayer) SetVolume(v float32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.volume = v
}

func (p *fakePlayer) IsActive() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

// finish fires the current done callback, as the real player would at end of
// media.
func (p *fakePlayer) finish() {
	p.mu.Lock()
	done := p.onDone
	p.onDone = nil
	p.active = false
	p.mu.Unlock()
	if done != nil {
		done()
	}
}

func (p *fakePlayer) counts() (pauses, resumes int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pauses, p.resumes
}

func TestAnnouncementDucksActiveMusic(t *testing.T) {
	t.Parallel()

	music := &fakePlayer{active: true}
	announce := &fakePlayer{}
	c := playback.New(music, announce)

	var done bool
	c.PlayAnnouncement([]string{"http://hub/tts.mp3"}, func() { done = true })

	pauses, resumes := music.counts()
	if pauses != 1 || resumes != 0 {
		t.Fatalf("before completion: pauses=%d resumes=%d, want 1/0", pauses, resumes)
	}
	if done {
		t.Fatal("onDone fired before the announcement finished")
	}

	announce.finish()

	pauses, resumes = music.counts()
	if pauses != 1 || resumes != 1 {
		t.Fatalf("after completion: pauses=%d resumes=%d, want 1/1", pauses, resumes)
	}
	if !done {
		t.Fatal("onDone did not fire")
	}
}

func TestAnnouncementWithIdleMusicNeverTouchesIt(t *testing.T) {
	t.Parallel()

	music := &fakePlayer{}
	announce := &fakePlayer{}
	c := playback.New(music, announce)

	c.PlayAnnouncement([]string{"http://hub/tts.mp3"}, nil)
	announce.finish()

	pauses, resumes := music.counts()
	if pauses != 0 || resumes != 0 {
		t.Fatalf("pauses=%d resumes=%d, want 0/0 for idle music", pauses, resumes)
	}
}

func TestAnnouncementSequencePlaysInOrder(t *testing.T) {
	t.Parallel()

	music := &fakePlayer{}
	announce := &fakePlayer{}
	c := playback.New(music, announce)

	var done bool
	c.PlayAnnouncement([]string{"chime.mp3", "announce.mp3"}, func() { done = true })

	announce.finish() // chime
	if done {
		t.Fatal("onDone fired after the first source")
	}
	announce.finish() // announcement

	if got, want := len(announce.played), 2; got != want {
		t.Fatalf("played %d sources, want %d", got, want)
	}
	if announce.played[0] != "chime.mp3" || announce.played[1] != "announce.mp3" {
		t.Fatalf("played order: %v", announce.played)
	}
	if !done {
		t.Fatal("onDone did not fire after the sequence")
	}
}

func TestNewAnnouncementSupersedesInFlight(t *testing.T) {
	t.Parallel()

	music := &fakePlayer{}
	announce := &fakePlayer{}
	c := playback.New(music, announce)

	var firstDone, secondDone bool
	c.PlayAnnouncement([]string{"first.mp3"}, func() { firstDone = true })
	c.PlayAnnouncement([]string{"second.mp3"}, func() { secondDone = true })

	if announce.stops != 1 {
		t.Fatalf("stops=%d, want 1 (first announcement stopped)", announce.stops)
	}

	announce.finish()

	if firstDone {
		t.Fatal("superseded announcement's onDone must be discarded")
	}
	if !secondDone {
		t.Fatal("second announcement's onDone did not fire")
	}
}

func TestPlayCueLeavesMusicAlone(t *testing.T) {
	t.Parallel()

	music := &fakePlayer{active: true}
	announce := &fakePlayer{}
	c := playback.New(music, announce)

	var done bool
	c.PlayCue("wake.flac", func() { done = true })
	announce.finish()

	pauses, resumes := music.counts()
	if pauses != 0 || resumes != 0 {
		t.Fatalf("pauses=%d resumes=%d, want 0/0 — cues never duck", pauses, resumes)
	}
	if !done {
		t.Fatal("onDone did not fire")
	}
}

func TestPlayCueSupersedesAnnouncement(t *testing.T) {
	t.Parallel()

	music := &fakePlayer{}
	announce := &fakePlayer{}
	c := playback.New(music, announce)

	c.PlayAnnouncement([]string{"tts.mp3"}, func() { t.Fatal("superseded onDone must not fire") })
	c.PlayCue("ring.flac", nil)

	if announce.stops != 1 {
		t.Fatalf("stops=%d, want 1 (announcement stopped by cue)", announce.stops)
	}
	announce.finish()

	if got := announce.played; len(got) != 2 || got[1] != "ring.flac" {
		t.Fatalf("played: %v", got)
	}
}

func TestStopAnnouncementResumesDuckedMusic(t *testing.T) {
	t.Parallel()

	music := &fakePlayer{active: true}
	announce := &fakePlayer{}
	c := playback.New(music, announce)

	c.PlayAnnouncement([]string{"tts.mp3"}, func() { t.Fatal("onDone must not fire on stop") })
	c.StopAnnouncement()

	pauses, resumes := music.counts()
	if pauses != 1 || resumes != 1 {
		t.Fatalf("pauses=%d resumes=%d, want 1/1", pauses, resumes)
	}
	if announce.stops != 1 {
		t.Fatalf("stops=%d, want 1", announce.stops)
	}
}

func TestDuckIsIdempotent(t *testing.T) {
	t.Parallel()

	music := &fakePlayer{active: true}
	c := playback.New(music, &fakePlayer{})

	c.Duck()
	c.Duck()
	c.Unduck()
	c.Unduck()

	pauses, resumes := music.counts()
	if pauses != 1 || resumes != 1 {
		t.Fatalf("pauses=%d resumes=%d, want exactly 1/1", pauses, resumes)
	}
}

func TestHubPauseClearsPendingResume(t *testing.T) {
	t.Parallel()

	music := &fakePlayer{active: true}
	c := playback.New(music, &fakePlayer{})

	c.Duck()
	c.PauseMusic() // user asked for silence mid-duck
	c.Unduck()

	_, resumes := music.counts()
	if resumes != 0 {
		t.Fatalf("resumes=%d, want 0 after an explicit hub pause", resumes)
	}
}

func TestSetVolumeReachesBothPlayers(t *testing.T) {
	t.Parallel()

	music := &fakePlayer{}
	announce := &fakePlayer{}
	c := playback.New(music, announce)

	c.SetVolume(0.4)
	if music.volume != 0.4 || announce.volume != 0.4 {
		t.Fatalf("volume: music=%v announce=%v, want 0.4/0.4", music.volume, announce.volume)
	}
}
