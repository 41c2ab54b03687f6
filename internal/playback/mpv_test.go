package playback

import (
	"bufio"
	"encoding/json"
	"net"
	"testing"
	"time"
)

// fakeMpv plays the process side of the IPC socket: it records decoded
// requests and lets tests inject events.
type fakeMpv struct {
	t    *testing.T
	conn net.Conn
	reqs chan mpvRequest
}

func newFakeMpv(t *testing.T) (*fakeMpv, *MpvPlayer) {
	t.Helper()
	client, server := net.Pipe()
	f := &fakeMpv{t: t, conn: server, reqs: make(chan mpvRequest, 16)}
	go func() {
		sc := bufio.NewScanner(server)
		for sc.Scan() {
			var req mpvRequest
			if err := json.Unmarshal(sc.Bytes(), &req); err != nil {
				continue
			}
			f.reqs <- req
		}
	}()

	p := NewMpvPlayer("test")
	p.Attach(client)
	t.Cleanup(p.Detach)
	return f, p
}

func (f *fakeMpv) next() mpvRequest {
	f.t.Helper()
	select {
	case req := <-f.reqs:
		return req
	case <-time.After(2 * time.Second):
		f.t.Fatal("timed out waiting for IPC request")
		return mpvRequest{}
	}
}

func (f *fakeMpv) expectCommand(name string) mpvRequest {
	f.t.Helper()
	req := f.next()
	if len(req.Command) == 0 || req.Command[0] != name {
		f.t.Fatalf("got command %v, want %q", req.Command, name)
	}
	return req
}

func (f *fakeMpv) sendEvent(event, reason string) {
	f.t.Helper()
	buf, err := json.Marshal(mpvReply{Event: event, Reason: reason})
	if err != nil {
		f.t.Fatalf("marshal event: %v", err)
	}
	if _, err := f.conn.Write(append(buf, '\n')); err != nil {
		f.t.Fatalf("write event: %v", err)
	}
}

func TestMpvPlayer_PlaySendsLoadfile(t *testing.T) {
	t.Parallel()
	f, p := newFakeMpv(t)

	p.Play("http://hub/tts.mp3", nil)

	f.expectCommand("set_property")
	req := f.expectCommand("loadfile")
	if req.Command[1] != "http://hub/tts.mp3" || req.Command[2] != "replace" {
		t.Fatalf("loadfile args = %v", req.Command)
	}
	if !p.IsActive() {
		t.Error("player must be active after Play")
	}
}

func TestMpvPlayer_EndOfFileFiresDone(t *testing.T) {
	t.Parallel()
	f, p := newFakeMpv(t)

	done := make(chan struct{})
	p.Play("ring.flac", func() { close(done) })
	f.expectCommand("set_property")
	f.expectCommand("loadfile")

	f.sendEvent("end-file", "eof")
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("done callback not fired on eof")
	}
	if p.IsActive() {
		t.Error("player must be inactive after eof")
	}
}

func TestMpvPlayer_StopSuppressesDone(t *testing.T) {
	t.Parallel()
	f, p := newFakeMpv(t)

	fired := make(chan struct{}, 1)
	p.Play("announce.mp3", func() { fired <- struct{}{} })
	f.expectCommand("set_property")
	f.expectCommand("loadfile")

	p.Stop()
	f.expectCommand("stop")
	f.sendEvent("end-file", "stop")

	select {
	case <-fired:
		t.Fatal("done callback fired after Stop")
	case <-time.After(150 * time.Millisecond):
	}
	if p.IsActive() {
		t.Error("player must be inactive after Stop")
	}
}

func TestMpvPlayer_PauseResumeVolume(t *testing.T) {
	t.Parallel()
	f, p := newFakeMpv(t)

	p.Pause()
	req := f.expectCommand("set_property")
	if req.Command[1] != "pause" || req.Command[2] != true {
		t.Fatalf("pause args = %v", req.Command)
	}

	p.Resume()
	req = f.expectCommand("set_property")
	if req.Command[1] != "pause" || req.Command[2] != false {
		t.Fatalf("resume args = %v", req.Command)
	}

	p.SetVolume(0.5)
	req = f.expectCommand("set_property")
	if req.Command[1] != "volume" || req.Command[2] != float64(50) {
		t.Fatalf("volume args = %v", req.Command)
	}
}

func TestMpvPlayer_DetachedCommandsAreDropped(t *testing.T) {
	t.Parallel()
	p := NewMpvPlayer("orphan")

	// Must not panic or block without an attached process.
	p.Play("x.mp3", nil)
	p.Stop()
	p.Pause()
	if p.IsActive() {
		t.Error("detached player must not report active")
	}
}

func TestMpvPlayer_PlaybackErrorClearsState(t *testing.T) {
	t.Parallel()
	f, p := newFakeMpv(t)

	fired := make(chan struct{}, 1)
	p.Play("broken.mp3", func() { fired <- struct{}{} })
	f.expectCommand("set_property")
	f.expectCommand("loadfile")

	f.sendEvent("end-file", "error")
	select {
	case <-fired:
		t.Fatal("done callback fired on playback error")
	case <-time.After(150 * time.Millisecond):
	}

	deadline := time.Now().Add(time.Second)
	for p.IsActive() {
		if time.Now().After(deadline) {
			t.Fatal("player still active after playback error")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
