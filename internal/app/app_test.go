package app_test

import (
	"context"
	"log/slog"
	"net"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/MrWong99/voxsat/internal/app"
	"github.com/MrWong99/voxsat/internal/config"
	"github.com/MrWong99/voxsat/internal/protocol"
	"github.com/MrWong99/voxsat/internal/protocol/frame"
	"github.com/MrWong99/voxsat/internal/wakeword"
)

const testYAML = `
server:
  listen_addr: "127.0.0.1:0"
  log_level: info
device:
  name: test-satellite
  friendly_name: Test Satellite
  mac_address: "aa:bb:cc:dd:ee:ff"
voice:
  refractory: 250ms
  active_wake_words: [okay_nabu]
wake_words:
  - id: okay_nabu
    phrase: okay nabu
  - id: hey_jarvis
    phrase: hey jarvis
audio:
  capture_command: [sleep, "60"]
health:
  listen_addr: "127.0.0.1:0"
`

type nopModel struct{}

func (nopModel) Score([]byte) bool { return false }

type nopPlayer struct {
	mu     sync.Mutex
	active bool
}

func (p *nopPlayer) Play(url string, onDone func()) {
	p.mu.Lock()
	p.active = true
	p.mu.Unlock()
}

func (p *nopPlayer) Stop() {
	p.mu.Lock()
	p.active = false
	p.mu.Unlock()
}

func (p *nopPlayer) Pause() {}

func (p *nopPlayer) Resume() {}

func (p *nopPlayer) SetVolume(float32) {}

func (p *nopPlayer) IsActive() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.LoadFromReader(strings.NewReader(testYAML))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	return cfg
}

func newTestApp(t *testing.T, opts ...app.Option) *app.App {
	t.Helper()
	opts = append([]app.Option{
		app.WithPlayers(&nopPlayer{}, &nopPlayer{}),
		app.WithModelLoader(func(wakeword.Word) (wakeword.Model, error) { return nopModel{}, nil }),
		app.WithStopModel(nopModel{}),
		app.WithoutDiscovery(),
	}, opts...)

	a, err := app.New(context.Background(), testConfig(t), opts...)
	if err != nil {
		t.Fatalf("app.New: %v", err)
	}
	return a
}

// runApp starts the app and returns once the protocol listener is bound.
func runApp(t *testing.T, a *app.App) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("Run returned %v after cancel", err)
			}
		case <-time.After(5 * time.Second):
			t.Error("Run did not return after cancel")
		}
	})

	deadline := time.Now().Add(5 * time.Second)
	for a.Server().Addr() == nil {
		if time.Now().After(deadline) {
			t.Fatal("listener did not bind")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestNew_WiresSubsystems(t *testing.T) {
	t.Parallel()
	a := newTestApp(t)

	if a.Engine() == nil || a.Queue() == nil || a.Server() == nil {
		t.Fatal("subsystems missing after New")
	}
	if got := a.ActiveWakeWords(); !slices.Equal(got, []string{"okay_nabu"}) {
		t.Fatalf("ActiveWakeWords = %v", got)
	}
}

func TestNew_MissingCaptureCommandFails(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	cfg.Audio.CaptureCommand = nil

	_, err := app.New(context.Background(), cfg,
		app.WithPlayers(&nopPlayer{}, &nopPlayer{}),
		app.WithModelLoader(func(wakeword.Word) (wakeword.Model, error) { return nopModel{}, nil }),
		app.WithStopModel(nopModel{}),
		app.WithoutDiscovery(),
	)
	if err == nil {
		t.Fatal("expected error for missing capture command, got nil")
	}
}

func TestRun_ServesHandshake(t *testing.T) {
	t.Parallel()
	a := newTestApp(t)
	runApp(t, a)

	conn, err := net.DialTimeout("tcp", a.Server().Addr().String(), 2*time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	buf := frame.Encode(nil, uint64(protocol.TagHelloRequest), (&protocol.HelloRequest{
		ClientInfo:      "Home Assistant",
		APIVersionMajor: 1,
		APIVersionMinor: 10,
	}).MarshalBody())
	conn.SetDeadline(time.Now().Add(2 * time.Second))
	if _, err := conn.Write(buf); err != nil {
		t.Fatalf("write hello: %v", err)
	}

	var dec frame.Decoder
	read := make([]byte, 4096)
	for {
		tag, body, ok, err := dec.Next()
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if ok {
			msg, err := protocol.Decode(protocol.Tag(tag), body)
			if err != nil {
				t.Fatalf("decode tag %d: %v", tag, err)
			}
			hello, isHello := msg.(*protocol.HelloResponse)
			if !isHello {
				t.Fatalf("first reply = %T", msg)
			}
			if hello.Name != "test-satellite" {
				t.Fatalf("HelloResponse.Name = %q", hello.Name)
			}
			return
		}
		n, err := conn.Read(read)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		dec.Write(read[:n])
	}
}

func TestApplyConfigChange_HotReloads(t *testing.T) {
	t.Parallel()
	lv := new(slog.LevelVar)
	a := newTestApp(t, app.WithLogLevelVar(lv))
	runApp(t, a)

	next := testConfig(t)
	next.Server.LogLevel = config.LogDebug
	next.Voice.ActiveWakeWords = []string{"hey_jarvis"}
	diff := config.Diff(testConfig(t), next)

	a.ApplyConfigChange(next, diff)

	if lv.Level() != slog.LevelDebug {
		t.Errorf("log level = %v, want debug", lv.Level())
	}
	deadline := time.Now().Add(2 * time.Second)
	for !slices.Equal(a.ActiveWakeWords(), []string{"hey_jarvis"}) {
		if time.Now().After(deadline) {
			t.Fatalf("ActiveWakeWords = %v, want [hey_jarvis]", a.ActiveWakeWords())
		}
		time.Sleep(10 * time.Millisecond)
	}
}
