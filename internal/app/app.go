// Package app wires all voxsat subsystems into a running satellite.
//
// The App struct owns the full lifecycle: New creates and connects all
// subsystems, Run executes them under one errgroup, and Shutdown tears
// everything down in order.
//
// For testing, inject doubles via functional options (WithPlayers,
// WithModelLoader, etc.). When an option is not provided, New creates the
// production implementations from the config: mpv players under process
// supervision and an external capture process feeding the audio queue.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/voxsat/internal/audiopipe"
	"github.com/MrWong99/voxsat/internal/config"
	"github.com/MrWong99/voxsat/internal/discovery"
	"github.com/MrWong99/voxsat/internal/health"
	"github.com/MrWong99/voxsat/internal/playback"
	"github.com/MrWong99/voxsat/internal/satellite"
	"github.com/MrWong99/voxsat/internal/server"
	"github.com/MrWong99/voxsat/internal/wakeword"
)

// Version is reported in device info and mDNS TXT records. Overridden at
// build time via -ldflags.
var Version = "dev"

// App owns all subsystem lifetimes.
type App struct {
	cfg *config.Config

	queue  *audiopipe.Queue
	det    *wakeword.Detector
	coord  *playback.Coordinator
	engine *satellite.Engine
	srv    *server.Server

	capture     *audiopipe.Capture
	supervisors []*playback.Supervisor
	httpSrv     *http.Server
	advertiser  *discovery.Advertiser

	logLevel    *slog.LevelVar
	modelLoader wakeword.Loader
	stopModel   wakeword.Model
	music       playback.Player
	announce    playback.Player
	discovery   bool

	// activeWords is the last applied wake word set, for readiness probes.
	activeWords atomic.Value // []string

	// closers are called in order during Shutdown.
	closers []func() error

	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithPlayers injects the music and announcement players instead of
// launching mpv processes.
func WithPlayers(music, announce playback.Player) Option {
	return func(a *App) {
		a.music = music
		a.announce = announce
	}
}

// WithModelLoader injects a wake word model loader instead of building
// models through the backend registry.
func WithModelLoader(l wakeword.Loader) Option {
	return func(a *App) { a.modelLoader = l }
}

// WithStopModel injects the stop word model.
func WithStopModel(m wakeword.Model) Option {
	return func(a *App) { a.stopModel = m }
}

// WithLogLevelVar hands the App the level var behind the process logger so
// config reloads can adjust verbosity.
func WithLogLevelVar(lv *slog.LevelVar) Option {
	return func(a *App) { a.logLevel = lv }
}

// WithoutDiscovery disables mDNS advertisement, e.g. in tests.
func WithoutDiscovery() Option {
	return func(a *App) { a.discovery = false }
}

// New creates an App by wiring all subsystems together. Initialisation is
// synchronous: wake word models for the initial active set are loaded before
// New returns, so a broken model path fails startup instead of the first
// trigger.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	a := &App{cfg: cfg, discovery: true}
	for _, o := range opts {
		o(a)
	}

	if err := a.initDetector(); err != nil {
		return nil, fmt.Errorf("app: init detector: %w", err)
	}
	a.initAudio()
	if err := a.initPlayback(); err != nil {
		return nil, fmt.Errorf("app: init playback: %w", err)
	}
	if err := a.initEngine(); err != nil {
		return nil, fmt.Errorf("app: init engine: %w", err)
	}
	if err := a.initCapture(); err != nil {
		return nil, fmt.Errorf("app: init capture: %w", err)
	}
	a.initServer()
	a.initHealth()

	return a, nil
}

// initDetector builds the wake word detector from the declared words and
// activates the configured initial set.
func (a *App) initDetector() error {
	loader := a.modelLoader
	if loader == nil {
		loader = a.cfg.Loader()
	}
	stop := a.stopModel
	if stop == nil {
		m, err := a.cfg.StopModel()
		if err != nil {
			return err
		}
		stop = m
	}

	a.det = wakeword.NewDetector(a.cfg.Words(), loader, stop)
	if err := a.det.SetActive(a.cfg.Voice.ActiveWakeWords); err != nil {
		return err
	}
	a.activeWords.Store(a.det.Active())
	return nil
}

func (a *App) initAudio() {
	a.queue = audiopipe.NewQueue(a.cfg.Audio.QueueCapacity)
	a.closers = append(a.closers, func() error {
		a.queue.Close()
		return nil
	})
}

// initPlayback creates the two mpv players under supervision, unless test
// players were injected.
func (a *App) initPlayback() error {
	if a.music == nil || a.announce == nil {
		for _, name := range []string{"music", "announce"} {
			player := playback.NewMpvPlayer(name)
			sup, err := playback.NewSupervisor(playback.SupervisorConfig{
				Player:      player,
				Name:        name,
				Binary:      a.cfg.Playback.Binary,
				AudioDevice: a.cfg.Playback.AudioDevice,
			})
			if err != nil {
				return err
			}
			a.supervisors = append(a.supervisors, sup)
			if name == "music" {
				a.music = player
			} else {
				a.announce = player
			}
		}
	}
	a.coord = playback.New(a.music, a.announce)
	return nil
}

func (a *App) initEngine() error {
	engine, err := satellite.New(satellite.Config{
		Name:                       a.cfg.Device.Name,
		FriendlyName:               a.cfg.Device.FriendlyName,
		MacAddress:                 a.cfg.Device.MacAddress,
		ServerVersion:              "voxsat " + Version,
		UsesPassword:               a.cfg.Server.Password != "",
		Refractory:                 a.cfg.Voice.Refractory,
		SuppressDuringAnnouncement: a.cfg.Voice.SuppressDuringAnnouncement,
		WakeSound:                  a.cfg.Sounds.Wake,
		TimerFinishedSound:         a.cfg.Sounds.TimerFinished,
		OnConfigChange: func(active []string) {
			a.activeWords.Store(active)
		},
	}, a.queue, a.det, a.coord, nil)
	if err != nil {
		return err
	}
	a.engine = engine
	return nil
}

func (a *App) initCapture() error {
	capture, err := audiopipe.NewCapture(audiopipe.CaptureConfig{
		Command:    a.cfg.Audio.CaptureCommand,
		SampleRate: a.cfg.Audio.SampleRate,
		Channels:   a.cfg.Audio.Channels,
		Queue:      a.queue,
	})
	if err != nil {
		return err
	}
	a.capture = capture
	return nil
}

func (a *App) initServer() {
	a.srv = server.New(server.Config{
		Addr: a.cfg.Server.ListenAddr,
		Session: server.SessionConfig{
			Name:       a.cfg.Device.Name,
			ServerInfo: "voxsat " + Version,
			Password:   a.cfg.Server.Password,
			Handler:    a.engine.Handler(),
		},
	})
}

// initHealth assembles the side HTTP listener: health probes plus the
// Prometheus scrape endpoint.
func (a *App) initHealth() {
	h := health.New(
		health.HubSession(func() bool {
			cur := a.srv.Current()
			return cur != nil && cur.State() == server.StateReady
		}),
		health.AudioQueue(a.queue.Dropped),
		health.WakeWords(a.ActiveWakeWords),
	)
	mux := http.NewServeMux()
	h.Register(mux)
	mux.Handle("GET /metrics", promhttp.Handler())
	a.httpSrv = &http.Server{
		Addr:              a.cfg.Health.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// ActiveWakeWords returns the last applied active wake word set. Safe for
// concurrent use.
func (a *App) ActiveWakeWords() []string {
	if v, ok := a.activeWords.Load().([]string); ok {
		return v
	}
	return nil
}

// Engine exposes the voice session controller, mainly for tests.
func (a *App) Engine() *satellite.Engine { return a.engine }

// Queue exposes the capture queue, mainly for tests.
func (a *App) Queue() *audiopipe.Queue { return a.queue }

// Server exposes the protocol listener, mainly for tests.
func (a *App) Server() *server.Server { return a.srv }

// ApplyConfigChange applies a hot-reloaded configuration diff: log level,
// active wake words, and voice tuning. Settings outside the diff require a
// restart and are ignored here.
func (a *App) ApplyConfigChange(cfg *config.Config, diff config.ConfigDiff) {
	if diff.LogLevelChanged && a.logLevel != nil {
		a.logLevel.Set(SlogLevel(diff.NewLogLevel))
		slog.Info("log level changed", "level", diff.NewLogLevel)
	}
	if diff.ActiveWakeWordsChanged {
		a.engine.ApplyWakeWords(diff.NewActiveWakeWords)
	}
	if diff.RefractoryChanged || diff.SoundsChanged {
		a.engine.UpdateTuning(cfg.Voice.Refractory, cfg.Sounds.Wake, cfg.Sounds.TimerFinished)
	}
}

// Run starts every subsystem and blocks until ctx is cancelled or one of
// them fails. The protocol listener, engine loop, capture process, player
// processes, and health listener all run under one errgroup.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return a.srv.Run(ctx) })
	g.Go(func() error { return a.engine.Run(ctx) })
	g.Go(func() error { return a.capture.Run(ctx) })
	for _, sup := range a.supervisors {
		sup := sup
		g.Go(func() error { return sup.Run(ctx) })
	}

	g.Go(func() error {
		err := a.httpSrv.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("app: health listener: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return a.httpSrv.Shutdown(shutdownCtx)
	})

	if a.discovery {
		if err := a.advertise(); err != nil {
			// The satellite still works for hubs with a static address.
			slog.Warn("mdns advertisement failed", "err", err)
		}
	}

	slog.Info("satellite running",
		"name", a.cfg.Device.Name,
		"listen_addr", a.cfg.Server.ListenAddr,
		"health_addr", a.cfg.Health.ListenAddr,
		"wake_words", a.ActiveWakeWords(),
	)
	return g.Wait()
}

// advertise registers the mDNS service record for hub auto-discovery.
func (a *App) advertise() error {
	_, portStr, err := net.SplitHostPort(a.cfg.Server.ListenAddr)
	if err != nil {
		return fmt.Errorf("parse listen addr: %w", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return fmt.Errorf("parse listen port: %w", err)
	}

	adv, err := discovery.Advertise(discovery.Config{
		Name:         a.cfg.Device.Name,
		FriendlyName: a.cfg.Device.FriendlyName,
		MacAddress:   a.cfg.Device.MacAddress,
		Port:         port,
		Version:      "voxsat " + Version,
	})
	if err != nil {
		return err
	}
	a.advertiser = adv
	return nil
}

// Shutdown tears down everything Run does not stop on its own: the mDNS
// record and the registered closers. It respects the context deadline.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		if a.advertiser != nil {
			a.advertiser.Shutdown()
		}

		for i, closer := range a.closers {
			select {
			case <-ctx.Done():
				slog.Warn("shutdown deadline exceeded", "remaining", len(a.closers)-i)
				shutdownErr = ctx.Err()
				return
			default:
			}
			if err := closer(); err != nil {
				slog.Warn("closer error", "index", i, "err", err)
			}
		}

		slog.Info("shutdown complete")
	})
	return shutdownErr
}

// SlogLevel maps a config level onto its slog value.
func SlogLevel(level config.LogLevel) slog.Level {
	switch level {
	case config.LogDebug:
		return slog.LevelDebug
	case config.LogWarn:
		return slog.LevelWarn
	case config.LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
