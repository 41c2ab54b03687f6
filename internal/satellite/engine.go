// Package satellite implements the voice session controller: the single
// event loop that turns audio chunks and hub messages into voice turns,
// entity updates, and playback.
//
// Concurrency model: one goroutine (started by [Engine.Run]) owns all engine
// state. Inbound hub messages, session lifecycle events, and timer callbacks
// are posted onto the loop through a call channel; the audio queue is drained
// on the same loop via its readiness signal. The only cross-goroutine
// structures are the audio queue, the current-session reference, and the
// playback coordinator — everything else is loop-confined and lock-free.
package satellite

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/MrWong99/voxsat/internal/audiopipe"
	"github.com/MrWong99/voxsat/internal/entity"
	"github.com/MrWong99/voxsat/internal/observe"
	"github.com/MrWong99/voxsat/internal/playback"
	"github.com/MrWong99/voxsat/internal/protocol"
	"github.com/MrWong99/voxsat/internal/server"
	"github.com/MrWong99/voxsat/internal/wakeword"
)

// Default engine timings.
const (
	defaultRefractory     = 2 * time.Second
	defaultAttributeClear = 5 * time.Second
	defaultTimerRingGap   = 1 * time.Second
)

// Entity keys are assigned at startup and stable for the process lifetime.
const (
	KeyMediaPlayer uint32 = iota + 1
	KeyActiveSTT
	KeyActiveTTS
	KeyActiveAssistant
	KeyMuteSwitch
	KeyPushToTalk
	KeyWakeWordSelect
)

// State is the engine's voice lifecycle position.
type State int

const (
	StateIdle State = iota
	StateStreaming
	StateAwaitingResponse
	StateAnnouncing
)

// String returns the state name, also used as the assistant activity text.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStreaming:
		return "listening"
	case StateAwaitingResponse:
		return "thinking"
	case StateAnnouncing:
		return "replying"
	}
	return "unknown"
}

// Sender delivers messages to the hub. Satisfied by [server.Session]; sends
// on a dead session return [server.ErrSessionClosed], which the engine
// swallows.
type Sender interface {
	Send(msgs ...protocol.Message) error
}

// Config carries the resolved satellite settings. The engine does no file or
// environment access of its own.
type Config struct {
	// Name is the node name advertised in the device info exchange.
	Name string

	// FriendlyName is the human-readable device name.
	FriendlyName string

	// MacAddress is the stable device identity, formatted aa:bb:cc:dd:ee:ff.
	MacAddress string

	// ServerVersion is reported in the device info exchange.
	ServerVersion string

	// UsesPassword mirrors the transport's password setting in device info.
	UsesPassword bool

	// Refractory is the cooldown after a turn ends before a new wake trigger
	// is accepted. Defaults to 2s if zero.
	Refractory time.Duration

	// SuppressDuringAnnouncement drops wake triggers while an announcement
	// is rendering, instead of relying only on the single-turn invariant.
	SuppressDuringAnnouncement bool

	// WakeSound is the cue played when listening starts. Empty disables it.
	WakeSound string

	// TimerFinishedSound is looped while a finished timer rings. Empty
	// disables ringing.
	TimerFinishedSound string

	// AttributeClearDelay is how long pipeline text attributes linger after
	// a turn completes. Defaults to 5s if zero.
	AttributeClearDelay time.Duration

	// TimerRingGap is the pause between timer-finished sound repetitions.
	// Defaults to 1s if zero.
	TimerRingGap time.Duration

	// OnConfigChange is called with the new active wake word set after the
	// hub reconfigures it, so the owner can persist the choice. May be nil.
	OnConfigChange func(activeWakeWords []string)
}

// turn is one trigger-to-completion voice interaction.
type turn struct {
	id             string
	wakeWord       string
	started        time.Time
	conversationID string
	manual         bool

	ttsURL       string
	ttsStarted   bool
	continueConv bool
}

// Engine is the voice session controller. Construct with [New], drive with
// [Engine.Run]; the exported entry points ([Engine.SessionReady],
// [Engine.HandleMessage], [Engine.SessionLost]) are safe to call from any
// goroutine.
type Engine struct {
	cfg     Config
	queue   *audiopipe.Queue
	det     *wakeword.Detector
	coord   *playback.Coordinator
	reg     *entity.Registry
	metrics *observe.Metrics

	calls chan func()

	sessMu sync.Mutex
	sess   Sender

	// Loop-confined state below.
	subscribed bool
	hubFlags   uint64

	state          State
	turn           *turn
	cooldownUntil  time.Time
	stopOnAnnounce bool

	ringing   bool
	ringTimer *time.Timer

	clearTimer *time.Timer

	player          *entity.MediaPlayer
	activeSTT       *entity.TextAttribute
	activeTTS       *entity.TextAttribute
	activeAssistant *entity.TextAttribute
	muteSwitch      *entity.Switch
}

// New wires the engine over its collaborators. metrics may be nil, in which
// case the process-wide default instruments are used.
func New(cfg Config, queue *audiopipe.Queue, det *wakeword.Detector, coord *playback.Coordinator, metrics *observe.Metrics) (*Engine, error) {
	if cfg.Refractory <= 0 {
		cfg.Refractory = defaultRefractory
	}
	if cfg.AttributeClearDelay <= 0 {
		cfg.AttributeClearDelay = defaultAttributeClear
	}
	if cfg.TimerRingGap <= 0 {
		cfg.TimerRingGap = defaultTimerRingGap
	}
	if metrics == nil {
		metrics = observe.DefaultMetrics()
	}

	e := &Engine{
		cfg:     cfg,
		queue:   queue,
		det:     det,
		coord:   coord,
		reg:     entity.NewRegistry(),
		metrics: metrics,
		calls:   make(chan func(), 256),
	}

	emit := entity.Emitter(e.send)
	e.player = entity.NewMediaPlayer(KeyMediaPlayer, "Media Player", "media_player", coord, emit)
	e.activeSTT = entity.NewTextAttribute(KeyActiveSTT, "Active STT", "active_stt", emit)
	e.activeTTS = entity.NewTextAttribute(KeyActiveTTS, "Active TTS", "active_tts", emit)
	e.activeAssistant = entity.NewTextAttribute(KeyActiveAssistant, "Active Assistant", "active_assistant", emit)
	e.muteSwitch = entity.NewSwitch(KeyMuteSwitch, "Assistant Mute", "assistant_mute", "mdi:microphone-off",
		false, func(on bool) {
			slog.Info("assistant mute changed", "muted", on)
		}, emit)
	ptt := entity.NewButton(KeyPushToTalk, "Push to Talk", "push_to_talk", "mdi:microphone",
		func() { e.trigger("", true) })

	var wakeOptions []string
	for _, w := range det.Available() {
		wakeOptions = append(wakeOptions, w.ID)
	}
	var initialWake string
	if active := det.Active(); len(active) > 0 {
		initialWake = active[0]
	}
	wakeSelect := entity.NewSelect(KeyWakeWordSelect, "Wake Word", "wake_word", "mdi:chat-sleep",
		wakeOptions, initialWake, func(id string) { e.selectWakeWord(id) }, emit)

	for _, ent := range []entity.Entity{e.player, e.activeSTT, e.activeTTS, e.activeAssistant, e.muteSwitch, ptt, wakeSelect} {
		if err := e.reg.Register(ent); err != nil {
			return nil, err
		}
	}
	e.activeAssistant.Update(StateIdle.String())
	return e, nil
}

// Run drives the engine loop until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	slog.Info("engine running",
		"name", e.cfg.Name,
		"refractory", e.cfg.Refractory,
		"wake_words", e.det.Active(),
	)
	for {
		select {
		case <-ctx.Done():
			return nil
		case f := <-e.calls:
			f()
		case <-e.queue.Ready():
			e.drainAudio()
		}
	}
}

// post schedules f onto the engine loop.
func (e *Engine) post(f func()) {
	e.calls <- f
}

// SessionReady installs s as the live hub session. Called by the transport
// once the handshake completes.
func (e *Engine) SessionReady(s Sender) {
	e.sessMu.Lock()
	e.sess = s
	e.sessMu.Unlock()
	e.post(func() { e.subscribed = false })
}

// HandleMessage feeds a post-handshake hub message into the loop.
func (e *Engine) HandleMessage(msg protocol.Message) {
	e.post(func() { e.dispatch(msg) })
}

// SessionLost reports that s has closed. A stale close (the session was
// already replaced) is ignored.
func (e *Engine) SessionLost(s Sender) {
	e.sessMu.Lock()
	if e.sess == s {
		e.sess = nil
	}
	e.sessMu.Unlock()
	e.post(func() { e.sessionLost() })
}

// send delivers messages to the current session, if any. Safe from any
// goroutine; a closed or missing session makes this a no-op, so entity and
// playback callbacks never observe a dead peer.
func (e *Engine) send(msgs ...protocol.Message) {
	e.sessMu.Lock()
	s := e.sess
	e.sessMu.Unlock()
	if s == nil {
		return
	}
	if err := s.Send(msgs...); err != nil && !errors.Is(err, server.ErrSessionClosed) {
		slog.Warn("send failed", "error", err)
	}
}

func (e *Engine) hasSession() bool {
	e.sessMu.Lock()
	defer e.sessMu.Unlock()
	return e.sess != nil
}

// dispatch routes one ready-state hub message. Runs on the loop.
func (e *Engine) dispatch(msg protocol.Message) {
	switch m := msg.(type) {
	case *protocol.DeviceInfoRequest:
		e.send(e.deviceInfo())

	case *protocol.ListEntitiesRequest:
		msgs := append(e.reg.DescribeAll(), &protocol.ListEntitiesDoneResponse{})
		e.send(msgs...)

	case *protocol.SubscribeHomeAssistantStatesRequest:
		e.send(e.reg.States()...)

	case *protocol.SubscribeVoiceAssistantRequest:
		slog.Info("voice assistant subscription", "subscribe", m.Subscribe, "flags", m.Flags)
		e.subscribed = m.Subscribe
		e.hubFlags = m.Flags

	case *protocol.VoiceAssistantEventResponse:
		e.handleVoiceEvent(m)

	case *protocol.VoiceAssistantAnnounceRequest:
		e.handleAnnounce(m)

	case *protocol.VoiceAssistantTimerEventResponse:
		e.handleTimerEvent(m)

	case *protocol.VoiceAssistantConfigurationRequest:
		e.sendConfiguration()

	case *protocol.VoiceAssistantSetConfiguration:
		e.applyConfiguration(m.ActiveWakeWords)

	case *protocol.SwitchCommandRequest, *protocol.ButtonCommandRequest,
		*protocol.SelectCommandRequest, *protocol.MediaPlayerCommandRequest:
		e.reg.Dispatch(msg)

	default:
		slog.Debug("unhandled message", "tag", msg.Tag())
	}
}

func (e *Engine) deviceInfo() *protocol.DeviceInfoResponse {
	return &protocol.DeviceInfoResponse{
		UsesPassword:               e.cfg.UsesPassword,
		Name:                       e.cfg.Name,
		MacAddress:                 e.cfg.MacAddress,
		ServerVersion:              e.cfg.ServerVersion,
		FriendlyName:               e.cfg.FriendlyName,
		VoiceAssistantFeatureFlags: e.featureFlags(),
	}
}

func (e *Engine) featureFlags() uint64 {
	return protocol.FeatureVoiceAssistant |
		protocol.FeatureSpeaker |
		protocol.FeatureAPIAudio |
		protocol.FeatureTimers |
		protocol.FeatureAnnounce |
		protocol.FeatureStartConversation
}

// drainAudio consumes every buffered chunk. Runs on the loop.
func (e *Engine) drainAudio() {
	for {
		chunk, ok := e.queue.Pop()
		if !ok {
			return
		}
		e.consumeChunk(chunk)
	}
}

func (e *Engine) consumeChunk(chunk audiopipe.Chunk) {
	// The stop word outranks everything: it silences a ringing timer and
	// cancels a live turn or announcement.
	if e.stopArmed() && e.det.ScoreStop(chunk) {
		e.handleStopWord()
		return
	}

	// Wake scoring runs on every chunk, match consumed or not, so the
	// models' streaming state stays warm.
	det, matched := e.det.Score(chunk)
	if matched {
		e.handleWake(det)
	}

	if e.state == StateStreaming {
		e.send(&protocol.VoiceAssistantAudio{Data: chunk})
	}
}

func (e *Engine) stopArmed() bool {
	return e.ringing ||
		e.state == StateStreaming ||
		e.state == StateAwaitingResponse ||
		(e.state == StateAnnouncing && e.stopOnAnnounce)
}

func (e *Engine) handleWake(d wakeword.Detection) {
	if e.ringing {
		slog.Info("wake word silences ringing timer", "word", d.ID)
		e.stopRinging()
		return
	}
	if e.muteSwitch.On() {
		slog.Info("wake trigger dropped: assistant muted", "word", d.ID)
		return
	}
	e.metrics.RecordWakeTrigger(context.Background(), d.ID)
	e.trigger(d.Phrase, false)
}

// selectWakeWord makes id the sole active wake word. Runs on the loop via
// entity dispatch.
func (e *Engine) selectWakeWord(id string) {
	e.applyConfiguration([]string{id})
}

// ApplyWakeWords replaces the active wake word set, with the same semantics
// as a hub set-configuration message. Safe from any goroutine.
func (e *Engine) ApplyWakeWords(ids []string) {
	e.post(func() { e.applyConfiguration(ids) })
}

// UpdateTuning adjusts the hot-reloadable timing and sound settings. Current
// turns keep the values they started with; the next turn picks up the new
// ones. Safe from any goroutine.
func (e *Engine) UpdateTuning(refractory time.Duration, wakeSound, timerSound string) {
	e.post(func() {
		if refractory > 0 {
			e.cfg.Refractory = refractory
		}
		e.cfg.WakeSound = wakeSound
		e.cfg.TimerFinishedSound = timerSound
		slog.Info("engine tuning updated",
			"refractory", e.cfg.Refractory,
			"wake_sound", wakeSound,
			"timer_finished_sound", timerSound,
		)
	})
}
