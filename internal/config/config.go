// Package config provides the configuration schema, loader, wake-word model
// registry, and file watcher for the voxsat satellite.
package config

import "time"

// LogLevel controls log verbosity for the satellite process.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Config is the root configuration structure for voxsat.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server    ServerConfig     `yaml:"server"`
	Device    DeviceConfig     `yaml:"device"`
	Voice     VoiceConfig      `yaml:"voice"`
	WakeWords []WakeWordConfig `yaml:"wake_words"`
	StopWord  *WakeWordConfig  `yaml:"stop_word"`
	Sounds    SoundsConfig     `yaml:"sounds"`
	Audio     AudioConfig      `yaml:"audio"`
	Playback  PlaybackConfig   `yaml:"playback"`
	Health    HealthConfig     `yaml:"health"`
}

// ServerConfig holds the protocol listener settings.
type ServerConfig struct {
	// ListenAddr is the TCP address the native API server listens on.
	// Defaults to ":6053".
	ListenAddr string `yaml:"listen_addr"`

	// Password gates hub connections when non-empty.
	Password string `yaml:"password"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`
}

// DeviceConfig is the satellite's stable identity.
type DeviceConfig struct {
	// Name is the node name advertised to the hub (e.g. "kitchen-satellite").
	Name string `yaml:"name"`

	// FriendlyName is the human-readable device name.
	FriendlyName string `yaml:"friendly_name"`

	// MacAddress is the device identity, formatted aa:bb:cc:dd:ee:ff.
	MacAddress string `yaml:"mac_address"`
}

// VoiceConfig tunes the voice session controller.
type VoiceConfig struct {
	// Refractory is the cooldown after a turn before a new wake trigger is
	// accepted. Defaults to 2s.
	Refractory time.Duration `yaml:"refractory"`

	// SuppressDuringAnnouncement drops wake triggers while an announcement
	// is rendering.
	SuppressDuringAnnouncement bool `yaml:"suppress_during_announcement"`

	// ActiveWakeWords lists the initially active wake word IDs. Every entry
	// must reference a declared wake word.
	ActiveWakeWords []string `yaml:"active_wake_words"`
}

// WakeWordConfig declares one wake (or stop) word model.
type WakeWordConfig struct {
	// ID is the stable wake word identifier (e.g. "okay_nabu").
	ID string `yaml:"id"`

	// Phrase is the spoken phrase (e.g. "okay nabu").
	Phrase string `yaml:"phrase"`

	// Languages lists the model's trained languages.
	Languages []string `yaml:"languages"`

	// Backend selects the registered model implementation. Defaults to
	// "openwakeword".
	Backend string `yaml:"backend"`

	// ModelPath points at the model file loaded by the backend.
	ModelPath string `yaml:"model_path"`

	// Command overrides the helper invocation for the "external" backend.
	// ModelPath, when set, is appended as the last argument.
	Command []string `yaml:"command"`
}

// SoundsConfig lists the local feedback sounds.
type SoundsConfig struct {
	// Wake is the cue played when listening starts. Empty disables it.
	Wake string `yaml:"wake"`

	// TimerFinished is looped while a finished timer rings.
	TimerFinished string `yaml:"timer_finished"`
}

// AudioConfig tunes microphone capture and the handoff queue.
type AudioConfig struct {
	// QueueCapacity bounds the chunk queue between the capture thread and
	// the engine loop. Defaults to 32.
	QueueCapacity int `yaml:"queue_capacity"`

	// CaptureCommand is the process that writes raw PCM to stdout. Defaults
	// to arecord reading the default device at the capture format below.
	CaptureCommand []string `yaml:"capture_command"`

	// SampleRate is the capture sample rate in Hz. Audio is resampled to the
	// pipeline's 16 kHz when this differs. Defaults to 16000.
	SampleRate int `yaml:"sample_rate"`

	// Channels is the capture channel count (1 or 2); stereo capture is
	// downmixed. Defaults to 1.
	Channels int `yaml:"channels"`
}

// PlaybackConfig holds the media player process settings.
type PlaybackConfig struct {
	// Binary is the mpv executable used for both players. Defaults to "mpv".
	Binary string `yaml:"binary"`

	// AudioDevice selects the output device; empty uses the system default.
	AudioDevice string `yaml:"audio_device"`
}

// HealthConfig holds the side HTTP listener for health and metrics.
type HealthConfig struct {
	// ListenAddr is the HTTP address serving /healthz, /readyz, and
	// /metrics. Defaults to ":8093".
	ListenAddr string `yaml:"listen_addr"`
}
