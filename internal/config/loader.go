package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"slices"
	"time"

	"github.com/MrWong99/voxsat/internal/wakeword"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig wraps all validation failures reported by [Config.Validate].
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Load reads, parses, and validates the configuration file at path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()
	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: load %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader parses and validates a YAML configuration from r. Unknown
// fields are rejected so typos surface at startup instead of silently using
// defaults.
func LoadFromReader(r io.Reader) (*Config, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = ":6053"
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = LogInfo
	}
	if c.Voice.Refractory == 0 {
		c.Voice.Refractory = 2 * time.Second
	}
	if c.Audio.QueueCapacity == 0 {
		c.Audio.QueueCapacity = 32
	}
	if c.Audio.SampleRate == 0 {
		c.Audio.SampleRate = 16000
	}
	if c.Audio.Channels == 0 {
		c.Audio.Channels = 1
	}
	if len(c.Audio.CaptureCommand) == 0 {
		c.Audio.CaptureCommand = []string{
			"arecord", "-q",
			"-f", "S16_LE",
			"-r", fmt.Sprint(c.Audio.SampleRate),
			"-c", fmt.Sprint(c.Audio.Channels),
			"-t", "raw",
		}
	}
	if c.Playback.Binary == "" {
		c.Playback.Binary = "mpv"
	}
	if c.Health.ListenAddr == "" {
		c.Health.ListenAddr = ":8093"
	}
	for i := range c.WakeWords {
		if c.WakeWords[i].Backend == "" {
			c.WakeWords[i].Backend = "openwakeword"
		}
	}
	if c.StopWord != nil && c.StopWord.Backend == "" {
		c.StopWord.Backend = "openwakeword"
	}
}

// Validate checks the configuration for internal consistency. All problems are
// collected and reported together via errors.Join, wrapped in
// [ErrInvalidConfig].
func (c *Config) Validate() error {
	var errs []error

	if !c.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is not one of debug, info, warn, error", c.Server.LogLevel))
	}
	if c.Device.Name == "" {
		errs = append(errs, errors.New("device.name must be set"))
	}
	if c.Device.MacAddress != "" {
		if _, err := net.ParseMAC(c.Device.MacAddress); err != nil {
			errs = append(errs, fmt.Errorf("device.mac_address: %w", err))
		}
	}
	if c.Voice.Refractory < 0 {
		errs = append(errs, fmt.Errorf("voice.refractory must not be negative, got %s", c.Voice.Refractory))
	}
	if c.Audio.QueueCapacity < 1 {
		errs = append(errs, fmt.Errorf("audio.queue_capacity must be at least 1, got %d", c.Audio.QueueCapacity))
	}
	if c.Audio.SampleRate < 8000 {
		errs = append(errs, fmt.Errorf("audio.sample_rate must be at least 8000, got %d", c.Audio.SampleRate))
	}
	if c.Audio.Channels != 1 && c.Audio.Channels != 2 {
		errs = append(errs, fmt.Errorf("audio.channels must be 1 or 2, got %d", c.Audio.Channels))
	}

	seen := make(map[string]bool, len(c.WakeWords))
	for i, w := range c.WakeWords {
		if err := w.validate(fmt.Sprintf("wake_words[%d]", i)); err != nil {
			errs = append(errs, err)
			continue
		}
		if seen[w.ID] {
			errs = append(errs, fmt.Errorf("wake_words[%d]: duplicate id %q", i, w.ID))
		}
		seen[w.ID] = true
	}
	if c.StopWord != nil {
		if err := c.StopWord.validate("stop_word"); err != nil {
			errs = append(errs, err)
		}
	}

	if len(c.Voice.ActiveWakeWords) > wakeword.MaxActive {
		errs = append(errs, fmt.Errorf("voice.active_wake_words: at most %d words may be active, got %d", wakeword.MaxActive, len(c.Voice.ActiveWakeWords)))
	}
	for _, id := range c.Voice.ActiveWakeWords {
		if !seen[id] {
			errs = append(errs, fmt.Errorf("voice.active_wake_words: %q is not a declared wake word", id))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

func (w WakeWordConfig) validate(field string) error {
	var errs []error
	if w.ID == "" {
		errs = append(errs, fmt.Errorf("%s: id must be set", field))
	}
	if w.Phrase == "" {
		errs = append(errs, fmt.Errorf("%s: phrase must be set", field))
	}
	if !slices.Contains(ValidBackendNames(), w.Backend) {
		// Not fatal: backends register at runtime, so an unknown name may
		// still resolve. It fails loudly in the registry if it does not.
		slog.Warn("wake word backend is not a built-in", "field", field, "backend", w.Backend)
	}
	return errors.Join(errs...)
}

// Words converts the declared wake words to their detector representation.
func (c *Config) Words() []wakeword.Word {
	words := make([]wakeword.Word, 0, len(c.WakeWords))
	for _, w := range c.WakeWords {
		words = append(words, wakeword.Word{ID: w.ID, Phrase: w.Phrase, Languages: w.Languages})
	}
	return words
}
