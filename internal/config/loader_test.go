package config_test

import (
	"strings"
	"testing"
	"time"

	"github.com/MrWong99/voxsat/internal/config"
)

const validYAML = `
server:
  listen_addr: ":6053"
  password: hunter2
  log_level: info
device:
  name: kitchen-satellite
  friendly_name: Kitchen Satellite
  mac_address: "aa:bb:cc:dd:ee:ff"
voice:
  refractory: 2s
  active_wake_words: [okay_nabu]
wake_words:
  - id: okay_nabu
    phrase: okay nabu
    languages: [en]
    backend: openwakeword
    model_path: models/okay_nabu.tflite
stop_word:
  id: stop
  phrase: stop
sounds:
  wake: sounds/wake.flac
  timer_finished: sounds/timer.flac
`

func TestLoadFromReader_Valid(t *testing.T) {
	t.Parallel()
	cfg, err := config.LoadFromReader(strings.NewReader(validYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Device.Name != "kitchen-satellite" {
		t.Errorf("device.name: got %q", cfg.Device.Name)
	}
	if cfg.Voice.Refractory != 2*time.Second {
		t.Errorf("voice.refractory: got %s", cfg.Voice.Refractory)
	}
	if cfg.StopWord == nil || cfg.StopWord.ID != "stop" {
		t.Errorf("stop_word: got %+v", cfg.StopWord)
	}
	if cfg.StopWord.Backend != "openwakeword" {
		t.Errorf("stop_word backend default: got %q", cfg.StopWord.Backend)
	}
}

func TestLoadFromReader_Defaults(t *testing.T) {
	t.Parallel()
	cfg, err := config.LoadFromReader(strings.NewReader(`
device:
  name: bare
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.ListenAddr != ":6053" {
		t.Errorf("server.listen_addr default: got %q", cfg.Server.ListenAddr)
	}
	if cfg.Server.LogLevel != config.LogInfo {
		t.Errorf("server.log_level default: got %q", cfg.Server.LogLevel)
	}
	if cfg.Voice.Refractory != 2*time.Second {
		t.Errorf("voice.refractory default: got %s", cfg.Voice.Refractory)
	}
	if cfg.Audio.QueueCapacity != 32 {
		t.Errorf("audio.queue_capacity default: got %d", cfg.Audio.QueueCapacity)
	}
	if cfg.Health.ListenAddr != ":8093" {
		t.Errorf("health.listen_addr default: got %q", cfg.Health.ListenAddr)
	}
}

func TestLoadFromReader_UnknownFieldRejected(t *testing.T) {
	t.Parallel()
	_, err := config.LoadFromReader(strings.NewReader(`
device:
  name: typo-test
  freindly_name: oops
`))
	if err == nil {
		t.Fatal("expected error for unknown field, got nil")
	}
}

func TestValidate_MissingDeviceName(t *testing.T) {
	t.Parallel()
	_, err := config.LoadFromReader(strings.NewReader(`
server:
  log_level: info
`))
	if err == nil {
		t.Fatal("expected error for missing device name, got nil")
	}
	if !strings.Contains(err.Error(), "device.name") {
		t.Errorf("error should mention device.name, got: %v", err)
	}
}

func TestValidate_BadLogLevel(t *testing.T) {
	t.Parallel()
	_, err := config.LoadFromReader(strings.NewReader(`
server:
  log_level: bananas
device:
  name: sat
`))
	if err == nil {
		t.Fatal("expected error for bad log level, got nil")
	}
	if !strings.Contains(err.Error(), "log_level") {
		t.Errorf("error should mention log_level, got: %v", err)
	}
}

func TestValidate_BadMacAddress(t *testing.T) {
	t.Parallel()
	_, err := config.LoadFromReader(strings.NewReader(`
device:
  name: sat
  mac_address: "not-a-mac"
`))
	if err == nil {
		t.Fatal("expected error for bad MAC address, got nil")
	}
	if !strings.Contains(err.Error(), "mac_address") {
		t.Errorf("error should mention mac_address, got: %v", err)
	}
}

func TestValidate_DuplicateWakeWordIDs(t *testing.T) {
	t.Parallel()
	_, err := config.LoadFromReader(strings.NewReader(`
device:
  name: sat
wake_words:
  - id: okay_nabu
    phrase: okay nabu
  - id: okay_nabu
    phrase: okay nabu again
`))
	if err == nil {
		t.Fatal("expected error for duplicate wake word ids, got nil")
	}
	if !strings.Contains(err.Error(), "duplicate") {
		t.Errorf("error should mention duplicate, got: %v", err)
	}
}

func TestValidate_ActiveWordMustBeDeclared(t *testing.T) {
	t.Parallel()
	_, err := config.LoadFromReader(strings.NewReader(`
device:
  name: sat
voice:
  active_wake_words: [hey_jarvis]
wake_words:
  - id: okay_nabu
    phrase: okay nabu
`))
	if err == nil {
		t.Fatal("expected error for undeclared active wake word, got nil")
	}
	if !strings.Contains(err.Error(), "hey_jarvis") {
		t.Errorf("error should name the undeclared word, got: %v", err)
	}
}

func TestValidate_TooManyActiveWords(t *testing.T) {
	t.Parallel()
	_, err := config.LoadFromReader(strings.NewReader(`
device:
  name: sat
voice:
  active_wake_words: [a, b, c]
wake_words:
  - id: a
    phrase: alpha
  - id: b
    phrase: bravo
  - id: c
    phrase: charlie
`))
	if err == nil {
		t.Fatal("expected error for too many active wake words, got nil")
	}
	if !strings.Contains(err.Error(), "at most") {
		t.Errorf("error should mention the active word limit, got: %v", err)
	}
}

func TestValidate_CollectsMultipleErrors(t *testing.T) {
	t.Parallel()
	_, err := config.LoadFromReader(strings.NewReader(`
server:
  log_level: loud
wake_words:
  - id: ""
    phrase: ""
`))
	if err == nil {
		t.Fatal("expected errors, got nil")
	}
	for _, want := range []string{"log_level", "device.name", "id must be set", "phrase must be set"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error should contain %q, got: %v", want, err)
		}
	}
}

func TestWords_ConvertsDeclarations(t *testing.T) {
	t.Parallel()
	cfg, err := config.LoadFromReader(strings.NewReader(validYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	words := cfg.Words()
	if len(words) != 1 {
		t.Fatalf("got %d words, want 1", len(words))
	}
	if words[0].ID != "okay_nabu" || words[0].Phrase != "okay nabu" {
		t.Errorf("word conversion: got %+v", words[0])
	}
}
