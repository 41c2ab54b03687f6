package config_test

import (
	"testing"
	"time"

	"github.com/MrWong99/voxsat/internal/config"
)

func baseConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{LogLevel: config.LogInfo},
		Voice: config.VoiceConfig{
			Refractory:      2 * time.Second,
			ActiveWakeWords: []string{"okay_nabu"},
		},
		Sounds: config.SoundsConfig{Wake: "wake.flac", TimerFinished: "timer.flac"},
	}
}

func TestDiff_NoChanges(t *testing.T) {
	t.Parallel()
	old, new := baseConfig(), baseConfig()
	if d := config.Diff(old, new); d.Any() {
		t.Errorf("identical configs should produce an empty diff, got %+v", d)
	}
}

func TestDiff_LogLevel(t *testing.T) {
	t.Parallel()
	old, new := baseConfig(), baseConfig()
	new.Server.LogLevel = config.LogDebug
	d := config.Diff(old, new)
	if !d.LogLevelChanged || d.NewLogLevel != config.LogDebug {
		t.Errorf("diff = %+v, want log level change to debug", d)
	}
	if d.ActiveWakeWordsChanged || d.RefractoryChanged || d.SoundsChanged {
		t.Errorf("unrelated fields flagged: %+v", d)
	}
}

func TestDiff_ActiveWakeWords(t *testing.T) {
	t.Parallel()
	old, new := baseConfig(), baseConfig()
	new.Voice.ActiveWakeWords = []string{"hey_jarvis"}
	d := config.Diff(old, new)
	if !d.ActiveWakeWordsChanged {
		t.Fatal("active wake word change not detected")
	}
	if len(d.NewActiveWakeWords) != 1 || d.NewActiveWakeWords[0] != "hey_jarvis" {
		t.Errorf("NewActiveWakeWords = %v", d.NewActiveWakeWords)
	}
}

func TestDiff_RefractoryAndSounds(t *testing.T) {
	t.Parallel()
	old, new := baseConfig(), baseConfig()
	new.Voice.Refractory = 5 * time.Second
	new.Sounds.Wake = "other.flac"
	d := config.Diff(old, new)
	if !d.RefractoryChanged || d.NewRefractory != 5*time.Second {
		t.Errorf("refractory change not detected: %+v", d)
	}
	if !d.SoundsChanged || d.NewSounds.Wake != "other.flac" {
		t.Errorf("sound change not detected: %+v", d)
	}
	if !d.Any() {
		t.Error("Any() should report true")
	}
}
