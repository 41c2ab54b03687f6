package config

import (
	"slices"
	"time"
)

// ConfigDiff describes which hot-reloadable settings changed between two
// configurations. Settings outside this set (listener addresses, device
// identity, declared wake words) require a restart.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	ActiveWakeWordsChanged bool
	NewActiveWakeWords     []string

	RefractoryChanged bool
	NewRefractory     time.Duration

	SoundsChanged bool
	NewSounds     SoundsConfig
}

// Any reports whether the diff contains at least one change.
func (d ConfigDiff) Any() bool {
	return d.LogLevelChanged || d.ActiveWakeWordsChanged || d.RefractoryChanged || d.SoundsChanged
}

// Diff computes the hot-reloadable changes from old to new.
func Diff(old, new *Config) ConfigDiff {
	var d ConfigDiff
	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}
	if !slices.Equal(old.Voice.ActiveWakeWords, new.Voice.ActiveWakeWords) {
		d.ActiveWakeWordsChanged = true
		d.NewActiveWakeWords = slices.Clone(new.Voice.ActiveWakeWords)
	}
	if old.Voice.Refractory != new.Voice.Refractory {
		d.RefractoryChanged = true
		d.NewRefractory = new.Voice.Refractory
	}
	if old.Sounds != new.Sounds {
		d.SoundsChanged = true
		d.NewSounds = new.Sounds
	}
	return d
}
