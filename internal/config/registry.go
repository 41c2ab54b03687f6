package config

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/MrWong99/voxsat/internal/wakeword"
)

// ErrBackendNotRegistered reports a wake word referencing a backend no one
// registered.
var ErrBackendNotRegistered = errors.New("config: wake word backend not registered")

// BackendFactory instantiates an inference model from its declaration.
type BackendFactory func(cfg WakeWordConfig) (wakeword.Model, error)

var (
	backendMu sync.RWMutex
	backends  = make(map[string]BackendFactory)
)

// RegisterBackend makes a wake word backend available under name. Later
// registrations under the same name replace earlier ones.
func RegisterBackend(name string, factory BackendFactory) {
	backendMu.Lock()
	defer backendMu.Unlock()
	backends[name] = factory
}

// ValidBackendNames returns the registered backend names, sorted.
func ValidBackendNames() []string {
	backendMu.RLock()
	defer backendMu.RUnlock()
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewModel builds the inference model for one declared wake word via its
// registered backend.
func NewModel(cfg WakeWordConfig) (wakeword.Model, error) {
	backendMu.RLock()
	factory, ok := backends[cfg.Backend]
	backendMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q (registered: %v)", ErrBackendNotRegistered, cfg.Backend, ValidBackendNames())
	}
	m, err := factory(cfg)
	if err != nil {
		return nil, fmt.Errorf("config: backend %q: build model for %q: %w", cfg.Backend, cfg.ID, err)
	}
	return m, nil
}

// Loader returns a [wakeword.Loader] resolving word ids against the declared
// wake words, building each model through its backend on first activation.
func (c *Config) Loader() wakeword.Loader {
	byID := make(map[string]WakeWordConfig, len(c.WakeWords))
	for _, w := range c.WakeWords {
		byID[w.ID] = w
	}
	return func(word wakeword.Word) (wakeword.Model, error) {
		decl, ok := byID[word.ID]
		if !ok {
			return nil, fmt.Errorf("config: no declaration for wake word %q", word.ID)
		}
		return NewModel(decl)
	}
}

// StopModel builds the stop word model, or returns nil when no stop word is
// configured.
func (c *Config) StopModel() (wakeword.Model, error) {
	if c.StopWord == nil {
		return nil, nil
	}
	return NewModel(*c.StopWord)
}
