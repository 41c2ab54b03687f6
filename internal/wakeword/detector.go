// Package wakeword defines the wake-word collaborator boundary. Model
// inference itself is external — a [Model] turns audio chunks into a
// match/no-match signal and nothing else. The [Detector] multiplexes the
// configured models and the stop word over one audio stream.
package wakeword

import (
	"errors"
	"fmt"
	"log/slog"
)

// MaxActive is the number of wake words that may be active at once,
// advertised to the hub during the configuration exchange.
const MaxActive = 2

// ErrUnknownWord reports an activation request for a word id that is not in
// the available set.
var ErrUnknownWord = errors.New("wakeword: unknown word id")

// Word describes one available wake word model.
type Word struct {
	// ID is the stable model identifier (e.g. "okay_nabu").
	ID string

	// Phrase is the spoken wake phrase (e.g. "okay nabu").
	Phrase string

	// Languages lists the languages the model was trained on.
	Languages []string
}

// Detection reports which wake word matched an audio chunk.
type Detection struct {
	ID     string
	Phrase string
}

// Model scores audio chunks for one wake word. Implementations keep their own
// internal streaming state; from the detector's point of view Score is a
// pure chunk-in, verdict-out call.
type Model interface {
	// Score consumes one fixed-format chunk and reports whether the wake
	// word completed within it.
	Score(chunk []byte) bool
}

// Loader instantiates the inference model for an available word. It is called
// lazily when a word first becomes active.
type Loader func(word Word) (Model, error)

// Detector multiplexes wake word models over the audio stream: every chunk is
// scored against all active wake words plus the stop word. Not safe for
// concurrent use — the engine loop is its only caller.
type Detector struct {
	available map[string]Word
	order     []string // stable iteration order for discovery
	loader    Loader

	active map[string]Model
	stop   Model
}

// NewDetector creates a Detector over the available words. stop is the
// always-loaded stop word model; it may be nil when no stop word is
// configured.
func NewDetector(available []Word, loader Loader, stop Model) *Detector {
	d := &Detector{
		available: make(map[string]Word, len(available)),
		loader:    loader,
		active:    make(map[string]Model),
		stop:      stop,
	}
	for _, w := range available {
		if _, dup := d.available[w.ID]; dup {
			continue
		}
		d.available[w.ID] = w
		d.order = append(d.order, w.ID)
	}
	return d
}

// Available returns the available words in registration order.
func (d *Detector) Available() []Word {
	words := make([]Word, 0, len(d.order))
	for _, id := range d.order {
		words = append(words, d.available[id])
	}
	return words
}

// Active returns the ids of the currently active words.
func (d *Detector) Active() []string {
	ids := make([]string, 0, len(d.active))
	for _, id := range d.order {
		if _, ok := d.active[id]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// SetActive replaces the active word set. Unknown ids are skipped with a
// warning; at most [MaxActive] words are activated. Models for newly active
// words are loaded lazily; already-loaded models are reused.
func (d *Detector) SetActive(ids []string) error {
	next := make(map[string]Model, len(ids))
	for _, id := range ids {
		if len(next) >= MaxActive {
			slog.Warn("too many active wake words requested, ignoring extras", "id", id)
			continue
		}
		if m, ok := d.active[id]; ok {
			next[id] = m
			continue
		}
		word, ok := d.available[id]
		if !ok {
			slog.Warn("ignoring unknown wake word id", "id", id)
			continue
		}
		m, err := d.loader(word)
		if err != nil {
			return fmt.Errorf("wakeword: load %q: %w", id, err)
		}
		slog.Info("wake word activated", "id", id, "phrase", word.Phrase)
		next[id] = m
	}
	d.active = next
	return nil
}

// Activate adds a single word to the active set, keeping existing ones.
func (d *Detector) Activate(id string) error {
	if _, ok := d.available[id]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownWord, id)
	}
	return d.SetActive(append(d.Active(), id))
}

// Score runs chunk through all active wake word models and returns the first
// match. All models are always scored so their streaming state stays warm.
func (d *Detector) Score(chunk []byte) (Detection, bool) {
	var det Detection
	var matched bool
	for _, id := range d.order {
		m, ok := d.active[id]
		if !ok {
			continue
		}
		if m.Score(chunk) && !matched {
			word := d.available[id]
			det = Detection{ID: id, Phrase: word.Phrase}
			matched = true
		}
	}
	return det, matched
}

// ScoreStop runs chunk through the stop word model. Whether a stop match has
// any effect is the caller's decision — the model state must advance on every
// chunk regardless.
func (d *Detector) ScoreStop(chunk []byte) bool {
	if d.stop == nil {
		return false
	}
	return d.stop.Score(chunk)
}
