package entity

import (
	"log/slog"

	"github.com/MrWong99/voxsat/internal/protocol"
)

// maxTextLen is the hub-side limit on text sensor state length.
const maxTextLen = 250

// Compile-time interface assertions.
var (
	_ Entity = (*TextAttribute)(nil)
	_ Entity = (*Switch)(nil)
	_ Entity = (*Button)(nil)
	_ Entity = (*Select)(nil)
)

// TextAttribute exposes a read-only text value to the hub (e.g. the text of
// the response currently being spoken). Mutated only by the engine via
// [TextAttribute.Update].
type TextAttribute struct {
	key      uint32
	name     string
	objectID string
	emit     Emitter

	text string
}

// NewTextAttribute creates a text attribute entity.
func NewTextAttribute(key uint32, name, objectID string, emit Emitter) *TextAttribute {
	return &TextAttribute{key: key, name: name, objectID: objectID, emit: emit}
}

func (t *TextAttribute) Key() uint32      { return t.key }
func (t *TextAttribute) ObjectID() string { return t.objectID }

func (t *TextAttribute) Describe() protocol.Message {
	return &protocol.ListEntitiesTextSensorResponse{
		ObjectID: t.objectID,
		Key:      t.key,
		Name:     t.name,
	}
}

func (t *TextAttribute) State() protocol.Message {
	return &protocol.TextSensorStateResponse{Key: t.key, State: t.text}
}

// HandleCommand is a no-op: text attributes accept no commands.
func (t *TextAttribute) HandleCommand(protocol.Message) {}

// Update sets the text (truncated to the hub's limit) and emits the new
// state.
func (t *TextAttribute) Update(text string) {
	if len(text) > maxTextLen {
		text = text[:maxTextLen-3] + "..."
	}
	t.text = text
	t.emit(t.State())
}

// Text returns the current text value.
func (t *TextAttribute) Text() string { return t.text }

// Switch exposes a boolean toggle (e.g. assistant mute). OnChange runs for
// hub-commanded changes and for [Switch.Set]; if it panics the state is not
// rolled back — a change handler must not fail.
type Switch struct {
	key      uint32
	name     string
	objectID string
	icon     string
	emit     Emitter

	on       bool
	onChange func(on bool)
}

// NewSwitch creates a switch entity. onChange may be nil.
func NewSwitch(key uint32, name, objectID, icon string, initial bool, onChange func(bool), emit Emitter) *Switch {
	return &Switch{
		key: key, name: name, objectID: objectID, icon: icon,
		on: initial, onChange: onChange, emit: emit,
	}
}

func (s *Switch) Key() uint32      { return s.key }
func (s *Switch) ObjectID() string { return s.objectID }

func (s *Switch) Describe() protocol.Message {
	return &protocol.ListEntitiesSwitchResponse{
		ObjectID: s.objectID,
		Key:      s.key,
		Name:     s.name,
		Icon:     s.icon,
	}
}

func (s *Switch) State() protocol.Message {
	return &protocol.SwitchStateResponse{Key: s.key, State: s.on}
}

func (s *Switch) HandleCommand(msg protocol.Message) {
	cmd, ok := msg.(*protocol.SwitchCommandRequest)
	if !ok {
		return
	}
	slog.Info("switch command", "object_id", s.objectID, "state", cmd.State)
	s.Set(cmd.State)
}

// Set changes the switch state, runs the change handler, and emits the new
// state.
func (s *Switch) Set(on bool) {
	s.on = on
	if s.onChange != nil {
		s.onChange(on)
	}
	s.emit(s.State())
}

// On returns the current switch state.
func (s *Switch) On() bool { return s.on }

// Button exposes a momentary action (e.g. push-to-talk). It has no state.
type Button struct {
	key      uint32
	name     string
	objectID string
	icon     string

	onPress func()
}

// NewButton creates a button entity. onPress may be nil.
func NewButton(key uint32, name, objectID, icon string, onPress func()) *Button {
	return &Button{key: key, name: name, objectID: objectID, icon: icon, onPress: onPress}
}

func (b *Button) Key() uint32             { return b.key }
func (b *Button) ObjectID() string        { return b.objectID }
func (b *Button) State() protocol.Message { return nil }

func (b *Button) Describe() protocol.Message {
	return &protocol.ListEntitiesButtonResponse{
		ObjectID: b.objectID,
		Key:      b.key,
		Name:     b.name,
		Icon:     b.icon,
	}
}

func (b *Button) HandleCommand(msg protocol.Message) {
	if _, ok := msg.(*protocol.ButtonCommandRequest); !ok {
		return
	}
	slog.Info("button pressed", "object_id", b.objectID)
	if b.onPress != nil {
		b.onPress()
	}
}

// Select exposes a single choice out of a fixed option list (e.g. the audio
// input device).
type Select struct {
	key      uint32
	name     string
	objectID string
	icon     string
	options  []string
	emit     Emitter

	current  string
	onSelect func(option string)
}

// NewSelect creates a select entity. onSelect may be nil.
func NewSelect(key uint32, name, objectID, icon string, options []string, initial string, onSelect func(string), emit Emitter) *Select {
	return &Select{
		key: key, name: name, objectID: objectID, icon: icon,
		options: options, current: initial, onSelect: onSelect, emit: emit,
	}
}

func (s *Select) Key() uint32      { return s.key }
func (s *Select) ObjectID() string { return s.objectID }

func (s *Select) Describe() protocol.Message {
	return &protocol.ListEntitiesSelectResponse{
		ObjectID: s.objectID,
		Key:      s.key,
		Name:     s.name,
		Icon:     s.icon,
		Options:  s.options,
	}
}

func (s *Select) State() protocol.Message {
	return &protocol.SelectStateResponse{Key: s.key, State: s.current}
}

func (s *Select) HandleCommand(msg protocol.Message) {
	cmd, ok := msg.(*protocol.SelectCommandRequest)
	if !ok {
		return
	}
	if !s.hasOption(cmd.State) {
		slog.Warn("select command for unknown option", "object_id", s.objectID, "option", cmd.State)
		return
	}
	slog.Info("select command", "object_id", s.objectID, "option", cmd.State)
	s.current = cmd.State
	if s.onSelect != nil {
		s.onSelect(cmd.State)
	}
	s.emit(s.State())
}

// Current returns the currently selected option.
func (s *Select) Current() string { return s.current }

func (s *Select) hasOption(opt string) bool {
	for _, o := range s.options {
		if o == opt {
			return true
		}
	}
	return false
}
