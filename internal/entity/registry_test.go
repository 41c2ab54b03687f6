package entity_test

import (
	"errors"
	"testing"

	"github.com/MrWong99/voxsat/internal/entity"
	"github.com/MrWong99/voxsat/internal/protocol"
)

// collectEmitter records every emitted state message.
func collectEmitter(sink *[]protocol.Message) entity.Emitter {
	return func(msgs ...protocol.Message) {
		*sink = append(*sink, msgs...)
	}
}

func TestRegisterDuplicateKey(t *testing.T) {
	t.Parallel()

	r := entity.NewRegistry()
	var sink []protocol.Message
	emit := collectEmitter(&sink)

	if err := r.Register(entity.NewTextAttribute(1, "Active TTS", "active_tts", emit)); err != nil {
		t.Fatalf("Register: %v", err)
	}
	err := r.Register(entity.NewTextAttribute(1, "Active STT", "active_stt", emit))
	if !errors.Is(err, entity.ErrDuplicateKey) {
		t.Fatalf("Register duplicate: expected ErrDuplicateKey, got %v", err)
	}
}

func TestDescribeAllPreservesRegistrationOrder(t *testing.T) {
	t.Parallel()

	r := entity.NewRegistry()
	var sink []protocol.Message
	emit := collectEmitter(&sink)

	entities := []entity.Entity{
		entity.NewTextAttribute(r.NextKey(), "Active TTS", "active_tts", emit),
		entity.NewSwitch(2, "Assistant Mute", "assistant_mute", "mdi:microphone-off", false, nil, emit),
		entity.NewButton(3, "Push to Talk", "push_to_talk", "mdi:microphone", nil),
	}
	for _, e := range entities {
		if err := r.Register(e); err != nil {
			t.Fatalf("Register %s: %v", e.ObjectID(), err)
		}
	}

	descs := r.DescribeAll()
	if len(descs) != 3 {
		t.Fatalf("DescribeAll: got %d descriptors, want 3", len(descs))
	}
	wantTags := []protocol.Tag{
		protocol.TagListEntitiesTextSensorResponse,
		protocol.TagListEntitiesSwitchResponse,
		protocol.TagListEntitiesButtonResponse,
	}
	for i, d := range descs {
		if d.Tag() != wantTags[i] {
			t.Fatalf("descriptor %d: tag %s, want %s", i, d.Tag(), wantTags[i])
		}
	}
}

func TestStatesSkipsStatelessEntities(t *testing.T) {
	t.Parallel()

	r := entity.NewRegistry()
	var sink []protocol.Message
	emit := collectEmitter(&sink)

	_ = r.Register(entity.NewTextAttribute(1, "Active TTS", "active_tts", emit))
	_ = r.Register(entity.NewButton(2, "Push to Talk", "push_to_talk", "mdi:microphone", nil))

	states := r.States()
	if len(states) != 1 {
		t.Fatalf("States: got %d messages, want 1 (button has no state)", len(states))
	}
	if states[0].Tag() != protocol.TagTextSensorStateResponse {
		t.Fatalf("States: tag %s", states[0].Tag())
	}
}

func TestDispatchRoutesByKey(t *testing.T) {
	t.Parallel()

	r := entity.NewRegistry()
	var sink []protocol.Message
	emit := collectEmitter(&sink)

	var changed []bool
	sw := entity.NewSwitch(7, "Assistant Mute", "assistant_mute", "", false,
		func(on bool) { changed = append(changed, on) }, emit)
	_ = r.Register(sw)

	r.Dispatch(&protocol.SwitchCommandRequest{Key: 7, State: true})

	if !sw.On() {
		t.Fatal("Dispatch: switch state not applied")
	}
	if len(changed) != 1 || !changed[0] {
		t.Fatalf("Dispatch: onChange calls = %v, want [true]", changed)
	}
	if len(sink) != 1 {
		t.Fatalf("Dispatch: emitted %d messages, want 1 state update", len(sink))
	}
	state, ok := sink[0].(*protocol.SwitchStateResponse)
	if !ok || state.Key != 7 || !state.State {
		t.Fatalf("Dispatch: emitted %+v", sink[0])
	}
}

func TestDispatchUnknownKeyIsDropped(t *testing.T) {
	t.Parallel()

	r := entity.NewRegistry()
	var sink []protocol.Message
	_ = r.Register(entity.NewTextAttribute(1, "Active TTS", "active_tts", collectEmitter(&sink)))

	// Must not panic and must not emit anything.
	r.Dispatch(&protocol.ButtonCommandRequest{Key: 99})

	if len(sink) != 0 {
		t.Fatalf("Dispatch: emitted %d messages for unknown key", len(sink))
	}
}

func TestButtonPress(t *testing.T) {
	t.Parallel()

	r := entity.NewRegistry()
	presses := 0
	_ = r.Register(entity.NewButton(5, "Push to Talk", "push_to_talk", "mdi:microphone",
		func() { presses++ }))

	r.Dispatch(&protocol.ButtonCommandRequest{Key: 5})
	if presses != 1 {
		t.Fatalf("presses = %d, want 1", presses)
	}
}

func TestSelectRejectsUnknownOption(t *testing.T) {
	t.Parallel()

	var sink []protocol.Message
	var selected []string
	sel := entity.NewSelect(3, "Input Device", "input_device", "", []string{"default", "usb-mic"},
		"default", func(o string) { selected = append(selected, o) }, collectEmitter(&sink))

	sel.HandleCommand(&protocol.SelectCommandRequest{Key: 3, State: "usb-mic"})
	sel.HandleCommand(&protocol.SelectCommandRequest{Key: 3, State: "bogus"})

	if sel.Current() != "usb-mic" {
		t.Fatalf("Current = %q, want %q", sel.Current(), "usb-mic")
	}
	if len(selected) != 1 {
		t.Fatalf("onSelect calls = %v, want exactly one", selected)
	}
}

func TestTextAttributeTruncates(t *testing.T) {
	t.Parallel()

	var sink []protocol.Message
	ta := entity.NewTextAttribute(1, "Active TTS", "active_tts", collectEmitter(&sink))

	long := make([]byte, 400)
	for i := range long {
		long[i] = 'a'
	}
	ta.Update(string(long))

	if got := len(ta.Text()); got != 250 {
		t.Fatalf("Text length = %d, want 250", got)
	}
	if ta.Text()[247:] != "..." {
		t.Fatal("truncated text must end in ellipsis")
	}
}
