package protocol

import "google.golang.org/protobuf/encoding/protowire"

// Voice pipeline messages. The hub subscribes with
// [SubscribeVoiceAssistantRequest]; the device starts turns with
// [VoiceAssistantRequest] and streams audio with [VoiceAssistantAudio]; the
// hub reports pipeline progress with [VoiceAssistantEventResponse].

// SubscribeVoiceAssistantRequest registers the hub as the voice pipeline peer.
type SubscribeVoiceAssistantRequest struct {
	Subscribe bool   // 1
	Flags     uint64 // 2
}

func (m *SubscribeVoiceAssistantRequest) Tag() Tag { return TagSubscribeVoiceAssistantRequest }

func (m *SubscribeVoiceAssistantRequest) MarshalBody() []byte {
	var b []byte
	b = appendBool(b, 1, m.Subscribe)
	b = appendUvarint(b, 2, m.Flags)
	return b
}

func (m *SubscribeVoiceAssistantRequest) UnmarshalBody(b []byte) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		var err error
		var n int
		switch {
		case num == 1 && typ == protowire.VarintType:
			m.Subscribe, n, err = consumeBool(b)
		case num == 2 && typ == protowire.VarintType:
			m.Flags, n, err = consumeUvarint(b)
		}
		return n, err
	})
}

// VoiceAssistantRequest asks the hub to start (or stop) a pipeline run.
// Sent by the device when a wake word fires or push-to-talk is pressed.
type VoiceAssistantRequest struct {
	Start          bool   // 1
	ConversationID string // 2
	Flags          uint64 // 3
	WakeWordPhrase string // 5
}

func (m *VoiceAssistantRequest) Tag() Tag { return TagVoiceAssistantRequest }

func (m *VoiceAssistantRequest) MarshalBody() []byte {
	var b []byte
	b = appendBool(b, 1, m.Start)
	b = appendString(b, 2, m.ConversationID)
	b = appendUvarint(b, 3, m.Flags)
	b = appendString(b, 5, m.WakeWordPhrase)
	return b
}

func (m *VoiceAssistantRequest) UnmarshalBody(b []byte) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		var err error
		var n int
		switch {
		case num == 1 && typ == protowire.VarintType:
			m.Start, n, err = consumeBool(b)
		case num == 2 && typ == protowire.BytesType:
			m.ConversationID, n, err = consumeString(b)
		case num == 3 && typ == protowire.VarintType:
			m.Flags, n, err = consumeUvarint(b)
		case num == 5 && typ == protowire.BytesType:
			m.WakeWordPhrase, n, err = consumeString(b)
		}
		return n, err
	})
}

// EventData is one name/value pair attached to a pipeline event.
type EventData struct {
	Name  string // 1
	Value string // 2
}

func (d *EventData) marshal() []byte {
	var b []byte
	b = appendString(b, 1, d.Name)
	b = appendString(b, 2, d.Value)
	return b
}

func (d *EventData) unmarshal(b []byte) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		var err error
		var n int
		switch {
		case num == 1 && typ == protowire.BytesType:
			d.Name, n, err = consumeString(b)
		case num == 2 && typ == protowire.BytesType:
			d.Value, n, err = consumeString(b)
		}
		return n, err
	})
}

// VoiceAssistantEventResponse reports pipeline progress from the hub
// (run start/end, STT, intent, TTS stages) with optional key/value data.
type VoiceAssistantEventResponse struct {
	EventType VoiceEventType // 1
	Data      []EventData    // 2
}

func (m *VoiceAssistantEventResponse) Tag() Tag { return TagVoiceAssistantEventResponse }

func (m *VoiceAssistantEventResponse) MarshalBody() []byte {
	var b []byte
	b = appendUvarint(b, 1, uint64(m.EventType))
	for i := range m.Data {
		b = appendBytes(b, 2, m.Data[i].marshal())
	}
	return b
}

func (m *VoiceAssistantEventResponse) UnmarshalBody(b []byte) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		var err error
		var n int
		switch {
		case num == 1 && typ == protowire.VarintType:
			var v uint64
			v, n, err = consumeUvarint(b)
			m.EventType = VoiceEventType(v)
		case num == 2 && typ == protowire.BytesType:
			var raw []byte
			raw, n, err = consumeBytes(b)
			if err == nil {
				var d EventData
				if err = d.unmarshal(raw); err == nil {
					m.Data = append(m.Data, d)
				}
			}
		}
		return n, err
	})
}

// DataValue returns the value for a named event datum, or "" when absent.
func (m *VoiceAssistantEventResponse) DataValue(name string) string {
	for i := range m.Data {
		if m.Data[i].Name == name {
			return m.Data[i].Value
		}
	}
	return ""
}

// VoiceAssistantAudio carries one chunk of streamed microphone audio.
type VoiceAssistantAudio struct {
	Data []byte // 1
	End  bool   // 2
}

func (m *VoiceAssistantAudio) Tag() Tag { return TagVoiceAssistantAudio }

func (m *VoiceAssistantAudio) MarshalBody() []byte {
	var b []byte
	b = appendBytes(b, 1, m.Data)
	b = appendBool(b, 2, m.End)
	return b
}

func (m *VoiceAssistantAudio) UnmarshalBody(b []byte) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		var err error
		var n int
		switch {
		case num == 1 && typ == protowire.BytesType:
			m.Data, n, err = consumeBytes(b)
		case num == 2 && typ == protowire.VarintType:
			m.End, n, err = consumeBool(b)
		}
		return n, err
	})
}

// VoiceAssistantTimerEventResponse reports a hub-side timer lifecycle event.
type VoiceAssistantTimerEventResponse struct {
	EventType    TimerEventType // 1
	TimerID      string         // 2
	Name         string         // 3
	TotalSeconds uint64         // 4
	SecondsLeft  uint64         // 5
	IsActive     bool           // 6
}

func (m *VoiceAssistantTimerEventResponse) Tag() Tag { return TagVoiceAssistantTimerEventResponse }

func (m *VoiceAssistantTimerEventResponse) MarshalBody() []byte {
	var b []byte
	b = appendUvarint(b, 1, uint64(m.EventType))
	b = appendString(b, 2, m.TimerID)
	b = appendString(b, 3, m.Name)
	b = appendUvarint(b, 4, m.TotalSeconds)
	b = appendUvarint(b, 5, m.SecondsLeft)
	b = appendBool(b, 6, m.IsActive)
	return b
}

func (m *VoiceAssistantTimerEventResponse) UnmarshalBody(b []byte) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		var err error
		var n int
		switch {
		case num == 1 && typ == protowire.VarintType:
			var v uint64
			v, n, err = consumeUvarint(b)
			m.EventType = TimerEventType(v)
		case num == 2 && typ == protowire.BytesType:
			m.TimerID, n, err = consumeString(b)
		case num == 3 && typ == protowire.BytesType:
			m.Name, n, err = consumeString(b)
		case num == 4 && typ == protowire.VarintType:
			m.TotalSeconds, n, err = consumeUvarint(b)
		case num == 5 && typ == protowire.VarintType:
			m.SecondsLeft, n, err = consumeUvarint(b)
		case num == 6 && typ == protowire.VarintType:
			m.IsActive, n, err = consumeBool(b)
		}
		return n, err
	})
}

// VoiceAssistantAnnounceRequest asks the device to play announcement media,
// optionally preceded by a chime and optionally starting a conversation
// afterwards.
type VoiceAssistantAnnounceRequest struct {
	MediaID            string // 1
	Text               string // 2
	PreannounceMediaID string // 3
	StartConversation  bool   // 4
}

func (m *VoiceAssistantAnnounceRequest) Tag() Tag { return TagVoiceAssistantAnnounceRequest }

func (m *VoiceAssistantAnnounceRequest) MarshalBody() []byte {
	var b []byte
	b = appendString(b, 1, m.MediaID)
	b = appendString(b, 2, m.Text)
	b = appendString(b, 3, m.PreannounceMediaID)
	b = appendBool(b, 4, m.StartConversation)
	return b
}

func (m *VoiceAssistantAnnounceRequest) UnmarshalBody(b []byte) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		var err error
		var n int
		switch {
		case num == 1 && typ == protowire.BytesType:
			m.MediaID, n, err = consumeString(b)
		case num == 2 && typ == protowire.BytesType:
			m.Text, n, err = consumeString(b)
		case num == 3 && typ == protowire.BytesType:
			m.PreannounceMediaID, n, err = consumeString(b)
		case num == 4 && typ == protowire.VarintType:
			m.StartConversation, n, err = consumeBool(b)
		}
		return n, err
	})
}

// VoiceAssistantAnnounceFinished tells the hub an announcement completed.
type VoiceAssistantAnnounceFinished struct {
	Success bool // 1
}

func (m *VoiceAssistantAnnounceFinished) Tag() Tag { return TagVoiceAssistantAnnounceFinished }

func (m *VoiceAssistantAnnounceFinished) MarshalBody() []byte {
	return appendBool(nil, 1, m.Success)
}

func (m *VoiceAssistantAnnounceFinished) UnmarshalBody(b []byte) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		var err error
		var n int
		if num == 1 && typ == protowire.VarintType {
			m.Success, n, err = consumeBool(b)
		}
		return n, err
	})
}

// WakeWordDescriptor describes one wake word model in the configuration
// exchange.
type WakeWordDescriptor struct {
	ID               string   // 1
	WakeWord         string   // 2
	TrainedLanguages []string // 3
}

func (d *WakeWordDescriptor) marshal() []byte {
	var b []byte
	b = appendString(b, 1, d.ID)
	b = appendString(b, 2, d.WakeWord)
	for _, lang := range d.TrainedLanguages {
		b = protowire.AppendTag(b, 3, protowire.BytesType)
		b = protowire.AppendString(b, lang)
	}
	return b
}

func (d *WakeWordDescriptor) unmarshal(b []byte) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		var err error
		var n int
		switch {
		case num == 1 && typ == protowire.BytesType:
			d.ID, n, err = consumeString(b)
		case num == 2 && typ == protowire.BytesType:
			d.WakeWord, n, err = consumeString(b)
		case num == 3 && typ == protowire.BytesType:
			var lang string
			lang, n, err = consumeString(b)
			if err == nil {
				d.TrainedLanguages = append(d.TrainedLanguages, lang)
			}
		}
		return n, err
	})
}

// VoiceAssistantConfigurationRequest asks the device for its wake word
// configuration.
type VoiceAssistantConfigurationRequest struct{ emptyBody }

func (*VoiceAssistantConfigurationRequest) Tag() Tag { return TagVoiceAssistantConfigurationRequest }

// VoiceAssistantConfigurationResponse lists available and active wake words.
type VoiceAssistantConfigurationResponse struct {
	AvailableWakeWords []WakeWordDescriptor // 1
	ActiveWakeWords    []string             // 2
	MaxActiveWakeWords uint64               // 3
}

func (m *VoiceAssistantConfigurationResponse) Tag() Tag {
	return TagVoiceAssistantConfigurationResponse
}

func (m *VoiceAssistantConfigurationResponse) MarshalBody() []byte {
	var b []byte
	for i := range m.AvailableWakeWords {
		b = appendBytes(b, 1, m.AvailableWakeWords[i].marshal())
	}
	for _, id := range m.ActiveWakeWords {
		b = protowire.AppendTag(b, 2, protowire.BytesType)
		b = protowire.AppendString(b, id)
	}
	b = appendUvarint(b, 3, m.MaxActiveWakeWords)
	return b
}

func (m *VoiceAssistantConfigurationResponse) UnmarshalBody(b []byte) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		var err error
		var n int
		switch {
		case num == 1 && typ == protowire.BytesType:
			var raw []byte
			raw, n, err = consumeBytes(b)
			if err == nil {
				var d WakeWordDescriptor
				if err = d.unmarshal(raw); err == nil {
					m.AvailableWakeWords = append(m.AvailableWakeWords, d)
				}
			}
		case num == 2 && typ == protowire.BytesType:
			var id string
			id, n, err = consumeString(b)
			if err == nil {
				m.ActiveWakeWords = append(m.ActiveWakeWords, id)
			}
		case num == 3 && typ == protowire.VarintType:
			m.MaxActiveWakeWords, n, err = consumeUvarint(b)
		}
		return n, err
	})
}

// VoiceAssistantSetConfiguration changes the active wake word set.
type VoiceAssistantSetConfiguration struct {
	ActiveWakeWords []string // 1
}

func (m *VoiceAssistantSetConfiguration) Tag() Tag { return TagVoiceAssistantSetConfiguration }

func (m *VoiceAssistantSetConfiguration) MarshalBody() []byte {
	var b []byte
	for _, id := range m.ActiveWakeWords {
		b = protowire.AppendTag(b, 1, protowire.BytesType)
		b = protowire.AppendString(b, id)
	}
	return b
}

func (m *VoiceAssistantSetConfiguration) UnmarshalBody(b []byte) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		var err error
		var n int
		if num == 1 && typ == protowire.BytesType {
			var id string
			id, n, err = consumeString(b)
			if err == nil {
				m.ActiveWakeWords = append(m.ActiveWakeWords, id)
			}
		}
		return n, err
	})
}
