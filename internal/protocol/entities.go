package protocol

import "google.golang.org/protobuf/encoding/protowire"

// Entity discovery, state, and command messages. Entity keys are fixed32 on
// the wire; field numbers follow the published schema.

// ListEntitiesSwitchResponse is the discovery descriptor for a switch entity.
type ListEntitiesSwitchResponse struct {
	ObjectID string // 1
	Key      uint32 // 2
	Name     string // 3
	UniqueID string // 4
	Icon     string // 5
}

func (m *ListEntitiesSwitchResponse) Tag() Tag { return TagListEntitiesSwitchResponse }

func (m *ListEntitiesSwitchResponse) MarshalBody() []byte {
	var b []byte
	b = appendString(b, 1, m.ObjectID)
	b = appendKey(b, 2, m.Key)
	b = appendString(b, 3, m.Name)
	b = appendString(b, 4, m.UniqueID)
	b = appendString(b, 5, m.Icon)
	return b
}

func (m *ListEntitiesSwitchResponse) UnmarshalBody(b []byte) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		var err error
		var n int
		switch {
		case num == 1 && typ == protowire.BytesType:
			m.ObjectID, n, err = consumeString(b)
		case num == 2 && typ == protowire.Fixed32Type:
			m.Key, n, err = consumeKey(b)
		case num == 3 && typ == protowire.BytesType:
			m.Name, n, err = consumeString(b)
		case num == 4 && typ == protowire.BytesType:
			m.UniqueID, n, err = consumeString(b)
		case num == 5 && typ == protowire.BytesType:
			m.Icon, n, err = consumeString(b)
		}
		return n, err
	})
}

// SwitchStateResponse reports a switch entity's current state.
type SwitchStateResponse struct {
	Key   uint32 // 1
	State bool   // 2
}

func (m *SwitchStateResponse) Tag() Tag { return TagSwitchStateResponse }

func (m *SwitchStateResponse) MarshalBody() []byte {
	var b []byte
	b = appendKey(b, 1, m.Key)
	b = appendBool(b, 2, m.State)
	return b
}

func (m *SwitchStateResponse) UnmarshalBody(b []byte) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		var err error
		var n int
		switch {
		case num == 1 && typ == protowire.Fixed32Type:
			m.Key, n, err = consumeKey(b)
		case num == 2 && typ == protowire.VarintType:
			m.State, n, err = consumeBool(b)
		}
		return n, err
	})
}

// SwitchCommandRequest sets a switch entity's state.
type SwitchCommandRequest struct {
	Key   uint32 // 1
	State bool   // 2
}

func (m *SwitchCommandRequest) Tag() Tag { return TagSwitchCommandRequest }

func (m *SwitchCommandRequest) MarshalBody() []byte {
	var b []byte
	b = appendKey(b, 1, m.Key)
	b = appendBool(b, 2, m.State)
	return b
}

func (m *SwitchCommandRequest) UnmarshalBody(b []byte) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		var err error
		var n int
		switch {
		case num == 1 && typ == protowire.Fixed32Type:
			m.Key, n, err = consumeKey(b)
		case num == 2 && typ == protowire.VarintType:
			m.State, n, err = consumeBool(b)
		}
		return n, err
	})
}

// ListEntitiesTextSensorResponse is the discovery descriptor for a text
// sensor entity.
type ListEntitiesTextSensorResponse struct {
	ObjectID string // 1
	Key      uint32 // 2
	Name     string // 3
	UniqueID string // 4
	Icon     string // 5
}

func (m *ListEntitiesTextSensorResponse) Tag() Tag { return TagListEntitiesTextSensorResponse }

func (m *ListEntitiesTextSensorResponse) MarshalBody() []byte {
	var b []byte
	b = appendString(b, 1, m.ObjectID)
	b = appendKey(b, 2, m.Key)
	b = appendString(b, 3, m.Name)
	b = appendString(b, 4, m.UniqueID)
	b = appendString(b, 5, m.Icon)
	return b
}

func (m *ListEntitiesTextSensorResponse) UnmarshalBody(b []byte) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		var err error
		var n int
		switch {
		case num == 1 && typ == protowire.BytesType:
			m.ObjectID, n, err = consumeString(b)
		case num == 2 && typ == protowire.Fixed32Type:
			m.Key, n, err = consumeKey(b)
		case num == 3 && typ == protowire.BytesType:
			m.Name, n, err = consumeString(b)
		case num == 4 && typ == protowire.BytesType:
			m.UniqueID, n, err = consumeString(b)
		case num == 5 && typ == protowire.BytesType:
			m.Icon, n, err = consumeString(b)
		}
		return n, err
	})
}

// TextSensorStateResponse reports a text sensor entity's current text.
type TextSensorStateResponse struct {
	Key          uint32 // 1
	State        string // 2
	MissingState bool   // 3
}

func (m *TextSensorStateResponse) Tag() Tag { return TagTextSensorStateResponse }

func (m *TextSensorStateResponse) MarshalBody() []byte {
	var b []byte
	b = appendKey(b, 1, m.Key)
	b = appendString(b, 2, m.State)
	b = appendBool(b, 3, m.MissingState)
	return b
}

func (m *TextSensorStateResponse) UnmarshalBody(b []byte) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		var err error
		var n int
		switch {
		case num == 1 && typ == protowire.Fixed32Type:
			m.Key, n, err = consumeKey(b)
		case num == 2 && typ == protowire.BytesType:
			m.State, n, err = consumeString(b)
		case num == 3 && typ == protowire.VarintType:
			m.MissingState, n, err = consumeBool(b)
		}
		return n, err
	})
}

// ListEntitiesSelectResponse is the discovery descriptor for a select entity.
type ListEntitiesSelectResponse struct {
	ObjectID string   // 1
	Key      uint32   // 2
	Name     string   // 3
	UniqueID string   // 4
	Icon     string   // 5
	Options  []string // 6
}

func (m *ListEntitiesSelectResponse) Tag() Tag { return TagListEntitiesSelectResponse }

func (m *ListEntitiesSelectResponse) MarshalBody() []byte {
	var b []byte
	b = appendString(b, 1, m.ObjectID)
	b = appendKey(b, 2, m.Key)
	b = appendString(b, 3, m.Name)
	b = appendString(b, 4, m.UniqueID)
	b = appendString(b, 5, m.Icon)
	for _, opt := range m.Options {
		b = protowire.AppendTag(b, 6, protowire.BytesType)
		b = protowire.AppendString(b, opt)
	}
	return b
}

func (m *ListEntitiesSelectResponse) UnmarshalBody(b []byte) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		var err error
		var n int
		switch {
		case num == 1 && typ == protowire.BytesType:
			m.ObjectID, n, err = consumeString(b)
		case num == 2 && typ == protowire.Fixed32Type:
			m.Key, n, err = consumeKey(b)
		case num == 3 && typ == protowire.BytesType:
			m.Name, n, err = consumeString(b)
		case num == 4 && typ == protowire.BytesType:
			m.UniqueID, n, err = consumeString(b)
		case num == 5 && typ == protowire.BytesType:
			m.Icon, n, err = consumeString(b)
		case num == 6 && typ == protowire.BytesType:
			var opt string
			opt, n, err = consumeString(b)
			if err == nil {
				m.Options = append(m.Options, opt)
			}
		}
		return n, err
	})
}

// SelectStateResponse reports a select entity's current option.
type SelectStateResponse struct {
	Key          uint32 // 1
	State        string // 2
	MissingState bool   // 3
}

func (m *SelectStateResponse) Tag() Tag { return TagSelectStateResponse }

func (m *SelectStateResponse) MarshalBody() []byte {
	var b []byte
	b = appendKey(b, 1, m.Key)
	b = appendString(b, 2, m.State)
	b = appendBool(b, 3, m.MissingState)
	return b
}

func (m *SelectStateResponse) UnmarshalBody(b []byte) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		var err error
		var n int
		switch {
		case num == 1 && typ == protowire.Fixed32Type:
			m.Key, n, err = consumeKey(b)
		case num == 2 && typ == protowire.BytesType:
			m.State, n, err = consumeString(b)
		case num == 3 && typ == protowire.VarintType:
			m.MissingState, n, err = consumeBool(b)
		}
		return n, err
	})
}

// SelectCommandRequest selects an option on a select entity.
type SelectCommandRequest struct {
	Key   uint32 // 1
	State string // 2
}

func (m *SelectCommandRequest) Tag() Tag { return TagSelectCommandRequest }

func (m *SelectCommandRequest) MarshalBody() []byte {
	var b []byte
	b = appendKey(b, 1, m.Key)
	b = appendString(b, 2, m.State)
	return b
}

func (m *SelectCommandRequest) UnmarshalBody(b []byte) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		var err error
		var n int
		switch {
		case num == 1 && typ == protowire.Fixed32Type:
			m.Key, n, err = consumeKey(b)
		case num == 2 && typ == protowire.BytesType:
			m.State, n, err = consumeString(b)
		}
		return n, err
	})
}

// ListEntitiesButtonResponse is the discovery descriptor for a button entity.
type ListEntitiesButtonResponse struct {
	ObjectID string // 1
	Key      uint32 // 2
	Name     string // 3
	UniqueID string // 4
	Icon     string // 5
}

func (m *ListEntitiesButtonResponse) Tag() Tag { return TagListEntitiesButtonResponse }

func (m *ListEntitiesButtonResponse) MarshalBody() []byte {
	var b []byte
	b = appendString(b, 1, m.ObjectID)
	b = appendKey(b, 2, m.Key)
	b = appendString(b, 3, m.Name)
	b = appendString(b, 4, m.UniqueID)
	b = appendString(b, 5, m.Icon)
	return b
}

func (m *ListEntitiesButtonResponse) UnmarshalBody(b []byte) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		var err error
		var n int
		switch {
		case num == 1 && typ == protowire.BytesType:
			m.ObjectID, n, err = consumeString(b)
		case num == 2 && typ == protowire.Fixed32Type:
			m.Key, n, err = consumeKey(b)
		case num == 3 && typ == protowire.BytesType:
			m.Name, n, err = consumeString(b)
		case num == 4 && typ == protowire.BytesType:
			m.UniqueID, n, err = consumeString(b)
		case num == 5 && typ == protowire.BytesType:
			m.Icon, n, err = consumeString(b)
		}
		return n, err
	})
}

// ButtonCommandRequest presses a button entity.
type ButtonCommandRequest struct {
	Key uint32 // 1
}

func (m *ButtonCommandRequest) Tag() Tag { return TagButtonCommandRequest }

func (m *ButtonCommandRequest) MarshalBody() []byte {
	return appendKey(nil, 1, m.Key)
}

func (m *ButtonCommandRequest) UnmarshalBody(b []byte) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		var err error
		var n int
		if num == 1 && typ == protowire.Fixed32Type {
			m.Key, n, err = consumeKey(b)
		}
		return n, err
	})
}

// ListEntitiesMediaPlayerResponse is the discovery descriptor for a media
// player entity.
type ListEntitiesMediaPlayerResponse struct {
	ObjectID      string // 1
	Key           uint32 // 2
	Name          string // 3
	UniqueID      string // 4
	Icon          string // 5
	SupportsPause bool   // 6
}

func (m *ListEntitiesMediaPlayerResponse) Tag() Tag { return TagListEntitiesMediaPlayerResponse }

func (m *ListEntitiesMediaPlayerResponse) MarshalBody() []byte {
	var b []byte
	b = appendString(b, 1, m.ObjectID)
	b = appendKey(b, 2, m.Key)
	b = appendString(b, 3, m.Name)
	b = appendString(b, 4, m.UniqueID)
	b = appendString(b, 5, m.Icon)
	b = appendBool(b, 6, m.SupportsPause)
	return b
}

func (m *ListEntitiesMediaPlayerResponse) UnmarshalBody(b []byte) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		var err error
		var n int
		switch {
		case num == 1 && typ == protowire.BytesType:
			m.ObjectID, n, err = consumeString(b)
		case num == 2 && typ == protowire.Fixed32Type:
			m.Key, n, err = consumeKey(b)
		case num == 3 && typ == protowire.BytesType:
			m.Name, n, err = consumeString(b)
		case num == 4 && typ == protowire.BytesType:
			m.UniqueID, n, err = consumeString(b)
		case num == 5 && typ == protowire.BytesType:
			m.Icon, n, err = consumeString(b)
		case num == 6 && typ == protowire.VarintType:
			m.SupportsPause, n, err = consumeBool(b)
		}
		return n, err
	})
}

// MediaPlayerStateResponse reports a media player entity's playback state.
type MediaPlayerStateResponse struct {
	Key    uint32           // 1
	State  MediaPlayerState // 2
	Volume float32          // 3
	Muted  bool             // 4
}

func (m *MediaPlayerStateResponse) Tag() Tag { return TagMediaPlayerStateResponse }

func (m *MediaPlayerStateResponse) MarshalBody() []byte {
	var b []byte
	b = appendKey(b, 1, m.Key)
	b = appendUvarint(b, 2, uint64(m.State))
	b = appendFloat32(b, 3, m.Volume)
	b = appendBool(b, 4, m.Muted)
	return b
}

func (m *MediaPlayerStateResponse) UnmarshalBody(b []byte) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		var err error
		var n int
		switch {
		case num == 1 && typ == protowire.Fixed32Type:
			m.Key, n, err = consumeKey(b)
		case num == 2 && typ == protowire.VarintType:
			var v uint64
			v, n, err = consumeUvarint(b)
			m.State = MediaPlayerState(v)
		case num == 3 && typ == protowire.Fixed32Type:
			m.Volume, n, err = consumeFloat32(b)
		case num == 4 && typ == protowire.VarintType:
			m.Muted, n, err = consumeBool(b)
		}
		return n, err
	})
}

// MediaPlayerCommandRequest drives a media player entity. The Has* flags
// distinguish "field absent" from a zero value, matching the schema.
type MediaPlayerCommandRequest struct {
	Key             uint32             // 1
	HasCommand      bool               // 2
	Command         MediaPlayerCommand // 3
	HasVolume       bool               // 4
	Volume          float32            // 5
	HasMediaURL     bool               // 6
	MediaURL        string             // 7
	HasAnnouncement bool               // 8
	Announcement    bool               // 9
}

func (m *MediaPlayerCommandRequest) Tag() Tag { return TagMediaPlayerCommandRequest }

func (m *MediaPlayerCommandRequest) MarshalBody() []byte {
	var b []byte
	b = appendKey(b, 1, m.Key)
	b = appendBool(b, 2, m.HasCommand)
	b = appendUvarint(b, 3, uint64(m.Command))
	b = appendBool(b, 4, m.HasVolume)
	b = appendFloat32(b, 5, m.Volume)
	b = appendBool(b, 6, m.HasMediaURL)
	b = appendString(b, 7, m.MediaURL)
	b = appendBool(b, 8, m.HasAnnouncement)
	b = appendBool(b, 9, m.Announcement)
	return b
}

func (m *MediaPlayerCommandRequest) UnmarshalBody(b []byte) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		var err error
		var n int
		switch {
		case num == 1 && typ == protowire.Fixed32Type:
			m.Key, n, err = consumeKey(b)
		case num == 2 && typ == protowire.VarintType:
			m.HasCommand, n, err = consumeBool(b)
		case num == 3 && typ == protowire.VarintType:
			var v uint64
			v, n, err = consumeUvarint(b)
			m.Command = MediaPlayerCommand(v)
		case num == 4 && typ == protowire.VarintType:
			m.HasVolume, n, err = consumeBool(b)
		case num == 5 && typ == protowire.Fixed32Type:
			m.Volume, n, err = consumeFloat32(b)
		case num == 6 && typ == protowire.VarintType:
			m.HasMediaURL, n, err = consumeBool(b)
		case num == 7 && typ == protowire.BytesType:
			m.MediaURL, n, err = consumeString(b)
		case num == 8 && typ == protowire.VarintType:
			m.HasAnnouncement, n, err = consumeBool(b)
		case num == 9 && typ == protowire.VarintType:
			m.Announcement, n, err = consumeBool(b)
		}
		return n, err
	})
}
