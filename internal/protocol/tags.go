// Package protocol defines the typed message set of the native API wire
// contract: a closed set of message variants, each bound to a fixed numeric
// type tag and a protobuf-encoded body. Tag numbers and field layouts follow
// the published schema exactly — they are an external compatibility contract
// and must never be renumbered.
package protocol

// Tag identifies a message type on the wire.
type Tag uint64

// Message type tags. The numbering matches the published native API schema.
const (
	TagHelloRequest        Tag = 1
	TagHelloResponse       Tag = 2
	TagConnectRequest      Tag = 3
	TagConnectResponse     Tag = 4
	TagDisconnectRequest   Tag = 5
	TagDisconnectResponse  Tag = 6
	TagPingRequest         Tag = 7
	TagPingResponse        Tag = 8
	TagDeviceInfoRequest   Tag = 9
	TagDeviceInfoResponse  Tag = 10
	TagListEntitiesRequest Tag = 11

	TagListEntitiesSwitchResponse     Tag = 17
	TagListEntitiesTextSensorResponse Tag = 18
	TagListEntitiesDoneResponse       Tag = 19

	TagSwitchStateResponse     Tag = 26
	TagTextSensorStateResponse Tag = 27
	TagSwitchCommandRequest    Tag = 33

	TagSubscribeHomeAssistantStatesRequest Tag = 38

	TagListEntitiesSelectResponse Tag = 52
	TagSelectStateResponse        Tag = 53
	TagSelectCommandRequest       Tag = 54

	TagListEntitiesButtonResponse Tag = 61
	TagButtonCommandRequest       Tag = 62

	TagListEntitiesMediaPlayerResponse Tag = 63
	TagMediaPlayerStateResponse        Tag = 64
	TagMediaPlayerCommandRequest       Tag = 65

	TagSubscribeVoiceAssistantRequest      Tag = 89
	TagVoiceAssistantRequest               Tag = 90
	TagVoiceAssistantEventResponse         Tag = 92
	TagVoiceAssistantAudio                 Tag = 106
	TagVoiceAssistantTimerEventResponse    Tag = 115
	TagVoiceAssistantAnnounceRequest       Tag = 119
	TagVoiceAssistantAnnounceFinished      Tag = 120
	TagVoiceAssistantConfigurationRequest  Tag = 121
	TagVoiceAssistantConfigurationResponse Tag = 122
	TagVoiceAssistantSetConfiguration      Tag = 123
)

// tagNames maps tags to schema message names for diagnostics.
var tagNames = map[Tag]string{
	TagHelloRequest:                        "HelloRequest",
	TagHelloResponse:                       "HelloResponse",
	TagConnectRequest:                      "ConnectRequest",
	TagConnectResponse:                     "ConnectResponse",
	TagDisconnectRequest:                   "DisconnectRequest",
	TagDisconnectResponse:                  "DisconnectResponse",
	TagPingRequest:                         "PingRequest",
	TagPingResponse:                        "PingResponse",
	TagDeviceInfoRequest:                   "DeviceInfoRequest",
	TagDeviceInfoResponse:                  "DeviceInfoResponse",
	TagListEntitiesRequest:                 "ListEntitiesRequest",
	TagListEntitiesSwitchResponse:          "ListEntitiesSwitchResponse",
	TagListEntitiesTextSensorResponse:      "ListEntitiesTextSensorResponse",
	TagListEntitiesDoneResponse:            "ListEntitiesDoneResponse",
	TagSwitchStateResponse:                 "SwitchStateResponse",
	TagTextSensorStateResponse:             "TextSensorStateResponse",
	TagSwitchCommandRequest:                "SwitchCommandRequest",
	TagSubscribeHomeAssistantStatesRequest: "SubscribeHomeAssistantStatesRequest",
	TagListEntitiesSelectResponse:          "ListEntitiesSelectResponse",
	TagSelectStateResponse:                 "SelectStateResponse",
	TagSelectCommandRequest:                "SelectCommandRequest",
	TagListEntitiesButtonResponse:          "ListEntitiesButtonResponse",
	TagButtonCommandRequest:                "ButtonCommandRequest",
	TagListEntitiesMediaPlayerResponse:     "ListEntitiesMediaPlayerResponse",
	TagMediaPlayerStateResponse:            "MediaPlayerStateResponse",
	TagMediaPlayerCommandRequest:           "MediaPlayerCommandRequest",
	TagSubscribeVoiceAssistantRequest:      "SubscribeVoiceAssistantRequest",
	TagVoiceAssistantRequest:               "VoiceAssistantRequest",
	TagVoiceAssistantEventResponse:         "VoiceAssistantEventResponse",
	TagVoiceAssistantAudio:                 "VoiceAssistantAudio",
	TagVoiceAssistantTimerEventResponse:    "VoiceAssistantTimerEventResponse",
	TagVoiceAssistantAnnounceRequest:       "VoiceAssistantAnnounceRequest",
	TagVoiceAssistantAnnounceFinished:      "VoiceAssistantAnnounceFinished",
	TagVoiceAssistantConfigurationRequest:  "VoiceAssistantConfigurationRequest",
	TagVoiceAssistantConfigurationResponse: "VoiceAssistantConfigurationResponse",
	TagVoiceAssistantSetConfiguration:      "VoiceAssistantSetConfiguration",
}

// String returns the schema message name for known tags.
func (t Tag) String() string {
	if name, ok := tagNames[t]; ok {
		return name
	}
	return "Unknown(" + itoa(uint64(t)) + ")"
}

// itoa avoids pulling strconv into the hot path for a diagnostics-only case.
func itoa(v uint64) string {
	if v == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}

// MediaPlayerState is the reported playback state of a media player entity.
type MediaPlayerState uint64

const (
	MediaPlayerStateNone MediaPlayerState = iota
	MediaPlayerStateIdle
	MediaPlayerStatePlaying
	MediaPlayerStatePaused
)

// MediaPlayerCommand is a playback command from the hub.
type MediaPlayerCommand uint64

const (
	MediaPlayerCommandPlay MediaPlayerCommand = iota
	MediaPlayerCommandPause
	MediaPlayerCommandStop
	MediaPlayerCommandMute
	MediaPlayerCommandUnmute
)

// VoiceEventType identifies a hub pipeline event carried by
// [VoiceAssistantEventResponse].
type VoiceEventType uint64

const (
	VoiceEventError          VoiceEventType = 0
	VoiceEventRunStart       VoiceEventType = 1
	VoiceEventRunEnd         VoiceEventType = 2
	VoiceEventSTTStart       VoiceEventType = 3
	VoiceEventSTTEnd         VoiceEventType = 4
	VoiceEventIntentStart    VoiceEventType = 5
	VoiceEventIntentEnd      VoiceEventType = 6
	VoiceEventTTSStart       VoiceEventType = 7
	VoiceEventTTSEnd         VoiceEventType = 8
	VoiceEventWakeWordStart  VoiceEventType = 9
	VoiceEventWakeWordEnd    VoiceEventType = 10
	VoiceEventSTTVADStart    VoiceEventType = 11
	VoiceEventSTTVADEnd      VoiceEventType = 12
	VoiceEventIntentProgress VoiceEventType = 100
)

// TimerEventType identifies a hub timer event carried by
// [VoiceAssistantTimerEventResponse].
type TimerEventType uint64

const (
	TimerEventStarted TimerEventType = iota
	TimerEventUpdated
	TimerEventCancelled
	TimerEventFinished
)

// Voice assistant feature flags advertised in [DeviceInfoResponse].
const (
	FeatureVoiceAssistant    uint64 = 1 << 0
	FeatureSpeaker           uint64 = 1 << 1
	FeatureAPIAudio          uint64 = 1 << 2
	FeatureTimers            uint64 = 1 << 3
	FeatureAnnounce          uint64 = 1 << 4
	FeatureStartConversation uint64 = 1 << 5
)
