package protocol

import "fmt"

// decoders is the single dispatch table from type tag to message constructor.
// Only messages the device can receive need an entry; outbound-only types are
// included anyway so tests can round-trip everything through one path.
var decoders = map[Tag]func() Message{
	TagHelloRequest:                        func() Message { return &HelloRequest{} },
	TagHelloResponse:                       func() Message { return &HelloResponse{} },
	TagConnectRequest:                      func() Message { return &ConnectRequest{} },
	TagConnectResponse:                     func() Message { return &ConnectResponse{} },
	TagDisconnectRequest:                   func() Message { return &DisconnectRequest{} },
	TagDisconnectResponse:                  func() Message { return &DisconnectResponse{} },
	TagPingRequest:                         func() Message { return &PingRequest{} },
	TagPingResponse:                        func() Message { return &PingResponse{} },
	TagDeviceInfoRequest:                   func() Message { return &DeviceInfoRequest{} },
	TagDeviceInfoResponse:                  func() Message { return &DeviceInfoResponse{} },
	TagListEntitiesRequest:                 func() Message { return &ListEntitiesRequest{} },
	TagListEntitiesDoneResponse:            func() Message { return &ListEntitiesDoneResponse{} },
	TagSubscribeHomeAssistantStatesRequest: func() Message { return &SubscribeHomeAssistantStatesRequest{} },
	TagListEntitiesSwitchResponse:          func() Message { return &ListEntitiesSwitchResponse{} },
	TagSwitchStateResponse:                 func() Message { return &SwitchStateResponse{} },
	TagSwitchCommandRequest:                func() Message { return &SwitchCommandRequest{} },
	TagListEntitiesTextSensorResponse:      func() Message { return &ListEntitiesTextSensorResponse{} },
	TagTextSensorStateResponse:             func() Message { return &TextSensorStateResponse{} },
	TagListEntitiesSelectResponse:          func() Message { return &ListEntitiesSelectResponse{} },
	TagSelectStateResponse:                 func() Message { return &SelectStateResponse{} },
	TagSelectCommandRequest:                func() Message { return &SelectCommandRequest{} },
	TagListEntitiesButtonResponse:          func() Message { return &ListEntitiesButtonResponse{} },
	TagButtonCommandRequest:                func() Message { return &ButtonCommandRequest{} },
	TagListEntitiesMediaPlayerResponse:     func() Message { return &ListEntitiesMediaPlayerResponse{} },
	TagMediaPlayerStateResponse:            func() Message { return &MediaPlayerStateResponse{} },
	TagMediaPlayerCommandRequest:           func() Message { return &MediaPlayerCommandRequest{} },
	TagSubscribeVoiceAssistantRequest:      func() Message { return &SubscribeVoiceAssistantRequest{} },
	TagVoiceAssistantRequest:               func() Message { return &VoiceAssistantRequest{} },
	TagVoiceAssistantEventResponse:         func() Message { return &VoiceAssistantEventResponse{} },
	TagVoiceAssistantAudio:                 func() Message { return &VoiceAssistantAudio{} },
	TagVoiceAssistantTimerEventResponse:    func() Message { return &VoiceAssistantTimerEventResponse{} },
	TagVoiceAssistantAnnounceRequest:       func() Message { return &VoiceAssistantAnnounceRequest{} },
	TagVoiceAssistantAnnounceFinished:      func() Message { return &VoiceAssistantAnnounceFinished{} },
	TagVoiceAssistantConfigurationRequest:  func() Message { return &VoiceAssistantConfigurationRequest{} },
	TagVoiceAssistantConfigurationResponse: func() Message { return &VoiceAssistantConfigurationResponse{} },
	TagVoiceAssistantSetConfiguration:      func() Message { return &VoiceAssistantSetConfiguration{} },
}

// Decode constructs the typed message for tag and unmarshals body into it.
// Unknown tags yield a [*Raw] message rather than an error — compatibility
// with newer hubs requires tolerating message types we do not implement.
func Decode(tag Tag, body []byte) (Message, error) {
	ctor, ok := decoders[tag]
	if !ok {
		return &Raw{TypeTag: tag, Body: body}, nil
	}
	msg := ctor()
	if err := msg.UnmarshalBody(body); err != nil {
		return nil, fmt.Errorf("protocol: decode %s: %w", tag, err)
	}
	return msg, nil
}
