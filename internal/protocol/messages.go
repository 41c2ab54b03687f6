package protocol

import "google.golang.org/protobuf/encoding/protowire"

// Message is one typed unit of wire communication. Implementations are plain
// structs; a message is immutable once constructed and handed to the session.
type Message interface {
	// Tag returns the wire type tag this message is framed with.
	Tag() Tag

	// MarshalBody encodes the message body. A nil slice is a valid empty body.
	MarshalBody() []byte

	// UnmarshalBody decodes the message body in place.
	UnmarshalBody(b []byte) error
}

// Raw carries a well-formed frame whose tag is not part of the closed message
// set. It is logged and ignored upstream, never fatal — newer hubs may send
// message types this device does not implement.
type Raw struct {
	TypeTag Tag
	Body    []byte
}

func (m *Raw) Tag() Tag            { return m.TypeTag }
func (m *Raw) MarshalBody() []byte { return m.Body }
func (m *Raw) UnmarshalBody(b []byte) error {
	m.Body = b
	return nil
}

// HelloRequest opens the handshake. First message on every connection.
type HelloRequest struct {
	ClientInfo      string // 1
	APIVersionMajor uint64 // 2
	APIVersionMinor uint64 // 3
}

func (m *HelloRequest) Tag() Tag { return TagHelloRequest }

func (m *HelloRequest) MarshalBody() []byte {
	var b []byte
	b = appendString(b, 1, m.ClientInfo)
	b = appendUvarint(b, 2, m.APIVersionMajor)
	b = appendUvarint(b, 3, m.APIVersionMinor)
	return b
}

func (m *HelloRequest) UnmarshalBody(b []byte) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		var err error
		var n int
		switch {
		case num == 1 && typ == protowire.BytesType:
			m.ClientInfo, n, err = consumeString(b)
		case num == 2 && typ == protowire.VarintType:
			m.APIVersionMajor, n, err = consumeUvarint(b)
		case num == 3 && typ == protowire.VarintType:
			m.APIVersionMinor, n, err = consumeUvarint(b)
		}
		return n, err
	})
}

// HelloResponse acknowledges the handshake with the server's identity and the
// protocol version it speaks.
type HelloResponse struct {
	APIVersionMajor uint64 // 1
	APIVersionMinor uint64 // 2
	ServerInfo      string // 3
	Name            string // 4
}

func (m *HelloResponse) Tag() Tag { return TagHelloResponse }

func (m *HelloResponse) MarshalBody() []byte {
	var b []byte
	b = appendUvarint(b, 1, m.APIVersionMajor)
	b = appendUvarint(b, 2, m.APIVersionMinor)
	b = appendString(b, 3, m.ServerInfo)
	b = appendString(b, 4, m.Name)
	return b
}

func (m *HelloResponse) UnmarshalBody(b []byte) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		var err error
		var n int
		switch {
		case num == 1 && typ == protowire.VarintType:
			m.APIVersionMajor, n, err = consumeUvarint(b)
		case num == 2 && typ == protowire.VarintType:
			m.APIVersionMinor, n, err = consumeUvarint(b)
		case num == 3 && typ == protowire.BytesType:
			m.ServerInfo, n, err = consumeString(b)
		case num == 4 && typ == protowire.BytesType:
			m.Name, n, err = consumeString(b)
		}
		return n, err
	})
}

// ConnectRequest carries the peer's credential. Sent after Hello when the
// server requires authentication.
type ConnectRequest struct {
	Password string // 1
}

func (m *ConnectRequest) Tag() Tag { return TagConnectRequest }

func (m *ConnectRequest) MarshalBody() []byte {
	return appendString(nil, 1, m.Password)
}

func (m *ConnectRequest) UnmarshalBody(b []byte) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		var err error
		var n int
		if num == 1 && typ == protowire.BytesType {
			m.Password, n, err = consumeString(b)
		}
		return n, err
	})
}

// ConnectResponse reports the outcome of authentication.
type ConnectResponse struct {
	InvalidPassword bool // 1
}

func (m *ConnectResponse) Tag() Tag { return TagConnectResponse }

func (m *ConnectResponse) MarshalBody() []byte {
	return appendBool(nil, 1, m.InvalidPassword)
}

func (m *ConnectResponse) UnmarshalBody(b []byte) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		var err error
		var n int
		if num == 1 && typ == protowire.VarintType {
			m.InvalidPassword, n, err = consumeBool(b)
		}
		return n, err
	})
}

// emptyBody is embedded by messages whose schema defines no fields.
type emptyBody struct{}

func (emptyBody) MarshalBody() []byte         { return nil }
func (*emptyBody) UnmarshalBody([]byte) error { return nil }

// DisconnectRequest asks the peer to close the session cleanly.
type DisconnectRequest struct{ emptyBody }

func (*DisconnectRequest) Tag() Tag { return TagDisconnectRequest }

// DisconnectResponse acknowledges a DisconnectRequest.
type DisconnectResponse struct{ emptyBody }

func (*DisconnectResponse) Tag() Tag { return TagDisconnectResponse }

// PingRequest is the peer-initiated keepalive probe.
type PingRequest struct{ emptyBody }

func (*PingRequest) Tag() Tag { return TagPingRequest }

// PingResponse answers a PingRequest.
type PingResponse struct{ emptyBody }

func (*PingResponse) Tag() Tag { return TagPingResponse }

// DeviceInfoRequest asks for the device's identity and capabilities.
type DeviceInfoRequest struct{ emptyBody }

func (*DeviceInfoRequest) Tag() Tag { return TagDeviceInfoRequest }

// DeviceInfoResponse describes the device to the hub, including the voice
// assistant feature flags that gate the voice pipeline subscription.
type DeviceInfoResponse struct {
	UsesPassword               bool   // 1
	Name                       string // 2
	MacAddress                 string // 3
	ServerVersion              string // 4
	FriendlyName               string // 14
	VoiceAssistantFeatureFlags uint64 // 17
}

func (m *DeviceInfoResponse) Tag() Tag { return TagDeviceInfoResponse }

func (m *DeviceInfoResponse) MarshalBody() []byte {
	var b []byte
	b = appendBool(b, 1, m.UsesPassword)
	b = appendString(b, 2, m.Name)
	b = appendString(b, 3, m.MacAddress)
	b = appendString(b, 4, m.ServerVersion)
	b = appendString(b, 14, m.FriendlyName)
	b = appendUvarint(b, 17, m.VoiceAssistantFeatureFlags)
	return b
}

func (m *DeviceInfoResponse) UnmarshalBody(b []byte) error {
	return walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		var err error
		var n int
		switch {
		case num == 1 && typ == protowire.VarintType:
			m.UsesPassword, n, err = consumeBool(b)
		case num == 2 && typ == protowire.BytesType:
			m.Name, n, err = consumeString(b)
		case num == 3 && typ == protowire.BytesType:
			m.MacAddress, n, err = consumeString(b)
		case num == 4 && typ == protowire.BytesType:
			m.ServerVersion, n, err = consumeString(b)
		case num == 14 && typ == protowire.BytesType:
			m.FriendlyName, n, err = consumeString(b)
		case num == 17 && typ == protowire.VarintType:
			m.VoiceAssistantFeatureFlags, n, err = consumeUvarint(b)
		}
		return n, err
	})
}

// ListEntitiesRequest starts the discovery exchange.
type ListEntitiesRequest struct{ emptyBody }

func (*ListEntitiesRequest) Tag() Tag { return TagListEntitiesRequest }

// ListEntitiesDoneResponse terminates the discovery exchange.
type ListEntitiesDoneResponse struct{ emptyBody }

func (*ListEntitiesDoneResponse) Tag() Tag { return TagListEntitiesDoneResponse }

// SubscribeHomeAssistantStatesRequest asks the device to re-send current
// entity states.
type SubscribeHomeAssistantStatesRequest struct{ emptyBody }

func (*SubscribeHomeAssistantStatesRequest) Tag() Tag {
	return TagSubscribeHomeAssistantStatesRequest
}
