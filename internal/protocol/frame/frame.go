// Package frame implements the plaintext framing layer of the native API:
// a marker byte, a varint body length, a varint message type tag, then the
// body bytes. The codec carries no protocol semantics — it only splits a
// byte stream into (tag, body) pairs and joins them back.
package frame

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Marker is the first byte of every plaintext frame. Receiving anything else
// means the stream is corrupt (or the peer attempted an encrypted handshake,
// which this server does not speak).
const Marker = 0x00

// MaxBodyLen caps the declared body length of a single frame. Voice audio
// chunks are a few KiB; anything near this large is a corrupt length varint.
const MaxBodyLen = 1 << 20

var (
	// ErrBadMarker reports a frame that did not start with [Marker].
	// The stream is unrecoverable and the session must be closed.
	ErrBadMarker = errors.New("frame: bad marker byte")

	// ErrFrameTooLarge reports a declared body length above [MaxBodyLen].
	ErrFrameTooLarge = errors.New("frame: declared body length too large")

	// errBadVarint reports a malformed length or tag varint.
	errBadVarint = errors.New("frame: malformed varint")
)

// Encode appends a single encoded frame for (tag, body) to dst and returns
// the extended slice. Encoding is the exact inverse of [Decoder.Next].
func Encode(dst []byte, tag uint64, body []byte) []byte {
	dst = append(dst, Marker)
	dst = binary.AppendUvarint(dst, uint64(len(body)))
	dst = binary.AppendUvarint(dst, tag)
	return append(dst, body...)
}

// Decoder converts a growing byte stream into a sequence of complete frames.
// Feed bytes with [Decoder.Write] in arbitrary slice sizes, then drain with
// [Decoder.Next] until it reports no complete frame. Partial trailing bytes
// stay buffered for the next Write; no partial-frame state is visible outside
// the decoder.
//
// The zero value is ready to use. A Decoder is not safe for concurrent use.
type Decoder struct {
	buf []byte
}

// Write appends raw stream bytes to the decode buffer.
func (d *Decoder) Write(p []byte) {
	d.buf = append(d.buf, p...)
}

// Buffered returns the number of bytes awaiting a complete frame.
func (d *Decoder) Buffered() int { return len(d.buf) }

// Next returns the next complete frame as (tag, body, true). When the buffer
// holds no complete frame it returns ok=false with a nil error. A non-nil
// error ([ErrBadMarker], [ErrFrameTooLarge], or a varint error) is fatal for
// the stream.
//
// The returned body is a copy and remains valid after further Writes.
func (d *Decoder) Next() (tag uint64, body []byte, ok bool, err error) {
	if len(d.buf) == 0 {
		return 0, nil, false, nil
	}
	if d.buf[0] != Marker {
		return 0, nil, false, fmt.Errorf("%w: 0x%02x", ErrBadMarker, d.buf[0])
	}

	rest := d.buf[1:]
	bodyLen, n := binary.Uvarint(rest)
	if n == 0 {
		return 0, nil, false, nil // length varint incomplete
	}
	if n < 0 {
		return 0, nil, false, errBadVarint
	}
	if bodyLen > MaxBodyLen {
		return 0, nil, false, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, bodyLen)
	}
	rest = rest[n:]

	tag, n = binary.Uvarint(rest)
	if n == 0 {
		return 0, nil, false, nil // tag varint incomplete
	}
	if n < 0 {
		return 0, nil, false, errBadVarint
	}
	rest = rest[n:]

	if uint64(len(rest)) < bodyLen {
		return 0, nil, false, nil // body incomplete
	}

	body = make([]byte, bodyLen)
	copy(body, rest[:bodyLen])

	consumed := len(d.buf) - len(rest) + int(bodyLen)
	d.buf = d.buf[consumed:]
	if len(d.buf) == 0 {
		d.buf = nil // let the backing array go once fully drained
	}
	return tag, body, true, nil
}
