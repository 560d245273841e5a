// Package osc builds and sends OpenSoundControl messages and bundles.
package osc

import (
	"bytes"
	"encoding"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"
)

const (
	// The time tag value consisting of 63 zero bits followed by a one in the
	// least signifigant bit is a special case meaning "immediately."
	Immediately           = Timetag(1)
	secondsFrom1900To1970 = 2208988800
	bundleTag             = "#bundle"
	controlPrefix         = "/control/"
)

var (
	// ErrUnsupportedType is returned for arguments that have no OSC type tag.
	ErrUnsupportedType = errors.New("osc: unsupported argument type")
	// ErrUnsupportedPacket is returned when a bundle element is neither a
	// Message nor a Bundle.
	ErrUnsupportedPacket = errors.New("osc: only Bundle and Message are supported")
	// ErrMalformed is returned by ParsePacket for data that is not a valid
	// OSC packet.
	ErrMalformed = errors.New("osc: malformed packet")
)

// Packet is the interface for Message and Bundle.
type Packet interface {
	encoding.BinaryMarshaler
}

// Message represents a single OSC message. An OSC message consists of an OSC
// address pattern and zero or more arguments.
type Message struct {
	Address   string
	Arguments []interface{}
}

// An OSC Bundle consists of the OSC-string "#bundle" followed by an OSC Time
// Tag, followed by zero or more OSC bundle/message elements. Elements are
// encoded in the order they were appended.
type Bundle struct {
	Timetag  Timetag
	Elements []Packet
}

// Timetag represents an OSC Time Tag: a 64 bit fixed point number. The first
// 32 bits specify the number of seconds since midnight on January 1, 1900, and
// the last 32 bits specify fractional parts of a second. This is the
// representation used by Internet NTP timestamps.
type Timetag uint64

var (
	_ Packet = (*Message)(nil)
	_ Packet = (*Bundle)(nil)
)

////
// Message
////

// NewMessage returns a new Message. The address parameter is the OSC address.
func NewMessage(address string, args ...interface{}) *Message {
	return &Message{Address: address, Arguments: args}
}

// ControlAddress returns the address of the named control channel.
func ControlAddress(name string) string {
	return controlPrefix + name
}

// NewControlMessage returns a message for the named control channel carrying
// a single int32 value.
func NewControlMessage(name string, value int32) *Message {
	return NewMessage(ControlAddress(name), value)
}

// Append appends the given arguments to the arguments list. Nothing is
// appended if any argument has an unsupported type.
func (msg *Message) Append(args ...interface{}) error {
	for _, a := range args {
		if _, err := typeTag(a); err != nil {
			return err
		}
	}
	msg.Arguments = append(msg.Arguments, args...)
	return nil
}

// Equals returns true if the address and the arguments of both messages are
// equal.
func (msg *Message) Equals(m *Message) bool {
	if msg == nil || m == nil {
		return msg == m
	}
	if msg.Address != m.Address || len(msg.Arguments) != len(m.Arguments) {
		return false
	}
	for i := range msg.Arguments {
		if !reflect.DeepEqual(msg.Arguments[i], m.Arguments[i]) {
			return false
		}
	}
	return true
}

// TypeTags returns the type tag string.
func (msg *Message) TypeTags() (string, error) {
	tags := make([]byte, 0, len(msg.Arguments)+1)
	tags = append(tags, ',')
	for _, arg := range msg.Arguments {
		t, err := typeTag(arg)
		if err != nil {
			return "", err
		}
		tags = append(tags, t)
	}
	return string(tags), nil
}

// String implements the fmt.Stringer interface.
func (msg *Message) String() string {
	if msg == nil {
		return ""
	}

	tags, err := msg.TypeTags()
	if err != nil {
		return msg.Address
	}

	var sb strings.Builder
	sb.WriteString(msg.Address)
	sb.WriteByte(' ')
	sb.WriteString(tags)

	for _, arg := range msg.Arguments {
		switch t := arg.(type) {
		case bool, int32, int64, float32, float64, string:
			fmt.Fprintf(&sb, " %v", t)
		case nil:
			sb.WriteString(" Nil")
		case []byte:
			sb.WriteString(" blob")
		case Timetag:
			fmt.Fprintf(&sb, " %d", uint64(t))
		}
	}
	return sb.String()
}

// MarshalBinary serializes the OSC message. The byte buffer has the following
// format:
// 1. OSC Address Pattern
// 2. OSC Type Tag String
// 3. OSC Arguments
func (msg *Message) MarshalBinary() ([]byte, error) {
	var payload bytes.Buffer
	for _, arg := range msg.Arguments {
		switch t := arg.(type) {
		default:
			return nil, fmt.Errorf("%w: %T", ErrUnsupportedType, t)

		case bool, nil:
			// Encoded in the type tag only.

		case int32:
			writeUint32(&payload, uint32(t))

		case float32:
			writeUint32(&payload, math.Float32bits(t))

		case int64:
			writeUint64(&payload, uint64(t))

		case float64:
			writeUint64(&payload, math.Float64bits(t))

		case string:
			writePaddedString(t, &payload)

		case []byte:
			writeBlob(t, &payload)

		case Timetag:
			writeUint64(&payload, uint64(t))
		}
	}

	tags, err := msg.TypeTags()
	if err != nil {
		return nil, err
	}

	var data bytes.Buffer
	writePaddedString(msg.Address, &data)
	writePaddedString(tags, &data)
	data.Write(payload.Bytes())
	return data.Bytes(), nil
}

////
// Bundle
////

// NewBundle returns an OSC Bundle dispatched at the given time.
func NewBundle(t time.Time) *Bundle {
	return &Bundle{Timetag: NewTimetag(t)}
}

// NewImmediateBundle returns an OSC Bundle carrying the "immediately" time
// tag.
func NewImmediateBundle() *Bundle {
	return &Bundle{Timetag: Immediately}
}

// Append appends an OSC bundle or OSC message to the bundle.
func (b *Bundle) Append(pck Packet) error {
	switch t := pck.(type) {
	case *Bundle, *Message:
		b.Elements = append(b.Elements, t)
		return nil
	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedPacket, t)
	}
}

// Snapshot returns a copy of the bundle whose element list no longer shares
// storage with b. Elements themselves are shared.
func (b *Bundle) Snapshot() *Bundle {
	elems := make([]Packet, len(b.Elements))
	copy(elems, b.Elements)
	return &Bundle{Timetag: b.Timetag, Elements: elems}
}

// Messages returns the messages of the bundle and all nested bundles, depth
// first, in element order.
func (b *Bundle) Messages() []*Message {
	var out []*Message
	for _, e := range b.Elements {
		switch t := e.(type) {
		case *Message:
			out = append(out, t)
		case *Bundle:
			out = append(out, t.Messages()...)
		}
	}
	return out
}

// MarshalBinary serializes the OSC bundle to a byte array with the following
// format:
// 1. Bundle string: '#bundle'
// 2. OSC timetag
// 3. Length of first OSC bundle element
// 4. First bundle element
// 5. Length of n OSC bundle element
// 6. n bundle element
func (b *Bundle) MarshalBinary() ([]byte, error) {
	var data bytes.Buffer
	writePaddedString(bundleTag, &data)
	writeUint64(&data, uint64(b.Timetag))

	for _, e := range b.Elements {
		buf, err := e.MarshalBinary()
		if err != nil {
			return nil, err
		}
		writeUint32(&data, uint32(len(buf)))
		data.Write(buf)
	}
	return data.Bytes(), nil
}

////
// Decoding
////

// ParsePacket decodes a single OSC message or bundle.
func ParsePacket(data []byte) (Packet, error) {
	if len(data) == 0 || len(data)%4 != 0 {
		return nil, fmt.Errorf("%w: length %d is not a positive multiple of 4", ErrMalformed, len(data))
	}
	switch data[0] {
	case '/':
		return parseMessage(data)
	case '#':
		return parseBundle(data)
	default:
		return nil, fmt.Errorf("%w: unexpected first byte %q", ErrMalformed, data[0])
	}
}

func parseBundle(data []byte) (*Bundle, error) {
	tag, n, err := readPaddedString(data)
	if err != nil {
		return nil, err
	}
	if tag != bundleTag {
		return nil, fmt.Errorf("%w: invalid bundle start tag %q", ErrMalformed, tag)
	}
	data = data[n:]
	if len(data) < 8 {
		return nil, fmt.Errorf("%w: bundle too short for time tag", ErrMalformed)
	}

	b := &Bundle{Timetag: Timetag(binary.BigEndian.Uint64(data))}
	data = data[8:]

	for len(data) > 0 {
		if len(data) < 4 {
			return nil, fmt.Errorf("%w: truncated element size", ErrMalformed)
		}
		size := int(binary.BigEndian.Uint32(data))
		data = data[4:]
		if size > len(data) {
			return nil, fmt.Errorf("%w: element size %d exceeds remaining %d bytes", ErrMalformed, size, len(data))
		}
		p, err := ParsePacket(data[:size])
		if err != nil {
			return nil, err
		}
		b.Elements = append(b.Elements, p)
		data = data[size:]
	}
	return b, nil
}

func parseMessage(data []byte) (*Message, error) {
	addr, n, err := readPaddedString(data)
	if err != nil {
		return nil, err
	}
	data = data[n:]
	msg := NewMessage(addr)
	if len(data) == 0 {
		return msg, nil
	}

	tags, n, err := readPaddedString(data)
	if err != nil {
		return nil, err
	}
	data = data[n:]
	if len(tags) == 0 || tags[0] != ',' {
		return nil, fmt.Errorf("%w: unsupported type tag string %q", ErrMalformed, tags)
	}

	need := func(k int) error {
		if len(data) < k {
			return fmt.Errorf("%w: argument truncated", ErrMalformed)
		}
		return nil
	}

	for _, c := range tags[1:] {
		switch c {
		default:
			return nil, fmt.Errorf("%w: unsupported type tag %q", ErrMalformed, c)

		case 'i':
			if err := need(4); err != nil {
				return nil, err
			}
			msg.Arguments = append(msg.Arguments, int32(binary.BigEndian.Uint32(data)))
			data = data[4:]

		case 'f':
			if err := need(4); err != nil {
				return nil, err
			}
			msg.Arguments = append(msg.Arguments, math.Float32frombits(binary.BigEndian.Uint32(data)))
			data = data[4:]

		case 'h':
			if err := need(8); err != nil {
				return nil, err
			}
			msg.Arguments = append(msg.Arguments, int64(binary.BigEndian.Uint64(data)))
			data = data[8:]

		case 'd':
			if err := need(8); err != nil {
				return nil, err
			}
			msg.Arguments = append(msg.Arguments, math.Float64frombits(binary.BigEndian.Uint64(data)))
			data = data[8:]

		case 't':
			if err := need(8); err != nil {
				return nil, err
			}
			msg.Arguments = append(msg.Arguments, Timetag(binary.BigEndian.Uint64(data)))
			data = data[8:]

		case 's':
			s, n, err := readPaddedString(data)
			if err != nil {
				return nil, err
			}
			msg.Arguments = append(msg.Arguments, s)
			data = data[n:]

		case 'b':
			blob, n, err := readBlob(data)
			if err != nil {
				return nil, err
			}
			msg.Arguments = append(msg.Arguments, blob)
			data = data[n:]

		case 'T':
			msg.Arguments = append(msg.Arguments, true)

		case 'F':
			msg.Arguments = append(msg.Arguments, false)

		case 'N':
			msg.Arguments = append(msg.Arguments, nil)
		}
	}
	return msg, nil
}

////
// Timetag
////

// NewTimetag converts the given time to an OSC time tag.
func NewTimetag(t time.Time) Timetag {
	secs := uint64(secondsFrom1900To1970+t.Unix()) << 32
	frac := (uint64(t.Nanosecond()) << 32) / uint64(time.Second)
	return Timetag(secs + frac)
}

// Time returns the time represented by the time tag.
func (tt Timetag) Time() time.Time {
	secs := int64(uint64(tt)>>32) - secondsFrom1900To1970
	nsec := (uint64(tt) & 0xffffffff) * uint64(time.Second) >> 32
	return time.Unix(secs, int64(nsec))
}

// SecondsSinceEpoch returns the first 32 bits (the number of seconds since
// midnight 1900) of the time tag.
func (tt Timetag) SecondsSinceEpoch() uint32 {
	return uint32(uint64(tt) >> 32)
}

// FractionalSecond returns the last 32 bits of the time tag.
func (tt Timetag) FractionalSecond() uint32 {
	return uint32(tt)
}

// IsImmediate reports whether the time tag means "dispatch immediately".
func (tt Timetag) IsImmediate() bool {
	return tt == Immediately
}

////
// De/Encoding functions
////

func writeUint32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func writeUint64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}

// writePaddedString writes a NUL terminated string padded to the next 4 byte
// boundary. Returns the number of written bytes.
func writePaddedString(str string, buf *bytes.Buffer) int {
	buf.WriteString(str)
	pad := padBytesNeeded(len(str))
	buf.Write(make([]byte, pad))
	return len(str) + pad
}

// readPaddedString reads a padded string from data and returns it together
// with the number of bytes it occupied, padding included.
func readPaddedString(data []byte) (string, int, error) {
	end := bytes.IndexByte(data, 0)
	if end < 0 {
		return "", 0, fmt.Errorf("%w: unterminated string", ErrMalformed)
	}
	n := end + padBytesNeeded(end)
	if n > len(data) {
		return "", 0, fmt.Errorf("%w: string padding truncated", ErrMalformed)
	}
	return string(data[:end]), n, nil
}

// writeBlob writes data as an OSC blob: an int32 size followed by the bytes,
// padded to a 4 byte boundary.
func writeBlob(data []byte, buf *bytes.Buffer) int {
	writeUint32(buf, uint32(len(data)))
	buf.Write(data)
	pad := blobPadding(len(data))
	buf.Write(make([]byte, pad))
	return 4 + len(data) + pad
}

func readBlob(data []byte) ([]byte, int, error) {
	if len(data) < 4 {
		return nil, 0, fmt.Errorf("%w: truncated blob size", ErrMalformed)
	}
	size := int(binary.BigEndian.Uint32(data))
	n := 4 + size + blobPadding(size)
	if size < 0 || n > len(data) {
		return nil, 0, fmt.Errorf("%w: blob size %d exceeds packet", ErrMalformed, size)
	}
	blob := make([]byte, size)
	copy(blob, data[4:4+size])
	return blob, n, nil
}

// padBytesNeeded determines how many bytes are needed to terminate a string
// of the given length and fill up to the next 4 byte boundary. The result is
// always between 1 and 4.
func padBytesNeeded(elementLen int) int {
	return 4*(elementLen/4+1) - elementLen
}

func blobPadding(n int) int {
	return (4 - n%4) % 4
}

// typeTag returns the OSC type tag for the given argument.
func typeTag(arg interface{}) (byte, error) {
	switch t := arg.(type) {
	case bool:
		if t {
			return 'T', nil
		}
		return 'F', nil
	case nil:
		return 'N', nil
	case int32:
		return 'i', nil
	case float32:
		return 'f', nil
	case string:
		return 's', nil
	case []byte:
		return 'b', nil
	case int64:
		return 'h', nil
	case float64:
		return 'd', nil
	case Timetag:
		return 't', nil
	default:
		return 0, fmt.Errorf("%w: %T", ErrUnsupportedType, t)
	}
}
