// Package cc encodes the 3-byte control-change packets understood by the
// show controller and plays value sequences against it.
//
// A packet is three raw bytes with no header, checksum or framing:
//
//	[channel, value >> 8, value & 0xFF]
package cc

import (
	"errors"
	"fmt"
)

// PacketSize is the size in bytes of an encoded control-change packet.
const PacketSize = 3

// MaxChannels is the number of addressable control channels.
const MaxChannels = 256

var (
	ErrChannelRange = errors.New("cc: channel out of range 0-255")
	ErrValueRange   = errors.New("cc: value out of range 0-65535")
)

// Packet is a single control-change: a channel id and a 16-bit value.
type Packet struct {
	Channel uint8
	Value   uint16
}

// Encode returns the wire bytes for the given channel and value.
func Encode(channel uint8, value uint16) [PacketSize]byte {
	return [PacketSize]byte{channel, byte(value >> 8), byte(value & 0xFF)}
}

// NewPacket builds a Packet from untyped integers, rejecting anything that
// does not fit the wire format.
func NewPacket(channel, value int) (Packet, error) {
	if channel < 0 || channel >= MaxChannels {
		return Packet{}, fmt.Errorf("%w: %d", ErrChannelRange, channel)
	}
	if value < 0 || value > 0xFFFF {
		return Packet{}, fmt.Errorf("%w: %d", ErrValueRange, value)
	}
	return Packet{Channel: uint8(channel), Value: uint16(value)}, nil
}

// Bytes returns the encoded packet.
func (p Packet) Bytes() [PacketSize]byte {
	return Encode(p.Channel, p.Value)
}

// MarshalBinary implements the encoding.BinaryMarshaler interface.
func (p Packet) MarshalBinary() ([]byte, error) {
	b := p.Bytes()
	return b[:], nil
}

// String formats the packet the way the simulator prints it: the wire bytes
// followed by the channel and value they encode.
func (p Packet) String() string {
	b := p.Bytes()
	return fmt.Sprintf("[%d, %d, %d] [%d,%d]", b[0], b[1], b[2], p.Channel, p.Value)
}
