package cc

import (
	"context"
	"fmt"
	"io"
)

// Reporter is told about every packet just before it is written, so a
// packet whose write fails is still the last one reported.
type Reporter interface {
	Sent(p Packet)
}

// ReporterFunc adapts a function to the Reporter interface.
type ReporterFunc func(p Packet)

// Sent calls f(p).
func (f ReporterFunc) Sent(p Packet) { f(p) }

// Sender writes control-change packets to a connection. Each packet is
// written with one Write call so a datagram connection carries exactly one
// packet per datagram.
type Sender struct {
	conn     io.Writer
	reporter Reporter
}

// NewSender returns a Sender writing to conn. A nil reporter is allowed.
func NewSender(conn io.Writer, reporter Reporter) *Sender {
	return &Sender{conn: conn, reporter: reporter}
}

// Send writes one packet.
func (s *Sender) Send(ctx context.Context, channel uint8, value uint16) error {
	return s.SendPacket(ctx, Packet{Channel: channel, Value: value})
}

// SendPacket writes p unless ctx is already done.
func (s *Sender) SendPacket(ctx context.Context, p Packet) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.reporter != nil {
		s.reporter.Sent(p)
	}
	b := p.Bytes()
	if _, err := s.conn.Write(b[:]); err != nil {
		return fmt.Errorf("send %s: %w", p, err)
	}
	return nil
}

// Warmup sends the fixed probe packets that precede a show: a high value, a
// zero, a single-byte value and a byte-aligned channel/value pair.
func Warmup(ctx context.Context, s *Sender) error {
	for _, p := range WarmupPackets {
		if err := s.SendPacket(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// WarmupPackets are the packets sent by Warmup, in order.
var WarmupPackets = []Packet{
	{Channel: 2, Value: 1024},
	{Channel: 2, Value: 0},
	{Channel: 2, Value: 0xFF},
	{Channel: 65, Value: 65},
}
