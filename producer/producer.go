// Package producer runs the OSC traffic loops: a stream of single control
// messages with random values and a one-shot bundle.
package producer

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/showcontroller/ctlsim/osc"
	"github.com/showcontroller/ctlsim/pace"
)

// Defaults of the control message stream.
var (
	DefaultChannels = []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l", "m", "n", "o", "p"}
	DefaultRounds   = 20
	DefaultInterval = 100 * time.Millisecond
	DefaultMax      = 1024
)

// Defaults of the bundle.
var (
	DefaultBundleChannels = []string{"a", "c", "e", "n", "o", "p"}
	DefaultBundleValue    = int32(512)
)

// Sender delivers an OSC packet. *osc.Client and *osc.TCPClient implement
// it.
type Sender interface {
	Send(p osc.Packet) error
}

// Reporter is told about every packet just before it is sent. seq counts the
// packets of one run starting at 0.
type Reporter interface {
	Sent(seq int, p osc.Packet)
}

// ReporterFunc adapts a function to the Reporter interface.
type ReporterFunc func(seq int, p osc.Packet)

// Sent calls f(seq, p).
func (f ReporterFunc) Sent(seq int, p osc.Packet) { f(seq, p) }

// Stream sends one control message per channel each round, with a random
// value in [0, Max], and sleeps Interval between rounds.
type Stream struct {
	Channels []string
	Rounds   int
	Interval time.Duration
	Max      int
	// Rand is the value source. A nil Rand uses a time seeded source.
	Rand *rand.Rand
}

// DefaultStream returns the stream sent when nothing is configured.
func DefaultStream() Stream {
	return Stream{
		Channels: DefaultChannels,
		Rounds:   DefaultRounds,
		Interval: DefaultInterval,
		Max:      DefaultMax,
	}
}

// Validate checks the stream parameters.
func (st Stream) Validate() error {
	if len(st.Channels) == 0 {
		return fmt.Errorf("stream: no channels")
	}
	if st.Rounds < 0 {
		return fmt.Errorf("stream: negative round count %d", st.Rounds)
	}
	if st.Max < 0 {
		return fmt.Errorf("stream: negative max value %d", st.Max)
	}
	if int64(st.Max) > int64(^uint32(0)>>1) {
		return fmt.Errorf("stream: max value %d does not fit int32", st.Max)
	}
	if st.Interval < 0 {
		return fmt.Errorf("stream: negative interval %s", st.Interval)
	}
	return nil
}

// Run sends the stream through s. The sequence number passed to r counts
// the messages of this run only. It stops at the first send error or when
// ctx is done.
func (st Stream) Run(ctx context.Context, s Sender, r Reporter) error {
	if err := st.Validate(); err != nil {
		return err
	}
	rnd := st.Rand
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	seq := 0
	for round := 0; round < st.Rounds; round++ {
		for _, ch := range st.Channels {
			if err := ctx.Err(); err != nil {
				return err
			}
			msg := osc.NewControlMessage(ch, int32(rnd.Intn(st.Max+1)))
			if r != nil {
				r.Sent(seq, msg)
			}
			if err := s.Send(msg); err != nil {
				return fmt.Errorf("send %s: %w", msg.Address, err)
			}
			seq++
		}
		if err := pace.Sleep(ctx, st.Interval); err != nil {
			return err
		}
	}
	return nil
}

// Burst builds one immediate bundle holding a control message with Value for
// every channel.
type Burst struct {
	Channels []string
	Value    int32
	// NestCopy appends a snapshot of the finished bundle to itself as a last
	// element, reproducing a legacy stream that carried every message twice.
	NestCopy bool
}

// DefaultBurst returns the bundle sent when nothing is configured.
func DefaultBurst() Burst {
	return Burst{Channels: DefaultBundleChannels, Value: DefaultBundleValue}
}

// Bundle builds the bundle without sending it.
func (b Burst) Bundle() (*osc.Bundle, error) {
	if len(b.Channels) == 0 {
		return nil, fmt.Errorf("bundle: no channels")
	}
	bundle := osc.NewImmediateBundle()
	for _, ch := range b.Channels {
		if err := bundle.Append(osc.NewControlMessage(ch, b.Value)); err != nil {
			return nil, err
		}
	}
	if b.NestCopy {
		if err := bundle.Append(bundle.Snapshot()); err != nil {
			return nil, err
		}
	}
	return bundle, nil
}

// Run builds the bundle and sends it once.
func (b Burst) Run(ctx context.Context, s Sender, r Reporter) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	bundle, err := b.Bundle()
	if err != nil {
		return err
	}
	if r != nil {
		r.Sent(0, bundle)
	}
	if err := s.Send(bundle); err != nil {
		return fmt.Errorf("send bundle: %w", err)
	}
	return nil
}
