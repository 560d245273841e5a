package producer

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/showcontroller/ctlsim/osc"
)

// wire records every packet as the bytes that would go on the wire.
type wire struct {
	packets [][]byte
	err     error
}

func (w *wire) Send(p osc.Packet) error {
	if w.err != nil {
		return w.err
	}
	b, err := p.MarshalBinary()
	if err != nil {
		return err
	}
	w.packets = append(w.packets, b)
	return nil
}

func (w *wire) decode(t *testing.T, i int) osc.Packet {
	t.Helper()
	p, err := osc.ParsePacket(w.packets[i])
	require.NoError(t, err)
	return p
}

func TestStreamSendsEveryChannelEachRound(t *testing.T) {
	w := &wire{}
	st := Stream{
		Channels: []string{"a", "b", "c"},
		Rounds:   2,
		Max:      1024,
		Rand:     rand.New(rand.NewSource(1)),
	}
	var seqs []int
	require.NoError(t, st.Run(context.Background(), w, ReporterFunc(func(seq int, _ osc.Packet) {
		seqs = append(seqs, seq)
	})))

	require.Len(t, w.packets, 6)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, seqs)
	for i, want := range []string{"a", "b", "c", "a", "b", "c"} {
		msg := w.decode(t, i).(*osc.Message)
		assert.Equal(t, osc.ControlAddress(want), msg.Address)
		require.Len(t, msg.Arguments, 1)
		v := msg.Arguments[0].(int32)
		assert.True(t, v >= 0 && v <= 1024, "value %d out of range", v)
	}
}

func TestStreamIsDeterministicWithSeed(t *testing.T) {
	run := func() [][]byte {
		w := &wire{}
		st := Stream{Channels: DefaultChannels, Rounds: 3, Max: DefaultMax, Rand: rand.New(rand.NewSource(7))}
		require.NoError(t, st.Run(context.Background(), w, nil))
		return w.packets
	}
	assert.Equal(t, run(), run())
}

func TestStreamZeroMax(t *testing.T) {
	w := &wire{}
	st := Stream{Channels: []string{"x"}, Rounds: 1}
	require.NoError(t, st.Run(context.Background(), w, nil))
	msg := w.decode(t, 0).(*osc.Message)
	assert.Equal(t, []interface{}{int32(0)}, msg.Arguments)
}

func TestStreamCountersAreLocalToARun(t *testing.T) {
	st := Stream{Channels: []string{"a"}, Rounds: 2, Max: 1}
	for i := 0; i < 2; i++ {
		var seqs []int
		require.NoError(t, st.Run(context.Background(), &wire{}, ReporterFunc(func(seq int, _ osc.Packet) {
			seqs = append(seqs, seq)
		})))
		assert.Equal(t, []int{0, 1}, seqs)
	}
}

func TestStreamStopsOnError(t *testing.T) {
	boom := errors.New("network unreachable")
	var seqs []int
	var last osc.Packet
	err := DefaultStream().Run(context.Background(), &wire{err: boom}, ReporterFunc(func(seq int, p osc.Packet) {
		seqs = append(seqs, seq)
		last = p
	}))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []int{0}, seqs)
	require.NotNil(t, last)
	assert.Equal(t, osc.ControlAddress("a"), last.(*osc.Message).Address)
}

func TestBurstReportsFailedBundle(t *testing.T) {
	boom := errors.New("network unreachable")
	var reported []osc.Packet
	err := DefaultBurst().Run(context.Background(), &wire{err: boom}, ReporterFunc(func(_ int, p osc.Packet) {
		reported = append(reported, p)
	}))
	assert.ErrorIs(t, err, boom)
	require.Len(t, reported, 1)
	assert.Len(t, reported[0].(*osc.Bundle).Elements, len(DefaultBundleChannels))
}

func TestStreamHonorsCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w := &wire{}
	err := DefaultStream().Run(ctx, w, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, w.packets)
}

func TestStreamValidate(t *testing.T) {
	assert.NoError(t, DefaultStream().Validate())
	assert.Error(t, Stream{}.Validate())
	assert.Error(t, Stream{Channels: []string{"a"}, Rounds: -1}.Validate())
	assert.Error(t, Stream{Channels: []string{"a"}, Max: -1}.Validate())
}

func TestBurstOrder(t *testing.T) {
	w := &wire{}
	require.NoError(t, DefaultBurst().Run(context.Background(), w, nil))
	require.Len(t, w.packets, 1)

	b := w.decode(t, 0).(*osc.Bundle)
	assert.True(t, b.Timetag.IsImmediate())
	require.Len(t, b.Elements, len(DefaultBundleChannels))
	for i, ch := range DefaultBundleChannels {
		msg := b.Elements[i].(*osc.Message)
		assert.True(t, osc.NewControlMessage(ch, 512).Equals(msg), "element %d: %v", i, msg)
	}
}

func TestBurstNestCopy(t *testing.T) {
	w := &wire{}
	burst := DefaultBurst()
	burst.NestCopy = true
	require.NoError(t, burst.Run(context.Background(), w, nil))

	b := w.decode(t, 0).(*osc.Bundle)
	require.Len(t, b.Elements, len(DefaultBundleChannels)+1)

	inner, ok := b.Elements[len(DefaultBundleChannels)].(*osc.Bundle)
	require.True(t, ok, "last element should be a bundle")
	assert.True(t, inner.Timetag.IsImmediate())
	require.Len(t, inner.Elements, len(DefaultBundleChannels))
	assert.Len(t, b.Messages(), 2*len(DefaultBundleChannels))
}

func TestBurstNoChannels(t *testing.T) {
	_, err := Burst{}.Bundle()
	assert.Error(t, err)
}
