package osc

import (
	"net"
	"testing"
	"time"

	"github.com/Lobaro/slip"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestControlMessageRoundTrip(t *testing.T) {
	msg := NewControlMessage("a", 512)

	data, err := msg.MarshalBinary()
	require.NoError(t, err)

	p, err := ParsePacket(data)
	require.NoError(t, err)

	got, ok := p.(*Message)
	require.True(t, ok, "expected *Message, got %T", p)
	assert.Equal(t, "/control/a", got.Address)
	assert.Equal(t, []interface{}{int32(512)}, got.Arguments)
}

func TestControlMessageWireFormat(t *testing.T) {
	data, err := NewControlMessage("a", 512).MarshalBinary()
	require.NoError(t, err)

	want := []byte{
		'/', 'c', 'o', 'n', 't', 'r', 'o', 'l', '/', 'a', 0, 0,
		',', 'i', 0, 0,
		0, 0, 0x02, 0x00,
	}
	if diff := cmp.Diff(want, data); diff != "" {
		t.Errorf("MarshalBinary() mismatch (-want +got):\n%s", diff)
	}
}

func TestMessageAllTypesRoundTrip(t *testing.T) {
	msg := NewMessage("/all/types")
	require.NoError(t, msg.Append(
		int32(-7), float32(1.5), "abcd", []byte{1, 2, 3, 4, 5},
		int64(1<<40), float64(-2.25), Timetag(42), true, false, nil,
	))

	tags, err := msg.TypeTags()
	require.NoError(t, err)
	assert.Equal(t, ",ifsbhdtTFN", tags)

	data, err := msg.MarshalBinary()
	require.NoError(t, err)
	assert.Zero(t, len(data)%4, "packet must be 4 byte aligned")

	p, err := ParsePacket(data)
	require.NoError(t, err)
	assert.True(t, msg.Equals(p.(*Message)), "decoded %v, want %v", p, msg)
}

func TestAppendRejectsUnsupportedType(t *testing.T) {
	msg := NewMessage("/control/a")
	err := msg.Append(int32(1), 12)
	assert.ErrorIs(t, err, ErrUnsupportedType)
	assert.Empty(t, msg.Arguments)

	msg.Arguments = append(msg.Arguments, uint8(1))
	_, err = msg.MarshalBinary()
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestPadBytesNeeded(t *testing.T) {
	for n, want := range map[int]int{0: 4, 1: 3, 2: 2, 3: 1, 4: 4, 9: 3} {
		assert.Equal(t, want, padBytesNeeded(n), "len %d", n)
	}
	for n, want := range map[int]int{0: 0, 1: 3, 4: 0, 6: 2} {
		assert.Equal(t, want, blobPadding(n), "len %d", n)
	}
}

func TestBundlePreservesOrder(t *testing.T) {
	names := []string{"a", "c", "e", "n", "o", "p"}
	bundle := NewImmediateBundle()
	for i, n := range names {
		require.NoError(t, bundle.Append(NewControlMessage(n, int32(i))))
	}

	data, err := bundle.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, "#bundle\x00", string(data[:8]))
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 0, 0, 1}, data[8:16])

	p, err := ParsePacket(data)
	require.NoError(t, err)
	got := p.(*Bundle)
	assert.True(t, got.Timetag.IsImmediate())

	msgs := got.Messages()
	require.Len(t, msgs, len(names))
	for i, n := range names {
		assert.Equal(t, ControlAddress(n), msgs[i].Address)
		assert.Equal(t, []interface{}{int32(i)}, msgs[i].Arguments)
	}
}

func TestNestedBundleDecodes(t *testing.T) {
	outer := NewImmediateBundle()
	require.NoError(t, outer.Append(NewControlMessage("a", 512)))
	require.NoError(t, outer.Append(NewControlMessage("c", 512)))
	require.NoError(t, outer.Append(outer.Snapshot()))

	data, err := outer.MarshalBinary()
	require.NoError(t, err)

	p, err := ParsePacket(data)
	require.NoError(t, err)
	got := p.(*Bundle)
	require.Len(t, got.Elements, 3)

	inner, ok := got.Elements[2].(*Bundle)
	require.True(t, ok, "third element should be a bundle, got %T", got.Elements[2])
	require.Len(t, inner.Elements, 2)
	assert.Equal(t, "/control/a", inner.Elements[0].(*Message).Address)
	assert.Equal(t, "/control/c", inner.Elements[1].(*Message).Address)
}

type rawPacket []byte

func (r rawPacket) MarshalBinary() ([]byte, error) { return r, nil }

func TestBundleAppendRejectsOtherPackets(t *testing.T) {
	var b Bundle
	assert.ErrorIs(t, b.Append(rawPacket{'/', 0, 0, 0}), ErrUnsupportedPacket)
	assert.Empty(t, b.Elements)
}

func TestParsePacketMalformed(t *testing.T) {
	tests := map[string][]byte{
		"empty":          {},
		"unaligned":      {'/', 'a', 0},
		"bad first byte": {'x', 0, 0, 0},
		"no terminator":  {'/', 'a', 'b', 'c'},
		"bad tag":        {'#', 'b', 'u', 'n', 'd', 'l', 'x', 0, 0, 0, 0, 0, 0, 0, 0, 1},
		"truncated int":  {'/', 'a', 0, 0, ',', 'i', 0, 0},
		"element size": {
			'#', 'b', 'u', 'n', 'd', 'l', 'e', 0,
			0, 0, 0, 0, 0, 0, 0, 1,
			0, 0, 0, 64,
		},
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParsePacket(data)
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestTimetag(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 0, 0, 500000000, time.UTC)
	tt := NewTimetag(ts)

	assert.Equal(t, uint32(ts.Unix()+secondsFrom1900To1970), tt.SecondsSinceEpoch())
	assert.Equal(t, uint32(1<<31), tt.FractionalSecond())
	assert.WithinDuration(t, ts, tt.Time(), time.Microsecond)
	assert.False(t, tt.IsImmediate())
	assert.True(t, NewBundle(ts).Timetag == tt)
}

func TestMessageString(t *testing.T) {
	msg := NewMessage("/control/a", int32(512), true, nil, []byte{1})
	assert.Equal(t, "/control/a ,iTNb 512 true Nil blob", msg.String())
}

type recordingConn struct {
	writes [][]byte
	closed bool
}

func (r *recordingConn) Write(p []byte) (int, error) {
	r.writes = append(r.writes, append([]byte(nil), p...))
	return len(p), nil
}

func (r *recordingConn) Close() error {
	r.closed = true
	return nil
}

func TestClientWritesOneDatagramPerPacket(t *testing.T) {
	conn := &recordingConn{}
	client := NewClient(conn)

	require.NoError(t, client.Send(NewControlMessage("a", 1)))
	b := NewImmediateBundle()
	require.NoError(t, b.Append(NewControlMessage("b", 2)))
	require.NoError(t, client.Send(b))
	require.NoError(t, client.Close())

	require.Len(t, conn.writes, 2)
	assert.Equal(t, byte('/'), conn.writes[0][0])
	assert.Equal(t, byte('#'), conn.writes[1][0])
	assert.True(t, conn.closed)
}

func TestClientDialLoopback(t *testing.T) {
	ln, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	client, err := Dial(ln.LocalAddr().String())
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.Send(NewControlMessage("a", 512)))

	require.NoError(t, ln.SetReadDeadline(time.Now().Add(2*time.Second)))
	buf := make([]byte, 1500)
	n, _, err := ln.ReadFrom(buf)
	require.NoError(t, err)

	p, err := ParsePacket(buf[:n])
	require.NoError(t, err)
	assert.True(t, NewControlMessage("a", 512).Equals(p.(*Message)))
}

func TestClientDialNobodyListening(t *testing.T) {
	ln, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.LocalAddr().String()
	require.NoError(t, ln.Close())

	client, err := Dial(addr)
	require.NoError(t, err)
	defer client.Close()

	for i := int32(0); i < 3; i++ {
		require.NoError(t, client.Send(NewControlMessage("a", i)))
		time.Sleep(5 * time.Millisecond)
	}
}

func TestTCPClientFramesWithSLIP(t *testing.T) {
	client, server := net.Pipe()
	defer server.Close()
	tc := newTCPClient("pipe", client)

	errc := make(chan error, 1)
	go func() {
		errc <- tc.Send(NewControlMessage("n", 7))
	}()

	r := slip.NewReader(server)
	var packet []byte
	for len(packet) == 0 {
		var err error
		packet, _, err = r.ReadPacket()
		require.NoError(t, err)
	}
	require.NoError(t, <-errc)

	p, err := ParsePacket(packet)
	require.NoError(t, err)
	assert.True(t, NewControlMessage("n", 7).Equals(p.(*Message)))
	require.NoError(t, tc.Close())
}
