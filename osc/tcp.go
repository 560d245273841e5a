package osc

import (
	"fmt"
	"net"

	"github.com/Lobaro/slip"
)

// TCPClient sends OSC packets over a stream connection, framing each packet
// with SLIP as OSC 1.1 does for stream transports.
type TCPClient struct {
	addr string
	conn net.Conn
	w    *slip.Writer
}

// DialTCP connects a TCPClient to the given "host:port" address.
func DialTCP(addr string) (*TCPClient, error) {
	c, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return newTCPClient(addr, c), nil
}

func newTCPClient(addr string, conn net.Conn) *TCPClient {
	return &TCPClient{addr: addr, conn: conn, w: slip.NewWriter(conn)}
}

// Send writes one SLIP framed OSC packet. A failed write is returned to the
// caller; the client does not reconnect.
func (tc *TCPClient) Send(packet Packet) error {
	b, err := packet.MarshalBinary()
	if err != nil {
		return err
	}
	if err := tc.w.WritePacket(b); err != nil {
		return fmt.Errorf("send to %s: %w", tc.addr, err)
	}
	return nil
}

// Close closes the connection.
func (tc *TCPClient) Close() error {
	return tc.conn.Close()
}
