package osc

import (
	"io"

	"github.com/showcontroller/ctlsim/transport"
)

// Client sends OSC messages and bundles over a datagram connection. Every
// packet is written with a single Write call, so the underlying writer sees
// exactly one datagram per packet.
type Client struct {
	conn io.Writer
}

// Dial creates a Client sending UDP datagrams to the given "host:port"
// address. Sends do not fail when nothing is listening there.
func Dial(addr string) (*Client, error) {
	conn, err := transport.DialUDP(addr)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn}, nil
}

// NewClient creates a Client writing to an already opened connection. The
// Client takes ownership of conn if it implements io.Closer.
func NewClient(conn io.Writer) *Client {
	return &Client{conn: conn}
}

// Send sends an OSC Bundle or an OSC Message.
func (c *Client) Send(packet Packet) error {
	data, err := packet.MarshalBinary()
	if err != nil {
		return err
	}
	_, err = c.conn.Write(data)
	return err
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if cl, ok := c.conn.(io.Closer); ok {
		return cl.Close()
	}
	return nil
}
