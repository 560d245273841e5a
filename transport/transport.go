// Package transport opens the connections packets are written to. Every
// Write on a returned connection carries exactly one packet.
package transport

import (
	"fmt"
	"io"
	"net"
)

// UDPSender writes every packet as one datagram to a fixed destination from
// an unconnected socket. ICMP errors from a closed destination port are not
// reported back to an unconnected socket, so sends keep succeeding whether or
// not anything is listening.
type UDPSender struct {
	conn  *net.UDPConn
	raddr *net.UDPAddr
}

// DialUDP resolves the "host:port" address and opens a local socket of the
// same address family to send to it.
func DialUDP(addr string) (*UDPSender, error) {
	raddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", addr, err)
	}
	network := "udp6"
	if raddr.IP == nil || raddr.IP.To4() != nil {
		network = "udp4"
	}
	conn, err := net.ListenUDP(network, nil)
	if err != nil {
		return nil, fmt.Errorf("open socket for %s: %w", addr, err)
	}
	return &UDPSender{conn: conn, raddr: raddr}, nil
}

// Write sends p as one datagram.
func (u *UDPSender) Write(p []byte) (int, error) {
	return u.conn.WriteToUDP(p, u.raddr)
}

// Close closes the socket.
func (u *UDPSender) Close() error {
	return u.conn.Close()
}

// LocalAddr returns the local address of the socket.
func (u *UDPSender) LocalAddr() net.Addr {
	return u.conn.LocalAddr()
}

// RemoteAddr returns the destination address.
func (u *UDPSender) RemoteAddr() net.Addr {
	return u.raddr
}

// Discard accepts and drops every packet.
var Discard io.WriteCloser = discard{}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
func (discard) Close() error                { return nil }
