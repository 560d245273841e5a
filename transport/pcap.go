package transport

import (
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

const snapLen = 65536

var (
	recorderSrcMAC = net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x01}
	recorderDstMAC = net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x02}
)

// Recorder forwards every packet to a connection and appends it to a pcap
// capture as an Ethernet/IP/UDP frame between src and dst. Packets the
// connection rejects are not recorded.
type Recorder struct {
	conn io.Writer
	out  io.Closer
	pw   *pcapgo.Writer
	src  *net.UDPAddr
	dst  *net.UDPAddr
	now  func() time.Time
}

// NewRecorder writes the pcap file header to out and returns a Recorder.
func NewRecorder(conn io.Writer, out io.Writer, src, dst *net.UDPAddr) (*Recorder, error) {
	if (src.IP.To4() == nil) != (dst.IP.To4() == nil) {
		return nil, fmt.Errorf("pcap: mixed address families %s -> %s", src, dst)
	}
	pw := pcapgo.NewWriter(out)
	if err := pw.WriteFileHeader(snapLen, layers.LinkTypeEthernet); err != nil {
		return nil, fmt.Errorf("pcap: write header: %w", err)
	}
	r := &Recorder{conn: conn, pw: pw, src: src, dst: dst, now: time.Now}
	if c, ok := out.(io.Closer); ok {
		r.out = c
	}
	return r, nil
}

// CreateRecorder creates the capture file at path and records packets sent
// through conn towards target. The source port is taken from conn when it
// reports a local UDP address; the source IP is the loopback address of the
// target's family unless conn is bound to a specific address.
func CreateRecorder(conn io.Writer, path, target string) (*Recorder, error) {
	dst, err := net.ResolveUDPAddr("udp", target)
	if err != nil {
		return nil, fmt.Errorf("pcap: resolve %s: %w", target, err)
	}
	src := recorderSource(conn, dst)

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("pcap: %w", err)
	}
	r, err := NewRecorder(conn, f, src, dst)
	if err != nil {
		f.Close()
		return nil, err
	}
	return r, nil
}

func recorderSource(conn io.Writer, dst *net.UDPAddr) *net.UDPAddr {
	src := &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)}
	if dst.IP.To4() == nil {
		src.IP = net.IPv6loopback
	}
	lc, ok := conn.(interface{ LocalAddr() net.Addr })
	if !ok {
		return src
	}
	la, ok := lc.LocalAddr().(*net.UDPAddr)
	if !ok {
		return src
	}
	src.Port = la.Port
	if !la.IP.IsUnspecified() && (la.IP.To4() == nil) == (dst.IP.To4() == nil) {
		src.IP = la.IP
	}
	return src
}

// Write sends p on the connection and records it.
func (r *Recorder) Write(p []byte) (int, error) {
	n, err := r.conn.Write(p)
	if err != nil {
		return n, err
	}
	frame, err := r.frame(p)
	if err != nil {
		return n, err
	}
	ci := gopacket.CaptureInfo{
		Timestamp:     r.now(),
		CaptureLength: len(frame),
		Length:        len(frame),
	}
	if err := r.pw.WritePacket(ci, frame); err != nil {
		return n, fmt.Errorf("pcap: write packet: %w", err)
	}
	return n, nil
}

// Close closes the capture file and the connection.
func (r *Recorder) Close() error {
	var err error
	if r.out != nil {
		err = r.out.Close()
	}
	if c, ok := r.conn.(io.Closer); ok {
		if cerr := c.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

func (r *Recorder) frame(payload []byte) ([]byte, error) {
	eth := &layers.Ethernet{SrcMAC: recorderSrcMAC, DstMAC: recorderDstMAC}
	udp := &layers.UDP{
		SrcPort: layers.UDPPort(r.src.Port),
		DstPort: layers.UDPPort(r.dst.Port),
	}

	var network gopacket.SerializableLayer
	if src4 := r.src.IP.To4(); src4 != nil {
		eth.EthernetType = layers.EthernetTypeIPv4
		ip := &layers.IPv4{
			Version:  4,
			TTL:      64,
			Protocol: layers.IPProtocolUDP,
			SrcIP:    src4,
			DstIP:    r.dst.IP.To4(),
		}
		if err := udp.SetNetworkLayerForChecksum(ip); err != nil {
			return nil, err
		}
		network = ip
	} else {
		eth.EthernetType = layers.EthernetTypeIPv6
		ip := &layers.IPv6{
			Version:    6,
			HopLimit:   64,
			NextHeader: layers.IPProtocolUDP,
			SrcIP:      r.src.IP,
			DstIP:      r.dst.IP,
		}
		if err := udp.SetNetworkLayerForChecksum(ip); err != nil {
			return nil, err
		}
		network = ip
	}

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	if err := gopacket.SerializeLayers(buf, opts, eth, network, udp, gopacket.Payload(payload)); err != nil {
		return nil, fmt.Errorf("pcap: serialize: %w", err)
	}
	return buf.Bytes(), nil
}
