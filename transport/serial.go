package transport

import (
	"fmt"
	"io"

	"github.com/Lobaro/slip"
	"go.bug.st/serial"
)

// DefaultBaudRate is used when no baud rate is configured.
const DefaultBaudRate = 115200

// SLIPWriter frames every Write as one SLIP packet so packet boundaries
// survive a byte stream.
type SLIPWriter struct {
	w      *slip.Writer
	closer io.Closer
}

// NewSLIPWriter wraps rw. Close closes rw if it implements io.Closer.
func NewSLIPWriter(rw io.Writer) *SLIPWriter {
	sw := &SLIPWriter{w: slip.NewWriter(rw)}
	if c, ok := rw.(io.Closer); ok {
		sw.closer = c
	}
	return sw
}

// Write sends p as one SLIP packet.
func (s *SLIPWriter) Write(p []byte) (int, error) {
	if err := s.w.WritePacket(p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Close closes the underlying stream.
func (s *SLIPWriter) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// OpenSerial opens a serial port in 8N1 mode and returns it wrapped in SLIP
// framing.
func OpenSerial(path string, baud int) (*SLIPWriter, error) {
	if baud <= 0 {
		baud = DefaultBaudRate
	}
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial %s: %w", path, err)
	}
	return NewSLIPWriter(port), nil
}
