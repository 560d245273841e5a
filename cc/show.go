package cc

import (
	"context"
	"fmt"
	"time"

	"github.com/showcontroller/ctlsim/pace"
)

// Default show parameters.
const (
	DefaultShowChannels = 16
	DefaultShowSteps    = 1024
	DefaultShowMax      = 1024
	DefaultShowInterval = 100 * time.Millisecond
)

// Show ramps every channel once over Steps frames. Even channels count up
// from 0, odd channels count down from Max.
type Show struct {
	Channels int
	Steps    int
	Max      int
	Interval time.Duration
}

// DefaultShow returns the show the simulator plays when nothing is
// configured.
func DefaultShow() Show {
	return Show{
		Channels: DefaultShowChannels,
		Steps:    DefaultShowSteps,
		Max:      DefaultShowMax,
		Interval: DefaultShowInterval,
	}
}

// Validate checks that every frame of the show is encodable.
func (sh Show) Validate() error {
	if sh.Channels < 0 || sh.Channels > MaxChannels {
		return fmt.Errorf("%w: %d channels", ErrChannelRange, sh.Channels)
	}
	if sh.Steps < 0 {
		return fmt.Errorf("show: negative step count %d", sh.Steps)
	}
	if sh.Max < 0 || sh.Max > 0xFFFF {
		return fmt.Errorf("%w: max %d", ErrValueRange, sh.Max)
	}
	if sh.Steps > sh.Max+1 {
		return fmt.Errorf("%w: %d steps exceed max %d", ErrValueRange, sh.Steps, sh.Max)
	}
	if sh.Interval < 0 {
		return fmt.Errorf("show: negative interval %s", sh.Interval)
	}
	return nil
}

// Frame returns the packets of step i in channel order.
func (sh Show) Frame(i int) []Packet {
	frame := make([]Packet, sh.Channels)
	for c := range frame {
		v := i
		if c%2 == 1 {
			v = sh.Max - i
		}
		frame[c] = Packet{Channel: uint8(c), Value: uint16(v)}
	}
	return frame
}

// Run plays the show through s, sleeping Interval after each frame. It stops
// at the first send error or when ctx is done.
func (sh Show) Run(ctx context.Context, s *Sender) error {
	if err := sh.Validate(); err != nil {
		return err
	}
	for i := 0; i < sh.Steps; i++ {
		for _, p := range sh.Frame(i) {
			if err := s.SendPacket(ctx, p); err != nil {
				return err
			}
		}
		if err := pace.Sleep(ctx, sh.Interval); err != nil {
			return err
		}
	}
	return nil
}
