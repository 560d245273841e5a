package main

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/eiannone/keyboard"
	"github.com/spf13/cobra"

	"github.com/showcontroller/ctlsim/cc"
	"github.com/showcontroller/ctlsim/osc"
	"github.com/showcontroller/ctlsim/producer"
)

// keyFunc returns the next key press.
type keyFunc func() (rune, keyboard.Key, error)

// keypad maps key presses to packets.
type keypad struct {
	osc   producer.Sender
	cc    *cc.Sender
	burst producer.Burst
	// channels and max pick the random control message sent on 'm'.
	channels []string
	max      int
	// ccValue is the value sent on the digit keys.
	ccValue uint16
	rnd     *rand.Rand
	out     io.Writer
	seq     int
}

// run reads keys until ESC or 'q', ctx is done, or a send fails.
func (k *keypad) run(ctx context.Context, next keyFunc) error {
	rep := console{w: k.out}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		char, key, err := next()
		if err != nil {
			return err
		}

		switch {
		case key == keyboard.KeyEsc || char == 'q':
			return nil

		case char == 'm':
			ch := k.channels[k.rnd.Intn(len(k.channels))]
			msg := osc.NewControlMessage(ch, int32(k.rnd.Intn(k.max+1)))
			rep.Sent(k.seq, msg)
			k.seq++
			if err := k.osc.Send(msg); err != nil {
				return fmt.Errorf("send %s: %w", msg.Address, err)
			}

		case char == 'b':
			if err := k.burst.Run(ctx, k.osc, rep); err != nil {
				return err
			}

		case char >= '0' && char <= '9':
			if err := k.cc.Send(ctx, uint8(char-'0'), k.ccValue); err != nil {
				return err
			}
		}
	}
}

func newKeysCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "Send packets interactively from the keyboard",
		Long: `Reads single key presses from the terminal:
  m       send a control message with a random value to a random channel
  b       send the bundle
  0-9     send a control-change packet at the show maximum on that channel
  q, ESC  quit`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.Stream().Validate(); err != nil {
				return err
			}
			if err := a.cfg.Show().Validate(); err != nil {
				return err
			}

			oc, err := a.openOSC()
			if err != nil {
				return err
			}
			defer oc.Close()
			ccConn, err := a.openCC()
			if err != nil {
				return err
			}
			defer ccConn.Close()

			if err := keyboard.Open(); err != nil {
				return fmt.Errorf("open keyboard: %w", err)
			}
			defer keyboard.Close()

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Press ESC to quit")
			k := &keypad{
				osc:      oc,
				cc:       cc.NewSender(ccConn, ccConsole{w: out}),
				burst:    a.cfg.Burst(),
				channels: a.cfg.OSC.Channels,
				max:      a.cfg.OSC.Max,
				ccValue:  uint16(a.cfg.CC.Show.Max),
				rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
				out:      out,
			}
			return k.run(cmd.Context(), keyboard.GetKey)
		},
	}
}
