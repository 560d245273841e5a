package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/showcontroller/ctlsim/cc"
	"github.com/showcontroller/ctlsim/config"
)

func newCCCmd(a *app) *cobra.Command {
	var (
		target string
		serial string
		baud   int
	)
	cmd := &cobra.Command{
		Use:   "cc",
		Short: "Send 3-byte control-change packets",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.load(); err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("target") {
				a.cfg.CC.Target = target
			}
			if flags.Changed("serial") {
				a.cfg.CC.Serial = serial
			}
			if flags.Changed("baud") {
				a.cfg.CC.Baud = baud
			}
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&target, "target", config.DefaultCCTarget, "destination host:port")
	cmd.PersistentFlags().StringVar(&serial, "serial", "", "write SLIP framed packets to this serial port instead of UDP")
	cmd.PersistentFlags().IntVar(&baud, "baud", 115200, "serial baud rate")

	cmd.AddCommand(newCCSendCmd(a), newCCShowCmd(a))
	return cmd
}

func newCCSendCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "send <channel> <value>",
		Short: "Send a single control-change packet",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			channel, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid channel %q: %w", args[0], err)
			}
			value, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid value %q: %w", args[1], err)
			}
			p, err := cc.NewPacket(channel, value)
			if err != nil {
				return err
			}

			conn, err := a.openCC()
			if err != nil {
				return err
			}
			defer conn.Close()
			return cc.NewSender(conn, ccConsole{w: cmd.OutOrStdout()}).SendPacket(cmd.Context(), p)
		},
	}
}

func newCCShowCmd(a *app) *cobra.Command {
	var (
		noWarmup bool
		channels int
		steps    int
		maxValue int
		interval time.Duration
	)
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Send the warmup packets, then ramp every channel up and down",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if noWarmup {
				a.cfg.CC.Warmup = false
			}
			if flags.Changed("channels") {
				a.cfg.CC.Show.Channels = channels
			}
			if flags.Changed("steps") {
				a.cfg.CC.Show.Steps = steps
			}
			if flags.Changed("max") {
				a.cfg.CC.Show.Max = maxValue
			}
			if flags.Changed("interval") {
				a.cfg.CC.Show.Interval = interval
			}
			show := a.cfg.Show()
			if err := show.Validate(); err != nil {
				return err
			}

			conn, err := a.openCC()
			if err != nil {
				return err
			}
			defer conn.Close()

			s := cc.NewSender(conn, ccConsole{w: cmd.OutOrStdout()})
			if a.cfg.CC.Warmup {
				if err := cc.Warmup(cmd.Context(), s); err != nil {
					return err
				}
			}
			return show.Run(cmd.Context(), s)
		},
	}
	cmd.Flags().BoolVar(&noWarmup, "no-warmup", false, "skip the fixed warmup packets")
	cmd.Flags().IntVar(&channels, "channels", cc.DefaultShowChannels, "number of channels, starting at 0")
	cmd.Flags().IntVar(&steps, "steps", cc.DefaultShowSteps, "number of frames")
	cmd.Flags().IntVar(&maxValue, "max", cc.DefaultShowMax, "value odd channels count down from")
	cmd.Flags().DurationVar(&interval, "interval", cc.DefaultShowInterval, "sleep between frames")
	return cmd
}
