package main

import (
	"math/rand"
	"time"

	"github.com/spf13/cobra"

	"github.com/showcontroller/ctlsim/config"
	"github.com/showcontroller/ctlsim/producer"
)

func newOSCCmd(a *app) *cobra.Command {
	var (
		target string
		tcp    bool
	)
	cmd := &cobra.Command{
		Use:   "osc",
		Short: "Send OSC control messages and bundles",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.load(); err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("target") {
				a.cfg.OSC.Target = target
			}
			if tcp {
				a.cfg.OSC.Transport = config.TransportTCP
			}
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&target, "target", config.DefaultOSCTarget, "destination host:port")
	cmd.PersistentFlags().BoolVar(&tcp, "tcp", false, "send over TCP with SLIP framing instead of UDP")

	cmd.AddCommand(newOSCStreamCmd(a), newOSCBundleCmd(a))
	return cmd
}

func newOSCStreamCmd(a *app) *cobra.Command {
	var (
		rounds   int
		interval time.Duration
		seed     int64
	)
	cmd := &cobra.Command{
		Use:   "cc",
		Short: "Send one control message per channel every interval, with random values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if flags.Changed("rounds") {
				a.cfg.OSC.Rounds = rounds
			}
			if flags.Changed("interval") {
				a.cfg.OSC.Interval = interval
			}
			st := a.cfg.Stream()
			if flags.Changed("seed") {
				st.Rand = rand.New(rand.NewSource(seed))
			}
			if err := st.Validate(); err != nil {
				return err
			}

			conn, err := a.openOSC()
			if err != nil {
				return err
			}
			defer conn.Close()
			return st.Run(cmd.Context(), conn, console{w: cmd.OutOrStdout()})
		},
	}
	cmd.Flags().IntVar(&rounds, "rounds", producer.DefaultRounds, "number of rounds over all channels")
	cmd.Flags().DurationVar(&interval, "interval", producer.DefaultInterval, "sleep between rounds")
	cmd.Flags().Int64Var(&seed, "seed", 0, "seed for the random values (time based when unset)")
	return cmd
}

func newOSCBundleCmd(a *app) *cobra.Command {
	var (
		value    int32
		nestCopy bool
	)
	cmd := &cobra.Command{
		Use:   "bundle",
		Short: "Send one immediate bundle of control messages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if flags.Changed("value") {
				a.cfg.OSC.Bundle.Value = value
			}
			if flags.Changed("nest-copy") {
				a.cfg.OSC.Bundle.NestCopy = nestCopy
			}

			conn, err := a.openOSC()
			if err != nil {
				return err
			}
			defer conn.Close()
			return a.cfg.Burst().Run(cmd.Context(), conn, console{w: cmd.OutOrStdout()})
		},
	}
	cmd.Flags().Int32Var(&value, "value", producer.DefaultBundleValue, "value carried by every message")
	cmd.Flags().BoolVar(&nestCopy, "nest-copy", false, "append a copy of the bundle to itself, as legacy senders did")
	return cmd
}
