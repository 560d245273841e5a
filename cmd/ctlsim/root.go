package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/showcontroller/ctlsim/config"
)

// app holds the global flags and the configuration resolved from them.
type app struct {
	cfgFile  string
	pcapFile string
	dryRun   bool

	// Set during PersistentPreRun
	cfg *config.Config
}

func (a *app) load() error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if a.pcapFile != "" {
		cfg.PCAP = a.pcapFile
	}
	a.cfg = cfg
	return nil
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "ctlsim",
		Short: "Send simulated show-controller traffic over UDP",
		Long: `ctlsim produces fire-and-forget test traffic for a lighting or show
controller: OSC control messages (/control/<name> with one integer value),
immediate OSC bundles, and raw 3-byte control-change packets.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "YAML config file (built-in defaults when empty)")
	root.PersistentFlags().StringVar(&a.pcapFile, "pcap", "", "also record every sent packet to this pcap file")
	root.PersistentFlags().BoolVar(&a.dryRun, "dry-run", false, "encode and print packets without sending them")

	root.AddCommand(
		newOSCCmd(a),
		newCCCmd(a),
		newKeysCmd(a),
		newVersionCmd(),
	)
	return root
}

// Execute runs the root command until it finishes or the process is
// interrupted.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
