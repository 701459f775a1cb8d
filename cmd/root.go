// Package cmd implements CLI commands using cobra framework.
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"firestige.xyz/microburst/internal/log"
)

// version is overridden at build time with -ldflags "-X".
var version = "0.1.0"

// rootFlags holds every flag of the root command. Zero values mean "not set";
// overrides are only applied for flags the user changed.
type rootFlags struct {
	configFile string
	logLevel   string

	stdin       bool
	status      bool
	burstThresh float64
	timeBin     int64
	mode        string
	srcOctet    string
	opts        map[string]string
	flush       bool
}

// newRootCmd builds the command tree.
func newRootCmd() *cobra.Command {
	return buildRootCmd(&rootFlags{})
}

func buildRootCmd(flags *rootFlags) *cobra.Command {
	root := &cobra.Command{
		Use:   "microburst [flags] [capture.pcap]",
		Short: "Microburst - detect traffic bursts in packet captures",
		Long: `Microburst reads a pcap capture and reports microbursts: short intervals in
which traffic exceeds a bandwidth threshold.

Detectors:
  window  sliding time-window bandwidth with hysteresis (default)
  gap     packet clusters separated by idle gaps`,
		Version:       version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && !flags.stdin {
				return cmd.Usage()
			}
			cfg, err := loadConfig(cmd, flags, args)
			if err != nil {
				return err
			}
			defer log.Close()
			return runAnalyze(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&flags.configFile, "config", "c", "", "config file path")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")

	f := root.Flags()
	f.BoolVar(&flags.stdin, "stdin", false, "read capture from standard input")
	f.BoolVar(&flags.status, "status", false, "periodic status updates on stderr")
	f.Float64Var(&flags.burstThresh, "burst-thresh", 1.0, "window detector threshold in Gbps")
	f.Int64Var(&flags.timeBin, "timebin", 1000, "window detector time bin in nanoseconds")
	f.StringVar(&flags.mode, "mode", "window", "detector: window or gap")
	f.StringVar(&flags.srcOctet, "src-octet", "", "only packets whose IPv4 source byte i equals v, as i=v")
	f.StringToStringVar(&flags.opts, "opt", nil, "extra detector option key=value (repeatable)")
	f.BoolVar(&flags.flush, "flush", false, "emit the in-progress burst at end of input")

	root.AddCommand(newConfigCmd(flags))
	root.AddCommand(newVersionCmd())
	return root
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return newRootCmd().ExecuteContext(ctx)
}
