package cmd

import (
	"github.com/spf13/cobra"

	"firestige.xyz/microburst/internal/config"
)

func newConfigCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Long: `Print the configuration that an analysis run would use: built-in defaults,
then the config file, then MICROBURST_* environment variables.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(flags.configFile)
			if err != nil {
				return err
			}
			if flags.logLevel != "" {
				cfg.Log.Level = flags.logLevel
			}
			return config.Dump(cfg, cmd.OutOrStdout())
		},
	}
}
