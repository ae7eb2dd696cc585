package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	opts := &extractOptions{live: liveDisabled}

	ctx := newCommandContext(&configFlag)

	rootCmd := &cobra.Command{
		Use:           "batterylog",
		Short:         "Extract battery health from Apple Unified Logs",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			if cmd == cmd.Root() {
				if _, ok := opts.mode(); !ok {
					return nil
				}
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd, ctx, opts)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	flags.StringVarP(&opts.input, "input", "i", "", "Path to a .logarchive directory")
	flags.BoolVarP(&ctx.quiet, "quiet", "q", false, "Only log warnings and errors")
	flags.StringVarP(&opts.live, "live", "l", liveDisabled, `Read the live system log store (any value other than "false")`)
	rootCmd.Flags().BoolVar(&opts.record, "record", false, "Store the result in the history database")

	rootCmd.AddCommand(newPlanCommand(ctx, opts))
	rootCmd.AddCommand(newHistoryCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}
