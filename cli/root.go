// Package cli wires the command-line surface of the task parser.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/ashneo76/ansible/pkg/logger"
)

// RootCmd returns the root command
func RootCmd() *cobra.Command {
	var (
		logLevel string
		logJSON  bool
	)

	cmd := &cobra.Command{
		Use:           "taskparse",
		Short:         "Normalize task declarations into their canonical form",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			logger.SetupLogger(logLevel, logJSON)
		},
	}

	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "Emit logs as JSON")

	cmd.AddCommand(ParseCmd())
	return cmd
}

// Execute runs the root command.
func Execute() error {
	return RootCmd().Execute()
}
