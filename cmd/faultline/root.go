package main

import (
	"github.com/spf13/cobra"

	"github.com/dshills/faultline/internal/app"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "faultline",
		Short: "Inspect and exercise the faultline fault pipeline",
		Long: `faultline loads a fault pipeline configuration and lets you inspect the
registered handlers or push synthetic faults through it.

Configuration is read from a TOML or YAML file and FAULTLINE_* environment
variables.

Examples:
  faultline handlers --config faultline.toml
  faultline simulate --severity Warning --message "disk full"
  faultline simulate --panic --message "index out of range"
  faultline trace`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Config file (TOML or YAML)")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	root.AddCommand(
		newHandlersCmd(flags),
		newSimulateCmd(flags),
		newTraceCmd(),
		newVersionCmd(),
	)
	return root
}

// openApp builds the application with command output wired to cmd.
func openApp(cmd *cobra.Command, flags *globalFlags) (*app.Application, error) {
	return app.New(app.Options{
		ConfigPath: flags.configPath,
		LogLevel:   flags.logLevel,
		Stdout:     cmd.OutOrStdout(),
		Stderr:     cmd.ErrOrStderr(),
	})
}
