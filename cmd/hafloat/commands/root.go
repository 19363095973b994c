// Package commands defines the CLI command structure and flag bindings.
//
// This package contains cobra command definitions that handle argument parsing,
// flag binding, and validation. Command execution is delegated to handler
// functions in the handlers package.
package commands

import (
	"os"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"

	"github.com/imamik/hafloat/internal/logging"
)

// Root returns the root command for the hafloat CLI.
//
// The root command sets up logging for every subcommand. The logger is
// carried in the command context.
func Root() *cobra.Command {
	var (
		debug     bool
		logFormat string
		syncLog   func()
	)

	cmd := &cobra.Command{
		Use:           "hafloat",
		Short:         "Fail over cloud network resources to this instance",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			var log logr.Logger
			log, syncLog = logging.New(logging.Options{
				Debug:  debug,
				Format: logging.Format(logFormat),
				Output: cmd.ErrOrStderr(),
			})
			cmd.SetContext(logr.NewContext(cmd.Context(), log))
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if syncLog != nil {
				syncLog()
			}
		},
	}

	cmd.PersistentFlags().BoolVar(&debug, "debug", os.Getenv("DEBUG") == "true", "Enable debug logging")
	cmd.PersistentFlags().StringVar(&logFormat, "log-format", string(logging.FormatAuto), "Log format: auto, json or console")

	cmd.AddCommand(Discover())
	cmd.AddCommand(Apply())
	cmd.AddCommand(Failover())
	cmd.AddCommand(State())
	cmd.AddCommand(Version())
	cmd.AddCommand(Completion())

	return cmd
}
