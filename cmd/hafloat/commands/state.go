package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/hafloat/cmd/hafloat/handlers"
)

// State returns the command group for inspecting the state document.
func State() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "state",
		Short: "Inspect or clear the recorded failover state",
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to configuration file")
	_ = cmd.MarkPersistentFlagRequired("config")

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the state document",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.StateShow(cmd.Context(), configPath, cmd.OutOrStdout())
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete the state document",
		Long: `Delete the state document.

Use this to release the lock left by a run that was killed while RUNNING
instead of waiting for it to become stale.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.StateClear(cmd.Context(), configPath)
		},
	}

	cmd.AddCommand(show, clearCmd)
	return cmd
}
