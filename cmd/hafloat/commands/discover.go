package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/hafloat/cmd/hafloat/handlers"
)

// Discover returns the command that prints the failover plan without
// changing anything.
//
// Required flags:
//
//	--config, -c: Path to the hafloat configuration file
func Discover() *cobra.Command {
	var (
		configPath string
		output     string
	)

	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Print the operations a failover would submit",
		Long: `Discover the network interfaces, route tables and forwarding rules that
would be moved to this instance and print the resulting plan.

No mutating API is called. The plan can be reviewed and later submitted
with 'hafloat apply'.

Examples:
  # Print the plan as JSON
  hafloat discover -c /etc/hafloat/config.yaml

  # Save the plan as YAML for review
  hafloat discover -c config.yaml -o yaml > plan.yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Discover(cmd.Context(), configPath, output, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file")
	cmd.Flags().StringVarP(&output, "output", "o", handlers.OutputJSON, "Output format: json or yaml")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}
