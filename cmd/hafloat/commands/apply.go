package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/hafloat/cmd/hafloat/handlers"
)

// Apply returns the command that submits a previously discovered plan.
//
// Required flags:
//
//	--config, -c: Path to the hafloat configuration file
//	--plan, -f: Path to a plan written by 'hafloat discover'
func Apply() *cobra.Command {
	var configPath, planPath string

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Submit a plan produced by discover",
		Long: `Submit the operations of a plan produced by 'hafloat discover'.

Operations whose resources already have the desired state are skipped.

Examples:
  hafloat discover -c config.yaml > plan.json
  hafloat apply -c config.yaml -f plan.json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Apply(cmd.Context(), configPath, planPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file")
	cmd.Flags().StringVarP(&planPath, "plan", "f", "", "Path to plan file (JSON or YAML)")
	_ = cmd.MarkFlagRequired("config")
	_ = cmd.MarkFlagRequired("plan")

	return cmd
}
