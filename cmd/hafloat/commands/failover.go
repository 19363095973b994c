package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/hafloat/cmd/hafloat/handlers"
)

// Failover returns the command that discovers and applies in one pass.
//
// Required flags:
//
//	--config, -c: Path to the hafloat configuration file
//
// Optional flags:
//
//	--labels: Extra labels recorded in the state document (k1=v1,k2=v2)
//
// Environment variables:
//
//	HCLOUD_TOKEN: Hetzner Cloud API token (hcloud provider)
//	HAFLOAT_STATE_ACCESS_KEY, HAFLOAT_STATE_SECRET_KEY: state bucket credentials
func Failover() *cobra.Command {
	var configPath, labelSelector string

	cmd := &cobra.Command{
		Use:   "failover",
		Short: "Move floating addresses, routes and forwarding rules to this instance",
		Long: `Discover and immediately apply every operation needed to make this
instance the active one.

When a state bucket is configured the run is recorded there, and a second
run for the same instance is refused while the first is in progress.

Examples:
  # Typical keepalived notify_master hook
  hafloat failover -c /etc/hafloat/config.yaml

  # Tag the state document with the trigger
  hafloat failover -c config.yaml --labels trigger=keepalived`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Failover(cmd.Context(), configPath, labelSelector)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file")
	cmd.Flags().StringVar(&labelSelector, "labels", "", "Extra state document labels (k1=v1,k2=v2)")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}
