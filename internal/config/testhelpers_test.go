package config

import "testing"

var envVars = []string{
	"HAFLOAT_RETRY_MAX_ATTEMPTS",
	"HAFLOAT_RETRY_INTERVAL",
	"HAFLOAT_CONFIRM_MAX_ATTEMPTS",
	"HAFLOAT_CONFIRM_INTERVAL",
	"HAFLOAT_STATE_ACCESS_KEY",
	"HAFLOAT_STATE_SECRET_KEY",
	"AWS_REGION",
	"AZURE_SUBSCRIPTION_ID",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, v := range envVars {
		t.Setenv(v, "")
	}
}

const validYAML = `
provider: azure
instanceId: nva-a
azure:
  subscriptions: [sub-1]
addresses:
  - ip: 10.0.0.4
    role: local
  - ip: 10.0.0.100
    role: failover
interfaces:
  tags:
    cluster: edge
  pairing:
    mode: tag
    tagKey: ha-pair
routes:
  groups:
    - scopingName: spoke
      routeAddressRanges:
        - routeAddresses: [all]
          routeNextHopAddress:
            items: ["10.0.0.4,10.0.1.4"]
forwardingRules:
  tags:
    cluster: edge
state:
  bucket: hafloat-state
  endpoint: https://fsn1.your-objectstorage.com
  staleAfter: 5m
`
