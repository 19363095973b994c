package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/hafloat/internal/failover"
	"github.com/imamik/hafloat/internal/util/retry"
)

func validConfig() *Config {
	cfg := &Config{
		Provider:   ProviderHCloud,
		InstanceID: "42",
		Addresses: []failover.Address{
			{IP: "10.0.0.2", Role: failover.RoleLocal},
			{IP: "fd00::2", Role: failover.RoleLocal},
			{IP: "10.0.0.100", Role: failover.RoleFailover},
		},
		Interfaces: InterfacesConfig{
			Tags:    map[string]string{"cluster": "edge"},
			Pairing: failover.PairingStrategy{Mode: failover.DiscoverBySubnet},
		},
		Routes: RoutesConfig{Groups: []failover.RouteGroup{{
			Tags: map[string]string{"role": "spoke"},
			AddressRanges: []failover.RouteAddressRange{{
				Destinations: []string{"0.0.0.0/0", "::/0"},
				NextHop:      failover.NextHopPolicy{Type: failover.NextHopRouteTag, Tag: "nexthops"},
			}},
		}}},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_Valid(t *testing.T) {
	require.NoError(t, validConfig().Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"missing provider", func(c *Config) { c.Provider = "" }, "provider"},
		{"unknown provider", func(c *Config) { c.Provider = "gcp" }, "provider"},
		{"azure without subscriptions", func(c *Config) { c.Provider = ProviderAzure }, "azure.subscriptions"},
		{"aws without region", func(c *Config) { c.Provider = ProviderAWS }, "aws.region"},
		{"invalid address", func(c *Config) { c.Addresses[0].IP = "10.0.0.300" }, "addresses[0].ip"},
		{"duplicate address", func(c *Config) { c.Addresses[2].IP = "::ffff:10.0.0.2" }, "addresses[2].ip"},
		{"invalid role", func(c *Config) { c.Addresses[2].Role = "standby" }, "addresses[2].role"},
		{"no local address", func(c *Config) { c.Addresses = c.Addresses[2:] }, "addresses"},
		{"unknown pairing", func(c *Config) { c.Interfaces.Pairing.Mode = "name" }, "interfaces.pairing.mode"},
		{"tag pairing without key", func(c *Config) { c.Interfaces.Pairing.Mode = failover.DiscoverByTag }, "interfaces.pairing.tagKey"},
		{"failover without interface tags", func(c *Config) { c.Interfaces.Tags = nil }, "interfaces.tags"},
		{"unscoped group", func(c *Config) { c.Routes.Groups[0].Tags = nil }, "routes.groups[0]"},
		{"group without ranges", func(c *Config) { c.Routes.Groups[0].AddressRanges = nil }, "routes.groups[0].routeAddressRanges"},
		{"range without destinations", func(c *Config) {
			c.Routes.Groups[0].AddressRanges[0].Destinations = nil
		}, "routes.groups[0].routeAddressRanges[0].routeAddresses"},
		{"invalid destination", func(c *Config) {
			c.Routes.Groups[0].AddressRanges[0].Destinations = []string{"10.0.0.0/33"}
		}, "routes.groups[0].routeAddressRanges[0].routeAddresses"},
		{"route tag without tag", func(c *Config) {
			c.Routes.Groups[0].AddressRanges[0].NextHop.Tag = ""
		}, "routes.groups[0].routeAddressRanges[0].routeNextHopAddress.tag"},
		{"static without items", func(c *Config) {
			c.Routes.Groups[0].AddressRanges[0].NextHop = failover.NextHopPolicy{Type: failover.NextHopStatic}
		}, "routes.groups[0].routeAddressRanges[0].routeNextHopAddress.items"},
		{"static with invalid item", func(c *Config) {
			c.Routes.Groups[0].AddressRanges[0].NextHop = failover.NextHopPolicy{Type: failover.NextHopStatic, Items: []string{"10.0.0.2, gateway"}}
		}, "routes.groups[0].routeAddressRanges[0].routeNextHopAddress.items"},
		{"unknown next hop type", func(c *Config) {
			c.Routes.Groups[0].AddressRanges[0].NextHop.Type = "dynamic"
		}, "routes.groups[0].routeAddressRanges[0].routeNextHopAddress.type"},
		{"rule tags without instance", func(c *Config) {
			c.ForwardingRules.Tags = map[string]string{"cluster": "edge"}
			c.InstanceID = ""
		}, "instanceId"},
		{"negative retries", func(c *Config) { c.Retry = retry.Budget{MaxRetries: -1, Interval: time.Second} }, "retry.maxRetries"},
		{"negative confirm interval", func(c *Config) { c.Confirm.Interval = -time.Second }, "confirm.interval"},
		{"state without key", func(c *Config) {
			c.InstanceID = ""
			c.State.Bucket = "bucket"
		}, "state.key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, fields(err), tt.field)
		})
	}
}

func TestValidate_ReportsAllProblems(t *testing.T) {
	cfg := validConfig()
	cfg.Provider = ""
	cfg.Addresses = nil
	cfg.Retry.MaxRetries = -1

	got := fields(cfg.Validate())
	assert.ElementsMatch(t, []string{"provider", "addresses", "retry.maxRetries"}, got)
}

func TestValidate_RoutesOnly(t *testing.T) {
	cfg := validConfig()
	cfg.Addresses = cfg.Addresses[:2]
	cfg.Interfaces.Tags = nil

	assert.NoError(t, cfg.Validate(), "interface tags are only needed for failover addresses")
}

// fields returns the field of every configuration error joined into err.
func fields(err error) []string {
	var out []string
	var walk func(error)
	walk = func(e error) {
		if joined, ok := e.(interface{ Unwrap() []error }); ok {
			for _, inner := range joined.Unwrap() {
				walk(inner)
			}
			return
		}
		var cfgErr *failover.ConfigurationError
		if errors.As(e, &cfgErr) {
			out = append(out, cfgErr.Field)
		}
	}
	walk(err)
	return out
}
