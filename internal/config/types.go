package config

import (
	"time"

	"github.com/imamik/hafloat/internal/failover"
	"github.com/imamik/hafloat/internal/util/retry"
)

// Supported provider names.
const (
	ProviderAzure  = "azure"
	ProviderAWS    = "aws"
	ProviderHCloud = "hcloud"
)

// Config is the complete configuration of one instance.
type Config struct {
	// Provider selects the cloud: azure, aws or hcloud.
	Provider string `yaml:"provider"`

	// InstanceID identifies this instance. Forwarding rules are retargeted at
	// it and it names the state document.
	InstanceID string `yaml:"instanceId"`

	Addresses       []failover.Address    `yaml:"addresses"`
	Interfaces      InterfacesConfig      `yaml:"interfaces"`
	Routes          RoutesConfig          `yaml:"routes"`
	ForwardingRules ForwardingRulesConfig `yaml:"forwardingRules"`

	// Retry bounds listing and mutating calls; Confirm bounds status polling.
	Retry   retry.Budget `yaml:"retry"`
	Confirm retry.Budget `yaml:"confirm"`

	State   StateConfig   `yaml:"state"`
	Azure   AzureConfig   `yaml:"azure"`
	AWS     AWSConfig     `yaml:"aws"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// InterfacesConfig controls NIC discovery.
type InterfacesConfig struct {
	// Tags restricts discovery to NICs of this deployment.
	Tags    map[string]string        `yaml:"tags"`
	Pairing failover.PairingStrategy `yaml:"pairing"`
}

// RoutesConfig controls route discovery.
type RoutesConfig struct {
	// Scopes limits the route table listing (subscriptions, VPCs, networks).
	Scopes []string              `yaml:"scopes"`
	Groups []failover.RouteGroup `yaml:"groups"`
}

// ForwardingRulesConfig controls forwarding rule discovery. Empty tags
// disable it.
type ForwardingRulesConfig struct {
	Tags map[string]string `yaml:"tags"`
}

// StateConfig locates the state document. An empty bucket disables it.
type StateConfig struct {
	Bucket       string        `yaml:"bucket"`
	Key          string        `yaml:"key"`
	Endpoint     string        `yaml:"endpoint"`
	Region       string        `yaml:"region"`
	UsePathStyle bool          `yaml:"usePathStyle"`
	StaleAfter   time.Duration `yaml:"staleAfter"`
	// AccessKey and SecretKey are only read from the environment.
	AccessKey string `yaml:"-"`
	SecretKey string `yaml:"-"`
}

// Enabled reports whether a state bucket is configured.
func (s StateConfig) Enabled() bool {
	return s.Bucket != ""
}

// AzureConfig holds Azure settings. Credentials come from the default
// Azure credential chain.
type AzureConfig struct {
	Subscriptions []string `yaml:"subscriptions"`
}

// AWSConfig holds AWS settings. Credentials come from the default AWS
// credential chain.
type AWSConfig struct {
	Region string `yaml:"region"`
}

// MetricsConfig controls the Prometheus textfile written after each run.
type MetricsConfig struct {
	File string `yaml:"file"`
}

// Inputs returns the planner inputs described by the configuration.
func (c *Config) Inputs() failover.Inputs {
	local, floating := failover.SplitAddresses(c.Addresses)
	return failover.Inputs{
		LocalAddresses:    local,
		FailoverAddresses: floating,
		Interfaces: failover.InterfaceDiscovery{
			Tags:    c.Interfaces.Tags,
			Pairing: c.Interfaces.Pairing,
		},
		RouteGroups: c.Routes.Groups,
		RouteScopes: c.Routes.Scopes,
		ForwardingRules: failover.ForwardingRuleDiscovery{
			Tags:       c.ForwardingRules.Tags,
			InstanceID: c.InstanceID,
		},
	}
}
