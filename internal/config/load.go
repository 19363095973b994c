package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/imamik/hafloat/internal/failover"
	"github.com/imamik/hafloat/internal/state"
	"github.com/imamik/hafloat/internal/util/naming"
)

// Defaults.
const (
	DefaultRetryMaxRetries   = 3
	DefaultRetryInterval     = 2 * time.Second
	DefaultConfirmMaxRetries = 60
	DefaultConfirmInterval   = 5 * time.Second
)

// LoadFile reads and parses the configuration from a YAML file.
func LoadFile(path string) (*Config, error) {
	// #nosec G304
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Load(data)
}

// Load parses YAML configuration, applies defaults and environment overrides
// and validates the result. Unknown fields are rejected.
func Load(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to unmarshal yaml: %w", err)
	}

	cfg.ApplyDefaults()
	ApplyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Retry.MaxRetries == 0 && c.Retry.Interval == 0 {
		c.Retry.MaxRetries = DefaultRetryMaxRetries
	}
	if c.Retry.Interval == 0 {
		c.Retry.Interval = DefaultRetryInterval
	}
	if c.Confirm.MaxRetries == 0 && c.Confirm.Interval == 0 {
		c.Confirm.MaxRetries = DefaultConfirmMaxRetries
	}
	if c.Confirm.Interval == 0 {
		c.Confirm.Interval = DefaultConfirmInterval
	}

	if c.Interfaces.Pairing.Mode == "" {
		c.Interfaces.Pairing.Mode = failover.DiscoverByTag
	}
	for i := range c.Routes.Groups {
		for j := range c.Routes.Groups[i].AddressRanges {
			policy := &c.Routes.Groups[i].AddressRanges[j].NextHop
			if policy.Type == "" {
				policy.Type = failover.NextHopStatic
			}
		}
	}

	if c.State.Enabled() && c.State.Key == "" && c.InstanceID != "" {
		c.State.Key = naming.StateKey(c.InstanceID)
	}
	if c.State.StaleAfter == 0 {
		c.State.StaleAfter = state.DefaultStaleAfter
	}
}
