package hcloud

import (
	"github.com/go-logr/logr"
	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/imamik/hafloat/internal/failover"
)

// Name is the provider name used in configuration.
const Name = "hcloud"

// Provider implements failover.Provider and failover.RouteRecreator on top
// of the Hetzner Cloud API.
type Provider struct {
	servers     ServerClient
	networks    NetworkClient
	floatingIPs FloatingIPClient
	actions     ActionClient
	log         logr.Logger
}

var (
	_ failover.Provider       = (*Provider)(nil)
	_ failover.RouteRecreator = (*Provider)(nil)
)

// ProviderOption configures a Provider.
type ProviderOption func(*Provider)

// WithHCloudClient sets a custom hcloud client (useful for testing).
func WithHCloudClient(hc *hcloud.Client) ProviderOption {
	return func(p *Provider) {
		p.servers = &hc.Server
		p.networks = &hc.Network
		p.floatingIPs = &hc.FloatingIP
		p.actions = &hc.Action
	}
}

// WithClients replaces the individual API clients.
func WithClients(servers ServerClient, networks NetworkClient, floatingIPs FloatingIPClient, actions ActionClient) ProviderOption {
	return func(p *Provider) {
		p.servers = servers
		p.networks = networks
		p.floatingIPs = floatingIPs
		p.actions = actions
	}
}

// WithLogger sets the logger.
func WithLogger(log logr.Logger) ProviderOption {
	return func(p *Provider) {
		p.log = log
	}
}

// NewProvider creates a Provider authenticated with token.
func NewProvider(token string, opts ...ProviderOption) *Provider {
	hc := hcloud.NewClient(
		hcloud.WithToken(token),
		hcloud.WithApplication("hafloat", ""),
	)
	p := &Provider{log: logr.Discard()}
	WithHCloudClient(hc)(p)
	for _, opt := range opts {
		opt(p)
	}
	p.log = p.log.WithValues("provider", Name)
	return p
}

// Name implements failover.Provider.
func (p *Provider) Name() string { return Name }
