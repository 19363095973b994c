package hcloud

import (
	"context"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
)

// Interfaces for hcloud services to allow mocking

// ServerClient is the subset of the hcloud server API the provider uses.
type ServerClient interface {
	AllWithOpts(ctx context.Context, opts hcloud.ServerListOpts) ([]*hcloud.Server, error)
	GetByID(ctx context.Context, id int64) (*hcloud.Server, *hcloud.Response, error)
	ChangeAliasIPs(ctx context.Context, server *hcloud.Server, opts hcloud.ServerChangeAliasIPsOpts) (*hcloud.Action, *hcloud.Response, error)
}

// NetworkClient is the subset of the hcloud network API the provider uses.
type NetworkClient interface {
	All(ctx context.Context) ([]*hcloud.Network, error)
	Get(ctx context.Context, idOrName string) (*hcloud.Network, *hcloud.Response, error)
	GetByID(ctx context.Context, id int64) (*hcloud.Network, *hcloud.Response, error)
	AddRoute(ctx context.Context, network *hcloud.Network, opts hcloud.NetworkAddRouteOpts) (*hcloud.Action, *hcloud.Response, error)
	DeleteRoute(ctx context.Context, network *hcloud.Network, opts hcloud.NetworkDeleteRouteOpts) (*hcloud.Action, *hcloud.Response, error)
}

// FloatingIPClient is the subset of the hcloud floating IP API the provider uses.
type FloatingIPClient interface {
	AllWithOpts(ctx context.Context, opts hcloud.FloatingIPListOpts) ([]*hcloud.FloatingIP, error)
	Get(ctx context.Context, idOrName string) (*hcloud.FloatingIP, *hcloud.Response, error)
	Assign(ctx context.Context, floatingIP *hcloud.FloatingIP, server *hcloud.Server) (*hcloud.Action, *hcloud.Response, error)
}

// ActionClient is the subset of the hcloud action API the provider uses.
type ActionClient interface {
	GetByID(ctx context.Context, id int64) (*hcloud.Action, *hcloud.Response, error)
}
