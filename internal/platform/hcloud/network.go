package hcloud

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/imamik/hafloat/internal/failover"
)

// nextHopType is the route type reported for hcloud network routes.
const nextHopType = "Gateway"

// ListRouteTables returns one route table per private network. scopes, when
// set, lists network names or IDs; otherwise every network is returned. The
// hcloud client follows pagination.
func (p *Provider) ListRouteTables(ctx context.Context, scopes []string) ([]failover.RouteTable, error) {
	var networks []*hcloud.Network
	if len(scopes) == 0 {
		all, err := p.networks.All(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list networks: %w", classify(err))
		}
		networks = all
	} else {
		for _, scope := range scopes {
			network, _, err := p.networks.Get(ctx, scope)
			if err != nil {
				return nil, fmt.Errorf("failed to get network %s: %w", scope, classify(err))
			}
			if network == nil {
				p.log.Info("network not found", "anomaly", "missing-scope", "network", scope)
				continue
			}
			networks = append(networks, network)
		}
	}

	tables := make([]failover.RouteTable, 0, len(networks))
	for _, network := range networks {
		tables = append(tables, toRouteTable(network))
	}
	return tables, nil
}

// DeleteRoute implements failover.RouteRecreator. A route that no longer
// exists is reported as already in state.
func (p *Provider) DeleteRoute(ctx context.Context, op failover.RouteOperation) (failover.Operation, error) {
	network, err := p.currentNetwork(ctx, op)
	if err != nil {
		return nil, err
	}

	current, ok := findRoute(network, op.Destination)
	if !ok {
		return nil, failover.AlreadyInState(fmt.Errorf("route %s already removed from %s", op.Destination, network.Name))
	}
	if current.Gateway.Equal(net.ParseIP(op.NextHopAddress)) {
		return nil, failover.AlreadyInState(fmt.Errorf("route %s already points at %s", op.Destination, op.NextHopAddress))
	}

	action, _, err := p.networks.DeleteRoute(ctx, network, hcloud.NetworkDeleteRouteOpts{Route: current})
	if err != nil {
		return nil, fmt.Errorf("failed to delete route %s: %w", op.Destination, classifyDelete(err))
	}
	return toOperation(action), nil
}

// CreateRoute implements failover.RouteRecreator. Only destination and
// gateway are sent.
func (p *Provider) CreateRoute(ctx context.Context, op failover.RouteOperation) (failover.Operation, error) {
	network, err := p.currentNetwork(ctx, op)
	if err != nil {
		return nil, err
	}

	_, destination, err := net.ParseCIDR(op.Destination)
	if err != nil {
		return nil, failover.Configuration("route", "invalid destination %q: %v", op.Destination, err)
	}
	gateway := net.ParseIP(op.NextHopAddress)
	if gateway == nil {
		return nil, failover.Configuration("route", "invalid next hop %q", op.NextHopAddress)
	}

	if current, ok := findRoute(network, op.Destination); ok && current.Gateway.Equal(gateway) {
		return nil, failover.AlreadyInState(fmt.Errorf("route %s already points at %s", op.Destination, gateway))
	}

	action, _, err := p.networks.AddRoute(ctx, network, hcloud.NetworkAddRouteOpts{
		Route: hcloud.NetworkRoute{Destination: destination, Gateway: gateway},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add route %s: %w", op.Destination, classifyCreate(err))
	}
	return toOperation(action), nil
}

// currentNetwork re-reads the network the route belongs to.
func (p *Provider) currentNetwork(ctx context.Context, op failover.RouteOperation) (*hcloud.Network, error) {
	id, err := parseID("network", op.TableID)
	if err != nil {
		return nil, err
	}
	network, _, err := p.networks.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get network %d: %w", id, classify(err))
	}
	if network == nil {
		return nil, failover.Configuration("route", "network %d not found", id)
	}
	return network, nil
}

func toRouteTable(network *hcloud.Network) failover.RouteTable {
	scope := strconv.FormatInt(network.ID, 10)
	routes := make([]failover.Route, 0, len(network.Routes))
	for _, r := range network.Routes {
		dest := ""
		if r.Destination != nil {
			dest = r.Destination.String()
		}
		routes = append(routes, failover.Route{
			Name:            dest,
			DestinationCIDR: dest,
			NextHopType:     nextHopType,
			NextHopAddress:  r.Gateway.String(),
		})
	}
	return failover.RouteTable{
		ID:      scope,
		Name:    network.Name,
		ScopeID: scope,
		Tags:    failover.NormalizeTags(network.Labels),
		Routes:  routes,
	}
}

func findRoute(network *hcloud.Network, destination string) (hcloud.NetworkRoute, bool) {
	for _, r := range network.Routes {
		if r.Destination != nil && r.Destination.String() == destination {
			return r, true
		}
	}
	return hcloud.NetworkRoute{}, false
}
