package azure

import (
	"context"
	"fmt"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/arm"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/network/armnetwork/v6"

	"github.com/imamik/hafloat/internal/failover"
	"github.com/imamik/hafloat/internal/util/naming"
	"github.com/imamik/hafloat/internal/util/ptr"
)

// ListRouteTables implements failover.Provider. scopes are subscription IDs;
// without scopes the configured subscriptions are listed.
func (p *Provider) ListRouteTables(ctx context.Context, scopes []string) ([]failover.RouteTable, error) {
	if len(scopes) == 0 {
		scopes = p.subscriptions
	}
	var out []failover.RouteTable
	for _, sub := range scopes {
		api, err := p.api(sub)
		if err != nil {
			return nil, err
		}
		if err := p.wait(ctx); err != nil {
			return nil, err
		}
		tables, err := api.ListRouteTables(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list route tables in subscription %s: %w", sub, classify(err))
		}
		for _, table := range tables {
			if table != nil {
				out = append(out, toRouteTable(sub, table))
			}
		}
	}
	return out, nil
}

// UpdateRoute implements failover.RouteUpdater. Routes are nested in the
// route table, so the table is fetched and written back whole. Writes to the
// same table are serialized.
func (p *Provider) UpdateRoute(ctx context.Context, op failover.RouteOperation) (failover.Operation, error) {
	id, err := arm.ParseResourceID(op.TableID)
	if err != nil {
		return nil, failover.Configuration("route", "invalid route table ID %q: %v", op.TableID, err)
	}
	api, err := p.api(id.SubscriptionID)
	if err != nil {
		return nil, err
	}

	unlock := p.lockTable(strings.ToLower(op.TableID))
	defer unlock()

	if err := p.wait(ctx); err != nil {
		return nil, err
	}
	table, err := api.GetRouteTable(ctx, id.ResourceGroupName, id.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to get route table %s: %w", id.Name, classify(err))
	}

	route := findRoute(table, op)
	if route == nil {
		return nil, failover.Configuration("route", "route %s no longer exists in %s", op.Destination, id.Name)
	}
	if strings.EqualFold(ptr.Deref(route.Properties.NextHopIPAddress), op.NextHopAddress) {
		return nil, failover.AlreadyInState(fmt.Errorf("route %s already points at %s", op.Destination, op.NextHopAddress))
	}
	route.Properties.NextHopType = ptr.To(armnetwork.RouteNextHopTypeVirtualAppliance)
	route.Properties.NextHopIPAddress = ptr.To(op.NextHopAddress)

	if err := p.wait(ctx); err != nil {
		return nil, err
	}
	lro, err := api.PutRouteTable(ctx, id.ResourceGroupName, id.Name, *table)
	if err != nil {
		return nil, fmt.Errorf("failed to update route table %s: %w", id.Name, classify(err))
	}
	p.log.V(1).Info("route update submitted", "table", id.Name, "destination", op.Destination, "nextHop", op.NextHopAddress)
	return &lroOperation{id: naming.OperationID(op.TableID, op.Destination), lro: lro}, nil
}

func toRouteTable(subscriptionID string, table *armnetwork.RouteTable) failover.RouteTable {
	out := failover.RouteTable{
		ID:      ptr.Deref(table.ID),
		Name:    ptr.Deref(table.Name),
		ScopeID: subscriptionID,
		Tags:    failover.NormalizeTags(table.Tags),
		Routes:  []failover.Route{},
	}
	if table.Properties == nil {
		return out
	}
	for _, r := range table.Properties.Routes {
		if r == nil || r.Properties == nil {
			continue
		}
		out.Routes = append(out.Routes, failover.Route{
			ID:              ptr.Deref(r.ID),
			Name:            ptr.Deref(r.Name),
			DestinationCIDR: ptr.Deref(r.Properties.AddressPrefix),
			NextHopType:     string(ptr.Deref(r.Properties.NextHopType)),
			NextHopAddress:  ptr.Deref(r.Properties.NextHopIPAddress),
		})
	}
	return out
}

// findRoute locates the route by name, falling back to its destination.
func findRoute(table *armnetwork.RouteTable, op failover.RouteOperation) *armnetwork.Route {
	if table.Properties == nil {
		return nil
	}
	for _, r := range table.Properties.Routes {
		if r == nil || r.Properties == nil {
			continue
		}
		if op.RouteName != "" && ptr.Deref(r.Name) == op.RouteName {
			return r
		}
	}
	for _, r := range table.Properties.Routes {
		if r != nil && r.Properties != nil && ptr.Deref(r.Properties.AddressPrefix) == op.Destination {
			return r
		}
	}
	return nil
}
