package aws

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/imamik/hafloat/internal/failover"
	"github.com/imamik/hafloat/internal/util/naming"
)

const nextHopType = "NetworkInterface"

// describeBatch bounds the number of IDs per describe call.
const describeBatch = 200

// ListRouteTables implements failover.Provider. scopes are VPC IDs. Routes
// that do not target an ENI (gateways, local, peering) are left out.
func (p *Provider) ListRouteTables(ctx context.Context, scopes []string) ([]failover.RouteTable, error) {
	input := &ec2.DescribeRouteTablesInput{}
	if len(scopes) > 0 {
		input.Filters = []types.Filter{{Name: aws.String("vpc-id"), Values: scopes}}
	}
	raw, err := p.describeRouteTables(ctx, input)
	if err != nil {
		return nil, err
	}

	var eniIDs []string
	for _, table := range raw {
		for _, r := range table.Routes {
			if id := aws.ToString(r.NetworkInterfaceId); id != "" && !slices.Contains(eniIDs, id) {
				eniIDs = append(eniIDs, id)
			}
		}
	}
	enis, err := p.interfacesByID(ctx, eniIDs)
	if err != nil {
		return nil, err
	}

	tables := make([]failover.RouteTable, 0, len(raw))
	for _, table := range raw {
		tables = append(tables, toRouteTable(table, enis))
	}
	return tables, nil
}

// UpdateRoute implements failover.RouteUpdater. The next-hop address is
// resolved to the ENI holding it within the table's VPC.
func (p *Provider) UpdateRoute(ctx context.Context, op failover.RouteOperation) (failover.Operation, error) {
	eniID, err := p.interfaceForAddress(ctx, op.ScopeID, op.NextHopAddress)
	if err != nil {
		return nil, err
	}

	current, ok, err := p.currentRoute(ctx, op)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, failover.Configuration("route", "route %s no longer exists in %s", op.Destination, op.TableID)
	}
	if aws.ToString(current.NetworkInterfaceId) == eniID {
		return nil, failover.AlreadyInState(fmt.Errorf("route %s already targets %s", op.Destination, eniID))
	}

	input := &ec2.ReplaceRouteInput{
		RouteTableId:       aws.String(op.TableID),
		NetworkInterfaceId: aws.String(eniID),
	}
	if isIPv6Destination(op.Destination) {
		input.DestinationIpv6CidrBlock = aws.String(op.Destination)
	} else {
		input.DestinationCidrBlock = aws.String(op.Destination)
	}
	if err := p.wait(ctx); err != nil {
		return nil, err
	}
	if _, err := p.ec2.ReplaceRoute(ctx, input); err != nil {
		return nil, fmt.Errorf("failed to replace route %s in %s: %w", op.Destination, op.TableID, classify(err))
	}
	p.log.V(1).Info("route update submitted", "table", op.TableID, "destination", op.Destination, "nic", eniID)

	return &checkOperation{
		id: naming.OperationID(op.TableID, op.Destination),
		check: func(ctx context.Context) (bool, error) {
			route, ok, err := p.currentRoute(ctx, op)
			if err != nil || !ok {
				return false, err
			}
			return aws.ToString(route.NetworkInterfaceId) == eniID && route.State != types.RouteStateBlackhole, nil
		},
	}, nil
}

func (p *Provider) currentRoute(ctx context.Context, op failover.RouteOperation) (types.Route, bool, error) {
	tables, err := p.describeRouteTables(ctx, &ec2.DescribeRouteTablesInput{RouteTableIds: []string{op.TableID}})
	if err != nil {
		return types.Route{}, false, err
	}
	for _, table := range tables {
		for _, r := range table.Routes {
			if routeDestination(r) == op.Destination {
				return r, true, nil
			}
		}
	}
	return types.Route{}, false, nil
}

func (p *Provider) describeRouteTables(ctx context.Context, input *ec2.DescribeRouteTablesInput) ([]types.RouteTable, error) {
	var out []types.RouteTable
	paginator := ec2.NewDescribeRouteTablesPaginator(p.ec2, input)
	for paginator.HasMorePages() {
		if err := p.wait(ctx); err != nil {
			return nil, err
		}
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to describe route tables: %w", classify(err))
		}
		out = append(out, page.RouteTables...)
	}
	return out, nil
}

// interfacesByID describes the given ENIs in batches.
func (p *Provider) interfacesByID(ctx context.Context, ids []string) (map[string]types.NetworkInterface, error) {
	out := make(map[string]types.NetworkInterface, len(ids))
	for batch := range slices.Chunk(ids, describeBatch) {
		enis, err := p.describeInterfaces(ctx, &ec2.DescribeNetworkInterfacesInput{
			Filters: []types.Filter{{Name: aws.String("network-interface-id"), Values: batch}},
		})
		if err != nil {
			return nil, err
		}
		for _, eni := range enis {
			out[aws.ToString(eni.NetworkInterfaceId)] = eni
		}
	}
	return out, nil
}

// interfaceForAddress finds the ENI holding addr inside vpcID.
func (p *Provider) interfaceForAddress(ctx context.Context, vpcID, addr string) (string, error) {
	filter := "addresses.private-ip-address"
	if isIPv6(addr) {
		filter = "ipv6-addresses.ipv6-address"
	}
	filters := []types.Filter{{Name: aws.String(filter), Values: []string{addr}}}
	if vpcID != "" {
		filters = append(filters, types.Filter{Name: aws.String("vpc-id"), Values: []string{vpcID}})
	}

	enis, err := p.describeInterfaces(ctx, &ec2.DescribeNetworkInterfacesInput{Filters: filters})
	if err != nil {
		return "", err
	}
	if len(enis) == 0 {
		return "", failover.Configuration("route", "no network interface holds next hop %s", addr)
	}
	return aws.ToString(enis[0].NetworkInterfaceId), nil
}

func toRouteTable(table types.RouteTable, enis map[string]types.NetworkInterface) failover.RouteTable {
	id := aws.ToString(table.RouteTableId)
	out := failover.RouteTable{
		ID:      id,
		Name:    nameTag(table.Tags, id),
		ScopeID: aws.ToString(table.VpcId),
		Tags:    toTags(table.Tags),
		Routes:  []failover.Route{},
	}
	for _, r := range table.Routes {
		eniID := aws.ToString(r.NetworkInterfaceId)
		if eniID == "" {
			continue
		}
		dest := routeDestination(r)
		eni := enis[eniID]
		// Routes target the interface, so any address it holds is already
		// the next hop.
		out.Routes = append(out.Routes, failover.Route{
			Name:             dest,
			DestinationCIDR:  dest,
			NextHopType:      nextHopType,
			NextHopAddress:   primaryAddress(eni, isIPv6Destination(dest)),
			NextHopAddresses: toNetworkInterface(eni).Addresses(),
		})
	}
	return out
}

func routeDestination(r types.Route) string {
	if r.DestinationIpv6CidrBlock != nil {
		return aws.ToString(r.DestinationIpv6CidrBlock)
	}
	return aws.ToString(r.DestinationCidrBlock)
}

func isIPv6Destination(cidr string) bool {
	return strings.Contains(cidr, ":")
}
