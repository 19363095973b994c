package aws

import (
	"context"
	"fmt"
	"maps"
	"net/netip"
	"slices"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/imamik/hafloat/internal/failover"
	"github.com/imamik/hafloat/internal/util/naming"
)

// ListNetworkInterfaces implements failover.Provider. Tags are filtered
// server-side.
func (p *Provider) ListNetworkInterfaces(ctx context.Context, tags map[string]string) ([]failover.NetworkInterface, error) {
	enis, err := p.describeInterfaces(ctx, &ec2.DescribeNetworkInterfacesInput{Filters: tagFilters(tags)})
	if err != nil {
		return nil, err
	}
	out := make([]failover.NetworkInterface, 0, len(enis))
	for _, eni := range enis {
		out = append(out, toNetworkInterface(eni))
	}
	return out, nil
}

// UpdateNetworkInterface implements failover.Provider. The ENI is re-read and
// the difference to op.NIC is applied with assign/unassign calls. The primary
// address is never touched.
func (p *Provider) UpdateNetworkInterface(ctx context.Context, op failover.NicOperation) (failover.Operation, error) {
	eniID := op.NIC.ID
	if !strings.HasPrefix(eniID, "eni-") {
		return nil, failover.Configuration("nic", "invalid network interface ID %q", eniID)
	}
	current, err := p.getInterface(ctx, eniID)
	if err != nil {
		return nil, err
	}

	have := secondaryAddresses(current)
	want := map[string]bool{}
	for _, cfg := range op.NIC.IPConfigurations {
		if addr, ok := normalize(cfg.PrivateAddress); ok && !cfg.Primary {
			want[addr] = true
		}
	}

	var assign4, assign6, unassign4, unassign6 []string
	for _, addr := range slices.Sorted(maps.Keys(want)) {
		if !have[addr] {
			assign4, assign6 = appendByFamily(assign4, assign6, addr)
		}
	}
	for _, addr := range slices.Sorted(maps.Keys(have)) {
		if !want[addr] {
			unassign4, unassign6 = appendByFamily(unassign4, unassign6, addr)
		}
	}
	if len(assign4)+len(assign6)+len(unassign4)+len(unassign6) == 0 {
		return nil, failover.AlreadyInState(fmt.Errorf("network interface %s already holds %v", eniID, op.NIC.Addresses()))
	}

	if err := p.changeAddresses(ctx, eniID, assign4, assign6, unassign4, unassign6); err != nil {
		return nil, err
	}
	p.log.V(1).Info("network interface update submitted", "nic", eniID, "action", op.Action,
		"assigned", len(assign4)+len(assign6), "unassigned", len(unassign4)+len(unassign6))

	return &checkOperation{
		id: naming.OperationID(eniID, string(op.Action)),
		check: func(ctx context.Context) (bool, error) {
			eni, err := p.getInterface(ctx, eniID)
			if err != nil {
				return false, err
			}
			got := secondaryAddresses(eni)
			return len(got) == len(want) && everyKey(want, got), nil
		},
	}, nil
}

func (p *Provider) changeAddresses(ctx context.Context, eniID string, assign4, assign6, unassign4, unassign6 []string) error {
	if len(unassign4) > 0 {
		if err := p.wait(ctx); err != nil {
			return err
		}
		if _, err := p.ec2.UnassignPrivateIpAddresses(ctx, &ec2.UnassignPrivateIpAddressesInput{
			NetworkInterfaceId: aws.String(eniID),
			PrivateIpAddresses: unassign4,
		}); err != nil {
			return fmt.Errorf("failed to unassign %v from %s: %w", unassign4, eniID, classify(err))
		}
	}
	if len(unassign6) > 0 {
		if err := p.wait(ctx); err != nil {
			return err
		}
		if _, err := p.ec2.UnassignIpv6Addresses(ctx, &ec2.UnassignIpv6AddressesInput{
			NetworkInterfaceId: aws.String(eniID),
			Ipv6Addresses:      unassign6,
		}); err != nil {
			return fmt.Errorf("failed to unassign %v from %s: %w", unassign6, eniID, classify(err))
		}
	}
	if len(assign4) > 0 {
		if err := p.wait(ctx); err != nil {
			return err
		}
		if _, err := p.ec2.AssignPrivateIpAddresses(ctx, &ec2.AssignPrivateIpAddressesInput{
			NetworkInterfaceId: aws.String(eniID),
			PrivateIpAddresses: assign4,
			AllowReassignment:  aws.Bool(true),
		}); err != nil {
			return fmt.Errorf("failed to assign %v to %s: %w", assign4, eniID, classify(err))
		}
	}
	if len(assign6) > 0 {
		if err := p.wait(ctx); err != nil {
			return err
		}
		if _, err := p.ec2.AssignIpv6Addresses(ctx, &ec2.AssignIpv6AddressesInput{
			NetworkInterfaceId: aws.String(eniID),
			Ipv6Addresses:      assign6,
		}); err != nil {
			return fmt.Errorf("failed to assign %v to %s: %w", assign6, eniID, classify(err))
		}
	}
	return nil
}

func (p *Provider) getInterface(ctx context.Context, eniID string) (types.NetworkInterface, error) {
	enis, err := p.describeInterfaces(ctx, &ec2.DescribeNetworkInterfacesInput{NetworkInterfaceIds: []string{eniID}})
	if err != nil {
		return types.NetworkInterface{}, err
	}
	if len(enis) == 0 {
		return types.NetworkInterface{}, failover.Configuration("nic", "network interface %s not found", eniID)
	}
	return enis[0], nil
}

// describeInterfaces follows pagination until exhausted.
func (p *Provider) describeInterfaces(ctx context.Context, input *ec2.DescribeNetworkInterfacesInput) ([]types.NetworkInterface, error) {
	var out []types.NetworkInterface
	paginator := ec2.NewDescribeNetworkInterfacesPaginator(p.ec2, input)
	for paginator.HasMorePages() {
		if err := p.wait(ctx); err != nil {
			return nil, err
		}
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to describe network interfaces: %w", classify(err))
		}
		out = append(out, page.NetworkInterfaces...)
	}
	return out, nil
}

func toNetworkInterface(eni types.NetworkInterface) failover.NetworkInterface {
	id := aws.ToString(eni.NetworkInterfaceId)
	out := failover.NetworkInterface{
		ID:                id,
		Name:              nameTag(eni.TagSet, id),
		ScopeID:           aws.ToString(eni.VpcId),
		Tags:              toTags(eni.TagSet),
		ProvisioningState: provisioningState(eni.Status),
	}
	subnet := aws.ToString(eni.SubnetId)
	for _, addr := range eni.PrivateIpAddresses {
		ip := aws.ToString(addr.PrivateIpAddress)
		cfg := failover.IPConfiguration{
			Name:           ip,
			PrivateAddress: ip,
			Primary:        aws.ToBool(addr.Primary),
			SubnetID:       subnet,
		}
		if addr.Association != nil {
			cfg.PublicAddressRef = aws.ToString(addr.Association.PublicIp)
		}
		out.IPConfigurations = append(out.IPConfigurations, cfg)
	}
	for _, addr := range eni.Ipv6Addresses {
		ip := aws.ToString(addr.Ipv6Address)
		out.IPConfigurations = append(out.IPConfigurations, failover.IPConfiguration{
			Name:           ip,
			PrivateAddress: ip,
			SubnetID:       subnet,
		})
	}
	return out
}

func provisioningState(status types.NetworkInterfaceStatus) failover.ProvisioningState {
	switch status {
	case types.NetworkInterfaceStatusInUse, types.NetworkInterfaceStatusAvailable:
		return failover.StateSucceeded
	case types.NetworkInterfaceStatusAttaching, types.NetworkInterfaceStatusDetaching:
		return failover.StateUpdating
	default:
		return failover.StateOther
	}
}

// secondaryAddresses returns the normalized non-primary addresses of eni.
func secondaryAddresses(eni types.NetworkInterface) map[string]bool {
	out := map[string]bool{}
	for _, addr := range eni.PrivateIpAddresses {
		if aws.ToBool(addr.Primary) {
			continue
		}
		if ip, ok := normalize(aws.ToString(addr.PrivateIpAddress)); ok {
			out[ip] = true
		}
	}
	for _, addr := range eni.Ipv6Addresses {
		if ip, ok := normalize(aws.ToString(addr.Ipv6Address)); ok {
			out[ip] = true
		}
	}
	return out
}

// primaryAddress returns the address of eni that serves as next hop for the
// given family.
func primaryAddress(eni types.NetworkInterface, ipv6 bool) string {
	if ipv6 {
		if len(eni.Ipv6Addresses) > 0 {
			ip, _ := normalize(aws.ToString(eni.Ipv6Addresses[0].Ipv6Address))
			return ip
		}
		return ""
	}
	return aws.ToString(eni.PrivateIpAddress)
}

func normalize(s string) (string, bool) {
	ip, err := netip.ParseAddr(strings.TrimSpace(s))
	if err != nil {
		return "", false
	}
	return ip.Unmap().String(), true
}

func isIPv6(addr string) bool {
	ip, err := netip.ParseAddr(addr)
	return err == nil && ip.Is6() && !ip.Is4In6()
}

func appendByFamily(v4, v6 []string, addr string) ([]string, []string) {
	if isIPv6(addr) {
		return v4, append(v6, addr)
	}
	return append(v4, addr), v6
}

func everyKey(want, got map[string]bool) bool {
	for k := range want {
		if !got[k] {
			return false
		}
	}
	return true
}
