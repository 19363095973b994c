package aws

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
)

// fakeEC2 is an in-memory EC2API supporting the filters the provider sends.
type fakeEC2 struct {
	mu        sync.Mutex
	ENIs      []types.NetworkInterface
	Tables    []types.RouteTable
	Addresses []types.Address
	Calls     []string

	DescribeErr error
	MutateErr   error
}

func (f *fakeEC2) record(call string) {
	f.Calls = append(f.Calls, call)
}

func tagValue(tags []types.Tag, key string) (string, bool) {
	for _, t := range tags {
		if aws.ToString(t.Key) == key {
			return aws.ToString(t.Value), true
		}
	}
	return "", false
}

func matchFilters(filters []types.Filter, value func(name string) []string) bool {
	for _, f := range filters {
		have := value(aws.ToString(f.Name))
		ok := false
		for _, want := range f.Values {
			if slices.Contains(have, want) {
				ok = true
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

func eniValues(eni types.NetworkInterface) func(string) []string {
	return func(name string) []string {
		switch {
		case strings.HasPrefix(name, "tag:"):
			v, ok := tagValue(eni.TagSet, strings.TrimPrefix(name, "tag:"))
			if !ok {
				return nil
			}
			return []string{v}
		case name == "network-interface-id":
			return []string{aws.ToString(eni.NetworkInterfaceId)}
		case name == "vpc-id":
			return []string{aws.ToString(eni.VpcId)}
		case name == "addresses.private-ip-address":
			var out []string
			for _, a := range eni.PrivateIpAddresses {
				out = append(out, aws.ToString(a.PrivateIpAddress))
			}
			return out
		case name == "ipv6-addresses.ipv6-address":
			var out []string
			for _, a := range eni.Ipv6Addresses {
				out = append(out, aws.ToString(a.Ipv6Address))
			}
			return out
		}
		return nil
	}
}

func (f *fakeEC2) DescribeNetworkInterfaces(_ context.Context, in *ec2.DescribeNetworkInterfacesInput, _ ...func(*ec2.Options)) (*ec2.DescribeNetworkInterfacesOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DescribeNetworkInterfaces")
	if f.DescribeErr != nil {
		return nil, f.DescribeErr
	}
	out := &ec2.DescribeNetworkInterfacesOutput{}
	for _, eni := range f.ENIs {
		if len(in.NetworkInterfaceIds) > 0 && !slices.Contains(in.NetworkInterfaceIds, aws.ToString(eni.NetworkInterfaceId)) {
			continue
		}
		if matchFilters(in.Filters, eniValues(eni)) {
			out.NetworkInterfaces = append(out.NetworkInterfaces, cloneENI(eni))
		}
	}
	return out, nil
}

func (f *fakeEC2) eni(id string) *types.NetworkInterface {
	for i := range f.ENIs {
		if aws.ToString(f.ENIs[i].NetworkInterfaceId) == id {
			return &f.ENIs[i]
		}
	}
	return nil
}

func (f *fakeEC2) AssignPrivateIpAddresses(_ context.Context, in *ec2.AssignPrivateIpAddressesInput, _ ...func(*ec2.Options)) (*ec2.AssignPrivateIpAddressesOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("AssignPrivateIpAddresses:" + aws.ToString(in.NetworkInterfaceId) + ":" + strings.Join(in.PrivateIpAddresses, ","))
	if f.MutateErr != nil {
		return nil, f.MutateErr
	}
	eni := f.eni(aws.ToString(in.NetworkInterfaceId))
	for _, addr := range in.PrivateIpAddresses {
		eni.PrivateIpAddresses = append(eni.PrivateIpAddresses, types.NetworkInterfacePrivateIpAddress{
			PrivateIpAddress: aws.String(addr),
			Primary:          aws.Bool(false),
		})
	}
	return &ec2.AssignPrivateIpAddressesOutput{}, nil
}

func (f *fakeEC2) UnassignPrivateIpAddresses(_ context.Context, in *ec2.UnassignPrivateIpAddressesInput, _ ...func(*ec2.Options)) (*ec2.UnassignPrivateIpAddressesOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("UnassignPrivateIpAddresses:" + aws.ToString(in.NetworkInterfaceId) + ":" + strings.Join(in.PrivateIpAddresses, ","))
	if f.MutateErr != nil {
		return nil, f.MutateErr
	}
	eni := f.eni(aws.ToString(in.NetworkInterfaceId))
	eni.PrivateIpAddresses = slices.DeleteFunc(eni.PrivateIpAddresses, func(a types.NetworkInterfacePrivateIpAddress) bool {
		return slices.Contains(in.PrivateIpAddresses, aws.ToString(a.PrivateIpAddress))
	})
	return &ec2.UnassignPrivateIpAddressesOutput{}, nil
}

func (f *fakeEC2) AssignIpv6Addresses(_ context.Context, in *ec2.AssignIpv6AddressesInput, _ ...func(*ec2.Options)) (*ec2.AssignIpv6AddressesOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("AssignIpv6Addresses:" + aws.ToString(in.NetworkInterfaceId) + ":" + strings.Join(in.Ipv6Addresses, ","))
	eni := f.eni(aws.ToString(in.NetworkInterfaceId))
	for _, addr := range in.Ipv6Addresses {
		eni.Ipv6Addresses = append(eni.Ipv6Addresses, types.NetworkInterfaceIpv6Address{Ipv6Address: aws.String(addr)})
	}
	return &ec2.AssignIpv6AddressesOutput{}, nil
}

func (f *fakeEC2) UnassignIpv6Addresses(_ context.Context, in *ec2.UnassignIpv6AddressesInput, _ ...func(*ec2.Options)) (*ec2.UnassignIpv6AddressesOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("UnassignIpv6Addresses:" + aws.ToString(in.NetworkInterfaceId) + ":" + strings.Join(in.Ipv6Addresses, ","))
	eni := f.eni(aws.ToString(in.NetworkInterfaceId))
	eni.Ipv6Addresses = slices.DeleteFunc(eni.Ipv6Addresses, func(a types.NetworkInterfaceIpv6Address) bool {
		return slices.Contains(in.Ipv6Addresses, aws.ToString(a.Ipv6Address))
	})
	return &ec2.UnassignIpv6AddressesOutput{}, nil
}

func (f *fakeEC2) DescribeRouteTables(_ context.Context, in *ec2.DescribeRouteTablesInput, _ ...func(*ec2.Options)) (*ec2.DescribeRouteTablesOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DescribeRouteTables")
	if f.DescribeErr != nil {
		return nil, f.DescribeErr
	}
	out := &ec2.DescribeRouteTablesOutput{}
	for _, table := range f.Tables {
		if len(in.RouteTableIds) > 0 && !slices.Contains(in.RouteTableIds, aws.ToString(table.RouteTableId)) {
			continue
		}
		ok := matchFilters(in.Filters, func(name string) []string {
			if name == "vpc-id" {
				return []string{aws.ToString(table.VpcId)}
			}
			return nil
		})
		if ok {
			t := table
			t.Routes = slices.Clone(table.Routes)
			out.RouteTables = append(out.RouteTables, t)
		}
	}
	return out, nil
}

func (f *fakeEC2) ReplaceRoute(_ context.Context, in *ec2.ReplaceRouteInput, _ ...func(*ec2.Options)) (*ec2.ReplaceRouteOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	dest := aws.ToString(in.DestinationCidrBlock) + aws.ToString(in.DestinationIpv6CidrBlock)
	f.record("ReplaceRoute:" + aws.ToString(in.RouteTableId) + ":" + dest + ":" + aws.ToString(in.NetworkInterfaceId))
	if f.MutateErr != nil {
		return nil, f.MutateErr
	}
	for i := range f.Tables {
		if aws.ToString(f.Tables[i].RouteTableId) != aws.ToString(in.RouteTableId) {
			continue
		}
		for j := range f.Tables[i].Routes {
			if routeDestination(f.Tables[i].Routes[j]) == dest {
				f.Tables[i].Routes[j].NetworkInterfaceId = in.NetworkInterfaceId
				f.Tables[i].Routes[j].State = types.RouteStateActive
			}
		}
	}
	return &ec2.ReplaceRouteOutput{}, nil
}

func (f *fakeEC2) DescribeAddresses(_ context.Context, in *ec2.DescribeAddressesInput, _ ...func(*ec2.Options)) (*ec2.DescribeAddressesOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DescribeAddresses")
	out := &ec2.DescribeAddressesOutput{}
	for _, a := range f.Addresses {
		if len(in.AllocationIds) > 0 && !slices.Contains(in.AllocationIds, aws.ToString(a.AllocationId)) {
			continue
		}
		ok := matchFilters(in.Filters, func(name string) []string {
			v, found := tagValue(a.Tags, strings.TrimPrefix(name, "tag:"))
			if !found {
				return nil
			}
			return []string{v}
		})
		if ok {
			out.Addresses = append(out.Addresses, a)
		}
	}
	return out, nil
}

func (f *fakeEC2) AssociateAddress(_ context.Context, in *ec2.AssociateAddressInput, _ ...func(*ec2.Options)) (*ec2.AssociateAddressOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("AssociateAddress:" + aws.ToString(in.AllocationId) + ":" + aws.ToString(in.InstanceId))
	if f.MutateErr != nil {
		return nil, f.MutateErr
	}
	for i := range f.Addresses {
		if aws.ToString(f.Addresses[i].AllocationId) == aws.ToString(in.AllocationId) {
			f.Addresses[i].InstanceId = in.InstanceId
		}
	}
	return &ec2.AssociateAddressOutput{AssociationId: aws.String("eipassoc-1")}, nil
}

func (f *fakeEC2) callsWithPrefix(prefix string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.Calls {
		if strings.HasPrefix(c, prefix) {
			out = append(out, c)
		}
	}
	return out
}

func cloneENI(eni types.NetworkInterface) types.NetworkInterface {
	eni.PrivateIpAddresses = slices.Clone(eni.PrivateIpAddresses)
	eni.Ipv6Addresses = slices.Clone(eni.Ipv6Addresses)
	eni.TagSet = slices.Clone(eni.TagSet)
	return eni
}

func newENI(id, name, role string, addrs ...string) types.NetworkInterface {
	eni := types.NetworkInterface{
		NetworkInterfaceId: aws.String(id),
		VpcId:              aws.String("vpc-1"),
		SubnetId:           aws.String("subnet-ext"),
		Status:             types.NetworkInterfaceStatusInUse,
		PrivateIpAddress:   aws.String(addrs[0]),
		TagSet: []types.Tag{
			{Key: aws.String("Name"), Value: aws.String(name)},
			{Key: aws.String("role"), Value: aws.String(role)},
		},
	}
	for i, addr := range addrs {
		eni.PrivateIpAddresses = append(eni.PrivateIpAddresses, types.NetworkInterfacePrivateIpAddress{
			PrivateIpAddress: aws.String(addr),
			Primary:          aws.Bool(i == 0),
		})
	}
	return eni
}
