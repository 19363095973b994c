package testing

import (
	"maps"
	"slices"

	"github.com/imamik/hafloat/internal/failover"
)

// NICBuilder provides a fluent interface for constructing network interfaces.
type NICBuilder struct {
	nic failover.NetworkInterface
}

// NewNIC creates a builder for a settled NIC named name.
func NewNIC(name string) *NICBuilder {
	return &NICBuilder{nic: failover.NetworkInterface{
		ID:                "/nics/" + name,
		Name:              name,
		ScopeID:           "scope-1",
		Tags:              map[string]string{},
		ProvisioningState: failover.StateSucceeded,
	}}
}

// WithTag sets a tag.
func (b *NICBuilder) WithTag(key, value string) *NICBuilder {
	b.nic.Tags[key] = value
	return b
}

// WithPrimary adds the primary configuration.
func (b *NICBuilder) WithPrimary(addr string) *NICBuilder {
	return b.withConfig(addr, true, "")
}

// WithSecondary adds a secondary configuration.
func (b *NICBuilder) WithSecondary(addrs ...string) *NICBuilder {
	for _, a := range addrs {
		b.withConfig(a, false, "")
	}
	return b
}

// InSubnet sets the subnet of every configuration added so far.
func (b *NICBuilder) InSubnet(subnet string) *NICBuilder {
	for i := range b.nic.IPConfigurations {
		b.nic.IPConfigurations[i].SubnetID = subnet
	}
	return b
}

// WithState sets the provisioning state.
func (b *NICBuilder) WithState(state failover.ProvisioningState) *NICBuilder {
	b.nic.ProvisioningState = state
	return b
}

func (b *NICBuilder) withConfig(addr string, primary bool, subnet string) *NICBuilder {
	b.nic.IPConfigurations = append(b.nic.IPConfigurations, failover.IPConfiguration{
		Name:           "ipconfig-" + addr,
		PrivateAddress: addr,
		Primary:        primary,
		SubnetID:       subnet,
	})
	return b
}

// Build returns a copy of the NIC.
func (b *NICBuilder) Build() failover.NetworkInterface {
	return b.nic.Clone()
}

// RouteTableBuilder provides a fluent interface for constructing route tables.
type RouteTableBuilder struct {
	table failover.RouteTable
}

// NewRouteTable creates a builder for a route table named name.
func NewRouteTable(name string) *RouteTableBuilder {
	return &RouteTableBuilder{table: failover.RouteTable{
		ID:      "/routeTables/" + name,
		Name:    name,
		ScopeID: "scope-1",
		Tags:    map[string]string{},
	}}
}

// WithTag sets a tag.
func (b *RouteTableBuilder) WithTag(key, value string) *RouteTableBuilder {
	b.table.Tags[key] = value
	return b
}

// WithRoute adds a virtual-appliance route.
func (b *RouteTableBuilder) WithRoute(name, destination, nextHop string) *RouteTableBuilder {
	b.table.Routes = append(b.table.Routes, failover.Route{
		ID:              b.table.ID + "/routes/" + name,
		Name:            name,
		DestinationCIDR: destination,
		NextHopType:     "VirtualAppliance",
		NextHopAddress:  nextHop,
	})
	return b
}

// Build returns a copy of the route table.
func (b *RouteTableBuilder) Build() failover.RouteTable {
	t := b.table
	t.Tags = maps.Clone(t.Tags)
	t.Routes = slices.Clone(t.Routes)
	return t
}
