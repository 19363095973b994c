package azure

import (
	"context"
	"fmt"
	"net/netip"
	"slices"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/arm"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/network/armnetwork/v6"

	"github.com/imamik/hafloat/internal/failover"
	"github.com/imamik/hafloat/internal/util/naming"
	"github.com/imamik/hafloat/internal/util/ptr"
)

// ListNetworkInterfaces implements failover.Provider. The Azure NIC listing
// has no tag filter, so tags are matched client-side.
func (p *Provider) ListNetworkInterfaces(ctx context.Context, tags map[string]string) ([]failover.NetworkInterface, error) {
	var out []failover.NetworkInterface
	for _, sub := range p.subscriptions {
		api, err := p.api(sub)
		if err != nil {
			return nil, err
		}
		if err := p.wait(ctx); err != nil {
			return nil, err
		}
		nics, err := api.ListInterfaces(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list network interfaces in subscription %s: %w", sub, classify(err))
		}
		for _, nic := range nics {
			if nic == nil {
				continue
			}
			converted := toNetworkInterface(sub, nic)
			if failover.MatchesTags(converted.Tags, tags) {
				out = append(out, converted)
			}
		}
	}
	return out, nil
}

// UpdateNetworkInterface implements failover.Provider. The NIC is re-read and
// its IP configurations replaced by those of op.NIC; existing configurations
// keep their server-side properties.
func (p *Provider) UpdateNetworkInterface(ctx context.Context, op failover.NicOperation) (failover.Operation, error) {
	id, err := arm.ParseResourceID(op.NIC.ID)
	if err != nil {
		return nil, failover.Configuration("nic", "invalid network interface ID %q: %v", op.NIC.ID, err)
	}
	api, err := p.api(id.SubscriptionID)
	if err != nil {
		return nil, err
	}

	if err := p.wait(ctx); err != nil {
		return nil, err
	}
	current, err := api.GetInterface(ctx, id.ResourceGroupName, id.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to get network interface %s: %w", id.Name, classify(err))
	}
	if current.Properties == nil {
		current.Properties = &armnetwork.InterfacePropertiesFormat{}
	}

	if sameAddresses(currentAddresses(current), op.NIC.Addresses()) {
		return nil, failover.AlreadyInState(fmt.Errorf("network interface %s already holds %v", id.Name, op.NIC.Addresses()))
	}
	current.Properties.IPConfigurations = mergeIPConfigurations(current.Properties.IPConfigurations, op.NIC.IPConfigurations)

	if err := p.wait(ctx); err != nil {
		return nil, err
	}
	lro, err := api.PutInterface(ctx, id.ResourceGroupName, id.Name, *current)
	if err != nil {
		return nil, fmt.Errorf("failed to update network interface %s: %w", id.Name, classify(err))
	}
	p.log.V(1).Info("network interface update submitted", "nic", id.Name, "action", op.Action)
	return &lroOperation{id: naming.OperationID(op.NIC.ID, string(op.Action)), lro: lro}, nil
}

func toNetworkInterface(subscriptionID string, nic *armnetwork.Interface) failover.NetworkInterface {
	out := failover.NetworkInterface{
		ID:                ptr.Deref(nic.ID),
		Name:              ptr.Deref(nic.Name),
		ScopeID:           subscriptionID,
		Tags:              failover.NormalizeTags(nic.Tags),
		ProvisioningState: failover.StateOther,
	}
	if nic.Properties == nil {
		return out
	}
	if nic.Properties.ProvisioningState != nil {
		out.ProvisioningState = provisioningState(*nic.Properties.ProvisioningState)
	}
	for _, cfg := range nic.Properties.IPConfigurations {
		if cfg == nil {
			continue
		}
		ipc := failover.IPConfiguration{Name: ptr.Deref(cfg.Name)}
		if props := cfg.Properties; props != nil {
			ipc.PrivateAddress = ptr.Deref(props.PrivateIPAddress)
			ipc.Primary = ptr.Deref(props.Primary)
			if props.PublicIPAddress != nil {
				ipc.PublicAddressRef = ptr.Deref(props.PublicIPAddress.ID)
			}
			if props.Subnet != nil {
				ipc.SubnetID = ptr.Deref(props.Subnet.ID)
			}
		}
		out.IPConfigurations = append(out.IPConfigurations, ipc)
	}
	return out
}

func provisioningState(state armnetwork.ProvisioningState) failover.ProvisioningState {
	switch state {
	case armnetwork.ProvisioningStateSucceeded:
		return failover.StateSucceeded
	case armnetwork.ProvisioningStateUpdating:
		return failover.StateUpdating
	default:
		return failover.StateOther
	}
}

func currentAddresses(nic *armnetwork.Interface) []string {
	var out []string
	for _, cfg := range nic.Properties.IPConfigurations {
		if cfg != nil && cfg.Properties != nil {
			out = append(out, ptr.Deref(cfg.Properties.PrivateIPAddress))
		}
	}
	return out
}

func sameAddresses(a, b []string) bool {
	normalize := func(in []string) []string {
		out := make([]string, 0, len(in))
		for _, s := range in {
			out = append(out, normalizeAddress(s))
		}
		slices.Sort(out)
		return out
	}
	return slices.Equal(normalize(a), normalize(b))
}

func normalizeAddress(s string) string {
	if ip, err := netip.ParseAddr(strings.TrimSpace(s)); err == nil {
		return ip.Unmap().String()
	}
	return s
}

// mergeIPConfigurations builds the configuration list for desired. Entries
// already on the NIC are reused by address; new ones are created static in
// the subnet they came from. Names stay unique within the NIC.
func mergeIPConfigurations(existing []*armnetwork.InterfaceIPConfiguration, desired []failover.IPConfiguration) []*armnetwork.InterfaceIPConfiguration {
	byAddress := map[string]*armnetwork.InterfaceIPConfiguration{}
	for _, cfg := range existing {
		if cfg != nil && cfg.Properties != nil {
			byAddress[normalizeAddress(ptr.Deref(cfg.Properties.PrivateIPAddress))] = cfg
		}
	}

	used := map[string]bool{}
	for _, want := range desired {
		if cfg, ok := byAddress[normalizeAddress(want.PrivateAddress)]; ok {
			used[ptr.Deref(cfg.Name)] = true
		}
	}

	out := make([]*armnetwork.InterfaceIPConfiguration, 0, len(desired))
	for _, want := range desired {
		if cfg, ok := byAddress[normalizeAddress(want.PrivateAddress)]; ok {
			cfg.Properties.Primary = ptr.To(want.Primary)
			out = append(out, cfg)
			continue
		}
		out = append(out, newIPConfiguration(want, used))
	}
	return out
}

func newIPConfiguration(want failover.IPConfiguration, used map[string]bool) *armnetwork.InterfaceIPConfiguration {
	name := want.Name
	if name == "" || used[name] {
		name = naming.IPConfiguration(want.PrivateAddress)
	}
	used[name] = true

	props := &armnetwork.InterfaceIPConfigurationPropertiesFormat{
		PrivateIPAddress:          ptr.To(want.PrivateAddress),
		PrivateIPAllocationMethod: ptr.To(armnetwork.IPAllocationMethodStatic),
		PrivateIPAddressVersion:   ptr.To(armnetwork.IPVersionIPv4),
		Primary:                   ptr.To(want.Primary),
	}
	if ip, err := netip.ParseAddr(want.PrivateAddress); err == nil && ip.Is6() && !ip.Is4In6() {
		props.PrivateIPAddressVersion = ptr.To(armnetwork.IPVersionIPv6)
	}
	if want.SubnetID != "" {
		props.Subnet = &armnetwork.Subnet{ID: ptr.To(want.SubnetID)}
	}
	if want.PublicAddressRef != "" {
		props.PublicIPAddress = &armnetwork.PublicIPAddress{ID: ptr.To(want.PublicAddressRef)}
	}
	return &armnetwork.InterfaceIPConfiguration{Name: ptr.To(name), Properties: props}
}
