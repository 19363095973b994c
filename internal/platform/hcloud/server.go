package hcloud

import (
	"context"
	"fmt"
	"net"
	"slices"
	"strconv"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/imamik/hafloat/internal/failover"
	"github.com/imamik/hafloat/internal/util/labels"
)

// ListNetworkInterfaces returns one interface per private-network attachment
// of every server carrying tags.
func (p *Provider) ListNetworkInterfaces(ctx context.Context, tags map[string]string) ([]failover.NetworkInterface, error) {
	servers, err := p.servers.AllWithOpts(ctx, hcloud.ServerListOpts{
		ListOpts: hcloud.ListOpts{LabelSelector: labels.Selector(tags)},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list servers: %w", classify(err))
	}

	var nics []failover.NetworkInterface
	for _, server := range servers {
		for _, attachment := range server.PrivateNet {
			nics = append(nics, toNetworkInterface(server, attachment))
		}
	}
	return nics, nil
}

// UpdateNetworkInterface sets the alias IPs of the attachment to the
// secondary configurations of op.NIC. The server is re-read first so the
// primary IP can be checked against the live attachment.
func (p *Provider) UpdateNetworkInterface(ctx context.Context, op failover.NicOperation) (failover.Operation, error) {
	serverID, networkID, err := parseAttachmentID(op.NIC.ID)
	if err != nil {
		return nil, err
	}

	server, _, err := p.servers.GetByID(ctx, serverID)
	if err != nil {
		return nil, fmt.Errorf("failed to get server %d: %w", serverID, classify(err))
	}
	if server == nil {
		return nil, failover.Configuration("nic", "server %d not found", serverID)
	}

	attachment, ok := findAttachment(server, networkID)
	if !ok {
		return nil, failover.Configuration("nic", "server %s is not attached to network %d", server.Name, networkID)
	}

	primary, _ := op.NIC.Primary()
	if primary.PrivateAddress != "" && !attachment.IP.Equal(net.ParseIP(primary.PrivateAddress)) {
		return nil, failover.Configuration("nic", "primary IP of %s cannot change from %s to %s",
			op.NicName, attachment.IP, primary.PrivateAddress)
	}

	aliases, err := aliasIPs(op.NIC)
	if err != nil {
		return nil, err
	}
	if sameIPs(attachment.Aliases, aliases) {
		return nil, failover.AlreadyInState(fmt.Errorf("alias IPs of %s already set", op.NicName))
	}

	action, _, err := p.servers.ChangeAliasIPs(ctx, server, hcloud.ServerChangeAliasIPsOpts{
		Network:  &hcloud.Network{ID: networkID},
		AliasIPs: aliases,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to change alias IPs of %s: %w", op.NicName, classify(err))
	}
	p.log.V(1).Info("submitted alias IP change", "nic", op.NicName, "action", op.Action, "aliases", len(aliases))
	return toOperation(action), nil
}

func toNetworkInterface(server *hcloud.Server, attachment hcloud.ServerPrivateNet) failover.NetworkInterface {
	networkID := attachmentNetworkID(attachment)
	subnet := strconv.FormatInt(networkID, 10)

	configs := []failover.IPConfiguration{{
		Name:           "primary",
		PrivateAddress: attachment.IP.String(),
		Primary:        true,
		SubnetID:       subnet,
	}}
	for _, alias := range attachment.Aliases {
		configs = append(configs, failover.IPConfiguration{
			Name:           "alias-" + alias.String(),
			PrivateAddress: alias.String(),
			SubnetID:       subnet,
		})
	}

	return failover.NetworkInterface{
		ID:                attachmentID(server.ID, networkID),
		Name:              fmt.Sprintf("%s/%d", server.Name, networkID),
		ScopeID:           subnet,
		IPConfigurations:  configs,
		Tags:              failover.NormalizeTags(server.Labels),
		ProvisioningState: provisioningState(server.Status),
	}
}

func provisioningState(status hcloud.ServerStatus) failover.ProvisioningState {
	switch status {
	case hcloud.ServerStatusRunning, hcloud.ServerStatusOff:
		return failover.StateSucceeded
	case hcloud.ServerStatusStarting, hcloud.ServerStatusStopping,
		hcloud.ServerStatusMigrating, hcloud.ServerStatusRebuilding,
		hcloud.ServerStatusInitializing:
		return failover.StateUpdating
	default:
		return failover.StateOther
	}
}

func attachmentID(serverID, networkID int64) string {
	return fmt.Sprintf("servers/%d/networks/%d", serverID, networkID)
}

func parseAttachmentID(id string) (serverID, networkID int64, err error) {
	if _, err := fmt.Sscanf(id, "servers/%d/networks/%d", &serverID, &networkID); err != nil {
		return 0, 0, failover.Configuration("nic", "invalid hcloud interface ID %q", id)
	}
	return serverID, networkID, nil
}

func attachmentNetworkID(attachment hcloud.ServerPrivateNet) int64 {
	if attachment.Network == nil {
		return 0
	}
	return attachment.Network.ID
}

func findAttachment(server *hcloud.Server, networkID int64) (hcloud.ServerPrivateNet, bool) {
	for _, attachment := range server.PrivateNet {
		if attachmentNetworkID(attachment) == networkID {
			return attachment, true
		}
	}
	return hcloud.ServerPrivateNet{}, false
}

// aliasIPs returns the non-primary addresses of nic in order.
func aliasIPs(nic failover.NetworkInterface) ([]net.IP, error) {
	primary, _ := nic.Primary()
	aliases := []net.IP{}
	for _, c := range nic.IPConfigurations {
		if c == primary {
			continue
		}
		ip := net.ParseIP(c.PrivateAddress)
		if ip == nil {
			return nil, failover.Configuration("nic", "invalid address %q on %s", c.PrivateAddress, nic.Name)
		}
		aliases = append(aliases, ip)
	}
	return aliases, nil
}

func sameIPs(a, b []net.IP) bool {
	if len(a) != len(b) {
		return false
	}
	key := func(ips []net.IP) []string {
		out := make([]string, len(ips))
		for i, ip := range ips {
			out[i] = ip.String()
		}
		slices.Sort(out)
		return out
	}
	return slices.Equal(key(a), key(b))
}
