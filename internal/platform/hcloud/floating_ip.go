package hcloud

import (
	"context"
	"fmt"
	"strconv"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/imamik/hafloat/internal/failover"
	"github.com/imamik/hafloat/internal/util/labels"
)

// ListForwardingRules returns the floating IPs carrying tags.
func (p *Provider) ListForwardingRules(ctx context.Context, tags map[string]string) ([]failover.ForwardingRule, error) {
	fips, err := p.floatingIPs.AllWithOpts(ctx, hcloud.FloatingIPListOpts{
		ListOpts: hcloud.ListOpts{LabelSelector: labels.Selector(tags)},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list floating IPs: %w", classify(err))
	}

	rules := make([]failover.ForwardingRule, 0, len(fips))
	for _, fip := range fips {
		rules = append(rules, toForwardingRule(fip))
	}
	return rules, nil
}

// UpdateForwardingRule assigns the floating IP to the server op.TargetRef.
func (p *Provider) UpdateForwardingRule(ctx context.Context, op failover.ForwardingRuleOperation) (failover.Operation, error) {
	serverID, err := parseID("server", op.TargetRef)
	if err != nil {
		return nil, err
	}

	fip, _, err := p.floatingIPs.Get(ctx, op.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to get floating IP %s: %w", op.Name, classify(err))
	}
	if fip == nil {
		return nil, failover.Configuration("forwardingRule", "floating IP %s not found", op.Name)
	}
	if fip.Server != nil && fip.Server.ID == serverID {
		return nil, failover.AlreadyInState(fmt.Errorf("floating IP %s already assigned to %d", op.Name, serverID))
	}

	action, _, err := p.floatingIPs.Assign(ctx, fip, &hcloud.Server{ID: serverID})
	if err != nil {
		return nil, fmt.Errorf("failed to assign floating IP %s: %w", op.Name, classify(err))
	}
	p.log.V(1).Info("submitted floating IP assignment", "floatingIP", op.Name, "server", serverID)
	return toOperation(action), nil
}

func toForwardingRule(fip *hcloud.FloatingIP) failover.ForwardingRule {
	rule := failover.ForwardingRule{
		ID:   strconv.FormatInt(fip.ID, 10),
		Name: fip.Name,
		Tags: failover.NormalizeTags(fip.Labels),
	}
	if fip.HomeLocation != nil {
		rule.ScopeID = fip.HomeLocation.Name
	}
	if fip.Server != nil {
		rule.TargetRef = strconv.FormatInt(fip.Server.ID, 10)
	}
	return rule
}
