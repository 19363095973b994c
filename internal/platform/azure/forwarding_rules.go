package azure

import (
	"context"

	"github.com/imamik/hafloat/internal/failover"
)

// ListForwardingRules implements failover.Provider. Azure public addresses
// move with the IP configuration that carries them, so there is nothing to
// list.
func (p *Provider) ListForwardingRules(_ context.Context, _ map[string]string) ([]failover.ForwardingRule, error) {
	p.log.V(1).Info("forwarding rules are not supported, skipping")
	return nil, nil
}

// UpdateForwardingRule implements failover.Provider.
func (p *Provider) UpdateForwardingRule(_ context.Context, op failover.ForwardingRuleOperation) (failover.Operation, error) {
	return nil, failover.Configuration("forwardingRules", "%s does not support forwarding rule %q", Name, op.Name)
}
