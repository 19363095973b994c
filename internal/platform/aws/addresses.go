package aws

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/imamik/hafloat/internal/failover"
	"github.com/imamik/hafloat/internal/util/naming"
)

// ListForwardingRules implements failover.Provider with Elastic IPs. A
// rule's name is its Name tag, or the allocation ID when untagged.
func (p *Provider) ListForwardingRules(ctx context.Context, tags map[string]string) ([]failover.ForwardingRule, error) {
	addrs, err := p.describeAddresses(ctx, &ec2.DescribeAddressesInput{Filters: tagFilters(tags)})
	if err != nil {
		return nil, err
	}
	rules := make([]failover.ForwardingRule, 0, len(addrs))
	for _, a := range addrs {
		id := aws.ToString(a.AllocationId)
		rules = append(rules, failover.ForwardingRule{
			ID:        id,
			Name:      nameTag(a.Tags, id),
			ScopeID:   aws.ToString(a.NetworkBorderGroup),
			TargetRef: aws.ToString(a.InstanceId),
			Tags:      toTags(a.Tags),
		})
	}
	return rules, nil
}

// UpdateForwardingRule implements failover.Provider. The target must be an
// instance ID.
func (p *Provider) UpdateForwardingRule(ctx context.Context, op failover.ForwardingRuleOperation) (failover.Operation, error) {
	if !strings.HasPrefix(op.TargetRef, "i-") {
		return nil, failover.Configuration("forwardingRules.instanceId", "%q is not an EC2 instance ID", op.TargetRef)
	}
	addr, err := p.findAddress(ctx, op.Name)
	if err != nil {
		return nil, err
	}
	allocationID := aws.ToString(addr.AllocationId)
	if aws.ToString(addr.InstanceId) == op.TargetRef {
		return nil, failover.AlreadyInState(fmt.Errorf("elastic IP %s already associated with %s", op.Name, op.TargetRef))
	}

	if err := p.wait(ctx); err != nil {
		return nil, err
	}
	if _, err := p.ec2.AssociateAddress(ctx, &ec2.AssociateAddressInput{
		AllocationId:       aws.String(allocationID),
		InstanceId:         aws.String(op.TargetRef),
		AllowReassociation: aws.Bool(true),
	}); err != nil {
		return nil, fmt.Errorf("failed to associate elastic IP %s: %w", op.Name, classify(err))
	}
	p.log.V(1).Info("elastic IP association submitted", "rule", op.Name, "instance", op.TargetRef)

	return &checkOperation{
		id: naming.OperationID(allocationID, op.TargetRef),
		check: func(ctx context.Context) (bool, error) {
			addrs, err := p.describeAddresses(ctx, &ec2.DescribeAddressesInput{AllocationIds: []string{allocationID}})
			if err != nil || len(addrs) == 0 {
				return false, err
			}
			return aws.ToString(addrs[0].InstanceId) == op.TargetRef, nil
		},
	}, nil
}

// findAddress looks an Elastic IP up by allocation ID or Name tag.
func (p *Provider) findAddress(ctx context.Context, name string) (types.Address, error) {
	input := &ec2.DescribeAddressesInput{}
	if strings.HasPrefix(name, "eipalloc-") {
		input.AllocationIds = []string{name}
	} else {
		input.Filters = []types.Filter{{Name: aws.String("tag:Name"), Values: []string{name}}}
	}
	addrs, err := p.describeAddresses(ctx, input)
	if err != nil {
		return types.Address{}, err
	}
	if len(addrs) == 0 {
		return types.Address{}, failover.Configuration("forwardingRules", "elastic IP %q not found", name)
	}
	return addrs[0], nil
}

func (p *Provider) describeAddresses(ctx context.Context, input *ec2.DescribeAddressesInput) ([]types.Address, error) {
	if err := p.wait(ctx); err != nil {
		return nil, err
	}
	out, err := p.ec2.DescribeAddresses(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to describe addresses: %w", classify(err))
	}
	return out.Addresses, nil
}
