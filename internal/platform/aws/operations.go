package aws

import (
	"context"

	"github.com/imamik/hafloat/internal/failover"
)

// checkOperation confirms a synchronous EC2 call by re-describing the
// resource it changed.
type checkOperation struct {
	id    string
	check func(ctx context.Context) (bool, error)
}

// ID implements failover.Operation.
func (o *checkOperation) ID() string { return o.id }

// OperationStatus implements failover.Provider. EC2 is eventually
// consistent, so a change that is not visible yet is Pending.
func (p *Provider) OperationStatus(ctx context.Context, op failover.Operation) (failover.OperationStatus, error) {
	co, ok := op.(*checkOperation)
	if !ok {
		return failover.StatusFailed, failover.Configuration("operation", "%q is not an EC2 operation", op.ID())
	}
	done, err := co.check(ctx)
	if err != nil {
		return failover.StatusPending, err
	}
	if done {
		return failover.StatusSucceeded, nil
	}
	return failover.StatusPending, nil
}
