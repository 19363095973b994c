package azure

import (
	"context"

	"github.com/imamik/hafloat/internal/failover"
)

// lroOperation is the handle of a submitted PUT.
type lroOperation struct {
	id  string
	lro LongRunning
}

// ID implements failover.Operation.
func (o *lroOperation) ID() string { return o.id }

// OperationStatus implements failover.Provider by advancing the poller once.
// Transient polling errors are returned with a Pending status so the caller
// retries.
func (p *Provider) OperationStatus(ctx context.Context, op failover.Operation) (failover.OperationStatus, error) {
	lo, ok := op.(*lroOperation)
	if !ok {
		return failover.StatusFailed, failover.Configuration("operation", "%q is not an Azure operation", op.ID())
	}
	if err := p.wait(ctx); err != nil {
		return failover.StatusPending, err
	}

	done, err := lo.lro.Poll(ctx)
	switch {
	case !done && err != nil:
		return failover.StatusPending, err
	case !done:
		return failover.StatusPending, nil
	case err != nil:
		p.log.Info("operation failed", "operation", lo.id, "error", err.Error())
		return failover.StatusFailed, nil
	default:
		return failover.StatusSucceeded, nil
	}
}
