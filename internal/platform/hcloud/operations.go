package hcloud

import (
	"context"
	"strconv"
	"strings"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/imamik/hafloat/internal/failover"
)

// actionOperation is the handle of a submitted hcloud action.
type actionOperation struct {
	actionID int64
}

// ID implements failover.Operation.
func (o actionOperation) ID() string {
	return "action/" + strconv.FormatInt(o.actionID, 10)
}

// toOperation wraps action. A nil action means there is nothing to wait for.
func toOperation(action *hcloud.Action) failover.Operation {
	if action == nil {
		return nil
	}
	return actionOperation{actionID: action.ID}
}

// OperationStatus implements failover.Provider by polling the action.
func (p *Provider) OperationStatus(ctx context.Context, op failover.Operation) (failover.OperationStatus, error) {
	ao, ok := op.(actionOperation)
	if !ok {
		return failover.StatusFailed, failover.Configuration("operation", "%q is not an hcloud action", op.ID())
	}

	action, _, err := p.actions.GetByID(ctx, ao.actionID)
	if err != nil {
		return failover.StatusPending, classify(err)
	}
	if action == nil {
		return failover.StatusFailed, failover.Configuration("operation", "action %d not found", ao.actionID)
	}

	switch action.Status {
	case hcloud.ActionStatusSuccess:
		return failover.StatusSucceeded, nil
	case hcloud.ActionStatusError:
		p.log.Info("action failed", "action", ao.actionID, "command", action.Command,
			"code", action.ErrorCode, "message", action.ErrorMessage)
		return failover.StatusFailed, nil
	default:
		return failover.StatusPending, nil
	}
}

// parseID parses a decimal hcloud resource ID.
func parseID(kind, value string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil || id <= 0 {
		return 0, failover.Configuration(kind, "invalid hcloud %s ID %q", kind, value)
	}
	return id, nil
}
