package failover

import (
	"context"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"golang.org/x/sync/errgroup"

	"github.com/imamik/hafloat/internal/util/async"
	"github.com/imamik/hafloat/internal/util/retry"
)

// Operation classes. Classes are applied independently of each other.
const (
	classInterfaces      = "interfaces"
	classRoutes          = "routes"
	classForwardingRules = "forwardingRules"
)

// Mode selects what Run does.
type Mode string

// Run modes.
const (
	// ModeDiscover computes the plan without calling any mutating API.
	ModeDiscover Mode = "discover"
	// ModeApply submits Inputs.Operations without discovery.
	ModeApply Mode = "apply"
	// ModeDiscoverThenApply discovers and immediately submits the result.
	ModeDiscoverThenApply Mode = "failover"
)

// InterfaceDiscovery configures NIC discovery.
type InterfaceDiscovery struct {
	// Tags restricts the NIC listing to this deployment.
	Tags    map[string]string
	Pairing PairingStrategy
}

// ForwardingRuleDiscovery configures forwarding-rule discovery.
type ForwardingRuleDiscovery struct {
	Tags map[string]string
	// InstanceID is the target every matched rule must point at.
	InstanceID string
}

// Inputs is everything a reconciliation pass needs besides the provider.
type Inputs struct {
	LocalAddresses    []string
	FailoverAddresses []string
	Interfaces        InterfaceDiscovery
	RouteGroups       []RouteGroup
	RouteScopes       []string
	ForwardingRules   ForwardingRuleDiscovery
	// Operations is submitted as-is in ModeApply.
	Operations *OperationSet
}

// Planner discovers and applies failover operations through a Provider.
type Planner struct {
	provider      Provider
	log           logr.Logger
	submit        retry.Budget
	confirm       retry.Budget
	enableMetrics bool
}

// Option configures a Planner.
type Option func(*Planner)

// WithLogger sets the logger.
func WithLogger(log logr.Logger) Option {
	return func(p *Planner) {
		p.log = log
	}
}

// WithSubmitBudget sets the retry budget for listing and mutating calls.
func WithSubmitBudget(b retry.Budget) Option {
	return func(p *Planner) {
		p.submit = b
	}
}

// WithConfirmBudget sets the polling budget used to confirm operations.
func WithConfirmBudget(b retry.Budget) Option {
	return func(p *Planner) {
		p.confirm = b
	}
}

// WithMetrics enables recording into Registry.
func WithMetrics(enabled bool) Option {
	return func(p *Planner) {
		p.enableMetrics = enabled
	}
}

// NewPlanner creates a Planner for provider.
func NewPlanner(provider Provider, opts ...Option) *Planner {
	p := &Planner{
		provider: provider,
		log:      logr.Discard(),
		submit:   retry.Budget{MaxRetries: 3, Interval: 2 * time.Second},
		confirm:  retry.Budget{MaxRetries: 60, Interval: 5 * time.Second},
	}
	for _, opt := range opts {
		opt(p)
	}
	p.log = p.log.WithValues("provider", provider.Name())
	return p
}

// Run executes one pass in the given mode and returns the operation set it
// discovered or applied.
func (p *Planner) Run(ctx context.Context, in Inputs, mode Mode) (*OperationSet, error) {
	switch mode {
	case ModeDiscover:
		return p.Discover(ctx, in)
	case ModeApply:
		if in.Operations == nil {
			return nil, Configuration("operations", "apply mode requires an operation set")
		}
		return in.Operations, p.Apply(ctx, in.Operations)
	case ModeDiscoverThenApply, "":
		set, err := p.Discover(ctx, in)
		if err != nil {
			return nil, err
		}
		return set, p.Apply(ctx, set)
	default:
		return nil, Configuration("mode", "unknown mode %q", mode)
	}
}

// Discover lists the provider inventory and computes the operation set
// without calling any mutating API.
func (p *Planner) Discover(ctx context.Context, in Inputs) (*OperationSet, error) {
	set := NewOperationSet()

	err := async.RunParallel(ctx, []async.Task{
		{Name: classInterfaces, Func: func(ctx context.Context) error {
			transfer, err := p.discoverInterfaces(ctx, in)
			set.Interfaces.Disassociate = transfer.Disassociate
			set.Interfaces.Associate = transfer.Associate
			return err
		}},
		{Name: classRoutes, Func: func(ctx context.Context) error {
			ops, err := p.discoverRoutes(ctx, in)
			set.Routes = ops
			return err
		}},
		{Name: classForwardingRules, Func: func(ctx context.Context) error {
			ops, err := p.discoverForwardingRules(ctx, in)
			set.ForwardingRules = ops
			return err
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("discovery failed: %w", err)
	}

	p.recordDiscovery(set)
	p.log.Info("discovery complete",
		"disassociate", len(set.Interfaces.Disassociate),
		"associate", len(set.Interfaces.Associate),
		"routes", len(set.Routes),
		"forwardingRules", len(set.ForwardingRules))
	return set, nil
}

func (p *Planner) discoverInterfaces(ctx context.Context, in Inputs) (NicTransfer, error) {
	empty := NicTransfer{Disassociate: []NicOperation{}, Associate: []NicOperation{}}
	if len(in.LocalAddresses) == 0 || len(in.FailoverAddresses) == 0 {
		p.log.V(1).Info("no local or failover addresses, skipping interface discovery")
		return empty, nil
	}

	nics, err := list(ctx, p, func(ctx context.Context) ([]NetworkInterface, error) {
		return p.provider.ListNetworkInterfaces(ctx, in.Interfaces.Tags)
	})
	if err != nil {
		return empty, fmt.Errorf("failed to list network interfaces: %w", err)
	}
	nics = FilterByTags(nics, in.Interfaces.Tags)

	mine, theirs := Classify(p.log, nics, in.LocalAddresses, in.FailoverAddresses)
	p.log.V(1).Info("classified interfaces", "mine", len(mine), "theirs", len(theirs))
	return PlanTransfer(p.log, mine, theirs, in.FailoverAddresses, in.Interfaces.Pairing), nil
}

func (p *Planner) discoverRoutes(ctx context.Context, in Inputs) ([]RouteOperation, error) {
	if len(in.RouteGroups) == 0 || len(in.LocalAddresses) == 0 {
		return []RouteOperation{}, nil
	}

	tables, err := list(ctx, p, func(ctx context.Context) ([]RouteTable, error) {
		return p.provider.ListRouteTables(ctx, in.RouteScopes)
	})
	if err != nil {
		return []RouteOperation{}, fmt.Errorf("failed to list route tables: %w", err)
	}

	perGroup, err := async.Map(ctx, in.RouteGroups, func(_ context.Context, group RouteGroup) ([]RouteOperation, error) {
		return DiscoverForGroup(p.log, tables, group, in.LocalAddresses), nil
	})
	if err != nil {
		return []RouteOperation{}, err
	}

	ops := []RouteOperation{}
	for _, groupOps := range perGroup {
		ops = append(ops, groupOps...)
	}
	return ops, nil
}

func (p *Planner) discoverForwardingRules(ctx context.Context, in Inputs) ([]ForwardingRuleOperation, error) {
	ops := []ForwardingRuleOperation{}
	target := in.ForwardingRules.InstanceID
	if target == "" || len(in.ForwardingRules.Tags) == 0 {
		return ops, nil
	}

	rules, err := list(ctx, p, func(ctx context.Context) ([]ForwardingRule, error) {
		return p.provider.ListForwardingRules(ctx, in.ForwardingRules.Tags)
	})
	if err != nil {
		return ops, fmt.Errorf("failed to list forwarding rules: %w", err)
	}

	for _, rule := range FilterByTags(rules, in.ForwardingRules.Tags) {
		if rule.TargetRef == target {
			p.log.V(1).Info("forwarding rule already targets this instance", "rule", rule.Name)
			continue
		}
		ops = append(ops, ForwardingRuleOperation{
			ScopeID:           rule.ScopeID,
			Name:              rule.Name,
			TargetRef:         target,
			PreviousTargetRef: rule.TargetRef,
		})
	}
	return ops, nil
}

// Apply submits set. Within a class every disassociate (or route delete) is
// submitted and confirmed before any associate (or create) is sent. Classes
// run in parallel. An empty set makes no provider calls.
func (p *Planner) Apply(ctx context.Context, set *OperationSet) error {
	if set.Empty() {
		p.log.Info("nothing to apply")
		return nil
	}

	var tasks []async.Task
	if len(set.Interfaces.Disassociate)+len(set.Interfaces.Associate) > 0 {
		tasks = append(tasks, async.Task{Name: classInterfaces, Func: func(ctx context.Context) error {
			return p.applyInterfaces(ctx, set.Interfaces)
		}})
	}
	if len(set.Routes) > 0 {
		tasks = append(tasks, async.Task{Name: classRoutes, Func: func(ctx context.Context) error {
			return p.applyRoutes(ctx, set.Routes)
		}})
	}
	if len(set.ForwardingRules) > 0 {
		tasks = append(tasks, async.Task{Name: classForwardingRules, Func: func(ctx context.Context) error {
			return runPhase(ctx, p, classForwardingRules, "retarget", set.ForwardingRules, forwardingRuleTarget, p.provider.UpdateForwardingRule)
		}})
	}

	if err := async.RunParallel(ctx, tasks); err != nil {
		return fmt.Errorf("apply failed: %w", err)
	}
	p.log.Info("apply complete", "operations", set.Count())
	return nil
}

func (p *Planner) applyInterfaces(ctx context.Context, ops InterfaceOperations) error {
	if err := runPhase(ctx, p, classInterfaces, string(ActionDisassociate), ops.Disassociate, nicTarget, p.provider.UpdateNetworkInterface); err != nil {
		return err
	}
	return runPhase(ctx, p, classInterfaces, string(ActionAssociate), ops.Associate, nicTarget, p.provider.UpdateNetworkInterface)
}

func (p *Planner) applyRoutes(ctx context.Context, ops []RouteOperation) error {
	switch provider := p.provider.(type) {
	case RouteUpdater:
		return runPhase(ctx, p, classRoutes, "update", ops, routeTarget, provider.UpdateRoute)
	case RouteRecreator:
		if err := runPhase(ctx, p, classRoutes, "delete", ops, routeTarget, provider.DeleteRoute); err != nil {
			return err
		}
		return runPhase(ctx, p, classRoutes, "create", ops, routeTarget, provider.CreateRoute)
	default:
		return Configuration("provider", "%s cannot modify routes", p.provider.Name())
	}
}

// runPhase submits every op concurrently, waits for all submissions, then
// confirms every returned handle concurrently.
func runPhase[T any](
	ctx context.Context,
	p *Planner,
	class, action string,
	ops []T,
	target func(T) string,
	submit func(context.Context, T) (Operation, error),
) error {
	if len(ops) == 0 {
		return nil
	}
	start := time.Now()
	defer func() {
		p.recordPhase(class, action, time.Since(start).Seconds())
	}()

	handles := make([]Operation, len(ops))
	g, gctx := errgroup.WithContext(ctx)
	for i, op := range ops {
		g.Go(func() error {
			h, err := p.submitOne(gctx, class, action, target(op), func(ctx context.Context) (Operation, error) {
				return submit(ctx, op)
			})
			handles[i] = h
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	g, gctx = errgroup.WithContext(ctx)
	for i, h := range handles {
		if h == nil {
			continue
		}
		g.Go(func() error {
			return p.confirmOne(gctx, class, action, target(ops[i]), h)
		})
	}
	return g.Wait()
}

func (p *Planner) submitOne(ctx context.Context, class, action, target string, fn func(context.Context) (Operation, error)) (Operation, error) {
	log := p.log.WithValues("class", class, "action", action, "target", target)
	log.V(1).Info("submitting operation")

	h, err := retry.Do(ctx, func(ctx context.Context) (Operation, error) {
		h, err := fn(ctx)
		switch {
		case err == nil:
			return h, nil
		case IsAlreadyInState(err):
			log.Info("operation already in desired state", "reason", err.Error())
			return nil, nil
		case IsConfigurationError(err):
			return nil, retry.Fatal(err)
		default:
			log.V(1).Info("submission failed, retrying", "error", err.Error())
			return nil, err
		}
	}, p.submit.Options()...)
	if err != nil {
		p.recordOperation(class, action, err)
		return nil, &OperationError{Class: class, Action: action, Target: target, Err: err}
	}
	if h == nil {
		p.recordOperation(class, action, nil)
	}
	return h, nil
}

func (p *Planner) confirmOne(ctx context.Context, class, action, target string, h Operation) error {
	log := p.log.WithValues("class", class, "action", action, "target", target, "operation", h.ID())

	err := retry.Poll(ctx, func(ctx context.Context) (bool, error) {
		status, err := p.provider.OperationStatus(ctx, h)
		if IsConfigurationError(err) {
			return false, retry.Fatal(err)
		}
		if err != nil {
			return false, err
		}
		switch status {
		case StatusSucceeded:
			return true, nil
		case StatusFailed:
			return false, retry.Fatal(fmt.Errorf("%w: %s", ErrOperationFailed, h.ID()))
		default:
			log.V(1).Info("operation pending")
			return false, nil
		}
	}, p.confirm.Options()...)
	p.recordOperation(class, action, err)
	if err != nil {
		return &OperationError{Class: class, Action: action, Target: target, Err: err}
	}
	log.Info("operation confirmed")
	return nil
}

// list calls a listing function under the submit budget.
func list[T any](ctx context.Context, p *Planner, fn func(context.Context) ([]T, error)) ([]T, error) {
	return retry.Do(ctx, func(ctx context.Context) ([]T, error) {
		items, err := fn(ctx)
		if IsConfigurationError(err) {
			return nil, retry.Fatal(err)
		}
		return items, err
	}, p.submit.Options()...)
}

func nicTarget(op NicOperation) string { return op.NicName }

func routeTarget(op RouteOperation) string { return op.TableName + "/" + op.Destination }

func forwardingRuleTarget(op ForwardingRuleOperation) string { return op.Name }
