package testing

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/imamik/hafloat/internal/failover"
)

// Call is one recorded provider invocation.
type Call struct {
	Method string
	Target string
	Detail string
}

func (c Call) String() string {
	return strings.TrimRight(c.Method+":"+c.Target+":"+c.Detail, ":")
}

// FakeOperation is the handle returned by FakeProvider.
type FakeOperation struct {
	OpID string
}

// ID implements failover.Operation.
func (o FakeOperation) ID() string { return o.OpID }

// FakeProvider is an in-memory failover.Provider. Mutating calls change the
// stored inventory so that a later discovery sees the result. It has no route
// mutation methods; wrap it with RouteUpdating or RouteRecreating.
type FakeProvider struct {
	mu      sync.Mutex
	calls   []Call
	nextID  int
	pending map[string]int

	Interfaces      []failover.NetworkInterface
	RouteTables     []failover.RouteTable
	ForwardingRules []failover.ForwardingRule

	// PendingPolls is the number of Pending answers before an operation
	// reports Succeeded.
	PendingPolls int

	// Hooks returning an error make the corresponding call fail.
	ListInterfacesErr func() error
	UpdateNICErr      func(op failover.NicOperation) error
	RouteErr          func(method string, op failover.RouteOperation) error
	StatusFunc        func(op failover.Operation) (failover.OperationStatus, error)
}

// NewFakeProvider creates an empty fake provider.
func NewFakeProvider() *FakeProvider {
	return &FakeProvider{pending: map[string]int{}}
}

// WithInterfaces adds NICs to the inventory.
func (f *FakeProvider) WithInterfaces(nics ...failover.NetworkInterface) *FakeProvider {
	f.Interfaces = append(f.Interfaces, nics...)
	return f
}

// WithRouteTables adds route tables to the inventory.
func (f *FakeProvider) WithRouteTables(tables ...failover.RouteTable) *FakeProvider {
	f.RouteTables = append(f.RouteTables, tables...)
	return f
}

// WithForwardingRules adds forwarding rules to the inventory.
func (f *FakeProvider) WithForwardingRules(rules ...failover.ForwardingRule) *FakeProvider {
	f.ForwardingRules = append(f.ForwardingRules, rules...)
	return f
}

// Calls returns a copy of the recorded calls in order.
func (f *FakeProvider) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

// CallStrings returns the recorded calls formatted as method:target:detail.
func (f *FakeProvider) CallStrings() []string {
	calls := f.Calls()
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.String()
	}
	return out
}

// CallCount returns the number of recorded calls.
func (f *FakeProvider) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *FakeProvider) record(method, target, detail string) {
	f.calls = append(f.calls, Call{Method: method, Target: target, Detail: detail})
}

func (f *FakeProvider) newOperation(prefix string) FakeOperation {
	f.nextID++
	op := FakeOperation{OpID: fmt.Sprintf("%s-%d", prefix, f.nextID)}
	f.pending[op.OpID] = f.PendingPolls
	return op
}

// Name implements failover.Provider.
func (f *FakeProvider) Name() string { return "fake" }

// ListNetworkInterfaces implements failover.Provider.
func (f *FakeProvider) ListNetworkInterfaces(_ context.Context, tags map[string]string) ([]failover.NetworkInterface, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListNetworkInterfaces", "", "")
	if f.ListInterfacesErr != nil {
		if err := f.ListInterfacesErr(); err != nil {
			return nil, err
		}
	}
	out := make([]failover.NetworkInterface, 0, len(f.Interfaces))
	for _, nic := range f.Interfaces {
		if failover.MatchesTags(nic.Tags, tags) {
			out = append(out, nic.Clone())
		}
	}
	return out, nil
}

// ListRouteTables implements failover.Provider.
func (f *FakeProvider) ListRouteTables(_ context.Context, _ []string) ([]failover.RouteTable, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListRouteTables", "", "")
	out := make([]failover.RouteTable, len(f.RouteTables))
	for i, t := range f.RouteTables {
		t.Routes = slices.Clone(t.Routes)
		out[i] = t
	}
	return out, nil
}

// ListForwardingRules implements failover.Provider.
func (f *FakeProvider) ListForwardingRules(_ context.Context, _ map[string]string) ([]failover.ForwardingRule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListForwardingRules", "", "")
	return slices.Clone(f.ForwardingRules), nil
}

// UpdateNetworkInterface implements failover.Provider.
func (f *FakeProvider) UpdateNetworkInterface(_ context.Context, op failover.NicOperation) (failover.Operation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("UpdateNetworkInterface", op.NicName, string(op.Action))
	if f.UpdateNICErr != nil {
		if err := f.UpdateNICErr(op); err != nil {
			return nil, err
		}
	}
	for i := range f.Interfaces {
		if f.Interfaces[i].Name == op.NicName {
			f.Interfaces[i] = op.NIC.Clone()
		}
	}
	return f.newOperation("nic"), nil
}

// UpdateForwardingRule implements failover.Provider.
func (f *FakeProvider) UpdateForwardingRule(_ context.Context, op failover.ForwardingRuleOperation) (failover.Operation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("UpdateForwardingRule", op.Name, op.TargetRef)
	for i := range f.ForwardingRules {
		if f.ForwardingRules[i].Name == op.Name {
			f.ForwardingRules[i].TargetRef = op.TargetRef
		}
	}
	return f.newOperation("rule"), nil
}

// OperationStatus implements failover.Provider.
func (f *FakeProvider) OperationStatus(_ context.Context, op failover.Operation) (failover.OperationStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.StatusFunc != nil {
		status, err := f.StatusFunc(op)
		f.record("OperationStatus", op.ID(), string(status))
		return status, err
	}
	if f.pending[op.ID()] > 0 {
		f.pending[op.ID()]--
		f.record("OperationStatus", op.ID(), string(failover.StatusPending))
		return failover.StatusPending, nil
	}
	f.record("OperationStatus", op.ID(), string(failover.StatusSucceeded))
	return failover.StatusSucceeded, nil
}

func (f *FakeProvider) routeErr(method string, op failover.RouteOperation) error {
	if f.RouteErr == nil {
		return nil
	}
	return f.RouteErr(method, op)
}

func (f *FakeProvider) findRoute(op failover.RouteOperation) (int, int) {
	for i, t := range f.RouteTables {
		if t.ID != op.TableID && t.Name != op.TableName {
			continue
		}
		for j, r := range t.Routes {
			if r.DestinationCIDR == op.Destination {
				return i, j
			}
		}
		return i, -1
	}
	return -1, -1
}

// RouteUpdating is a FakeProvider that updates routes in place.
type RouteUpdating struct {
	*FakeProvider
}

// UpdateRoute implements failover.RouteUpdater.
func (f RouteUpdating) UpdateRoute(_ context.Context, op failover.RouteOperation) (failover.Operation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("UpdateRoute", op.TableName+"/"+op.Destination, op.NextHopAddress)
	if err := f.routeErr("UpdateRoute", op); err != nil {
		return nil, err
	}
	if i, j := f.findRoute(op); i >= 0 && j >= 0 {
		f.RouteTables[i].Routes[j].NextHopAddress = op.NextHopAddress
	}
	return f.newOperation("route"), nil
}

// RouteRecreating is a FakeProvider that can only delete and create routes.
type RouteRecreating struct {
	*FakeProvider
}

// DeleteRoute implements failover.RouteRecreator.
func (f RouteRecreating) DeleteRoute(_ context.Context, op failover.RouteOperation) (failover.Operation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeleteRoute", op.TableName+"/"+op.Destination, op.PreviousNextHop)
	if err := f.routeErr("DeleteRoute", op); err != nil {
		return nil, err
	}
	if i, j := f.findRoute(op); i >= 0 && j >= 0 {
		f.RouteTables[i].Routes = slices.Delete(f.RouteTables[i].Routes, j, j+1)
	}
	return f.newOperation("route-delete"), nil
}

// CreateRoute implements failover.RouteRecreator.
func (f RouteRecreating) CreateRoute(_ context.Context, op failover.RouteOperation) (failover.Operation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CreateRoute", op.TableName+"/"+op.Destination, op.NextHopAddress)
	if err := f.routeErr("CreateRoute", op); err != nil {
		return nil, err
	}
	if i, _ := f.findRoute(op); i >= 0 {
		route := op.Route
		route.ID = ""
		route.NextHopAddress = op.NextHopAddress
		f.RouteTables[i].Routes = append(f.RouteTables[i].Routes, route)
	}
	return f.newOperation("route-create"), nil
}
