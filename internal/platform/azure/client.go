package azure

import (
	"context"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/network/armnetwork/v6"
)

// NetworkAPI is the subset of the Azure network API the provider uses, bound
// to one subscription.
type NetworkAPI interface {
	ListInterfaces(ctx context.Context) ([]*armnetwork.Interface, error)
	GetInterface(ctx context.Context, resourceGroup, name string) (*armnetwork.Interface, error)
	PutInterface(ctx context.Context, resourceGroup, name string, nic armnetwork.Interface) (LongRunning, error)
	ListRouteTables(ctx context.Context) ([]*armnetwork.RouteTable, error)
	GetRouteTable(ctx context.Context, resourceGroup, name string) (*armnetwork.RouteTable, error)
	PutRouteTable(ctx context.Context, resourceGroup, name string, table armnetwork.RouteTable) (LongRunning, error)
}

// LongRunning is a submitted ARM operation.
type LongRunning interface {
	// Poll advances the operation once. done is true once it reached a
	// terminal state; err is then the terminal failure, if any.
	Poll(ctx context.Context) (done bool, err error)
}

// APIFactory creates the NetworkAPI of a subscription.
type APIFactory func(subscriptionID string) (NetworkAPI, error)

// NewARMFactory returns an APIFactory backed by armnetwork clients.
func NewARMFactory(cred azcore.TokenCredential) APIFactory {
	return func(subscriptionID string) (NetworkAPI, error) {
		factory, err := armnetwork.NewClientFactory(subscriptionID, cred, nil)
		if err != nil {
			return nil, err
		}
		return &armClient{
			interfaces:  factory.NewInterfacesClient(),
			routeTables: factory.NewRouteTablesClient(),
		}, nil
	}
}

type armClient struct {
	interfaces  *armnetwork.InterfacesClient
	routeTables *armnetwork.RouteTablesClient
}

func (c *armClient) ListInterfaces(ctx context.Context) ([]*armnetwork.Interface, error) {
	var out []*armnetwork.Interface
	pager := c.interfaces.NewListAllPager(nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, page.Value...)
	}
	return out, nil
}

func (c *armClient) GetInterface(ctx context.Context, resourceGroup, name string) (*armnetwork.Interface, error) {
	resp, err := c.interfaces.Get(ctx, resourceGroup, name, nil)
	if err != nil {
		return nil, err
	}
	return &resp.Interface, nil
}

func (c *armClient) PutInterface(ctx context.Context, resourceGroup, name string, nic armnetwork.Interface) (LongRunning, error) {
	poller, err := c.interfaces.BeginCreateOrUpdate(ctx, resourceGroup, name, nic, nil)
	if err != nil {
		return nil, err
	}
	return &pollerOperation[armnetwork.InterfacesClientCreateOrUpdateResponse]{poller: poller}, nil
}

func (c *armClient) ListRouteTables(ctx context.Context) ([]*armnetwork.RouteTable, error) {
	var out []*armnetwork.RouteTable
	pager := c.routeTables.NewListAllPager(nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, page.Value...)
	}
	return out, nil
}

func (c *armClient) GetRouteTable(ctx context.Context, resourceGroup, name string) (*armnetwork.RouteTable, error) {
	resp, err := c.routeTables.Get(ctx, resourceGroup, name, nil)
	if err != nil {
		return nil, err
	}
	return &resp.RouteTable, nil
}

func (c *armClient) PutRouteTable(ctx context.Context, resourceGroup, name string, table armnetwork.RouteTable) (LongRunning, error) {
	poller, err := c.routeTables.BeginCreateOrUpdate(ctx, resourceGroup, name, table, nil)
	if err != nil {
		return nil, err
	}
	return &pollerOperation[armnetwork.RouteTablesClientCreateOrUpdateResponse]{poller: poller}, nil
}

// pollerOperation adapts an SDK poller to LongRunning.
type pollerOperation[T any] struct {
	poller *runtime.Poller[T]
}

func (p *pollerOperation[T]) Poll(ctx context.Context) (bool, error) {
	if !p.poller.Done() {
		if _, err := p.poller.Poll(ctx); err != nil {
			return false, err
		}
	}
	if !p.poller.Done() {
		return false, nil
	}
	_, err := p.poller.Result(ctx)
	return true, err
}
