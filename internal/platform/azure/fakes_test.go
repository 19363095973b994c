package azure

import (
	"context"
	"sync"

	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/network/armnetwork/v6"

	"github.com/imamik/hafloat/internal/util/ptr"
)

const (
	testSubscription = "sub-1"
	testGroup        = "/subscriptions/sub-1/resourceGroups/rg-ha/providers/Microsoft.Network"
	testSubnet       = "/subscriptions/sub-1/resourceGroups/rg-ha/providers/Microsoft.Network/virtualNetworks/vnet/subnets/ext"
)

// fakeLRO finishes after Pending polls with TerminalErr.
type fakeLRO struct {
	Pending     int
	TerminalErr error
	PollErr     error
}

func (l *fakeLRO) Poll(context.Context) (bool, error) {
	if l.PollErr != nil {
		err := l.PollErr
		l.PollErr = nil
		return false, err
	}
	if l.Pending > 0 {
		l.Pending--
		return false, nil
	}
	return true, l.TerminalErr
}

// fakeAPI is an in-memory NetworkAPI. Reads return copies so only a PUT
// changes stored state.
type fakeAPI struct {
	mu     sync.Mutex
	NICs   map[string]*armnetwork.Interface
	Tables map[string]*armnetwork.RouteTable
	Puts   []string

	ListErr error
	PutErr  error
	NextLRO func() *fakeLRO
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		NICs:   map[string]*armnetwork.Interface{},
		Tables: map[string]*armnetwork.RouteTable{},
	}
}

func (f *fakeAPI) lro() LongRunning {
	if f.NextLRO != nil {
		return f.NextLRO()
	}
	return &fakeLRO{}
}

func (f *fakeAPI) ListInterfaces(context.Context) ([]*armnetwork.Interface, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	var out []*armnetwork.Interface
	for _, name := range sortedKeys(f.NICs) {
		out = append(out, cloneNIC(f.NICs[name]))
	}
	return out, nil
}

func (f *fakeAPI) GetInterface(_ context.Context, _, name string) (*armnetwork.Interface, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	nic, ok := f.NICs[name]
	if !ok {
		return nil, notFound()
	}
	return cloneNIC(nic), nil
}

func (f *fakeAPI) PutInterface(_ context.Context, _, name string, nic armnetwork.Interface) (LongRunning, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Puts = append(f.Puts, "nic/"+name)
	if f.PutErr != nil {
		return nil, f.PutErr
	}
	f.NICs[name] = cloneNIC(&nic)
	return f.lro(), nil
}

func (f *fakeAPI) ListRouteTables(context.Context) ([]*armnetwork.RouteTable, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	var out []*armnetwork.RouteTable
	for _, name := range sortedKeys(f.Tables) {
		out = append(out, cloneTable(f.Tables[name]))
	}
	return out, nil
}

func (f *fakeAPI) GetRouteTable(_ context.Context, _, name string) (*armnetwork.RouteTable, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	table, ok := f.Tables[name]
	if !ok {
		return nil, notFound()
	}
	return cloneTable(table), nil
}

func (f *fakeAPI) PutRouteTable(_ context.Context, _, name string, table armnetwork.RouteTable) (LongRunning, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Puts = append(f.Puts, "routeTable/"+name)
	if f.PutErr != nil {
		return nil, f.PutErr
	}
	f.Tables[name] = cloneTable(&table)
	return f.lro(), nil
}

func cloneNIC(n *armnetwork.Interface) *armnetwork.Interface {
	c := *n
	if n.Properties != nil {
		props := *n.Properties
		props.IPConfigurations = nil
		for _, cfg := range n.Properties.IPConfigurations {
			cc := *cfg
			if cfg.Properties != nil {
				pp := *cfg.Properties
				cc.Properties = &pp
			}
			props.IPConfigurations = append(props.IPConfigurations, &cc)
		}
		c.Properties = &props
	}
	return &c
}

func cloneTable(t *armnetwork.RouteTable) *armnetwork.RouteTable {
	c := *t
	if t.Properties != nil {
		props := *t.Properties
		props.Routes = nil
		for _, r := range t.Properties.Routes {
			rc := *r
			if r.Properties != nil {
				rp := *r.Properties
				rc.Properties = &rp
			}
			props.Routes = append(props.Routes, &rc)
		}
		c.Properties = &props
	}
	return &c
}

func newNIC(name string, tags map[string]*string, addrs ...string) *armnetwork.Interface {
	nic := &armnetwork.Interface{
		ID:   ptr.To(testGroup + "/networkInterfaces/" + name),
		Name: ptr.To(name),
		Tags: tags,
		Properties: &armnetwork.InterfacePropertiesFormat{
			ProvisioningState: ptr.To(armnetwork.ProvisioningStateSucceeded),
		},
	}
	for i, addr := range addrs {
		nic.Properties.IPConfigurations = append(nic.Properties.IPConfigurations, &armnetwork.InterfaceIPConfiguration{
			Name: ptr.To("ipconfig" + string(rune('1'+i))),
			Properties: &armnetwork.InterfaceIPConfigurationPropertiesFormat{
				PrivateIPAddress: ptr.To(addr),
				Primary:          ptr.To(i == 0),
				Subnet:           &armnetwork.Subnet{ID: ptr.To(testSubnet)},
			},
		})
	}
	return nic
}

func newTable(name string, tags map[string]*string, routes map[string][2]string) *armnetwork.RouteTable {
	id := testGroup + "/routeTables/" + name
	table := &armnetwork.RouteTable{
		ID:         ptr.To(id),
		Name:       ptr.To(name),
		Tags:       tags,
		Properties: &armnetwork.RouteTablePropertiesFormat{},
	}
	for _, routeName := range sortedKeys(routes) {
		r := routes[routeName]
		table.Properties.Routes = append(table.Properties.Routes, &armnetwork.Route{
			ID:   ptr.To(id + "/routes/" + routeName),
			Name: ptr.To(routeName),
			Properties: &armnetwork.RoutePropertiesFormat{
				AddressPrefix:    ptr.To(r[0]),
				NextHopType:      ptr.To(armnetwork.RouteNextHopTypeVirtualAppliance),
				NextHopIPAddress: ptr.To(r[1]),
			},
		})
	}
	return table
}
