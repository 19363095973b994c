package hcloud

import (
	"context"
	"maps"
	"net"
	"slices"
	"strconv"
	"sync"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
)

// fakeServerClient simulates hcloud.ServerClient
type fakeServerClient struct {
	mu       sync.Mutex
	Servers  map[int64]*hcloud.Server
	Selector string
	Changes  []hcloud.ServerChangeAliasIPsOpts
	Err      error
	nextID   int64
}

func newFakeServerClient(servers ...*hcloud.Server) *fakeServerClient {
	f := &fakeServerClient{Servers: map[int64]*hcloud.Server{}, nextID: 100}
	for _, s := range servers {
		f.Servers[s.ID] = s
	}
	return f
}

func (f *fakeServerClient) AllWithOpts(_ context.Context, opts hcloud.ServerListOpts) ([]*hcloud.Server, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Selector = opts.LabelSelector
	if f.Err != nil {
		return nil, f.Err
	}
	var out []*hcloud.Server
	for _, id := range slices.Sorted(maps.Keys(f.Servers)) {
		out = append(out, f.Servers[id])
	}
	return out, nil
}

func (f *fakeServerClient) GetByID(_ context.Context, id int64) (*hcloud.Server, *hcloud.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Servers[id], nil, nil
}

func (f *fakeServerClient) ChangeAliasIPs(_ context.Context, server *hcloud.Server, opts hcloud.ServerChangeAliasIPsOpts) (*hcloud.Action, *hcloud.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, nil, f.Err
	}
	f.Changes = append(f.Changes, opts)
	s := f.Servers[server.ID]
	for i := range s.PrivateNet {
		if s.PrivateNet[i].Network.ID == opts.Network.ID {
			s.PrivateNet[i].Aliases = opts.AliasIPs
		}
	}
	f.nextID++
	return &hcloud.Action{ID: f.nextID, Status: hcloud.ActionStatusRunning}, nil, nil
}

// fakeNetworkClient simulates hcloud.NetworkClient
type fakeNetworkClient struct {
	mu       sync.Mutex
	Networks map[int64]*hcloud.Network
	Deleted  []hcloud.NetworkRoute
	Added    []hcloud.NetworkRoute
	AddErr   error
	nextID   int64
}

func newFakeNetworkClient(networks ...*hcloud.Network) *fakeNetworkClient {
	f := &fakeNetworkClient{Networks: map[int64]*hcloud.Network{}, nextID: 200}
	for _, n := range networks {
		f.Networks[n.ID] = n
	}
	return f
}

func (f *fakeNetworkClient) All(_ context.Context) ([]*hcloud.Network, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*hcloud.Network
	for _, id := range slices.Sorted(maps.Keys(f.Networks)) {
		out = append(out, f.Networks[id])
	}
	return out, nil
}

func (f *fakeNetworkClient) Get(_ context.Context, idOrName string) (*hcloud.Network, *hcloud.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range f.Networks {
		if n.Name == idOrName || strconv.FormatInt(n.ID, 10) == idOrName {
			return n, nil, nil
		}
	}
	return nil, nil, nil
}

func (f *fakeNetworkClient) GetByID(_ context.Context, id int64) (*hcloud.Network, *hcloud.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Networks[id], nil, nil
}

func (f *fakeNetworkClient) AddRoute(_ context.Context, network *hcloud.Network, opts hcloud.NetworkAddRouteOpts) (*hcloud.Action, *hcloud.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.AddErr != nil {
		return nil, nil, f.AddErr
	}
	f.Added = append(f.Added, opts.Route)
	n := f.Networks[network.ID]
	n.Routes = append(n.Routes, opts.Route)
	f.nextID++
	return &hcloud.Action{ID: f.nextID}, nil, nil
}

func (f *fakeNetworkClient) DeleteRoute(_ context.Context, network *hcloud.Network, opts hcloud.NetworkDeleteRouteOpts) (*hcloud.Action, *hcloud.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Deleted = append(f.Deleted, opts.Route)
	n := f.Networks[network.ID]
	kept := n.Routes[:0]
	for _, r := range n.Routes {
		if r.Destination.String() != opts.Route.Destination.String() {
			kept = append(kept, r)
		}
	}
	n.Routes = kept
	f.nextID++
	return &hcloud.Action{ID: f.nextID}, nil, nil
}

// fakeFloatingIPClient simulates hcloud.FloatingIPClient
type fakeFloatingIPClient struct {
	mu          sync.Mutex
	FloatingIPs []*hcloud.FloatingIP
	Selector    string
	Assigned    map[string]int64
}

func (f *fakeFloatingIPClient) AllWithOpts(_ context.Context, opts hcloud.FloatingIPListOpts) ([]*hcloud.FloatingIP, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Selector = opts.LabelSelector
	return f.FloatingIPs, nil
}

func (f *fakeFloatingIPClient) Get(_ context.Context, idOrName string) (*hcloud.FloatingIP, *hcloud.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, fip := range f.FloatingIPs {
		if fip.Name == idOrName {
			return fip, nil, nil
		}
	}
	return nil, nil, nil
}

func (f *fakeFloatingIPClient) Assign(_ context.Context, fip *hcloud.FloatingIP, server *hcloud.Server) (*hcloud.Action, *hcloud.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Assigned == nil {
		f.Assigned = map[string]int64{}
	}
	f.Assigned[fip.Name] = server.ID
	fip.Server = &hcloud.Server{ID: server.ID}
	return &hcloud.Action{ID: 300}, nil, nil
}

// fakeActionClient simulates hcloud.ActionClient
type fakeActionClient struct {
	Actions map[int64]*hcloud.Action
	Err     error
}

func (f *fakeActionClient) GetByID(_ context.Context, id int64) (*hcloud.Action, *hcloud.Response, error) {
	if f.Err != nil {
		return nil, nil, f.Err
	}
	if a, ok := f.Actions[id]; ok {
		return a, nil, nil
	}
	return &hcloud.Action{ID: id, Status: hcloud.ActionStatusSuccess}, nil, nil
}

func mustCIDR(s string) *net.IPNet {
	_, n, err := net.ParseCIDR(s)
	if err != nil {
		panic(err)
	}
	return n
}
