package failover

import (
	"context"
	"maps"
	"net/netip"
	"slices"
	"strings"
)

// AddressRole tells whether an address belonged to this instance before the
// failover or is one of the floating addresses being moved.
type AddressRole string

// Address roles.
const (
	RoleLocal    AddressRole = "local"
	RoleFailover AddressRole = "failover"
)

// Address is an IPv4 or IPv6 literal with its role.
type Address struct {
	IP   string      `json:"ip" yaml:"ip"`
	Role AddressRole `json:"role" yaml:"role"`
}

// SplitAddresses separates addresses by role, preserving order.
func SplitAddresses(addrs []Address) (local, failover []string) {
	for _, a := range addrs {
		switch a.Role {
		case RoleLocal:
			local = append(local, a.IP)
		case RoleFailover:
			failover = append(failover, a.IP)
		}
	}
	return local, failover
}

// ProvisioningState is the provider's view of a resource's readiness.
type ProvisioningState string

// Provisioning states. Anything a provider cannot map is StateOther.
const (
	StateSucceeded ProvisioningState = "Succeeded"
	StateUpdating  ProvisioningState = "Updating"
	StateOther     ProvisioningState = "Other"
)

// IPConfiguration is one address binding on a network interface.
type IPConfiguration struct {
	Name             string `json:"name,omitempty"`
	PrivateAddress   string `json:"privateAddress"`
	Primary          bool   `json:"primary,omitempty"`
	PublicAddressRef string `json:"publicAddressRef,omitempty"`
	SubnetID         string `json:"subnetId,omitempty"`
}

// NetworkInterface is a provider NIC rebuilt from a fresh listing on every pass.
type NetworkInterface struct {
	ID                string            `json:"id"`
	Name              string            `json:"name"`
	ScopeID           string            `json:"scopeId,omitempty"`
	IPConfigurations  []IPConfiguration `json:"ipConfigurations"`
	Tags              map[string]string `json:"tags,omitempty"`
	ProvisioningState ProvisioningState `json:"provisioningState,omitempty"`
}

// TagMap implements Tagged.
func (n NetworkInterface) TagMap() map[string]string { return n.Tags }

// Identity implements Named.
func (n NetworkInterface) Identity() (string, string) { return n.ID, n.Name }

// Primary returns the primary IP configuration, falling back to the first one.
func (n NetworkInterface) Primary() (IPConfiguration, bool) {
	for _, c := range n.IPConfigurations {
		if c.Primary {
			return c, true
		}
	}
	if len(n.IPConfigurations) > 0 {
		return n.IPConfigurations[0], true
	}
	return IPConfiguration{}, false
}

// Addresses returns the private addresses of all IP configurations in order.
func (n NetworkInterface) Addresses() []string {
	out := make([]string, 0, len(n.IPConfigurations))
	for _, c := range n.IPConfigurations {
		out = append(out, c.PrivateAddress)
	}
	return out
}

// holdsAny reports whether any configuration's address is in set.
func (n NetworkInterface) holdsAny(set addressSet) bool {
	for _, c := range n.IPConfigurations {
		if set.has(c.PrivateAddress) {
			return true
		}
	}
	return false
}

// Clone returns a deep copy.
func (n NetworkInterface) Clone() NetworkInterface {
	n.IPConfigurations = slices.Clone(n.IPConfigurations)
	n.Tags = maps.Clone(n.Tags)
	return n
}

// Route is a single user-defined route inside a route table.
type Route struct {
	ID              string `json:"id,omitempty"`
	Name            string `json:"name,omitempty"`
	DestinationCIDR string `json:"destination"`
	NextHopType     string `json:"nextHopType,omitempty"`
	NextHopAddress  string `json:"nextHopAddress"`

	// NextHopAddresses lists every address held by the next-hop target when
	// the provider routes to an interface rather than an address.
	NextHopAddresses []string `json:"nextHopAddresses,omitempty"`
}

// TargetsAddress reports whether addr reaches the route's current next hop.
func (r Route) TargetsAddress(addr string) bool {
	if sameAddress(r.NextHopAddress, addr) {
		return true
	}
	return slices.ContainsFunc(r.NextHopAddresses, func(a string) bool { return sameAddress(a, addr) })
}

// RouteTable groups routes under one provider resource.
type RouteTable struct {
	ID      string            `json:"id"`
	Name    string            `json:"name"`
	ScopeID string            `json:"scopeId,omitempty"`
	Tags    map[string]string `json:"tags,omitempty"`
	Routes  []Route           `json:"routes"`
}

// TagMap implements Tagged.
func (t RouteTable) TagMap() map[string]string { return t.Tags }

// Identity implements Named.
func (t RouteTable) Identity() (string, string) { return t.ID, t.Name }

// NextHopPolicyType selects where candidate next-hop addresses come from.
type NextHopPolicyType string

// Next-hop policy types.
const (
	NextHopStatic   NextHopPolicyType = "static"
	NextHopRouteTag NextHopPolicyType = "routeTag"
)

// NextHopPolicy yields the candidate next-hop addresses of an address range.
type NextHopPolicy struct {
	Type NextHopPolicyType `json:"type" yaml:"type"`
	// Items lists candidates for the static policy.
	Items []string `json:"items,omitempty" yaml:"items,omitempty"`
	// Tag names the route table tag holding candidates for the routeTag policy.
	Tag string `json:"tag,omitempty" yaml:"tag,omitempty"`
}

// WildcardDestination matches every route destination.
const WildcardDestination = "all"

// RouteAddressRange pairs destinations with the policy choosing their next hop.
type RouteAddressRange struct {
	Destinations []string      `json:"routeAddresses" yaml:"routeAddresses"`
	NextHop      NextHopPolicy `json:"routeNextHopAddress" yaml:"routeNextHopAddress"`
}

func (r RouteAddressRange) isWildcard() bool {
	return slices.Contains(r.Destinations, WildcardDestination)
}

// RouteGroup selects route tables by name or by tags and lists the address
// ranges whose routes must point at this instance.
type RouteGroup struct {
	Name          string              `json:"scopingName,omitempty" yaml:"scopingName,omitempty"`
	Tags          map[string]string   `json:"scopingTags,omitempty" yaml:"scopingTags,omitempty"`
	AddressRanges []RouteAddressRange `json:"routeAddressRanges" yaml:"routeAddressRanges"`
}

// label identifies the group in logs and errors.
func (g RouteGroup) label() string {
	if g.Name != "" {
		return g.Name
	}
	keys := make([]string, 0, len(g.Tags))
	for k, v := range g.Tags {
		keys = append(keys, k+"="+v)
	}
	slices.Sort(keys)
	return strings.Join(keys, ",")
}

// ForwardingRule is a provider object directing traffic for a public address
// at one instance (floating IP, elastic IP, forwarding rule).
type ForwardingRule struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	ScopeID   string            `json:"scopeId,omitempty"`
	TargetRef string            `json:"targetRef"`
	Tags      map[string]string `json:"tags,omitempty"`
}

// TagMap implements Tagged.
func (r ForwardingRule) TagMap() map[string]string { return r.Tags }

// Identity implements Named.
func (r ForwardingRule) Identity() (string, string) { return r.ID, r.Name }

// NicAction is the role of a NIC operation in a transfer.
type NicAction string

// NIC actions.
const (
	ActionDisassociate NicAction = "disassociate"
	ActionAssociate    NicAction = "associate"
)

// NicOperation replaces a NIC's IP configurations with those of NIC.
type NicOperation struct {
	ScopeID string           `json:"scopeId,omitempty"`
	NicName string           `json:"nicName"`
	NIC     NetworkInterface `json:"nic"`
	Action  NicAction        `json:"action"`
}

// RouteOperation points one route at a new next-hop address.
type RouteOperation struct {
	ScopeID         string `json:"scopeId,omitempty"`
	TableID         string `json:"tableId"`
	TableName       string `json:"tableName"`
	RouteName       string `json:"routeName,omitempty"`
	Destination     string `json:"destination"`
	PreviousNextHop string `json:"previousNextHop,omitempty"`
	NextHopAddress  string `json:"nextHopAddress"`
	Route           Route  `json:"route"`
}

// ForwardingRuleOperation retargets a forwarding rule at this instance.
type ForwardingRuleOperation struct {
	ScopeID           string `json:"scopeId,omitempty"`
	Name              string `json:"name"`
	TargetRef         string `json:"targetRef"`
	PreviousTargetRef string `json:"previousTargetRef,omitempty"`
}

// InterfaceOperations holds both phases of a NIC transfer.
type InterfaceOperations struct {
	Disassociate []NicOperation `json:"disassociate"`
	Associate    []NicOperation `json:"associate"`
}

// OperationSet is the plan produced by discovery. The cloud's own state stays
// authoritative; a set is consumed at most once.
type OperationSet struct {
	Interfaces      InterfaceOperations       `json:"interfaces"`
	Routes          []RouteOperation          `json:"routes"`
	ForwardingRules []ForwardingRuleOperation `json:"forwardingRules"`
}

// NewOperationSet returns a set with all lists non-nil so it encodes as empty
// arrays rather than null.
func NewOperationSet() *OperationSet {
	return &OperationSet{
		Interfaces: InterfaceOperations{
			Disassociate: []NicOperation{},
			Associate:    []NicOperation{},
		},
		Routes:          []RouteOperation{},
		ForwardingRules: []ForwardingRuleOperation{},
	}
}

// Empty reports whether the set contains no operations.
func (s *OperationSet) Empty() bool {
	return s == nil || (len(s.Interfaces.Disassociate) == 0 &&
		len(s.Interfaces.Associate) == 0 &&
		len(s.Routes) == 0 &&
		len(s.ForwardingRules) == 0)
}

// Count returns the number of operations in the set.
func (s *OperationSet) Count() int {
	if s == nil {
		return 0
	}
	return len(s.Interfaces.Disassociate) + len(s.Interfaces.Associate) + len(s.Routes) + len(s.ForwardingRules)
}

// OperationStatus is the provider's answer when polled about an operation.
type OperationStatus string

// Operation statuses.
const (
	StatusSucceeded OperationStatus = "Succeeded"
	StatusPending   OperationStatus = "Pending"
	StatusFailed    OperationStatus = "Failed"
)

// Operation is a handle to a submitted mutating call.
type Operation interface {
	ID() string
}

// Provider is implemented once per cloud. Route mutation is offered through
// RouteUpdater or RouteRecreator.
type Provider interface {
	Name() string
	ListNetworkInterfaces(ctx context.Context, tags map[string]string) ([]NetworkInterface, error)
	// ListRouteTables must follow pagination until exhausted.
	ListRouteTables(ctx context.Context, scopes []string) ([]RouteTable, error)
	ListForwardingRules(ctx context.Context, tags map[string]string) ([]ForwardingRule, error)
	UpdateNetworkInterface(ctx context.Context, op NicOperation) (Operation, error)
	UpdateForwardingRule(ctx context.Context, op ForwardingRuleOperation) (Operation, error)
	OperationStatus(ctx context.Context, op Operation) (OperationStatus, error)
}

// RouteUpdater updates a route in place. Implementations fetch the current
// route table immediately before writing.
type RouteUpdater interface {
	UpdateRoute(ctx context.Context, op RouteOperation) (Operation, error)
}

// RouteRecreator replaces a route by deleting and recreating it, for clouds
// without in-place updates. CreateRoute must not send server-assigned fields.
type RouteRecreator interface {
	DeleteRoute(ctx context.Context, op RouteOperation) (Operation, error)
	CreateRoute(ctx context.Context, op RouteOperation) (Operation, error)
}

type addressSet map[netip.Addr]struct{}

func newAddressSet(addrs []string) addressSet {
	set := make(addressSet, len(addrs))
	for _, a := range addrs {
		if ip, err := netip.ParseAddr(strings.TrimSpace(a)); err == nil {
			set[ip.Unmap()] = struct{}{}
		}
	}
	return set
}

func (s addressSet) has(addr string) bool {
	ip, err := netip.ParseAddr(strings.TrimSpace(addr))
	if err != nil {
		return false
	}
	_, ok := s[ip.Unmap()]
	return ok
}

func sameAddress(a, b string) bool {
	ipA, errA := netip.ParseAddr(strings.TrimSpace(a))
	ipB, errB := netip.ParseAddr(strings.TrimSpace(b))
	if errA != nil || errB != nil {
		return a == b
	}
	return ipA.Unmap() == ipB.Unmap()
}
