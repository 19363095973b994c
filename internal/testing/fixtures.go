package testing

import (
	"github.com/imamik/hafloat/internal/failover"
)

// Addresses used by the fixtures.
const (
	LocalAddress    = "10.0.0.1"
	FailoverAddress = "10.0.0.2"
	PeerAddress     = "10.0.0.3"
)

// ExternalPair returns a local NIC holding LocalAddress and a peer NIC
// holding PeerAddress as primary and FailoverAddress as secondary, both
// tagged role=external.
func ExternalPair() (local, peer failover.NetworkInterface) {
	local = NewNIC("nic-a").
		WithTag("role", "external").
		WithPrimary(LocalAddress).
		InSubnet("subnet-ext").
		Build()
	peer = NewNIC("nic-b").
		WithTag("role", "external").
		WithPrimary(PeerAddress).
		WithSecondary(FailoverAddress).
		InSubnet("subnet-ext").
		Build()
	return local, peer
}

// TagPairing pairs NICs by the role tag.
func TagPairing() failover.PairingStrategy {
	return failover.PairingStrategy{Mode: failover.DiscoverByTag, TagKey: "role"}
}

// StaticRouteGroup selects table name and points every route at one of
// candidates.
func StaticRouteGroup(table string, candidates ...string) failover.RouteGroup {
	return failover.RouteGroup{
		Name: table,
		AddressRanges: []failover.RouteAddressRange{{
			Destinations: []string{failover.WildcardDestination},
			NextHop:      failover.NextHopPolicy{Type: failover.NextHopStatic, Items: candidates},
		}},
	}
}
