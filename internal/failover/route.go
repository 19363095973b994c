package failover

import (
	"net/netip"
	"strings"

	"github.com/go-logr/logr"
)

// DiscoverForGroup returns the route operations needed so that every route
// matched by group points at one of the local addresses. Routes already
// pointing at the resolved address are skipped.
func DiscoverForGroup(log logr.Logger, tables []RouteTable, group RouteGroup, local []string) []RouteOperation {
	log = log.WithValues("group", group.label())
	ops := []RouteOperation{}

	selected := SelectRouteTables(tables, group)
	if len(selected) == 0 {
		log.Info("no route tables matched the group selector", "anomaly", "no-route-tables")
		return ops
	}

	for _, table := range selected {
		for _, route := range table.Routes {
			rlog := log.WithValues("table", table.Name, "destination", route.DestinationCIDR)

			addrRange, ok := MatchAddressRange(route.DestinationCIDR, group.AddressRanges)
			if !ok {
				rlog.V(1).Info("route does not match any address range")
				continue
			}

			candidates := NextHopCandidates(table, addrRange.NextHop)
			if len(candidates) == 0 {
				rlog.Info("no candidate next-hop addresses", "anomaly", "empty-candidates",
					"policy", addrRange.NextHop.Type, "tag", addrRange.NextHop.Tag)
				continue
			}

			nextHop, ok := ResolveNextHop(route.DestinationCIDR, candidates, local)
			if !ok {
				rlog.Info("no local address is an eligible next hop", "anomaly", "no-eligible-next-hop",
					"candidates", candidates)
				continue
			}

			if route.TargetsAddress(nextHop) {
				rlog.V(1).Info("route already associated", "nextHop", nextHop)
				continue
			}

			ops = append(ops, RouteOperation{
				ScopeID:         table.ScopeID,
				TableID:         table.ID,
				TableName:       table.Name,
				RouteName:       route.Name,
				Destination:     route.DestinationCIDR,
				PreviousNextHop: route.NextHopAddress,
				NextHopAddress:  nextHop,
				Route:           route,
			})
		}
	}
	return ops
}

// MatchAddressRange returns the first range matching destination. A range
// listing the wildcard matches any destination; otherwise the destination
// must equal one of the listed CIDRs exactly.
func MatchAddressRange(destination string, ranges []RouteAddressRange) (RouteAddressRange, bool) {
	for _, r := range ranges {
		if r.isWildcard() {
			return r, true
		}
		for _, d := range r.Destinations {
			if d == destination {
				return r, true
			}
		}
	}
	return RouteAddressRange{}, false
}

// NextHopCandidates lists the addresses policy allows as next hop for routes
// of table.
func NextHopCandidates(table RouteTable, policy NextHopPolicy) []string {
	switch policy.Type {
	case NextHopRouteTag:
		value, ok := table.Tags[policy.Tag]
		if !ok {
			return nil
		}
		return SplitAddressList(value)
	default:
		out := make([]string, 0, len(policy.Items))
		for _, item := range policy.Items {
			out = append(out, SplitAddressList(item)...)
		}
		return out
	}
}

// ResolveNextHop picks the first local address, in local order, that is a
// candidate and belongs to the destination's address family.
func ResolveNextHop(destination string, candidates, local []string) (string, bool) {
	wantV6 := isIPv6Destination(destination)
	allowed := newAddressSet(candidates)

	for _, addr := range local {
		ip, err := netip.ParseAddr(strings.TrimSpace(addr))
		if err != nil {
			continue
		}
		if isIPv6Addr(ip) != wantV6 {
			continue
		}
		if allowed.has(addr) {
			return ip.Unmap().String(), true
		}
	}
	return "", false
}

func isIPv6Destination(destination string) bool {
	destination = strings.TrimSpace(destination)
	if p, err := netip.ParsePrefix(destination); err == nil {
		return isIPv6Addr(p.Addr())
	}
	if a, err := netip.ParseAddr(destination); err == nil {
		return isIPv6Addr(a)
	}
	return false
}

func isIPv6Addr(ip netip.Addr) bool {
	return ip.Is6() && !ip.Is4In6()
}
