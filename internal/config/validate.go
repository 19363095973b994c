package config

import (
	"errors"
	"fmt"
	"net/netip"
	"slices"

	"github.com/imamik/hafloat/internal/failover"
	"github.com/imamik/hafloat/internal/util/retry"
)

// Validate checks the configuration and returns every problem found, each a
// *failover.ConfigurationError, joined into one error.
func (c *Config) Validate() error {
	var errs []error
	add := func(field, format string, args ...any) {
		errs = append(errs, failover.Configuration(field, format, args...))
	}

	switch c.Provider {
	case ProviderAzure:
		if len(c.Azure.Subscriptions) == 0 {
			add("azure.subscriptions", "at least one subscription is required")
		}
	case ProviderAWS:
		if c.AWS.Region == "" {
			add("aws.region", "region is required")
		}
	case ProviderHCloud:
	case "":
		add("provider", "provider is required")
	default:
		add("provider", "unknown provider %q (supported: %s, %s, %s)", c.Provider, ProviderAzure, ProviderAWS, ProviderHCloud)
	}

	errs = append(errs, c.validateAddresses()...)
	errs = append(errs, c.validateInterfaces()...)
	errs = append(errs, c.validateRoutes()...)

	if len(c.ForwardingRules.Tags) > 0 && c.InstanceID == "" {
		add("instanceId", "instance ID is required when forwarding rule tags are set")
	}

	errs = append(errs, validateBudget("retry", c.Retry)...)
	errs = append(errs, validateBudget("confirm", c.Confirm)...)

	if c.State.Enabled() {
		if c.State.Key == "" {
			add("state.key", "key is required when instanceId is not set")
		}
		if c.State.StaleAfter < 0 {
			add("state.staleAfter", "must not be negative")
		}
	}

	return errors.Join(errs...)
}

func (c *Config) validateAddresses() []error {
	var errs []error
	seen := map[netip.Addr]bool{}
	local := 0
	for i, a := range c.Addresses {
		field := fmt.Sprintf("addresses[%d]", i)
		addr, err := netip.ParseAddr(a.IP)
		if err != nil {
			errs = append(errs, failover.Configuration(field+".ip", "invalid IP address %q", a.IP))
			continue
		}
		addr = addr.Unmap()
		if seen[addr] {
			errs = append(errs, failover.Configuration(field+".ip", "duplicate address %s", addr))
		}
		seen[addr] = true

		switch a.Role {
		case failover.RoleLocal:
			local++
		case failover.RoleFailover:
		default:
			errs = append(errs, failover.Configuration(field+".role", "role must be %q or %q, got %q", failover.RoleLocal, failover.RoleFailover, a.Role))
		}
	}
	if local == 0 {
		errs = append(errs, failover.Configuration("addresses", "at least one local address is required"))
	}
	return errs
}

func (c *Config) validateInterfaces() []error {
	var errs []error
	switch c.Interfaces.Pairing.Mode {
	case failover.DiscoverByTag:
		if c.Interfaces.Pairing.TagKey == "" {
			errs = append(errs, failover.Configuration("interfaces.pairing.tagKey", "tag key is required for tag pairing"))
		}
	case failover.DiscoverBySubnet:
	default:
		errs = append(errs, failover.Configuration("interfaces.pairing.mode", "mode must be %q or %q, got %q", failover.DiscoverByTag, failover.DiscoverBySubnet, c.Interfaces.Pairing.Mode))
	}

	hasFailover := slices.ContainsFunc(c.Addresses, func(a failover.Address) bool {
		return a.Role == failover.RoleFailover
	})
	if hasFailover && len(c.Interfaces.Tags) == 0 {
		errs = append(errs, failover.Configuration("interfaces.tags", "tags are required when failover addresses are configured"))
	}
	return errs
}

func (c *Config) validateRoutes() []error {
	var errs []error
	for i, g := range c.Routes.Groups {
		field := fmt.Sprintf("routes.groups[%d]", i)
		if g.Name == "" && len(g.Tags) == 0 {
			errs = append(errs, failover.Configuration(field, "scopingName or scopingTags is required"))
		}
		if len(g.AddressRanges) == 0 {
			errs = append(errs, failover.Configuration(field+".routeAddressRanges", "at least one range is required"))
		}
		for j, r := range g.AddressRanges {
			rangeField := fmt.Sprintf("%s.routeAddressRanges[%d]", field, j)
			if len(r.Destinations) == 0 {
				errs = append(errs, failover.Configuration(rangeField+".routeAddresses", "at least one destination is required"))
			}
			for _, d := range r.Destinations {
				if d == failover.WildcardDestination {
					continue
				}
				if _, err := netip.ParsePrefix(d); err != nil {
					errs = append(errs, failover.Configuration(rangeField+".routeAddresses", "invalid destination %q: must be a CIDR or %q", d, failover.WildcardDestination))
				}
			}
			errs = append(errs, validateNextHop(rangeField+".routeNextHopAddress", r.NextHop)...)
		}
	}
	return errs
}

func validateNextHop(field string, p failover.NextHopPolicy) []error {
	switch p.Type {
	case failover.NextHopStatic:
		if len(p.Items) == 0 {
			return []error{failover.Configuration(field+".items", "at least one next hop address is required")}
		}
		var errs []error
		for _, item := range p.Items {
			for _, addr := range failover.SplitAddressList(item) {
				if _, err := netip.ParseAddr(addr); err != nil {
					errs = append(errs, failover.Configuration(field+".items", "invalid next hop address %q", addr))
				}
			}
		}
		return errs
	case failover.NextHopRouteTag:
		if p.Tag == "" {
			return []error{failover.Configuration(field+".tag", "tag is required for routeTag next hops")}
		}
		return nil
	default:
		return []error{failover.Configuration(field+".type", "type must be %q or %q, got %q", failover.NextHopStatic, failover.NextHopRouteTag, p.Type)}
	}
}

func validateBudget(field string, b retry.Budget) []error {
	var errs []error
	if b.MaxRetries < 0 {
		errs = append(errs, failover.Configuration(field+".maxRetries", "must not be negative"))
	}
	if b.Interval < 0 {
		errs = append(errs, failover.Configuration(field+".interval", "must not be negative"))
	}
	return errs
}
