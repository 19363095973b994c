// Package aws implements the failover provider for Amazon EC2.
//
// Network interfaces are ENIs; every private IPv4 and IPv6 address is one IP
// configuration. A NIC update is expressed as assign/unassign calls computed
// against a fresh describe. Route tables only expose routes that target an
// ENI or instance; their next hop is reported as the target's primary address
// of the route's family, and UpdateRoute resolves the address back to an ENI
// before calling ReplaceRoute. Forwarding rules are Elastic IPs.
//
// EC2 calls are synchronous, so operation handles confirm by describing the
// resource until it shows the requested state.
package aws
