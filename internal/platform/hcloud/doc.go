// Package hcloud implements the failover provider for Hetzner Cloud.
//
// Hetzner resources map onto the provider model as follows:
//
//   - network interface: one private-network attachment of a server. The
//     attachment's IP is the primary configuration and its alias IPs are the
//     secondary configurations. The network ID doubles as subnet identity, so
//     same-network pairing uses the subnet discovery mode.
//   - route table: a private network with its routes. Hetzner has no in-place
//     route update, so routes are deleted and recreated (RouteRecreator).
//   - forwarding rule: a floating IP, retargeted by assigning it to a server.
//     Its target reference is the numeric server ID.
//
// Every mutating call returns an hcloud action which is polled through
// OperationStatus.
//
// # Error Classification
//
// errors.go maps API error codes onto the failover error taxonomy:
//
//   - not_found on delete and uniqueness_error on create: already in state
//   - unauthorized, forbidden, invalid_input: configuration errors, never retried
//   - everything else: transient, retried by the planner
package hcloud
