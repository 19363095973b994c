// Package azure implements the failover provider for Azure virtual networks.
//
// Network interfaces and route tables are read with the armnetwork v6 SDK.
// Both are nested resources: a NIC update replaces the full list of IP
// configurations and a route update rewrites the whole route table, so every
// mutation re-reads the resource immediately before the PUT. PUTs are
// long-running operations; OperationStatus polls the SDK poller.
//
// Authentication uses the azidentity default credential chain (environment,
// workload identity, managed identity, Azure CLI). All API calls go through a
// shared token-bucket limiter to stay below ARM throttling limits.
//
// Forwarding rules are not supported on Azure: ListForwardingRules returns
// nothing and UpdateForwardingRule reports a configuration error.
package azure
