// Package config loads the hafloat YAML configuration.
//
// The [Config] struct describes one instance of an HA pair: the cloud
// provider, the instance's own and floating addresses, how peer interfaces
// are paired, which route tables to repoint, which forwarding rules to
// retarget, retry budgets and where the state document is kept. LoadFile
// applies defaults and environment overrides, then validates.
package config
