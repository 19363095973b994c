// Package naming provides consistent names for resources hafloat creates.
//
// IP configurations added to a NIC are named failover-{address} with dots
// and colons replaced by dashes. State documents live under
// {instance}/state.json. Operation handles are {resource}#{action}.
package naming
