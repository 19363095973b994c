// Package testing provides fakes, builders and fixtures shared by the
// failover tests.
//
//   - FakeProvider: in-memory failover.Provider recording every call
//   - NICBuilder / RouteTableBuilder: fluent builders for inventory
//   - MockObjectStore: testify mock for the state store
//
// Usage:
//
//	nic := testing.NewNIC("nic-a").
//	    WithTag("role", "external").
//	    WithPrimary("10.0.0.1").
//	    Build()
//
//	provider := testing.NewFakeProvider().WithInterfaces(nic)
package testing
