package failover_test

import (
	"context"
	"time"

	"github.com/go-logr/logr"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/imamik/hafloat/internal/failover"
	testfx "github.com/imamik/hafloat/internal/testing"
	"github.com/imamik/hafloat/internal/util/retry"
)

var _ = Describe("Failover of an external interface pair", func() {
	var (
		ctx     context.Context
		cancel  context.CancelFunc
		fake    *testfx.FakeProvider
		planner *failover.Planner
		in      failover.Inputs
	)

	BeforeEach(func() {
		ctx, cancel = context.WithTimeout(context.Background(), 10*time.Second)
		DeferCleanup(cancel)

		a := testfx.NewNIC("nic-a").WithTag("role", "external").WithPrimary("10.0.0.1").Build()
		b := testfx.NewNIC("nic-b").WithTag("role", "external").WithPrimary("10.0.0.3").WithSecondary("10.0.0.2").Build()
		fake = testfx.NewFakeProvider().
			WithInterfaces(a, b).
			WithRouteTables(testfx.NewRouteTable("rt-ext").
				WithTag("hops", "10.0.0.1,2001:db8::1").
				WithRoute("v4", "0.0.0.0/0", "10.0.0.3").
				WithRoute("v6", "2001:db8::/32", "2001:db8::3").
				Build())
		planner = failover.NewPlanner(testfx.RouteUpdating{FakeProvider: fake},
			failover.WithLogger(logr.Discard()),
			failover.WithSubmitBudget(retry.Budget{MaxRetries: 1, Interval: time.Millisecond}),
			failover.WithConfirmBudget(retry.Budget{MaxRetries: 3, Interval: time.Millisecond}))

		in = failover.Inputs{
			LocalAddresses:    []string{"10.0.0.1", "2001:db8::1"},
			FailoverAddresses: []string{"10.0.0.2"},
			Interfaces: failover.InterfaceDiscovery{
				Tags:    map[string]string{"role": "external"},
				Pairing: testfx.TagPairing(),
			},
			RouteGroups: []failover.RouteGroup{{
				Name: "rt-ext",
				AddressRanges: []failover.RouteAddressRange{{
					Destinations: []string{failover.WildcardDestination},
					NextHop:      failover.NextHopPolicy{Type: failover.NextHopRouteTag, Tag: "hops"},
				}},
			}},
		}
	})

	Context("when discovering", func() {
		It("plans to move the floating address onto the local interface", func() {
			set, err := planner.Discover(ctx, in)
			Expect(err).NotTo(HaveOccurred())

			Expect(set.Interfaces.Disassociate).To(HaveLen(1))
			Expect(set.Interfaces.Disassociate[0].NIC.Addresses()).To(Equal([]string{"10.0.0.3"}))
			Expect(set.Interfaces.Associate).To(HaveLen(1))
			Expect(set.Interfaces.Associate[0].NIC.Addresses()).To(Equal([]string{"10.0.0.1", "10.0.0.2"}))
		})

		It("keeps each route in its own address family", func() {
			set, err := planner.Discover(ctx, in)
			Expect(err).NotTo(HaveOccurred())

			Expect(set.Routes).To(HaveLen(2))
			hops := map[string]string{}
			for _, op := range set.Routes {
				hops[op.Destination] = op.NextHopAddress
			}
			Expect(hops).To(HaveKeyWithValue("0.0.0.0/0", "10.0.0.1"))
			Expect(hops).To(HaveKeyWithValue("2001:db8::/32", "2001:db8::1"))
		})

		It("never calls a mutating API", func() {
			_, err := planner.Discover(ctx, in)
			Expect(err).NotTo(HaveOccurred())
			for _, c := range fake.Calls() {
				Expect(c.Method).To(HavePrefix("List"))
			}
		})
	})

	Context("when failing over", func() {
		It("converges so that a second pass has nothing to do", func() {
			_, err := planner.Run(ctx, in, failover.ModeDiscoverThenApply)
			Expect(err).NotTo(HaveOccurred())

			set, err := planner.Discover(ctx, in)
			Expect(err).NotTo(HaveOccurred())
			Expect(set.Empty()).To(BeTrue())
		})

		It("aborts without associating when disassociation keeps failing", func() {
			fake.UpdateNICErr = func(op failover.NicOperation) error {
				if op.Action == failover.ActionDisassociate {
					return failover.Configuration("nic", "rejected")
				}
				return nil
			}

			_, err := planner.Run(ctx, in, failover.ModeDiscoverThenApply)
			Expect(err).To(HaveOccurred())
			Expect(fake.CallStrings()).NotTo(ContainElement("UpdateNetworkInterface:nic-a:associate"))
		})
	})
})
