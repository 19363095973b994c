package azure

import (
	"context"
	"fmt"
	"sync"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/go-logr/logr"
	"golang.org/x/time/rate"

	"github.com/imamik/hafloat/internal/failover"
)

// Name is the provider name used in configuration.
const Name = "azure"

// Default ARM request rate. Azure allows bursts of a few hundred reads per
// subscription; failover needs a handful of calls.
const (
	DefaultRequestsPerSecond = 10
	DefaultBurst             = 20
)

// Provider implements failover.Provider and failover.RouteUpdater on top of
// the Azure network resource provider.
type Provider struct {
	subscriptions []string
	factory       APIFactory
	limiter       *rate.Limiter
	log           logr.Logger

	mu   sync.Mutex
	apis map[string]NetworkAPI

	// tableLocks serializes read-modify-write of a route table.
	tableLocks sync.Map
}

var (
	_ failover.Provider     = (*Provider)(nil)
	_ failover.RouteUpdater = (*Provider)(nil)
)

// ProviderOption configures a Provider.
type ProviderOption func(*Provider)

// WithAPIFactory replaces the armnetwork-backed API (useful for testing).
func WithAPIFactory(factory APIFactory) ProviderOption {
	return func(p *Provider) {
		p.factory = factory
	}
}

// WithRateLimit sets the request rate shared by all API calls.
func WithRateLimit(perSecond float64, burst int) ProviderOption {
	return func(p *Provider) {
		p.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithLogger sets the logger.
func WithLogger(log logr.Logger) ProviderOption {
	return func(p *Provider) {
		p.log = log
	}
}

// NewProvider creates a Provider for the given subscriptions. The first
// subscription is the one NICs and route tables are listed in when no scope
// is given. Without WithAPIFactory the default Azure credential chain is used.
func NewProvider(subscriptions []string, opts ...ProviderOption) (*Provider, error) {
	if len(subscriptions) == 0 {
		return nil, failover.Configuration("azure.subscriptions", "at least one subscription is required")
	}

	p := &Provider{
		subscriptions: subscriptions,
		limiter:       rate.NewLimiter(DefaultRequestsPerSecond, DefaultBurst),
		log:           logr.Discard(),
		apis:          map[string]NetworkAPI{},
	}
	for _, opt := range opts {
		opt(p)
	}
	p.log = p.log.WithValues("provider", Name)

	if p.factory == nil {
		cred, err := azidentity.NewDefaultAzureCredential(nil)
		if err != nil {
			return nil, failover.Configuration("azure.credentials", "%v", err)
		}
		p.factory = NewARMFactory(cred)
	}
	return p, nil
}

// Name implements failover.Provider.
func (p *Provider) Name() string { return Name }

// api returns the cached NetworkAPI of a subscription.
func (p *Provider) api(subscriptionID string) (NetworkAPI, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if api, ok := p.apis[subscriptionID]; ok {
		return api, nil
	}
	api, err := p.factory(subscriptionID)
	if err != nil {
		return nil, failover.Configuration("azure.subscriptions", "subscription %s: %v", subscriptionID, err)
	}
	p.apis[subscriptionID] = api
	return api, nil
}

// wait blocks until the rate limiter admits one request.
func (p *Provider) wait(ctx context.Context) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	return nil
}

func (p *Provider) lockTable(id string) func() {
	v, _ := p.tableLocks.LoadOrStore(id, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
