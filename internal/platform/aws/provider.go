package aws

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/go-logr/logr"
	"golang.org/x/time/rate"

	"github.com/imamik/hafloat/internal/failover"
)

// Name is the provider name used in configuration.
const Name = "aws"

// Default EC2 request rate, below the per-account mutating-call bucket.
const (
	DefaultRequestsPerSecond = 5
	DefaultBurst             = 10
)

// Provider implements failover.Provider and failover.RouteUpdater on top of
// the EC2 API.
type Provider struct {
	ec2     EC2API
	limiter *rate.Limiter
	log     logr.Logger
}

var (
	_ failover.Provider     = (*Provider)(nil)
	_ failover.RouteUpdater = (*Provider)(nil)
)

// ProviderOption configures a Provider.
type ProviderOption func(*Provider)

// WithEC2Client replaces the EC2 client (useful for testing).
func WithEC2Client(client EC2API) ProviderOption {
	return func(p *Provider) {
		p.ec2 = client
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

// NewProvider creates a Provider for region. Without WithEC2Client the
// default AWS credential chain is used.
func NewProvider(ctx context.Context, region string, opts ...ProviderOption) (*Provider, error) {
	p := &Provider{
		limiter: rate.NewLimiter(DefaultRequestsPerSecond, DefaultBurst),
		log:     logr.Discard(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.log = p.log.WithValues("provider", Name)

	if p.ec2 == nil {
		cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
		if err != nil {
			return nil, failover.Configuration("aws", "failed to load AWS config: %v", err)
		}
		p.ec2 = ec2.NewFromConfig(cfg)
	}
	return p, nil
}

// Name implements failover.Provider.
func (p *Provider) Name() string { return Name }

// wait blocks until the rate limiter admits one request.
func (p *Provider) wait(ctx context.Context) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	return nil
}

// tagFilters turns required tags into server-side filters.
func tagFilters(tags map[string]string) []types.Filter {
	filters := make([]types.Filter, 0, len(tags))
	for _, k := range slices.Sorted(maps.Keys(tags)) {
		filters = append(filters, types.Filter{Name: aws.String("tag:" + k), Values: []string{tags[k]}})
	}
	return filters
}

// nameTag returns the Name tag, falling back to fallback.
func nameTag(tags []types.Tag, fallback string) string {
	for _, t := range tags {
		if aws.ToString(t.Key) == "Name" && aws.ToString(t.Value) != "" {
			return aws.ToString(t.Value)
		}
	}
	return fallback
}

func toTags(tags []types.Tag) map[string]string {
	out := make([]failover.Tag, 0, len(tags))
	for _, t := range tags {
		out = append(out, failover.Tag{Key: aws.ToString(t.Key), Value: aws.ToString(t.Value)})
	}
	return failover.NormalizeTags(out)
}
