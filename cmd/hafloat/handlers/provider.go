package handlers

import (
	"context"
	"os"

	"github.com/go-logr/logr"

	"github.com/imamik/hafloat/internal/config"
	"github.com/imamik/hafloat/internal/failover"
	"github.com/imamik/hafloat/internal/platform/aws"
	"github.com/imamik/hafloat/internal/platform/azure"
	"github.com/imamik/hafloat/internal/platform/hcloud"
)

// providerFor creates the provider selected by cfg.Provider.
//
// Environment variables:
//
//	HCLOUD_TOKEN: Hetzner Cloud API token (hcloud)
//
// Azure and AWS use their SDK's default credential chain.
func providerFor(ctx context.Context, cfg *config.Config, log logr.Logger) (failover.Provider, error) {
	switch cfg.Provider {
	case config.ProviderHCloud:
		token := os.Getenv("HCLOUD_TOKEN")
		if token == "" {
			return nil, failover.Configuration("HCLOUD_TOKEN", "environment variable is required")
		}
		return hcloud.NewProvider(token, hcloud.WithLogger(log)), nil

	case config.ProviderAzure:
		p, err := azure.NewProvider(cfg.Azure.Subscriptions, azure.WithLogger(log))
		if err != nil {
			return nil, err
		}
		return p, nil

	case config.ProviderAWS:
		p, err := aws.NewProvider(ctx, cfg.AWS.Region, aws.WithLogger(log))
		if err != nil {
			return nil, err
		}
		return p, nil

	default:
		return nil, failover.Configuration("provider", "unknown provider %q", cfg.Provider)
	}
}
