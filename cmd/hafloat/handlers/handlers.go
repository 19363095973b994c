// Package handlers implements the business logic for CLI commands.
//
// This package contains handler functions that are called by command definitions
// in the commands package. Handlers are framework-agnostic and can be tested
// independently of the CLI framework.
package handlers

import (
	"context"
	"fmt"
	"os"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/imamik/hafloat/internal/config"
	"github.com/imamik/hafloat/internal/failover"
	"github.com/imamik/hafloat/internal/platform/s3"
	"github.com/imamik/hafloat/internal/state"
)

// Factory function variables - can be replaced in tests for dependency injection.
var (
	// loadConfigFile loads config from file (for testing injection).
	loadConfigFile = config.LoadFile

	// newProvider creates the cloud provider named in the config.
	newProvider = providerFor

	// newObjectStore creates the client for the state bucket.
	newObjectStore = func(ctx context.Context, cfg config.StateConfig) (state.ObjectStore, error) {
		client, err := s3.NewClient(ctx, s3.Options{
			Endpoint:     cfg.Endpoint,
			Region:       cfg.Region,
			AccessKey:    cfg.AccessKey,
			SecretKey:    cfg.SecretKey,
			UsePathStyle: cfg.UsePathStyle,
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	}

	// readFile reads plan files (for testing injection).
	readFile = os.ReadFile

	// writeMetrics writes the metrics registry in textfile format.
	writeMetrics = func(path string) error {
		return prometheus.WriteToTextfile(path, failover.Registry)
	}
)

// setup loads the configuration and creates the provider and planner.
func setup(ctx context.Context, configPath string) (*config.Config, *failover.Planner, error) {
	log := logr.FromContextOrDiscard(ctx)

	cfg, err := loadConfigFile(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	provider, err := newProvider(ctx, cfg, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create %s provider: %w", cfg.Provider, err)
	}

	planner := failover.NewPlanner(provider,
		failover.WithLogger(log),
		failover.WithSubmitBudget(cfg.Retry),
		failover.WithConfirmBudget(cfg.Confirm),
		failover.WithMetrics(cfg.Metrics.File != ""),
	)
	return cfg, planner, nil
}

// openStore returns the state store, or nil when no bucket is configured.
func openStore(ctx context.Context, cfg *config.Config) (*state.Store, error) {
	if !cfg.State.Enabled() {
		return nil, nil
	}
	objects, err := newObjectStore(ctx, cfg.State)
	if err != nil {
		return nil, fmt.Errorf("failed to create state client: %w", err)
	}
	return state.NewStore(objects, cfg.State.Bucket, cfg.State.Key), nil
}

// flushMetrics writes the metrics file if one is configured. Failures are
// logged, never returned.
func flushMetrics(log logr.Logger, cfg *config.Config) {
	if cfg.Metrics.File == "" {
		return
	}
	if err := writeMetrics(cfg.Metrics.File); err != nil {
		log.Error(err, "failed to write metrics", "file", cfg.Metrics.File)
	}
}
