package handlers

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/imamik/hafloat/internal/failover"
)

// Apply submits the plan stored at planPath.
func Apply(ctx context.Context, configPath, planPath string) error {
	log := logr.FromContextOrDiscard(ctx)

	data, err := readFile(planPath)
	if err != nil {
		return fmt.Errorf("failed to read plan: %w", err)
	}
	set, err := decodePlan(data)
	if err != nil {
		return err
	}

	cfg, planner, err := setup(ctx, configPath)
	if err != nil {
		return err
	}
	defer flushMetrics(log, cfg)

	in := cfg.Inputs()
	in.Operations = set
	if _, err := planner.Run(ctx, in, failover.ModeApply); err != nil {
		return fmt.Errorf("apply failed: %w", err)
	}
	log.Info("plan applied", "operations", set.Count())
	return nil
}
