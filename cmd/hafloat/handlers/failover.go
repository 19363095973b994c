package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/imamik/hafloat/internal/failover"
	"github.com/imamik/hafloat/internal/state"
	"github.com/imamik/hafloat/internal/util/labels"
)

// Failover discovers and applies in one pass, recording the run in the
// state document when a bucket is configured.
func Failover(ctx context.Context, configPath, labelSelector string) error {
	log := logr.FromContextOrDiscard(ctx)

	extra, err := labels.ParseSelector(labelSelector)
	if err != nil {
		return fmt.Errorf("invalid --labels: %w", err)
	}

	cfg, planner, err := setup(ctx, configPath)
	if err != nil {
		return err
	}
	defer flushMetrics(log, cfg)

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}

	in := cfg.Inputs()

	var recorder *state.Recorder
	if store != nil {
		recorder = state.NewRecorder(store, cfg.InstanceID,
			state.WithStaleAfter(cfg.State.StaleAfter),
			state.WithLabels(extra),
			state.WithLogger(log),
		)
		if err := recorder.Begin(ctx, in); err != nil {
			return fmt.Errorf("failed to record run start: %w", err)
		}
		log = log.WithValues("run", recorder.RunID())
	}

	log.Info("starting failover", "instance", cfg.InstanceID)
	set, runErr := planner.Run(ctx, in, failover.ModeDiscoverThenApply)

	if recorder != nil {
		// The run context may already be cancelled; the outcome must still be
		// written so the lock is released.
		if err := recorder.Finish(context.WithoutCancel(ctx), set, runErr); err != nil {
			runErr = errors.Join(runErr, fmt.Errorf("failed to record run outcome: %w", err))
		}
	}
	if runErr != nil {
		return fmt.Errorf("failover failed: %w", runErr)
	}

	log.Info("failover complete", "operations", set.Count())
	return nil
}
