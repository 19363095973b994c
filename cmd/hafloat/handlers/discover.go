package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/go-logr/logr"
	"sigs.k8s.io/yaml"

	"github.com/imamik/hafloat/internal/failover"
)

// Plan output formats.
const (
	OutputJSON = "json"
	OutputYAML = "yaml"
)

// Discover computes the failover plan and writes it to out.
func Discover(ctx context.Context, configPath, output string, out io.Writer) error {
	log := logr.FromContextOrDiscard(ctx)

	if output != OutputJSON && output != OutputYAML {
		return fmt.Errorf("unsupported output format %q (use %s or %s)", output, OutputJSON, OutputYAML)
	}

	cfg, planner, err := setup(ctx, configPath)
	if err != nil {
		return err
	}
	defer flushMetrics(log, cfg)

	set, err := planner.Run(ctx, cfg.Inputs(), failover.ModeDiscover)
	if err != nil {
		return fmt.Errorf("discovery failed: %w", err)
	}
	log.Info("discovery complete", "operations", set.Count())

	data, err := encodePlan(set, output)
	if err != nil {
		return err
	}
	_, err = out.Write(data)
	return err
}

func encodePlan(set *failover.OperationSet, output string) ([]byte, error) {
	if output == OutputYAML {
		data, err := yaml.Marshal(set)
		if err != nil {
			return nil, fmt.Errorf("failed to encode plan: %w", err)
		}
		return data, nil
	}
	data, err := json.MarshalIndent(set, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode plan: %w", err)
	}
	return append(data, '\n'), nil
}

// decodePlan accepts JSON or YAML.
func decodePlan(data []byte) (*failover.OperationSet, error) {
	set := failover.NewOperationSet()
	if err := yaml.Unmarshal(data, set); err != nil {
		return nil, fmt.Errorf("failed to decode plan: %w", err)
	}
	return set, nil
}
