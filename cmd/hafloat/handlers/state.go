package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/go-logr/logr"

	"github.com/imamik/hafloat/internal/state"
)

// StateShow writes the state document as JSON.
func StateShow(ctx context.Context, configPath string, out io.Writer) error {
	store, err := stateStore(ctx, configPath)
	if err != nil {
		return err
	}
	doc, err := store.Load(ctx)
	if err != nil {
		return err
	}
	if doc.Empty() {
		_, err := fmt.Fprintf(out, "no state recorded at %s\n", store.Location())
		return err
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}
	_, err = out.Write(append(data, '\n'))
	return err
}

// StateClear deletes the state document.
func StateClear(ctx context.Context, configPath string) error {
	store, err := stateStore(ctx, configPath)
	if err != nil {
		return err
	}
	if err := store.Clear(ctx); err != nil {
		return err
	}
	logr.FromContextOrDiscard(ctx).Info("state cleared", "location", store.Location())
	return nil
}

func stateStore(ctx context.Context, configPath string) (*state.Store, error) {
	cfg, err := loadConfigFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, fmt.Errorf("no state bucket configured")
	}
	return store, nil
}
