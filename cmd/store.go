// File: cmd/store.go
package cmd

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/stutter-cli/internal/results"
	"github.com/xkilldash9x/stutter-cli/internal/trial"
)

// errStoreDisabled is returned when results.sqlite_path is empty.
var errStoreDisabled = errors.New("run store is disabled (results.sqlite_path is empty)")

// storeProvider opens the run store. Tests swap in a provider rooted in a
// temporary directory.
type storeProvider interface {
	// Open returns the store and a cleanup function that closes it.
	Open(ctx context.Context, cfg results.Config, logger *zap.Logger) (*results.Store, func(), error)
}

type defaultStoreProvider struct{}

// NewStoreProvider returns the provider that opens the SQLite store named by
// the results configuration.
func NewStoreProvider() storeProvider {
	return defaultStoreProvider{}
}

func (defaultStoreProvider) Open(ctx context.Context, cfg results.Config, logger *zap.Logger) (*results.Store, func(), error) {
	if cfg.SQLitePath == "" {
		return nil, nil, errStoreDisabled
	}
	rec, err := results.NewRecorder(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	store, err := results.OpenStore(ctx, rec.StorePath(), logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open run store: %w", err)
	}
	cleanup := func() {
		if err := store.Close(); err != nil {
			logger.Warn("Failed to close run store.", zap.Error(err))
		}
	}
	return store, cleanup, nil
}

// saveOutcomes writes the files of every outcome and, when the store is
// enabled, persists them. Runs that never started are skipped.
func saveOutcomes(ctx context.Context, logger *zap.Logger, cfg results.Config, provider storeProvider, outs []trial.Outcome) ([]trial.Saved, error) {
	rec, err := results.NewRecorder(cfg, logger)
	if err != nil {
		return nil, err
	}

	var store *results.Store
	if cfg.SQLitePath != "" {
		s, cleanup, err := provider.Open(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		defer cleanup()
		store = s
	}

	saved := make([]trial.Saved, 0, len(outs))
	for _, out := range outs {
		if len(out.Conditions) == 0 {
			continue
		}
		s, err := trial.Save(ctx, out, rec, store)
		if err != nil {
			return saved, fmt.Errorf("failed to save run %s: %w", out.RunID, err)
		}
		logger.Info("Results saved.",
			zap.String("run_id", out.RunID.String()),
			zap.String("results", s.ResultsPath),
			zap.Bool("stored", s.Stored))
		saved = append(saved, s)
	}
	return saved, nil
}
