// internal/trial/batch.go
package trial

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// RunBatch plays runs sessions with at most parallel running at once. With a
// fixed seed, run i uses FixedSeed+i so every run sees its own order. The
// first failure cancels the remaining runs.
func RunBatch(ctx context.Context, cfg Config, runs, parallel int, logger *zap.Logger) ([]Outcome, error) {
	if runs <= 0 {
		return nil, fmt.Errorf("trial: batch needs at least one run, got %d", runs)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	outcomes := make([]Outcome, runs)
	g, gctx := errgroup.WithContext(ctx)
	if parallel > 0 {
		g.SetLimit(parallel)
	}
	for i := 0; i < runs; i++ {
		runCfg := cfg
		if !cfg.Session.UseRandomSeed {
			runCfg.Session.FixedSeed = cfg.Session.FixedSeed + int64(i)
		}
		g.Go(func() error {
			out, err := Run(gctx, runCfg, logger.With(zap.Int("run", i)))
			outcomes[i] = out
			if err != nil {
				return fmt.Errorf("run %d: %w", i, err)
			}
			return nil
		})
	}
	err := g.Wait()
	return outcomes, err
}
