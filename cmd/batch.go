// File: cmd/batch.go
package cmd

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/stutter-cli/internal/config"
	"github.com/xkilldash9x/stutter-cli/internal/observability"
	"github.com/xkilldash9x/stutter-cli/internal/trial"
)

func newBatchCmd(provider storeProvider) *cobra.Command {
	var flags sessionFlags
	var runs, parallel int

	batchCmd := &cobra.Command{
		Use:   "batch",
		Short: "Play several independent sessions concurrently",
		Long: `Plays --runs sessions, at most --parallel at a time. With a fixed seed,
run i uses seed+i so every run gets its own condition order. Every run that
produced results is saved, even when another run failed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}
			flags.apply(cmd, cfg)
			if cmd.Flags().Changed("runs") {
				cfg.SetRuns(runs)
			}
			if cmd.Flags().Changed("parallel") {
				cfg.SetParallel(parallel)
			}
			return runBatch(ctx, observability.GetLogger(), cfg, provider, flags.jsonOutput, cmd.OutOrStdout())
		},
	}
	flags.register(batchCmd)
	batchCmd.Flags().IntVarP(&runs, "runs", "n", 1, "Number of sessions to play (overrides simulation.runs)")
	batchCmd.Flags().IntVarP(&parallel, "parallel", "p", 4, "Sessions played at once (overrides simulation.parallel)")
	return batchCmd
}

func runBatch(ctx context.Context, logger *zap.Logger, cfg config.Interface, provider storeProvider, asJSON bool, w io.Writer) error {
	sim := cfg.Simulation()
	if sim.Runs <= 0 || sim.Parallel <= 0 {
		return fmt.Errorf("runs and parallel must be positive, got %d and %d", sim.Runs, sim.Parallel)
	}
	tc, err := cfg.Trial()
	if err != nil {
		return err
	}

	logger.Info("Starting batch.", zap.Int("runs", sim.Runs), zap.Int("parallel", sim.Parallel))
	outs, batchErr := trial.RunBatch(ctx, tc, sim.Runs, sim.Parallel, logger.Named("trial"))
	if err := ctx.Err(); err != nil {
		return err
	}

	saved, err := saveOutcomes(ctx, logger, cfg.Results(), provider, outs)
	if err != nil {
		return err
	}
	if err := printBatch(w, outs, saved, asJSON); err != nil {
		return err
	}
	return batchErr
}

func printBatch(w io.Writer, outs []trial.Outcome, saved []trial.Saved, asJSON bool) error {
	if asJSON {
		reports := make([]outcomeReport, 0, len(outs))
		for _, out := range outs {
			reports = append(reports, outcomeReport{
				RunID:      out.RunID.String(),
				Seed:       out.Seed,
				Completed:  out.Completed,
				Conditions: len(out.Records),
				TotalHits:  out.TotalHits(),
				Knockbacks: out.Knockbacks,
				SimSeconds: out.SimTime,
			})
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{"runs": reports, "files": saved})
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tSEED\tCOMPLETED\tCONDITIONS\tHITS\tKNOCKBACKS")
	for _, out := range outs {
		if len(out.Conditions) == 0 {
			continue
		}
		fmt.Fprintf(tw, "%s\t%d\t%t\t%d/%d\t%d\t%d\n",
			out.RunID, out.Seed, out.Completed, len(out.Records), len(out.Conditions), out.TotalHits(), out.Knockbacks)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "%d runs saved\n", len(saved))
	return nil
}
