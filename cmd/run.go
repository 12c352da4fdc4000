// File: cmd/run.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/stutter-cli/internal/config"
	"github.com/xkilldash9x/stutter-cli/internal/observability"
	"github.com/xkilldash9x/stutter-cli/internal/trial"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// sessionFlags are the overrides shared by run and batch.
type sessionFlags struct {
	seed       int64
	randomSeed bool
	reload     bool
	resultsDir string
	noStore    bool
	jsonOutput bool
}

func (f *sessionFlags) register(cmd *cobra.Command) {
	cmd.Flags().Int64Var(&f.seed, "seed", 0, "Fixed shuffle seed (implies --random-seed=false)")
	cmd.Flags().BoolVar(&f.randomSeed, "random-seed", true, "Draw the shuffle seed from the clock")
	cmd.Flags().BoolVar(&f.reload, "reload", false, "Reload the scene for every condition")
	cmd.Flags().StringVarP(&f.resultsDir, "results-dir", "o", "", "Directory for result files (overrides results.dir)")
	cmd.Flags().BoolVar(&f.noStore, "no-store", false, "Do not persist runs in the SQLite store")
	cmd.Flags().BoolVar(&f.jsonOutput, "json", false, "Print the summary as JSON")
}

// apply copies the flags the user actually set onto cfg.
func (f *sessionFlags) apply(cmd *cobra.Command, cfg config.Interface) {
	flags := cmd.Flags()
	if flags.Changed("seed") {
		cfg.SetSeed(f.seed)
		cfg.SetRandomSeed(false)
	}
	if flags.Changed("random-seed") {
		cfg.SetRandomSeed(f.randomSeed)
	}
	if flags.Changed("reload") {
		cfg.SetReloadOnAdvance(f.reload)
	}
	if f.resultsDir != "" {
		cfg.SetResultsDir(f.resultsDir)
	}
	if f.noStore {
		cfg.SetSQLitePath("")
	}
}

func newRunCmd(provider storeProvider) *cobra.Command {
	var flags sessionFlags

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Play one full session and record the results",
		Long: `Runs every condition of one session with a scripted participant holding
forward, then writes the per-condition CSV, the hit count CSV and a JSON
summary. Runs are also stored in SQLite unless --no-store is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}
			flags.apply(cmd, cfg)
			return runSession(ctx, observability.GetLogger(), cfg, provider, flags.jsonOutput, cmd.OutOrStdout())
		},
	}
	flags.register(runCmd)
	return runCmd
}

// runSession plays and saves one session. A run that hits the time limit is
// still saved before the error is returned.
func runSession(ctx context.Context, logger *zap.Logger, cfg config.Interface, provider storeProvider, asJSON bool, w io.Writer) error {
	tc, err := cfg.Trial()
	if err != nil {
		return err
	}

	out, runErr := trial.Run(ctx, tc, logger.Named("trial"))
	if runErr != nil && !errors.Is(runErr, trial.ErrTimeLimit) {
		return runErr
	}

	runLogger := observability.ForRun(logger, out.RunID, out.Seed)
	saved, err := saveOutcomes(ctx, runLogger, cfg.Results(), provider, []trial.Outcome{out})
	if err != nil {
		return err
	}

	if err := printOutcome(w, out, saved, asJSON); err != nil {
		return err
	}
	return runErr
}

type outcomeReport struct {
	RunID      string        `json:"run_id"`
	Seed       int64         `json:"seed"`
	Completed  bool          `json:"completed"`
	Conditions int           `json:"conditions"`
	TotalHits  int           `json:"total_hits"`
	Knockbacks int           `json:"knockbacks"`
	SimSeconds float64       `json:"sim_seconds"`
	Files      []trial.Saved `json:"files"`
}

func printOutcome(w io.Writer, out trial.Outcome, saved []trial.Saved, asJSON bool) error {
	if asJSON {
		rep := outcomeReport{
			RunID:      out.RunID.String(),
			Seed:       out.Seed,
			Completed:  out.Completed,
			Conditions: len(out.Records),
			TotalHits:  out.TotalHits(),
			Knockbacks: out.Knockbacks,
			SimSeconds: out.SimTime,
			Files:      saved,
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}

	fmt.Fprintf(w, "Run %s (seed %d)\n", out.RunID, out.Seed)
	for _, r := range out.Records {
		fmt.Fprintf(w, "  %-20s %3d hits\n", r.ConditionLabel, r.HitCount)
	}
	fmt.Fprintf(w, "Total: %d hits over %d of %d conditions, %d knockbacks, %.1fs simulated\n",
		out.TotalHits(), len(out.Records), len(out.Conditions), out.Knockbacks, out.SimTime)
	for _, s := range saved {
		fmt.Fprintf(w, "Results: %s\nCount:   %s\nSummary: %s\n", s.ResultsPath, s.CountPath, s.SummaryPath)
	}
	return nil
}
