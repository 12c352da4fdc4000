// internal/trial/save.go
package trial

import (
	"context"

	"github.com/xkilldash9x/stutter-cli/internal/results"
)

// Saved lists the files written for a run.
type Saved struct {
	ResultsPath string `json:"results_csv"`
	CountPath   string `json:"count_csv"`
	SummaryPath string `json:"summary_json"`
	Stored      bool   `json:"stored"`
}

// Save writes the outcome's CSV files and summary through rec and, when store
// is not nil, persists the run.
func Save(ctx context.Context, out Outcome, rec *results.Recorder, store *results.Store) (Saved, error) {
	var saved Saved
	var err error
	if saved.ResultsPath, err = rec.WriteResults(out.Records); err != nil {
		return saved, err
	}
	if saved.CountPath, err = rec.WriteCount(out.TotalHits()); err != nil {
		return saved, err
	}
	if saved.SummaryPath, err = rec.WriteSummary(out.Summary()); err != nil {
		return saved, err
	}
	if store == nil {
		return saved, nil
	}
	run := results.Run{
		ID:         out.RunID,
		Seed:       out.Seed,
		StartedAt:  out.StartedAt,
		Conditions: len(out.Conditions),
		Completed:  out.Completed,
	}
	if err := store.SaveRun(ctx, run, out.Records); err != nil {
		return saved, err
	}
	saved.Stored = true
	return saved, nil
}
