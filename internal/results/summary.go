// internal/results/summary.go
package results

import (
	"fmt"
	"io"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/xkilldash9x/stutter-cli/api/schemas"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Summary is the JSON export of one run.
type Summary struct {
	RunID      string                 `json:"run_id"`
	Seed       int64                  `json:"seed"`
	StartedAt  time.Time              `json:"started_at"`
	Completed  bool                   `json:"completed"`
	Conditions []schemas.Condition    `json:"conditions"`
	Results    []schemas.ResultRecord `json:"results"`
	TotalHits  int                    `json:"total_hits"`
}

// NewSummary fills in the derived fields.
func NewSummary(runID string, seed int64, startedAt time.Time, completed bool,
	conditions []schemas.Condition, records []schemas.ResultRecord) Summary {
	total := 0
	for _, r := range records {
		total += r.HitCount
	}
	if conditions == nil {
		conditions = []schemas.Condition{}
	}
	if records == nil {
		records = []schemas.ResultRecord{}
	}
	return Summary{
		RunID:      runID,
		Seed:       seed,
		StartedAt:  startedAt,
		Completed:  completed,
		Conditions: conditions,
		Results:    records,
		TotalHits:  total,
	}
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode json: %w", err)
	}
	return nil
}

// ReadSummary decodes a summary written by WriteJSON.
func ReadSummary(r io.Reader) (Summary, error) {
	var s Summary
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return Summary{}, fmt.Errorf("failed to decode summary: %w", err)
	}
	return s, nil
}
