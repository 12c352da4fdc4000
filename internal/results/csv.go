// internal/results/csv.go
package results

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/xkilldash9x/stutter-cli/api/schemas"
)

// ResultsHeader is the header row of the per-condition results file.
var ResultsHeader = []string{"scene", "condition", "hits"}

// CountHeader is the header row of the raw hit tally file.
var CountHeader = []string{"count"}

// WriteResultsCSV writes the header and one row per record. An empty slice
// still produces the header.
func WriteResultsCSV(w io.Writer, records []schemas.ResultRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ResultsHeader); err != nil {
		return fmt.Errorf("failed to write results header: %w", err)
	}
	for i, r := range records {
		row := []string{r.SceneName, r.ConditionLabel, strconv.Itoa(r.HitCount)}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write results row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCountCSV writes the single-column hit tally.
func WriteCountCSV(w io.Writer, count int) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CountHeader); err != nil {
		return fmt.Errorf("failed to write count header: %w", err)
	}
	if err := cw.Write([]string{strconv.Itoa(count)}); err != nil {
		return fmt.Errorf("failed to write count: %w", err)
	}
	cw.Flush()
	return cw.Error()
}
