// File: cmd/conditions.go
package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/stutter-cli/api/schemas"
	"github.com/xkilldash9x/stutter-cli/internal/sequence"
)

func newConditionsCmd() *cobra.Command {
	var seed int64
	var values []float64
	var noShuffle, asJSON bool

	conditionsCmd := &cobra.Command{
		Use:   "conditions",
		Short: "Print the condition order a session would use",
		Long: `Builds every (stop, move) pair from the session values and shuffles it
with the given seed, exactly as a run with that seed would.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfigFromContext(cmd.Context())
			if err != nil {
				return err
			}
			sc := cfg.Session()
			if cmd.Flags().Changed("values") {
				sc.Values = values
			}
			if !cmd.Flags().Changed("seed") {
				seed = sc.FixedSeed
			}
			shuffle := sc.Shuffle && !noShuffle
			return printConditions(cmd.OutOrStdout(), sc.Values, shuffle, seed, asJSON)
		},
	}
	conditionsCmd.Flags().Int64Var(&seed, "seed", 0, "Shuffle seed (defaults to session.fixed_seed)")
	conditionsCmd.Flags().Float64SliceVar(&values, "values", nil, "Durations to cross, e.g. 0.1,0.3,0.5")
	conditionsCmd.Flags().BoolVar(&noShuffle, "no-shuffle", false, "Print the generation order")
	conditionsCmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	return conditionsCmd
}

func printConditions(w io.Writer, values []float64, shuffle bool, seed int64, asJSON bool) error {
	if len(values) == 0 {
		return fmt.Errorf("no values to build conditions from")
	}
	list := sequence.Generate(values)
	if shuffle {
		sequence.Shuffle(list, seed)
	}

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Seed       int64               `json:"seed"`
			Shuffled   bool                `json:"shuffled"`
			Conditions []schemas.Condition `json:"conditions"`
		}{seed, shuffle, list})
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tSTOP\tMOVE\tLABEL")
	for i, c := range list {
		fmt.Fprintf(tw, "%d\t%.2f\t%.2f\t%s\n", i+1, c.StopDuration, c.MoveDuration, sequence.Label(c))
	}
	return tw.Flush()
}
