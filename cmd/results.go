// File: cmd/results.go
package cmd

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/stutter-cli/internal/config"
	"github.com/xkilldash9x/stutter-cli/internal/observability"
)

func newResultsCmd(provider storeProvider) *cobra.Command {
	var asJSON bool

	resultsCmd := &cobra.Command{
		Use:   "results",
		Short: "Inspect runs persisted in the SQLite store",
	}
	resultsCmd.PersistentFlags().BoolVar(&asJSON, "json", false, "Print as JSON")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List stored runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfigFromContext(cmd.Context())
			if err != nil {
				return err
			}
			return listRuns(cmd.Context(), observability.GetLogger(), cfg, provider, asJSON, cmd.OutOrStdout())
		},
	}

	showCmd := &cobra.Command{
		Use:   "show [run-id]",
		Short: "Print the records of one run (the latest when no id is given)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfigFromContext(cmd.Context())
			if err != nil {
				return err
			}
			id := ""
			if len(args) == 1 {
				id = args[0]
			}
			return showRun(cmd.Context(), observability.GetLogger(), cfg, provider, id, asJSON, cmd.OutOrStdout())
		},
	}

	resultsCmd.AddCommand(listCmd, showCmd)
	return resultsCmd
}

func listRuns(ctx context.Context, logger *zap.Logger, cfg config.Interface, provider storeProvider, asJSON bool, w io.Writer) error {
	store, cleanup, err := provider.Open(ctx, cfg.Results(), logger)
	if err != nil {
		return err
	}
	defer cleanup()

	runs, err := store.Runs(ctx)
	if err != nil {
		return err
	}
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tSTARTED\tSEED\tCOMPLETED\tRECORDS")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%t\t%d/%d\n",
			r.ID, r.StartedAt.Local().Format(time.DateTime), r.Seed, r.Completed, r.Records, r.Conditions)
	}
	return tw.Flush()
}

func showRun(ctx context.Context, logger *zap.Logger, cfg config.Interface, provider storeProvider, rawID string, asJSON bool, w io.Writer) error {
	store, cleanup, err := provider.Open(ctx, cfg.Results(), logger)
	if err != nil {
		return err
	}
	defer cleanup()

	var id uuid.UUID
	if rawID == "" {
		latest, err := store.LatestRun(ctx)
		if err != nil {
			return err
		}
		id = latest.ID
	} else if id, err = uuid.Parse(rawID); err != nil {
		return fmt.Errorf("invalid run id %q: %w", rawID, err)
	}

	records, err := store.Records(ctx, id)
	if err != nil {
		return err
	}
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			RunID   uuid.UUID `json:"run_id"`
			Records any       `json:"records"`
		}{id, records})
	}

	fmt.Fprintf(w, "Run %s\n", id)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SCENE\tCONDITION\tHITS")
	total := 0
	for _, r := range records {
		total += r.HitCount
		fmt.Fprintf(tw, "%s\t%s\t%d\n", r.SceneName, r.ConditionLabel, r.HitCount)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "Total hits: %d\n", total)
	return nil
}
