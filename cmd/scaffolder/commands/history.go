package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/openfroyo/scaffolder/pkg/engine"
	"github.com/openfroyo/scaffolder/pkg/stores"
)

func newHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect recorded runs",
		Long: `Inspect and prune the run history kept in the store.

Every run records its request (without credentials), final state and the
progress events it emitted.`,
	}

	cmd.AddCommand(newHistoryListCommand())
	cmd.AddCommand(newHistoryShowCommand())
	cmd.AddCommand(newHistoryPruneCommand())

	return cmd
}

func newHistoryListCommand() *cobra.Command {
	var (
		project string
		status  string
		limit   int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded runs",
		Example: `  # Latest runs
  scaffolder history list

  # Failed runs of one project
  scaffolder history list --project shop --status failed`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := stores.RunFilter{Project: project, Limit: limit}
			if status != "" {
				filter.Status = engine.RunStatus(status)
				if err := filter.Status.Validate(); err != nil {
					return engine.NewValidationError("invalid --status", err).WithCode(codeInvalidConfig)
				}
			}

			ctx := cmd.Context()
			a, err := newApp(ctx, true)
			if err != nil {
				return err
			}
			defer a.close(ctx)

			store, err := a.requireStore()
			if err != nil {
				return err
			}

			runs, err := store.ListRuns(ctx, filter)
			if err != nil {
				return fmt.Errorf("failed to list runs: %w", err)
			}

			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), runs)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tPROJECT\tSTATUS\tSTATE\tWARNINGS\tSTARTED\tDURATION")
			for _, r := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
					r.ID, r.Project, r.Status, r.Reached, r.Warnings,
					r.StartedAt.Local().Format(time.DateTime), r.Duration.Round(time.Millisecond))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&project, "project", "", "only runs of this project")
	cmd.Flags().StringVar(&status, "status", "", "only runs with this status (running, succeeded, failed, cancelled)")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs")

	return cmd
}

type runDetail struct {
	*stores.Run
	Events []*stores.Event `json:"events"`
}

func newHistoryShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one run and its progress events",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, true)
			if err != nil {
				return err
			}
			defer a.close(ctx)

			store, err := a.requireStore()
			if err != nil {
				return err
			}

			run, err := store.GetRun(ctx, args[0])
			if err != nil {
				return fmt.Errorf("run %s: %w", args[0], err)
			}
			events, err := store.ListEvents(ctx, run.ID)
			if err != nil {
				return fmt.Errorf("failed to list events: %w", err)
			}

			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), runDetail{Run: run, Events: events})
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Run:      %s\n", run.ID)
			fmt.Fprintf(w, "Project:  %s\n", run.Project)
			fmt.Fprintf(w, "Status:   %s\n", run.Status)
			fmt.Fprintf(w, "Reached:  %s\n", run.Reached)
			if run.FailedStep != nil {
				fmt.Fprintf(w, "Failed:   %s\n", *run.FailedStep)
			}
			if run.Error != nil {
				fmt.Fprintf(w, "Error:    %s\n", *run.Error)
			}
			fmt.Fprintf(w, "Started:  %s\n", run.StartedAt.Local().Format(time.DateTime))
			fmt.Fprintf(w, "Duration: %s\n", run.Duration.Round(time.Millisecond))
			fmt.Fprintln(w)
			for _, ev := range events {
				fmt.Fprintf(w, "  %s  %s\n", ev.Timestamp.Local().Format(time.TimeOnly), ev.Progress().Text())
			}
			return nil
		},
	}

	return cmd
}

func newHistoryPruneCommand() *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete old runs",
		Example: `  # Drop runs older than a week
  scaffolder history prune --older-than 168h`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan <= 0 {
				return engine.NewValidationError("--older-than must be positive", nil).WithCode(codeInvalidConfig)
			}

			ctx := cmd.Context()
			a, err := newApp(ctx, true)
			if err != nil {
				return err
			}
			defer a.close(ctx)

			store, err := a.requireStore()
			if err != nil {
				return err
			}

			n, err := store.PruneRuns(ctx, time.Now().Add(-olderThan))
			if err != nil {
				return fmt.Errorf("failed to prune runs: %w", err)
			}

			a.logger.Info().Int64("deleted", n).Dur("older_than", olderThan).Msg("Pruned run history")
			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), map[string]int64{"deleted": n})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d run(s)\n", n)
			return nil
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "delete runs started before this age")

	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
