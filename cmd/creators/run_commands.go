package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"creators/internal/api"
	"creators/internal/canonical"
	"creators/internal/observation"
	"creators/internal/pipeline"
)

func newRunCommands(ctx *commandContext) []*cobra.Command {
	return []*cobra.Command{
		newRunCommand(ctx, "update", "Fetch changed packages since the last update and rebuild",
			func(ctx context.Context, s *session, _ []string) (*canonical.Table, error) {
				return s.runner.Update(ctx)
			}),
		newRunCommand(ctx, "harvest", "Download every missing package revision and rebuild",
			func(ctx context.Context, s *session, _ []string) (*canonical.Table, error) {
				return s.runner.Harvest(ctx)
			}),
		newRecomputeCommand(ctx),
	}
}

type runFunc func(context.Context, *session, []string) (*canonical.Table, error)

func newRunCommand(ctx *commandContext, use, short string, run runFunc) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd, func(s *session) error {
				_, runErr := run(cmd.Context(), s, args)
				return reportRun(cmd, s, jsonOut, runErr)
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output the run summary as JSON")
	return cmd
}

func newRecomputeCommand(ctx *commandContext) *cobra.Command {
	var (
		added   []string
		removed []string
		jsonOut bool
	)
	cmd := &cobra.Command{
		Use:   "recompute",
		Short: "Rebuild the canonical table from stored observations",
		Long: "Rebuild the canonical table. --add ingests archived package revisions " +
			"(scope.identifier.revision) first and --remove drops stored ones.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			changes, err := parseChanges(added, removed)
			if err != nil {
				return err
			}
			return ctx.withSession(cmd, func(s *session) error {
				_, runErr := s.runner.Recompute(cmd.Context(), changes)
				return reportRun(cmd, s, jsonOut, runErr)
			})
		},
	}
	cmd.Flags().StringSliceVar(&added, "add", nil, "Package revision to ingest from the archive (repeatable)")
	cmd.Flags().StringSliceVar(&removed, "remove", nil, "Package revision to drop from the store (repeatable)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output the run summary as JSON")
	return cmd
}

func parseChanges(added, removed []string) (pipeline.Changes, error) {
	var changes pipeline.Changes
	for _, raw := range added {
		pid, err := observation.ParsePackageID(raw)
		if err != nil {
			return changes, fmt.Errorf("--add: %w", err)
		}
		changes.Added = append(changes.Added, pid)
	}
	for _, raw := range removed {
		pid, err := observation.ParsePackageID(raw)
		if err != nil {
			return changes, fmt.Errorf("--remove: %w", err)
		}
		changes.Removed = append(changes.Removed, pid)
	}
	return changes, nil
}

// reportRun prints the summary of the run that just finished and returns
// runErr so the exit status reflects it.
func reportRun(cmd *cobra.Command, s *session, jsonOut bool, runErr error) error {
	status, err := s.runner.Status(cmd.Context())
	if err != nil || status.LastRun == nil {
		return runErr
	}
	if jsonOut {
		if err := writeJSON(cmd, api.FromRunSummary(status.LastRun)); err != nil {
			return err
		}
		return runErr
	}
	fmt.Fprint(cmd.OutOrStdout(), renderRunSummary(status.LastRun))
	return runErr
}

func renderRunSummary(run *pipeline.RunSummary) string {
	rows := [][]string{
		{"Run", run.ID},
		{"Kind", run.Kind},
		{"Duration", run.Finished.Sub(run.Started).Round(time.Millisecond).String()},
		{"Packages added", humanize.Comma(int64(run.Added))},
		{"Packages removed", humanize.Comma(int64(run.Removed))},
	}
	if run.FetchFailed > 0 {
		rows = append(rows, []string{"Fetch failures", humanize.Comma(int64(run.FetchFailed))})
	}
	if run.Unparsable > 0 {
		rows = append(rows, []string{"Unparsable", humanize.Comma(int64(run.Unparsable))})
	}
	rows = append(rows,
		[]string{"Observations", humanize.Comma(int64(run.Prepared.Output))},
		[]string{"Clusters", humanize.Comma(int64(run.Clusters))},
		[]string{"Anomalies", humanize.Comma(int64(run.Anomalies))},
		[]string{"Identifiers propagated", humanize.Comma(run.Propagated)},
		[]string{"Canonical names", humanize.Comma(int64(run.Names))},
	)
	if run.Error != "" {
		rows = append(rows, []string{"Error", run.Error})
	}
	var b strings.Builder
	b.WriteString(renderTable([]string{"Field", "Value"}, rows, []columnAlignment{alignLeft, alignRight}))
	b.WriteString("\n")
	return b.String()
}
