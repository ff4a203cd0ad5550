package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"creators/internal/api"
)

func newReadCommands(ctx *commandContext) []*cobra.Command {
	return []*cobra.Command{
		newNamesCommand(ctx),
		newVariantsCommand(ctx),
		newScopeCommand(ctx),
		newDupsCommand(ctx),
		newOrphansCommand(ctx),
	}
}

func newNamesCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "names",
		Short: "List canonical names",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd, func(s *session) error {
				return printLines(cmd, s.runner.Names(), jsonOut)
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as a JSON array")
	return cmd
}

func newVariantsCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "variants NAME",
		Short: "List the spellings that resolve to a canonical name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd, func(s *session) error {
				variants, err := s.runner.Variants(args[0])
				if err != nil {
					return err
				}
				return printLines(cmd, variants, jsonOut)
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as a JSON array")
	return cmd
}

func newScopeCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "scope SCOPE",
		Short: "List canonical names of creators in one repository scope",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd, func(s *session) error {
				names, err := s.runner.NamesForScope(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printLines(cmd, names, jsonOut)
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as a JSON array")
	return cmd
}

func newDupsCommand(ctx *commandContext) *cobra.Command {
	var (
		flush   bool
		jsonOut bool
	)
	cmd := &cobra.Command{
		Use:   "dups",
		Short: "Report possible duplicate names",
		Long: "Report canonical names that may be the same person. Lines that changed since the " +
			"oldest saved snapshot are marked '** ' and listed first. --flush deletes older snapshots instead.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd, func(s *session) error {
				if flush {
					removed, err := s.runner.FlushPossibleDups(cmd.Context())
					if err != nil {
						return err
					}
					if jsonOut {
						return writeJSON(cmd, api.FlushResponse{Message: "Flush completed", Removed: removed})
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Flush completed: %d snapshot(s) removed\n", removed)
					return nil
				}
				dups, err := s.runner.PossibleDups(cmd.Context())
				if err != nil {
					return err
				}
				return printLines(cmd, dups, jsonOut)
			})
		},
	}
	cmd.Flags().BoolVar(&flush, "flush", false, "Delete saved snapshots")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func newOrphansCommand(ctx *commandContext) *cobra.Command {
	var (
		flush   bool
		jsonOut bool
	)
	cmd := &cobra.Command{
		Use:   "orphans",
		Short: "List stored creators whose package revision is superseded",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd, func(s *session) error {
				if flush {
					flushed, err := s.runner.FlushOrphans(cmd.Context())
					if err != nil {
						return err
					}
					return printLines(cmd, flushed, jsonOut)
				}
				orphans, err := s.runner.Orphans(cmd.Context())
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, api.FromOrphans(orphans))
				}
				if len(orphans) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No orphans")
					return nil
				}
				rows := make([][]string, 0, len(orphans))
				for _, o := range orphans {
					rows = append(rows, []string{strconv.FormatInt(o.SourceID, 10), o.Surname, o.GivenName, o.PackageID})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Surname", "Given name", "Package"}, rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&flush, "flush", false, "Remove orphaned observations and rebuild")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

// printLines writes one value per line, or a JSON array.
func printLines(cmd *cobra.Command, values []string, jsonOut bool) error {
	if jsonOut {
		if values == nil {
			values = []string{}
		}
		return writeJSON(cmd, values)
	}
	out := cmd.OutOrStdout()
	for _, v := range values {
		fmt.Fprintln(out, v)
	}
	return nil
}
