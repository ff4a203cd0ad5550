package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"creators/internal/api"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show update history and storage counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd, func(s *session) error {
				st, err := s.runner.Status(cmd.Context())
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, api.FromStatus(st))
				}
				view := statusView{Status: st, Now: time.Now()}
				if info, err := os.Stat(st.Database); err == nil {
					view.DatabaseSize = info.Size()
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, strings.Join(renderStatus(view, shouldColorize(out)), "\n"))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}
