package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/ig-automation/internal/database"
	"github.com/example/ig-automation/internal/migrate"
)

func newStatusCommand(t *tool) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := t.openEngine()
			if err != nil {
				return err
			}
			defer eng.close(t.logger)

			reporter := migrate.NewStatusReporter(eng.registry, eng.ledger)
			view, err := reporter.Status(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			current := view.CurrentVersion
			if current == "" {
				current = "(none)"
			}
			fmt.Fprintf(out, "current version: %s\n\n", current)

			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "VERSION\tSTATE\tDESCRIPTION\tAPPLIED AT")
			for _, entry := range view.Applied {
				fmt.Fprintf(w, "%s\tapplied\t%s\t%s\n",
					entry.Version, entry.Description, entry.AppliedAt.Format(time.RFC3339))
			}
			for _, entry := range view.Pending {
				fmt.Fprintf(w, "%s\tpending\t%s\t\n", entry.Version, entry.Description)
			}
			return w.Flush()
		},
	}
}

func newPingCommand(t *tool) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check database connectivity",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := t.openEngine()
			if err != nil {
				return err
			}
			defer eng.close(t.logger)

			if err := database.Ping(cmd.Context(), eng.db, 5*time.Second); err != nil {
				return fmt.Errorf("database unreachable: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "connected (%s)\n", eng.dialect.Name())
			return nil
		},
	}
}
