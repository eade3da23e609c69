package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/ig-automation/internal/migrate"
)

func newMigrateCommand(t *tool) *cobra.Command {
	var (
		target string
		force  bool
	)

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending migrations in version order",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := t.openEngine()
			if err != nil {
				return err
			}
			defer eng.close(t.logger)

			runner := migrate.NewRunner(eng.db, eng.registry, eng.ledger, t.cfg.LockTimeout, t.logger)
			report, err := runner.Apply(cmd.Context(), migrate.ApplyOptions{
				Target: target,
				Force:  force,
			})

			// Versions committed before a failure stay applied; always
			// show them so the operator knows where the run stopped.
			out := cmd.OutOrStdout()
			for _, version := range report.Applied {
				fmt.Fprintf(out, "applied %s\n", version)
			}
			if err != nil {
				if report.Failed != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "failed at %s: %v\n", report.Failed.Version, report.Failed.Err)
					return failureExit(report.Failed.Version)
				}
				return err
			}
			if len(report.Applied) == 0 {
				fmt.Fprintln(out, "database is up to date")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&target, "version", "", "stop after applying this version")
	cmd.Flags().BoolVar(&force, "force", false, "re-stamp checksums for migrations whose content changed")
	return cmd
}

func newRollbackCommand(t *tool) *cobra.Command {
	var target string

	cmd := &cobra.Command{
		Use:   "rollback",
		Short: "Roll back applied migrations down to a target version",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := t.openEngine()
			if err != nil {
				return err
			}
			defer eng.close(t.logger)

			rollback := migrate.NewRollbackEngine(eng.db, eng.registry, eng.ledger, t.cfg.LockTimeout, t.logger)
			report, err := rollback.RollbackTo(cmd.Context(), target)

			out := cmd.OutOrStdout()
			for _, version := range report.RolledBack {
				fmt.Fprintf(out, "rolled back %s\n", version)
			}
			if err != nil {
				if report.Failed != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "failed at %s: %v\n", report.Failed.Version, report.Failed.Err)
					return failureExit(report.Failed.Version)
				}
				return err
			}
			if len(report.RolledBack) == 0 {
				fmt.Fprintln(out, "nothing to roll back")
			}
			return nil
		},
	}

	// Rolling back everything is never the default; a full teardown has to
	// be asked for explicitly with a target below the whole history.
	cmd.Flags().StringVar(&target, "version", "", "highest version to keep after rolling back")
	if err := cmd.MarkFlagRequired("version"); err != nil {
		panic(err)
	}
	return cmd
}
