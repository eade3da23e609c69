package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/ig-automation/internal/migrate"
	"github.com/example/ig-automation/internal/schema"
)

func newCreateCommand(t *tool) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Scaffold a new migration file with the next free version",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Version numbering only depends on the registered history,
			// not on any database, so no engine is opened here. Both
			// dialects share version numbers; sqlite is arbitrary.
			defs := schema.Definitions("sqlite")
			path, err := migrate.Scaffold(t.cfg.MigrationsDir, name, defs)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "short description, used for the file name")
	if err := cmd.MarkFlagRequired("name"); err != nil {
		panic(err)
	}
	return cmd
}
