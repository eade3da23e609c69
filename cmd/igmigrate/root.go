package main

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/ig-automation/internal/config"
	"github.com/example/ig-automation/internal/database"
	"github.com/example/ig-automation/internal/logging"
	"github.com/example/ig-automation/internal/migrate"
	"github.com/example/ig-automation/internal/schema"
)

// tool carries the configuration and logger shared by every subcommand.
// Commands open the database themselves so that create, which never touches
// a database, does not require one to be reachable.
type tool struct {
	cfg    config.Config
	logger *slog.Logger
}

func newRootCommand() *cobra.Command {
	t := &tool{}

	root := &cobra.Command{
		Use:          "igmigrate",
		Short:        "Manage the automation database schema",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			t.cfg = cfg
			t.logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
				Level: logLevel(cfg.LogLevel),
			}))
			cmd.SetContext(logging.ContextWithLogger(cmd.Context(), t.logger))
			return nil
		},
	}

	root.AddCommand(
		newMigrateCommand(t),
		newRollbackCommand(t),
		newStatusCommand(t),
		newCreateCommand(t),
		newPingCommand(t),
	)
	return root
}

// engine bundles the open database with the components built on top of it.
type engine struct {
	db       *sql.DB
	dialect  database.Dialect
	registry *migrate.Registry
	ledger   *migrate.Ledger
}

func (t *tool) openEngine() (*engine, error) {
	dialect, err := database.DialectFor(t.cfg.Driver)
	if err != nil {
		return nil, err
	}
	db, err := database.Open(dialect, t.cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	registry := migrate.NewRegistry(migrate.StaticSource(schema.Definitions(dialect.Name())))
	ledger := migrate.NewLedger(db, dialect, t.logger)
	return &engine{db: db, dialect: dialect, registry: registry, ledger: ledger}, nil
}

func (e *engine) close(logger *slog.Logger) {
	if err := e.db.Close(); err != nil {
		logger.Error("failed to close database", "error", err)
	}
}

func logLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// failureExit turns a report failure into a command error so cobra exits
// non-zero while the details have already been printed.
func failureExit(version string) error {
	return fmt.Errorf("migration %s failed", version)
}
