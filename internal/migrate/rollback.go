package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/example/ig-automation/internal/database"
	"github.com/example/ig-automation/internal/logging"
)

// RollbackEngine reverses applied migrations down to a target version, in
// descending order, each inside its own transaction, under the same lock
// discipline as the Runner.
type RollbackEngine struct {
	db          *sql.DB
	registry    *Registry
	ledger      *Ledger
	logger      *slog.Logger
	lockTimeout time.Duration
	holder      string
}

// NewRollbackEngine creates a rollback engine. A lockTimeout of zero falls
// back to DefaultLockTimeout.
func NewRollbackEngine(db *sql.DB, registry *Registry, ledger *Ledger, lockTimeout time.Duration, logger *slog.Logger) *RollbackEngine {
	if lockTimeout <= 0 {
		lockTimeout = DefaultLockTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RollbackEngine{
		db:          db,
		registry:    registry,
		ledger:      ledger,
		logger:      logger,
		lockTimeout: lockTimeout,
		holder:      uuid.NewString(),
	}
}

// RollbackTo undoes every applied version strictly greater than target, in
// descending order. Each reverse operation runs in its own transaction that
// also removes the version's ledger record, so a failure leaves earlier
// rollbacks committed and the failing version still applied. An empty target
// rolls back the entire history.
func (e *RollbackEngine) RollbackTo(ctx context.Context, target string) (RollbackReport, error) {
	var report RollbackReport
	logger := e.resolveLogger(ctx)

	defs, err := e.registry.Load()
	if err != nil {
		return report, err
	}
	byVersion := make(map[string]Definition, len(defs))
	for _, def := range defs {
		byVersion[def.Version] = def
	}

	if err := e.ledger.EnsureInitialized(ctx); err != nil {
		return report, err
	}

	handle, err := e.ledger.AcquireLock(ctx, e.holder, e.lockTimeout)
	if err != nil {
		return report, err
	}
	defer func() {
		if releaseErr := e.ledger.ReleaseLock(ctx, handle); releaseErr != nil {
			logger.Error("failed to release migration lock", "error", releaseErr)
		}
	}()

	applied, err := e.ledger.ListApplied(ctx)
	if err != nil {
		return report, err
	}

	// ListApplied is ascending; walk it backwards for descending order.
	var toUndo []Record
	for i := len(applied) - 1; i >= 0; i-- {
		if applied[i].Version > target {
			toUndo = append(toUndo, applied[i])
		}
	}

	if len(toUndo) == 0 {
		logger.Info("nothing to roll back", "target", target)
		return report, nil
	}

	logger.Info("rolling back migrations", "count", len(toUndo), "target", target)

	for _, rec := range toUndo {
		def, ok := byVersion[rec.Version]
		if !ok {
			rbErr := &RollbackError{
				Version:     rec.Version,
				Description: rec.Description,
				Err:         fmt.Errorf("no definition registered for applied version %s", rec.Version),
			}
			report.Failed = &Failure{Version: rec.Version, Err: rbErr}
			return report, rbErr
		}

		start := time.Now()
		err := database.WithTransaction(ctx, e.db, func(tx *sql.Tx) error {
			if err := def.Reverse.Run(ctx, tx); err != nil {
				return err
			}
			return e.ledger.Remove(ctx, tx, def.Version)
		})
		if err != nil {
			rbErr := &RollbackError{Version: def.Version, Description: def.Description, Err: err}
			report.Failed = &Failure{Version: def.Version, Err: rbErr}
			logger.Error("rollback failed, aborting remaining batch",
				"version", def.Version,
				"description", def.Description,
				"undone_this_run", len(report.RolledBack),
				"error", err,
			)
			return report, rbErr
		}

		report.RolledBack = append(report.RolledBack, def.Version)
		logger.Info("migration rolled back",
			"version", def.Version,
			"description", def.Description,
			"duration", time.Since(start),
		)
	}

	return report, nil
}

func (e *RollbackEngine) resolveLogger(ctx context.Context) *slog.Logger {
	logger := logging.FromContext(ctx)
	if logger == nil {
		logger = e.logger
	}
	return logger.With("component", "rollback_engine")
}
