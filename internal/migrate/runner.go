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

// DefaultLockTimeout bounds how long an invocation waits for the ledger lock
// before giving up.
const DefaultLockTimeout = 30 * time.Second

// ApplyOptions controls a single Runner invocation.
type ApplyOptions struct {
	// Target caps the run at this version: only definitions with version
	// <= Target are considered. Empty means apply everything pending.
	Target string

	// Force re-applies versions whose recorded fingerprint no longer
	// matches their current content, logging the mismatch as a warning
	// and storing the newly computed fingerprint. Without Force such a
	// mismatch aborts before any transaction is opened.
	Force bool
}

// Runner applies pending migrations in ascending version order, each inside
// its own transaction, under the ledger's cross-process lock.
type Runner struct {
	db          *sql.DB
	registry    *Registry
	ledger      *Ledger
	logger      *slog.Logger
	lockTimeout time.Duration
	holder      string
	clock       func() time.Time
}

// NewRunner creates a migration runner. A lockTimeout of zero falls back to
// DefaultLockTimeout.
func NewRunner(db *sql.DB, registry *Registry, ledger *Ledger, lockTimeout time.Duration, logger *slog.Logger) *Runner {
	if lockTimeout <= 0 {
		lockTimeout = DefaultLockTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		db:          db,
		registry:    registry,
		ledger:      ledger,
		logger:      logger,
		lockTimeout: lockTimeout,
		holder:      uuid.NewString(),
		clock:       time.Now,
	}
}

// Apply brings the schema forward. It validates the registry, acquires the
// ledger lock, computes the pending set, and applies each pending definition
// in its own transaction, recording the fingerprint, timestamp and execution
// time on commit. The first failure aborts the remaining batch; versions
// committed before it stay applied and are reported.
func (r *Runner) Apply(ctx context.Context, opts ApplyOptions) (ApplyReport, error) {
	var report ApplyReport
	logger := r.resolveLogger(ctx)

	// Registry validation aborts everything before any mutation.
	defs, err := r.registry.Load()
	if err != nil {
		return report, err
	}

	if err := r.ledger.EnsureInitialized(ctx); err != nil {
		return report, err
	}

	handle, err := r.ledger.AcquireLock(ctx, r.holder, r.lockTimeout)
	if err != nil {
		return report, err
	}
	defer func() {
		if releaseErr := r.ledger.ReleaseLock(ctx, handle); releaseErr != nil {
			logger.Error("failed to release migration lock", "error", releaseErr)
		}
	}()

	pending, restamp, err := r.plan(ctx, defs, opts, logger)
	if err != nil {
		return report, err
	}

	if len(pending) == 0 {
		logger.Info("schema is up to date", "target", orAll(opts.Target))
		return report, nil
	}

	logger.Info("applying migrations", "pending", len(pending), "target", orAll(opts.Target), "force", opts.Force)

	for _, def := range pending {
		start := r.clock()
		checksum := Fingerprint(def)

		err := database.WithTransaction(ctx, r.db, func(tx *sql.Tx) error {
			if err := def.Forward.Run(ctx, tx); err != nil {
				return err
			}
			rec := Record{
				Version:       def.Version,
				Description:   def.Description,
				Checksum:      checksum,
				AppliedAt:     r.clock().UTC(),
				ExecutionTime: r.clock().Sub(start),
			}
			if restamp[def.Version] {
				return r.ledger.Restamp(ctx, tx, rec)
			}
			return r.ledger.RecordApplied(ctx, tx, rec)
		})
		if err != nil {
			execErr := &ExecutionError{Version: def.Version, Description: def.Description, Err: err}
			report.Failed = &Failure{Version: def.Version, Err: execErr}
			logger.Error("migration failed, aborting remaining batch",
				"version", def.Version,
				"description", def.Description,
				"applied_this_run", len(report.Applied),
				"error", err,
			)
			return report, execErr
		}

		report.Applied = append(report.Applied, def.Version)
		logger.Info("migration applied",
			"version", def.Version,
			"description", def.Description,
			"duration", r.clock().Sub(start),
		)
	}

	return report, nil
}

// plan computes the ordered pending set for this run. A definition is
// pending when it has no ledger record, or when its record's fingerprint no
// longer matches current content (stale or manually edited state). The
// latter aborts with ErrChecksumMismatch unless Force, in which case the
// version is queued for reapplication with a fingerprint re-stamp.
func (r *Runner) plan(ctx context.Context, defs []Definition, opts ApplyOptions, logger *slog.Logger) ([]Definition, map[string]bool, error) {
	applied, err := r.ledger.ListApplied(ctx)
	if err != nil {
		return nil, nil, err
	}
	recorded := make(map[string]Record, len(applied))
	for _, rec := range applied {
		recorded[rec.Version] = rec
	}

	var pending []Definition
	restamp := make(map[string]bool)
	for _, def := range defs {
		if opts.Target != "" && def.Version > opts.Target {
			continue
		}
		rec, ok := recorded[def.Version]
		if !ok {
			pending = append(pending, def)
			continue
		}
		checksum := Fingerprint(def)
		if rec.Checksum == checksum {
			continue
		}
		if !opts.Force {
			return nil, nil, fmt.Errorf("%w: version %s recorded %s but current content hashes to %s (use force to re-stamp)",
				ErrChecksumMismatch, def.Version, rec.Checksum, checksum)
		}
		logger.Warn("checksum drift detected, re-applying under force",
			"version", def.Version,
			"recorded", rec.Checksum,
			"current", checksum,
		)
		pending = append(pending, def)
		restamp[def.Version] = true
	}

	return pending, restamp, nil
}

func (r *Runner) resolveLogger(ctx context.Context) *slog.Logger {
	logger := logging.FromContext(ctx)
	if logger == nil {
		logger = r.logger
	}
	return logger.With("component", "migration_runner")
}

func orAll(target string) string {
	if target == "" {
		return "latest"
	}
	return target
}
