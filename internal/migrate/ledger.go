package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/example/ig-automation/internal/database"
)

// DefaultLockTTL bounds how long a lock row stays valid. A crashed process
// that never reached its release path stops blocking other invocations once
// the TTL passes.
const DefaultLockTTL = 15 * time.Minute

const (
	insertRecordSQL = `INSERT INTO schema_migrations (version, description, checksum, applied_at, execution_time_ms)
		VALUES (?, ?, ?, ?, ?)`
	restampRecordSQL = `UPDATE schema_migrations
		SET description = ?, checksum = ?, applied_at = ?, execution_time_ms = ?
		WHERE version = ?`
	deleteRecordSQL = `DELETE FROM schema_migrations WHERE version = ?`
	selectRecordSQL = `SELECT version, description, checksum, applied_at, execution_time_ms
		FROM schema_migrations ORDER BY version ASC`

	insertLockSQL      = `INSERT INTO schema_migrations_lock (id, holder, acquired_at, expires_at) VALUES (1, ?, ?, ?)`
	selectLockSQL      = `SELECT holder, expires_at FROM schema_migrations_lock WHERE id = 1`
	deleteLockSQL      = `DELETE FROM schema_migrations_lock WHERE id = 1 AND holder = ?`
	deleteStaleLockSQL = `DELETE FROM schema_migrations_lock WHERE id = 1 AND expires_at IS NOT NULL AND expires_at < ?`
)

// LockHandle proves ownership of the singleton ledger lock. It must be
// passed back to ReleaseLock on every exit path of the holder.
type LockHandle struct {
	Holder     string
	AcquiredAt time.Time
}

// Ledger is the persisted record of which migration versions are applied,
// and the host of the cross-process mutual exclusion lock. All state lives
// in the same database the migrations target, so independent deployment
// processes racing to migrate see one consistent ledger.
type Ledger struct {
	db      *sql.DB
	dialect database.Dialect
	logger  *slog.Logger
	clock   func() time.Time

	// LockTTL is the validity window stamped on acquired locks.
	LockTTL time.Duration
}

// NewLedger creates a ledger store over the given database.
func NewLedger(db *sql.DB, dialect database.Dialect, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{
		db:      db,
		dialect: dialect,
		logger:  logger,
		clock:   time.Now,
		LockTTL: DefaultLockTTL,
	}
}

// EnsureInitialized idempotently creates the ledger and lock tables. It is
// safe to call on every startup and deliberately does not require the lock:
// the lock row lives in one of these tables, so bootstrap must come first.
func (l *Ledger) EnsureInitialized(ctx context.Context) error {
	for _, ddl := range l.dialect.LedgerSchema() {
		if _, err := l.db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("initialize migration ledger: %w", err)
		}
	}
	return nil
}

// ListApplied returns all ledger records ordered by version ascending.
func (l *Ledger) ListApplied(ctx context.Context) ([]Record, error) {
	rows, err := l.db.QueryContext(ctx, selectRecordSQL)
	if err != nil {
		return nil, fmt.Errorf("list applied migrations: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			rec             Record
			appliedAt       string
			executionTimeMS int64
		)
		if err := rows.Scan(&rec.Version, &rec.Description, &rec.Checksum, &appliedAt, &executionTimeMS); err != nil {
			return nil, fmt.Errorf("scan ledger record: %w", err)
		}
		rec.AppliedAt = parseLedgerTime(appliedAt)
		rec.ExecutionTime = time.Duration(executionTimeMS) * time.Millisecond
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger records: %w", err)
	}
	return records, nil
}

// RecordApplied inserts a new ledger record inside the caller's transaction,
// so the record commits or rolls back together with the migration it
// documents. A version that already exists fails with ErrDuplicateVersion;
// caller discipline should make that impossible.
func (l *Ledger) RecordApplied(ctx context.Context, tx *sql.Tx, rec Record) error {
	_, err := tx.ExecContext(ctx, insertRecordSQL,
		rec.Version,
		rec.Description,
		rec.Checksum,
		formatLedgerTime(rec.AppliedAt),
		rec.ExecutionTime.Milliseconds(),
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("%w: version %s already recorded", ErrDuplicateVersion, rec.Version)
		}
		return fmt.Errorf("record migration %s: %w", rec.Version, err)
	}
	return nil
}

// Restamp overwrites an existing ledger record with freshly computed
// fingerprint and timing. Used only on the force path after a detected
// mismatch, so the ledger reflects what was actually last applied.
func (l *Ledger) Restamp(ctx context.Context, tx *sql.Tx, rec Record) error {
	_, err := tx.ExecContext(ctx, restampRecordSQL,
		rec.Description,
		rec.Checksum,
		formatLedgerTime(rec.AppliedAt),
		rec.ExecutionTime.Milliseconds(),
		rec.Version,
	)
	if err != nil {
		return fmt.Errorf("restamp migration %s: %w", rec.Version, err)
	}
	return nil
}

// Remove deletes the ledger record for version inside the caller's
// transaction. Removing an absent version is a silent no-op; preventing
// rollback of unapplied versions is the caller's responsibility.
func (l *Ledger) Remove(ctx context.Context, tx *sql.Tx, version string) error {
	if _, err := tx.ExecContext(ctx, deleteRecordSQL, version); err != nil {
		return fmt.Errorf("remove migration record %s: %w", version, err)
	}
	return nil
}

// AcquireLock claims the singleton lock row for holder, retrying with
// exponential backoff until timeout elapses. On timeout it fails with
// ErrLockTimeout without mutating anything else. Expired lock rows left by
// crashed holders are cleared before each attempt.
func (l *Ledger) AcquireLock(ctx context.Context, holder string, timeout time.Duration) (*LockHandle, error) {
	logger := l.logger.With("holder", holder)

	// A zero MaxElapsedTime would retry forever; the engine never waits
	// unbounded for the lock.
	if timeout <= 0 {
		timeout = time.Second
	}
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 100 * time.Millisecond
	policy.MaxInterval = 2 * time.Second
	policy.MaxElapsedTime = timeout

	var handle *LockHandle
	attempt := func() error {
		now := l.clock().UTC()

		// Clear a stale lock left behind by a crashed holder.
		if _, err := l.db.ExecContext(ctx, deleteStaleLockSQL, formatLedgerTime(now)); err != nil {
			return backoff.Permanent(fmt.Errorf("clear stale lock: %w", err))
		}

		var expires any
		if l.LockTTL > 0 {
			expires = formatLedgerTime(now.Add(l.LockTTL))
		}
		_, err := l.db.ExecContext(ctx, insertLockSQL, holder, formatLedgerTime(now), expires)
		if err == nil {
			handle = &LockHandle{Holder: holder, AcquiredAt: now}
			return nil
		}
		if !isDuplicateKeyError(err) {
			return backoff.Permanent(fmt.Errorf("claim migration lock: %w", err))
		}

		current := "unknown"
		if row := l.db.QueryRowContext(ctx, selectLockSQL); row != nil {
			var h string
			var exp sql.NullString
			if scanErr := row.Scan(&h, &exp); scanErr == nil {
				current = h
			}
		}
		logger.Debug("migration lock contended, retrying", "held_by", current)
		return fmt.Errorf("%w: held by %s", ErrMigrationLocked, current)
	}

	if err := backoff.Retry(attempt, backoff.WithContext(policy, ctx)); err != nil {
		if errors.Is(err, ErrMigrationLocked) {
			return nil, fmt.Errorf("%w after %s: %w", ErrLockTimeout, timeout, err)
		}
		return nil, err
	}

	logger.Debug("migration lock acquired")
	return handle, nil
}

// ReleaseLock removes the lock row owned by handle. It must run on every
// exit path of the holder; callers defer it around the entire locked
// section.
func (l *Ledger) ReleaseLock(ctx context.Context, handle *LockHandle) error {
	if handle == nil {
		return nil
	}
	if _, err := l.db.ExecContext(ctx, deleteLockSQL, handle.Holder); err != nil {
		return fmt.Errorf("release migration lock: %w", err)
	}
	return nil
}

// formatLedgerTime stores timestamps as fixed-width RFC 3339 text, which
// both dialects round-trip without driver-specific time handling and which
// compares chronologically as a string (the stale lock sweep relies on
// that).
func formatLedgerTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseLedgerTime(value string) time.Time {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t
	}
	return time.Time{}
}

// isDuplicateKeyError recognises duplicate key violations across both
// supported drivers without importing driver-specific error types. Only the
// two duplicate-key message shapes match; other constraint classes (NOT
// NULL, CHECK) must not read as duplicates.
func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || // modernc.org/sqlite
		strings.Contains(msg, "Duplicate entry") // go-sql-driver/mysql
}
