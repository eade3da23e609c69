package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Operation is the capability every migration exposes twice: once to advance
// the schema and once to undo it. Statements returns the exact SQL text the
// operation will issue, which is what the content fingerprint is computed
// over; Run issues those statements against a transaction owned by the
// caller for the scope of this one migration.
type Operation interface {
	// Statements returns the SQL statements the operation issues, in order.
	Statements() []string

	// Run executes the operation inside the provided transaction.
	Run(ctx context.Context, tx *sql.Tx) error
}

// Script is the standard Operation: a fixed, ordered list of SQL statements.
// An empty Script is a valid no-op (some migrations only apply on one
// dialect).
type Script []string

// Statements returns the script's statements.
func (s Script) Statements() []string { return []string(s) }

// Run executes each statement in order inside the transaction.
func (s Script) Run(ctx context.Context, tx *sql.Tx) error {
	for i, stmt := range s {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("statement %d of %d: %w", i+1, len(s), err)
		}
	}
	return nil
}

// Definition is one versioned migration: an immutable pairing of a forward
// and a reverse operation, constructed once at process start and never
// mutated.
type Definition struct {
	// Version is the fixed-width, zero-padded identifier (e.g. "001").
	Version string

	// Description is the human readable summary recorded in the ledger.
	Description string

	// Forward advances the schema.
	Forward Operation

	// Reverse undoes Forward.
	Reverse Operation
}

// Source supplies raw definitions to the registry. Discovery itself stays
// outside the engine; a static list is the common case.
type Source interface {
	// Definitions returns all known definitions in any order.
	Definitions() ([]Definition, error)
}

// StaticSource is a Source backed by a fixed slice of definitions.
type StaticSource []Definition

// Definitions returns a copy of the static list.
func (s StaticSource) Definitions() ([]Definition, error) {
	return append([]Definition(nil), s...), nil
}

// Record is one ledger row: proof that a version is currently applied,
// together with the content fingerprint and timing captured at apply time.
type Record struct {
	Version       string
	Description   string
	Checksum      string
	AppliedAt     time.Time
	ExecutionTime time.Duration
}

// Failure identifies the first migration that failed during a batch.
type Failure struct {
	Version string
	Err     error
}

// ApplyReport is the outcome of a Runner invocation: the versions committed
// in this run, in order, plus the first failure if the batch aborted. A nil
// Failed with an empty Applied list means the ledger was already up to date.
type ApplyReport struct {
	Applied []string
	Failed  *Failure
}

// RollbackReport is the outcome of a rollback invocation: the versions undone
// in this run, in descending order, plus the first failure if the batch
// aborted.
type RollbackReport struct {
	RolledBack []string
	Failed     *Failure
}

// StatusEntry is one line of the status view.
type StatusEntry struct {
	Version       string
	Description   string
	Applied       bool
	AppliedAt     time.Time
	ExecutionTime time.Duration
}

// StatusView combines registry and ledger state for human consumption. It is
// computed without the ledger lock, so a concurrent runner may change the
// underlying state between reads.
type StatusView struct {
	// CurrentVersion is the highest applied version, or "" when the
	// ledger is empty.
	CurrentVersion string

	Applied []StatusEntry
	Pending []StatusEntry
}
