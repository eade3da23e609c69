package migrate

import (
	"errors"
	"fmt"
)

// Sentinel errors for the failure modes the engine distinguishes.
var (
	// ErrDuplicateVersion indicates two definitions (or ledger rows) share a version.
	ErrDuplicateVersion = errors.New("duplicate migration version")

	// ErrMalformedVersion indicates a version does not match the fixed-width format.
	ErrMalformedVersion = errors.New("malformed migration version")

	// ErrEmptyDescription indicates a definition has a blank description.
	ErrEmptyDescription = errors.New("empty migration description")

	// ErrChecksumMismatch indicates drift: a version targeted for
	// reapplication whose current content no longer matches the
	// fingerprint recorded when it was applied.
	ErrChecksumMismatch = errors.New("migration checksum mismatch")

	// ErrMigrationLocked indicates another invocation currently holds the ledger lock.
	ErrMigrationLocked = errors.New("migration ledger is locked")

	// ErrLockTimeout indicates the lock could not be acquired within the configured timeout.
	ErrLockTimeout = errors.New("timed out waiting for migration lock")
)

// ExecutionError wraps a forward operation failure with the version and
// description of the migration that caused it. The batch aborts at the first
// ExecutionError; versions committed before it stay applied.
type ExecutionError struct {
	Version     string
	Description string
	Err         error
}

// Error implements the error interface.
func (e *ExecutionError) Error() string {
	return fmt.Sprintf("migration %s (%s) failed: %v", e.Version, e.Description, e.Err)
}

// Unwrap returns the underlying error.
func (e *ExecutionError) Unwrap() error { return e.Err }

// RollbackError wraps a reverse operation failure with the version and
// description of the migration that caused it.
type RollbackError struct {
	Version     string
	Description string
	Err         error
}

// Error implements the error interface.
func (e *RollbackError) Error() string {
	return fmt.Sprintf("rollback of migration %s (%s) failed: %v", e.Version, e.Description, e.Err)
}

// Unwrap returns the underlying error.
func (e *RollbackError) Unwrap() error { return e.Err }
