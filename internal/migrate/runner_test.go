package migrate

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/example/ig-automation/internal/database"
)

func newTestRunner(t *testing.T, db *sql.DB, source Source) (*Runner, *Ledger) {
	t.Helper()
	ledger := NewLedger(db, database.SQLite{}, discardLogger())
	runner := NewRunner(db, NewRegistry(source), ledger, time.Second, discardLogger())
	return runner, ledger
}

func TestRunner_Apply_AppliesPendingInOrder(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	// Source order is scrambled; the runner must still apply ascending.
	source := StaticSource{tableDef("002", "followers"), tableDef("001", "accounts")}
	runner, ledger := newTestRunner(t, db, source)

	report, err := runner.Apply(ctx, ApplyOptions{})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	want := []string{"001", "002"}
	if len(report.Applied) != len(want) {
		t.Fatalf("expected %d applied versions, got %v", len(want), report.Applied)
	}
	for i, version := range want {
		if report.Applied[i] != version {
			t.Errorf("position %d: expected %s, got %s", i, version, report.Applied[i])
		}
	}
	if report.Failed != nil {
		t.Fatalf("unexpected failure: %+v", report.Failed)
	}

	for _, table := range []string{"accounts", "followers"} {
		if !tableExists(t, db, table) {
			t.Errorf("table %s was not created", table)
		}
	}

	records, err := ledger.ListApplied(ctx)
	if err != nil {
		t.Fatalf("ListApplied failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 ledger records, got %d", len(records))
	}
	for i, rec := range records {
		def := source[1-i] // source holds 002 first, 001 second
		if rec.Checksum != Fingerprint(def) {
			t.Errorf("record %s stored checksum %s, expected fingerprint %s", rec.Version, rec.Checksum, Fingerprint(def))
		}
		if rec.AppliedAt.IsZero() {
			t.Errorf("record %s has a zero applied_at", rec.Version)
		}
	}
}

func TestRunner_Apply_SecondRunIsNoop(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	source := StaticSource{tableDef("001", "accounts")}
	runner, _ := newTestRunner(t, db, source)

	if _, err := runner.Apply(ctx, ApplyOptions{}); err != nil {
		t.Fatalf("first Apply failed: %v", err)
	}

	report, err := runner.Apply(ctx, ApplyOptions{})
	if err != nil {
		t.Fatalf("second Apply failed: %v", err)
	}
	if len(report.Applied) != 0 || report.Failed != nil {
		t.Fatalf("expected an empty report on an up to date ledger, got %+v", report)
	}
}

func TestRunner_Apply_TargetCapsTheRun(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	source := StaticSource{tableDef("001", "accounts"), tableDef("002", "followers"), tableDef("004", "posts")}
	runner, _ := newTestRunner(t, db, source)

	report, err := runner.Apply(ctx, ApplyOptions{Target: "002"})
	if err != nil {
		t.Fatalf("targeted Apply failed: %v", err)
	}
	if len(report.Applied) != 2 || report.Applied[1] != "002" {
		t.Fatalf("expected to stop at 002, got %v", report.Applied)
	}
	if tableExists(t, db, "posts") {
		t.Fatal("version 004 must not run with target 002")
	}

	// A later untargeted run picks up where the capped one stopped.
	report, err = runner.Apply(ctx, ApplyOptions{})
	if err != nil {
		t.Fatalf("follow-up Apply failed: %v", err)
	}
	if len(report.Applied) != 1 || report.Applied[0] != "004" {
		t.Fatalf("expected only 004 pending, got %v", report.Applied)
	}
}

func TestRunner_Apply_FailFastAndResume(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	broken := scriptDef("002", "broken alter",
		Script{`CREATE TABLE halfway (id INTEGER)`, `THIS IS NOT SQL`},
		Script{`DROP TABLE halfway`},
	)
	source := StaticSource{tableDef("001", "accounts"), broken, tableDef("004", "posts")}
	runner, ledger := newTestRunner(t, db, source)

	report, err := runner.Apply(ctx, ApplyOptions{})
	if err == nil {
		t.Fatal("expected Apply to fail at version 002")
	}

	var execErr *ExecutionError
	if !errors.As(err, &execErr) {
		t.Fatalf("expected an ExecutionError, got %T: %v", err, err)
	}
	if execErr.Version != "002" {
		t.Fatalf("expected failure at 002, got %s", execErr.Version)
	}
	if report.Failed == nil || report.Failed.Version != "002" {
		t.Fatalf("report should carry the failure: %+v", report.Failed)
	}

	// 001 committed before the failure and stays applied.
	if len(report.Applied) != 1 || report.Applied[0] != "001" {
		t.Fatalf("expected 001 applied before the failure, got %v", report.Applied)
	}
	if !tableExists(t, db, "accounts") {
		t.Fatal("version 001 should remain applied after a later failure")
	}

	// The failing migration's partial work rolled back with its transaction.
	if tableExists(t, db, "halfway") {
		t.Fatal("partial statements of the failed migration must be rolled back")
	}
	// And nothing past the failure ran.
	if tableExists(t, db, "posts") {
		t.Fatal("version 004 must not run after 002 failed")
	}

	records, err := ledger.ListApplied(ctx)
	if err != nil {
		t.Fatalf("ListApplied failed: %v", err)
	}
	if len(records) != 1 || records[0].Version != "001" {
		t.Fatalf("ledger should only record 001, got %+v", records)
	}

	// Fixing the migration and re-running resumes from the failure point.
	fixed := StaticSource{tableDef("001", "accounts"), tableDef("002", "followers"), tableDef("004", "posts")}
	runner, _ = newTestRunner(t, db, fixed)
	report, err = runner.Apply(ctx, ApplyOptions{})
	if err != nil {
		t.Fatalf("resume Apply failed: %v", err)
	}
	if len(report.Applied) != 2 || report.Applied[0] != "002" || report.Applied[1] != "004" {
		t.Fatalf("expected resume to apply 002 then 004, got %v", report.Applied)
	}
}

func TestRunner_Apply_ChecksumMismatchAborts(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	runner, ledger := newTestRunner(t, db, StaticSource{tableDef("001", "accounts"), tableDef("002", "followers")})

	if _, err := runner.Apply(ctx, ApplyOptions{}); err != nil {
		t.Fatalf("initial Apply failed: %v", err)
	}
	before, err := ledger.ListApplied(ctx)
	if err != nil {
		t.Fatalf("ListApplied failed: %v", err)
	}

	// Someone edits the text of an already applied migration.
	drifted := scriptDef("001", "create accounts",
		Script{`CREATE TABLE accounts (id INTEGER PRIMARY KEY, username TEXT)`},
		Script{`DROP TABLE accounts`},
	)
	runner, _ = newTestRunner(t, db, StaticSource{drifted, tableDef("002", "followers"), tableDef("004", "posts")})

	report, err := runner.Apply(ctx, ApplyOptions{})
	if !errors.Is(err, ErrChecksumMismatch) {
		t.Fatalf("expected ErrChecksumMismatch, got %v", err)
	}
	if len(report.Applied) != 0 {
		t.Fatalf("a drift abort must not apply anything, got %v", report.Applied)
	}
	// The pending 004 did not slip through either.
	if tableExists(t, db, "posts") {
		t.Fatal("pending migrations must not run when drift aborts the batch")
	}

	after, err := ledger.ListApplied(ctx)
	if err != nil {
		t.Fatalf("ListApplied failed: %v", err)
	}
	if len(after) != len(before) {
		t.Fatalf("ledger changed during an aborted run: before %d records, after %d", len(before), len(after))
	}
	for i := range before {
		if before[i].Checksum != after[i].Checksum {
			t.Fatalf("ledger checksum for %s changed during an aborted run", before[i].Version)
		}
	}
}

func TestRunner_Apply_ForceRestampsDriftedVersion(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	runner, ledger := newTestRunner(t, db, StaticSource{tableDef("001", "accounts")})

	if _, err := runner.Apply(ctx, ApplyOptions{}); err != nil {
		t.Fatalf("initial Apply failed: %v", err)
	}

	// The edited forward must tolerate re-execution on an already migrated
	// schema, which is the operator's contract when forcing.
	drifted := scriptDef("001", "create accounts",
		Script{`CREATE TABLE IF NOT EXISTS accounts (id INTEGER PRIMARY KEY)`},
		Script{`DROP TABLE IF EXISTS accounts`},
	)
	runner, _ = newTestRunner(t, db, StaticSource{drifted})

	report, err := runner.Apply(ctx, ApplyOptions{Force: true})
	if err != nil {
		t.Fatalf("forced Apply failed: %v", err)
	}
	if len(report.Applied) != 1 || report.Applied[0] != "001" {
		t.Fatalf("expected forced re-application of 001, got %v", report.Applied)
	}

	records, err := ledger.ListApplied(ctx)
	if err != nil {
		t.Fatalf("ListApplied failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("force must re-stamp the existing record, not add one: %d records", len(records))
	}
	if records[0].Checksum != Fingerprint(drifted) {
		t.Fatalf("ledger should store the new fingerprint after force, got %s", records[0].Checksum)
	}

	// With the ledger re-stamped, a plain run is clean again.
	if _, err := runner.Apply(ctx, ApplyOptions{}); err != nil {
		t.Fatalf("post-force Apply should be clean, got %v", err)
	}
}

func TestRunner_Apply_InvalidRegistryAbortsBeforeLedger(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	source := StaticSource{tableDef("001", "accounts"), tableDef("001", "accounts again")}
	runner, _ := newTestRunner(t, db, source)

	if _, err := runner.Apply(ctx, ApplyOptions{}); !errors.Is(err, ErrDuplicateVersion) {
		t.Fatalf("expected ErrDuplicateVersion, got %v", err)
	}

	// Validation runs before any database work, so not even the ledger
	// tables exist afterwards.
	if tableExists(t, db, "schema_migrations") {
		t.Fatal("registry validation failures must abort before touching the database")
	}
}

func TestRunner_Apply_LockContention(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	runner, ledger := newTestRunner(t, db, StaticSource{tableDef("001", "accounts")})

	if err := ledger.EnsureInitialized(ctx); err != nil {
		t.Fatalf("EnsureInitialized failed: %v", err)
	}
	handle, err := ledger.AcquireLock(ctx, "other-process", time.Second)
	if err != nil {
		t.Fatalf("AcquireLock failed: %v", err)
	}
	defer func() {
		if err := ledger.ReleaseLock(ctx, handle); err != nil {
			t.Errorf("ReleaseLock failed: %v", err)
		}
	}()

	runner.lockTimeout = 300 * time.Millisecond
	if _, err := runner.Apply(ctx, ApplyOptions{}); !errors.Is(err, ErrLockTimeout) {
		t.Fatalf("expected ErrLockTimeout while another process holds the lock, got %v", err)
	}
	if tableExists(t, db, "accounts") {
		t.Fatal("no migration may run without the lock")
	}
}
