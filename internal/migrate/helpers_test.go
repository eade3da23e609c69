package migrate

import (
	"database/sql"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/example/ig-automation/internal/database"
)

// openTestDB opens a throwaway SQLite database in a temp directory. The file
// backed database behaves like production SQLite with respect to locking and
// transactions, which in-memory mode does not.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "engine.db") + "?_pragma=foreign_keys(1)"
	db, err := database.Open(database.SQLite{}, dsn)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("failed to close test database: %v", err)
		}
	})
	return db
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestLedger(t *testing.T) (*Ledger, *sql.DB) {
	t.Helper()
	db := openTestDB(t)
	return NewLedger(db, database.SQLite{}, discardLogger()), db
}

// scriptDef builds a definition whose forward and reverse are plain scripts.
func scriptDef(version, description string, forward, reverse Script) Definition {
	return Definition{
		Version:     version,
		Description: description,
		Forward:     forward,
		Reverse:     reverse,
	}
}

// tableDef builds a definition that creates one table forward and drops it in
// reverse, which is enough for most runner and rollback scenarios.
func tableDef(version, table string) Definition {
	return scriptDef(version, "create "+table,
		Script{`CREATE TABLE ` + table + ` (id INTEGER PRIMARY KEY)`},
		Script{`DROP TABLE ` + table},
	)
}

func tableExists(t *testing.T, db *sql.DB, table string) bool {
	t.Helper()
	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&count)
	if err != nil {
		t.Fatalf("failed to query sqlite_master for %s: %v", table, err)
	}
	return count > 0
}
