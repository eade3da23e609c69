package database

import (
	"fmt"
)

// Dialect supplies the vendor specific SQL the migration engine needs for its
// own bookkeeping tables. Registered migrations pick their statement variants
// by dialect name; everything else in the engine shares portable SQL with `?`
// placeholders, which both supported drivers accept.
type Dialect interface {
	// Name identifies the dialect ("sqlite" or "mysql").
	Name() string

	// DriverName is the database/sql driver to open connections with.
	DriverName() string

	// LedgerSchema returns the DDL statements that create the ledger and
	// lock tables when they do not exist yet. Each statement must be
	// idempotent; the engine runs them on every startup.
	LedgerSchema() []string
}

// DialectFor maps a configured driver name to its Dialect.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case "sqlite", "sqlite3":
		return SQLite{}, nil
	case "mysql", "mariadb":
		return MySQL{}, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q (supported: sqlite, mysql)", driver)
	}
}

// SQLite is the default dialect, used for local databases and tests.
type SQLite struct{}

// Name identifies the dialect.
func (SQLite) Name() string { return "sqlite" }

// DriverName returns the modernc.org/sqlite driver name.
func (SQLite) DriverName() string { return "sqlite" }

// LedgerSchema returns the bookkeeping DDL for SQLite.
func (SQLite) LedgerSchema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			description TEXT NOT NULL,
			checksum TEXT NOT NULL,
			applied_at TEXT NOT NULL,
			execution_time_ms INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE TABLE IF NOT EXISTS schema_migrations_lock (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			holder TEXT NOT NULL,
			acquired_at TEXT NOT NULL,
			expires_at TEXT
		);`,
	}
}

// MySQL targets the MariaDB/MySQL databases the automation tool runs against
// in production.
type MySQL struct{}

// Name identifies the dialect.
func (MySQL) Name() string { return "mysql" }

// DriverName returns the go-sql-driver/mysql driver name.
func (MySQL) DriverName() string { return "mysql" }

// LedgerSchema returns the bookkeeping DDL for MySQL.
func (MySQL) LedgerSchema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS schema_migrations (
			version VARCHAR(20) NOT NULL PRIMARY KEY,
			description VARCHAR(255) NOT NULL,
			checksum VARCHAR(64) NOT NULL,
			applied_at VARCHAR(64) NOT NULL,
			execution_time_ms INT NOT NULL DEFAULT 0
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`,
		`CREATE TABLE IF NOT EXISTS schema_migrations_lock (
			id TINYINT NOT NULL PRIMARY KEY,
			holder VARCHAR(64) NOT NULL,
			acquired_at VARCHAR(64) NOT NULL,
			expires_at VARCHAR(64)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`,
	}
}
