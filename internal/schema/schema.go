// Package schema holds the automation tool's registered migration history:
// the tables that back profile scraping, follow tracking, post processing
// and action auditing, plus the later fixes that history accumulated.
//
// Each migration is defined per dialect because the production target is
// MariaDB while local databases and tests run on SQLite; the two need
// different DDL for the same behavioral change. A migration that only
// applies on one dialect uses an empty script on the other.
package schema

import "github.com/example/ig-automation/internal/migrate"

const dialectMySQL = "mysql"

// Definitions returns the full registered history for the given dialect
// name ("sqlite" or "mysql"), in declaration order. The registry re-sorts
// and validates, so order here is only for readability.
func Definitions(dialect string) []migrate.Definition {
	return []migrate.Definition{
		migration001(dialect),
		migration002(dialect),
		// 003 was retired before release; the ledger tolerates the gap.
		migration004(dialect),
		migration005(dialect),
		migration006(dialect),
	}
}
