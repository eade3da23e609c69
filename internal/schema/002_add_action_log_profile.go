package schema

import "github.com/example/ig-automation/internal/migrate"

// migration002 attributes action log rows to the profile they ran under.
// Early logs only carried the automation session id, which made per-profile
// audits require a join through sessions that were sometimes purged.
func migration002(dialect string) migrate.Definition {
	forward := migrate.Script{
		`ALTER TABLE action_logs ADD COLUMN profile_id INTEGER`,
		`CREATE INDEX idx_profile_actions ON action_logs(profile_id, action_type)`,
	}
	reverse := migrate.Script{
		`DROP INDEX IF EXISTS idx_profile_actions`,
		`ALTER TABLE action_logs DROP COLUMN profile_id`,
	}

	if dialect == dialectMySQL {
		forward = migrate.Script{
			`ALTER TABLE action_logs ADD COLUMN profile_id INT`,
			`CREATE INDEX idx_profile_actions ON action_logs(profile_id, action_type)`,
		}
		reverse = migrate.Script{
			`DROP INDEX idx_profile_actions ON action_logs`,
			`ALTER TABLE action_logs DROP COLUMN profile_id`,
		}
	}

	return migrate.Definition{
		Version:     "002",
		Description: "add profile attribution to action logs",
		Forward:     forward,
		Reverse:     reverse,
	}
}
