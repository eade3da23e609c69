package schema

import "github.com/example/ig-automation/internal/migrate"

// migration006 widens api_requests.response_body after production hit
// truncated GraphQL payloads larger than 64KB. SQLite TEXT is unbounded,
// so the change is a recorded no-op there; an empty script still gets a
// ledger row and a checksum, which keeps both dialects' histories aligned.
func migration006(dialect string) migrate.Definition {
	forward := migrate.Script{}
	reverse := migrate.Script{}

	if dialect == dialectMySQL {
		forward = migrate.Script{
			`ALTER TABLE api_requests MODIFY COLUMN response_body LONGTEXT`,
			`ALTER TABLE api_requests MODIFY COLUMN params JSON`,
			`ALTER TABLE api_requests MODIFY COLUMN headers JSON`,
		}
		reverse = migrate.Script{
			`ALTER TABLE api_requests MODIFY COLUMN headers TEXT`,
			`ALTER TABLE api_requests MODIFY COLUMN params TEXT`,
			`ALTER TABLE api_requests MODIFY COLUMN response_body TEXT`,
		}
	}

	return migrate.Definition{
		Version:     "006",
		Description: "widen api response storage",
		Forward:     forward,
		Reverse:     reverse,
	}
}
