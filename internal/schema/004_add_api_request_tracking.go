package schema

import "github.com/example/ig-automation/internal/migrate"

// migration004 adds raw API request capture, used for rate-limit tuning and
// for replaying GraphQL queries against endpoint changes.
func migration004(dialect string) migrate.Definition {
	forward := migrate.Script{
		`CREATE TABLE api_requests (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			profile_id INTEGER,
			endpoint TEXT NOT NULL,
			method TEXT DEFAULT 'GET',
			params TEXT,
			headers TEXT,
			response_status INTEGER,
			response_body TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (profile_id) REFERENCES profiles(id)
		)`,
		`CREATE INDEX idx_api_requests_profile ON api_requests(profile_id)`,
		`CREATE INDEX idx_api_requests_endpoint ON api_requests(endpoint)`,
	}
	reverse := migrate.Script{
		`DROP TABLE IF EXISTS api_requests`,
	}

	if dialect == dialectMySQL {
		forward = migrate.Script{
			`CREATE TABLE api_requests (
				id INT AUTO_INCREMENT PRIMARY KEY,
				profile_id INT,
				endpoint VARCHAR(255) NOT NULL,
				method VARCHAR(10) DEFAULT 'GET',
				params TEXT,
				headers TEXT,
				response_status INT,
				response_body TEXT,
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				FOREIGN KEY (profile_id) REFERENCES profiles(id)
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
			`CREATE INDEX idx_api_requests_profile ON api_requests(profile_id)`,
			`CREATE INDEX idx_api_requests_endpoint ON api_requests(endpoint)`,
		}
	}

	return migrate.Definition{
		Version:     "004",
		Description: "add api request tracking",
		Forward:     forward,
		Reverse:     reverse,
	}
}
