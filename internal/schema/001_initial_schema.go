package schema

import "github.com/example/ig-automation/internal/migrate"

// migration001 creates the core automation tables. Later migrations extend
// them, so this baseline deliberately omits columns added after release
// (action_logs.profile_id, the posts_processed engagement counters).
func migration001(dialect string) migrate.Definition {
	forward := migrate.Script{
		`CREATE TABLE profiles (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT NOT NULL UNIQUE,
			full_name TEXT,
			biography TEXT,
			follower_count INTEGER DEFAULT 0,
			following_count INTEGER DEFAULT 0,
			post_count INTEGER DEFAULT 0,
			is_private BOOLEAN DEFAULT 0,
			is_verified BOOLEAN DEFAULT 0,
			profile_pic_url TEXT,
			last_scraped_at TIMESTAMP,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE browser_sessions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			profile_id INTEGER NOT NULL,
			user_agent TEXT,
			cookies TEXT,
			local_storage TEXT,
			is_valid BOOLEAN DEFAULT 1,
			expires_at TIMESTAMP,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (profile_id) REFERENCES profiles(id)
		)`,
		`CREATE TABLE following (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			profile_id INTEGER NOT NULL,
			target_username TEXT NOT NULL,
			followed_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			unfollowed_at TIMESTAMP,
			follows_back BOOLEAN DEFAULT 0,
			FOREIGN KEY (profile_id) REFERENCES profiles(id)
		)`,
		`CREATE TABLE posts_processed (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			profile_id INTEGER NOT NULL,
			post_shortcode TEXT NOT NULL,
			post_owner TEXT,
			processed_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (profile_id) REFERENCES profiles(id)
		)`,
		`CREATE TABLE comments_made (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			profile_id INTEGER NOT NULL,
			post_shortcode TEXT NOT NULL,
			comment_text TEXT NOT NULL,
			commented_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (profile_id) REFERENCES profiles(id)
		)`,
		`CREATE TABLE automation_sessions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			profile_id INTEGER NOT NULL,
			started_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			ended_at TIMESTAMP,
			status TEXT DEFAULT 'running',
			actions_performed INTEGER DEFAULT 0,
			errors_encountered INTEGER DEFAULT 0,
			FOREIGN KEY (profile_id) REFERENCES profiles(id)
		)`,
		`CREATE TABLE action_logs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id INTEGER NOT NULL,
			action_type TEXT NOT NULL,
			target TEXT,
			success BOOLEAN DEFAULT 1,
			error_message TEXT,
			performed_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (session_id) REFERENCES automation_sessions(id)
		)`,
		`CREATE TABLE graphql_endpoints (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			query_hash TEXT NOT NULL UNIQUE,
			query_name TEXT,
			discovered_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			last_seen_at TIMESTAMP
		)`,
		`CREATE INDEX idx_profiles_username ON profiles(username)`,
		`CREATE INDEX idx_following_target ON following(target_username)`,
		`CREATE INDEX idx_posts_shortcode ON posts_processed(post_shortcode)`,
		`CREATE INDEX idx_action_logs_session ON action_logs(session_id)`,
	}
	reverse := migrate.Script{
		`DROP TABLE IF EXISTS graphql_endpoints`,
		`DROP TABLE IF EXISTS action_logs`,
		`DROP TABLE IF EXISTS automation_sessions`,
		`DROP TABLE IF EXISTS comments_made`,
		`DROP TABLE IF EXISTS posts_processed`,
		`DROP TABLE IF EXISTS following`,
		`DROP TABLE IF EXISTS browser_sessions`,
		`DROP TABLE IF EXISTS profiles`,
	}

	if dialect == dialectMySQL {
		forward = migrate.Script{
			`CREATE TABLE profiles (
				id INT AUTO_INCREMENT PRIMARY KEY,
				username VARCHAR(255) NOT NULL UNIQUE,
				full_name VARCHAR(255),
				biography TEXT,
				follower_count INT DEFAULT 0,
				following_count INT DEFAULT 0,
				post_count INT DEFAULT 0,
				is_private BOOLEAN DEFAULT FALSE,
				is_verified BOOLEAN DEFAULT FALSE,
				profile_pic_url TEXT,
				last_scraped_at TIMESTAMP NULL,
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
			`CREATE TABLE browser_sessions (
				id INT AUTO_INCREMENT PRIMARY KEY,
				profile_id INT NOT NULL,
				user_agent TEXT,
				cookies LONGTEXT,
				local_storage LONGTEXT,
				is_valid BOOLEAN DEFAULT TRUE,
				expires_at TIMESTAMP NULL,
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				FOREIGN KEY (profile_id) REFERENCES profiles(id)
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
			`CREATE TABLE following (
				id INT AUTO_INCREMENT PRIMARY KEY,
				profile_id INT NOT NULL,
				target_username VARCHAR(255) NOT NULL,
				followed_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				unfollowed_at TIMESTAMP NULL,
				follows_back BOOLEAN DEFAULT FALSE,
				FOREIGN KEY (profile_id) REFERENCES profiles(id)
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
			`CREATE TABLE posts_processed (
				id INT AUTO_INCREMENT PRIMARY KEY,
				profile_id INT NOT NULL,
				post_shortcode VARCHAR(64) NOT NULL,
				post_owner VARCHAR(255),
				processed_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				FOREIGN KEY (profile_id) REFERENCES profiles(id)
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
			`CREATE TABLE comments_made (
				id INT AUTO_INCREMENT PRIMARY KEY,
				profile_id INT NOT NULL,
				post_shortcode VARCHAR(64) NOT NULL,
				comment_text TEXT NOT NULL,
				commented_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				FOREIGN KEY (profile_id) REFERENCES profiles(id)
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
			`CREATE TABLE automation_sessions (
				id INT AUTO_INCREMENT PRIMARY KEY,
				profile_id INT NOT NULL,
				started_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				ended_at TIMESTAMP NULL,
				status VARCHAR(32) DEFAULT 'running',
				actions_performed INT DEFAULT 0,
				errors_encountered INT DEFAULT 0,
				FOREIGN KEY (profile_id) REFERENCES profiles(id)
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
			`CREATE TABLE action_logs (
				id INT AUTO_INCREMENT PRIMARY KEY,
				session_id INT NOT NULL,
				action_type VARCHAR(64) NOT NULL,
				target VARCHAR(255),
				success BOOLEAN DEFAULT TRUE,
				error_message TEXT,
				performed_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				FOREIGN KEY (session_id) REFERENCES automation_sessions(id)
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
			`CREATE TABLE graphql_endpoints (
				id INT AUTO_INCREMENT PRIMARY KEY,
				query_hash VARCHAR(64) NOT NULL UNIQUE,
				query_name VARCHAR(255),
				discovered_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				last_seen_at TIMESTAMP NULL
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
			`CREATE INDEX idx_profiles_username ON profiles(username)`,
			`CREATE INDEX idx_following_target ON following(target_username)`,
			`CREATE INDEX idx_posts_shortcode ON posts_processed(post_shortcode)`,
			`CREATE INDEX idx_action_logs_session ON action_logs(session_id)`,
		}
	}

	return migrate.Definition{
		Version:     "001",
		Description: "initial automation schema",
		Forward:     forward,
		Reverse:     reverse,
	}
}
