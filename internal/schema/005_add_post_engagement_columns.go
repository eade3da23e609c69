package schema

import "github.com/example/ig-automation/internal/migrate"

// migration005 extends posts_processed with the engagement data the comment
// strategy reads when deciding whether a post is worth interacting with.
func migration005(dialect string) migrate.Definition {
	forward := migrate.Script{
		`ALTER TABLE posts_processed ADD COLUMN caption TEXT`,
		`ALTER TABLE posts_processed ADD COLUMN like_count INTEGER DEFAULT 0`,
		`ALTER TABLE posts_processed ADD COLUMN comment_count INTEGER DEFAULT 0`,
		`ALTER TABLE posts_processed ADD COLUMN is_liked BOOLEAN DEFAULT 0`,
		`ALTER TABLE posts_processed ADD COLUMN is_commented BOOLEAN DEFAULT 0`,
	}
	reverse := migrate.Script{
		`ALTER TABLE posts_processed DROP COLUMN is_commented`,
		`ALTER TABLE posts_processed DROP COLUMN is_liked`,
		`ALTER TABLE posts_processed DROP COLUMN comment_count`,
		`ALTER TABLE posts_processed DROP COLUMN like_count`,
		`ALTER TABLE posts_processed DROP COLUMN caption`,
	}

	if dialect == dialectMySQL {
		forward = migrate.Script{
			`ALTER TABLE posts_processed ADD COLUMN caption TEXT`,
			`ALTER TABLE posts_processed ADD COLUMN like_count INT DEFAULT 0`,
			`ALTER TABLE posts_processed ADD COLUMN comment_count INT DEFAULT 0`,
			`ALTER TABLE posts_processed ADD COLUMN is_liked BOOLEAN DEFAULT FALSE`,
			`ALTER TABLE posts_processed ADD COLUMN is_commented BOOLEAN DEFAULT FALSE`,
		}
	}

	return migrate.Definition{
		Version:     "005",
		Description: "add post engagement columns",
		Forward:     forward,
		Reverse:     reverse,
	}
}
