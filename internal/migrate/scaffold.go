package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"
)

// NextVersion returns the next sequential zero-padded version after the
// highest one in defs, or "001" for an empty registry. Gaps in the history
// are preserved, never filled.
func NextVersion(defs []Definition) string {
	highest := 0
	for _, def := range defs {
		if n, err := strconv.Atoi(def.Version); err == nil && n > highest {
			highest = n
		}
	}
	return fmt.Sprintf("%03d", highest+1)
}

// Scaffold generates a new definition stub file named VVV_name.go in dir and
// returns its path. The stub must be registered with the definition source
// by hand; scaffolding never touches existing files.
func Scaffold(dir, name string, defs []Definition) (string, error) {
	slug := slugify(name)
	if slug == "" {
		return "", fmt.Errorf("migration name %q contains no usable characters", name)
	}

	version := NextVersion(defs)
	path := filepath.Join(dir, fmt.Sprintf("%s_%s.go", version, slug))
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("migration file %s already exists", path)
	}

	description := strings.ReplaceAll(slug, "_", " ")
	content := fmt.Sprintf(`package schema

import "github.com/example/ig-automation/internal/migrate"

// Migration %s: %s.
func migration%s(dialect string) migrate.Definition {
	return migrate.Definition{
		Version:     %q,
		Description: %q,
		Forward: migrate.Script{
			// TODO: forward statements
		},
		Reverse: migrate.Script{
			// TODO: reverse statements
		},
	}
}
`, version, description, version, version, description)

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write migration stub: %w", err)
	}
	return path, nil
}

// slugify lowercases the name and collapses anything that is not a letter or
// digit into single underscores, matching the VVV_description convention.
func slugify(name string) string {
	var b strings.Builder
	lastUnderscore := true
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastUnderscore = false
			continue
		}
		if !lastUnderscore {
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	return strings.Trim(b.String(), "_")
}
