package migrate

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// versionPattern is the fixed-width version format: exactly three digits,
// zero padded, so lexicographic order is version order.
var versionPattern = regexp.MustCompile(`^\d{3}$`)

// Registry is the validated, ordered collection of all known migration
// definitions. It performs a pure read/validate pass over its source and is
// safe to call repeatedly.
type Registry struct {
	source Source
}

// NewRegistry creates a registry over the given definition source.
func NewRegistry(source Source) *Registry {
	return &Registry{source: source}
}

// Load collects all definitions, validates them, and returns them sorted by
// version ascending. Validation failures abort the entire invocation before
// any database mutation.
func (r *Registry) Load() ([]Definition, error) {
	defs, err := r.source.Definitions()
	if err != nil {
		return nil, fmt.Errorf("collect migration definitions: %w", err)
	}

	seen := make(map[string]string, len(defs))
	for _, def := range defs {
		if !versionPattern.MatchString(def.Version) {
			return nil, fmt.Errorf("%w: %q does not match the zero-padded format (e.g. \"001\")", ErrMalformedVersion, def.Version)
		}
		if strings.TrimSpace(def.Description) == "" {
			return nil, fmt.Errorf("%w: version %s needs a description for the audit trail", ErrEmptyDescription, def.Version)
		}
		if previous, ok := seen[def.Version]; ok {
			return nil, fmt.Errorf("%w: version %s defined as both %q and %q", ErrDuplicateVersion, def.Version, previous, def.Description)
		}
		seen[def.Version] = def.Description
	}

	// Versions are fixed width, so string order is version order
	// regardless of the order the source yielded them in.
	sort.Slice(defs, func(i, j int) bool {
		return defs[i].Version < defs[j].Version
	})

	return defs, nil
}
